package commands

import (
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/satishbabariya/wporm/cli/internal/config"
	"github.com/satishbabariya/wporm/cli/internal/ui"
)

func (a *app) newExecCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "exec <sql|file>",
		Short: "Execute a raw SQL command",
		Long: `Execute a raw SQL command, or the contents of a file when the argument
names one. The command is sent as a single statement.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			command := args[0]
			if data, err := afero.ReadFile(config.AppFs, command); err == nil {
				command = string(data)
			}

			ctx := cmd.Context()
			c, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer c.Close()

			if err := c.Exec(ctx, command); err != nil {
				return err
			}
			ui.PrintSuccess("executed")
			return nil
		},
	}
}
