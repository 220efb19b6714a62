package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/wporm/cli/internal/ui"
)

func (a *app) newGetCommand() *cobra.Command {
	var with []string
	cmd := &cobra.Command{
		Use:   "get <model> <id>",
		Short: "Fetch one row by primary key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer c.Close()

			b, err := a.model(c, args[0])
			if err != nil {
				return err
			}
			inst, err := b.With(with...).Get(ctx, parseID(args[1]))
			if err != nil {
				return err
			}
			if inst == nil {
				return fmt.Errorf("%s %s not found", args[0], args[1])
			}
			ui.PrintRecord(inst)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&with, "with", nil, "relations to eager load")
	return cmd
}
