package commands

import (
	"context"
	"fmt"

	goversion "github.com/hashicorp/go-version"
	"github.com/spf13/cobra"

	"github.com/satishbabariya/wporm/cli/internal/ui"
	"github.com/satishbabariya/wporm/cli/internal/version"
)

type serverVersioner interface {
	ServerVersion(ctx context.Context) (*goversion.Version, error)
}

func (a *app) newVersionCommand() *cobra.Command {
	var server bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.Get()
			if !server {
				fmt.Fprintln(ui.Out, info.Report(""))
				return nil
			}

			ctx := cmd.Context()
			c, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer c.Close()

			sv, ok := c.Conn().(serverVersioner)
			if !ok {
				return fmt.Errorf("connection does not report a server version")
			}
			v, err := sv.ServerVersion(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(ui.Out, info.Report(fmt.Sprintf("%s %s", a.cfg.Provider, v)))
			return nil
		},
	}
	cmd.Flags().BoolVar(&server, "server", false, "also connect and report the database server version")
	return cmd
}
