package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/wporm/cli/internal/ui"
)

func (a *app) newCountCommand() *cobra.Command {
	var (
		f      filters
		exists bool
	)
	cmd := &cobra.Command{
		Use:   "count <model>",
		Short: "Count matching rows",
		Args:  cobra.ExactArgs(1),
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
			if err := f.apply(b); err != nil {
				return err
			}

			if exists {
				ok, err := b.Exists(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(ui.Out, ok)
				return nil
			}
			n, err := b.Count(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(ui.Out, n)
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().BoolVar(&exists, "exists", false, "print true or false instead of the count")
	return cmd
}
