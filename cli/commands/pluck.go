package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/wporm/cli/internal/ui"
)

func (a *app) newPluckCommand() *cobra.Command {
	var (
		f      filters
		order  string
		limit  int
		offset int
	)
	cmd := &cobra.Command{
		Use:   "pluck <model> <column>",
		Short: "Print one column of every matching row",
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
			if err := f.apply(b); err != nil {
				return err
			}
			if order != "" {
				if err := applyOrder(b, order); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("limit") {
				b.Limit(limit)
			}
			if cmd.Flags().Changed("offset") {
				b.Offset(offset)
			}

			values, err := b.Pluck(ctx, args[1])
			if err != nil {
				return err
			}
			for _, v := range values {
				fmt.Fprintln(ui.Out, ui.Cell(v))
			}
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&order, "order", "", "`column [asc|desc]`")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of values")
	cmd.Flags().IntVar(&offset, "offset", 0, "values to skip")
	return cmd
}
