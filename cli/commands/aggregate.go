package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/wporm/cli/internal/ui"
	"github.com/satishbabariya/wporm/query/builder"
)

var aggregates = map[string]func(*builder.QueryBuilder, context.Context, string) (any, error){
	"avg": func(b *builder.QueryBuilder, ctx context.Context, col string) (any, error) { return b.Avg(ctx, col) },
	"sum": func(b *builder.QueryBuilder, ctx context.Context, col string) (any, error) { return b.Sum(ctx, col) },
	"max": (*builder.QueryBuilder).Max,
	"min": (*builder.QueryBuilder).Min,
}

func (a *app) newAggregateCommand() *cobra.Command {
	var f filters
	cmd := &cobra.Command{
		Use:       "aggregate <avg|sum|min|max> <model> <column>",
		Short:     "Compute an aggregate over matching rows",
		Args:      cobra.ExactArgs(3),
		ValidArgs: []string{"avg", "sum", "min", "max"},
		RunE: func(cmd *cobra.Command, args []string) error {
			fn, ok := aggregates[strings.ToLower(args[0])]
			if !ok {
				return fmt.Errorf("unknown aggregate %q", args[0])
			}

			ctx := cmd.Context()
			c, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer c.Close()

			b, err := a.model(c, args[1])
			if err != nil {
				return err
			}
			if err := f.apply(b); err != nil {
				return err
			}
			v, err := fn(b, ctx, args[2])
			if err != nil {
				return err
			}
			fmt.Fprintln(ui.Out, ui.Cell(v))
			return nil
		},
	}
	f.register(cmd)
	return cmd
}
