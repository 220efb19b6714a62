package commands

import (
	"context"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/wporm/cli/internal/ui"
	"github.com/satishbabariya/wporm/cli/internal/watch"
	"github.com/satishbabariya/wporm/database"
	"github.com/satishbabariya/wporm/query/builder"
	"github.com/satishbabariya/wporm/runtime/client"
)

type queryOptions struct {
	filters

	selects  []string
	distinct bool
	order    string
	group    string
	having   string
	limit    int
	offset   int
	with     []string
	first    bool
	explain  bool
	watch    bool
}

func (a *app) newQueryCommand() *cobra.Command {
	opts := &queryOptions{}
	cmd := &cobra.Command{
		Use:   "query <model>",
		Short: "Run a model query and print the rows",
		Long: `Build a query from flags and print the matching rows.

Predicates use the form "column op value", where op is one of
= != <> < <= > >= LIKE, NOT LIKE, REGEXP or NOT REGEXP:

  wporm query Post --where "post_status = 'publish'" --or-where "post_type = page" \
      --order "post_date desc" --limit 10 --with author`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runQuery(cmd, args[0], opts)
		},
	}

	opts.register(cmd)
	flags := cmd.Flags()
	flags.StringSliceVar(&opts.selects, "select", nil, "columns to select (default *)")
	flags.BoolVar(&opts.distinct, "distinct", false, "select distinct rows")
	flags.StringVar(&opts.order, "order", "", "`column [asc|desc]`")
	flags.StringVar(&opts.group, "group", "", "GROUP BY column")
	flags.StringVar(&opts.having, "having", "", "HAVING predicate")
	flags.IntVar(&opts.limit, "limit", 0, "maximum number of rows")
	flags.IntVar(&opts.offset, "offset", 0, "rows to skip")
	flags.StringSliceVar(&opts.with, "with", nil, "relations to eager load")
	flags.BoolVar(&opts.first, "first", false, "return only the first row")
	flags.BoolVar(&opts.explain, "explain", false, "print the SQL instead of running it")
	flags.BoolVar(&opts.watch, "watch", false, "re-run when the SQLite database or config file changes")
	return cmd
}

func (o *queryOptions) build(cmd *cobra.Command, b *builder.QueryBuilder) error {
	if err := o.apply(b); err != nil {
		return err
	}
	if len(o.selects) > 0 {
		b.Select(o.selects...)
	}
	if o.distinct {
		b.Distinct()
	}
	if o.group != "" {
		b.GroupBy(o.group)
	}
	if o.having != "" {
		if err := applyHaving(b, o.having); err != nil {
			return err
		}
	}
	if o.order != "" {
		if err := applyOrder(b, o.order); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("limit") {
		b.Limit(o.limit)
	}
	if cmd.Flags().Changed("offset") {
		b.Offset(o.offset)
	}
	if len(o.with) > 0 {
		b.With(o.with...)
	}
	return b.Err()
}

func (a *app) runQuery(cmd *cobra.Command, name string, opts *queryOptions) error {
	ctx := cmd.Context()
	c, err := a.connect(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	run := func() error {
		return a.query(ctx, cmd, c, name, opts)
	}
	if !opts.watch {
		return run()
	}

	files := a.watchedFiles()
	if len(files) == 0 {
		ui.PrintWarning("nothing to watch: --watch needs a SQLite database or a config file")
		return run()
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w, err := watch.NewWatcher(files, func() error {
		ui.PrintInfo("watching %s", strings.Join(files, ", "))
		return a.query(ctx, cmd, c, name, opts)
	})
	if err != nil {
		return err
	}
	return w.Run(ctx)
}

func (a *app) query(ctx context.Context, cmd *cobra.Command, c *client.Client, name string, opts *queryOptions) error {
	b, err := a.model(c, name)
	if err != nil {
		return err
	}
	if err := opts.build(cmd, b); err != nil {
		return err
	}

	if opts.explain {
		stmt, err := b.ToSQL()
		if err != nil {
			return err
		}
		return ui.PrintMarkdown(ui.ExplainMarkdown(stmt.SQL, stmt.Args))
	}

	if opts.first {
		inst, err := b.First(ctx)
		if err != nil {
			return err
		}
		if inst == nil {
			ui.PrintInfo("no rows")
			return nil
		}
		ui.PrintRecord(inst)
		return nil
	}

	rows, err := b.GetAll(ctx)
	if err != nil {
		return err
	}
	return ui.PrintInstances(rows)
}

// watchedFiles returns the SQLite database file, including its WAL, and the
// config file in use.
func (a *app) watchedFiles() []string {
	var files []string
	if p, err := database.ParseProvider(a.cfg.Provider); err == nil && p == database.SQLite {
		path := strings.TrimPrefix(a.cfg.DatabaseURL, "file:")
		if i := strings.IndexByte(path, '?'); i >= 0 {
			path = path[:i]
		}
		if path != "" && path != ":memory:" {
			files = append(files, path, path+"-wal")
		}
	}
	if a.cfg.File != "" {
		files = append(files, a.cfg.File)
	}
	return files
}
