// Package commands implements the wporm command line.
package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/wporm/cli/internal/config"
	"github.com/satishbabariya/wporm/cli/internal/ui"
	"github.com/satishbabariya/wporm/cli/internal/version"
	"github.com/satishbabariya/wporm/internal/debug"
	"github.com/satishbabariya/wporm/model"
	"github.com/satishbabariya/wporm/query/builder"
	"github.com/satishbabariya/wporm/runtime"
	"github.com/satishbabariya/wporm/runtime/client"
	"github.com/satishbabariya/wporm/telemetry"
)

// app holds the persistent flags and per-invocation state shared by every
// subcommand.
type app struct {
	root *cobra.Command

	cfgFile   string
	provider  string
	dsn       string
	prefix    string
	pk        string
	debug     bool
	stats     bool
	statsFile string

	cfg       *config.Config
	collector *telemetry.Collector
}

// Execute is the main entry point for the CLI
func Execute() error {
	return Run(context.Background(), os.Args[1:])
}

// Run executes the command line given by args.
func Run(ctx context.Context, args []string) error {
	a := newApp()
	a.root.SetArgs(args)

	start := time.Now()
	cmd, err := a.root.ExecuteContextC(ctx)
	if err != nil {
		ui.PrintError("%v", err)
	}

	provider := a.provider
	if a.cfg != nil {
		provider = a.cfg.Provider
	}
	name := a.root.Name()
	if cmd != nil {
		name = cmd.Name()
	}
	a.collector.RecordCommand(name, provider, time.Since(start), err)
	if a.stats {
		if perr := ui.PrintStats(a.collector.Snapshot()); perr != nil {
			debug.Warn("print stats", "error", perr)
		}
	}
	if a.statsFile != "" {
		if werr := a.writeStats(); werr != nil {
			ui.PrintWarning("failed to write stats: %v", werr)
		}
	}
	return err
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	return newApp().root
}

func newApp() *app {
	a := &app{collector: telemetry.NewCollector()}
	a.root = &cobra.Command{
		Use:   "wporm",
		Short: "Query WordPress-style databases through wporm models",
		Long: `wporm runs fluent model queries against MySQL, PostgreSQL, SQLite and
DuckDB databases. Models are declared in .wporm.yaml; tables without a model
declaration are queried as dynamic models.`,
		Version:       version.Get().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := a.root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default searches ./.wporm.yaml, $HOME and $HOME/.config/wporm)")
	pf.StringVar(&a.provider, "provider", "", "database provider: mysql, postgres, sqlite or duckdb")
	pf.StringVar(&a.dsn, "dsn", "", "database URL or DSN")
	pf.StringVar(&a.prefix, "prefix", "", "table prefix")
	pf.StringVar(&a.pk, "pk", "id", "primary key for tables without a model declaration")
	pf.BoolVar(&a.debug, "debug", false, "log every statement")
	pf.BoolVar(&a.stats, "stats", false, "print statement statistics when done")
	pf.StringVar(&a.statsFile, "stats-file", "", "write statement statistics as JSON")

	a.root.AddCommand(
		a.newQueryCommand(),
		a.newGetCommand(),
		a.newCountCommand(),
		a.newPluckCommand(),
		a.newAggregateCommand(),
		a.newExecCommand(),
		a.newInitCommand(),
		a.newVersionCommand(),
	)
	return a
}

// loadConfig reads the config file and applies flag overrides.
func (a *app) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(a.cfgFile)
	if err != nil {
		return nil, err
	}

	flags := a.root.PersistentFlags()
	if a.provider != "" {
		cfg.Provider = a.provider
	}
	if a.dsn != "" {
		cfg.DatabaseURL = a.dsn
	}
	if flags.Changed("prefix") {
		cfg.TablePrefix = a.prefix
	}
	if a.debug {
		cfg.Debug = true
	}

	debug.Init(debug.Options{Enabled: cfg.Debug, JSON: cfg.LogJSON})
	a.cfg = cfg
	return cfg, nil
}

// connect opens a client for the configured database.
func (a *app) connect(ctx context.Context) (*client.Client, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.DatabaseURL == "" {
		return nil, errors.New("no database configured: set database_url, DATABASE_URL or --dsn")
	}

	reg, err := cfg.Registry()
	if err != nil {
		return nil, fmt.Errorf("invalid models: %w", err)
	}

	opts := []client.Option{client.WithMiddleware(a.collector.Middleware())}
	if cfg.RetainState {
		opts = append(opts, client.WithRetainedState())
	}
	return client.Open(ctx, cfg.Database(), reg, opts...)
}

// model returns a builder for name. Names that are not declared are defined
// on the fly as dynamic models over the table of the same name.
func (a *app) model(c *client.Client, name string) (*builder.QueryBuilder, error) {
	b, err := c.Model(name)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, runtime.ErrUnknownEntity) {
		return nil, err
	}

	e, derr := c.Registry().Define(name, name, model.PrimaryKey(a.pk))
	if derr != nil {
		return nil, derr
	}
	debug.Debug("using dynamic model", "table", name, "pk", a.pk)
	return c.Query(e), nil
}

func (a *app) writeStats() error {
	f, err := config.AppFs.OpenFile(a.statsFile, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	return a.collector.WriteJSON(f)
}
