package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dshills/waymark/internal/chart"
	"github.com/dshills/waymark/internal/chart/store"
	"github.com/dshills/waymark/internal/chart/store/memstore"
	"github.com/dshills/waymark/internal/chart/store/sqlite"
	"github.com/dshills/waymark/internal/chart/store/yamlfile"
	"github.com/dshills/waymark/internal/config"
	"github.com/dshills/waymark/internal/logging"
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	logLevel   string
	backend    string
	storePath  string
	locale     string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "waymark",
		Short: "Waymark - scriptable waypoint charts with undo",
		Long: `Waymark keeps a chart of waypoints and routes with a bounded undo history.

Charts are edited by Lua scripts that use the chart module:

  local chart = require("chart")
  local id = chart.create("Harbour", 59.91, 10.75)
  chart.move(id, 59.92, 10.74)
  chart.undo()`,
		Version:       fmt.Sprintf("%s (%s, %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", config.DefaultPath(), "Path to configuration file")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&flags.backend, "store-backend", "", "Store backend (memory, sqlite, yaml)")
	pf.StringVar(&flags.storePath, "store-path", "", "Database or document path")
	pf.StringVar(&flags.locale, "locale", "", "Language of action descriptions")

	root.AddCommand(
		newRunCmd(flags),
		newListCmd(flags),
		newVersionCmd(),
	)
	return root
}

// load resolves the configuration and applies flag overrides on top.
func (f *globalFlags) load() (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	f.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (f *globalFlags) apply(cfg *config.Config) {
	if f.logLevel != "" {
		cfg.Logging.Level = f.logLevel
	}
	if f.backend != "" {
		cfg.Store.Backend = f.backend
	}
	if f.storePath != "" {
		cfg.Store.Path = f.storePath
	}
	if f.locale != "" {
		cfg.Locale = f.locale
	}
}

func newLogger(cfg *config.Config, w io.Writer) *logging.Logger {
	logger := logging.New(logging.Config{
		Level:  cfg.LogLevel(),
		Output: w,
		Prefix: "waymark",
	})
	logging.SetDefault(logger)
	return logger
}

// openStore opens the configured backend.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Backend {
	case config.BackendMemory:
		return memstore.New(), nil
	case config.BackendSQLite:
		st, err := sqlite.Open(ctx, cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		return st, nil
	case config.BackendYAML:
		st, err := yamlfile.Open(cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownBackend, cfg.Store.Backend)
	}
}

// openSession opens the store and loads it into a new chart session.
func openSession(ctx context.Context, cfg *config.Config, logger *logging.Logger, opts ...chart.Option) (*chart.Session, store.Store, error) {
	st, err := openStore(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s store: %w", cfg.Store.Backend, err)
	}

	session := chart.New(append([]chart.Option{
		chart.WithStore(st),
		chart.WithLogger(logger.WithComponent("chart")),
		chart.WithMaxDepth(cfg.History.MaxDepth),
		chart.WithLanguage(cfg.Language()),
	}, opts...)...)
	if err := session.Load(ctx); err != nil {
		_ = st.Close()
		return nil, nil, fmt.Errorf("load chart: %w", err)
	}
	return session, st, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "waymark %s\n", version)
			fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", commit)
			fmt.Fprintf(cmd.OutOrStdout(), "  built:  %s\n", date)
		},
	}
}
