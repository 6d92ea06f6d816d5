package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/waymark/internal/chart"
	"github.com/dshills/waymark/internal/config"
	"github.com/dshills/waymark/internal/event"
	"github.com/dshills/waymark/internal/logging"
	"github.com/dshills/waymark/internal/script"
)

type runFlags struct {
	timeout time.Duration
	watch   bool
	trace   bool
}

func newRunCmd(flags *globalFlags) *cobra.Command {
	rf := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run <script.lua>",
		Short: "Run a chart script",
		Long: `Run a Lua script against the configured chart store.

The script reaches the chart through the global "chart" table or
require("chart"). Changes are persisted as the script makes them.

Examples:
  waymark run passage.lua
  waymark run --store-backend sqlite --store-path chart.db passage.lua
  waymark run --timeout 5s --watch survey.lua`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(cmd, flags, rf, args[0])
		},
	}

	cmd.Flags().DurationVar(&rf.timeout, "timeout", script.DefaultExecutionTimeout, "Script execution timeout (0 disables)")
	cmd.Flags().BoolVar(&rf.watch, "watch", false, "Reload history and logging settings when the config file changes")
	cmd.Flags().BoolVar(&rf.trace, "trace", false, "Print every chart change to stderr")
	return cmd
}

func runScript(cmd *cobra.Command, flags *globalFlags, rf *runFlags, path string) error {
	cfg, err := flags.load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg, cmd.ErrOrStderr())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opts []chart.Option
	if rf.trace {
		bus := event.NewBus()
		defer bus.Close()
		if _, err := bus.Subscribe("chart.**", traceHandler(cmd.ErrOrStderr())); err != nil {
			return err
		}
		opts = append(opts, chart.WithEvents(bus))
	}

	session, st, err := openSession(ctx, cfg, logger, opts...)
	if err != nil {
		return err
	}
	defer st.Close()

	if rf.watch {
		w, err := watchConfig(flags, session, logger)
		if err != nil {
			return err
		}
		if w != nil {
			defer w.Close()
		}
	}

	state := script.NewState(
		script.WithExecutionTimeout(rf.timeout),
		script.WithOutput(cmd.OutOrStdout()),
	)
	defer state.Close()

	if err := script.NewChartModule(session).Register(state); err != nil {
		return err
	}

	logger.Debug("running %s", path)
	if err := state.DoFile(ctx, path); err != nil {
		if errors.Is(err, script.ErrExecutionTimeout) {
			return fmt.Errorf("%s: %w after %s", path, script.ErrExecutionTimeout, rf.timeout)
		}
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// traceHandler writes one line per chart event.
func traceHandler(w io.Writer) event.Handler {
	return func(ev event.Event) error {
		var detail string
		switch p := ev.Payload.(type) {
		case chart.WaypointEvent:
			detail = fmt.Sprintf("%s %q at %s", p.Waypoint.GUID, p.Waypoint.Name, p.Waypoint.Position)
		case chart.HistoryEvent:
			detail = p.Action.Description
			if p.Err != nil {
				detail += " (" + p.Err.Error() + ")"
			}
		case chart.RouteInfo:
			detail = fmt.Sprintf("%s %q, %d points, %.2f nm", p.GUID, p.Name, len(p.Points), p.Length)
		case chart.LoadedEvent:
			detail = fmt.Sprintf("%d waypoints, %d routes", p.Waypoints, p.Routes)
		}
		_, err := fmt.Fprintf(w, "%s %s %s\n", ev.Metadata.Timestamp.Format("15:04:05.000"), ev.Type, detail)
		return err
	}
}

// watchConfig applies config file changes to a running session. It returns
// nil when there is no config file to watch.
func watchConfig(flags *globalFlags, session *chart.Session, logger *logging.Logger) (*config.Watcher, error) {
	if flags.configPath == "" {
		return nil, nil
	}
	if _, err := os.Stat(flags.configPath); err != nil {
		logger.Warn("not watching %s: %v", flags.configPath, err)
		return nil, nil
	}

	return config.Watch(flags.configPath, func(cfg *config.Config, err error) {
		if err != nil {
			logger.Warn("config reload failed: %v", err)
			return
		}
		flags.apply(cfg)
		session.SetMaxDepth(cfg.History.MaxDepth)
		logger.SetLevel(cfg.LogLevel())
		logger.Info("config reloaded")
	})
}
