// Package cli implements the cpusched command tree.
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jh125486/cpusched/internal/config"
	"github.com/jh125486/cpusched/internal/logging"
	"github.com/jh125486/cpusched/internal/store"
	"github.com/spf13/cobra"
)

// app carries the resolved global flags into every subcommand.
type app struct {
	cfg    config.RunConfig
	debug  bool
	logger *slog.Logger
}

// NewRootCmd creates the root cobra command for the cpusched CLI.
func NewRootCmd() *cobra.Command {
	a := &app{cfg: config.DefaultRunConfig()}

	root := &cobra.Command{
		Use:   "cpusched",
		Short: "CPU scheduling simulator",
		Long: `cpusched simulates FCFS, LCFS, round-robin and priority scheduling over a
fixed set of processes and reports the execution timeline together with the
response, waiting and turnaround time of every process.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if a.debug {
				a.cfg.LogLevel = "debug"
			}
			a.logger = logging.NewWithWriter(logging.ParseLevel(a.cfg.LogLevel), a.cfg.LogFormat, cmd.ErrOrStderr())
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging (dispatch trace)")
	root.PersistentFlags().StringVar(&a.cfg.LogLevel, "log-level", a.cfg.LogLevel, "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&a.cfg.LogFormat, "log-format", a.cfg.LogFormat, "Log format (text, json)")
	root.PersistentFlags().StringVar(&a.cfg.DBPath, "db", a.cfg.DBPath, "SQLite run history path (or CPUSCHED_DB env)")

	root.AddCommand(
		newRunCmd(a),
		newHistoryCmd(a),
		newShowCmd(a),
		newServeCmd(a),
	)
	return root
}

// openStore opens and migrates the run history database.
func (a *app) openStore(ctx context.Context) (*store.SQLiteStore, error) {
	if a.cfg.DBPath == "" {
		return nil, fmt.Errorf("%w: --db (or CPUSCHED_DB) is required", config.ErrInvalidArgs)
	}
	st, err := store.NewSQLiteStore(a.cfg.DBPath, a.logger)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}
