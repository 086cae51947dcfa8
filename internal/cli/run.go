package cli

import (
	"fmt"
	"strings"

	"github.com/jh125486/cpusched/internal/config"
	"github.com/jh125486/cpusched/internal/output"
	"github.com/jh125486/cpusched/internal/scheduler"
	"github.com/jh125486/cpusched/internal/store"
	"github.com/spf13/cobra"
)

func newRunCmd(a *app) *cobra.Command {
	var queueFlags []string

	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Simulate a process set and print the schedule",
		Long: `Simulate the processes in a YAML simulation file or a CSV process list.

A CSV file holds rows of "arrival,service[,priority]" and needs at least one
--queue flag. For YAML files, --queue flags replace the declared queues.

Examples:
  cpusched run sim.yaml
  cpusched run procs.csv --queue RR:2 --queue FCFS --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			queues := make([]config.QueueConfig, 0, len(queueFlags))
			for _, s := range queueFlags {
				q, err := config.ParseQueue(s)
				if err != nil {
					return err
				}
				queues = append(queues, q)
			}

			sim, err := config.Load(args[0], queues)
			if err != nil {
				return err
			}
			res, err := scheduler.Simulate(sim, scheduler.WithLogger(a.logger))
			if err != nil {
				return err
			}

			if a.cfg.DBPath != "" {
				st, err := a.openStore(cmd.Context())
				if err != nil {
					return err
				}
				defer st.Close()
				run := store.NewRun(sim, res)
				if err := st.SaveRun(cmd.Context(), run); err != nil {
					return fmt.Errorf("save run: %w", err)
				}
				a.logger.Info("run saved", "id", run.ID, "db", a.cfg.DBPath)
			}

			return output.Render(cmd.OutOrStdout(), a.cfg.Format, title(sim.Queues), res)
		},
	}

	cmd.Flags().StringArrayVarP(&queueFlags, "queue", "q", nil, "Queue as ALG or RR:QUANTUM, repeatable in level order")
	cmd.Flags().StringVarP(&a.cfg.Format, "format", "f", a.cfg.Format, "Output format (table, json, yaml)")
	return cmd
}

func title(queues []config.QueueConfig) string {
	names := make([]string, len(queues))
	for i, q := range queues {
		names[i] = q.String()
	}
	return strings.Join(names, " -> ")
}
