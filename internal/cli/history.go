package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/jh125486/cpusched/internal/output"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newHistoryCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			runs, err := st.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"ID", "Created", "Queues", "Processes", "Avg wait", "Makespan"})
			for _, run := range runs {
				s := run.Result.Report.Summary
				table.Append([]string{
					run.ID,
					humanize.Time(run.CreatedAt),
					title(run.Queues),
					fmt.Sprint(len(run.Processes)),
					fmt.Sprintf("%.2f", s.AverageWaiting),
					fmt.Sprint(s.Makespan),
				})
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list")
	return cmd
}

func newShowCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			run, err := st.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return output.Render(cmd.OutOrStdout(), a.cfg.Format, title(run.Queues), run.Result)
		},
	}
	cmd.Flags().StringVarP(&a.cfg.Format, "format", "f", a.cfg.Format, "Output format (table, json, yaml)")
	return cmd
}
