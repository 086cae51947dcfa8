// Package output renders simulation results as text, JSON or YAML.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jh125486/cpusched/internal/scheduler"
	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"
)

// Formats lists the accepted values for Render.
var Formats = []string{"table", "json", "yaml"}

// Render writes res in the given format. The table format includes the title,
// the queue configuration, a Gantt chart and the schedule table.
func Render(w io.Writer, format, title string, res *scheduler.Result) error {
	switch strings.ToLower(format) {
	case "", "table":
		Title(w, title)
		Configuration(w, res.Queues)
		Gantt(w, res.Timeline)
		Schedule(w, res.Report)
		return nil
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(res); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown output format %q (valid: %s)", format, strings.Join(Formats, ", "))
}

//region Output helpers

// Title writes a banner around title.
func Title(w io.Writer, title string) {
	_, _ = fmt.Fprintln(w, strings.Repeat("-", len(title)*2))
	_, _ = fmt.Fprintln(w, strings.Repeat(" ", len(title)/2), title)
	_, _ = fmt.Fprintln(w, strings.Repeat("-", len(title)*2))
}

// Configuration writes one line per queue with its dispatch count.
func Configuration(w io.Writer, runs []scheduler.QueueRun) {
	_, _ = fmt.Fprintln(w, "Configuration summary")
	_, _ = fmt.Fprintf(w, "Number of queues: %d\n", len(runs))
	for _, run := range runs {
		_, _ = fmt.Fprintf(w, "Queue %d: %s, %d dispatches [%d, %d]\n", run.Index, run.Queue, run.Dispatches, run.Start, run.End)
	}
	_, _ = fmt.Fprintln(w)
}

// Gantt writes a text Gantt chart. Idle gaps between slices are shown as "-".
func Gantt(w io.Writer, gantt scheduler.Timeline) {
	_, _ = fmt.Fprintln(w, "Gantt schedule")
	if len(gantt) == 0 {
		_, _ = fmt.Fprintf(w, "(empty)\n\n")
		return
	}

	type cell struct {
		label string
		start int64
	}
	cells := make([]cell, 0, len(gantt))
	var last int64
	for i := range gantt {
		if gantt[i].Start > last {
			cells = append(cells, cell{label: "-", start: last})
		}
		cells = append(cells, cell{label: fmt.Sprint(gantt[i].PID), start: gantt[i].Start})
		last = gantt[i].Stop
	}

	_, _ = fmt.Fprint(w, "|")
	for i := range cells {
		padding := strings.Repeat(" ", (8-len(cells[i].label))/2)
		_, _ = fmt.Fprint(w, padding, cells[i].label, padding, "|")
	}
	_, _ = fmt.Fprintln(w)
	for i := range cells {
		_, _ = fmt.Fprint(w, fmt.Sprint(cells[i].start), "\t")
	}
	_, _ = fmt.Fprint(w, fmt.Sprint(last))
	_, _ = fmt.Fprintf(w, "\n\n")
}

// Schedule writes the per-process timing table with averages in the footer.
func Schedule(w io.Writer, report scheduler.Report) {
	rows := make([][]string, len(report.Rows))
	for i, r := range report.Rows {
		rows[i] = []string{
			fmt.Sprint(r.ProcessID),
			fmt.Sprint(r.Priority),
			fmt.Sprint(r.ServiceTime),
			fmt.Sprint(r.ArrivalTime),
			fmt.Sprint(r.ResponseTime),
			fmt.Sprint(r.WaitingTime),
			fmt.Sprint(r.TurnaroundTime),
			fmt.Sprint(r.CompletionTime),
		}
	}

	s := report.Summary
	_, _ = fmt.Fprintln(w, "Schedule table")
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Priority", "Burst", "Arrival", "Response", "Wait", "Turnaround", "Exit"})
	table.AppendBulk(rows)
	table.SetFooter([]string{"", "", "", "",
		fmt.Sprintf("Average\n%.2f", s.AverageResponse),
		fmt.Sprintf("Average\n%.2f", s.AverageWaiting),
		fmt.Sprintf("Average\n%.2f", s.AverageTurnaround),
		fmt.Sprintf("Throughput\n%.2f/t", s.Throughput)})
	table.Render()
}

//endregion
