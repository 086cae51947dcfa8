package scheduler

import (
	"cmp"
	"slices"

	"github.com/jh125486/cpusched/internal/process"
)

type (
	// Row holds the timing metrics of one completed process.
	Row struct {
		ProcessID      int64 `json:"process_id" yaml:"process_id"`
		Priority       int64 `json:"priority" yaml:"priority"`
		ArrivalTime    int64 `json:"arrival_time" yaml:"arrival_time"`
		ServiceTime    int64 `json:"service_time" yaml:"service_time"`
		ResponseTime   int64 `json:"response_time" yaml:"response_time"`
		WaitingTime    int64 `json:"waiting_time" yaml:"waiting_time"`
		TurnaroundTime int64 `json:"turnaround_time" yaml:"turnaround_time"`
		CompletionTime int64 `json:"completion_time" yaml:"completion_time"`
	}

	// Summary aggregates the rows of a report.
	Summary struct {
		Count             int     `json:"count" yaml:"count"`
		AverageResponse   float64 `json:"average_response" yaml:"average_response"`
		AverageWaiting    float64 `json:"average_waiting" yaml:"average_waiting"`
		AverageTurnaround float64 `json:"average_turnaround" yaml:"average_turnaround"`
		Throughput        float64 `json:"throughput" yaml:"throughput"`
		Makespan          int64   `json:"makespan" yaml:"makespan"`
	}

	// Report lists completed processes in completion order.
	Report struct {
		Rows    []Row   `json:"rows" yaml:"rows"`
		Summary Summary `json:"summary" yaml:"summary"`
	}
)

// NewReport derives the metrics of completed records, kept in the given order.
func NewReport(completed []*process.Record) Report {
	report := Report{Rows: make([]Row, 0, len(completed))}

	var totalResponse, totalWait, totalTurnaround float64
	for _, r := range completed {
		if !r.Completed() || !r.Started() {
			panic("report requested for an unfinished process")
		}
		row := Row{
			ProcessID:      r.ProcessID,
			Priority:       r.Priority,
			ArrivalTime:    r.ArrivalTime,
			ServiceTime:    r.ServiceTime,
			ResponseTime:   r.ResponseTime,
			WaitingTime:    r.WaitingTime,
			TurnaroundTime: r.TurnaroundTime(),
			CompletionTime: r.CompletionTime,
		}
		report.Rows = append(report.Rows, row)

		totalResponse += float64(row.ResponseTime)
		totalWait += float64(row.WaitingTime)
		totalTurnaround += float64(row.TurnaroundTime)
		report.Summary.Makespan = max(report.Summary.Makespan, row.CompletionTime)
	}

	count := len(report.Rows)
	report.Summary.Count = count
	if count == 0 {
		return report
	}
	report.Summary.AverageResponse = totalResponse / float64(count)
	report.Summary.AverageWaiting = totalWait / float64(count)
	report.Summary.AverageTurnaround = totalTurnaround / float64(count)
	if report.Summary.Makespan > 0 {
		report.Summary.Throughput = float64(count) / float64(report.Summary.Makespan)
	}
	return report
}

// ByProcessID returns a copy of the rows ordered by process id.
func (r Report) ByProcessID() []Row {
	rows := slices.Clone(r.Rows)
	slices.SortFunc(rows, func(a, b Row) int { return cmp.Compare(a.ProcessID, b.ProcessID) })
	return rows
}
