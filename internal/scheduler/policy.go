package scheduler

import (
	"fmt"

	"github.com/jh125486/cpusched/internal/config"
	"github.com/jh125486/cpusched/internal/process"
)

// Policy selects the next record to run from a non-empty ready queue and
// decides how long it runs.
type Policy interface {
	Algorithm() config.Algorithm
	// Select returns the index of the chosen record in ready.
	Select(ready []*process.Record) int
	// RunLength is the number of ticks the chosen record runs before the next decision.
	RunLength(r *process.Record) int64
	// Preemptive policies requeue a record that still has remaining time.
	Preemptive() bool
}

// NewPolicy builds the policy for a validated queue configuration.
func NewPolicy(q config.QueueConfig) (Policy, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	switch q.Algorithm {
	case config.FCFS:
		return fcfs{}, nil
	case config.LCFS:
		return lcfs{}, nil
	case config.Priority:
		return priority{}, nil
	case config.RR:
		return roundRobin{quantum: q.Quantum}, nil
	}
	return nil, fmt.Errorf("%w: unknown algorithm %q", config.ErrInvalidConfiguration, q.Algorithm)
}

type nonPreemptive struct{}

func (nonPreemptive) RunLength(r *process.Record) int64 { return r.RemainingTime }
func (nonPreemptive) Preemptive() bool                  { return false }

// fcfs picks the earliest arrival; ties go to the earlier queue position.
type fcfs struct{ nonPreemptive }

func (fcfs) Algorithm() config.Algorithm { return config.FCFS }

func (fcfs) Select(ready []*process.Record) int {
	best := 0
	for i := 1; i < len(ready); i++ {
		if ready[i].ArrivalTime < ready[best].ArrivalTime {
			best = i
		}
	}
	return best
}

// lcfs is a stack over the ready queue: last inserted, first removed.
type lcfs struct{ nonPreemptive }

func (lcfs) Algorithm() config.Algorithm { return config.LCFS }

func (lcfs) Select(ready []*process.Record) int { return len(ready) - 1 }

// priority orders by priority value, then arrival time, then input order.
// Lower values run first.
type priority struct{ nonPreemptive }

func (priority) Algorithm() config.Algorithm { return config.Priority }

func (priority) Select(ready []*process.Record) int {
	best := 0
	for i := 1; i < len(ready); i++ {
		if higherPriority(ready[i], ready[best]) {
			best = i
		}
	}
	return best
}

func higherPriority(a, b *process.Record) bool {
	if a.Priority != b.Priority {
		return a.Priority < b.Priority
	}
	if a.ArrivalTime != b.ArrivalTime {
		return a.ArrivalTime < b.ArrivalTime
	}
	return a.ProcessID < b.ProcessID
}

type roundRobin struct {
	quantum int64
}

func (roundRobin) Algorithm() config.Algorithm { return config.RR }

func (roundRobin) Select([]*process.Record) int { return 0 }

func (rr roundRobin) RunLength(r *process.Record) int64 { return min(rr.quantum, r.RemainingTime) }

func (roundRobin) Preemptive() bool { return true }
