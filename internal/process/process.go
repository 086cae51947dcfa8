// Package process holds the mutable state of a simulated job and the
// validation boundary that turns raw descriptors into records.
package process

import (
	"fmt"
	"math"
)

// DefaultPriority is used when a descriptor does not carry a priority.
const DefaultPriority int64 = 1

type (
	// Descriptor describes one job as supplied by the caller.
	Descriptor struct {
		ArrivalTime int64
		ServiceTime int64
		Priority    int64
	}

	// Record is the state of one job during a simulation run.
	// It is mutated only by the scheduler and becomes immutable once completed.
	Record struct {
		ProcessID      int64
		ArrivalTime    int64
		ServiceTime    int64
		RemainingTime  int64
		Priority       int64
		StartTime      int64
		ResponseTime   int64
		WaitingTime    int64
		CompletionTime int64
		// Level is the index of the queue configuration that last dispatched the record.
		Level int

		started bool
	}
)

// Validate checks the descriptor against the process invariants.
func (d Descriptor) Validate() error {
	if d.ArrivalTime < 0 {
		return fmt.Errorf("%w: arrival time %d must be >= 0", ErrInvalidProcess, d.ArrivalTime)
	}
	if d.ServiceTime <= 0 {
		return fmt.Errorf("%w: service time %d must be > 0", ErrInvalidProcess, d.ServiceTime)
	}
	if d.Priority < 0 {
		return fmt.Errorf("%w: priority %d must be >= 0", ErrInvalidPriority, d.Priority)
	}
	return nil
}

// Validate checks every descriptor and that the whole set finishes within
// math.MaxInt64 ticks: the latest arrival plus the total service must not overflow.
func Validate(descriptors []Descriptor) error {
	var latest, total int64
	for i, d := range descriptors {
		if err := d.Validate(); err != nil {
			return fmt.Errorf("process %d: %w", i+1, err)
		}
		if d.ServiceTime > math.MaxInt64-total {
			return fmt.Errorf("%w: total service time overflows at process %d", ErrInvalidProcess, i+1)
		}
		total += d.ServiceTime
		latest = max(latest, d.ArrivalTime)
	}
	if latest > math.MaxInt64-total {
		return fmt.Errorf("%w: latest arrival %d plus total service %d overflows the clock", ErrInvalidProcess, latest, total)
	}
	return nil
}

// NewRecords validates the descriptors and builds records with 1-based ids
// assigned by input order. No record is built if any descriptor is invalid.
func NewRecords(descriptors []Descriptor) ([]*Record, error) {
	if err := Validate(descriptors); err != nil {
		return nil, err
	}
	records := make([]*Record, len(descriptors))
	for i, d := range descriptors {
		records[i] = &Record{
			ProcessID:     int64(i + 1),
			ArrivalTime:   d.ArrivalTime,
			ServiceTime:   d.ServiceTime,
			RemainingTime: d.ServiceTime,
			Priority:      d.Priority,
		}
	}
	return records, nil
}

// Started reports whether the record has been dispatched at least once.
func (r *Record) Started() bool { return r.started }

// Completed reports whether the record has no remaining work.
func (r *Record) Completed() bool { return r.RemainingTime == 0 }

// Executed is the amount of service already received.
func (r *Record) Executed() int64 { return r.ServiceTime - r.RemainingTime }

// TurnaroundTime is service plus waiting time.
func (r *Record) TurnaroundTime() int64 { return r.ServiceTime + r.WaitingTime }

// Dispatch records the first dispatch at now. Later calls are no-ops.
func (r *Record) Dispatch(now int64) {
	if r.started {
		return
	}
	r.started = true
	r.StartTime = now
	r.ResponseTime = now - r.ArrivalTime
}

// UpdateWaitingTime sets the waiting time to the time elapsed since arrival
// minus the service already received.
func (r *Record) UpdateWaitingTime(now int64) {
	r.WaitingTime = now - r.ArrivalTime - r.Executed()
}

// Execute runs the record starting at now for at most quantum ticks, or until
// completion when quantum is zero, and returns the executed length.
func (r *Record) Execute(now, quantum int64) int64 {
	if r.RemainingTime <= 0 {
		panic(fmt.Sprintf("process %d executed with remaining time %d", r.ProcessID, r.RemainingTime))
	}
	r.Dispatch(now)

	executed := r.RemainingTime
	if quantum > 0 && quantum < executed {
		executed = quantum
	}
	r.RemainingTime -= executed
	if r.RemainingTime == 0 {
		r.CompletionTime = now + executed
	}
	return executed
}
