package scheduler

import (
	"cmp"
	"slices"

	"github.com/jh125486/cpusched/internal/process"
)

// ReadyPool tracks records that have not arrived yet and the ready queue of
// arrived, unfinished records that are not running.
type ReadyPool struct {
	pending []*process.Record
	ready   []*process.Record
}

// NewReadyPool places every record in pending, ordered by arrival time with
// ties kept in input order.
func NewReadyPool(records []*process.Record) *ReadyPool {
	pending := slices.Clone(records)
	slices.SortStableFunc(pending, func(a, b *process.Record) int {
		return cmp.Compare(a.ArrivalTime, b.ArrivalTime)
	})
	return &ReadyPool{pending: pending}
}

// Admit moves every pending record with arrival time <= now to the tail of the
// ready queue in ascending arrival order and returns how many were moved.
func (p *ReadyPool) Admit(now int64) int {
	n := 0
	for n < len(p.pending) && p.pending[n].ArrivalTime <= now {
		n++
	}
	if n == 0 {
		return 0
	}
	p.ready = append(p.ready, p.pending[:n]...)
	p.pending = p.pending[n:]
	return n
}

// Ready returns the ready queue in insertion order. Callers must not modify it.
func (p *ReadyPool) Ready() []*process.Record { return p.ready }

// NextArrival is the earliest arrival time among pending records.
// ok is false when nothing is pending.
func (p *ReadyPool) NextArrival() (next int64, ok bool) {
	if len(p.pending) == 0 {
		return 0, false
	}
	return p.pending[0].ArrivalTime, true
}

// Pending is the number of records that have not arrived yet.
func (p *ReadyPool) Pending() int { return len(p.pending) }

// Empty reports whether both pending and ready are empty.
func (p *ReadyPool) Empty() bool { return len(p.pending) == 0 && len(p.ready) == 0 }

// Take removes and returns the ready record at index i, keeping the order of the rest.
func (p *ReadyPool) Take(i int) *process.Record {
	r := p.ready[i]
	p.ready = slices.Delete(p.ready, i, i+1)
	return r
}

// Requeue returns a preempted record to the tail of the ready queue.
func (p *ReadyPool) Requeue(r *process.Record) {
	p.ready = append(p.ready, r)
}
