// Package scheduler runs the discrete-time dispatch loop over an ordered
// queue configuration and records the resulting timeline and metrics.
//
// Queues run one after another over a single shared pool. The first queue
// drains the pool, so later queues dispatch nothing; there is no promotion or
// demotion between levels.
package scheduler

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/jh125486/cpusched/internal/config"
	"github.com/jh125486/cpusched/internal/process"
)

type (
	// QueueRun describes what one queue configuration did during a run.
	QueueRun struct {
		Index      int                `json:"index" yaml:"index"`
		Queue      config.QueueConfig `json:"queue" yaml:"queue"`
		Dispatches int                `json:"dispatches" yaml:"dispatches"`
		Start      int64              `json:"start" yaml:"start"`
		End        int64              `json:"end" yaml:"end"`
	}

	// Result is the output of a complete run.
	Result struct {
		Queues   []QueueRun `json:"queues" yaml:"queues"`
		Timeline Timeline   `json:"timeline" yaml:"timeline"`
		Report   Report     `json:"report" yaml:"report"`
	}

	// Engine owns the simulated clock, the ready pool and every record for one run.
	Engine struct {
		queues    []config.QueueConfig
		policies  []Policy
		records   []*process.Record
		pool      *ReadyPool
		clock     int64
		timeline  Timeline
		completed []*process.Record
		result    *Result
		observer  func(TimeSlice)
		logger    *slog.Logger
	}

	// Option configures an Engine.
	Option func(*Engine)
)

// WithLogger sets the trace logger. Dispatch decisions are logged at DEBUG.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger.With("component", "scheduler")
		}
	}
}

// WithObserver calls fn after every dispatch step with the slice just run,
// once completion or requeueing of the process has been applied.
func WithObserver(fn func(TimeSlice)) Option {
	return func(e *Engine) {
		e.observer = fn
	}
}

// New validates the queue configuration and descriptors and builds an engine.
func New(queues []config.QueueConfig, descriptors []process.Descriptor, opts ...Option) (*Engine, error) {
	queues = slices.Clone(queues)
	for i := range queues {
		queues[i] = queues[i].Normalize()
	}
	if err := config.Validate(queues); err != nil {
		return nil, err
	}
	records, err := process.NewRecords(descriptors)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		queues:   queues,
		policies: make([]Policy, len(queues)),
		records:  records,
		pool:     NewReadyPool(records),
		logger:   slog.New(slog.DiscardHandler),
	}
	for i, q := range queues {
		if e.policies[i], err = NewPolicy(q); err != nil {
			return nil, fmt.Errorf("queue %d: %w", i+1, err)
		}
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Simulate builds an engine for sim and runs it to completion.
func Simulate(sim config.Simulation, opts ...Option) (*Result, error) {
	e, err := New(sim.Queues, sim.Processes, opts...)
	if err != nil {
		return nil, err
	}
	return e.Run(), nil
}

// Records returns every record in process id order.
func (e *Engine) Records() []*process.Record { return e.records }

// Run drives each queue configuration in order until all records complete.
// Later calls return the first result.
func (e *Engine) Run() *Result {
	if e.result != nil {
		return e.result
	}

	runs := make([]QueueRun, 0, len(e.queues))
	for i := range e.queues {
		runs = append(runs, e.runQueue(i))
	}
	if len(e.completed) != len(e.records) {
		panic(fmt.Sprintf("%d of %d processes completed", len(e.completed), len(e.records)))
	}

	e.result = &Result{
		Queues:   runs,
		Timeline: e.timeline,
		Report:   NewReport(e.completed),
	}
	return e.result
}

func (e *Engine) runQueue(idx int) QueueRun {
	policy := e.policies[idx]
	run := QueueRun{Index: idx + 1, Queue: e.queues[idx], Start: e.clock}
	logger := e.logger.With("queue", run.Index, "algorithm", policy.Algorithm())
	logger.Info("queue started", "clock", e.clock, "pending", e.pool.Pending(), "ready", len(e.pool.Ready()))

	for !e.pool.Empty() {
		e.pool.Admit(e.clock)

		ready := e.pool.Ready()
		if len(ready) == 0 {
			// the CPU stays idle until the next arrival
			next, _ := e.pool.NextArrival()
			logger.Debug("idle", "from", e.clock, "to", next)
			e.clock = next
			continue
		}

		r := e.pool.Take(policy.Select(ready))
		r.Level = idx
		r.UpdateWaitingTime(e.clock)

		start := e.clock
		executed := r.Execute(start, policy.RunLength(r))
		if executed <= 0 {
			panic(fmt.Sprintf("process %d: non-positive execution length %d", r.ProcessID, executed))
		}
		e.clock += executed
		e.timeline.Append(r.ProcessID, start, e.clock)
		run.Dispatches++
		logger.Debug("dispatch", "pid", r.ProcessID, "start", start, "end", e.clock, "remaining", r.RemainingTime)

		e.pool.Admit(e.clock)
		if policy.Preemptive() {
			e.accrueWaiting(start)
		}

		switch {
		case r.Completed():
			e.completed = append(e.completed, r)
			logger.Debug("process completed", "pid", r.ProcessID, "clock", e.clock, "waiting", r.WaitingTime)
		case policy.Preemptive():
			e.pool.Requeue(r)
		default:
			panic(fmt.Sprintf("process %d: non-preemptive dispatch left %d remaining", r.ProcessID, r.RemainingTime))
		}

		if e.observer != nil {
			e.observer(e.timeline[len(e.timeline)-1])
		}
	}

	run.End = e.clock
	logger.Info("queue drained", "clock", e.clock, "dispatches", run.Dispatches)
	return run
}

// accrueWaiting charges the slice that started at start to every other ready
// record, counting only the part after each record arrived.
func (e *Engine) accrueWaiting(start int64) {
	for _, other := range e.pool.Ready() {
		other.WaitingTime += e.clock - max(start, other.ArrivalTime)
	}
}
