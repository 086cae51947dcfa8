// Package store persists simulation runs.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jh125486/cpusched/internal/config"
	"github.com/jh125486/cpusched/internal/process"
	"github.com/jh125486/cpusched/internal/scheduler"
)

// ErrNotFound is returned when a run id is unknown.
var ErrNotFound = errors.New("run not found")

// Run is one recorded simulation: its input and its result.
type Run struct {
	ID        string               `json:"id"`
	CreatedAt time.Time            `json:"created_at"`
	Queues    []config.QueueConfig `json:"queues"`
	Processes []process.Descriptor `json:"processes"`
	Result    *scheduler.Result    `json:"result"`
}

// NewRun assigns a fresh id and timestamp to a finished simulation.
func NewRun(sim config.Simulation, res *scheduler.Result) *Run {
	return &Run{
		ID:        "run_" + uuid.New().String(),
		CreatedAt: time.Now().UTC(),
		Queues:    sim.Queues,
		Processes: sim.Processes,
		Result:    res,
	}
}

// Store defines the persistence layer for runs.
type Store interface {
	SaveRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, id string) (*Run, error)
	// ListRuns returns the most recent runs first.
	ListRuns(ctx context.Context, limit int) ([]*Run, error)

	Close() error
	Migrate(ctx context.Context) error
}
