package scheduler

import (
	"bytes"
	"log/slog"
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/jh125486/cpusched/internal/config"
	"github.com/jh125486/cpusched/internal/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	fcfsQueue     = config.QueueConfig{Algorithm: config.FCFS}
	lcfsQueue     = config.QueueConfig{Algorithm: config.LCFS}
	priorityQueue = config.QueueConfig{Algorithm: config.Priority}
)

func rrQueue(quantum int64) config.QueueConfig {
	return config.QueueConfig{Algorithm: config.RR, Quantum: quantum}
}

func simulate(t *testing.T, queues []config.QueueConfig, descs ...process.Descriptor) *Result {
	t.Helper()
	res, err := Simulate(config.Simulation{Queues: queues, Processes: descs})
	require.NoError(t, err)
	return res
}

func rowsByID(res *Result) map[int64]Row {
	out := make(map[int64]Row)
	for _, row := range res.Report.Rows {
		out[row.ProcessID] = row
	}
	return out
}

func TestSimulate_FCFS(t *testing.T) {
	res := simulate(t, []config.QueueConfig{fcfsQueue},
		process.Descriptor{ArrivalTime: 0, ServiceTime: 5, Priority: 1},
		process.Descriptor{ArrivalTime: 1, ServiceTime: 3, Priority: 1},
		process.Descriptor{ArrivalTime: 2, ServiceTime: 2, Priority: 1},
	)

	assert.Equal(t, Timeline{{1, 0, 5}, {2, 5, 8}, {3, 8, 10}}, res.Timeline)
	assert.Equal(t, []Row{
		{ProcessID: 1, Priority: 1, ArrivalTime: 0, ServiceTime: 5, ResponseTime: 0, WaitingTime: 0, TurnaroundTime: 5, CompletionTime: 5},
		{ProcessID: 2, Priority: 1, ArrivalTime: 1, ServiceTime: 3, ResponseTime: 4, WaitingTime: 4, TurnaroundTime: 7, CompletionTime: 8},
		{ProcessID: 3, Priority: 1, ArrivalTime: 2, ServiceTime: 2, ResponseTime: 6, WaitingTime: 6, TurnaroundTime: 8, CompletionTime: 10},
	}, res.Report.Rows)

	s := res.Report.Summary
	assert.Equal(t, 3, s.Count)
	assert.InDelta(t, 10.0/3, s.AverageWaiting, 1e-9)
	assert.InDelta(t, 20.0/3, s.AverageTurnaround, 1e-9)
	assert.InDelta(t, 10.0/3, s.AverageResponse, 1e-9)
	assert.InDelta(t, 0.3, s.Throughput, 1e-9)
	assert.Equal(t, int64(10), s.Makespan)
}

func TestSimulate_RoundRobin(t *testing.T) {
	res := simulate(t, []config.QueueConfig{rrQueue(2)},
		process.Descriptor{ArrivalTime: 0, ServiceTime: 4, Priority: 1},
		process.Descriptor{ArrivalTime: 1, ServiceTime: 3, Priority: 1},
	)

	assert.Equal(t, Timeline{{1, 0, 2}, {2, 2, 4}, {1, 4, 6}, {2, 6, 7}}, res.Timeline)
	assert.Equal(t, int64(4), res.Timeline.Executed(1))
	assert.Equal(t, int64(3), res.Timeline.Executed(2))

	rows := rowsByID(res)
	assert.Equal(t, int64(0), rows[1].ResponseTime)
	assert.Equal(t, int64(2), rows[1].WaitingTime)
	assert.Equal(t, int64(6), rows[1].TurnaroundTime)
	assert.Equal(t, int64(1), rows[2].ResponseTime)
	assert.Equal(t, int64(3), rows[2].WaitingTime)
	assert.Equal(t, int64(6), rows[2].TurnaroundTime)
	assert.Equal(t, []int64{1, 2}, []int64{res.Report.Rows[0].ProcessID, res.Report.Rows[1].ProcessID})
}

func TestSimulate_RoundRobinRequeuesAfterArrivals(t *testing.T) {
	// process 2 arrives during the first slice and is queued ahead of the preempted process 1
	res := simulate(t, []config.QueueConfig{rrQueue(3)},
		process.Descriptor{ArrivalTime: 0, ServiceTime: 6, Priority: 1},
		process.Descriptor{ArrivalTime: 3, ServiceTime: 2, Priority: 1},
	)
	assert.Equal(t, Timeline{{1, 0, 3}, {2, 3, 5}, {1, 5, 8}}, res.Timeline)

	rows := rowsByID(res)
	assert.Equal(t, int64(2), rows[1].WaitingTime)
	assert.Equal(t, int64(0), rows[2].WaitingTime)
}

func TestSimulate_LCFS(t *testing.T) {
	res := simulate(t, []config.QueueConfig{lcfsQueue},
		process.Descriptor{ArrivalTime: 0, ServiceTime: 2, Priority: 1},
		process.Descriptor{ArrivalTime: 0, ServiceTime: 3, Priority: 1},
		process.Descriptor{ArrivalTime: 1, ServiceTime: 1, Priority: 1},
	)

	assert.Equal(t, Timeline{{2, 0, 3}, {3, 3, 4}, {1, 4, 6}}, res.Timeline)
	rows := rowsByID(res)
	assert.Equal(t, int64(4), rows[1].WaitingTime)
	assert.Equal(t, int64(0), rows[2].WaitingTime)
	assert.Equal(t, int64(2), rows[3].WaitingTime)
}

func TestSimulate_Priority(t *testing.T) {
	res := simulate(t, []config.QueueConfig{priorityQueue},
		process.Descriptor{ArrivalTime: 0, ServiceTime: 3, Priority: 2},
		process.Descriptor{ArrivalTime: 0, ServiceTime: 3, Priority: 1},
	)
	assert.Equal(t, Timeline{{2, 0, 3}, {1, 3, 6}}, res.Timeline)

	res = simulate(t, []config.QueueConfig{priorityQueue},
		process.Descriptor{ArrivalTime: 0, ServiceTime: 3, Priority: 1},
		process.Descriptor{ArrivalTime: 1, ServiceTime: 1, Priority: 5},
		process.Descriptor{ArrivalTime: 2, ServiceTime: 1, Priority: 0},
	)
	// non-preemptive: process 1 keeps the CPU even though process 3 outranks it
	assert.Equal(t, Timeline{{1, 0, 3}, {3, 3, 4}, {2, 4, 5}}, res.Timeline)
}

func TestSimulate_SingleProcess(t *testing.T) {
	for _, q := range []config.QueueConfig{fcfsQueue, lcfsQueue, priorityQueue, rrQueue(1), rrQueue(4)} {
		t.Run(q.String(), func(t *testing.T) {
			res := simulate(t, []config.QueueConfig{q}, process.Descriptor{ArrivalTime: 0, ServiceTime: 1, Priority: 1})
			assert.Equal(t, Timeline{{1, 0, 1}}, res.Timeline)
			require.Len(t, res.Report.Rows, 1)
			row := res.Report.Rows[0]
			assert.Equal(t, int64(0), row.WaitingTime)
			assert.Equal(t, int64(0), row.ResponseTime)
			assert.Equal(t, int64(1), row.TurnaroundTime)
		})
	}
}

func TestSimulate_IdleGap(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	res, err := Simulate(config.Simulation{
		Queues:    []config.QueueConfig{fcfsQueue},
		Processes: []process.Descriptor{{ArrivalTime: 5, ServiceTime: 2, Priority: 1}},
	}, WithLogger(logger))
	require.NoError(t, err)

	assert.Equal(t, Timeline{{1, 5, 7}}, res.Timeline)
	assert.Equal(t, int64(0), res.Report.Rows[0].ResponseTime)
	assert.Equal(t, int64(0), res.Report.Rows[0].WaitingTime)
	assert.Equal(t, []QueueRun{{Index: 1, Queue: fcfsQueue, Dispatches: 1, Start: 0, End: 7}}, res.Queues)
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("msg=idle")))
	assert.Contains(t, buf.String(), "from=0 to=5")
	assert.Contains(t, buf.String(), "msg=dispatch")
	assert.Contains(t, buf.String(), "component=scheduler")
	assert.Contains(t, buf.String(), `msg="queue drained"`)
}

func TestSimulate_IdleGapBetweenProcesses(t *testing.T) {
	res := simulate(t, []config.QueueConfig{rrQueue(2)},
		process.Descriptor{ArrivalTime: 0, ServiceTime: 1, Priority: 1},
		process.Descriptor{ArrivalTime: 4, ServiceTime: 3, Priority: 1},
	)
	assert.Equal(t, Timeline{{1, 0, 1}, {2, 4, 6}, {2, 6, 7}}, res.Timeline)
	assert.Equal(t, int64(0), rowsByID(res)[2].WaitingTime)
}

func TestSimulate_SequentialQueues(t *testing.T) {
	res := simulate(t, []config.QueueConfig{rrQueue(2), fcfsQueue, priorityQueue},
		process.Descriptor{ArrivalTime: 0, ServiceTime: 4, Priority: 1},
		process.Descriptor{ArrivalTime: 1, ServiceTime: 3, Priority: 1},
	)

	require.Len(t, res.Queues, 3)
	assert.Equal(t, 4, res.Queues[0].Dispatches)
	assert.Equal(t, int64(7), res.Queues[0].End)
	for _, run := range res.Queues[1:] {
		assert.Zero(t, run.Dispatches)
		assert.Equal(t, int64(7), run.Start)
		assert.Equal(t, int64(7), run.End)
	}
	assert.Len(t, res.Report.Rows, 2)
}

func TestSimulate_Empty(t *testing.T) {
	res := simulate(t, []config.QueueConfig{fcfsQueue})
	assert.Empty(t, res.Timeline)
	assert.Empty(t, res.Report.Rows)
	assert.Equal(t, Summary{}, res.Report.Summary)
}

func TestNew_Errors(t *testing.T) {
	_, err := New(nil, nil)
	assert.ErrorIs(t, err, config.ErrInvalidConfiguration)

	_, err = New([]config.QueueConfig{{Algorithm: "MLFQ"}}, nil)
	assert.ErrorIs(t, err, config.ErrInvalidConfiguration)

	_, err = New([]config.QueueConfig{{Algorithm: config.RR, Quantum: 0}}, nil)
	assert.ErrorIs(t, err, config.ErrInvalidConfiguration)

	_, err = New([]config.QueueConfig{fcfsQueue}, []process.Descriptor{{ArrivalTime: -1, ServiceTime: 1}})
	assert.ErrorIs(t, err, process.ErrInvalidProcess)

	_, err = New([]config.QueueConfig{priorityQueue}, []process.Descriptor{{ArrivalTime: 0, ServiceTime: 1, Priority: -1}})
	assert.ErrorIs(t, err, process.ErrInvalidPriority)
}

func TestNew_NormalizesAlgorithm(t *testing.T) {
	e, err := New([]config.QueueConfig{{Algorithm: "rr", Quantum: 2}}, []process.Descriptor{{ServiceTime: 3, Priority: 1}})
	require.NoError(t, err)
	res := e.Run()
	assert.Equal(t, config.RR, res.Queues[0].Queue.Algorithm)
	assert.Same(t, res, e.Run())
	assert.Equal(t, 0, e.Records()[0].Level)
}

func randomDescriptors(r *rand.Rand, n int) []process.Descriptor {
	descs := make([]process.Descriptor, n)
	for i := range descs {
		descs[i] = process.Descriptor{
			ArrivalTime: r.Int64N(20),
			ServiceTime: 1 + r.Int64N(8),
			Priority:    r.Int64N(4),
		}
	}
	return descs
}

func TestSimulate_Invariants(t *testing.T) {
	queues := []config.QueueConfig{fcfsQueue, lcfsQueue, priorityQueue, rrQueue(1), rrQueue(3)}
	r := rand.New(rand.NewPCG(4600, 1))

	for round := 0; round < 25; round++ {
		descs := randomDescriptors(r, 1+r.IntN(10))
		for _, q := range queues {
			sim := config.Simulation{Queues: []config.QueueConfig{q}, Processes: descs}
			res, err := Simulate(sim)
			require.NoError(t, err)

			require.Len(t, res.Report.Rows, len(descs), q.String())
			for _, row := range res.Report.Rows {
				assert.GreaterOrEqual(t, row.WaitingTime, int64(0))
				assert.GreaterOrEqual(t, row.ResponseTime, int64(0))
				assert.LessOrEqual(t, row.ResponseTime, row.WaitingTime)
				assert.Equal(t, row.ServiceTime+row.WaitingTime, row.TurnaroundTime)
				assert.Equal(t, row.CompletionTime-row.ArrivalTime, row.TurnaroundTime)
				assert.Equal(t, row.ServiceTime, res.Timeline.Executed(row.ProcessID))

				slices := res.Timeline.ForProcess(row.ProcessID)
				assert.Equal(t, row.ArrivalTime+row.ResponseTime, slices[0].Start)
				assert.GreaterOrEqual(t, slices[0].Start, row.ArrivalTime)
			}

			for i := 1; i < len(res.Timeline); i++ {
				assert.LessOrEqual(t, res.Timeline[i-1].Stop, res.Timeline[i].Start)
			}

			again, err := Simulate(sim)
			require.NoError(t, err)
			assert.Equal(t, res, again)
		}
	}
}

func TestSimulate_LongIdleGap(t *testing.T) {
	done := make(chan *Result, 1)
	go func() {
		res, err := Simulate(config.Simulation{
			Queues: []config.QueueConfig{rrQueue(2)},
			Processes: []process.Descriptor{
				{ArrivalTime: 0, ServiceTime: 1, Priority: 1},
				{ArrivalTime: 1 << 40, ServiceTime: 3, Priority: 1},
			},
		})
		assert.NoError(t, err)
		done <- res
	}()

	select {
	case res := <-done:
		require.NotNil(t, res)
		assert.Equal(t, Timeline{{1, 0, 1}, {2, 1 << 40, 1<<40 + 2}, {2, 1<<40 + 2, 1<<40 + 3}}, res.Timeline)
		assert.Equal(t, int64(0), rowsByID(res)[2].WaitingTime)
		assert.Equal(t, int64(1<<40+3), res.Report.Summary.Makespan)
	case <-time.After(5 * time.Second):
		t.Fatal("simulation across a long idle gap did not finish")
	}
}

func TestSimulate_ClockOverflowRejected(t *testing.T) {
	assert.NotPanics(t, func() {
		_, err := Simulate(config.Simulation{
			Queues: []config.QueueConfig{fcfsQueue},
			Processes: []process.Descriptor{
				{ArrivalTime: 0, ServiceTime: math.MaxInt64, Priority: 1},
				{ArrivalTime: 0, ServiceTime: 1, Priority: 1},
			},
		})
		assert.ErrorIs(t, err, process.ErrInvalidProcess)
	})
}

func TestSimulate_WaitingNeverDecreases(t *testing.T) {
	queues := []config.QueueConfig{fcfsQueue, lcfsQueue, priorityQueue, rrQueue(1), rrQueue(2), rrQueue(3)}
	// arrivals land in the middle of slices and during an idle gap
	descs := []process.Descriptor{
		{ArrivalTime: 0, ServiceTime: 5, Priority: 2},
		{ArrivalTime: 1, ServiceTime: 3, Priority: 1},
		{ArrivalTime: 3, ServiceTime: 4, Priority: 0},
		{ArrivalTime: 4, ServiceTime: 1, Priority: 3},
		{ArrivalTime: 20, ServiceTime: 3, Priority: 1},
		{ArrivalTime: 21, ServiceTime: 2, Priority: 1},
	}

	for _, q := range queues {
		t.Run(q.String(), func(t *testing.T) {
			var e *Engine
			last := make(map[int64]int64)
			steps := 0
			observe := func(slice TimeSlice) {
				steps++
				for _, r := range e.Records() {
					assert.GreaterOrEqual(t, r.WaitingTime, last[r.ProcessID], "process %d after slice %+v", r.ProcessID, slice)
					last[r.ProcessID] = r.WaitingTime

					// under RR every arrived, unfinished process is charged exactly the time it was not running
					if q.Algorithm == config.RR && r.ArrivalTime <= slice.Stop && !r.Completed() {
						assert.Equal(t, slice.Stop-r.ArrivalTime-r.Executed(), r.WaitingTime, "process %d after slice %+v", r.ProcessID, slice)
					}
				}
			}

			var err error
			e, err = New([]config.QueueConfig{q}, descs, WithObserver(observe))
			require.NoError(t, err)
			res := e.Run()

			assert.Equal(t, len(res.Timeline), steps)
			for _, row := range res.Report.Rows {
				assert.Equal(t, last[row.ProcessID], row.WaitingTime)
			}
		})
	}
}
