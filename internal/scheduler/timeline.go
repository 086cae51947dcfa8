package scheduler

import "fmt"

// TimeSlice is one execution interval [Start, Stop) of a process.
type TimeSlice struct {
	PID   int64 `json:"pid" yaml:"pid"`
	Start int64 `json:"start" yaml:"start"`
	Stop  int64 `json:"stop" yaml:"stop"`
}

// Timeline is the append-only ordered log of execution intervals.
type Timeline []TimeSlice

// Append records an interval. Empty or reversed intervals are defects.
func (t *Timeline) Append(pid, start, stop int64) {
	if stop <= start {
		panic(fmt.Sprintf("process %d: empty time slice [%d, %d)", pid, start, stop))
	}
	if n := len(*t); n > 0 && (*t)[n-1].Stop > start {
		panic(fmt.Sprintf("process %d: time slice [%d, %d) overlaps previous slice ending at %d", pid, start, stop, (*t)[n-1].Stop))
	}
	*t = append(*t, TimeSlice{PID: pid, Start: start, Stop: stop})
}

// ForProcess returns the slices of one process in order.
func (t Timeline) ForProcess(pid int64) []TimeSlice {
	var out []TimeSlice
	for _, s := range t {
		if s.PID == pid {
			out = append(out, s)
		}
	}
	return out
}

// Executed is the total length of all slices of one process.
func (t Timeline) Executed(pid int64) int64 {
	var total int64
	for _, s := range t {
		if s.PID == pid {
			total += s.Stop - s.Start
		}
	}
	return total
}
