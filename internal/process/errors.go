package process

import "errors"

var (
	// ErrInvalidProcess is returned for a negative arrival time or a non-positive service time.
	ErrInvalidProcess = errors.New("invalid process")
	// ErrInvalidPriority is returned for a negative priority value.
	ErrInvalidPriority = errors.New("invalid priority")
)
