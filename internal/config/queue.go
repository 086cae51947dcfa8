package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrInvalidConfiguration is returned for an unknown algorithm tag or an RR queue without a positive quantum.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrInvalidArgs is returned when command arguments have the wrong shape.
	ErrInvalidArgs = errors.New("invalid args")
)

// Algorithm is a dispatch discipline tag.
type Algorithm string

const (
	FCFS     Algorithm = "FCFS"
	LCFS     Algorithm = "LCFS"
	RR       Algorithm = "RR"
	Priority Algorithm = "PRIORITY"
)

// Algorithms lists every supported tag.
var Algorithms = []Algorithm{FCFS, LCFS, RR, Priority}

// ParseAlgorithm normalizes s to upper case and checks it is a known tag.
func ParseAlgorithm(s string) (Algorithm, error) {
	a := Algorithm(strings.ToUpper(strings.TrimSpace(s)))
	if !a.Valid() {
		return "", fmt.Errorf("%w: unknown algorithm %q (valid: FCFS, LCFS, RR, PRIORITY)", ErrInvalidConfiguration, s)
	}
	return a, nil
}

// Valid reports whether a is a known tag.
func (a Algorithm) Valid() bool {
	switch a {
	case FCFS, LCFS, RR, Priority:
		return true
	}
	return false
}

// QueueConfig is one level of the queue configuration.
// Quantum is required for RR and ignored otherwise.
type QueueConfig struct {
	Algorithm Algorithm `yaml:"algorithm" json:"algorithm"`
	Quantum   int64     `yaml:"quantum,omitempty" json:"quantum,omitempty"`
}

// ParseQueue parses the flag form "ALG" or "RR:QUANTUM".
func ParseQueue(s string) (QueueConfig, error) {
	name, quantum, hasQuantum := strings.Cut(s, ":")
	a, err := ParseAlgorithm(name)
	if err != nil {
		return QueueConfig{}, err
	}
	q := QueueConfig{Algorithm: a}
	if hasQuantum {
		n, err := strconv.ParseInt(strings.TrimSpace(quantum), 10, 64)
		if err != nil {
			return QueueConfig{}, fmt.Errorf("%w: quantum %q is not an integer", ErrInvalidConfiguration, quantum)
		}
		q.Quantum = n
	}
	q = q.Normalize()
	if err := q.Validate(); err != nil {
		return QueueConfig{}, err
	}
	return q, nil
}

// Normalize upper-cases the algorithm tag and clears an unused quantum.
func (q QueueConfig) Normalize() QueueConfig {
	q.Algorithm = Algorithm(strings.ToUpper(strings.TrimSpace(string(q.Algorithm))))
	if q.Algorithm != RR {
		q.Quantum = 0
	}
	return q
}

// Validate checks the algorithm tag and the RR quantum.
func (q QueueConfig) Validate() error {
	if !q.Algorithm.Valid() {
		return fmt.Errorf("%w: unknown algorithm %q (valid: FCFS, LCFS, RR, PRIORITY)", ErrInvalidConfiguration, q.Algorithm)
	}
	if q.Algorithm == RR && q.Quantum <= 0 {
		return fmt.Errorf("%w: RR quantum must be a positive integer, got %d", ErrInvalidConfiguration, q.Quantum)
	}
	return nil
}

func (q QueueConfig) String() string {
	if q.Algorithm == RR {
		return fmt.Sprintf("%s (Quantum = %d)", q.Algorithm, q.Quantum)
	}
	return string(q.Algorithm)
}

// Validate checks an ordered queue configuration. At least one queue is required.
func Validate(queues []QueueConfig) error {
	if len(queues) == 0 {
		return fmt.Errorf("%w: at least one queue is required", ErrInvalidConfiguration)
	}
	for i, q := range queues {
		if err := q.Validate(); err != nil {
			return fmt.Errorf("queue %d: %w", i+1, err)
		}
	}
	return nil
}
