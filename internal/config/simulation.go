package config

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jh125486/cpusched/internal/process"
	"gopkg.in/yaml.v3"
)

type (
	// File is the on-disk and on-the-wire shape of a simulation request.
	File struct {
		Queues    []QueueConfig `yaml:"queues" json:"queues"`
		Processes []ProcessSpec `yaml:"processes" json:"processes"`
	}

	// ProcessSpec describes one process. Priority defaults to process.DefaultPriority.
	ProcessSpec struct {
		Arrival  int64  `yaml:"arrival" json:"arrival"`
		Service  int64  `yaml:"service" json:"service"`
		Priority *int64 `yaml:"priority,omitempty" json:"priority,omitempty"`
	}

	// Simulation is a validated queue configuration plus process descriptors.
	Simulation struct {
		Queues    []QueueConfig
		Processes []process.Descriptor
	}
)

// Descriptor converts p, applying the default priority.
func (p ProcessSpec) Descriptor() process.Descriptor {
	priority := process.DefaultPriority
	if p.Priority != nil {
		priority = *p.Priority
	}
	return process.Descriptor{
		ArrivalTime: p.Arrival,
		ServiceTime: p.Service,
		Priority:    priority,
	}
}

// Simulation normalizes and validates the file contents.
func (f File) Simulation() (Simulation, error) {
	sim := Simulation{
		Queues:    make([]QueueConfig, len(f.Queues)),
		Processes: make([]process.Descriptor, len(f.Processes)),
	}
	for i := range f.Queues {
		sim.Queues[i] = f.Queues[i].Normalize()
	}
	for i := range f.Processes {
		sim.Processes[i] = f.Processes[i].Descriptor()
	}
	if err := sim.Validate(); err != nil {
		return Simulation{}, err
	}
	return sim, nil
}

// Validate checks the queue configuration and the process descriptors.
func (s Simulation) Validate() error {
	if err := Validate(s.Queues); err != nil {
		return err
	}
	return process.Validate(s.Processes)
}

// Load reads a simulation from path. Files ending in .csv hold processes only
// and take their queues from the queues argument, which otherwise overrides
// the queues declared in a YAML file when non-empty.
func Load(path string, queues []QueueConfig) (Simulation, error) {
	f, closeFile, err := openProcessingFile(path)
	if err != nil {
		return Simulation{}, err
	}
	defer closeFile()

	var file File
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		file.Processes, err = LoadCSV(f)
	} else {
		file, err = LoadYAML(f)
	}
	if err != nil {
		return Simulation{}, fmt.Errorf("%s: %w", path, err)
	}
	if len(queues) > 0 {
		file.Queues = queues
	}
	return file.Simulation()
}

func openProcessingFile(path string) (*os.File, func(), error) {
	if path == "" {
		return nil, nil, fmt.Errorf("%w: must give a scheduling file to process", ErrInvalidArgs)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: error opening scheduling file", err)
	}
	closeFn := func() {
		_ = f.Close()
	}
	return f, closeFn, nil
}

// LoadYAML decodes a simulation document.
func LoadYAML(r io.Reader) (File, error) {
	var file File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return File{}, nil
		}
		return File{}, fmt.Errorf("parse simulation file: %w", err)
	}
	return file, nil
}

// LoadCSV reads rows of "arrival,service[,priority]". Process ids follow row order.
func LoadCSV(r io.Reader) ([]ProcessSpec, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: reading CSV", err)
	}

	specs := make([]ProcessSpec, 0, len(rows))
	for i, row := range rows {
		if len(row) < 2 || len(row) > 3 {
			return nil, fmt.Errorf("%w: row %d: want 2 or 3 fields, got %d", ErrInvalidArgs, i+1, len(row))
		}
		var spec ProcessSpec
		if spec.Arrival, err = strToInt(row[0]); err != nil {
			return nil, fmt.Errorf("row %d arrival: %w", i+1, err)
		}
		if spec.Service, err = strToInt(row[1]); err != nil {
			return nil, fmt.Errorf("row %d service: %w", i+1, err)
		}
		if len(row) == 3 {
			priority, err := strToInt(row[2])
			if err != nil {
				return nil, fmt.Errorf("row %d priority: %w", i+1, err)
			}
			spec.Priority = &priority
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func strToInt(s string) (int64, error) {
	i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrInvalidArgs, s)
	}
	return i, nil
}
