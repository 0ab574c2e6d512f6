package catchment

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors identifying the fatal, pre-run error classes.
var (
	// ErrInvalidTopology wraps a TopologyError (cycle, duplicate id).
	ErrInvalidTopology = errors.New("catchment: invalid topology")

	// ErrInvalidConfiguration wraps a ConfigurationError (bad identifier,
	// missing attribute, whitespace in a path).
	ErrInvalidConfiguration = errors.New("catchment: invalid configuration")
)

// TopologyError reports a fatal, pre-run defect in the catchment's graph
// structure: a cycle among downstream edges, or a duplicate reach id.
type TopologyError struct {
	Msg  string
	Path []ReachID // populated for cycle errors; nil otherwise
}

func (e *TopologyError) Error() string { return "topology: " + e.Msg }

func (e *TopologyError) Unwrap() error { return ErrInvalidTopology }

func topologyf(format string, args ...any) error {
	return &TopologyError{Msg: fmt.Sprintf(format, args...)}
}

func cycleError(path []ReachID) error {
	names := make([]string, len(path))
	for i, id := range path {
		names[i] = string(id)
	}
	return &TopologyError{Msg: "cycle detected: " + strings.Join(names, " -> "), Path: path}
}

// ConfigurationError reports a fatal, pre-run defect in the reach
// attributes or identifiers supplied to the catchment.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string { return "configuration: " + e.Msg }

func (e *ConfigurationError) Unwrap() error { return ErrInvalidConfiguration }

func configf(format string, args ...any) error {
	return &ConfigurationError{Msg: fmt.Sprintf(format, args...)}
}
