// Package driver defines the per-reach model adapter contract: one
// invocation of an external solver for one reach, bracketed by init and
// cleanup, with numerical-failure retry built in. The contract operates
// entirely on catchment.Snapshot values and a read-only Config; it shares
// no mutable state with the catchment or scheduler packages.
package driver

import (
	"context"
	"strings"

	"github.com/xlandscape/catchflow/internal/catchment"
)

// Config is the read-only set of parameters the driver consults. It is
// supplied once at construction and never mutated for the lifetime of a
// run.
type Config struct {
	WorkDir                 string
	KeepOriginalOutputs     bool
	DeleteUpstreamFluxFiles bool
	TimeStepDefault         float64
	TimeStepMin             float64
	MassFlowTimestepParam   float64
	MinMassFlowTimestep     float64
	ScaleFacDrift           float64
}

// Validate rejects a configuration whose working directory contains
// whitespace, per the process-level contract: the core must reject such
// inputs with a fatal error before any work starts.
func (c Config) Validate() error {
	if strings.ContainsAny(c.WorkDir, " \t\n\r") {
		return &ConfigurationError{Msg: "working directory path must not contain whitespace: " + c.WorkDir}
	}
	if c.WorkDir == "" {
		return &ConfigurationError{Msg: "working directory must be set"}
	}
	return nil
}

// ConfigurationError reports a fatal, pre-run defect in driver
// configuration.
type ConfigurationError struct{ Msg string }

func (e *ConfigurationError) Error() string { return "configuration: " + e.Msg }

// Report is the outcome of Run, carrying the status plus the diagnostic
// fields the scheduler attaches to its aggregate completion report.
type Report struct {
	Status          catchment.ReportStatus
	Attempts        int
	FinalTimeStep   float64
	RawOutputKept   bool
}

// Driver encapsulates one invocation of the external solver for one
// reach. Implementations must tolerate a restricted execution
// environment (e.g. an empty PATH) and must never read or write outside
// WorkDir and the solver's read-only installation directory.
type Driver interface {
	// Init prepares per-reach static input files. It is idempotent: if
	// the reach's declared outputs already exist, it returns SkipExist
	// without side effects. If the snapshot is Skip, it returns
	// SkipReach and still emits whatever placeholder outputs downstream
	// reaches expect.
	Init(ctx context.Context, snap catchment.Snapshot) (catchment.ReportStatus, error)

	// Run invokes the external solver, retrying on numerical failure per
	// EvaluateRetry down to Config.TimeStepMin / Config.MinMassFlowTimestep.
	Run(ctx context.Context, snap catchment.Snapshot) (Report, error)

	// Cleanup deletes the reach's upstream-flux file when it is no
	// longer required by any live downstream. It may be a no-op.
	Cleanup(ctx context.Context, snap catchment.Snapshot) (catchment.ReportStatus, error)
}
