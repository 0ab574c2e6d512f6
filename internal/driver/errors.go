package driver

import (
	"errors"

	pkgerrors "github.com/pkg/errors"
)

// ErrDriver is the sentinel every DriverError wraps, letting callers test
// for the error class with errors.Is without caring about the specific
// failure.
var ErrDriver = errors.New("driver: local reach failure")

// DriverError is a local, per-reach failure: a solver numerical failure
// surviving retry down to the configured minimum timestep, a non-zero
// solver exit with no recoverable signal, or an I/O fault writing
// per-reach outputs. It always carries a stack frame (via pkg/errors) so
// a diagnostic log line can report where the failure originated, distinct
// from the deterministic, stackless sentinel errors in the catchment and
// schedule packages.
type DriverError struct {
	ReachID string
	Action  string
	cause   error
}

func (e *DriverError) Error() string {
	return "driver: reach " + e.ReachID + " " + e.Action + ": " + e.cause.Error()
}

func (e *DriverError) Unwrap() error { return ErrDriver }

func (e *DriverError) Cause() error { return e.cause }

// newDriverError wraps cause with a stack trace and reach/action context.
func newDriverError(reachID, action string, cause error) *DriverError {
	return &DriverError{
		ReachID: reachID,
		Action:  action,
		cause:   pkgerrors.Wrapf(cause, "reach %s: %s", reachID, action),
	}
}
