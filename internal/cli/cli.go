// Package cli wires the engine's building blocks (config, catchment
// construction, priority, scheduling, driver, telemetry, reporting) into
// cobra commands. Invocation parsing and exit codes are deterministic;
// path flags are passed on as given, without canonicalization.
package cli

import (
	"errors"
	"fmt"
)

// Exit codes: 0 success, 1 a run that completed but left reaches
// failed, 2 invalid invocation, 3 config error, 4 any other internal
// error.
const (
	ExitSuccess           = 0
	ExitRunFailure        = 1
	ExitInvalidInvocation = 2
	ExitConfigError       = 3
	ExitInternalError     = 4
)

// InvocationError carries a semantic exit code alongside a user-facing
// message, so main can translate a returned error directly into a
// process exit code without re-deriving it from error text.
type InvocationError struct {
	ExitCode int
	Message  string
}

func (e *InvocationError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func invalidInvocationf(format string, args ...any) error {
	return &InvocationError{ExitCode: ExitInvalidInvocation, Message: fmt.Sprintf(format, args...)}
}

func configErrorf(format string, args ...any) error {
	return &InvocationError{ExitCode: ExitConfigError, Message: fmt.Sprintf(format, args...)}
}

// ExitCodeFor extracts the semantic exit code from an error returned by
// a command's RunE, falling back to ExitInternalError for anything
// that isn't an *InvocationError.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var invErr *InvocationError
	if errors.As(err, &invErr) && invErr != nil {
		if invErr.ExitCode != 0 {
			return invErr.ExitCode
		}
		return ExitInvalidInvocation
	}
	return ExitInternalError
}
