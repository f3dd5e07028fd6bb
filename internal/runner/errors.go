package runner

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is on the three failure kinds.
var (
	ErrMissingInput = errors.New("input file not found")
	ErrNonZeroExit  = errors.New("external tool exited non-zero")
	ErrLaunch       = errors.New("external tool failed to launch")
)

// Kind names a failure class in logs and API responses.
type Kind string

const (
	KindNone         Kind = ""
	KindMissingInput Kind = "missing_input"
	KindNonZeroExit  Kind = "non_zero_exit"
	KindLaunch       Kind = "launch_failure"
)

// MissingInputError is returned when the pre-launch input check fails.
type MissingInputError struct {
	Path string
	Err  error
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("input file not found: %s", e.Path)
}

func (e *MissingInputError) Is(target error) bool { return target == ErrMissingInput }
func (e *MissingInputError) Unwrap() error        { return e.Err }

// ExitError is returned when the process ran but did not exit 0.
type ExitError struct {
	Program  string
	Code     int    // -1 when killed by a signal
	Stderr   string // captured diagnostic output
	TimedOut bool
}

func (e *ExitError) Error() string {
	if e.TimedOut {
		return fmt.Sprintf("%s timed out", e.Program)
	}
	return fmt.Sprintf("%s exited with code %d", e.Program, e.Code)
}

func (e *ExitError) Is(target error) bool { return target == ErrNonZeroExit }

// LaunchError is returned when the process could not be started at all:
// tool not installed, not executable, or the context already done.
type LaunchError struct {
	Program string
	Err     error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch %s: %v", e.Program, e.Err)
}

func (e *LaunchError) Is(target error) bool { return target == ErrLaunch }
func (e *LaunchError) Unwrap() error        { return e.Err }

// KindOf classifies err into one of the three failure kinds.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrMissingInput):
		return KindMissingInput
	case errors.Is(err, ErrNonZeroExit):
		return KindNonZeroExit
	default:
		return KindLaunch
	}
}
