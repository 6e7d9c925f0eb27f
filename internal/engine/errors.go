package engine

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrJavaNotFound is returned when no java executable can be located.
	ErrJavaNotFound = errors.New("java not found")
	// ErrArtifactMissing is returned when the engine jar, the application
	// package or the user restore does not exist on disk.
	ErrArtifactMissing = errors.New("artifact missing")
)

// ExecutionError reports that the engine could not be launched or ended
// abnormally. Op is "launch", "start" or "run".
type ExecutionError struct {
	Op   string
	Path string
	Err  error
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("engine %s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("engine %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *ExecutionError) Unwrap() error { return e.Err }

// TimeoutError reports that the engine ran past its timeout and was killed.
type TimeoutError struct {
	Timeout time.Duration
	Command string
	Err     error
}

// NewTimeoutError creates a TimeoutError wrapping context.DeadlineExceeded.
func NewTimeoutError(timeout time.Duration, command string) *TimeoutError {
	return &TimeoutError{Timeout: timeout, Command: command, Err: context.DeadlineExceeded}
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	if e.Command == "" {
		return fmt.Sprintf("engine timed out after %v", e.Timeout)
	}
	return fmt.Sprintf("engine timed out after %v: %s", e.Timeout, e.Command)
}

// Unwrap returns the underlying error.
func (e *TimeoutError) Unwrap() error { return e.Err }
