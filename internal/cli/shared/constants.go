// Package shared provides constants and helpers used across CLI subpackages.
// This package has no dependencies on other CLI packages to avoid circular imports.
package shared

import (
	"errors"
	"fmt"

	apperrors "github.com/cctools/cctest/internal/errors"
)

// Command group IDs for organizing help output
const (
	GroupGettingStarted = "getting-started"
	GroupTesting        = "testing"
	GroupConfiguration  = "configuration"
)

// Exit codes for CLI commands
const (
	ExitPass              = 0
	ExitFail              = 1
	ExitError             = 2
	ExitInvalid           = 3
	ExitMissingDependency = 4
	ExitTimeout           = 5
)

// exitError carries an exit code. Without a wrapped error it is silent:
// the command already reported what went wrong.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return fmt.Sprintf("exit code %d", e.code)
}

func (e *exitError) Unwrap() error { return e.err }

// NewExitError creates a silent exit error with the given code.
func NewExitError(code int) error {
	return &exitError{code: code}
}

// WithExitCode attaches an exit code to err, which is still printed.
func WithExitCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

// IsSilent reports whether err has already been reported to the user.
func IsSilent(err error) bool {
	var e *exitError
	return errors.As(err, &e) && e.err == nil
}

// ExitCode returns the exit code for an error. CLI errors map by category;
// anything else is a tooling error.
func ExitCode(err error) int {
	if err == nil {
		return ExitPass
	}
	var e *exitError
	if errors.As(err, &e) {
		return e.code
	}
	if cliErr := apperrors.AsCLIError(err); cliErr != nil {
		switch cliErr.Category {
		case apperrors.Argument, apperrors.Configuration:
			return ExitInvalid
		case apperrors.Prerequisite:
			return ExitMissingDependency
		}
	}
	return ExitError
}
