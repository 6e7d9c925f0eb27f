package cli

import (
	"github.com/cctools/cctest/internal/cli/shared"
)

// Exit codes for the cctest CLI (re-exported from shared)
// These codes support programmatic composition and CI/CD integration
const (
	// ExitPass means every fixture passed
	ExitPass = shared.ExitPass

	// ExitFail means at least one fixture failed
	ExitFail = shared.ExitFail

	// ExitError indicates a tooling error such as an engine crash
	ExitError = shared.ExitError

	// ExitInvalid indicates an invalid fixture, flag or config
	ExitInvalid = shared.ExitInvalid

	// ExitMissingDependency indicates java, the engine jar or an artifact is missing
	ExitMissingDependency = shared.ExitMissingDependency

	// ExitTimeout indicates a fixture run timed out
	ExitTimeout = shared.ExitTimeout
)

// ExitCode returns the exit code from an error (re-exported from shared).
func ExitCode(err error) int {
	return shared.ExitCode(err)
}
