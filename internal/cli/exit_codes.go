package cli

import (
	"github.com/ariel-frischer/agentpipe/internal/cli/shared"
)

// Exit codes for the agentpipe CLI (re-exported from shared)
// These codes support programmatic composition and CI/CD integration
const (
	// ExitSuccess indicates successful command execution
	ExitSuccess = shared.ExitSuccess

	// ExitValidationFailed indicates a guardrail or repository check failed
	ExitValidationFailed = shared.ExitValidationFailed

	// ExitInvalidArguments indicates invalid command arguments or configuration
	ExitInvalidArguments = shared.ExitInvalidArguments

	// ExitMissingDependencies indicates required repository files are missing
	ExitMissingDependencies = shared.ExitMissingDependency
)

// NewExitError creates a new exit error with the given code (re-exported from shared).
func NewExitError(code int) error {
	return shared.NewExitError(code)
}

// ExitCode returns the exit code from an error (re-exported from shared).
func ExitCode(err error) int {
	return shared.ExitCode(err)
}
