// Package shared provides constants and types used across CLI subpackages.
// This package has no dependencies on other CLI packages to avoid circular imports.
package shared

import (
	"errors"
	"fmt"

	apperrors "github.com/ariel-frischer/agentpipe/internal/errors"
)

// Command group IDs for organizing help output
const (
	GroupGettingStarted = "getting-started"
	GroupPipeline       = "pipeline"
	GroupInspection     = "inspection"
	GroupConfiguration  = "configuration"
)

// Exit codes for CLI commands
const (
	ExitSuccess           = 0
	ExitValidationFailed  = 1
	ExitInvalidArguments  = 3
	ExitMissingDependency = 4
)

// Output formats accepted by --format.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Formats lists the values accepted by --format.
var Formats = []string{FormatTable, FormatJSON, FormatYAML}

// exitError is a custom error type that carries an exit code.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}

// NewExitError creates a new exit error with the given code.
func NewExitError(code int) error {
	return &exitError{code: code}
}

// IsExitError reports whether err only carries an exit code and has nothing
// left to print.
func IsExitError(err error) bool {
	var e *exitError
	return errors.As(err, &e)
}

// ExitCode returns the exit code from an error.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var e *exitError
	if errors.As(err, &e) {
		return e.code
	}
	if cliErr := apperrors.AsCLIError(err); cliErr != nil {
		switch cliErr.Category {
		case apperrors.Argument, apperrors.Configuration:
			return ExitInvalidArguments
		case apperrors.Prerequisite:
			return ExitMissingDependency
		}
	}
	return ExitValidationFailed
}
