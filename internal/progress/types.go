// Package progress renders per-agent progress while a pipeline runs: a
// spinner on terminals, plain lines otherwise, and colored status marks.
package progress

import apperrors "github.com/ariel-frischer/agentpipe/internal/errors"

// StepStatus represents the execution state of an agent step.
type StepStatus int

const (
	// StepPending indicates the step has not started yet
	StepPending StepStatus = iota
	// StepInProgress indicates the agent is currently running
	StepInProgress
	// StepCompleted indicates the agent passed both guardrail checkpoints
	StepCompleted
	// StepFailed indicates the agent was halted
	StepFailed
)

// String returns the string representation of StepStatus
func (s StepStatus) String() string {
	switch s {
	case StepPending:
		return "pending"
	case StepInProgress:
		return "in_progress"
	case StepCompleted:
		return "completed"
	case StepFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// StepInfo describes one agent execution for display.
type StepInfo struct {
	// AgentID is the agent identifier (e.g., "11-discuss")
	AgentID string
	// Name is the agent display name
	Name string
	// Phase is the phase the agent belongs to
	Phase string
	// Number is the position of the agent within its phase (1-based)
	Number int
	// Total is the number of agents in the phase
	Total int
	// Status is the current execution status
	Status StepStatus
}

// Validate checks that all StepInfo fields meet validation requirements
func (s StepInfo) Validate() error {
	if s.AgentID == "" {
		return apperrors.NewArgumentError("agent id cannot be empty")
	}
	if s.Number <= 0 {
		return apperrors.NewArgumentError("step number must be > 0")
	}
	if s.Total <= 0 {
		return apperrors.NewArgumentError("total steps must be > 0")
	}
	if s.Number > s.Total {
		return apperrors.NewArgumentError("step number cannot exceed total steps")
	}
	return nil
}

// TerminalCapabilities encapsulates detected terminal features
type TerminalCapabilities struct {
	// IsTTY indicates whether stdout is a terminal (vs pipe/redirect)
	IsTTY bool
	// SupportsColor indicates whether terminal supports ANSI color codes
	SupportsColor bool
	// SupportsUnicode indicates whether terminal supports Unicode characters
	SupportsUnicode bool
	// Width is the terminal width in columns (0 if unknown/pipe)
	Width int
}

// ProgressSymbols defines the character set for visual indicators
type ProgressSymbols struct {
	// Checkmark is the success indicator ("✓" or "[OK]")
	Checkmark string
	// Failure is the failure indicator ("✗" or "[FAIL]")
	Failure string
	// Warning is the warning indicator ("⚠" or "[WARN]")
	Warning string
	// SpinnerSet is the index into spinner.CharSets
	SpinnerSet int
}
