// Package pipeline sequences parsed agents through the workflow phases,
// validating input before and output after each agent step.
// Related: internal/pipeline/sequencer.go, internal/pipeline/executor.go
// Tags: pipeline, interfaces, dependency-injection, executors
package pipeline

import (
	"context"

	"github.com/ariel-frischer/agentpipe/internal/agentspec"
	"github.com/ariel-frischer/agentpipe/internal/guardrail"
	"github.com/ariel-frischer/agentpipe/internal/progress"
	"github.com/ariel-frischer/agentpipe/internal/prompt"
)

// Validator checks text at the two guardrail checkpoints.
//
// Primary implementation: guardrail.Engine
type Validator interface {
	ValidateInput(text string) guardrail.ValidationResult
	ValidateOutput(text string, phase agentspec.Phase) guardrail.ValidationResult
}

// AgentFactory builds an executable agent for every spec in a catalog,
// keyed by agent id.
//
// Primary implementation: prompt.Factory
type AgentFactory interface {
	CreateAll(catalog *agentspec.Catalog) map[string]prompt.Agent
}

// Executor runs one agent with the assembled run prompt.
// Implementations must honor ctx cancellation when they block.
//
// Primary implementation: SimulatedExecutor
type Executor interface {
	Execute(ctx context.Context, agent prompt.Agent, runPrompt string) (Execution, error)
}

// Reporter receives progress events.
//
// Primary implementation: progress.Display
type Reporter interface {
	StartPhase(phase string, agents int)
	StartStep(step progress.StepInfo) error
	CompleteStep(step progress.StepInfo, warnings []string) error
	FailStep(step progress.StepInfo, reason string, details []string) error
}

// PhaseHook runs before each phase of a full run. Returning an error stops
// the run; the CLI uses it to pause between phases.
type PhaseHook func(ctx context.Context, phase agentspec.Phase) error

// Compile-time interface checks
var (
	_ Validator    = (*guardrail.Engine)(nil)
	_ AgentFactory = (*prompt.Factory)(nil)
	_ Executor     = (*SimulatedExecutor)(nil)
	_ Reporter     = (*progress.Display)(nil)
	_ Reporter     = nopReporter{}
)

type nopReporter struct{}

func (nopReporter) StartPhase(string, int) {}
func (nopReporter) StartStep(progress.StepInfo) error { return nil }
func (nopReporter) CompleteStep(progress.StepInfo, []string) error { return nil }
func (nopReporter) FailStep(progress.StepInfo, string, []string) error { return nil }
