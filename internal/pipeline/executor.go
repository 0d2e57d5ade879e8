package pipeline

import (
	"context"
	"fmt"

	"github.com/ariel-frischer/agentpipe/internal/prompt"
)

// Execution is what an agent produced.
type Execution struct {
	Output string
	// ArtifactPath is the file the agent wrote, if any.
	ArtifactPath string
	// Context is merged into the shared run context.
	Context map[string]string
}

// instructionPreview is how much of the instructions the simulated output echoes.
const instructionPreview = 200

// SimulatedExecutor stands in for a model call. Its output is deterministic.
type SimulatedExecutor struct{}

// Execute returns a placeholder output that echoes the start of the
// agent's instructions.
func (SimulatedExecutor) Execute(ctx context.Context, agent prompt.Agent, runPrompt string) (Execution, error) {
	if err := ctx.Err(); err != nil {
		return Execution{}, err
	}

	preview := agent.Instructions
	if r := []rune(preview); len(r) > instructionPreview {
		preview = string(r[:instructionPreview])
	}
	return Execution{
		Output: fmt.Sprintf("Simulated output from agent %s\n\nAgent would execute based on:\n%s...", agent.ID, preview),
	}, nil
}
