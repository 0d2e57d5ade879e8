package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/ariel-frischer/agentpipe/internal/agentspec"
)

// State is the mutable bookkeeping of one run. Sequencer.State returns copies.
type State struct {
	RunID           string            `json:"run_id" yaml:"run_id"`
	EpicTitle       string            `json:"epic_title,omitempty" yaml:"epic_title,omitempty"`
	CurrentPhase    agentspec.Phase   `json:"current_phase" yaml:"current_phase"`
	CurrentAgentID  string            `json:"current_agent_id,omitempty" yaml:"current_agent_id,omitempty"`
	CompletedAgents []string          `json:"completed_agents" yaml:"completed_agents"`
	Artifacts       map[string]string `json:"artifacts" yaml:"artifacts"`
	Context         map[string]string `json:"context" yaml:"context"`
}

func newState() *State {
	return &State{
		RunID:           uuid.New().String(),
		CurrentPhase:    agentspec.PhaseFoundation,
		CompletedAgents: []string{},
		Artifacts:       map[string]string{},
		Context:         map[string]string{},
	}
}

func (s *State) clone() State {
	c := *s
	c.CompletedAgents = append([]string{}, s.CompletedAgents...)
	c.Artifacts = cloneMap(s.Artifacts)
	c.Context = cloneMap(s.Context)
	return c
}

func cloneMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Status is a summary of a run.
type Status struct {
	RunID           string          `json:"run_id" yaml:"run_id"`
	EpicTitle       string          `json:"epic_title" yaml:"epic_title"`
	CurrentPhase    agentspec.Phase `json:"current_phase" yaml:"current_phase"`
	CompletedAgents int             `json:"completed_agents" yaml:"completed_agents"`
	TotalAgents     int             `json:"total_agents" yaml:"total_agents"`
	Artifacts       int             `json:"artifacts" yaml:"artifacts"`
}

// RunPrompt renders the per-run context handed to an agent together with
// its instructions.
func RunPrompt(s State, input string) string {
	var sb strings.Builder
	sb.WriteString("## Epic Context\n")
	fmt.Fprintf(&sb, "Epic: %s\n", orNA(s.EpicTitle))
	fmt.Fprintf(&sb, "Run ID: %s\n\n", orNA(s.RunID))

	if len(s.Artifacts) > 0 {
		sb.WriteString("## Available Artifacts\n")
		sb.WriteString("The following artifacts have been created by previous agents:\n")
		ids := make([]string, 0, len(s.Artifacts))
		for id := range s.Artifacts {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			fmt.Fprintf(&sb, "- %s: %s\n", id, s.Artifacts[id])
		}
		sb.WriteString("\n")
	}

	if input != "" {
		fmt.Fprintf(&sb, "## User Input\n%s\n", input)
	}
	return sb.String()
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
