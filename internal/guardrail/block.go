package guardrail

import (
	"strings"

	"github.com/ariel-frischer/agentpipe/internal/agentspec"
)

// ConstraintsFor returns the constraints that apply to an agent. Rules are
// not scoped per agent or phase yet, so every constraint applies.
func (e *Engine) ConstraintsFor(agentID string, phase agentspec.Phase) []Constraint {
	return e.rules.Constraints()
}

// FormatPromptBlock renders the constraints for an agent as a markdown
// section meant to be embedded in the agent's instructions.
func (e *Engine) FormatPromptBlock(agentID string, phase agentspec.Phase) string {
	var forbidden, required []Constraint
	for _, c := range e.ConstraintsFor(agentID, phase) {
		switch c.Type {
		case Forbidden:
			forbidden = append(forbidden, c)
		case Required:
			required = append(required, c)
		}
	}

	var sb strings.Builder
	sb.WriteString("## CRITICAL CONSTRAINTS\n\n")
	sb.WriteString("You MUST adhere to these constraints from " + e.rules.Source() + ":\n\n")

	if len(forbidden) > 0 {
		sb.WriteString("### FORBIDDEN ACTIONS (You MUST NOT do these):\n")
		for _, c := range forbidden {
			if c.Severity == SeverityCritical {
				sb.WriteString("- 🚫 CRITICAL: " + c.Description + "\n")
			} else {
				sb.WriteString("- " + ForbiddenMarker + " " + c.Description + "\n")
			}
		}
		sb.WriteString("\n")
	}

	if len(required) > 0 {
		sb.WriteString("### REQUIRED ACTIONS (You MUST do these):\n")
		for _, c := range required {
			sb.WriteString("- " + RequiredMarker + " " + c.Description + "\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("### ENFORCEMENT\n")
	sb.WriteString("If you detect a constraint violation:\n")
	sb.WriteString("1. Halt execution immediately\n")
	sb.WriteString("2. Output only: " + ForbiddenMarker + " Forbidden action detected, see " + e.rules.Source() + "\n")
	sb.WriteString("3. Exit without performing side effects")

	return sb.String()
}
