// Package prompt assembles agent instructions from a parsed agent spec, the
// rendered guardrail constraints and the tools available to the agent.
package prompt

import (
	"fmt"
	"strings"

	"github.com/ariel-frischer/agentpipe/internal/agentspec"
	"github.com/ariel-frischer/agentpipe/internal/toolcatalog"
)

// DefaultModel is recorded on agents when no model is configured.
const DefaultModel = "gpt-4o"

// SupportFiles are the support documents every agent is told to read.
var SupportFiles = []string{
	"support/01-forbidden.md",
	"support/02-mcp.md",
	"support/03-pipeline.md",
	"support/04-rules.md",
}

// ConstraintFormatter renders the constraint block for an agent.
type ConstraintFormatter interface {
	FormatPromptBlock(agentID string, phase agentspec.Phase) string
}

// ToolProvider selects the tools offered to an agent.
type ToolProvider interface {
	FunctionsFor(agentID string, phase agentspec.Phase) []toolcatalog.Tool
}

// Agent is a ready-to-execute agent configuration.
type Agent struct {
	ID           string             `json:"id" yaml:"id"`
	Name         string             `json:"name" yaml:"name"`
	Phase        agentspec.Phase    `json:"phase" yaml:"phase"`
	PhaseNumber  int                `json:"phase_number" yaml:"phase_number"`
	Model        string             `json:"model" yaml:"model"`
	Instructions string             `json:"instructions" yaml:"instructions"`
	Tools        []toolcatalog.Tool `json:"tools" yaml:"tools"`
}

// Build renders the instructions for spec with constraints embedded.
// Preparation and step sections are omitted when the spec has none.
func Build(spec agentspec.AgentSpec, constraints string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", spec.Name)
	fmt.Fprintf(&sb, "## Your Role\n%s\n\n", spec.Role)
	sb.WriteString("## Context\n")
	fmt.Fprintf(&sb, "You are operating in the %s phase of a structured SDLC pipeline.\n", spec.Phase)
	fmt.Fprintf(&sb, "Your agent ID is: %s\n\n", spec.ID)

	writeNumbered(&sb, "Preparation", "Before executing your tasks, you must:", spec.Preparation())
	writeNumbered(&sb, "Execution Steps", "Follow these steps in order:", spec.Steps())

	if constraints != "" {
		sb.WriteString(strings.TrimRight(constraints, "\n"))
		sb.WriteString("\n\n")
	}

	sb.WriteString("## Important Notes\n")
	fmt.Fprintf(&sb, "- Always read %s\n", joinFiles(SupportFiles))
	sb.WriteString("- Use MCP tools for all orchestration and data access\n")
	sb.WriteString("- Maintain traceability to PRD and task metadata\n")
	sb.WriteString("- Follow the exact output format specified in your steps\n")
	sb.WriteString("- Do not add unsolicited recommendations or next steps")

	return sb.String()
}

func writeNumbered(sb *strings.Builder, heading, lead string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(sb, "## %s\n%s\n", heading, lead)
	for i, item := range items {
		fmt.Fprintf(sb, "%d. %s\n", i+1, item)
	}
	sb.WriteString("\n")
}

// joinFiles renders "a, b, c, and d".
func joinFiles(files []string) string {
	switch len(files) {
	case 0:
		return ""
	case 1:
		return files[0]
	case 2:
		return files[0] + " and " + files[1]
	}
	return strings.Join(files[:len(files)-1], ", ") + ", and " + files[len(files)-1]
}

// Factory creates agents from specs.
type Factory struct {
	constraints ConstraintFormatter
	tools       ToolProvider
	model       string
}

// NewFactory creates a Factory. tools may be nil, in which case agents get
// no tools. An empty model falls back to DefaultModel.
func NewFactory(constraints ConstraintFormatter, tools ToolProvider, model string) *Factory {
	if model == "" {
		model = DefaultModel
	}
	return &Factory{constraints: constraints, tools: tools, model: model}
}

// Create builds the agent for spec.
func (f *Factory) Create(spec agentspec.AgentSpec) Agent {
	var block string
	if f.constraints != nil {
		block = f.constraints.FormatPromptBlock(spec.ID, spec.Phase)
	}
	var tools []toolcatalog.Tool
	if f.tools != nil {
		tools = f.tools.FunctionsFor(spec.ID, spec.Phase)
	}
	return Agent{
		ID:           spec.ID,
		Name:         spec.Name,
		Phase:        spec.Phase,
		PhaseNumber:  spec.PhaseNumber,
		Model:        f.model,
		Instructions: Build(spec, block),
		Tools:        tools,
	}
}

// CreateAll builds an agent for every spec in the catalog, keyed by id.
func (f *Factory) CreateAll(catalog *agentspec.Catalog) map[string]Agent {
	agents := make(map[string]Agent, catalog.Len())
	for _, spec := range catalog.Specs() {
		agents[spec.ID] = f.Create(spec)
	}
	return agents
}
