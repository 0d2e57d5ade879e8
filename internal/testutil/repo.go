package testutil

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/ariel-frischer/agentpipe/internal/config"
)

// RulesDoc is a rules document that yields every pattern tag.
const RulesDoc = `# Forbidden Actions and Constraints

## Forbidden Actions

### 1. Scope and Time
- ❌ Do not make or imply **time estimates**.
- ❌ Do not invent **scope** beyond the PRD.

### 2. Code Generation
- ❌ No code emission in planning/expand phases.

### 3. Output
- ❌ Never end with "Next steps" or other recommendations.

### 4. Security
- ❌ Never expose credentials, secrets or tokens.

## Global Principles
- ✅ Ensure all features trace to PRD or task metadata.
- ✅ Keep every artifact under .taskmaster/.

## Metrics and Validation
- **Tests:** all green
`

// MCPConfig enables github and task-master-ai and disables perplexity.
const MCPConfig = `{
  "mcpServers": {
    "github": {"command": "github-mcp"},
    "task-master-ai": {"command": "npx", "args": ["-y", "task-master-ai"]},
    "perplexity": {"command": "perplexity-mcp", "disabled": true}
  }
}`

// FixtureAgents lists the command documents NewRepo writes, keyed by path
// relative to commands/.
var FixtureAgents = map[string]string{
	"00-start.md":                  commandDoc("Start Epic", "Epic Coordinator", "Record the epic title"),
	"10-planning/11-discuss.md":    commandDoc("Discuss Epic", "Product Manager", "Run discovery"),
	"10-planning/12-prd.md":        commandDoc("Write PRD", "Product Owner", "Draft the PRD"),
	"20-roles/21-architect.md":     commandDoc("Architect", "Software Architect", "Review the PRD"),
	"30-process/31-tasks.md":       commandDoc("Plan Tasks", "Delivery Lead", "Split the PRD into tasks"),
	"40-development/41-backend.md": commandDoc("Backend", "Backend Engineer", "Implement the tasks"),
	"50-finalization/51-review.md": commandDoc("Review", "Reviewer", "Review the result"),
	"99-ops/99-cleanup.md":         commandDoc("Cleanup", "Operator", "Archive the run"),
}

func commandDoc(title, name, step string) string {
	return fmt.Sprintf(`# %s

## Role & Mindset

You are a **%s** working on the current epic.

## Preparation

1. **Read the support files**

## Steps

1. **%s**
2. **Write the artifact**
`, title, name, step)
}

type repoOptions struct {
	withStart bool
	withMCP   bool
	rules     string
	extra     map[string]string
}

// RepoOption customizes NewRepo.
type RepoOption func(*repoOptions)

// WithoutStartAgent omits commands/00-start.md.
func WithoutStartAgent() RepoOption {
	return func(o *repoOptions) { o.withStart = false }
}

// WithoutMCP omits mcp.json.
func WithoutMCP() RepoOption {
	return func(o *repoOptions) { o.withMCP = false }
}

// WithRules replaces the rules document content.
func WithRules(content string) RepoOption {
	return func(o *repoOptions) { o.rules = content }
}

// WithFile adds or replaces a file at a path relative to the repo root.
func WithFile(relPath, content string) RepoOption {
	return func(o *repoOptions) { o.extra[relPath] = content }
}

// NewRepo writes an agent repository fixture into a temp dir and returns its
// root: commands/, support/ with the four support documents, and mcp.json.
func NewRepo(t *testing.T, opts ...RepoOption) string {
	t.Helper()

	o := &repoOptions{withStart: true, withMCP: true, rules: RulesDoc, extra: map[string]string{}}
	for _, opt := range opts {
		opt(o)
	}

	root := t.TempDir()
	for rel, content := range FixtureAgents {
		if rel == "00-start.md" && !o.withStart {
			continue
		}
		WriteFile(t, filepath.Join(root, "commands", filepath.FromSlash(rel)), content)
	}

	WriteFile(t, filepath.Join(root, "support", "01-forbidden.md"), o.rules)
	WriteFile(t, filepath.Join(root, "support", "02-mcp.md"), "# MCP usage\n")
	WriteFile(t, filepath.Join(root, "support", "03-pipeline.md"), "# Pipeline\n")
	WriteFile(t, filepath.Join(root, "support", "04-rules.md"), "# Rules\n")

	if o.withMCP {
		WriteFile(t, filepath.Join(root, "mcp.json"), MCPConfig)
	}
	for rel, content := range o.extra {
		WriteFile(t, filepath.Join(root, filepath.FromSlash(rel)), content)
	}
	return root
}

// NewConfig returns the default configuration rooted at repo.
func NewConfig(repo string) *config.Configuration {
	return &config.Configuration{
		RepoPath:               repo,
		CommandsDir:            "commands",
		SupportDir:             "support",
		RulesFile:              "support/01-forbidden.md",
		MCPConfig:              "mcp.json",
		Model:                  "gpt-4o",
		ScopeInventionSeverity: "warning",
		ValidateInputs:         true,
		ValidateOutputs:        true,
		ShowProgress:           false,
		LogLevel:               "warn",
	}
}
