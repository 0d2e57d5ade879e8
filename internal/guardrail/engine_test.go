// Package guardrail tests input and output validation against a parsed rule set.
// Related: internal/guardrail/engine.go, internal/guardrail/result.go
// Tags: guardrail, engine, validation, violations, warnings
package guardrail

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ariel-frischer/agentpipe/internal/agentspec"
)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	rules := ParseRules("support/01-forbidden.md", rulesDoc)
	require.Positive(t, rules.Len())
	return NewEngine(rules, opts...)
}

func containsFold(messages []string, substr string) bool {
	for _, m := range messages {
		if strings.Contains(strings.ToLower(m), strings.ToLower(substr)) {
			return true
		}
	}
	return false
}

func TestEngine_ValidateInput(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t)

	tests := map[string]struct {
		input          string
		wantPassed     bool
		wantViolations int
		wantWarnings   int
	}{
		"duration": {
			input:          "This will take 2 weeks",
			wantPassed:     false,
			wantViolations: 1,
		},
		"how long and duration report once": {
			input:          "How long will this take? I estimate 2 weeks.",
			wantPassed:     false,
			wantViolations: 1,
		},
		"timeline uppercase": {
			input:          "Give me a TIMELINE",
			wantPassed:     false,
			wantViolations: 1,
		},
		"plain request": {
			input:      "Let's build the login feature",
			wantPassed: true,
		},
		"scope invention warns": {
			input:        "You might want to add feature flags",
			wantPassed:   true,
			wantWarnings: 1,
		},
		"empty": {
			input:      "",
			wantPassed: true,
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			result := engine.ValidateInput(tt.input)
			assert.Equal(t, tt.wantPassed, result.Passed)
			assert.Len(t, result.Violations, tt.wantViolations)
			assert.Len(t, result.Warnings, tt.wantWarnings)
		})
	}
}

func TestEngine_ValidateInput_Messages(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t)

	result := engine.ValidateInput("This will take 2 weeks")
	require.Len(t, result.Violations, 1)
	assert.True(t, containsFold(result.Violations, "time estimation"))
	assert.Contains(t, result.Violations[0], "support/01-forbidden.md")

	result = engine.ValidateInput("could add a dashboard")
	require.Len(t, result.Warnings, 1)
	assert.True(t, containsFold(result.Warnings, "scope invention"))
}

func TestEngine_ValidateInput_TagGated(t *testing.T) {
	t.Parallel()

	rules := ParseRules("rules.md", "## Forbidden Actions\n\n### 1. Output\n- ❌ Never include next steps.\n")
	require.False(t, rules.Tags().Has(TagTimeEstimation))

	result := NewEngine(rules).ValidateInput("This will take 2 weeks, might want to add feature X")
	assert.True(t, result.Passed)
	assert.Empty(t, result.Violations)
	assert.Empty(t, result.Warnings)
}

func TestEngine_ScopeSeverity(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t, WithScopeSeverity(FindingViolation))

	result := engine.ValidateInput("Could add a dark mode")
	assert.False(t, result.Passed)
	require.Len(t, result.Violations, 1)
	assert.Empty(t, result.Warnings)
	assert.True(t, containsFold(result.Violations, "scope invention"))
}

func TestEngine_ValidateOutput(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t)
	pythonClass := "```python\nclass User:\n    pass\n```"

	tests := map[string]struct {
		output     string
		phase      agentspec.Phase
		wantPassed bool
		wantInMsg  string
	}{
		"next steps": {
			output:    "Here are the results.\n\nNext steps:\n1. Do this",
			phase:     agentspec.PhasePlanning,
			wantInMsg: "next steps",
		},
		"recommendations in development": {
			output:    "Recommendations: refactor later",
			phase:     agentspec.PhaseDevelopment,
			wantInMsg: "unsolicited recommendations",
		},
		"artifact path": {
			output:     "The path is .taskmaster/epics/001/01-discuss.md",
			phase:      agentspec.PhasePlanning,
			wantPassed: true,
		},
		"code in planning": {
			output:    pythonClass,
			phase:     agentspec.PhasePlanning,
			wantInMsg: "code generation",
		},
		"code in roles": {
			output:    "public function handle()",
			phase:     agentspec.PhaseRoles,
			wantInMsg: "roles phase",
		},
		"code in development": {
			output:     pythonClass,
			phase:      agentspec.PhaseDevelopment,
			wantPassed: true,
		},
		"go fence in planning": {
			output:    "```go\nfunc main() {}\n```",
			phase:     agentspec.PhasePlanning,
			wantInMsg: "code generation",
		},
		"openai key": {
			output:    "token = \"sk-" + strings.Repeat("a", 40) + "\"",
			phase:     agentspec.PhaseDevelopment,
			wantInMsg: "credential exposure",
		},
		"github token": {
			output:    "use ghp_" + strings.Repeat("x", 36),
			phase:     agentspec.PhaseDevelopment,
			wantInMsg: "credential exposure",
		},
		"short placeholder password": {
			output:     `password = "x"`,
			phase:      agentspec.PhaseDevelopment,
			wantPassed: true,
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			result := engine.ValidateOutput(tt.output, tt.phase)
			assert.Equal(t, tt.wantPassed, result.Passed)
			if tt.wantPassed {
				assert.Empty(t, result.Violations)
				return
			}
			assert.True(t, containsFold(result.Violations, tt.wantInMsg), "violations: %v", result.Violations)
		})
	}
}

func TestEngine_ValidateOutput_OneViolationPerCategory(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t)
	output := strings.Join([]string{
		"Next steps: consider adding tests",
		"api_key = \"abcdefghijklmnop\"",
		"secret = \"qrstuvwxyz123456\"",
		"def handler(event):",
	}, "\n")

	result := engine.ValidateOutput(output, agentspec.PhasePlanning)
	assert.False(t, result.Passed)
	assert.Len(t, result.Violations, 3)
}

func TestEngine_LogsFindings(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.DebugLevel)
	engine := newTestEngine(t, WithLogger(zap.New(core)))

	engine.ValidateOutput("Here you go.", agentspec.PhasePlanning)
	assert.Equal(t, 0, logs.Len())

	engine.ValidateOutput("Next steps: ship it", agentspec.PhasePlanning)
	entries := logs.FilterMessage("Guardrail findings").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "output", entries[0].ContextMap()["checkpoint"])
	assert.Equal(t, "planning", entries[0].ContextMap()["phase"])
}

func TestEngine_ConcurrentUse(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.False(t, engine.ValidateInput("2 days").Passed)
			assert.True(t, engine.ValidateOutput("done", agentspec.PhaseRoles).Passed)
		}()
	}
	wg.Wait()
}

func TestParseFinding(t *testing.T) {
	t.Parallel()

	f, ok := ParseFinding("violation")
	assert.True(t, ok)
	assert.Equal(t, FindingViolation, f)

	f, ok = ParseFinding("")
	assert.True(t, ok)
	assert.Equal(t, FindingWarning, f)

	_, ok = ParseFinding("fatal")
	assert.False(t, ok)
	assert.Equal(t, "violation", FindingViolation.String())
}
