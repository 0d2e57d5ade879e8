package guardrail

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/ariel-frischer/agentpipe/internal/agentspec"
)

var (
	timeEstimationPatterns = compileAll(
		`\d+\s*(?:hour|day|week|month|sprint)`,
		`estimate[sd]?\s+time`,
		`how long`,
		`timeline`,
	)

	scopeInventionPatterns = compileAll(
		`add\s+feature`,
		`also\s+include`,
		`might\s+want`,
		`could\s+add`,
	)

	recommendationPhrases = []string{
		"next steps:",
		"next steps\n",
		"recommendations:",
		"recommendation:",
		"to do next",
		"consider adding",
		"you might want",
	}

	codeIndicatorPatterns = compileAll(
		"(?i)```(?:php|python|javascript|typescript|golang|go|java|ruby|rust|js|ts)\\b",
		`(?i)class\s+\w+\s*\{`,
		`(?i)function\s+\w+\s*\(`,
		`(?i)public\s+function`,
		`(?i)def\s+\w+\s*\(`,
	)

	credentialPatterns = compileAll(
		`(?i)api[_-]?key\s*[=:]\s*["'][^"'\s]{8,}["']`,
		`(?i)password\s*[=:]\s*["'][^"'\s]{8,}["']`,
		`(?i)token\s*[=:]\s*["'][^"'\s]{8,}["']`,
		`(?i)secret\s*[=:]\s*["'][^"'\s]{8,}["']`,
		`sk-[a-zA-Z0-9]{32,}`,
		`(?i)bearer\s+[\w\-.]{20,}`,
		`ghp_\w{36,}`,
		`glpat-[\w\-]{20,}`,
	)

	// Phases in which emitting code is premature.
	codeGatedPhases = map[agentspec.Phase]bool{
		agentspec.PhasePlanning: true,
		agentspec.PhaseRoles:    true,
	}
)

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

func matchAny(patterns []*regexp.Regexp, text string) bool {
	for _, p := range patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// Engine validates agent input and output text against a RuleSet.
// An Engine holds only read-only state and is safe for concurrent use.
type Engine struct {
	rules         RuleSet
	scopeSeverity Finding
	logger        *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithScopeSeverity sets how scope invention findings are recorded.
// The default is FindingWarning.
func WithScopeSeverity(f Finding) Option {
	return func(e *Engine) {
		e.scopeSeverity = f
	}
}

// WithLogger sets the logger used to record findings at debug level.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates an Engine over rules.
func NewEngine(rules RuleSet, opts ...Option) *Engine {
	e := &Engine{
		rules:         rules,
		scopeSeverity: FindingWarning,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Rules returns the rule set the engine validates against.
func (e *Engine) Rules() RuleSet {
	return e.rules
}

// ValidateInput checks text handed to an agent before execution. Only the
// checks whose pattern tag was derived from the rules document run.
func (e *Engine) ValidateInput(text string) ValidationResult {
	var b resultBuilder
	lower := strings.ToLower(text)
	tags := e.rules.Tags()

	if tags.Has(TagTimeEstimation) && matchAny(timeEstimationPatterns, lower) {
		b.add(FindingViolation, fmt.Sprintf(
			"Time estimation: input contains a time estimation request, which is forbidden. See %s: Do not make or imply time estimates.",
			e.rules.Source()))
	}

	if tags.Has(TagScopeInvention) && matchAny(scopeInventionPatterns, lower) {
		b.add(e.scopeSeverity, fmt.Sprintf(
			"Scope invention: input may be requesting features outside the agreed scope. See %s: Ensure all features trace to PRD or task metadata.",
			e.rules.Source()))
	}

	result := b.result()
	e.logResult("input", "", result)
	return result
}

// ValidateOutput checks agent output after execution. Recommendation and
// credential checks always run; code generation is only checked in the
// planning and roles phases.
func (e *Engine) ValidateOutput(text string, phase agentspec.Phase) ValidationResult {
	var b resultBuilder
	lower := strings.ToLower(text)

	for _, phrase := range recommendationPhrases {
		if strings.Contains(lower, phrase) {
			b.add(FindingViolation, fmt.Sprintf(
				"Unsolicited recommendations: output contains 'Next steps' or recommendations. See %s: Never include 'Next steps' or 'Recommendations' in output.",
				e.rules.Source()))
			break
		}
	}

	if codeGatedPhases[phase] && matchAny(codeIndicatorPatterns, text) {
		b.add(FindingViolation, fmt.Sprintf(
			"Premature code generation: output contains code generation in %s phase. See %s: No code emission in planning/expand phases.",
			phase, e.rules.Source()))
	}

	if matchAny(credentialPatterns, text) {
		b.add(FindingViolation, fmt.Sprintf(
			"Credential exposure: output may contain exposed credentials. See %s: Never expose real credentials, tokens, or API keys.",
			e.rules.Source()))
	}

	result := b.result()
	e.logResult("output", phase, result)
	return result
}

func (e *Engine) logResult(checkpoint string, phase agentspec.Phase, result ValidationResult) {
	if result.Passed && !result.HasWarnings() {
		return
	}
	fields := []zap.Field{
		zap.String("checkpoint", checkpoint),
		zap.Bool("passed", result.Passed),
		zap.Int("violations", len(result.Violations)),
		zap.Int("warnings", len(result.Warnings)),
	}
	if phase != "" {
		fields = append(fields, zap.String("phase", phase.String()))
	}
	e.logger.Debug("Guardrail findings", fields...)
}
