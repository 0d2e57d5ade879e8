package guardrail

// ValidationResult is the outcome of one validation call.
// Passed is true exactly when Violations is empty; warnings never block.
type ValidationResult struct {
	Passed     bool     `json:"passed" yaml:"passed"`
	Violations []string `json:"violations" yaml:"violations"`
	Warnings   []string `json:"warnings" yaml:"warnings"`
}

// HasWarnings reports whether the result carries any warnings.
func (r ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// Finding is the severity of a check that fired.
type Finding int

const (
	// FindingWarning records a non-blocking warning.
	FindingWarning Finding = iota
	// FindingViolation records a blocking violation.
	FindingViolation
)

// String implements fmt.Stringer.
func (f Finding) String() string {
	switch f {
	case FindingWarning:
		return "warning"
	case FindingViolation:
		return "violation"
	default:
		return "unknown"
	}
}

// ParseFinding converts "warning" or "violation" into a Finding.
func ParseFinding(s string) (Finding, bool) {
	switch s {
	case "warning", "":
		return FindingWarning, true
	case "violation":
		return FindingViolation, true
	default:
		return FindingWarning, false
	}
}

// resultBuilder accumulates findings and derives Passed.
type resultBuilder struct {
	violations []string
	warnings   []string
}

func (b *resultBuilder) add(f Finding, msg string) {
	if f == FindingViolation {
		b.violations = append(b.violations, msg)
		return
	}
	b.warnings = append(b.warnings, msg)
}

func (b *resultBuilder) result() ValidationResult {
	violations := b.violations
	if violations == nil {
		violations = []string{}
	}
	warnings := b.warnings
	if warnings == nil {
		warnings = []string{}
	}
	return ValidationResult{
		Passed:     len(violations) == 0,
		Violations: violations,
		Warnings:   warnings,
	}
}
