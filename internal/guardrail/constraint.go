// Package guardrail extracts forbidden and required rules from a markdown
// rules document and validates agent input and output text against them.
package guardrail

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ariel-frischer/agentpipe/internal/markdown"
)

// ConstraintType distinguishes forbidden rules from required ones.
type ConstraintType string

const (
	Forbidden ConstraintType = "forbidden"
	Required  ConstraintType = "required"
)

// Severity ranks a constraint.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
)

// Marker glyphs used by the rules document.
const (
	ForbiddenMarker = "❌"
	RequiredMarker  = "✅"
)

// Category labels that are not taken from the document.
const (
	CategoryGlobalPrinciples = "Global Principles"
	CategoryQualityGates     = "Quality Gates"
)

const (
	sectionForbidden = "Forbidden Actions"
	sectionMetrics   = "Metrics and Validation"
)

var (
	forbiddenLinePattern = regexp.MustCompile(`(?m)^[ \t]*(?:[-*][ \t]+)?` + ForbiddenMarker + `[ \t]*(.+?)[ \t]*\r?$`)
	requiredLinePattern  = regexp.MustCompile(`(?m)^[ \t]*(?:[-*][ \t]+)?` + RequiredMarker + `[ \t]*(.+?)[ \t]*\r?$`)
	qualityGatePattern   = regexp.MustCompile(`(?m)^[ \t]*(?:[-*][ \t]+)?(?:\*\*)?([A-Za-z]+)(?:\*\*)?:(?:\*\*)?[ \t]*(\S.*?)[ \t]*\r?$`)

	criticalKeywords = []string{"never", "must not", "security"}
)

// Constraint is one rule line from the rules document.
type Constraint struct {
	Type        ConstraintType `json:"type" yaml:"type"`
	Category    string         `json:"category" yaml:"category"`
	Description string         `json:"description" yaml:"description"`
	Severity    Severity       `json:"severity" yaml:"severity"`
}

// String implements fmt.Stringer.
func (c Constraint) String() string {
	return fmt.Sprintf("[%s/%s] %s: %s", c.Type, c.Severity, c.Category, c.Description)
}

// ClassifyForbidden returns critical when description mentions "never",
// "must not" or "security" (case-insensitive), otherwise high.
func ClassifyForbidden(description string) Severity {
	lower := strings.ToLower(description)
	for _, kw := range criticalKeywords {
		if strings.Contains(lower, kw) {
			return SeverityCritical
		}
	}
	return SeverityHigh
}

// ExtractForbidden parses the "Forbidden Actions" section. Every numbered
// "### N. <category>" subsection contributes one constraint per forbidden
// marker line.
func ExtractForbidden(text string) []Constraint {
	return extractForbidden(markdown.Parse(text))
}

func extractForbidden(doc *markdown.Document) []Constraint {
	section := doc.Find(sectionForbidden)
	if !section.Truthy() {
		return nil
	}

	var constraints []Constraint
	for _, sub := range markdown.Subsections(section.Body) {
		for _, m := range forbiddenLinePattern.FindAllStringSubmatch(sub.Body, -1) {
			desc := cleanDescription(m[1])
			if desc == "" {
				continue
			}
			constraints = append(constraints, Constraint{
				Type:        Forbidden,
				Category:    sub.Title,
				Description: desc,
				Severity:    ClassifyForbidden(desc),
			})
		}
	}
	return constraints
}

// ExtractRequired scans the whole document for required marker lines.
func ExtractRequired(text string) []Constraint {
	var constraints []Constraint
	for _, m := range requiredLinePattern.FindAllStringSubmatch(text, -1) {
		desc := cleanDescription(m[1])
		if desc == "" {
			continue
		}
		constraints = append(constraints, Constraint{
			Type:        Required,
			Category:    CategoryGlobalPrinciples,
			Description: desc,
			Severity:    SeverityHigh,
		})
	}
	return constraints
}

// ExtractQualityGates parses "<Tool>: <requirement>" lines from the
// "Metrics and Validation" section.
func ExtractQualityGates(text string) []Constraint {
	return extractQualityGates(markdown.Parse(text))
}

func extractQualityGates(doc *markdown.Document) []Constraint {
	section := doc.Find(sectionMetrics)
	if !section.Truthy() {
		return nil
	}

	var constraints []Constraint
	for _, m := range qualityGatePattern.FindAllStringSubmatch(section.Body, -1) {
		tool := strings.TrimSpace(m[1])
		requirement := cleanDescription(m[2])
		if requirement == "" {
			continue
		}
		constraints = append(constraints, Constraint{
			Type:        Required,
			Category:    CategoryQualityGates,
			Description: fmt.Sprintf("%s: %s", tool, requirement),
			Severity:    SeverityCritical,
		})
	}
	return constraints
}

// ExtractAll returns forbidden, required and quality gate constraints in that order.
func ExtractAll(text string) []Constraint {
	doc := markdown.Parse(text)
	var all []Constraint
	all = append(all, extractForbidden(doc)...)
	all = append(all, ExtractRequired(text)...)
	all = append(all, extractQualityGates(doc)...)
	return all
}

// cleanDescription strips marker glyphs and bold markers.
func cleanDescription(s string) string {
	s = strings.ReplaceAll(s, ForbiddenMarker, "")
	s = strings.ReplaceAll(s, RequiredMarker, "")
	return strings.TrimSpace(markdown.StripBold(s))
}
