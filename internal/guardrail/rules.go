package guardrail

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultRulesSource is the conventional location of the rules document,
// cited in violation messages.
const DefaultRulesSource = "support/01-forbidden.md"

var (
	// ErrRulesNotFound is returned when the rules document does not exist.
	ErrRulesNotFound = errors.New("rules file not found")
	// ErrEmptyRuleSet is returned when the rules document yields no constraints.
	// An empty rule set would let every validation pass.
	ErrEmptyRuleSet = errors.New("rules file contains no constraints")
)

// RuleSet is the immutable result of parsing a rules document.
type RuleSet struct {
	source      string
	constraints []Constraint
	tags        TagSet
}

// ParseRules extracts every constraint and the derived tag set from text.
// source names the document in violation messages.
func ParseRules(source, text string) RuleSet {
	if source == "" {
		source = DefaultRulesSource
	}
	constraints := ExtractAll(text)
	return RuleSet{
		source:      source,
		constraints: constraints,
		tags:        DeriveTags(constraints),
	}
}

// LoadRules reads and parses the rules document at path. It fails when the
// file is missing or contains no constraints.
func LoadRules(path string) (RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return RuleSet{}, fmt.Errorf("%w: %s", ErrRulesNotFound, path)
		}
		return RuleSet{}, fmt.Errorf("failed to read rules file %s: %w", path, err)
	}

	rules := ParseRules(sourceName(path), string(data))
	if len(rules.constraints) == 0 {
		return RuleSet{}, fmt.Errorf("%w: %s", ErrEmptyRuleSet, path)
	}
	return rules, nil
}

// sourceName cites the rules file as "<dir>/<file>" so messages read like
// "support/01-forbidden.md" regardless of where the repository lives.
func sourceName(path string) string {
	dir := filepath.Base(filepath.Dir(path))
	if dir == "." || dir == string(filepath.Separator) {
		return filepath.Base(path)
	}
	return filepath.ToSlash(filepath.Join(dir, filepath.Base(path)))
}

// Source returns the document name cited in messages.
func (r RuleSet) Source() string {
	if r.source == "" {
		return DefaultRulesSource
	}
	return r.source
}

// Constraints returns a copy of all constraints.
func (r RuleSet) Constraints() []Constraint {
	out := make([]Constraint, len(r.constraints))
	copy(out, r.constraints)
	return out
}

// Forbidden returns the forbidden constraints.
func (r RuleSet) Forbidden() []Constraint {
	return r.filter(Forbidden)
}

// Required returns the required constraints, including quality gates.
func (r RuleSet) Required() []Constraint {
	return r.filter(Required)
}

func (r RuleSet) filter(t ConstraintType) []Constraint {
	var out []Constraint
	for _, c := range r.constraints {
		if c.Type == t {
			out = append(out, c)
		}
	}
	return out
}

// Tags returns the derived pattern tags.
func (r RuleSet) Tags() TagSet {
	return r.tags
}

// Len returns the number of constraints.
func (r RuleSet) Len() int {
	return len(r.constraints)
}
