package guardrail

import (
	"sort"
	"strings"
)

// PatternTag is a coarse category derived from forbidden rule text. Tags gate
// which input checks the Engine performs.
type PatternTag string

const (
	TagTimeEstimation             PatternTag = "time_estimation"
	TagScopeInvention             PatternTag = "scope_invention"
	TagPrematureCodeGeneration    PatternTag = "premature_code_generation"
	TagUnsolicitedRecommendations PatternTag = "unsolicited_recommendations"
	TagCredentialExposure         PatternTag = "credential_exposure"
)

// TagSet is a read-only set of pattern tags.
type TagSet struct {
	tags map[PatternTag]struct{}
}

// NewTagSet builds a TagSet from tags.
func NewTagSet(tags ...PatternTag) TagSet {
	s := TagSet{tags: make(map[PatternTag]struct{}, len(tags))}
	for _, t := range tags {
		s.tags[t] = struct{}{}
	}
	return s
}

// Has reports whether tag is in the set.
func (s TagSet) Has(tag PatternTag) bool {
	_, ok := s.tags[tag]
	return ok
}

// Len returns the number of tags.
func (s TagSet) Len() int {
	return len(s.tags)
}

// Sorted returns the tags in lexical order.
func (s TagSet) Sorted() []PatternTag {
	out := make([]PatternTag, 0, len(s.tags))
	for t := range s.tags {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// DeriveTags inspects forbidden constraint descriptions and returns the
// pattern tags they mention. Non-forbidden constraints are ignored.
func DeriveTags(constraints []Constraint) TagSet {
	var tags []PatternTag
	for _, c := range constraints {
		if c.Type != Forbidden {
			continue
		}
		tags = append(tags, tagsFor(strings.ToLower(c.Description))...)
	}
	return NewTagSet(tags...)
}

func tagsFor(desc string) []PatternTag {
	var tags []PatternTag

	if strings.Contains(desc, "time estimate") {
		tags = append(tags, TagTimeEstimation)
	}
	if strings.Contains(desc, "scope") && strings.Contains(desc, "invent") {
		tags = append(tags, TagScopeInvention)
	}
	if strings.Contains(desc, "code") && containsAny(desc, "emission", "planning", "expand", "generation") {
		tags = append(tags, TagPrematureCodeGeneration)
	}
	if containsAny(desc, "next steps", "recommendation") {
		tags = append(tags, TagUnsolicitedRecommendations)
	}
	if containsAny(desc, "credential", "secret", "token", "expose") {
		tags = append(tags, TagCredentialExposure)
	}

	return tags
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
