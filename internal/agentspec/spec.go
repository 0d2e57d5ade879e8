// Package agentspec turns markdown command files into immutable agent
// specifications and orders them into workflow phases.
package agentspec

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ariel-frischer/agentpipe/internal/markdown"
)

const (
	// UnknownAgentName is used when a document names no agent and has no title.
	UnknownAgentName = "Unknown Agent"
	// NoRoleDescription is used when the Role & Mindset section is missing or empty.
	NoRoleDescription = "No role description available"

	sectionRole        = "Role & Mindset"
	sectionPreparation = "Preparation"
	sectionSteps       = "Steps"
)

var agentNamePattern = regexp.MustCompile(`You (?:are|will act as) a \*\*([^*]+)\*\*`)

// AgentSpec describes one agent parsed from a command document.
// Values are never modified after parsing; use the slice accessors to get copies.
type AgentSpec struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Phase       Phase  `json:"phase" yaml:"phase"`
	PhaseNumber int    `json:"phase_number" yaml:"phase_number"`
	Role        string `json:"role" yaml:"role"`

	preparation []string
	steps       []string

	SourcePath string `json:"source_path" yaml:"source_path"`
	RawContent string `json:"-" yaml:"-"`
}

// Preparation returns a copy of the preparation items.
func (s AgentSpec) Preparation() []string {
	return cloneItems(s.preparation)
}

// Steps returns a copy of the step items.
func (s AgentSpec) Steps() []string {
	return cloneItems(s.steps)
}

// View is the serializable form of an AgentSpec used for json/yaml output.
type View struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Phase       Phase    `json:"phase" yaml:"phase"`
	PhaseNumber int      `json:"phase_number" yaml:"phase_number"`
	Role        string   `json:"role" yaml:"role"`
	Preparation []string `json:"preparation" yaml:"preparation"`
	Steps       []string `json:"steps" yaml:"steps"`
	SourcePath  string   `json:"source_path" yaml:"source_path"`
}

// View returns the serializable form of s.
func (s AgentSpec) View() View {
	return View{
		ID:          s.ID,
		Name:        s.Name,
		Phase:       s.Phase,
		PhaseNumber: s.PhaseNumber,
		Role:        s.Role,
		Preparation: s.Preparation(),
		Steps:       s.Steps(),
		SourcePath:  s.SourcePath,
	}
}

func cloneItems(items []string) []string {
	out := make([]string, len(items))
	copy(out, items)
	return out
}

// DocumentReadError reports a command document that could not be read.
type DocumentReadError struct {
	Path string
	Err  error
}

func (e *DocumentReadError) Error() string {
	return fmt.Sprintf("reading command document %s: %v", e.Path, e.Err)
}

func (e *DocumentReadError) Unwrap() error {
	return e.Err
}

// IDFromPath returns the agent id for a document path: the file name without
// its extension.
func IDFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Parse builds an AgentSpec from a document's path and text. It never fails;
// structural gaps are filled with fallback values.
func Parse(path, text string) AgentSpec {
	id := IDFromPath(path)
	prefix := PhasePrefix(id)
	doc := markdown.Parse(text)

	return AgentSpec{
		ID:          id,
		Name:        extractName(doc, text),
		Phase:       PhaseForID(id),
		PhaseNumber: PhaseNumber(prefix),
		Role:        extractRole(doc),
		preparation: doc.SectionItems(sectionPreparation),
		steps:       doc.SectionItems(sectionSteps),
		SourcePath:  path,
		RawContent:  text,
	}
}

// ExtractName finds the agent's display name: the bolded role in
// "You are a **X**" or "You will act as a **X**", else the first level-1
// heading, else UnknownAgentName.
func ExtractName(text string) string {
	return extractName(markdown.Parse(text), text)
}

func extractName(doc *markdown.Document, text string) string {
	if m := agentNamePattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	if title, ok := doc.FirstH1(); ok {
		return title
	}
	return UnknownAgentName
}

// ExtractRole returns the Role & Mindset section without bold markers.
func ExtractRole(text string) string {
	return extractRole(markdown.Parse(text))
}

func extractRole(doc *markdown.Document) string {
	s := doc.Find(sectionRole)
	if !s.Truthy() {
		return NoRoleDescription
	}
	return markdown.StripBold(s.Body)
}
