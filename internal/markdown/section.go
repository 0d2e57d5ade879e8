// Package markdown extracts sections and list items from loosely structured
// markdown documents. Extraction is best-effort: a missing heading is reported
// as a value, never as an error.
package markdown

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// numberedTitlePattern matches the "N. Title" text of a numbered subsection heading.
var numberedTitlePattern = regexp.MustCompile(`^\d+\.[ \t]+(.+?)$`)

// heading is an ATX heading located in the source text.
type heading struct {
	level int
	title string
	start int // offset of the first byte of the heading line
	end   int // offset just past the heading line
}

// Document is a parsed markdown text. Headings inside fenced or indented
// code blocks are not headings and never end a section.
type Document struct {
	text     string
	headings []heading
}

// Parse locates every ATX heading of text. Setext headings are ignored.
func Parse(src string) *Document {
	source := []byte(src)
	root := goldmark.DefaultParser().Parse(text.NewReader(source))

	doc := &Document{text: src}
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			if h, ok := atxHeading(source, node); ok {
				doc.headings = append(doc.headings, h)
			}
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return doc
}

func atxHeading(source []byte, node *ast.Heading) (heading, bool) {
	if node.Lines().Len() == 0 {
		return heading{}, false
	}
	seg := node.Lines().At(0)
	start := bytes.LastIndexByte(source[:seg.Start], '\n') + 1
	if source[start] != '#' {
		return heading{}, false
	}
	end := len(source)
	if i := bytes.IndexByte(source[seg.Start:], '\n'); i >= 0 {
		end = seg.Start + i + 1
	}
	return heading{
		level: node.Level,
		title: strings.TrimSpace(string(seg.Value(source))),
		start: start,
		end:   end,
	}, true
}

// body returns the text after headings[i] up to the next heading of level
// maxLevel or shallower.
func (d *Document) body(i, maxLevel int) string {
	stop := len(d.text)
	for _, next := range d.headings[i+1:] {
		if next.level <= maxLevel {
			stop = next.start
			break
		}
	}
	return strings.TrimSpace(d.text[d.headings[i].end:stop])
}

// Section is the result of looking up a level-2 heading.
// The zero value is a missing section.
type Section struct {
	Heading string
	Body    string // trimmed text between the heading and the next level-1/2 heading
	Found   bool
}

// Missing reports whether the heading does not occur in the document.
func (s Section) Missing() bool {
	return !s.Found
}

// Empty reports whether the heading exists but its body is whitespace only.
func (s Section) Empty() bool {
	return s.Found && s.Body == ""
}

// Truthy reports whether the section has content. Callers that fall back to
// default text treat missing and empty sections alike.
func (s Section) Truthy() bool {
	return s.Found && s.Body != ""
}

// Find locates the first "## <name>" section. "###" and deeper headings
// never end a level-2 section.
func (d *Document) Find(name string) Section {
	for i, h := range d.headings {
		if h.level == 2 && h.title == name {
			return Section{Heading: name, Body: d.body(i, 2), Found: true}
		}
	}
	return Section{Heading: name}
}

// Find locates the "## <heading>" section in text.
func Find(text, heading string) Section {
	return Parse(text).Find(heading)
}

// Subsection is a numbered "### N. Title" block inside a section.
type Subsection struct {
	Title string
	Body  string
}

// Subsections returns every numbered level-3 subsection in document order.
// Each body runs to the next heading of level 3 or shallower.
func (d *Document) Subsections() []Subsection {
	var subs []Subsection
	for i, h := range d.headings {
		if h.level != 3 {
			continue
		}
		m := numberedTitlePattern.FindStringSubmatch(h.title)
		if m == nil {
			continue
		}
		subs = append(subs, Subsection{
			Title: strings.TrimSpace(m[1]),
			Body:  d.body(i, 3),
		})
	}
	return subs
}

// Subsections returns every numbered level-3 subsection of text.
func Subsections(text string) []Subsection {
	return Parse(text).Subsections()
}

// FirstH1 returns the text of the first level-1 heading.
func (d *Document) FirstH1() (string, bool) {
	for _, h := range d.headings {
		if h.level == 1 && h.title != "" {
			return h.title, true
		}
	}
	return "", false
}

// FirstH1 returns the text of the first level-1 heading of text.
func FirstH1(text string) (string, bool) {
	return Parse(text).FirstH1()
}

// StripBold removes all "**" emphasis markers.
func StripBold(s string) string {
	return strings.ReplaceAll(s, "**", "")
}
