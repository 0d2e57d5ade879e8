package markdown

import (
	"regexp"
	"strings"
)

var (
	// numberedBoldPattern matches "1. **Item text**" and captures the bolded part.
	numberedBoldPattern = regexp.MustCompile(`(?m)^[ \t]*\d+\.[ \t]+\*\*(.+?)\*\*`)

	// bulletPattern matches "- item" or "* item".
	bulletPattern = regexp.MustCompile(`(?m)^[ \t]*[-*][ \t]+(.+?)[ \t]*\r?$`)
)

// NumberedBoldItems returns the bolded text of every numbered list line whose
// item starts with a "**...**" span.
func NumberedBoldItems(section string) []string {
	var items []string
	for _, m := range numberedBoldPattern.FindAllStringSubmatch(section, -1) {
		items = append(items, m[1])
	}
	return items
}

// BulletItems returns the trimmed text of every "-" or "*" bullet line.
func BulletItems(section string) []string {
	var items []string
	for _, m := range bulletPattern.FindAllStringSubmatch(section, -1) {
		items = append(items, strings.TrimSpace(m[1]))
	}
	return items
}

// Items returns numbered bold items, falling back to bullet items only when
// the section has no numbered bold items at all.
func Items(section string) []string {
	if items := NumberedBoldItems(section); len(items) > 0 {
		return items
	}
	return BulletItems(section)
}

// SectionItems extracts the list items of the "## <heading>" section.
// Missing and empty sections both yield an empty, non-nil slice.
func (d *Document) SectionItems(heading string) []string {
	s := d.Find(heading)
	if !s.Truthy() {
		return []string{}
	}
	items := Items(s.Body)
	if items == nil {
		return []string{}
	}
	return items
}

// SectionItems extracts the list items of the "## <heading>" section of text.
func SectionItems(text, heading string) []string {
	return Parse(text).SectionItems(heading)
}
