package scan

import "strings"

// entityTable is applied in order. &amp; comes last so that "&amp;lt;" decodes
// to "&lt;" rather than "<".
var entityTable = []struct {
	entity string
	text   string
}{
	{"&lt;", "<"},
	{"&gt;", ">"},
	{"&quot;", `"`},
	{"&#39;", "'"},
	{"&#039;", "'"},
	{"&apos;", "'"},
	{"&#x27;", "'"},
	{"&ndash;", "–"},
	{"&mdash;", "—"},
	{"&amp;", "&"},
}

// StripTags removes everything between '<' and '>' in a single pass. Stray
// '>' characters are dropped and an unclosed '<' swallows the rest of the input.
func StripTags(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// DecodeEntities replaces the small set of HTML entities review sites use in
// prose. Unknown entities are left untouched.
func DecodeEntities(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}
	for _, e := range entityTable {
		s = strings.ReplaceAll(s, e.entity, e.text)
	}
	return s
}

// CollapseSpace replaces every whitespace run with one space and trims the
// ends.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
