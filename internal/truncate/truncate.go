// Package truncate shortens review prose to excerpt length, preferring to
// end on a sentence boundary.
package truncate

import (
	"strings"
	"unicode/utf8"
)

// MaxLen is the longest excerpt, in bytes, before the ellipsis.
const MaxLen = 2000

// Ellipsis marks a hard cut.
const Ellipsis = "..."

const paragraphBreak = "\n\n"

// Excerpt returns s unchanged when it fits. Otherwise it cuts just after the
// last ". " within the first MaxLen bytes, keeping the period, or falls back to
// a hard cut at MaxLen followed by Ellipsis.
func Excerpt(s string) string {
	if len(s) <= MaxLen {
		return s
	}
	head := s[:MaxLen]
	if pos := strings.LastIndex(head, ". "); pos >= 0 {
		return s[:pos+1]
	}
	cut := MaxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + Ellipsis
}

// Paragraphs collapses whitespace inside each "\n\n"-separated paragraph,
// drops empty ones and rejoins the rest before applying Excerpt. It reports
// false when no paragraph has any text.
func Paragraphs(s string) (string, bool) {
	parts := strings.Split(s, paragraphBreak)
	kept := parts[:0]
	for _, p := range parts {
		if p = strings.Join(strings.Fields(p), " "); p != "" {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return "", false
	}
	return Excerpt(strings.Join(kept, paragraphBreak)), true
}
