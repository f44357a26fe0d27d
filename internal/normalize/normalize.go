// Package normalize turns free-form album titles and artist names into the
// slugs and query strings the review sites understand.
package normalize

import (
	"strings"
)

const upperHex = "0123456789ABCDEF"

// CleanTitle drops a trailing parenthetical such as "(Deluxe Edition)".
// A title that starts with "(" is returned unchanged.
func CleanTitle(title string) string {
	idx := strings.LastIndexByte(title, '(')
	if idx <= 0 {
		return title
	}
	return strings.TrimRight(title[:idx], " \t\r\n")
}

// Slugify lowercases ASCII letters and digits, maps spaces, hyphens and colons
// to a single hyphen and drops everything else.
func Slugify(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pendingDash := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		case c >= 'A' && c <= 'Z':
			c += 'a' - 'A'
		case c == ' ' || c == '-' || c == ':':
			pendingDash = true
			continue
		default:
			continue
		}
		if pendingDash && b.Len() > 0 {
			b.WriteByte('-')
		}
		pendingDash = false
		b.WriteByte(c)
	}
	return b.String()
}

// URLEncode form-encodes s for use in a query string. Spaces become "+".
func URLEncode(s string) string {
	var b strings.Builder
	b.Grow(len(s) * 3)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case isUnreserved(c):
			b.WriteByte(c)
		case c == ' ':
			b.WriteByte('+')
		default:
			b.WriteByte('%')
			b.WriteByte(upperHex[c>>4])
			b.WriteByte(upperHex[c&0x0f])
		}
	}
	return b.String()
}

// PercentDecode reverses %XX escapes. Decoded bytes are reassembled before
// conversion, so multi-byte UTF-8 sequences survive. Malformed escapes are
// kept as-is.
func PercentDecode(s string) string {
	if strings.IndexByte(s, '%') < 0 {
		return s
	}
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) {
			hi, okHi := fromHex(s[i+1])
			lo, okLo := fromHex(s[i+2])
			if okHi && okLo {
				out = append(out, hi<<4|lo)
				i += 2
				continue
			}
		}
		out = append(out, s[i])
	}
	return string(out)
}

func isUnreserved(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') ||
		c == '-' || c == '_' || c == '.' || c == '~'
}

func fromHex(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
