// Package scan locates markers, script blocks and tag-delimited regions in raw
// HTML without building a document tree.
package scan

import (
	"encoding/json"
	"strings"
)

// tailGuard stops forward scans once fewer bytes than this remain; nothing
// useful fits in a shorter tail.
const tailGuard = 50

const (
	jsonLDMarker = "application/ld+json"
	scriptOpen   = "<script"
	scriptClose  = "</script>"
)

// Between returns the text between the first open marker at or after from and
// the next close marker. end is the offset just past close.
func Between(s, open, close string, from int) (inner string, end int, ok bool) {
	if from < 0 || from > len(s) {
		return "", from, false
	}
	i := strings.Index(s[from:], open)
	if i < 0 {
		return "", from, false
	}
	start := from + i + len(open)
	j := strings.Index(s[start:], close)
	if j < 0 {
		return "", from, false
	}
	return s[start : start+j], start + j + len(close), true
}

// EachTagPair calls fn with the inner text of each successive open/close pair.
// Iteration stops when fn returns false or the input runs out.
func EachTagPair(html, open, close string, fn func(inner string) bool) {
	from := 0
	for {
		inner, end, ok := Between(html, open, close, from)
		if !ok || !fn(inner) {
			return
		}
		from = end
		if exhausted(html, from) {
			return
		}
	}
}

// ScriptContaining returns the body of the first <script> element whose body
// contains marker.
func ScriptContaining(html, marker string) (string, bool) {
	var found string
	eachScript(html, scriptOpen, func(body string) bool {
		if strings.Contains(body, marker) {
			found = body
			return false
		}
		return true
	})
	return found, found != ""
}

// JSONLD returns the first JSON-LD payload mentioning any of markers.
func JSONLD(html string, markers ...string) (string, bool) {
	var found string
	EachJSONLD(html, func(payload string) bool {
		found = payload
		return false
	}, markers...)
	return found, found != ""
}

// EachJSONLD visits JSON-LD payloads whose raw text contains any of markers.
// A top-level array is split into its elements and every element that
// mentions a marker is visited in order; when no element qualifies, or the
// array does not parse, the whole block is visited instead.
func EachJSONLD(html string, fn func(payload string) bool, markers ...string) {
	eachScript(html, jsonLDMarker, func(body string) bool {
		block := strings.TrimSpace(body)
		if !containsAny(block, markers) {
			return true
		}
		for _, payload := range splitElements(block, markers) {
			if !fn(payload) {
				return false
			}
		}
		return true
	})
}

// BalancedDiv returns the inner HTML of the <div> whose opening tag contains
// marker, honouring nested <div> elements. An unterminated container is
// reported as not found.
func BalancedDiv(html, marker string) (string, bool) {
	pos := strings.Index(html, marker)
	if pos < 0 {
		return "", false
	}
	gt := strings.IndexByte(html[pos:], '>')
	if gt < 0 {
		return "", false
	}
	start := pos + gt + 1
	depth := 1
	i := start
	for i < len(html) && depth > 0 {
		rest := html[i:]
		switch {
		case strings.HasPrefix(rest, "<div"):
			depth++
			i += len("<div")
		case strings.HasPrefix(rest, "</div>"):
			depth--
			if depth == 0 {
				return html[start:i], true
			}
			i += len("</div>")
		default:
			i++
		}
	}
	return "", false
}

// TextAfter returns the trimmed text following marker up to the next tag or
// line break.
func TextAfter(html, marker string) (string, bool) {
	pos := strings.Index(html, marker)
	if pos < 0 {
		return "", false
	}
	rest := html[pos+len(marker):]
	if end := strings.IndexAny(rest, "<\n"); end >= 0 {
		rest = rest[:end]
	}
	text := strings.TrimSpace(rest)
	return text, text != ""
}

func eachScript(html, opener string, fn func(body string) bool) {
	from := 0
	for {
		idx := strings.Index(html[from:], opener)
		if idx < 0 {
			return
		}
		abs := from + idx
		gt := strings.IndexByte(html[abs:], '>')
		if gt < 0 {
			return
		}
		contentStart := abs + gt + 1
		closeIdx := strings.Index(html[contentStart:], scriptClose)
		if closeIdx < 0 {
			return
		}
		contentEnd := contentStart + closeIdx
		if !fn(html[contentStart:contentEnd]) {
			return
		}
		from = contentEnd
		if exhausted(html, from) {
			return
		}
	}
}

func splitElements(block string, markers []string) []string {
	if !strings.HasPrefix(block, "[") {
		return []string{block}
	}
	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(block), &elems); err != nil {
		return []string{block}
	}
	var picked []string
	for _, elem := range elems {
		text := strings.TrimSpace(string(elem))
		if containsAny(text, markers) {
			picked = append(picked, text)
		}
	}
	if len(picked) == 0 {
		return []string{block}
	}
	return picked
}

func containsAny(s string, markers []string) bool {
	if len(markers) == 0 {
		return true
	}
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

func exhausted(s string, from int) bool {
	limit := len(s) - tailGuard
	if limit < 0 {
		limit = 0
	}
	return from >= limit
}
