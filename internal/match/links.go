// Package match finds review-page links in search results and picks the one
// that best fits the album being resolved.
package match

import (
	"strings"
)

// ContextWindow bounds the slice of markup kept after each link.
const ContextWindow = 2000

const hrefPrefix = `href="`

// Candidate is a review page link found on a search or listing page.
type Candidate struct {
	URL string
	// Slug is the title-bearing path segment used for matching.
	Slug string
	// Context is the markup following the link, used to spot the artist.
	Context string
}

// LinkSpec describes how a site writes its review links.
type LinkSpec struct {
	// Pattern is the attribute prefix to search for, e.g. `href="/album/`.
	Pattern string
	// BaseURL is prepended to relative paths.
	BaseURL string
	// Keep filters paths; nil keeps everything.
	Keep func(path string) bool
	// Slug derives the matching slug from a path; nil uses the last segment.
	Slug func(path string) string
}

// Links extracts candidates from html in document order, keeping the first
// occurrence of each URL.
func Links(html string, spec LinkSpec) []Candidate {
	var (
		out  []Candidate
		seen = make(map[string]struct{})
		from int
	)
	for {
		idx := strings.Index(html[from:], spec.Pattern)
		if idx < 0 {
			break
		}
		pathStart := from + idx + len(hrefPrefix)
		end := strings.IndexByte(html[pathStart:], '"')
		if end < 0 {
			break
		}
		pathEnd := pathStart + end
		path := html[pathStart:pathEnd]

		if spec.Keep == nil || spec.Keep(path) {
			url := spec.BaseURL + path
			if _, dup := seen[url]; !dup {
				seen[url] = struct{}{}
				ctxEnd := min(pathEnd+ContextWindow, len(html))
				out = append(out, Candidate{
					URL:     url,
					Slug:    slugOf(spec, path),
					Context: html[pathEnd:ctxEnd],
				})
			}
		}

		from = pathEnd
		if from >= len(html)-50 {
			break
		}
	}
	return out
}

func slugOf(spec LinkSpec, path string) string {
	if spec.Slug != nil {
		return spec.Slug(path)
	}
	return LastSegment(path)
}

// LastSegment returns the final non-empty path segment.
func LastSegment(path string) string {
	path = strings.TrimRight(path, "/")
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}
