package extract

import (
	"strconv"
	"strings"

	"github.com/alexmaslar/riff-plugin-editorial/internal/scan"
	"github.com/alexmaslar/riff-plugin-editorial/internal/truncate"
)

const (
	preloadedStateMarker = "__PRELOADED_STATE__"
	ratingKey            = `"rating":`
	reviewByMarker       = " Review by "
	wordsByMarker        = "Words by "
	maxBareRatingLen     = 5
)

// RatingFromTags looks for a bare score such as "8" or "7.5/10" inside <h2>
// elements, then inside <span> elements.
func RatingFromTags(html string) (float64, bool) {
	for _, tag := range [][2]string{{"<h2>", "</h2>"}, {"<span>", "</span>"}} {
		if v, ok := ratingInTags(html, tag[0], tag[1]); ok {
			return v, true
		}
	}
	return 0, false
}

func ratingInTags(html, open, close string) (float64, bool) {
	var (
		rating float64
		found  bool
	)
	scan.EachTagPair(html, open, close, func(inner string) bool {
		rating, found = ParseBareRating(strings.TrimSpace(scan.StripTags(inner)))
		return !found
	})
	return rating, found
}

// ParseBareRating parses short score text, optionally suffixed "/10".
func ParseBareRating(text string) (float64, bool) {
	text = strings.TrimSpace(strings.TrimSuffix(text, "/10"))
	if text == "" || len(text) > maxBareRatingLen {
		return 0, false
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || !InRange(v) {
		return 0, false
	}
	return v, true
}

// WordsBy returns the byline following "Words by ".
func WordsBy(html string) (string, bool) {
	return scan.TextAfter(html, wordsByMarker)
}

// ReviewAjax reads the review fragment served to the album page's AJAX call:
// the reviewer from "<h3>Album Review by NAME</h3>" and the excerpt from the
// first paragraph.
func ReviewAjax(html string) (excerpt, reviewer string) {
	if h3, _, ok := scan.Between(html, "<h3>", "</h3>", 0); ok {
		text := scan.StripTags(h3)
		if pos := strings.Index(text, reviewByMarker); pos >= 0 {
			reviewer = strings.TrimSpace(text[pos+len(reviewByMarker):])
		}
	}
	if p, _, ok := scan.Between(html, "<p>", "</p>", 0); ok {
		excerpt = strings.TrimSpace(scan.DecodeEntities(scan.StripTags(p)))
		if excerpt != "" {
			excerpt = truncate.Excerpt(excerpt)
		}
	}
	return excerpt, reviewer
}

// PreloadedRating scans the page's preloaded application state for the first
// "rating": value on the 0-10 scale. Keys such as "bestRating" are skipped.
func PreloadedRating(html string) (float64, bool) {
	pos := strings.Index(html, preloadedStateMarker)
	if pos < 0 {
		return 0, false
	}
	state := html[pos:]
	from := 0
	for {
		idx := strings.Index(state[from:], ratingKey)
		if idx < 0 {
			return 0, false
		}
		abs := from + idx
		valueStart := abs + len(ratingKey)
		from = valueStart
		if abs > 0 && isASCIILetter(state[abs-1]) {
			continue
		}
		rest := state[valueStart:]
		end := strings.IndexFunc(rest, func(r rune) bool {
			return (r < '0' || r > '9') && r != '.'
		})
		if end < 0 {
			end = len(rest)
		}
		v, err := strconv.ParseFloat(rest[:end], 64)
		if err == nil && InRange(v) {
			return v, true
		}
	}
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
