package match

import (
	"strings"

	"github.com/alexmaslar/riff-plugin-editorial/internal/normalize"
)

const (
	// SearchLengthRatio is the minimum title-to-slug length ratio for a
	// containment match on search results.
	SearchLengthRatio = 0.7
	// ListingLengthRatio is the looser ratio used for listing APIs whose
	// slugs combine artist and title.
	ListingLengthRatio = 0.3
)

// Outcome records which pass selected a candidate.
type Outcome int

const (
	// None means no candidate matched.
	None Outcome = iota
	// ExactVerified is an exact slug match with the artist in context.
	ExactVerified
	// SubstringVerified is a containment match with the artist in context.
	SubstringVerified
	// ExactUnverified is an exact slug match whose artist must be checked on
	// the review page itself.
	ExactUnverified
)

func (o Outcome) String() string {
	switch o {
	case ExactVerified:
		return "exact_verified"
	case SubstringVerified:
		return "substring_verified"
	case ExactUnverified:
		return "exact_unverified"
	default:
		return "none"
	}
}

// Best runs three passes over cands: exact slug with the artist in context,
// length-guarded containment with the artist in context, then the first exact
// slug regardless of context.
func Best(cands []Candidate, titleSlug, artistSlug string) (Candidate, Outcome) {
	var (
		firstExact Candidate
		haveExact  bool
	)
	for _, c := range cands {
		if !ExactSlug(c.Slug, titleSlug) {
			continue
		}
		if artistInContext(c.Context, artistSlug) {
			return c, ExactVerified
		}
		if !haveExact {
			firstExact, haveExact = c, true
		}
	}
	for _, c := range cands {
		if ContainsSlug(c.Slug, titleSlug, SearchLengthRatio) && artistInContext(c.Context, artistSlug) {
			return c, SubstringVerified
		}
	}
	if haveExact {
		return firstExact, ExactUnverified
	}
	return Candidate{}, None
}

// FirstContaining returns the first candidate whose slug contains titleSlug.
func FirstContaining(cands []Candidate, titleSlug string) (Candidate, bool) {
	if titleSlug == "" {
		return Candidate{}, false
	}
	for _, c := range cands {
		if strings.Contains(c.Slug, titleSlug) {
			return c, true
		}
	}
	return Candidate{}, false
}

// BestListing picks from a listing API response: the slug must contain
// titleSlug and pass the ListingLengthRatio guard; a slug that also contains
// artistSlug beats an earlier one that does not.
func BestListing[T any](items []T, slugOf func(T) string, titleSlug, artistSlug string) (T, bool) {
	var (
		best       T
		found      bool
		bestArtist bool
	)
	if titleSlug == "" {
		return best, false
	}
	for _, item := range items {
		slug := slugOf(item)
		if !strings.Contains(slug, titleSlug) || !CloseLength(titleSlug, slug, ListingLengthRatio) {
			continue
		}
		hasArtist := artistSlug != "" && strings.Contains(slug, artistSlug)
		switch {
		case hasArtist && !bestArtist:
			best, found, bestArtist = item, true, true
		case !found:
			best, found = item, true
		}
	}
	return best, found
}

// ExactSlug compares a URL slug with titleSlug, also trying the slugified
// percent-decoded form.
func ExactSlug(urlSlug, titleSlug string) bool {
	if urlSlug == titleSlug {
		return true
	}
	return normalize.Slugify(normalize.PercentDecode(urlSlug)) == titleSlug
}

// ContainsSlug reports whether urlSlug, raw or decoded, contains titleSlug
// and passes the length guard.
func ContainsSlug(urlSlug, titleSlug string, ratio float64) bool {
	if strings.Contains(urlSlug, titleSlug) && CloseLength(titleSlug, urlSlug, ratio) {
		return true
	}
	decoded := normalize.Slugify(normalize.PercentDecode(urlSlug))
	return strings.Contains(decoded, titleSlug) && CloseLength(titleSlug, decoded, ratio)
}

// CloseLength reports len(titleSlug)/len(urlSlug) >= ratio. An empty urlSlug
// never passes.
func CloseLength(titleSlug, urlSlug string, ratio float64) bool {
	if urlSlug == "" {
		return false
	}
	return float64(len(titleSlug))/float64(len(urlSlug)) >= ratio
}

func artistInContext(context, artistSlug string) bool {
	return artistSlug == "" || strings.Contains(normalize.Slugify(context), artistSlug)
}
