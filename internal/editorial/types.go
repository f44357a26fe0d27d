// Package editorial defines the review model shared by every source adapter
// and the envelopes exchanged with callers.
package editorial

import (
	"context"
	"fmt"

	"github.com/alexmaslar/riff-plugin-editorial/internal/normalize"
)

// HealthOK is the only health response an adapter gives.
const HealthOK = "ok"

// Input is the request envelope: the album to look up.
type Input struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Year   *int   `json:"year,omitempty"`
}

// Query returns the lookup derived from the envelope.
func (in Input) Query() Query {
	return Query{Title: in.Title, Artist: in.Artist, Year: in.Year}
}

// Query identifies the album being resolved.
type Query struct {
	Title  string
	Artist string
	Year   *int
}

// CleanedTitle is the title without a trailing parenthetical.
func (q Query) CleanedTitle() string {
	return normalize.CleanTitle(q.Title)
}

// TitleSlug is the slug of the cleaned title.
func (q Query) TitleSlug() string {
	return normalize.Slugify(q.CleanedTitle())
}

// ArtistSlug is the slug of the artist name.
func (q Query) ArtistSlug() string {
	return normalize.Slugify(q.Artist)
}

// Review is what an adapter extracts from a single review page.
type Review struct {
	SourceURL   string
	Excerpt     *string
	Rating      *float64
	RatingCount *uint32
	Reviewer    *string
	ReviewDate  *string
}

// Validate reports ErrNoExtractableData when neither a rating nor an excerpt
// was found and ErrMalformedData when the rating is off the 0-10 scale.
func (r Review) Validate() error {
	if r.Rating == nil && r.Excerpt == nil {
		return ErrNoExtractableData
	}
	if r.Rating != nil && (*r.Rating < 0 || *r.Rating > 10) {
		return fmt.Errorf("%w: rating %v outside 0-10", ErrMalformedData, *r.Rating)
	}
	return nil
}

// Result is the response envelope.
type Result struct {
	Reviews []Entry `json:"reviews"`
}

// Entry is one review in the response envelope. Absent fields encode as null.
type Entry struct {
	Source      string   `json:"source"`
	SourceURL   string   `json:"source_url"`
	Excerpt     *string  `json:"excerpt"`
	Rating      *float64 `json:"rating"`
	RatingCount *uint32  `json:"rating_count"`
	Reviewer    *string  `json:"reviewer"`
	ReviewDate  *string  `json:"review_date"`
}

// Empty is the envelope for "no review found".
func Empty() Result {
	return Result{Reviews: []Entry{}}
}

// Wrap builds the envelope for one source: zero entries when review is nil,
// one otherwise.
func Wrap(source string, review *Review) Result {
	if review == nil {
		return Empty()
	}
	return Result{Reviews: []Entry{{
		Source:      source,
		SourceURL:   review.SourceURL,
		Excerpt:     review.Excerpt,
		Rating:      review.Rating,
		RatingCount: review.RatingCount,
		Reviewer:    review.Reviewer,
		ReviewDate:  review.ReviewDate,
	}}}
}

// Merge concatenates the entries of several envelopes in order.
func Merge(results ...Result) Result {
	out := Empty()
	for _, r := range results {
		out.Reviews = append(out.Reviews, r.Reviews...)
	}
	return out
}

// Adapter resolves reviews against one site.
type Adapter interface {
	// Name is the source identifier reported in every Entry.
	Name() string
	// HealthCheck always returns HealthOK.
	HealthCheck(ctx context.Context) string
	// Resolve finds and extracts the review for q. Every failure is one of the
	// errors declared in this package.
	Resolve(ctx context.Context, q Query) (Review, error)
}

// String returns a pointer to s, or nil when s is empty.
func String(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}
