// Package pitchfork resolves album reviews from Pitchfork.
package pitchfork

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/alexmaslar/riff-plugin-editorial/internal/editorial"
	"github.com/alexmaslar/riff-plugin-editorial/internal/extract"
	"github.com/alexmaslar/riff-plugin-editorial/internal/fetcher"
	"github.com/alexmaslar/riff-plugin-editorial/internal/match"
	"github.com/alexmaslar/riff-plugin-editorial/internal/normalize"
	"github.com/alexmaslar/riff-plugin-editorial/internal/scan"
	"github.com/alexmaslar/riff-plugin-editorial/internal/source"
)

// Name is the source identifier.
const Name = "pitchfork"

// DefaultBaseURL is the production site.
const DefaultBaseURL = "https://pitchfork.com"

const reviewsPath = "/reviews/albums/"

// Config configures the adapter.
type Config struct {
	BaseURL string `mapstructure:"base_url"`
}

// Adapter implements editorial.Adapter for Pitchfork.
type Adapter struct {
	baseURL string
	client  *source.Client
	logger  *zap.Logger
}

var _ editorial.Adapter = (*Adapter)(nil)

// New builds an Adapter.
func New(cfg Config, f fetcher.Fetcher, logger *zap.Logger) *Adapter {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{
		baseURL: base,
		client:  source.NewClient(Name, f),
		logger:  logger.Named(Name),
	}
}

// Name implements editorial.Adapter.
func (a *Adapter) Name() string { return Name }

// HealthCheck implements editorial.Adapter.
func (a *Adapter) HealthCheck(context.Context) string { return editorial.HealthOK }

// Resolve finds the review page and reads the score from the preloaded state
// and the prose from the review JSON-LD.
func (a *Adapter) Resolve(ctx context.Context, q editorial.Query) (editorial.Review, error) {
	reviewURL, err := a.search(ctx, q)
	if err != nil {
		return editorial.Review{}, err
	}
	page, err := a.client.Get(ctx, reviewURL, source.AcceptHTML, nil)
	if err != nil {
		return editorial.Review{}, err
	}
	return a.parseReviewPage(reviewURL, page)
}

// search tries "artist title" first, then the artist alone: the site's
// search fails on some titles but lists every review by the artist.
func (a *Adapter) search(ctx context.Context, q editorial.Query) (string, error) {
	titleSlug := q.TitleSlug()
	queries := []string{q.Artist + " " + q.CleanedTitle(), q.Artist}

	var lastErr error
	for _, query := range queries {
		html, err := a.client.Get(ctx, a.baseURL+"/search/?q="+normalize.URLEncode(query), source.AcceptHTML, nil)
		if err != nil {
			lastErr = err
			continue
		}
		if cand, ok := match.FirstContaining(match.Links(html, a.linkSpec()), titleSlug); ok {
			return cand.URL, nil
		}
	}
	if lastErr != nil {
		return "", lastErr
	}
	return "", fmt.Errorf("%w: %s by %s", editorial.ErrNotFound, q.CleanedTitle(), q.Artist)
}

func (a *Adapter) linkSpec() match.LinkSpec {
	return match.LinkSpec{
		Pattern: `href="` + reviewsPath,
		BaseURL: a.baseURL,
		Keep:    func(path string) bool { return len(path) > len(reviewsPath) },
		Slug:    reviewSlug,
	}
}

// reviewSlug returns the title slug of "/reviews/albums/{id-}{slug}/",
// dropping the legacy numeric id prefix.
func reviewSlug(path string) string {
	_, slug, _ := strings.Cut(path, reviewsPath)
	slug = strings.TrimRight(slug, "/")
	if prefix, rest, ok := strings.Cut(slug, "-"); ok && prefix != "" && isDigits(prefix) {
		return rest
	}
	return slug
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func (a *Adapter) parseReviewPage(reviewURL, html string) (editorial.Review, error) {
	review := editorial.Review{SourceURL: reviewURL}
	if rating, ok := extract.PreloadedRating(html); ok {
		review.Rating = editorial.Float(rating)
	}

	if payload, ok := scan.JSONLD(html, `"Review"`, `"reviewBody"`); ok {
		var ld extract.ArticleReview
		if err := extract.Decode(payload, &ld); err != nil {
			a.logger.Debug("review json-ld unreadable", zap.String("url", reviewURL), zap.Error(err))
		} else {
			if body, ok := extract.CleanReviewBody(ld.ReviewBody); ok {
				review.Excerpt = editorial.String(body)
			}
			if name, ok := ld.Author.First(); ok {
				review.Reviewer = editorial.String(name)
			}
			review.ReviewDate = editorial.String(strings.TrimSpace(ld.DatePublished))
		}
	}

	if review.Rating == nil && review.Excerpt == nil {
		return editorial.Review{}, editorial.ErrNoExtractableData
	}
	return review, nil
}
