// Package northerntransmissions resolves album reviews from Northern
// Transmissions through the site's WordPress REST API. The API supplies the
// review text and date; the score and byline only exist on the page itself.
package northerntransmissions

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
	"github.com/alexmaslar/riff-plugin-editorial/internal/source"
)

// Name is the source identifier.
const Name = "northern-transmissions"

// DefaultBaseURL is the production site.
const DefaultBaseURL = "https://northerntransmissions.com"

// reviewsCategory is the WordPress category id of album reviews.
const reviewsCategory = 15

// Config configures the adapter.
type Config struct {
	BaseURL string `mapstructure:"base_url"`
}

// Post is the subset of a WordPress REST post the adapter reads.
type Post struct {
	Slug    string  `json:"slug"`
	Link    string  `json:"link"`
	Date    *string `json:"date"`
	Content *struct {
		Rendered *string `json:"rendered"`
	} `json:"content"`
}

func (p Post) rendered() string {
	if p.Content == nil || p.Content.Rendered == nil {
		return ""
	}
	return *p.Content.Rendered
}

// Adapter implements editorial.Adapter for Northern Transmissions.
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

// Resolve matches a post from the API, then enriches it from the review page.
// When the page cannot be fetched the API data alone is returned.
func (a *Adapter) Resolve(ctx context.Context, q editorial.Query) (editorial.Review, error) {
	post, err := a.search(ctx, q)
	if err != nil {
		return editorial.Review{}, err
	}

	review := editorial.Review{SourceURL: post.Link, ReviewDate: post.Date}
	if excerpt, ok := extract.PlainText(post.rendered()); ok {
		review.Excerpt = editorial.String(excerpt)
	}

	page, err := a.client.Get(ctx, post.Link, source.AcceptHTML, nil)
	if err != nil {
		a.logger.Debug("review page unavailable, using api data", zap.String("url", post.Link), zap.Error(err))
	} else {
		if rating, ok := extract.RatingFromTags(page); ok {
			review.Rating = editorial.Float(rating)
		}
		if reviewer, ok := extract.WordsBy(page); ok {
			review.Reviewer = editorial.String(reviewer)
		}
	}

	if review.Rating == nil && review.Excerpt == nil {
		return editorial.Review{}, editorial.ErrNoExtractableData
	}
	return review, nil
}

// search queries "artist title" first, then the artist alone.
func (a *Adapter) search(ctx context.Context, q editorial.Query) (Post, error) {
	titleSlug, artistSlug := q.TitleSlug(), q.ArtistSlug()
	queries := []string{q.Artist + " " + q.CleanedTitle(), q.Artist}

	var lastErr error
	for _, query := range queries {
		posts, err := a.posts(ctx, query)
		if err != nil {
			lastErr = err
			continue
		}
		post, ok := match.BestListing(posts, func(p Post) string { return p.Slug }, titleSlug, artistSlug)
		if ok && post.Link != "" {
			return post, nil
		}
	}
	if lastErr != nil {
		return Post{}, lastErr
	}
	return Post{}, fmt.Errorf("%w: %s by %s", editorial.ErrNotFound, q.CleanedTitle(), q.Artist)
}

func (a *Adapter) posts(ctx context.Context, query string) ([]Post, error) {
	url := fmt.Sprintf("%s/wp-json/wp/v2/posts?categories=%d&search=%s&per_page=5",
		a.baseURL, reviewsCategory, normalize.URLEncode(query))
	body, err := a.client.Get(ctx, url, source.AcceptJSON, nil)
	if err != nil {
		return nil, err
	}
	var posts []Post
	if err := extract.Decode(body, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}
