// Package lineofbestfit resolves album reviews from The Line of Best Fit.
// The site has no usable search, so review URLs come from an index of the
// album listing that is built a batch of pages at a time and persisted.
package lineofbestfit

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/alexmaslar/riff-plugin-editorial/internal/editorial"
	"github.com/alexmaslar/riff-plugin-editorial/internal/extract"
	"github.com/alexmaslar/riff-plugin-editorial/internal/fetcher"
	"github.com/alexmaslar/riff-plugin-editorial/internal/indexcache"
	"github.com/alexmaslar/riff-plugin-editorial/internal/scan"
	"github.com/alexmaslar/riff-plugin-editorial/internal/source"
	"github.com/alexmaslar/riff-plugin-editorial/internal/storage"
)

// Name is the source identifier.
const Name = "thelineofbestfit"

// DefaultBaseURL is the production site.
const DefaultBaseURL = "https://www.thelineofbestfit.com"

// DefaultCacheKey is the storage key of the listing index.
const DefaultCacheKey = "tlobf_cache"

const articleMarker = "c--article-copy__sections"

// Config configures the adapter.
type Config struct {
	BaseURL   string `mapstructure:"base_url"`
	CacheKey  string `mapstructure:"cache_key"`
	MaxPages  uint32 `mapstructure:"max_pages"`
	BatchSize uint32 `mapstructure:"batch_size"`
}

// Adapter implements editorial.Adapter for The Line of Best Fit.
type Adapter struct {
	baseURL string
	client  *source.Client
	index   *indexcache.Index
	logger  *zap.Logger
}

var _ editorial.Adapter = (*Adapter)(nil)

// New builds an Adapter whose listing index is persisted in store.
func New(cfg Config, f fetcher.Fetcher, store storage.Store, logger *zap.Logger) (*Adapter, error) {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if cfg.CacheKey == "" {
		cfg.CacheKey = DefaultCacheKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	client := source.NewClient(Name, f)
	index, err := indexcache.New(indexcache.Config{
		Source:    Name,
		Key:       cfg.CacheKey,
		MaxPages:  cfg.MaxPages,
		BatchSize: cfg.BatchSize,
	}, store, &listing{baseURL: base, client: client}, logger)
	if err != nil {
		return nil, fmt.Errorf("build listing index: %w", err)
	}
	return &Adapter{
		baseURL: base,
		client:  client,
		index:   index,
		logger:  logger.Named(Name),
	}, nil
}

// Name implements editorial.Adapter.
func (a *Adapter) Name() string { return Name }

// HealthCheck implements editorial.Adapter.
func (a *Adapter) HealthCheck(context.Context) string { return editorial.HealthOK }

// Index exposes the listing index, e.g. for warm-up.
func (a *Adapter) Index() *indexcache.Index { return a.index }

// Resolve extends the listing index, looks the album up by
// "artist-album" prefix and reads the review page.
func (a *Adapter) Resolve(ctx context.Context, q editorial.Query) (editorial.Review, error) {
	slug, err := a.index.Lookup(ctx, q.ArtistSlug(), q.TitleSlug())
	if err != nil {
		return editorial.Review{}, err
	}
	reviewURL := a.baseURL + albumsPath + slug

	page, err := a.client.Get(ctx, reviewURL, source.AcceptHTML, nil)
	if err != nil {
		return editorial.Review{}, err
	}
	review, err := parseReviewPage(reviewURL, page)
	if err != nil {
		return editorial.Review{}, err
	}
	if body, ok := extract.ArticleBody(page, articleMarker); ok {
		review.Excerpt = editorial.String(body)
	}
	return review, nil
}

// parseReviewPage reads the review nested in the page's MusicAlbum JSON-LD.
// Blocks are tried in order until one yields a rating or an excerpt.
func parseReviewPage(reviewURL, html string) (editorial.Review, error) {
	var (
		found   editorial.Review
		ok      bool
		lastErr error
	)
	scan.EachJSONLD(html, func(payload string) bool {
		albums, err := extract.DecodeAlbums(payload)
		if err != nil {
			lastErr = err
			return true
		}
		for _, album := range albums {
			if found, ok = reviewFromAlbum(reviewURL, album); ok {
				return false
			}
		}
		return true
	}, `"MusicAlbum"`)
	if ok {
		return found, nil
	}
	if lastErr != nil {
		return editorial.Review{}, lastErr
	}
	return editorial.Review{}, fmt.Errorf("%w: no album review on %s", editorial.ErrNoExtractableData, reviewURL)
}

func reviewFromAlbum(reviewURL string, album extract.MusicAlbum) (editorial.Review, bool) {
	for _, r := range album.Reviews {
		review := editorial.Review{SourceURL: reviewURL}
		if r.ReviewRating != nil {
			if rating, ok := r.ReviewRating.Normalized(); ok {
				review.Rating = editorial.Float(rating)
			}
		}
		if name, ok := r.Author.First(); ok {
			review.Reviewer = editorial.String(name)
		}
		review.ReviewDate = editorial.String(r.DatePublished)
		if review.ReviewDate == nil {
			review.ReviewDate = editorial.String(album.DatePublished)
		}
		if body, ok := extract.CleanReviewBody(r.ReviewBody); ok {
			review.Excerpt = editorial.String(body)
		}
		if review.Rating != nil || review.Excerpt != nil {
			return review, true
		}
	}
	return editorial.Review{}, false
}
