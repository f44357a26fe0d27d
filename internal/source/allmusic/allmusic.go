// Package allmusic resolves album reviews from AllMusic. The album page
// carries the aggregate rating as JSON-LD; the review prose is served by a
// separate AJAX endpoint.
package allmusic

import (
	"context"
	"fmt"
	"net/http"
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
const Name = "allmusic"

// DefaultBaseURL is the production site.
const DefaultBaseURL = "https://www.allmusic.com"

const (
	albumMarker = "-mw"
	ajaxAccept  = "text/html, */*; q=0.01"
)

// Config configures the adapter.
type Config struct {
	BaseURL string `mapstructure:"base_url"`
}

// Adapter implements editorial.Adapter for AllMusic.
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

// Resolve searches for the album, verifies the artist on the album page and
// merges in the review text when the AJAX fragment is available.
func (a *Adapter) Resolve(ctx context.Context, q editorial.Query) (editorial.Review, error) {
	albumURL, err := a.search(ctx, q)
	if err != nil {
		return editorial.Review{}, err
	}

	page, err := a.client.Get(ctx, albumURL, source.AcceptHTML, nil)
	if err != nil {
		return editorial.Review{}, err
	}
	review, err := parseAlbumPage(albumURL, page, q.ArtistSlug())
	if err != nil {
		return editorial.Review{}, err
	}

	headers := http.Header{}
	headers.Set("X-Requested-With", "XMLHttpRequest")
	headers.Set("Referer", albumURL)
	fragment, err := a.client.Get(ctx, albumURL+"/reviewAjax", ajaxAccept, headers)
	if err != nil {
		a.logger.Debug("review text unavailable", zap.String("url", albumURL), zap.Error(err))
	} else {
		excerpt, reviewer := extract.ReviewAjax(fragment)
		review.Excerpt = editorial.String(excerpt)
		if reviewer != "" {
			review.Reviewer = editorial.String(reviewer)
		}
	}

	if review.Rating == nil && review.Excerpt == nil {
		return editorial.Review{}, editorial.ErrNoExtractableData
	}
	return review, nil
}

// search tries "artist title" first, then the title alone.
func (a *Adapter) search(ctx context.Context, q editorial.Query) (string, error) {
	titleSlug, artistSlug := q.TitleSlug(), q.ArtistSlug()
	queries := []string{q.Artist + " " + q.CleanedTitle(), q.CleanedTitle()}

	var lastErr error = editorial.ErrNotFound
	for _, query := range queries {
		html, err := a.client.Get(ctx, a.baseURL+"/search/albums/"+normalize.URLEncode(query), source.AcceptHTML, nil)
		if err != nil {
			lastErr = err
			continue
		}
		cand, outcome := match.Best(match.Links(html, a.linkSpec()), titleSlug, artistSlug)
		if outcome == match.None {
			continue
		}
		a.logger.Debug("album candidate", zap.String("url", cand.URL), zap.Stringer("match", outcome))
		return cand.URL, nil
	}
	if lastErr == editorial.ErrNotFound {
		return "", fmt.Errorf("%w: %s by %s", editorial.ErrNotFound, q.CleanedTitle(), q.Artist)
	}
	return "", lastErr
}

func (a *Adapter) linkSpec() match.LinkSpec {
	return match.LinkSpec{
		Pattern: `href="/album/`,
		BaseURL: a.baseURL,
		Keep:    func(path string) bool { return strings.Contains(path, albumMarker) },
		Slug:    albumSlug,
	}
}

// albumSlug returns the title part of "/album/{slug}-mw{id}".
func albumSlug(path string) string {
	_, rest, _ := strings.Cut(path, "/album/")
	if i := strings.LastIndex(rest, albumMarker); i >= 0 {
		return rest[:i]
	}
	return rest
}

// parseAlbumPage reads the MusicAlbum JSON-LD. The artist must match; the
// aggregate rating is optional here and the caller decides whether the
// review holds enough data.
// albumJSONLD is the part of the album page's MusicAlbum JSON-LD that is
// read. Other fields, whatever their shape, are ignored.
type albumJSONLD struct {
	AggregateRating *extract.Rating `json:"aggregateRating"`
	ByArtist        extract.Persons `json:"byArtist"`
}

func parseAlbumPage(albumURL, html, artistSlug string) (editorial.Review, error) {
	payload, ok := scan.JSONLD(html, `"MusicAlbum"`)
	if !ok {
		return editorial.Review{}, fmt.Errorf("%w: no MusicAlbum JSON-LD", editorial.ErrNoExtractableData)
	}
	var album albumJSONLD
	if err := extract.Decode(payload, &album); err != nil {
		return editorial.Review{}, err
	}
	if !extract.VerifyArtist(album.ByArtist, artistSlug) {
		return editorial.Review{}, fmt.Errorf("%w: %s", editorial.ErrUnverifiable, albumURL)
	}

	review := editorial.Review{SourceURL: albumURL}
	if agg := album.AggregateRating; agg != nil {
		if rating, ok := agg.Normalized(); ok {
			review.Rating = editorial.Float(rating)
			review.RatingCount = agg.Count()
		}
	}
	return review, nil
}
