package lineofbestfit

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexmaslar/riff-plugin-editorial/internal/source"
)

const albumsPath = "/albums/"

// listing reads album slugs from the paginated /albums listing.
type listing struct {
	baseURL string
	client  *source.Client
}

// ListPage implements indexcache.Lister.
func (l *listing) ListPage(ctx context.Context, page uint32) ([]string, error) {
	url := fmt.Sprintf("%s/albums?page=%d", l.baseURL, page)
	html, err := l.client.Get(ctx, url, source.AcceptHTML, nil)
	if err != nil {
		return nil, err
	}
	return albumSlugs(html, l.baseURL), nil
}

// albumSlugs collects slugs from relative and absolute album links in
// first-seen order. Empty slugs and links carrying a query or fragment are
// skipped.
func albumSlugs(html, baseURL string) []string {
	var (
		out  []string
		seen = make(map[string]struct{})
	)
	for _, pattern := range []string{`href="` + albumsPath, `href="` + baseURL + albumsPath} {
		from := 0
		for {
			idx := strings.Index(html[from:], pattern)
			if idx < 0 {
				break
			}
			start := from + idx + len(pattern)
			end := strings.IndexByte(html[start:], '"')
			if end < 0 {
				break
			}
			slug := html[start : start+end]
			from = start + end
			if slug == "" || strings.ContainsAny(slug, "?#") {
				continue
			}
			if _, dup := seen[slug]; dup {
				continue
			}
			seen[slug] = struct{}{}
			out = append(out, slug)
		}
	}
	return out
}
