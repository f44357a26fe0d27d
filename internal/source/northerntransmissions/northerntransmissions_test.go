package northerntransmissions

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexmaslar/riff-plugin-editorial/internal/editorial"
	"github.com/alexmaslar/riff-plugin-editorial/internal/fetcher"
)

const base = "https://nt.test"

const apiPath = "/wp-json/wp/v2/posts?categories=15&search="

type fakeSite struct {
	routes map[string]string
	down   map[string]bool
	accept map[string]string
}

func (s *fakeSite) Fetch(_ context.Context, req fetcher.Request) (fetcher.Response, error) {
	if s.accept == nil {
		s.accept = map[string]string{}
	}
	s.accept[req.URL] = req.Headers.Get("Accept")
	if s.down[req.URL] {
		return fetcher.Response{}, errors.New("connection reset")
	}
	body, ok := s.routes[req.URL]
	if !ok {
		return fetcher.Response{URL: req.URL, StatusCode: http.StatusNotFound}, nil
	}
	return fetcher.Response{URL: req.URL, StatusCode: http.StatusOK, Body: []byte(body)}, nil
}

const postsJSON = `[
 {"slug":"dragon-new-mountain","link":"https://nt.test/dragon-new-mountain/","date":"2022-02-10T09:00:00","content":{"rendered":"<p>Another band.</p>"}},
 {"slug":"big-thief-dragon-new-mountain","link":"https://nt.test/big-thief-dragon-new-mountain/","date":"2022-02-11T09:00:00","content":{"rendered":"<p>Sprawling &amp; warm.</p>"}},
 {"slug":"big-thief-dragon-new-mountain-tour","link":"https://nt.test/big-thief-tour/","date":"2022-01-01T00:00:00","content":{"rendered":"<p>Tour news.</p>"}}
]`

var reviewPage = `<html><body>
<p>Words by Leah Weinstein</p>
<h2>Album Review</h2>
<h2>8.5/10</h2>
</body></html>` + strings.Repeat(" ", 80)

func query() editorial.Query {
	return editorial.Query{Title: "Dragon New Mountain", Artist: "Big Thief"}
}

func TestResolveEndToEnd(t *testing.T) {
	t.Parallel()

	site := &fakeSite{routes: map[string]string{
		base + apiPath + "Big+Thief+Dragon+New+Mountain&per_page=5": postsJSON,
		base + "/big-thief-dragon-new-mountain/":                      reviewPage,
	}}
	a := New(Config{BaseURL: base}, site, nil)

	review, err := a.Resolve(context.Background(), query())
	require.NoError(t, err)
	assert.Equal(t, base+"/big-thief-dragon-new-mountain/", review.SourceURL)
	require.NotNil(t, review.Excerpt)
	assert.Equal(t, "Sprawling & warm.", *review.Excerpt)
	require.NotNil(t, review.Rating)
	assert.InDelta(t, 8.5, *review.Rating, 1e-9)
	require.NotNil(t, review.Reviewer)
	assert.Equal(t, "Leah Weinstein", *review.Reviewer)
	require.NotNil(t, review.ReviewDate)
	assert.Equal(t, "2022-02-11T09:00:00", *review.ReviewDate)
	assert.Equal(t, "application/json", site.accept[base+apiPath+"Big+Thief+Dragon+New+Mountain&per_page=5"])
}

func TestResolveReturnsApiDataWhenPageFails(t *testing.T) {
	t.Parallel()

	site := &fakeSite{
		routes: map[string]string{base + apiPath + "Big+Thief+Dragon+New+Mountain&per_page=5": postsJSON},
		down:   map[string]bool{base + "/big-thief-dragon-new-mountain/": true},
	}
	a := New(Config{BaseURL: base}, site, nil)

	review, err := a.Resolve(context.Background(), query())
	require.NoError(t, err)
	require.NotNil(t, review.Excerpt)
	assert.Nil(t, review.Rating)
	assert.Nil(t, review.Reviewer)
	require.NotNil(t, review.ReviewDate)
}

func TestResolveFallsBackToArtistQuery(t *testing.T) {
	t.Parallel()

	site := &fakeSite{routes: map[string]string{
		base + apiPath + "Big+Thief+Dragon+New+Mountain&per_page=5": `[]`,
		base + apiPath + "Big+Thief&per_page=5":                       postsJSON,
		base + "/big-thief-dragon-new-mountain/":                      reviewPage,
	}}
	a := New(Config{BaseURL: base}, site, nil)

	review, err := a.Resolve(context.Background(), query())
	require.NoError(t, err)
	assert.Equal(t, base+"/big-thief-dragon-new-mountain/", review.SourceURL)
}

func TestResolveMalformedApiResponse(t *testing.T) {
	t.Parallel()

	site := &fakeSite{routes: map[string]string{
		base + apiPath + "Big+Thief+Dragon+New+Mountain&per_page=5": `{"code":"rest_error"`,
		base + apiPath + "Big+Thief&per_page=5":                       `[]`,
	}}
	a := New(Config{BaseURL: base}, site, nil)

	_, err := a.Resolve(context.Background(), query())
	assert.ErrorIs(t, err, editorial.ErrMalformedData)
}

func TestResolveNotFound(t *testing.T) {
	t.Parallel()

	site := &fakeSite{routes: map[string]string{
		base + apiPath + "Big+Thief+Dragon+New+Mountain&per_page=5": `[]`,
		base + apiPath + "Big+Thief&per_page=5":                       `[{"slug":"big-thief-live","link":"x"}]`,
	}}
	a := New(Config{BaseURL: base}, site, nil)

	_, err := a.Resolve(context.Background(), query())
	assert.ErrorIs(t, err, editorial.ErrNotFound)
}

func TestResolveWithoutExcerptOrRating(t *testing.T) {
	t.Parallel()

	site := &fakeSite{routes: map[string]string{
		base + apiPath + "Big+Thief+Dragon+New+Mountain&per_page=5": `[{"slug":"big-thief-dragon-new-mountain","link":"https://nt.test/p/"}]`,
		base + "/p/": "<html><body>no score here</body></html>",
	}}
	a := New(Config{BaseURL: base}, site, nil)

	_, err := a.Resolve(context.Background(), query())
	assert.ErrorIs(t, err, editorial.ErrNoExtractableData)
}
