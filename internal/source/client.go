package source

import (
	"context"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/alexmaslar/riff-plugin-editorial/internal/editorial"
	"github.com/alexmaslar/riff-plugin-editorial/internal/fetcher"
	"github.com/alexmaslar/riff-plugin-editorial/internal/metrics"
)

// Accept header values used by the adapters.
const (
	AcceptHTML = "text/html"
	AcceptJSON = "application/json"
)

// Client performs the blocking GETs an adapter needs and applies the shared
// rules: only HTTP 200 is usable and bodies must be valid UTF-8.
type Client struct {
	source  string
	fetcher fetcher.Fetcher
}

// NewClient binds f to a source name used for metrics labels.
func NewClient(source string, f fetcher.Fetcher) *Client {
	return &Client{source: source, fetcher: f}
}

// Get fetches url with the given Accept header and any extra headers. A
// non-200 status or a failed request yields *editorial.TransportError; a body
// that is not UTF-8 yields editorial.ErrMalformedData.
func (c *Client) Get(ctx context.Context, url, accept string, extra http.Header) (string, error) {
	headers := http.Header{}
	for k, v := range extra {
		headers[k] = append([]string(nil), v...)
	}
	if accept != "" {
		headers.Set("Accept", accept)
	}

	start := time.Now()
	resp, err := c.fetcher.Fetch(ctx, fetcher.Request{URL: url, Headers: headers})
	if err != nil {
		metrics.ObserveFetch(c.source, 0, 0, time.Since(start))
		return "", &editorial.TransportError{URL: url, Err: err}
	}
	metrics.ObserveFetch(c.source, resp.StatusCode, len(resp.Body), time.Since(start))
	if resp.StatusCode != http.StatusOK {
		return "", &editorial.TransportError{URL: url, StatusCode: resp.StatusCode}
	}
	if !utf8.Valid(resp.Body) {
		return "", editorial.ErrMalformedData
	}
	return string(resp.Body), nil
}
