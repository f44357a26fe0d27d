// Package fetcher defines the outbound HTTP GET capability adapters depend on.
package fetcher

import (
	"context"
	"net/http"
	"time"
)

// Request captures everything needed to fetch a URL.
type Request struct {
	URL     string
	Headers http.Header
}

// Response is the result returned by a Fetcher implementation. Non-2xx
// responses are returned as values, not errors.
type Response struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

// Fetcher performs a single blocking GET. An error means no response was
// received at all.
type Fetcher interface {
	Fetch(ctx context.Context, request Request) (Response, error)
}

// Func adapts a function to the Fetcher interface.
type Func func(ctx context.Context, request Request) (Response, error)

// Fetch calls f.
func (f Func) Fetch(ctx context.Context, request Request) (Response, error) {
	return f(ctx, request)
}
