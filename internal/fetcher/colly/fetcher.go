// Package collyfetcher implements fetcher.Fetcher using gocolly.
package collyfetcher

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/alexmaslar/riff-plugin-editorial/internal/fetcher"
)

const defaultTimeout = 15 * time.Second

// Config controls collector behavior.
type Config struct {
	UserAgent     string
	RespectRobots bool
	Timeout       time.Duration
	// Transport overrides the HTTP transport (primarily for testing).
	Transport http.RoundTripper
}

// Fetcher implements fetcher.Fetcher using the Colly collector.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
}

type collectorHooks interface {
	OnRequest(colly.RequestCallback)
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// New builds a Fetcher. Error responses are parsed like successful ones so
// callers can inspect the status code, and URLs may be fetched repeatedly.
func New(cfg Config) *Fetcher {
	c := colly.NewCollector(colly.Async(false), colly.AllowURLRevisit())
	c.ParseHTTPErrorResponse = true

	transport := cfg.Transport
	if transport == nil {
		transport = newHTTPTransport()
	}
	c.WithTransport(transport)

	return &Fetcher{
		cfg:           cfg,
		baseCollector: c,
	}
}

// Fetch executes a single HTTP GET using Colly.
func (f *Fetcher) Fetch(ctx context.Context, request fetcher.Request) (fetcher.Response, error) {
	var (
		result   fetcher.Response
		fetchErr error
	)
	collector := f.buildCollector(request, time.Now(), &result, &fetchErr)
	if err := f.runCollector(ctx, collector, request.URL, &fetchErr); err != nil {
		return fetcher.Response{}, err
	}
	return result, nil
}

func (f *Fetcher) buildCollector(
	request fetcher.Request,
	start time.Time,
	result *fetcher.Response,
	fetchErr *error,
) *colly.Collector {
	collector := f.baseCollector.Clone()
	collector.ParseHTTPErrorResponse = true
	collector.AllowURLRevisit = true
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	collector.IgnoreRobotsTxt = !f.cfg.RespectRobots
	timeout := f.cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	collector.SetRequestTimeout(timeout)

	f.configureCollectorHooks(collector, request, start, result, fetchErr)
	return collector
}

func (f *Fetcher) configureCollectorHooks(
	hooks collectorHooks,
	request fetcher.Request,
	start time.Time,
	result *fetcher.Response,
	fetchErr *error,
) {
	hooks.OnRequest(func(r *colly.Request) {
		f.copyHeaders(request, r)
	})

	hooks.OnResponse(func(r *colly.Response) {
		var headers http.Header
		if r.Headers != nil {
			headers = r.Headers.Clone()
		}
		*result = fetcher.Response{
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Headers:    headers,
			Body:       append([]byte(nil), r.Body...),
			Duration:   time.Since(start),
		}
	})

	hooks.OnError(func(r *colly.Response, err error) {
		*fetchErr = err
	})
}

func (f *Fetcher) runCollector(ctx context.Context, collector *colly.Collector, url string, fetchErr *error) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("colly fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("colly visit failed: %w", err)
		}
		if *fetchErr != nil {
			return fmt.Errorf("colly response failed: %w", *fetchErr)
		}
		return nil
	}
}

func (f *Fetcher) copyHeaders(request fetcher.Request, r *colly.Request) {
	if request.Headers == nil {
		return
	}
	for key, values := range request.Headers {
		r.Headers.Del(key)
		for _, v := range values {
			r.Headers.Add(key, v)
		}
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
