package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alexmaslar/riff-plugin-editorial/internal/config"
	"github.com/alexmaslar/riff-plugin-editorial/internal/editorial"
	"github.com/alexmaslar/riff-plugin-editorial/internal/source"
)

type fakeService struct {
	inputs []editorial.Input
	result editorial.Result
	panic  bool
}

func (f *fakeService) Sources() []string { return []string{"allmusic", "pitchfork"} }

func (f *fakeService) Health(_ context.Context, name string) (string, error) {
	if name != "allmusic" {
		return "", source.ErrUnknownSource
	}
	return editorial.HealthOK, nil
}

func (f *fakeService) Reviews(_ context.Context, name string, input editorial.Input) (editorial.Result, error) {
	if f.panic {
		panic("boom")
	}
	if name != "allmusic" {
		return editorial.Empty(), source.ErrUnknownSource
	}
	f.inputs = append(f.inputs, input)
	return f.result, nil
}

func (f *fakeService) AllReviews(_ context.Context, input editorial.Input) editorial.Result {
	f.inputs = append(f.inputs, input)
	return f.result
}

type fakeReady struct{ err error }

func (f fakeReady) Ready(context.Context) error { return f.err }

type fakeIDGen struct{ id string }

func (f fakeIDGen) NewID() (string, error) { return f.id, nil }

func baseConfig() config.Config {
	return config.Config{Server: config.ServerConfig{Port: 8080, RequestTimeoutSeconds: 5}}
}

func newTestServer(svc *fakeService, cfg config.Config) *Server {
	return NewServer(svc, fakeReady{}, fakeIDGen{id: "req-1"}, cfg, zap.NewNop())
}

func serve(s *Server, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestServer_Healthz(t *testing.T) {
	t.Parallel()

	rec := serve(newTestServer(&fakeService{}, baseConfig()), http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "req-1", rec.Header().Get("X-Request-ID"))
}

func TestServer_Readyz(t *testing.T) {
	t.Parallel()

	s := NewServer(&fakeService{}, fakeReady{err: errors.New("redis down")}, nil, baseConfig(), nil)
	rec := serve(s, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = serve(newTestServer(&fakeService{}, baseConfig()), http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_RequestIDIsPropagated(t *testing.T) {
	t.Parallel()

	rec := serve(newTestServer(&fakeService{}, baseConfig()), http.MethodGet, "/healthz", "", map[string]string{"X-Request-ID": "caller-id"})
	assert.Equal(t, "caller-id", rec.Header().Get("X-Request-ID"))
}

func TestServer_Sources(t *testing.T) {
	t.Parallel()

	s := newTestServer(&fakeService{}, baseConfig())

	rec := serve(s, http.MethodGet, "/v1/sources", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"sources":["allmusic","pitchfork"]}`, rec.Body.String())

	rec = serve(s, http.MethodGet, "/v1/sources/allmusic/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = serve(s, http.MethodGet, "/v1/sources/nope/health", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_SourceReviews(t *testing.T) {
	t.Parallel()

	rating := 8.0
	svc := &fakeService{result: editorial.Wrap("allmusic", &editorial.Review{
		SourceURL: "https://www.allmusic.com/album/x-mw1",
		Rating:    &rating,
	})}
	s := newTestServer(svc, baseConfig())

	rec := serve(s, http.MethodPost, "/v1/sources/allmusic/reviews", `{"title":"Kid A","artist":"Radiohead","year":2000}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"reviews":[{"source":"allmusic","source_url":"https://www.allmusic.com/album/x-mw1",
"excerpt":null,"rating":8,"rating_count":null,"reviewer":null,"review_date":null}]}`, rec.Body.String())
	require.Len(t, svc.inputs, 1)
	assert.Equal(t, "Kid A", svc.inputs[0].Title)
	require.NotNil(t, svc.inputs[0].Year)
	assert.Equal(t, 2000, *svc.inputs[0].Year)
}

func TestServer_SourceReviewsErrors(t *testing.T) {
	t.Parallel()

	s := newTestServer(&fakeService{}, baseConfig())

	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{name: "invalid JSON", path: "/v1/sources/allmusic/reviews", body: "{invalid", want: http.StatusBadRequest},
		{name: "missing artist", path: "/v1/sources/allmusic/reviews", body: `{"title":"x"}`, want: http.StatusBadRequest},
		{name: "missing title", path: "/v1/reviews", body: `{"artist":"x"}`, want: http.StatusBadRequest},
		{name: "unknown source", path: "/v1/sources/nope/reviews", body: `{"title":"x","artist":"y"}`, want: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := serve(s, http.MethodPost, tt.path, tt.body, nil)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestServer_AllReviewsEmptyEnvelope(t *testing.T) {
	t.Parallel()

	svc := &fakeService{result: editorial.Empty()}
	rec := serve(newTestServer(svc, baseConfig()), http.MethodPost, "/v1/reviews", `{"title":"","artist":""}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.JSONEq(t, `[]`, string(body["reviews"]))
}

func TestServer_APIKey(t *testing.T) {
	t.Parallel()

	cfg := baseConfig()
	cfg.Auth = config.AuthConfig{Enabled: true, APIKey: "secret"}
	s := newTestServer(&fakeService{}, cfg)

	assert.Equal(t, http.StatusForbidden, serve(s, http.MethodGet, "/v1/sources", "", nil).Code)
	assert.Equal(t, http.StatusOK, serve(s, http.MethodGet, "/v1/sources", "", map[string]string{"X-API-Key": "secret"}).Code)
	assert.Equal(t, http.StatusOK, serve(s, http.MethodGet, "/v1/sources?api_key=secret", "", nil).Code)
	assert.Equal(t, http.StatusOK, serve(s, http.MethodGet, "/healthz", "", nil).Code, "probes stay open")
}

func TestServer_RecoversFromPanic(t *testing.T) {
	t.Parallel()

	rec := serve(newTestServer(&fakeService{panic: true}, baseConfig()), http.MethodPost, "/v1/sources/allmusic/reviews", `{"title":"x","artist":"y"}`, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestServer_Metrics(t *testing.T) {
	t.Parallel()

	s := newTestServer(&fakeService{}, baseConfig())
	serve(s, http.MethodGet, "/healthz", "", nil)

	rec := serve(s, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}
