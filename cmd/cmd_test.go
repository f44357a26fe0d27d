package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alexmaslar/riff-plugin-editorial/internal/config"
	"github.com/alexmaslar/riff-plugin-editorial/internal/editorial"
	"github.com/alexmaslar/riff-plugin-editorial/internal/source"
)

type fakeAdapter struct {
	name   string
	review editorial.Review
	err    error
}

func (f fakeAdapter) Name() string { return f.name }
func (f fakeAdapter) HealthCheck(context.Context) string { return editorial.HealthOK }
func (f fakeAdapter) Resolve(context.Context, editorial.Query) (editorial.Review, error) {
	return f.review, f.err
}

type fakeApp struct {
	service  *source.Service
	readyErr error
	closed   int
}

func (f *fakeApp) Close() { f.closed++ }
func (f *fakeApp) GetLogger() *zap.Logger { return zap.NewNop() }
func (f *fakeApp) GetService() *source.Service { return f.service }
func (f *fakeApp) Ready(context.Context) error { return f.readyErr }

func newFakeApp(t *testing.T) *fakeApp {
	t.Helper()
	registry, err := source.NewRegistry(
		fakeAdapter{name: "alpha", review: editorial.Review{
			SourceURL: "https://alpha.example/blonde",
			Rating:    editorial.Float(8.5),
			Reviewer:  editorial.String("Jane Critic"),
		}},
		fakeAdapter{name: "beta", err: editorial.ErrNotFound},
	)
	require.NoError(t, err)
	return &fakeApp{service: source.NewService(registry, zap.NewNop())}
}

// runRoot executes the root command against a fake app. Tests calling it
// must not run in parallel since they swap the package-level factory.
func runRoot(t *testing.T, fake *fakeApp, args ...string) (string, error) {
	t.Helper()
	original := newApp
	newApp = func(context.Context, config.Config, *zap.Logger) (App, error) {
		return fake, nil
	}
	t.Cleanup(func() { newApp = original })
	t.Setenv("EDITORIAL_LOGGING_LEVEL", "error")

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSourcesCommand(t *testing.T) {
	fake := newFakeApp(t)
	out, err := runRoot(t, fake, "sources")
	require.NoError(t, err)
	assert.Equal(t, "alpha\nbeta\n", out)
	assert.Equal(t, 1, fake.closed)
}

func TestResolveCommandJSON(t *testing.T) {
	fake := newFakeApp(t)
	out, err := runRoot(t, fake, "resolve", "--title", "Blonde", "--artist", "Frank Ocean", "--year", "2016")
	require.NoError(t, err)

	var result editorial.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.Len(t, result.Reviews, 1)
	assert.Equal(t, "alpha", result.Reviews[0].Source)
	assert.InDelta(t, 8.5, *result.Reviews[0].Rating, 1e-9)
	assert.Nil(t, result.Reviews[0].Excerpt)
	assert.Contains(t, out, `"excerpt": null`)
}

func TestResolveCommandSingleSource(t *testing.T) {
	fake := newFakeApp(t)
	out, err := runRoot(t, fake, "resolve", "--title", "Blonde", "--artist", "Frank Ocean", "--source", "beta", "-o", "json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"reviews":[]}`, out)

	_, err = runRoot(t, fake, "resolve", "--title", "Blonde", "--artist", "Frank Ocean", "--source", "gamma")
	assert.ErrorIs(t, err, source.ErrUnknownSource)
}

func TestResolveCommandTable(t *testing.T) {
	fake := newFakeApp(t)
	out, err := runRoot(t, fake, "resolve", "--title", "Blonde", "--artist", "Frank Ocean", "--output", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "Jane Critic")
	assert.Contains(t, out, "8.5")
	assert.Contains(t, out, "https://alpha.example/blonde")
}

func TestResolveCommandValidation(t *testing.T) {
	fake := newFakeApp(t)
	_, err := runRoot(t, fake, "resolve", "--title", "Blonde")
	assert.ErrorContains(t, err, "artist")

	_, err = runRoot(t, fake, "resolve", "--title", "Blonde", "--artist", "Frank Ocean", "--output", "yaml")
	assert.ErrorContains(t, err, "unknown output format")
}

func TestHealthCommand(t *testing.T) {
	fake := newFakeApp(t)
	out, err := runRoot(t, fake, "health")
	require.NoError(t, err)
	assert.Equal(t, "alpha: ok\nbeta: ok\nstorage: ok\n", out)

	fake.readyErr = errors.New("store not ready: down")
	out, err = runRoot(t, fake, "health", "alpha", "gamma")
	assert.ErrorIs(t, err, errUnhealthy)
	assert.Contains(t, out, "alpha: ok\n")
	assert.Contains(t, out, "gamma: unknown source")
	assert.Contains(t, out, "storage: store not ready: down\n")
}

func TestNewAppFailure(t *testing.T) {
	original := newApp
	newApp = func(context.Context, config.Config, *zap.Logger) (App, error) {
		return nil, errors.New("redis unreachable")
	}
	t.Cleanup(func() { newApp = original })

	root := newRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"sources"})
	err := root.ExecuteContext(context.Background())
	assert.ErrorContains(t, err, "redis unreachable")
}

func TestResolveAppMissing(t *testing.T) {
	t.Parallel()

	_, err := resolveApp(context.Background())
	assert.Error(t, err)
	_, err = resolveConfig(context.Background())
	assert.Error(t, err)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	t.Parallel()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	done := make(chan error, 1)
	go func() { done <- serve(ctx, listener, handler, zap.NewNop()) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + listener.Addr().String())
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusNoContent
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}
