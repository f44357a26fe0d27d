package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, BackendLocal, cfg.Storage.Backend)
	assert.Equal(t, ".editorial-cache", cfg.Storage.Local.BaseDir)
	assert.ElementsMatch(t, SourceNames, cfg.Sources.Enabled)
	assert.Equal(t, "https://www.allmusic.com", cfg.Sources.AllMusic.BaseURL)
	assert.Equal(t, uint32(348), cfg.Sources.LineOfBestFit.MaxPages)
	assert.Equal(t, uint32(25), cfg.Sources.LineOfBestFit.BatchSize)
	assert.Equal(t, "tlobf_cache", cfg.Sources.LineOfBestFit.CacheKey)
	assert.Equal(t, time.Hour, cfg.Storage.Postgres.MaxConnLifetime)
	assert.Equal(t, 15*time.Second, cfg.HTTPTimeout())
	assert.True(t, cfg.Logging.Development)
}

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
server:
  port: 9090
  request_timeout_seconds: 30
auth:
  enabled: true
  api_key: secret
http:
  timeout_seconds: 45
  user_agent: test-agent
  respect_robots: true
storage:
  backend: redis
  redis:
    addr: redis:6379
    db: 2
    key_prefix: "reviews:"
sources:
  enabled: [allmusic, pitchfork]
  pitchfork:
    base_url: https://mirror.example
  thelineofbestfit:
    batch_size: 5
logging:
  development: false
  level: warn
`
	require.NoError(t, os.WriteFile(path, []byte(configYAML), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout())
	assert.True(t, cfg.Auth.Enabled)
	assert.Equal(t, "secret", cfg.Auth.APIKey)
	assert.Equal(t, 45*time.Second, cfg.HTTPTimeout())
	assert.Equal(t, "test-agent", cfg.HTTP.UserAgent)
	assert.True(t, cfg.HTTP.RespectRobots)
	assert.Equal(t, BackendRedis, cfg.Storage.Backend)
	assert.Equal(t, "redis:6379", cfg.Storage.Redis.Addr)
	assert.Equal(t, 2, cfg.Storage.Redis.DB)
	assert.Equal(t, "reviews:", cfg.Storage.Redis.KeyPrefix)
	assert.Equal(t, []string{"allmusic", "pitchfork"}, cfg.Sources.Enabled)
	assert.True(t, cfg.Sources.IsEnabled("pitchfork"))
	assert.False(t, cfg.Sources.IsEnabled("thelineofbestfit"))
	assert.Equal(t, "https://mirror.example", cfg.Sources.Pitchfork.BaseURL)
	assert.Equal(t, uint32(5), cfg.Sources.LineOfBestFit.BatchSize)
	assert.Equal(t, uint32(348), cfg.Sources.LineOfBestFit.MaxPages)
	assert.False(t, cfg.Logging.Development)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("EDITORIAL_SERVER_PORT", "7070")
	t.Setenv("EDITORIAL_STORAGE_BACKEND", "memory")
	t.Setenv("EDITORIAL_SOURCES_THELINEOFBESTFIT_MAX_PAGES", "10")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, BackendMemory, cfg.Storage.Backend)
	assert.Equal(t, uint32(10), cfg.Sources.LineOfBestFit.MaxPages)
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base := Config{
		Server:  ServerConfig{Port: 8080, RequestTimeoutSeconds: 10},
		HTTP:    HTTPConfig{TimeoutSeconds: 10},
		Storage: StorageConfig{Backend: BackendMemory},
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{name: "invalid port", mutate: func(c *Config) { c.Server.Port = 0 }, want: "server.port"},
		{name: "invalid request timeout", mutate: func(c *Config) { c.Server.RequestTimeoutSeconds = 0 }, want: "server.request_timeout_seconds"},
		{name: "invalid timeout", mutate: func(c *Config) { c.HTTP.TimeoutSeconds = 0 }, want: "http.timeout_seconds"},
		{name: "auth missing api key", mutate: func(c *Config) { c.Auth.Enabled = true }, want: "auth.api_key"},
		{name: "unknown backend", mutate: func(c *Config) { c.Storage.Backend = "s3" }, want: "storage.backend"},
		{name: "local without dir", mutate: func(c *Config) { c.Storage.Backend = BackendLocal }, want: "storage.local.base_dir"},
		{name: "postgres without dsn", mutate: func(c *Config) { c.Storage.Backend = BackendPostgres }, want: "storage.postgres.dsn"},
		{name: "gcs without bucket", mutate: func(c *Config) { c.Storage.Backend = BackendGCS }, want: "storage.gcs.bucket"},
		{name: "unknown source", mutate: func(c *Config) { c.Sources.Enabled = []string{"rollingstone"} }, want: "unknown source"},
		{
			name: "index without pages",
			mutate: func(c *Config) {
				c.Sources.Enabled = []string{"thelineofbestfit"}
			},
			want: "max_pages",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := base
			tt.mutate(&c)
			err := c.Validate()
			if assert.Error(t, err) {
				assert.True(t, strings.Contains(err.Error(), tt.want), "got %v", err)
			}
		})
	}

	assert.NoError(t, base.Validate())
}
