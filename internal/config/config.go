// Package config loads and validates resolver configuration via Viper.
package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/alexmaslar/riff-plugin-editorial/internal/logging"
	"github.com/alexmaslar/riff-plugin-editorial/internal/source/allmusic"
	"github.com/alexmaslar/riff-plugin-editorial/internal/source/lineofbestfit"
	"github.com/alexmaslar/riff-plugin-editorial/internal/source/northerntransmissions"
	"github.com/alexmaslar/riff-plugin-editorial/internal/source/pitchfork"
	"github.com/alexmaslar/riff-plugin-editorial/internal/storage/gcs"
	"github.com/alexmaslar/riff-plugin-editorial/internal/storage/local"
	"github.com/alexmaslar/riff-plugin-editorial/internal/storage/postgres"
	"github.com/alexmaslar/riff-plugin-editorial/internal/storage/redis"
	"github.com/alexmaslar/riff-plugin-editorial/internal/storage/sqlite"
)

// EnvPrefix prefixes every environment override, e.g. EDITORIAL_SERVER_PORT.
const EnvPrefix = "EDITORIAL"

// Storage backends accepted in storage.backend.
const (
	BackendMemory   = "memory"
	BackendLocal    = "local"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendGCS      = "gcs"
	BackendNoop     = "noop"
)

// Backends lists every storage backend name.
var Backends = []string{BackendMemory, BackendLocal, BackendRedis, BackendPostgres, BackendSQLite, BackendGCS, BackendNoop}

// SourceNames lists every adapter that can be enabled.
var SourceNames = []string{allmusic.Name, northerntransmissions.Name, pitchfork.Name, lineofbestfit.Name}

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig   `mapstructure:"server"`
	Auth    AuthConfig     `mapstructure:"auth"`
	HTTP    HTTPConfig     `mapstructure:"http"`
	Storage StorageConfig  `mapstructure:"storage"`
	Sources SourcesConfig  `mapstructure:"sources"`
	Logging logging.Config `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port                  int `mapstructure:"port"`
	RequestTimeoutSeconds int `mapstructure:"request_timeout_seconds"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// HTTPConfig configures the outbound fetcher.
type HTTPConfig struct {
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	UserAgent      string `mapstructure:"user_agent"`
	RespectRobots  bool   `mapstructure:"respect_robots"`
}

// StorageConfig selects where persisted adapter state lives.
type StorageConfig struct {
	Backend  string          `mapstructure:"backend"`
	Local    local.Config    `mapstructure:"local"`
	Redis    redis.Config    `mapstructure:"redis"`
	Postgres postgres.Config `mapstructure:"postgres"`
	SQLite   sqlite.Config   `mapstructure:"sqlite"`
	GCS      gcs.Config      `mapstructure:"gcs"`
}

// SourcesConfig enables adapters and overrides their endpoints.
type SourcesConfig struct {
	Enabled               []string                     `mapstructure:"enabled"`
	AllMusic              allmusic.Config              `mapstructure:"allmusic"`
	Pitchfork             pitchfork.Config             `mapstructure:"pitchfork"`
	NorthernTransmissions northerntransmissions.Config `mapstructure:"northern_transmissions"`
	LineOfBestFit         lineofbestfit.Config         `mapstructure:"thelineofbestfit"`
}

// IsEnabled reports whether the named adapter should be registered.
func (s SourcesConfig) IsEnabled(name string) bool {
	return slices.Contains(s.Enabled, name)
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.request_timeout_seconds", 60)
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.api_key", "")
	v.SetDefault("http.timeout_seconds", 15)
	v.SetDefault("http.user_agent", "riff-editorial/0.1")
	v.SetDefault("http.respect_robots", false)
	v.SetDefault("storage.backend", BackendLocal)
	v.SetDefault("storage.local.base_dir", ".editorial-cache")
	v.SetDefault("storage.redis.addr", "localhost:6379")
	v.SetDefault("storage.redis.password", "")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.key_prefix", "editorial:")
	v.SetDefault("storage.postgres.dsn", "")
	v.SetDefault("storage.postgres.table", postgres.DefaultTable)
	v.SetDefault("storage.postgres.max_conns", 4)
	v.SetDefault("storage.postgres.min_conns", 0)
	v.SetDefault("storage.postgres.max_conn_lifetime", time.Hour)
	v.SetDefault("storage.postgres.create_table", true)
	v.SetDefault("storage.sqlite.path", "editorial.db")
	v.SetDefault("storage.gcs.bucket", "")
	v.SetDefault("storage.gcs.prefix", "editorial")
	v.SetDefault("sources.enabled", SourceNames)
	v.SetDefault("sources.allmusic.base_url", allmusic.DefaultBaseURL)
	v.SetDefault("sources.pitchfork.base_url", pitchfork.DefaultBaseURL)
	v.SetDefault("sources.northern_transmissions.base_url", northerntransmissions.DefaultBaseURL)
	v.SetDefault("sources.thelineofbestfit.base_url", lineofbestfit.DefaultBaseURL)
	v.SetDefault("sources.thelineofbestfit.cache_key", lineofbestfit.DefaultCacheKey)
	v.SetDefault("sources.thelineofbestfit.max_pages", 348)
	v.SetDefault("sources.thelineofbestfit.batch_size", 25)
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Server.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("server.request_timeout_seconds must be > 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	if err := c.Storage.validate(); err != nil {
		return err
	}
	for _, name := range c.Sources.Enabled {
		if !slices.Contains(SourceNames, name) {
			return fmt.Errorf("sources.enabled: unknown source %q", name)
		}
	}
	if c.Sources.IsEnabled(lineofbestfit.Name) {
		lb := c.Sources.LineOfBestFit
		if lb.MaxPages == 0 || lb.BatchSize == 0 {
			return fmt.Errorf("sources.thelineofbestfit.max_pages and batch_size must be > 0")
		}
	}
	return nil
}

func (s StorageConfig) validate() error {
	switch s.Backend {
	case BackendMemory, BackendNoop:
	case BackendLocal:
		if s.Local.BaseDir == "" {
			return fmt.Errorf("storage.local.base_dir is required for the local backend")
		}
	case BackendRedis:
		if s.Redis.Addr == "" {
			return fmt.Errorf("storage.redis.addr is required for the redis backend")
		}
	case BackendPostgres:
		if s.Postgres.DSN == "" {
			return fmt.Errorf("storage.postgres.dsn is required for the postgres backend")
		}
	case BackendSQLite:
		if s.SQLite.Path == "" {
			return fmt.Errorf("storage.sqlite.path is required for the sqlite backend")
		}
	case BackendGCS:
		if s.GCS.Bucket == "" {
			return fmt.Errorf("storage.gcs.bucket is required for the gcs backend")
		}
	default:
		return fmt.Errorf("storage.backend %q must be one of %s", s.Backend, strings.Join(Backends, ", "))
	}
	return nil
}

// HTTPTimeout is the per-request budget of the outbound fetcher.
func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// RequestTimeout bounds one inbound API request.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeoutSeconds) * time.Second
}
