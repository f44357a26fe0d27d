// Package app initializes and holds long-lived application services, acting as a dependency injection container.
package app

import (
	"context"
	"fmt"

	gcstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/alexmaslar/riff-plugin-editorial/internal/config"
	"github.com/alexmaslar/riff-plugin-editorial/internal/editorial"
	"github.com/alexmaslar/riff-plugin-editorial/internal/fetcher"
	collyfetcher "github.com/alexmaslar/riff-plugin-editorial/internal/fetcher/colly"
	"github.com/alexmaslar/riff-plugin-editorial/internal/metrics"
	"github.com/alexmaslar/riff-plugin-editorial/internal/source"
	"github.com/alexmaslar/riff-plugin-editorial/internal/source/allmusic"
	"github.com/alexmaslar/riff-plugin-editorial/internal/source/lineofbestfit"
	"github.com/alexmaslar/riff-plugin-editorial/internal/source/northerntransmissions"
	"github.com/alexmaslar/riff-plugin-editorial/internal/source/pitchfork"
	"github.com/alexmaslar/riff-plugin-editorial/internal/storage"
	"github.com/alexmaslar/riff-plugin-editorial/internal/storage/gcs"
	"github.com/alexmaslar/riff-plugin-editorial/internal/storage/local"
	"github.com/alexmaslar/riff-plugin-editorial/internal/storage/memory"
	"github.com/alexmaslar/riff-plugin-editorial/internal/storage/postgres"
	"github.com/alexmaslar/riff-plugin-editorial/internal/storage/redis"
	"github.com/alexmaslar/riff-plugin-editorial/internal/storage/sqlite"
)

// readinessKey is probed against the store by Ready.
const readinessKey = "readyz"

// App holds all the shared, long-lived services for the application.
// It is initialized once at startup and passed to the components that need it.
type App struct {
	logger   *zap.Logger
	store    storage.Store
	fetcher  fetcher.Fetcher
	registry *source.Registry
	service  *source.Service
	closers  []func() error
}

// GetLogger returns the shared zap logger instance.
func (a *App) GetLogger() *zap.Logger {
	return a.logger
}

// GetStore exposes the store persisted adapter state lives in.
func (a *App) GetStore() storage.Store {
	return a.store
}

// GetService returns the review resolution service.
func (a *App) GetService() *source.Service {
	return a.service
}

// GetRegistry returns the registered adapters.
func (a *App) GetRegistry() *source.Registry {
	return a.registry
}

// New creates the App from configuration: the storage backend, the colly
// fetcher and every enabled adapter. It fails fast when a backend cannot be
// reached.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Init()
	logger.Info("Initializing application services...")

	store, closer, err := OpenStore(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	f := collyfetcher.New(collyfetcher.Config{
		UserAgent:     cfg.HTTP.UserAgent,
		RespectRobots: cfg.HTTP.RespectRobots,
		Timeout:       cfg.HTTPTimeout(),
	})

	a, err := NewWithDeps(cfg.Sources, logger, store, f)
	if err != nil {
		if closer != nil {
			_ = closer()
		}
		return nil, err
	}
	if closer != nil {
		a.closers = append(a.closers, closer)
	}
	logger.Info("Application services initialized successfully.",
		zap.String("storage", cfg.Storage.Backend),
		zap.Strings("sources", a.registry.Names()),
	)
	return a, nil
}

// NewWithDeps wires the adapters over an existing store and fetcher.
func NewWithDeps(cfg config.SourcesConfig, logger *zap.Logger, store storage.Store, f fetcher.Fetcher) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if f == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	registry, err := BuildRegistry(cfg, f, store, logger)
	if err != nil {
		return nil, err
	}
	return &App{
		logger:   logger,
		store:    store,
		fetcher:  f,
		registry: registry,
		service:  source.NewService(registry, logger),
	}, nil
}

// BuildRegistry registers every enabled adapter.
func BuildRegistry(cfg config.SourcesConfig, f fetcher.Fetcher, store storage.Store, logger *zap.Logger) (*source.Registry, error) {
	var adapters []editorial.Adapter
	if cfg.IsEnabled(allmusic.Name) {
		adapters = append(adapters, allmusic.New(cfg.AllMusic, f, logger))
	}
	if cfg.IsEnabled(pitchfork.Name) {
		adapters = append(adapters, pitchfork.New(cfg.Pitchfork, f, logger))
	}
	if cfg.IsEnabled(northerntransmissions.Name) {
		adapters = append(adapters, northerntransmissions.New(cfg.NorthernTransmissions, f, logger))
	}
	if cfg.IsEnabled(lineofbestfit.Name) {
		lb, err := lineofbestfit.New(cfg.LineOfBestFit, f, store, logger)
		if err != nil {
			return nil, fmt.Errorf("build %s: %w", lineofbestfit.Name, err)
		}
		adapters = append(adapters, lb)
	}
	registry, err := source.NewRegistry(adapters...)
	if err != nil {
		return nil, fmt.Errorf("register sources: %w", err)
	}
	return registry, nil
}

// OpenStore builds the configured storage backend. The returned closer is
// nil for backends holding no resources.
func OpenStore(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (storage.Store, func() error, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		logger.Info("Using in-memory storage. Index progress is lost on exit.")
		return memory.New(), nil, nil
	case config.BackendNoop:
		logger.Info("Using No-Op storage. Index progress is discarded.")
		return storage.NoOpStore{}, nil, nil
	case config.BackendLocal:
		logger.Info("Using local file storage", zap.String("dir", cfg.Local.BaseDir))
		s, err := local.New(cfg.Local)
		if err != nil {
			return nil, nil, err
		}
		return s, nil, nil
	case config.BackendRedis:
		logger.Info("Connecting to Redis", zap.String("addr", cfg.Redis.Addr))
		s, err := redis.New(ctx, cfg.Redis, logger)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.BackendPostgres:
		logger.Info("Connecting to PostgreSQL...")
		s, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		return s, func() error { s.Close(); return nil }, nil
	case config.BackendSQLite:
		logger.Info("Opening SQLite database", zap.String("path", cfg.SQLite.Path))
		s, err := sqlite.Open(ctx, cfg.SQLite)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.BackendGCS:
		logger.Info("Using GCS storage", zap.String("bucket", cfg.GCS.Bucket))
		client, err := gcstorage.NewClient(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("create gcs client: %w", err)
		}
		s, err := gcs.New(client, cfg.GCS)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return s, client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}
}

// Ready reports whether the store answers reads.
func (a *App) Ready(ctx context.Context) error {
	if _, _, err := a.store.Get(ctx, readinessKey); err != nil {
		return fmt.Errorf("store not ready: %w", err)
	}
	return nil
}

// Close gracefully shuts down all services in the App container.
func (a *App) Close() {
	a.GetLogger().Info("Shutting down application services...")
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			a.GetLogger().Warn("Error closing storage backend", zap.Error(err))
		}
	}
	a.closers = nil
	_ = a.GetLogger().Sync()
}
