// Package redis provides a storage.Store backed by a Redis server.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/alexmaslar/riff-plugin-editorial/internal/storage"
)

const pingTimeout = 5 * time.Second

// Config captures the Redis connection parameters.
type Config struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type commander interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *goredis.StatusCmd
	Close() error
}

// Store reads and writes values as Redis strings.
type Store struct {
	client commander
	prefix string
	logger *zap.Logger
}

// New connects to Redis and verifies the connection with PING.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Store, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, fmt.Errorf("redis addr is required")
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", cfg.Addr, err)
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("redis connected", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	return NewWithClient(client, cfg.KeyPrefix, logger)
}

// NewWithClient wraps an existing client (primarily for testing).
func NewWithClient(client commander, prefix string, logger *zap.Logger) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{client: client, prefix: prefix, logger: logger}, nil
}

// Get returns the value for key; redis.Nil is reported as a miss.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := storage.ValidateKey(key); err != nil {
		return nil, false, err
	}
	value, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		s.logger.Error("redis get failed", zap.String("key", key), zap.Error(err))
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key without expiry.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := storage.ValidateKey(key); err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		s.logger.Error("redis set failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Close releases the client connection pool.
func (s *Store) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("close redis: %w", err)
	}
	return nil
}
