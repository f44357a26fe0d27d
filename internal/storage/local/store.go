// Package local implements a filesystem-backed key/value store. Each key is
// one file under BaseDir; writes are atomic renames guarded by an advisory
// file lock so several processes can share a directory.
package local

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/alexmaslar/riff-plugin-editorial/internal/storage"
)

const (
	valueSuffix    = ".json"
	lockSuffix     = ".lock"
	lockRetryDelay = 25 * time.Millisecond
)

// Config captures the parameters for the local filesystem store.
type Config struct {
	// BaseDir is the root directory where values are stored.
	BaseDir string `mapstructure:"base_dir" yaml:"base_dir"`
}

// Store reads and writes values as files under a base directory.
type Store struct {
	baseDir string
}

// New creates a filesystem-backed store, creating BaseDir when needed and
// verifying that it is writable.
func New(cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.BaseDir) == "" {
		return nil, fmt.Errorf("base directory is required")
	}

	info, err := os.Stat(cfg.BaseDir)
	switch {
	case os.IsNotExist(err):
		if mkErr := os.MkdirAll(cfg.BaseDir, 0o750); mkErr != nil {
			return nil, fmt.Errorf("failed to create base directory: %w", mkErr)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to stat base directory: %w", err)
	case !info.IsDir():
		return nil, fmt.Errorf("base directory path is not a directory")
	}

	testFile := filepath.Join(cfg.BaseDir, ".writable_test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return nil, fmt.Errorf("base directory is not writable: %w", err)
	}
	if err := os.Remove(testFile); err != nil {
		return nil, fmt.Errorf("failed to clean up test file: %w", err)
	}

	return &Store{baseDir: cfg.BaseDir}, nil
}

// Get reads the file for key under a shared lock.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path, err := s.pathFor(key)
	if err != nil {
		return nil, false, err
	}
	lock := flock.New(path + lockSuffix)
	if _, err := lock.TryRLockContext(ctx, lockRetryDelay); err != nil {
		return nil, false, fmt.Errorf("lock %s: %w", key, err)
	}
	defer func() { _ = lock.Unlock() }()

	// #nosec G304 -- path is confined to baseDir by pathFor.
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", key, err)
	}
	return data, true, nil
}

// Set writes value to a temporary file and renames it over the key's file
// while holding an exclusive lock.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	path, err := s.pathFor(key)
	if err != nil {
		return err
	}
	lock := flock.New(path + lockSuffix)
	if _, err := lock.TryLockContext(ctx, lockRetryDelay); err != nil {
		return fmt.Errorf("lock %s: %w", key, err)
	}
	defer func() { _ = lock.Unlock() }()

	tmp, err := os.CreateTemp(s.baseDir, "."+key+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", key, err)
	}
	return nil
}

func (s *Store) pathFor(key string) (string, error) {
	if err := storage.ValidateKey(key); err != nil {
		return "", err
	}
	fullPath := filepath.Join(s.baseDir, key+valueSuffix)

	cleanBaseDir := filepath.Clean(s.baseDir)
	if !strings.HasPrefix(filepath.Clean(fullPath), cleanBaseDir+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal detected")
	}
	return fullPath, nil
}
