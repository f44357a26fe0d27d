// Package gcs provides a storage.Store backed by Google Cloud Storage, one
// object per key.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"cloud.google.com/go/storage"

	kv "github.com/alexmaslar/riff-plugin-editorial/internal/storage"
)

const contentType = "application/json"

// Config captures the bucket and the object prefix keys are written under.
type Config struct {
	Bucket string `mapstructure:"bucket"`
	Prefix string `mapstructure:"prefix"`
}

// Store reads and writes objects in a configured GCS bucket.
type Store struct {
	client *storage.Client
	bucket string
	prefix string
}

// New creates a GCS-backed store.
func New(client *storage.Client, cfg Config) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	return &Store{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}, nil
}

// Get downloads the object for key. A missing object is a miss.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	name, err := s.objectName(key)
	if err != nil {
		return nil, false, err
	}
	reader, err := s.client.Bucket(s.bucket).Object(name).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("open object %s: %w", name, err)
	}
	defer func() { _ = reader.Close() }()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, false, fmt.Errorf("read object %s: %w", name, err)
	}
	return data, true, nil
}

// Set uploads value as the object for key.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	name, err := s.objectName(key)
	if err != nil {
		return err
	}
	writer := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	writer.ContentType = contentType
	if _, err := writer.Write(value); err != nil {
		closeErr := writer.Close()
		if closeErr != nil {
			return fmt.Errorf("write object: %w (close writer: %v)", err, closeErr)
		}
		return fmt.Errorf("write object: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close writer: %w", err)
	}
	return nil
}

func (s *Store) objectName(key string) (string, error) {
	if err := kv.ValidateKey(key); err != nil {
		return "", err
	}
	if s.prefix == "" {
		return key, nil
	}
	return path.Join(s.prefix, key), nil
}
