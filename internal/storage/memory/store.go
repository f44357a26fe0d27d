// Package memory keeps key/value state in-process for development and tests.
package memory

import (
	"context"
	"sync"

	"github.com/alexmaslar/riff-plugin-editorial/internal/storage"
)

// Store is a concurrency-safe in-memory storage.Store.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// New creates an empty Store.
func New() *Store {
	return &Store{data: make(map[string][]byte)}
}

// Get returns a copy of the value stored under key.
func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	if err := storage.ValidateKey(key); err != nil {
		return nil, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Set stores a copy of value under key.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	if err := storage.ValidateKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), value...)
	return nil
}
