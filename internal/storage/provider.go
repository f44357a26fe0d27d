// Package storage defines the key/value store that persistent adapter state,
// such as the paginated index cache, is written through.
// Implementations live in the sub-packages (memory, local, redis, postgres,
// sqlite, gcs) so the rest of the application stays independent of where the
// bytes end up.
package storage

import (
	"context"
	"errors"
	"regexp"
)

// ErrInvalidKey is returned for keys that are empty or contain characters
// outside [A-Za-z0-9_.-].
var ErrInvalidKey = errors.New("invalid storage key")

var validKey = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// Store is a byte-oriented key/value store.
type Store interface {
	// Get returns the stored value and true, or false when the key is absent.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set replaces the value stored under key.
	Set(ctx context.Context, key string, value []byte) error
}

// ValidateKey checks that key is safe to use as a file name, object name or
// row key in every backend.
func ValidateKey(key string) error {
	if !validKey.MatchString(key) || key == "." || key == ".." {
		return ErrInvalidKey
	}
	return nil
}

// NoOpStore never finds anything and discards every write. It is useful for
// dry runs where cached state should not survive the process.
type NoOpStore struct{}

// Get always reports a miss.
func (NoOpStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, nil
}

// Set does nothing and always returns nil.
func (NoOpStore) Set(context.Context, string, []byte) error {
	return nil
}
