// Package source wires the per-site adapters together: a shared fetch client,
// a registry of adapters by name and the service that turns resolution
// failures into empty results.
package source

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/alexmaslar/riff-plugin-editorial/internal/editorial"
)

// ErrUnknownSource is returned when no adapter is registered under a name.
var ErrUnknownSource = errors.New("unknown source")

// Registry holds adapters by name.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]editorial.Adapter
}

// NewRegistry registers adapters, rejecting empty or duplicate names.
func NewRegistry(adapters ...editorial.Adapter) (*Registry, error) {
	r := &Registry{adapters: make(map[string]editorial.Adapter, len(adapters))}
	for _, a := range adapters {
		if err := r.Register(a); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a.
func (r *Registry) Register(a editorial.Adapter) error {
	if a == nil {
		return fmt.Errorf("adapter is nil")
	}
	name := strings.TrimSpace(a.Name())
	if name == "" {
		return fmt.Errorf("adapter name is empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.adapters[name]; exists {
		return fmt.Errorf("adapter %q already registered", name)
	}
	r.adapters[name] = a
	return nil
}

// Get looks up an adapter by name.
func (r *Registry) Get(name string) (editorial.Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, name)
	}
	return a, nil
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
