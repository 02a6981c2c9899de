package toolmanager

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"deepcli/internal/tools"
)

// Factory constructs a tool on first use. Registration is cheap; the cost of
// building a tool (clients, file handles) is deferred until something asks
// for it.
type Factory func(ctx context.Context) (tools.Tool, error)

// Registry maps lowercase tool keys to factories and preserves registration
// order.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	order     []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register binds key to factory. Keys are case-insensitive; registering a
// key twice is an error.
func (r *Registry) Register(key string, factory Factory) error {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return fmt.Errorf("tool key must not be empty")
	}
	if factory == nil {
		return fmt.Errorf("factory for %q must not be nil", key)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[key]; exists {
		return fmt.Errorf("tool %q is already registered", key)
	}
	r.order = append(r.order, key)
	r.factories[key] = factory
	return nil
}

// Lookup returns the factory for key, or false when the key is unknown.
func (r *Registry) Lookup(key string) (Factory, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	r.mu.RLock()
	defer r.mu.RUnlock()
	factory, ok := r.factories[key]
	return factory, ok
}

// Keys lists registered keys in registration order.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, len(r.order))
	copy(keys, r.order)
	return keys
}

// SortedKeys lists registered keys alphabetically.
func (r *Registry) SortedKeys() []string {
	keys := r.Keys()
	sort.Strings(keys)
	return keys
}

// Len reports the number of registered factories.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.factories)
}
