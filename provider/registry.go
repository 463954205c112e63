package provider

import (
	"sort"
	"sync"

	"github.com/kbukum/scribekit/errors"
)

// Registry maps provider ids to factories. Callers look a provider up by
// id instead of branching on names.
type Registry[C any, T Provider] struct {
	mu        sync.RWMutex
	factories map[string]Factory[C, T]
}

// NewRegistry creates a new empty Registry.
func NewRegistry[C any, T Provider]() *Registry[C, T] {
	return &Registry[C, T]{
		factories: make(map[string]Factory[C, T]),
	}
}

// RegisterFactory registers a factory under id, replacing any previous one.
func (r *Registry[C, T]) RegisterFactory(id string, factory Factory[C, T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[id] = factory
}

// Create instantiates a provider using the factory registered for id.
func (r *Registry[C, T]) Create(id string, cfg C) (T, error) {
	r.mu.RLock()
	factory, ok := r.factories[id]
	r.mu.RUnlock()
	if !ok {
		var zero T
		return zero, errors.ProviderNotRegistered(id)
	}
	return factory(cfg)
}

// Has reports whether a factory is registered for id.
func (r *Registry[C, T]) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[id]
	return ok
}

// List returns sorted ids of all registered factories.
func (r *Registry[C, T]) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
