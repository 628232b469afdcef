package platform

import (
	"fmt"
	"sync"

	"applypilot/internal/domain"
)

// Registry maps platforms to their adapters. Support for a new site is added
// by registering an adapter, never by branching on the platform value.
type Registry struct {
	mu       sync.RWMutex
	adapters map[domain.Platform]Adapter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[domain.Platform]Adapter)}
}

// Register adds an adapter, replacing any previous one for its platform.
func (r *Registry) Register(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[a.Platform()] = a
}

// Get returns the adapter for a platform.
func (r *Registry) Get(p domain.Platform) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[p]
	if !ok {
		return nil, fmt.Errorf("no adapter registered for platform %q", p)
	}
	return a, nil
}

// Platforms lists the registered platforms.
func (r *Registry) Platforms() []domain.Platform {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Platform, 0, len(r.adapters))
	for p := range r.adapters {
		out = append(out, p)
	}
	return out
}
