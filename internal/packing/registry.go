package packing

import (
	"sort"
	"sync"
)

// Registry is a thread-safe name-to-algorithm lookup. Registration is
// idempotent by name and happens once at startup; reads dominate afterwards.
type Registry struct {
	mu         sync.RWMutex
	algorithms map[string]Algorithm
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{algorithms: make(map[string]Algorithm)}
}

// Builtin returns a registry with all four packing algorithms registered.
func Builtin() *Registry {
	r := NewRegistry()
	r.Register(NewFFD())
	r.Register(NewBFD())
	r.Register(NewBottomLeft())
	r.Register(NewGuillotine())
	return r
}

// Register adds an algorithm under its name. Registering the same name
// twice keeps the first registration.
func (r *Registry) Register(a Algorithm) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.algorithms[a.Name()]; exists {
		return
	}
	r.algorithms[a.Name()] = a
}

// Get returns the algorithm registered under name.
func (r *Registry) Get(name string) (Algorithm, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.algorithms[name]
	return a, ok
}

// Names returns all registered names in ascending order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.algorithms))
	for name := range r.algorithms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
