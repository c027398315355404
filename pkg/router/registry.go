package router

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps route names to layers for reverse routing. A root router
// owns one and shares it with every router nested under it.
type Registry struct {
	mu     sync.RWMutex
	layers map[string]*Layer
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{layers: make(map[string]*Layer)}
}

// Register adds a named layer. Anonymous layers are ignored; registering the
// same layer twice is a no-op, while a different layer under a taken name
// fails with *DuplicateRouteNameError.
func (r *Registry) Register(layer *Layer) error {
	if layer == nil || layer.Name() == "" {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.layers[layer.Name()]; ok {
		if existing == layer {
			return nil
		}
		return &DuplicateRouteNameError{
			Name:     layer.Name(),
			Existing: existing.Pattern(),
			Pattern:  layer.Pattern(),
		}
	}
	r.layers[layer.Name()] = layer
	return nil
}

// Lookup returns the layer registered under name
func (r *Registry) Lookup(name string) (*Layer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	layer, ok := r.layers[name]
	return layer, ok
}

// URLFor builds a URL for the named route, see Layer.URL
func (r *Registry) URLFor(name string, params any, query any, hash string) (string, error) {
	layer, ok := r.Lookup(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrRouteNotFound, name)
	}
	return layer.URL(params, query, hash)
}

// Names returns the registered names in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.layers))
	for name := range r.layers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered routes
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.layers)
}
