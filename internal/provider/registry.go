// Package provider maps applier names to implementations.
package provider

import (
	"fmt"
	"sync"

	"github.com/madebygps/functions-cosmos-inventory/internal/engine"
	"github.com/madebygps/functions-cosmos-inventory/providers/null"
)

// Registry manages the lifecycle of appliers.
type Registry struct {
	mu       sync.RWMutex
	appliers map[string]engine.Applier
}

func NewRegistry() *Registry {
	return &Registry{
		appliers: make(map[string]engine.Applier),
	}
}

// Load initializes and registers an applier. Only built-in appliers are
// supported; an out-of-process plugin mechanism would slot in here.
func (r *Registry) Load(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.appliers[name]; exists {
		return nil
	}

	var a engine.Applier
	switch name {
	case "null":
		a = null.New()
	default:
		return fmt.Errorf("unknown applier: %s", name)
	}

	r.appliers[name] = a
	return nil
}

// Get returns a registered applier.
func (r *Registry) Get(name string) (engine.Applier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.appliers[name]
	if !ok {
		return nil, fmt.Errorf("applier not loaded: %s", name)
	}
	return a, nil
}
