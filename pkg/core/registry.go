package core

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rubiojr/signalscope/pkg/config"
)

// Global registry for source self-registration
var globalRegistry = &Registry{
	prototypes: make(map[string]Source),
}

type Registry struct {
	prototypes map[string]Source
	mu         sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{
		prototypes: make(map[string]Source),
	}
}

// RegisterSourcePrototype allows sources to register themselves during init()
func RegisterSourcePrototype(name string, prototype Source) {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	globalRegistry.prototypes[name] = prototype
}

// GetGlobalRegistry returns a copy of the registry holding every source
// registered so far.
func GetGlobalRegistry() *Registry {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	registry := NewRegistry()
	for name, prototype := range globalRegistry.prototypes {
		registry.prototypes[name] = prototype
	}
	return registry
}

func (r *Registry) RegisterPrototype(name string, prototype Source) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.prototypes[name]; exists {
		return fmt.Errorf("source prototype %s already registered", name)
	}

	r.prototypes[name] = prototype
	return nil
}

// Create instantiates the source described by cfg.
func (r *Registry) Create(cfg config.SourceConfig) (Source, error) {
	r.mu.RLock()
	prototype, exists := r.prototypes[cfg.Type]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("source type %q not registered (known: %v)", cfg.Type, r.Types())
	}

	source, err := prototype.Factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating %s source: %w", cfg.Type, err)
	}
	return source, nil
}

// Types returns the registered source types, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.prototypes))
	for name := range r.prototypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
