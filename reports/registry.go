package reports

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds collectors by name
type Registry struct {
	mu         sync.RWMutex
	collectors map[string]Collector
}

// NewRegistry creates an empty Registry
func NewRegistry() *Registry {
	return &Registry{collectors: make(map[string]Collector)}
}

// Register registers a collector under its name, replacing any previous one
func (r *Registry) Register(collector Collector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.collectors[collector.Name()] = collector
}

// Get retrieves a collector by name
func (r *Registry) Get(name string) (Collector, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	collector, ok := r.collectors[name]
	if !ok {
		return nil, fmt.Errorf("collector not found: %s", name)
	}
	return collector, nil
}

// List returns all registered collector names, sorted
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.collectors))
	for name := range r.collectors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var defaultRegistry = NewRegistry()

// Register registers a collector in the default registry
func Register(collector Collector) {
	defaultRegistry.Register(collector)
}

// Get retrieves a collector from the default registry
func Get(name string) (Collector, error) {
	return defaultRegistry.Get(name)
}

// List returns the collector names of the default registry
func List() []string {
	return defaultRegistry.List()
}
