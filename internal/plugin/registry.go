package plugin

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds all registered connectors.
type Registry struct {
	mu         sync.RWMutex
	connectors map[string]Connector
}

// NewRegistry creates a new empty plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		connectors: make(map[string]Connector),
	}
}

// Register adds a connector to the registry.
func (r *Registry) Register(c Connector) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := c.Name()
	if _, exists := r.connectors[name]; exists {
		return fmt.Errorf("connector %q already registered", name)
	}
	r.connectors[name] = c
	return nil
}

// Get returns a connector by name.
func (r *Registry) Get(name string) (Connector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.connectors[name]
	return c, ok
}

// MustRegister is Register for connectors wired at startup.
func (r *Registry) MustRegister(cs ...Connector) *Registry {
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			panic(err)
		}
	}
	return r
}

// List returns the names of all registered connectors, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.connectors))
	for name := range r.connectors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has checks whether a connector is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.connectors[name]
	return ok
}

// CatalogEntry is one action offered to flow steps.
type CatalogEntry struct {
	Connector string
	Action    ActionDef
}

// Catalog lists the actions of the named connectors, or of every connector
// when names is empty. Entries follow the order of names (sorted when
// empty), then each connector's declaration order.
func (r *Registry) Catalog(names ...string) ([]CatalogEntry, error) {
	if len(names) == 0 {
		names = r.List()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var entries []CatalogEntry
	for _, name := range names {
		c, ok := r.connectors[name]
		if !ok {
			return nil, fmt.Errorf("connector %q not found", name)
		}
		for _, a := range c.Actions() {
			entries = append(entries, CatalogEntry{Connector: name, Action: a})
		}
	}
	return entries, nil
}
