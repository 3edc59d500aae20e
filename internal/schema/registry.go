package schema

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds table descriptors keyed by lower-cased filename.
type Registry struct {
	mu     sync.RWMutex
	tables map[string]*TableDescriptor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tables: make(map[string]*TableDescriptor)}
}

// Register adds a table descriptor.
// Panics if a table with the same filename is already registered or a column
// name is repeated.
func (r *Registry) Register(desc *TableDescriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := Key(desc.Filename)
	if _, exists := r.tables[key]; exists {
		panic(fmt.Sprintf("table already registered: %s", desc.Filename))
	}

	seen := make(map[string]bool, len(desc.Columns))
	for _, c := range desc.Columns {
		if seen[c.Name] {
			panic(fmt.Sprintf("table %s: column declared twice: %s", desc.Filename, c.Name))
		}
		seen[c.Name] = true
	}

	r.tables[key] = desc
}

// Get returns a descriptor by filename, ignoring case.
func (r *Registry) Get(filename string) (*TableDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	desc, ok := r.tables[Key(filename)]
	return desc, ok
}

// All returns every registered descriptor sorted by filename.
func (r *Registry) All() []*TableDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*TableDescriptor, 0, len(r.tables))
	for _, desc := range r.tables {
		result = append(result, desc)
	}

	sort.Slice(result, func(i, j int) bool {
		return Key(result[i].Filename) < Key(result[j].Filename)
	})

	return result
}

// TableCount returns the number of registered tables.
func (r *Registry) TableCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tables)
}

// Clear removes all registered tables.
// Primarily useful for testing.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tables = make(map[string]*TableDescriptor)
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry populated with the GTFS tables.
func Default() *Registry {
	return defaultRegistry
}

// Register adds a descriptor to the default registry.
func Register(desc *TableDescriptor) {
	defaultRegistry.Register(desc)
}

// Get looks up a descriptor in the default registry.
func Get(filename string) (*TableDescriptor, bool) {
	return defaultRegistry.Get(filename)
}

// All returns every descriptor of the default registry.
func All() []*TableDescriptor {
	return defaultRegistry.All()
}
