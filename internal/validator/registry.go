package validator

import (
	"fmt"
	"sync"

	"github.com/MobilityData/gtfs-validator-sub012/internal/schema"
)

// Registry holds validator registrations in registration order.
type Registry struct {
	mu    sync.RWMutex
	order []Registration
	names map[string]bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{names: make(map[string]bool)}
}

// Register adds a validator.
// Panics if the name is already registered or the registration does not
// match its tier.
func (r *Registry) Register(reg Registration) {
	if err := checkRegistration(reg); err != nil {
		panic(err.Error())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.names[reg.Name] {
		panic(fmt.Sprintf("validator already registered: %s", reg.Name))
	}
	r.names[reg.Name] = true
	r.order = append(r.order, reg)
}

func checkRegistration(reg Registration) error {
	if reg.Name == "" {
		return fmt.Errorf("validator registered without a name")
	}

	switch reg.Tier {
	case SingleEntity:
		if reg.Table == "" || reg.NewEntity == nil || reg.NewFile != nil || len(reg.Dependencies) > 0 {
			return fmt.Errorf("validator %s: single-entity validators need a table and NewEntity only", reg.Name)
		}
	case SingleFile:
		if reg.Table == "" || reg.NewFile == nil || reg.NewEntity != nil || len(reg.Dependencies) > 0 {
			return fmt.Errorf("validator %s: single-file validators need a table and NewFile only", reg.Name)
		}
	case MultiFile:
		if len(reg.Dependencies) == 0 || reg.NewFile == nil || reg.NewEntity != nil || reg.Table != "" {
			return fmt.Errorf("validator %s: multi-file validators need dependencies and NewFile only", reg.Name)
		}
		seen := make(map[string]bool, len(reg.Dependencies))
		for _, dep := range reg.Dependencies {
			if seen[schema.Key(dep)] {
				return fmt.Errorf("validator %s: dependency declared twice: %s", reg.Name, dep)
			}
			seen[schema.Key(dep)] = true
		}
	default:
		return fmt.Errorf("validator %s: unknown tier %d", reg.Name, int(reg.Tier))
	}
	return nil
}

// List returns every registration in registration order.
func (r *Registry) List() []Registration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Registration(nil), r.order...)
}

// ForTable returns the registrations of tier bound to filename.
func (r *Registry) ForTable(tier Tier, filename string) []Registration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []Registration
	for _, reg := range r.order {
		if reg.Tier == tier && schema.Key(reg.Table) == schema.Key(filename) {
			result = append(result, reg)
		}
	}
	return result
}

// ByTier returns the registrations of tier in registration order.
func (r *Registry) ByTier(tier Tier) []Registration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []Registration
	for _, reg := range r.order {
		if reg.Tier == tier {
			result = append(result, reg)
		}
	}
	return result
}

// Len returns the number of registered validators.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
