package model

import (
	"sort"
	"sync"
)

// TypeRegistry holds the resource types whose children are rolled up into an aggregate status.
type TypeRegistry struct {
	mu    sync.RWMutex
	types map[string]struct{}
}

// NewTypeRegistry creates a registry holding the given types. With no types it holds only GroupType.
func NewTypeRegistry(typeNames ...string) *TypeRegistry {
	r := &TypeRegistry{types: make(map[string]struct{})}
	if len(typeNames) == 0 {
		typeNames = []string{GroupType}
	}
	for _, typeName := range typeNames {
		r.Register(typeName)
	}
	return r
}

// Register declares a type as monitored. Registering the same type twice is a no-op.
// e.g. Register("compose-project")
func (r *TypeRegistry) Register(typeName string) {
	if typeName == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[typeName] = struct{}{}
}

// IsMonitored reports whether children of resources of this type are aggregated.
func (r *TypeRegistry) IsMonitored(typeName string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.types[typeName]
	return ok
}

// Types returns the registered types in sorted order.
func (r *TypeRegistry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.types))
	for k := range r.types {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
