package schema

import (
	"strings"
	"sync"
)

// Registry resolves fully-qualified type names, the global lookup used by
// the type arguments of cast and isof.
type Registry struct {
	mu    sync.RWMutex
	types map[string]*Type
}

// NewRegistry creates a registry containing the given types.
func NewRegistry(types ...*Type) *Registry {
	r := &Registry{types: make(map[string]*Type)}
	r.Register(types...)
	return r
}

// Register adds types to the registry, replacing earlier registrations of
// the same name.
func (r *Registry) Register(types ...*Type) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range types {
		r.types[strings.ToLower(t.Name())] = t
	}
}

// Lookup finds a registered type by name, case-insensitively.
func (r *Registry) Lookup(name string) (*Type, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[strings.ToLower(name)]
	return t, ok
}

// Resolve checks primitive display names first, then registered types.
func (r *Registry) Resolve(name string) (*Type, bool) {
	if t, ok := PrimitiveByName(name); ok {
		return t, true
	}
	return r.Lookup(name)
}

// Types returns the registered types.
func (r *Registry) Types() []*Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Type, 0, len(r.types))
	for _, t := range r.types {
		out = append(out, t)
	}
	return out
}
