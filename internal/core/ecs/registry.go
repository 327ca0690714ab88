package ecs

// Registry tracks all component stores in registration order and supports
// bulk cleanup on entity destroy.
type Registry struct {
	stores []AnyStore
	byKind map[Kind]AnyStore
}

func NewRegistry() *Registry {
	return &Registry{
		stores: make([]AnyStore, 0, 16),
		byKind: make(map[Kind]AnyStore, 16),
	}
}

// Register adds a component store to the registry. It reports false when the
// kind is already taken.
func (r *Registry) Register(store AnyStore) bool {
	if _, dup := r.byKind[store.Kind()]; dup {
		return false
	}
	r.stores = append(r.stores, store)
	r.byKind[store.Kind()] = store
	return true
}

func (r *Registry) Lookup(kind Kind) (AnyStore, bool) {
	s, ok := r.byKind[kind]
	return s, ok
}

// Kinds returns registered kinds in registration order.
func (r *Registry) Kinds() []Kind {
	kinds := make([]Kind, len(r.stores))
	for i, s := range r.stores {
		kinds[i] = s.Kind()
	}
	return kinds
}

// RemoveAll clears the given entity from every registered component store.
func (r *Registry) RemoveAll(id EntityID) {
	for _, s := range r.stores {
		s.Remove(id)
	}
}
