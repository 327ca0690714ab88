package ecs

// queryKey is a fixed-size cache key so repeated queries of up to four kinds
// never allocate.
type queryKey [4]Kind

type cachedQuery struct {
	version uint64
	ids     []EntityID
}

// Query returns the live entities holding every named kind, in ascending id
// order. Results are cached until the next structural change; the returned
// slice is shared and never rewritten, so it stays safe to range over while
// the caller mutates the world.
func (w *World) Query(kinds ...Kind) []EntityID {
	switch len(kinds) {
	case 0:
		return w.pool.IDs()
	case 1:
		s, ok := w.registry.Lookup(kinds[0])
		if !ok {
			return nil
		}
		return s.IDs()
	}
	if len(kinds) > len(queryKey{}) {
		return w.intersect(kinds)
	}
	var key queryKey
	copy(key[:], kinds)
	if c, ok := w.queries[key]; ok && c.version == w.version {
		return c.ids
	}
	ids := w.intersect(kinds)
	w.queries[key] = &cachedQuery{version: w.version, ids: ids}
	return ids
}

// intersect walks the smallest store and checks membership in the rest.
func (w *World) intersect(kinds []Kind) []EntityID {
	stores := make([]AnyStore, 0, len(kinds))
	smallest := -1
	for _, k := range kinds {
		s, ok := w.registry.Lookup(k)
		if !ok {
			return nil
		}
		if smallest < 0 || s.Len() < stores[smallest].Len() {
			smallest = len(stores)
		}
		stores = append(stores, s)
	}
	base := stores[smallest].IDs()
	ids := make([]EntityID, 0, len(base))
outer:
	for _, id := range base {
		for i, s := range stores {
			if i != smallest && !s.Has(id) {
				continue outer
			}
		}
		ids = append(ids, id)
	}
	return ids
}

// Each2 iterates over entities that have both component A and B, in ascending
// id order. It walks the smaller store and checks the larger one.
func Each2[A, B any](sa *Store[A], sb *Store[B], fn func(EntityID, *A, *B)) {
	if sa.Len() <= sb.Len() {
		for _, id := range sa.IDs() {
			a, okA := sa.data[id]
			b, okB := sb.data[id]
			if okA && okB {
				fn(id, a, b)
			}
		}
		return
	}
	for _, id := range sb.IDs() {
		a, okA := sa.data[id]
		b, okB := sb.data[id]
		if okA && okB {
			fn(id, a, b)
		}
	}
}

// Each3 iterates over entities that have components A, B, and C.
func Each3[A, B, C any](sa *Store[A], sb *Store[B], sc *Store[C], fn func(EntityID, *A, *B, *C)) {
	Each2(sa, sb, func(id EntityID, a *A, b *B) {
		if c, ok := sc.data[id]; ok {
			fn(id, a, b, c)
		}
	})
}
