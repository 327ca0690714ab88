package ecs

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrUnknownKind is returned when a snapshot names a kind that was never registered.
	ErrUnknownKind = errors.New("unknown component kind")
	// ErrUnknownEntity is returned when a snapshot attaches data to an entity it does not list.
	ErrUnknownEntity = errors.New("component references unknown entity")
	// ErrMissingData is returned for a snapshot entry without a record.
	ErrMissingData = errors.New("component entry without data")
)

// World is the top-level ECS container. It owns the entity pool and the
// component registry. All access happens on the simulation goroutine.
type World struct {
	pool     *EntityPool
	registry *Registry
	version  uint64
	queries  map[queryKey]*cachedQuery
}

func NewWorld() *World {
	return &World{
		pool:     NewEntityPool(),
		registry: NewRegistry(),
		queries:  make(map[queryKey]*cachedQuery, 16),
	}
}

// Register creates the typed store for kind. Kinds form a closed set fixed at
// construction, so registering a kind twice is a programming error.
func Register[T any](w *World, kind Kind) *Store[T] {
	s := newStore[T](kind, w.pool, &w.version)
	if !w.registry.Register(s) {
		panic(fmt.Sprintf("ecs: component kind %q registered twice", kind))
	}
	return s
}

func (w *World) Pool() *EntityPool   { return w.pool }
func (w *World) Registry() *Registry { return w.registry }

func (w *World) CreateEntity() EntityID {
	w.version++
	return w.pool.Create()
}

func (w *World) Alive(id EntityID) bool {
	return w.pool.Alive(id)
}

// DestroyEntity removes the entity from every component store. Destroying an
// absent entity is a no-op and reports false.
func (w *World) DestroyEntity(id EntityID) bool {
	if !w.pool.Alive(id) {
		return false
	}
	w.registry.RemoveAll(id)
	w.pool.Destroy(id)
	w.version++
	return true
}

// Entities returns live entity ids in ascending order (shared slice).
func (w *World) Entities() []EntityID {
	return w.pool.IDs()
}

// Component returns the record of the given kind as an untyped value.
// Systems use the typed stores; this exists for generic tooling.
func (w *World) Component(id EntityID, kind Kind) (any, bool) {
	s, ok := w.registry.Lookup(kind)
	if !ok {
		return nil, false
	}
	return s.getAny(id)
}

func (w *World) HasComponent(id EntityID, kind Kind) bool {
	s, ok := w.registry.Lookup(kind)
	return ok && s.Has(id)
}

func (w *World) RemoveComponent(id EntityID, kind Kind) bool {
	s, ok := w.registry.Lookup(kind)
	if !ok {
		return false
	}
	return s.Remove(id)
}

// Snapshot is the serialized form of a World.
type Snapshot struct {
	NextID     EntityID                 `json:"nextId"`
	Entities   []EntityID               `json:"entities"`
	Components map[Kind]json.RawMessage `json:"components"`
}

// Serialize captures every live entity and every component record.
func (w *World) Serialize() (*Snapshot, error) {
	ids := w.pool.IDs()
	snap := &Snapshot{
		NextID:     w.pool.NextID(),
		Entities:   append([]EntityID(nil), ids...),
		Components: make(map[Kind]json.RawMessage, len(w.registry.stores)),
	}
	for _, s := range w.registry.stores {
		raw, err := s.marshalEntries()
		if err != nil {
			return nil, err
		}
		snap.Components[s.Kind()] = raw
	}
	return snap, nil
}

// Deserialize replaces the world contents with the snapshot. The next id is
// restored (and raised past any listed entity) so later CreateEntity calls
// never collide with restored ids. On error the world is left empty.
func (w *World) Deserialize(snap *Snapshot) error {
	for _, s := range w.registry.stores {
		s.reset()
	}
	w.queries = make(map[queryKey]*cachedQuery, 16)
	w.version++
	if snap == nil {
		w.pool.restore(1, nil)
		return nil
	}
	w.pool.restore(snap.NextID, snap.Entities)
	for kind, raw := range snap.Components {
		s, ok := w.registry.Lookup(kind)
		if !ok {
			w.clear()
			return fmt.Errorf("%q: %w", kind, ErrUnknownKind)
		}
		if err := s.unmarshalEntries(raw); err != nil {
			w.clear()
			return err
		}
	}
	return nil
}

func (w *World) clear() {
	for _, s := range w.registry.stores {
		s.reset()
	}
	w.pool.restore(1, nil)
	w.version++
}
