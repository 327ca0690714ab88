package ecs

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Kind names a component store. The set of kinds is closed: every kind is
// registered once at world construction and never added at runtime.
type Kind string

// AnyStore is implemented by all component stores so the World can bulk-remove,
// intersect and serialize an entity's data without knowing the record type.
type AnyStore interface {
	Kind() Kind
	Has(id EntityID) bool
	Remove(id EntityID) bool
	Len() int
	IDs() []EntityID
	getAny(id EntityID) (any, bool)
	marshalEntries() (json.RawMessage, error)
	unmarshalEntries(raw json.RawMessage) error
	reset()
}

// Store is a typed map store for one component kind.
// Plain generics, no reflect or interface{} on the hot path.
type Store[T any] struct {
	kind    Kind
	data    map[EntityID]*T
	ids     []EntityID
	dirty   bool
	pool    *EntityPool
	version *uint64
}

func newStore[T any](kind Kind, pool *EntityPool, version *uint64) *Store[T] {
	return &Store[T]{
		kind:    kind,
		data:    make(map[EntityID]*T, 256),
		pool:    pool,
		version: version,
	}
}

func (s *Store[T]) Kind() Kind { return s.kind }

// Set attaches or replaces the component. Attaching to an entity that is not
// alive is refused.
func (s *Store[T]) Set(id EntityID, c *T) bool {
	if c == nil || !s.pool.Alive(id) {
		return false
	}
	if _, ok := s.data[id]; !ok {
		*s.version++
		if !s.dirty && (len(s.ids) == 0 || s.ids[len(s.ids)-1] < id) {
			s.ids = append(s.ids, id)
		} else {
			s.dirty = true
		}
	}
	s.data[id] = c
	return true
}

func (s *Store[T]) Get(id EntityID) (*T, bool) {
	c, ok := s.data[id]
	return c, ok
}

func (s *Store[T]) getAny(id EntityID) (any, bool) {
	c, ok := s.data[id]
	if !ok {
		return nil, false
	}
	return c, true
}

func (s *Store[T]) Remove(id EntityID) bool {
	if _, ok := s.data[id]; !ok {
		return false
	}
	delete(s.data, id)
	s.dirty = true
	*s.version++
	return true
}

func (s *Store[T]) Has(id EntityID) bool {
	_, ok := s.data[id]
	return ok
}

func (s *Store[T]) Len() int {
	return len(s.data)
}

// IDs returns the holders of this component in ascending id order. The slice
// is shared and stays valid (unchanged) across later mutations; callers must
// not modify it.
func (s *Store[T]) IDs() []EntityID {
	if s.dirty {
		ids := make([]EntityID, 0, len(s.data))
		for id := range s.data {
			ids = append(ids, id)
		}
		slices.Sort(ids)
		s.ids = ids
		s.dirty = false
	}
	return s.ids
}

// Each visits every component in ascending id order. Removing components
// during the walk is safe; entities added during the walk are not visited.
func (s *Store[T]) Each(fn func(EntityID, *T)) {
	for _, id := range s.IDs() {
		if c, ok := s.data[id]; ok {
			fn(id, c)
		}
	}
}

func (s *Store[T]) reset() {
	s.data = make(map[EntityID]*T, len(s.data))
	s.ids = nil
	s.dirty = false
}

type entry[T any] struct {
	ID   EntityID `json:"id"`
	Data *T       `json:"data"`
}

func (s *Store[T]) marshalEntries() (json.RawMessage, error) {
	ids := s.IDs()
	entries := make([]entry[T], 0, len(ids))
	for _, id := range ids {
		entries = append(entries, entry[T]{ID: id, Data: s.data[id]})
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", s.kind, err)
	}
	return raw, nil
}

func (s *Store[T]) unmarshalEntries(raw json.RawMessage) error {
	var entries []entry[T]
	if err := json.Unmarshal(raw, &entries); err != nil {
		return fmt.Errorf("unmarshal %s: %w", s.kind, err)
	}
	for _, e := range entries {
		if e.Data == nil {
			return fmt.Errorf("%s entity %d: %w", s.kind, e.ID, ErrMissingData)
		}
		if !s.Set(e.ID, e.Data) {
			return fmt.Errorf("%s entity %d: %w", s.kind, e.ID, ErrUnknownEntity)
		}
	}
	return nil
}
