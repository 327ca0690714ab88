package ecs

import (
	"slices"
	"strconv"
)

// EntityID is an opaque, monotonically increasing identity. Zero is never
// handed out and means "no entity" wherever an optional reference is stored.
type EntityID uint64

func (id EntityID) IsZero() bool   { return id == 0 }
func (id EntityID) String() string { return strconv.FormatUint(uint64(id), 10) }

// EntityPool allocates identities. IDs are never reused, so a stale reference
// to a destroyed entity can never resolve to a newer one.
type EntityPool struct {
	nextID EntityID
	alive  map[EntityID]struct{}
	sorted []EntityID
	dirty  bool
}

func NewEntityPool() *EntityPool {
	return &EntityPool{
		nextID: 1,
		alive:  make(map[EntityID]struct{}, 1024),
	}
}

func (p *EntityPool) Create() EntityID {
	id := p.nextID
	p.nextID++
	p.alive[id] = struct{}{}
	// Monotonic allocation keeps the cache sorted without a rebuild.
	if !p.dirty {
		p.sorted = append(p.sorted, id)
	}
	return id
}

func (p *EntityPool) Alive(id EntityID) bool {
	_, ok := p.alive[id]
	return ok
}

// Destroy reports whether the entity was alive.
func (p *EntityPool) Destroy(id EntityID) bool {
	if _, ok := p.alive[id]; !ok {
		return false
	}
	delete(p.alive, id)
	p.dirty = true
	return true
}

func (p *EntityPool) Len() int         { return len(p.alive) }
func (p *EntityPool) NextID() EntityID { return p.nextID }

// IDs returns the live identities in ascending order. The slice is shared;
// callers must not modify it.
func (p *EntityPool) IDs() []EntityID {
	if p.dirty {
		p.sorted = make([]EntityID, 0, len(p.alive))
		for id := range p.alive {
			p.sorted = append(p.sorted, id)
		}
		slices.Sort(p.sorted)
		p.dirty = false
	}
	return p.sorted
}

// restore replaces the pool contents from a snapshot.
func (p *EntityPool) restore(nextID EntityID, ids []EntityID) {
	p.alive = make(map[EntityID]struct{}, len(ids))
	for _, id := range ids {
		p.alive[id] = struct{}{}
		if id >= nextID {
			nextID = id + 1
		}
	}
	if nextID == 0 {
		nextID = 1
	}
	p.nextID = nextID
	p.sorted = nil
	p.dirty = true
}
