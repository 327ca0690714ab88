package world

import (
	"github.com/hearthfall/settlement/internal/core/ecs"
	"github.com/hearthfall/settlement/internal/economy"
)

// Point is a tile coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Map is a row-major tile grid. Single-goroutine access only (game loop).
type Map struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Tiles  []Tile `json:"tiles"`

	version uint64
}

func NewMap(width, height int) *Map {
	return &Map{
		Width:  width,
		Height: height,
		Tiles:  make([]Tile, width*height),
	}
}

func (m *Map) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < m.Width && y < m.Height
}

// At returns the tile at (x, y), or nil when out of bounds.
func (m *Map) At(x, y int) *Tile {
	if !m.InBounds(x, y) {
		return nil
	}
	return &m.Tiles[y*m.Width+x]
}

// Walkable reports whether a citizen may step onto (x, y).
func (m *Map) Walkable(x, y int) bool {
	t := m.At(x, y)
	return t != nil && t.Type != Water && !t.Blocked
}

// AreaFree reports whether a w×h footprint at (x, y) lies inside the map on
// dry, unoccupied ground.
func (m *Map) AreaFree(x, y, w, h int) bool {
	if w <= 0 || h <= 0 {
		return false
	}
	for ty := y; ty < y+h; ty++ {
		for tx := x; tx < x+w; tx++ {
			t := m.At(tx, ty)
			if t == nil || t.Occupied || t.Type == Water {
				return false
			}
		}
	}
	return true
}

// AreaFreeExcept is AreaFree but tolerates tiles already held by owner.
// Used for footprint growth on upgrade.
func (m *Map) AreaFreeExcept(x, y, w, h int, owner ecs.EntityID) bool {
	if w <= 0 || h <= 0 {
		return false
	}
	for ty := y; ty < y+h; ty++ {
		for tx := x; tx < x+w; tx++ {
			t := m.At(tx, ty)
			if t == nil || t.Type == Water {
				return false
			}
			if t.Occupied && t.BuildingID != owner {
				return false
			}
		}
	}
	return true
}

// Occupy marks a footprint as held by building id. Trees on the footprint
// are cleared.
func (m *Map) Occupy(x, y, w, h int, id ecs.EntityID, blocks bool) {
	for ty := y; ty < y+h; ty++ {
		for tx := x; tx < x+w; tx++ {
			t := m.At(tx, ty)
			if t == nil {
				continue
			}
			t.Occupied = true
			t.BuildingID = id
			t.Blocked = blocks
			t.TreeDensity = 0
			if t.Type == Forest {
				t.Type = Grass
			}
		}
	}
	m.version++
}

// Release frees every tile in the footprint still held by id.
func (m *Map) Release(x, y, w, h int, id ecs.EntityID) {
	for ty := y; ty < y+h; ty++ {
		for tx := x; tx < x+w; tx++ {
			t := m.At(tx, ty)
			if t == nil || t.BuildingID != id {
				continue
			}
			t.Occupied = false
			t.BuildingID = 0
			t.Blocked = false
		}
	}
	m.version++
}

// Version changes whenever walkability may have changed.
func (m *Map) Version() uint64 { return m.version }

// Touch bumps the topology version after a bulk edit.
func (m *Map) Touch() { m.version++ }

// Scan visits every in-bounds tile within radius (Chebyshev) of (cx, cy) in
// row-major order until fn returns false.
func (m *Map) Scan(cx, cy, radius int, fn func(x, y int, t *Tile) bool) {
	for y := cy - radius; y <= cy+radius; y++ {
		for x := cx - radius; x <= cx+radius; x++ {
			t := m.At(x, y)
			if t == nil {
				continue
			}
			if !fn(x, y, t) {
				return
			}
		}
	}
}

// HasDeposit reports whether any tile within radius carries surface r.
func (m *Map) HasDeposit(cx, cy, radius int, r economy.Resource) bool {
	found := false
	m.Scan(cx, cy, radius, func(_, _ int, t *Tile) bool {
		found = t.Deposit(r) > 0
		return !found
	})
	return found
}

// NearestDeposit returns the closest tile within radius carrying surface r.
// Ties resolve to the first tile in row-major order.
func (m *Map) NearestDeposit(cx, cy, radius int, r economy.Resource) (Point, bool) {
	best, bestDist := Point{}, -1
	m.Scan(cx, cy, radius, func(x, y int, t *Tile) bool {
		if t.Deposit(r) <= 0 {
			return true
		}
		d := abs(x-cx) + abs(y-cy)
		if bestDist < 0 || d < bestDist {
			best, bestDist = Point{X: x, Y: y}, d
		}
		return true
	})
	return best, bestDist >= 0
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
