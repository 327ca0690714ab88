// Package system holds the gameplay systems. Each runs once per tick in its
// stage and only changes building and worker state through the game's
// lifecycle operations.
package system

import (
	"encoding/json"
	"fmt"

	"github.com/hearthfall/settlement/internal/component"
	"github.com/hearthfall/settlement/internal/core/ecs"
	"github.com/hearthfall/settlement/internal/game"
	"github.com/hearthfall/settlement/internal/world"
)

const ticksPerYear = world.SubSeasons * world.TicksPerSubSeason

// adjacent reports whether tile p is on or right next to b's footprint.
func adjacent(b *component.Building, p world.Point) bool {
	return p.X >= b.X-1 && p.X <= b.X+b.Width && p.Y >= b.Y-1 && p.Y <= b.Y+b.Height
}

// approach returns the walkable tile bordering b closest to from.
func approach(m *world.Map, b *component.Building, from world.Point) (world.Point, bool) {
	best, bestDist := world.Point{}, -1
	for y := b.Y - 1; y <= b.Y+b.Height; y++ {
		for x := b.X - 1; x <= b.X+b.Width; x++ {
			if b.Contains(x, y) || !m.Walkable(x, y) {
				continue
			}
			if t := m.At(x, y); t.Occupied {
				continue
			}
			d := manhattan(from, world.Point{X: x, Y: y})
			if bestDist < 0 || d < bestDist {
				best, bestDist = world.Point{X: x, Y: y}, d
			}
		}
	}
	return best, bestDist >= 0
}

// besideTile returns a walkable tile next to p, or p itself when it is
// walkable. Water deposits are worked from the shore.
func besideTile(m *world.Map, p world.Point) (world.Point, bool) {
	if m.Walkable(p.X, p.Y) {
		return p, true
	}
	for _, d := range [...]world.Point{{X: 0, Y: 1}, {X: 1, Y: 0}, {X: 0, Y: -1}, {X: -1, Y: 0}} {
		q := world.Point{X: p.X + d.X, Y: p.Y + d.Y}
		if m.Walkable(q.X, q.Y) {
			return q, true
		}
	}
	return world.Point{}, false
}

func manhattan(a, b world.Point) int {
	dx, dy := a.X-b.X, a.Y-b.Y
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

func chebyshev(a, b world.Point) int {
	dx, dy := a.X-b.X, a.Y-b.Y
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	return max(dx, dy)
}

// walkTo points a citizen at dest. The movement system plans the route.
func walkTo(g *game.Game, id ecs.EntityID, dest world.Point) {
	mv, ok := g.C.Movement.Get(id)
	if !ok {
		return
	}
	if mv.Target != nil && *mv.Target == dest {
		return
	}
	d := dest
	mv.Target = &d
	mv.Path = nil
}

// tileOf returns the tile a citizen stands on.
func tileOf(g *game.Game, id ecs.EntityID) (world.Point, bool) {
	pos, ok := g.C.Position.Get(id)
	if !ok {
		return world.Point{}, false
	}
	return pos.Tile(), true
}

// moving reports whether a citizen still has somewhere to go.
func moving(g *game.Game, id ecs.EntityID) bool {
	mv, ok := g.C.Movement.Get(id)
	return ok && mv.Target != nil
}

// operating reports whether b is completed and neither upgrading nor being
// torn down.
func operating(b *component.Building) bool {
	return b.Completed && !b.Upgrading() && !b.Demolishing()
}

func clamp(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}

// saveJSON and loadJSON back the Stateful implementations.
func saveJSON(name string, v any) (json.RawMessage, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal %s state: %w", name, err)
	}
	return raw, nil
}

func loadJSON(name string, raw json.RawMessage, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("unmarshal %s state: %w", name, err)
	}
	return nil
}
