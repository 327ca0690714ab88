package system

import (
	"math"

	"github.com/hearthfall/settlement/internal/component"
	"github.com/hearthfall/settlement/internal/core/ecs"
	coresys "github.com/hearthfall/settlement/internal/core/system"
	"github.com/hearthfall/settlement/internal/game"
)

// maxStuck is how many failed path requests in a row drop a target.
const maxStuck = 3

// MovementSystem plans routes for new targets and walks citizens along
// them. The previous position is kept for render interpolation.
type MovementSystem struct {
	g *game.Game
}

func NewMovementSystem(g *game.Game) *MovementSystem {
	return &MovementSystem{g: g}
}

func (s *MovementSystem) Stage() coresys.Stage { return coresys.StageMovement }

func (s *MovementSystem) Update(_ uint64) {
	g := s.g
	ecs.Each2(g.C.Position, g.C.Movement, func(_ ecs.EntityID, pos *component.Position, mv *component.Movement) {
		pos.PrevX, pos.PrevY = pos.X, pos.Y
		if mv.Target == nil {
			return
		}
		if len(mv.Path) == 0 {
			here := pos.Tile()
			if here == *mv.Target {
				mv.Target = nil
				mv.Stuck = 0
				return
			}
			path, ok := g.Paths.FindPath(here, *mv.Target)
			if !ok || len(path) == 0 {
				mv.Stuck++
				if mv.Stuck >= maxStuck {
					mv.Target = nil
					mv.Stuck = 0
				}
				return
			}
			mv.Path = path
			mv.Stuck = 0
		}
		s.step(pos, mv)
	})
}

// step advances along the path by the walking speed, possibly passing
// several waypoints in one tick.
func (s *MovementSystem) step(pos *component.Position, mv *component.Movement) {
	budget := mv.Speed
	for budget > 0 && len(mv.Path) > 0 {
		next := mv.Path[0]
		dx, dy := float64(next.X)-pos.X, float64(next.Y)-pos.Y
		dist := math.Hypot(dx, dy)
		if dist <= budget {
			pos.X, pos.Y = float64(next.X), float64(next.Y)
			budget -= dist
			mv.Path = mv.Path[1:]
			continue
		}
		pos.X += dx / dist * budget
		pos.Y += dy / dist * budget
		budget = 0
	}
	if len(mv.Path) == 0 {
		mv.Path = nil
		mv.Target = nil
	}
}
