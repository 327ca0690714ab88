package system

import (
	"slices"

	"github.com/hearthfall/settlement/internal/component"
	"github.com/hearthfall/settlement/internal/core/ecs"
	"github.com/hearthfall/settlement/internal/core/event"
	coresys "github.com/hearthfall/settlement/internal/core/system"
	"github.com/hearthfall/settlement/internal/game"
	"github.com/hearthfall/settlement/internal/scripting"
	"go.uber.org/zap"
)

const (
	birthInterval = 600
	adultAge      = 18
	fertileUntil  = 45
	elderAge      = 60
)

// PopulationSystem ages citizens once a year, removes the dead, pairs up
// couples and rolls for births in every house.
type PopulationSystem struct {
	g *game.Game
}

func NewPopulationSystem(g *game.Game) *PopulationSystem {
	return &PopulationSystem{g: g}
}

func (s *PopulationSystem) Stage() coresys.Stage { return coresys.StagePopulation }

func (s *PopulationSystem) Update(tick uint64) {
	g := s.g
	newYear := tick%ticksPerYear == 0
	for _, id := range slices.Clone(g.C.Citizen.IDs()) {
		c, ok := g.C.Citizen.Get(id)
		if !ok {
			continue
		}
		if c.Health <= 0 {
			g.KillCitizen(id, s.causeOfDeath(id, c))
			continue
		}
		if !newYear {
			continue
		}
		c.Age++
		if c.Age > elderAge && g.Rand.Chance(float64(c.Age-elderAge)*0.05) {
			g.KillCitizen(id, "old age")
		}
	}

	if tick%birthInterval == 0 {
		ecs.Each2(g.C.Building, g.C.House, func(id ecs.EntityID, b *component.Building, h *component.House) {
			if operating(b) {
				s.household(id, b, h)
			}
		})
	}
	g.State.Population = g.C.Citizen.Len()
}

func (s *PopulationSystem) causeOfDeath(id ecs.EntityID, c *component.Citizen) string {
	n, ok := s.g.C.Needs.Get(id)
	switch {
	case c.Sick:
		return "illness"
	case ok && n.Hunger >= starvingAt:
		return "starvation"
	case ok && n.Cold >= freezingAt:
		return "cold"
	}
	return "frailty"
}

// household marries unpaired adults living together and rolls for a child.
func (s *PopulationSystem) household(id ecs.EntityID, b *component.Building, h *component.House) {
	g := s.g
	var mother, father ecs.EntityID
	happiness := 0.0
	for _, rid := range h.Residents {
		c, ok := g.C.Citizen.Get(rid)
		if !ok {
			continue
		}
		happiness += c.Happiness
		if c.Age < adultAge {
			continue
		}
		switch {
		case c.Sex == component.Female && c.Age <= fertileUntil && mother.IsZero():
			mother = rid
		case c.Sex == component.Male && father.IsZero():
			father = rid
		}
	}
	if mother.IsZero() || father.IsZero() {
		return
	}
	s.marry(mother, father)
	if len(h.Residents) >= h.Capacity {
		return
	}

	chance := g.Formulas().CalcBirthChance(scripting.BirthContext{
		Residents: len(h.Residents),
		Happiness: happiness / float64(len(h.Residents)),
		Food:      g.Resources.TotalFood(),
	})
	if !g.Rand.Chance(chance) {
		return
	}
	x, y := b.Center()
	if pos, ok := g.C.Position.Get(mother); ok {
		t := pos.Tile()
		x, y = t.X, t.Y
	}
	child := g.SpawnCitizen(x, y, game.CitizenOpts{Parents: []ecs.EntityID{mother, father}})
	g.MoveIn(child, id)
	g.State.Births++
	g.Log().Info("citizen born", zap.Uint64("citizen", uint64(child)), zap.Uint64("house", uint64(id)))
	g.Emit(event.CitizenBorn{Citizen: child, Parent: mother})
}

func (s *PopulationSystem) marry(a, b ecs.EntityID) {
	fa, okA := s.g.C.Family.Get(a)
	fb, okB := s.g.C.Family.Get(b)
	if !okA || !okB || !fa.Spouse.IsZero() || !fb.Spouse.IsZero() {
		return
	}
	fa.Spouse, fb.Spouse = b, a
}
