package system

import (
	"slices"

	coresys "github.com/hearthfall/settlement/internal/core/system"
	"github.com/hearthfall/settlement/internal/game"
	"github.com/hearthfall/settlement/internal/scripting"
	"github.com/hearthfall/settlement/internal/world"
)

const (
	envInterval = 60
	// envStripes splits the map into row stripes; one stripe regrows per pass.
	envStripes = 8

	maxBerries   = 5
	maxMushrooms = 4
	maxHerbs     = 3
	maxFish      = 8
	maxWildlife  = 3
)

// EnvironmentSystem regrows wild food and trees outside winter, wears
// buildings down and collapses those that reach zero durability. Staffed
// buildings are kept in repair.
type EnvironmentSystem struct {
	g       *game.Game
	weather WeatherSource
}

func NewEnvironmentSystem(g *game.Game, weather WeatherSource) *EnvironmentSystem {
	return &EnvironmentSystem{g: g, weather: weather}
}

func (s *EnvironmentSystem) Stage() coresys.Stage { return coresys.StageEnvironment }

func (s *EnvironmentSystem) Update(tick uint64) {
	if tick%envInterval != 0 {
		return
	}
	pass := tick / envInterval
	if s.g.Season() != world.Winter {
		s.regrow(int(pass % envStripes))
	}
	s.decay(tick)
}

func (s *EnvironmentSystem) regrow(stripe int) {
	g := s.g
	m := g.Map
	for y := stripe; y < m.Height; y += envStripes {
		for x := 0; x < m.Width; x++ {
			t := m.At(x, y)
			if t.Occupied {
				continue
			}
			switch t.Type {
			case world.Water:
				if t.Fish < maxFish && g.Rand.Chance(0.05) {
					t.Fish++
				}
			case world.Forest:
				if t.TreeDensity < 1 {
					t.TreeDensity = min(1, t.TreeDensity+0.01)
				}
				if t.Mushrooms < maxMushrooms && g.Rand.Chance(0.02) {
					t.Mushrooms++
				}
				if t.Wildlife < maxWildlife && g.Rand.Chance(0.01) {
					t.Wildlife++
				}
			case world.Grass:
				if t.Fertility < 0.4 {
					continue
				}
				if t.Berries < maxBerries && g.Rand.Chance(0.02) {
					t.Berries++
				}
				if t.Fertility > 0.6 && t.Herbs < maxHerbs && g.Rand.Chance(0.01) {
					t.Herbs++
				}
			}
		}
	}
}

func (s *EnvironmentSystem) decay(tick uint64) {
	g := s.g
	weather := Clear
	if s.weather != nil {
		weather = s.weather.Current()
	}
	for _, id := range slices.Clone(g.C.Building.IDs()) {
		b, ok := g.C.Building.Get(id)
		if !ok || !b.Completed {
			continue
		}
		def, ok := g.Defs().Get(b.Type)
		if !ok {
			continue
		}
		loss := g.Formulas().CalcBuildingDecay(scripting.DecayContext{
			Durability: b.Durability,
			DecayRate:  def.DecayRate,
			Weather:    weather,
			Age:        int(tick - b.BuiltTick),
		})
		if g.OnSiteCrew(id).Workers > 0 {
			loss -= 2 * def.DecayRate
		}
		b.Durability = min(b.Durability-loss, b.MaxDurability)
		if b.Durability <= 0 {
			g.CollapseBuilding(id)
		}
	}
}
