package system

import (
	"encoding/json"

	"github.com/hearthfall/settlement/internal/component"
	"github.com/hearthfall/settlement/internal/core/ecs"
	"github.com/hearthfall/settlement/internal/core/event"
	coresys "github.com/hearthfall/settlement/internal/core/system"
	"github.com/hearthfall/settlement/internal/economy"
	"github.com/hearthfall/settlement/internal/game"
	"github.com/hearthfall/settlement/internal/rng"
	"github.com/hearthfall/settlement/internal/world"
	"go.uber.org/zap"
)

const (
	diseaseInterval   = 50
	outbreakCooldown  = 20 // passes
	minOutbreakPop    = 6
	spreadChance      = 0.15
	sicknessDamage    = 3.0
	recoverChance     = 0.2
	herbRecoverChance = 0.5
)

// DiseaseSystem starts outbreaks, spreads sickness between housemates and
// lets the sick recover, faster when herbs are in stock.
type DiseaseSystem struct {
	g        *game.Game
	active   bool
	cooldown int
}

type diseaseState struct {
	Active   bool `json:"active"`
	Cooldown int  `json:"cooldown"`
}

func NewDiseaseSystem(g *game.Game) *DiseaseSystem {
	return &DiseaseSystem{g: g}
}

func (s *DiseaseSystem) Stage() coresys.Stage { return coresys.StageDisease }
func (s *DiseaseSystem) Name() string         { return "disease" }
func (s *DiseaseSystem) Active() bool         { return s.active }

func (s *DiseaseSystem) Update(tick uint64) {
	if tick%diseaseInterval != 0 {
		return
	}
	g := s.g
	if !s.active {
		if s.cooldown > 0 {
			s.cooldown--
			return
		}
		s.maybeOutbreak()
		return
	}

	s.spread()
	sick := 0
	g.C.Citizen.Each(func(_ ecs.EntityID, c *component.Citizen) {
		if !c.Sick {
			return
		}
		c.SickTicks += diseaseInterval
		c.Health = clamp(c.Health-sicknessDamage, 0, 100)
		chance := recoverChance
		if g.Resources.RemoveResource(economy.Herbs, 1) == 1 {
			chance = herbRecoverChance
		}
		if g.Rand.Chance(chance) {
			c.Sick = false
			c.SickTicks = 0
			return
		}
		sick++
	})
	if sick == 0 {
		s.active = false
		s.cooldown = outbreakCooldown
		g.Log().Info("outbreak over")
	}
}

func (s *DiseaseSystem) maybeOutbreak() {
	g := s.g
	if g.C.Citizen.Len() < minOutbreakPop {
		return
	}
	chance := 0.02
	if g.Season() == world.Winter {
		chance = 0.06
	}
	if !g.Rand.Chance(chance) {
		return
	}
	id, ok := rng.Pick(g.Rand, g.C.Citizen.IDs())
	if !ok {
		return
	}
	c, _ := g.C.Citizen.Get(id)
	c.Sick = true
	s.active = true
	g.Log().Warn("disease outbreak", zap.Uint64("citizen", uint64(id)))
	g.Emit(event.DiseaseOutbreak{Infected: 1})
}

// spread infects the housemates of every sick citizen.
func (s *DiseaseSystem) spread() {
	g := s.g
	var carriers []ecs.EntityID
	g.C.Citizen.Each(func(id ecs.EntityID, c *component.Citizen) {
		if c.Sick {
			carriers = append(carriers, id)
		}
	})
	for _, id := range carriers {
		c, _ := g.C.Citizen.Get(id)
		h, ok := g.C.House.Get(c.HomeID)
		if !ok {
			continue
		}
		for _, rid := range h.Residents {
			mate, ok := g.C.Citizen.Get(rid)
			if !ok || mate.Sick {
				continue
			}
			if g.Rand.Chance(spreadChance) {
				mate.Sick = true
			}
		}
	}
}

func (s *DiseaseSystem) SaveState() (json.RawMessage, error) {
	return saveJSON(s.Name(), diseaseState{Active: s.active, Cooldown: s.cooldown})
}

func (s *DiseaseSystem) LoadState(raw json.RawMessage) error {
	var st diseaseState
	if err := loadJSON(s.Name(), raw, &st); err != nil {
		return err
	}
	s.active, s.cooldown = st.Active, max(st.Cooldown, 0)
	return nil
}
