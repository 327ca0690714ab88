package system

import (
	"math"

	"github.com/hearthfall/settlement/internal/component"
	"github.com/hearthfall/settlement/internal/core/ecs"
	coresys "github.com/hearthfall/settlement/internal/core/system"
	"github.com/hearthfall/settlement/internal/economy"
	"github.com/hearthfall/settlement/internal/game"
	"github.com/hearthfall/settlement/internal/world"
)

const (
	hungerPerTick  = 0.02
	hungerPerMeal  = 25.0
	mealInterval   = 120
	hungryAt       = 30.0
	starvingAt     = 90.0
	coldPerTick    = 0.05
	freezingAt     = 80.0
	heatInterval   = world.TicksPerSubSeason
	unheatedWarmth = 0.3
)

// NeedsSystem raises hunger and cold, feeds hungry citizens from the ledger
// preferring variety, heats houses in winter and moves health and
// happiness accordingly.
type NeedsSystem struct {
	g *game.Game
}

func NewNeedsSystem(g *game.Game) *NeedsSystem {
	return &NeedsSystem{g: g}
}

func (s *NeedsSystem) Stage() coresys.Stage { return coresys.StageNeeds }

func (s *NeedsSystem) Update(tick uint64) {
	g := s.g
	winter := g.Season() == world.Winter
	if winter && tick%heatInterval == 0 {
		s.burnFuel()
	}
	fuel := g.Resources.GetResource(economy.Firewood)+g.Resources.GetResource(economy.Log) > 0

	ecs.Each2(g.C.Citizen, g.C.Needs, func(id ecs.EntityID, c *component.Citizen, n *component.Needs) {
		n.Hunger = clamp(n.Hunger+hungerPerTick, 0, 100)
		if n.MealTimer > 0 {
			n.MealTimer--
		} else if n.Hunger >= hungryAt {
			s.eat(id, c, n)
		}

		if winter {
			warmth := s.warmth(c, fuel)
			n.Cold = clamp(n.Cold+coldPerTick*(1-warmth)-coldPerTick*warmth, 0, 100)
		} else {
			n.Cold = clamp(n.Cold-coldPerTick, 0, 100)
		}

		switch {
		case n.Hunger >= starvingAt:
			c.Health -= 0.05
		case n.Cold >= freezingAt:
			c.Health -= 0.03
		case !c.Sick:
			c.Health += 0.01
		}
		c.Health = clamp(c.Health, 0, 100)
		// drift toward content
		c.Happiness = clamp(c.Happiness+(50-c.Happiness)*0.0005, 0, 100)
	})
}

func (s *NeedsSystem) eat(id ecs.EntityID, c *component.Citizen, n *component.Needs) {
	g := s.g
	portions := int(math.Ceil(n.Hunger / hungerPerMeal))
	meal := g.Resources.ConsumeFood(min(portions, 3), g.Rand)
	n.MealTimer = mealInterval
	if meal.Eaten == 0 {
		c.Happiness = clamp(c.Happiness-2, 0, 100)
		return
	}
	n.Hunger = clamp(n.Hunger-hungerPerMeal*float64(meal.Eaten), 0, 100)
	n.LastVariety = meal.Variety()
	bonus := 0.5 * float64(meal.Variety()-1)
	fav := g.FavoriteFood(id)
	for _, t := range meal.Types {
		if t == fav {
			bonus += 2
			break
		}
	}
	c.Happiness = clamp(c.Happiness+bonus, 0, 100)
}

// warmth is how well a citizen's home keeps out the cold, in [0,1].
func (s *NeedsSystem) warmth(c *component.Citizen, fuel bool) float64 {
	h, ok := s.g.C.House.Get(c.HomeID)
	if !ok {
		return 0
	}
	if !fuel {
		return h.Warmth * unheatedWarmth
	}
	return h.Warmth
}

// burnFuel takes one unit of firewood, or a log, for every occupied house.
func (s *NeedsSystem) burnFuel() {
	g := s.g
	g.C.House.Each(func(_ ecs.EntityID, h *component.House) {
		if len(h.Residents) == 0 {
			return
		}
		if g.Resources.RemoveResource(economy.Firewood, 1) == 0 {
			g.Resources.RemoveResource(economy.Log, 1)
		}
	})
}
