package system

import (
	"github.com/hearthfall/settlement/internal/component"
	"github.com/hearthfall/settlement/internal/core/ecs"
	coresys "github.com/hearthfall/settlement/internal/core/system"
	"github.com/hearthfall/settlement/internal/economy"
	"github.com/hearthfall/settlement/internal/game"
	"github.com/hearthfall/settlement/internal/world"
)

// animalsPerFeed is how many animals one unit of wheat feeds per cycle.
const animalsPerFeed = 4

// LivestockSystem grows tended herds and collects their yields. Herds are
// fed wheat; unfed or winter herds do not breed. Slaughter for meat keeps a
// breeding pair.
type LivestockSystem struct {
	g *game.Game
}

func NewLivestockSystem(g *game.Game) *LivestockSystem {
	return &LivestockSystem{g: g}
}

func (s *LivestockSystem) Stage() coresys.Stage { return coresys.StageLivestock }

func (s *LivestockSystem) Update(_ uint64) {
	g := s.g
	ecs.Each2(g.C.Building, g.C.Livestock, func(id ecs.EntityID, b *component.Building, l *component.Livestock) {
		if !operating(b) {
			return
		}
		def, ok := g.Defs().Get(b.Type)
		if !ok || def.Livestock == nil {
			return
		}
		herders := g.OnSiteCrew(id).Workers
		if herders == 0 {
			return
		}
		l.Timer++
		if l.Timer < def.Livestock.Interval {
			return
		}
		l.Timer = 0

		feed := (l.Count + animalsPerFeed - 1) / animalsPerFeed
		fed := g.Resources.RemoveResource(economy.Wheat, feed) == feed
		if fed && g.Season() != world.Winter {
			l.Growth += def.Livestock.BreedRate * float64(l.Count/2)
			for l.Growth >= 1 && l.Count < l.Capacity {
				l.Count++
				l.Growth--
			}
			if l.Count >= l.Capacity {
				l.Growth = 0
			}
		}

		share := max(1, l.Count/animalsPerFeed)
		for _, y := range def.Livestock.Yields {
			if y.Type == economy.Meat {
				if l.Count <= 2 {
					continue
				}
				l.Count--
				g.Resources.AddResourceRespectingLimit(y.Type, y.Amount*animalsPerFeed)
				continue
			}
			g.Resources.AddResourceRespectingLimit(y.Type, y.Amount*share*herders)
		}
	})
}
