package system

import (
	"slices"

	coresys "github.com/hearthfall/settlement/internal/core/system"
	"github.com/hearthfall/settlement/internal/game"
)

// ConstructionSystem applies on-site crew work to construction sites,
// upgrades and demolitions through the lifecycle operations.
type ConstructionSystem struct {
	g *game.Game
}

func NewConstructionSystem(g *game.Game) *ConstructionSystem {
	return &ConstructionSystem{g: g}
}

func (s *ConstructionSystem) Stage() coresys.Stage { return coresys.StageConstruction }

func (s *ConstructionSystem) Update(_ uint64) {
	g := s.g
	// demolition destroys entities mid-walk
	for _, id := range slices.Clone(g.C.Building.IDs()) {
		b, ok := g.C.Building.Get(id)
		if !ok {
			continue
		}
		switch {
		case !b.Completed:
			g.AdvanceConstruction(id, g.OnSiteCrew(id))
		case b.Upgrading():
			g.AdvanceUpgrade(id, g.OnSiteCrew(id))
		case b.Demolishing():
			g.AdvanceDemolition(id, g.OnSiteCrew(id))
		}
	}
}
