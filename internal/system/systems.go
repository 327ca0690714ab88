package system

import (
	coresys "github.com/hearthfall/settlement/internal/core/system"
	"github.com/hearthfall/settlement/internal/game"
)

// All builds every gameplay system for g. The runner orders them by stage.
func All(g *game.Game) []coresys.System {
	weather := NewWeatherSystem(g)
	return []coresys.System{
		NewSeasonSystem(g),
		NewCitizenAISystem(g),
		NewMovementSystem(g),
		NewConstructionSystem(g),
		NewProductionSystem(g),
		NewNeedsSystem(g),
		NewStorageSystem(g),
		NewPopulationSystem(g),
		NewTradeSystem(g),
		NewEnvironmentSystem(g, weather),
		NewDiseaseSystem(g),
		NewParticlesSystem(g),
		weather,
		NewFestivalSystem(g),
		NewLivestockSystem(g),
		NewMilestoneSystem(g),
	}
}
