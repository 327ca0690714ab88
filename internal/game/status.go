package game

import (
	"github.com/hearthfall/settlement/internal/component"
	"github.com/hearthfall/settlement/internal/core/ecs"
	"github.com/hearthfall/settlement/internal/economy"
)

// Status is a read-only summary of the simulation for outside observers.
type Status struct {
	Tick            uint64           `json:"tick"`
	Year            int              `json:"year"`
	Season          string           `json:"season"`
	SubSeason       int              `json:"subSeason"`
	Speed           int              `json:"speed"`
	Paused          bool             `json:"paused"`
	Population      int              `json:"population"`
	Births          int              `json:"births"`
	Deaths          int              `json:"deaths"`
	Buildings       int              `json:"buildings"`
	UnderWork       int              `json:"underConstruction"`
	StorageUsed     int              `json:"storageUsed"`
	StorageCapacity int              `json:"storageCapacity"`
	Resources       []economy.Amount `json:"resources"`
}

// Status builds a fresh Status. Call from the game loop only.
func (g *Game) Status() Status {
	s := Status{
		Tick:            g.State.Tick,
		Year:            g.State.Calendar.Year,
		Season:          g.State.Calendar.Season().String(),
		SubSeason:       g.State.Calendar.SubSeason,
		Speed:           g.State.Speed,
		Paused:          g.State.Paused,
		Population:      g.State.Population,
		Births:          g.State.Births,
		Deaths:          g.State.Deaths,
		Buildings:       g.C.Building.Len(),
		StorageUsed:     g.Resources.GetStorageUsed(),
		StorageCapacity: g.Resources.GetStorageCapacity(),
		Resources:       g.Resources.Snapshot().Ledger,
	}
	g.C.Building.Each(func(_ ecs.EntityID, b *component.Building) {
		if !b.Completed || b.Upgrading() || b.Demolishing() {
			s.UnderWork++
		}
	})
	return s
}
