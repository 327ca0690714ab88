package game

import (
	"fmt"

	"github.com/hearthfall/settlement/internal/core/ecs"
)

// depletedThreshold is the underground amount at or below which a vein
// counts as exhausted.
const depletedThreshold = 0

// VeinKey locates an underground deposit. It is keyed by extraction family
// and tile, not by entity, so a rebuilt mine resumes the same reserve.
type VeinKey struct {
	Family string `json:"family"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
}

func (k VeinKey) String() string { return fmt.Sprintf("%s@%d,%d", k.Family, k.X, k.Y) }

// VeinReserve is the remaining and original size of a deposit.
type VeinReserve struct {
	Remaining int `json:"remaining"`
	Max       int `json:"max"`
}

// veinKey returns the reserve key of an extraction building.
func (g *Game) veinKey(id ecs.EntityID) (VeinKey, bool) {
	b, ok := g.C.Building.Get(id)
	if !ok {
		return VeinKey{}, false
	}
	def, ok := g.defs.Get(b.Type)
	if !ok || def.Extraction == nil {
		return VeinKey{}, false
	}
	return VeinKey{Family: def.Extraction.Family, X: b.X, Y: b.Y}, true
}

// GetOrCreateMineVeinReserve returns the reserve under an extraction
// building, creating a full one the first time the tile is mined.
func (g *Game) GetOrCreateMineVeinReserve(id ecs.EntityID) (*VeinReserve, bool) {
	key, ok := g.veinKey(id)
	if !ok {
		return nil, false
	}
	if r, ok := g.veins[key]; ok {
		return r, true
	}
	def, _ := g.Def(id)
	r := &VeinReserve{Remaining: def.Extraction.VeinSize, Max: def.Extraction.VeinSize}
	g.veins[key] = r
	return r, true
}

// LookupVein returns a reserve without creating it.
func (g *Game) LookupVein(key VeinKey) (VeinReserve, bool) {
	r, ok := g.veins[key]
	if !ok {
		return VeinReserve{}, false
	}
	return *r, true
}

// UpdateMineVeinStateFromBuilding copies the building's working reserve back
// into the vein map.
func (g *Game) UpdateMineVeinStateFromBuilding(id ecs.EntityID) bool {
	p, ok := g.C.Producer.Get(id)
	if !ok {
		return false
	}
	r, ok := g.GetOrCreateMineVeinReserve(id)
	if !ok {
		return false
	}
	r.Remaining = min(max(p.VeinRemaining, 0), r.Max)
	return true
}

// IsMineOrQuarryDepleted reports whether a completed extraction building
// has exhausted its vein and finds no surface deposit of its resource
// anywhere in its work radius.
func (g *Game) IsMineOrQuarryDepleted(id ecs.EntityID) bool {
	b, ok := g.C.Building.Get(id)
	if !ok || !b.Completed {
		return false
	}
	def, ok := g.defs.Get(b.Type)
	if !ok || def.Extraction == nil {
		return false
	}
	underground := 0
	if p, ok := g.C.Producer.Get(id); ok {
		underground = p.VeinRemaining
	} else if r, ok := g.GetOrCreateMineVeinReserve(id); ok {
		underground = r.Remaining
	}
	if underground > depletedThreshold {
		return false
	}
	cx, cy := b.Center()
	return !g.Map.HasDeposit(cx, cy, def.Extraction.Radius, def.Extraction.Resource)
}

// syncVeins flushes every extraction building's reserve into the vein map.
func (g *Game) syncVeins() {
	for _, id := range g.C.Producer.IDs() {
		if _, ok := g.veinKey(id); ok {
			g.UpdateMineVeinStateFromBuilding(id)
		}
	}
}
