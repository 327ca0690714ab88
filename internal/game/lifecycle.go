package game

import (
	"math"
	"slices"

	"github.com/hearthfall/settlement/internal/component"
	"github.com/hearthfall/settlement/internal/core/ecs"
	"github.com/hearthfall/settlement/internal/core/event"
	"github.com/hearthfall/settlement/internal/data"
	"github.com/hearthfall/settlement/internal/economy"
	"github.com/hearthfall/settlement/internal/scripting"
	"go.uber.org/zap"
)

// demolitionEffort is the share of construction work needed to tear down.
const demolitionEffort = 0.5

func (g *Game) work(crew Crew) float64 {
	if crew.Workers <= 0 {
		return 0
	}
	return g.formulas.CalcConstructionWork(scripting.WorkContext{
		Workers:   crew.Workers,
		Education: crew.Education,
	})
}

// AdvanceConstruction applies one tick of crew work to a building under
// construction and reports whether it completed. Materials are deducted in
// full on the first contribution; without them, or without a crew, nothing
// happens.
func (g *Game) AdvanceConstruction(id ecs.EntityID, crew Crew) bool {
	b, ok := g.C.Building.Get(id)
	if !ok || b.Completed || crew.Workers <= 0 {
		return false
	}
	def, ok := g.defs.Get(b.Type)
	if !ok {
		return false
	}
	if !b.MaterialsDelivered {
		if !g.Resources.RemoveAll(def.Cost) {
			return false
		}
		b.MaterialsDelivered = true
	}
	b.Progress = min(1, b.Progress+g.work(crew)/def.Work)
	if b.Progress < 1 {
		return false
	}
	g.completeConstruction(id, b, def)
	return true
}

func (g *Game) completeConstruction(id ecs.EntityID, b *component.Building, def *data.BuildingDef) {
	b.Completed = true
	b.Progress = 1
	b.MaterialsDelivered = true
	b.BuiltTick = g.State.Tick
	b.MaxDurability = def.MaxDurability
	b.Durability = def.MaxDurability
	g.attachCompletionComponents(id, def)
	g.trimRoster(id)
	if def.Storage != nil {
		g.RecomputeStorageCapacity()
	}
	g.Bus.Emit(event.BuildingCompleted{Building: id, Type: b.Type})
}

// attachCompletionComponents adds or refreshes the operating components
// def calls for. Existing residents, inventory and herds are kept.
func (g *Game) attachCompletionComponents(id ecs.EntityID, def *data.BuildingDef) {
	if def.Storage != nil {
		s, ok := g.C.Storage.Get(id)
		if !ok {
			s = &component.Storage{Inventory: make(map[economy.Resource]int)}
			g.C.Storage.Set(id, s)
		}
		s.Capacity = def.Storage.Capacity
	}
	if def.House != nil {
		h, ok := g.C.House.Get(id)
		if !ok {
			h = &component.House{}
			g.C.House.Set(id, h)
		}
		h.Capacity = def.House.Capacity
		h.Warmth = def.House.Warmth
		for len(h.Residents) > h.Capacity {
			g.evictResident(h, h.Residents[len(h.Residents)-1])
		}
	}
	if def.Producer != nil || def.Extraction != nil || def.Gather != nil || def.Trading != nil {
		p, ok := g.C.Producer.Get(id)
		if !ok {
			p = &component.Producer{}
			g.C.Producer.Set(id, p)
		}
		if def.Extraction != nil {
			if r, ok := g.GetOrCreateMineVeinReserve(id); ok {
				p.VeinRemaining = r.Remaining
			}
		}
	}
	if def.Livestock != nil {
		l, ok := g.C.Livestock.Get(id)
		if !ok {
			l = &component.Livestock{Animal: def.Livestock.Animal, Count: def.Livestock.Initial}
			g.C.Livestock.Set(id, l)
		}
		l.Capacity = def.Livestock.Capacity
		l.Count = min(l.Count, l.Capacity)
	}
}

// InitiateUpgrade starts upgrading a completed, idle building. The upgrade
// cost is deducted now; a larger footprint must be unobstructed. On failure
// nothing changes and UpgradeBlocked is emitted.
func (g *Game) InitiateUpgrade(id ecs.EntityID) bool {
	b, ok := g.C.Building.Get(id)
	if !ok || !b.Completed || b.Upgrading() || b.Demolishing() {
		return false
	}
	def, ok := g.defs.Get(b.Type)
	if !ok || def.UpgradeTo == "" {
		return false
	}
	target, ok := g.defs.Get(def.UpgradeTo)
	if !ok {
		return false
	}
	grows := target.Width > b.Width || target.Height > b.Height
	if grows && !g.Map.AreaFreeExcept(b.X, b.Y, target.Width, target.Height, id) {
		g.Bus.Emit(event.UpgradeBlocked{Building: id, Reason: "footprint obstructed"})
		return false
	}
	if !g.Resources.RemoveAll(def.UpgradeCost) {
		g.Bus.Emit(event.UpgradeBlocked{Building: id, Reason: "insufficient resources"})
		return false
	}

	if grows {
		g.Map.Occupy(b.X, b.Y, target.Width, target.Height, id, target.Blocks)
		b.Width, b.Height = target.Width, target.Height
		g.Paths.InvalidateCache()
	}
	b.Upgrade = &component.UpgradeState{Target: target.Type}
	g.Bus.Emit(event.BuildingUpgradeStarted{Building: id, From: b.Type, To: target.Type})
	return true
}

// AdvanceUpgrade applies one tick of crew work to an upgrade and reports
// whether it finished.
func (g *Game) AdvanceUpgrade(id ecs.EntityID, crew Crew) bool {
	b, ok := g.C.Building.Get(id)
	if !ok || !b.Upgrading() || crew.Workers <= 0 {
		return false
	}
	def, ok := g.defs.Get(b.Type)
	if !ok {
		return false
	}
	target, ok := g.defs.Get(b.Upgrade.Target)
	if !ok {
		g.log.Warn("upgrade target vanished", zap.String("target", b.Upgrade.Target))
		b.Upgrade = nil
		return false
	}
	b.Upgrade.Progress = min(1, b.Upgrade.Progress+g.work(crew)/def.UpgradeWork)
	if b.Upgrade.Progress < 1 {
		return false
	}

	from := b.Type
	b.Type = target.Type
	b.Category = target.Category
	b.Upgrade = nil
	b.MaxDurability = target.MaxDurability
	b.Durability = target.MaxDurability
	g.attachCompletionComponents(id, target)
	g.trimRoster(id)
	if target.Storage != nil {
		g.RecomputeStorageCapacity()
	}
	g.Bus.Emit(event.BuildingUpgraded{Building: id, From: from, To: target.Type})
	return true
}

// InitiateDemolition starts tearing down a completed, idle building:
// residents and occupants are evicted, the vein state is recorded and the
// salvage is fixed at floor(cost × reclaim ratio) per material.
func (g *Game) InitiateDemolition(id ecs.EntityID) bool {
	b, ok := g.C.Building.Get(id)
	if !ok || !b.Completed || b.Upgrading() || b.Demolishing() {
		return false
	}
	def, ok := g.defs.Get(b.Type)
	if !ok {
		return false
	}

	if h, ok := g.C.House.Get(id); ok {
		for len(h.Residents) > 0 {
			g.evictResident(h, h.Residents[0])
		}
	}
	g.evictOccupants(id)
	if def.Extraction != nil {
		g.UpdateMineVeinStateFromBuilding(id)
	}

	refund := Refund(def.Cost, g.cfg.Economy.ReclaimRatio)
	b.Demolition = &component.DemolitionState{Refund: refund}
	g.Bus.Emit(event.BuildingDemolitionStarted{Building: id, Type: b.Type, Refund: amountMap(refund)})
	return true
}

// Refund returns floor(amount × ratio) for every cost entry, dropping zeros.
func Refund(cost []economy.Amount, ratio float64) []economy.Amount {
	var out []economy.Amount
	for _, c := range cost {
		n := int(math.Floor(float64(c.Amount) * ratio))
		if n > 0 {
			out = append(out, economy.Amount{Type: c.Type, Amount: n})
		}
	}
	return out
}

// AdvanceDemolition applies one tick of crew work to a demolition and
// completes it when the bar is full.
func (g *Game) AdvanceDemolition(id ecs.EntityID, crew Crew) bool {
	b, ok := g.C.Building.Get(id)
	if !ok || !b.Demolishing() || crew.Workers <= 0 {
		return false
	}
	def, ok := g.defs.Get(b.Type)
	if !ok {
		return false
	}
	b.Demolition.Progress = min(1, b.Demolition.Progress+g.work(crew)/(def.Work*demolitionEffort))
	if b.Demolition.Progress < 1 {
		return false
	}
	return g.CompleteDemolition(id)
}

// CompleteDemolition removes a demolishing building. Stored inventory goes
// back to the ledger. The salvage is handed to the former workers as
// queued deliveries, one material per worker in turn; with no workers it is
// credited to the ledger directly.
func (g *Game) CompleteDemolition(id ecs.EntityID) bool {
	b, ok := g.C.Building.Get(id)
	if !ok || !b.Demolishing() {
		return false
	}
	typ := b.Type
	refund := slices.Clone(b.Demolition.Refund)

	g.Map.Release(b.X, b.Y, b.Width, b.Height, id)
	g.Paths.InvalidateCache()

	if s, ok := g.C.Storage.Get(id); ok {
		for _, a := range orderedInventory(s.Inventory) {
			g.Resources.AddResource(a.Type, a.Amount)
		}
	}

	carriers := g.releaseWorkers(id)
	if len(carriers) == 0 {
		for _, a := range refund {
			g.Resources.AddResource(a.Type, a.Amount)
		}
	} else {
		for i, a := range refund {
			wid := carriers[i%len(carriers)]
			w, _ := g.C.Worker.Get(wid)
			w.Deliveries = append(w.Deliveries, a)
			w.Task = component.TaskSalvage
		}
	}

	g.removeBuilding(id)
	g.Bus.Emit(event.BuildingDemolished{Building: id, Type: typ, Carriers: min(len(carriers), len(refund))})
	return true
}

// CollapseBuilding destroys a building whose durability ran out, in any
// state. Workers and residents are released; stored goods are lost.
func (g *Game) CollapseBuilding(id ecs.EntityID) bool {
	b, ok := g.C.Building.Get(id)
	if !ok {
		return false
	}
	typ := b.Type
	if def, ok := g.defs.Get(typ); ok && def.Extraction != nil && b.Completed {
		g.UpdateMineVeinStateFromBuilding(id)
	}
	if h, ok := g.C.House.Get(id); ok {
		for len(h.Residents) > 0 {
			g.evictResident(h, h.Residents[0])
		}
	}
	g.evictOccupants(id)
	g.releaseWorkers(id)
	g.Map.Release(b.X, b.Y, b.Width, b.Height, id)
	g.Paths.InvalidateCache()
	g.removeBuilding(id)
	g.log.Info("building collapsed", zap.Uint64("building", uint64(id)), zap.String("type", typ))
	g.Bus.Emit(event.BuildingCollapsed{Building: id, Type: typ})
	return true
}

// removeBuilding destroys the entity after every back-reference is gone.
func (g *Game) removeBuilding(id ecs.EntityID) {
	hadStorage := g.C.Storage.Has(id)
	g.C.Citizen.Each(func(_ ecs.EntityID, c *component.Citizen) {
		if c.HomeID == id {
			c.HomeID = 0
		}
		if c.InsideID == id {
			c.InsideID = 0
		}
	})
	g.World.DestroyEntity(id)
	if hadStorage {
		g.RecomputeStorageCapacity()
	}
}

// MoveIn makes house the citizen's home, leaving any previous home. Full
// houses, construction sites and houses being demolished refuse.
func (g *Game) MoveIn(citizen, house ecs.EntityID) bool {
	c, ok := g.C.Citizen.Get(citizen)
	if !ok {
		return false
	}
	h, ok := g.C.House.Get(house)
	if !ok {
		return false
	}
	if c.HomeID == house {
		return true
	}
	b, ok := g.C.Building.Get(house)
	if !ok || !b.Completed || b.Demolishing() || len(h.Residents) >= h.Capacity {
		return false
	}
	if old, ok := g.C.House.Get(c.HomeID); ok {
		g.evictResident(old, citizen)
	}
	h.Residents = append(h.Residents, citizen)
	c.HomeID = house
	return true
}

func (g *Game) evictResident(h *component.House, citizen ecs.EntityID) {
	h.Residents = slices.DeleteFunc(h.Residents, func(id ecs.EntityID) bool { return id == citizen })
	if c, ok := g.C.Citizen.Get(citizen); ok {
		c.HomeID = 0
	}
}

// evictOccupants turns out every citizen currently inside building id.
func (g *Game) evictOccupants(id ecs.EntityID) {
	g.C.Citizen.Each(func(_ ecs.EntityID, c *component.Citizen) {
		if c.InsideID == id {
			c.InsideID = 0
		}
	})
}

// KillCitizen removes a citizen and every reference to it. Goods it was
// carrying are dropped into the ledger.
func (g *Game) KillCitizen(id ecs.EntityID, cause string) bool {
	c, ok := g.C.Citizen.Get(id)
	if !ok {
		return false
	}
	if w, ok := g.C.Worker.Get(id); ok {
		g.dropCargo(w)
		if w.WorkplaceID.IsZero() {
			w.ClearTransient()
		} else {
			g.UnassignWorker(id)
		}
	}
	if h, ok := g.C.House.Get(c.HomeID); ok {
		g.evictResident(h, id)
	}
	if f, ok := g.C.Family.Get(id); ok {
		if sf, ok := g.C.Family.Get(f.Spouse); ok && sf.Spouse == id {
			sf.Spouse = 0
		}
		for _, p := range f.Parents {
			if pf, ok := g.C.Family.Get(p); ok {
				pf.Children = slices.DeleteFunc(pf.Children, func(x ecs.EntityID) bool { return x == id })
			}
		}
		for _, ch := range f.Children {
			if cf, ok := g.C.Family.Get(ch); ok {
				cf.Parents = slices.DeleteFunc(cf.Parents, func(x ecs.EntityID) bool { return x == id })
			}
		}
	}
	if g.State.SelectedEntity == id {
		g.State.SelectedEntity = 0
	}
	g.World.DestroyEntity(id)
	g.State.Deaths++
	g.State.Population = g.C.Citizen.Len()
	g.Bus.Emit(event.CitizenDied{Citizen: id, Cause: cause})
	return true
}

func amountMap(amounts []economy.Amount) map[string]int {
	m := make(map[string]int, len(amounts))
	for _, a := range amounts {
		m[string(a.Type)] += a.Amount
	}
	return m
}

// orderedInventory lists an inventory in ledger order, then unknown types
// alphabetically.
func orderedInventory(inv map[economy.Resource]int) []economy.Amount {
	out := make([]economy.Amount, 0, len(inv))
	for _, r := range economy.All {
		if n := inv[r]; n > 0 {
			out = append(out, economy.Amount{Type: r, Amount: n})
		}
	}
	var extra []economy.Resource
	for r, n := range inv {
		if n > 0 && !slices.Contains(economy.All, r) {
			extra = append(extra, r)
		}
	}
	slices.Sort(extra)
	for _, r := range extra {
		out = append(out, economy.Amount{Type: r, Amount: inv[r]})
	}
	return out
}
