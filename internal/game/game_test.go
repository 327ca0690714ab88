package game

import (
	"testing"

	"github.com/hearthfall/settlement/internal/component"
	"github.com/hearthfall/settlement/internal/config"
	"github.com/hearthfall/settlement/internal/core/ecs"
	"github.com/hearthfall/settlement/internal/data"
	"github.com/hearthfall/settlement/internal/economy"
	"github.com/hearthfall/settlement/internal/pathfind"
	"github.com/hearthfall/settlement/internal/rng"
	"github.com/hearthfall/settlement/internal/world"
	"go.uber.org/zap"
)

const testBuildings = `
buildings:
  - type: hut
    width: 2
    height: 2
    cost: { log: 10 }
    work: 10
    house: { capacity: 2 }
    upgrade_to: lodge
    upgrade_cost: { stone: 5 }
    upgrade_work: 10
  - type: lodge
    width: 3
    height: 2
    work: 20
    house: { capacity: 4 }
  - type: workshop
    width: 2
    height: 2
    cost: { log: 80, stone: 1, iron: 20 }
    work: 10
    max_workers: 3
    profession: smith
    producer: { interval: 5, outputs: [{ type: tools, amount: 1 }] }
  - type: barn
    width: 2
    height: 2
    cost: { log: 5 }
    work: 5
    storage: { capacity: 100 }
  - type: iron_mine
    width: 2
    height: 2
    work: 5
    max_workers: 2
    profession: miner
    extraction: { family: mine, resource: iron, radius: 3, vein_size: 10 }
`

func testDeps(t *testing.T) Deps {
	t.Helper()
	defs, err := data.ParseBuildingTable([]byte(testBuildings))
	if err != nil {
		t.Fatalf("parse buildings: %v", err)
	}
	cfg := config.Defaults()
	cfg.Economy.BaseStorageCapacity = 10000
	cfg.Economy.StartingResources = map[string]int{}
	return Deps{Config: cfg, Buildings: defs, Log: zap.NewNop()}
}

// newTestGame builds a game on a flat 32×32 grass map with no settlers.
func newTestGame(t *testing.T) *Game {
	t.Helper()
	g := newGame(testDeps(t), rng.New(1))
	g.Map = world.NewMap(32, 32)
	g.Paths = pathfind.NewAStar(g.Map)
	return g
}

func mustPlace(t *testing.T, g *Game, typ string, x, y int, completed bool) ecs.EntityID {
	t.Helper()
	var id ecs.EntityID
	var ok bool
	if completed {
		id, ok = g.PlaceCompleted(typ, x, y)
	} else {
		id, ok = g.PlaceBuilding(typ, x, y)
	}
	if !ok {
		t.Fatalf("place %s at %d,%d failed", typ, x, y)
	}
	return id
}

func checkRoster(t *testing.T, g *Game) {
	t.Helper()
	if err := g.CheckRosterInvariant(); err != nil {
		t.Fatalf("roster invariant: %v", err)
	}
}

func building(t *testing.T, g *Game, id ecs.EntityID) *component.Building {
	t.Helper()
	b, ok := g.C.Building.Get(id)
	if !ok {
		t.Fatalf("building %v missing", id)
	}
	return b
}

func worker(t *testing.T, g *Game, id ecs.EntityID) *component.Worker {
	t.Helper()
	w, ok := g.C.Worker.Get(id)
	if !ok {
		t.Fatalf("worker %v missing", id)
	}
	return w
}

func TestPlaceBuildingOccupiesFootprint(t *testing.T) {
	g := newTestGame(t)
	id := mustPlace(t, g, "hut", 4, 4, false)
	if g.Map.At(5, 5).BuildingID != id {
		t.Fatalf("expected footprint held by %v", id)
	}
	if _, ok := g.PlaceBuilding("hut", 5, 5); ok {
		t.Fatalf("expected overlap refused")
	}
	if _, ok := g.PlaceBuilding("castle", 20, 20); ok {
		t.Fatalf("expected unknown type refused")
	}
	if b := building(t, g, id); b.Completed || b.Progress != 0 {
		t.Fatalf("expected fresh construction site, got %+v", b)
	}
}

func TestConstructionDeductsMaterialsAtomically(t *testing.T) {
	g := newTestGame(t)
	id := mustPlace(t, g, "hut", 4, 4, false)
	g.Resources.AddResource(economy.Log, 9)

	if g.AdvanceConstruction(id, Crew{Workers: 2}) {
		t.Fatalf("should not complete without materials")
	}
	b := building(t, g, id)
	if b.Progress != 0 || b.MaterialsDelivered {
		t.Fatalf("expected no progress without materials, got %+v", b)
	}
	if g.Resources.GetResource(economy.Log) != 9 {
		t.Fatalf("expected no partial deduction")
	}

	g.Resources.AddResource(economy.Log, 1)
	g.AdvanceConstruction(id, Crew{Workers: 1})
	if !b.MaterialsDelivered || g.Resources.GetResource(economy.Log) != 0 {
		t.Fatalf("expected materials deducted on first contribution")
	}
	if b.Progress <= 0 {
		t.Fatalf("expected progress")
	}

	g.Resources.AddResource(economy.Log, 10)
	completed := false
	for i := 0; i < 50 && !completed; i++ {
		completed = g.AdvanceConstruction(id, Crew{Workers: 1})
	}
	if !completed || !b.Completed {
		t.Fatalf("expected completion")
	}
	if g.Resources.GetResource(economy.Log) != 10 {
		t.Fatalf("materials must be deducted only once")
	}
	if _, ok := g.C.House.Get(id); !ok {
		t.Fatalf("expected house attached on completion")
	}
}

func TestConstructionWithoutCrewWithholdsProgress(t *testing.T) {
	g := newTestGame(t)
	id := mustPlace(t, g, "hut", 4, 4, false)
	g.Resources.AddResource(economy.Log, 10)
	g.AdvanceConstruction(id, Crew{})
	if b := building(t, g, id); b.MaterialsDelivered || b.Progress != 0 {
		t.Fatalf("no crew should mean no change, got %+v", b)
	}
}

func TestInitiateDemolitionRejectsConstructionSite(t *testing.T) {
	g := newTestGame(t)
	id := mustPlace(t, g, "workshop", 4, 4, false)
	c := g.SpawnCitizen(1, 1, CitizenOpts{})
	if !g.AssignWorkerToBuilding(c, id) {
		t.Fatalf("assign to site failed")
	}
	g.Resources.AddResource(economy.Log, 50)

	before := *building(t, g, id)
	beforeWorkers := append([]ecs.EntityID(nil), before.Workers...)
	ledger := g.Resources.Snapshot()

	if g.InitiateDemolition(id) {
		t.Fatalf("expected demolition of a construction site refused")
	}
	after := building(t, g, id)
	if after.Demolishing() || after.Completed != before.Completed || after.Progress != before.Progress {
		t.Fatalf("building state changed: %+v", after)
	}
	if len(after.Workers) != len(beforeWorkers) || after.Workers[0] != beforeWorkers[0] {
		t.Fatalf("roster changed: %v", after.Workers)
	}
	if got := g.Resources.Snapshot(); len(got.Ledger) != len(ledger.Ledger) || got.Ledger[0] != ledger.Ledger[0] {
		t.Fatalf("ledger changed: %+v", got)
	}
	checkRoster(t, g)
}

func TestDemolitionRoutesSalvageThroughWorkers(t *testing.T) {
	g := newTestGame(t)
	id := mustPlace(t, g, "workshop", 4, 4, true)
	a := g.SpawnCitizen(1, 1, CitizenOpts{})
	b := g.SpawnCitizen(1, 2, CitizenOpts{})
	if !g.AssignWorkerToBuilding(a, id) || !g.AssignWorkerToBuilding(b, id) {
		t.Fatalf("assign failed")
	}

	if !g.InitiateDemolition(id) {
		t.Fatalf("initiate demolition failed")
	}
	refund := building(t, g, id).Demolition.Refund
	want := map[economy.Resource]int{economy.Log: 40, economy.Iron: 10}
	if len(refund) != len(want) {
		t.Fatalf("unexpected refund %v", refund)
	}
	for _, r := range refund {
		if want[r.Type] != r.Amount {
			t.Fatalf("unexpected refund entry %v", r)
		}
	}
	if g.InitiateDemolition(id) {
		t.Fatalf("second demolition must be refused")
	}

	if !g.CompleteDemolition(id) {
		t.Fatalf("complete demolition failed")
	}
	if g.World.Alive(id) {
		t.Fatalf("expected entity destroyed")
	}
	if g.Map.At(4, 4).Occupied {
		t.Fatalf("expected tiles released")
	}
	carried := map[economy.Resource]int{}
	for _, wid := range []ecs.EntityID{a, b} {
		w := worker(t, g, wid)
		if len(w.Deliveries) != 1 {
			t.Fatalf("worker %v: expected one delivery, got %v", wid, w.Deliveries)
		}
		if w.Task != component.TaskSalvage || w.Profession != component.Laborer || !w.WorkplaceID.IsZero() {
			t.Fatalf("worker %v: unexpected state %+v", wid, w)
		}
		d := w.Deliveries[0]
		if _, dup := carried[d.Type]; dup {
			t.Fatalf("resource %s split across carriers", d.Type)
		}
		carried[d.Type] = d.Amount
	}
	for r, n := range want {
		if carried[r] != n {
			t.Fatalf("expected %d %s carried, got %d", n, r, carried[r])
		}
	}
	if g.Resources.GetResource(economy.Log) != 0 || g.Resources.GetResource(economy.Iron) != 0 {
		t.Fatalf("salvage must not be credited while carried")
	}
	checkRoster(t, g)
}

func TestDemolitionWithoutWorkersCreditsLedger(t *testing.T) {
	g := newTestGame(t)
	id := mustPlace(t, g, "workshop", 4, 4, true)
	if !g.InitiateDemolition(id) || !g.CompleteDemolition(id) {
		t.Fatalf("demolition failed")
	}
	if g.Resources.GetResource(economy.Log) != 40 || g.Resources.GetResource(economy.Iron) != 10 {
		t.Fatalf("expected refund credited directly, got log=%d iron=%d",
			g.Resources.GetResource(economy.Log), g.Resources.GetResource(economy.Iron))
	}
	if g.Resources.GetResource(economy.Stone) != 0 {
		t.Fatalf("floor(1×0.5) must refund nothing")
	}
}

func TestDemolitionEvictsResidentsAndReturnsInventory(t *testing.T) {
	g := newTestGame(t)
	hut := mustPlace(t, g, "hut", 4, 4, true)
	barn := mustPlace(t, g, "barn", 10, 10, true)
	c := g.SpawnCitizen(1, 1, CitizenOpts{})
	cit, _ := g.C.Citizen.Get(c)
	h, _ := g.C.House.Get(hut)
	if !g.MoveIn(c, hut) {
		t.Fatalf("move in failed")
	}
	cit.InsideID = hut

	if !g.InitiateDemolition(hut) {
		t.Fatalf("demolish hut failed")
	}
	if !cit.HomeID.IsZero() || !cit.InsideID.IsZero() || len(h.Residents) != 0 {
		t.Fatalf("expected resident evicted on initiation")
	}

	s, _ := g.C.Storage.Get(barn)
	s.Inventory[economy.Wool] = 7
	capBefore := g.Resources.GetStorageCapacity()
	if !g.InitiateDemolition(barn) || !g.CompleteDemolition(barn) {
		t.Fatalf("demolish barn failed")
	}
	if g.Resources.GetResource(economy.Wool) != 7 {
		t.Fatalf("expected stored inventory returned to ledger")
	}
	if g.Resources.GetStorageCapacity() != capBefore-100 {
		t.Fatalf("expected storage capacity reduced, got %d", g.Resources.GetStorageCapacity())
	}
}

func TestReassignWorker(t *testing.T) {
	g := newTestGame(t)
	a := mustPlace(t, g, "workshop", 2, 2, true)
	b := mustPlace(t, g, "workshop", 10, 2, true)
	c := g.SpawnCitizen(1, 1, CitizenOpts{})
	if !g.AssignWorkerToBuilding(c, a) {
		t.Fatalf("assign to a failed")
	}
	w := worker(t, g, c)
	if w.Profession != component.Smith || !w.ManualAssignment {
		t.Fatalf("unexpected worker after assign %+v", w)
	}
	w.Carry = &economy.Amount{Type: economy.Iron, Amount: 3}
	w.Gather = component.GatherHarvesting
	w.GatherTarget = &world.Point{X: 1, Y: 1}
	w.Task = component.TaskWork
	mv, _ := g.C.Movement.Get(c)
	mv.Target = &world.Point{X: 3, Y: 3}
	mv.Path = []world.Point{{X: 2, Y: 2}}

	if !g.AssignWorkerToBuilding(c, b) {
		t.Fatalf("reassign failed")
	}
	for _, id := range building(t, g, a).Workers {
		if id == c {
			t.Fatalf("worker still in old roster")
		}
	}
	n := 0
	for _, id := range building(t, g, b).Workers {
		if id == c {
			n++
		}
	}
	if n != 1 {
		t.Fatalf("expected worker once in new roster, got %d", n)
	}
	if w.HasTransientState() {
		t.Fatalf("expected transient state cleared, got %+v", w)
	}
	if got := g.Resources.GetResource(economy.Iron); got != 3 {
		t.Fatalf("expected carried iron dropped into ledger, got %d", got)
	}
	if mv.Target != nil || mv.Path != nil {
		t.Fatalf("expected movement cleared")
	}
	checkRoster(t, g)
}

func TestReassignedSalvageCarrierKeepsSalvage(t *testing.T) {
	g := newTestGame(t)
	shop := mustPlace(t, g, "workshop", 4, 4, true)
	a := mustPlace(t, g, "workshop", 12, 4, true)
	b := mustPlace(t, g, "workshop", 20, 4, true)
	c := g.SpawnCitizen(1, 1, CitizenOpts{})
	if !g.AssignWorkerToBuilding(c, shop) {
		t.Fatalf("assign failed")
	}
	if !g.InitiateDemolition(shop) || !g.CompleteDemolition(shop) {
		t.Fatalf("demolition failed")
	}
	w := worker(t, g, c)
	if len(w.Deliveries) != 2 {
		t.Fatalf("expected the lone worker to carry both refunds, got %v", w.Deliveries)
	}

	if !g.AssignWorkerToBuilding(c, a) {
		t.Fatalf("assign to a failed")
	}
	if len(w.Deliveries) != 2 || g.Resources.GetResource(economy.Log) != 0 {
		t.Fatalf("salvage must stay with the carrier until it is released")
	}
	if !g.AssignWorkerToBuilding(c, b) {
		t.Fatalf("reassign failed")
	}
	if len(w.Deliveries) != 0 {
		t.Fatalf("expected deliveries cleared, got %v", w.Deliveries)
	}
	if g.Resources.GetResource(economy.Log) != 40 || g.Resources.GetResource(economy.Iron) != 10 {
		t.Fatalf("expected salvage credited on reassignment, got log=%d iron=%d",
			g.Resources.GetResource(economy.Log), g.Resources.GetResource(economy.Iron))
	}

	w.Deliveries = []economy.Amount{{Type: economy.Stone, Amount: 4}}
	if !g.UnassignWorker(c) {
		t.Fatalf("unassign failed")
	}
	if g.Resources.GetResource(economy.Stone) != 4 || len(w.Deliveries) != 0 {
		t.Fatalf("expected pending delivery credited on unassign")
	}
	checkRoster(t, g)
}

func TestAssignToConstructionSiteYieldsLaborer(t *testing.T) {
	g := newTestGame(t)
	site := mustPlace(t, g, "workshop", 2, 2, false)
	c := g.SpawnCitizen(1, 1, CitizenOpts{})
	if !g.AssignWorkerToBuilding(c, site) {
		t.Fatalf("assign failed")
	}
	if w := worker(t, g, c); w.Profession != component.Laborer {
		t.Fatalf("expected laborer on site, got %s", w.Profession)
	}
}

func TestAssignRejectsFullAndMissing(t *testing.T) {
	g := newTestGame(t)
	hut := mustPlace(t, g, "hut", 2, 2, true)
	c := g.SpawnCitizen(1, 1, CitizenOpts{})
	if g.AssignWorkerToBuilding(c, hut) {
		t.Fatalf("houses take no workers")
	}
	if g.AssignWorkerToBuilding(c, 9999) {
		t.Fatalf("expected missing building refused")
	}
	if g.AssignWorkerToBuilding(hut, hut) {
		t.Fatalf("expected non-worker refused")
	}
	if g.UnassignWorker(c) {
		t.Fatalf("unassign of idle worker must be a no-op")
	}
	checkRoster(t, g)
}

func TestReleaseWorkersFromBuilding(t *testing.T) {
	g := newTestGame(t)
	id := mustPlace(t, g, "workshop", 2, 2, true)
	for i := 0; i < 3; i++ {
		c := g.SpawnCitizen(1, i, CitizenOpts{})
		if !g.AssignWorkerToBuilding(c, id) {
			t.Fatalf("assign %d failed", i)
		}
	}
	extra := g.SpawnCitizen(1, 5, CitizenOpts{})
	if g.AssignWorkerToBuilding(extra, id) {
		t.Fatalf("expected full roster refused")
	}
	if n := g.ReleaseWorkersFromBuilding(id); n != 3 {
		t.Fatalf("expected 3 released, got %d", n)
	}
	if len(building(t, g, id).Workers) != 0 {
		t.Fatalf("expected empty roster")
	}
	checkRoster(t, g)
}

func TestMineDepletion(t *testing.T) {
	g := newTestGame(t)
	id := mustPlace(t, g, "iron_mine", 10, 10, true)
	p, _ := g.C.Producer.Get(id)
	if p.VeinRemaining != 10 {
		t.Fatalf("expected full vein, got %d", p.VeinRemaining)
	}
	if g.IsMineOrQuarryDepleted(id) {
		t.Fatalf("fresh mine is not depleted")
	}
	p.VeinRemaining = 0
	if !g.IsMineOrQuarryDepleted(id) {
		t.Fatalf("expected depleted with empty vein and no surface iron")
	}
	c := g.SpawnCitizen(1, 1, CitizenOpts{})
	if g.AssignWorkerToBuilding(c, id) {
		t.Fatalf("depleted mine must refuse workers")
	}

	g.Map.At(12, 13).Iron = 1
	if g.IsMineOrQuarryDepleted(id) {
		t.Fatalf("surface iron in radius should clear depletion")
	}
	g.Map.At(12, 13).Iron = 0
	g.Map.At(25, 25).Iron = 5
	if !g.IsMineOrQuarryDepleted(id) {
		t.Fatalf("iron outside the radius must not count")
	}
}

func TestVeinSurvivesRebuild(t *testing.T) {
	g := newTestGame(t)
	id := mustPlace(t, g, "iron_mine", 10, 10, true)
	p, _ := g.C.Producer.Get(id)
	p.VeinRemaining = 4

	if !g.InitiateDemolition(id) || !g.CompleteDemolition(id) {
		t.Fatalf("demolition failed")
	}
	r, ok := g.LookupVein(VeinKey{Family: "mine", X: 10, Y: 10})
	if !ok || r.Remaining != 4 || r.Max != 10 {
		t.Fatalf("expected reserve 4/10 kept, got %+v %v", r, ok)
	}

	again := mustPlace(t, g, "iron_mine", 10, 10, true)
	p2, _ := g.C.Producer.Get(again)
	if p2.VeinRemaining != 4 {
		t.Fatalf("rebuilt mine should resume at 4, got %d", p2.VeinRemaining)
	}
}

func TestUpgrade(t *testing.T) {
	g := newTestGame(t)
	id := mustPlace(t, g, "hut", 4, 4, true)
	blocker := mustPlace(t, g, "barn", 6, 4, false)

	g.Resources.AddResource(economy.Stone, 5)
	if g.InitiateUpgrade(id) {
		t.Fatalf("expected upgrade blocked by neighbour")
	}
	if g.Resources.GetResource(economy.Stone) != 5 || building(t, g, id).Upgrading() {
		t.Fatalf("blocked upgrade must not change state")
	}

	g.World.DestroyEntity(blocker)
	g.Map.Release(6, 4, 2, 2, blocker)
	g.Resources.RemoveResource(economy.Stone, 1)
	if g.InitiateUpgrade(id) {
		t.Fatalf("expected upgrade refused without resources")
	}
	g.Resources.AddResource(economy.Stone, 1)
	if !g.InitiateUpgrade(id) {
		t.Fatalf("expected upgrade to start")
	}
	if g.Resources.GetResource(economy.Stone) != 0 {
		t.Fatalf("upgrade cost must be deducted on initiation")
	}
	if g.InitiateUpgrade(id) || g.InitiateDemolition(id) {
		t.Fatalf("upgrading building must refuse another upgrade or demolition")
	}
	if g.Map.At(6, 4).BuildingID != id {
		t.Fatalf("expected grown footprint reserved")
	}

	done := false
	for i := 0; i < 100 && !done; i++ {
		done = g.AdvanceUpgrade(id, Crew{Workers: 2})
	}
	b := building(t, g, id)
	if !done || b.Type != "lodge" || b.Upgrading() {
		t.Fatalf("expected lodge, got %+v", b)
	}
	if h, _ := g.C.House.Get(id); h.Capacity != 4 {
		t.Fatalf("expected lodge capacity, got %d", h.Capacity)
	}
	if g.InitiateUpgrade(id) {
		t.Fatalf("lodge has no further upgrade")
	}
}

func TestMoveIn(t *testing.T) {
	g := newTestGame(t)
	hut := mustPlace(t, g, "hut", 4, 4, true)
	other := mustPlace(t, g, "hut", 10, 4, true)
	site := mustPlace(t, g, "hut", 16, 4, false)
	shop := mustPlace(t, g, "workshop", 22, 4, true)
	a := g.SpawnCitizen(1, 1, CitizenOpts{})
	b := g.SpawnCitizen(1, 2, CitizenOpts{})
	c := g.SpawnCitizen(1, 3, CitizenOpts{})

	if g.MoveIn(a, site) || g.MoveIn(a, shop) {
		t.Fatalf("construction sites and non-houses must refuse")
	}
	if !g.MoveIn(a, hut) || !g.MoveIn(b, hut) {
		t.Fatalf("move in failed")
	}
	if !g.MoveIn(a, hut) {
		t.Fatalf("moving into the current home is a no-op success")
	}
	h, _ := g.C.House.Get(hut)
	if g.MoveIn(c, hut) || len(h.Residents) != 2 {
		t.Fatalf("full house must refuse, residents %v", h.Residents)
	}

	if !g.MoveIn(a, other) {
		t.Fatalf("move to other failed")
	}
	ac, _ := g.C.Citizen.Get(a)
	o, _ := g.C.House.Get(other)
	if ac.HomeID != other || len(h.Residents) != 1 || h.Residents[0] != b || len(o.Residents) != 1 {
		t.Fatalf("expected a moved out of hut, hut=%v other=%v", h.Residents, o.Residents)
	}

	if !g.InitiateDemolition(other) {
		t.Fatalf("demolish failed")
	}
	if g.MoveIn(c, other) {
		t.Fatalf("house being demolished must refuse")
	}
	if !ac.HomeID.IsZero() {
		t.Fatalf("expected eviction on demolition")
	}
}

func TestKillCitizenCascades(t *testing.T) {
	g := newTestGame(t)
	hut := mustPlace(t, g, "hut", 4, 4, true)
	shop := mustPlace(t, g, "workshop", 10, 4, true)
	mom := g.SpawnCitizen(1, 1, CitizenOpts{})
	dad := g.SpawnCitizen(1, 2, CitizenOpts{})
	mf, _ := g.C.Family.Get(mom)
	df, _ := g.C.Family.Get(dad)
	mf.Spouse, df.Spouse = dad, mom
	kid := g.SpawnCitizen(1, 3, CitizenOpts{Parents: []ecs.EntityID{mom, dad}})

	h, _ := g.C.House.Get(hut)
	if !g.MoveIn(mom, hut) {
		t.Fatalf("move in failed")
	}
	if !g.AssignWorkerToBuilding(mom, shop) {
		t.Fatalf("assign failed")
	}
	w := worker(t, g, mom)
	w.Carry = &economy.Amount{Type: economy.Tools, Amount: 2}

	if !g.KillCitizen(mom, "test") {
		t.Fatalf("kill failed")
	}
	if g.World.Alive(mom) {
		t.Fatalf("expected entity destroyed")
	}
	if len(h.Residents) != 0 {
		t.Fatalf("expected resident list cleaned")
	}
	if len(building(t, g, shop).Workers) != 0 {
		t.Fatalf("expected roster cleaned")
	}
	if !df.Spouse.IsZero() {
		t.Fatalf("expected spouse link cleared")
	}
	kf, _ := g.C.Family.Get(kid)
	if len(kf.Parents) != 1 || kf.Parents[0] != dad {
		t.Fatalf("expected only dad left as parent, got %v", kf.Parents)
	}
	if g.Resources.GetResource(economy.Tools) != 2 {
		t.Fatalf("expected carried goods dropped into ledger")
	}
	if g.State.Deaths != 1 || g.State.Population != 2 {
		t.Fatalf("unexpected counters deaths=%d pop=%d", g.State.Deaths, g.State.Population)
	}
	if g.KillCitizen(mom, "again") {
		t.Fatalf("killing twice must be a no-op")
	}
	checkRoster(t, g)
}

func TestCollapseBuilding(t *testing.T) {
	g := newTestGame(t)
	id := mustPlace(t, g, "workshop", 4, 4, true)
	c := g.SpawnCitizen(1, 1, CitizenOpts{})
	g.AssignWorkerToBuilding(c, id)
	if !g.CollapseBuilding(id) {
		t.Fatalf("collapse failed")
	}
	if g.World.Alive(id) || g.Map.At(4, 4).Occupied {
		t.Fatalf("expected building and tiles gone")
	}
	if w := worker(t, g, c); !w.WorkplaceID.IsZero() {
		t.Fatalf("expected worker released")
	}
	checkRoster(t, g)
}

func TestLegacyFavoriteFoodIsStable(t *testing.T) {
	g := newTestGame(t)
	c := g.SpawnCitizen(1, 1, CitizenOpts{})
	cit, _ := g.C.Citizen.Get(c)
	cit.FavoriteFood = ""
	first := g.FavoriteFood(c)
	if first != LegacyFavoriteFood(1, c) || !economy.IsFood(first) {
		t.Fatalf("unexpected derived food %q", first)
	}
	if cit.FavoriteFood != "" {
		t.Fatalf("derived preference must not be stored")
	}
}

func TestStepDrainsCommands(t *testing.T) {
	g := newTestGame(t)
	if !g.Submit(PlaceCommand{Type: "hut", X: 3, Y: 3}) {
		t.Fatalf("submit failed")
	}
	g.Step()
	if g.C.Building.Len() != 1 || g.State.Tick != 1 {
		t.Fatalf("expected command applied on step, buildings=%d tick=%d", g.C.Building.Len(), g.State.Tick)
	}
}
