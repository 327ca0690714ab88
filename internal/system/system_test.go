package system

import (
	"bytes"
	"testing"

	"github.com/hearthfall/settlement/internal/component"
	"github.com/hearthfall/settlement/internal/config"
	"github.com/hearthfall/settlement/internal/core/ecs"
	"github.com/hearthfall/settlement/internal/core/event"
	"github.com/hearthfall/settlement/internal/data"
	"github.com/hearthfall/settlement/internal/economy"
	"github.com/hearthfall/settlement/internal/game"
	"github.com/hearthfall/settlement/internal/pathfind"
	"github.com/hearthfall/settlement/internal/world"
	"go.uber.org/zap"
)

func simDeps(t *testing.T, seed int64) game.Deps {
	t.Helper()
	defs, err := data.LoadBuildingTable("../../data/yaml/buildings.yaml")
	if err != nil {
		t.Fatalf("load buildings: %v", err)
	}
	cfg := config.Defaults()
	cfg.Simulation.Seed = seed
	cfg.World.Width, cfg.World.Height = 48, 48
	return game.Deps{Config: cfg, Buildings: defs, Systems: All, Log: zap.NewNop()}
}

func run(g *game.Game, ticks int) {
	for i := 0; i < ticks; i++ {
		g.Step()
	}
}

func snapshotBytes(t *testing.T, g *game.Game) []byte {
	t.Helper()
	save, err := g.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	raw, err := save.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return raw
}

func TestSameSeedSameSettlement(t *testing.T) {
	a := game.New(simDeps(t, 7))
	b := game.New(simDeps(t, 7))
	run(a, 400)
	run(b, 400)
	if !bytes.Equal(snapshotBytes(t, a), snapshotBytes(t, b)) {
		t.Fatalf("two runs from the same seed diverged")
	}
}

func TestResumedRunMatchesUninterrupted(t *testing.T) {
	deps := simDeps(t, 11)
	a := game.New(deps)
	run(a, 300)

	save, err := game.DecodeSave(snapshotBytes(t, a))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	b, err := game.Restore(simDeps(t, 11), save)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	run(a, 300)
	run(b, 300)
	if !bytes.Equal(snapshotBytes(t, a), snapshotBytes(t, b)) {
		t.Fatalf("resumed run diverged from the uninterrupted one")
	}
}

func TestRosterInvariantHoldsThroughARun(t *testing.T) {
	g := game.New(simDeps(t, 3))
	for i := 0; i < 20; i++ {
		run(g, 50)
		if err := g.CheckRosterInvariant(); err != nil {
			t.Fatalf("tick %d: %v", g.Tick(), err)
		}
	}
	if g.C.Citizen.Len() == 0 {
		t.Fatalf("expected the settlement to survive 1000 ticks")
	}
}

const unitBuildings = `
buildings:
  - type: mine
    width: 2
    height: 2
    max_workers: 2
    profession: miner
    extraction: { family: mine, resource: iron, radius: 3, vein_size: 10, yield: 2, interval: 1 }
  - type: barn
    width: 2
    height: 2
    storage: { capacity: 100 }
  - type: hut
    width: 2
    height: 2
    house: { capacity: 4, warmth: 0.5 }
`

// flatGame is a settlement with no founders on an empty grass map.
func flatGame(t *testing.T) *game.Game {
	t.Helper()
	defs, err := data.ParseBuildingTable([]byte(unitBuildings))
	if err != nil {
		t.Fatalf("parse buildings: %v", err)
	}
	cfg := config.Defaults()
	cfg.World.Width, cfg.World.Height = 32, 32
	cfg.Simulation.StartCitizens = 0
	cfg.Economy.StartingResources = map[string]int{}
	g := game.New(game.Deps{Config: cfg, Buildings: defs, Log: zap.NewNop()})
	g.Map = world.NewMap(32, 32)
	g.Paths = pathfind.NewAStar(g.Map)
	return g
}

func TestSeasonChangeIsAnnounced(t *testing.T) {
	g := flatGame(t)
	var got []string
	event.Subscribe(g.Bus, func(ev event.SeasonChanged) { got = append(got, ev.Season) })
	g.SetCalendar(world.Calendar{Year: 1, SubSeason: 1, TickInSubSeason: world.TicksPerSubSeason - 1})
	s := NewSeasonSystem(g)

	s.Update(1)
	g.Bus.Flush()
	if len(got) != 0 {
		t.Fatalf("sub-season rollover inside spring must not announce, got %v", got)
	}
	g.SetCalendar(world.Calendar{Year: 1, SubSeason: 2, TickInSubSeason: world.TicksPerSubSeason - 1})
	s.Update(2)
	g.Bus.Flush()
	if len(got) != 1 || got[0] != "summer" {
		t.Fatalf("expected summer announced, got %v", got)
	}
	if g.Season() != world.Summer {
		t.Fatalf("expected calendar advanced")
	}
}

func TestExtractionUsesSurfaceBeforeVein(t *testing.T) {
	g := flatGame(t)
	mine, _ := g.PlaceCompleted("mine", 10, 10)
	g.Map.At(11, 13).Iron = 3
	w := g.SpawnCitizen(9, 10, game.CitizenOpts{})
	if !g.AssignWorkerToBuilding(w, mine) {
		t.Fatalf("assign failed")
	}
	s := NewProductionSystem(g)
	p, _ := g.C.Producer.Get(mine)

	s.Update(1)
	if g.Map.At(11, 13).Iron != 1 || p.VeinRemaining != 10 {
		t.Fatalf("expected surface dug first, tile=%d vein=%d", g.Map.At(11, 13).Iron, p.VeinRemaining)
	}
	s.Update(2)
	if g.Map.At(11, 13).Iron != 0 || p.VeinRemaining != 9 {
		t.Fatalf("expected vein tapped after surface, tile=%d vein=%d", g.Map.At(11, 13).Iron, p.VeinRemaining)
	}
	if got := g.Resources.GetResource(economy.Iron); got != 4 {
		t.Fatalf("expected 4 iron, got %d", got)
	}

	var depleted int
	event.Subscribe(g.Bus, func(event.MineDepleted) { depleted++ })
	p.VeinRemaining = 0
	s.Update(3)
	s.Update(4)
	g.Bus.Flush()
	if depleted != 1 {
		t.Fatalf("expected one depletion notice, got %d", depleted)
	}
	if !g.IsMineOrQuarryDepleted(mine) {
		t.Fatalf("expected mine depleted")
	}
}

func TestSalvageIsWalkedToStorage(t *testing.T) {
	g := flatGame(t)
	g.PlaceCompleted("barn", 10, 10)
	near := g.SpawnCitizen(9, 10, game.CitizenOpts{Age: 30})
	far := g.SpawnCitizen(1, 1, game.CitizenOpts{Age: 30})
	for _, id := range []ecs.EntityID{near, far} {
		w, _ := g.C.Worker.Get(id)
		w.Task = component.TaskSalvage
		w.Deliveries = []economy.Amount{{Type: economy.Log, Amount: 5}}
	}

	NewCitizenAISystem(g).Update(1)
	if got := g.Resources.GetResource(economy.Log); got != 5 {
		t.Fatalf("expected the adjacent load delivered, got %d", got)
	}
	nw, _ := g.C.Worker.Get(near)
	if len(nw.Deliveries) != 0 || nw.Task != component.TaskIdle {
		t.Fatalf("expected delivering worker freed, got %+v", nw)
	}
	mv, _ := g.C.Movement.Get(far)
	if mv.Target == nil {
		t.Fatalf("expected distant carrier sent toward storage")
	}
}

func TestStorageFullAnnouncedOnce(t *testing.T) {
	g := flatGame(t)
	g.Resources.AddResource(economy.Stone, g.Resources.GetStorageCapacity())
	var full int
	event.Subscribe(g.Bus, func(event.StorageFull) { full++ })
	s := NewStorageSystem(g)
	s.Update(1)
	s.Update(2)
	g.Bus.Flush()
	if full != 1 {
		t.Fatalf("expected one storage_full, got %d", full)
	}

	raw, err := s.SaveState()
	if err != nil {
		t.Fatalf("save state: %v", err)
	}
	fresh := NewStorageSystem(g)
	if err := fresh.LoadState(raw); err != nil {
		t.Fatalf("load state: %v", err)
	}
	fresh.Update(3)
	g.Bus.Flush()
	if full != 1 {
		t.Fatalf("restored system must remember it already announced")
	}
}

func TestParticlesLeaveSimulationRandomAlone(t *testing.T) {
	g := flatGame(t)
	g.PlaceCompleted("mine", 10, 10)
	before := g.Rand.State()
	s := NewParticlesSystem(g)
	for tick := uint64(1); tick <= 20; tick++ {
		s.Update(tick)
	}
	if g.Rand.State() != before {
		t.Fatalf("particles consumed simulation randomness")
	}
	if len(s.Particles()) == 0 {
		t.Fatalf("expected smoke from the working mine")
	}
}

func TestWeatherFollowsSeasonTable(t *testing.T) {
	g := flatGame(t)
	g.SetCalendar(world.Calendar{Year: 1, SubSeason: 10})
	s := NewWeatherSystem(g)
	for i := uint64(1); i <= 5000; i++ {
		s.Update(i)
		if c := s.Current(); c == Rain {
			t.Fatalf("winter never rains, got %s", c)
		}
	}

	raw, _ := s.SaveState()
	fresh := NewWeatherSystem(g)
	if err := fresh.LoadState(raw); err != nil {
		t.Fatalf("load state: %v", err)
	}
	if fresh.Current() != s.Current() {
		t.Fatalf("expected weather restored")
	}
}

func TestMilestoneReachedOnce(t *testing.T) {
	g := flatGame(t)
	for i := 0; i < 10; i++ {
		g.SpawnCitizen(5, 5, game.CitizenOpts{})
	}
	var got []string
	event.Subscribe(g.Bus, func(ev event.MilestoneReached) { got = append(got, ev.Milestone) })
	s := NewMilestoneSystem(g)
	s.Update(milestoneInterval)
	s.Update(2 * milestoneInterval)
	g.Bus.Flush()
	if len(got) != 1 || got[0] != "hamlet" {
		t.Fatalf("expected hamlet once, got %v", got)
	}
}

func TestBirthNeedsACouple(t *testing.T) {
	g := flatGame(t)
	hut, _ := g.PlaceCompleted("hut", 10, 10)
	female, male := component.Female, component.Male
	mom := g.SpawnCitizen(9, 10, game.CitizenOpts{Age: 25, Sex: &female})
	dad := g.SpawnCitizen(9, 11, game.CitizenOpts{Age: 27, Sex: &male})
	h, _ := g.C.House.Get(hut)
	g.Resources.AddResource(economy.Bread, 100)
	for _, id := range []ecs.EntityID{mom, dad} {
		if !g.MoveIn(id, hut) {
			t.Fatalf("move in failed")
		}
		c, _ := g.C.Citizen.Get(id)
		c.Happiness = 100
	}

	s := NewPopulationSystem(g)
	// stay off year boundaries so nobody ages out
	for tick := uint64(birthInterval); g.State.Births == 0 && tick < birthInterval*600; tick += birthInterval {
		if tick%ticksPerYear != 0 {
			s.Update(tick)
		}
	}
	if g.State.Births == 0 {
		t.Fatalf("expected a birth eventually")
	}
	mf, _ := g.C.Family.Get(mom)
	if mf.Spouse != dad || len(mf.Children) != 1 {
		t.Fatalf("expected married parents with a child, got %+v", mf)
	}
	if len(h.Residents) != 3 {
		t.Fatalf("expected child housed, got %v", h.Residents)
	}
}

func TestNotifierSuppressesBursts(t *testing.T) {
	bus := event.NewBus()
	n := NewNotifier(bus, zap.NewNop())
	for i := 0; i < notifyBurst+10; i++ {
		bus.Emit(event.StorageFull{})
	}
	bus.Flush()
	if n.Dropped() == 0 {
		t.Fatalf("expected part of the burst suppressed")
	}
}

func TestNotifierMessages(t *testing.T) {
	if got := message(event.FestivalStarted{Festival: "harvest_feast"}); got != "harvest_feast begins" {
		t.Fatalf("unexpected festival message %q", got)
	}
	if got := message(event.FestivalEnded{Festival: "harvest_feast"}); got != "festival_ended" {
		t.Fatalf("expected the event name as fallback, got %q", got)
	}
}
