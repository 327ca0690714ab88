// Package game owns the simulation: the entity world, the resource ledger,
// the tile map and the building/worker lifecycle every system goes through.
package game

import (
	"sort"

	"github.com/hearthfall/settlement/internal/component"
	"github.com/hearthfall/settlement/internal/config"
	"github.com/hearthfall/settlement/internal/core/ecs"
	"github.com/hearthfall/settlement/internal/core/event"
	"github.com/hearthfall/settlement/internal/core/system"
	"github.com/hearthfall/settlement/internal/data"
	"github.com/hearthfall/settlement/internal/economy"
	"github.com/hearthfall/settlement/internal/pathfind"
	"github.com/hearthfall/settlement/internal/rng"
	"github.com/hearthfall/settlement/internal/scripting"
	"github.com/hearthfall/settlement/internal/terrain"
	"github.com/hearthfall/settlement/internal/world"
	"go.uber.org/zap"
)

// commandBuffer bounds queued external commands.
const commandBuffer = 64

// Deps are the collaborators a Game is built from.
type Deps struct {
	Config    *config.Config
	Buildings *data.BuildingTable
	Formulas  scripting.Formulas // nil uses DefaultFormulas
	// Systems builds the gameplay systems for g. Called once per Game.
	Systems func(g *Game) []system.System
	Log     *zap.Logger
}

// Game is the orchestrating simulation object.
// Single-goroutine access only (game loop); Submit is the one exception.
type Game struct {
	cfg      *config.Config
	defs     *data.BuildingTable
	formulas scripting.Formulas
	log      *zap.Logger

	World     *ecs.World
	C         component.Stores
	Resources *economy.Manager
	Map       *world.Map
	State     *world.State
	Camera    world.Camera
	Rand      *rng.Random
	Bus       *event.Bus
	Paths     pathfind.Finder
	Runner    *system.Runner

	veins    map[VeinKey]*VeinReserve
	commands chan Command
	postTick []func(tick uint64)
}

func newGame(deps Deps, r *rng.Random) *Game {
	formulas := deps.Formulas
	if formulas == nil {
		formulas = DefaultFormulas{}
	}
	w := ecs.NewWorld()
	g := &Game{
		cfg:       deps.Config,
		defs:      deps.Buildings,
		formulas:  formulas,
		log:       deps.Log,
		World:     w,
		C:         component.Register(w),
		Resources: economy.NewManager(deps.Config.Economy.BaseStorageCapacity, deps.Log),
		State:     world.NewState(),
		Rand:      r,
		Bus:       event.NewBus(),
		Runner:    system.NewRunner(),
		veins:     make(map[VeinKey]*VeinReserve),
		commands:  make(chan Command, commandBuffer),
	}
	g.State.Speed = deps.Config.Simulation.StartSpeed
	for _, k := range sortedKeys(deps.Config.Economy.SoftLimits) {
		g.Resources.SetLimit(economy.Resource(k), deps.Config.Economy.SoftLimits[k])
	}
	return g
}

func (g *Game) registerSystems(deps Deps) {
	if deps.Systems == nil {
		return
	}
	for _, s := range deps.Systems(g) {
		g.Runner.Register(s)
	}
}

// New generates a fresh settlement from the configured seed.
func New(deps Deps) *Game {
	cfg := deps.Config
	g := newGame(deps, rng.New(cfg.Simulation.Seed))
	g.Map = terrain.Generate(cfg.World.Width, cfg.World.Height, g.Rand)
	g.Paths = pathfind.NewAStar(g.Map)

	for _, k := range sortedKeys(cfg.Economy.StartingResources) {
		g.Resources.AddResource(economy.Resource(k), cfg.Economy.StartingResources[k])
	}

	spawn := terrain.FindSpawn(g.Map, 6)
	g.Camera = world.Camera{X: float64(spawn.X), Y: float64(spawn.Y), Zoom: 1}
	g.foundSettlement(spawn, cfg.Simulation.StartCitizens)
	g.RecomputeStorageCapacity()

	g.registerSystems(deps)
	g.log.Info("settlement founded",
		zap.Int64("seed", cfg.Simulation.Seed),
		zap.Int("width", g.Map.Width),
		zap.Int("height", g.Map.Height),
		zap.Int("citizens", g.C.Citizen.Len()),
		zap.Int("buildings", g.C.Building.Len()))
	return g
}

// foundSettlement places the starting barn and houses and the first settlers.
func (g *Game) foundSettlement(spawn world.Point, citizens int) {
	for _, typ := range []string{"storage_barn", "house", "house"} {
		def, ok := g.defs.Get(typ)
		if !ok {
			continue
		}
		site, ok := g.FindSite(def, spawn, 12)
		if !ok {
			continue
		}
		g.PlaceCompleted(typ, site.X, site.Y)
	}
	for i := 0; i < citizens; i++ {
		x := spawn.X + g.Rand.Int(-2, 2)
		y := spawn.Y + g.Rand.Int(-2, 2)
		if !g.Map.Walkable(x, y) {
			x, y = spawn.X, spawn.Y
		}
		g.SpawnCitizen(x, y, CitizenOpts{Age: g.Rand.Int(18, 40)})
	}
}

func (g *Game) Config() *config.Config       { return g.cfg }
func (g *Game) Defs() *data.BuildingTable    { return g.defs }
func (g *Game) Formulas() scripting.Formulas { return g.formulas }
func (g *Game) Log() *zap.Logger             { return g.log }
func (g *Game) Tick() uint64                 { return g.State.Tick }
func (g *Game) Season() world.Season         { return g.State.Calendar.Season() }
func (g *Game) Calendar() world.Calendar     { return g.State.Calendar }
func (g *Game) SetCalendar(c world.Calendar) { g.State.Calendar = c }
func (g *Game) AddPostTick(fn func(uint64))  { g.postTick = append(g.postTick, fn) }
func (g *Game) ReclaimRatio() float64        { return g.cfg.Economy.ReclaimRatio }
func (g *Game) BaseStorageCapacity() int     { return g.cfg.Economy.BaseStorageCapacity }
func (g *Game) Emit(ev event.Event)          { g.Bus.Emit(ev) }

// Def returns the definition of building id.
func (g *Game) Def(id ecs.EntityID) (*data.BuildingDef, bool) {
	b, ok := g.C.Building.Get(id)
	if !ok {
		return nil, false
	}
	return g.defs.Get(b.Type)
}

// Step runs one tick: queued commands, last tick's events, then every
// system in stage order, then post-tick hooks.
func (g *Game) Step() {
	g.drainCommands()
	g.Bus.Flush()
	g.State.Tick++
	tick := g.State.Tick
	g.Runner.Tick(tick)
	for _, fn := range g.postTick {
		fn(tick)
	}
}

// RecomputeStorageCapacity sets the ledger capacity to the base plus every
// completed storage building, and returns it.
func (g *Game) RecomputeStorageCapacity() int {
	total := g.cfg.Economy.BaseStorageCapacity
	ecs.Each2(g.C.Building, g.C.Storage, func(_ ecs.EntityID, b *component.Building, s *component.Storage) {
		if b.Completed {
			total += s.Capacity
		}
	})
	g.Resources.SetStorageCapacity(total)
	return total
}

// FindSite searches outward from near for the first free footprint for def.
func (g *Game) FindSite(def *data.BuildingDef, near world.Point, radius int) (world.Point, bool) {
	for ring := 0; ring <= radius; ring++ {
		for y := near.Y - ring; y <= near.Y+ring; y++ {
			for x := near.X - ring; x <= near.X+ring; x++ {
				if abs(x-near.X) != ring && abs(y-near.Y) != ring {
					continue
				}
				// leave a one-tile lane around every building
				if g.Map.AreaFree(x-1, y-1, def.Width+2, def.Height+2) {
					return world.Point{X: x, Y: y}, true
				}
			}
		}
	}
	return world.Point{}, false
}

// Crew describes workers contributing to a building this tick.
type Crew struct {
	Workers   int
	Education float64 // mean
}

// OnSiteCrew counts roster members standing on or next to the footprint.
func (g *Game) OnSiteCrew(id ecs.EntityID) Crew {
	b, ok := g.C.Building.Get(id)
	if !ok {
		return Crew{}
	}
	var crew Crew
	total := 0.0
	for _, wid := range b.Workers {
		pos, ok := g.C.Position.Get(wid)
		if !ok {
			continue
		}
		t := pos.Tile()
		if t.X < b.X-1 || t.X > b.X+b.Width || t.Y < b.Y-1 || t.Y > b.Y+b.Height {
			continue
		}
		crew.Workers++
		if c, ok := g.C.Citizen.Get(wid); ok {
			total += c.Education
		}
	}
	if crew.Workers > 0 {
		crew.Education = total / float64(crew.Workers)
	}
	return crew
}

// FavoriteFood returns the citizen's stored preference, or for saves that
// predate it, a value derived from the seed and id. The derived value is
// never written back.
func (g *Game) FavoriteFood(id ecs.EntityID) economy.Resource {
	if c, ok := g.C.Citizen.Get(id); ok && c.FavoriteFood != "" {
		return c.FavoriteFood
	}
	return LegacyFavoriteFood(g.Rand.Seed(), id)
}

// LegacyFavoriteFood derives a stable food preference from seed and id.
func LegacyFavoriteFood(seed int64, id ecs.EntityID) economy.Resource {
	h := rng.Hash(seed, uint64(id), "favorite-food")
	return economy.FoodTypes[h%uint64(len(economy.FoodTypes))]
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
