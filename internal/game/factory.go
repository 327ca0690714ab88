package game

import (
	"github.com/hearthfall/settlement/internal/component"
	"github.com/hearthfall/settlement/internal/core/ecs"
	"github.com/hearthfall/settlement/internal/core/event"
	"github.com/hearthfall/settlement/internal/economy"
	"github.com/hearthfall/settlement/internal/rng"
	"go.uber.org/zap"
)

// citizenSpeed is the walking speed in tiles per tick.
const citizenSpeed = 0.25

var (
	femaleNames = []string{"Ada", "Brin", "Cora", "Dena", "Elin", "Fay", "Greta", "Hild", "Ines", "Juna", "Kira", "Lise"}
	maleNames   = []string{"Aldo", "Bram", "Cort", "Dag", "Egil", "Finn", "Gus", "Hakon", "Ivo", "Jory", "Knut", "Lorn"}
)

// PlaceBuilding lays out a construction site of typ with its top-left
// corner at (x, y). It fails on unknown types and obstructed footprints.
func (g *Game) PlaceBuilding(typ string, x, y int) (ecs.EntityID, bool) {
	def, ok := g.defs.Get(typ)
	if !ok {
		g.log.Warn("unknown building type",
			zap.String("type", typ), zap.String("suggest", g.defs.Suggest(typ)))
		return 0, false
	}
	if !g.Map.AreaFree(x, y, def.Width, def.Height) {
		return 0, false
	}

	id := g.World.CreateEntity()
	g.C.Building.Set(id, &component.Building{
		Type:          def.Type,
		Category:      def.Category,
		X:             x,
		Y:             y,
		Width:         def.Width,
		Height:        def.Height,
		Workers:       []ecs.EntityID{},
		Durability:    def.MaxDurability,
		MaxDurability: def.MaxDurability,
	})
	g.Map.Occupy(x, y, def.Width, def.Height, id, def.Blocks)
	g.Paths.InvalidateCache()
	g.Bus.Emit(event.BuildingPlaced{Building: id, Type: def.Type, X: x, Y: y})
	return id, true
}

// PlaceCompleted places a building that is already standing, free of cost.
// Used when founding the settlement.
func (g *Game) PlaceCompleted(typ string, x, y int) (ecs.EntityID, bool) {
	id, ok := g.PlaceBuilding(typ, x, y)
	if !ok {
		return 0, false
	}
	b, _ := g.C.Building.Get(id)
	def, _ := g.defs.Get(typ)
	g.completeConstruction(id, b, def)
	return id, true
}

// CitizenOpts customise a new citizen. Zero values are filled in randomly.
type CitizenOpts struct {
	Name      string
	Sex       *component.Sex
	Age       int
	Education float64
	Parents   []ecs.EntityID
}

// SpawnCitizen creates a citizen standing at (x, y).
func (g *Game) SpawnCitizen(x, y int, opts CitizenOpts) ecs.EntityID {
	sex := component.Female
	if opts.Sex != nil {
		sex = *opts.Sex
	} else if g.Rand.Chance(0.5) {
		sex = component.Male
	}
	name := opts.Name
	if name == "" {
		names := femaleNames
		if sex == component.Male {
			names = maleNames
		}
		name, _ = rng.Pick(g.Rand, names)
	}
	food, _ := rng.Pick(g.Rand, economy.FoodTypes)

	id := g.World.CreateEntity()
	fx, fy := float64(x), float64(y)
	g.C.Position.Set(id, &component.Position{X: fx, Y: fy, PrevX: fx, PrevY: fy})
	g.C.Movement.Set(id, &component.Movement{Speed: citizenSpeed})
	g.C.Citizen.Set(id, &component.Citizen{
		Name:         name,
		Sex:          sex,
		Age:          opts.Age,
		BornTick:     g.State.Tick,
		Education:    opts.Education,
		Health:       100,
		Happiness:    60,
		FavoriteFood: food,
	})
	g.C.Worker.Set(id, &component.Worker{Profession: component.Laborer})
	g.C.Needs.Set(id, &component.Needs{})

	fam := &component.Family{}
	for _, p := range opts.Parents {
		pf, ok := g.C.Family.Get(p)
		if !ok {
			continue
		}
		fam.Parents = append(fam.Parents, p)
		pf.Children = append(pf.Children, id)
	}
	g.C.Family.Set(id, fam)

	g.State.Population = g.C.Citizen.Len()
	return id
}
