package system

import (
	"github.com/hearthfall/settlement/internal/component"
	"github.com/hearthfall/settlement/internal/core/ecs"
	"github.com/hearthfall/settlement/internal/core/event"
	coresys "github.com/hearthfall/settlement/internal/core/system"
	"github.com/hearthfall/settlement/internal/data"
	"github.com/hearthfall/settlement/internal/economy"
	"github.com/hearthfall/settlement/internal/game"
	"github.com/hearthfall/settlement/internal/world"
	"go.uber.org/zap"
)

// ProductionSystem runs every operating workplace: converters turn inputs
// into outputs, extraction sites dig surface deposits first and then the
// vein, and gatherers walk out, harvest and carry loads home.
type ProductionSystem struct {
	g *game.Game
}

func NewProductionSystem(g *game.Game) *ProductionSystem {
	return &ProductionSystem{g: g}
}

func (s *ProductionSystem) Stage() coresys.Stage { return coresys.StageProduction }

func (s *ProductionSystem) Update(_ uint64) {
	g := s.g
	ecs.Each2(g.C.Building, g.C.Producer, func(id ecs.EntityID, b *component.Building, p *component.Producer) {
		if !operating(b) {
			return
		}
		def, ok := g.Defs().Get(b.Type)
		if !ok {
			return
		}
		switch {
		case def.Extraction != nil:
			s.extract(id, b, def, p)
		case def.Gather != nil:
			s.gather(id, b, def, p)
		case def.Producer != nil:
			s.convert(id, def, p)
		}
	})
}

// convert runs one input/output producer.
func (s *ProductionSystem) convert(id ecs.EntityID, def *data.BuildingDef, p *component.Producer) {
	g := s.g
	pd := def.Producer
	if pd.Season != "" && pd.Season != g.Season().String() {
		p.Timer = 0
		p.Idle = true
		return
	}
	crew := g.OnSiteCrew(id)
	if crew.Workers == 0 {
		p.Idle = true
		return
	}
	p.Timer += crew.Workers
	if p.Timer < pd.Interval*max(def.MaxWorkers, 1) {
		return
	}
	p.Timer = 0
	if !g.Resources.RemoveAll(pd.Inputs) {
		p.Idle = true
		return
	}
	p.Idle = false
	for _, out := range pd.Outputs {
		g.Resources.AddResourceRespectingLimit(out.Type, out.Amount)
	}
	p.Produced++
}

// extract digs at an extraction site. Surface deposits within the radius
// are used up before the underground vein.
func (s *ProductionSystem) extract(id ecs.EntityID, b *component.Building, def *data.BuildingDef, p *component.Producer) {
	g := s.g
	ex := def.Extraction
	crew := g.OnSiteCrew(id)
	if crew.Workers > 0 {
		p.Timer++
	}
	if p.Timer < ex.Interval {
		return
	}
	p.Timer = 0

	want := ex.Yield * crew.Workers
	got := 0
	cx, cy := b.Center()
	for got < want {
		at, ok := g.Map.NearestDeposit(cx, cy, ex.Radius, ex.Resource)
		if !ok {
			break
		}
		got += g.Map.At(at.X, at.Y).Take(ex.Resource, want-got)
	}
	if got < want && p.VeinRemaining > 0 {
		n := min(want-got, p.VeinRemaining)
		p.VeinRemaining -= n
		got += n
	}
	if got > 0 {
		g.Resources.AddResourceRespectingLimit(ex.Resource, got)
		p.Produced += got
		p.Idle = false
		return
	}
	if !p.Idle && g.IsMineOrQuarryDepleted(id) {
		g.UpdateMineVeinStateFromBuilding(id)
		g.Log().Info("extraction site depleted",
			zap.Uint64("building", uint64(id)), zap.String("type", b.Type))
		g.Emit(event.MineDepleted{Building: id, Type: b.Type})
	}
	p.Idle = true
}

// gather drives the per-worker gather cycle: seek a deposit, harvest it,
// carry the load back.
func (s *ProductionSystem) gather(id ecs.EntityID, b *component.Building, def *data.BuildingDef, p *component.Producer) {
	g := s.g
	gd := def.Gather
	for _, wid := range b.Workers {
		w, ok := g.C.Worker.Get(wid)
		if !ok {
			continue
		}
		here, ok := tileOf(g, wid)
		if !ok {
			continue
		}
		switch w.Gather {
		case component.GatherNone:
			if w.Task != component.TaskWork {
				continue
			}
			target, ok := s.nearestWild(b, gd)
			if !ok {
				p.Idle = true
				continue
			}
			stand, ok := besideTile(g.Map, target)
			if !ok {
				continue
			}
			w.Task = component.TaskGather
			w.Gather = component.GatherSeeking
			w.GatherTarget = &target
			walkTo(g, wid, stand)

		case component.GatherSeeking:
			if w.GatherTarget == nil {
				w.ClearTransient()
				continue
			}
			if chebyshev(here, *w.GatherTarget) <= 1 {
				w.Gather = component.GatherHarvesting
				w.GatherTimer = gd.HarvestTime
				continue
			}
			if !moving(g, wid) {
				// unreachable; try another deposit next tick
				w.ClearTransient()
				w.Task = component.TaskWork
			}

		case component.GatherHarvesting:
			if w.GatherTarget == nil {
				w.ClearTransient()
				continue
			}
			if w.GatherTimer > 0 {
				w.GatherTimer--
				continue
			}
			load := s.harvest(*w.GatherTarget, gd)
			w.GatherTarget = nil
			if load.Amount == 0 {
				w.ClearTransient()
				w.Task = component.TaskWork
				continue
			}
			w.Carry = &load
			w.Gather = component.GatherReturning
			if dest, ok := approach(g.Map, b, here); ok {
				walkTo(g, wid, dest)
			}

		case component.GatherReturning:
			if !adjacent(b, here) {
				if !moving(g, wid) {
					if dest, ok := approach(g.Map, b, here); ok {
						walkTo(g, wid, dest)
					}
				}
				continue
			}
			if w.Carry != nil {
				g.Resources.AddResourceRespectingLimit(w.Carry.Type, w.Carry.Amount)
				p.Produced += w.Carry.Amount
				p.Idle = false
			}
			w.ClearTransient()
			w.Task = component.TaskWork
		}
	}
}

// nearestWild finds the closest tile around b with any gatherable resource.
func (s *ProductionSystem) nearestWild(b *component.Building, gd *data.GatherDef) (world.Point, bool) {
	cx, cy := b.Center()
	center := world.Point{X: cx, Y: cy}
	best, bestDist := world.Point{}, -1
	for _, r := range gd.Resources {
		at, ok := s.g.Map.NearestDeposit(cx, cy, gd.Radius, r)
		if !ok {
			continue
		}
		if d := manhattan(center, at); bestDist < 0 || d < bestDist {
			best, bestDist = at, d
		}
	}
	return best, bestDist >= 0
}

// harvest takes up to a full load of the first resource present on at.
func (s *ProductionSystem) harvest(at world.Point, gd *data.GatherDef) economy.Amount {
	t := s.g.Map.At(at.X, at.Y)
	if t == nil {
		return economy.Amount{}
	}
	for _, r := range gd.Resources {
		if n := t.Take(r, gd.Carry); n > 0 {
			return economy.Amount{Type: r, Amount: n}
		}
	}
	return economy.Amount{}
}
