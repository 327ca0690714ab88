package system

import (
	"github.com/hearthfall/settlement/internal/component"
	"github.com/hearthfall/settlement/internal/core/ecs"
	coresys "github.com/hearthfall/settlement/internal/core/system"
	"github.com/hearthfall/settlement/internal/game"
	"github.com/hearthfall/settlement/internal/world"
)

const (
	// jobSearchInterval gates how often idle citizens look for work.
	jobSearchInterval = 20
	// workingAge is the minimum age for taking a workplace.
	workingAge = 14
)

// CitizenAISystem picks where every citizen should be: salvage runs to the
// nearest storage, the workplace during work, home otherwise. It only sets
// movement targets; MovementSystem walks them.
type CitizenAISystem struct {
	g *game.Game
}

func NewCitizenAISystem(g *game.Game) *CitizenAISystem {
	return &CitizenAISystem{g: g}
}

func (s *CitizenAISystem) Stage() coresys.Stage { return coresys.StageCitizenAI }

func (s *CitizenAISystem) Update(tick uint64) {
	g := s.g
	s.settleHomeless()
	ecs.Each2(g.C.Citizen, g.C.Worker, func(id ecs.EntityID, c *component.Citizen, w *component.Worker) {
		if len(w.Deliveries) > 0 || w.Task == component.TaskSalvage {
			s.deliverSalvage(id, w)
			return
		}
		if w.WorkplaceID.IsZero() {
			if c.Age >= workingAge && !w.ManualAssignment && tick%jobSearchInterval == uint64(id)%jobSearchInterval {
				s.findJob(id)
			}
			if w.WorkplaceID.IsZero() {
				s.goHome(id, c, w)
				return
			}
		}
		s.goToWork(id, w)
	})
}

// deliverSalvage walks queued demolition loads to the nearest storage.
// Without any storage building the loads go straight into the ledger.
func (s *CitizenAISystem) deliverSalvage(id ecs.EntityID, w *component.Worker) {
	g := s.g
	here, ok := tileOf(g, id)
	if !ok {
		return
	}
	store, ok := s.nearestStorage(here)
	if !ok || adjacent(store, here) {
		for _, a := range w.Deliveries {
			g.Resources.AddResource(a.Type, a.Amount)
		}
		w.Deliveries = nil
		w.Task = component.TaskIdle
		return
	}
	if dest, ok := approach(g.Map, store, here); ok {
		walkTo(g, id, dest)
	}
}

func (s *CitizenAISystem) nearestStorage(from world.Point) (*component.Building, bool) {
	var best *component.Building
	bestDist := -1
	ecs.Each2(s.g.C.Building, s.g.C.Storage, func(_ ecs.EntityID, b *component.Building, _ *component.Storage) {
		if !operating(b) {
			return
		}
		cx, cy := b.Center()
		d := manhattan(from, world.Point{X: cx, Y: cy})
		if bestDist < 0 || d < bestDist {
			best, bestDist = b, d
		}
	})
	return best, best != nil
}

// findJob auto-assigns an idle citizen. Building work comes first, then
// operating workplaces, lowest id first.
func (s *CitizenAISystem) findJob(id ecs.EntityID) {
	g := s.g
	var site, job ecs.EntityID
	g.C.Building.Each(func(bid ecs.EntityID, b *component.Building) {
		if !site.IsZero() || !g.CanAcceptWorker(bid) {
			return
		}
		if !operating(b) {
			site = bid
			return
		}
		if job.IsZero() {
			job = bid
		}
	})
	switch {
	case !site.IsZero():
		g.AutoAssignWorker(id, site)
	case !job.IsZero():
		g.AutoAssignWorker(id, job)
	}
}

// goToWork sends a worker to its workplace, or leaves an exhausted mine it
// was not deliberately placed at.
func (s *CitizenAISystem) goToWork(id ecs.EntityID, w *component.Worker) {
	g := s.g
	b, ok := g.C.Building.Get(w.WorkplaceID)
	if !ok {
		return
	}
	if !w.ManualAssignment && g.IsMineOrQuarryDepleted(w.WorkplaceID) {
		g.UnassignWorker(id)
		return
	}
	if w.Task == component.TaskGather {
		return
	}
	here, ok := tileOf(g, id)
	if !ok {
		return
	}
	if adjacent(b, here) {
		if w.Task != component.TaskWork {
			w.Task = component.TaskWork
		}
		return
	}
	if moving(g, id) {
		return
	}
	if dest, ok := approach(g.Map, b, here); ok {
		w.Task = component.TaskCommute
		walkTo(g, id, dest)
	}
}

// goHome walks an idle citizen back to its house.
func (s *CitizenAISystem) goHome(id ecs.EntityID, c *component.Citizen, w *component.Worker) {
	g := s.g
	if c.HomeID.IsZero() {
		return
	}
	home, ok := g.C.Building.Get(c.HomeID)
	if !ok {
		return
	}
	here, ok := tileOf(g, id)
	if !ok {
		return
	}
	if adjacent(home, here) {
		c.InsideID = c.HomeID
		w.Task = component.TaskIdle
		return
	}
	if c.InsideID == c.HomeID {
		c.InsideID = 0
	}
	if moving(g, id) {
		return
	}
	if dest, ok := approach(g.Map, home, here); ok {
		w.Task = component.TaskGoHome
		walkTo(g, id, dest)
	}
}

// settleHomeless moves citizens without a home into houses with room.
func (s *CitizenAISystem) settleHomeless() {
	g := s.g
	var vacant []ecs.EntityID
	ecs.Each2(g.C.Building, g.C.House, func(id ecs.EntityID, b *component.Building, h *component.House) {
		if operating(b) && len(h.Residents) < h.Capacity {
			vacant = append(vacant, id)
		}
	})
	if len(vacant) == 0 {
		return
	}
	g.C.Citizen.Each(func(id ecs.EntityID, c *component.Citizen) {
		if !c.HomeID.IsZero() || len(vacant) == 0 {
			return
		}
		if !g.MoveIn(id, vacant[0]) {
			vacant = vacant[1:]
			return
		}
		if h, _ := g.C.House.Get(vacant[0]); len(h.Residents) >= h.Capacity {
			vacant = vacant[1:]
		}
	})
}
