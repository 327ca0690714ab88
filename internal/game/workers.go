package game

import (
	"fmt"
	"slices"

	"github.com/hearthfall/settlement/internal/component"
	"github.com/hearthfall/settlement/internal/core/ecs"
	"github.com/hearthfall/settlement/internal/core/event"
	"go.uber.org/zap"
)

// siteCrew is how many laborers a construction site takes.
const siteCrew = 4

// RosterCapacity returns how many workers building id accepts in its
// current state, 0 when it takes none.
func (g *Game) RosterCapacity(id ecs.EntityID) int {
	b, ok := g.C.Building.Get(id)
	if !ok {
		return 0
	}
	def, ok := g.defs.Get(b.Type)
	if !ok {
		return 0
	}
	switch {
	case !b.Completed, b.Upgrading(), b.Demolishing():
		return max(def.MaxWorkers, siteCrew)
	default:
		return def.MaxWorkers
	}
}

// CanAcceptWorker reports whether building id would accept one more worker.
// Full rosters and depleted extraction sites refuse.
func (g *Game) CanAcceptWorker(id ecs.EntityID) bool {
	b, ok := g.C.Building.Get(id)
	if !ok {
		return false
	}
	if len(b.Workers) >= g.RosterCapacity(id) {
		return false
	}
	return !g.IsMineOrQuarryDepleted(id)
}

// AssignWorkerToBuilding moves a worker to building as a manual assignment.
// Any previous workplace is released first.
func (g *Game) AssignWorkerToBuilding(worker, building ecs.EntityID) bool {
	return g.assign(worker, building, true)
}

// AutoAssignWorker is AssignWorkerToBuilding for the citizen AI; the worker
// stays eligible for automatic reassignment.
func (g *Game) AutoAssignWorker(worker, building ecs.EntityID) bool {
	return g.assign(worker, building, false)
}

func (g *Game) assign(worker, building ecs.EntityID, manual bool) bool {
	w, ok := g.C.Worker.Get(worker)
	if !ok {
		return false
	}
	b, ok := g.C.Building.Get(building)
	if !ok {
		return false
	}
	if w.WorkplaceID == building {
		w.ManualAssignment = w.ManualAssignment || manual
		return true
	}
	if !g.CanAcceptWorker(building) {
		return false
	}

	if !w.WorkplaceID.IsZero() {
		g.UnassignWorker(worker)
	}

	w.WorkplaceID = building
	w.ManualAssignment = manual
	w.Profession = g.professionFor(b)
	if mv, ok := g.C.Movement.Get(worker); ok {
		mv.Target = nil
		mv.Path = nil
	}
	b.Workers = append(b.Workers, worker)
	g.Bus.Emit(event.WorkerAssigned{Worker: worker, Building: building})
	return true
}

// professionFor is the profession a worker takes at b. Sites under
// construction always take laborers.
func (g *Game) professionFor(b *component.Building) component.Profession {
	if !b.Completed {
		return component.Laborer
	}
	def, ok := g.defs.Get(b.Type)
	if !ok || def.Profession == "" {
		return component.Laborer
	}
	return component.Profession(def.Profession)
}

// UnassignWorker removes a worker from its workplace and clears every piece
// of task, carry and gather state. Goods in hand or queued for delivery go
// to the ledger.
func (g *Game) UnassignWorker(worker ecs.EntityID) bool {
	w, ok := g.C.Worker.Get(worker)
	if !ok || w.WorkplaceID.IsZero() {
		return false
	}
	old := w.WorkplaceID
	if b, ok := g.C.Building.Get(old); ok {
		b.Workers = slices.DeleteFunc(b.Workers, func(id ecs.EntityID) bool { return id == worker })
	}
	w.WorkplaceID = 0
	w.Profession = component.Laborer
	w.ManualAssignment = false
	g.dropCargo(w)
	w.ClearTransient()
	if c, ok := g.C.Citizen.Get(worker); ok && c.InsideID == old {
		c.InsideID = 0
	}
	if mv, ok := g.C.Movement.Get(worker); ok {
		mv.Target = nil
		mv.Path = nil
	}
	g.Bus.Emit(event.WorkerUnassigned{Worker: worker, Building: old})
	return true
}

// dropCargo credits what w carries or still has to deliver and empties both.
func (g *Game) dropCargo(w *component.Worker) {
	if w.Carry != nil {
		g.Resources.AddResource(w.Carry.Type, w.Carry.Amount)
		w.Carry = nil
	}
	for _, a := range w.Deliveries {
		g.Resources.AddResource(a.Type, a.Amount)
	}
	w.Deliveries = nil
}

// ReleaseWorkersFromBuilding unassigns the whole roster and returns how many
// workers were released.
func (g *Game) ReleaseWorkersFromBuilding(building ecs.EntityID) int {
	return len(g.releaseWorkers(building))
}

func (g *Game) releaseWorkers(building ecs.EntityID) []ecs.EntityID {
	b, ok := g.C.Building.Get(building)
	if !ok || len(b.Workers) == 0 {
		return nil
	}
	roster := slices.Clone(b.Workers)
	released := make([]ecs.EntityID, 0, len(roster))
	for _, wid := range roster {
		if g.UnassignWorker(wid) {
			released = append(released, wid)
			continue
		}
		// Stale entry with no matching workplace; drop it.
		g.log.Warn("dropping stale roster entry",
			zap.Uint64("building", uint64(building)), zap.Uint64("worker", uint64(wid)))
	}
	b.Workers = b.Workers[:0]
	return released
}

// trimRoster releases workers beyond the building's current capacity and
// re-derives every remaining worker's profession.
func (g *Game) trimRoster(id ecs.EntityID) {
	b, ok := g.C.Building.Get(id)
	if !ok {
		return
	}
	limit := g.RosterCapacity(id)
	for len(b.Workers) > limit {
		g.UnassignWorker(b.Workers[len(b.Workers)-1])
	}
	prof := g.professionFor(b)
	for _, wid := range b.Workers {
		if w, ok := g.C.Worker.Get(wid); ok {
			w.Profession = prof
		}
	}
}

// CheckRosterInvariant verifies that every worker's workplace lists it
// exactly once and every roster entry points back at its building.
func (g *Game) CheckRosterInvariant() error {
	var err error
	g.C.Worker.Each(func(id ecs.EntityID, w *component.Worker) {
		if err != nil || w.WorkplaceID.IsZero() {
			return
		}
		b, ok := g.C.Building.Get(w.WorkplaceID)
		if !ok {
			err = fmt.Errorf("worker %v: workplace %v is not a building", id, w.WorkplaceID)
			return
		}
		n := 0
		for _, r := range b.Workers {
			if r == id {
				n++
			}
		}
		if n != 1 {
			err = fmt.Errorf("worker %v: listed %d times in roster of %v", id, n, w.WorkplaceID)
		}
	})
	if err != nil {
		return err
	}
	g.C.Building.Each(func(id ecs.EntityID, b *component.Building) {
		if err != nil {
			return
		}
		for _, wid := range b.Workers {
			w, ok := g.C.Worker.Get(wid)
			if !ok {
				err = fmt.Errorf("building %v: roster entry %v is not a worker", id, wid)
				return
			}
			if w.WorkplaceID != id {
				err = fmt.Errorf("building %v: roster entry %v works at %v", id, wid, w.WorkplaceID)
				return
			}
		}
	})
	return err
}
