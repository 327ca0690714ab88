package system

import (
	"sort"
)

// Runner executes systems in stage order each tick.
type Runner struct {
	systems []System
	sorted  bool
}

func NewRunner() *Runner {
	return &Runner{
		systems: make([]System, 0, 16),
	}
}

func (r *Runner) Register(s System) {
	r.systems = append(r.systems, s)
	r.sorted = false
}

// Tick runs every system once. Systems sharing a stage keep registration order.
func (r *Runner) Tick(tick uint64) {
	r.ensureSorted()
	for _, s := range r.systems {
		s.Update(tick)
	}
}

// TickStage runs only the systems of the given stage.
func (r *Runner) TickStage(stage Stage, tick uint64) {
	r.ensureSorted()
	for _, s := range r.systems {
		if s.Stage() == stage {
			s.Update(tick)
		}
	}
}

// Systems returns the registered systems in execution order.
func (r *Runner) Systems() []System {
	r.ensureSorted()
	return r.systems
}

// Stateful returns the systems whose state is persisted, in execution order.
func (r *Runner) Stateful() []Stateful {
	r.ensureSorted()
	var out []Stateful
	for _, s := range r.systems {
		if st, ok := s.(Stateful); ok {
			out = append(out, st)
		}
	}
	return out
}

func (r *Runner) ensureSorted() {
	if !r.sorted {
		sort.SliceStable(r.systems, func(i, j int) bool {
			return r.systems[i].Stage() < r.systems[j].Stage()
		})
		r.sorted = true
	}
}
