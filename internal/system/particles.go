package system

import (
	"github.com/hearthfall/settlement/internal/component"
	"github.com/hearthfall/settlement/internal/core/ecs"
	coresys "github.com/hearthfall/settlement/internal/core/system"
	"github.com/hearthfall/settlement/internal/game"
	"github.com/hearthfall/settlement/internal/rng"
	"github.com/hearthfall/settlement/internal/world"
)

const (
	maxParticles  = 256
	particleLife  = 40
	smokeInterval = 5
)

// Particle is a purely visual puff drawn by the render layer.
type Particle struct {
	X, Y   float64
	DX, DY float64
	Age    int
	Kind   string
}

// ParticlesSystem emits chimney smoke from working producers and heated
// houses. It draws from rng.Hash instead of the simulation generator and is
// never saved, so it cannot change the outcome of a run.
type ParticlesSystem struct {
	g         *game.Game
	particles []Particle
}

func NewParticlesSystem(g *game.Game) *ParticlesSystem {
	return &ParticlesSystem{g: g, particles: make([]Particle, 0, maxParticles)}
}

func (s *ParticlesSystem) Stage() coresys.Stage { return coresys.StageParticles }

// Particles returns a copy of the live particles.
func (s *ParticlesSystem) Particles() []Particle {
	return append([]Particle(nil), s.particles...)
}

func (s *ParticlesSystem) Update(tick uint64) {
	live := s.particles[:0]
	for _, p := range s.particles {
		p.Age++
		if p.Age >= particleLife {
			continue
		}
		p.X += p.DX
		p.Y += p.DY
		live = append(live, p)
	}
	s.particles = live

	if tick%smokeInterval != 0 {
		return
	}
	g := s.g
	winter := g.Season() == world.Winter
	g.C.Building.Each(func(id ecs.EntityID, b *component.Building) {
		if !operating(b) {
			return
		}
		if p, ok := g.C.Producer.Get(id); ok && !p.Idle {
			s.emit(id, b, tick, "smoke")
			return
		}
		if h, ok := g.C.House.Get(id); ok && winter && len(h.Residents) > 0 {
			s.emit(id, b, tick, "chimney")
		}
	})
}

func (s *ParticlesSystem) emit(id ecs.EntityID, b *component.Building, tick uint64, kind string) {
	if len(s.particles) >= maxParticles {
		return
	}
	h := rng.Hash(s.g.Rand.Seed(), uint64(id)<<32|tick&0xffffffff, kind)
	jitter := func(shift uint) float64 { return float64((h>>shift)&0xff)/255 - 0.5 }
	cx, cy := b.Center()
	s.particles = append(s.particles, Particle{
		X:    float64(cx) + jitter(0)*0.5,
		Y:    float64(cy) - 0.5,
		DX:   jitter(8) * 0.02,
		DY:   -0.03 - (jitter(16)+0.5)*0.02,
		Kind: kind,
	})
}
