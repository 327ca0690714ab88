package system

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Scheduler is a fixed-timestep loop. Wall-clock time is accumulated and
// converted into whole simulation ticks; the render callback runs once per
// frame with the interpolation fraction between the last two ticks.
//
// Speed n runs the update phase n times per fixed step. Speed 0 is pause: the
// update phase is not called at all and wall time does not accumulate.
// Everything except Stop must be called from the loop goroutine.
type Scheduler struct {
	step       time.Duration
	frame      time.Duration
	maxCatchUp int
	speed      int
	resume     int
	acc        time.Duration
	ticks      uint64

	update    func()
	render    func(alpha float64)
	frameHook func()
	log       *zap.Logger

	stopOnce sync.Once
	stopCh   chan struct{}
}

// SchedulerConfig tunes the loop.
type SchedulerConfig struct {
	Step       time.Duration // simulated time per tick at speed 1
	Frame      time.Duration // render cadence
	MaxCatchUp int           // cap on fixed steps per frame after a stall
	Speed      int
}

func NewScheduler(cfg SchedulerConfig, update func(), render func(alpha float64), log *zap.Logger) *Scheduler {
	if cfg.Step <= 0 {
		cfg.Step = 200 * time.Millisecond
	}
	if cfg.Frame <= 0 {
		cfg.Frame = cfg.Step
	}
	if cfg.MaxCatchUp <= 0 {
		cfg.MaxCatchUp = 5
	}
	if cfg.Speed < 0 {
		cfg.Speed = 1
	}
	if render == nil {
		render = func(float64) {}
	}
	resume := cfg.Speed
	if resume == 0 {
		resume = 1
	}
	return &Scheduler{
		step:       cfg.Step,
		frame:      cfg.Frame,
		maxCatchUp: cfg.MaxCatchUp,
		speed:      cfg.Speed,
		resume:     resume,
		update:     update,
		render:     render,
		log:        log,
		stopCh:     make(chan struct{}),
	}
}

// SetSpeed changes the tick multiplier. Negative speeds are rejected.
func (s *Scheduler) SetSpeed(speed int) bool {
	if speed < 0 {
		return false
	}
	if speed > 0 {
		s.resume = speed
	} else {
		s.acc = 0
	}
	s.speed = speed
	return true
}

func (s *Scheduler) Pause()        { s.SetSpeed(0) }
func (s *Scheduler) Resume()       { s.SetSpeed(s.resume) }
func (s *Scheduler) Speed() int    { return s.speed }
func (s *Scheduler) Paused() bool  { return s.speed == 0 }
func (s *Scheduler) Ticks() uint64 { return s.ticks }

// SetFrameHook installs fn to run at the start of every frame, paused or
// not. Control input (speed, pause) is applied there.
func (s *Scheduler) SetFrameHook(fn func()) { s.frameHook = fn }

// Advance feeds elapsed wall time into the loop, runs the update phase for
// every whole step, renders once, and returns the number of ticks executed.
func (s *Scheduler) Advance(elapsed time.Duration) int {
	if s.frameHook != nil {
		s.frameHook()
	}
	ran := 0
	if s.speed > 0 && elapsed > 0 {
		s.acc += elapsed
		steps := 0
		for s.acc >= s.step {
			if steps >= s.maxCatchUp {
				// Drop the backlog rather than spiral.
				s.log.Debug("scheduler dropped backlog", zap.Duration("backlog", s.acc))
				s.acc = 0
				break
			}
			for i := 0; i < s.speed; i++ {
				s.update()
				s.ticks++
				ran++
			}
			s.acc -= s.step
			steps++
		}
	}
	s.render(float64(s.acc) / float64(s.step))
	return ran
}

// Run drives Advance from a frame ticker until ctx is done or Stop is called.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.frame)
	defer ticker.Stop()
	s.log.Info("scheduler started", zap.Duration("step", s.step), zap.Int("speed", s.speed))
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped", zap.Uint64("ticks", s.ticks))
			return
		case <-s.stopCh:
			s.log.Info("scheduler stopped", zap.Uint64("ticks", s.ticks))
			return
		case now := <-ticker.C:
			s.Advance(now.Sub(last))
			last = now
		}
	}
}

// Stop ends Run. Safe to call from any goroutine, more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}
