package system

import (
	"encoding/json"
	"slices"
	"testing"
	"time"

	"go.uber.org/zap"
)

type recorder struct {
	stage Stage
	log   *[]Stage
}

func (r recorder) Stage() Stage       { return r.stage }
func (r recorder) Update(tick uint64) { *r.log = append(*r.log, r.stage) }

type statefulRecorder struct {
	recorder
}

func (statefulRecorder) Name() string                        { return "rec" }
func (statefulRecorder) SaveState() (json.RawMessage, error) { return json.RawMessage(`{}`), nil }
func (statefulRecorder) LoadState(json.RawMessage) error     { return nil }

func TestUpdateOrderIsTheDocumentedSequence(t *testing.T) {
	want := []string{
		"season", "citizen-ai", "movement", "construction", "production", "needs",
		"storage", "population", "trade", "environment", "disease", "particles",
		"weather", "festival", "livestock", "milestone",
	}
	var got []string
	for _, s := range UpdateOrder {
		got = append(got, s.String())
	}
	if !slices.Equal(got, want) {
		t.Fatalf("update order changed:\n got %v\nwant %v", got, want)
	}
	for i := 1; i < len(UpdateOrder); i++ {
		if UpdateOrder[i] <= UpdateOrder[i-1] {
			t.Fatalf("stage constants must increase along UpdateOrder")
		}
	}
}

func TestRunnerSortsByStageRegardlessOfRegistration(t *testing.T) {
	var log []Stage
	r := NewRunner()
	for i := len(UpdateOrder) - 1; i >= 0; i-- {
		r.Register(recorder{stage: UpdateOrder[i], log: &log})
	}
	r.Tick(1)
	if !slices.Equal(log, UpdateOrder) {
		t.Fatalf("runner order %v", log)
	}
}

func TestRunnerStatefulFilter(t *testing.T) {
	var log []Stage
	r := NewRunner()
	r.Register(recorder{stage: StageNeeds, log: &log})
	r.Register(statefulRecorder{recorder{stage: StageWeather, log: &log}})
	if got := r.Stateful(); len(got) != 1 || got[0].Name() != "rec" {
		t.Fatalf("unexpected stateful systems %v", got)
	}
}

func newTestScheduler(speed int, updates *int, alphas *[]float64) *Scheduler {
	return NewScheduler(SchedulerConfig{
		Step:       100 * time.Millisecond,
		MaxCatchUp: 4,
		Speed:      speed,
	}, func() { *updates++ }, func(a float64) { *alphas = append(*alphas, a) }, zap.NewNop())
}

func TestSchedulerRunsWholeStepsAndReportsAlpha(t *testing.T) {
	var updates int
	var alphas []float64
	s := newTestScheduler(1, &updates, &alphas)

	if n := s.Advance(250 * time.Millisecond); n != 2 {
		t.Fatalf("expected 2 ticks, got %d", n)
	}
	if a := alphas[len(alphas)-1]; a < 0.49 || a > 0.51 {
		t.Fatalf("expected alpha 0.5, got %f", a)
	}
	s.Advance(50 * time.Millisecond)
	if updates != 3 {
		t.Fatalf("expected leftover to complete a third tick, got %d", updates)
	}
}

func TestSchedulerSpeedMultipliesTicksNotRenders(t *testing.T) {
	var updates int
	var alphas []float64
	s := newTestScheduler(1, &updates, &alphas)
	s.SetSpeed(5)
	s.Advance(100 * time.Millisecond)
	if updates != 5 {
		t.Fatalf("expected 5 ticks at speed 5, got %d", updates)
	}
	if len(alphas) != 1 {
		t.Fatalf("expected a single render per frame, got %d", len(alphas))
	}
}

func TestSchedulerPauseSkipsUpdate(t *testing.T) {
	var updates int
	var alphas []float64
	s := newTestScheduler(2, &updates, &alphas)
	s.Pause()
	s.Advance(time.Second)
	if updates != 0 {
		t.Fatalf("expected no updates while paused, got %d", updates)
	}
	if len(alphas) != 1 {
		t.Fatalf("expected render to continue while paused")
	}
	s.Resume()
	if s.Speed() != 2 {
		t.Fatalf("expected resume to restore speed 2, got %d", s.Speed())
	}
	if s.SetSpeed(-1) {
		t.Fatalf("expected negative speed rejected")
	}
}

func TestSchedulerCapsCatchUp(t *testing.T) {
	var updates int
	var alphas []float64
	s := newTestScheduler(1, &updates, &alphas)
	s.Advance(10 * time.Second)
	if updates != 4 {
		t.Fatalf("expected catch-up capped at 4 ticks, got %d", updates)
	}
}

func TestSchedulerFrameHookRunsWhilePaused(t *testing.T) {
	var updates int
	var alphas []float64
	s := newTestScheduler(1, &updates, &alphas)
	s.Pause()
	hooks := 0
	s.SetFrameHook(func() {
		hooks++
		if hooks == 2 {
			s.Resume()
		}
	})
	s.Advance(time.Second)
	if hooks != 1 || updates != 0 {
		t.Fatalf("expected hook without updates, hooks=%d updates=%d", hooks, updates)
	}
	s.Advance(time.Second)
	if hooks != 2 || updates == 0 {
		t.Fatalf("expected resume from the hook to apply this frame, hooks=%d updates=%d", hooks, updates)
	}
}
