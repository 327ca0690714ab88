package scripting

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

type constFormulas float64

func (c constFormulas) CalcConstructionWork(WorkContext) float64 { return float64(c) }
func (c constFormulas) CalcBuildingDecay(DecayContext) float64   { return float64(c) }
func (c constFormulas) CalcBirthChance(BirthContext) float64     { return float64(c) }

func writeScript(t *testing.T, dir, sub, name, body string) {
	t.Helper()
	p := filepath.Join(dir, sub)
	if err := os.MkdirAll(p, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(p, name), []byte(body), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
}

func TestEngineCallsLua(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "core", "work.lua", `
function calc_construction_work(ctx) return ctx.workers * 2 + ctx.education end
`)
	e, err := NewEngine(dir, constFormulas(-1), zap.NewNop())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	defer e.Close()

	if got := e.CalcConstructionWork(WorkContext{Workers: 3, Education: 0.5}); got != 6.5 {
		t.Fatalf("expected 6.5, got %v", got)
	}
	if !e.Has("calc_construction_work") || e.Has("calc_birth_chance") {
		t.Fatalf("unexpected function table")
	}
}

func TestEngineFallsBackWhenMissing(t *testing.T) {
	e, err := NewEngine(t.TempDir(), constFormulas(0.25), zap.NewNop())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	defer e.Close()
	if got := e.CalcBirthChance(BirthContext{Residents: 2}); got != 0.25 {
		t.Fatalf("expected fallback 0.25, got %v", got)
	}
}

func TestEngineFallsBackOnError(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "economy", "decay.lua", `
function calc_building_decay(ctx) error("boom") end
function calc_birth_chance(ctx) return "lots" end
`)
	e, err := NewEngine(dir, constFormulas(0.5), zap.NewNop())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	defer e.Close()
	if got := e.CalcBuildingDecay(DecayContext{DecayRate: 1}); got != 0.5 {
		t.Fatalf("expected fallback after lua error, got %v", got)
	}
	if got := e.CalcBirthChance(BirthContext{}); got != 0.5 {
		t.Fatalf("expected fallback after non-number, got %v", got)
	}
}

func TestEngineClampsBirthChance(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "economy", "birth.lua", `function calc_birth_chance(ctx) return 7 end`)
	e, err := NewEngine(dir, constFormulas(0), zap.NewNop())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	defer e.Close()
	if got := e.CalcBirthChance(BirthContext{}); got != 1 {
		t.Fatalf("expected clamp to 1, got %v", got)
	}
}

func TestEngineRejectsBrokenScript(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "core", "bad.lua", `function (`)
	if _, err := NewEngine(dir, constFormulas(0), zap.NewNop()); err == nil {
		t.Fatalf("expected syntax error")
	}
}

func TestShippedScripts(t *testing.T) {
	e, err := NewEngine("../../scripts", constFormulas(-1), zap.NewNop())
	if err != nil {
		t.Fatalf("load shipped scripts: %v", err)
	}
	defer e.Close()
	for _, fn := range []string{"calc_construction_work", "calc_building_decay", "calc_birth_chance"} {
		if !e.Has(fn) {
			t.Fatalf("missing %s", fn)
		}
	}
	if w := e.CalcConstructionWork(WorkContext{Workers: 0}); w != 0 {
		t.Fatalf("no crew should do no work, got %v", w)
	}
	if w := e.CalcConstructionWork(WorkContext{Workers: 2, Education: 1}); w <= 0 {
		t.Fatalf("expected positive work, got %v", w)
	}
	if p := e.CalcBirthChance(BirthContext{Residents: 1, Happiness: 100, Food: 100}); p != 0 {
		t.Fatalf("single resident cannot have children, got %v", p)
	}
}
