package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM for gameplay formulas.
// Single-goroutine access only (game loop).
type Engine struct {
	vm       *lua.LState
	fallback Formulas
	log      *zap.Logger
}

// NewEngine creates a Lua engine and loads all scripts from the given
// directory. fallback answers whenever a function is missing or fails.
func NewEngine(scriptsDir string, fallback Formulas, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, fallback: fallback, log: log}

	// core first; economy scripts may call helpers defined there
	for _, sub := range []string{"core", "economy"} {
		p := filepath.Join(scriptsDir, sub)
		if err := e.loadDir(p); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}

	return e, nil
}

// loadDir loads all .lua files in a directory in name order.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// Has reports whether a global Lua function is defined.
func (e *Engine) Has(name string) bool {
	_, ok := e.vm.GetGlobal(name).(*lua.LFunction)
	return ok
}

// CalcConstructionWork calls Lua calc_construction_work(ctx).
func (e *Engine) CalcConstructionWork(ctx WorkContext) float64 {
	t := e.vm.NewTable()
	t.RawSetString("workers", lua.LNumber(ctx.Workers))
	t.RawSetString("education", lua.LNumber(ctx.Education))
	v, ok := e.callNumber("calc_construction_work", t)
	if !ok || v < 0 {
		return e.fallback.CalcConstructionWork(ctx)
	}
	return v
}

// CalcBuildingDecay calls Lua calc_building_decay(ctx).
func (e *Engine) CalcBuildingDecay(ctx DecayContext) float64 {
	t := e.vm.NewTable()
	t.RawSetString("durability", lua.LNumber(ctx.Durability))
	t.RawSetString("decay_rate", lua.LNumber(ctx.DecayRate))
	t.RawSetString("weather", lua.LString(ctx.Weather))
	t.RawSetString("age", lua.LNumber(ctx.Age))
	v, ok := e.callNumber("calc_building_decay", t)
	if !ok || v < 0 {
		return e.fallback.CalcBuildingDecay(ctx)
	}
	return v
}

// CalcBirthChance calls Lua calc_birth_chance(ctx). The result is clamped
// to [0,1].
func (e *Engine) CalcBirthChance(ctx BirthContext) float64 {
	t := e.vm.NewTable()
	t.RawSetString("residents", lua.LNumber(ctx.Residents))
	t.RawSetString("happiness", lua.LNumber(ctx.Happiness))
	t.RawSetString("food", lua.LNumber(ctx.Food))
	v, ok := e.callNumber("calc_birth_chance", t)
	if !ok {
		return e.fallback.CalcBirthChance(ctx)
	}
	return min(max(v, 0), 1)
}

// callNumber calls a one-argument Lua function returning a number.
func (e *Engine) callNumber(name string, arg lua.LValue) (float64, bool) {
	fn := e.vm.GetGlobal(name)
	if fn == lua.LNil {
		return 0, false
	}

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, arg); err != nil {
		e.log.Error("lua call error", zap.String("func", name), zap.Error(err))
		return 0, false
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)
	n, ok := result.(lua.LNumber)
	if !ok {
		e.log.Error("lua function returned non-number", zap.String("func", name),
			zap.String("type", result.Type().String()))
		return 0, false
	}
	return float64(n), true
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
