// Package scripting evaluates tunable gameplay formulas in Lua.
package scripting

// WorkContext describes the crew on a construction, upgrade or demolition site.
type WorkContext struct {
	Workers   int
	Education float64 // mean education of the crew, [0,1]
}

// DecayContext describes a building losing durability.
type DecayContext struct {
	Durability float64
	DecayRate  float64
	Weather    string
	Age        int // ticks since completion
}

// BirthContext describes a household that may have a child.
type BirthContext struct {
	Residents int
	Happiness float64 // mean, [0,100]
	Food      int     // settlement food stock
}

// Formulas is the set of tunable calculations the simulation uses.
type Formulas interface {
	// CalcConstructionWork returns work units contributed this tick.
	CalcConstructionWork(ctx WorkContext) float64
	// CalcBuildingDecay returns durability lost this pass.
	CalcBuildingDecay(ctx DecayContext) float64
	// CalcBirthChance returns the per-pass birth probability.
	CalcBirthChance(ctx BirthContext) float64
}
