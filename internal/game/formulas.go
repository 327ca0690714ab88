package game

import (
	"math"

	"github.com/hearthfall/settlement/internal/scripting"
)

// DefaultFormulas are the built-in gameplay formulas, used when no script
// engine is configured or a script fails.
type DefaultFormulas struct{}

var _ scripting.Formulas = DefaultFormulas{}

func (DefaultFormulas) CalcConstructionWork(ctx scripting.WorkContext) float64 {
	if ctx.Workers <= 0 {
		return 0
	}
	edu := min(max(ctx.Education, 0), 1)
	return math.Pow(float64(ctx.Workers), 0.9) * (1 + 0.5*edu)
}

func (DefaultFormulas) CalcBuildingDecay(ctx scripting.DecayContext) float64 {
	f := 1.0
	switch ctx.Weather {
	case "rain":
		f = 1.3
	case "snow":
		f = 1.5
	case "storm":
		f = 2.2
	}
	aging := 1 + min(max(float64(ctx.Age)/72000, 0), 1)
	return ctx.DecayRate * f * aging
}

func (DefaultFormulas) CalcBirthChance(ctx scripting.BirthContext) float64 {
	if ctx.Residents < 2 {
		return 0
	}
	fed := min(max(float64(ctx.Food)/float64(ctx.Residents*8), 0), 1)
	mood := min(max((ctx.Happiness-30)/70, 0), 1)
	crowding := min(max(1-float64(ctx.Residents-2)/6, 0.1), 1)
	return 0.04 * fed * mood * crowding
}
