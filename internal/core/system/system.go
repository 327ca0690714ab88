package system

import "encoding/json"

// Stage defines execution ordering within a single tick. Later stages read
// what earlier stages wrote in the same tick.
type Stage int

const (
	StageSeason       Stage = iota // 0: calendar
	StageCitizenAI                 // 1: choose targets
	StageMovement                  // 2: follow paths
	StageConstruction              // 3: build, upgrade, demolish
	StageProduction                // 4: producers, extraction, gathering
	StageNeeds                     // 5: hunger, warmth, eating
	StageStorage                   // 6: capacity accounting
	StagePopulation                // 7: aging, births, deaths
	StageTrade                     // 8: traders
	StageEnvironment               // 9: regrowth, decay, collapse
	StageDisease                   // 10: sickness
	StageParticles                 // 11: visual only
	StageWeather                   // 12: weather state
	StageFestival                  // 13: festivals
	StageLivestock                 // 14: herds
	StageMilestone                 // 15: milestones
)

// UpdateOrder is the documented per-tick sequence.
var UpdateOrder = []Stage{
	StageSeason,
	StageCitizenAI,
	StageMovement,
	StageConstruction,
	StageProduction,
	StageNeeds,
	StageStorage,
	StagePopulation,
	StageTrade,
	StageEnvironment,
	StageDisease,
	StageParticles,
	StageWeather,
	StageFestival,
	StageLivestock,
	StageMilestone,
}

var stageNames = [...]string{
	"season", "citizen-ai", "movement", "construction", "production", "needs",
	"storage", "population", "trade", "environment", "disease", "particles",
	"weather", "festival", "livestock", "milestone",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "unknown"
	}
	return stageNames[s]
}

// System is the interface every gameplay system implements. Update runs
// exactly once per simulation tick; there is no fractional time.
type System interface {
	Stage() Stage
	Update(tick uint64)
}

// Stateful is implemented by systems carrying cross-tick state (timers,
// active-event flags) that must survive save/restore.
type Stateful interface {
	System
	Name() string
	SaveState() (json.RawMessage, error)
	LoadState(raw json.RawMessage) error
}
