package component

import (
	"github.com/hearthfall/settlement/internal/core/ecs"
	"github.com/hearthfall/settlement/internal/economy"
	"github.com/hearthfall/settlement/internal/world"
)

// Position is a continuous tile-space coordinate. Prev* hold the position at
// the start of the tick so the render phase can interpolate.
type Position struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	PrevX float64 `json:"prevX"`
	PrevY float64 `json:"prevY"`
}

// Tile returns the tile the position falls on.
func (p *Position) Tile() world.Point {
	return world.Point{X: int(p.X + 0.5), Y: int(p.Y + 0.5)}
}

// Lerp interpolates between the previous and current position.
func (p *Position) Lerp(alpha float64) (float64, float64) {
	return p.PrevX + (p.X-p.PrevX)*alpha, p.PrevY + (p.Y-p.PrevY)*alpha
}

// Movement carries the current destination and path.
type Movement struct {
	Target *world.Point  `json:"target,omitempty"`
	Path   []world.Point `json:"path,omitempty"`
	Speed  float64       `json:"speed"` // tiles per tick
	Stuck  int           `json:"stuck"` // failed path requests in a row
}

type Sex uint8

const (
	Female Sex = iota
	Male
)

// Citizen is the personal record of a settler.
type Citizen struct {
	Name         string           `json:"name"`
	Sex          Sex              `json:"sex"`
	Age          int              `json:"age"`       // years
	BornTick     uint64           `json:"bornTick"`
	Education    float64          `json:"education"` // [0,1]
	Health       float64          `json:"health"`    // [0,100]
	Happiness    float64          `json:"happiness"` // [0,100]
	Sick         bool             `json:"sick"`
	SickTicks    int              `json:"sickTicks"`
	HomeID       ecs.EntityID     `json:"homeId"`
	InsideID     ecs.EntityID     `json:"insideId"`  // building currently occupied
	FavoriteFood economy.Resource `json:"favoriteFood,omitempty"`
}

type Profession string

const (
	Laborer    Profession = "laborer"
	Builder    Profession = "builder"
	Farmer     Profession = "farmer"
	Woodcutter Profession = "woodcutter"
	Quarrier   Profession = "quarrier"
	Miner      Profession = "miner"
	Gatherer   Profession = "gatherer"
	Fisher     Profession = "fisher"
	Hunter     Profession = "hunter"
	Smith      Profession = "smith"
	Baker      Profession = "baker"
	Herder     Profession = "herder"
	Trader     Profession = "trader"
)

// Task is what a worker is currently doing.
type Task string

const (
	TaskIdle    Task = ""
	TaskCommute Task = "commute"
	TaskWork    Task = "work"
	TaskGather  Task = "gather"
	TaskDeliver Task = "deliver"
	TaskSalvage Task = "salvage"
	TaskGoHome  Task = "go_home"
)

// GatherState is the per-worker gathering sub-state.
type GatherState string

const (
	GatherNone       GatherState = ""
	GatherSeeking    GatherState = "seeking"
	GatherHarvesting GatherState = "harvesting"
	GatherReturning  GatherState = "returning"
)

// Worker links a citizen to a workplace. WorkplaceID is non-zero exactly when
// the worker is in that building's roster; only the game's assignment
// operations may change either side.
type Worker struct {
	WorkplaceID      ecs.EntityID     `json:"workplaceId"`
	Profession       Profession       `json:"profession"`
	ManualAssignment bool             `json:"manualAssignment"`
	Task             Task             `json:"task"`
	Carry            *economy.Amount  `json:"carry,omitempty"`
	Gather           GatherState      `json:"gather"`
	GatherTarget     *world.Point     `json:"gatherTarget,omitempty"`
	GatherTimer      int              `json:"gatherTimer"`
	Deliveries       []economy.Amount `json:"deliveries,omitempty"`
}

// HasTransientState reports whether any carry, gather or task state is set.
func (w *Worker) HasTransientState() bool {
	return w.Task != TaskIdle || w.Carry != nil || w.Gather != GatherNone ||
		w.GatherTarget != nil || w.GatherTimer != 0 || len(w.Deliveries) > 0
}

// ClearTransient resets every carry, gather and task field.
func (w *Worker) ClearTransient() {
	w.Task = TaskIdle
	w.Carry = nil
	w.Gather = GatherNone
	w.GatherTarget = nil
	w.GatherTimer = 0
	w.Deliveries = nil
}

// Family links relatives. The game removes dead ids from every family.
type Family struct {
	Spouse   ecs.EntityID   `json:"spouse"`
	Parents  []ecs.EntityID `json:"parents,omitempty"`
	Children []ecs.EntityID `json:"children,omitempty"`
}

// Needs are the decaying wants of a citizen. 0 is satisfied, 100 is dire.
type Needs struct {
	Hunger      float64 `json:"hunger"`
	Cold        float64 `json:"cold"`
	LastVariety int     `json:"lastVariety"`
	MealTimer   int     `json:"mealTimer"`
}
