package world

import "github.com/hearthfall/settlement/internal/core/ecs"

const (
	SubSeasons        = 12 // three per season
	TicksPerSubSeason = 300
)

type Season uint8

const (
	Spring Season = iota
	Summer
	Autumn
	Winter
)

func (s Season) String() string {
	switch s {
	case Spring:
		return "spring"
	case Summer:
		return "summer"
	case Autumn:
		return "autumn"
	}
	return "winter"
}

// Calendar is the in-world date.
type Calendar struct {
	Year            int `json:"year"`
	SubSeason       int `json:"subSeason"` // 0..SubSeasons-1
	TickInSubSeason int `json:"tickInSubSeason"`
}

func (c Calendar) Season() Season { return Season(c.SubSeason / 3) }

// Advance moves the calendar one tick forward and reports whether the
// sub-season rolled over.
func (c *Calendar) Advance() bool {
	c.TickInSubSeason++
	if c.TickInSubSeason < TicksPerSubSeason {
		return false
	}
	c.TickInSubSeason = 0
	c.SubSeason++
	if c.SubSeason >= SubSeasons {
		c.SubSeason = 0
		c.Year++
	}
	return true
}

// State tracks the settlement-wide counters.
// Single-goroutine access only (game loop).
type State struct {
	Tick     uint64
	Calendar Calendar
	Speed    int
	Paused   bool

	Population int
	Births     int
	Deaths     int

	// UI-adjacent, never persisted.
	SelectedEntity ecs.EntityID
	PlacementMode  string
}

func NewState() *State {
	return &State{
		Calendar: Calendar{Year: 1},
		Speed:    1,
	}
}

// PersistedState is the saved subset of State.
type PersistedState struct {
	Tick            uint64 `json:"tick"`
	Year            int    `json:"year"`
	SubSeason       int    `json:"subSeason"`
	TickInSubSeason int    `json:"tickInSubSeason"`
	Speed           int    `json:"speed"`
	Paused          bool   `json:"paused"`
	Population      int    `json:"population"`
	Births          int    `json:"births"`
	Deaths          int    `json:"deaths"`
}

func (s *State) Persisted() PersistedState {
	return PersistedState{
		Tick:            s.Tick,
		Year:            s.Calendar.Year,
		SubSeason:       s.Calendar.SubSeason,
		TickInSubSeason: s.Calendar.TickInSubSeason,
		Speed:           s.Speed,
		Paused:          s.Paused,
		Population:      s.Population,
		Births:          s.Births,
		Deaths:          s.Deaths,
	}
}

// ApplyPersisted overwrites State from a save and resets transient fields.
func (s *State) ApplyPersisted(p PersistedState) {
	*s = State{
		Tick: p.Tick,
		Calendar: Calendar{
			Year:            p.Year,
			SubSeason:       p.SubSeason,
			TickInSubSeason: p.TickInSubSeason,
		},
		Speed:      p.Speed,
		Paused:     p.Paused,
		Population: p.Population,
		Births:     p.Births,
		Deaths:     p.Deaths,
	}
}
