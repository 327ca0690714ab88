package system

import (
	"encoding/json"
	"slices"

	"github.com/hearthfall/settlement/internal/core/event"
	coresys "github.com/hearthfall/settlement/internal/core/system"
	"github.com/hearthfall/settlement/internal/game"
	"go.uber.org/zap"
)

const milestoneInterval = 60

type milestone struct {
	name      string
	threshold int
	measure   func(g *game.Game) int
}

func population(g *game.Game) int { return g.C.Citizen.Len() }
func buildings(g *game.Game) int  { return g.Status().Buildings }
func year(g *game.Game) int       { return g.Calendar().Year }

var milestones = []milestone{
	{name: "hamlet", threshold: 10, measure: population},
	{name: "village", threshold: 25, measure: population},
	{name: "town", threshold: 50, measure: population},
	{name: "city", threshold: 100, measure: population},
	{name: "builders", threshold: 10, measure: buildings},
	{name: "sprawl", threshold: 25, measure: buildings},
	{name: "second_year", threshold: 2, measure: year},
	{name: "fifth_year", threshold: 5, measure: year},
}

// MilestoneSystem announces each milestone the first time it is reached.
type MilestoneSystem struct {
	g       *game.Game
	reached []string // sorted
}

type milestoneState struct {
	Reached []string `json:"reached"`
}

func NewMilestoneSystem(g *game.Game) *MilestoneSystem {
	return &MilestoneSystem{g: g}
}

func (s *MilestoneSystem) Stage() coresys.Stage { return coresys.StageMilestone }
func (s *MilestoneSystem) Name() string         { return "milestone" }
func (s *MilestoneSystem) Reached() []string    { return slices.Clone(s.reached) }

func (s *MilestoneSystem) Update(tick uint64) {
	if tick%milestoneInterval != 0 {
		return
	}
	for _, m := range milestones {
		if _, found := slices.BinarySearch(s.reached, m.name); found {
			continue
		}
		v := m.measure(s.g)
		if v < m.threshold {
			continue
		}
		i, _ := slices.BinarySearch(s.reached, m.name)
		s.reached = slices.Insert(s.reached, i, m.name)
		s.g.Log().Info("milestone reached", zap.String("milestone", m.name), zap.Int("value", v))
		s.g.Emit(event.MilestoneReached{Milestone: m.name, Value: v})
	}
}

func (s *MilestoneSystem) SaveState() (json.RawMessage, error) {
	return saveJSON(s.Name(), milestoneState{Reached: s.reached})
}

func (s *MilestoneSystem) LoadState(raw json.RawMessage) error {
	var st milestoneState
	if err := loadJSON(s.Name(), raw, &st); err != nil {
		return err
	}
	slices.Sort(st.Reached)
	s.reached = slices.Compact(st.Reached)
	return nil
}
