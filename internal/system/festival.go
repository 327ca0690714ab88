package system

import (
	"encoding/json"

	"github.com/hearthfall/settlement/internal/component"
	"github.com/hearthfall/settlement/internal/core/ecs"
	"github.com/hearthfall/settlement/internal/core/event"
	coresys "github.com/hearthfall/settlement/internal/core/system"
	"github.com/hearthfall/settlement/internal/game"
	"go.uber.org/zap"
)

const (
	festivalLength    = 600
	festivalJoy       = 0.02 // happiness per tick while a festival runs
	minFestivalPop    = 4
	festivalFoodShare = 2 // food units per citizen to hold a feast
)

type festival struct {
	Name      string
	SubSeason int
}

// festivals are held at most once a year, when their sub-season begins.
var festivals = []festival{
	{Name: "spring_fair", SubSeason: 1},
	{Name: "harvest_feast", SubSeason: 7},
}

// FestivalSystem holds the yearly festivals when the settlement can afford
// the feast, raising everyone's happiness while they run.
type FestivalSystem struct {
	g         *game.Game
	active    string
	remaining int
	held      map[string]int // festival -> last year held
}

type festivalState struct {
	Active    string         `json:"active,omitempty"`
	Remaining int            `json:"remaining"`
	Held      map[string]int `json:"held"`
}

func NewFestivalSystem(g *game.Game) *FestivalSystem {
	return &FestivalSystem{g: g, held: make(map[string]int)}
}

func (s *FestivalSystem) Stage() coresys.Stage { return coresys.StageFestival }
func (s *FestivalSystem) Name() string         { return "festival" }
func (s *FestivalSystem) Active() string       { return s.active }

func (s *FestivalSystem) Update(_ uint64) {
	g := s.g
	if s.active != "" {
		g.C.Citizen.Each(func(_ ecs.EntityID, c *component.Citizen) {
			c.Happiness = clamp(c.Happiness+festivalJoy, 0, 100)
		})
		s.remaining--
		if s.remaining <= 0 {
			g.Emit(event.FestivalEnded{Festival: s.active})
			s.active = ""
		}
		return
	}

	cal := g.Calendar()
	if cal.TickInSubSeason != 0 {
		return
	}
	for _, f := range festivals {
		if f.SubSeason != cal.SubSeason || s.held[f.Name] == cal.Year {
			continue
		}
		s.held[f.Name] = cal.Year
		pop := g.C.Citizen.Len()
		if pop < minFestivalPop || g.Resources.TotalFood() < pop*festivalFoodShare {
			g.Log().Info("festival skipped", zap.String("festival", f.Name), zap.Int("population", pop))
			return
		}
		g.Resources.ConsumeFood(pop, g.Rand)
		s.active = f.Name
		s.remaining = festivalLength
		g.Log().Info("festival started", zap.String("festival", f.Name))
		g.Emit(event.FestivalStarted{Festival: f.Name})
		return
	}
}

func (s *FestivalSystem) SaveState() (json.RawMessage, error) {
	return saveJSON(s.Name(), festivalState{Active: s.active, Remaining: s.remaining, Held: s.held})
}

func (s *FestivalSystem) LoadState(raw json.RawMessage) error {
	var st festivalState
	if err := loadJSON(s.Name(), raw, &st); err != nil {
		return err
	}
	s.active, s.remaining = st.Active, st.Remaining
	s.held = st.Held
	if s.held == nil {
		s.held = make(map[string]int)
	}
	return nil
}
