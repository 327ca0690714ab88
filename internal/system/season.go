package system

import (
	"github.com/hearthfall/settlement/internal/core/event"
	coresys "github.com/hearthfall/settlement/internal/core/system"
	"github.com/hearthfall/settlement/internal/game"
	"go.uber.org/zap"
)

// SeasonSystem advances the calendar one tick. Stage 0, so every later
// system sees this tick's date.
type SeasonSystem struct {
	g *game.Game
}

func NewSeasonSystem(g *game.Game) *SeasonSystem {
	return &SeasonSystem{g: g}
}

func (s *SeasonSystem) Stage() coresys.Stage { return coresys.StageSeason }

func (s *SeasonSystem) Update(_ uint64) {
	cal := s.g.Calendar()
	before := cal.Season()
	if !cal.Advance() {
		s.g.SetCalendar(cal)
		return
	}
	s.g.SetCalendar(cal)
	if cal.Season() == before {
		return
	}
	s.g.Log().Info("season changed",
		zap.Int("year", cal.Year), zap.String("season", cal.Season().String()))
	s.g.Emit(event.SeasonChanged{Year: cal.Year, Season: cal.Season().String()})
}
