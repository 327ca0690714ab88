package system

import (
	"encoding/json"

	"github.com/hearthfall/settlement/internal/core/event"
	coresys "github.com/hearthfall/settlement/internal/core/system"
	"github.com/hearthfall/settlement/internal/game"
	"github.com/hearthfall/settlement/internal/world"
	"go.uber.org/zap"
)

const (
	Clear = "clear"
	Rain  = "rain"
	Snow  = "snow"
	Storm = "storm"

	minSpell = 300
	maxSpell = 900
)

type weatherOdds struct {
	kinds   []string
	weights []float64
}

var seasonWeather = map[world.Season]weatherOdds{
	world.Spring: {kinds: []string{Clear, Rain, Storm}, weights: []float64{5, 4, 1}},
	world.Summer: {kinds: []string{Clear, Rain, Storm}, weights: []float64{7, 2, 1}},
	world.Autumn: {kinds: []string{Clear, Rain, Storm}, weights: []float64{4, 5, 1}},
	world.Winter: {kinds: []string{Clear, Snow, Storm}, weights: []float64{3, 6, 1}},
}

// WeatherSource is read by systems that run before the weather stage.
type WeatherSource interface {
	Current() string
}

// WeatherSystem holds the current weather and rolls a new spell, from the
// season's table, when the old one runs out.
type WeatherSystem struct {
	g         *game.Game
	current   string
	remaining int
}

type weatherState struct {
	Current   string `json:"current"`
	Remaining int    `json:"remaining"`
}

func NewWeatherSystem(g *game.Game) *WeatherSystem {
	return &WeatherSystem{g: g, current: Clear}
}

func (s *WeatherSystem) Stage() coresys.Stage { return coresys.StageWeather }
func (s *WeatherSystem) Name() string         { return "weather" }
func (s *WeatherSystem) Current() string      { return s.current }

func (s *WeatherSystem) Update(_ uint64) {
	if s.remaining > 0 {
		s.remaining--
		return
	}
	g := s.g
	odds := seasonWeather[g.Season()]
	next := Clear
	if i := g.Rand.Weighted(odds.weights); i >= 0 {
		next = odds.kinds[i]
	}
	s.remaining = g.Rand.Int(minSpell, maxSpell)
	if next == s.current {
		return
	}
	s.current = next
	g.Log().Debug("weather changed", zap.String("weather", next), zap.Int("ticks", s.remaining))
	g.Emit(event.WeatherChanged{Weather: next})
}

func (s *WeatherSystem) SaveState() (json.RawMessage, error) {
	return saveJSON(s.Name(), weatherState{Current: s.current, Remaining: s.remaining})
}

func (s *WeatherSystem) LoadState(raw json.RawMessage) error {
	var st weatherState
	if err := loadJSON(s.Name(), raw, &st); err != nil {
		return err
	}
	if st.Current == "" {
		st.Current = Clear
	}
	s.current, s.remaining = st.Current, max(st.Remaining, 0)
	return nil
}
