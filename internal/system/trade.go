package system

import (
	"encoding/json"
	"math"

	"github.com/hearthfall/settlement/internal/component"
	"github.com/hearthfall/settlement/internal/core/ecs"
	"github.com/hearthfall/settlement/internal/core/event"
	coresys "github.com/hearthfall/settlement/internal/core/system"
	"github.com/hearthfall/settlement/internal/data"
	"github.com/hearthfall/settlement/internal/economy"
	"github.com/hearthfall/settlement/internal/game"
	"go.uber.org/zap"
)

// tradeReserve is kept back from every sale.
const tradeReserve = 50

// tradeGoods are offered to traders, in preference order on ties.
var tradeGoods = []economy.Resource{
	economy.Log, economy.Stone, economy.Iron, economy.Wheat, economy.Wool, economy.Leather,
}

// TradeSystem brings a trader to every staffed trading post on its
// interval. The trader buys the largest surplus and pays in tools.
type TradeSystem struct {
	g      *game.Game
	visits int
}

type tradeState struct {
	Visits int `json:"visits"`
}

func NewTradeSystem(g *game.Game) *TradeSystem {
	return &TradeSystem{g: g}
}

func (s *TradeSystem) Stage() coresys.Stage { return coresys.StageTrade }
func (s *TradeSystem) Name() string         { return "trade" }
func (s *TradeSystem) Visits() int          { return s.visits }

func (s *TradeSystem) Update(_ uint64) {
	g := s.g
	ecs.Each2(g.C.Building, g.C.Producer, func(id ecs.EntityID, b *component.Building, p *component.Producer) {
		if !operating(b) {
			return
		}
		def, ok := g.Defs().Get(b.Type)
		if !ok || def.Trading == nil {
			return
		}
		if g.OnSiteCrew(id).Workers == 0 {
			p.Idle = true
			return
		}
		p.Timer++
		if p.Timer < def.Trading.Interval {
			return
		}
		p.Timer = 0
		p.Idle = !s.visit(def.Trading)
	})
}

// visit sells one lot of the largest surplus. It reports whether anything
// changed hands.
func (s *TradeSystem) visit(td *data.TradingDef) bool {
	g := s.g
	var pick economy.Resource
	surplus := 0
	for _, r := range tradeGoods {
		if n := g.Resources.GetResource(r) - tradeReserve; n > surplus {
			pick, surplus = r, n
		}
	}
	if surplus == 0 {
		return false
	}
	lot := min(td.Lot, surplus)
	tools := int(math.Floor(float64(lot) * td.Rate))
	if tools == 0 {
		return false
	}
	sold := g.Resources.RemoveResource(pick, lot)
	bought := g.Resources.AddResource(economy.Tools, tools)
	s.visits++
	g.Log().Info("trader visited",
		zap.String("sold", string(pick)), zap.Int("amount", sold), zap.Int("tools", bought))
	g.Emit(event.TraderArrived{
		Sold:   map[string]int{string(pick): sold},
		Bought: map[string]int{string(economy.Tools): bought},
	})
	return true
}

func (s *TradeSystem) SaveState() (json.RawMessage, error) {
	return saveJSON(s.Name(), tradeState{Visits: s.visits})
}

func (s *TradeSystem) LoadState(raw json.RawMessage) error {
	var st tradeState
	if err := loadJSON(s.Name(), raw, &st); err != nil {
		return err
	}
	s.visits = st.Visits
	return nil
}
