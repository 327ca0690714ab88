package system

import (
	"github.com/hearthfall/settlement/internal/core/event"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	notifyPerSecond = 5
	notifyBurst     = 20
)

// Notifier turns simulation events into log lines for the player. Bursts
// beyond the limiter are counted and reported with the next line that gets
// through.
type Notifier struct {
	log     *zap.Logger
	limiter *rate.Limiter
	dropped int
}

// NewNotifier subscribes a Notifier to every event on bus.
func NewNotifier(bus *event.Bus, log *zap.Logger) *Notifier {
	n := &Notifier{
		log:     log.Named("notify"),
		limiter: rate.NewLimiter(notifyPerSecond, notifyBurst),
	}
	bus.SubscribeAll(n.handle)
	return n
}

// Dropped returns how many notifications are waiting to be summarised.
func (n *Notifier) Dropped() int { return n.dropped }

func (n *Notifier) handle(ev event.Event) {
	if !n.limiter.Allow() {
		n.dropped++
		return
	}
	fields := []zap.Field{zap.String("event", ev.Name()), zap.Any("detail", ev)}
	if n.dropped > 0 {
		fields = append(fields, zap.Int("suppressed", n.dropped))
		n.dropped = 0
	}
	n.log.Info(message(ev), fields...)
}

func message(ev event.Event) string {
	switch e := ev.(type) {
	case event.BuildingCompleted:
		return e.Type + " completed"
	case event.BuildingDemolished:
		return e.Type + " demolished"
	case event.BuildingCollapsed:
		return e.Type + " collapsed"
	case event.UpgradeBlocked:
		return "upgrade blocked: " + e.Reason
	case event.CitizenDied:
		return "a citizen died of " + e.Cause
	case event.CitizenBorn:
		return "a child was born"
	case event.MineDepleted:
		return e.Type + " is exhausted"
	case event.SeasonChanged:
		return e.Season + " has come"
	case event.StorageFull:
		return "storage is full"
	case event.DiseaseOutbreak:
		return "disease has broken out"
	case event.FestivalStarted:
		return e.Festival + " begins"
	case event.MilestoneReached:
		return "milestone: " + e.Milestone
	}
	return ev.Name()
}
