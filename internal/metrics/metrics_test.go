package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/hearthfall/settlement/internal/core/event"
	"github.com/hearthfall/settlement/internal/economy"
	"github.com/hearthfall/settlement/internal/game"
	"github.com/hearthfall/settlement/internal/persist"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountEvents(t *testing.T) {
	bus := event.NewBus()
	CountEvents(bus)
	before := testutil.ToFloat64(Events.WithLabelValues("storage_full"))

	bus.Emit(event.StorageFull{Used: 10, Capacity: 10})
	bus.Emit(event.StorageFull{Used: 10, Capacity: 10})
	bus.Emit(event.FestivalStarted{Festival: "spring_fair"})
	bus.Flush()

	if got := testutil.ToFloat64(Events.WithLabelValues("storage_full")) - before; got != 2 {
		t.Fatalf("expected 2 storage_full counted, got %v", got)
	}
}

func TestPublishStatus(t *testing.T) {
	Publish(game.Status{
		Population:      12,
		StorageUsed:     40,
		StorageCapacity: 400,
		Resources:       []economy.Amount{{Type: economy.Log, Amount: 30}, {Type: economy.Stone, Amount: 10}},
	})
	if got := testutil.ToFloat64(Population); got != 12 {
		t.Fatalf("population gauge = %v", got)
	}
	if got := testutil.ToFloat64(Resources.WithLabelValues("log")); got != 30 {
		t.Fatalf("log gauge = %v", got)
	}
	if got := testutil.ToFloat64(StorageCapacity); got != 400 {
		t.Fatalf("capacity gauge = %v", got)
	}
}

func TestObserveSave(t *testing.T) {
	okBefore := testutil.ToFloat64(Saves.WithLabelValues("ok"))
	errBefore := testutil.ToFloat64(Saves.WithLabelValues("error"))

	ObserveSave(persist.Record{Size: 2048}, 3*time.Millisecond, nil)
	ObserveSave(persist.Record{}, time.Millisecond, errors.New("disk full"))

	if testutil.ToFloat64(Saves.WithLabelValues("ok"))-okBefore != 1 ||
		testutil.ToFloat64(Saves.WithLabelValues("error"))-errBefore != 1 {
		t.Fatalf("expected one ok and one failed save counted")
	}
	if got := testutil.ToFloat64(SaveBytes); got != 2048 {
		t.Fatalf("save size gauge = %v", got)
	}
}
