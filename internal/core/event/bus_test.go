package event

import "testing"

func TestEventsDeliveredOnNextFlushInOrder(t *testing.T) {
	b := NewBus()
	var got []string
	b.SubscribeAll(func(ev Event) { got = append(got, ev.Name()) })

	b.Emit(BuildingPlaced{Building: 1})
	b.Emit(BuildingDemolished{Building: 1})
	if len(got) != 0 {
		t.Fatalf("expected no delivery before flush")
	}
	b.Flush()
	if len(got) != 2 || got[0] != "building_placed" || got[1] != "building_demolished" {
		t.Fatalf("unexpected delivery order: %v", got)
	}
	b.Flush()
	if len(got) != 2 {
		t.Fatalf("expected events delivered once, got %v", got)
	}
}

func TestTypedSubscription(t *testing.T) {
	b := NewBus()
	var carriers []int
	Subscribe(b, func(ev BuildingDemolished) { carriers = append(carriers, ev.Carriers) })

	b.Emit(BuildingPlaced{})
	b.Emit(BuildingDemolished{Carriers: 2})
	b.Flush()
	if len(carriers) != 1 || carriers[0] != 2 {
		t.Fatalf("expected one typed delivery, got %v", carriers)
	}
}

func TestEmitWithoutSubscribers(t *testing.T) {
	b := NewBus()
	b.Emit(StorageFull{Used: 10, Capacity: 10})
	if b.Pending() != 1 {
		t.Fatalf("expected one pending event")
	}
	b.Flush()
	if b.Pending() != 0 {
		t.Fatalf("expected back buffer cleared")
	}
}

func TestFestivalEventsCarryTheirFestival(t *testing.T) {
	b := NewBus()
	var names, festivals []string
	b.SubscribeAll(func(ev Event) { names = append(names, ev.Name()) })
	Subscribe(b, func(ev FestivalStarted) { festivals = append(festivals, ev.Festival) })
	Subscribe(b, func(ev FestivalEnded) { festivals = append(festivals, ev.Festival) })

	b.Emit(FestivalStarted{Festival: "spring_fair"})
	b.Emit(FestivalEnded{Festival: "spring_fair"})
	b.Flush()
	if len(names) != 2 || names[0] != "festival_started" || names[1] != "festival_ended" {
		t.Fatalf("unexpected names %v", names)
	}
	if len(festivals) != 2 || festivals[0] != "spring_fair" || festivals[1] != "spring_fair" {
		t.Fatalf("unexpected festivals %v", festivals)
	}
}
