package ecs

import (
	"encoding/json"
	"errors"
	"slices"
	"testing"
)

type pos struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type tag struct {
	Name string `json:"name"`
}

func newTestWorld() (*World, *Store[pos], *Store[tag]) {
	w := NewWorld()
	return w, Register[pos](w, "position"), Register[tag](w, "tag")
}

func TestCreateEntityIsMonotonicAndNeverReused(t *testing.T) {
	w, _, _ := newTestWorld()
	a := w.CreateEntity()
	b := w.CreateEntity()
	if a != 1 || b != 2 {
		t.Fatalf("expected ids 1,2 got %d,%d", a, b)
	}
	w.DestroyEntity(b)
	c := w.CreateEntity()
	if c != 3 {
		t.Fatalf("expected destroyed id not to be reused, got %d", c)
	}
}

func TestDestroyEntityIsIdempotentAndClearsStores(t *testing.T) {
	w, ps, ts := newTestWorld()
	id := w.CreateEntity()
	ps.Set(id, &pos{X: 1})
	ts.Set(id, &tag{Name: "a"})

	if !w.DestroyEntity(id) {
		t.Fatalf("expected first destroy to report true")
	}
	if w.DestroyEntity(id) {
		t.Fatalf("expected second destroy to be a no-op")
	}
	if ps.Has(id) || ts.Has(id) {
		t.Fatalf("expected components removed on destroy")
	}
	if _, ok := w.Component(id, "position"); ok {
		t.Fatalf("expected missing component lookup to be absent")
	}
}

func TestSetRefusesDeadEntity(t *testing.T) {
	w, ps, _ := newTestWorld()
	id := w.CreateEntity()
	w.DestroyEntity(id)
	if ps.Set(id, &pos{}) {
		t.Fatalf("expected attaching to a dead entity to fail")
	}
}

func TestQueryMatchesLiveHoldersInStableOrder(t *testing.T) {
	w, ps, ts := newTestWorld()
	var both []EntityID
	for i := 0; i < 20; i++ {
		id := w.CreateEntity()
		if i%2 == 0 {
			ps.Set(id, &pos{X: i})
		}
		if i%3 == 0 {
			ts.Set(id, &tag{})
		}
		if i%2 == 0 && i%3 == 0 {
			both = append(both, id)
		}
	}
	// Destroy one matching entity and detach a component from another.
	w.DestroyEntity(both[1])
	w.RemoveComponent(both[2], "tag")
	want := []EntityID{both[0]}
	want = append(want, both[3:]...)

	got := w.Query("position", "tag")
	if !slices.Equal(got, want) {
		t.Fatalf("query mismatch: got %v want %v", got, want)
	}
	again := w.Query("position", "tag")
	if !slices.Equal(got, again) {
		t.Fatalf("expected stable order across calls: %v vs %v", got, again)
	}
	if !slices.IsSorted(w.Query("position")) {
		t.Fatalf("expected single-kind query sorted by id")
	}
}

func TestQueryResultSurvivesMutationDuringIteration(t *testing.T) {
	w, ps, ts := newTestWorld()
	for i := 0; i < 5; i++ {
		id := w.CreateEntity()
		ps.Set(id, &pos{})
		ts.Set(id, &tag{})
	}
	ids := w.Query("position", "tag")
	snapshot := append([]EntityID(nil), ids...)
	for _, id := range ids {
		w.DestroyEntity(id)
		n := w.CreateEntity()
		ps.Set(n, &pos{})
		ts.Set(n, &tag{})
	}
	if !slices.Equal(ids, snapshot) {
		t.Fatalf("query result was rewritten while iterating")
	}
	if len(w.Query("position", "tag")) != 5 {
		t.Fatalf("expected 5 fresh matches")
	}
}

func TestQueryUnknownKindIsEmpty(t *testing.T) {
	w, _, _ := newTestWorld()
	w.CreateEntity()
	if got := w.Query("position", "missing"); len(got) != 0 {
		t.Fatalf("expected empty result, got %v", got)
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	w, ps, ts := newTestWorld()
	a := w.CreateEntity()
	b := w.CreateEntity()
	c := w.CreateEntity()
	ps.Set(a, &pos{X: 3, Y: 4})
	ts.Set(a, &tag{Name: "alpha"})
	ts.Set(c, &tag{Name: "gamma"})
	w.DestroyEntity(b)

	snap, err := w.Serialize()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}

	r, rps, rts := newTestWorld()
	if err := r.Deserialize(snap); err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if !slices.Equal(r.Entities(), []EntityID{a, c}) {
		t.Fatalf("entities mismatch: %v", r.Entities())
	}
	if p, ok := rps.Get(a); !ok || *p != (pos{X: 3, Y: 4}) {
		t.Fatalf("position not restored: %+v", p)
	}
	if tg, ok := rts.Get(c); !ok || tg.Name != "gamma" {
		t.Fatalf("tag not restored: %+v", tg)
	}
	if rps.Has(c) {
		t.Fatalf("unexpected component on restored entity")
	}
	if n := r.CreateEntity(); n <= c {
		t.Fatalf("new entity %d collides with restored ids", n)
	}
}

func TestDeserializeRejectsUnknownKind(t *testing.T) {
	w, _, _ := newTestWorld()
	bad := &Snapshot{
		NextID:     2,
		Entities:   []EntityID{1},
		Components: map[Kind]json.RawMessage{"ghost": json.RawMessage(`[]`)},
	}
	if err := w.Deserialize(bad); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}

func TestDeserializeRejectsOrphanComponent(t *testing.T) {
	w, _, _ := newTestWorld()
	bad := &Snapshot{
		NextID:     5,
		Entities:   []EntityID{1},
		Components: map[Kind]json.RawMessage{"tag": json.RawMessage(`[{"id":4,"data":{"name":"x"}}]`)},
	}
	if err := w.Deserialize(bad); !errors.Is(err, ErrUnknownEntity) {
		t.Fatalf("expected ErrUnknownEntity, got %v", err)
	}
	if len(w.Entities()) != 0 {
		t.Fatalf("expected world cleared after failed restore")
	}
}
