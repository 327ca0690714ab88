package pathfind

import (
	"testing"

	"github.com/hearthfall/settlement/internal/world"
)

func TestFindPathStraight(t *testing.T) {
	m := world.NewMap(10, 10)
	a := NewAStar(m)
	path, ok := a.FindPath(world.Point{X: 0, Y: 0}, world.Point{X: 4, Y: 0})
	if !ok {
		t.Fatalf("expected path")
	}
	if len(path) != 4 || path[len(path)-1] != (world.Point{X: 4, Y: 0}) {
		t.Fatalf("unexpected path %v", path)
	}
}

func TestFindPathAroundWall(t *testing.T) {
	m := world.NewMap(10, 10)
	for y := 0; y < 9; y++ {
		m.At(5, y).Blocked = true
	}
	a := NewAStar(m)
	path, ok := a.FindPath(world.Point{X: 2, Y: 2}, world.Point{X: 8, Y: 2})
	if !ok {
		t.Fatalf("expected detour")
	}
	for _, p := range path {
		if p.X == 5 && p.Y < 9 {
			t.Fatalf("path crosses wall at %v", p)
		}
	}
}

func TestFindPathIntoBuilding(t *testing.T) {
	m := world.NewMap(6, 6)
	m.Occupy(3, 3, 2, 2, 7, true)
	a := NewAStar(m)
	path, ok := a.FindPath(world.Point{X: 0, Y: 0}, world.Point{X: 3, Y: 3})
	if !ok || path[len(path)-1] != (world.Point{X: 3, Y: 3}) {
		t.Fatalf("expected to reach building door, got %v %v", path, ok)
	}
}

func TestFindPathUnreachable(t *testing.T) {
	m := world.NewMap(5, 5)
	for y := 0; y < 5; y++ {
		m.At(2, y).Type = world.Water
	}
	a := NewAStar(m)
	if _, ok := a.FindPath(world.Point{X: 0, Y: 0}, world.Point{X: 4, Y: 4}); ok {
		t.Fatalf("expected no path across water")
	}
}

func TestCacheInvalidatedByTopology(t *testing.T) {
	m := world.NewMap(8, 3)
	a := NewAStar(m)
	from, to := world.Point{X: 0, Y: 1}, world.Point{X: 7, Y: 1}
	if _, ok := a.FindPath(from, to); !ok {
		t.Fatalf("expected path")
	}
	a.FindPath(from, to)
	if hits, _ := a.Stats(); hits != 1 {
		t.Fatalf("expected cache hit, got %d", hits)
	}

	m.Occupy(4, 0, 1, 3, 9, true)
	if _, ok := a.FindPath(from, to); ok {
		t.Fatalf("expected stale route dropped after occupy")
	}
	if _, misses := a.Stats(); misses != 2 {
		t.Fatalf("expected second miss after topology change, got %d", misses)
	}
}
