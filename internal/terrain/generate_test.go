package terrain

import (
	"testing"

	"github.com/hearthfall/settlement/internal/rng"
	"github.com/hearthfall/settlement/internal/world"
)

func TestGenerateDeterministic(t *testing.T) {
	a := Generate(48, 48, rng.New(7))
	b := Generate(48, 48, rng.New(7))
	for i := range a.Tiles {
		if a.Tiles[i] != b.Tiles[i] {
			t.Fatalf("tile %d differs between identical seeds", i)
		}
	}
	c := Generate(48, 48, rng.New(8))
	same := true
	for i := range a.Tiles {
		if a.Tiles[i] != c.Tiles[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatalf("different seeds produced identical maps")
	}
}

func TestGenerateHasVariety(t *testing.T) {
	m := Generate(96, 96, rng.New(20240601))
	counts := map[world.TileType]int{}
	for _, tile := range m.Tiles {
		counts[tile.Type]++
	}
	if counts[world.Grass] == 0 {
		t.Fatalf("expected grass tiles, got %v", counts)
	}
	if len(counts) < 3 {
		t.Fatalf("expected at least three tile types, got %v", counts)
	}
}

func TestFindSpawnOnGrass(t *testing.T) {
	m := world.NewMap(20, 20)
	for y := 0; y < 20; y++ {
		for x := 0; x < 12; x++ {
			m.At(x, y).Type = world.Water
		}
	}
	p := FindSpawn(m, 2)
	if m.At(p.X, p.Y).Type != world.Grass || p.X < 14 {
		t.Fatalf("unexpected spawn %v", p)
	}
}
