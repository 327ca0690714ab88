// Package terrain generates the starting tile map.
package terrain

import (
	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/hearthfall/settlement/internal/rng"
	"github.com/hearthfall/settlement/internal/world"
)

const (
	waterLevel = 0.32
	rockLevel  = 0.74
	sandBand   = 0.035
)

// Generate builds a width×height map. Noise fields are seeded from r's seed;
// deposit amounts draw from r, so the whole map is reproducible from the seed.
func Generate(width, height int, r *rng.Random) *world.Map {
	seed := r.Seed()
	elevNoise := opensimplex.NewNormalized(seed)
	fertNoise := opensimplex.NewNormalized(seed + 1)
	forestNoise := opensimplex.NewNormalized(seed + 2)
	oreNoise := opensimplex.NewNormalized(seed + 3)

	m := world.NewMap(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			fx, fy := float64(x), float64(y)
			elev := octaveNoise(elevNoise, fx, fy, 4, 0.045, 0.5)
			fert := octaveNoise(fertNoise, fx, fy, 3, 0.06, 0.5)
			forest := octaveNoise(forestNoise, fx, fy, 3, 0.08, 0.5)
			ore := octaveNoise(oreNoise, fx, fy, 2, 0.12, 0.5)

			t := m.At(x, y)
			t.Elevation = elev
			t.Fertility = fert
			switch {
			case elev < waterLevel:
				t.Type = world.Water
				t.Fertility = 0
				if r.Chance(0.25) {
					t.Fish = r.Int(4, 12)
				}
			case elev < waterLevel+sandBand:
				t.Type = world.Sand
			case elev > rockLevel:
				t.Type = world.Rock
				t.Stone = r.Int(20, 60)
				if ore > 0.62 {
					t.Iron = r.Int(10, 30)
				}
			case forest > 0.55:
				t.Type = world.Forest
				t.TreeDensity = min(1, (forest-0.55)*3+0.3)
				placeForestFood(t, r)
			default:
				t.Type = world.Grass
				if r.Chance(0.03) {
					t.Berries = r.Int(3, 10)
				}
				if ore > 0.7 && r.Chance(0.3) {
					t.Stone = r.Int(5, 15)
				}
			}
		}
	}
	return m
}

func placeForestFood(t *world.Tile, r *rng.Random) {
	if r.Chance(0.06) {
		t.Berries = r.Int(3, 10)
	}
	if r.Chance(0.05) {
		t.Mushrooms = r.Int(2, 8)
	}
	if r.Chance(0.04) {
		t.Herbs = r.Int(2, 6)
	}
	if r.Chance(0.05) {
		t.Wildlife = r.Int(2, 6)
	}
}

// FindSpawn returns the grass tile nearest the map center with a clear
// radius around it, falling back to the center itself.
func FindSpawn(m *world.Map, clearRadius int) world.Point {
	cx, cy := m.Width/2, m.Height/2
	maxR := max(m.Width, m.Height)
	for ring := 0; ring < maxR; ring++ {
		for y := cy - ring; y <= cy+ring; y++ {
			for x := cx - ring; x <= cx+ring; x++ {
				if abs(x-cx) != ring && abs(y-cy) != ring {
					continue
				}
				if clearAround(m, x, y, clearRadius) {
					return world.Point{X: x, Y: y}
				}
			}
		}
	}
	return world.Point{X: cx, Y: cy}
}

func clearAround(m *world.Map, x, y, radius int) bool {
	ok := true
	m.Scan(x, y, radius, func(_, _ int, t *world.Tile) bool {
		ok = t.Type == world.Grass && !t.Occupied
		return ok
	})
	return ok && m.InBounds(x-radius, y-radius) && m.InBounds(x+radius, y+radius)
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0
	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}
	return total / maxVal
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
