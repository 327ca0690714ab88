// Package world holds the tile map, the calendar/game state and the camera.
package world

import (
	"encoding/json"
	"fmt"

	"github.com/hearthfall/settlement/internal/core/ecs"
	"github.com/hearthfall/settlement/internal/economy"
)

// TileType is the ground kind of a tile.
type TileType uint8

const (
	Grass TileType = iota
	Forest
	Water
	Rock
	Sand
)

func (t TileType) String() string {
	switch t {
	case Grass:
		return "grass"
	case Forest:
		return "forest"
	case Water:
		return "water"
	case Rock:
		return "rock"
	case Sand:
		return "sand"
	}
	return fmt.Sprintf("tile(%d)", uint8(t))
}

// tileFields is the width of the persisted tile tuple.
const tileFields = 14

// Tile is one map cell. Surface deposits (stone, iron and the wild foods)
// are finite and harvested by gatherers and extraction buildings.
type Tile struct {
	Type        TileType
	TreeDensity float64      // [0,1]
	Fertility   float64      // [0,1]
	Elevation   float64      // [0,1]
	Occupied    bool
	BuildingID  ecs.EntityID // 0 when free
	Stone       int
	Iron        int
	Blocked     bool         // blocks movement
	Berries     int
	Mushrooms   int
	Herbs       int
	Fish        int
	Wildlife    int
}

// MarshalJSON writes the tile as a fixed-width tuple:
// [type, treeDensity, fertility, elevation, occupied, buildingId|null,
// stone, iron, blocked, berries, mushrooms, herbs, fish, wildlife].
func (t Tile) MarshalJSON() ([]byte, error) {
	var building any
	if !t.BuildingID.IsZero() {
		building = t.BuildingID
	}
	return json.Marshal([tileFields]any{
		t.Type, t.TreeDensity, t.Fertility, t.Elevation, t.Occupied, building,
		t.Stone, t.Iron, t.Blocked, t.Berries, t.Mushrooms, t.Herbs, t.Fish, t.Wildlife,
	})
}

func (t *Tile) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode tile: %w", err)
	}
	if len(raw) != tileFields {
		return fmt.Errorf("decode tile: want %d fields, got %d", tileFields, len(raw))
	}
	var building *ecs.EntityID
	dst := [tileFields]any{
		&t.Type, &t.TreeDensity, &t.Fertility, &t.Elevation, &t.Occupied, &building,
		&t.Stone, &t.Iron, &t.Blocked, &t.Berries, &t.Mushrooms, &t.Herbs, &t.Fish, &t.Wildlife,
	}
	for i, field := range raw {
		if err := json.Unmarshal(field, dst[i]); err != nil {
			return fmt.Errorf("decode tile field %d: %w", i, err)
		}
	}
	t.BuildingID = 0
	if building != nil {
		t.BuildingID = *building
	}
	return nil
}

// Deposit returns the surface amount of r on the tile.
func (t *Tile) Deposit(r economy.Resource) int {
	if p := t.deposit(r); p != nil {
		return *p
	}
	return 0
}

// SetDeposit overwrites the surface amount of r. Negative values clamp to 0.
// Resources that have no surface form are ignored.
func (t *Tile) SetDeposit(r economy.Resource, n int) {
	if p := t.deposit(r); p != nil {
		*p = max(n, 0)
	}
}

// Take removes up to n units of r and returns what was taken.
func (t *Tile) Take(r economy.Resource, n int) int {
	p := t.deposit(r)
	if p == nil || n <= 0 {
		return 0
	}
	n = min(n, *p)
	*p -= n
	return n
}

func (t *Tile) deposit(r economy.Resource) *int {
	switch r {
	case economy.Stone:
		return &t.Stone
	case economy.Iron:
		return &t.Iron
	case economy.Berries:
		return &t.Berries
	case economy.Mushrooms:
		return &t.Mushrooms
	case economy.Herbs:
		return &t.Herbs
	case economy.Fish:
		return &t.Fish
	case economy.Meat:
		return &t.Wildlife
	}
	return nil
}
