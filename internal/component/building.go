package component

import (
	"github.com/hearthfall/settlement/internal/core/ecs"
	"github.com/hearthfall/settlement/internal/economy"
)

// Building is the structural record of a placed building.
// No behavior here. Every transition goes through the game's
// lifecycle operations, which keep the state exclusive:
// constructing, completed-idle, completed-upgrading or completed-demolishing.
type Building struct {
	Type               string           `json:"type"`
	Category           string           `json:"category"`
	X                  int              `json:"x"`
	Y                  int              `json:"y"`
	Width              int              `json:"width"`
	Height             int              `json:"height"`
	Completed          bool             `json:"completed"`
	Progress           float64          `json:"progress"` // construction progress in [0,1]
	MaterialsDelivered bool             `json:"materialsDelivered"`
	Upgrade            *UpgradeState    `json:"upgrade,omitempty"`
	Demolition         *DemolitionState `json:"demolition,omitempty"`
	Workers            []ecs.EntityID   `json:"workers"`
	Durability         float64          `json:"durability"`
	MaxDurability      float64          `json:"maxDurability"`
	BuiltTick          uint64           `json:"builtTick"`
}

// UpgradeState is present while an upgrade is in progress.
type UpgradeState struct {
	Progress float64 `json:"progress"`
	Target   string  `json:"target"`
}

// DemolitionState is present while a demolition is in progress.
type DemolitionState struct {
	Progress float64          `json:"progress"`
	Refund   []economy.Amount `json:"refund"`
}

func (b *Building) Upgrading() bool   { return b.Upgrade != nil }
func (b *Building) Demolishing() bool { return b.Demolition != nil }

// Center returns the work center tile of the footprint.
func (b *Building) Center() (int, int) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

// Contains reports whether tile (x, y) lies inside the footprint.
func (b *Building) Contains(x, y int) bool {
	return x >= b.X && x < b.X+b.Width && y >= b.Y && y < b.Y+b.Height
}

// Producer marks a completed building that converts inputs to outputs, or
// extracts from the ground, over time.
type Producer struct {
	Timer int  `json:"timer"`
	Idle  bool `json:"idle"` // last cycle lacked inputs or workers
	// VeinRemaining mirrors the underground reserve for extraction buildings;
	// the game copies it back into the vein map before demolition.
	VeinRemaining int `json:"veinRemaining,omitempty"`
	Produced      int `json:"produced"`
}

// Storage holds building-local inventory and contributes capacity to the
// global ledger.
type Storage struct {
	Capacity  int                      `json:"capacity"`
	Inventory map[economy.Resource]int `json:"inventory,omitempty"`
}

// House tracks residents.
type House struct {
	Capacity  int            `json:"capacity"`
	Residents []ecs.EntityID `json:"residents"`
	Warmth    float64        `json:"warmth"`
}

// Livestock is a herd kept in a pasture.
type Livestock struct {
	Animal   string  `json:"animal"`
	Count    int     `json:"count"`
	Capacity int     `json:"capacity"`
	Growth   float64 `json:"growth"` // accumulated breeding progress
	Timer    int     `json:"timer"`
}
