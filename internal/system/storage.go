package system

import (
	"encoding/json"

	"github.com/hearthfall/settlement/internal/core/event"
	coresys "github.com/hearthfall/settlement/internal/core/system"
	"github.com/hearthfall/settlement/internal/game"
	"go.uber.org/zap"
)

// StorageSystem keeps the ledger capacity in step with the storage
// buildings and reports when storage fills up.
type StorageSystem struct {
	g    *game.Game
	full bool
}

type storageState struct {
	Full bool `json:"full"`
}

func NewStorageSystem(g *game.Game) *StorageSystem {
	return &StorageSystem{g: g}
}

func (s *StorageSystem) Stage() coresys.Stage { return coresys.StageStorage }
func (s *StorageSystem) Name() string         { return "storage" }

func (s *StorageSystem) Update(_ uint64) {
	g := s.g
	capacity := g.RecomputeStorageCapacity()
	full := g.Resources.IsStorageFull()
	if full && !s.full {
		used := g.Resources.GetStorageUsed()
		g.Log().Warn("storage full", zap.Int("used", used), zap.Int("capacity", capacity))
		g.Emit(event.StorageFull{Used: used, Capacity: capacity})
	}
	s.full = full
}

func (s *StorageSystem) SaveState() (json.RawMessage, error) {
	return saveJSON(s.Name(), storageState{Full: s.full})
}

func (s *StorageSystem) LoadState(raw json.RawMessage) error {
	var st storageState
	if err := loadJSON(s.Name(), raw, &st); err != nil {
		return err
	}
	s.full = st.Full
	return nil
}
