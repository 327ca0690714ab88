package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/hearthfall/settlement/internal/component"
	"github.com/hearthfall/settlement/internal/core/ecs"
	"github.com/hearthfall/settlement/internal/economy"
	"github.com/hearthfall/settlement/internal/pathfind"
	"github.com/hearthfall/settlement/internal/rng"
	"github.com/hearthfall/settlement/internal/world"
	"go.uber.org/zap"
)

// SaveVersion tags the save layout. Saves with any other tag are refused.
const SaveVersion = 3

var (
	ErrVersionMismatch = errors.New("save version mismatch")
	ErrCorruptSave     = errors.New("corrupt save")
)

// VeinEntry is one persisted vein reserve.
type VeinEntry struct {
	Key     VeinKey     `json:"key"`
	Reserve VeinReserve `json:"reserve"`
}

// SaveData is the full persisted simulation.
type SaveData struct {
	Version   int                        `json:"version"`
	Seed      int64                      `json:"seed"`
	RNG       rng.State                  `json:"rng"`
	State     world.PersistedState       `json:"state"`
	Resources economy.Snapshot           `json:"resources"`
	Map       *world.Map                 `json:"map"`
	World     *ecs.Snapshot              `json:"world"`
	Camera    world.Camera               `json:"camera"`
	Veins     []VeinEntry                `json:"veins"`
	Systems   map[string]json.RawMessage `json:"systems"`
}

// Snapshot captures the simulation for saving. Transient UI state is left
// out. Call between ticks.
func (g *Game) Snapshot() (*SaveData, error) {
	g.syncVeins()

	ws, err := g.World.Serialize()
	if err != nil {
		return nil, fmt.Errorf("serialize world: %w", err)
	}
	save := &SaveData{
		Version:   SaveVersion,
		Seed:      g.Rand.Seed(),
		RNG:       g.Rand.State(),
		State:     g.State.Persisted(),
		Resources: g.Resources.Snapshot(),
		Map:       g.Map,
		World:     ws,
		Camera:    g.Camera,
		Veins:     make([]VeinEntry, 0, len(g.veins)),
		Systems:   make(map[string]json.RawMessage),
	}
	for k, r := range g.veins {
		save.Veins = append(save.Veins, VeinEntry{Key: k, Reserve: *r})
	}
	sort.Slice(save.Veins, func(i, j int) bool {
		a, b := save.Veins[i].Key, save.Veins[j].Key
		if a.Family != b.Family {
			return a.Family < b.Family
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})
	for _, s := range g.Runner.Stateful() {
		raw, err := s.SaveState()
		if err != nil {
			return nil, fmt.Errorf("save %s state: %w", s.Name(), err)
		}
		save.Systems[s.Name()] = raw
	}
	return save, nil
}

// Marshal encodes a save as JSON.
func (s *SaveData) Marshal() ([]byte, error) {
	return json.Marshal(s)
}

// DecodeSave parses a JSON save. The version tag is checked before anything
// else is decoded.
func DecodeSave(raw []byte) (*SaveData, error) {
	var head struct {
		Version *int `json:"version"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSave, err)
	}
	if head.Version == nil {
		return nil, fmt.Errorf("%w: missing version", ErrCorruptSave)
	}
	if *head.Version != SaveVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrVersionMismatch, *head.Version, SaveVersion)
	}
	var save SaveData
	if err := json.Unmarshal(raw, &save); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSave, err)
	}
	return &save, nil
}

// Restore rebuilds a Game from save. Any inconsistency refuses the load
// rather than guessing.
func Restore(deps Deps, save *SaveData) (*Game, error) {
	if save == nil {
		return nil, fmt.Errorf("%w: empty save", ErrCorruptSave)
	}
	if save.Version != SaveVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrVersionMismatch, save.Version, SaveVersion)
	}
	if save.Map == nil || save.Map.Width <= 0 || save.Map.Height <= 0 ||
		len(save.Map.Tiles) != save.Map.Width*save.Map.Height {
		return nil, fmt.Errorf("%w: bad tile map", ErrCorruptSave)
	}
	if save.World == nil {
		return nil, fmt.Errorf("%w: missing world", ErrCorruptSave)
	}

	g := newGame(deps, rng.Restore(save.Seed, save.RNG))
	g.State.ApplyPersisted(save.State)
	if err := g.Resources.Restore(save.Resources); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSave, err)
	}
	g.Map = save.Map
	g.Map.Touch()
	g.Paths = pathfind.NewAStar(g.Map)
	if err := g.World.Deserialize(save.World); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSave, err)
	}
	g.Camera = save.Camera
	g.Camera.Clamp(g.Map)

	for _, v := range save.Veins {
		if v.Reserve.Max < 0 || v.Reserve.Remaining < 0 || v.Reserve.Remaining > v.Reserve.Max {
			return nil, fmt.Errorf("%w: vein %v out of range", ErrCorruptSave, v.Key)
		}
		if _, dup := g.veins[v.Key]; dup {
			return nil, fmt.Errorf("%w: duplicate vein %v", ErrCorruptSave, v.Key)
		}
		r := v.Reserve
		g.veins[v.Key] = &r
	}
	if err := g.checkBuildings(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSave, err)
	}
	if err := g.CheckRosterInvariant(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSave, err)
	}

	g.registerSystems(deps)
	for _, s := range g.Runner.Stateful() {
		raw, ok := save.Systems[s.Name()]
		if !ok {
			continue
		}
		if err := s.LoadState(raw); err != nil {
			return nil, fmt.Errorf("%w: %s state: %v", ErrCorruptSave, s.Name(), err)
		}
	}

	g.log.Info("settlement restored",
		zap.Uint64("tick", g.State.Tick),
		zap.Int("citizens", g.C.Citizen.Len()),
		zap.Int("buildings", g.C.Building.Len()),
		zap.Int("veins", len(g.veins)))
	return g, nil
}

// checkBuildings verifies every building has a known type and that upgrade
// and demolition are never both in progress.
func (g *Game) checkBuildings() error {
	var err error
	g.C.Building.Each(func(id ecs.EntityID, b *component.Building) {
		if err != nil {
			return
		}
		if _, ok := g.defs.Get(b.Type); !ok {
			err = fmt.Errorf("building %v: unknown type %q", id, b.Type)
			return
		}
		if (b.Upgrading() || b.Demolishing()) && !b.Completed {
			err = fmt.Errorf("building %v: upgrade or demolition before completion", id)
			return
		}
		if b.Upgrading() && b.Demolishing() {
			err = fmt.Errorf("building %v: upgrading and demolishing", id)
		}
	})
	return err
}
