package persist

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hearthfall/settlement/internal/config"
	"github.com/hearthfall/settlement/internal/game"
	"go.uber.org/zap"
)

const writeTimeout = 10 * time.Second

// Autosaver saves the game every interval ticks. The snapshot is encoded on
// the game loop, since it shares memory with the live map; only the store
// write runs in the background. A tick that comes due while the previous
// write is still running is skipped.
type Autosaver struct {
	store    Store
	slot     string
	interval uint64
	keep     int
	log      *zap.Logger

	busy atomic.Bool
	wg   sync.WaitGroup

	// Observe, when set, is called after every write attempt.
	Observe func(rec Record, took time.Duration, err error)
}

func NewAutosaver(store Store, cfg config.PersistenceConfig, log *zap.Logger) *Autosaver {
	return &Autosaver{
		store:    store,
		slot:     cfg.Slot,
		interval: uint64(max(cfg.AutosaveTicks, 0)),
		keep:     cfg.Keep,
		log:      log.Named("autosave"),
	}
}

// Attach registers the autosaver as a post-tick hook of g.
func (a *Autosaver) Attach(g *game.Game) {
	g.AddPostTick(func(tick uint64) { a.onTick(g, tick) })
}

func (a *Autosaver) onTick(g *game.Game, tick uint64) {
	if a.interval == 0 || tick%a.interval != 0 {
		return
	}
	if !a.busy.CompareAndSwap(false, true) {
		a.log.Warn("autosave skipped, previous write still running", zap.Uint64("tick", tick))
		return
	}
	blob, err := encode(g)
	if err != nil {
		a.busy.Store(false)
		a.log.Error("autosave encode failed", zap.Uint64("tick", tick), zap.Error(err))
		return
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer a.busy.Store(false)
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		_, _ = a.write(ctx, tick, blob)
	}()
}

// SaveNow waits for any background write, then saves g synchronously.
// Called from the game loop on shutdown.
func (a *Autosaver) SaveNow(ctx context.Context, g *game.Game) (Record, error) {
	a.Wait()
	blob, err := encode(g)
	if err != nil {
		return Record{}, err
	}
	return a.write(ctx, g.Tick(), blob)
}

// Wait blocks until no write is in flight.
func (a *Autosaver) Wait() {
	a.wg.Wait()
}

func (a *Autosaver) write(ctx context.Context, tick uint64, blob []byte) (Record, error) {
	start := time.Now()
	rec, err := a.store.Save(ctx, a.slot, tick, blob)
	took := time.Since(start)
	if a.Observe != nil {
		a.Observe(rec, took, err)
	}
	if err != nil {
		a.log.Error("save failed", zap.Uint64("tick", tick), zap.Error(err))
		return Record{}, err
	}
	a.log.Info("game saved",
		zap.String("slot", rec.Slot),
		zap.Uint64("tick", tick),
		zap.String("size", humanize.Bytes(uint64(rec.Size))),
		zap.Duration("took", took),
	)
	if a.keep > 0 {
		if n, err := a.store.Prune(ctx, a.slot, a.keep); err != nil {
			a.log.Warn("prune failed", zap.Error(err))
		} else if n > 0 {
			a.log.Debug("old saves pruned", zap.Int("count", n))
		}
	}
	return rec, nil
}

func encode(g *game.Game) ([]byte, error) {
	save, err := g.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return EncodeSave(save)
}

// Load restores the newest save in slot. ErrNotFound means the slot is
// empty; any other error means the save exists but cannot be trusted.
func Load(ctx context.Context, store Store, slot string, deps game.Deps) (*game.Game, Record, error) {
	rec, blob, err := store.LoadLatest(ctx, slot)
	if err != nil {
		return nil, Record{}, err
	}
	save, err := DecodeSave(blob)
	if err != nil {
		return nil, rec, fmt.Errorf("decode save %s: %w", rec.ID, err)
	}
	g, err := game.Restore(deps, save)
	if err != nil {
		return nil, rec, fmt.Errorf("restore save %s: %w", rec.ID, err)
	}
	deps.Log.Info("game loaded",
		zap.String("slot", rec.Slot),
		zap.Uint64("tick", rec.Tick),
		zap.String("saved", humanize.Time(rec.CreatedAt)),
		zap.String("size", humanize.Bytes(uint64(rec.Size))),
	)
	return g, rec, nil
}
