package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hearthfall/settlement/internal/api"
	"github.com/hearthfall/settlement/internal/config"
	coresys "github.com/hearthfall/settlement/internal/core/system"
	"github.com/hearthfall/settlement/internal/data"
	"github.com/hearthfall/settlement/internal/game"
	"github.com/hearthfall/settlement/internal/metrics"
	"github.com/hearthfall/settlement/internal/persist"
	"github.com/hearthfall/settlement/internal/scripting"
	"github.com/hearthfall/settlement/internal/system"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(slot string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m            Hearthfall Settlement          \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mslot:\033[0m %s\n\n", slot)
}

func printSection(title string) {
	lineLen := max(46-len(title)-1, 3)
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := max(42-len(label)-len(numStr), 3)
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main loop ─────────────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/settlement.toml"
	if p := os.Getenv("SETTLEMENT_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Persistence.Slot)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Data tables and formulas
	printSection("data")
	buildings, err := data.LoadBuildingTable(cfg.Data.Buildings)
	if err != nil {
		return fmt.Errorf("load building table: %w", err)
	}
	printStat("building types", buildings.Count())

	luaEngine, err := scripting.NewEngine(cfg.Scripting.Dir, game.DefaultFormulas{}, log)
	if err != nil {
		return fmt.Errorf("lua engine: %w", err)
	}
	defer luaEngine.Close()
	printOK("Lua formulas loaded")
	fmt.Println()

	// 4. Save store
	printSection("storage")
	openCtx, cancelOpen := context.WithTimeout(ctx, 30*time.Second)
	store, err := persist.Open(openCtx, cfg.Database, log)
	cancelOpen()
	if err != nil {
		return fmt.Errorf("save store: %w", err)
	}
	if store != nil {
		defer store.Close()
		printOK(fmt.Sprintf("%s store ready", cfg.Database.Driver))
	} else {
		printOK("persistence disabled")
	}
	fmt.Println()

	// 5. Load or found the settlement
	printSection("settlement")
	deps := game.Deps{
		Config:    cfg,
		Buildings: buildings,
		Formulas:  luaEngine,
		Systems:   system.All,
		Log:       log,
	}
	g, loaded, err := loadOrNew(ctx, store, cfg, deps)
	if err != nil {
		return err
	}
	printStat("tick", int(g.Tick()))
	printStat("citizens", g.C.Citizen.Len())
	printStat("buildings", g.C.Building.Len())
	fmt.Println()

	system.NewNotifier(g.Bus, log)
	metrics.CountEvents(g.Bus)

	var saver *persist.Autosaver
	if store != nil {
		saver = persist.NewAutosaver(store, cfg.Persistence, log)
		saver.Observe = metrics.ObserveSave
		saver.Attach(g)
	}

	// 6. Admin API
	var srv *api.Server
	var controls <-chan api.Control
	if cfg.API.Enabled {
		srv = api.NewServer(api.Deps{Config: cfg.API, Game: g, Buildings: buildings, Log: log})
		srv.Hub().Feed(g.Bus)
		srv.Publish(g.Status())
		controls = srv.Controls()
		go func() {
			if err := srv.Serve(ctx); err != nil {
				log.Error("api server stopped", zap.Error(err))
			}
		}()
	}

	// 7. Scheduler
	speed := cfg.Simulation.StartSpeed
	if loaded {
		speed = g.State.Speed
		if g.State.Paused {
			speed = 0
		}
	}
	update := func() {
		start := time.Now()
		g.Step()
		metrics.ObserveTick(time.Since(start))
	}
	render := func(float64) {
		st := g.Status()
		metrics.Publish(st)
		if srv != nil {
			srv.Publish(st)
		}
	}
	sched := coresys.NewScheduler(coresys.SchedulerConfig{
		Step:       cfg.Simulation.TickRate,
		Frame:      cfg.Simulation.FrameRate,
		MaxCatchUp: cfg.Simulation.MaxCatchUpTicks,
		Speed:      speed,
	}, update, render, log)
	syncSpeed := func() {
		g.State.Speed = sched.Speed()
		g.State.Paused = sched.Paused()
	}
	syncSpeed()
	sched.SetFrameHook(func() {
		for {
			select {
			case c := <-controls:
				applyControl(ctx, c, sched, g, saver, log)
				syncSpeed()
			default:
				return
			}
		}
	})

	printSection("ready")
	if srv != nil {
		printReady(fmt.Sprintf("admin api %s", cfg.API.BindAddress))
	}
	printReady(fmt.Sprintf("simulation running (tick: %s, speed %d)", cfg.Simulation.TickRate, sched.Speed()))
	fmt.Println()

	sched.Run(ctx)

	// 8. Final save
	if saver != nil {
		saveCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := saver.SaveNow(saveCtx, g); err != nil {
			return fmt.Errorf("final save: %w", err)
		}
	}
	log.Info("settlement stopped", zap.Uint64("tick", g.Tick()))
	return nil
}

// loadOrNew restores the newest save when configured to, and founds a new
// settlement when there is none. A save that exists but cannot be restored
// stops startup instead of being replaced.
func loadOrNew(ctx context.Context, store persist.Store, cfg *config.Config, deps game.Deps) (*game.Game, bool, error) {
	if store != nil && cfg.Persistence.LoadOnStart {
		g, rec, err := persist.Load(ctx, store, cfg.Persistence.Slot, deps)
		switch {
		case err == nil:
			printOK(fmt.Sprintf("save %s restored", rec.ID))
			return g, true, nil
		case errors.Is(err, persist.ErrNotFound):
			deps.Log.Info("no save found, founding a new settlement", zap.String("slot", cfg.Persistence.Slot))
		default:
			return nil, false, fmt.Errorf("load save: %w", err)
		}
	}
	g := game.New(deps)
	printOK(fmt.Sprintf("new settlement founded (seed %d)", cfg.Simulation.Seed))
	return g, false, nil
}

func applyControl(ctx context.Context, c api.Control, sched *coresys.Scheduler, g *game.Game, saver *persist.Autosaver, log *zap.Logger) {
	switch c.Kind {
	case api.ControlSpeed:
		sched.SetSpeed(c.Speed)
	case api.ControlPause:
		sched.Pause()
	case api.ControlResume:
		sched.Resume()
	case api.ControlSave:
		if saver == nil {
			log.Warn("save requested but persistence is disabled")
			return
		}
		if _, err := saver.SaveNow(ctx, g); err != nil {
			log.Error("manual save failed", zap.Error(err))
		}
	}
	log.Info("control applied", zap.String("kind", string(c.Kind)), zap.Int("speed", sched.Speed()))
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
