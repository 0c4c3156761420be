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

	"github.com/pkg/profile"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/l1jgo/simcore/internal/config"
	"github.com/l1jgo/simcore/internal/core/ecs"
	"github.com/l1jgo/simcore/internal/core/event"
	coresys "github.com/l1jgo/simcore/internal/core/system"
	"github.com/l1jgo/simcore/internal/data"
	"github.com/l1jgo/simcore/internal/input"
	"github.com/l1jgo/simcore/internal/render"
	"github.com/l1jgo/simcore/internal/scripting"
	"github.com/l1jgo/simcore/internal/system"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(worldID string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m              simcore  v0.1.0              \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mworld:\033[0m \033[90m%s\033[0m\n\n", worldID)
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

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Simulation ─────────────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/simcore.toml"
	if p := os.Getenv("SIMCORE_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if errors.Is(err, os.ErrNotExist) {
		cfg, err = config.Default(), nil
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	if p := startProfile(cfg.Profile); p != nil {
		defer p.Stop()
	}

	// 3. Core: bus, world, runner
	bus := event.NewBus(log)
	bus.SetDebug(cfg.Events.Debug)
	world := ecs.NewWorld(ecs.Options{
		MaxEntities:       cfg.Engine.MaxEntities,
		MaxComponentTypes: cfg.Engine.MaxComponentTypes,
		Bus:               bus,
		Log:               log,
	})
	runner := coresys.NewRunner(log, cfg.Engine.Workers)
	defer runner.Shutdown()

	printBanner(world.ID().String())

	// 4. Scripts and scene
	printSection("content")
	lua, err := scripting.NewEngine(cfg.Scripting.Dir, log)
	if err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	defer lua.Close()

	ctx := context.Background()
	spawned := 0
	if cfg.Scene.Path != "" {
		scene, err := data.LoadScene(cfg.Scene.Path)
		if err != nil {
			return fmt.Errorf("scene: %w", err)
		}
		ents, err := scene.Spawn(ctx, world)
		if err != nil {
			return fmt.Errorf("scene: %w", err)
		}
		spawned = len(ents)
	}
	printStat("entities", spawned)
	printStat("component types", world.Registry().Len())

	// 5. Systems, registered in tick order within each phase
	src := &input.Static{}
	physics := system.NewPhysicsSystem(world, system.PhysicsConfig{
		MinDelta: cfg.Physics.MinDelta,
		MaxDelta: cfg.Physics.MaxDelta,
		CellSize: cfg.Physics.CellSize,
	})
	cache := system.NewRenderSystem(world, bus, log)
	renderer := render.NewLogRenderer(log, max(int(time.Second/cfg.Engine.TickRate), 1))

	for _, s := range []coresys.System{
		system.NewEventDrainSystem(bus),
		system.NewInputSystem(world, bus, src),
		system.NewMovementSystem(world, bus, log),
		system.NewScriptSystem(world, lua, log),
		system.NewProjectileSystem(world, bus, physics, log),
		system.NewWeaponSystem(world, bus, physics, log),
		system.NewHealthSystem(world, bus, log),
		physics,
		system.NewCleanupSystem(world, log),
		system.NewCameraSystem(world),
		cache,
		system.NewPresentSystem(world, cache, renderer),
	} {
		if err := runner.Register(s); err != nil {
			return fmt.Errorf("register system: %w", err)
		}
	}
	printStat("systems", runner.Len())
	fmt.Println()

	// 6. Tick loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Engine.TickRate)
	defer ticker.Stop()

	printSection("running")
	printReady(fmt.Sprintf("tick %s", cfg.Engine.TickRate))
	if cfg.Engine.Ticks > 0 {
		printReady(fmt.Sprintf("stopping after %d ticks", cfg.Engine.Ticks))
	}
	fmt.Println()

	last := time.Now()
	for tick := 1; ; tick++ {
		select {
		case now := <-ticker.C:
			autopilot(src, tick)
			if err := runner.Tick(now.Sub(last)); err != nil {
				log.Error("tick failed", zap.Int("tick", tick), zap.Error(err))
			}
			last = now
			if cfg.Engine.Ticks > 0 && tick >= cfg.Engine.Ticks {
				logSummary(log, world, bus, renderer)
				return nil
			}
		case sig := <-shutdownCh:
			log.Info("shutdown signal", zap.String("signal", sig.String()))
			logSummary(log, world, bus, renderer)
			return nil
		}
	}
}

// autopilot drives the scripted demo input: walk forward, strafe, jump and
// short bursts of fire.
func autopilot(src *input.Static, tick int) {
	switch (tick / 60) % 4 {
	case 0:
		src.Release(input.ActionMoveRight)
		src.Press(input.ActionMoveForward)
	case 1:
		src.Look(4, 0)
	case 2:
		src.Release(input.ActionMoveForward)
		src.Press(input.ActionMoveRight)
	}
	if tick%90 == 0 {
		src.Press(input.ActionJump)
	} else {
		src.Release(input.ActionJump)
	}
	if tick%45 < 5 {
		src.Press(input.ActionFire)
	} else {
		src.Release(input.ActionFire)
	}
}

func logSummary(log *zap.Logger, world *ecs.World, bus *event.Bus, r *render.LogRenderer) {
	st := bus.Stats()
	log.Info("simulation stopped",
		zap.Stringer("world", world.ID()),
		zap.Uint32("alive", world.ActiveCount()),
		zap.Uint32("created", world.TotalCreated()),
		zap.Int("frames", r.Frames()),
		zap.Uint64("events_published", st.Published),
		zap.Uint64("events_handled", st.Handled),
		zap.Uint64("events_deferred", st.Deferred))
}

func startProfile(cfg config.ProfileConfig) interface{ Stop() } {
	opts := []func(*profile.Profile){profile.ProfilePath(cfg.Dir), profile.NoShutdownHook}
	switch cfg.Mode {
	case "cpu":
		opts = append(opts, profile.CPUProfile)
	case "mem":
		opts = append(opts, profile.MemProfile)
	case "trace":
		opts = append(opts, profile.TraceProfile)
	default:
		return nil
	}
	return profile.Start(opts...)
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
