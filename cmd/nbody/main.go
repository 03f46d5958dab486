// cmd/nbody/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/opd-ai/go-nbody/pkg/config"
	"github.com/opd-ai/go-nbody/pkg/engine"
	"github.com/opd-ai/go-nbody/pkg/event"
	"github.com/opd-ai/go-nbody/pkg/health"
	"github.com/opd-ai/go-nbody/pkg/logging"
	"github.com/opd-ai/go-nbody/pkg/physics"
	"github.com/opd-ai/go-nbody/pkg/render"
	engorender "github.com/opd-ai/go-nbody/pkg/render/engo"
	"github.com/opd-ai/go-nbody/pkg/validation"
)

// Reloads allowed per scenario file within reloadWindow
const (
	reloadBurst  = 3
	reloadWindow = 10 * time.Second
)

// Limits of the status server's readiness checks
const (
	stallAfter  = 30 * time.Second
	maxMemoryMB = 1024
)

func main() {
	os.Exit(run())
}

// run returns the process exit code so deferred cleanup, like restoring
// the terminal, always happens.
func run() int {
	scenarioPath := flag.String("scenario", "", "Scenario file (.json, .yaml, .yml or .tengo)")
	createDefault := flag.Bool("default", false, "Write the default scenario to -scenario and exit")
	preset := flag.String("preset", "", fmt.Sprintf("Built-in scenario %v", config.PresetNames()))
	random := flag.Int("random", 0, "Run N random bodies instead of the scenario's bodies")
	seed := flag.Uint64("seed", 0, "Seed for random bodies (0 picks one)")
	rendererName := flag.String("renderer", "terminal", "Viewer: null, terminal or engo")
	frames := flag.Uint64("frames", 0, "Stop after N frames (0 runs until interrupted)")
	workers := flag.Int("workers", 0, "Force accumulation workers (0 or 1 is sequential)")
	watch := flag.Bool("watch", config.WatchEnabled(), "Reload the scenario file when it changes")
	width := flag.Float64("width", 0, "World and window width")
	height := flag.Float64("height", 0, "World and window height")
	fullscreen := flag.Bool("fullscreen", false, "Fullscreen window (engo viewer)")
	steps := flag.Int("steps", 1, "Frames advanced per window tick (engo viewer)")
	stopSingle := flag.Bool("stop-single", false, "Stop once a single body remains")
	logPath := flag.String("log", "", "Log file (the terminal viewer discards logs unless set)")
	statusAddr := flag.String("status-addr", "", "Serve /healthz, /readyz and /state on this address")
	flag.Parse()

	logger, closeLog, err := newLogger(*rendererName, *logPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer closeLog()

	runID := logging.GenerateRunID()
	ctx := logging.WithRunID(context.Background(), runID)

	if *createDefault {
		if *scenarioPath == "" {
			logger.Error(ctx, "-default needs -scenario", nil)
			return 1
		}
		if err := config.SaveConfig(config.DefaultConfig(), *scenarioPath); err != nil {
			logger.Error(ctx, "Failed to create default scenario", err, "scenario_path", *scenarioPath)
			return 1
		}
		logger.Info(ctx, "Created default scenario file", "scenario_path", *scenarioPath)
		return 0
	}

	opts := options{
		scenarioPath: *scenarioPath,
		preset:       *preset,
		random:       *random,
		seed:         *seed,
		frames:       *frames,
		workers:      *workers,
		width:        *width,
		height:       *height,
	}
	cfg, err := loadScenario(opts)
	if err != nil {
		logger.Error(ctx, "Failed to load scenario", err, "scenario_path", *scenarioPath, "preset", *preset)
		return 1
	}

	bus := event.NewEventBus()
	bus.Subscribe(event.BodiesMerged, func(e event.Event) {
		if m, ok := e.(*event.MergeEvent); ok {
			logger.Debug(ctx, "bodies merged", "mass", m.Mass, "charge", m.Charge, "x", m.Position.X, "y", m.Position.Y)
		}
	})

	worldOpts := []engine.Option{
		engine.WithEventBus(bus),
		engine.WithLogger(logger),
		engine.WithRunID(runID),
	}
	if *stopSingle {
		worldOpts = append(worldOpts, engine.WithStopCondition(engine.SingleBodyRemains))
	}
	world, err := engine.NewWorld(cfg.WorldConfig(), cfg.BuildBodies(), worldOpts...)
	if err != nil {
		logger.Error(ctx, "Failed to create world", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	current := newActiveScenario(cfg)

	var (
		viewer   render.Renderer
		screen   tcell.Screen
		onReload = func(cfg *config.ScenarioConfig) { current.Store(cfg) }
	)
	switch *rendererName {
	case "null":
		viewer = render.NewNullRendererWithLogger(logger)
	case "terminal":
		var tr *render.TerminalRenderer
		screen, tr, err = newTerminal(world.Bounds())
		if err != nil {
			logger.Error(ctx, "Failed to open terminal", err)
			return 1
		}
		defer screen.Fini()
		viewer = tr
		onReload = func(cfg *config.ScenarioConfig) {
			current.Store(cfg)
			tr.SetBounds(cfg.Bounds())
		}
	case "engo":
	default:
		logger.Error(ctx, "Unknown renderer", nil, "renderer", *rendererName)
		return 1
	}

	if *statusAddr != "" {
		go serveStatus(ctx, *statusAddr, world, logger)
	}

	if *watch && *scenarioPath != "" {
		if watcher, err := config.NewWatcher(config.WatchDebounce(), *scenarioPath); err != nil {
			logger.Warn(ctx, "Scenario watching disabled", "scenario_path", *scenarioPath, "error", err.Error())
		} else {
			defer watcher.Close()
			opts.preset = ""
			go watchScenario(ctx, watcher, opts, world, logger, onReload)
		}
	}

	switch {
	case screen != nil:
		err = runTerminal(ctx, world, screen, viewer)
	case viewer != nil:
		err = world.Run(ctx, viewer)
	default:
		scene := engorender.NewScene(world, logger, *steps, current.Bodies)
		go func() {
			<-ctx.Done()
			world.Stop()
		}()
		engorender.Run(scene, *fullscreen)
		err = scene.Err()
	}

	summary(ctx, logger, world)
	if err != nil {
		logger.Error(ctx, "Simulation failed", err)
		return 1
	}
	return 0
}

// newLogger picks the log destination. The terminal viewer owns the
// screen, so its logs go to a file or nowhere.
func newLogger(rendererName, path string) (*logging.Logger, func(), error) {
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		return logging.NewLoggerWithWriter(f), func() { _ = f.Close() }, nil
	}
	if rendererName == "terminal" {
		return logging.NewLoggerWithWriter(io.Discard), func() {}, nil
	}
	return logging.NewLoggerWithWriter(os.Stderr), func() {}, nil
}

// watchScenario reloads the world whenever the scenario file changes.
// Bursts beyond the rate limit and invalid files are logged and skipped;
// the running scenario is kept.
func watchScenario(ctx context.Context, w *config.Watcher, opts options, world *engine.World, logger *logging.Logger, onReload func(*config.ScenarioConfig)) {
	limiter := validation.NewRateLimiter(reloadBurst, reloadWindow)

	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			logger.Warn(ctx, "scenario watcher error", "error", err.Error())
		case path, ok := <-w.Events:
			if !ok {
				return
			}
			limiter.Forget()
			if !limiter.Allow(path) {
				logger.Warn(ctx, "scenario reload rate limited", "scenario_path", path)
				continue
			}
			opts.scenarioPath = path
			cfg, err := loadScenario(opts)
			if err != nil {
				logger.Warn(ctx, "scenario reload rejected", "scenario_path", path, "error", err.Error())
				continue
			}
			if err := world.Reload(cfg.WorldConfig(), cfg.BuildBodies()); err != nil {
				logger.Warn(ctx, "scenario reload failed", "scenario_path", path, "error", err.Error())
				continue
			}
			logger.Info(ctx, "scenario reloaded from file", "scenario_path", path, "bodies", world.BodyCount())
			if onReload != nil {
				onReload(cfg)
			}
		}
	}
}

// serveStatus exposes the world's health and telemetry over HTTP until ctx
// is cancelled.
func serveStatus(ctx context.Context, addr string, world *engine.World, logger *logging.Logger) {
	hc := health.NewHealthChecker()
	hc.AddCheck(health.NewSimulationHealthCheck(world))
	hc.AddCheck(health.NewProgressHealthCheck(world, stallAfter))
	hc.AddCheck(health.NewMemoryHealthCheck(maxMemoryMB, nil))

	if err := health.Serve(ctx, addr, health.NewMux(hc, world), logger); err != nil {
		logger.Warn(ctx, "status server stopped", "addr", addr, "error", err.Error())
	}
}

// newTerminal opens the terminal screen and a renderer drawing onto it
func newTerminal(bounds physics.Bounds) (tcell.Screen, *render.TerminalRenderer, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, nil, fmt.Errorf("failed to initialise screen: %w", err)
	}
	return screen, render.NewTerminalRenderer(screen, bounds), nil
}

// runTerminal drives the world until the context is cancelled, the run
// finishes, or Escape, q or Ctrl-C is pressed.
func runTerminal(ctx context.Context, world *engine.World, screen tcell.Screen, r render.Renderer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		for {
			switch ev := screen.PollEvent().(type) {
			case nil:
				return
			case *tcell.EventResize:
				screen.Sync()
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC || ev.Rune() == 'q' {
					cancel()
					return
				}
			}
		}
	}()

	return world.Run(ctx, r)
}

func summary(ctx context.Context, logger *logging.Logger, world *engine.World) {
	state := world.Snapshot()
	momentum := state.Momentum()
	center := state.CenterOfMass()
	args := []any{
		"frames", state.Frame,
		"sim_time", state.SimTime,
		"bodies", len(state.Bodies),
		"total_mass", state.TotalMass(),
		"total_charge", state.TotalCharge(),
		"momentum_x", momentum.X,
		"momentum_y", momentum.Y,
		"center_x", center.X,
		"center_y", center.Y,
	}
	if err := world.Err(); err != nil {
		args = append(args, "error", err.Error())
	}
	logger.Info(ctx, "Simulation finished", args...)
}
