// pkg/engine/world.go
package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/opd-ai/go-nbody/pkg/event"
	"github.com/opd-ai/go-nbody/pkg/logging"
	"github.com/opd-ai/go-nbody/pkg/physics"
	"github.com/opd-ai/go-nbody/pkg/render"
	"github.com/opd-ai/go-nbody/pkg/validation"
)

// WorldStatus is the lifecycle state of a World
type WorldStatus int

const (
	WorldStatusIdle WorldStatus = iota
	WorldStatusRunning
	WorldStatusStopped
	WorldStatusCorrupted
)

func (s WorldStatus) String() string {
	switch s {
	case WorldStatusIdle:
		return "idle"
	case WorldStatusRunning:
		return "running"
	case WorldStatusStopped:
		return "stopped"
	case WorldStatusCorrupted:
		return "corrupted"
	}
	return fmt.Sprintf("WorldStatus(%d)", int(s))
}

// StopCondition defines custom logic for ending a Run early.
// It receives a snapshot taken after each frame.
type StopCondition interface {
	ShouldStop(state *WorldState) bool
}

// StopConditionFunc adapts a function to StopCondition
type StopConditionFunc func(state *WorldState) bool

// ShouldStop implements StopCondition
func (f StopConditionFunc) ShouldStop(state *WorldState) bool { return f(state) }

// WorldConfig holds the fixed parameters of a run
type WorldConfig struct {
	Name          string
	TimeStep      float64 // simulated seconds per frame
	Bounds        physics.Bounds
	Workers       int
	MaxFrames     uint64        // 0 means unlimited
	TimeLimit     float64       // simulated seconds, 0 means unlimited
	FrameInterval time.Duration // wall-clock pause between frames in Run
}

// Validate checks the configuration
func (c WorldConfig) Validate() error {
	if err := validation.ValidateTimeStep(c.TimeStep); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTimeStep, err)
	}
	if err := validation.ValidateBounds(c.Bounds); err != nil {
		return err
	}
	if err := validation.ValidateWorkers(c.Workers); err != nil {
		return err
	}
	if c.TimeLimit < 0 || c.FrameInterval < 0 {
		return fmt.Errorf("time limit and frame interval must not be negative")
	}
	return nil
}

// World owns the body collection and drives the Stepper frame by frame.
// It is safe for concurrent use: readers see whole frames only.
type World struct {
	mu      sync.RWMutex
	config  WorldConfig
	bodies  []*physics.Body
	stepper *Stepper
	frame   uint64
	simTime float64
	status  WorldStatus
	err     error

	// Handlers for BodiesMerged run inside the frame and must not call
	// back into the World.
	EventBus      *event.Bus
	StopCondition StopCondition

	logger *logging.Logger
	logCtx context.Context
}

// Option configures a World
type Option func(*World)

// WithEventBus publishes to bus instead of a private bus
func WithEventBus(bus *event.Bus) Option {
	return func(w *World) { w.EventBus = bus }
}

// WithLogger sets the logger
func WithLogger(logger *logging.Logger) Option {
	return func(w *World) { w.logger = logger }
}

// WithStopCondition installs a custom stop condition for Run
func WithStopCondition(c StopCondition) Option {
	return func(w *World) { w.StopCondition = c }
}

// WithRunID tags every log line of this world with id
func WithRunID(id string) Option {
	return func(w *World) { w.logCtx = logging.WithRunID(context.Background(), id) }
}

// NewWorld creates a world over a copy of bodies
func NewWorld(cfg WorldConfig, bodies []*physics.Body, opts ...Option) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid world config: %w", err)
	}
	if err := validation.ValidateBodyCount(len(bodies)); err != nil {
		return nil, err
	}

	w := &World{
		config: cfg,
		bodies: slices.Clone(bodies),
		status: WorldStatusIdle,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.EventBus == nil {
		w.EventBus = event.NewEventBus()
	}
	if w.logger == nil {
		w.logger = logging.NewLogger()
	}
	if w.logCtx == nil {
		w.logCtx = logging.WithRunID(context.Background(), "")
	}
	w.stepper = NewStepper(cfg.Bounds, cfg.Workers, w.EventBus)

	return w, nil
}

// Start marks the world as running. A corrupted world stays corrupted
// until Reset or Reload.
func (w *World) Start() {
	w.mu.Lock()
	if w.status == WorldStatusCorrupted {
		w.mu.Unlock()
		return
	}
	w.status = WorldStatusRunning
	frame, n, t := w.frame, len(w.bodies), w.simTime
	w.mu.Unlock()

	w.logger.Info(w.logCtx, "simulation started",
		"scenario", w.config.Name,
		"bodies", n,
		"time_step", w.config.TimeStep,
		"workers", w.config.Workers,
	)
	w.EventBus.Publish(event.NewFrameEvent(event.SimulationStarted, w, frame, n, t))
}

// Stop marks a running world as stopped. A corrupted world stays corrupted.
func (w *World) Stop() {
	w.mu.Lock()
	if w.status != WorldStatusRunning {
		w.mu.Unlock()
		return
	}
	w.status = WorldStatusStopped
	frame, n, t := w.frame, len(w.bodies), w.simTime
	w.mu.Unlock()

	w.logger.Info(w.logCtx, "simulation stopped", "frame", frame, "bodies", n, "sim_time", t)
	w.EventBus.Publish(event.NewFrameEvent(event.SimulationStopped, w, frame, n, t))
}

// Running reports whether the world is between Start and Stop
func (w *World) Running() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.status == WorldStatusRunning
}

// Status returns the lifecycle state
func (w *World) Status() WorldStatus {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.status
}

// Advance runs exactly one frame.
func (w *World) Advance() error {
	return w.AdvanceContext(context.Background())
}

// AdvanceContext runs one frame. Once a frame is corrupt the world refuses
// to advance until Reset or Reload.
func (w *World) AdvanceContext(ctx context.Context) error {
	w.mu.Lock()
	if w.err != nil {
		err := w.err
		w.mu.Unlock()
		return err
	}

	bodies, err := w.stepper.Step(ctx, w.bodies, w.config.TimeStep)
	w.bodies = bodies
	if err != nil {
		if !errors.Is(err, ErrCorruptFrame) {
			w.mu.Unlock()
			return err
		}
		w.err = err
		w.status = WorldStatusCorrupted
		frame := w.frame
		w.mu.Unlock()

		w.logger.Error(w.logCtx, "frame corrupted, simulation halted", err, "frame", frame)
		w.EventBus.Publish(event.NewCorruptionEvent(w, frame, err))
		return err
	}

	w.frame++
	w.simTime = float64(w.frame) * w.config.TimeStep
	frame, n, t := w.frame, len(w.bodies), w.simTime
	w.mu.Unlock()

	w.EventBus.Publish(event.NewFrameEvent(event.FrameAdvanced, w, frame, n, t))
	return nil
}

// Draw renders the current frame
func (w *World) Draw(r render.Renderer) {
	w.mu.RLock()
	r.Clear()
	for i, b := range w.bodies {
		r.RenderBody(i, b)
	}
	status := w.statusLocked()
	w.mu.RUnlock()

	r.Present(status)
}

// RenderStatus returns the telemetry for the current frame
func (w *World) RenderStatus() render.Status {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.statusLocked()
}

func (w *World) statusLocked() render.Status {
	return render.Status{
		Bodies:  len(w.bodies),
		Frame:   w.frame,
		SimTime: w.simTime,
		Title:   render.FormatTitle(w.config.Name, len(w.bodies), w.simTime),
	}
}

// Run advances and draws frames until ctx is cancelled, a limit in the
// config is reached, the stop condition fires, or a frame is corrupt.
// Cancellation is not an error.
func (w *World) Run(ctx context.Context, r render.Renderer) error {
	w.Start()
	defer w.Stop()

	var tick <-chan time.Time
	if w.config.FrameInterval > 0 {
		ticker := time.NewTicker(w.config.FrameInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		if ctx.Err() != nil {
			return nil
		}

		if err := w.AdvanceContext(ctx); err != nil {
			if ctx.Err() != nil && !errors.Is(err, ErrCorruptFrame) {
				return nil
			}
			return err
		}
		w.Draw(r)

		if w.shouldStop() {
			return nil
		}

		if tick != nil {
			select {
			case <-ctx.Done():
				return nil
			case <-tick:
			}
		}
	}
}

// Finished reports whether a stop condition has been met: the frame or
// time limit, or the StopCondition hook.
func (w *World) Finished() bool {
	return w.shouldStop()
}

func (w *World) shouldStop() bool {
	w.mu.RLock()
	cfg, frame, t := w.config, w.frame, w.simTime
	w.mu.RUnlock()

	if cfg.MaxFrames > 0 && frame >= cfg.MaxFrames {
		return true
	}
	if cfg.TimeLimit > 0 && t >= cfg.TimeLimit {
		return true
	}
	if w.StopCondition != nil {
		return w.StopCondition.ShouldStop(w.Snapshot())
	}
	return false
}

// Reset replaces the bodies and rewinds the frame counter and clock.
// It clears a corrupted state.
func (w *World) Reset(bodies []*physics.Body) {
	w.mu.Lock()
	w.resetLocked(bodies)
	n := len(w.bodies)
	w.mu.Unlock()

	w.EventBus.Publish(event.NewFrameEvent(event.ScenarioReloaded, w, 0, n, 0))
}

// Reload swaps in a new configuration and body set, as after a scenario
// file changed on disk.
func (w *World) Reload(cfg WorldConfig, bodies []*physics.Body) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid world config: %w", err)
	}
	if err := validation.ValidateBodyCount(len(bodies)); err != nil {
		return err
	}

	w.mu.Lock()
	w.config = cfg
	w.stepper = NewStepper(cfg.Bounds, cfg.Workers, w.EventBus)
	w.resetLocked(bodies)
	n := len(w.bodies)
	w.mu.Unlock()

	w.logger.Info(w.logCtx, "scenario reloaded", "scenario", cfg.Name, "bodies", n)
	w.EventBus.Publish(event.NewFrameEvent(event.ScenarioReloaded, w, 0, n, 0))
	return nil
}

func (w *World) resetLocked(bodies []*physics.Body) {
	w.bodies = slices.Clone(bodies)
	w.frame = 0
	w.simTime = 0
	w.err = nil
	if w.status == WorldStatusCorrupted {
		w.status = WorldStatusIdle
	}
}

// Bodies returns the current bodies. The slice is a copy; the bodies are
// shared and must only be read between frames.
func (w *World) Bodies() []*physics.Body {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return slices.Clone(w.bodies)
}

// BodyCount returns the number of bodies
func (w *World) BodyCount() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.bodies)
}

// Frame returns the number of frames advanced since the last reset
func (w *World) Frame() uint64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.frame
}

// SimTime returns the simulated time in seconds
func (w *World) SimTime() float64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.simTime
}

// TimeStep returns dt
func (w *World) TimeStep() float64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.config.TimeStep
}

// Bounds returns the reflective box
func (w *World) Bounds() physics.Bounds {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.config.Bounds
}

// Config returns the current configuration
func (w *World) Config() WorldConfig {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.config
}

// Err returns the error that halted the world, if any
func (w *World) Err() error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.err
}
