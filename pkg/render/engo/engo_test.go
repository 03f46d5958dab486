package engo

import (
	"io"
	"testing"

	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo/common"

	"github.com/opd-ai/go-nbody/pkg/engine"
	"github.com/opd-ai/go-nbody/pkg/logging"
	"github.com/opd-ai/go-nbody/pkg/physics"
)

// fakeSink records what a common.RenderSystem would have been given
type fakeSink struct {
	render  map[uint64]*common.RenderComponent
	space   map[uint64]*common.SpaceComponent
	removed int
}

func newFakeSink() *fakeSink {
	return &fakeSink{
		render: make(map[uint64]*common.RenderComponent),
		space:  make(map[uint64]*common.SpaceComponent),
	}
}

func (f *fakeSink) Add(basic *ecs.BasicEntity, render *common.RenderComponent, space *common.SpaceComponent) {
	f.render[basic.ID()] = render
	f.space[basic.ID()] = space
}

func (f *fakeSink) Remove(basic ecs.BasicEntity) {
	delete(f.render, basic.ID())
	delete(f.space, basic.ID())
	f.removed++
}

func quietLogger() *logging.Logger {
	return logging.NewLoggerWithWriter(io.Discard)
}

func threeBodies() []*physics.Body {
	return []*physics.Body{
		physics.NewBody(5e9, 5e3, 0, 540),
		physics.NewBody(5e9, -5e3, 500, 540),
		physics.NewBody(5e9, 5e3, 1000, 540),
	}
}

func newTestWorld(t *testing.T, cfg engine.WorldConfig, bodies []*physics.Body) *engine.World {
	t.Helper()
	if cfg.TimeStep == 0 {
		cfg.TimeStep = 0.001
	}
	if cfg.Bounds == (physics.Bounds{}) {
		cfg.Bounds = physics.DefaultBounds
	}
	w, err := engine.NewWorld(cfg, bodies, engine.WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("NewWorld() error = %v", err)
	}
	return w
}

type titleRecorder struct {
	titles []string
}

func (r *titleRecorder) set(title string) {
	r.titles = append(r.titles, title)
}

func newTestSystem(t *testing.T, world *engine.World, stepsPerTick int) (*SimulationSystem, *fakeSink, *titleRecorder) {
	t.Helper()
	sink := newFakeSink()
	titles := &titleRecorder{}
	am, _ := fakeTextures()
	hud := NewHUD(world.EventBus, titles.set)
	t.Cleanup(hud.Close)
	return NewSimulationSystem(world, sink, am, hud, stepsPerTick, quietLogger()), sink, titles
}
