// pkg/render/engo/scene.go
package engo

import (
	"image/color"

	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"
	"github.com/EngoEngine/engo/common"

	"github.com/opd-ai/go-nbody/pkg/engine"
	"github.com/opd-ai/go-nbody/pkg/event"
	"github.com/opd-ai/go-nbody/pkg/logging"
	"github.com/opd-ai/go-nbody/pkg/physics"
)

// SceneType is the engo scene identifier
const SceneType = "NBodyScene"

// Scene shows a World in an engo window the size of the world bounds
type Scene struct {
	world    *engine.World
	eventBus *event.Bus
	logger   *logging.Logger

	// initial rebuilds the starting bodies for the reset key
	initial      func() []*physics.Body
	stepsPerTick int

	hud        *HUD
	simulation *SimulationSystem
	input      *InputSystem
}

// NewScene creates a scene. initial may be nil, which disables reset.
func NewScene(world *engine.World, logger *logging.Logger, stepsPerTick int, initial func() []*physics.Body) *Scene {
	return &Scene{
		world:        world,
		eventBus:     world.EventBus,
		logger:       logger,
		initial:      initial,
		stepsPerTick: stepsPerTick,
	}
}

// Type returns the scene type (required by Engo)
func (scene *Scene) Type() string {
	return SceneType
}

// Preload is called before the scene starts (required by Engo).
// Textures are generated, so there is nothing to load.
func (scene *Scene) Preload() {}

// Setup is called when the scene starts (required by Engo)
func (scene *Scene) Setup(u engo.Updater) {
	world, _ := u.(*ecs.World)

	common.SetBackground(color.White)

	renderSystem := &common.RenderSystem{}
	world.AddSystem(renderSystem)

	scene.hud = NewHUD(scene.eventBus, engo.SetTitle)
	scene.simulation = NewSimulationSystem(scene.world, renderSystem, NewAssetManager(), scene.hud, scene.stepsPerTick, scene.logger)
	world.AddSystem(scene.simulation)

	SetupInputBindings()
	scene.input = NewInputSystem(scene.world, scene.resetFunc(), scene.hud)
	world.AddSystem(scene.input)

	scene.world.Start()
}

func (scene *Scene) resetFunc() func() {
	if scene.initial == nil {
		return nil
	}
	return func() {
		scene.world.Reset(scene.initial())
	}
}

// Exit is called when the window closes
func (scene *Scene) Exit() {
	scene.world.Stop()
	if scene.hud != nil {
		scene.hud.Close()
	}
}

// Err returns the error that halted the simulation, if any
func (scene *Scene) Err() error {
	if scene.simulation == nil {
		return nil
	}
	return scene.simulation.Err()
}

// Run opens the window and blocks until it is closed
func Run(scene *Scene, fullscreen bool) {
	bounds := scene.world.Bounds()
	opts := engo.RunOptions{
		Title:      scene.world.RenderStatus().Title,
		Width:      int(bounds.MaxX),
		Height:     int(bounds.MaxY),
		Fullscreen: fullscreen,
		VSync:      true,
	}
	engo.Run(opts, scene)
}
