// pkg/render/engo/input.go
package engo

import (
	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"

	"github.com/opd-ai/go-nbody/pkg/engine"
)

// Button names registered with engo.Input
const (
	ButtonPause = "pause"
	ButtonReset = "reset"
	ButtonQuit  = "quit"
)

// InputSystem maps keys to simulation controls: space pauses and
// resumes, R restarts the scenario, Escape quits.
type InputSystem struct {
	world *engine.World
	reset func()
	hud   *HUD
}

// NewInputSystem creates an input system. reset may be nil.
func NewInputSystem(world *engine.World, reset func(), hud *HUD) *InputSystem {
	return &InputSystem{world: world, reset: reset, hud: hud}
}

// Remove satisfies the ecs.System interface
func (is *InputSystem) Remove(ecs.BasicEntity) {}

// Update polls the registered buttons
func (is *InputSystem) Update(dt float32) {
	switch {
	case engo.Input.Button(ButtonQuit).JustPressed():
		is.world.Stop()
		engo.Exit()
	case engo.Input.Button(ButtonPause).JustPressed():
		is.TogglePause()
	case engo.Input.Button(ButtonReset).JustPressed():
		is.Reset()
	}
}

// TogglePause stops a running world and restarts a stopped one. A
// corrupted world stays halted.
func (is *InputSystem) TogglePause() {
	switch is.world.Status() {
	case engine.WorldStatusRunning:
		is.world.Stop()
		is.setPaused(true)
	case engine.WorldStatusStopped, engine.WorldStatusIdle:
		if is.world.Finished() {
			return
		}
		is.world.Start()
		is.setPaused(false)
	}
}

// Reset restarts the scenario from its initial bodies and resumes it
func (is *InputSystem) Reset() {
	if is.reset == nil {
		return
	}
	is.reset()
	is.world.Start()
	is.setPaused(false)
}

func (is *InputSystem) setPaused(paused bool) {
	if is.hud != nil {
		is.hud.SetPaused(paused)
	}
}

// SetupInputBindings registers the control keys
func SetupInputBindings() {
	engo.Input.RegisterButton(ButtonPause, engo.KeySpace)
	engo.Input.RegisterButton(ButtonReset, engo.KeyR)
	engo.Input.RegisterButton(ButtonQuit, engo.KeyEscape)
}
