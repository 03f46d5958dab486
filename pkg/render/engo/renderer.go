// pkg/render/engo/renderer.go
package engo

import (
	"context"
	"image/color"

	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"
	"github.com/EngoEngine/engo/common"

	"github.com/opd-ai/go-nbody/pkg/engine"
	"github.com/opd-ai/go-nbody/pkg/logging"
	"github.com/opd-ai/go-nbody/pkg/physics"
	"github.com/opd-ai/go-nbody/pkg/render"
)

// Body tints
var (
	NeutralColor  color.Color = color.Black
	PositiveColor color.Color = color.RGBA{R: 200, A: 255}
	NegativeColor color.Color = color.RGBA{B: 200, A: 255}
)

// BodyColor picks the tint for a body by the sign of its charge
func BodyColor(b *physics.Body) color.Color {
	switch {
	case b.Charge() > 0:
		return PositiveColor
	case b.Charge() < 0:
		return NegativeColor
	default:
		return NeutralColor
	}
}

// spriteSink is the part of common.RenderSystem the simulation system uses
type spriteSink interface {
	Add(basic *ecs.BasicEntity, render *common.RenderComponent, space *common.SpaceComponent)
	Remove(basic ecs.BasicEntity)
}

type bodySprite struct {
	ecs.BasicEntity
	common.RenderComponent
	common.SpaceComponent
}

// SimulationSystem advances the world on every engo tick and mirrors its
// bodies as sprites, one per body index. Sprites beyond the current body
// count are removed, so merges shrink the sprite list.
type SimulationSystem struct {
	world        *engine.World
	sink         spriteSink
	assets       *AssetManager
	hud          *HUD
	stepsPerTick int

	sprites []*bodySprite
	drawn   int

	logger *logging.Logger
	ctx    context.Context
	err    error
}

// NewSimulationSystem creates the system. stepsPerTick below one is
// treated as one.
func NewSimulationSystem(world *engine.World, sink spriteSink, assets *AssetManager, hud *HUD, stepsPerTick int, logger *logging.Logger) *SimulationSystem {
	if logger == nil {
		logger = logging.NewLogger()
	}
	return &SimulationSystem{
		world:        world,
		sink:         sink,
		assets:       assets,
		hud:          hud,
		stepsPerTick: max(stepsPerTick, 1),
		logger:       logger,
		ctx:          logging.WithRunID(context.Background(), logging.GenerateRunID()),
	}
}

// Update implements ecs.System
func (s *SimulationSystem) Update(dt float32) {
	s.step()
	s.world.Draw(s)
}

func (s *SimulationSystem) step() {
	if !s.world.Running() {
		return
	}
	for i := 0; i < s.stepsPerTick; i++ {
		if err := s.world.Advance(); err != nil {
			s.err = err
			s.world.Stop()
			s.logger.Error(s.ctx, "simulation halted", err, "frame", s.world.Frame())
			return
		}
		if s.world.Finished() {
			s.world.Stop()
			s.logger.Info(s.ctx, "simulation finished",
				"frame", s.world.Frame(),
				"bodies", s.world.BodyCount(),
			)
			return
		}
	}
}

// Remove implements ecs.System. Sprites are owned by this system.
func (s *SimulationSystem) Remove(ecs.BasicEntity) {}

// Err returns the error that halted the simulation, if any
func (s *SimulationSystem) Err() error {
	return s.err
}

// Sprites returns the number of live body sprites
func (s *SimulationSystem) Sprites() int {
	return len(s.sprites)
}

// Clear implements render.Renderer
func (s *SimulationSystem) Clear() {
	s.drawn = 0
}

// RenderBody implements render.Renderer
func (s *SimulationSystem) RenderBody(index int, b *physics.Body) {
	// World.Draw passes indices densely and in order
	if b == nil || index > len(s.sprites) {
		return
	}

	size := float32(SpriteSize(b.Radius()))
	pos := b.Position()

	sprite := &bodySprite{}
	fresh := index >= len(s.sprites)
	if !fresh {
		sprite = s.sprites[index]
	}

	sprite.Drawable = s.assets.Disc(b.Radius())
	sprite.Color = BodyColor(b)
	sprite.Position = engo.Point{X: float32(pos.X) - size/2, Y: float32(pos.Y) - size/2}
	sprite.Width = size
	sprite.Height = size

	if fresh {
		sprite.BasicEntity = ecs.NewBasic()
		s.sink.Add(&sprite.BasicEntity, &sprite.RenderComponent, &sprite.SpaceComponent)
		s.sprites = append(s.sprites, sprite)
	}
	s.drawn = max(s.drawn, index+1)
}

// Present implements render.Renderer
func (s *SimulationSystem) Present(status render.Status) {
	for len(s.sprites) > s.drawn {
		last := s.sprites[len(s.sprites)-1]
		s.sprites = s.sprites[:len(s.sprites)-1]
		s.sink.Remove(last.BasicEntity)
	}
	if s.hud != nil {
		s.hud.Update(status)
	}
}
