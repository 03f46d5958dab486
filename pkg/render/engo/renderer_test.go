package engo

import (
	"image/color"
	"testing"

	"github.com/EngoEngine/engo"

	"github.com/opd-ai/go-nbody/pkg/engine"
	"github.com/opd-ai/go-nbody/pkg/physics"
)

func TestBodyColor(t *testing.T) {
	tests := []struct {
		name   string
		charge float64
		want   color.Color
	}{
		{"positive", 1, PositiveColor},
		{"negative", -1, NegativeColor},
		{"neutral", 0, NeutralColor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BodyColor(physics.NewBody(1, tt.charge, 0, 0)); got != tt.want {
				t.Errorf("BodyColor() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSimulationSystem_UpdateAdvancesAndSyncsSprites(t *testing.T) {
	world := newTestWorld(t, engine.WorldConfig{Name: "three body"}, threeBodies())
	sys, sink, titles := newTestSystem(t, world, 1)

	world.Start()
	sys.Update(1.0 / 60)

	if world.Frame() != 1 {
		t.Errorf("expected frame 1, got %d", world.Frame())
	}
	if sys.Sprites() != 3 || len(sink.space) != 3 {
		t.Fatalf("expected 3 sprites, got %d (sink %d)", sys.Sprites(), len(sink.space))
	}

	space := sys.sprites[1].SpaceComponent
	pos := world.Bodies()[1].Position()
	want := engo.Point{X: float32(pos.X) - 9, Y: float32(pos.Y) - 9}
	if space.Position != want {
		t.Errorf("expected sprite at %v, got %v", want, space.Position)
	}
	if space.Width != 18 || space.Height != 18 {
		t.Errorf("expected 18x18 sprite, got %gx%g", space.Width, space.Height)
	}
	if sys.sprites[1].Color != NegativeColor {
		t.Errorf("expected negative tint, got %v", sys.sprites[1].Color)
	}

	if len(titles.titles) != 1 || titles.titles[0] != "three body | 3 Body Problem T: 0.001 s" {
		t.Errorf("unexpected titles %q", titles.titles)
	}
}

func TestSimulationSystem_StepsPerTick(t *testing.T) {
	world := newTestWorld(t, engine.WorldConfig{}, threeBodies())
	sys, _, _ := newTestSystem(t, world, 4)

	world.Start()
	sys.Update(0)
	sys.Update(0)

	if world.Frame() != 8 {
		t.Errorf("expected 8 frames, got %d", world.Frame())
	}
}

func TestSimulationSystem_PausedWorldOnlyDraws(t *testing.T) {
	world := newTestWorld(t, engine.WorldConfig{}, threeBodies())
	sys, sink, _ := newTestSystem(t, world, 1)

	sys.Update(0)

	if world.Frame() != 0 {
		t.Errorf("idle world advanced to frame %d", world.Frame())
	}
	if len(sink.space) != 3 {
		t.Errorf("expected bodies drawn while idle, got %d sprites", len(sink.space))
	}
}

func TestSimulationSystem_MergeRemovesSprite(t *testing.T) {
	bodies := []*physics.Body{
		physics.NewBody(5e9, 0, 100, 100),
		physics.NewBody(5e9, 0, 105, 100),
		physics.NewBody(5e9, 0, 1500, 900),
	}
	world := newTestWorld(t, engine.WorldConfig{}, bodies)
	sys, sink, _ := newTestSystem(t, world, 1)

	sys.Update(0)
	if sys.Sprites() != 3 {
		t.Fatalf("expected 3 sprites before merging, got %d", sys.Sprites())
	}

	world.Start()
	sys.Update(0)

	if sys.Sprites() != 2 || len(sink.space) != 2 || sink.removed != 1 {
		t.Errorf("expected 2 sprites and 1 removal, got %d sprites, %d removed", sys.Sprites(), sink.removed)
	}
	if sys.hud.Merges() != 1 {
		t.Errorf("expected 1 merge on the HUD, got %d", sys.hud.Merges())
	}
}

func TestSimulationSystem_StopsAtFrameLimit(t *testing.T) {
	world := newTestWorld(t, engine.WorldConfig{MaxFrames: 3}, threeBodies())
	sys, _, _ := newTestSystem(t, world, 10)

	world.Start()
	sys.Update(0)

	if world.Frame() != 3 {
		t.Errorf("expected to stop at frame 3, got %d", world.Frame())
	}
	if world.Running() {
		t.Error("world should be stopped at the frame limit")
	}
	if sys.Err() != nil {
		t.Errorf("unexpected error %v", sys.Err())
	}
}

func TestSimulationSystem_ZeroStepsPerTickIsOne(t *testing.T) {
	world := newTestWorld(t, engine.WorldConfig{}, threeBodies())
	sys, _, _ := newTestSystem(t, world, 0)

	world.Start()
	sys.Update(0)

	if world.Frame() != 1 {
		t.Errorf("expected 1 frame, got %d", world.Frame())
	}
}
