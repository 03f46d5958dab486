// pkg/engine/world_test.go
package engine

import (
	"context"
	"errors"
	"io"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/opd-ai/go-nbody/pkg/event"
	"github.com/opd-ai/go-nbody/pkg/logging"
	"github.com/opd-ai/go-nbody/pkg/physics"
	"github.com/opd-ai/go-nbody/pkg/render"
)

func quietLogger() *logging.Logger {
	return logging.NewLoggerWithWriter(io.Discard)
}

func threeBodyConfig() WorldConfig {
	return WorldConfig{
		Name:     "three body",
		TimeStep: 0.001,
		Bounds:   physics.DefaultBounds,
	}
}

func threeBodies() []*physics.Body {
	return []*physics.Body{
		physics.NewBody(5e9, 5e3, 0, 540),
		physics.NewBody(5e9, -5e3, 500, 540),
		physics.NewBody(5e9, 5e3, 1000, 540),
	}
}

type recordingRenderer struct {
	clears   int
	presents int
	bodies   []int
	last     render.Status
}

func (r *recordingRenderer) Clear() {
	r.clears++
	r.bodies = r.bodies[:0]
}

func (r *recordingRenderer) RenderBody(index int, b *physics.Body) {
	r.bodies = append(r.bodies, index)
}

func (r *recordingRenderer) Present(status render.Status) {
	r.presents++
	r.last = status
}

func TestNewWorld_ValidatesConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*WorldConfig)
		wantErr bool
	}{
		{"valid", func(*WorldConfig) {}, false},
		{"zero time step", func(c *WorldConfig) { c.TimeStep = 0 }, true},
		{"NaN time step", func(c *WorldConfig) { c.TimeStep = math.NaN() }, true},
		{"zero width", func(c *WorldConfig) { c.Bounds.MaxX = 0 }, true},
		{"negative workers", func(c *WorldConfig) { c.Workers = -1 }, true},
		{"negative time limit", func(c *WorldConfig) { c.TimeLimit = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := threeBodyConfig()
			tt.mutate(&cfg)
			w, err := NewWorld(cfg, threeBodies(), WithLogger(quietLogger()))
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewWorld() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && w.BodyCount() != 3 {
				t.Errorf("BodyCount() = %d, want 3", w.BodyCount())
			}
		})
	}
}

func TestWorld_AdvanceCountsFramesAndTime(t *testing.T) {
	w, err := NewWorld(threeBodyConfig(), threeBodies(), WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("NewWorld() error = %v", err)
	}

	var frames []uint64
	w.EventBus.Subscribe(event.FrameAdvanced, func(e event.Event) {
		frames = append(frames, e.(*event.FrameEvent).Frame)
	})

	for i := 0; i < 10; i++ {
		if err := w.Advance(); err != nil {
			t.Fatalf("Advance() error = %v", err)
		}
	}

	if w.Frame() != 10 {
		t.Errorf("Frame() = %d, want 10", w.Frame())
	}
	if !closeTo(w.SimTime(), 0.01, 1e-12) {
		t.Errorf("SimTime() = %g, want 0.01", w.SimTime())
	}
	if len(frames) != 10 || frames[9] != 10 {
		t.Errorf("FrameAdvanced events = %v", frames)
	}
	if w.TimeStep() != 0.001 || w.Bounds() != physics.DefaultBounds {
		t.Errorf("TimeStep/Bounds changed: %g %v", w.TimeStep(), w.Bounds())
	}
}

func TestWorld_BodiesReturnsCopy(t *testing.T) {
	w, err := NewWorld(threeBodyConfig(), threeBodies(), WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("NewWorld() error = %v", err)
	}

	bodies := w.Bodies()
	bodies[0] = nil
	if w.Bodies()[0] == nil {
		t.Error("mutating the returned slice changed the world")
	}
}

func TestWorld_DrawRendersEveryBody(t *testing.T) {
	w, err := NewWorld(threeBodyConfig(), threeBodies(), WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("NewWorld() error = %v", err)
	}
	if err := w.Advance(); err != nil {
		t.Fatalf("Advance() error = %v", err)
	}

	r := &recordingRenderer{}
	w.Draw(r)

	if r.clears != 1 || r.presents != 1 {
		t.Errorf("clears=%d presents=%d, want 1 and 1", r.clears, r.presents)
	}
	if len(r.bodies) != 3 {
		t.Errorf("rendered %d bodies, want 3", len(r.bodies))
	}
	if r.last.Bodies != 3 || r.last.Frame != 1 {
		t.Errorf("status = %+v", r.last)
	}
	if r.last.Title != "three body | 3 Body Problem T: 0.001 s" {
		t.Errorf("title = %q", r.last.Title)
	}
}

func TestWorld_RunStopsAtMaxFrames(t *testing.T) {
	cfg := threeBodyConfig()
	cfg.MaxFrames = 25
	w, err := NewWorld(cfg, threeBodies(), WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("NewWorld() error = %v", err)
	}

	var started, stopped int
	w.EventBus.Subscribe(event.SimulationStarted, func(event.Event) { started++ })
	w.EventBus.Subscribe(event.SimulationStopped, func(event.Event) { stopped++ })

	r := &recordingRenderer{}
	if err := w.Run(context.Background(), r); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if w.Frame() != 25 || r.presents != 25 {
		t.Errorf("Frame() = %d presents = %d, want 25", w.Frame(), r.presents)
	}
	if started != 1 || stopped != 1 {
		t.Errorf("started=%d stopped=%d, want 1 and 1", started, stopped)
	}
	if w.Running() || w.Status() != WorldStatusStopped {
		t.Errorf("Status() = %v after Run", w.Status())
	}
}

func TestWorld_RunStopsAtTimeLimit(t *testing.T) {
	cfg := threeBodyConfig()
	cfg.TimeStep = 0.01
	cfg.TimeLimit = 0.5
	w, err := NewWorld(cfg, threeBodies(), WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("NewWorld() error = %v", err)
	}

	if err := w.Run(context.Background(), render.NewNullRendererWithLogger(quietLogger())); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if w.Frame() != 50 {
		t.Errorf("Frame() = %d, want 50", w.Frame())
	}
}

func TestWorld_RunStopsOnCancel(t *testing.T) {
	cfg := threeBodyConfig()
	cfg.FrameInterval = time.Millisecond
	w, err := NewWorld(cfg, threeBodies(), WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("NewWorld() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, render.NewNullRendererWithLogger(quietLogger())) }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v, want nil on cancellation", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancellation")
	}
	if w.Frame() == 0 {
		t.Error("expected some frames before cancellation")
	}
}

func TestWorld_StopConditionSingleBody(t *testing.T) {
	cfg := threeBodyConfig()
	cfg.MaxFrames = 1000
	bodies := []*physics.Body{
		physics.NewBody(5e9, 0, 500, 540),
		physics.NewBody(5e9, 0, 510, 540),
	}
	w, err := NewWorld(cfg, bodies, WithLogger(quietLogger()), WithStopCondition(SingleBodyRemains))
	if err != nil {
		t.Fatalf("NewWorld() error = %v", err)
	}

	merges := 0
	w.EventBus.Subscribe(event.BodiesMerged, func(event.Event) { merges++ })

	if err := w.Run(context.Background(), &recordingRenderer{}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if w.Frame() != 1 || w.BodyCount() != 1 || merges != 1 {
		t.Errorf("Frame()=%d BodyCount()=%d merges=%d, want 1 1 1", w.Frame(), w.BodyCount(), merges)
	}
}

func TestWorld_CorruptFrameHaltsUntilReset(t *testing.T) {
	bodies := []*physics.Body{
		physics.NewBody(5e9, 0, 500, 540),
		physics.NewBody(5e9, 0, math.NaN(), 540),
	}
	w, err := NewWorld(threeBodyConfig(), bodies, WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("NewWorld() error = %v", err)
	}

	var corrupted []*event.CorruptionEvent
	w.EventBus.Subscribe(event.FrameCorrupted, func(e event.Event) {
		corrupted = append(corrupted, e.(*event.CorruptionEvent))
	})

	err = w.Run(context.Background(), &recordingRenderer{})
	if !errors.Is(err, ErrCorruptFrame) {
		t.Fatalf("Run() error = %v, want ErrCorruptFrame", err)
	}
	if w.Status() != WorldStatusCorrupted {
		t.Errorf("Status() = %v, want corrupted", w.Status())
	}
	if len(corrupted) != 1 || corrupted[0].Frame != 0 {
		t.Errorf("FrameCorrupted events = %v", corrupted)
	}

	if err := w.Advance(); !errors.Is(err, ErrCorruptFrame) {
		t.Errorf("Advance() after corruption = %v, want ErrCorruptFrame", err)
	}
	if w.Frame() != 0 {
		t.Errorf("Frame() = %d, corrupt frames must not count", w.Frame())
	}

	reloaded := 0
	w.EventBus.Subscribe(event.ScenarioReloaded, func(event.Event) { reloaded++ })
	w.Reset(threeBodies())

	if w.Err() != nil || w.Status() != WorldStatusIdle {
		t.Errorf("after Reset: Err() = %v Status() = %v", w.Err(), w.Status())
	}
	if err := w.Advance(); err != nil {
		t.Errorf("Advance() after Reset error = %v", err)
	}
	if reloaded != 1 {
		t.Errorf("ScenarioReloaded events = %d, want 1", reloaded)
	}
}

func TestWorld_CorruptedStaysCorruptedAcrossRun(t *testing.T) {
	bodies := []*physics.Body{
		physics.NewBody(5e9, 0, 500, 540),
		physics.NewBody(5e9, 0, math.NaN(), 540),
	}
	w, err := NewWorld(threeBodyConfig(), bodies, WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("NewWorld() error = %v", err)
	}
	if err := w.Advance(); !errors.Is(err, ErrCorruptFrame) {
		t.Fatalf("Advance() error = %v, want ErrCorruptFrame", err)
	}

	w.Start()
	if w.Status() != WorldStatusCorrupted {
		t.Errorf("Status() after Start = %v, want corrupted", w.Status())
	}

	if err := w.Run(context.Background(), &recordingRenderer{}); !errors.Is(err, ErrCorruptFrame) {
		t.Errorf("Run() error = %v, want ErrCorruptFrame", err)
	}
	if w.Status() != WorldStatusCorrupted || w.Running() {
		t.Errorf("Status() after Run = %v, want corrupted", w.Status())
	}

	w.Stop()
	if w.Status() != WorldStatusCorrupted {
		t.Errorf("Status() after Stop = %v, want corrupted", w.Status())
	}
}

func TestWorld_Reload(t *testing.T) {
	w, err := NewWorld(threeBodyConfig(), threeBodies(), WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("NewWorld() error = %v", err)
	}
	for i := 0; i < 5; i++ {
		if err := w.Advance(); err != nil {
			t.Fatalf("Advance() error = %v", err)
		}
	}

	next := WorldConfig{Name: "pair", TimeStep: 0.002, Bounds: physics.Bounds{MaxX: 800, MaxY: 600}, Workers: 2}
	if err := w.Reload(next, threeBodies()[:2]); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if w.Frame() != 0 || w.SimTime() != 0 || w.BodyCount() != 2 {
		t.Errorf("after Reload: frame=%d time=%g bodies=%d", w.Frame(), w.SimTime(), w.BodyCount())
	}
	if w.Config() != next {
		t.Errorf("Config() = %+v, want %+v", w.Config(), next)
	}

	bad := next
	bad.TimeStep = -1
	if err := w.Reload(bad, threeBodies()); !errors.Is(err, ErrInvalidTimeStep) {
		t.Errorf("Reload() error = %v, want ErrInvalidTimeStep", err)
	}
	if w.Config() != next {
		t.Error("a rejected reload must leave the config untouched")
	}
}

func TestWorld_SnapshotConservesMassAndCharge(t *testing.T) {
	bodies := []*physics.Body{
		physics.NewMovingBody(5e9, 5e3, 500, 540, 2, 0),
		physics.NewMovingBody(5e9, -2e3, 512, 540, -1, 1),
		physics.NewMovingBody(3e9, 1e3, 1500, 200, 0, 3),
	}
	w, err := NewWorld(threeBodyConfig(), bodies, WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("NewWorld() error = %v", err)
	}

	before := w.Snapshot()
	if err := w.Advance(); err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	after := w.Snapshot()

	if len(after.Bodies) != 2 {
		t.Fatalf("expected the first two bodies to merge, got %d bodies", len(after.Bodies))
	}
	if !closeTo(after.TotalMass(), before.TotalMass(), 1e-12) {
		t.Errorf("TotalMass() %g -> %g", before.TotalMass(), after.TotalMass())
	}
	if !closeTo(after.TotalCharge(), before.TotalCharge(), 1e-12) {
		t.Errorf("TotalCharge() %g -> %g", before.TotalCharge(), after.TotalCharge())
	}
	if after.Frame != 1 || after.SimTime != 0.001 {
		t.Errorf("snapshot frame=%d time=%g", after.Frame, after.SimTime)
	}
}

func TestWorld_ConcurrentReadsDuringRun(t *testing.T) {
	cfg := threeBodyConfig()
	cfg.MaxFrames = 200
	cfg.Workers = 2
	w, err := NewWorld(cfg, threeBodies(), WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("NewWorld() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for ctx.Err() == nil {
			s := w.Snapshot()
			if len(s.Bodies) == 0 {
				t.Error("snapshot lost all bodies")
				return
			}
			_ = w.RenderStatus()
		}
	}()

	if err := w.Run(ctx, render.NewNullRendererWithLogger(quietLogger())); err != nil {
		t.Errorf("Run() error = %v", err)
	}
	cancel()
	wg.Wait()
}

func TestWorldStatus_String(t *testing.T) {
	tests := []struct {
		status WorldStatus
		want   string
	}{
		{WorldStatusIdle, "idle"},
		{WorldStatusRunning, "running"},
		{WorldStatusStopped, "stopped"},
		{WorldStatusCorrupted, "corrupted"},
		{WorldStatus(9), "WorldStatus(9)"},
	}
	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
