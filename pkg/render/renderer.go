// pkg/render/renderer.go
package render

import (
	"context"
	"fmt"

	"github.com/opd-ai/go-nbody/pkg/logging"
	"github.com/opd-ai/go-nbody/pkg/physics"
)

// Renderer draws one frame of the simulation. Implementations only read
// body state; they never mutate it.
type Renderer interface {
	Clear()
	RenderBody(index int, b *physics.Body)
	Present(status Status)
}

// Status is the per-frame telemetry shown alongside the bodies.
type Status struct {
	Bodies  int
	Frame   uint64
	SimTime float64
	Title   string
}

// FormatTitle builds the telemetry line, e.g. "3 Body Problem T: 0.042 s".
// A non-empty scenario name is prefixed.
func FormatTitle(scenario string, bodies int, simTime float64) string {
	title := fmt.Sprintf("%d Body Problem T: %.3f s", bodies, simTime)
	if scenario != "" {
		title = scenario + " | " + title
	}
	return title
}

// NullRenderer is a headless Renderer that only logs at debug level.
type NullRenderer struct {
	logger *logging.Logger
	frames uint64
}

// NewNullRenderer creates a new NullRenderer with structured logging.
func NewNullRenderer() *NullRenderer {
	return NewNullRendererWithLogger(logging.NewLogger())
}

// NewNullRendererWithLogger creates a NullRenderer writing to logger.
func NewNullRendererWithLogger(logger *logging.Logger) *NullRenderer {
	return &NullRenderer{logger: logger}
}

// Clear implements Renderer.
func (d *NullRenderer) Clear() {
	ctx := context.Background()
	d.logger.Debug(ctx, "Clear called")
}

// RenderBody implements Renderer.
func (d *NullRenderer) RenderBody(index int, b *physics.Body) {
	ctx := context.Background()
	if b == nil {
		d.logger.Debug(ctx, "RenderBody called with nil body", "index", index)
		return
	}
	pos := b.Position()
	d.logger.Debug(ctx, "RenderBody called",
		"index", index,
		"x", pos.X,
		"y", pos.Y,
		"radius", b.Radius(),
	)
}

// Present implements Renderer.
func (d *NullRenderer) Present(status Status) {
	d.frames++
	ctx := context.Background()
	d.logger.Debug(ctx, "Present called",
		"bodies", status.Bodies,
		"frame", status.Frame,
		"sim_time", status.SimTime,
	)
}

// Frames returns how many frames were presented.
func (d *NullRenderer) Frames() uint64 {
	return d.frames
}

// NullRendererInstance is a global instance of NullRenderer for convenience.
var NullRendererInstance Renderer = NewNullRenderer()
