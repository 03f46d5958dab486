package render

import (
	"math"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/opd-ai/go-nbody/pkg/physics"
)

// Cell glyphs
const (
	bodyRune  = '█'
	pointRune = '•'
)

// TerminalRenderer draws the world scaled onto a tcell screen. The top
// row holds the title; the rest of the screen maps onto the world box.
type TerminalRenderer struct {
	screen tcell.Screen

	mu   sync.Mutex
	next physics.Bounds

	// bounds is latched from next at Clear so a frame is drawn with one
	// scale throughout
	bounds physics.Bounds

	cols int
	rows int

	titleStyle tcell.Style
}

// NewTerminalRenderer creates a renderer for an initialised screen
func NewTerminalRenderer(screen tcell.Screen, bounds physics.Bounds) *TerminalRenderer {
	r := &TerminalRenderer{
		screen:     screen,
		next:       bounds,
		bounds:     bounds,
		titleStyle: tcell.StyleDefault.Bold(true).Reverse(true),
	}
	r.resize()
	return r
}

// SetBounds changes the world box mapped onto the screen from the next
// frame on, e.g. after a scenario reload. Safe to call while drawing.
func (r *TerminalRenderer) SetBounds(bounds physics.Bounds) {
	r.mu.Lock()
	r.next = bounds
	r.mu.Unlock()
}

func (r *TerminalRenderer) resize() {
	w, h := r.screen.Size()
	r.cols = max(w, 0)
	r.rows = max(h-1, 0)
}

// worldToScreen converts world coordinates to a cell, clamped to the
// drawing area
func (r *TerminalRenderer) worldToScreen(pos physics.Vector2D) (int, int) {
	x := int(math.Floor(pos.X / r.bounds.MaxX * float64(r.cols)))
	y := int(math.Floor(pos.Y / r.bounds.MaxY * float64(r.rows)))
	x = min(max(x, 0), r.cols-1)
	y = min(max(y, 0), r.rows-1)
	return x, y + 1
}

func bodyStyle(b *physics.Body) tcell.Style {
	switch {
	case b.Charge() > 0:
		return tcell.StyleDefault.Foreground(tcell.ColorRed)
	case b.Charge() < 0:
		return tcell.StyleDefault.Foreground(tcell.ColorBlue)
	default:
		return tcell.StyleDefault
	}
}

// Clear implements Renderer
func (r *TerminalRenderer) Clear() {
	r.mu.Lock()
	r.bounds = r.next
	r.mu.Unlock()

	r.resize()
	r.screen.Clear()
}

// RenderBody implements Renderer. A body always covers at least one cell;
// larger bodies are drawn as filled ellipses since cells are not square.
func (r *TerminalRenderer) RenderBody(_ int, b *physics.Body) {
	if b == nil || r.cols == 0 || r.rows == 0 {
		return
	}

	cx, cy := r.worldToScreen(b.Position())
	style := bodyStyle(b)

	radius := float64(b.Radius())
	rx := radius / r.bounds.MaxX * float64(r.cols)
	ry := radius / r.bounds.MaxY * float64(r.rows)
	if rx < 1 && ry < 1 {
		r.screen.SetContent(cx, cy, pointRune, nil, style)
		return
	}
	rx, ry = max(rx, 0.5), max(ry, 0.5)

	for dy := -int(ry); dy <= int(ry); dy++ {
		for dx := -int(rx); dx <= int(rx); dx++ {
			nx, ny := float64(dx)/rx, float64(dy)/ry
			if nx*nx+ny*ny > 1 {
				continue
			}
			x, y := cx+dx, cy+dy
			if x < 0 || x >= r.cols || y < 1 || y > r.rows {
				continue
			}
			r.screen.SetContent(x, y, bodyRune, nil, style)
		}
	}
}

// Present implements Renderer
func (r *TerminalRenderer) Present(status Status) {
	title := status.Title
	if title == "" {
		title = FormatTitle("", status.Bodies, status.SimTime)
	}

	x := 0
	for _, ch := range title {
		if x >= r.cols {
			break
		}
		r.screen.SetContent(x, 0, ch, nil, r.titleStyle)
		x++
	}
	for ; x < r.cols; x++ {
		r.screen.SetContent(x, 0, ' ', nil, r.titleStyle)
	}

	r.screen.Show()
}
