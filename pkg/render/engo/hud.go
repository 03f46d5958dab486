// pkg/render/engo/hud.go
package engo

import (
	"fmt"
	"sync"

	"github.com/opd-ai/go-nbody/pkg/event"
	"github.com/opd-ai/go-nbody/pkg/render"
)

// HUD shows the telemetry line in the window title and counts merges
// reported on the event bus.
type HUD struct {
	mu        sync.Mutex
	status    render.Status
	merges    int
	paused    bool
	lastTitle string

	setTitle func(string)
	subs     []*event.Subscription
}

// NewHUD creates a HUD. setTitle is called only when the title changes.
func NewHUD(bus *event.Bus, setTitle func(string)) *HUD {
	hud := &HUD{setTitle: setTitle}
	if bus != nil {
		hud.subs = append(hud.subs,
			bus.Subscribe(event.BodiesMerged, func(event.Event) {
				hud.mu.Lock()
				hud.merges++
				hud.mu.Unlock()
			}),
			bus.Subscribe(event.ScenarioReloaded, func(event.Event) {
				hud.mu.Lock()
				hud.merges = 0
				hud.mu.Unlock()
			}),
		)
	}
	return hud
}

// Update records the status of the frame just drawn and refreshes the title
func (hud *HUD) Update(status render.Status) {
	hud.mu.Lock()
	hud.status = status
	title := hud.titleLocked()
	changed := title != hud.lastTitle
	hud.lastTitle = title
	hud.mu.Unlock()

	if changed && hud.setTitle != nil {
		hud.setTitle(title)
	}
}

// SetPaused marks the title as paused
func (hud *HUD) SetPaused(paused bool) {
	hud.mu.Lock()
	hud.paused = paused
	hud.mu.Unlock()
}

func (hud *HUD) titleLocked() string {
	title := hud.status.Title
	if title == "" {
		title = render.FormatTitle("", hud.status.Bodies, hud.status.SimTime)
	}
	if hud.merges > 0 {
		title += fmt.Sprintf(" | merges: %d", hud.merges)
	}
	if hud.paused {
		title += " | paused"
	}
	return title
}

// Title returns the current title
func (hud *HUD) Title() string {
	hud.mu.Lock()
	defer hud.mu.Unlock()
	return hud.titleLocked()
}

// Merges returns the number of merges since start or the last reload
func (hud *HUD) Merges() int {
	hud.mu.Lock()
	defer hud.mu.Unlock()
	return hud.merges
}

// Close detaches the HUD from the event bus
func (hud *HUD) Close() {
	for _, sub := range hud.subs {
		sub.Cancel()
	}
	hud.subs = nil
}
