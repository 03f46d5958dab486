// pkg/engine/state.go
package engine

import "github.com/opd-ai/go-nbody/pkg/physics"

// WorldState is a value snapshot of a world between frames
type WorldState struct {
	Frame   uint64
	SimTime float64
	Bodies  []BodyState
}

// BodyState is a snapshot of one body
type BodyState struct {
	Mass     float64          `json:"mass"`
	Charge   float64          `json:"charge"`
	Radius   int              `json:"radius"`
	Position physics.Vector2D `json:"position"`
	Velocity physics.Vector2D `json:"velocity"`
}

// Snapshot returns a copy of the current state
func (w *World) Snapshot() *WorldState {
	w.mu.RLock()
	defer w.mu.RUnlock()

	state := &WorldState{
		Frame:   w.frame,
		SimTime: w.simTime,
		Bodies:  make([]BodyState, len(w.bodies)),
	}
	for i, b := range w.bodies {
		state.Bodies[i] = BodyState{
			Mass:     b.Mass(),
			Charge:   b.Charge(),
			Radius:   b.Radius(),
			Position: b.Position(),
			Velocity: b.Velocity(),
		}
	}
	return state
}

// TotalMass sums the masses of all bodies
func (s *WorldState) TotalMass() float64 {
	var m float64
	for _, b := range s.Bodies {
		m += b.Mass
	}
	return m
}

// TotalCharge sums the charges of all bodies
func (s *WorldState) TotalCharge() float64 {
	var q float64
	for _, b := range s.Bodies {
		q += b.Charge
	}
	return q
}

// Momentum returns the total linear momentum
func (s *WorldState) Momentum() physics.Vector2D {
	var p physics.Vector2D
	for _, b := range s.Bodies {
		p = p.Add(b.Velocity.Scale(b.Mass))
	}
	return p
}

// CenterOfMass returns the mass-weighted mean position
func (s *WorldState) CenterOfMass() physics.Vector2D {
	var c physics.Vector2D
	m := s.TotalMass()
	if m == 0 {
		return c
	}
	for _, b := range s.Bodies {
		c = c.Add(b.Position.Scale(b.Mass))
	}
	return c.Scale(1 / m)
}

// SingleBodyRemains stops a run once every body has merged into one
var SingleBodyRemains = StopConditionFunc(func(s *WorldState) bool {
	return len(s.Bodies) <= 1
})
