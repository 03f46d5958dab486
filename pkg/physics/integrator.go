// pkg/physics/integrator.go
package physics

// Bounds is the reflective box [0, MaxX] × [0, MaxY] bodies live in.
type Bounds struct {
	MaxX float64
	MaxY float64
}

// DefaultBounds matches a 1920x1080 viewing surface.
var DefaultBounds = Bounds{MaxX: 1920, MaxY: 1080}

// Update advances the body by dt under a constant net force.
//
// Position is advanced with the velocity from the start of the step,
// pos += v*dt + a*dt²/2, and only then is the velocity advanced. Each axis
// is then clamped independently: touching a wall puts the body back at
// radius distance from it and reverses that axis's velocity.
func (b *Body) Update(dt float64, force Vector2D, bounds Bounds) {
	b.acceleration = force.Scale(1 / b.mass)

	b.position = b.position.
		Add(b.velocity.Scale(dt)).
		Add(b.acceleration.Scale(0.5 * dt * dt))
	b.velocity = b.velocity.Add(b.acceleration.Scale(dt))

	r := float64(b.radius)
	b.position.X, b.velocity.X = reflect(b.position.X, b.velocity.X, r, bounds.MaxX)
	b.position.Y, b.velocity.Y = reflect(b.position.Y, b.velocity.Y, r, bounds.MaxY)
}

func reflect(pos, vel, radius, limit float64) (float64, float64) {
	switch {
	case pos-radius <= 0:
		return radius, -vel
	case pos+radius >= limit:
		return limit - radius, -vel
	}
	return pos, vel
}
