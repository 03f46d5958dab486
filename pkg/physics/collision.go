// pkg/physics/collision.go
package physics

// Circle represents a circular collision shape
type Circle struct {
	Center Vector2D
	Radius float64
}

// Touches reports whether two circles overlap or touch.
func (c Circle) Touches(other Circle) bool {
	return c.Center.Distance(other.Center) <= c.Radius+other.Radius
}

// Overlaps reports whether two bodies are in contact: the distance between
// their centres is at most the sum of their radii. Coincident centres always
// overlap, even for zero-radius bodies.
func Overlaps(a, b *Body) bool {
	return a.Circle().Touches(b.Circle())
}

// Merge models a perfectly inelastic collision. The result carries the summed
// mass and charge, sits at the centre of mass, moves with the mass-weighted
// velocity, and has its radius recomputed from the new mass.
func Merge(a, b *Body) *Body {
	total := a.mass + b.mass
	pos := a.position.Scale(a.mass).Add(b.position.Scale(b.mass)).Scale(1 / total)
	vel := a.velocity.Scale(a.mass).Add(b.velocity.Scale(b.mass)).Scale(1 / total)

	return NewMovingBody(total, a.charge+b.charge, pos.X, pos.Y, vel.X, vel.Y)
}
