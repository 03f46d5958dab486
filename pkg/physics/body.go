// pkg/physics/body.go
package physics

import "math"

// Density is the uniform density used to derive a body's radius from its mass.
const Density = 5e5

// Body is a point mass carrying a charge, moving in the plane.
// Mass, charge and radius are fixed at construction; kinematic state only
// changes through Update.
type Body struct {
	mass   float64
	charge float64
	radius int

	position     Vector2D
	velocity     Vector2D
	acceleration Vector2D
}

// NewBody creates a body at rest. Mass must be positive; the caller is
// responsible for that.
func NewBody(mass, charge, x, y float64) *Body {
	return NewMovingBody(mass, charge, x, y, 0, 0)
}

// NewMovingBody creates a body with an initial velocity.
func NewMovingBody(mass, charge, x, y, vx, vy float64) *Body {
	return &Body{
		mass:     mass,
		charge:   charge,
		radius:   RadiusForMass(mass),
		position: Vector2D{X: x, Y: y},
		velocity: Vector2D{X: vx, Y: vy},
	}
}

// RadiusForMass returns floor(cbrt(mass / (Density * 4π))).
func RadiusForMass(mass float64) int {
	return int(math.Floor(math.Cbrt(mass / (Density * 4 * math.Pi))))
}

// Mass returns the body's mass
func (b *Body) Mass() float64 { return b.mass }

// Charge returns the body's charge
func (b *Body) Charge() float64 { return b.charge }

// Radius returns the radius derived from the mass at construction
func (b *Body) Radius() int { return b.radius }

// Position returns the current position
func (b *Body) Position() Vector2D { return b.position }

// Velocity returns the current velocity
func (b *Body) Velocity() Vector2D { return b.velocity }

// Acceleration returns the acceleration computed by the last Update
func (b *Body) Acceleration() Vector2D { return b.acceleration }

// Speed returns the magnitude of the velocity
func (b *Body) Speed() float64 { return b.velocity.Length() }

// Momentum returns mass * velocity
func (b *Body) Momentum() Vector2D { return b.velocity.Scale(b.mass) }

// KineticEnergy returns 1/2 m v²
func (b *Body) KineticEnergy() float64 {
	return 0.5 * b.mass * b.velocity.LengthSquared()
}

// Circle returns the body's collision shape
func (b *Body) Circle() Circle {
	return Circle{Center: b.position, Radius: float64(b.radius)}
}
