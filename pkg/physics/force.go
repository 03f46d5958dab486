// pkg/physics/force.go
package physics

import "math"

// Physical constants used by the force model.
const (
	G = 6.67408e-11 // gravitational constant
	K = 8.98755e9   // Coulomb's constant
	U = 1.0e-7      // vacuum permeability / 4π
)

// PairForce is the force one body feels from another, split by family.
type PairForce struct {
	Combined Vector2D
	Gravity  Vector2D
	Electric Vector2D
	Magnetic Vector2D
}

// Symmetric returns the part of the force that obeys Newton's third law.
// The magnetic term is excluded: it has to be evaluated per directed pair.
func (f PairForce) Symmetric() Vector2D {
	return f.Gravity.Add(f.Electric)
}

// PairwiseForce computes the force exerted on self by other.
// The centres must not coincide; with r = 0 the result is not finite.
func PairwiseForce(self, other *Body) PairForce {
	rel := other.position.Sub(self.position)
	r := rel.Length()
	r2 := r * r

	var f PairForce

	// Attractive, along the line from self toward other.
	f.Gravity = rel.Scale(G * self.mass * other.mass / (r2 * r))

	if self.charge != 0 {
		// Repulsive for like charges: directed from other toward self.
		f.Electric = rel.Scale(-K * self.charge * other.charge / (r2 * r))
	}

	f.Magnetic = MagneticForce(self, other)
	f.Combined = f.Gravity.Add(f.Electric).Add(f.Magnetic)
	return f
}

// MagneticForce computes the velocity-dependent term on self produced by the
// moving charge of other. It is not antisymmetric under swapping the bodies.
func MagneticForce(self, other *Body) Vector2D {
	if self.charge == 0 || self.velocity.LengthSquared() == 0 || other.velocity.LengthSquared() == 0 {
		return Vector2D{}
	}

	rX := self.position.X - other.position.X
	rY := self.position.Y - other.position.Y
	r := math.Sqrt(rX*rX + rY*rY)

	b := U * other.charge * (other.velocity.X*rY - other.velocity.Y*rX) / (r * r * r)

	// x uses self's y velocity and y uses self's x velocity.
	return Vector2D{
		X: self.charge * self.velocity.Y * b,
		Y: self.charge * self.velocity.X * b,
	}
}
