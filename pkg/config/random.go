// pkg/config/random.go
package config

import (
	"math/rand/v2"

	"github.com/opd-ai/go-nbody/pkg/physics"
)

// Ranges of the random population
const (
	RandomMinMass  = 6.3e6
	RandomMassSpan = 1e9
	RandomMinSpeed = -25.0
	RandomVelSpan  = 51.0
)

// RandomBodies returns n uncharged bodies scattered over the default
// 1920x1080 world.
func RandomBodies(n int, seed uint64) []*physics.Body {
	return RandomBodiesIn(n, seed, physics.DefaultBounds)
}

// RandomBodiesIn returns n uncharged bodies with mass in
// [6.3e6, 6.3e6+1e9), position in [1, max) on each axis and each velocity
// component in [-25, 26). The same non-zero seed always yields the same
// bodies; seed 0 draws a fresh seed.
func RandomBodiesIn(n int, seed uint64, bounds physics.Bounds) []*physics.Body {
	if seed == 0 {
		seed = rand.Uint64()
	}
	r := rand.New(rand.NewPCG(seed, seed>>32|seed<<32))

	bodies := make([]*physics.Body, 0, n)
	for i := 0; i < n; i++ {
		mass := RandomMinMass + r.Float64()*RandomMassSpan
		x := 1 + r.Float64()*(bounds.MaxX-1)
		y := 1 + r.Float64()*(bounds.MaxY-1)
		vx := RandomMinSpeed + r.Float64()*RandomVelSpan
		vy := RandomMinSpeed + r.Float64()*RandomVelSpan
		bodies = append(bodies, physics.NewMovingBody(mass, 0, x, y, vx, vy))
	}
	return bodies
}
