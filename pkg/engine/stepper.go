// pkg/engine/stepper.go
package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/opd-ai/go-nbody/pkg/event"
	"github.com/opd-ai/go-nbody/pkg/physics"
	"github.com/opd-ai/go-nbody/pkg/validation"
)

var (
	// ErrCorruptFrame is returned when a frame produced a non-finite force.
	// Nothing is integrated for that frame.
	ErrCorruptFrame = errors.New("corrupt frame")

	// ErrInvalidTimeStep is returned for a zero, negative or non-finite dt.
	ErrInvalidTimeStep = errors.New("invalid time step")
)

// Stepper advances a body collection by exactly one frame:
// collision resolution, force accumulation, then integration.
// It keeps no state between frames.
type Stepper struct {
	Bounds  physics.Bounds
	Workers int

	events *event.Bus
}

// NewStepper creates a stepper. bus may be nil.
func NewStepper(bounds physics.Bounds, workers int, bus *event.Bus) *Stepper {
	return &Stepper{
		Bounds:  bounds,
		Workers: workers,
		events:  bus,
	}
}

// Step runs one frame and returns the updated collection. The input slice
// is reused and must not be read by the caller afterwards.
//
// If any accumulated force is non-finite, Step returns ErrCorruptFrame and
// no body is integrated. Merges performed before the check are kept.
func (s *Stepper) Step(ctx context.Context, bodies []*physics.Body, dt float64) ([]*physics.Body, error) {
	if err := validation.ValidateTimeStep(dt); err != nil {
		return bodies, fmt.Errorf("%w: %w", ErrInvalidTimeStep, err)
	}

	bodies = s.ResolveCollisions(bodies)

	forces, err := s.AccumulateForces(ctx, bodies)
	if err != nil {
		return bodies, err
	}

	for i, b := range bodies {
		b.Update(dt, forces[i], s.Bounds)
	}
	return bodies, nil
}

// ResolveCollisions merges overlapping pairs until none remain. After a
// merge the two originals are removed, the merged body is appended and the
// scan resumes at the same index, since a different body now occupies it.
// Passes repeat until one completes without a merge, so the appended body
// is also checked against bodies earlier in the collection.
func (s *Stepper) ResolveCollisions(bodies []*physics.Body) []*physics.Body {
	for merged := true; merged; {
		merged = false
		for i := 0; i < len(bodies); i++ {
			for j := i + 1; j < len(bodies); j++ {
				if !physics.Overlaps(bodies[i], bodies[j]) {
					continue
				}

				m := physics.Merge(bodies[i], bodies[j])
				bodies = slices.Delete(bodies, j, j+1)
				bodies = slices.Delete(bodies, i, i+1)
				bodies = append(bodies, m)
				s.publishMerge(m)

				merged = true
				i--
				break
			}
		}
	}
	return bodies
}

func (s *Stepper) publishMerge(m *physics.Body) {
	if s.events == nil {
		return
	}
	s.events.Publish(event.NewMergeEvent(s, m))
}

// AccumulateForces returns the net force on every body, computed from the
// frozen state of the collection. Gravity and electrostatics are evaluated
// once per unordered pair and applied to both bodies with opposite signs.
// The magnetic term is evaluated once per directed pair.
func (s *Stepper) AccumulateForces(ctx context.Context, bodies []*physics.Body) ([]physics.Vector2D, error) {
	n := len(bodies)
	workers := min(s.Workers, n)

	var forces []physics.Vector2D
	if workers <= 1 {
		forces = make([]physics.Vector2D, n)
		accumulate(bodies, 0, 1, forces)
	} else {
		var err error
		if forces, err = accumulateParallel(ctx, bodies, workers); err != nil {
			return nil, err
		}
	}

	for i, f := range forces {
		if !f.IsFinite() {
			return nil, fmt.Errorf("%w: net force on body %d is %v", ErrCorruptFrame, i, f)
		}
	}
	return forces, nil
}

// accumulate handles the outer indices first, first+stride, ... writing
// into acc, which no other goroutine may touch.
func accumulate(bodies []*physics.Body, first, stride int, acc []physics.Vector2D) {
	for i := first; i < len(bodies); i += stride {
		for j := 0; j < i; j++ {
			acc[i] = acc[i].Add(physics.MagneticForce(bodies[i], bodies[j]))
		}
		for j := i + 1; j < len(bodies); j++ {
			f := physics.PairwiseForce(bodies[i], bodies[j])
			acc[i] = acc[i].Add(f.Combined)
			acc[j] = acc[j].Sub(f.Symmetric())
		}
	}
}

// accumulateParallel deals outer indices round-robin so every worker gets a
// similar share of the triangular pair loop. Each worker owns a private
// accumulator; they are summed once all workers are done.
func accumulateParallel(ctx context.Context, bodies []*physics.Body, workers int) ([]physics.Vector2D, error) {
	n := len(bodies)
	partial := make([][]physics.Vector2D, workers)

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		partial[w] = make([]physics.Vector2D, n)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			accumulate(bodies, w, workers, partial[w])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	forces := partial[0]
	for _, acc := range partial[1:] {
		for i := range forces {
			forces[i] = forces[i].Add(acc[i])
		}
	}
	return forces, nil
}
