// Package validation checks scenario input before any body is built from it.
// The physics package assumes its preconditions hold (positive mass, finite
// state, a positive time step); this package is where they are enforced.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/opd-ai/go-nbody/pkg/physics"
)

// Scenario size and content limits
const (
	MaxScenarioSize    = 1 << 20 // 1MB max scenario document
	MaxScenarioNameLen = 64
	MaxBodies          = 10000
	MaxWorkers         = 256
)

// Sentinel errors, checked with errors.Is.
var (
	ErrInvalidMass      = errors.New("mass must be positive")
	ErrNonFinite        = errors.New("value is not finite")
	ErrOutOfBounds      = errors.New("position outside world bounds")
	ErrInvalidTimeStep  = errors.New("time step must be positive")
	ErrInvalidBounds    = errors.New("world bounds must be positive")
	ErrInvalidName      = errors.New("invalid scenario name")
	ErrTooManyBodies    = errors.New("too many bodies")
	ErrInvalidWorkers   = errors.New("invalid worker count")
	ErrDocumentTooLarge = errors.New("scenario document too large")
	ErrMalformedJSON    = errors.New("invalid JSON format")
)

// Allow alphanumeric, spaces, hyphens, underscores, and basic punctuation
var validScenarioNameChars = regexp.MustCompile(`^[a-zA-Z0-9\s\-_.,:()#+]+$`)

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// ValidateBody checks one body's initial state against the world bounds.
func ValidateBody(mass, charge float64, position, velocity physics.Vector2D, bounds physics.Bounds) error {
	if !finite(mass, charge, position.X, position.Y, velocity.X, velocity.Y) {
		return ErrNonFinite
	}
	if mass <= 0 {
		return fmt.Errorf("%w: %g", ErrInvalidMass, mass)
	}
	if position.X < 0 || position.X > bounds.MaxX || position.Y < 0 || position.Y > bounds.MaxY {
		return fmt.Errorf("%w: (%g, %g) not in [0, %g] x [0, %g]",
			ErrOutOfBounds, position.X, position.Y, bounds.MaxX, bounds.MaxY)
	}
	return nil
}

// ValidateTimeStep validates the fixed integration step
func ValidateTimeStep(dt float64) error {
	if !finite(dt) {
		return ErrNonFinite
	}
	if dt <= 0 {
		return fmt.Errorf("%w: %g", ErrInvalidTimeStep, dt)
	}
	return nil
}

// ValidateBounds validates the reflective box size
func ValidateBounds(b physics.Bounds) error {
	if !finite(b.MaxX, b.MaxY) {
		return ErrNonFinite
	}
	if b.MaxX <= 0 || b.MaxY <= 0 {
		return fmt.Errorf("%w: %g x %g", ErrInvalidBounds, b.MaxX, b.MaxY)
	}
	return nil
}

// ValidateBodyCount rejects populations the O(n²) stepper cannot sustain
func ValidateBodyCount(n int) error {
	if n < 0 || n > MaxBodies {
		return fmt.Errorf("%w: %d (max %d)", ErrTooManyBodies, n, MaxBodies)
	}
	return nil
}

// ValidateWorkers validates the force accumulation worker count.
// Zero and one both mean sequential accumulation.
func ValidateWorkers(n int) error {
	if n < 0 || n > MaxWorkers {
		return fmt.Errorf("%w: %d (must be 0-%d)", ErrInvalidWorkers, n, MaxWorkers)
	}
	return nil
}

// ValidateScenarioName validates and trims a scenario name for display in
// window titles and log lines. An empty name is allowed.
func ValidateScenarioName(name string) (string, error) {
	if name == "" {
		return "", nil
	}

	if len(name) > MaxScenarioNameLen {
		return "", fmt.Errorf("%w: too long: %d characters (max %d)", ErrInvalidName, len(name), MaxScenarioNameLen)
	}

	if !utf8.ValidString(name) {
		return "", fmt.Errorf("%w: contains invalid UTF-8 characters", ErrInvalidName)
	}

	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", nil
	}

	for _, r := range trimmed {
		if unicode.IsControl(r) {
			return "", fmt.Errorf("%w: contains control characters", ErrInvalidName)
		}
	}

	if !validScenarioNameChars.MatchString(trimmed) {
		return "", fmt.Errorf("%w: contains invalid characters", ErrInvalidName)
	}

	return trimmed, nil
}

// ValidateDocument checks a raw scenario document before decoding it.
// JSON documents are additionally checked for well-formedness.
func ValidateDocument(data []byte, isJSON bool) error {
	if len(data) > MaxScenarioSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrDocumentTooLarge, len(data), MaxScenarioSize)
	}
	if isJSON && !json.Valid(data) {
		return ErrMalformedJSON
	}
	return nil
}
