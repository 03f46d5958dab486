// pkg/config/config.go
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/opd-ai/go-nbody/pkg/engine"
	"github.com/opd-ai/go-nbody/pkg/physics"
	"github.com/opd-ai/go-nbody/pkg/validation"
)

// ErrUnsupportedFormat is returned for scenario files whose extension is
// not .json, .yaml, .yml or .tengo.
var ErrUnsupportedFormat = errors.New("unsupported scenario format")

// ScenarioConfig describes one simulation run
type ScenarioConfig struct {
	Name     string        `json:"name" yaml:"name"`
	TimeStep float64       `json:"timeStep" yaml:"timeStep"`
	World    WorldSize     `json:"world" yaml:"world"`
	Bodies   []BodyConfig  `json:"bodies" yaml:"bodies"`
	Random   *RandomConfig `json:"random,omitempty" yaml:"random,omitempty"`
	Engine   EngineConfig  `json:"engine" yaml:"engine"`
}

// WorldSize is the reflective box, matching the viewer surface
type WorldSize struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// BodyConfig is the initial state of one body
type BodyConfig struct {
	Mass   float64 `json:"mass" yaml:"mass"`
	Charge float64 `json:"charge" yaml:"charge"`
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	VX     float64 `json:"vx" yaml:"vx"`
	VY     float64 `json:"vy" yaml:"vy"`
}

// RandomConfig adds a random population on top of the explicit bodies.
// Seed 0 picks a fresh seed on every build.
type RandomConfig struct {
	Count int    `json:"count" yaml:"count"`
	Seed  uint64 `json:"seed" yaml:"seed"`
}

// EngineConfig contains stepping and pacing options
type EngineConfig struct {
	Workers         int     `json:"workers" yaml:"workers"`
	FrameIntervalMs int     `json:"frameIntervalMs" yaml:"frameIntervalMs"`
	MaxFrames       uint64  `json:"maxFrames" yaml:"maxFrames"`
	TimeLimit       float64 `json:"timeLimit" yaml:"timeLimit"`
}

// ValidationError reports the first invalid field of a scenario
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s (%v): %s", e.Field, e.Value, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(field string, value interface{}, err error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: err.Error(), Err: err}
}

// Format identifies a scenario encoding by file extension
type Format string

const (
	FormatJSON   Format = "json"
	FormatYAML   Format = "yaml"
	FormatScript Format = "tengo"
)

// FormatOf returns the scenario format for path
func FormatOf(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".tengo":
		return FormatScript, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// LoadConfig loads a scenario from a file. It does not validate it.
func LoadConfig(path string) (*ScenarioConfig, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, validation.MaxScenarioSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return config, nil
}

// Parse decodes a scenario document. Unknown keys are rejected.
func Parse(data []byte, format Format) (*ScenarioConfig, error) {
	if err := validation.ValidateDocument(data, format == FormatJSON); err != nil {
		return nil, err
	}

	var config ScenarioConfig
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&config); err != nil {
			return nil, err
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
	case FormatScript:
		return RunScript(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return &config, nil
}

// SaveConfig saves a scenario as JSON or YAML, chosen by extension
func SaveConfig(config *ScenarioConfig, path string) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}

	var data []byte
	switch format {
	case FormatJSON:
		data, err = json.MarshalIndent(config, "", "  ")
	case FormatYAML:
		data, err = yaml.Marshal(config)
	default:
		return fmt.Errorf("%w: cannot write %s scenarios", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfig returns the built-in scenario: two positive charges
// either side of a negative one on the horizontal mid-line.
func DefaultConfig() *ScenarioConfig {
	return &ScenarioConfig{
		Name:     "three body",
		TimeStep: 0.001,
		World:    WorldSize{Width: 1920, Height: 1080},
		Bodies: []BodyConfig{
			{Mass: 5e9, Charge: 5e3, X: 0, Y: 540},
			{Mass: 5e9, Charge: -5e3, X: 500, Y: 540},
			{Mass: 5e9, Charge: 5e3, X: 1000, Y: 540},
		},
		Engine: EngineConfig{
			FrameIntervalMs: 1,
		},
	}
}

// Bounds returns the world size as integrator bounds
func (c *ScenarioConfig) Bounds() physics.Bounds {
	return physics.Bounds{MaxX: c.World.Width, MaxY: c.World.Height}
}

// Validate checks every field and returns a *ValidationError for the
// first invalid one. The scenario name is trimmed in place.
func (c *ScenarioConfig) Validate() error {
	name, err := validation.ValidateScenarioName(c.Name)
	if err != nil {
		return invalid("Name", c.Name, err)
	}
	c.Name = name

	if err := validation.ValidateTimeStep(c.TimeStep); err != nil {
		return invalid("TimeStep", c.TimeStep, err)
	}
	if err := validation.ValidateBounds(c.Bounds()); err != nil {
		return invalid("World", c.World, err)
	}
	if err := validation.ValidateWorkers(c.Engine.Workers); err != nil {
		return invalid("Engine.Workers", c.Engine.Workers, err)
	}
	if c.Engine.FrameIntervalMs < 0 {
		return invalid("Engine.FrameIntervalMs", c.Engine.FrameIntervalMs, errors.New("must not be negative"))
	}
	if tl := c.Engine.TimeLimit; tl < 0 || math.IsNaN(tl) || math.IsInf(tl, 0) {
		return invalid("Engine.TimeLimit", tl, errors.New("must be a finite, non-negative number of seconds"))
	}

	total := len(c.Bodies)
	if c.Random != nil {
		if err := validation.ValidateBodyCount(c.Random.Count); err != nil {
			return invalid("Random.Count", c.Random.Count, err)
		}
		total += c.Random.Count
	}
	if err := validation.ValidateBodyCount(total); err != nil {
		return invalid("Bodies", total, err)
	}

	bounds := c.Bounds()
	for i, b := range c.Bodies {
		pos := physics.Vector2D{X: b.X, Y: b.Y}
		vel := physics.Vector2D{X: b.VX, Y: b.VY}
		if err := validation.ValidateBody(b.Mass, b.Charge, pos, vel, bounds); err != nil {
			return invalid(fmt.Sprintf("Bodies[%d]", i), b, err)
		}
	}
	return nil
}

// BuildBodies materialises the explicit bodies followed by the random
// population, in that order.
func (c *ScenarioConfig) BuildBodies() []*physics.Body {
	bodies := make([]*physics.Body, 0, len(c.Bodies))
	for _, b := range c.Bodies {
		bodies = append(bodies, physics.NewMovingBody(b.Mass, b.Charge, b.X, b.Y, b.VX, b.VY))
	}
	if c.Random != nil && c.Random.Count > 0 {
		bodies = append(bodies, RandomBodiesIn(c.Random.Count, c.Random.Seed, c.Bounds())...)
	}
	return bodies
}

// WorldConfig converts the scenario into engine parameters
func (c *ScenarioConfig) WorldConfig() engine.WorldConfig {
	return engine.WorldConfig{
		Name:          c.Name,
		TimeStep:      c.TimeStep,
		Bounds:        c.Bounds(),
		Workers:       c.Engine.Workers,
		MaxFrames:     c.Engine.MaxFrames,
		TimeLimit:     c.Engine.TimeLimit,
		FrameInterval: time.Duration(c.Engine.FrameIntervalMs) * time.Millisecond,
	}
}
