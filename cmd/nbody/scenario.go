// cmd/nbody/scenario.go
package main

import (
	"fmt"
	"sync/atomic"

	"github.com/opd-ai/go-nbody/pkg/config"
	"github.com/opd-ai/go-nbody/pkg/physics"
)

// options are the command line settings that shape a scenario. Zero
// values leave the scenario (and its environment overrides) untouched.
type options struct {
	scenarioPath string
	preset       string
	random       int
	seed         uint64
	frames       uint64
	workers      int
	width        float64
	height       float64
}

// loadScenario resolves the scenario to run: a preset, a file, or the
// built-in default, then applies environment and flag overrides and
// validates the result.
func loadScenario(opts options) (*config.ScenarioConfig, error) {
	var (
		cfg *config.ScenarioConfig
		err error
	)
	switch {
	case opts.preset != "":
		cfg, err = config.Preset(opts.preset)
	case opts.scenarioPath != "":
		cfg, err = config.LoadConfig(opts.scenarioPath)
	default:
		cfg = config.DefaultConfig()
	}
	if err != nil {
		return nil, err
	}

	config.ApplyEnvironmentOverrides(cfg)
	applyFlags(cfg, opts)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return cfg, nil
}

func applyFlags(cfg *config.ScenarioConfig, opts options) {
	if opts.random > 0 {
		// the random scenario replaces the explicit bodies
		cfg.Name = fmt.Sprintf("random %d", opts.random)
		cfg.Bodies = nil
		cfg.Random = &config.RandomConfig{Count: opts.random, Seed: opts.seed}
	} else if opts.seed != 0 && cfg.Random != nil {
		cfg.Random.Seed = opts.seed
	}
	if opts.frames > 0 {
		cfg.Engine.MaxFrames = opts.frames
	}
	if opts.workers > 0 {
		cfg.Engine.Workers = opts.workers
	}
	if opts.width > 0 {
		cfg.World.Width = opts.width
	}
	if opts.height > 0 {
		cfg.World.Height = opts.height
	}
}

// activeScenario is the scenario the world was last loaded from. Hot
// reloads replace it, so a reset rebuilds the reloaded bodies.
type activeScenario struct {
	cfg atomic.Pointer[config.ScenarioConfig]
}

func newActiveScenario(cfg *config.ScenarioConfig) *activeScenario {
	a := &activeScenario{}
	a.cfg.Store(cfg)
	return a
}

func (a *activeScenario) Store(cfg *config.ScenarioConfig) { a.cfg.Store(cfg) }

// Bodies builds a fresh body set from the current scenario
func (a *activeScenario) Bodies() []*physics.Body {
	return a.cfg.Load().BuildBodies()
}
