// pkg/config/presets.go
package config

import (
	"fmt"
	"slices"
	"strings"
)

// presets are the built-in scenarios selectable by name
var presets = map[string]func() *ScenarioConfig{
	"three-body": DefaultConfig,
	"corners":    cornersConfig,
	"random":     randomConfig,
}

// PresetNames lists the built-in scenarios in sorted order
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Preset returns a fresh copy of a built-in scenario
func Preset(name string) (*ScenarioConfig, error) {
	build, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown preset %q (available: %s)", name, strings.Join(PresetNames(), ", "))
	}
	return build(), nil
}

// cornersConfig puts a heavy body in the centre and a light one at every
// corner and edge midpoint of the world.
func cornersConfig() *ScenarioConfig {
	c := DefaultConfig()
	c.Name = "corners"
	c.Bodies = []BodyConfig{
		{Mass: 2e14, X: 960, Y: 540},
		{Mass: 5e9, X: 1920, Y: 540},
		{Mass: 5e9, X: 0, Y: 540},
		{Mass: 5e9, X: 960, Y: 0},
		{Mass: 5e9, X: 960, Y: 1080},
		{Mass: 5e9, X: 0, Y: 0},
		{Mass: 5e9, X: 1920, Y: 0},
		{Mass: 5e9, X: 0, Y: 1080},
		{Mass: 5e9, X: 1920, Y: 1080},
	}
	return c
}

func randomConfig() *ScenarioConfig {
	c := DefaultConfig()
	c.Name = "random"
	c.Bodies = nil
	c.Random = &RandomConfig{Count: 20}
	return c
}
