// pkg/config/env.go
package config

import (
	"os"
	"strconv"
	"time"
)

// Environment variables read by ApplyEnvironmentOverrides
const (
	EnvTimeStep        = "NBODY_TIME_STEP"
	EnvWorldWidth      = "NBODY_WORLD_WIDTH"
	EnvWorldHeight     = "NBODY_WORLD_HEIGHT"
	EnvWorkers         = "NBODY_WORKERS"
	EnvRandomBodies    = "NBODY_RANDOM_BODIES"
	EnvRandomSeed      = "NBODY_RANDOM_SEED"
	EnvMaxFrames       = "NBODY_MAX_FRAMES"
	EnvFrameIntervalMs = "NBODY_FRAME_INTERVAL_MS"
	EnvScenarioName    = "NBODY_SCENARIO_NAME"
	EnvWatch           = "NBODY_WATCH"
	EnvWatchDebounce   = "NBODY_WATCH_DEBOUNCE"
)

// LoadConfigFromEnv returns the default scenario with environment
// overrides applied and validated.
func LoadConfigFromEnv() (*ScenarioConfig, error) {
	config := DefaultConfig()
	ApplyEnvironmentOverrides(config)
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// ApplyEnvironmentOverrides replaces fields whose environment variable is
// set to a parseable value. Unparseable values are ignored.
func ApplyEnvironmentOverrides(config *ScenarioConfig) {
	config.Name = getEnvOrDefault(EnvScenarioName, config.Name)
	config.TimeStep = getEnvAsFloatOrDefault(EnvTimeStep, config.TimeStep)
	config.World.Width = getEnvAsFloatOrDefault(EnvWorldWidth, config.World.Width)
	config.World.Height = getEnvAsFloatOrDefault(EnvWorldHeight, config.World.Height)
	config.Engine.Workers = getEnvAsIntOrDefault(EnvWorkers, config.Engine.Workers)
	config.Engine.MaxFrames = getEnvAsUint64OrDefault(EnvMaxFrames, config.Engine.MaxFrames)
	config.Engine.FrameIntervalMs = getEnvAsIntOrDefault(EnvFrameIntervalMs, config.Engine.FrameIntervalMs)

	if _, ok := os.LookupEnv(EnvRandomBodies); ok {
		random := RandomConfig{}
		if config.Random != nil {
			random = *config.Random
		}
		random.Count = getEnvAsIntOrDefault(EnvRandomBodies, random.Count)
		random.Seed = getEnvAsUint64OrDefault(EnvRandomSeed, random.Seed)
		config.Random = &random
	} else if config.Random != nil {
		config.Random.Seed = getEnvAsUint64OrDefault(EnvRandomSeed, config.Random.Seed)
	}
}

// WatchEnabled reports whether hot reload is on by default
func WatchEnabled() bool {
	return getEnvAsBoolOrDefault(EnvWatch, false)
}

// WatchDebounce returns the hot reload debounce interval
func WatchDebounce() time.Duration {
	return getEnvAsDurationOrDefault(EnvWatchDebounce, DefaultDebounce)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsUint64OrDefault(key string, defaultValue uint64) uint64 {
	if value, err := strconv.ParseUint(os.Getenv(key), 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	if value, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}
