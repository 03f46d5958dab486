// pkg/config/script.go
package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
)

// ScriptTimeout bounds how long a scenario script may run
const ScriptTimeout = 5 * time.Second

// ErrNoScenario is returned when a script does not define `scenario`
var ErrNoScenario = errors.New("script does not define a scenario map")

// RunScript evaluates a tengo scenario script. The script must leave a
// map in the global `scenario` with the same keys as a JSON scenario.
// The globals MAX_X and MAX_Y hold the default world size, and the math,
// rand and times modules can be imported.
//
//	rand := import("rand")
//	bodies := []
//	for i := 0; i < 10; i++ {
//	    bodies = append(bodies, {mass: 1e9, x: rand.float() * MAX_X, y: MAX_Y / 2})
//	}
//	scenario := {name: "line", timeStep: 0.001, world: {width: MAX_X, height: MAX_Y}, bodies: bodies}
func RunScript(src []byte) (*ScenarioConfig, error) {
	defaults := DefaultConfig()

	script := tengo.NewScript(src)
	_ = script.Add("MAX_X", defaults.World.Width)
	_ = script.Add("MAX_Y", defaults.World.Height)
	script.SetImports(stdlib.GetModuleMap("math", "rand", "times"))

	ctx, cancel := context.WithTimeout(context.Background(), ScriptTimeout)
	defer cancel()

	compiled, err := script.RunContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("scenario script: %w", err)
	}

	value := compiled.Get("scenario").Map()
	if len(value) == 0 {
		return nil, ErrNoScenario
	}

	// tengo values convert to plain maps, slices, int64 and float64, so
	// the JSON decoder applies the same field mapping as a .json file.
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("scenario script: %w", err)
	}
	return Parse(data, FormatJSON)
}
