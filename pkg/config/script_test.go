package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const lineScript = `
bodies := []
for i := 0; i < 5; i++ {
	bodies = append(bodies, {mass: 1e9, charge: 0, x: 100 + i * 200, y: MAX_Y / 2})
}
scenario := {
	name: "line",
	timeStep: 0.002,
	world: {width: MAX_X, height: MAX_Y},
	bodies: bodies,
	engine: {workers: 2, frameIntervalMs: 4}
}
`

func TestRunScript(t *testing.T) {
	config, err := RunScript([]byte(lineScript))
	if err != nil {
		t.Fatalf("RunScript() error = %v", err)
	}
	if err := config.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if config.Name != "line" || config.TimeStep != 0.002 {
		t.Errorf("expected line/0.002, got %q/%g", config.Name, config.TimeStep)
	}
	if config.World != (WorldSize{Width: 1920, Height: 1080}) {
		t.Errorf("expected default world, got %+v", config.World)
	}
	if len(config.Bodies) != 5 {
		t.Fatalf("expected 5 bodies, got %d", len(config.Bodies))
	}
	for i, b := range config.Bodies {
		if b.X != float64(100+i*200) || b.Y != 540 || b.Mass != 1e9 {
			t.Errorf("body %d: got %+v", i, b)
		}
	}
	if config.Engine.Workers != 2 || config.Engine.FrameIntervalMs != 4 {
		t.Errorf("unexpected engine %+v", config.Engine)
	}
}

func TestRunScript_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr error
		message string
	}{
		{"no scenario", `x := 1`, ErrNoScenario, ""},
		{"scenario not a map", `scenario := 5`, ErrNoScenario, ""},
		{"syntax error", `scenario := {`, nil, "scenario script"},
		{"forbidden import", `os := import("os"); scenario := {}`, nil, "scenario script"},
		{"unknown key", `scenario := {gravity: 9.8}`, nil, "unknown field"},
		{"trailing comma before closing brace", "scenario := {\n\tname: \"x\",\n}", nil, "expected map element"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RunScript([]byte(tt.src))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
			if tt.message != "" && !strings.Contains(err.Error(), tt.message) {
				t.Errorf("expected %q in %q", tt.message, err.Error())
			}
		})
	}
}

func TestLoadConfig_Script(t *testing.T) {
	path := filepath.Join(t.TempDir(), "line.tengo")
	if err := os.WriteFile(path, []byte(lineScript), 0o644); err != nil {
		t.Fatal(err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if len(config.BuildBodies()) != 5 {
		t.Errorf("expected 5 bodies, got %d", len(config.BuildBodies()))
	}
}
