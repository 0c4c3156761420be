package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "simcore.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[engine]
max_entities = 256
tick_rate = "20ms"
ticks = 30

[physics]
cell_size = 4.0

[events]
debug = true

[logging]
format = "json"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Engine.MaxEntities != 256 || cfg.Engine.Ticks != 30 {
		t.Errorf("Unexpected engine config %+v", cfg.Engine)
	}
	if cfg.Engine.TickRate != 20*time.Millisecond {
		t.Errorf("Expected 20ms tick rate, got %s", cfg.Engine.TickRate)
	}
	if cfg.Physics.CellSize != 4 || cfg.Physics.MaxDelta != 100*time.Millisecond {
		t.Errorf("Expected cell size override with default deltas, got %+v", cfg.Physics)
	}
	if !cfg.Events.Debug || cfg.Logging.Format != "json" || cfg.Logging.Level != "info" {
		t.Errorf("Unexpected events/logging %+v %+v", cfg.Events, cfg.Logging)
	}
	if cfg.Engine.MaxComponentTypes != 64 {
		t.Errorf("Expected default component limit, got %d", cfg.Engine.MaxComponentTypes)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"too many component types", "[engine]\nmax_component_types = 65\n"},
		{"inverted deltas", "[physics]\nmin_delta = \"1s\"\nmax_delta = \"10ms\"\n"},
		{"zero cell", "[physics]\ncell_size = 0.0\n"},
		{"unknown profile", "[profile]\nmode = \"block\"\n"},
		{"bad toml", "[engine\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.body)); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("Expected read error")
	}
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().validate(); err != nil {
		t.Errorf("Expected defaults to validate, got %v", err)
	}
}
