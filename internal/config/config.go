package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Engine    EngineConfig    `toml:"engine"`
	Physics   PhysicsConfig   `toml:"physics"`
	Events    EventsConfig    `toml:"events"`
	Scripting ScriptingConfig `toml:"scripting"`
	Scene     SceneConfig     `toml:"scene"`
	Logging   LoggingConfig   `toml:"logging"`
	Profile   ProfileConfig   `toml:"profile"`
}

type EngineConfig struct {
	MaxEntities       int           `toml:"max_entities"`
	MaxComponentTypes int           `toml:"max_component_types"` // at most 64
	TickRate          time.Duration `toml:"tick_rate"`
	Ticks             int           `toml:"ticks"`   // 0 = run until interrupted
	Workers           int           `toml:"workers"` // 0 = GOMAXPROCS
}

type PhysicsConfig struct {
	MinDelta time.Duration `toml:"min_delta"`
	MaxDelta time.Duration `toml:"max_delta"`
	CellSize float64       `toml:"cell_size"`
}

type EventsConfig struct {
	Debug bool `toml:"debug"`
}

type ScriptingConfig struct {
	Dir string `toml:"dir"`
}

type SceneConfig struct {
	Path string `toml:"path"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

type ProfileConfig struct {
	Mode string `toml:"mode"` // "", "cpu", "mem", "trace"
	Dir  string `toml:"dir"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns the built-in configuration used when no file is present.
func Default() *Config { return defaults() }

func (c *Config) validate() error {
	if c.Engine.MaxEntities < 2 {
		return fmt.Errorf("engine.max_entities must be at least 2, got %d", c.Engine.MaxEntities)
	}
	if c.Engine.MaxComponentTypes < 1 || c.Engine.MaxComponentTypes > 64 {
		return fmt.Errorf("engine.max_component_types must be in [1,64], got %d", c.Engine.MaxComponentTypes)
	}
	if c.Engine.TickRate <= 0 {
		return fmt.Errorf("engine.tick_rate must be positive, got %s", c.Engine.TickRate)
	}
	if c.Physics.MinDelta <= 0 || c.Physics.MaxDelta < c.Physics.MinDelta {
		return fmt.Errorf("physics: need 0 < min_delta <= max_delta, got %s / %s", c.Physics.MinDelta, c.Physics.MaxDelta)
	}
	if c.Physics.CellSize <= 0 {
		return fmt.Errorf("physics.cell_size must be positive, got %v", c.Physics.CellSize)
	}
	switch c.Profile.Mode {
	case "", "cpu", "mem", "trace":
	default:
		return fmt.Errorf("profile.mode %q unknown", c.Profile.Mode)
	}
	return nil
}

func defaults() *Config {
	return &Config{
		Engine: EngineConfig{
			MaxEntities:       5000,
			MaxComponentTypes: 64,
			TickRate:          16 * time.Millisecond,
		},
		Physics: PhysicsConfig{
			MinDelta: 100 * time.Microsecond,
			MaxDelta: 100 * time.Millisecond,
			CellSize: 10,
		},
		Scripting: ScriptingConfig{
			Dir: "scripts",
		},
		Scene: SceneConfig{
			Path: "data/scene.yaml",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Profile: ProfileConfig{
			Dir: ".",
		},
	}
}
