package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// EnvPath names the environment variable consulted when no config path is given.
const EnvPath = "VOXEL_CONFIG"

const (
	MinRenderDistance = 1
	MaxRenderDistance = 32
)

// Vertical streaming modes.
const (
	VerticalFull   = "full"
	VerticalRadius = "radius"
)

// Config is fixed at startup and shared read-only afterwards.
type Config struct {
	World     WorldConfig     `yaml:"world"`
	Terrain   TerrainConfig   `yaml:"terrain"`
	Streaming StreamingConfig `yaml:"streaming"`
	Assets    AssetsConfig    `yaml:"assets"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Log       LogConfig       `yaml:"log"`
}

type StreamingConfig struct {
	RenderDistance int    `yaml:"render_distance"` // in chunks
	MaxWorkers     int    `yaml:"max_workers"`
	Vertical       string `yaml:"vertical"` // "full" or "radius"
	SpawnX         int    `yaml:"spawn_x"`
	SpawnZ         int    `yaml:"spawn_z"`
	TickRate       int    `yaml:"tick_rate"` // ticks per second, 0 = unlimited
}

type AssetsConfig struct {
	Dir   string `yaml:"dir"` // empty = embedded defaults
	Atlas string `yaml:"atlas"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"` // empty = no HTTP endpoint
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// Default returns the settings the original world was tuned for.
func Default() *Config {
	return &Config{
		World: WorldConfig{
			Seed:       12345,
			ChunkSize:  16,
			LowerLimit: -32,
			UpperLimit: 32,
		},
		Terrain: TerrainConfig{
			Surface:     "grass",
			Filler:      "dirt",
			Deep:        "stone",
			FillerDepth: 3,
		},
		Streaming: StreamingConfig{
			RenderDistance: 2,
			MaxWorkers:     6,
			Vertical:       VerticalFull,
			TickRate:       60,
		},
		Assets: AssetsConfig{Atlas: "atlas.png"},
		Log:    LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads a YAML file over the defaults. An empty path falls back to
// $VOXEL_CONFIG; when that is unset too the defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv(EnvPath)
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Streaming.RenderDistance = ClampRenderDistance(cfg.Streaming.RenderDistance)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ClampRenderDistance keeps the render distance in a workable range.
func ClampRenderDistance(distance int) int {
	if distance < MinRenderDistance {
		return MinRenderDistance
	}
	if distance > MaxRenderDistance {
		return MaxRenderDistance
	}
	return distance
}

// Validate reports every inconsistent setting.
func (c *Config) Validate() error {
	var errs []error
	if err := c.World.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Terrain.Validate(); err != nil {
		errs = append(errs, err)
	}
	if d := c.Streaming.RenderDistance; d < MinRenderDistance || d > MaxRenderDistance {
		errs = append(errs, fmt.Errorf("streaming.render_distance must be in [%d,%d], got %d", MinRenderDistance, MaxRenderDistance, d))
	}
	if c.Streaming.MaxWorkers < 1 {
		errs = append(errs, fmt.Errorf("streaming.max_workers must be positive, got %d", c.Streaming.MaxWorkers))
	}
	if c.Streaming.Vertical != VerticalFull && c.Streaming.Vertical != VerticalRadius {
		errs = append(errs, fmt.Errorf("streaming.vertical must be %q or %q, got %q", VerticalFull, VerticalRadius, c.Streaming.Vertical))
	}
	if c.Streaming.TickRate < 0 {
		errs = append(errs, fmt.Errorf("streaming.tick_rate must not be negative"))
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// Merge copies values loaded from a file into cfg, except for settings the
// user gave explicitly on the command line. explicitFlags holds flag names.
func Merge(cfg *Config, fromFile *Config, explicitFlags map[string]bool) {
	seed, dist, workers := cfg.World.Seed, cfg.Streaming.RenderDistance, cfg.Streaming.MaxWorkers
	assets, metrics, level := cfg.Assets.Dir, cfg.Metrics.Addr, cfg.Log.Level

	*cfg = *fromFile
	if explicitFlags["seed"] {
		cfg.World.Seed = seed
	}
	if explicitFlags["render-distance"] {
		cfg.Streaming.RenderDistance = ClampRenderDistance(dist)
	}
	if explicitFlags["workers"] {
		cfg.Streaming.MaxWorkers = workers
	}
	if explicitFlags["assets"] {
		cfg.Assets.Dir = assets
	}
	if explicitFlags["metrics-addr"] {
		cfg.Metrics.Addr = metrics
	}
	if explicitFlags["log-level"] {
		cfg.Log.Level = level
	}
}
