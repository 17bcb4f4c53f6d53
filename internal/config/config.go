package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Sandbox SandboxConfig `toml:"sandbox"`
	Weld    WeldConfig    `toml:"weld"`
	Spatial SpatialConfig `toml:"spatial"`
	Metrics MetricsConfig `toml:"metrics"`
	Logging LoggingConfig `toml:"logging"`
}

type SandboxConfig struct {
	Name       string   `toml:"name"`
	TickRate   Duration `toml:"tick_rate"`
	ScenePath  string   `toml:"scene"`
	ScriptsDir string   `toml:"scripts_dir"`
	MaxTicks   int      `toml:"max_ticks"` // 0 = run until the scene's last frame
	Realtime   bool     `toml:"realtime"`  // sleep between ticks instead of running flat out
}

type WeldConfig struct {
	MaxIterations    int     `toml:"max_iterations"`    // per Weld call, caps per-frame cost
	ProximityMargin  float64 `toml:"proximity_margin"`  // bounds inflation for candidate discovery
	DefaultMass      float64 `toml:"default_mass"`      // mass given to bodies created by a physics weld
	DefaultMechanism string  `toml:"default_mechanism"` // "hierarchy" or "physics"
	Debug            bool    `toml:"debug"`             // corruption is a fatal assertion instead of a silent repair
	CheckEvery       int     `toml:"check_every"`       // ticks between invariant passes, 0 = never
}

type SpatialConfig struct {
	CellSize float64 `toml:"cell_size"`
}

type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	BindAddress string `toml:"bind_address"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

// Duration decodes TOML strings such as "50ms".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Load reads a TOML file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML content over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the engine cannot run with.
func (c *Config) Validate() error {
	if c.Weld.MaxIterations <= 0 {
		return fmt.Errorf("weld.max_iterations must be positive, got %d", c.Weld.MaxIterations)
	}
	if c.Weld.ProximityMargin < 0 {
		return fmt.Errorf("weld.proximity_margin must not be negative, got %g", c.Weld.ProximityMargin)
	}
	if c.Weld.DefaultMass <= 0 {
		return fmt.Errorf("weld.default_mass must be positive, got %g", c.Weld.DefaultMass)
	}
	switch c.Weld.DefaultMechanism {
	case "hierarchy", "physics":
	default:
		return fmt.Errorf("weld.default_mechanism must be hierarchy or physics, got %q", c.Weld.DefaultMechanism)
	}
	if c.Spatial.CellSize <= 0 {
		return fmt.Errorf("spatial.cell_size must be positive, got %g", c.Spatial.CellSize)
	}
	if c.Sandbox.TickRate.Duration <= 0 {
		return fmt.Errorf("sandbox.tick_rate must be positive")
	}
	return nil
}

func Defaults() *Config {
	return &Config{
		Sandbox: SandboxConfig{
			Name:       "weldsim",
			TickRate:   Duration{20 * time.Millisecond},
			ScenePath:  "data/yaml/demo_scene.yaml",
			ScriptsDir: "scripts",
		},
		Weld: WeldConfig{
			MaxIterations:    128,
			ProximityMargin:  0.01,
			DefaultMass:      1.0,
			DefaultMechanism: "hierarchy",
			CheckEvery:       30,
		},
		Spatial: SpatialConfig{
			CellSize: 4.0,
		},
		Metrics: MetricsConfig{
			Enabled:     false,
			BindAddress: "127.0.0.1:9108",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
