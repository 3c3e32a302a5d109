// Package config provides configuration loading and access for the engine
// and its CLI tools.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all run configuration parameters.
type Config struct {
	Box       BoxConfig       `yaml:"box"`
	Run       RunConfig       `yaml:"run"`
	Coloring  ColoringConfig  `yaml:"coloring"`
	Kernel    KernelConfig    `yaml:"kernel"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Storage   StorageConfig   `yaml:"storage"`
	Viewer    ViewerConfig    `yaml:"viewer"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// BoxConfig holds the simulation box dimensions and periodicity.
type BoxConfig struct {
	X         int32 `yaml:"x"`
	Y         int32 `yaml:"y"`
	Z         int32 `yaml:"z"`
	PeriodicX bool  `yaml:"periodic_x"`
	PeriodicY bool  `yaml:"periodic_y"`
	PeriodicZ bool  `yaml:"periodic_z"`
}

// RunConfig holds sweep counts and cadences.
type RunConfig struct {
	Sweeps     int    `yaml:"sweeps"`
	Seed       uint64 `yaml:"seed"`
	SaveEvery  int    `yaml:"save_every"`
	CheckEvery int    `yaml:"check_every"`
}

// ColoringConfig selects the species-assignment mode.
type ColoringConfig struct {
	Uniform bool `yaml:"uniform"`
}

// KernelConfig tunes the parallel kernel execution.
type KernelConfig struct {
	MaxWorkers int `yaml:"max_workers"`
}

// TelemetryConfig holds statistics cadences.
type TelemetryConfig struct {
	StatsEvery int `yaml:"stats_every"`
	PerfWindow int `yaml:"perf_window"`
}

// StorageConfig selects the checkpoint store backend.
type StorageConfig struct {
	Backend    string `yaml:"backend"`
	SQLitePath string `yaml:"sqlite_path"`
}

// ViewerConfig holds display settings for the graphical mode.
type ViewerConfig struct {
	Width          int `yaml:"width"`
	Height         int `yaml:"height"`
	TargetFPS      int `yaml:"target_fps"`
	SweepsPerFrame int `yaml:"sweeps_per_frame"`
}

// DerivedConfig holds values computed from the loaded configuration.
type DerivedConfig struct {
	NonPeriodic bool // true when all axes have closed walls
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if
// path is empty. Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into the same struct - only overwrites fields present in
		// the file.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()
	return cfg, nil
}

func (c *Config) validate() error {
	for _, b := range [3]int32{c.Box.X, c.Box.Y, c.Box.Z} {
		if b <= 0 || b&(b-1) != 0 {
			return fmt.Errorf("box edge %d is not a power of two", b)
		}
	}
	px, py, pz := c.Box.PeriodicX, c.Box.PeriodicY, c.Box.PeriodicZ
	if px != py || py != pz {
		return fmt.Errorf("mixed periodicity (%v,%v,%v) is not supported", px, py, pz)
	}
	switch c.Storage.Backend {
	case "", "memory", "sqlite":
	default:
		return fmt.Errorf("unsupported storage backend %q", c.Storage.Backend)
	}
	return nil
}

// computeDerived calculates values derived from the loaded config.
func (c *Config) computeDerived() {
	c.Derived.NonPeriodic = !c.Box.PeriodicX

	if c.Telemetry.PerfWindow <= 0 {
		c.Telemetry.PerfWindow = 100
	}
	if c.Viewer.SweepsPerFrame <= 0 {
		c.Viewer.SweepsPerFrame = 1
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
