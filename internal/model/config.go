package model

import (
	"fmt"
	"os"

	yamlv3 "gopkg.in/yaml.v3"
)

type Config struct {
	Project    ProjectConfig    `yaml:"project"`
	Simulation SimulationConfig `yaml:"simulation"`
	World      WorldConfig      `yaml:"world"`
	Store      StoreConfig      `yaml:"store"`
	Control    ControlConfig    `yaml:"control"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type ProjectConfig struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type SimulationConfig struct {
	TicksPerSecond  float64 `yaml:"ticks_per_second"`
	SpeedMultiplier float64 `yaml:"speed_multiplier"`
	StartPaused     bool    `yaml:"start_paused"`

	ThinkBudget int `yaml:"think_budget"`
	PathBudget  int `yaml:"path_budget"`

	// Diagnostic summary interval and dead-reference sweep interval, in ticks.
	DiagnosticsIntervalTicks int `yaml:"diagnostics_interval_ticks"`
	CleanupIntervalTicks     int `yaml:"cleanup_interval_ticks"`

	// Node exploration cap for a single route computation.
	PathMaxNodes int `yaml:"path_max_nodes"`
}

type WorldConfig struct {
	Width      int   `yaml:"width"`
	Height     int   `yaml:"height"`
	Seed       int64 `yaml:"seed"`
	Herbivores int   `yaml:"herbivores"`
	Predators  int   `yaml:"predators"`
}

type StoreConfig struct {
	Path               string `yaml:"path"`
	SnapshotPath       string `yaml:"snapshot_path"`
	FlushIntervalTicks int    `yaml:"flush_interval_ticks"`
}

type ControlConfig struct {
	SocketPath string `yaml:"socket_path"`
}

type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// WithDefaults returns a copy with zero values replaced by the defaults the
// daemon runs with.
func (c Config) WithDefaults() Config {
	if c.Project.Name == "" {
		c.Project.Name = "ecosim"
	}
	if c.Simulation.TicksPerSecond <= 0 {
		c.Simulation.TicksPerSecond = 10
	}
	if c.Simulation.SpeedMultiplier <= 0 {
		c.Simulation.SpeedMultiplier = 1.0
	}
	if c.Simulation.ThinkBudget <= 0 {
		c.Simulation.ThinkBudget = 50
	}
	if c.Simulation.PathBudget <= 0 {
		c.Simulation.PathBudget = 40
	}
	if c.Simulation.DiagnosticsIntervalTicks <= 0 {
		c.Simulation.DiagnosticsIntervalTicks = 50
	}
	if c.Simulation.CleanupIntervalTicks <= 0 {
		c.Simulation.CleanupIntervalTicks = 100
	}
	if c.Simulation.PathMaxNodes <= 0 {
		c.Simulation.PathMaxNodes = 10000
	}
	if c.World.Width <= 0 {
		c.World.Width = 64
	}
	if c.World.Height <= 0 {
		c.World.Height = 64
	}
	if c.World.Seed == 0 {
		c.World.Seed = 1
	}
	if c.World.Herbivores <= 0 {
		c.World.Herbivores = 40
	}
	if c.World.Predators < 0 {
		c.World.Predators = 0
	}
	if c.Store.Path == "" {
		c.Store.Path = "ecosim.db"
	}
	if c.Store.SnapshotPath == "" {
		c.Store.SnapshotPath = "metrics.yaml"
	}
	if c.Store.FlushIntervalTicks <= 0 {
		c.Store.FlushIntervalTicks = 100
	}
	if c.Control.SocketPath == "" {
		c.Control.SocketPath = "ecosim.sock"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	return c
}

// LoadConfig reads a YAML config file and applies defaults. A missing path
// yields the pure defaults rather than an error.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return Config{}.WithDefaults(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yamlv3.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg.WithDefaults(), nil
}
