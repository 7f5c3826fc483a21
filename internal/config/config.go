// Package config loads cellar's on-disk environment configuration from
// a YAML file, separate from the programmatic Env setters.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Geometry mirrors the size knobs accepted by Env.SetGeometry.
type Geometry struct {
	LowerMB  int64 `yaml:"lower_mb"`
	UpperMB  int64 `yaml:"upper_mb"`
	GrowMB   int64 `yaml:"grow_mb"`
	ShrinkMB int64 `yaml:"shrink_mb"`
}

// Config is the root document for a cellar deployment: where the data
// file lives, how big it may grow, and how the ambient stack behaves.
type Config struct {
	Path       string   `yaml:"path"`
	MaxReaders uint     `yaml:"max_readers"`
	MaxDBs     uint     `yaml:"max_dbs"`
	Geometry   Geometry `yaml:"geometry"`
	LogLevel   string   `yaml:"log_level"`
	MetricsAddr string  `yaml:"metrics_addr"`
}

// Default returns a Config with the same defaults NewEnv applies.
func Default() Config {
	return Config{
		MaxReaders: 126,
		MaxDBs:     16,
		LogLevel:   "info",
	}
}

// Load reads and parses a YAML config file, filling in defaults for any
// field the file leaves zero.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
