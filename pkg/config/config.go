// Package config provides configuration loading and management for spectralviz.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Processing parameters
	Processing struct {
		// Workers bounds how many row partitions are evaluated at once
		Workers int `yaml:"workers"`

		// RowsPerTask is the number of rows in one partition
		RowsPerTask int `yaml:"rowsPerTask"`
	} `yaml:"processing"`

	// Input raster parameters
	Input struct {
		// Quantification divides digital numbers into reflectance
		Quantification float64 `yaml:"quantification"`

		// Offset is added to digital numbers before quantification
		Offset float64 `yaml:"offset"`
	} `yaml:"input"`

	// Output parameters
	Output struct {
		// Dir is where rendered layers are written
		Dir string `yaml:"dir"`

		// Format is png or jpeg
		Format string `yaml:"format"`

		// IncludeHidden also writes layers that are hidden by default
		IncludeHidden bool `yaml:"includeHidden"`
	} `yaml:"output"`

	// Logging parameters
	Logging struct {
		// Level is one of debug, info, warn, error
		Level string `yaml:"level"`

		// Development switches to the human readable console encoder
		Development bool `yaml:"development"`
	} `yaml:"logging"`

	// Metrics parameters
	Metrics struct {
		// Textfile, when set, receives a Prometheus textfile after each render
		Textfile string `yaml:"textfile"`
	} `yaml:"metrics"`

	// Algorithms lists extra definition files loaded next to the built-in catalog
	Algorithms []string `yaml:"algorithms"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default processing parameters
	cfg.Processing.Workers = runtime.NumCPU() // Use all available cores by default
	cfg.Processing.RowsPerTask = 16

	// Sentinel-2 L2A digital numbers
	cfg.Input.Quantification = 10000
	cfg.Input.Offset = 0

	// Set default output parameters
	cfg.Output.Dir = "output"
	cfg.Output.Format = "png"
	cfg.Output.IncludeHidden = false

	cfg.Logging.Level = "info"
	cfg.Logging.Development = false

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	// Relative definition files are resolved against the config file
	base := filepath.Dir(configPath)
	for i, p := range cfg.Algorithms {
		if !filepath.IsAbs(p) {
			cfg.Algorithms[i] = filepath.Join(base, p)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}

	return cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.Processing.Workers < 0 {
		return fmt.Errorf("processing.workers must not be negative, got %d", c.Processing.Workers)
	}
	if c.Processing.RowsPerTask < 0 {
		return fmt.Errorf("processing.rowsPerTask must not be negative, got %d", c.Processing.RowsPerTask)
	}
	if c.Input.Quantification == 0 {
		return fmt.Errorf("input.quantification must not be zero")
	}
	switch c.Output.Format {
	case "png", "jpeg", "jpg":
	default:
		return fmt.Errorf("output.format must be png or jpeg, got %q", c.Output.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	return nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
