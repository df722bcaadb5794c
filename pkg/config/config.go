// Package config provides configuration loading and management for the
// cell detector. It handles loading configuration from YAML files and
// provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/singingmicelab/cellfinder/pkg/ballfilter"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Detection parameters for the spherical kernel filter
	Detection struct {
		// KernelXYSize is the kernel diameter in x and y, in voxels
		KernelXYSize int `yaml:"kernelXYSize"`

		// KernelZSize is the kernel diameter in z; it also sets how many
		// planes are held in the sliding window
		KernelZSize int `yaml:"kernelZSize"`

		// OverlapFraction is the fraction of the kernel mass that must sit
		// on high-intensity voxels for a centre to be marked
		OverlapFraction float64 `yaml:"overlapFraction"`

		// TileStepWidth and TileStepHeight set the tile granularity of the
		// inside-tissue mask
		TileStepWidth  int `yaml:"tileStepWidth"`
		TileStepHeight int `yaml:"tileStepHeight"`

		// ThresholdValue is the intensity at or above which a voxel counts
		// as high
		ThresholdValue uint32 `yaml:"thresholdValue"`

		// SomaCentreValue marks detected centres; must be at least
		// ThresholdValue
		SomaCentreValue uint32 `yaml:"somaCentreValue"`

		// TileBackgroundLevel is the mean tile intensity above which a tile
		// counts as inside the tissue; zero keeps every tile active
		TileBackgroundLevel float64 `yaml:"tileBackgroundLevel"`

		// StrictValidation enables per-append shape checking
		StrictValidation bool `yaml:"strictValidation"`
	} `yaml:"detection"`

	// Kernel construction parameters
	Kernel struct {
		// Oversample is the supersampling factor used to build the fuzzy
		// spherical kernel
		Oversample int `yaml:"oversample"`
	} `yaml:"kernel"`

	// Output parameters
	Output struct {
		// SaveMarkedPlanes determines whether marked middle planes are
		// written out as an image sequence
		SaveMarkedPlanes bool `yaml:"saveMarkedPlanes"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default detection parameters
	cfg.Detection.KernelXYSize = 6
	cfg.Detection.KernelZSize = 15
	cfg.Detection.OverlapFraction = 0.6
	cfg.Detection.TileStepWidth = 10
	cfg.Detection.TileStepHeight = 10
	cfg.Detection.ThresholdValue = 100
	cfg.Detection.SomaCentreValue = 65535
	cfg.Detection.TileBackgroundLevel = 0
	cfg.Detection.StrictValidation = true

	// Set default kernel parameters
	cfg.Kernel.Oversample = ballfilter.DefaultOversample

	// Set default output parameters
	cfg.Output.SaveMarkedPlanes = false
	cfg.Output.Verbose = true

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

	return cfg, nil
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

// DetectorParams converts the detection section into ball filter parameters
// for planes of the given dimensions. Range checks that the filter
// constructor would reject anyway are surfaced here with config field names.
func (c *Config) DetectorParams(planeWidth, planeHeight int) (*ballfilter.Params, error) {
	d := &c.Detection
	if d.OverlapFraction <= 0 || d.OverlapFraction > 1 {
		return nil, fmt.Errorf("config: overlapFraction must be in (0, 1], got %g", d.OverlapFraction)
	}
	if d.SomaCentreValue < d.ThresholdValue {
		return nil, fmt.Errorf("config: somaCentreValue %d must be at least thresholdValue %d",
			d.SomaCentreValue, d.ThresholdValue)
	}

	return &ballfilter.Params{
		PlaneWidth:       planeWidth,
		PlaneHeight:      planeHeight,
		KernelXYSize:     d.KernelXYSize,
		KernelZSize:      d.KernelZSize,
		OverlapFraction:  d.OverlapFraction,
		TileStepWidth:    d.TileStepWidth,
		TileStepHeight:   d.TileStepHeight,
		ThresholdValue:   d.ThresholdValue,
		SomaCentreValue:  d.SomaCentreValue,
		KernelOversample: c.Kernel.Oversample,
		StrictValidation: d.StrictValidation,
	}, nil
}
