// Package config provides configuration loading and management for seismicview.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"seismicview/internal/models"
	"seismicview/pkg/camera"
)

// AutoLimits is the color limits token meaning "derive from the volume".
const AutoLimits = "auto"

// VolumeConfig describes one overlaid volume.
type VolumeConfig struct {
	// Path is a raw little-endian float32 file; empty means a synthetic volume
	Path string `yaml:"path"`

	Colormap string `yaml:"colormap"`

	// Clims is either "auto" or a two element [min, max] list
	Clims yaml.Node `yaml:"clims,omitempty"`
}

// Limits decodes Clims. A nil result means auto limits.
func (v VolumeConfig) Limits() (*models.ColorLimits, error) {
	if v.Clims.Kind == 0 {
		return nil, nil
	}
	if v.Clims.Kind == yaml.ScalarNode {
		if v.Clims.Value == AutoLimits || v.Clims.Value == "" || v.Clims.Tag == "!!null" {
			return nil, nil
		}
		return nil, fmt.Errorf("clims must be %q or [min, max], got %q", AutoLimits, v.Clims.Value)
	}
	var pair []float64
	if err := v.Clims.Decode(&pair); err != nil {
		return nil, fmt.Errorf("error parsing clims: %w", err)
	}
	if len(pair) != 2 {
		return nil, fmt.Errorf("clims needs exactly two values, got %d", len(pair))
	}
	return &models.ColorLimits{Min: pair[0], Max: pair[1]}, nil
}

// SliceConfig requests slice planes on one axis.
type SliceConfig struct {
	// Axis is x, y or z
	Axis string `yaml:"axis"`

	// Positions are given in external coordinates
	Positions []float64 `yaml:"positions"`
}

// Config represents the application configuration loaded from YAML
type Config struct {
	// Volume shape and sources
	Data struct {
		// Shape is (Nx, Ny, Nz)
		Shape [3]int `yaml:"shape"`

		// ReverseConvention counts Y and Z positions down from the far end
		ReverseConvention bool `yaml:"reverseConvention"`

		Volumes []VolumeConfig `yaml:"volumes,omitempty"`
	} `yaml:"data"`

	Slices []SliceConfig `yaml:"slices"`

	// Camera defaults restored by a view reset
	Camera struct {
		camera.State `yaml:",inline"`

		// ZoomFactor divides the scale factor after the initial range is set
		ZoomFactor float64 `yaml:"zoomFactor"`
	} `yaml:"camera"`

	Inertia camera.Config `yaml:"inertia"`

	// Grid label spacing per axis
	Grid struct {
		SpacingX float64 `yaml:"spacingX"`
		SpacingY float64 `yaml:"spacingY"`
		SpacingZ float64 `yaml:"spacingZ"`
	} `yaml:"grid"`

	// Canvas size in pixels
	Canvas struct {
		Width  int    `yaml:"width"`
		Height int    `yaml:"height"`
		Title  string `yaml:"title"`
	} `yaml:"canvas"`

	// Output parameters
	Output struct {
		// SlicesDir is where exported slices are written
		SlicesDir string `yaml:"slicesDir"`

		// LogLevel is a logrus level name
		LogLevel string `yaml:"logLevel"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Data.Shape = [3]int{25, 50, 80}
	cfg.Data.ReverseConvention = false

	cfg.Slices = []SliceConfig{
		{Axis: "x", Positions: []float64{12}},
		{Axis: "y", Positions: []float64{25}},
		{Axis: "z", Positions: []float64{40}},
	}

	cfg.Camera.Azimuth = 50
	cfg.Camera.Elevation = 50
	cfg.Camera.FOV = 30
	cfg.Camera.ScaleFactor = 1
	cfg.Camera.Distance = 500
	cfg.Camera.ZoomFactor = 1

	cfg.Inertia = camera.DefaultConfig()

	cfg.Grid.SpacingX = 20
	cfg.Grid.SpacingY = 20
	cfg.Grid.SpacingZ = 40

	cfg.Canvas.Width = 800
	cfg.Canvas.Height = 600
	cfg.Canvas.Title = "3D Viewer"

	cfg.Output.SlicesDir = "slices"
	cfg.Output.LogLevel = "info"

	return cfg
}

// Shape returns the configured volume shape.
func (c *Config) Shape() models.Shape {
	return models.Shape(c.Data.Shape)
}

// CameraDefaults returns the camera state a reset restores.
func (c *Config) CameraDefaults() camera.State {
	s := c.Camera.State
	if c.Camera.ZoomFactor > 0 {
		s.ScaleFactor /= c.Camera.ZoomFactor
	}
	return s
}

// Validate checks the configuration before any node is built.
func (c *Config) Validate() error {
	var errs []error
	for _, n := range c.Data.Shape {
		if n < 1 {
			errs = append(errs, fmt.Errorf("data.shape %v: every axis needs at least one sample", c.Data.Shape))
			break
		}
	}
	for i, s := range c.Slices {
		if _, err := models.ParseAxis(s.Axis); err != nil {
			errs = append(errs, fmt.Errorf("slices[%d]: %w", i, err))
		}
	}
	for i, v := range c.Data.Volumes {
		if _, err := v.Limits(); err != nil {
			errs = append(errs, fmt.Errorf("data.volumes[%d]: %w", i, err))
		}
	}
	if d := c.Inertia.DecayFactor; d <= 0 || d >= 1 {
		errs = append(errs, fmt.Errorf("inertia.decayFactor must be in (0, 1), got %v", d))
	}
	if c.Inertia.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("inertia.tickInterval must be positive, got %v", c.Inertia.TickInterval))
	}
	if c.Grid.SpacingX <= 0 || c.Grid.SpacingY <= 0 || c.Grid.SpacingZ <= 0 {
		errs = append(errs, fmt.Errorf("grid spacing must be positive"))
	}
	return errors.Join(errs...)
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

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
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

