// Package config provides configuration loading and management for niimask.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"niimask/internal/models"
	"niimask/pkg/labels"
)

// ToolSettings are the initial settings of one drawing tool
type ToolSettings struct {
	// Color is a palette label name, a #rrggbb code or a decimal intensity
	Color string `yaml:"color"`

	// Width is the square brush size in pixels (ignored by the fill tool)
	Width int `yaml:"width,omitempty"`
}

// VariantSettings groups the tool defaults of one editor variant
type VariantSettings struct {
	Pen    ToolSettings `yaml:"pen"`
	Eraser ToolSettings `yaml:"eraser"`
	Fill   ToolSettings `yaml:"fill"`
}

// Config represents the application configuration loaded from YAML
type Config struct {
	// Editor parameters
	Editor struct {
		// Volume holds the tool defaults used when editing mask volumes
		Volume VariantSettings `yaml:"volume"`

		// Document holds the tool defaults used when editing document pages
		Document VariantSettings `yaml:"document"`

		// UndoLimit caps the number of undo snapshots kept (0 = unbounded)
		UndoLimit int `yaml:"undoLimit"`

		// AutoCommitFill commits a fill polygon on pointer-up
		AutoCommitFill bool `yaml:"autoCommitFill"`
	} `yaml:"editor"`

	// Palette is the explicit list of labels offered to the drawing tools
	Palette labels.LabelMap `yaml:"palette"`

	// Document codec parameters
	Document struct {
		// DPI is the resolution pages are rendered at
		DPI float64 `yaml:"dpi"`
	} `yaml:"document"`

	// Conversion parameters
	Conversion struct {
		// TargetSize is the edge length of the square mask slices
		TargetSize int `yaml:"targetSize"`

		// Rotations is the number of clockwise quarter turns applied to
		// extracted masks
		Rotations int `yaml:"rotations"`

		// Ranges are the marker colors recognized on annotated pages
		Ranges []labels.ColorRange `yaml:"ranges"`

		// SlideWidth and SlideHeight are the slide deck page size in pixels
		SlideWidth  int `yaml:"slideWidth"`
		SlideHeight int `yaml:"slideHeight"`
	} `yaml:"conversion"`

	// Volume parameters
	Volume struct {
		// Axis is the axis frames are taken along: x, y or z
		Axis string `yaml:"axis"`
	} `yaml:"volume"`

	// Output parameters
	Output struct {
		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Volume masks: label 1 on background 0
	cfg.Editor.Volume = VariantSettings{
		Pen:    ToolSettings{Color: "mask", Width: 2},
		Eraser: ToolSettings{Color: "background", Width: 2},
		Fill:   ToolSettings{Color: "mask"},
	}

	// Document pages: green marker on white paper, fill in the marker color
	cfg.Editor.Document = VariantSettings{
		Pen:    ToolSettings{Color: "mask", Width: 5},
		Eraser: ToolSettings{Color: "background", Width: 10},
		Fill:   ToolSettings{Color: "mask"},
	}
	cfg.Editor.UndoLimit = 0
	cfg.Editor.AutoCommitFill = false

	cfg.Palette = labels.LabelMap{
		"background": {ID: 0, Color: "#ffffff", SortOrder: 0},
		"mask":       {ID: 1, Color: "#66cc00", SortOrder: 1},
	}

	cfg.Document.DPI = 72

	cfg.Conversion.TargetSize = 540
	cfg.Conversion.Rotations = 1
	cfg.Conversion.Ranges = labels.DefaultRanges()
	cfg.Conversion.SlideWidth = 960
	cfg.Conversion.SlideHeight = 720

	cfg.Volume.Axis = "z"

	cfg.Output.Verbose = false

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

// Validate checks value ranges and that every tool color resolves against
// the palette.
func (c *Config) Validate() error {
	if err := c.Palette.Valid(); err != nil {
		return fmt.Errorf("palette: %w", err)
	}

	if err := c.validateVariant("volume", c.Editor.Volume, 1); err != nil {
		return err
	}
	if err := c.validateVariant("document", c.Editor.Document, 3); err != nil {
		return err
	}

	if c.Editor.UndoLimit < 0 {
		return fmt.Errorf("editor.undoLimit must be >= 0, got %d", c.Editor.UndoLimit)
	}
	if c.Document.DPI <= 0 {
		return fmt.Errorf("document.dpi must be positive, got %g", c.Document.DPI)
	}
	if c.Conversion.TargetSize <= 0 {
		return fmt.Errorf("conversion.targetSize must be positive, got %d", c.Conversion.TargetSize)
	}
	if c.Conversion.SlideWidth <= 0 || c.Conversion.SlideHeight <= 0 {
		return fmt.Errorf("conversion slide size must be positive, got %dx%d", c.Conversion.SlideWidth, c.Conversion.SlideHeight)
	}
	for _, r := range c.Conversion.Ranges {
		for i := 0; i < 3; i++ {
			if r.Lower[i] > r.Upper[i] {
				return fmt.Errorf("colour range %q has lower bound above upper bound", r.Name)
			}
		}
	}

	switch c.Volume.Axis {
	case "x", "y", "z":
	default:
		return fmt.Errorf("volume.axis must be x, y or z, got %q", c.Volume.Axis)
	}

	return nil
}

func (c *Config) validateVariant(name string, v VariantSettings, channels int) error {
	tools := map[string]ToolSettings{"pen": v.Pen, "eraser": v.Eraser, "fill": v.Fill}
	for tool, s := range tools {
		if _, err := c.Palette.Resolve(s.Color, channels); err != nil {
			return fmt.Errorf("editor.%s.%s: %w", name, tool, err)
		}
		if tool != "fill" && s.Width < 1 {
			return fmt.Errorf("editor.%s.%s: width must be >= 1, got %d", name, tool, s.Width)
		}
	}
	return nil
}

// Variant returns the tool defaults for frames loaded from the given source.
func (c *Config) Variant(kind models.SourceKind) VariantSettings {
	if kind == models.SourceDocument {
		return c.Editor.Document
	}
	return c.Editor.Volume
}
