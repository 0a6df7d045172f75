package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"niimask/internal/models"
)

// TestDefaultConfigIsValid verifies the defaults pass validation
func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Expected default config to be valid, got %v", err)
	}

	if cfg.Conversion.TargetSize != 540 {
		t.Errorf("Expected target size 540, got %d", cfg.Conversion.TargetSize)
	}
	if cfg.Document.DPI != 72 {
		t.Errorf("Expected 72 dpi, got %g", cfg.Document.DPI)
	}
	if cfg.Editor.UndoLimit != 0 {
		t.Errorf("Expected unbounded undo by default, got %d", cfg.Editor.UndoLimit)
	}
}

// TestDefaultToolColors verifies the per-variant defaults resolve to the
// expected pixel values
func TestDefaultToolColors(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name     string
		color    string
		channels int
		want     models.Value
	}{
		{"volume pen", cfg.Editor.Volume.Pen.Color, 1, models.Gray(1)},
		{"volume eraser", cfg.Editor.Volume.Eraser.Color, 1, models.Gray(0)},
		{"document pen", cfg.Editor.Document.Pen.Color, 3, models.RGB(102, 204, 0)},
		{"document eraser", cfg.Editor.Document.Eraser.Color, 3, models.RGB(255, 255, 255)},
		{"document fill", cfg.Editor.Document.Fill.Color, 3, models.RGB(102, 204, 0)},
	}

	for _, tt := range tests {
		got, err := cfg.Palette.Resolve(tt.color, tt.channels)
		if err != nil {
			t.Errorf("%s: unexpected error %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, got)
		}
	}

	if cfg.Editor.Volume.Pen.Width != 2 || cfg.Editor.Document.Pen.Width != 5 || cfg.Editor.Document.Eraser.Width != 10 {
		t.Error("Unexpected default brush widths")
	}
}

// TestLoadConfigMissingFile verifies that a missing file yields the defaults
func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("Expected defaults (-want +got):\n%s", diff)
	}
}

// TestSaveAndLoadConfig verifies a saved config loads back unchanged
func TestSaveAndLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "niimask.yaml")

	cfg := DefaultConfig()
	cfg.Editor.UndoLimit = 25
	cfg.Editor.AutoCommitFill = true
	cfg.Volume.Axis = "y"

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if diff := cmp.Diff(cfg, loaded); diff != "" {
		t.Errorf("Config changed across save/load (-want +got):\n%s", diff)
	}
}

// TestLoadConfigPartialOverride verifies keys absent from the file keep their
// defaults
func TestLoadConfigPartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	data := "document:\n  dpi: 150\nvolume:\n  axis: x\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Document.DPI != 150 {
		t.Errorf("Expected dpi 150, got %g", cfg.Document.DPI)
	}
	if cfg.Volume.Axis != "x" {
		t.Errorf("Expected axis x, got %s", cfg.Volume.Axis)
	}
	if cfg.Conversion.TargetSize != 540 {
		t.Errorf("Expected default target size, got %d", cfg.Conversion.TargetSize)
	}
}

// TestValidateRejects verifies invalid settings are reported
func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad axis", func(c *Config) { c.Volume.Axis = "w" }, "volume.axis"},
		{"negative undo", func(c *Config) { c.Editor.UndoLimit = -1 }, "undoLimit"},
		{"zero dpi", func(c *Config) { c.Document.DPI = 0 }, "dpi"},
		{"zero width", func(c *Config) { c.Editor.Volume.Pen.Width = 0 }, "editor.volume.pen"},
		{"unknown label", func(c *Config) { c.Editor.Document.Fill.Color = "lesion" }, "editor.document.fill"},
		{"slide size", func(c *Config) { c.Conversion.SlideHeight = 0 }, "slide size"},
		{"inverted range", func(c *Config) { c.Conversion.Ranges[0].Lower[0] = 255 }, "colour range"},
	}

	for _, tt := range tests {
		cfg := DefaultConfig()
		tt.mutate(cfg)
		err := cfg.Validate()
		if err == nil {
			t.Errorf("%s: expected error", tt.name)
			continue
		}
		if !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%s: expected error mentioning %q, got %v", tt.name, tt.want, err)
		}
	}
}

// TestVariant verifies document sources get the document tool defaults
func TestVariant(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Variant(models.SourceDocument).Pen.Width != 5 {
		t.Error("Expected document defaults for document sources")
	}
	if cfg.Variant(models.SourceVolume).Pen.Width != 2 {
		t.Error("Expected volume defaults for volume sources")
	}
	if cfg.Variant(models.SourceImageDir).Pen.Width != 2 {
		t.Error("Expected volume defaults for image directories")
	}
}
