// Package labels keeps the explicit drawing palette and the colour ranges used
// to turn annotated pages back into masks.
package labels

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"niimask/internal/models"
)

// A Label ties a mask ID (the value written into volume slices) to the
// human-visible color used on document pages (RGB hex, e.g. #66cc00).
type Label struct {
	Name      string `yaml:"-"`
	ID        uint8  `yaml:"id"`
	Color     string `yaml:"color"`
	SortOrder int    `yaml:"sortOrder,omitempty"`
}

// LabelMap ([label name]Label) is the palette offered to the drawing tools.
type LabelMap map[string]Label

// Sorted returns the labels ordered by SortOrder, then ID.
func (l LabelMap) Sorted() []Label {
	out := make([]Label, 0, len(l))

	for k, v := range l {
		v.Name = k
		out = append(out, v)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		if out[i].ID != out[j].ID {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})

	return out
}

// Valid reports whether the map is bijective on IDs and every color parses.
func (l LabelMap) Valid() error {
	inverse := make(map[uint8]string)
	for k, v := range l {
		if other, exists := inverse[v.ID]; exists {
			return fmt.Errorf("labels %q and %q share ID %d", other, k, v.ID)
		}
		inverse[v.ID] = k

		if _, err := ParseHex(v.Color); err != nil {
			return fmt.Errorf("label %q: %w", k, err)
		}
	}

	return nil
}

// Value returns the pixel value a label paints into a frame with the given
// channel count: the ID for grayscale masks, the color for RGB pages.
func (l Label) Value(channels int) models.Value {
	if channels == 1 {
		return models.Gray(l.ID)
	}
	v, err := ParseHex(l.Color)
	if err != nil {
		return models.Gray(l.ID)
	}
	return v
}

// Resolve turns a color into a pixel value. color is either a palette label
// name, a #rrggbb hex code, or a decimal intensity.
func (l LabelMap) Resolve(color string, channels int) (models.Value, error) {
	color = strings.TrimSpace(color)
	if lab, exists := l[color]; exists {
		return lab.Value(channels), nil
	}

	if strings.HasPrefix(color, "#") {
		v, err := ParseHex(color)
		if err != nil {
			return v, err
		}
		if channels == 1 {
			// Grayscale frames get the luminance of the requested color
			y := (19595*uint32(v[0]) + 38470*uint32(v[1]) + 7471*uint32(v[2]) + 1<<15) >> 16
			return models.Gray(uint8(y)), nil
		}
		return v, nil
	}

	n, err := strconv.ParseUint(color, 10, 8)
	if err != nil {
		return models.Value{}, fmt.Errorf("color %q is neither a label, a hex code nor an intensity", color)
	}
	return models.Gray(uint8(n)), nil
}

// ParseHex parses #rrggbb (the leading # is optional).
func ParseHex(colorCode string) (models.Value, error) {
	var v models.Value
	colorCode = strings.ReplaceAll(colorCode, "#", "")
	if len(colorCode) != 6 {
		return v, fmt.Errorf("color code %q is not 6 hex digits", colorCode)
	}

	for i := 0; i < 3; i++ {
		c, err := strconv.ParseUint(colorCode[2*i:2*i+2], 16, 8)
		if err != nil {
			return v, err
		}
		v[i] = uint8(c)
	}

	return v, nil
}

// Hex formats a value as #rrggbb.
func Hex(v models.Value) string {
	return fmt.Sprintf("#%02x%02x%02x", v[0], v[1], v[2])
}
