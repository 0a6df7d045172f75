package labels

import (
	"fmt"

	"niimask/internal/models"
)

// ColorRange selects RGB pixels whose channels all fall inside [Lower, Upper]
// (bounds inclusive). Matching pixels become Value in the extracted mask.
type ColorRange struct {
	Name  string   `yaml:"name"`
	Lower [3]uint8 `yaml:"lower"`
	Upper [3]uint8 `yaml:"upper"`
	Value uint8    `yaml:"value"`
}

// Contains reports whether v lies inside the range.
func (r ColorRange) Contains(v models.Value) bool {
	for i := 0; i < 3; i++ {
		if v[i] < r.Lower[i] || v[i] > r.Upper[i] {
			return false
		}
	}
	return true
}

// DefaultRanges are the blue, red, green and yellow marker colors used when
// annotating slide decks.
func DefaultRanges() []ColorRange {
	return []ColorRange{
		{Name: "blue", Lower: [3]uint8{40, 180, 240}, Upper: [3]uint8{70, 255, 255}, Value: 1},
		{Name: "red", Lower: [3]uint8{200, 0, 0}, Upper: [3]uint8{255, 100, 100}, Value: 1},
		{Name: "green", Lower: [3]uint8{80, 180, 0}, Upper: [3]uint8{120, 255, 100}, Value: 1},
		{Name: "yellow", Lower: [3]uint8{200, 180, 0}, Upper: [3]uint8{255, 230, 100}, Value: 1},
	}
}

// ExtractMask builds a grayscale mask from an RGB frame. The first range that
// contains a pixel decides its mask value; pixels in no range are 0.
func ExtractMask(src *models.Frame, ranges []ColorRange) (*models.Frame, error) {
	if src.Channels != 3 {
		return nil, fmt.Errorf("mask extraction needs an RGB frame, got %d channel(s)", src.Channels)
	}

	mask := models.NewFrame(src.Width, src.Height, 1)
	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			v := src.At(x, y)
			for _, r := range ranges {
				if r.Contains(v) {
					val := r.Value
					if val == 0 {
						val = 1
					}
					mask.Pix[y*mask.Width+x] = val
					break
				}
			}
		}
	}

	return mask, nil
}

// ExtractMasks applies ExtractMask to every frame of a sequence.
func ExtractMasks(seq *models.Sequence, ranges []ColorRange) (*models.Sequence, error) {
	out := &models.Sequence{
		Frames: make([]*models.Frame, 0, seq.Len()),
		Source: seq.Source,
	}

	for i, f := range seq.Frames {
		m, err := ExtractMask(f, ranges)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		out.Frames = append(out.Frames, m)
	}

	return out, nil
}
