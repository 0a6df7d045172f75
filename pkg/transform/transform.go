// Package transform reshapes frames: central crop, quarter-turn rotation and
// nearest-neighbour resize. Label values are never blended.
package transform

import (
	"image"

	"github.com/disintegration/imaging"

	"niimask/internal/models"
)

func toFrame(img image.Image, channels int) *models.Frame {
	return models.FrameFromImage(img, channels)
}

// CropCentre trims the longer side of f to size, keeping the centre. The
// shorter side is untouched; square frames and sides already within size
// are returned as copies.
func CropCentre(f *models.Frame, size int) *models.Frame {
	w, h := f.Width, f.Height
	rect := image.Rect(0, 0, w, h)

	switch {
	case h > w && h > size:
		start := (h - size) / 2
		rect = image.Rect(0, start, w, start+size)
	case w > h && w > size:
		start := (w - size) / 2
		rect = image.Rect(start, 0, start+size, h)
	default:
		return f.Clone()
	}

	return toFrame(imaging.Crop(f.Image(), rect), f.Channels)
}

// Resize scales f to width x height with nearest-neighbour sampling.
func Resize(f *models.Frame, width, height int) *models.Frame {
	if f.Width == width && f.Height == height {
		return f.Clone()
	}
	return toFrame(imaging.Resize(f.Image(), width, height, imaging.NearestNeighbor), f.Channels)
}

// RotateQuarter rotates f clockwise by turns quarter turns. Negative turns
// rotate counter-clockwise.
func RotateQuarter(f *models.Frame, turns int) *models.Frame {
	switch ((turns % 4) + 4) % 4 {
	case 1:
		return toFrame(imaging.Rotate270(f.Image()), f.Channels)
	case 2:
		return toFrame(imaging.Rotate180(f.Image()), f.Channels)
	case 3:
		return toFrame(imaging.Rotate90(f.Image()), f.Channels)
	}
	return f.Clone()
}

// Square crops f centrally to size along its longer side, resizes what is
// left to size x size, then rotates it.
func Square(f *models.Frame, size, turns int) *models.Frame {
	out := CropCentre(f, size)
	if out.Width != size || out.Height != size {
		out = Resize(out, size, size)
	}
	return RotateQuarter(out, turns)
}
