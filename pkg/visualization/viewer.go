// Package visualization re-slices mask volumes along any axis and converts
// between volumes and the frame sequences the editor works on.
package visualization

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"niimask/internal/models"
)

// Viewer gives axis-aligned access to a volume.
type Viewer struct {
	// vol holds the voxel grid being viewed
	vol *models.Volume
}

// NewViewer creates a viewer over vol. The volume is shared, not copied.
func NewViewer(vol *models.Volume) *Viewer {
	return &Viewer{vol: vol}
}

// Volume returns the underlying volume.
func (v *Viewer) Volume() *models.Volume {
	return v.vol
}

// Count returns the number of slices along axis.
func (v *Viewer) Count(axis string) (int, error) {
	switch axis {
	case "x", "X":
		return v.vol.Width, nil
	case "y", "Y":
		return v.vol.Height, nil
	case "z", "Z":
		return v.vol.Depth, nil
	}
	return 0, fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
}

// FrameSize returns the width and height of a slice taken along axis.
func (v *Viewer) FrameSize(axis string) (int, int, error) {
	switch axis {
	case "x", "X":
		// YZ plane, z across
		return v.vol.Depth, v.vol.Height, nil
	case "y", "Y":
		// XZ plane, z down
		return v.vol.Width, v.vol.Depth, nil
	case "z", "Z":
		return v.vol.Width, v.vol.Height, nil
	}
	return 0, 0, fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
}

// voxel maps frame coordinates (fx, fy) on slice position along axis to a
// voxel offset.
func (v *Viewer) voxel(axis string, position, fx, fy int) int {
	switch axis {
	case "x", "X":
		return v.vol.Index(position, fy, fx)
	case "y", "Y":
		return v.vol.Index(fx, position, fy)
	default:
		return v.vol.Index(fx, fy, position)
	}
}

func (v *Viewer) checkPosition(axis string, position int) error {
	n, err := v.Count(axis)
	if err != nil {
		return err
	}
	if position < 0 {
		return fmt.Errorf("position must be non-negative")
	}
	if position >= n {
		return fmt.Errorf("position %d exceeds %s extent %d", position, axis, n)
	}
	return nil
}

// ExtractFrame copies one slice out of the volume as a grayscale frame.
func (v *Viewer) ExtractFrame(axis string, position int) (*models.Frame, error) {
	if err := v.checkPosition(axis, position); err != nil {
		return nil, err
	}

	w, h, _ := v.FrameSize(axis)
	f := models.NewFrame(w, h, 1)
	for fy := 0; fy < h; fy++ {
		for fx := 0; fx < w; fx++ {
			f.Pix[fy*w+fx] = v.vol.Data[v.voxel(axis, position, fx, fy)]
		}
	}

	return f, nil
}

// InsertFrame writes a grayscale frame back into the volume at position.
func (v *Viewer) InsertFrame(axis string, position int, f *models.Frame) error {
	if err := v.checkPosition(axis, position); err != nil {
		return err
	}

	w, h, _ := v.FrameSize(axis)
	if f.Width != w || f.Height != h || f.Channels != 1 {
		return fmt.Errorf("frame is %s, expected %dx%dx1 for axis %s", f.Shape(), w, h, axis)
	}

	for fy := 0; fy < h; fy++ {
		for fx := 0; fx < w; fx++ {
			v.vol.Data[v.voxel(axis, position, fx, fy)] = f.Pix[fy*w+fx]
		}
	}

	return nil
}

// ToSequence slices the whole volume along axis. Frame i is slice i.
func (v *Viewer) ToSequence(ctx context.Context, axis string) (*models.Sequence, error) {
	n, err := v.Count(axis)
	if err != nil {
		return nil, err
	}

	seq := &models.Sequence{
		Frames: make([]*models.Frame, 0, n),
		Source: models.Source{Axis: axis, VoxelSize: v.vol.VoxelSize},
	}
	for pos := 0; pos < n; pos++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f, err := v.ExtractFrame(axis, pos)
		if err != nil {
			return nil, err
		}
		seq.Frames = append(seq.Frames, f)
	}

	return seq, nil
}

// FromSequence stacks grayscale frames back into a volume along axis. The
// voxel size is taken from the sequence source.
func FromSequence(ctx context.Context, seq *models.Sequence, axis string) (*models.Volume, error) {
	if err := seq.Validate(); err != nil {
		return nil, err
	}
	first := seq.Frames[0]
	if first.Channels != 1 {
		return nil, fmt.Errorf("volumes hold grayscale frames, got %d channels", first.Channels)
	}

	var vol *models.Volume
	n := seq.Len()
	switch axis {
	case "x", "X":
		vol = models.NewVolume(n, first.Height, first.Width)
	case "y", "Y":
		vol = models.NewVolume(first.Width, n, first.Height)
	case "z", "Z":
		vol = models.NewVolume(first.Width, first.Height, n)
	default:
		return nil, fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}
	if vs := seq.Source.VoxelSize; vs.X > 0 && vs.Y > 0 && vs.Z > 0 {
		vol.VoxelSize = vs
	}

	viewer := NewViewer(vol)
	for pos, f := range seq.Frames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := viewer.InsertFrame(axis, pos, f); err != nil {
			return nil, fmt.Errorf("frame %d: %w", pos, err)
		}
	}

	return vol, nil
}

// ExtractSlice extracts a 2D slice from the volume along the specified axis
// as a grayscale image.
func (v *Viewer) ExtractSlice(axis string, position int) (image.Image, error) {
	f, err := v.ExtractFrame(axis, position)
	if err != nil {
		return nil, err
	}
	return f.Image(), nil
}

// SaveSlice saves an extracted slice. The format follows the file extension.
func (v *Viewer) SaveSlice(img image.Image, filename string) error {
	return imaging.Save(img, filename)
}

// SaveSliceSequence extracts and saves every slice along the specified axis
// as slice_<axis>_NNN.png
func (v *Viewer) SaveSliceSequence(axis string, outputDir string) error {
	maxPos, err := v.Count(axis)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	for pos := 0; pos < maxPos; pos++ {
		img, err := v.ExtractSlice(axis, pos)
		if err != nil {
			return err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("slice_%s_%03d.png", axis, pos))
		if err := v.SaveSlice(img, filename); err != nil {
			return err
		}
	}

	return nil
}
