// Package nifti reads and writes mask volumes as NIfTI-1 files. Frames are
// the slices of the volume along one axis.
package nifti

import (
	"context"
	"strings"

	"niimask/internal/logging"
	"niimask/internal/models"
	"niimask/pkg/codec"
	"niimask/pkg/visualization"
)

// Codec is the volume codec. Axis selects which slices become frames.
type Codec struct {
	Axis string
}

// New returns a codec slicing along axis; an empty axis means z.
func New(axis string) *Codec {
	if axis == "" {
		axis = "z"
	}
	return &Codec{Axis: axis}
}

// Match reports whether path names a NIfTI file.
func Match(path string) bool {
	p := strings.ToLower(path)
	return strings.HasSuffix(p, ".nii") || strings.HasSuffix(p, ".nii.gz")
}

// Load reads the volume at path as a sequence of slices.
func (c *Codec) Load(ctx context.Context, path string) (*models.Sequence, error) {
	vol, err := ReadVolume(path)
	if err != nil {
		return nil, &codec.DecodeError{Path: path, Err: err}
	}

	seq, err := visualization.NewViewer(vol).ToSequence(ctx, c.Axis)
	if err != nil {
		return nil, &codec.DecodeError{Path: path, Err: err}
	}
	seq.Source = models.Source{
		Path:      path,
		Kind:      models.SourceVolume,
		Axis:      c.Axis,
		VoxelSize: vol.VoxelSize,
	}

	logging.Logger().Debug("loaded volume", "path", path,
		"width", vol.Width, "height", vol.Height, "depth", vol.Depth, "axis", c.Axis)
	return seq, nil
}

// Save stacks the frames back into a volume along the axis they were loaded
// from and writes it to path.
func (c *Codec) Save(ctx context.Context, seq *models.Sequence, path string) error {
	axis := seq.Source.Axis
	if axis == "" {
		axis = c.Axis
	}

	vol, err := visualization.FromSequence(ctx, seq, axis)
	if err != nil {
		return &codec.EncodeError{Path: path, Err: err}
	}
	if err := SaveVolume(path, vol); err != nil {
		return &codec.EncodeError{Path: path, Err: err}
	}

	logging.Logger().Debug("saved volume", "path", path, "frames", seq.Len())
	return nil
}
