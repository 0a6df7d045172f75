package models

import (
	"fmt"
)

// SourceKind identifies the external format a sequence was loaded from.
type SourceKind int

const (
	SourceUnknown SourceKind = iota
	SourceVolume
	SourceDocument
	SourceImageDir
)

func (k SourceKind) String() string {
	switch k {
	case SourceVolume:
		return "volume"
	case SourceDocument:
		return "document"
	case SourceImageDir:
		return "imagedir"
	default:
		return "unknown"
	}
}

// VoxelSize is the physical size of a voxel in mm.
type VoxelSize struct {
	X, Y, Z float64
}

// Source describes where a sequence came from.
type Source struct {
	// Path is the file or directory the sequence was read from
	Path string

	// Kind is the format of Path
	Kind SourceKind

	// Axis is the volume axis the frames were taken along ("x", "y" or "z")
	Axis string

	// VoxelSize is carried from volume headers so saves keep the spacing
	VoxelSize VoxelSize
}

// Sequence is the ordered list of frames loaded from one source file.
type Sequence struct {
	Frames []*Frame
	Source Source
}

// Len returns the number of frames.
func (s *Sequence) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Frames)
}

// Validate checks that the sequence is non-empty and that every frame shares
// the first frame's width, height and channel depth.
func (s *Sequence) Validate() error {
	if s.Len() == 0 {
		return fmt.Errorf("sequence has no frames")
	}

	first := s.Frames[0]
	if first == nil {
		return fmt.Errorf("frame 0 is nil")
	}
	if first.Channels != 1 && first.Channels != 3 {
		return fmt.Errorf("frame 0 has unsupported channel count %d", first.Channels)
	}
	if len(first.Pix) != first.Width*first.Height*first.Channels {
		return fmt.Errorf("frame 0 buffer holds %d bytes, expected %d", len(first.Pix), first.Width*first.Height*first.Channels)
	}

	for i, f := range s.Frames[1:] {
		if !first.SameShape(f) {
			shape := "nil"
			if f != nil {
				shape = f.Shape()
			}
			return fmt.Errorf("frame %d is %s, expected %s", i+1, shape, first.Shape())
		}
		if len(f.Pix) != len(first.Pix) {
			return fmt.Errorf("frame %d buffer holds %d bytes, expected %d", i+1, len(f.Pix), len(first.Pix))
		}
	}

	return nil
}

// Volume is a dense 3D grid of quantized voxels.
type Volume struct {
	// Data holds voxels in x-fastest order: Data[z*Width*Height + y*Width + x]
	Data []uint8

	// Width, Height and Depth are the dimensions in voxels
	Width, Height, Depth int

	// VoxelSize is the physical size of each voxel in mm
	VoxelSize VoxelSize
}

// NewVolume allocates a zeroed volume.
func NewVolume(width, height, depth int) *Volume {
	return &Volume{
		Data:      make([]uint8, width*height*depth),
		Width:     width,
		Height:    height,
		Depth:     depth,
		VoxelSize: VoxelSize{X: 1, Y: 1, Z: 1},
	}
}

// Index returns the offset of voxel (x, y, z) in Data.
func (v *Volume) Index(x, y, z int) int {
	return z*v.Width*v.Height + y*v.Width + x
}
