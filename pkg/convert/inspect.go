package convert

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"niimask/internal/models"
	"niimask/pkg/codec/document"
	"niimask/pkg/codec/nifti"
)

// VolumeInfo summarizes a NIfTI file.
type VolumeInfo struct {
	Path      string
	Shape     [3]int
	Datatype  string
	VoxelSize models.VoxelSize

	// SizeMB is the size of the decoded float64 data in MiB
	SizeMB float64

	Min, Max     float64
	Mean, StdDev float64
	NonZero      int
}

// Inspect reads the volume at path and computes its intensity statistics.
func Inspect(path string) (*VolumeInfo, error) {
	hdr, err := nifti.ReadHeader(path)
	if err != nil {
		return nil, fmt.Errorf("reading header of %s: %w", path, err)
	}
	raw, err := nifti.ReadRaw(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(raw.Values) == 0 {
		return nil, fmt.Errorf("%s holds no voxels", path)
	}

	info := &VolumeInfo{
		Path:      path,
		Shape:     [3]int{raw.Width, raw.Height, raw.Depth},
		Datatype:  hdr.DatatypeName(),
		VoxelSize: raw.VoxelSize,
		SizeMB:    float64(len(raw.Values)*8) / (1024 * 1024),
		Min:       floats.Min(raw.Values),
		Max:       floats.Max(raw.Values),
	}
	info.Mean, info.StdDev = stat.PopMeanStdDev(raw.Values, nil)

	for _, v := range raw.Values {
		if v != 0 {
			info.NonZero++
		}
	}

	return info, nil
}

func (i *VolumeInfo) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "File: %s\n", i.Path)
	fmt.Fprintf(&b, "Image shape: (%d, %d, %d)\n", i.Shape[0], i.Shape[1], i.Shape[2])
	fmt.Fprintf(&b, "Data type: %s\n", i.Datatype)
	fmt.Fprintf(&b, "Voxel size: %g x %g x %g mm\n", i.VoxelSize.X, i.VoxelSize.Y, i.VoxelSize.Z)
	fmt.Fprintf(&b, "Total data size: %.2f MB\n", i.SizeMB)
	fmt.Fprintf(&b, "Intensity: min %g, max %g, mean %.4f, std %.4f\n", i.Min, i.Max, i.Mean, i.StdDev)
	fmt.Fprintf(&b, "Non-zero voxels: %d\n", i.NonZero)
	return b.String()
}

// DocumentInfo summarizes a PDF file.
type DocumentInfo struct {
	Path  string
	Pages int
}

// InspectDocument counts the pages of the PDF at path.
func InspectDocument(path string) (*DocumentInfo, error) {
	n, err := document.PageCount(path)
	if err != nil {
		return nil, fmt.Errorf("counting pages of %s: %w", path, err)
	}
	return &DocumentInfo{Path: path, Pages: n}, nil
}

func (i *DocumentInfo) String() string {
	return fmt.Sprintf("File: %s\nPages: %d\n", i.Path, i.Pages)
}
