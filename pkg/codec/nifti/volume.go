package nifti

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/carbocation/pfx"
	"github.com/klauspost/compress/gzip"

	"niimask/internal/models"
)

// Raw is a decoded image before quantization.
type Raw struct {
	Width, Height, Depth int
	VoxelSize            models.VoxelSize

	// Values holds the first time point in x-fastest order
	Values []float64
}

// ReadRaw decodes the first volume of a .nii or .nii.gz file.
func ReadRaw(path string) (*Raw, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, pfx.Err(err)
	}

	img, err := safelyLoadImage(path)
	if err != nil {
		return nil, fmt.Errorf("loading image: %w", err)
	}
	hdr, err := safelyLoadHeader(path)
	if err != nil {
		return nil, fmt.Errorf("loading header: %w", err)
	}

	dims := img.GetDims()
	nx, ny, nz := int(dims[0]), int(dims[1]), int(dims[2])
	if nx < 1 || ny < 1 {
		return nil, fmt.Errorf("image has no in-plane extent (%dx%d)", nx, ny)
	}
	if nz < 1 {
		nz = 1
	}

	values, err := safelyReadValues(&img, nx, ny, nz)
	if err != nil {
		return nil, err
	}

	raw := &Raw{
		Width:  nx,
		Height: ny,
		Depth:  nz,
		VoxelSize: models.VoxelSize{
			X: spacing(float64(hdr.Pixdim[1])),
			Y: spacing(float64(hdr.Pixdim[2])),
			Z: spacing(float64(hdr.Pixdim[3])),
		},
		Values: values,
	}

	return raw, nil
}

func spacing(v float64) float64 {
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 1
	}
	return v
}

// Quantize rounds values to the nearest integer and clamps them to 0..255.
func Quantize(values []float64) []uint8 {
	out := make([]uint8, len(values))
	for i, v := range values {
		switch {
		case math.IsNaN(v) || v <= 0:
			out[i] = 0
		case v >= 255:
			out[i] = 255
		default:
			out[i] = uint8(math.Round(v))
		}
	}
	return out
}

// ReadVolume loads a mask volume. Voxel values are quantized to uint8.
func ReadVolume(path string) (*models.Volume, error) {
	raw, err := ReadRaw(path)
	if err != nil {
		return nil, err
	}

	return &models.Volume{
		Data:      Quantize(raw.Values),
		Width:     raw.Width,
		Height:    raw.Height,
		Depth:     raw.Depth,
		VoxelSize: raw.VoxelSize,
	}, nil
}

// WriteVolume encodes vol as a single-file NIfTI-1 image with uint8 voxels.
func WriteVolume(w io.Writer, vol *models.Volume) error {
	for _, d := range []int{vol.Width, vol.Height, vol.Depth} {
		if d < 1 || d > math.MaxInt16 {
			return fmt.Errorf("volume dimension %d out of range 1..%d", d, math.MaxInt16)
		}
	}
	if len(vol.Data) != vol.Width*vol.Height*vol.Depth {
		return fmt.Errorf("volume holds %d voxels, expected %d", len(vol.Data), vol.Width*vol.Height*vol.Depth)
	}

	vs := vol.VoxelSize
	h := newUint8Header(vol.Width, vol.Height, vol.Depth,
		float32(spacing(vs.X)), float32(spacing(vs.Y)), float32(spacing(vs.Z)))

	if err := binary.Write(w, binary.LittleEndian, &h); err != nil {
		return err
	}

	// Empty extension block up to vox_offset
	if _, err := w.Write(make([]byte, voxOffset-headerSize)); err != nil {
		return err
	}

	_, err := w.Write(vol.Data)
	return err
}

// SaveVolume writes vol to path, gzip-compressed when path ends in .gz.
func SaveVolume(path string, vol *models.Volume) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return pfx.Err(err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = pfx.Err(cerr)
		}
	}()

	bw := bufio.NewWriter(f)
	var w io.Writer = bw

	var gz *gzip.Writer
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		gz = gzip.NewWriter(bw)
		w = gz
	}

	if err := WriteVolume(w, vol); err != nil {
		return err
	}

	if gz != nil {
		if err := gz.Close(); err != nil {
			return pfx.Err(err)
		}
	}
	if err := bw.Flush(); err != nil {
		return pfx.Err(err)
	}
	return nil
}
