package nifti

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/carbocation/pfx"
	"github.com/klauspost/compress/gzip"
)

// NIfTI-1 datatype codes
const (
	DTUint8   = 2
	DTInt16   = 4
	DTInt32   = 8
	DTFloat32 = 16
	DTFloat64 = 64
	DTInt8    = 256
	DTUint16  = 512
	DTUint32  = 768
	DTInt64   = 1024
	DTUint64  = 1280
)

const (
	headerSize = 348
	voxOffset  = 352

	// xyzt_units: millimetres and seconds
	unitsMMSec = 2 | 8
)

var magicSingleFile = [4]byte{'n', '+', '1', 0}

// Header is the on-disk NIfTI-1 header. Field order and sizes match the
// 348-byte layout, so it can be read and written with encoding/binary.
type Header struct {
	SizeofHdr    int32
	DataType     [10]byte
	DBName       [18]byte
	Extents      int32
	SessionError int16
	Regular      byte
	DimInfo      byte
	Dim          [8]int16
	IntentP1     float32
	IntentP2     float32
	IntentP3     float32
	IntentCode   int16
	Datatype     int16
	Bitpix       int16
	SliceStart   int16
	Pixdim       [8]float32
	VoxOffset    float32
	SclSlope     float32
	SclInter     float32
	SliceEnd     int16
	SliceCode    byte
	XYZTUnits    byte
	CalMax       float32
	CalMin       float32
	SliceDur     float32
	Toffset      float32
	Glmax        int32
	Glmin        int32
	Descrip      [80]byte
	AuxFile      [24]byte
	QformCode    int16
	SformCode    int16
	QuaternB     float32
	QuaternC     float32
	QuaternD     float32
	QoffsetX     float32
	QoffsetY     float32
	QoffsetZ     float32
	SrowX        [4]float32
	SrowY        [4]float32
	SrowZ        [4]float32
	IntentName   [16]byte
	Magic        [4]byte
}

// newUint8Header describes a 3D uint8 volume with identity orientation
// scaled by the voxel size.
func newUint8Header(width, height, depth int, px, py, pz float32) Header {
	h := Header{
		SizeofHdr: headerSize,
		Regular:   'r',
		Dim:       [8]int16{3, int16(width), int16(height), int16(depth), 1, 1, 1, 1},
		Datatype:  DTUint8,
		Bitpix:    8,
		Pixdim:    [8]float32{1, px, py, pz, 1, 1, 1, 1},
		VoxOffset: voxOffset,
		SclSlope:  1,
		XYZTUnits: unitsMMSec,
		CalMax:    0,
		CalMin:    0,
		SformCode: 1,
		SrowX:     [4]float32{px, 0, 0, 0},
		SrowY:     [4]float32{0, py, 0, 0},
		SrowZ:     [4]float32{0, 0, pz, 0},
		Magic:     magicSingleFile,
	}
	copy(h.Descrip[:], "niimask")
	return h
}

// ReadHeader parses the header of a .nii or .nii.gz file.
func ReadHeader(path string) (Header, error) {
	var h Header

	f, err := os.Open(path)
	if err != nil {
		return h, pfx.Err(err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return h, pfx.Err(err)
		}
		defer gz.Close()
		r = gz
	}

	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return h, pfx.Err(err)
	}
	if h.SizeofHdr != headerSize {
		return h, fmt.Errorf("not a little-endian NIfTI-1 header (sizeof_hdr %d)", h.SizeofHdr)
	}
	return h, nil
}

// Dims returns the spatial dimensions, treating a missing third axis as 1.
func (h Header) Dims() (x, y, z int) {
	x, y, z = int(h.Dim[1]), int(h.Dim[2]), int(h.Dim[3])
	if h.Dim[0] < 3 || z < 1 {
		z = 1
	}
	return x, y, z
}

// DatatypeName returns the numpy-style name of the stored voxel type.
func (h Header) DatatypeName() string {
	switch h.Datatype {
	case DTUint8:
		return "uint8"
	case DTInt8:
		return "int8"
	case DTInt16:
		return "int16"
	case DTUint16:
		return "uint16"
	case DTInt32:
		return "int32"
	case DTUint32:
		return "uint32"
	case DTInt64:
		return "int64"
	case DTUint64:
		return "uint64"
	case DTFloat32:
		return "float32"
	case DTFloat64:
		return "float64"
	}
	return fmt.Sprintf("datatype(%d)", h.Datatype)
}
