package geom

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/voxell/carve"
	"github.com/voxell/carve/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// NIfTI-1 binary mask loader. Only single-file volumes (.nii, .nii.gz)
// are supported; any voxel with a value greater than zero is occupied.

// Nifti loads a NIfTI-1 file as a binary occupancy mask. It satisfies
// VolumeSource.
type Nifti struct {
	Path string
}

// VolumeMask reads and decodes the file at Path, transparently
// decompressing gzip.
func (n *Nifti) VolumeMask() (*carve.VolumeMask, error) {
	fp, err := os.Open(n.Path)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	var r io.Reader = fp
	if strings.HasSuffix(n.Path, ".gz") {
		gz, err := gzip.NewReader(fp)
		if err != nil {
			return nil, fmt.Errorf("decompress %s: %w", n.Path, err)
		}
		defer gz.Close()
		r = gz
	}
	mask, err := ReadNifti(r)
	if err != nil {
		return nil, fmt.Errorf("read NIfTI %s: %w", n.Path, err)
	}
	return mask, nil
}

// niftiHeader is the fixed 348-byte NIfTI-1 header.
type niftiHeader struct {
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
	XyztUnits    byte
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

// NIfTI-1 datatype codes.
const (
	dtUint8   = 2
	dtInt16   = 4
	dtInt32   = 8
	dtFloat32 = 16
	dtFloat64 = 64
	dtInt8    = 256
	dtUint16  = 512
)

const niftiHeaderSize = 348

// ReadNifti decodes an uncompressed NIfTI-1 stream into an occupancy
// mask. Both byte orders are handled; the header's sizeof_hdr field
// discriminates.
func ReadNifti(r io.Reader) (*carve.VolumeMask, error) {
	var raw [niftiHeaderSize]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		return nil, fmt.Errorf("header read failed: %w", err)
	}
	order := binary.ByteOrder(binary.LittleEndian)
	if binary.LittleEndian.Uint32(raw[:4]) != niftiHeaderSize {
		if binary.BigEndian.Uint32(raw[:4]) != niftiHeaderSize {
			return nil, fmt.Errorf("not a NIfTI-1 file: sizeof_hdr != %d", niftiHeaderSize)
		}
		order = binary.BigEndian
	}
	var hdr niftiHeader
	if err := binary.Read(bytes.NewReader(raw[:]), order, &hdr); err != nil {
		return nil, err
	}
	if magic := string(hdr.Magic[:3]); magic != "n+1" {
		if magic == "ni1" {
			return nil, fmt.Errorf("two-file NIfTI (%q) is not supported", magic)
		}
		return nil, fmt.Errorf("bad NIfTI magic %q", magic)
	}
	if hdr.Dim[0] < 3 {
		return nil, fmt.Errorf("volume must have at least 3 dimensions, got %d", hdr.Dim[0])
	}
	dims := carve.IJK{int(hdr.Dim[1]), int(hdr.Dim[2]), int(hdr.Dim[3])}
	if dims[0] < 1 || dims[1] < 1 || dims[2] < 1 {
		return nil, fmt.Errorf("bad volume dimensions %v", dims)
	}
	// Trailing volumes of a 4D+ series are ignored; only the first is
	// read.
	nvox := dims[0] * dims[1] * dims[2]

	// Skip header extensions up to the data offset.
	if skip := int64(hdr.VoxOffset) - niftiHeaderSize; skip > 0 {
		if _, err := io.CopyN(io.Discard, r, skip); err != nil {
			return nil, fmt.Errorf("skip to voxel data: %w", err)
		}
	}
	occ, err := readOccupancy(r, order, hdr.Datatype, nvox)
	if err != nil {
		return nil, err
	}

	mask := carve.NewVolumeMask(dims, metaFromHeader(&hdr))
	i := 0
	// NIfTI stores x fastest, matching the mask layout.
	for z := 0; z < dims[2]; z++ {
		for y := 0; y < dims[1]; y++ {
			for x := 0; x < dims[0]; x++ {
				if occ[i] {
					mask.Set(carve.IJK{x, y, z}, true)
				}
				i++
			}
		}
	}
	return mask, nil
}

// readOccupancy decodes nvox samples of the given datatype and
// thresholds them at zero.
func readOccupancy(r io.Reader, order binary.ByteOrder, datatype int16, nvox int) ([]bool, error) {
	size := 0
	switch datatype {
	case dtUint8, dtInt8:
		size = 1
	case dtInt16, dtUint16:
		size = 2
	case dtInt32, dtFloat32:
		size = 4
	case dtFloat64:
		size = 8
	default:
		return nil, fmt.Errorf("unsupported NIfTI datatype code %d", datatype)
	}
	buf := make([]byte, nvox*size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("voxel data read failed: %w", err)
	}
	occ := make([]bool, nvox)
	for i := range occ {
		b := buf[i*size:]
		switch datatype {
		case dtUint8:
			occ[i] = b[0] > 0
		case dtInt8:
			occ[i] = int8(b[0]) > 0
		case dtInt16:
			occ[i] = int16(order.Uint16(b)) > 0
		case dtUint16:
			occ[i] = order.Uint16(b) > 0
		case dtInt32:
			occ[i] = int32(order.Uint32(b)) > 0
		case dtFloat32:
			occ[i] = math.Float32frombits(order.Uint32(b)) > 0
		case dtFloat64:
			occ[i] = math.Float64frombits(order.Uint64(b)) > 0
		}
	}
	return occ, nil
}

// metaFromHeader builds the voxel to physical mapping. The sform affine
// is preferred when present; its rotation part is orthonormalized
// (scans carry slight numeric skew). Without an sform the offset falls
// back to the qform translation with identity orientation.
func metaFromHeader(hdr *niftiHeader) carve.GridMeta {
	meta := carve.GridMeta{
		Spacing: r3.Vec{
			X: nonzero(float64(hdr.Pixdim[1])),
			Y: nonzero(float64(hdr.Pixdim[2])),
			Z: nonzero(float64(hdr.Pixdim[3])),
		},
	}
	if hdr.SformCode > 0 {
		meta.Origin = r3.Vec{
			X: float64(hdr.SrowX[3]),
			Y: float64(hdr.SrowY[3]),
			Z: float64(hdr.SrowZ[3]),
		}
		cols := [3]r3.Vec{
			{X: float64(hdr.SrowX[0]), Y: float64(hdr.SrowY[0]), Z: float64(hdr.SrowZ[0])},
			{X: float64(hdr.SrowX[1]), Y: float64(hdr.SrowY[1]), Z: float64(hdr.SrowZ[1])},
			{X: float64(hdr.SrowX[2]), Y: float64(hdr.SrowY[2]), Z: float64(hdr.SrowZ[2])},
		}
		if m, ok := orthonormalized(cols); ok {
			meta.Direction = m
		}
	} else {
		meta.Origin = r3.Vec{
			X: float64(hdr.QoffsetX),
			Y: float64(hdr.QoffsetY),
			Z: float64(hdr.QoffsetZ),
		}
	}
	return meta
}

func nonzero(v float64) float64 {
	if v <= 0 {
		return 1
	}
	return v
}

// orthonormalized normalizes the affine columns and re-orthogonalizes
// them by Gram-Schmidt. Degenerate columns report ok=false and the
// caller keeps the identity direction.
func orthonormalized(cols [3]r3.Vec) (*r3.Mat, bool) {
	const tol = 1e-6
	for i := range cols {
		n := r3.Norm(cols[i])
		if n < tol {
			return nil, false
		}
		cols[i] = r3.Scale(1/n, cols[i])
	}
	cols[1] = r3.Sub(cols[1], r3.Scale(r3.Dot(cols[0], cols[1]), cols[0]))
	if r3.Norm(cols[1]) < tol {
		return nil, false
	}
	cols[1] = r3.Unit(cols[1])
	cols[2] = r3.Sub(cols[2], r3.Scale(r3.Dot(cols[0], cols[2]), cols[0]))
	cols[2] = r3.Sub(cols[2], r3.Scale(r3.Dot(cols[1], cols[2]), cols[1]))
	if r3.Norm(cols[2]) < tol {
		return nil, false
	}
	cols[2] = r3.Unit(cols[2])
	if d3.EqualWithin(cols[0], r3.Vec{X: 1}, tol) &&
		d3.EqualWithin(cols[1], r3.Vec{Y: 1}, tol) &&
		d3.EqualWithin(cols[2], r3.Vec{Z: 1}, tol) {
		// Identity direction stays nil.
		return nil, true
	}
	return r3.NewMat([]float64{
		cols[0].X, cols[1].X, cols[2].X,
		cols[0].Y, cols[1].Y, cols[2].Y,
		cols[0].Z, cols[1].Z, cols[2].Z,
	}), true
}
