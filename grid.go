package carve

import (
	"math"
	"sort"

	"github.com/voxell/carve/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// GridMeta maps discrete voxel indices to physical coordinates. It
// mirrors the scan metadata convention: a voxel index idx maps to
//
//	physical = Origin + Direction * (idx .* Spacing)
//
// where .* is the elementwise product.
type GridMeta struct {
	// Spacing is the physical size of one voxel per axis. All components
	// must be positive.
	Spacing r3.Vec
	// Origin is the physical position of voxel (0,0,0).
	Origin r3.Vec
	// Direction maps voxel axes to physical axes. It must be orthonormal.
	// A nil Direction is the identity.
	Direction *r3.Mat
}

// DefaultMeta returns unit spacing, zero origin, identity direction.
func DefaultMeta() GridMeta {
	return GridMeta{Spacing: d3.Elem(1)}
}

// PhysicalAt maps a (possibly fractional) voxel index to physical space.
func (g GridMeta) PhysicalAt(idx r3.Vec) r3.Vec {
	scaled := d3.MulElem(idx, g.Spacing)
	if g.Direction != nil {
		scaled = g.Direction.MulVec(scaled)
	}
	return r3.Add(g.Origin, scaled)
}

func (g GridMeta) validate() {
	if d3.LTEZero(g.Spacing) {
		panic("carve: grid spacing components must be positive")
	}
	if g.Direction != nil && !orthonormal(g.Direction) {
		panic("carve: grid direction matrix must be orthonormal")
	}
}

func orthonormal(m *r3.Mat) bool {
	const tol = 1e-8
	cols := [3]r3.Vec{
		{X: m.At(0, 0), Y: m.At(1, 0), Z: m.At(2, 0)},
		{X: m.At(0, 1), Y: m.At(1, 1), Z: m.At(2, 1)},
		{X: m.At(0, 2), Y: m.At(1, 2), Z: m.At(2, 2)},
	}
	for i, c := range cols {
		if math.Abs(r3.Norm(c)-1) > tol {
			return false
		}
		if math.Abs(r3.Dot(c, cols[(i+1)%3])) > tol {
			return false
		}
	}
	return true
}

// VolumeMask is a 3D binary occupancy grid. It is created by a geometry
// provider (see package geom) and read-only once handed to the
// partitioner.
type VolumeMask struct {
	meta GridMeta
	dims IJK
	data []bool
}

// NewVolumeMask returns an empty mask with the given dimensions and
// metadata. It panics if any dimension is smaller than 1 or the
// metadata is invalid, since those are programmer errors rather than
// input data errors.
func NewVolumeMask(dims IJK, meta GridMeta) *VolumeMask {
	if dims[0] < 1 || dims[1] < 1 || dims[2] < 1 {
		panic("carve: mask dimensions must be at least 1 per axis")
	}
	meta.validate()
	return &VolumeMask{
		meta: meta,
		dims: dims,
		data: make([]bool, dims[0]*dims[1]*dims[2]),
	}
}

// Dims returns the grid dimensions per axis.
func (m *VolumeMask) Dims() IJK { return m.dims }

// Meta returns the voxel to physical mapping metadata.
func (m *VolumeMask) Meta() GridMeta { return m.meta }

// InBounds reports whether idx addresses a voxel of the grid.
func (m *VolumeMask) InBounds(idx IJK) bool {
	return idx[0] >= 0 && idx[0] < m.dims[0] &&
		idx[1] >= 0 && idx[1] < m.dims[1] &&
		idx[2] >= 0 && idx[2] < m.dims[2]
}

// flat index with x fastest, matching scan data layout.
func (m *VolumeMask) flat(idx IJK) int {
	return idx[0] + m.dims[0]*(idx[1]+m.dims[1]*idx[2])
}

// At reports the occupancy of the voxel at idx.
func (m *VolumeMask) At(idx IJK) bool { return m.data[m.flat(idx)] }

// Set marks the occupancy of the voxel at idx. Only geometry providers
// should call Set; the mask is immutable once partitioned.
func (m *VolumeMask) Set(idx IJK, occupied bool) { m.data[m.flat(idx)] = occupied }

// OccupiedCount returns the number of occupied voxels.
func (m *VolumeMask) OccupiedCount() (n int) {
	for _, v := range m.data {
		if v {
			n++
		}
	}
	return n
}

// OccupiedIndices enumerates the indices of all occupied voxels in
// x-fastest scan order.
func (m *VolumeMask) OccupiedIndices() []IJK {
	idxs := make([]IJK, 0, len(m.data)/8)
	i := 0
	for z := 0; z < m.dims[2]; z++ {
		for y := 0; y < m.dims[1]; y++ {
			for x := 0; x < m.dims[0]; x++ {
				if m.data[i] {
					idxs = append(idxs, IJK{x, y, z})
				}
				i++
			}
		}
	}
	return idxs
}

// LabeledVolume assigns a region label to every voxel of a source mask.
// Label 0 is background; labels 1..N identify regions.
type LabeledVolume struct {
	meta   GridMeta
	dims   IJK
	labels []int32
}

// NewLabeledVolume returns an all-background labeled volume sharing the
// dimensions and metadata of mask.
func NewLabeledVolume(mask *VolumeMask) *LabeledVolume {
	return &LabeledVolume{
		meta:   mask.meta,
		dims:   mask.dims,
		labels: make([]int32, len(mask.data)),
	}
}

// Dims returns the grid dimensions per axis.
func (v *LabeledVolume) Dims() IJK { return v.dims }

// Meta returns the voxel to physical mapping metadata inherited from
// the source mask.
func (v *LabeledVolume) Meta() GridMeta { return v.meta }

func (v *LabeledVolume) flat(idx IJK) int {
	return idx[0] + v.dims[0]*(idx[1]+v.dims[1]*idx[2])
}

// Label returns the region label of the voxel at idx. 0 is background.
func (v *LabeledVolume) Label(idx IJK) int32 { return v.labels[v.flat(idx)] }

// SetLabel assigns a region label to the voxel at idx. Only the
// partitioner should call SetLabel.
func (v *LabeledVolume) SetLabel(idx IJK, label int32) { v.labels[v.flat(idx)] = label }

// Labels returns the distinct non-background labels actually present,
// in ascending order. Labels starved of voxels by the random seed draw
// do not appear.
func (v *LabeledVolume) Labels() []int32 {
	present := make(map[int32]struct{})
	for _, l := range v.labels {
		if l != 0 {
			present[l] = struct{}{}
		}
	}
	out := make([]int32, 0, len(present))
	for l := range present {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// CountOf returns the number of voxels carrying label.
func (v *LabeledVolume) CountOf(label int32) (n int) {
	for _, l := range v.labels {
		if l == label {
			n++
		}
	}
	return n
}
