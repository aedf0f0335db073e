package partition

import (
	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	_ kdtree.Interface  = seedSet{}
	_ kdtree.Comparable = seedPoint{}
)

// seedPoint is one seed voxel lifted into the kd-tree. The ordinal is
// the 0-based position in the seed draw; ties between equidistant seeds
// resolve to the lowest ordinal.
type seedPoint struct {
	pos     r3.Vec
	ordinal int32
}

// Compare returns the signed distance of a from the plane passing
// through b and perpendicular to the dimension d.
func (a seedPoint) Compare(b kdtree.Comparable, d kdtree.Dim) float64 {
	q := b.(seedPoint)
	switch d {
	case 0:
		return a.pos.X - q.pos.X
	case 1:
		return a.pos.Y - q.pos.Y
	case 2:
		return a.pos.Z - q.pos.Z
	}
	panic("unreachable")
}

// Dims returns the number of dimensions described in the Comparable.
func (a seedPoint) Dims() int { return 3 }

// Distance returns the squared Euclidean distance between the receiver
// and the parameter. Voxel indices are integers so equal squared
// distances compare exactly in float64.
func (a seedPoint) Distance(b kdtree.Comparable) float64 {
	return r3.Norm2(r3.Sub(a.pos, b.(seedPoint).pos))
}

type seedSet []seedPoint

func (s seedSet) Index(i int) kdtree.Comparable { return s[i] }

func (s seedSet) Len() int { return len(s) }

// Pivot partitions the list based on the dimension specified.
func (s seedSet) Pivot(d kdtree.Dim) int {
	p := seedPlane{dim: int(d), seeds: s}
	return kdtree.Partition(p, kdtree.MedianOfMedians(p))
}

// Slice returns a slice of the list using zero-based half open indexing
// equivalent to built-in slice indexing.
func (s seedSet) Slice(start, end int) kdtree.Interface {
	return s[start:end]
}

type seedPlane struct {
	dim   int
	seeds seedSet
}

func (p seedPlane) Less(i, j int) bool {
	a, b := p.seeds[i].pos, p.seeds[j].pos
	switch p.dim {
	case 0:
		return a.X < b.X
	case 1:
		return a.Y < b.Y
	}
	return a.Z < b.Z
}

func (p seedPlane) Swap(i, j int) {
	p.seeds[i], p.seeds[j] = p.seeds[j], p.seeds[i]
}

func (p seedPlane) Len() int {
	return len(p.seeds)
}

func (p seedPlane) Slice(start, end int) kdtree.SortSlicer {
	p.seeds = p.seeds[start:end]
	return p
}
