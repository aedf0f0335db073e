package mesher

import (
	"github.com/voxell/carve"
	"gonum.org/v1/gonum/spatial/r3"
)

// Isosurface extraction over a padded binary sample grid.
//
// Every lattice cell is split into the six Kuhn tetrahedra sharing the
// cell's main diagonal. The subdivision tiles space face-to-face, so
// surface triangles from neighboring cells meet along identical lattice
// edges and the extracted surface is closed and manifold by
// construction. There are no ambiguous cases to patch, unlike
// table-driven marching cubes on binary data.

// binaryGrid is a scalar sample grid holding the isolated binary
// sub-volume of one label, padded with a one-sample border of zeros so
// the isosurface can never touch the grid boundary.
type binaryGrid struct {
	dims carve.IJK
	data []uint8
}

// newBinaryGrid isolates label from labeled into a padded grid and
// returns the number of voxels carrying the label.
func newBinaryGrid(labeled *carve.LabeledVolume, label int32) (*binaryGrid, int) {
	src := labeled.Dims()
	g := &binaryGrid{
		dims: src.AddScalar(2),
		data: make([]uint8, (src[0]+2)*(src[1]+2)*(src[2]+2)),
	}
	occupied := 0
	for z := 0; z < src[2]; z++ {
		for y := 0; y < src[1]; y++ {
			for x := 0; x < src[0]; x++ {
				if labeled.Label(carve.IJK{x, y, z}) == label {
					g.data[g.flat(carve.IJK{x + 1, y + 1, z + 1})] = 1
					occupied++
				}
			}
		}
	}
	return g, occupied
}

func (g *binaryGrid) flat(idx carve.IJK) int {
	return idx[0] + g.dims[0]*(idx[1]+g.dims[1]*idx[2])
}

func (g *binaryGrid) value(idx carve.IJK) float64 {
	return float64(g.data[g.flat(idx)])
}

// cellCorners is the corner ordering of one lattice cell, matching the
// classic marching cubes vertex numbering.
var cellCorners = [8]carve.IJK{
	{0, 0, 0}, // 0
	{1, 0, 0}, // 1
	{1, 1, 0}, // 2
	{0, 1, 0}, // 3
	{0, 0, 1}, // 4
	{1, 0, 1}, // 5
	{1, 1, 1}, // 6
	{0, 1, 1}, // 7
}

// kuhnTets are the six tetrahedra of the Kuhn subdivision, as corner
// indices into cellCorners. All six share the main diagonal 0-6; the
// induced diagonals on the cell faces match those of every neighboring
// cell, which is what makes the global surface watertight.
var kuhnTets = [6][4]int{
	{0, 1, 2, 6},
	{0, 1, 5, 6},
	{0, 3, 2, 6},
	{0, 3, 7, 6},
	{0, 4, 5, 6},
	{0, 4, 7, 6},
}

// surfaceBuilder accumulates welded vertices and faces in padded
// lattice-index space. Cut vertices are keyed by the lattice edge they
// sit on, so coincident vertices from neighboring tetrahedra weld to
// one index exactly, with no floating point tolerance involved.
type surfaceBuilder struct {
	grid      *binaryGrid
	threshold float64
	verts     []r3.Vec
	lookup    map[[2]int]int
	faces     [][3]int
}

func newSurfaceBuilder(g *binaryGrid, threshold float64) *surfaceBuilder {
	return &surfaceBuilder{
		grid:      g,
		threshold: threshold,
		lookup:    make(map[[2]int]int),
	}
}

// vertexOn returns the index of the cut vertex on the lattice edge
// between samples a and b, interpolating the crossing at the threshold.
func (sb *surfaceBuilder) vertexOn(a, b carve.IJK) int {
	fa, fb := sb.grid.flat(a), sb.grid.flat(b)
	key := [2]int{fa, fb}
	if fa > fb {
		key = [2]int{fb, fa}
	}
	if i, ok := sb.lookup[key]; ok {
		return i
	}
	va, vb := sb.grid.value(a), sb.grid.value(b)
	t := (sb.threshold - va) / (vb - va)
	p := r3.Add(a.Vec(), r3.Scale(t, r3.Sub(b.Vec(), a.Vec())))
	sb.verts = append(sb.verts, p)
	sb.lookup[key] = len(sb.verts) - 1
	return len(sb.verts) - 1
}

// emit appends face (i0,i1,i2) oriented so its normal points away from
// the solid, using insideRef (a point inside the enclosed region near
// the triangle) as the orientation witness.
func (sb *surfaceBuilder) emit(i0, i1, i2 int, insideRef r3.Vec) {
	tri := Triangle{sb.verts[i0], sb.verts[i1], sb.verts[i2]}
	n := r3.Cross(r3.Sub(tri[1], tri[0]), r3.Sub(tri[2], tri[0]))
	if r3.Dot(n, r3.Sub(tri.Centroid(), insideRef)) < 0 {
		i1, i2 = i2, i1
	}
	sb.faces = append(sb.faces, [3]int{i0, i1, i2})
}

// marchTet extracts the surface crossing one tetrahedron with corners
// at the given lattice samples.
func (sb *surfaceBuilder) marchTet(c [4]carve.IJK) {
	var inside, outside []carve.IJK
	for _, corner := range c {
		if sb.grid.value(corner) > sb.threshold {
			inside = append(inside, corner)
		} else {
			outside = append(outside, corner)
		}
	}
	switch len(inside) {
	case 0, 4:
		return
	case 1:
		ref := inside[0].Vec()
		v0 := sb.vertexOn(inside[0], outside[0])
		v1 := sb.vertexOn(inside[0], outside[1])
		v2 := sb.vertexOn(inside[0], outside[2])
		sb.emit(v0, v1, v2, ref)
	case 3:
		ref := r3.Scale(1./3., r3.Add(r3.Add(inside[0].Vec(), inside[1].Vec()), inside[2].Vec()))
		v0 := sb.vertexOn(inside[0], outside[0])
		v1 := sb.vertexOn(inside[1], outside[0])
		v2 := sb.vertexOn(inside[2], outside[0])
		sb.emit(v0, v1, v2, ref)
	case 2:
		// Quad of cut points; consecutive quad corners share a
		// tetrahedron face, so the cycle below never bowties.
		ref := r3.Scale(0.5, r3.Add(inside[0].Vec(), inside[1].Vec()))
		q0 := sb.vertexOn(inside[0], outside[0])
		q1 := sb.vertexOn(inside[0], outside[1])
		q2 := sb.vertexOn(inside[1], outside[1])
		q3 := sb.vertexOn(inside[1], outside[0])
		sb.emit(q0, q1, q2, ref)
		sb.emit(q0, q2, q3, ref)
	}
}

// extractSurface runs marching tetrahedra over every cell of the padded
// grid and returns the welded surface in padded lattice-index space.
func extractSurface(g *binaryGrid, threshold float64) (verts []r3.Vec, faces [][3]int) {
	sb := newSurfaceBuilder(g, threshold)
	var corners [8]carve.IJK
	for z := 0; z < g.dims[2]-1; z++ {
		for y := 0; y < g.dims[1]-1; y++ {
			for x := 0; x < g.dims[0]-1; x++ {
				cell := carve.IJK{x, y, z}
				any := false
				for i, off := range cellCorners {
					corners[i] = cell.Add(off)
					any = any || g.data[g.flat(corners[i])] != 0
				}
				if !any {
					// Empty cells hold no surface; skip the six tets.
					continue
				}
				for _, tet := range kuhnTets {
					sb.marchTet([4]carve.IJK{
						corners[tet[0]],
						corners[tet[1]],
						corners[tet[2]],
						corners[tet[3]],
					})
				}
			}
		}
	}
	return sb.verts, sb.faces
}
