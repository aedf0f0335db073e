package mesher

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Triangle is a 3D triangle defined by its three vertices.
type Triangle [3]r3.Vec

// Normal returns the triangle's normal vector, oriented by the
// right-hand rule over the vertex ordering.
func (t Triangle) Normal() r3.Vec {
	e1 := r3.Sub(t[1], t[0])
	e2 := r3.Sub(t[2], t[0])
	return r3.Unit(r3.Cross(e1, e2))
}

// Centroid returns the triangle's center of mass.
func (t Triangle) Centroid() r3.Vec {
	return r3.Scale(1./3., r3.Add(r3.Add(t[0], t[1]), t[2]))
}

// Mesh is the closed surface of one labeled region: vertices in
// physical space and triangular faces indexing into them. Faces are
// oriented with outward normals. A mesh is never mutated after its
// extraction completes.
type Mesh struct {
	// Label is the region label this surface encloses.
	Label int32
	// Vertices in physical coordinates.
	Vertices []r3.Vec
	// Faces as vertex index triples.
	Faces [][3]int
}

// Triangles expands the indexed faces into a triangle soup, as consumed
// by STL-style writers.
func (m *Mesh) Triangles() []Triangle {
	tris := make([]Triangle, len(m.Faces))
	for i, f := range m.Faces {
		tris[i] = Triangle{m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]}
	}
	return tris
}

// Volume returns the volume enclosed by the mesh via the divergence
// theorem. The result is positive for a closed mesh with outward
// oriented faces.
func (m *Mesh) Volume() float64 {
	var v float64
	for _, f := range m.Faces {
		a, b, c := m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]
		v += r3.Dot(a, r3.Cross(b, c))
	}
	return v / 6
}

// IsClosed reports whether every undirected edge of the mesh is shared
// by exactly two faces, i.e. the surface is watertight.
func (m *Mesh) IsClosed() bool {
	edges := make(map[[2]int]int, 3*len(m.Faces)/2)
	for _, f := range m.Faces {
		for i := 0; i < 3; i++ {
			a, b := f[i], f[(i+1)%3]
			if a > b {
				a, b = b, a
			}
			edges[[2]int{a, b}]++
		}
	}
	for _, n := range edges {
		if n != 2 {
			return false
		}
	}
	return len(edges) > 0
}
