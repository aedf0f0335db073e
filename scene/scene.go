// Package scene assembles per-region meshes into one exportable scene:
// binary glTF for the interactive viewer, binary STL for print/CAD
// tooling, and an offscreen PNG preview for debugging.
package scene

import (
	"image/color"

	"github.com/voxell/carve/mesher"
)

// Region is one mesh of the scene with its display metadata.
type Region struct {
	Mesh    *mesher.Mesh
	Color   color.NRGBA
	Visible bool
}

// Scene is an ordered collection of regions. It is built from mesher
// outputs for one pipeline run and serialized at the end of it; meshes
// are referenced, never copied or mutated.
type Scene struct {
	regions []Region
}

// palette cycles distinct region colors, one per added mesh.
var palette = []color.NRGBA{
	{R: 0x66, G: 0xc2, B: 0xa5, A: 0xff},
	{R: 0xfc, G: 0x8d, B: 0x62, A: 0xff},
	{R: 0x8d, G: 0xa0, B: 0xcb, A: 0xff},
	{R: 0xe7, G: 0x8a, B: 0xc3, A: 0xff},
	{R: 0xa6, G: 0xd8, B: 0x54, A: 0xff},
	{R: 0xff, G: 0xd9, B: 0x2f, A: 0xff},
	{R: 0xe5, G: 0xc4, B: 0x94, A: 0xff},
	{R: 0xb3, G: 0xb3, B: 0xb3, A: 0xff},
}

// New returns an empty scene.
func New() *Scene { return &Scene{} }

// Add appends a region mesh, assigning it the next palette color.
func (s *Scene) Add(m *mesher.Mesh) {
	s.regions = append(s.regions, Region{
		Mesh:    m,
		Color:   palette[len(s.regions)%len(palette)],
		Visible: true,
	})
}

// AddAll appends meshes in order.
func (s *Scene) AddAll(meshes []*mesher.Mesh) {
	for _, m := range meshes {
		s.Add(m)
	}
}

// Regions returns the scene contents in insertion order.
func (s *Scene) Regions() []Region { return s.regions }

// Len returns the number of regions.
func (s *Scene) Len() int { return len(s.regions) }

// visibleTriangles flattens all visible regions to a triangle soup.
func (s *Scene) visibleTriangles() []mesher.Triangle {
	var tris []mesher.Triangle
	for _, rg := range s.regions {
		if !rg.Visible {
			continue
		}
		tris = append(tris, rg.Mesh.Triangles()...)
	}
	return tris
}
