/*

Integer 3D voxel indices

*/

package carve

import "gonum.org/v1/gonum/spatial/r3"

// IJK is a 3D integer voxel index.
type IJK [3]int

// Add adds two indices. Returns v = a + b.
func (a IJK) Add(b IJK) IJK {
	return IJK{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

// AddScalar adds a scalar to each component of the index.
func (a IJK) AddScalar(b int) IJK {
	return IJK{a[0] + b, a[1] + b, a[2] + b}
}

// Vec converts IJK (integer) to r3.Vec (float).
func (a IJK) Vec() r3.Vec {
	return r3.Vec{X: float64(a[0]), Y: float64(a[1]), Z: float64(a[2])}
}
