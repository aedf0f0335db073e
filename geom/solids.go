package geom

import (
	"math"

	"github.com/voxell/carve/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Exact distance fields for the analytic primitives. Constructors panic
// on nonsensical parameters; bad geometry is a programmer error, not an
// input data error.

// sphere is a sphere centered on the origin.
type sphere struct {
	radius float64
	bb     r3.Box
}

// Sphere returns a Solid for a sphere.
func Sphere(radius float64) *sphere {
	if radius <= 0 {
		panic("radius <= 0")
	}
	d := d3.Elem(radius)
	return &sphere{
		radius: radius,
		bb:     r3.Box{Min: r3.Scale(-1, d), Max: d},
	}
}

// Evaluate returns the minimum distance to the sphere.
func (s *sphere) Evaluate(p r3.Vec) float64 {
	return r3.Norm(p) - s.radius
}

// Bounds returns the bounding box for the sphere.
func (s *sphere) Bounds() r3.Box { return s.bb }

// box is a 3d box centered on the origin.
type box struct {
	size  r3.Vec
	round float64
	bb    r3.Box
}

// Box returns a Solid for a 3d box (rounded corners with round > 0).
func Box(size r3.Vec, round float64) *box {
	if d3.LTEZero(size) {
		panic("size <= 0")
	}
	if round < 0 {
		panic("round < 0")
	}
	size = r3.Scale(0.5, size)
	return &box{
		size:  r3.Sub(size, d3.Elem(round)),
		round: round,
		bb:    r3.Box{Min: r3.Scale(-1, size), Max: size},
	}
}

// Evaluate returns the minimum distance to the box.
func (s *box) Evaluate(p r3.Vec) float64 {
	return sdfBox3d(p, s.size) - s.round
}

// Bounds returns the bounding box for the box.
func (s *box) Bounds() r3.Box { return s.bb }

// cylinder is a z-axis aligned cylinder centered on the origin.
type cylinder struct {
	height float64 // half height, round subtracted
	radius float64 // radius, round subtracted
	round  float64
	bb     r3.Box
}

// Cylinder returns a Solid for a cylinder (rounded edges with round > 0).
func Cylinder(height, radius, round float64) *cylinder {
	if radius <= 0 {
		panic("radius <= 0")
	}
	if round < 0 {
		panic("round < 0")
	}
	if round > radius {
		panic("round > radius")
	}
	if height < 2*round {
		panic("height < 2 * round")
	}
	d := r3.Vec{X: radius, Y: radius, Z: height / 2}
	return &cylinder{
		height: height/2 - round,
		radius: radius - round,
		round:  round,
		bb:     r3.Box{Min: r3.Scale(-1, d), Max: d},
	}
}

// Evaluate returns the minimum distance to the cylinder.
func (s *cylinder) Evaluate(p r3.Vec) float64 {
	d := math.Hypot(p.X, p.Y) - s.radius
	h := math.Abs(p.Z) - s.height
	return math.Min(math.Max(d, h), 0) +
		math.Hypot(math.Max(d, 0), math.Max(h, 0)) - s.round
}

// Bounds returns the bounding box for the cylinder.
func (s *cylinder) Bounds() r3.Box { return s.bb }

func sdfBox3d(p, s r3.Vec) float64 {
	d := r3.Sub(d3.AbsElem(p), s)
	q := d3.MaxElem(d, r3.Vec{})
	return r3.Norm(q) + math.Min(d3.Max(d), 0)
}
