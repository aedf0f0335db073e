// Package geom provides the geometry sources the pipeline consumes:
// analytic solids rasterized into occupancy masks, and binary masks
// loaded from NIfTI-1 scan files.
package geom

import (
	"github.com/voxell/carve"
	"gonum.org/v1/gonum/spatial/r3"
)

// VolumeSource produces one volume mask. It is the capability contract
// between geometry providers and the partitioner; the analytic and
// scan-loaded variants both satisfy it.
type VolumeSource interface {
	VolumeMask() (*carve.VolumeMask, error)
}

// Solid is an analytic signed distance field: negative inside, positive
// outside, with a finite bounding box enclosing the zero level set.
type Solid interface {
	// Evaluate returns the signed distance from p to the solid surface.
	Evaluate(p r3.Vec) float64
	// Bounds returns a box enclosing the solid.
	Bounds() r3.Box
}
