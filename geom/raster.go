package geom

import (
	"errors"
	"fmt"
	"math"

	"github.com/voxell/carve"
	"github.com/voxell/carve/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Analytic rasterizes a Solid into a volume mask by sampling the
// distance field at voxel centers with the given resolution (physical
// units per voxel). It satisfies VolumeSource.
type Analytic struct {
	Solid      Solid
	Resolution float64
}

// NewAnalytic returns an analytic source. It panics on a non-positive
// resolution.
func NewAnalytic(s Solid, resolution float64) *Analytic {
	if resolution <= 0 {
		panic("resolution <= 0")
	}
	return &Analytic{Solid: s, Resolution: resolution}
}

// VolumeMask samples the solid at voxel centers. The solid's bounding
// box is scaled 1.01 about its center first so the surface never lies
// on the sampling boundary. The mask origin is the physical position of
// the first voxel center and the direction is identity.
func (a *Analytic) VolumeMask() (*carve.VolumeMask, error) {
	res := a.Resolution
	bb := d3.Box(a.Solid.Bounds()).ScaleAboutCenter(1.01)
	size := bb.Size()
	dims := carve.IJK{
		int(math.Ceil(size.X / res)),
		int(math.Ceil(size.Y / res)),
		int(math.Ceil(size.Z / res)),
	}
	for i := range dims {
		if dims[i] < 1 {
			dims[i] = 1
		}
	}
	mask := carve.NewVolumeMask(dims, carve.GridMeta{
		Spacing: d3.Elem(res),
		Origin:  r3.Add(bb.Min, d3.Elem(res/2)),
	})

	occupied := 0
	for z := 0; z < dims[2]; z++ {
		for y := 0; y < dims[1]; y++ {
			for x := 0; x < dims[0]; x++ {
				idx := carve.IJK{x, y, z}
				center := r3.Add(bb.Min, r3.Scale(res, r3.Vec{
					X: float64(x) + 0.5,
					Y: float64(y) + 0.5,
					Z: float64(z) + 0.5,
				}))
				if a.Solid.Evaluate(center) < 0 {
					mask.Set(idx, true)
					occupied++
				}
			}
		}
	}
	if occupied == 0 {
		return nil, fmt.Errorf("rasterize %T at resolution %g: %w", a.Solid, res, errNoOccupancy)
	}
	return mask, nil
}

var errNoOccupancy = errors.New("geom: rasterization produced no occupied voxels")
