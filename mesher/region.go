// Package mesher extracts a closed, smoothed surface mesh in physical
// coordinates for each label of a labeled volume.
//
// Extraction of one label is independent of every other label: it reads
// the shared immutable labeled volume and writes only its own mesh, so
// GenerateAll runs labels in parallel and restores ascending label
// order afterwards.
package mesher

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/voxell/carve"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// DefaultSmoothPasses is the smoothing pass count used when
	// Options.SmoothPasses is zero.
	DefaultSmoothPasses = 10
	// NoSmoothing disables smoothing entirely.
	NoSmoothing = -1
	// defaultThreshold is the isosurface level for binary masks.
	defaultThreshold = 0.5
)

// Options configure region extraction. The zero value requests the
// defaults: DefaultSmoothPasses smoothing passes at threshold 0.5.
type Options struct {
	// SmoothPasses is the number of Taubin smoothing passes. Zero means
	// DefaultSmoothPasses; NoSmoothing disables smoothing.
	SmoothPasses int
	// Threshold is the isosurface level. Zero means 0.5, the midpoint
	// of a binary mask.
	Threshold float64
	// Workers bounds GenerateAll's parallelism. Zero means GOMAXPROCS.
	Workers int
}

func (o Options) smoothPasses() int {
	switch {
	case o.SmoothPasses == 0:
		return DefaultSmoothPasses
	case o.SmoothPasses < 0:
		return 0
	}
	return o.SmoothPasses
}

func (o Options) threshold() float64 {
	if o.Threshold == 0 {
		return defaultThreshold
	}
	return o.Threshold
}

func (o Options) workers() int {
	if o.Workers <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return o.Workers
}

// ExtractRegion extracts the surface of one label from labeled.
//
// The labeled sub-volume is isolated over the full grid, padded with a
// one-voxel border of zeros (so the surface is guaranteed closed rather
// than open at the image edges), triangulated at the threshold level,
// smoothed, and finally mapped to physical space by subtracting the pad
// offset and applying the volume's origin/spacing/direction.
//
// It fails with *carve.EmptyRegionError when no voxel carries label and
// with *carve.DegenerateMeshError when extraction yields no surface
// despite assigned voxels.
func ExtractRegion(labeled *carve.LabeledVolume, label int32, opts Options) (*Mesh, error) {
	grid, occupied := newBinaryGrid(labeled, label)
	if occupied == 0 {
		return nil, &carve.EmptyRegionError{Label: label}
	}
	verts, faces := extractSurface(grid, opts.threshold())
	if len(verts) == 0 || len(faces) == 0 {
		return nil, &carve.DegenerateMeshError{Label: label}
	}
	smoothTaubin(verts, faces, opts.smoothPasses())

	meta := labeled.Meta()
	pad := r3.Vec{X: 1, Y: 1, Z: 1}
	for i, v := range verts {
		verts[i] = meta.PhysicalAt(r3.Sub(v, pad))
	}
	return &Mesh{Label: label, Vertices: verts, Faces: faces}, nil
}

// GenerateAll extracts every label actually present in labeled, in
// ascending label order. Labels the seed draw starved of voxels simply
// do not appear, so EmptyRegionError never fires here.
//
// Per-label failures do not abort the other labels: GenerateAll returns
// every mesh that extracted cleanly together with the joined errors of
// the labels that failed.
func GenerateAll(labeled *carve.LabeledVolume, opts Options) ([]*Mesh, error) {
	labels := labeled.Labels()
	if len(labels) == 0 {
		return nil, carve.ErrEmptyVolume
	}
	var (
		meshes = make([]*Mesh, len(labels))
		errs   = make([]error, len(labels))
		sem    = make(chan struct{}, opts.workers())
		wg     sync.WaitGroup
	)
	for i, label := range labels {
		wg.Add(1)
		go func(i int, label int32) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			m, err := ExtractRegion(labeled, label, opts)
			if err != nil {
				errs[i] = fmt.Errorf("extract region %d: %w", label, err)
				return
			}
			meshes[i] = m
		}(i, label)
	}
	wg.Wait()
	// meshes is already ordered by ascending label: slots follow the
	// sorted label slice, not goroutine completion order.
	out := meshes[:0:0]
	for _, m := range meshes {
		if m != nil {
			out = append(out, m)
		}
	}
	return out, errors.Join(errs...)
}
