package mesher_test

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/voxell/carve"
	"github.com/voxell/carve/mesher"
	"github.com/voxell/carve/partition"
	"gonum.org/v1/gonum/spatial/r3"
)

// labeledBlock returns a labeled volume of the given dimensions with
// every voxel carrying label 1.
func labeledBlock(dims carve.IJK, meta carve.GridMeta) *carve.LabeledVolume {
	mask := carve.NewVolumeMask(dims, meta)
	lv := carve.NewLabeledVolume(mask)
	for z := 0; z < dims[2]; z++ {
		for y := 0; y < dims[1]; y++ {
			for x := 0; x < dims[0]; x++ {
				lv.SetLabel(carve.IJK{x, y, z}, 1)
			}
		}
	}
	return lv
}

// labeledBall labels all voxels within radius of the grid center.
func labeledBall(n int, radius float64) *carve.LabeledVolume {
	dims := carve.IJK{n, n, n}
	mask := carve.NewVolumeMask(dims, carve.DefaultMeta())
	lv := carve.NewLabeledVolume(mask)
	c := float64(n-1) / 2
	for z := 0; z < n; z++ {
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				dx, dy, dz := float64(x)-c, float64(y)-c, float64(z)-c
				if dx*dx+dy*dy+dz*dz <= radius*radius {
					lv.SetLabel(carve.IJK{x, y, z}, 1)
				}
			}
		}
	}
	return lv
}

func TestExtractCube(t *testing.T) {
	lv := labeledBlock(carve.IJK{10, 10, 10}, carve.DefaultMeta())
	m, err := mesher.ExtractRegion(lv, 1, mesher.Options{SmoothPasses: mesher.NoSmoothing})
	if err != nil {
		t.Fatal(err)
	}
	if !m.IsClosed() {
		t.Error("cube surface is not watertight")
	}
	// The isosurface sits half a voxel outside the occupied lattice,
	// minus the bevels marching tetrahedra cut at edges and corners.
	if v := m.Volume(); v <= 900 || v >= 1000 {
		t.Errorf("cube volume %.1f, want within (900, 1000)", v)
	}
	for _, p := range m.Vertices {
		for _, c := range []float64{p.X, p.Y, p.Z} {
			if c < -0.5-1e-9 || c > 9.5+1e-9 {
				t.Fatalf("vertex %v outside expected bounds [-0.5, 9.5]", p)
			}
		}
	}
	// Unsmoothed cut vertices interpolate binary samples at t=0.5, so
	// every coordinate is a multiple of one half.
	for _, p := range m.Vertices {
		for _, c := range []float64{p.X, p.Y, p.Z} {
			if math.Abs(2*c-math.Round(2*c)) > 1e-9 {
				t.Fatalf("vertex %v has non half-integer coordinate", p)
			}
		}
	}
}

func TestExtractSingleVoxel(t *testing.T) {
	lv := labeledBlock(carve.IJK{1, 1, 1}, carve.DefaultMeta())
	m, err := mesher.ExtractRegion(lv, 1, mesher.Options{SmoothPasses: mesher.NoSmoothing})
	if err != nil {
		t.Fatal(err)
	}
	if !m.IsClosed() {
		t.Error("single voxel surface is not watertight")
	}
	if v := m.Volume(); v <= 0 {
		t.Errorf("single voxel volume %.3f, want positive", v)
	}
}

func TestSmoothingKeepsSurfaceClosed(t *testing.T) {
	lv := labeledBall(16, 6.5)
	for _, passes := range []int{5, mesher.DefaultSmoothPasses, 20} {
		m, err := mesher.ExtractRegion(lv, 1, mesher.Options{SmoothPasses: passes})
		if err != nil {
			t.Fatalf("passes=%d: %v", passes, err)
		}
		if !m.IsClosed() {
			t.Errorf("passes=%d: smoothed surface is not watertight", passes)
		}
	}
}

func TestSmoothingPreservesVolume(t *testing.T) {
	lv := labeledBall(16, 6.5)
	raw, err := mesher.ExtractRegion(lv, 1, mesher.Options{SmoothPasses: mesher.NoSmoothing})
	if err != nil {
		t.Fatal(err)
	}
	v0 := raw.Volume()
	for _, passes := range []int{5, mesher.DefaultSmoothPasses, 20} {
		m, err := mesher.ExtractRegion(lv, 1, mesher.Options{SmoothPasses: passes})
		if err != nil {
			t.Fatalf("passes=%d: %v", passes, err)
		}
		if shrink := math.Abs(m.Volume()-v0) / v0; shrink > 0.05 {
			t.Errorf("passes=%d: volume drifted %.1f%% from %.1f, want under 5%%",
				passes, 100*shrink, v0)
		}
	}
}

func TestSmoothingPreservesSmallRegionVolume(t *testing.T) {
	// Partitioning slices a volume into regions of a handful of voxels
	// each; their high-curvature surfaces lose the most volume per pass,
	// so they bound the drift the smoother is allowed.
	mask := carve.NewVolumeMask(carve.IJK{10, 10, 10}, carve.DefaultMeta())
	for z := 0; z < 10; z++ {
		for y := 0; y < 10; y++ {
			for x := 0; x < 10; x++ {
				mask.Set(carve.IJK{x, y, z}, true)
			}
		}
	}
	lv, err := partition.Volume(mask, 25, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatal(err)
	}
	for _, label := range lv.Labels() {
		raw, err := mesher.ExtractRegion(lv, label, mesher.Options{SmoothPasses: mesher.NoSmoothing})
		if err != nil {
			t.Fatalf("label %d: %v", label, err)
		}
		smoothed, err := mesher.ExtractRegion(lv, label, mesher.Options{})
		if err != nil {
			t.Fatalf("label %d: %v", label, err)
		}
		v0 := raw.Volume()
		if drift := math.Abs(smoothed.Volume()-v0) / v0; drift > 0.05 {
			t.Errorf("label %d (%d voxels): smoothing drifted volume %.2f%%, want under 5%%",
				label, lv.CountOf(label), 100*drift)
		}
		if !smoothed.IsClosed() {
			t.Errorf("label %d: smoothed surface is not watertight", label)
		}
	}
}

func TestPhysicalCoordinateMapping(t *testing.T) {
	dims := carve.IJK{4, 4, 4}
	meta := carve.GridMeta{
		Spacing: r3.Vec{X: 2, Y: 3, Z: 4},
		Origin:  r3.Vec{X: 10, Y: 20, Z: 30},
	}
	opts := mesher.Options{SmoothPasses: mesher.NoSmoothing}
	ref, err := mesher.ExtractRegion(labeledBlock(dims, carve.DefaultMeta()), 1, opts)
	if err != nil {
		t.Fatal(err)
	}
	got, err := mesher.ExtractRegion(labeledBlock(dims, meta), 1, opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Vertices) != len(ref.Vertices) {
		t.Fatalf("vertex count %d differs from identity grid %d", len(got.Vertices), len(ref.Vertices))
	}
	// Extraction order is deterministic, so vertices pair up one to one
	// and must differ by exactly the grid transform.
	for i, p := range ref.Vertices {
		want := r3.Vec{X: 10 + 2*p.X, Y: 20 + 3*p.Y, Z: 30 + 4*p.Z}
		if r3.Norm(r3.Sub(got.Vertices[i], want)) > 1e-9 {
			t.Fatalf("vertex %d: got %v, want %v", i, got.Vertices[i], want)
		}
	}
}

func TestExtractRegionErrors(t *testing.T) {
	lv := labeledBlock(carve.IJK{3, 3, 3}, carve.DefaultMeta())

	var empty *carve.EmptyRegionError
	if _, err := mesher.ExtractRegion(lv, 5, mesher.Options{}); !errors.As(err, &empty) {
		t.Errorf("absent label: got %v, want EmptyRegionError", err)
	} else if empty.Label != 5 {
		t.Errorf("EmptyRegionError carries label %d, want 5", empty.Label)
	}

	// A threshold above every sample value yields no crossings at all.
	var degen *carve.DegenerateMeshError
	if _, err := mesher.ExtractRegion(lv, 1, mesher.Options{Threshold: 2}); !errors.As(err, &degen) {
		t.Errorf("unreachable threshold: got %v, want DegenerateMeshError", err)
	}
}

func TestGenerateAll(t *testing.T) {
	// Three slabs along x labeled 3, 1, 2; output must come back as 1, 2, 3.
	dims := carve.IJK{9, 4, 4}
	mask := carve.NewVolumeMask(dims, carve.DefaultMeta())
	lv := carve.NewLabeledVolume(mask)
	slab := []int32{3, 1, 2}
	for z := 0; z < dims[2]; z++ {
		for y := 0; y < dims[1]; y++ {
			for x := 0; x < dims[0]; x++ {
				lv.SetLabel(carve.IJK{x, y, z}, slab[x/3])
			}
		}
	}
	meshes, err := mesher.GenerateAll(lv, mesher.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(meshes) != 3 {
		t.Fatalf("got %d meshes, want 3", len(meshes))
	}
	for i, m := range meshes {
		if want := int32(i + 1); m.Label != want {
			t.Errorf("mesh %d carries label %d, want %d", i, m.Label, want)
		}
		if !m.IsClosed() {
			t.Errorf("label %d surface is not watertight", m.Label)
		}
	}
}

func TestGenerateAllEmpty(t *testing.T) {
	mask := carve.NewVolumeMask(carve.IJK{4, 4, 4}, carve.DefaultMeta())
	lv := carve.NewLabeledVolume(mask)
	if _, err := mesher.GenerateAll(lv, mesher.Options{}); !errors.Is(err, carve.ErrEmptyVolume) {
		t.Errorf("all-background volume: got %v, want ErrEmptyVolume", err)
	}
}

func TestMeshVolumeTetrahedron(t *testing.T) {
	m := &mesher.Mesh{
		Vertices: []r3.Vec{
			{},
			{X: 1},
			{Y: 1},
			{Z: 1},
		},
		Faces: [][3]int{
			{0, 2, 1},
			{0, 1, 3},
			{0, 3, 2},
			{1, 2, 3},
		},
	}
	if !m.IsClosed() {
		t.Error("tetrahedron is not watertight")
	}
	if v := m.Volume(); math.Abs(v-1./6.) > 1e-12 {
		t.Errorf("tetrahedron volume %v, want 1/6", v)
	}
}

func TestMeshIsClosedOpenSurface(t *testing.T) {
	m := &mesher.Mesh{
		Vertices: []r3.Vec{{}, {X: 1}, {Y: 1}},
		Faces:    [][3]int{{0, 1, 2}},
	}
	if m.IsClosed() {
		t.Error("lone triangle reported as watertight")
	}
	if (&mesher.Mesh{}).IsClosed() {
		t.Error("empty mesh reported as watertight")
	}
}
