package geom_test

import (
	"math"
	"testing"

	"github.com/voxell/carve/geom"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestAnalyticSphereOccupancy(t *testing.T) {
	const (
		radius = 0.5
		res    = 0.05
	)
	mask, err := geom.NewAnalytic(geom.Sphere(radius), res).VolumeMask()
	if err != nil {
		t.Fatal(err)
	}
	dims := mask.Dims()
	// The 1.01-scaled bounding box spans 1.01 units per axis.
	if want := int(math.Ceil(1.01 / res)); dims[0] != want || dims[1] != want || dims[2] != want {
		t.Errorf("dims %v, want %d per axis", dims, want)
	}
	// Occupied voxel count approximates the sphere volume.
	analytic := 4. / 3. * math.Pi * radius * radius * radius
	got := float64(mask.OccupiedCount()) * res * res * res
	if math.Abs(got-analytic)/analytic > 0.05 {
		t.Errorf("rasterized volume %.4f, analytic %.4f, want within 5%%", got, analytic)
	}
}

func TestAnalyticVoxelCenters(t *testing.T) {
	const res = 0.1
	mask, err := geom.NewAnalytic(geom.Sphere(0.5), res).VolumeMask()
	if err != nil {
		t.Fatal(err)
	}
	meta := mask.Meta()
	if meta.Spacing != (r3.Vec{X: res, Y: res, Z: res}) {
		t.Errorf("spacing %v, want %v per axis", meta.Spacing, res)
	}
	// The origin is the first voxel center: half a voxel inside the
	// scaled bounding box corner.
	wantOrigin := -0.505 + res/2
	if math.Abs(meta.Origin.X-wantOrigin) > 1e-12 {
		t.Errorf("origin %v, want %v per axis", meta.Origin, wantOrigin)
	}
	// Every occupied voxel center must lie inside the sphere.
	for _, idx := range mask.OccupiedIndices() {
		p := meta.PhysicalAt(idx.Vec())
		if r3.Norm(p) >= 0.5 {
			t.Fatalf("occupied voxel %v has center %v outside the sphere", idx, p)
		}
	}
}

// hollow is a solid whose distance field is positive everywhere, so
// rasterizing it can never mark a voxel.
type hollow struct{}

func (hollow) Evaluate(r3.Vec) float64 { return 1 }
func (hollow) Bounds() r3.Box {
	return r3.Box{Min: r3.Vec{X: -1, Y: -1, Z: -1}, Max: r3.Vec{X: 1, Y: 1, Z: 1}}
}

func TestAnalyticNoOccupancy(t *testing.T) {
	if _, err := geom.NewAnalytic(hollow{}, 0.5).VolumeMask(); err == nil {
		t.Fatal("empty rasterization did not fail")
	}
}

func TestNewAnalyticPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("non-positive resolution did not panic")
		}
	}()
	geom.NewAnalytic(geom.Sphere(1), 0)
}
