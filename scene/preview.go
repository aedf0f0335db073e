package scene

import (
	"errors"
	"math"

	"github.com/fogleman/fauxgl"
	"github.com/nfnt/resize"
	"github.com/voxell/carve/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Offscreen preview rendering. The pipeline saves a PNG of the
// assembled scene as a debug artifact so a run can be sanity checked
// without opening the viewer.

// ViewConfig positions the preview camera.
type ViewConfig struct {
	// Lookat is the point the camera looks at.
	Lookat r3.Vec
	// Up is the camera up direction.
	Up r3.Vec
	// Eyepos is the camera position.
	Eyepos r3.Vec
	Far    float64
	Near   float64
}

// DefaultView frames the bi-unit cube from a corner.
func DefaultView() ViewConfig {
	return ViewConfig{
		Up:     r3.Vec{Z: 1},
		Eyepos: d3.Elem(3),
		Near:   1,
		Far:    10,
	}
}

// SavePreviewPNG renders the visible regions with per-region colors and
// writes a PNG to path. The scene is fit to a bi-unit cube centered on
// the origin before rendering, so the default view frames any volume.
func (s *Scene) SavePreviewPNG(path string, view ViewConfig) error {
	if len(s.regions) == 0 {
		return errors.New("scene: nothing to preview")
	}
	const (
		width, height = 1280, 720 // output width and height in pixels
		scale         = 2         // supersampling, downsampled below
		fovy          = 30        // vertical field of view in degrees
	)
	fit := s.biUnitTransform()

	var (
		eye    = fauxgl.V(view.Eyepos.X, view.Eyepos.Y, view.Eyepos.Z)
		center = fauxgl.V(view.Lookat.X, view.Lookat.Y, view.Lookat.Z)
		up     = fauxgl.V(view.Up.X, view.Up.Y, view.Up.Z)
		light  = fauxgl.V(-0.75, 1, 0.25).Normalize()
	)
	context := fauxgl.NewContext(width*scale, height*scale)
	context.ClearColorBufferWith(fauxgl.HexColor("#FFF8E3"))
	aspect := float64(width) / float64(height)
	matrix := fauxgl.LookAt(eye, center, up).Perspective(fovy, aspect, view.Near, view.Far)

	for _, rg := range s.regions {
		if !rg.Visible {
			continue
		}
		tris := make([]*fauxgl.Triangle, 0, len(rg.Mesh.Faces))
		for _, t := range rg.Mesh.Triangles() {
			p0, p1, p2 := fit(t[0]), fit(t[1]), fit(t[2])
			tris = append(tris, fauxgl.NewTriangleForPoints(
				fauxgl.V(p0.X, p0.Y, p0.Z),
				fauxgl.V(p1.X, p1.Y, p1.Z),
				fauxgl.V(p2.X, p2.Y, p2.Z),
			))
		}
		shader := fauxgl.NewPhongShader(matrix, light, eye)
		shader.ObjectColor = fauxgl.MakeColor(rg.Color)
		context.Shader = shader
		context.DrawMesh(fauxgl.NewTriangleMesh(tris))
	}
	// downsample image for antialiasing
	img := resize.Resize(width, height, context.Image(), resize.Bilinear)
	return fauxgl.SavePNG(path, img)
}

// biUnitTransform maps scene coordinates into the bi-unit cube centered
// on the origin, preserving aspect ratio.
func (s *Scene) biUnitTransform() func(r3.Vec) r3.Vec {
	min := d3.Elem(math.Inf(1))
	max := d3.Elem(math.Inf(-1))
	for _, rg := range s.regions {
		for _, v := range rg.Mesh.Vertices {
			min = d3.MinElem(min, v)
			max = d3.MaxElem(max, v)
		}
	}
	center := r3.Scale(0.5, r3.Add(min, max))
	k := 2 / d3.Max(r3.Sub(max, min))
	return func(v r3.Vec) r3.Vec {
		return r3.Scale(k, r3.Sub(v, center))
	}
}
