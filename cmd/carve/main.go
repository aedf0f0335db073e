// Command carve converts a volumetric object (an analytic primitive or
// a NIfTI binary mask) into a segmented scene: the occupied volume is
// partitioned into N nearest-seed regions and each region becomes one
// closed, smoothed surface mesh.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/voxell/carve/geom"
	"github.com/voxell/carve/mesher"
	"github.com/voxell/carve/partition"
	"github.com/voxell/carve/scene"
	"gonum.org/v1/gonum/spatial/r3"
)

func main() {
	var (
		shape   = flag.String("shape", "sphere", "analytic shape: sphere, box or cylinder")
		size    = flag.Float64("size", 1.0, "characteristic size of the analytic shape")
		nifti   = flag.String("nifti", "", "NIfTI-1 mask file (.nii or .nii.gz); overrides -shape")
		res     = flag.Float64("res", 0.02, "rasterization resolution for analytic shapes")
		regions = flag.Int("regions", 8, "number of regions to partition into")
		seed    = flag.Int64("seed", 42, "random seed for seed-voxel selection, -1 for nondeterministic")
		smooth  = flag.Int("smooth", mesher.DefaultSmoothPasses, "smoothing passes, 0 disables")
		out     = flag.String("o", "model.glb", "output GLB scene path")
		stl     = flag.String("stl", "", "also write a binary STL to this path")
		preview = flag.String("preview", "", "also write a PNG preview to this path")
	)
	flag.Parse()

	src, err := source(*shape, *size, *nifti, *res)
	if err != nil {
		log.Fatal(err)
	}
	start := time.Now()
	log.Print("building volume mask...")
	mask, err := src.VolumeMask()
	if err != nil {
		log.Fatal(err)
	}
	dims := mask.Dims()
	log.Printf("mask %dx%dx%d, %d occupied voxels", dims[0], dims[1], dims[2], mask.OccupiedCount())

	var rng *rand.Rand
	if *seed >= 0 {
		rng = rand.New(rand.NewSource(*seed))
	}
	log.Printf("partitioning into %d regions...", *regions)
	labeled, err := partition.Volume(mask, *regions, rng)
	if err != nil {
		log.Fatal(err)
	}

	log.Print("extracting region surfaces...")
	passes := *smooth
	if passes == 0 {
		passes = mesher.NoSmoothing
	}
	meshes, err := mesher.GenerateAll(labeled, mesher.Options{SmoothPasses: passes})
	if err != nil {
		// Failed labels are skipped, the rest of the scene still exports.
		log.Printf("warning: %v", err)
	}
	if len(meshes) == 0 {
		log.Fatal("no region produced a mesh")
	}

	sc := scene.New()
	sc.AddAll(meshes)
	log.Printf("exporting %d regions to %s...", sc.Len(), *out)
	if err := sc.WriteGLB(*out); err != nil {
		log.Fatal(err)
	}
	if *stl != "" {
		if err := sc.CreateSTL(*stl); err != nil {
			log.Fatal(err)
		}
	}
	if *preview != "" {
		if err := sc.SavePreviewPNG(*preview, scene.DefaultView()); err != nil {
			log.Fatal(err)
		}
	}
	log.Printf("done in %v", time.Since(start).Round(time.Millisecond))
}

// source picks the volume provider from the flags.
func source(shape string, size float64, nifti string, res float64) (geom.VolumeSource, error) {
	if nifti != "" {
		if _, err := os.Stat(nifti); err != nil {
			return nil, err
		}
		return &geom.Nifti{Path: nifti}, nil
	}
	var solid geom.Solid
	switch shape {
	case "sphere":
		solid = geom.Sphere(size)
	case "box":
		solid = geom.Box(r3.Vec{X: size, Y: size, Z: size}, 0)
	case "cylinder":
		solid = geom.Cylinder(size, size/2, 0)
	default:
		return nil, fmt.Errorf("unknown shape %q", shape)
	}
	return geom.NewAnalytic(solid, res), nil
}
