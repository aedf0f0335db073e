// Package partition assigns every occupied voxel of a volume mask to
// the nearest of N randomly drawn seed voxels, producing a labeled
// volume whose regions form a Voronoi tessellation of the occupied set.
//
// Distances are measured in voxel-index space, not physical space: the
// partition deliberately ignores voxel spacing, so anisotropic volumes
// yield grid-accurate rather than physically-accurate Voronoi cells.
package partition

import (
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/voxell/carve"
	"gonum.org/v1/gonum/spatial/kdtree"
)

// naiveThreshold is the seed count below which a linear scan beats
// building and querying a kd-tree.
const naiveThreshold = 16

// Volume partitions mask into the given number of regions. Every
// occupied voxel receives the 1-based ordinal of its nearest seed as a
// label; unoccupied voxels stay at label 0. Ties between equidistant
// seeds resolve to the lowest seed ordinal.
//
// Seeds are drawn without replacement, uniformly at random from the
// occupied voxels of mask using rng. A nil rng uses a time-seeded
// source and is therefore not reproducible; pass an explicit
// rand.New(rand.NewSource(seed)) for deterministic output.
//
// Volume is a pure function of (mask, regions, rng state): it fails
// with carve.ErrEmptyVolume when mask has no occupied voxels and with
// *carve.RegionCountError when regions is outside 1..occupied, in both
// cases without producing a partial partition.
func Volume(mask *carve.VolumeMask, regions int, rng *rand.Rand) (*carve.LabeledVolume, error) {
	occ := mask.OccupiedIndices()
	if len(occ) == 0 {
		return nil, carve.ErrEmptyVolume
	}
	if regions < 1 || regions > len(occ) {
		return nil, &carve.RegionCountError{Regions: regions, Occupied: len(occ)}
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	seeds := drawSeeds(occ, regions, rng)

	labeled := carve.NewLabeledVolume(mask)
	var nearest func(q carve.IJK) int32
	if regions < naiveThreshold {
		nearest = func(q carve.IJK) int32 { return nearestLinear(seeds, q) }
	} else {
		tree := kdtree.New(seedSet(seeds), false)
		nearest = func(q carve.IJK) int32 { return nearestKD(tree, q) }
	}
	// The sweep is embarrassingly parallel: the seed index is read-only
	// and every voxel writes its own cell of the output.
	workers := runtime.GOMAXPROCS(0)
	if workers > len(occ) {
		workers = 1
	}
	chunk := (len(occ) + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < len(occ); start += chunk {
		end := start + chunk
		if end > len(occ) {
			end = len(occ)
		}
		wg.Add(1)
		go func(part []carve.IJK) {
			defer wg.Done()
			for _, idx := range part {
				labeled.SetLabel(idx, nearest(idx))
			}
		}(occ[start:end])
	}
	wg.Wait()
	return labeled, nil
}

// drawSeeds picks n distinct voxels from occ by partial Fisher-Yates.
// occ is reordered in place; the first n entries become the seed set.
func drawSeeds(occ []carve.IJK, n int, rng *rand.Rand) seedSet {
	seeds := make(seedSet, n)
	for i := 0; i < n; i++ {
		j := i + rng.Intn(len(occ)-i)
		occ[i], occ[j] = occ[j], occ[i]
		seeds[i] = seedPoint{pos: occ[i].Vec(), ordinal: int32(i)}
	}
	return seeds
}

// nearestLinear scans seeds in ordinal order. Strict less keeps the
// lowest ordinal on distance ties.
func nearestLinear(seeds seedSet, q carve.IJK) int32 {
	qp := seedPoint{pos: q.Vec()}
	best := seeds[0]
	bestDist := qp.Distance(seeds[0])
	for _, s := range seeds[1:] {
		if d := qp.Distance(s); d < bestDist {
			best, bestDist = s, d
		}
	}
	return best.ordinal + 1
}

// nearestKD finds the minimum distance through the tree, then collects
// every seed at that exact distance to resolve ties to the lowest
// ordinal. Squared voxel-index distances are integers, so the equality
// radius is exact.
func nearestKD(tree *kdtree.Tree, q carve.IJK) int32 {
	qp := seedPoint{pos: q.Vec()}
	got, dist := tree.Nearest(qp)
	best := got.(seedPoint)
	keeper := kdtree.NewDistKeeper(dist)
	tree.NearestSet(keeper, qp)
	for _, c := range keeper.Heap {
		if c.Comparable == nil {
			continue
		}
		if c.Dist == dist {
			if s := c.Comparable.(seedPoint); s.ordinal < best.ordinal {
				best = s
			}
		}
	}
	return best.ordinal + 1
}
