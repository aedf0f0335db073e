package mesher

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Taubin lambda/mu smoothing. Each pass runs a Laplacian shrink step
// followed by an inflation step with a slightly larger negative factor,
// which damps voxel staircase artifacts while keeping the enclosed
// volume approximately constant. A plain Laplacian smoother is not an
// acceptable substitute here: it systematically shrinks closed
// surfaces.
//
// The pass pair only balances shrinkage in the pass-band limit; small
// high-curvature meshes still lose volume over repeated passes. A final
// uniform rescale about the vertex centroid restores the enclosed
// volume of the unsmoothed surface exactly.
const (
	taubinLambda = 0.5
	taubinMu     = -0.53
)

// buildAdjacency returns, per vertex, the deduplicated indices of all
// vertices sharing an edge with it.
func buildAdjacency(nverts int, faces [][3]int) [][]int {
	adj := make([][]int, nverts)
	seen := make(map[[2]int]struct{}, 3*len(faces)/2)
	for _, f := range faces {
		for i := 0; i < 3; i++ {
			a, b := f[i], f[(i+1)%3]
			if a > b {
				a, b = b, a
			}
			if _, ok := seen[[2]int{a, b}]; ok {
				continue
			}
			seen[[2]int{a, b}] = struct{}{}
			adj[a] = append(adj[a], b)
			adj[b] = append(adj[b], a)
		}
	}
	return adj
}

// smoothTaubin smooths verts in place over the given number of passes.
// The surface is closed so every vertex has neighbors; no boundary
// handling is needed.
func smoothTaubin(verts []r3.Vec, faces [][3]int, passes int) {
	if passes <= 0 || len(verts) == 0 {
		return
	}
	v0 := enclosedVolume(verts, faces)
	adj := buildAdjacency(len(verts), faces)
	delta := make([]r3.Vec, len(verts))
	for pass := 0; pass < passes; pass++ {
		smoothStep(verts, adj, delta, taubinLambda)
		smoothStep(verts, adj, delta, taubinMu)
	}
	restoreVolume(verts, faces, v0)
}

// enclosedVolume is the signed volume of the surface by the divergence
// theorem, positive for outward-oriented faces.
func enclosedVolume(verts []r3.Vec, faces [][3]int) float64 {
	var v float64
	for _, f := range faces {
		v += r3.Dot(verts[f[0]], r3.Cross(verts[f[1]], verts[f[2]]))
	}
	return v / 6
}

// restoreVolume scales verts uniformly about their centroid so the
// enclosed volume returns to v0. Uniform scaling multiplies any
// enclosed volume by the cube of the factor, so the restoration is
// exact up to rounding.
func restoreVolume(verts []r3.Vec, faces [][3]int, v0 float64) {
	v1 := enclosedVolume(verts, faces)
	if v0 <= 0 || v1 <= 0 {
		return
	}
	k := math.Cbrt(v0 / v1)
	var centroid r3.Vec
	for _, v := range verts {
		centroid = r3.Add(centroid, v)
	}
	centroid = r3.Scale(1/float64(len(verts)), centroid)
	for i, v := range verts {
		verts[i] = r3.Add(centroid, r3.Scale(k, r3.Sub(v, centroid)))
	}
}

// smoothStep displaces every vertex towards (factor > 0) or away from
// (factor < 0) the average of its neighbors.
func smoothStep(verts []r3.Vec, adj [][]int, delta []r3.Vec, factor float64) {
	for i, neighbors := range adj {
		if len(neighbors) == 0 {
			delta[i] = r3.Vec{}
			continue
		}
		var sum r3.Vec
		for _, j := range neighbors {
			sum = r3.Add(sum, verts[j])
		}
		avg := r3.Scale(1/float64(len(neighbors)), sum)
		delta[i] = r3.Scale(factor, r3.Sub(avg, verts[i]))
	}
	for i := range verts {
		verts[i] = r3.Add(verts[i], delta[i])
	}
}
