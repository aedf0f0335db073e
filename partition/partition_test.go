package partition_test

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/voxell/carve"
	"github.com/voxell/carve/partition"
)

// solidBlock returns a fully occupied mask of the given dimensions.
func solidBlock(dims carve.IJK) *carve.VolumeMask {
	m := carve.NewVolumeMask(dims, carve.DefaultMeta())
	for z := 0; z < dims[2]; z++ {
		for y := 0; y < dims[1]; y++ {
			for x := 0; x < dims[0]; x++ {
				m.Set(carve.IJK{x, y, z}, true)
			}
		}
	}
	return m
}

func labelGrid(v *carve.LabeledVolume) map[carve.IJK]int32 {
	out := make(map[carve.IJK]int32)
	dims := v.Dims()
	for z := 0; z < dims[2]; z++ {
		for y := 0; y < dims[1]; y++ {
			for x := 0; x < dims[0]; x++ {
				idx := carve.IJK{x, y, z}
				if l := v.Label(idx); l != 0 {
					out[idx] = l
				}
			}
		}
	}
	return out
}

func TestVolumeCoversOccupied(t *testing.T) {
	mask := solidBlock(carve.IJK{8, 8, 8})
	const regions = 5
	labeled, err := partition.Volume(mask, regions, rand.New(rand.NewSource(11)))
	if err != nil {
		t.Fatal(err)
	}
	total := 0
	for l := int32(1); l <= regions; l++ {
		n := labeled.CountOf(l)
		if n == 0 {
			t.Errorf("label %d received no voxels", l)
		}
		total += n
	}
	if occ := mask.OccupiedCount(); total != occ {
		t.Errorf("labeled %d voxels, want %d", total, occ)
	}
	if n := labeled.CountOf(0); n != 0 {
		t.Errorf("%d occupied voxels left at background", n)
	}
}

func TestVolumeDeterministic(t *testing.T) {
	mask := solidBlock(carve.IJK{10, 10, 6})
	a, err := partition.Volume(mask, 7, rand.New(rand.NewSource(99)))
	if err != nil {
		t.Fatal(err)
	}
	b, err := partition.Volume(mask, 7, rand.New(rand.NewSource(99)))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(labelGrid(a), labelGrid(b)); diff != "" {
		t.Errorf("same seed produced different partitions (-first +second):\n%s", diff)
	}
}

func TestVolumeKDPathDeterministic(t *testing.T) {
	// Enough regions to have Volume go through the kd-tree.
	mask := solidBlock(carve.IJK{12, 12, 12})
	a, err := partition.Volume(mask, 40, rand.New(rand.NewSource(5)))
	if err != nil {
		t.Fatal(err)
	}
	b, err := partition.Volume(mask, 40, rand.New(rand.NewSource(5)))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(labelGrid(a), labelGrid(b)); diff != "" {
		t.Errorf("same seed produced different partitions (-first +second):\n%s", diff)
	}
	if got := len(a.Labels()); got != 40 {
		t.Errorf("got %d distinct labels, want 40", got)
	}
}

func TestVolumeOneRegionPerVoxel(t *testing.T) {
	mask := solidBlock(carve.IJK{3, 3, 3})
	occ := mask.OccupiedCount()
	labeled, err := partition.Volume(mask, occ, rand.New(rand.NewSource(2)))
	if err != nil {
		t.Fatal(err)
	}
	for l := int32(1); l <= int32(occ); l++ {
		if n := labeled.CountOf(l); n != 1 {
			t.Errorf("label %d has %d voxels, want exactly 1", l, n)
		}
	}
}

func TestVolumeDisjointClusters(t *testing.T) {
	// Two occupied clusters far apart. With one seed in each cluster,
	// every voxel must take its own cluster's label.
	mask := carve.NewVolumeMask(carve.IJK{40, 4, 4}, carve.DefaultMeta())
	var left, right []carve.IJK
	for z := 0; z < 4; z++ {
		for y := 0; y < 4; y++ {
			for x := 0; x < 4; x++ {
				a := carve.IJK{x, y, z}
				b := carve.IJK{x + 36, y, z}
				mask.Set(a, true)
				mask.Set(b, true)
				left = append(left, a)
				right = append(right, b)
			}
		}
	}
	// Scan seeds until the random draw lands one seed per cluster.
	for s := int64(0); s < 64; s++ {
		labeled, err := partition.Volume(mask, 2, rand.New(rand.NewSource(s)))
		if err != nil {
			t.Fatal(err)
		}
		l0 := labeled.Label(left[0])
		r0 := labeled.Label(right[0])
		if l0 == r0 {
			continue // both seeds in one cluster, try another draw
		}
		for _, idx := range left {
			if got := labeled.Label(idx); got != l0 {
				t.Fatalf("seed %d: left voxel %v labeled %d, want %d", s, idx, got, l0)
			}
		}
		for _, idx := range right {
			if got := labeled.Label(idx); got != r0 {
				t.Fatalf("seed %d: right voxel %v labeled %d, want %d", s, idx, got, r0)
			}
		}
		return
	}
	t.Fatal("no seed produced one seed per cluster")
}

func TestVolumeErrors(t *testing.T) {
	empty := carve.NewVolumeMask(carve.IJK{4, 4, 4}, carve.DefaultMeta())
	if _, err := partition.Volume(empty, 1, nil); !errors.Is(err, carve.ErrEmptyVolume) {
		t.Errorf("empty mask: got %v, want ErrEmptyVolume", err)
	}

	mask := solidBlock(carve.IJK{2, 2, 2})
	var rcErr *carve.RegionCountError
	if _, err := partition.Volume(mask, 0, nil); !errors.As(err, &rcErr) {
		t.Errorf("zero regions: got %v, want RegionCountError", err)
	}
	if _, err := partition.Volume(mask, 9, nil); !errors.As(err, &rcErr) {
		t.Errorf("too many regions: got %v, want RegionCountError", err)
	} else if rcErr.Regions != 9 || rcErr.Occupied != 8 {
		t.Errorf("RegionCountError carries %d/%d, want 9/8", rcErr.Regions, rcErr.Occupied)
	}
}
