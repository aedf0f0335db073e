package carve

import (
	"errors"
	"fmt"
)

// ErrEmptyVolume reports a mask with zero occupied voxels. Partitioning
// an empty volume is undefined and fails before any seed is drawn.
var ErrEmptyVolume = errors.New("carve: volume mask has no occupied voxels")

// RegionCountError reports a requested region count outside 1..occupied.
type RegionCountError struct {
	Regions  int
	Occupied int
}

func (e *RegionCountError) Error() string {
	return fmt.Sprintf("carve: invalid region count %d for %d occupied voxels", e.Regions, e.Occupied)
}

// EmptyRegionError reports a label with zero assigned voxels at
// extraction time.
type EmptyRegionError struct {
	Label int32
}

func (e *EmptyRegionError) Error() string {
	return fmt.Sprintf("carve: label %d has no voxels to extract", e.Label)
}

// DegenerateMeshError reports an extraction that produced no surface
// despite a non-empty labeled sub-volume.
type DegenerateMeshError struct {
	Label int32
}

func (e *DegenerateMeshError) Error() string {
	return fmt.Sprintf("carve: extraction of label %d produced a degenerate mesh", e.Label)
}
