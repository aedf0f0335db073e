// Package carve defines the volumetric data model shared by the
// partitioning and meshing pipeline: binary occupancy grids, labeled
// volumes and the metadata mapping voxel indices to physical space.
//
// The pipeline flows strictly in one direction:
//
//	geom.VolumeSource -> carve.VolumeMask -> partition.Volume ->
//	carve.LabeledVolume -> mesher.GenerateAll -> scene.Scene
//
// Grids are created once by their producer and read-only afterwards.
package carve
