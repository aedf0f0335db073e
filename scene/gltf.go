package scene

import (
	"errors"
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// WriteGLB serializes the scene as binary glTF: one node and mesh per
// region, named region_<label>, with a per-region base color material.
// This is the interchange format the viewer consumes.
func (s *Scene) WriteGLB(path string) error {
	if len(s.regions) == 0 {
		return errors.New("scene: no regions to export")
	}
	doc := gltf.NewDocument()
	for _, rg := range s.regions {
		m := rg.Mesh
		positions := make([][3]float32, len(m.Vertices))
		for i, v := range m.Vertices {
			positions[i] = [3]float32{float32(v.X), float32(v.Y), float32(v.Z)}
		}
		indices := make([]uint32, 0, 3*len(m.Faces))
		for _, f := range m.Faces {
			indices = append(indices, uint32(f[0]), uint32(f[1]), uint32(f[2]))
		}
		posAcc := modeler.WritePosition(doc, positions)
		idxAcc := modeler.WriteIndices(doc, indices)

		doc.Materials = append(doc.Materials, &gltf.Material{
			Name: fmt.Sprintf("region_%d_mat", m.Label),
			PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
				BaseColorFactor: &[4]float32{
					float32(rg.Color.R) / 255,
					float32(rg.Color.G) / 255,
					float32(rg.Color.B) / 255,
					float32(rg.Color.A) / 255,
				},
			},
		})
		doc.Meshes = append(doc.Meshes, &gltf.Mesh{
			Name: fmt.Sprintf("region_%d", m.Label),
			Primitives: []*gltf.Primitive{{
				Indices: gltf.Index(idxAcc),
				Attributes: map[string]uint32{
					gltf.POSITION: posAcc,
				},
				Material: gltf.Index(uint32(len(doc.Materials) - 1)),
			}},
		})
		doc.Nodes = append(doc.Nodes, &gltf.Node{
			Name: fmt.Sprintf("region_%d", m.Label),
			Mesh: gltf.Index(uint32(len(doc.Meshes) - 1)),
		})
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(len(doc.Nodes)-1))
	}
	return gltf.SaveBinary(doc, path)
}
