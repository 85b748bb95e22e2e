package convert

import (
	"fmt"

	"github.com/packforge/modelpack/model"
)

// assembleMesh converts one source mesh on first encounter and memoizes the
// resulting output index; later references are lookups. All primitives of the
// mesh are merged into a single vertex/index buffer pair with a per-triangle
// material mapping; missing normals, tangents, and UVs are synthesized per
// primitive before the merge, so primitives with different attribute sets
// still concatenate into equal-length arrays. With deduplication enabled a
// content-identical previously
// finalized mesh short-circuits the append and the new candidate is dropped.
//
// Parameters:
//   - srcIdx: index into the document's mesh array
//
// Returns:
//   - uint32: the output mesh index referenced by the node
//   - error: fatal assembly error (topology, missing accessors)
func (b *builder) assembleMesh(srcIdx int) (uint32, error) {
	if idx, ok := b.meshIndex[srcIdx]; ok {
		return idx, nil
	}
	if srcIdx < 0 || srcIdx >= len(b.doc.Meshes) {
		return 0, fmt.Errorf("mesh index %d out of range", srcIdx)
	}
	src := &b.doc.Meshes[srcIdx]

	var (
		positions    [][3]float32
		normals      [][3]float32
		tangents     [][4]float32
		texCoords    [][2]float32
		indices      []uint32
		triMaterials []uint32
	)
	opaque := true
	emissive := false

	for primIdx := range src.Primitives {
		prim := &src.Primitives[primIdx]

		if prim.Topology != TopologyTriangles {
			return 0, fmt.Errorf("mesh %q primitive %d: %w", src.Name, primIdx, ErrNonTriangleTopology)
		}
		if prim.Positions == nil {
			return 0, fmt.Errorf("mesh %q primitive %d: %w", src.Name, primIdx, ErrMissingPositions)
		}
		if prim.Indices == nil {
			return 0, fmt.Errorf("mesh %q primitive %d: %w", src.Name, primIdx, ErrMissingIndices)
		}

		nverts := len(prim.Positions)

		primNormals := prim.Normals
		if primNormals == nil {
			primNormals = model.GenerateNormals(prim.Positions, prim.Indices)
		} else if len(primNormals) != nverts {
			return 0, fmt.Errorf("mesh %q primitive %d normals: %w", src.Name, primIdx, ErrAttributeLengthMismatch)
		}

		primTexCoords := prim.TexCoords
		if primTexCoords == nil {
			primTexCoords = make([][2]float32, nverts)
		} else if len(primTexCoords) != nverts {
			return 0, fmt.Errorf("mesh %q primitive %d texcoords: %w", src.Name, primIdx, ErrAttributeLengthMismatch)
		}

		primTangents := prim.Tangents
		if primTangents == nil {
			primTangents = model.GenerateTangents(prim.Positions, primNormals, prim.TexCoords, prim.Indices)
		} else if len(primTangents) != nverts {
			return 0, fmt.Errorf("mesh %q primitive %d tangents: %w", src.Name, primIdx, ErrAttributeLengthMismatch)
		}

		// Offset the primitive's local indices by the vertices already
		// accumulated for this mesh.
		base := uint32(len(positions))
		for _, idx := range prim.Indices {
			indices = append(indices, idx+base)
		}

		positions = append(positions, prim.Positions...)
		normals = append(normals, primNormals...)
		tangents = append(tangents, primTangents...)
		texCoords = append(texCoords, primTexCoords...)

		slot, err := b.harvestMaterial(prim.Material)
		if err != nil {
			return 0, fmt.Errorf("mesh %q primitive %d: %w", src.Name, primIdx, err)
		}

		numTriangles := len(prim.Indices) / 3
		for t := 0; t < numTriangles; t++ {
			triMaterials = append(triMaterials, slot)
		}

		mat := &b.materials[slot]
		opaque = opaque && mat.IsOpaque
		emissive = emissive || mat.IsEmissive()
	}

	packed := model.PackVertices(positions, normals, tangents, texCoords)
	mesh := model.NewMesh(packed, triMaterials, indices, opaque, emissive)

	if b.opts.MergeDuplicateMeshes {
		hash := mesh.ContentHash()
		for i := range b.meshes {
			if b.meshHashes[i] == hash && b.meshes[i].SameContent(&mesh) {
				b.meshIndex[srcIdx] = uint32(i)
				return uint32(i), nil
			}
		}
		b.meshHashes = append(b.meshHashes, hash)
	} else {
		b.meshHashes = append(b.meshHashes, 0)
	}

	out := uint32(len(b.meshes))
	b.meshes = append(b.meshes, mesh)
	b.meshIndex[srcIdx] = out
	return out, nil
}
