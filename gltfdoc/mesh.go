package gltfdoc

import (
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/packforge/modelpack/convert"
)

func (imp *importer) extractMeshes() ([]convert.SourceMesh, error) {
	meshes := make([]convert.SourceMesh, len(imp.src.Meshes))
	for i, gm := range imp.src.Meshes {
		mesh := convert.SourceMesh{
			Name:       gm.Name,
			Primitives: make([]convert.Primitive, len(gm.Primitives)),
		}
		for pi, gp := range gm.Primitives {
			prim, err := imp.extractPrimitive(gp)
			if err != nil {
				return nil, fmt.Errorf("mesh %d primitive %d: %w", i, pi, err)
			}
			mesh.Primitives[pi] = prim
		}
		meshes[i] = mesh
	}
	return meshes, nil
}

// extractPrimitive decodes one primitive's accessors. Absent attributes stay
// nil; the converter decides whether that is fatal (positions, indices) or a
// synthesis trigger (normals, tangents, texture coordinates).
func (imp *importer) extractPrimitive(gp *gltf.Primitive) (convert.Primitive, error) {
	prim := convert.Primitive{Topology: topologyOf(gp.Mode)}

	if idx, ok := gp.Attributes[gltf.POSITION]; ok {
		acc, err := imp.accessor(idx)
		if err != nil {
			return prim, fmt.Errorf("positions: %w", err)
		}
		positions, err := modeler.ReadPosition(imp.src, acc, nil)
		if err != nil {
			return prim, fmt.Errorf("positions: %w", err)
		}
		prim.Positions = positions
	}

	if idx, ok := gp.Attributes[gltf.NORMAL]; ok {
		acc, err := imp.accessor(idx)
		if err != nil {
			return prim, fmt.Errorf("normals: %w", err)
		}
		normals, err := modeler.ReadNormal(imp.src, acc, nil)
		if err != nil {
			return prim, fmt.Errorf("normals: %w", err)
		}
		prim.Normals = normals
	}

	if idx, ok := gp.Attributes[gltf.TANGENT]; ok {
		acc, err := imp.accessor(idx)
		if err != nil {
			return prim, fmt.Errorf("tangents: %w", err)
		}
		tangents, err := modeler.ReadTangent(imp.src, acc, nil)
		if err != nil {
			return prim, fmt.Errorf("tangents: %w", err)
		}
		prim.Tangents = tangents
	}

	if idx, ok := gp.Attributes[gltf.TEXCOORD_0]; ok {
		acc, err := imp.accessor(idx)
		if err != nil {
			return prim, fmt.Errorf("texture coordinates: %w", err)
		}
		uvs, err := modeler.ReadTextureCoord(imp.src, acc, nil)
		if err != nil {
			return prim, fmt.Errorf("texture coordinates: %w", err)
		}
		prim.TexCoords = uvs
	}

	if gp.Indices != nil {
		acc, err := imp.accessor(*gp.Indices)
		if err != nil {
			return prim, fmt.Errorf("indices: %w", err)
		}
		indices, err := modeler.ReadIndices(imp.src, acc, nil)
		if err != nil {
			return prim, fmt.Errorf("indices: %w", err)
		}
		prim.Indices = indices
	}

	if gp.Material != nil {
		mat := *gp.Material
		if mat < 0 || mat >= len(imp.src.Materials) {
			return prim, fmt.Errorf("material %d out of range", mat)
		}
		prim.Material = &mat
	}

	return prim, nil
}

func (imp *importer) accessor(idx int) (*gltf.Accessor, error) {
	if idx < 0 || idx >= len(imp.src.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", idx)
	}
	return imp.src.Accessors[idx], nil
}

func topologyOf(mode gltf.PrimitiveMode) convert.Topology {
	switch mode {
	case gltf.PrimitivePoints:
		return convert.TopologyPoints
	case gltf.PrimitiveLines:
		return convert.TopologyLines
	case gltf.PrimitiveLineLoop:
		return convert.TopologyLineLoop
	case gltf.PrimitiveLineStrip:
		return convert.TopologyLineStrip
	case gltf.PrimitiveTriangleStrip:
		return convert.TopologyTriangleStrip
	case gltf.PrimitiveTriangleFan:
		return convert.TopologyTriangleFan
	default:
		return convert.TopologyTriangles
	}
}
