package model

import (
	"bytes"
	"hash/fnv"
	"math"

	"github.com/packforge/modelpack/common"
	"github.com/packforge/modelpack/packing"
)

// PackedVertex is the fixed-layout vertex record stored in a Mesh. Directions
// are octahedral-quantized to one 32-bit word each; the tangent's handedness
// sign is kept as a separate scalar so the full VEC4 tangent can be
// reconstructed.
type PackedVertex struct {
	Position         [3]float32
	Normal           packing.UnitVec
	TexCoord         [2]float32
	Tangent          packing.UnitVec
	TangentHandiness float32
}

// Mesh is one packed triangle mesh. Indices address PackedVertices; each
// triangle additionally carries the mesh-local index of its material.
type Mesh struct {
	PackedVertices []PackedVertex

	// TriangleMaterialIndices has one entry per triangle
	// (len == len(Indices)/3), referencing Model.Materials.
	TriangleMaterialIndices []uint32

	Indices []uint32

	// Opaque is the AND of the constituent materials' opacity; IsEmissive is
	// the OR of their emissivity.
	Opaque     bool
	IsEmissive bool

	// BoundsMin and BoundsMax are the axis-aligned bounds over vertex
	// positions in mesh-local space (+Inf/-Inf for an empty mesh).
	BoundsMin [3]float32
	BoundsMax [3]float32
}

// NewMesh builds a Mesh and computes its local bounds from the packed vertex
// positions. An empty vertex array yields the empty-set bounds sentinel.
//
// Parameters:
//   - packedVertices: the packed vertex array
//   - triangleMaterialIndices: one material reference per triangle
//   - indices: the triangle index buffer (3 per triangle)
//   - opaque: combined opacity of the constituent materials
//   - isEmissive: combined emissivity of the constituent materials
//
// Returns:
//   - Mesh: the finished mesh with bounds populated
func NewMesh(packedVertices []PackedVertex, triangleMaterialIndices, indices []uint32, opaque, isEmissive bool) Mesh {
	bmin, bmax := EmptyBounds()
	for i := range packedVertices {
		p := packedVertices[i].Position
		for j := 0; j < 3; j++ {
			if p[j] < bmin[j] {
				bmin[j] = p[j]
			}
			if p[j] > bmax[j] {
				bmax[j] = p[j]
			}
		}
	}

	return Mesh{
		PackedVertices:          packedVertices,
		TriangleMaterialIndices: triangleMaterialIndices,
		Indices:                 indices,
		Opaque:                  opaque,
		IsEmissive:              isEmissive,
		BoundsMin:               bmin,
		BoundsMax:               bmax,
	}
}

// ContentHash returns an FNV-1a digest over the mesh's packed vertex buffer,
// index buffer, and triangle-material mapping. Equal content always hashes
// equal; callers resolving a hash match must confirm with SameContent before
// treating two meshes as duplicates.
func (m *Mesh) ContentHash() uint64 {
	h := fnv.New64a()
	h.Write(common.SliceToBytes(m.PackedVertices))
	h.Write(common.SliceToBytes(m.Indices))
	h.Write(common.SliceToBytes(m.TriangleMaterialIndices))
	return h.Sum64()
}

// SameContent reports whether two meshes have byte-identical packed vertices,
// indices, and triangle-material mappings.
func (m *Mesh) SameContent(other *Mesh) bool {
	return bytes.Equal(common.SliceToBytes(m.PackedVertices), common.SliceToBytes(other.PackedVertices)) &&
		bytes.Equal(common.SliceToBytes(m.Indices), common.SliceToBytes(other.Indices)) &&
		bytes.Equal(common.SliceToBytes(m.TriangleMaterialIndices), common.SliceToBytes(other.TriangleMaterialIndices))
}

// PackVertices maps the parallel attribute arrays (one entry per position) to
// packed vertex records, quantizing the normal and tangent direction and
// splitting off the tangent's handedness sign. An attribute array shorter
// than positions yields per-vertex defaults past its end (+Y normal, zero
// tangent with +1 handedness, zero UV) instead of indexing out of range.
//
// Parameters:
//   - positions: vertex positions, copied verbatim
//   - normals: unit normals, octahedral-quantized
//   - tangents: VEC4 tangents (xyz direction, w handedness)
//   - texCoords: UVs, copied verbatim
//
// Returns:
//   - []PackedVertex: one record per input vertex
func PackVertices(positions [][3]float32, normals [][3]float32, tangents [][4]float32, texCoords [][2]float32) []PackedVertex {
	packed := make([]PackedVertex, len(positions))
	for i := range positions {
		normal := [3]float32{0, 1, 0}
		if i < len(normals) {
			normal = normals[i]
		}
		tangent := [4]float32{0, 0, 0, 1}
		if i < len(tangents) {
			tangent = tangents[i]
		}
		var uv [2]float32
		if i < len(texCoords) {
			uv = texCoords[i]
		}
		packed[i] = PackedVertex{
			Position:         positions[i],
			Normal:           packing.EncodeUnitVec(normal[0], normal[1], normal[2]),
			TexCoord:         uv,
			Tangent:          packing.EncodeUnitVec(tangent[0], tangent[1], tangent[2]),
			TangentHandiness: tangent[3],
		}
	}
	return packed
}

// GenerateNormals synthesizes smooth per-vertex normals from triangle
// geometry. Each triangle's unnormalized face normal (cross product of its
// edges, length proportional to area) is accumulated onto its three vertices;
// the accumulated sums are normalized at the end, so larger triangles weigh
// more. A vertex touched by no triangle (or whose contributions cancel)
// falls back to +Y rather than a NaN direction.
//
// Parameters:
//   - positions: vertex positions
//   - indices: triangle index buffer (3 per triangle)
//
// Returns:
//   - [][3]float32: one unit normal per vertex
func GenerateNormals(positions [][3]float32, indices []uint32) [][3]float32 {
	n := len(positions)
	accum := make([][3]float32, n)

	for i := 0; i+2 < len(indices); i += 3 {
		i0, i1, i2 := indices[i], indices[i+1], indices[i+2]
		if int(i0) >= n || int(i1) >= n || int(i2) >= n {
			continue
		}

		p0, p1, p2 := positions[i0], positions[i1], positions[i2]

		e1 := [3]float32{p1[0] - p0[0], p1[1] - p0[1], p1[2] - p0[2]}
		e2 := [3]float32{p2[0] - p0[0], p2[1] - p0[1], p2[2] - p0[2]}

		face := [3]float32{
			e1[1]*e2[2] - e1[2]*e2[1],
			e1[2]*e2[0] - e1[0]*e2[2],
			e1[0]*e2[1] - e1[1]*e2[0],
		}

		for _, idx := range [3]uint32{i0, i1, i2} {
			accum[idx][0] += face[0]
			accum[idx][1] += face[1]
			accum[idx][2] += face[2]
		}
	}

	normals := make([][3]float32, n)
	for i := range accum {
		a := accum[i]
		length := float32(math.Sqrt(float64(a[0]*a[0] + a[1]*a[1] + a[2]*a[2])))
		if length < 1e-12 {
			normals[i] = [3]float32{0, 1, 0}
			continue
		}
		inv := 1 / length
		normals[i] = [3]float32{a[0] * inv, a[1] * inv, a[2] * inv}
	}
	return normals
}

// GenerateTangents synthesizes per-vertex VEC4 tangents (xyz direction,
// w handedness) using Lengyel's UV-gradient method: per-triangle tangent and
// bitangent directions are solved from edge and UV deltas, accumulated per
// vertex, then Gram-Schmidt-orthogonalized against the vertex normal. The
// handedness is the sign of the triple product of normal, orthogonalized
// tangent, and accumulated bitangent.
//
// With no texture coordinates there is no tangent space to reconstruct: the
// result is the zero direction with handedness +1 at every vertex. Triangles
// with zero parametric (UV) area contribute nothing.
//
// Parameters:
//   - positions: vertex positions
//   - normals: unit vertex normals (given or synthesized)
//   - texCoords: vertex UVs; empty slice short-circuits to zero tangents
//   - indices: triangle index buffer (3 per triangle)
//
// Returns:
//   - [][4]float32: one tangent per vertex
func GenerateTangents(positions [][3]float32, normals [][3]float32, texCoords [][2]float32, indices []uint32) [][4]float32 {
	n := len(positions)
	tangents := make([][4]float32, n)

	if len(texCoords) == 0 {
		for i := range tangents {
			tangents[i] = [4]float32{0, 0, 0, 1}
		}
		return tangents
	}

	tan := make([][3]float32, n)
	btan := make([][3]float32, n)

	for i := 0; i+2 < len(indices); i += 3 {
		i0, i1, i2 := indices[i], indices[i+1], indices[i+2]
		if int(i0) >= n || int(i1) >= n || int(i2) >= n {
			continue
		}

		p0, p1, p2 := positions[i0], positions[i1], positions[i2]
		w0, w1, w2 := texCoords[i0], texCoords[i1], texCoords[i2]

		x1, y1, z1 := p1[0]-p0[0], p1[1]-p0[1], p1[2]-p0[2]
		x2, y2, z2 := p2[0]-p0[0], p2[1]-p0[1], p2[2]-p0[2]

		s1, t1 := w1[0]-w0[0], w1[1]-w0[1]
		s2, t2 := w2[0]-w0[0], w2[1]-w0[1]

		det := s1*t2 - s2*t1
		if det == 0 {
			continue
		}
		r := 1 / det

		sdir := [3]float32{(t2*x1 - t1*x2) * r, (t2*y1 - t1*y2) * r, (t2*z1 - t1*z2) * r}
		tdir := [3]float32{(s1*x2 - s2*x1) * r, (s1*y2 - s2*y1) * r, (s1*z2 - s2*z1) * r}

		for _, idx := range [3]uint32{i0, i1, i2} {
			tan[idx][0] += sdir[0]
			tan[idx][1] += sdir[1]
			tan[idx][2] += sdir[2]
			btan[idx][0] += tdir[0]
			btan[idx][1] += tdir[1]
			btan[idx][2] += tdir[2]
		}
	}

	for i := 0; i < n; i++ {
		nrm := normals[i]
		t := tan[i]

		nDotT := nrm[0]*t[0] + nrm[1]*t[1] + nrm[2]*t[2]
		ortho := [3]float32{
			t[0] - nrm[0]*nDotT,
			t[1] - nrm[1]*nDotT,
			t[2] - nrm[2]*nDotT,
		}

		length := float32(math.Sqrt(float64(ortho[0]*ortho[0] + ortho[1]*ortho[1] + ortho[2]*ortho[2])))
		if length < 1e-12 {
			tangents[i] = [4]float32{0, 0, 0, 1}
			continue
		}
		inv := 1 / length
		ortho[0] *= inv
		ortho[1] *= inv
		ortho[2] *= inv

		cross := [3]float32{
			nrm[1]*t[2] - nrm[2]*t[1],
			nrm[2]*t[0] - nrm[0]*t[2],
			nrm[0]*t[1] - nrm[1]*t[0],
		}
		w := float32(1)
		if cross[0]*btan[i][0]+cross[1]*btan[i][1]+cross[2]*btan[i][2] < 0 {
			w = -1
		}

		tangents[i] = [4]float32{ortho[0], ortho[1], ortho[2], w}
	}

	return tangents
}
