package model

import (
	"math"
	"testing"
)

func TestGenerateNormalsSingleTriangle(t *testing.T) {
	// Triangle in the XY plane, counter-clockwise: analytic face normal +Z.
	positions := [][3]float32{
		{0, 0, 0},
		{1, 0, 0},
		{0, 1, 0},
	}
	indices := []uint32{0, 1, 2}

	normals := GenerateNormals(positions, indices)
	if len(normals) != 3 {
		t.Fatalf("normal count = %d, want 3", len(normals))
	}

	for i, n := range normals {
		if n != ([3]float32{0, 0, 1}) {
			t.Errorf("vertex %d normal = %v, want (0, 0, 1)", i, n)
		}
	}
}

func TestGenerateNormalsAreaWeighted(t *testing.T) {
	// Vertex 0 is shared by a large +Z triangle and a tiny +X triangle; the
	// large triangle must dominate the smoothed normal.
	positions := [][3]float32{
		{0, 0, 0},
		{10, 0, 0},
		{0, 10, 0},
		{0, 0.1, 0},
		{0, 0, 0.1},
	}
	indices := []uint32{
		0, 1, 2, // area 50, normal +Z
		0, 3, 4, // area 0.005, normal +X
	}

	normals := GenerateNormals(positions, indices)
	n := normals[0]
	if n[2] < 0.99 {
		t.Errorf("shared vertex normal = %v, want dominated by +Z", n)
	}
	if n[0] <= 0 {
		t.Errorf("shared vertex normal = %v, want a small positive X component", n)
	}
}

func TestGenerateNormalsUnusedVertex(t *testing.T) {
	positions := [][3]float32{
		{0, 0, 0},
		{1, 0, 0},
		{0, 1, 0},
		{5, 5, 5}, // not referenced by any triangle
	}
	indices := []uint32{0, 1, 2}

	normals := GenerateNormals(positions, indices)
	if normals[3] != ([3]float32{0, 1, 0}) {
		t.Errorf("unused vertex normal = %v, want +Y fallback", normals[3])
	}
}

func TestGenerateTangentsNoUVs(t *testing.T) {
	positions := [][3]float32{
		{0, 0, 0},
		{1, 0, 0},
		{0, 1, 0},
	}
	normals := [][3]float32{
		{0, 0, 1},
		{0, 0, 1},
		{0, 0, 1},
	}
	indices := []uint32{0, 1, 2}

	tangents := GenerateTangents(positions, normals, nil, indices)
	if len(tangents) != len(positions) {
		t.Fatalf("tangent count = %d, want %d", len(tangents), len(positions))
	}
	for i, tan := range tangents {
		if tan != ([4]float32{0, 0, 0, 1}) {
			t.Errorf("vertex %d tangent = %v, want zero with +1 handedness", i, tan)
		}
	}
}

func TestGenerateTangentsPlanarQuad(t *testing.T) {
	// UV grows with +X along U and +Y along V, so the tangent is +X and the
	// handedness is +1 for a right-handed frame with normal +Z.
	positions := [][3]float32{
		{0, 0, 0},
		{1, 0, 0},
		{1, 1, 0},
		{0, 1, 0},
	}
	normals := [][3]float32{
		{0, 0, 1}, {0, 0, 1}, {0, 0, 1}, {0, 0, 1},
	}
	texCoords := [][2]float32{
		{0, 0}, {1, 0}, {1, 1}, {0, 1},
	}
	indices := []uint32{0, 1, 2, 0, 2, 3}

	tangents := GenerateTangents(positions, normals, texCoords, indices)
	for i, tan := range tangents {
		if math.Abs(float64(tan[0]-1)) > 1e-5 ||
			math.Abs(float64(tan[1])) > 1e-5 ||
			math.Abs(float64(tan[2])) > 1e-5 {
			t.Errorf("vertex %d tangent direction = %v, want +X", i, tan)
		}
		if tan[3] != 1 {
			t.Errorf("vertex %d handedness = %v, want +1", i, tan[3])
		}
	}
}

func TestGenerateTangentsDegenerateUVs(t *testing.T) {
	// All three UVs identical: zero parametric area, no tangent information.
	positions := [][3]float32{
		{0, 0, 0},
		{1, 0, 0},
		{0, 1, 0},
	}
	normals := [][3]float32{
		{0, 0, 1}, {0, 0, 1}, {0, 0, 1},
	}
	texCoords := [][2]float32{
		{0.5, 0.5}, {0.5, 0.5}, {0.5, 0.5},
	}
	indices := []uint32{0, 1, 2}

	tangents := GenerateTangents(positions, normals, texCoords, indices)
	for i, tan := range tangents {
		if tan != ([4]float32{0, 0, 0, 1}) {
			t.Errorf("vertex %d tangent = %v, want zero fallback", i, tan)
		}
	}
}

func TestPackVerticesRoundTrip(t *testing.T) {
	positions := [][3]float32{{1, 2, 3}}
	normals := [][3]float32{{0, 0, 1}}
	tangents := [][4]float32{{1, 0, 0, -1}}
	texCoords := [][2]float32{{0.25, 0.75}}

	packed := PackVertices(positions, normals, tangents, texCoords)
	if len(packed) != 1 {
		t.Fatalf("packed count = %d, want 1", len(packed))
	}

	v := packed[0]
	if v.Position != positions[0] {
		t.Errorf("position = %v, want %v", v.Position, positions[0])
	}
	if v.TexCoord != texCoords[0] {
		t.Errorf("texcoord = %v, want %v", v.TexCoord, texCoords[0])
	}
	if v.TangentHandiness != -1 {
		t.Errorf("handedness = %v, want -1", v.TangentHandiness)
	}

	nx, ny, nz := v.Normal.Decode()
	if math.Abs(float64(nz-1)) > 1e-4 {
		t.Errorf("decoded normal = (%v, %v, %v), want ~(0, 0, 1)", nx, ny, nz)
	}
	tx, _, _ := v.Tangent.Decode()
	if math.Abs(float64(tx-1)) > 1e-4 {
		t.Errorf("decoded tangent X = %v, want ~1", tx)
	}
}

func TestPackVerticesShortAttributeArrays(t *testing.T) {
	positions := [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	normals := [][3]float32{{0, 0, 1}}

	packed := PackVertices(positions, normals, nil, nil)
	if len(packed) != 3 {
		t.Fatalf("packed count = %d, want 3", len(packed))
	}

	// Past the end of the supplied arrays the defaults apply.
	_, ny, _ := packed[1].Normal.Decode()
	if math.Abs(float64(ny-1)) > 1e-4 {
		t.Errorf("default normal Y = %v, want ~1", ny)
	}
	if packed[2].TangentHandiness != 1 {
		t.Errorf("default handedness = %v, want +1", packed[2].TangentHandiness)
	}
	if packed[2].TexCoord != ([2]float32{0, 0}) {
		t.Errorf("default texcoord = %v, want zero", packed[2].TexCoord)
	}
}

func TestNewMeshBounds(t *testing.T) {
	vertices := []PackedVertex{
		{Position: [3]float32{-1, 5, 0}},
		{Position: [3]float32{3, -2, 7}},
		{Position: [3]float32{0, 0, -4}},
	}
	mesh := NewMesh(vertices, []uint32{0}, []uint32{0, 1, 2}, true, false)

	wantMin := [3]float32{-1, -2, -4}
	wantMax := [3]float32{3, 5, 7}
	if mesh.BoundsMin != wantMin {
		t.Errorf("bounds min = %v, want %v", mesh.BoundsMin, wantMin)
	}
	if mesh.BoundsMax != wantMax {
		t.Errorf("bounds max = %v, want %v", mesh.BoundsMax, wantMax)
	}
}

func TestNewMeshEmptyBounds(t *testing.T) {
	mesh := NewMesh(nil, nil, nil, true, false)
	for j := 0; j < 3; j++ {
		if !math.IsInf(float64(mesh.BoundsMin[j]), 1) {
			t.Errorf("empty mesh bounds min[%d] = %v, want +Inf", j, mesh.BoundsMin[j])
		}
		if !math.IsInf(float64(mesh.BoundsMax[j]), -1) {
			t.Errorf("empty mesh bounds max[%d] = %v, want -Inf", j, mesh.BoundsMax[j])
		}
	}
}

func TestMeshContentIdentity(t *testing.T) {
	build := func() Mesh {
		vertices := []PackedVertex{
			{Position: [3]float32{0, 0, 0}},
			{Position: [3]float32{1, 0, 0}},
			{Position: [3]float32{0, 1, 0}},
		}
		return NewMesh(vertices, []uint32{0}, []uint32{0, 1, 2}, true, false)
	}

	a := build()
	b := build()
	if a.ContentHash() != b.ContentHash() {
		t.Error("identical meshes hash differently")
	}
	if !a.SameContent(&b) {
		t.Error("identical meshes compare unequal")
	}

	c := build()
	c.TriangleMaterialIndices[0] = 1
	if a.SameContent(&c) {
		t.Error("meshes with different material mappings compare equal")
	}
}
