package codec

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/google/uuid"

	"github.com/packforge/modelpack/model"
	"github.com/packforge/modelpack/packing"
)

func uintp(v uint32) *uint32 { return &v }

// sampleModel exercises every field: optionals both present and absent,
// multiple mips, packed vertices, and a two-level hierarchy.
func sampleModel() *model.Model {
	mat := model.DefaultMaterial()
	mat.Index = uintp(0)
	mat.ColorTexture = uintp(0)
	mat.Emission = [3]float32{1, 2, 3}
	mat.NormalTexture = uintp(1)
	mat.AlphaCutoff = 0.5

	mesh := model.NewMesh(
		[]model.PackedVertex{
			{
				Position:         [3]float32{0, 0, 0},
				Normal:           packing.EncodeUnitVec(0, 0, 1),
				TexCoord:         [2]float32{0, 0},
				Tangent:          packing.EncodeUnitVec(1, 0, 0),
				TangentHandiness: 1,
			},
			{
				Position:         [3]float32{1, 2, 3},
				Normal:           packing.EncodeUnitVec(0, 1, 0),
				TexCoord:         [2]float32{0.5, 0.5},
				Tangent:          packing.EncodeUnitVec(0, 0, -1),
				TangentHandiness: -1,
			},
			{
				Position: [3]float32{-1, -2, -3},
				Normal:   packing.DefaultUnitVec(),
			},
		},
		[]uint32{0},
		[]uint32{0, 1, 2},
		false,
		true,
	)

	return &model.Model{
		RootNodeIndices: []uint32{0},
		Nodes: []model.ModelNode{
			{
				Name:             "root",
				Transform:        [16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 5, 6, 7, 1},
				ChildNodeIndices: []uint32{1},
			},
			{
				Name:      "leaf",
				Transform: [16]float32{2, 0, 0, 0, 0, 2, 0, 0, 0, 0, 2, 0, 0, 0, 0, 1},
				MeshIdx:   uintp(0),
			},
		},
		BoundsMin: mesh.BoundsMin,
		BoundsMax: mesh.BoundsMax,
		Meshes:    []model.Mesh{mesh},
		Materials: []model.Material{mat},
		Textures: []model.Texture{
			{
				Name:     "base",
				UUID:     uuid.MustParse("aba22f54-9a3b-4bd7-b1b8-d21ad9525a1c"),
				Width:    2,
				Height:   2,
				MipCount: 2,
				Format:   model.Rgba8Unorm,
				Data:     [][]byte{{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}, {9, 9, 9, 9}},
				UVScale:  [2]float32{1, 1},
			},
			{
				Name:     "detail",
				UUID:     uuid.MustParse("c0e7e9a2-11f4-4c06-9a8e-3a7a6f9c2e01"),
				Width:    1,
				Height:   1,
				MipCount: 1,
				Format:   model.BC7RgbaUnorm,
				Data:     [][]byte{make([]byte, 16)},
				UVOffset: [2]float32{0.25, 0.5},
				UVScale:  [2]float32{2, 2},
			},
		},
	}
}

func TestRoundTrip(t *testing.T) {
	in := sampleModel()

	var buf bytes.Buffer
	if err := Encode(&buf, in); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	out, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if !reflect.DeepEqual(in, out) {
		t.Errorf("round-trip mismatch:\n in: %+v\nout: %+v", in, out)
	}
}

func TestRoundTripEmptyModel(t *testing.T) {
	bmin, bmax := model.EmptyBounds()
	in := &model.Model{BoundsMin: bmin, BoundsMax: bmax}

	var buf bytes.Buffer
	if err := Encode(&buf, in); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Errorf("round-trip mismatch:\n in: %+v\nout: %+v", in, out)
	}
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	if _, err := Decode(bytes.NewReader([]byte("JUNKJUNKJUNK"))); err == nil {
		t.Error("bad magic accepted")
	}
}

func TestDecodeRejectsBadVersion(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, sampleModel()); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	b := buf.Bytes()
	b[4] = 0xFF // corrupt the version field
	if _, err := Decode(bytes.NewReader(b)); err == nil {
		t.Error("bad version accepted")
	}
}

func TestDecodeRejectsTruncatedStream(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, sampleModel()); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	b := buf.Bytes()
	if _, err := Decode(bytes.NewReader(b[:len(b)/2])); err == nil {
		t.Error("truncated stream accepted")
	}
}
