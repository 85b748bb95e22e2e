package common

import (
	"math"
	"testing"
)

func matNear(t *testing.T, got, want []float32, eps float32) {
	t.Helper()
	for i := range want {
		if d := got[i] - want[i]; d > eps || d < -eps {
			t.Fatalf("element %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestMul4Identity(t *testing.T) {
	var id, out [16]float32
	Identity(id[:])

	m := [16]float32{
		2, 0, 0, 0,
		0, 3, 0, 0,
		0, 0, 4, 0,
		5, 6, 7, 1,
	}

	Mul4(out[:], id[:], m[:])
	matNear(t, out[:], m[:], 0)

	Mul4(out[:], m[:], id[:])
	matNear(t, out[:], m[:], 0)
}

func TestMul4TranslateScale(t *testing.T) {
	translate := [16]float32{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		10, 20, 30, 1,
	}
	scale := [16]float32{
		2, 0, 0, 0,
		0, 2, 0, 0,
		0, 0, 2, 0,
		0, 0, 0, 1,
	}

	var out [16]float32
	Mul4(out[:], translate[:], scale[:])

	x, y, z := TransformPoint(out[:], 1, 1, 1)
	if x != 12 || y != 22 || z != 32 {
		t.Errorf("translate*scale applied to (1,1,1) = (%v, %v, %v), want (12, 22, 32)", x, y, z)
	}
}

func TestMul4InPlace(t *testing.T) {
	a := [16]float32{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		1, 2, 3, 1,
	}
	b := a

	// Writing into one of the operands must not corrupt the product.
	Mul4(a[:], a[:], b[:])

	x, y, z := TransformPoint(a[:], 0, 0, 0)
	if x != 2 || y != 4 || z != 6 {
		t.Errorf("in-place product origin = (%v, %v, %v), want (2, 4, 6)", x, y, z)
	}
}

func TestComposeTRSIdentity(t *testing.T) {
	var out, id [16]float32
	Identity(id[:])

	ComposeTRS(out[:],
		[]float32{0, 0, 0},
		[]float32{0, 0, 0, 1},
		[]float32{1, 1, 1})

	matNear(t, out[:], id[:], 0)
}

func TestComposeDecomposeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		t    [3]float32
		r    [4]float32
		s    [3]float32
	}{
		{"translation only", [3]float32{1, -2, 3}, [4]float32{0, 0, 0, 1}, [3]float32{1, 1, 1}},
		{"quarter turn Y", [3]float32{0, 0, 0}, [4]float32{0, 0.70710678, 0, 0.70710678}, [3]float32{1, 1, 1}},
		{"nonuniform scale", [3]float32{5, 0, -1}, [4]float32{0, 0, 0, 1}, [3]float32{2, 0.5, 3}},
		{"full trs", [3]float32{-4, 7, 2}, [4]float32{0.5, 0.5, 0.5, 0.5}, [3]float32{1.5, 1.5, 1.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m, m2 [16]float32
			ComposeTRS(m[:], tt.t[:], tt.r[:], tt.s[:])

			gt, gr, gs := DecomposeTRS(m[:])
			ComposeTRS(m2[:], gt[:], gr[:], gs[:])

			// Quaternion sign may flip; compare the recomposed matrices.
			matNear(t, m2[:], m[:], 1e-5)

			for i := 0; i < 3; i++ {
				if d := gt[i] - tt.t[i]; d > 1e-5 || d < -1e-5 {
					t.Errorf("translation[%d] = %v, want %v", i, gt[i], tt.t[i])
				}
				if d := gs[i] - tt.s[i]; d > 1e-5 || d < -1e-5 {
					t.Errorf("scale[%d] = %v, want %v", i, gs[i], tt.s[i])
				}
			}
		})
	}
}

func TestDecomposeNegativeDeterminant(t *testing.T) {
	mirror := [16]float32{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, -1, 0,
		0, 0, 0, 1,
	}

	_, _, s := DecomposeTRS(mirror[:])
	if s[2] != -1 {
		t.Errorf("mirrored scale Z = %v, want -1", s[2])
	}

	var m [16]float32
	gt, gr, gs := DecomposeTRS(mirror[:])
	ComposeTRS(m[:], gt[:], gr[:], gs[:])
	matNear(t, m[:], mirror[:], 1e-5)
}

func TestQuatFromMat3Branches(t *testing.T) {
	// 180-degree rotations exercise every diagonal branch of the extraction.
	for _, axis := range [][4]float32{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
	} {
		var m, m2 [16]float32
		ComposeTRS(m[:], []float32{0, 0, 0}, axis[:], []float32{1, 1, 1})

		gt, gr, gs := DecomposeTRS(m[:])
		ComposeTRS(m2[:], gt[:], gr[:], gs[:])
		matNear(t, m2[:], m[:], 1e-5)
	}
}

func TestSliceToBytes(t *testing.T) {
	if SliceToBytes[float32](nil) != nil {
		t.Error("nil slice should map to nil bytes")
	}

	data := []uint32{0x04030201}
	b := SliceToBytes(data)
	if len(b) != 4 {
		t.Fatalf("len = %d, want 4", len(b))
	}
	// Little-endian layout on every supported target.
	if b[0] != 1 || b[1] != 2 || b[2] != 3 || b[3] != 4 {
		t.Errorf("bytes = %v, want [1 2 3 4]", b)
	}
}

func TestTransformPointRotation(t *testing.T) {
	var m [16]float32
	half := float32(math.Sqrt(2) / 2)
	ComposeTRS(m[:], []float32{0, 0, 0}, []float32{0, half, 0, half}, []float32{1, 1, 1})

	// +90 degrees around Y maps +X to -Z.
	x, y, z := TransformPoint(m[:], 1, 0, 0)
	if math.Abs(float64(x)) > 1e-6 || math.Abs(float64(y)) > 1e-6 || math.Abs(float64(z+1)) > 1e-6 {
		t.Errorf("rotated point = (%v, %v, %v), want (0, 0, -1)", x, y, z)
	}
}
