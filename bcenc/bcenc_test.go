package bcenc

import (
	"testing"

	"github.com/packforge/modelpack/convert"
	"github.com/packforge/modelpack/model"
)

func decodeBC4Block(enc [8]byte) [16]byte {
	e0, e1 := enc[0], enc[1]
	pal := bc4Palette(e0, e1)
	var bits uint64
	for i := 0; i < 6; i++ {
		bits |= uint64(enc[2+i]) << (8 * i)
	}
	var out [16]byte
	for t := 0; t < 16; t++ {
		out[t] = pal[bits>>(3*t)&7]
	}
	return out
}

type bitReader struct {
	data [16]byte
	pos  int
}

func (r *bitReader) get(n int) uint32 {
	var v uint32
	for i := 0; i < n; i++ {
		if r.data[r.pos>>3]&(1<<(r.pos&7)) != 0 {
			v |= 1 << i
		}
		r.pos++
	}
	return v
}

func decodeBC7Block(t *testing.T, enc [16]byte) [16][4]int {
	t.Helper()
	r := &bitReader{data: enc}
	if mode := r.get(7); mode != 1<<6 {
		t.Fatalf("mode bits = %#x, want mode 6", mode)
	}
	var q0, q1 [4]uint32
	for c := 0; c < 4; c++ {
		q0[c] = r.get(7)
		q1[c] = r.get(7)
	}
	p0, p1 := r.get(1), r.get(1)

	var e0, e1 [4]int
	for c := 0; c < 4; c++ {
		e0[c] = int(q0[c]<<1 | p0)
		e1[c] = int(q1[c]<<1 | p1)
	}

	var indices [16]uint32
	indices[0] = r.get(3)
	for i := 1; i < 16; i++ {
		indices[i] = r.get(4)
	}

	var out [16][4]int
	for i := 0; i < 16; i++ {
		w := bc7Weights4[indices[i]]
		for c := 0; c < 4; c++ {
			out[i][c] = (e0[c]*(64-w) + e1[c]*w + 32) >> 6
		}
	}
	return out
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func TestBC4FlatBlock(t *testing.T) {
	var block [16]byte
	for i := range block {
		block[i] = 99
	}
	dec := decodeBC4Block(encodeBC4Block(&block))
	for t2, v := range dec {
		if v != 99 {
			t.Fatalf("texel %d = %d, want 99", t2, v)
		}
	}
}

func TestBC4GradientRoundTrip(t *testing.T) {
	var block [16]byte
	for i := range block {
		block[i] = byte(i * 2)
	}
	dec := decodeBC4Block(encodeBC4Block(&block))
	for i, v := range dec {
		if absInt(int(v)-int(block[i])) > 3 {
			t.Errorf("texel %d = %d, want within 3 of %d", i, v, block[i])
		}
	}
}

func TestBC5EncodesBothChannels(t *testing.T) {
	surface := convert.Surface{Width: 4, Height: 4, Stride: 8, Data: make([]byte, 4*8)}
	for i := 0; i < 16; i++ {
		surface.Data[i*2] = 200  // red
		surface.Data[i*2+1] = 50 // green
	}

	out, err := New().CompressBlocks(uint8(model.BC5RgUnorm), surface)
	if err != nil {
		t.Fatalf("CompressBlocks: %v", err)
	}
	if len(out) != 16 {
		t.Fatalf("got %d bytes, want 16", len(out))
	}

	var rEnc, gEnc [8]byte
	copy(rEnc[:], out[:8])
	copy(gEnc[:], out[8:])
	if dec := decodeBC4Block(rEnc); dec[0] != 200 {
		t.Errorf("red texel = %d, want 200", dec[0])
	}
	if dec := decodeBC4Block(gEnc); dec[0] != 50 {
		t.Errorf("green texel = %d, want 50", dec[0])
	}
}

func TestBC7FlatBlock(t *testing.T) {
	var px [16][4]byte
	for i := range px {
		px[i] = [4]byte{10, 20, 30, 255}
	}
	dec := decodeBC7Block(t, encodeBC7Block(&px))
	want := [4]int{10, 20, 30, 255}
	for i, texel := range dec {
		for c := 0; c < 4; c++ {
			if absInt(texel[c]-want[c]) > 1 {
				t.Fatalf("texel %d channel %d = %d, want within 1 of %d", i, c, texel[c], want[c])
			}
		}
	}
}

func TestBC7GradientRoundTrip(t *testing.T) {
	var px [16][4]byte
	for i := range px {
		v := byte(i * 17)
		px[i] = [4]byte{v, 255 - v, 128, 255}
	}
	dec := decodeBC7Block(t, encodeBC7Block(&px))
	for i, texel := range dec {
		for c := 0; c < 4; c++ {
			if absInt(texel[c]-int(px[i][c])) > 12 {
				t.Errorf("texel %d channel %d = %d, want within 12 of %d", i, c, texel[c], px[i][c])
			}
		}
	}
}

func TestPartialBlockClampsEdges(t *testing.T) {
	// 2x2 surface still emits one full block by replicating the border.
	surface := convert.Surface{Width: 2, Height: 2, Stride: 2, Data: []byte{1, 2, 3, 4}}

	out, err := New().CompressBlocks(uint8(model.BC4RUnorm), surface)
	if err != nil {
		t.Fatalf("CompressBlocks: %v", err)
	}
	if len(out) != 8 {
		t.Fatalf("got %d bytes, want 8", len(out))
	}

	var enc [8]byte
	copy(enc[:], out)
	dec := decodeBC4Block(enc)
	if absInt(int(dec[0])-1) > 1 || absInt(int(dec[15])-4) > 1 {
		t.Errorf("corner texels = %d, %d; want about 1 and 4", dec[0], dec[15])
	}
}

func TestCompressedSizes(t *testing.T) {
	cases := []struct {
		format      model.TextureFormat
		pixelStride int
		w, h        uint32
		wantLen     int
	}{
		{model.BC4RUnorm, 1, 8, 8, 4 * 8},
		{model.BC4RUnorm, 1, 5, 5, 4 * 8},
		{model.BC5RgUnorm, 2, 8, 4, 2 * 16},
		{model.BC7RgbaUnorm, 4, 4, 4, 16},
	}

	for _, tc := range cases {
		surface := convert.Surface{
			Width:  tc.w,
			Height: tc.h,
			Stride: tc.w * uint32(tc.pixelStride),
			Data:   make([]byte, int(tc.w*tc.h)*tc.pixelStride),
		}
		out, err := New().CompressBlocks(uint8(tc.format), surface)
		if err != nil {
			t.Fatalf("CompressBlocks(%v): %v", tc.format, err)
		}
		if len(out) != tc.wantLen {
			t.Errorf("%v %dx%d: got %d bytes, want %d", tc.format, tc.w, tc.h, len(out), tc.wantLen)
		}
	}
}

func TestBC6HRejected(t *testing.T) {
	surface := convert.Surface{Width: 4, Height: 4, Stride: 32, Data: make([]byte, 128)}
	if _, err := New().CompressBlocks(uint8(model.BC6HRgbUfloat), surface); err == nil {
		t.Error("BC6H accepted by software compressor")
	}
}
