// Package bcenc is a software block compressor for the texture pipeline. It
// range-fits each 4x4 block: endpoints are the block's channel extremes and
// every texel snaps to the nearest palette entry. BC4, BC5, and BC7 (mode 6)
// targets are supported; BC6H needs a dedicated HDR encoder and is rejected.
package bcenc

import (
	"fmt"

	"github.com/packforge/modelpack/convert"
	"github.com/packforge/modelpack/model"
)

// Encoder implements convert.BlockCompressor in software.
type Encoder struct{}

var _ convert.BlockCompressor = Encoder{}

// New returns a software block compressor.
//
// Returns:
//   - Encoder: the compressor
func New() Encoder {
	return Encoder{}
}

// CompressBlocks compresses one surface to the given BC format.
//
// Parameters:
//   - format: the compressed target format tag (model.TextureFormat value)
//   - surface: the uncompressed mip surface
//
// Returns:
//   - []byte: the compressed block data
//   - error: error if the target format is unsupported
func (Encoder) CompressBlocks(format uint8, surface convert.Surface) ([]byte, error) {
	switch model.TextureFormat(format) {
	case model.BC4RUnorm:
		return compressSingleChannel(surface, 1, 0), nil
	case model.BC5RgUnorm:
		return compressTwoChannel(surface), nil
	case model.BC7RgbaUnorm:
		return compressBC7(surface), nil
	case model.BC6HRgbUfloat:
		return nil, fmt.Errorf("BC6H encoding is not supported by the software compressor")
	default:
		return nil, fmt.Errorf("format %d is not a supported block-compression target", format)
	}
}

// blockDims is the number of 4x4 blocks covering a surface.
func blockDims(w, h uint32) (uint32, uint32) {
	return (w + 3) / 4, (h + 3) / 4
}

// fetchBlock gathers one channel of a 4x4 block, clamping reads at the
// surface edge so partial blocks replicate their border texels.
func fetchBlock(s convert.Surface, pixelStride, channel int, bx, by uint32) [16]byte {
	var out [16]byte
	for ty := 0; ty < 4; ty++ {
		y := by*4 + uint32(ty)
		if y >= s.Height {
			y = s.Height - 1
		}
		for tx := 0; tx < 4; tx++ {
			x := bx*4 + uint32(tx)
			if x >= s.Width {
				x = s.Width - 1
			}
			out[ty*4+tx] = s.Data[int(y)*int(s.Stride)+int(x)*pixelStride+channel]
		}
	}
	return out
}

func compressSingleChannel(s convert.Surface, pixelStride, channel int) []byte {
	bw, bh := blockDims(s.Width, s.Height)
	out := make([]byte, 0, bw*bh*8)
	for by := uint32(0); by < bh; by++ {
		for bx := uint32(0); bx < bw; bx++ {
			block := fetchBlock(s, pixelStride, channel, bx, by)
			enc := encodeBC4Block(&block)
			out = append(out, enc[:]...)
		}
	}
	return out
}

func compressTwoChannel(s convert.Surface) []byte {
	bw, bh := blockDims(s.Width, s.Height)
	out := make([]byte, 0, bw*bh*16)
	for by := uint32(0); by < bh; by++ {
		for bx := uint32(0); bx < bw; bx++ {
			r := fetchBlock(s, 2, 0, bx, by)
			g := fetchBlock(s, 2, 1, bx, by)
			encR := encodeBC4Block(&r)
			encG := encodeBC4Block(&g)
			out = append(out, encR[:]...)
			out = append(out, encG[:]...)
		}
	}
	return out
}

// bc4Palette expands the eight-entry interpolated palette for endpoints
// e0 > e1.
func bc4Palette(e0, e1 byte) [8]byte {
	var pal [8]byte
	pal[0], pal[1] = e0, e1
	for i := 2; i < 8; i++ {
		pal[i] = byte(((8-i)*int(e0) + (i-1)*int(e1) + 3) / 7)
	}
	return pal
}

func encodeBC4Block(vals *[16]byte) [8]byte {
	e0, e1 := vals[0], vals[0]
	for _, v := range vals[1:] {
		if v > e0 {
			e0 = v
		}
		if v < e1 {
			e1 = v
		}
	}

	var out [8]byte
	out[0], out[1] = e0, e1
	if e0 == e1 {
		// Flat block: every index selects endpoint 0.
		return out
	}

	pal := bc4Palette(e0, e1)
	var bits uint64
	for t, v := range vals {
		best, bestDist := 0, 1<<10
		for i, p := range pal {
			d := int(v) - int(p)
			if d < 0 {
				d = -d
			}
			if d < bestDist {
				best, bestDist = i, d
			}
		}
		bits |= uint64(best) << (3 * t)
	}
	for i := 0; i < 6; i++ {
		out[2+i] = byte(bits >> (8 * i))
	}
	return out
}
