package bcenc

import (
	"math"

	"github.com/packforge/modelpack/convert"
)

// bc7Weights4 is the 4-bit interpolation weight table from the BC7
// specification.
var bc7Weights4 = [16]int{0, 4, 9, 13, 17, 21, 26, 30, 34, 38, 43, 47, 51, 55, 60, 64}

// bitWriter packs bits LSB-first into a 128-bit block.
type bitWriter struct {
	data [16]byte
	pos  int
}

func (w *bitWriter) put(v uint32, n int) {
	for i := 0; i < n; i++ {
		if v&(1<<i) != 0 {
			w.data[w.pos>>3] |= 1 << (w.pos & 7)
		}
		w.pos++
	}
}

func compressBC7(s convert.Surface) []byte {
	bw, bh := blockDims(s.Width, s.Height)
	out := make([]byte, 0, bw*bh*16)
	for by := uint32(0); by < bh; by++ {
		for bx := uint32(0); bx < bw; bx++ {
			var px [16][4]byte
			for c := 0; c < 4; c++ {
				ch := fetchBlock(s, 4, c, bx, by)
				for t := 0; t < 16; t++ {
					px[t][c] = ch[t]
				}
			}
			enc := encodeBC7Block(&px)
			out = append(out, enc[:]...)
		}
	}
	return out
}

// encodeBC7Block emits one mode 6 block: a single subset with 7-bit RGBA
// endpoints, per-endpoint P-bits, and 4-bit indices. Endpoints are the two
// texels at the extremes of the block's principal axis in RGBA space;
// per-channel extremes would land off the data's line whenever channels are
// anti-correlated and collapse the block toward its midpoint.
func encodeBC7Block(px *[16][4]byte) [16]byte {
	lo, hi := principalEndpoints(px)

	p0 := majorityLSB(lo)
	p1 := majorityLSB(hi)
	var q0, q1, r0, r1 [4]int
	for c := 0; c < 4; c++ {
		q0[c] = quantize7(lo[c], p0)
		q1[c] = quantize7(hi[c], p1)
		r0[c] = q0[c]<<1 | p0
		r1[c] = q1[c]<<1 | p1
	}

	var palette [16][4]int
	for i, w := range bc7Weights4 {
		for c := 0; c < 4; c++ {
			palette[i][c] = (r0[c]*(64-w) + r1[c]*w + 32) >> 6
		}
	}

	var indices [16]int
	for t, p := range px {
		best, bestDist := 0, 1<<30
		for i := range palette {
			dist := 0
			for c := 0; c < 4; c++ {
				d := int(p[c]) - palette[i][c]
				dist += d * d
			}
			if dist < bestDist {
				best, bestDist = i, dist
			}
		}
		indices[t] = best
	}

	// The anchor index drops its high bit, so texel 0 must land in the lower
	// half of the palette; swap the endpoints and mirror the indices if not.
	if indices[0] >= 8 {
		q0, q1 = q1, q0
		p0, p1 = p1, p0
		for t := range indices {
			indices[t] = 15 - indices[t]
		}
	}

	var w bitWriter
	w.put(1<<6, 7) // mode 6
	for c := 0; c < 4; c++ {
		w.put(uint32(q0[c]), 7)
		w.put(uint32(q1[c]), 7)
	}
	w.put(uint32(p0), 1)
	w.put(uint32(p1), 1)
	w.put(uint32(indices[0]), 3)
	for _, idx := range indices[1:] {
		w.put(uint32(idx), 4)
	}
	return w.data
}

// principalEndpoints picks the two texels with the extreme projections onto
// the block's principal axis (power iteration on the RGBA covariance, seeded
// with the texel farthest from the mean so the seed cannot be orthogonal to
// the dominant direction). A zero-variance block degenerates to projections
// of zero everywhere and returns texel 0 for both endpoints.
func principalEndpoints(px *[16][4]byte) (lo, hi [4]int) {
	var mean [4]float64
	for _, p := range px {
		for c := 0; c < 4; c++ {
			mean[c] += float64(p[c])
		}
	}
	for c := range mean {
		mean[c] /= 16
	}

	var axis [4]float64
	maxDist := 0.0
	for _, p := range px {
		var d [4]float64
		dist := 0.0
		for c := 0; c < 4; c++ {
			d[c] = float64(p[c]) - mean[c]
			dist += d[c] * d[c]
		}
		if dist > maxDist {
			axis, maxDist = d, dist
		}
	}

	var cov [4][4]float64
	for _, p := range px {
		var d [4]float64
		for c := 0; c < 4; c++ {
			d[c] = float64(p[c]) - mean[c]
		}
		for i := 0; i < 4; i++ {
			for j := 0; j < 4; j++ {
				cov[i][j] += d[i] * d[j]
			}
		}
	}
	for it := 0; it < 8; it++ {
		var next [4]float64
		for i := 0; i < 4; i++ {
			for j := 0; j < 4; j++ {
				next[i] += cov[i][j] * axis[j]
			}
		}
		length := math.Sqrt(next[0]*next[0] + next[1]*next[1] + next[2]*next[2] + next[3]*next[3])
		if length == 0 {
			break
		}
		for i := range next {
			next[i] /= length
		}
		axis = next
	}

	loIdx, hiIdx := 0, 0
	loProj, hiProj := 0.0, 0.0
	for t, p := range px {
		proj := 0.0
		for c := 0; c < 4; c++ {
			proj += (float64(p[c]) - mean[c]) * axis[c]
		}
		if proj < loProj {
			loIdx, loProj = t, proj
		}
		if proj > hiProj {
			hiIdx, hiProj = t, proj
		}
	}

	for c := 0; c < 4; c++ {
		lo[c] = int(px[loIdx][c])
		hi[c] = int(px[hiIdx][c])
	}
	return lo, hi
}

// quantize7 picks the 7-bit endpoint that, combined with the shared P-bit,
// reconstructs closest to the 8-bit value.
func quantize7(v, p int) int {
	q := (v - p + 1) / 2
	if q < 0 {
		q = 0
	}
	if q > 127 {
		q = 127
	}
	return q
}

// majorityLSB picks the P-bit agreeing with most channel low bits.
func majorityLSB(e [4]int) int {
	ones := 0
	for _, v := range e {
		ones += v & 1
	}
	if ones >= 2 {
		return 1
	}
	return 0
}
