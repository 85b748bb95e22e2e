// Package packing implements the bit-level numeric codecs used by the packed
// model format: octahedral unit-vector quantization, shared-exponent RGB9E5
// HDR color packing, and float32→float16 narrowing. All codecs operate on
// explicit IEEE-754 bit fields via math.Float32bits/Float32frombits so they
// stay portable and free of aliasing hazards.
package packing

import "math"

// UnitVec is a unit direction quantized to a single 32-bit word using
// octahedral encoding: the vector is projected onto the octahedron, the lower
// hemisphere is folded into the unit square, and each of the two resulting
// [0,1] coordinates is stored as a 15-bit unsigned integer (low 15 bits = X,
// next 15 bits = Y, top 2 bits unused).
//
// The maximum angular reconstruction error is bounded by the 15-bit
// quantization step (~2⁻¹⁵ per axis).
type UnitVec uint32

// RGB9E5 is an HDR RGB color packed into a single 32-bit word: one shared
// 5-bit exponent derived from the maximum channel plus three 9-bit mantissas
// (bits 0-8 = R, 9-17 = G, 18-26 = B, 27-31 = exponent).
type RGB9E5 uint32

const (
	octScale = 0x7fff // 15-bit quantization range per axis

	rgb9e5MaxValBits = 0x477F8000 // largest representable channel value (65408.0)
	rgb9e5MinValBits = 0x37800000 // smallest exponent-selecting value
)

// DefaultUnitVec is the encoding of the +Y axis, used as the neutral
// direction for vertices with no meaningful normal.
func DefaultUnitVec() UnitVec {
	return EncodeUnitVec(0, 1, 0)
}

// DefaultRGB9E5 is the encoding of magenta (1, 0, 1), the conventional
// "missing color" sentinel.
func DefaultRGB9E5() RGB9E5 {
	return EncodeRGB9E5(1, 0, 1)
}

// EncodeUnitVec quantizes a unit direction into a UnitVec.
// The input must be normalized; a zero vector produces an arbitrary but
// well-formed encoding (no NaN propagation into the stored word is
// guaranteed only for finite inputs).
//
// Parameters:
//   - x, y, z: the unit direction components
//
// Returns:
//   - UnitVec: the packed 30-bit octahedral encoding
func EncodeUnitVec(x, y, z float32) UnitVec {
	u, v := octProject(x, y, z)

	qu := uint32(math.Round(float64(u) * octScale))
	qv := uint32(math.Round(float64(v) * octScale))

	return UnitVec(qv<<15 | qu&octScale)
}

// Decode unpacks the octahedral encoding back into a normalized direction,
// inverting the hemisphere fold exactly.
//
// Returns:
//   - x, y, z: the reconstructed unit direction
func (p UnitVec) Decode() (x, y, z float32) {
	u := float32(uint32(p)&octScale)/octScale*2 - 1
	v := float32(uint32(p)>>15&octScale)/octScale*2 - 1

	z = 1 - abs32(u) - abs32(v)
	if z < 0 {
		// Unfold the lower hemisphere.
		u, v = (1-abs32(v))*sign32(u), (1-abs32(u))*sign32(v)
	}
	x, y = u, v

	invLen := 1 / float32(math.Sqrt(float64(x*x+y*y+z*z)))
	return x * invLen, y * invLen, z * invLen
}

// octProject maps a direction onto the octahedron and folds the lower
// hemisphere into the unit square, yielding two coordinates in [0,1].
func octProject(x, y, z float32) (u, v float32) {
	sum := abs32(x) + abs32(y) + abs32(z)
	if sum == 0 {
		// Zero vector: store the center of the square (+Z) instead of NaN.
		return 0.5, 0.5
	}
	inv := 1 / sum
	u, v = x*inv, y*inv
	if z < 0 {
		u, v = (1-abs32(v))*sign32(u), (1-abs32(u))*sign32(v)
	}
	return u*0.5 + 0.5, v*0.5 + 0.5
}

// EncodeRGB9E5 packs an HDR RGB color into the shared-exponent format.
// Channels are clamped to [0, 65408]; the shared exponent is derived from the
// maximum channel with a bias step that guarantees correct mantissa rounding.
//
// Parameters:
//   - r, g, b: linear HDR channel values
//
// Returns:
//   - RGB9E5: the packed color
func EncodeRGB9E5(r, g, b float32) RGB9E5 {
	maxVal := math.Float32frombits(rgb9e5MaxValBits)
	minVal := math.Float32frombits(rgb9e5MinValBits)

	r = clamp32(r, 0, maxVal)
	g = clamp32(g, 0, maxVal)
	b = clamp32(b, 0, maxVal)

	maxChannel := max32(max32(r, g), max32(b, minVal))

	// Adding the bias aligns every channel to the shared exponent so the low
	// 9 mantissa bits of the float sum are the quantized channel value.
	bias := math.Float32frombits((math.Float32bits(maxChannel) + 0x07804000) & 0x7F800000)
	biasBits := math.Float32bits(bias)

	rBits := math.Float32bits(r + bias)
	gBits := math.Float32bits(g + bias)
	bBits := math.Float32bits(b + bias)

	e := biasBits<<4 + 0x10000000

	return RGB9E5(e | bBits<<18 | gBits<<9 | rBits&0x1FF)
}

// Decode reconstructs the three channels. Each channel is exact to within
// one mantissa unit at the shared exponent.
//
// Returns:
//   - r, g, b: the reconstructed linear channel values
func (p RGB9E5) Decode() (r, g, b float32) {
	exp := int(uint32(p) >> 27)
	scale := float32(math.Ldexp(1, exp-24))

	r = float32(uint32(p)&0x1FF) * scale
	g = float32(uint32(p)>>9&0x1FF) * scale
	b = float32(uint32(p)>>18&0x1FF) * scale
	return r, g, b
}

// Float16Bits narrows a float32 to IEEE-754 binary16 bits, rounding to
// nearest-even. Out-of-range magnitudes saturate to infinity; subnormal
// results are produced for small magnitudes. This is the input contract for
// the BC6H block-compression collaborator.
//
// Parameters:
//   - f: the float32 value to narrow
//
// Returns:
//   - uint16: the binary16 bit pattern
func Float16Bits(f float32) uint16 {
	bits := math.Float32bits(f)

	sign := uint16(bits >> 16 & 0x8000)
	exp := int32(bits>>23&0xFF) - 127
	mant := bits & 0x7FFFFF

	switch {
	case exp == 128: // Inf or NaN
		if mant != 0 {
			return sign | 0x7E00
		}
		return sign | 0x7C00
	case exp > 15: // overflow → Inf
		return sign | 0x7C00
	case exp >= -14: // normal range
		// Round to nearest-even on the 13 dropped mantissa bits.
		round := uint32(0xFFF)
		if mant>>13&1 == 1 {
			round = 0x1000
		}
		mant += round
		if mant&0x800000 != 0 {
			mant = 0
			exp++
			if exp > 15 {
				return sign | 0x7C00
			}
		}
		return sign | uint16(exp+15)<<10 | uint16(mant>>13)
	case exp >= -24: // subnormal
		mant |= 0x800000
		shift := uint32(-exp - 1) // 13..23 bits dropped
		half := uint32(1) << (shift - 1)
		return sign | uint16((mant+half)>>shift)
	default: // underflow → signed zero
		return sign
	}
}

func abs32(f float32) float32 {
	return math.Float32frombits(math.Float32bits(f) &^ (1 << 31))
}

func sign32(f float32) float32 {
	if f >= 0 {
		return 1
	}
	return -1
}

func clamp32(f, lo, hi float32) float32 {
	if f < lo {
		return lo
	}
	if f > hi {
		return hi
	}
	return f
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
