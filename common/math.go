package common

import (
	"math"
	"unsafe"
)

// Identity resets a 4x4 matrix (flat slice) to the identity matrix.
// The matrix is stored in column-major order.
//
// Parameters:
//   - m: destination slice (must be at least 16 elements)
func Identity(m []float32) {
	for i := range m {
		m[i] = 0
	}
	m[0], m[5], m[10], m[15] = 1, 1, 1, 1
}

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads and
// content hashing. Uses unsafe pointer operations to create a view into the
// original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	totalBytes := int(size) * len(data)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), totalBytes)
}

// StructToBytes reinterprets a pointer to a struct as a raw byte slice using unsafe.
// The returned slice has length equal to the struct's size in memory.
//
// Parameters:
//   - v: pointer to the struct to reinterpret
//
// Returns:
//   - []byte: byte slice view of the struct's memory
func StructToBytes[T any](v *T) []byte {
	size := unsafe.Sizeof(*v)
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), int(size))
}

// Mul4 multiplies two 4x4 matrices and stores the result in out.
// All matrices are stored in column-major order (OpenGL/WebGPU convention).
// Result: out = a * b
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - a: left-hand matrix (16 elements)
//   - b: right-hand matrix (16 elements)
func Mul4(out, a, b []float32) {
	var buf [16]float32
	for i := 0; i < 4; i++ { // column of B
		for j := 0; j < 4; j++ { // row of A
			sum := float32(0)
			for k := 0; k < 4; k++ {
				sum += a[k*4+j] * b[i*4+k]
			}
			buf[i*4+j] = sum
		}
	}
	copy(out, buf[:])
}

// ComposeTRS constructs a 4x4 column-major matrix from a translation vector,
// a rotation quaternion, and a scale vector. The quaternion is given in
// (x, y, z, w) component order and is assumed to be normalized.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - t: translation (3 elements)
//   - r: rotation quaternion (4 elements, x/y/z/w)
//   - s: scale (3 elements)
func ComposeTRS(out []float32, t, r, s []float32) {
	x, y, z, w := r[0], r[1], r[2], r[3]

	xx, yy, zz := x*x, y*y, z*z
	xy, xz, yz := x*y, x*z, y*z
	wx, wy, wz := w*x, w*y, w*z

	out[0] = (1 - 2*(yy+zz)) * s[0]
	out[1] = 2 * (xy + wz) * s[0]
	out[2] = 2 * (xz - wy) * s[0]
	out[3] = 0

	out[4] = 2 * (xy - wz) * s[1]
	out[5] = (1 - 2*(xx+zz)) * s[1]
	out[6] = 2 * (yz + wx) * s[1]
	out[7] = 0

	out[8] = 2 * (xz + wy) * s[2]
	out[9] = 2 * (yz - wx) * s[2]
	out[10] = (1 - 2*(xx+yy)) * s[2]
	out[11] = 0

	out[12] = t[0]
	out[13] = t[1]
	out[14] = t[2]
	out[15] = 1
}

// DecomposeTRS splits a 4x4 column-major affine matrix into translation,
// rotation quaternion (x/y/z/w), and scale. Shear is not representable and is
// folded into the rotation; negative determinants flip the Z scale so the
// rotation stays proper.
//
// Parameters:
//   - m: source matrix (16 elements, column-major)
//
// Returns:
//   - t: translation (3 elements)
//   - r: rotation quaternion (4 elements, x/y/z/w)
//   - s: scale (3 elements)
func DecomposeTRS(m []float32) (t [3]float32, r [4]float32, s [3]float32) {
	t[0], t[1], t[2] = m[12], m[13], m[14]

	s[0] = length3(m[0], m[1], m[2])
	s[1] = length3(m[4], m[5], m[6])
	s[2] = length3(m[8], m[9], m[10])

	det := m[0]*(m[5]*m[10]-m[6]*m[9]) -
		m[4]*(m[1]*m[10]-m[2]*m[9]) +
		m[8]*(m[1]*m[6]-m[2]*m[5])
	if det < 0 {
		s[2] = -s[2]
	}

	var rot [9]float32
	for c := 0; c < 3; c++ {
		sc := s[c]
		if sc == 0 {
			sc = 1
		}
		rot[c*3+0] = m[c*4+0] / sc
		rot[c*3+1] = m[c*4+1] / sc
		rot[c*3+2] = m[c*4+2] / sc
	}
	r = quatFromMat3(rot)
	return t, r, s
}

// quatFromMat3 extracts a unit quaternion from a column-major 3x3 rotation
// matrix using Shepperd's branch on the largest diagonal component.
func quatFromMat3(m [9]float32) [4]float32 {
	trace := m[0] + m[4] + m[8]

	var q [4]float32
	switch {
	case trace > 0:
		root := float32(math.Sqrt(float64(trace + 1)))
		q[3] = root / 2
		inv := 0.5 / root
		q[0] = (m[5] - m[7]) * inv
		q[1] = (m[6] - m[2]) * inv
		q[2] = (m[1] - m[3]) * inv
	case m[0] >= m[4] && m[0] >= m[8]:
		root := float32(math.Sqrt(float64(1 + m[0] - m[4] - m[8])))
		q[0] = root / 2
		inv := 0.5 / root
		q[1] = (m[1] + m[3]) * inv
		q[2] = (m[6] + m[2]) * inv
		q[3] = (m[5] - m[7]) * inv
	case m[4] >= m[8]:
		root := float32(math.Sqrt(float64(1 + m[4] - m[0] - m[8])))
		q[1] = root / 2
		inv := 0.5 / root
		q[0] = (m[1] + m[3]) * inv
		q[2] = (m[5] + m[7]) * inv
		q[3] = (m[6] - m[2]) * inv
	default:
		root := float32(math.Sqrt(float64(1 + m[8] - m[0] - m[4])))
		q[2] = root / 2
		inv := 0.5 / root
		q[0] = (m[6] + m[2]) * inv
		q[1] = (m[5] + m[7]) * inv
		q[3] = (m[1] - m[3]) * inv
	}
	return q
}

// TransformPoint applies a 4x4 column-major matrix to a point (w = 1).
//
// Parameters:
//   - m: transform matrix (16 elements, column-major)
//   - x, y, z: the point to transform
//
// Returns:
//   - the transformed point components
func TransformPoint(m []float32, x, y, z float32) (float32, float32, float32) {
	return m[0]*x + m[4]*y + m[8]*z + m[12],
		m[1]*x + m[5]*y + m[9]*z + m[13],
		m[2]*x + m[6]*y + m[10]*z + m[14]
}

func length3(x, y, z float32) float32 {
	return float32(math.Sqrt(float64(x*x + y*y + z*z)))
}
