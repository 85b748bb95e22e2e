package model

import "github.com/google/uuid"

// TextureFormat tags the byte layout of a texture's mip buffers. The first
// four values are the canonical uncompressed layouts every source image is
// normalized to; the rest are their block-compressed counterparts.
type TextureFormat uint8

const (
	R8Unorm TextureFormat = iota
	Rg8Unorm
	Rgba8Unorm
	Rgba32Float

	BC4RUnorm
	BC5RgUnorm
	BC7RgbaUnorm
	BC6HRgbUfloat
)

// String returns the wgpu-style format name.
func (f TextureFormat) String() string {
	switch f {
	case R8Unorm:
		return "R8Unorm"
	case Rg8Unorm:
		return "Rg8Unorm"
	case Rgba8Unorm:
		return "Rgba8Unorm"
	case Rgba32Float:
		return "Rgba32Float"
	case BC4RUnorm:
		return "BC4RUnorm"
	case BC5RgUnorm:
		return "BC5RgUnorm"
	case BC7RgbaUnorm:
		return "BC7RgbaUnorm"
	case BC6HRgbUfloat:
		return "BC6HRgbUfloat"
	}
	return "Unknown"
}

// IsCompressed reports whether the format is block-compressed.
func (f TextureFormat) IsCompressed() bool {
	return f >= BC4RUnorm
}

// NumChannels returns the channel count of an uncompressed format (0 for
// compressed formats, which have no per-channel layout).
func (f TextureFormat) NumChannels() int {
	switch f {
	case R8Unorm:
		return 1
	case Rg8Unorm:
		return 2
	case Rgba8Unorm, Rgba32Float:
		return 4
	}
	return 0
}

// BytesPerChannel returns the storage size of one channel of an uncompressed
// format (0 for compressed formats).
func (f TextureFormat) BytesPerChannel() int {
	switch f {
	case R8Unorm, Rg8Unorm, Rgba8Unorm:
		return 1
	case Rgba32Float:
		return 4
	}
	return 0
}

// BlockByteSize returns the byte size of one 4x4 compressed block (0 for
// uncompressed formats).
func (f TextureFormat) BlockByteSize() int {
	switch f {
	case BC4RUnorm:
		return 8
	case BC5RgUnorm, BC7RgbaUnorm, BC6HRgbUfloat:
		return 16
	}
	return 0
}

// BytesPerRow returns the byte stride of one row (one row of 4x4 blocks for
// compressed formats) at the given width.
//
// Parameters:
//   - width: the mip level width in texels
//
// Returns:
//   - int: the row stride in bytes
func (f TextureFormat) BytesPerRow(width uint32) int {
	if f.IsCompressed() {
		return int((width + 3) / 4 * uint32(f.BlockByteSize()))
	}
	return int(width) * f.NumChannels() * f.BytesPerChannel()
}

// BCEquivalent returns the block-compressed counterpart of an uncompressed
// format (R8→BC4, RG8→BC5, RGBA8→BC7, RGBA32F→BC6H). The second result is
// false when the format is already compressed.
func (f TextureFormat) BCEquivalent() (TextureFormat, bool) {
	switch f {
	case R8Unorm:
		return BC4RUnorm, true
	case Rg8Unorm:
		return BC5RgUnorm, true
	case Rgba8Unorm:
		return BC7RgbaUnorm, true
	case Rgba32Float:
		return BC6HRgbUfloat, true
	}
	return f, false
}

// Texture is one processed texture: a full mip chain in a single canonical
// or block-compressed format, plus the UV transform consumers apply at
// sample time.
type Texture struct {
	// Name is the source image's name ("Unnamed" when the source had none).
	Name string

	// UUID identifies this exact byte content; replacing the texture with a
	// compressed variant assigns a fresh identifier.
	UUID uuid.UUID

	// Width and Height are the base (mip 0) dimensions.
	Width  uint32
	Height uint32

	// MipCount equals len(Data).
	MipCount uint32

	Format TextureFormat

	// Data holds one byte buffer per mip level, tightly packed rows in the
	// layout Format describes.
	Data [][]byte

	// UVOffset and UVScale come from the referencing material channel's
	// texture transform (offset 0, scale 1 when absent).
	UVOffset [2]float32
	UVScale  [2]float32
}
