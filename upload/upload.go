// Package upload creates GPU resources from packed model data: one texture
// per processed mip chain and vertex/index buffers per mesh. It only issues
// wgpu calls; the caller owns the device, queue, and resource lifetimes.
package upload

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/packforge/modelpack/common"
	"github.com/packforge/modelpack/model"
)

// WGPUFormat maps a packed texture format to its wgpu equivalent. The srgb
// flag selects the sRGB view where one exists (RGBA8 and BC7); formats
// without an sRGB variant ignore it.
//
// Parameters:
//   - f: the packed texture format
//   - srgb: whether to prefer the sRGB variant
//
// Returns:
//   - wgpu.TextureFormat: the corresponding wgpu format
func WGPUFormat(f model.TextureFormat, srgb bool) wgpu.TextureFormat {
	switch f {
	case model.R8Unorm:
		return wgpu.TextureFormatR8Unorm
	case model.Rg8Unorm:
		return wgpu.TextureFormatRG8Unorm
	case model.Rgba8Unorm:
		if srgb {
			return wgpu.TextureFormatRGBA8UnormSrgb
		}
		return wgpu.TextureFormatRGBA8Unorm
	case model.Rgba32Float:
		return wgpu.TextureFormatRGBA32Float
	case model.BC4RUnorm:
		return wgpu.TextureFormatBC4RUnorm
	case model.BC5RgUnorm:
		return wgpu.TextureFormatBC5RGUnorm
	case model.BC7RgbaUnorm:
		if srgb {
			return wgpu.TextureFormatBC7RGBAUnormSrgb
		}
		return wgpu.TextureFormatBC7RGBAUnorm
	case model.BC6HRgbUfloat:
		return wgpu.TextureFormatBC6HRGBUfloat
	default:
		return wgpu.TextureFormatRGBA8Unorm
	}
}

// CreateTexture creates a GPU texture for a full mip chain and writes every
// level through the queue.
//
// Parameters:
//   - device: the wgpu device
//   - queue: the queue used for the per-mip writes
//   - t: the packed texture
//   - srgb: whether to create the texture with an sRGB format variant
//
// Returns:
//   - *wgpu.Texture: the created texture
//   - *wgpu.TextureView: a default view over the whole chain
//   - error: error if texture or view creation fails
func CreateTexture(device *wgpu.Device, queue *wgpu.Queue, t *model.Texture, srgb bool) (*wgpu.Texture, *wgpu.TextureView, error) {
	if int(t.MipCount) != len(t.Data) {
		return nil, nil, fmt.Errorf("texture %q: mip count %d does not match %d data levels", t.Name, t.MipCount, len(t.Data))
	}

	tex, err := device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     t.Name,
		Usage:     wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              t.Width,
			Height:             t.Height,
			DepthOrArrayLayers: 1,
		},
		Format:        WGPUFormat(t.Format, srgb),
		MipLevelCount: t.MipCount,
		SampleCount:   1,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("texture %q: %w", t.Name, err)
	}

	for level, data := range t.Data {
		w, h := mipDims(t.Width, t.Height, level)
		queue.WriteTexture(
			&wgpu.ImageCopyTexture{
				Texture:  tex,
				MipLevel: uint32(level),
				Origin:   wgpu.Origin3D{},
				Aspect:   wgpu.TextureAspectAll,
			},
			data,
			&wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  uint32(t.Format.BytesPerRow(w)),
				RowsPerImage: rowCount(t.Format, h),
			},
			&wgpu.Extent3D{
				Width:              w,
				Height:             h,
				DepthOrArrayLayers: 1,
			},
		)
	}

	view, err := tex.CreateView(nil)
	if err != nil {
		return nil, nil, fmt.Errorf("texture %q view: %w", t.Name, err)
	}

	return tex, view, nil
}

// MeshBuffers holds one mesh's GPU-resident geometry.
type MeshBuffers struct {
	Vertex *wgpu.Buffer
	Index  *wgpu.Buffer

	// IndexCount is the number of indices to draw with.
	IndexCount uint32
}

// CreateMeshBuffers creates and fills the vertex and index buffers for a
// packed mesh.
//
// Parameters:
//   - device: the wgpu device
//   - queue: the queue used to write the buffer contents
//   - mesh: the packed mesh
//   - label: debug label prefix for the created buffers
//
// Returns:
//   - *MeshBuffers: the created buffers
//   - error: error if buffer creation fails
func CreateMeshBuffers(device *wgpu.Device, queue *wgpu.Queue, mesh *model.Mesh, label string) (*MeshBuffers, error) {
	out := &MeshBuffers{IndexCount: uint32(len(mesh.Indices))}

	vertexData := common.SliceToBytes(mesh.PackedVertices)
	if len(vertexData) > 0 {
		buf, err := device.CreateBuffer(&wgpu.BufferDescriptor{
			Label:            label + " Vertex Buffer",
			Size:             uint64(len(vertexData)),
			Usage:            wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
			MappedAtCreation: false,
		})
		if err != nil {
			return nil, fmt.Errorf("vertex buffer: %w", err)
		}
		queue.WriteBuffer(buf, 0, vertexData)
		out.Vertex = buf
	}

	indexData := common.SliceToBytes(mesh.Indices)
	if len(indexData) > 0 {
		buf, err := device.CreateBuffer(&wgpu.BufferDescriptor{
			Label:            label + " Index Buffer",
			Size:             uint64(len(indexData)),
			Usage:            wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
			MappedAtCreation: false,
		})
		if err != nil {
			return nil, fmt.Errorf("index buffer: %w", err)
		}
		queue.WriteBuffer(buf, 0, indexData)
		out.Index = buf
	}

	return out, nil
}

// mipDims returns a mip level's dimensions, clamped at one texel.
func mipDims(w, h uint32, level int) (uint32, uint32) {
	for i := 0; i < level; i++ {
		if w > 1 {
			w /= 2
		}
		if h > 1 {
			h /= 2
		}
	}
	return w, h
}

// rowCount is the number of rows WriteTexture copies: texel rows for plain
// formats, 4-texel block rows for block-compressed ones.
func rowCount(f model.TextureFormat, height uint32) uint32 {
	if f.IsCompressed() {
		return (height + 3) / 4
	}
	return height
}
