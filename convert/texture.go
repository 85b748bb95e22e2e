package convert

import (
	"encoding/binary"
	"fmt"
	"image"
	"math"

	"github.com/google/uuid"
	"golang.org/x/image/draw"

	"github.com/packforge/modelpack/model"
	"github.com/packforge/modelpack/packing"
)

// reserveTexture memoizes a material channel's image reference: the first
// reference to a source image reserves an output texture slot and queues a
// pipeline job; later references (from any channel of any material) resolve
// to the same slot without reprocessing. The first reference also decides the
// texture's name, UV transform, and normal-map treatment.
//
// Parameters:
//   - ref: the channel's texture reference, or nil
//   - isNormalMap: whether the referencing channel samples the image as a
//     tangent-space normal map
//
// Returns:
//   - *uint32: the reserved texture slot, or nil for a nil reference
func (b *builder) reserveTexture(ref *TextureRef, isNormalMap bool) *uint32 {
	if ref == nil {
		return nil
	}
	if slot, ok := b.imageTexture[ref.Image]; ok {
		out := slot
		return &out
	}

	slot := uint32(len(b.textures))
	b.textures = append(b.textures, model.Texture{})
	b.imageTexture[ref.Image] = slot

	name := ref.Name
	if name == "" {
		name = "Unnamed"
	}

	b.textureJobs = append(b.textureJobs, textureJob{
		slot:        slot,
		image:       ref.Image,
		name:        name,
		uvOffset:    ref.UVOffset,
		uvScale:     ref.UVScale,
		isNormalMap: isNormalMap,
	})

	out := slot
	return &out
}

// surface is one uncompressed pixel rectangle flowing through the pipeline.
type surface struct {
	width  uint32
	height uint32
	format model.TextureFormat
	pix    []byte
}

// processTextureJob runs the full per-image pipeline: canonicalize the
// decoded pixels, apply the resolution cap, build the mip chain, and
// optionally block-compress. Pure with respect to the builder's shared
// state, so distinct jobs can run on separate workers.
func (b *builder) processTextureJob(job textureJob) (model.Texture, error) {
	if job.image < 0 || job.image >= len(b.doc.Images) {
		return model.Texture{}, fmt.Errorf("image index %d out of range", job.image)
	}
	img := &b.doc.Images[job.image]
	if img.External {
		return model.Texture{}, fmt.Errorf("image %q: %w", job.name, ErrExternalImage)
	}

	base, err := canonicalize(img)
	if err != nil {
		return model.Texture{}, fmt.Errorf("image %q: %w", job.name, err)
	}

	if maxRes := b.opts.MaxTextureResolution; maxRes > 0 && (base.width > maxRes || base.height > maxRes) {
		base = capResolution(base, maxRes)
	}

	mips := []surface{base}
	if b.opts.GenerateMips {
		for {
			prev := mips[len(mips)-1]
			if prev.width <= 1 && prev.height <= 1 {
				break
			}
			nextW := max32u(1, prev.width/2)
			nextH := max32u(1, prev.height/2)

			var next surface
			if job.isNormalMap {
				next, err = normalMapMip(prev, nextW, nextH)
				if err != nil {
					return model.Texture{}, fmt.Errorf("image %q: %w", job.name, err)
				}
			} else {
				next = resizeSurface(prev, nextW, nextH)
			}
			mips = append(mips, next)
		}
	}

	data := make([][]byte, len(mips))
	for i := range mips {
		data[i] = mips[i].pix
	}

	tex := model.Texture{
		Name:     job.name,
		UUID:     uuid.New(),
		Width:    base.width,
		Height:   base.height,
		MipCount: uint32(len(data)),
		Format:   base.format,
		Data:     data,
		UVOffset: job.uvOffset,
		UVScale:  job.uvScale,
	}

	if b.opts.TextureCompression == CompressionBC {
		tex, err = b.compressTexture(tex)
		if err != nil {
			return model.Texture{}, fmt.Errorf("image %q: %w", job.name, err)
		}
	}

	return tex, nil
}

// canonicalize converts a decoded image to one of the four canonical
// formats, collapsing 16-bit integer channels to 8 bits and expanding RGB to
// RGBA. Layouts outside the canonical set are fatal.
func canonicalize(img *Image) (surface, error) {
	n := int(img.Width) * int(img.Height)

	switch img.Layout {
	case LayoutGray8:
		return surface{img.Width, img.Height, model.R8Unorm, img.Pixels}, nil

	case LayoutGrayAlpha8:
		return surface{img.Width, img.Height, model.Rg8Unorm, img.Pixels}, nil

	case LayoutRGBA8:
		return surface{img.Width, img.Height, model.Rgba8Unorm, img.Pixels}, nil

	case LayoutRGB8:
		pix := make([]byte, n*4)
		for i := 0; i < n; i++ {
			pix[i*4] = img.Pixels[i*3]
			pix[i*4+1] = img.Pixels[i*3+1]
			pix[i*4+2] = img.Pixels[i*3+2]
			pix[i*4+3] = 0xFF
		}
		return surface{img.Width, img.Height, model.Rgba8Unorm, pix}, nil

	case LayoutGray16:
		pix := make([]byte, n)
		for i := 0; i < n; i++ {
			pix[i] = narrow16(img.Pixels, i)
		}
		return surface{img.Width, img.Height, model.R8Unorm, pix}, nil

	case LayoutGrayAlpha16:
		pix := make([]byte, n*2)
		for i := 0; i < n*2; i++ {
			pix[i] = narrow16(img.Pixels, i)
		}
		return surface{img.Width, img.Height, model.Rg8Unorm, pix}, nil

	case LayoutRGB16:
		pix := make([]byte, n*4)
		for i := 0; i < n; i++ {
			pix[i*4] = narrow16(img.Pixels, i*3)
			pix[i*4+1] = narrow16(img.Pixels, i*3+1)
			pix[i*4+2] = narrow16(img.Pixels, i*3+2)
			pix[i*4+3] = 0xFF
		}
		return surface{img.Width, img.Height, model.Rgba8Unorm, pix}, nil

	case LayoutRGBA16:
		pix := make([]byte, n*4)
		for i := 0; i < n*4; i++ {
			pix[i] = narrow16(img.Pixels, i)
		}
		return surface{img.Width, img.Height, model.Rgba8Unorm, pix}, nil

	case LayoutRGBAFloat32:
		return surface{img.Width, img.Height, model.Rgba32Float, img.Pixels}, nil
	}

	return surface{}, fmt.Errorf("%w: layout %d", ErrUnsupportedPixelLayout, img.Layout)
}

// narrow16 reads the i-th little-endian 16-bit channel value and collapses
// it to 8 bits (65535/257 = 255, exact for the endpoints).
func narrow16(pixels []byte, i int) byte {
	v := binary.LittleEndian.Uint16(pixels[i*2:])
	return byte(v / 257)
}

// capResolution uniformly downscales a base surface so its larger dimension
// equals the cap. Mip generation restarts from the result.
func capResolution(s surface, maxRes uint32) surface {
	maxDim := s.width
	if s.height > maxDim {
		maxDim = s.height
	}
	f := float64(maxRes) / float64(maxDim)
	newW := max32u(1, uint32(math.Round(float64(s.width)*f)))
	newH := max32u(1, uint32(math.Round(float64(s.height)*f)))
	return resizeSurface(s, newW, newH)
}

// resizeSurface resamples a surface to the given dimensions: Catmull-Rom for
// the 8-bit formats, bilinear for float surfaces (which the draw package
// cannot address). Exact halving under bilinear reduces to a 2x2 box
// average.
func resizeSurface(s surface, newW, newH uint32) surface {
	switch s.format {
	case model.R8Unorm:
		src := &image.Gray{Pix: s.pix, Stride: int(s.width), Rect: image.Rect(0, 0, int(s.width), int(s.height))}
		dst := image.NewGray(image.Rect(0, 0, int(newW), int(newH)))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
		return surface{newW, newH, s.format, dst.Pix}

	case model.Rg8Unorm:
		// The draw package has no two-channel image type: spread the
		// channels into an opaque RGBA, resample, and repack.
		n := int(s.width) * int(s.height)
		rgba := &image.RGBA{
			Pix:    make([]byte, n*4),
			Stride: int(s.width) * 4,
			Rect:   image.Rect(0, 0, int(s.width), int(s.height)),
		}
		for i := 0; i < n; i++ {
			rgba.Pix[i*4] = s.pix[i*2]
			rgba.Pix[i*4+1] = s.pix[i*2+1]
			rgba.Pix[i*4+3] = 0xFF
		}
		dst := image.NewRGBA(image.Rect(0, 0, int(newW), int(newH)))
		draw.CatmullRom.Scale(dst, dst.Bounds(), rgba, rgba.Bounds(), draw.Src, nil)

		out := make([]byte, int(newW)*int(newH)*2)
		for i := 0; i < int(newW)*int(newH); i++ {
			out[i*2] = dst.Pix[i*4]
			out[i*2+1] = dst.Pix[i*4+1]
		}
		return surface{newW, newH, s.format, out}

	case model.Rgba8Unorm:
		src := &image.RGBA{Pix: s.pix, Stride: int(s.width) * 4, Rect: image.Rect(0, 0, int(s.width), int(s.height))}
		dst := image.NewRGBA(image.Rect(0, 0, int(newW), int(newH)))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
		return surface{newW, newH, s.format, dst.Pix}

	case model.Rgba32Float:
		return resizeFloatSurface(s, newW, newH)
	}

	return s
}

// resizeFloatSurface bilinearly resamples a four-channel float32 surface.
func resizeFloatSurface(s surface, newW, newH uint32) surface {
	out := make([]byte, int(newW)*int(newH)*16)

	sx := float64(s.width) / float64(newW)
	sy := float64(s.height) / float64(newH)

	texel := func(x, y int, c int) float32 {
		if x < 0 {
			x = 0
		}
		if y < 0 {
			y = 0
		}
		if x >= int(s.width) {
			x = int(s.width) - 1
		}
		if y >= int(s.height) {
			y = int(s.height) - 1
		}
		off := (y*int(s.width) + x) * 16
		return math.Float32frombits(binary.LittleEndian.Uint32(s.pix[off+c*4:]))
	}

	for y := 0; y < int(newH); y++ {
		for x := 0; x < int(newW); x++ {
			// Map the destination texel center into source space.
			fx := (float64(x)+0.5)*sx - 0.5
			fy := (float64(y)+0.5)*sy - 0.5
			x0, y0 := int(math.Floor(fx)), int(math.Floor(fy))
			wx := float32(fx - math.Floor(fx))
			wy := float32(fy - math.Floor(fy))

			for c := 0; c < 4; c++ {
				v := texel(x0, y0, c)*(1-wx)*(1-wy) +
					texel(x0+1, y0, c)*wx*(1-wy) +
					texel(x0, y0+1, c)*(1-wx)*wy +
					texel(x0+1, y0+1, c)*wx*wy

				off := (y*int(newW)+x)*16 + c*4
				binary.LittleEndian.PutUint32(out[off:], math.Float32bits(v))
			}
		}
	}

	return surface{newW, newH, s.format, out}
}

// normalMapMip downsamples one mip of a tangent-space normal map: each
// destination texel decodes the 2x2 source texels to directions, renormalizes
// each, averages, clamps, and re-encodes. Box-filtering the raw bytes would
// denormalize the stored directions. Normal maps must be four-channel 8-bit.
func normalMapMip(prev surface, newW, newH uint32) (surface, error) {
	if prev.format != model.Rgba8Unorm {
		return surface{}, fmt.Errorf("normal map must be four-channel 8-bit, got %v: %w",
			prev.format, ErrUnsupportedPixelLayout)
	}

	out := make([]byte, int(newW)*int(newH)*4)

	texel := func(x, y uint32) (float32, float32, float32) {
		if x >= prev.width {
			x = prev.width - 1
		}
		if y >= prev.height {
			y = prev.height - 1
		}
		off := (y*prev.width + x) * 4
		nx := float32(prev.pix[off])/255*2 - 1
		ny := float32(prev.pix[off+1])/255*2 - 1
		nz := float32(prev.pix[off+2])/255*2 - 1
		return nx, ny, nz
	}

	for y := uint32(0); y < newH; y++ {
		for x := uint32(0); x < newW; x++ {
			var ax, ay, az float32
			for dy := uint32(0); dy < 2; dy++ {
				for dx := uint32(0); dx < 2; dx++ {
					nx, ny, nz := texel(2*x+dx, 2*y+dy)
					l := float32(math.Sqrt(float64(nx*nx + ny*ny + nz*nz)))
					if l > 0 {
						ax += nx / l
						ay += ny / l
						az += nz / l
					}
				}
			}

			ax = clampUnit(ax / 4)
			ay = clampUnit(ay / 4)
			az = clampUnit(az / 4)

			off := (y*newW + x) * 4
			out[off] = byte((ax*0.5 + 0.5) * 255)
			out[off+1] = byte((ay*0.5 + 0.5) * 255)
			out[off+2] = byte((az*0.5 + 0.5) * 255)
		}
	}

	return surface{newW, newH, model.Rgba8Unorm, out}, nil
}

// compressTexture replaces a canonical-format texture with its
// block-compressed counterpart, truncating the mip chain at the 4x4 block
// granularity and assigning a fresh identifier. Float input is narrowed to
// half precision first, per the BC6H input contract.
func (b *builder) compressTexture(tex model.Texture) (model.Texture, error) {
	target, ok := tex.Format.BCEquivalent()
	if !ok {
		return tex, nil
	}

	texelBytes := uint32(tex.Format.NumChannels() * tex.Format.BytesPerChannel())

	var compressed [][]byte
	mipW, mipH := tex.Width, tex.Height
	for _, mip := range tex.Data {
		data := mip
		stride := mipW * texelBytes
		if target == model.BC6HRgbUfloat {
			data = narrowToHalf(mip)
			stride = mipW * uint32(tex.Format.NumChannels()) * 2
		}

		blocks, err := b.opts.BlockCompressor.CompressBlocks(uint8(target), Surface{
			Width:  mipW,
			Height: mipH,
			Stride: stride,
			Data:   data,
		})
		if err != nil {
			return tex, fmt.Errorf("compress %v mip %dx%d: %w", target, mipW, mipH, err)
		}
		compressed = append(compressed, blocks)

		mipW = max32u(1, mipW/2)
		mipH = max32u(1, mipH/2)
		if mipW < 4 || mipH < 4 {
			break
		}
	}

	return model.Texture{
		Name:     tex.Name,
		UUID:     uuid.New(),
		Width:    tex.Width,
		Height:   tex.Height,
		MipCount: uint32(len(compressed)),
		Format:   target,
		Data:     compressed,
		UVOffset: tex.UVOffset,
		UVScale:  tex.UVScale,
	}, nil
}

// narrowToHalf converts a little-endian float32 pixel buffer to float16.
func narrowToHalf(pix []byte) []byte {
	out := make([]byte, len(pix)/2)
	for i := 0; i+3 < len(pix); i += 4 {
		f := math.Float32frombits(binary.LittleEndian.Uint32(pix[i:]))
		binary.LittleEndian.PutUint16(out[i/2:], packing.Float16Bits(f))
	}
	return out
}

func clampUnit(f float32) float32 {
	if f < -1 {
		return -1
	}
	if f > 1 {
		return 1
	}
	return f
}

func max32u(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}
