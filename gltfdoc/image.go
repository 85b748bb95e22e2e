package gltfdoc

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/packforge/modelpack/convert"
)

func (imp *importer) extractImages() ([]convert.Image, error) {
	images := make([]convert.Image, len(imp.src.Images))
	for i, gi := range imp.src.Images {
		img, err := imp.extractImage(gi)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i, err)
		}
		img.Name = gi.Name
		images[i] = img
	}
	return images, nil
}

// extractImage pulls the image bit stream out of its container framing and
// decodes it to raw pixels. URI-only references carry no pixels and are only
// marked external.
func (imp *importer) extractImage(gi *gltf.Image) (convert.Image, error) {
	var raw []byte
	switch {
	case gi.BufferView != nil:
		bv := *gi.BufferView
		if bv < 0 || bv >= len(imp.src.BufferViews) {
			return convert.Image{}, fmt.Errorf("bufferView %d out of range", bv)
		}
		data, err := modeler.ReadBufferView(imp.src, imp.src.BufferViews[bv])
		if err != nil {
			return convert.Image{}, fmt.Errorf("failed to read image buffer view: %w", err)
		}
		raw = data
	case gi.IsEmbeddedResource():
		data, err := gi.MarshalData()
		if err != nil {
			return convert.Image{}, fmt.Errorf("failed to decode image data URI: %w", err)
		}
		raw = data
	default:
		return convert.Image{External: true}, nil
	}

	return decodePixels(raw)
}

// decodePixels decodes an embedded PNG or JPEG bit stream into tightly
// packed rows. Grayscale and straight-alpha RGBA images keep their native
// layout; 16-bit images are re-ordered to little-endian channels; every
// other color model is converted to 8-bit RGBA.
func decodePixels(raw []byte) (convert.Image, error) {
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return convert.Image{}, fmt.Errorf("failed to decode embedded image: %w", err)
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	out := convert.Image{Width: uint32(w), Height: uint32(h)}

	switch img := src.(type) {
	case *image.Gray:
		out.Layout = convert.LayoutGray8
		out.Pixels = packRows(img.Pix, img.Stride, w, h)
	case *image.Gray16:
		out.Layout = convert.LayoutGray16
		out.Pixels = swapToLittleEndian(packRows(img.Pix, img.Stride, w*2, h))
	case *image.NRGBA:
		out.Layout = convert.LayoutRGBA8
		out.Pixels = packRows(img.Pix, img.Stride, w*4, h)
	case *image.NRGBA64:
		out.Layout = convert.LayoutRGBA16
		out.Pixels = swapToLittleEndian(packRows(img.Pix, img.Stride, w*8, h))
	default:
		rgba := image.NewNRGBA(image.Rect(0, 0, w, h))
		draw.Draw(rgba, rgba.Bounds(), src, bounds.Min, draw.Src)
		out.Layout = convert.LayoutRGBA8
		out.Pixels = rgba.Pix
	}

	return out, nil
}

// packRows copies pixel rows into a tightly packed buffer, dropping any
// per-row stride padding.
func packRows(pix []byte, stride, rowBytes, height int) []byte {
	if stride == rowBytes {
		out := make([]byte, rowBytes*height)
		copy(out, pix)
		return out
	}
	out := make([]byte, 0, rowBytes*height)
	for y := 0; y < height; y++ {
		out = append(out, pix[y*stride:y*stride+rowBytes]...)
	}
	return out
}

// swapToLittleEndian reorders big-endian 16-bit channel pairs in place. The
// standard library decodes 16-bit images big-endian; the document contract
// is little-endian.
func swapToLittleEndian(pix []byte) []byte {
	for i := 0; i+1 < len(pix); i += 2 {
		pix[i], pix[i+1] = pix[i+1], pix[i]
	}
	return pix
}
