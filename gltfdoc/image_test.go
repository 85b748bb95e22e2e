package gltfdoc

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/qmuntal/gltf"

	"github.com/packforge/modelpack/convert"
)

// addImageBufferView appends raw bytes as a dedicated buffer plus a view
// over it, the way a GLB container embeds images.
func addImageBufferView(doc *gltf.Document, data []byte) int {
	doc.Buffers = append(doc.Buffers, &gltf.Buffer{ByteLength: len(data), Data: data})
	doc.BufferViews = append(doc.BufferViews, &gltf.BufferView{
		Buffer:     len(doc.Buffers) - 1,
		ByteLength: len(data),
	})
	return len(doc.BufferViews) - 1
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return buf.Bytes()
}

func TestExtractEmbeddedGrayImage(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 2, 2))
	src.Pix = []byte{10, 20, 30, 40}

	doc := &gltf.Document{}
	bv := addImageBufferView(doc, encodePNG(t, src))
	doc.Images = []*gltf.Image{{Name: "mask", BufferView: &bv}}

	out, err := FromDocument(doc)
	if err != nil {
		t.Fatalf("FromDocument: %v", err)
	}
	img := out.Images[0]

	if img.External {
		t.Error("embedded image marked external")
	}
	if img.Name != "mask" {
		t.Errorf("name = %q", img.Name)
	}
	if img.Width != 2 || img.Height != 2 {
		t.Errorf("size = %dx%d, want 2x2", img.Width, img.Height)
	}
	if img.Layout != convert.LayoutGray8 {
		t.Errorf("layout = %v, want Gray8", img.Layout)
	}
	if !bytes.Equal(img.Pixels, []byte{10, 20, 30, 40}) {
		t.Errorf("pixels = %v", img.Pixels)
	}
}

func TestExtractEmbeddedRGBAImage(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 1, 2))
	src.SetNRGBA(0, 0, color.NRGBA{R: 1, G: 2, B: 3, A: 255})
	src.SetNRGBA(0, 1, color.NRGBA{R: 4, G: 5, B: 6, A: 128})

	doc := &gltf.Document{}
	bv := addImageBufferView(doc, encodePNG(t, src))
	doc.Images = []*gltf.Image{{BufferView: &bv}}

	out, err := FromDocument(doc)
	if err != nil {
		t.Fatalf("FromDocument: %v", err)
	}
	img := out.Images[0]

	if img.Layout != convert.LayoutRGBA8 {
		t.Errorf("layout = %v, want RGBA8", img.Layout)
	}
	want := []byte{1, 2, 3, 255, 4, 5, 6, 128}
	if !bytes.Equal(img.Pixels, want) {
		t.Errorf("pixels = %v, want %v", img.Pixels, want)
	}
}

func TestExtractSixteenBitImageIsLittleEndian(t *testing.T) {
	src := image.NewGray16(image.Rect(0, 0, 2, 1))
	src.SetGray16(0, 0, color.Gray16{Y: 0x1234})
	src.SetGray16(1, 0, color.Gray16{Y: 0xFF00})

	doc := &gltf.Document{}
	bv := addImageBufferView(doc, encodePNG(t, src))
	doc.Images = []*gltf.Image{{BufferView: &bv}}

	out, err := FromDocument(doc)
	if err != nil {
		t.Fatalf("FromDocument: %v", err)
	}
	img := out.Images[0]

	if img.Layout != convert.LayoutGray16 {
		t.Errorf("layout = %v, want Gray16", img.Layout)
	}
	want := []byte{0x34, 0x12, 0x00, 0xFF}
	if !bytes.Equal(img.Pixels, want) {
		t.Errorf("pixels = %v, want %v", img.Pixels, want)
	}
}

func TestExtractPalettedImageConvertsToRGBA(t *testing.T) {
	pal := color.Palette{
		color.NRGBA{R: 255, G: 0, B: 0, A: 255},
		color.NRGBA{R: 0, G: 255, B: 0, A: 255},
	}
	src := image.NewPaletted(image.Rect(0, 0, 2, 1), pal)
	src.SetColorIndex(0, 0, 0)
	src.SetColorIndex(1, 0, 1)

	doc := &gltf.Document{}
	bv := addImageBufferView(doc, encodePNG(t, src))
	doc.Images = []*gltf.Image{{BufferView: &bv}}

	out, err := FromDocument(doc)
	if err != nil {
		t.Fatalf("FromDocument: %v", err)
	}
	img := out.Images[0]

	if img.Layout != convert.LayoutRGBA8 {
		t.Errorf("layout = %v, want RGBA8", img.Layout)
	}
	want := []byte{255, 0, 0, 255, 0, 255, 0, 255}
	if !bytes.Equal(img.Pixels, want) {
		t.Errorf("pixels = %v, want %v", img.Pixels, want)
	}
}

func TestExtractDataURIImage(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 1, 1))
	src.Pix = []byte{77}
	raw := encodePNG(t, src)

	doc := &gltf.Document{}
	doc.Images = []*gltf.Image{{
		URI: "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw),
	}}

	out, err := FromDocument(doc)
	if err != nil {
		t.Fatalf("FromDocument: %v", err)
	}
	img := out.Images[0]

	if img.External {
		t.Error("data URI image marked external")
	}
	if img.Layout != convert.LayoutGray8 || !bytes.Equal(img.Pixels, []byte{77}) {
		t.Errorf("layout/pixels = %v %v", img.Layout, img.Pixels)
	}
}

func TestExtractExternalImage(t *testing.T) {
	doc := &gltf.Document{}
	doc.Images = []*gltf.Image{{Name: "far", URI: "textures/far.png"}}

	out, err := FromDocument(doc)
	if err != nil {
		t.Fatalf("FromDocument: %v", err)
	}
	img := out.Images[0]

	if !img.External {
		t.Error("URI-only image not marked external")
	}
	if img.Pixels != nil {
		t.Errorf("external image carries %d pixel bytes", len(img.Pixels))
	}
}

func TestExtractCorruptImageFails(t *testing.T) {
	doc := &gltf.Document{}
	bv := addImageBufferView(doc, []byte("not an image"))
	doc.Images = []*gltf.Image{{BufferView: &bv}}

	if _, err := FromDocument(doc); err == nil {
		t.Error("corrupt image accepted")
	}
}
