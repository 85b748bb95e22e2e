// Package codec persists the packed model aggregate as a little-endian
// binary stream. The format is a direct, schema-less transcription of the
// model's plain data: fixed-width numerics, u32-length-prefixed sequences,
// one-byte presence flags for optionals, and a one-byte tag for the texture
// format variant.
package codec

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/packforge/modelpack/model"
)

var magic = [4]byte{'M', 'P', 'A', 'K'}

const version uint16 = 1

// maxSequenceLen bounds every decoded length prefix so a corrupt or
// hostile stream cannot trigger an arbitrarily large allocation.
const maxSequenceLen = 1 << 28

type encoder struct {
	w   io.Writer
	err error
}

func (e *encoder) write(v any) {
	if e.err != nil {
		return
	}
	e.err = binary.Write(e.w, binary.LittleEndian, v)
}

func (e *encoder) length(n int) {
	e.write(uint32(n))
}

func (e *encoder) str(s string) {
	e.length(len(s))
	if e.err == nil {
		_, e.err = io.WriteString(e.w, s)
	}
}

func (e *encoder) bytes(b []byte) {
	e.length(len(b))
	if e.err == nil {
		_, e.err = e.w.Write(b)
	}
}

func (e *encoder) optional(v *uint32) {
	if v == nil {
		e.write(uint8(0))
		return
	}
	e.write(uint8(1))
	e.write(*v)
}

type decoder struct {
	r   io.Reader
	err error
}

func (d *decoder) read(v any) {
	if d.err != nil {
		return
	}
	d.err = binary.Read(d.r, binary.LittleEndian, v)
}

func (d *decoder) length() int {
	var n uint32
	d.read(&n)
	if d.err == nil && n > maxSequenceLen {
		d.err = fmt.Errorf("sequence length %d exceeds limit", n)
		return 0
	}
	return int(n)
}

func (d *decoder) str() string {
	n := d.length()
	if d.err != nil || n == 0 {
		return ""
	}
	buf := make([]byte, n)
	_, d.err = io.ReadFull(d.r, buf)
	return string(buf)
}

func (d *decoder) bytes() []byte {
	n := d.length()
	if d.err != nil || n == 0 {
		return nil
	}
	buf := make([]byte, n)
	_, d.err = io.ReadFull(d.r, buf)
	return buf
}

func (d *decoder) optional() *uint32 {
	var present uint8
	d.read(&present)
	if d.err != nil || present == 0 {
		return nil
	}
	var v uint32
	d.read(&v)
	return &v
}

// Encode writes the model to w.
//
// Parameters:
//   - w: destination stream
//   - m: the model to persist
//
// Returns:
//   - error: the first write error, if any
func Encode(w io.Writer, m *model.Model) error {
	e := &encoder{w: w}

	e.write(magic)
	e.write(version)

	e.length(len(m.RootNodeIndices))
	e.write(m.RootNodeIndices)

	e.length(len(m.Nodes))
	for i := range m.Nodes {
		encodeNode(e, &m.Nodes[i])
	}

	e.write(m.BoundsMin)
	e.write(m.BoundsMax)

	e.length(len(m.Meshes))
	for i := range m.Meshes {
		encodeMesh(e, &m.Meshes[i])
	}

	e.length(len(m.Materials))
	for i := range m.Materials {
		encodeMaterial(e, &m.Materials[i])
	}

	e.length(len(m.Textures))
	for i := range m.Textures {
		encodeTexture(e, &m.Textures[i])
	}

	return e.err
}

// Decode reads a model from r, verifying the magic and version.
//
// Parameters:
//   - r: source stream
//
// Returns:
//   - *model.Model: the decoded model
//   - error: format or read error
func Decode(r io.Reader) (*model.Model, error) {
	d := &decoder{r: r}

	var gotMagic [4]byte
	d.read(&gotMagic)
	if d.err == nil && gotMagic != magic {
		return nil, fmt.Errorf("bad magic %q", gotMagic[:])
	}
	var gotVersion uint16
	d.read(&gotVersion)
	if d.err == nil && gotVersion != version {
		return nil, fmt.Errorf("unsupported version %d", gotVersion)
	}

	m := &model.Model{}

	if n := d.length(); n > 0 {
		m.RootNodeIndices = make([]uint32, n)
		d.read(m.RootNodeIndices)
	}

	if n := d.length(); n > 0 {
		m.Nodes = make([]model.ModelNode, n)
		for i := range m.Nodes {
			decodeNode(d, &m.Nodes[i])
		}
	}

	d.read(&m.BoundsMin)
	d.read(&m.BoundsMax)

	if n := d.length(); n > 0 {
		m.Meshes = make([]model.Mesh, n)
		for i := range m.Meshes {
			decodeMesh(d, &m.Meshes[i])
		}
	}

	if n := d.length(); n > 0 {
		m.Materials = make([]model.Material, n)
		for i := range m.Materials {
			decodeMaterial(d, &m.Materials[i])
		}
	}

	if n := d.length(); n > 0 {
		m.Textures = make([]model.Texture, n)
		for i := range m.Textures {
			decodeTexture(d, &m.Textures[i])
		}
	}

	if d.err != nil {
		return nil, d.err
	}
	return m, nil
}

func encodeNode(e *encoder, n *model.ModelNode) {
	e.str(n.Name)
	e.write(n.Transform)
	e.optional(n.MeshIdx)
	e.length(len(n.ChildNodeIndices))
	e.write(n.ChildNodeIndices)
}

func decodeNode(d *decoder, n *model.ModelNode) {
	n.Name = d.str()
	d.read(&n.Transform)
	n.MeshIdx = d.optional()
	if c := d.length(); c > 0 {
		n.ChildNodeIndices = make([]uint32, c)
		d.read(n.ChildNodeIndices)
	}
}

func encodeMesh(e *encoder, m *model.Mesh) {
	e.length(len(m.PackedVertices))
	e.write(m.PackedVertices)
	e.length(len(m.TriangleMaterialIndices))
	e.write(m.TriangleMaterialIndices)
	e.length(len(m.Indices))
	e.write(m.Indices)
	e.write(m.Opaque)
	e.write(m.IsEmissive)
	e.write(m.BoundsMin)
	e.write(m.BoundsMax)
}

func decodeMesh(d *decoder, m *model.Mesh) {
	if n := d.length(); n > 0 {
		m.PackedVertices = make([]model.PackedVertex, n)
		d.read(m.PackedVertices)
	}
	if n := d.length(); n > 0 {
		m.TriangleMaterialIndices = make([]uint32, n)
		d.read(m.TriangleMaterialIndices)
	}
	if n := d.length(); n > 0 {
		m.Indices = make([]uint32, n)
		d.read(m.Indices)
	}
	d.read(&m.Opaque)
	d.read(&m.IsEmissive)
	d.read(&m.BoundsMin)
	d.read(&m.BoundsMax)
}

func encodeMaterial(e *encoder, m *model.Material) {
	e.optional(m.Index)

	e.write(m.Color)
	e.optional(m.ColorTexture)
	e.write(m.Metallic)
	e.write(m.Roughness)
	e.optional(m.MetallicRoughnessTexture)
	e.write(m.NormalScale)
	e.optional(m.NormalTexture)
	e.write(m.Emission)
	e.optional(m.EmissionTexture)

	e.write(m.Absorption)
	e.write(m.Transmission)
	e.optional(m.TransmissionTexture)
	e.write(m.Eta)

	e.write(m.Subsurface)
	e.write(m.Specular)
	e.write(m.SpecularTint)
	e.write(m.Anisotropic)

	e.write(m.Sheen)
	e.optional(m.SheenTexture)
	e.write(m.SheenTint)
	e.optional(m.SheenTintTexture)

	e.write(m.Clearcoat)
	e.optional(m.ClearcoatTexture)
	e.write(m.ClearcoatRoughness)
	e.optional(m.ClearcoatRoughnessTexture)
	e.optional(m.ClearcoatNormalTexture)

	e.write(m.IsOpaque)
	e.write(m.AlphaCutoff)
}

func decodeMaterial(d *decoder, m *model.Material) {
	m.Index = d.optional()

	d.read(&m.Color)
	m.ColorTexture = d.optional()
	d.read(&m.Metallic)
	d.read(&m.Roughness)
	m.MetallicRoughnessTexture = d.optional()
	d.read(&m.NormalScale)
	m.NormalTexture = d.optional()
	d.read(&m.Emission)
	m.EmissionTexture = d.optional()

	d.read(&m.Absorption)
	d.read(&m.Transmission)
	m.TransmissionTexture = d.optional()
	d.read(&m.Eta)

	d.read(&m.Subsurface)
	d.read(&m.Specular)
	d.read(&m.SpecularTint)
	d.read(&m.Anisotropic)

	d.read(&m.Sheen)
	m.SheenTexture = d.optional()
	d.read(&m.SheenTint)
	m.SheenTintTexture = d.optional()

	d.read(&m.Clearcoat)
	m.ClearcoatTexture = d.optional()
	d.read(&m.ClearcoatRoughness)
	m.ClearcoatRoughnessTexture = d.optional()
	m.ClearcoatNormalTexture = d.optional()

	d.read(&m.IsOpaque)
	d.read(&m.AlphaCutoff)
}

func encodeTexture(e *encoder, t *model.Texture) {
	e.str(t.Name)
	e.write(t.UUID)
	e.write(t.Width)
	e.write(t.Height)
	e.write(t.MipCount)
	e.write(uint8(t.Format))
	e.length(len(t.Data))
	for _, mip := range t.Data {
		e.bytes(mip)
	}
	e.write(t.UVOffset)
	e.write(t.UVScale)
}

func decodeTexture(d *decoder, t *model.Texture) {
	t.Name = d.str()
	d.read(&t.UUID)
	d.read(&t.Width)
	d.read(&t.Height)
	d.read(&t.MipCount)
	var format uint8
	d.read(&format)
	t.Format = model.TextureFormat(format)
	if n := d.length(); n > 0 {
		t.Data = make([][]byte, n)
		for i := range t.Data {
			t.Data[i] = d.bytes()
		}
	}
	d.read(&t.UVOffset)
	d.read(&t.UVScale)
}
