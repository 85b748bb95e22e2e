// Package convert turns an already-parsed scene document into a packed
// model.Model: it flattens the node hierarchy, assembles and optionally
// deduplicates mesh geometry, harvests material parameters, and runs every
// referenced image through the texture pipeline (canonical format, mip chain,
// optional resolution cap and block compression).
package convert

// Document is the input contract: a fully parsed scene asset with decoded
// images. Container framing and image bit-stream decoding happen upstream
// (see the gltfdoc adapter); this package only consumes plain data.
type Document struct {
	// RootNodes are indices into Nodes of the default scene's roots.
	RootNodes []int

	Nodes     []Node
	Meshes    []SourceMesh
	Materials []SourceMaterial
	Images    []Image
}

// Node is one source hierarchy node with a decomposed local transform.
type Node struct {
	// Name is empty when the source has none.
	Name string

	Translation [3]float32
	// Rotation is a quaternion in x/y/z/w order.
	Rotation [4]float32
	Scale    [3]float32

	// Mesh is an index into Document.Meshes, or nil.
	Mesh *int

	// Children are indices into Document.Nodes.
	Children []int
}

// Topology identifies a primitive's assembly mode. Only triangle lists are
// convertible; everything else is rejected.
type Topology uint8

const (
	TopologyTriangles Topology = iota
	TopologyPoints
	TopologyLines
	TopologyLineLoop
	TopologyLineStrip
	TopologyTriangleStrip
	TopologyTriangleFan
)

// SourceMesh is one source mesh: an ordered list of primitives that assemble
// into a single packed mesh.
type SourceMesh struct {
	Name       string
	Primitives []Primitive
}

// Primitive is one vertex/index stream of a source mesh. Positions and
// Indices are required; nil means the accessor was absent, which is fatal.
// The remaining attribute arrays are optional and synthesized when nil.
type Primitive struct {
	Topology Topology

	Positions [][3]float32
	Normals   [][3]float32
	Tangents  [][4]float32
	TexCoords [][2]float32
	Indices   []uint32

	// Material is an index into Document.Materials, or nil for the default
	// material slot.
	Material *int
}

// AlphaMode is the source material's alpha interpretation.
type AlphaMode uint8

const (
	AlphaOpaque AlphaMode = iota
	AlphaMask
	AlphaBlend
)

// TextureRef is one material channel's reference to a source image, together
// with the channel's UV transform.
type TextureRef struct {
	// Image is an index into Document.Images.
	Image int

	// Name is the source texture's name (empty when unnamed).
	Name string

	// UVOffset and UVScale come from the channel's texture transform; the
	// adapter fills in the identity (0, 0) / (1, 1) when absent.
	UVOffset [2]float32
	UVScale  [2]float32
}

// SourceMaterial carries the raw material accessors of the source document.
// Optional extension values are pre-resolved to their spec defaults by the
// adapter (IOR 1.5, emissive strength 1, attenuation color white with
// infinite distance) so harvesting stays a plain mapping.
type SourceMaterial struct {
	BaseColorFactor          [4]float32
	BaseColorTexture         *TextureRef
	MetallicFactor           float32
	RoughnessFactor          float32
	MetallicRoughnessTexture *TextureRef

	NormalScale   float32
	NormalTexture *TextureRef

	EmissiveFactor   [3]float32
	EmissiveStrength float32
	EmissiveTexture  *TextureRef

	// HasVolume reports whether the volume extension was present; the
	// attenuation fields are only meaningful when it is.
	HasVolume           bool
	AttenuationColor    [3]float32
	AttenuationDistance float32

	TransmissionFactor  float32
	TransmissionTexture *TextureRef

	IOR float32

	HasSpecular         bool
	SpecularFactor      float32
	SpecularColorFactor [3]float32

	HasClearcoat              bool
	ClearcoatFactor           float32
	ClearcoatTexture          *TextureRef
	ClearcoatRoughnessFactor  float32
	ClearcoatRoughnessTexture *TextureRef
	ClearcoatNormalTexture    *TextureRef

	HasSheen              bool
	SheenRoughnessFactor  float32
	SheenRoughnessTexture *TextureRef
	SheenColorFactor      [3]float32
	SheenColorTexture     *TextureRef

	AlphaMode AlphaMode
	// AlphaCutoff is nil when the source omits it (defaults to 0.5).
	AlphaCutoff *float32
}

// PixelLayout tags a decoded image's channel layout and bit depth.
type PixelLayout uint8

const (
	// 8 bits per channel.
	LayoutGray8 PixelLayout = iota
	LayoutGrayAlpha8
	LayoutRGB8
	LayoutRGBA8

	// 16 bits per channel, little-endian; collapsed to 8 bits on conversion.
	LayoutGray16
	LayoutGrayAlpha16
	LayoutRGB16
	LayoutRGBA16

	// 32-bit float per channel.
	LayoutRGBAFloat32
)

// Image is one decoded source image.
type Image struct {
	// Name is empty when the source has none.
	Name string

	// External marks an image referenced only by URI, with no embedded
	// pixels. Converting a document that uses one is fatal.
	External bool

	Width  uint32
	Height uint32
	Layout PixelLayout

	// Pixels holds tightly packed rows in the Layout's byte order.
	Pixels []byte
}
