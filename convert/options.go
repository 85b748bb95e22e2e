package convert

// Compression selects the texture compression family.
type Compression uint8

const (
	// CompressionNone stores textures in their canonical uncompressed format.
	CompressionNone Compression = iota

	// CompressionBC block-compresses each texture to its BC counterpart
	// (R8→BC4, RG8→BC5, RGBA8→BC7, RGBA32F→BC6H) via the configured
	// BlockCompressor.
	CompressionBC

	// CompressionASTC is accepted by the type but not implemented;
	// requesting it fails with ErrUnsupportedCompression before any image
	// is processed.
	CompressionASTC
)

// Surface describes one uncompressed mip level handed to a BlockCompressor:
// tightly packed rows of canonical-format pixels. For the BC6H target the
// pixel data is already narrowed to half-precision floats.
type Surface struct {
	Width  uint32
	Height uint32
	// Stride is the row pitch in bytes.
	Stride uint32
	Data   []byte
}

// BlockCompressor is the external block-compression collaborator: a pure
// function from an uncompressed surface to compressed block bytes. The
// format parameter is the compressed target (one of the BC formats).
type BlockCompressor interface {
	// CompressBlocks compresses one surface to the given BC format.
	//
	// Parameters:
	//   - format: the compressed target format tag (model.TextureFormat value)
	//   - surface: the uncompressed mip surface
	//
	// Returns:
	//   - []byte: the compressed block data
	//   - error: error if compression fails
	CompressBlocks(format uint8, surface Surface) ([]byte, error)
}

// Options is the conversion configuration surface.
type Options struct {
	// TextureCompression selects the compression family (default none).
	TextureCompression Compression

	// GenerateMips enables full mip-chain generation; when false every
	// texture keeps a single base level.
	GenerateMips bool

	// MaxTextureResolution caps the base level's larger dimension
	// (0 = uncapped). Base images exceeding the cap are uniformly downscaled
	// before mip generation.
	MaxTextureResolution uint32

	// MergeDuplicateMeshes collapses meshes with identical packed content
	// into one entry, redirecting the referencing nodes.
	MergeDuplicateMeshes bool

	// TextureWorkers bounds the worker pool for the per-image texture
	// fan-out. Zero or one processes images on the calling goroutine.
	TextureWorkers int

	// BlockCompressor performs the actual BC bit-packing. Required when
	// TextureCompression is CompressionBC.
	BlockCompressor BlockCompressor
}
