package convert

import "errors"

// Fatal condition sentinels. Every fatal row of the conversion's error policy
// maps to exactly one of these so callers can classify failures with
// errors.Is; the wrapping layers add node/mesh/image context.
var (
	// ErrNonTriangleTopology marks a primitive whose topology is anything
	// other than a triangle list.
	ErrNonTriangleTopology = errors.New("primitive topology is not triangles")

	// ErrMissingPositions marks a primitive with no position accessor.
	ErrMissingPositions = errors.New("primitive has no positions")

	// ErrMissingIndices marks a primitive with no index accessor.
	ErrMissingIndices = errors.New("primitive has no indices")

	// ErrAttributeLengthMismatch marks a primitive whose attribute array
	// length disagrees with its position count.
	ErrAttributeLengthMismatch = errors.New("primitive attribute length does not match position count")

	// ErrUnsupportedPixelLayout marks an image whose channel layout cannot be
	// normalized to a canonical texture format.
	ErrUnsupportedPixelLayout = errors.New("unsupported pixel layout")

	// ErrUnsupportedCompression marks a compression family that is accepted
	// by the configuration type but not implemented.
	ErrUnsupportedCompression = errors.New("unsupported texture compression")

	// ErrNoBlockCompressor marks a block-compression request with no
	// compressor collaborator installed in the options.
	ErrNoBlockCompressor = errors.New("block compression requested but no compressor configured")

	// ErrExternalImage marks an image referenced by URI with no embedded
	// pixel data.
	ErrExternalImage = errors.New("image referenced by external URI")
)
