package convert

import (
	"github.com/packforge/modelpack/model"
)

// builder is the single mutable context threaded through every pipeline
// stage. It owns the output arrays and the memoization tables that keep
// mesh/material/texture conversion at-most-once per distinct source index.
// Only the traversal goroutine mutates it; the texture fan-out writes
// exclusively into pre-reserved texture slots.
type builder struct {
	doc  *Document
	opts Options

	rootNodes []uint32
	nodes     []model.ModelNode
	meshes    []model.Mesh
	materials []model.Material
	textures  []model.Texture

	// meshIndex memoizes source mesh index → output mesh index (already
	// redirected when deduplication collapsed the mesh).
	meshIndex map[int]uint32

	// meshHashes holds the content hash of each finalized mesh, parallel to
	// meshes, for the deduplication scan.
	meshHashes []uint64

	// harvested marks material slots whose parameters are already populated.
	harvested map[uint32]bool

	// imageTexture memoizes source image index → reserved texture slot.
	imageTexture map[int]uint32

	// textureJobs is the per-image work queue filled during traversal and
	// executed afterwards (possibly in parallel).
	textureJobs []textureJob
}

// textureJob describes one reserved texture slot awaiting pipeline output.
type textureJob struct {
	slot        uint32
	image       int
	name        string
	uvOffset    [2]float32
	uvScale     [2]float32
	isNormalMap bool
}

func newBuilder(doc *Document, opts Options) *builder {
	b := &builder{
		doc:          doc,
		opts:         opts,
		meshIndex:    make(map[int]uint32),
		harvested:    make(map[uint32]bool),
		imageTexture: make(map[int]uint32),
	}

	// Material slots mirror the source material array; a document with no
	// materials still gets the default slot 0.
	n := len(doc.Materials)
	if n == 0 {
		n = 1
	}
	b.materials = make([]model.Material, n)
	for i := range b.materials {
		b.materials[i] = model.DefaultMaterial()
	}

	return b
}

// finish aggregates the builder's arrays into the final Model, computing the
// overall bounds as the union of every mesh's local bounds.
func (b *builder) finish() *model.Model {
	bmin, bmax := model.EmptyBounds()
	for i := range b.meshes {
		for j := 0; j < 3; j++ {
			if b.meshes[i].BoundsMin[j] < bmin[j] {
				bmin[j] = b.meshes[i].BoundsMin[j]
			}
			if b.meshes[i].BoundsMax[j] > bmax[j] {
				bmax[j] = b.meshes[i].BoundsMax[j]
			}
		}
	}

	return &model.Model{
		RootNodeIndices: b.rootNodes,
		Nodes:           b.nodes,
		BoundsMin:       bmin,
		BoundsMax:       bmax,
		Meshes:          b.meshes,
		Materials:       b.materials,
		Textures:        b.textures,
	}
}
