// Package model defines the packed, render-ready model aggregate produced by
// the conversion pipeline: a flat node hierarchy, packed meshes, harvested
// materials, and mip-mapped textures. All entities are plain data so the
// aggregate can be persisted losslessly by the binary codec.
package model

import (
	"math"

	"github.com/packforge/modelpack/common"
)

// ModelNode is one node of the flattened scene hierarchy. Child indices
// always reference nodes appended after the node itself, so the node array
// encodes a forest in depth-first pre-order.
type ModelNode struct {
	// Name is the node's display name ("Unnamed" when the source had none).
	Name string

	// Transform is the node's local transform, column-major 4x4.
	Transform [16]float32

	// MeshIdx is the index into Model.Meshes, or nil for an empty node.
	MeshIdx *uint32

	// ChildNodeIndices are indices into Model.Nodes, in source order.
	ChildNodeIndices []uint32
}

// Model is the finished aggregate: everything a renderer needs to draw the
// asset, with all cross-references expressed as indices into the contained
// arrays.
type Model struct {
	// RootNodeIndices are the indices of the hierarchy roots, in source order.
	RootNodeIndices []uint32

	// Nodes is the flattened hierarchy in depth-first pre-order.
	Nodes []ModelNode

	// BoundsMin and BoundsMax are the componentwise min/max over every mesh's
	// local bounds (+Inf/-Inf when the model has no meshes).
	BoundsMin [3]float32
	BoundsMax [3]float32

	Meshes    []Mesh
	Materials []Material
	Textures  []Texture
}

// EmptyBounds returns the empty-set bounds sentinel (+Inf min, -Inf max),
// the identity element for componentwise min/max union.
func EmptyBounds() (bmin, bmax [3]float32) {
	inf := float32(math.Inf(1))
	return [3]float32{inf, inf, inf}, [3]float32{-inf, -inf, -inf}
}

// TraverseNodes walks the hierarchy depth-first from every root, calling the
// visitor with each node and its composed world transform (parent world
// transform multiplied by the node's local transform, seeded with
// rootTransform). The walk is iterative and keeps a visited set so a
// malformed model containing an index cycle terminates instead of looping.
//
// Parameters:
//   - rootTransform: world transform applied above every root node (16
//     elements, column-major)
//   - visit: callback invoked once per reachable node
func (m *Model) TraverseNodes(rootTransform []float32, visit func(node *ModelNode, worldTransform [16]float32)) {
	type frame struct {
		node      uint32
		transform [16]float32
	}

	var root [16]float32
	copy(root[:], rootTransform)

	visited := make(map[uint32]bool, len(m.Nodes))
	stack := make([]frame, 0, len(m.Nodes))

	// Push roots in reverse so they pop in source order.
	for i := len(m.RootNodeIndices) - 1; i >= 0; i-- {
		stack = append(stack, frame{node: m.RootNodeIndices[i], transform: root})
	}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if int(f.node) >= len(m.Nodes) || visited[f.node] {
			continue
		}
		visited[f.node] = true

		node := &m.Nodes[f.node]

		var world [16]float32
		common.Mul4(world[:], f.transform[:], node.Transform[:])

		visit(node, world)

		for i := len(node.ChildNodeIndices) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: node.ChildNodeIndices[i], transform: world})
		}
	}
}
