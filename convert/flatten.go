package convert

import (
	"fmt"

	"github.com/packforge/modelpack/common"
	"github.com/packforge/modelpack/model"
)

// flattenScene walks the source hierarchy depth-first in pre-order,
// appending one ModelNode per visited source node and assembling each
// referenced mesh on first encounter. The walk is iterative with an explicit
// stack, and a visited set rejects malformed (cyclic) hierarchies.
func (b *builder) flattenScene() error {
	type frame struct {
		src    int
		parent int // output index of the parent node, -1 for roots
	}

	visited := make(map[int]bool, len(b.doc.Nodes))
	stack := make([]frame, 0, len(b.doc.Nodes))

	// Roots pushed in reverse so they pop (and get indexed) in source order.
	for i := len(b.doc.RootNodes) - 1; i >= 0; i-- {
		stack = append(stack, frame{src: b.doc.RootNodes[i], parent: -1})
	}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.src < 0 || f.src >= len(b.doc.Nodes) {
			return fmt.Errorf("node index %d out of range", f.src)
		}
		if visited[f.src] {
			return fmt.Errorf("node %d appears more than once in the hierarchy", f.src)
		}
		visited[f.src] = true

		src := &b.doc.Nodes[f.src]
		out := uint32(len(b.nodes))

		node, err := b.flattenNode(src)
		if err != nil {
			return fmt.Errorf("node %d (%s): %w", f.src, node.Name, err)
		}
		b.nodes = append(b.nodes, node)

		if f.parent >= 0 {
			parent := &b.nodes[f.parent]
			parent.ChildNodeIndices = append(parent.ChildNodeIndices, out)
		} else {
			b.rootNodes = append(b.rootNodes, out)
		}

		for i := len(src.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{src: src.Children[i], parent: int(out)})
		}
	}

	return nil
}

// flattenNode converts one source node: recompose the TRS into the stored
// column-major matrix and assemble the referenced mesh if any.
func (b *builder) flattenNode(src *Node) (model.ModelNode, error) {
	name := src.Name
	if name == "" {
		name = "Unnamed"
	}

	node := model.ModelNode{Name: name}
	common.ComposeTRS(node.Transform[:], src.Translation[:], src.Rotation[:], src.Scale[:])

	if src.Mesh != nil {
		meshIdx, err := b.assembleMesh(*src.Mesh)
		if err != nil {
			return node, err
		}
		node.MeshIdx = &meshIdx
	}

	return node, nil
}
