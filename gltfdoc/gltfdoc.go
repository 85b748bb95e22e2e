// Package gltfdoc parses glTF 2.0 assets into the convert package's plain
// scene document. It handles container framing, accessor reads, KHR material
// extensions, and image bit-stream decoding; everything downstream of the
// parsed document is the convert package's job.
package gltfdoc

import (
	"fmt"

	"github.com/qmuntal/gltf"

	"github.com/packforge/modelpack/common"
	"github.com/packforge/modelpack/convert"
)

var identityMatrix = [16]float64{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 1, 0,
	0, 0, 0, 1,
}

// Load opens a .gltf or .glb asset and converts it into a scene document.
//
// Parameters:
//   - path: path to the asset on disk
//
// Returns:
//   - *convert.Document: the parsed scene document
//   - error: error if the file cannot be opened or converted
func Load(path string) (*convert.Document, error) {
	src, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open glTF asset %q: %w", path, err)
	}
	return FromDocument(src)
}

// FromDocument converts an already-parsed glTF document into a scene
// document. Accessor data is decoded eagerly; images are decoded into raw
// pixels, except external URI references which are only marked as such.
//
// Parameters:
//   - src: the parsed glTF document
//
// Returns:
//   - *convert.Document: the converted scene document
//   - error: error if any accessor or embedded image cannot be decoded
func FromDocument(src *gltf.Document) (*convert.Document, error) {
	imp := &importer{src: src}

	doc := &convert.Document{}
	var err error

	if doc.Nodes, err = imp.extractNodes(); err != nil {
		return nil, err
	}
	doc.RootNodes = imp.extractRootNodes()

	if doc.Meshes, err = imp.extractMeshes(); err != nil {
		return nil, err
	}
	doc.Materials = imp.extractMaterials()
	if doc.Images, err = imp.extractImages(); err != nil {
		return nil, err
	}

	return doc, nil
}

// importer walks one glTF document. It is single-use and not safe for
// concurrent use.
type importer struct {
	src *gltf.Document
}

func (imp *importer) extractNodes() ([]convert.Node, error) {
	nodes := make([]convert.Node, len(imp.src.Nodes))
	for i, gn := range imp.src.Nodes {
		n := convert.Node{
			Name:     gn.Name,
			Scale:    [3]float32{1, 1, 1},
			Rotation: [4]float32{0, 0, 0, 1},
		}

		if gn.Matrix != identityMatrix && gn.Matrix != ([16]float64{}) {
			var m [16]float32
			for k, v := range gn.Matrix {
				m[k] = float32(v)
			}
			n.Translation, n.Rotation, n.Scale = common.DecomposeTRS(m[:])
		} else {
			t := gn.TranslationOrDefault()
			n.Translation = [3]float32{float32(t[0]), float32(t[1]), float32(t[2])}
			r := gn.RotationOrDefault()
			n.Rotation = [4]float32{float32(r[0]), float32(r[1]), float32(r[2]), float32(r[3])}
			s := gn.ScaleOrDefault()
			n.Scale = [3]float32{float32(s[0]), float32(s[1]), float32(s[2])}
		}

		if gn.Mesh != nil {
			mesh := *gn.Mesh
			if mesh < 0 || mesh >= len(imp.src.Meshes) {
				return nil, fmt.Errorf("node %d references mesh %d out of range", i, mesh)
			}
			n.Mesh = &mesh
		}

		if len(gn.Children) > 0 {
			n.Children = make([]int, len(gn.Children))
			copy(n.Children, gn.Children)
		}

		nodes[i] = n
	}
	return nodes, nil
}

// extractRootNodes resolves the default scene's roots. Without a default
// scene the first scene is used; without any scene, every parentless node
// becomes a root.
func (imp *importer) extractRootNodes() []int {
	var scene *gltf.Scene
	if imp.src.Scene != nil && *imp.src.Scene >= 0 && *imp.src.Scene < len(imp.src.Scenes) {
		scene = imp.src.Scenes[*imp.src.Scene]
	} else if len(imp.src.Scenes) > 0 {
		scene = imp.src.Scenes[0]
	}

	if scene != nil {
		roots := make([]int, 0, len(scene.Nodes))
		for _, idx := range scene.Nodes {
			if idx >= 0 && idx < len(imp.src.Nodes) {
				roots = append(roots, idx)
			}
		}
		return roots
	}

	hasParent := make([]bool, len(imp.src.Nodes))
	for _, gn := range imp.src.Nodes {
		for _, c := range gn.Children {
			if c >= 0 && c < len(hasParent) {
				hasParent[c] = true
			}
		}
	}
	var roots []int
	for i := range imp.src.Nodes {
		if !hasParent[i] {
			roots = append(roots, i)
		}
	}
	return roots
}
