package assets

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/Faultbox/meshlab/internal/engine/model"
	"github.com/Faultbox/meshlab/internal/logger"
)

// LoadGLTF decodes a .gltf or .glb file. Every glTF scene becomes a SubScene
// in document order; each triangle primitive becomes one mesh node with its
// world transform.
func LoadGLTF(path string) (*Asset, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	l := gltfLoader{doc: doc, meshes: make(map[int][]*model.Mesh)}
	asset := &Asset{Path: path}
	for si, sc := range doc.Scenes {
		sub := SubScene{Name: sc.Name}
		if sub.Name == "" {
			sub.Name = fmt.Sprintf("scene%d", si)
		}
		for _, ni := range sc.Nodes {
			if err := l.walk(&sub, ni, mgl32.Ident4(), 0); err != nil {
				return nil, fmt.Errorf("%s: scene %q: %w", path, sub.Name, err)
			}
		}
		asset.Scenes = append(asset.Scenes, sub)
	}
	return asset, nil
}

// maxNodeDepth guards against cyclic node graphs in malformed files.
const maxNodeDepth = 64

type gltfLoader struct {
	doc    *gltf.Document
	meshes map[int][]*model.Mesh
}

func (l *gltfLoader) walk(sub *SubScene, ni int, parent mgl32.Mat4, depth int) error {
	if depth > maxNodeDepth {
		return fmt.Errorf("node hierarchy deeper than %d", maxNodeDepth)
	}
	if ni < 0 || ni >= len(l.doc.Nodes) {
		return fmt.Errorf("node %d out of range", ni)
	}
	node := l.doc.Nodes[ni]
	world := parent.Mul4(nodeMatrix(node))

	if node.Mesh != nil {
		prims, err := l.mesh(*node.Mesh)
		if err != nil {
			return err
		}
		for pi, m := range prims {
			name := node.Name
			if name == "" {
				name = fmt.Sprintf("node%d", ni)
			}
			if len(prims) > 1 {
				name = fmt.Sprintf("%s/%d", name, pi)
			}
			sub.Nodes = append(sub.Nodes, MeshNode{Name: name, Transform: world, Mesh: m})
		}
	}
	for _, child := range node.Children {
		if err := l.walk(sub, child, world, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// mesh decodes the triangle primitives of glTF mesh mi once; nodes that share
// a mesh share the decoded templates.
func (l *gltfLoader) mesh(mi int) ([]*model.Mesh, error) {
	if prims, ok := l.meshes[mi]; ok {
		return prims, nil
	}
	if mi < 0 || mi >= len(l.doc.Meshes) {
		return nil, fmt.Errorf("mesh %d out of range", mi)
	}
	gm := l.doc.Meshes[mi]

	var prims []*model.Mesh
	for pi, prim := range gm.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			logger.Debug("skipping non-triangle primitive", zap.String("mesh", gm.Name), zap.Int("primitive", pi))
			continue
		}
		m, err := l.primitive(prim)
		if err != nil {
			return nil, fmt.Errorf("mesh %q primitive %d: %w", gm.Name, pi, err)
		}
		if m == nil {
			continue
		}
		m.Name = gm.Name
		if m.Name == "" {
			m.Name = fmt.Sprintf("mesh%d", mi)
		}
		if len(gm.Primitives) > 1 {
			m.Name = fmt.Sprintf("%s/%d", m.Name, pi)
		}
		prims = append(prims, m)
	}
	l.meshes[mi] = prims
	return prims, nil
}

// accessor returns accessor i, or an error for a dangling reference.
func (l *gltfLoader) accessor(i int) (*gltf.Accessor, error) {
	if i < 0 || i >= len(l.doc.Accessors) || l.doc.Accessors[i] == nil {
		return nil, fmt.Errorf("accessor %d out of range", i)
	}
	return l.doc.Accessors[i], nil
}

func (l *gltfLoader) primitive(prim *gltf.Primitive) (*model.Mesh, error) {
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, nil
	}
	posAcr, err := l.accessor(posIdx)
	if err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}
	positions, err := modeler.ReadPosition(l.doc, posAcr, nil)
	if err != nil {
		return nil, fmt.Errorf("reading positions: %w", err)
	}

	m := &model.Mesh{Vertices: make([]model.Vertex, len(positions))}
	for i, p := range positions {
		m.Vertices[i].Position = p
	}

	hasNormals := false
	if ni, ok := prim.Attributes[gltf.NORMAL]; ok {
		acr, err := l.accessor(ni)
		if err != nil {
			return nil, fmt.Errorf("normals: %w", err)
		}
		normals, err := modeler.ReadNormal(l.doc, acr, nil)
		if err != nil {
			return nil, fmt.Errorf("reading normals: %w", err)
		}
		for i := 0; i < len(normals) && i < len(m.Vertices); i++ {
			m.Vertices[i].Normal = normals[i]
		}
		hasNormals = true
	}
	if ti, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		acr, err := l.accessor(ti)
		if err != nil {
			return nil, fmt.Errorf("texcoords: %w", err)
		}
		uvs, err := modeler.ReadTextureCoord(l.doc, acr, nil)
		if err != nil {
			return nil, fmt.Errorf("reading texcoords: %w", err)
		}
		for i := 0; i < len(uvs) && i < len(m.Vertices); i++ {
			m.Vertices[i].TexCoord = uvs[i]
		}
	}

	if prim.Indices != nil {
		acr, err := l.accessor(*prim.Indices)
		if err != nil {
			return nil, fmt.Errorf("indices: %w", err)
		}
		indices, err := modeler.ReadIndices(l.doc, acr, nil)
		if err != nil {
			return nil, fmt.Errorf("reading indices: %w", err)
		}
		for i, idx := range indices {
			if int(idx) >= len(positions) {
				return nil, fmt.Errorf("index %d at %d out of range for %d positions", idx, i, len(positions))
			}
		}
		// Keep the file's index width; the simplifier widens it when needed.
		if acr.ComponentType == gltf.ComponentUshort || acr.ComponentType == gltf.ComponentUbyte {
			m.Indices.U16 = make([]uint16, len(indices))
			for i, idx := range indices {
				m.Indices.U16[i] = uint16(idx)
			}
		} else {
			m.Indices.U32 = indices
		}
	}

	if !hasNormals {
		// tmp shares the vertex slice; only its index view is widened.
		tmp := *m
		tmp.EnsureIndicesU32()
		tmp.RecomputeNormals()
	}
	m.ComputeBounds()
	return m, nil
}

// nodeMatrix returns the node's local transform, from its matrix when one is
// set and from translation/rotation/scale otherwise.
func nodeMatrix(n *gltf.Node) mgl32.Mat4 {
	mat := n.MatrixOrDefault()
	if mat != gltf.DefaultMatrix {
		var out mgl32.Mat4
		for i := range mat {
			out[i] = float32(mat[i])
		}
		return out
	}

	t := n.TranslationOrDefault()
	r := n.RotationOrDefault()
	s := n.ScaleOrDefault()
	rot := mgl32.Quat{W: float32(r[3]), V: mgl32.Vec3{float32(r[0]), float32(r[1]), float32(r[2])}}
	return mgl32.Translate3D(float32(t[0]), float32(t[1]), float32(t[2])).
		Mul4(rot.Mat4()).
		Mul4(mgl32.Scale3D(float32(s[0]), float32(s[1]), float32(s[2])))
}
