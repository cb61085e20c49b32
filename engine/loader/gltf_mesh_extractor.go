package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/moonlit/engine/geometry"
	"github.com/go-gl/mathgl/mgl32"
)

// maxNodeDepth bounds the node hierarchy walk so a cyclic document cannot recurse forever.
const maxNodeDepth = 64

// extractMeshes walks the default scene (or every root node when the document has no scenes) and
// returns one ModelMesh per triangle primitive with the node's world transform applied.
func (p *gltfParser) extractMeshes() ([]ModelMesh, error) {
	var out []ModelMesh
	var walk func(node int, parent mgl32.Mat4, depth int) error
	walk = func(node int, parent mgl32.Mat4, depth int) error {
		if node < 0 || node >= len(p.doc.Nodes) {
			return fmt.Errorf("node index %d out of range", node)
		}
		if depth > maxNodeDepth {
			return fmt.Errorf("node %d: hierarchy deeper than %d", node, maxNodeDepth)
		}
		n := &p.doc.Nodes[node]
		world := parent.Mul4(gltfNodeMatrix(n))
		if n.Mesh != nil {
			meshes, err := p.extractMesh(*n.Mesh)
			if err != nil {
				return fmt.Errorf("node %d: %w", node, err)
			}
			for i := range meshes {
				meshes[i].Mesh.Transform(world)
			}
			out = append(out, meshes...)
		}
		for _, child := range n.Children {
			if err := walk(child, world, depth+1); err != nil {
				return err
			}
		}
		return nil
	}

	for _, root := range p.rootNodes() {
		if err := walk(root, mgl32.Ident4(), 0); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// rootNodes returns the nodes of the default scene, or every node no other node lists as a child.
func (p *gltfParser) rootNodes() []int {
	if len(p.doc.Scenes) > 0 {
		scene := 0
		if p.doc.Scene != nil && *p.doc.Scene >= 0 && *p.doc.Scene < len(p.doc.Scenes) {
			scene = *p.doc.Scene
		}
		return p.doc.Scenes[scene].Nodes
	}
	child := make([]bool, len(p.doc.Nodes))
	for _, n := range p.doc.Nodes {
		for _, c := range n.Children {
			if c >= 0 && c < len(child) {
				child[c] = true
			}
		}
	}
	var roots []int
	for i, isChild := range child {
		if !isChild {
			roots = append(roots, i)
		}
	}
	return roots
}

// gltfNodeMatrix returns the local transform of a node: its matrix, or T * R * S.
func gltfNodeMatrix(n *gltfNode) mgl32.Mat4 {
	if n.Matrix != nil {
		return mgl32.Mat4(*n.Matrix)
	}
	m := mgl32.Ident4()
	if t := n.Translation; t != nil {
		m = mgl32.Translate3D(t[0], t[1], t[2])
	}
	if r := n.Rotation; r != nil {
		q := mgl32.Quat{W: r[3], V: mgl32.Vec3{r[0], r[1], r[2]}}.Normalize()
		m = m.Mul4(q.Mat4())
	}
	if s := n.Scale; s != nil {
		m = m.Mul4(mgl32.Scale3D(s[0], s[1], s[2]))
	}
	return m
}

// extractMesh converts every triangle primitive of a mesh. Primitives in other modes are skipped.
func (p *gltfParser) extractMesh(index int) ([]ModelMesh, error) {
	if index < 0 || index >= len(p.doc.Meshes) {
		return nil, fmt.Errorf("mesh index %d out of range", index)
	}
	mesh := &p.doc.Meshes[index]
	out := make([]ModelMesh, 0, len(mesh.Primitives))
	for i := range mesh.Primitives {
		prim := &mesh.Primitives[i]
		if prim.Mode != nil && *prim.Mode != gltfPrimitiveModeTriangles {
			continue
		}
		m, err := p.extractPrimitive(prim)
		if err != nil {
			return nil, fmt.Errorf("mesh %d primitive %d: %w", index, i, err)
		}
		material := -1
		if prim.Material != nil {
			material = *prim.Material
		}
		out = append(out, ModelMesh{
			Name:     fmt.Sprintf("%s_%d", mesh.Name, i),
			Mesh:     m,
			Material: material,
		})
	}
	return out, nil
}

func (p *gltfParser) extractPrimitive(prim *gltfPrimitive) (geometry.Mesh, error) {
	var m geometry.Mesh
	posIdx, ok := prim.Attributes["POSITION"]
	if !ok {
		return m, fmt.Errorf("primitive has no POSITION attribute")
	}
	positions, err := readFloatAccessor[[3]float32](p, posIdx, gltfAccessorTypeVec3)
	if err != nil {
		return m, fmt.Errorf("failed to read positions: %w", err)
	}
	m.Vertices = make([]geometry.Vertex, len(positions))
	for i, pos := range positions {
		m.Vertices[i].Position = pos
	}

	if prim.Indices != nil {
		if m.Indices, err = p.readIndices(*prim.Indices); err != nil {
			return m, fmt.Errorf("failed to read indices: %w", err)
		}
	} else {
		m.Indices = make([]uint32, len(positions))
		for i := range m.Indices {
			m.Indices[i] = uint32(i)
		}
	}

	hasNormals := false
	if idx, ok := prim.Attributes["NORMAL"]; ok {
		normals, err := readFloatAccessor[[3]float32](p, idx, gltfAccessorTypeVec3)
		if err != nil {
			return m, fmt.Errorf("failed to read normals: %w", err)
		}
		for i := range min(len(normals), len(m.Vertices)) {
			m.Vertices[i].Normal = normals[i]
		}
		hasNormals = true
	}
	if idx, ok := prim.Attributes["TEXCOORD_0"]; ok {
		uvs, err := readFloatAccessor[[2]float32](p, idx, gltfAccessorTypeVec2)
		if err != nil {
			return m, fmt.Errorf("failed to read texcoords: %w", err)
		}
		for i := range min(len(uvs), len(m.Vertices)) {
			m.Vertices[i].UV = uvs[i]
		}
	}
	hasTangents := false
	if idx, ok := prim.Attributes["TANGENT"]; ok {
		tangents, err := readFloatAccessor[[4]float32](p, idx, gltfAccessorTypeVec4)
		if err != nil {
			return m, fmt.Errorf("failed to read tangents: %w", err)
		}
		for i := range min(len(tangents), len(m.Vertices)) {
			m.Vertices[i].Tangent = tangents[i]
		}
		hasTangents = true
	}

	if !hasNormals {
		m.ComputeNormals()
	}
	if !hasTangents {
		m.ComputeTangents()
	}
	return m, nil
}
