// Package geometry builds the triangle meshes of the scene (floor plane, pedestal and mist cylinders,
// bush icosahedron) and holds the vertex layout shared with the glTF loader and the lit shaders.
package geometry

import (
	"math"
	"unsafe"

	"github.com/Carmen-Shannon/moonlit/common"
	"github.com/go-gl/mathgl/mgl32"
)

// Vertex is the interleaved vertex layout of every lit mesh.
// Matches the VertexInput struct of the lit and shadow shaders.
// Size: 48 bytes.
type Vertex struct {
	Position [3]float32 // offset  0
	Normal   [3]float32 // offset 12
	UV       [2]float32 // offset 24
	Tangent  [4]float32 // offset 32: xyz tangent, w handedness
}

// VertexSize is the stride of Vertex in bytes.
const VertexSize = int(unsafe.Sizeof(Vertex{}))

// Mesh is an indexed triangle list with counter-clockwise front faces.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
}

// VertexBytes returns the vertices as a byte view for a vertex buffer upload.
func (m *Mesh) VertexBytes() []byte {
	return common.SliceToBytes(m.Vertices)
}

// IndexBytes returns the indices as a byte view for an index buffer upload.
func (m *Mesh) IndexBytes() []byte {
	return common.SliceToBytes(m.Indices)
}

// Bounds returns the axis-aligned bounding box of the vertex positions.
//
// Returns:
//   - mgl32.Vec3: the minimum corner, zero for an empty mesh
//   - mgl32.Vec3: the maximum corner, zero for an empty mesh
func (m *Mesh) Bounds() (mgl32.Vec3, mgl32.Vec3) {
	if len(m.Vertices) == 0 {
		return mgl32.Vec3{}, mgl32.Vec3{}
	}
	lo := mgl32.Vec3(m.Vertices[0].Position)
	hi := lo
	for _, v := range m.Vertices[1:] {
		for j := range 3 {
			lo[j] = min(lo[j], v.Position[j])
			hi[j] = max(hi[j], v.Position[j])
		}
	}
	return lo, hi
}

// Transform applies a model matrix to positions and its normal matrix to normals and tangents.
//
// Parameters:
//   - mat: the transform to bake into the vertices
func (m *Mesh) Transform(mat mgl32.Mat4) {
	normalMat := mat.Mat3().Inv().Transpose()
	linear := mat.Mat3()
	for i := range m.Vertices {
		v := &m.Vertices[i]
		v.Position = [3]float32(mgl32.TransformCoordinate(v.Position, mat))
		n := normalMat.Mul3x1(v.Normal)
		if n.Len() > 1e-8 {
			n = n.Normalize()
		}
		v.Normal = [3]float32(n)
		t := linear.Mul3x1(mgl32.Vec3{v.Tangent[0], v.Tangent[1], v.Tangent[2]})
		if t.Len() > 1e-8 {
			t = t.Normalize()
		}
		v.Tangent = [4]float32{t[0], t[1], t[2], v.Tangent[3]}
	}
}

// Append concatenates another mesh, rebasing its indices.
func (m *Mesh) Append(other Mesh) {
	base := uint32(len(m.Vertices))
	m.Vertices = append(m.Vertices, other.Vertices...)
	for _, idx := range other.Indices {
		m.Indices = append(m.Indices, idx+base)
	}
}

// ComputeNormals replaces every normal with the area-weighted average of the adjacent face normals.
func (m *Mesh) ComputeNormals() {
	accum := make([]mgl32.Vec3, len(m.Vertices))
	m.eachTriangle(func(i0, i1, i2 uint32) {
		p0 := mgl32.Vec3(m.Vertices[i0].Position)
		face := mgl32.Vec3(m.Vertices[i1].Position).Sub(p0).Cross(mgl32.Vec3(m.Vertices[i2].Position).Sub(p0))
		accum[i0] = accum[i0].Add(face)
		accum[i1] = accum[i1].Add(face)
		accum[i2] = accum[i2].Add(face)
	})
	for i, n := range accum {
		if n.Len() < 1e-6 {
			m.Vertices[i].Normal = [3]float32{0, 1, 0}
			continue
		}
		m.Vertices[i].Normal = [3]float32(n.Normalize())
	}
}

// ComputeTangents derives per-vertex tangents from the UV gradients of each triangle,
// orthonormalized against the vertex normal, with the bitangent handedness in w.
func (m *Mesh) ComputeTangents() {
	tan := make([]mgl32.Vec3, len(m.Vertices))
	btan := make([]mgl32.Vec3, len(m.Vertices))
	m.eachTriangle(func(i0, i1, i2 uint32) {
		v0, v1, v2 := &m.Vertices[i0], &m.Vertices[i1], &m.Vertices[i2]
		e1 := mgl32.Vec3(v1.Position).Sub(v0.Position)
		e2 := mgl32.Vec3(v2.Position).Sub(v0.Position)
		du1, dv1 := v1.UV[0]-v0.UV[0], v1.UV[1]-v0.UV[1]
		du2, dv2 := v2.UV[0]-v0.UV[0], v2.UV[1]-v0.UV[1]

		det := du1*dv2 - dv1*du2
		if det == 0 {
			return
		}
		r := 1 / det
		t := e1.Mul(dv2 * r).Sub(e2.Mul(dv1 * r))
		b := e2.Mul(du1 * r).Sub(e1.Mul(du2 * r))
		for _, idx := range [3]uint32{i0, i1, i2} {
			tan[idx] = tan[idx].Add(t)
			btan[idx] = btan[idx].Add(b)
		}
	})

	for i := range m.Vertices {
		n := mgl32.Vec3(m.Vertices[i].Normal)
		t := tan[i].Sub(n.Mul(n.Dot(tan[i])))
		if t.Len() < 1e-6 {
			m.Vertices[i].Tangent = [4]float32{1, 0, 0, 1}
			continue
		}
		t = t.Normalize()
		w := float32(1)
		if n.Cross(t).Dot(btan[i]) < 0 {
			w = -1
		}
		m.Vertices[i].Tangent = [4]float32{t[0], t[1], t[2], w}
	}
}

func (m *Mesh) eachTriangle(fn func(i0, i1, i2 uint32)) {
	n := uint32(len(m.Vertices))
	for i := 0; i+2 < len(m.Indices); i += 3 {
		i0, i1, i2 := m.Indices[i], m.Indices[i+1], m.Indices[i+2]
		if i0 >= n || i1 >= n || i2 >= n {
			continue
		}
		fn(i0, i1, i2)
	}
}

func sincos(angle float64) (float32, float32) {
	s, c := math.Sincos(angle)
	return float32(s), float32(c)
}
