package geometry

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertVecNear(t *testing.T, want, got mgl32.Vec3, delta float64, msgAndArgs ...any) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], delta, msgAndArgs...)
	}
}

// faceNormal returns the unnormalized winding normal of triangle k.
func faceNormal(m Mesh, k int) mgl32.Vec3 {
	p0 := mgl32.Vec3(m.Vertices[m.Indices[k*3]].Position)
	p1 := mgl32.Vec3(m.Vertices[m.Indices[k*3+1]].Position)
	p2 := mgl32.Vec3(m.Vertices[m.Indices[k*3+2]].Position)
	return p1.Sub(p0).Cross(p2.Sub(p0))
}

func TestVertexSize(t *testing.T) {
	assert.Equal(t, 48, VertexSize)
}

func TestPlaneLayout(t *testing.T) {
	m := Plane(20, 10, 4, 2)
	require.Len(t, m.Vertices, 15)
	require.Len(t, m.Indices, 48)

	lo, hi := m.Bounds()
	assert.Equal(t, mgl32.Vec3{-10, -5, 0}, lo)
	assert.Equal(t, mgl32.Vec3{10, 5, 0}, hi)

	assert.Equal(t, [2]float32{0, 1}, m.Vertices[0].UV)
	assert.Equal(t, [3]float32{-10, 5, 0}, m.Vertices[0].Position)
	assert.Equal(t, [2]float32{1, 0}, m.Vertices[14].UV)

	for k := range len(m.Indices) / 3 {
		assert.Greater(t, faceNormal(m, k).Z(), float32(0), "triangle %d faces away from +Z", k)
	}
}

func TestPlaneRotatedToFloor(t *testing.T) {
	m := Plane(20, 20, 1, 1)
	m.Transform(mgl32.HomogRotate3DX(-math.Pi / 2))
	for _, v := range m.Vertices {
		assert.InDelta(t, 0, v.Position[1], 1e-5)
		assertVecNear(t, mgl32.Vec3{0, 1, 0}, mgl32.Vec3(v.Normal), 1e-5)
	}
	for k := range len(m.Indices) / 3 {
		assert.Greater(t, faceNormal(m, k).Y(), float32(0))
	}
}

func TestCylinderShape(t *testing.T) {
	m := Cylinder(1, 1.2, 2, 32, 1, false)
	lo, hi := m.Bounds()
	assert.InDelta(t, -1, lo.Y(), 1e-6)
	assert.InDelta(t, 1, hi.Y(), 1e-6)
	assert.InDelta(t, 1.2, hi.X(), 1e-5)

	side := 33 * 2
	capVerts := 32 + 33
	assert.Len(t, m.Vertices, side+2*capVerts)
	assert.Len(t, m.Indices, 32*6+2*32*3)

	// Side normals lean outward and, for a wider base, slightly upward.
	for _, v := range m.Vertices[:side] {
		n := mgl32.Vec3(v.Normal)
		radial := mgl32.Vec3{v.Position[0], 0, v.Position[2]}
		assert.Greater(t, n.Dot(radial), float32(0))
		assert.Greater(t, n.Y(), float32(0))
		assert.InDelta(t, 1, n.Len(), 1e-5)
	}
}

func TestCylinderCapWinding(t *testing.T) {
	m := Cylinder(1, 1, 2, 8, 1, false)
	sideTris := 8 * 2
	tris := len(m.Indices) / 3
	for k := sideTris; k < sideTris+8; k++ {
		assert.Greater(t, faceNormal(m, k).Y(), float32(0), "top cap triangle %d", k)
	}
	for k := sideTris + 8; k < tris; k++ {
		assert.Less(t, faceNormal(m, k).Y(), float32(0), "bottom cap triangle %d", k)
	}
}

func TestCylinderOpenEnded(t *testing.T) {
	m := Cylinder(3, 3, 0.4, 64, 1, true)
	assert.Len(t, m.Vertices, 65*2)
	assert.Len(t, m.Indices, 64*6)
}

func TestIcosahedron(t *testing.T) {
	m := Icosahedron(0.7)
	require.Len(t, m.Vertices, 60)
	require.Len(t, m.Indices, 60)

	for _, v := range m.Vertices {
		assert.InDelta(t, 0.7, mgl32.Vec3(v.Position).Len(), 1e-5)
	}
	for k := range 20 {
		n := faceNormal(m, k)
		centroid := mgl32.Vec3(m.Vertices[k*3].Position).
			Add(m.Vertices[k*3+1].Position).
			Add(m.Vertices[k*3+2].Position)
		assert.Greater(t, n.Dot(centroid), float32(0), "face %d points inward", k)
		assert.Equal(t, m.Vertices[k*3].Normal, m.Vertices[k*3+2].Normal)
	}
}

func TestAppendRebasesIndices(t *testing.T) {
	a := Plane(1, 1, 1, 1)
	b := Plane(1, 1, 1, 1)
	a.Append(b)
	assert.Len(t, a.Vertices, 8)
	assert.Equal(t, uint32(4), a.Indices[6])
	assert.Len(t, a.VertexBytes(), 8*VertexSize)
	assert.Len(t, a.IndexBytes(), 12*4)
}

func TestComputeNormalsMatchesWinding(t *testing.T) {
	m := Plane(2, 2, 2, 2)
	for i := range m.Vertices {
		m.Vertices[i].Normal = [3]float32{}
	}
	m.ComputeNormals()
	for _, v := range m.Vertices {
		assertVecNear(t, mgl32.Vec3{0, 0, 1}, mgl32.Vec3(v.Normal), 1e-5)
	}
}

func TestComputeTangentsFollowU(t *testing.T) {
	m := Plane(2, 2, 1, 1)
	m.ComputeTangents()
	for _, v := range m.Vertices {
		assert.InDelta(t, 1, v.Tangent[0], 1e-5)
		assert.InDelta(t, 1, v.Tangent[3], 1e-5)
	}
}
