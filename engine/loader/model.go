package loader

import (
	"github.com/Carmen-Shannon/moonlit/engine/geometry"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// Model is a static glTF model with every node transform baked into its meshes.
type Model struct {
	ID        uuid.UUID
	Name      string
	Meshes    []ModelMesh
	Materials []*Material
}

// ModelMesh is one glTF primitive in model space.
type ModelMesh struct {
	Name     string
	Mesh     geometry.Mesh
	Material int
}

// Material holds the metallic-roughness parameters of a glTF material.
// Texture fields are nil when the material has no such map.
type Material struct {
	Name                     string
	BaseColor                [4]float32
	Metallic                 float32
	Roughness                float32
	Emissive                 [3]float32
	DoubleSided              bool
	BaseColorTexture         *Texture
	NormalTexture            *Texture
	MetallicRoughnessTexture *Texture
}

// DefaultMaterial returns the glTF default material: white, fully metallic, fully rough.
func DefaultMaterial() *Material {
	return &Material{
		Name:      "default",
		BaseColor: [4]float32{1, 1, 1, 1},
		Metallic:  1,
		Roughness: 1,
	}
}

// Bounds returns the axis-aligned box of every mesh.
//
// Returns:
//   - mgl32.Vec3: the minimum corner, zero for an empty model
//   - mgl32.Vec3: the maximum corner, zero for an empty model
func (m *Model) Bounds() (mgl32.Vec3, mgl32.Vec3) {
	var lo, hi mgl32.Vec3
	first := true
	for i := range m.Meshes {
		if len(m.Meshes[i].Mesh.Vertices) == 0 {
			continue
		}
		mlo, mhi := m.Meshes[i].Mesh.Bounds()
		if first {
			lo, hi, first = mlo, mhi, false
			continue
		}
		for j := range 3 {
			lo[j] = min(lo[j], mlo[j])
			hi[j] = max(hi[j], mhi[j])
		}
	}
	return lo, hi
}

// Transform bakes a transform into every mesh.
func (m *Model) Transform(mat mgl32.Mat4) {
	for i := range m.Meshes {
		m.Meshes[i].Mesh.Transform(mat)
	}
}

// OverrideSurface sets roughness and metalness on every material.
func (m *Model) OverrideSurface(roughness, metallic float32) {
	for _, mat := range m.Materials {
		mat.Roughness = roughness
		mat.Metallic = metallic
	}
}

// VertexCount returns the number of vertices across all meshes.
func (m *Model) VertexCount() int {
	n := 0
	for i := range m.Meshes {
		n += len(m.Meshes[i].Mesh.Vertices)
	}
	return n
}
