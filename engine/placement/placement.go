// Package placement generates the randomized layouts of the scene's repeated content: the ring of
// instanced bushes and the cloud of fireflies. Generation runs once at scene-build time and its results
// are owned by the instance and particle buffers defined in this package.
package placement

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Source supplies uniformly distributed values in [0, 1).
// *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	Float32() float32
}

// Ring describes an annulus on the ground plane: radii are drawn from [RadiusMin, RadiusMin+RadiusSpan].
type Ring struct {
	RadiusMin  float32
	RadiusSpan float32
}

// InstanceTransform is the placement of one copy of an instanced mesh.
type InstanceTransform struct {
	Position mgl32.Vec3
	Scale    mgl32.Vec3
	Yaw      float32
}

// Matrix composes translation, rotation about Y and scale into a model matrix (T * Ry * S).
//
// Returns:
//   - mgl32.Mat4: the column-major model matrix
func (it InstanceTransform) Matrix() mgl32.Mat4 {
	return mgl32.Translate3D(it.Position.X(), it.Position.Y(), it.Position.Z()).
		Mul4(mgl32.HomogRotate3DY(it.Yaw)).
		Mul4(mgl32.Scale3D(it.Scale.X(), it.Scale.Y(), it.Scale.Z()))
}

// Particle is a single point sprite. Only Position.Y changes after generation.
type Particle struct {
	Position mgl32.Vec3
	Size     float32
}

// InstanceParams configures GenerateInstances.
type InstanceParams struct {
	Ring      Ring
	Y         float32
	ScaleMin  float32
	ScaleSpan float32
}

// ParticleParams configures GenerateParticles.
type ParticleParams struct {
	Ring      Ring
	HeightMax float32
}

// GenerateInstances places n decorative instances on a ring at a fixed height.
// Each instance gets angle ~ U[0, 2π), radius ~ U[r_min, r_min+r_span],
// position (sin(angle)*radius, y, cos(angle)*radius), a uniform scale ~ U[s_min, s_min+s_span]
// and a yaw ~ U[0, π).
//
// Parameters:
//   - n: the number of instances to generate
//   - params: the ring, height and scale ranges
//   - rng: the random source
//
// Returns:
//   - []InstanceTransform: the n generated transforms
func GenerateInstances(n int, params InstanceParams, rng Source) []InstanceTransform {
	out := make([]InstanceTransform, n)
	for i := range out {
		angle := rng.Float32() * 2 * math.Pi
		radius := params.Ring.RadiusMin + rng.Float32()*params.Ring.RadiusSpan
		sin, cos := math.Sincos(float64(angle))

		scale := params.ScaleMin + rng.Float32()*params.ScaleSpan
		out[i] = InstanceTransform{
			Position: mgl32.Vec3{float32(sin) * radius, params.Y, float32(cos) * radius},
			Scale:    mgl32.Vec3{scale, scale, scale},
			Yaw:      rng.Float32() * math.Pi,
		}
	}
	return out
}

// GenerateParticles scatters n particles inside a ring-shaped column.
// Each particle gets angle ~ U[0, 2π), radius ~ U[r_min, r_min+r_span],
// position (cos(angle)*radius, U*h_max, sin(angle)*radius) and size ~ U[0, 1).
//
// Parameters:
//   - n: the number of particles to generate
//   - params: the ring and maximum height
//   - rng: the random source
//
// Returns:
//   - []Particle: the n generated particles
func GenerateParticles(n int, params ParticleParams, rng Source) []Particle {
	out := make([]Particle, n)
	for i := range out {
		angle := rng.Float32() * 2 * math.Pi
		radius := params.Ring.RadiusMin + rng.Float32()*params.Ring.RadiusSpan
		sin, cos := math.Sincos(float64(angle))

		out[i] = Particle{
			Position: mgl32.Vec3{float32(cos) * radius, rng.Float32() * params.HeightMax, float32(sin) * radius},
			Size:     rng.Float32(),
		}
	}
	return out
}
