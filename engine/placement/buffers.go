package placement

import (
	"github.com/Carmen-Shannon/moonlit/common"
	"github.com/go-gl/mathgl/mgl32"
)

// InstanceBuffer holds the per-instance model matrices consumed by instanced draws.
// Its contents are written once and never change afterwards.
type InstanceBuffer struct {
	transforms []InstanceTransform
	matrices   []mgl32.Mat4
}

// NewInstanceBuffer composes and stores the model matrix of every transform.
//
// Parameters:
//   - transforms: the generated transforms
//
// Returns:
//   - *InstanceBuffer: the filled buffer
func NewInstanceBuffer(transforms []InstanceTransform) *InstanceBuffer {
	b := &InstanceBuffer{
		transforms: transforms,
		matrices:   make([]mgl32.Mat4, len(transforms)),
	}
	for i, t := range transforms {
		b.matrices[i] = t.Matrix()
	}
	return b
}

// Len returns the number of instances.
func (b *InstanceBuffer) Len() int {
	return len(b.matrices)
}

// Transform returns the transform of instance i.
func (b *InstanceBuffer) Transform(i int) InstanceTransform {
	return b.transforms[i]
}

// Matrix returns the model matrix of instance i.
func (b *InstanceBuffer) Matrix(i int) mgl32.Mat4 {
	return b.matrices[i]
}

// Bytes returns the matrices as a tightly packed byte view for a storage buffer upload.
func (b *InstanceBuffer) Bytes() []byte {
	return common.SliceToBytes(b.matrices)
}

// ParticleBuffer is the single owner of particle data. base keeps the generated positions and is
// never written after construction; positions is the live array the renderer uploads, whose y
// components are rewritten every frame from the x components in base.
type ParticleBuffer struct {
	base      []float32
	positions []float32
	sizes     []float32
	packed    []float32
	dirty     bool
}

// NewParticleBuffer copies the generated particles into a fresh buffer marked dirty.
//
// Parameters:
//   - particles: the generated particles
//
// Returns:
//   - *ParticleBuffer: the buffer
func NewParticleBuffer(particles []Particle) *ParticleBuffer {
	b := &ParticleBuffer{
		base:      make([]float32, len(particles)*3),
		positions: make([]float32, len(particles)*3),
		sizes:     make([]float32, len(particles)),
		packed:    make([]float32, len(particles)*4),
		dirty:     true,
	}
	for i, p := range particles {
		b.base[i*3] = p.Position.X()
		b.base[i*3+1] = p.Position.Y()
		b.base[i*3+2] = p.Position.Z()
		b.sizes[i] = p.Size
	}
	copy(b.positions, b.base)
	return b
}

// Len returns the number of particles.
func (b *ParticleBuffer) Len() int {
	return len(b.sizes)
}

// BaseX returns the generated x coordinate of particle i.
func (b *ParticleBuffer) BaseX(i int) float32 {
	return b.base[i*3]
}

// Base returns the generated position of particle i.
func (b *ParticleBuffer) Base(i int) mgl32.Vec3 {
	return mgl32.Vec3{b.base[i*3], b.base[i*3+1], b.base[i*3+2]}
}

// Position returns the live position of particle i.
func (b *ParticleBuffer) Position(i int) mgl32.Vec3 {
	return mgl32.Vec3{b.positions[i*3], b.positions[i*3+1], b.positions[i*3+2]}
}

// Size returns the size scale of particle i.
func (b *ParticleBuffer) Size(i int) float32 {
	return b.sizes[i]
}

// SetY overwrites the live y coordinate of particle i. Callers mark the buffer dirty once per batch.
func (b *ParticleBuffer) SetY(i int, y float32) {
	b.positions[i*3+1] = y
}

// MarkDirty flags the live positions for upload.
func (b *ParticleBuffer) MarkDirty() {
	b.dirty = true
}

// Dirty reports whether the live positions changed since the last TakeUpload.
func (b *ParticleBuffer) Dirty() bool {
	return b.dirty
}

// TakeUpload packs the live positions and sizes as vec4 (x, y, z, size) records, clears the dirty
// flag and returns the packed bytes. The returned slice is reused by the next call.
//
// Returns:
//   - []byte: the packed particle records
//   - bool: false when nothing changed since the previous call
func (b *ParticleBuffer) TakeUpload() ([]byte, bool) {
	if !b.dirty {
		return nil, false
	}
	for i := range b.sizes {
		b.packed[i*4] = b.positions[i*3]
		b.packed[i*4+1] = b.positions[i*3+1]
		b.packed[i*4+2] = b.positions[i*3+2]
		b.packed[i*4+3] = b.sizes[i]
	}
	b.dirty = false
	return common.SliceToBytes(b.packed), true
}
