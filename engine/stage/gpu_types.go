package stage

import (
	"github.com/Carmen-Shannon/moonlit/common"
	"github.com/Carmen-Shannon/moonlit/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// Object flags, matching the FLAG_ constants of the lit shader.
const (
	FlagReceiveShadow uint32 = 1 << iota
	FlagFlatShaded
	FlagNormalMap
	FlagDisplace
)

// GPUObject is the per-draw uniform of the lit and shadow pipelines.
// Size: 112 bytes.
type GPUObject struct {
	Model        [16]float32 // offset   0
	Color        [3]float32  // offset  64
	Roughness    float32     // offset  76
	UVRepeat     [2]float32  // offset  80
	Metalness    float32     // offset  88
	Displacement float32     // offset  92
	Flags        uint32      // offset  96
	_            [3]uint32   // offset 100: pad to 112
}

// NewGPUObject packs a model matrix and a surface.
//
// Parameters:
//   - model: the object's model matrix
//   - s: the surface; texture presence decides the map flags
//
// Returns:
//   - GPUObject: the packed uniform
func NewGPUObject(model mgl32.Mat4, s *scene.Surface) GPUObject {
	o := GPUObject{
		Model:        model,
		Color:        s.Color,
		Roughness:    s.Roughness,
		UVRepeat:     s.Repeat,
		Metalness:    s.Metalness,
		Displacement: s.DisplacementScale,
	}
	if o.UVRepeat == [2]float32{} {
		o.UVRepeat = [2]float32{1, 1}
	}
	if s.ReceiveShadow {
		o.Flags |= FlagReceiveShadow
	}
	if s.FlatShaded {
		o.Flags |= FlagFlatShaded
	}
	if s.NormalMap != nil {
		o.Flags |= FlagNormalMap
	}
	if s.DisplacementMap != nil && s.DisplacementScale != 0 {
		o.Flags |= FlagDisplace
	}
	return o
}

// Marshal returns the uniform bytes.
func (o *GPUObject) Marshal() []byte {
	return common.StructToBytes(o)
}

// GPUFrame holds the frame-wide fog and environment parameters.
// Size: 32 bytes.
type GPUFrame struct {
	FogColor     [3]float32 // offset  0
	FogDensity   float32    // offset 12
	Time         float32    // offset 16
	EnvIntensity float32    // offset 20
	_            [2]float32 // offset 24
}

// Marshal returns the uniform bytes.
func (f *GPUFrame) Marshal() []byte {
	return common.StructToBytes(f)
}

// GPUMist is the uniform of the mist shell.
// Size: 80 bytes.
type GPUMist struct {
	Model [16]float32 // offset  0
	Color [3]float32  // offset 64
	Time  float32     // offset 76
}

// Marshal returns the uniform bytes.
func (m *GPUMist) Marshal() []byte {
	return common.StructToBytes(m)
}

// GPUFireflies is the uniform of the firefly group.
// Size: 96 bytes.
type GPUFireflies struct {
	Group   [16]float32 // offset  0
	Color   [3]float32  // offset 64
	Opacity float32     // offset 76
	Size    float32     // offset 80
	_       [3]float32  // offset 84: pad to 96
}

// Marshal returns the uniform bytes.
func (f *GPUFireflies) Marshal() []byte {
	return common.StructToBytes(f)
}
