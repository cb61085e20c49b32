package light

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/Carmen-Shannon/moonlit/common"
	"github.com/go-gl/mathgl/mgl32"
)

// MaxGPULights is the capacity of the light storage buffer. The scene uses five lights.
const MaxGPULights = 8

// GPULight is the GPU-aligned representation of a single light source.
// Matches the WGSL Light struct of the lit shader.
// Size: 64 bytes (WGSL storage aligned).
type GPULight struct {
	Position     [3]float32 // offset  0: world-space position (point/spot)
	LightType    uint32     // offset 12: 0 = directional, 1 = point, 2 = spot
	Color        [3]float32 // offset 16: linear RGB color
	Intensity    float32    // offset 28: scalar multiplier
	Direction    [3]float32 // offset 32: normalized direction (directional/spot)
	LightRange   float32    // offset 44: attenuation cutoff distance, 0 = unbounded
	InnerCone    float32    // offset 48: cos(inner half-angle) for spot
	OuterCone    float32    // offset 52: cos(outer half-angle) for spot
	CastsShadows uint32     // offset 56: 1 = samples the shadow map
	Decay        float32    // offset 60: distance attenuation exponent
}

// Size returns the size of the GPULight struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (64)
func (g *GPULight) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPULight struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 64-byte buffer ready for GPU upload
func (g *GPULight) Marshal() []byte {
	buf := make([]byte, 64)
	putVec3(buf[0:], g.Position)
	binary.LittleEndian.PutUint32(buf[12:16], g.LightType)
	putVec3(buf[16:], g.Color)
	binary.LittleEndian.PutUint32(buf[28:32], math.Float32bits(g.Intensity))
	putVec3(buf[32:], g.Direction)
	binary.LittleEndian.PutUint32(buf[44:48], math.Float32bits(g.LightRange))
	binary.LittleEndian.PutUint32(buf[48:52], math.Float32bits(g.InnerCone))
	binary.LittleEndian.PutUint32(buf[52:56], math.Float32bits(g.OuterCone))
	binary.LittleEndian.PutUint32(buf[56:60], g.CastsShadows)
	binary.LittleEndian.PutUint32(buf[60:64], math.Float32bits(g.Decay))
	return buf
}

// GPULightHeader is the header prepended to the light storage buffer.
// Size: 16 bytes (vec3 + u32).
type GPULightHeader struct {
	AmbientColor [3]float32 // offset 0: ambient RGB used until the environment map is resident
	LightCount   uint32     // offset 12: number of active lights following the header
}

// Size returns the size of the GPULightHeader struct in bytes.
func (h *GPULightHeader) Size() int {
	return int(unsafe.Sizeof(*h))
}

// Marshal serializes the GPULightHeader struct into a byte buffer suitable for GPU upload.
func (h *GPULightHeader) Marshal() []byte {
	buf := make([]byte, 16)
	putVec3(buf[0:], h.AmbientColor)
	binary.LittleEndian.PutUint32(buf[12:16], h.LightCount)
	return buf
}

// GPUShadowData is the GPU-aligned representation of directional shadow data, shared by the shadow
// vertex shader and the lit fragment shader.
// Size: 80 bytes.
//
// Layout:
//
//	mat4x4<f32> light_vp       (64 bytes, offset 0)
//	vec2<f32>   texel_size     ( 8 bytes, offset 64)
//	f32         bias           ( 4 bytes, offset 72)
//	f32         normal_bias    ( 4 bytes, offset 76)
type GPUShadowData struct {
	LightVP    [16]float32 // orthographic view-projection from the light's perspective
	TexelSize  [2]float32  // 1 / shadow map resolution for PCF offsets
	Bias       float32     // depth comparison bias
	NormalBias float32     // world-space normal-offset distance for the shadow lookup
}

// NewShadowData computes the shadow data of a directional light with the default frustum.
//
// Parameters:
//   - l: the shadow-casting light
//   - resolution: the shadow map resolution in texels
//
// Returns:
//   - GPUShadowData: the filled shadow data
func NewShadowData(l Light, resolution int) GPUShadowData {
	var s GPUShadowData
	s.ComputeDirectionalLightVP(l.Position(), l.Target(), DefaultShadowHalfExtent, DefaultShadowNear, DefaultShadowFar)
	s.ComputeNormalBias(DefaultShadowHalfExtent, DefaultShadowNormalBiasScale, resolution)
	s.TexelSize = [2]float32{1 / float32(resolution), 1 / float32(resolution)}
	s.Bias = DefaultShadowBias
	return s
}

// Size returns the size of the GPUShadowData struct in bytes.
func (s *GPUShadowData) Size() int {
	return int(unsafe.Sizeof(*s))
}

// ComputeDirectionalLightVP builds the orthographic view-projection seen from the light's position
// looking at its target, and stores it in LightVP.
//
// Parameters:
//   - eye: the light position
//   - target: the light target
//   - halfExtent: half-size of the orthographic frustum in world units
//   - near: near plane distance
//   - far: far plane distance
func (s *GPUShadowData) ComputeDirectionalLightVP(eye, target mgl32.Vec3, halfExtent, near, far float32) {
	view := common.LookAt(eye, target, mgl32.Vec3{0, 1, 0})
	proj := common.Ortho(-halfExtent, halfExtent, -halfExtent, halfExtent, near, far)
	s.LightVP = common.Mat4ToArray(proj.Mul4(view))
}

// ComputeNormalBias derives the world-space normal-offset bias from the shadow map parameters.
//
// Parameters:
//   - halfExtent: orthographic frustum half-size in world units
//   - scale: multiplier on the per-texel world size
//   - resolution: shadow map resolution in texels
func (s *GPUShadowData) ComputeNormalBias(halfExtent, scale float32, resolution int) {
	texelWorldSize := 2.0 * halfExtent / float32(resolution)
	s.NormalBias = texelWorldSize * scale
}

// Marshal serializes the GPUShadowData struct into a byte buffer suitable for GPU uniform upload.
//
// Returns:
//   - []byte: 80-byte buffer ready for GPU upload
func (s *GPUShadowData) Marshal() []byte {
	buf := make([]byte, 80)
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(s.LightVP[i]))
	}
	binary.LittleEndian.PutUint32(buf[64:68], math.Float32bits(s.TexelSize[0]))
	binary.LittleEndian.PutUint32(buf[68:72], math.Float32bits(s.TexelSize[1]))
	binary.LittleEndian.PutUint32(buf[72:76], math.Float32bits(s.Bias))
	binary.LittleEndian.PutUint32(buf[76:80], math.Float32bits(s.NormalBias))
	return buf
}

// ToGPULight converts a Light into its GPU representation.
//
// Parameters:
//   - l: the Light to convert
//
// Returns:
//   - GPULight: the GPU-aligned representation
func ToGPULight(l Light) GPULight {
	shadowVal := uint32(0)
	if l.CastsShadows() {
		shadowVal = 1
	}
	return GPULight{
		Position:     l.Position(),
		LightType:    uint32(l.Type()),
		Color:        l.Color(),
		Intensity:    l.Intensity(),
		Direction:    l.Direction(),
		LightRange:   l.Range(),
		InnerCone:    l.InnerCone(),
		OuterCone:    l.OuterCone(),
		CastsShadows: shadowVal,
		Decay:        l.Decay(),
	}
}

// MarshalLightBuffer marshals the enabled lights into a storage buffer image:
//
//	[GPULightHeader (16 bytes)] [GPULight × MaxGPULights (64 bytes each)]
//
// The buffer always has room for MaxGPULights entries so it can be written in place; lights beyond
// the capacity are dropped.
//
// Parameters:
//   - lights: the lights to marshal (only enabled lights are included)
//   - ambient: the ambient color as linear RGB
//
// Returns:
//   - []byte: the marshaled buffer ready for GPU upload
func MarshalLightBuffer(lights []Light, ambient mgl32.Vec3) []byte {
	header := GPULightHeader{AmbientColor: ambient}
	lightSize := (&GPULight{}).Size()
	buf := make([]byte, header.Size()+MaxGPULights*lightSize)

	offset := header.Size()
	for _, l := range lights {
		if !l.Enabled() {
			continue
		}
		if header.LightCount >= MaxGPULights {
			break
		}
		gpu := ToGPULight(l)
		copy(buf[offset:], gpu.Marshal())
		offset += lightSize
		header.LightCount++
	}
	copy(buf, header.Marshal())
	return buf
}

func putVec3(buf []byte, v [3]float32) {
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(v[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(v[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(v[2]))
}
