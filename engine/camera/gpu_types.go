package camera

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUCameraUniform is the GPU-aligned representation of the camera uniform buffer.
// Matches the WGSL Camera struct declared by the scene shaders.
// Size: 208 bytes (WGSL uniform aligned).
type GPUCameraUniform struct {
	ViewProj    [16]float32 // offset   0: combined view-projection matrix (mat4x4<f32>)
	View        [16]float32 // offset  64: world-to-view matrix, used to build camera-facing quads
	InvViewProj [16]float32 // offset 128: inverse view-projection, used to rebuild sky directions
	Position    [3]float32  // offset 192: world-space camera position (vec3<f32>)
	_pad        float32     // offset 204: padding to 208 bytes
}

// Size returns the size of the GPUCameraUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (208)
func (g *GPUCameraUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUCameraUniform struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUCameraUniform) Marshal() []byte {
	buf := make([]byte, g.Size())
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.ViewProj[i]))
		binary.LittleEndian.PutUint32(buf[64+i*4:], math.Float32bits(g.View[i]))
		binary.LittleEndian.PutUint32(buf[128+i*4:], math.Float32bits(g.InvViewProj[i]))
	}
	for i := range 3 {
		binary.LittleEndian.PutUint32(buf[192+i*4:], math.Float32bits(g.Position[i]))
	}
	return buf
}
