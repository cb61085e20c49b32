package common

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	totalBytes := int(size) * len(data)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), totalBytes)
}

// StructToBytes reinterprets a pointer to a struct as a raw byte slice using unsafe.
// The returned slice has length equal to the struct's size in memory.
//
// Parameters:
//   - v: pointer to the struct to reinterpret
//
// Returns:
//   - []byte: byte slice view of the struct's memory
func StructToBytes[T any](v *T) []byte {
	size := unsafe.Sizeof(*v)
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), int(size))
}

// Perspective creates a right-handed perspective projection matrix mapping view-space depth
// into the WebGPU clip range [0, 1]. mgl32.Perspective targets the OpenGL range [-1, 1] and
// cannot be used directly with a Depth24Plus attachment.
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - aspect: viewport aspect ratio (width/height)
//   - near: near clipping plane distance (must be > 0)
//   - far: far clipping plane distance (must be > near)
//
// Returns:
//   - mgl32.Mat4: the column-major projection matrix
func Perspective(fovY, aspect, near, far float32) mgl32.Mat4 {
	f := 1.0 / float32(math.Tan(float64(fovY)/2.0))

	var out mgl32.Mat4
	out[0] = f / aspect
	out[5] = f
	out[10] = far / (near - far)
	out[11] = -1.0
	out[14] = (near * far) / (near - far)
	return out
}

// Ortho creates an orthographic projection matrix with WebGPU [0, 1] depth.
// Used for the directional light shadow frustum.
//
// Parameters:
//   - left, right, bottom, top: the view-space extents of the box
//   - near, far: depth extents of the box
//
// Returns:
//   - mgl32.Mat4: the column-major projection matrix
func Ortho(left, right, bottom, top, near, far float32) mgl32.Mat4 {
	rl := right - left
	tb := top - bottom
	fn := far - near

	out := mgl32.Ident4()
	out[0] = 2 / rl
	out[5] = 2 / tb
	out[10] = -1 / fn
	out[12] = -(right + left) / rl
	out[13] = -(top + bottom) / tb
	out[14] = -near / fn
	return out
}

// LookAt builds a view matrix from an eye position, target and up vector.
// When the view direction is parallel to up, a fallback up axis is chosen so the
// matrix stays finite.
//
// Parameters:
//   - eye: camera position in world space
//   - center: target point the camera looks at
//   - up: up vector defining camera orientation
//
// Returns:
//   - mgl32.Mat4: the view matrix
func LookAt(eye, center, up mgl32.Vec3) mgl32.Mat4 {
	dir := center.Sub(eye)
	if dir.Len() < 1e-6 {
		return mgl32.Ident4()
	}
	if dir.Normalize().Cross(up).Len() < 1e-4 {
		up = mgl32.Vec3{0, 0, 1}
	}
	return mgl32.LookAtV(eye, center, up)
}

// Mat4ToArray copies a mgl32.Mat4 into a fixed array suitable for GPU structs.
//
// Parameters:
//   - m: the matrix to copy
//
// Returns:
//   - [16]float32: the matrix in column-major order
func Mat4ToArray(m mgl32.Mat4) [16]float32 {
	return [16]float32(m)
}

// HexColor parses a CSS style "#rrggbb" (or "rrggbb") color into a linear RGB vector.
// The sRGB transfer function is removed so the result can be fed to lighting math directly.
//
// Parameters:
//   - s: the hex color string
//
// Returns:
//   - mgl32.Vec3: the linear RGB color in [0, 1]
//   - error: an error if the string is not a 6-digit hex color
func HexColor(s string) (mgl32.Vec3, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return mgl32.Vec3{}, fmt.Errorf("hex color %q: expected 6 hex digits", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return mgl32.Vec3{}, fmt.Errorf("hex color %q: %w", s, err)
	}
	return mgl32.Vec3{
		SRGBToLinear(float32((v>>16)&0xFF) / 255),
		SRGBToLinear(float32((v>>8)&0xFF) / 255),
		SRGBToLinear(float32(v&0xFF) / 255),
	}, nil
}

// MustHexColor is HexColor for compile-time constant colors; it panics on malformed input.
func MustHexColor(s string) mgl32.Vec3 {
	c, err := HexColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

// SRGBToLinear converts a single sRGB encoded channel in [0, 1] to linear space.
func SRGBToLinear(c float32) float32 {
	if c <= 0.04045 {
		return c / 12.92
	}
	return float32(math.Pow((float64(c)+0.055)/1.055, 2.4))
}
