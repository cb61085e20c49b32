// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

// PixelFormat identifies the texel layout of staged pixel data.
// The renderer maps it to the matching GPU texture format.
type PixelFormat int

const (
	// PixelFormatRGBA8Srgb is 8-bit RGBA holding sRGB-encoded color (color maps).
	PixelFormatRGBA8Srgb PixelFormat = iota
	// PixelFormatRGBA8 is 8-bit RGBA holding linear data (normal and displacement maps).
	PixelFormatRGBA8
	// PixelFormatRGBA16Float is half-float RGBA holding linear HDR radiance.
	PixelFormatRGBA16Float
)

// BytesPerPixel returns the size of one texel of the format.
func (f PixelFormat) BytesPerPixel() int {
	if f == PixelFormatRGBA16Float {
		return 8
	}
	return 4
}

// TextureStagingData holds pixel data for a texture binding pending GPU upload.
// This is primarily used in the BindGroupProvider to stage texture data before creating the GPU texture and bind group.
type TextureStagingData struct {
	// Pixels is the raw pixel data, tightly packed rows of Width * Format.BytesPerPixel() bytes.
	Pixels []byte
	// Width is the width of the texture in pixels.
	Width uint32
	// Height is the height of the texture in pixels.
	Height uint32
	// Format is the texel layout of Pixels.
	Format PixelFormat
}

// RowBytes returns the length of one tightly packed row.
func (t *TextureStagingData) RowBytes() uint32 {
	return t.Width * uint32(t.Format.BytesPerPixel())
}

// WrapMode is the addressing mode for texture coordinates outside [0, 1].
type WrapMode int

const (
	WrapClampToEdge WrapMode = iota
	WrapRepeat
	WrapMirrorRepeat
)

// SamplerStagingData holds the configuration for a sampler binding pending GPU creation.
// This is primarily used in the BindGroupProvider to stage sampler data before creating the GPU sampler and bind group.
type SamplerStagingData struct {
	// WrapU and WrapV specify the addressing mode in each texture dimension.
	WrapU, WrapV WrapMode
	// Nearest selects nearest-neighbour filtering instead of linear.
	Nearest bool
	// Compare makes this a depth comparison sampler, used in shadow mapping.
	Compare bool
}
