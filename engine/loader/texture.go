package loader

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/Carmen-Shannon/moonlit/common"
	"github.com/google/uuid"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var errEmptyImage = errors.New("image has no pixels")

// TextureOptions controls how a decoded image is staged for upload.
type TextureOptions struct {
	// SRGB marks color data; linear data (normal, displacement, roughness maps) leaves it false.
	SRGB bool
	// FlipY stores the bottom row first so that v = 0 samples the bottom of the image.
	FlipY bool
	// MaxSize downscales images whose larger side exceeds it. Zero keeps the source size.
	MaxSize int
	// Wrap is the addressing mode in both directions.
	Wrap common.WrapMode
	// Repeat is the UV scale applied by the material. Zero means (1, 1).
	Repeat [2]float32
}

// Texture is a decoded image staged for GPU upload.
type Texture struct {
	ID      uuid.UUID
	Name    string
	Data    common.TextureStagingData
	Sampler common.SamplerStagingData
	Repeat  [2]float32
}

// DecodeTexture decodes a JPEG, PNG, BMP, TIFF or WebP image into an RGBA8 texture.
//
// Parameters:
//   - r: the encoded image
//   - name: the label kept on the texture
//   - opts: staging options
//
// Returns:
//   - *Texture: the staged texture
//   - error: error if the image cannot be decoded
func DecodeTexture(r io.Reader, name string, opts TextureOptions) (*Texture, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %q: %w", name, err)
	}
	return NewTexture(img, name, opts)
}

// NewTexture stages an already decoded image.
//
// Parameters:
//   - img: the source image
//   - name: the label kept on the texture
//   - opts: staging options
//
// Returns:
//   - *Texture: the staged texture
//   - error: errEmptyImage for a zero-sized image
func NewTexture(img image.Image, name string, opts TextureOptions) (*Texture, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("%q: %w", name, errEmptyImage)
	}

	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	if opts.MaxSize > 0 && max(b.Dx(), b.Dy()) > opts.MaxSize {
		rgba = downscale(rgba, opts.MaxSize)
	}
	if opts.FlipY {
		flipRows(rgba.Pix, rgba.Stride, rgba.Rect.Dy())
	}

	format := common.PixelFormatRGBA8
	if opts.SRGB {
		format = common.PixelFormatRGBA8Srgb
	}
	repeat := opts.Repeat
	if repeat == [2]float32{} {
		repeat = [2]float32{1, 1}
	}
	return &Texture{
		ID:   uuid.New(),
		Name: name,
		Data: common.TextureStagingData{
			Pixels: tightPixels(rgba),
			Width:  uint32(rgba.Rect.Dx()),
			Height: uint32(rgba.Rect.Dy()),
			Format: format,
		},
		Sampler: common.SamplerStagingData{WrapU: opts.Wrap, WrapV: opts.Wrap},
		Repeat:  repeat,
	}, nil
}

// SolidTexture builds a 1x1 texture of a single color, used when a material has no map.
func SolidTexture(name string, r, g, b, a uint8, srgb bool) *Texture {
	format := common.PixelFormatRGBA8
	if srgb {
		format = common.PixelFormatRGBA8Srgb
	}
	return &Texture{
		ID:      uuid.New(),
		Name:    name,
		Data:    common.TextureStagingData{Pixels: []byte{r, g, b, a}, Width: 1, Height: 1, Format: format},
		Sampler: common.SamplerStagingData{WrapU: common.WrapRepeat, WrapV: common.WrapRepeat},
		Repeat:  [2]float32{1, 1},
	}
}

// WhiteTexture is bound in place of a missing color map.
func WhiteTexture() *Texture {
	return SolidTexture("fallback_white", 255, 255, 255, 255, true)
}

// FlatNormalTexture is bound in place of a missing normal map.
func FlatNormalTexture() *Texture {
	return SolidTexture("fallback_normal", 128, 128, 255, 255, false)
}

// BlackTexture is bound in place of a missing displacement map.
func BlackTexture() *Texture {
	return SolidTexture("fallback_black", 0, 0, 0, 255, false)
}

// downscale resamples so the larger side equals maxSize, keeping the aspect ratio.
func downscale(src *image.RGBA, maxSize int) *image.RGBA {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	if w >= h {
		h = max(1, h*maxSize/w)
		w = maxSize
	} else {
		w = max(1, w*maxSize/h)
		h = maxSize
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

func flipRows(pix []byte, stride, rows int) {
	tmp := make([]byte, stride)
	for top, bottom := 0, rows-1; top < bottom; top, bottom = top+1, bottom-1 {
		a := pix[top*stride : (top+1)*stride]
		b := pix[bottom*stride : (bottom+1)*stride]
		copy(tmp, a)
		copy(a, b)
		copy(b, tmp)
	}
}

// tightPixels returns the pixel rows without stride padding.
func tightPixels(img *image.RGBA) []byte {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if img.Stride == w*4 {
		return img.Pix[:w*h*4]
	}
	out := make([]byte, 0, w*h*4)
	for y := range h {
		out = append(out, img.Pix[y*img.Stride:y*img.Stride+w*4]...)
	}
	return out
}
