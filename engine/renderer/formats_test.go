package renderer

import (
	"testing"

	"github.com/Carmen-Shannon/moonlit/common"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
)

func TestTextureFormat(t *testing.T) {
	assert.Equal(t, wgpu.TextureFormatRGBA8UnormSrgb, textureFormat(common.PixelFormatRGBA8Srgb))
	assert.Equal(t, wgpu.TextureFormatRGBA8Unorm, textureFormat(common.PixelFormatRGBA8))
	assert.Equal(t, wgpu.TextureFormatRGBA16Float, textureFormat(common.PixelFormatRGBA16Float))
}

func TestSamplerDescriptor(t *testing.T) {
	d := samplerDescriptor("floor", common.SamplerStagingData{WrapU: common.WrapRepeat, WrapV: common.WrapMirrorRepeat})
	assert.Equal(t, wgpu.AddressModeRepeat, d.AddressModeU)
	assert.Equal(t, wgpu.AddressModeMirrorRepeat, d.AddressModeV)
	assert.Equal(t, wgpu.FilterModeLinear, d.MagFilter)
	assert.Equal(t, wgpu.CompareFunctionUndefined, d.Compare)
	assert.Equal(t, uint16(1), d.MaxAnisotropy)

	n := samplerDescriptor("pixel", common.SamplerStagingData{Nearest: true})
	assert.Equal(t, wgpu.FilterModeNearest, n.MinFilter)
	assert.Equal(t, wgpu.AddressModeClampToEdge, n.AddressModeU)

	c := samplerDescriptor("shadow", common.SamplerStagingData{WrapU: common.WrapRepeat, Compare: true})
	assert.Equal(t, wgpu.CompareFunctionLess, c.Compare)
	assert.Equal(t, wgpu.AddressModeClampToEdge, c.AddressModeU)
}

func TestIsSRGB(t *testing.T) {
	assert.True(t, isSRGB(wgpu.TextureFormatBGRA8UnormSrgb))
	assert.True(t, isSRGB(wgpu.TextureFormatRGBA8UnormSrgb))
	assert.False(t, isSRGB(wgpu.TextureFormatBGRA8Unorm))
	assert.False(t, isSRGB(HDRFormat))
}

func TestBloomSize(t *testing.T) {
	w, h := bloomSize(1920, 1080)
	assert.Equal(t, 960, w)
	assert.Equal(t, 540, h)

	w, h = bloomSize(1, 0)
	assert.Equal(t, 1, w)
	assert.Equal(t, 1, h)
}

func TestLayoutFingerprint(t *testing.T) {
	uniform := func(size uint64) wgpu.BindGroupLayoutDescriptor {
		return wgpu.BindGroupLayoutDescriptor{Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform, MinBindingSize: size},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageFragment,
				Texture:    wgpu.TextureBindingLayout{SampleType: wgpu.TextureSampleTypeFloat, ViewDimension: wgpu.TextureViewDimension2D},
			},
		}}
	}

	assert.Equal(t, layoutFingerprint(uniform(16)), layoutFingerprint(uniform(16)))
	assert.NotEqual(t, layoutFingerprint(uniform(16)), layoutFingerprint(uniform(48)))

	vertexOnly := uniform(16)
	vertexOnly.Entries[0].Visibility = wgpu.ShaderStageVertex
	assert.NotEqual(t, layoutFingerprint(uniform(16)), layoutFingerprint(vertexOnly))

	labelled := uniform(16)
	labelled.Label = "other"
	assert.Equal(t, layoutFingerprint(uniform(16)), layoutFingerprint(labelled))
	assert.Empty(t, layoutFingerprint(wgpu.BindGroupLayoutDescriptor{}))
}
