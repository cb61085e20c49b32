package renderer

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/moonlit/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// HDRFormat is the color format of the scene and bloom targets.
const HDRFormat = wgpu.TextureFormatRGBA16Float

// DepthFormat is the depth format of the scene pass.
const DepthFormat = wgpu.TextureFormatDepth24Plus

// ShadowFormat is the format of the shadow map.
const ShadowFormat = wgpu.TextureFormatDepth32Float

// textureFormat maps a staging pixel format to its GPU format.
func textureFormat(f common.PixelFormat) wgpu.TextureFormat {
	switch f {
	case common.PixelFormatRGBA8:
		return wgpu.TextureFormatRGBA8Unorm
	case common.PixelFormatRGBA16Float:
		return wgpu.TextureFormatRGBA16Float
	default:
		return wgpu.TextureFormatRGBA8UnormSrgb
	}
}

func addressMode(w common.WrapMode) wgpu.AddressMode {
	switch w {
	case common.WrapRepeat:
		return wgpu.AddressModeRepeat
	case common.WrapMirrorRepeat:
		return wgpu.AddressModeMirrorRepeat
	default:
		return wgpu.AddressModeClampToEdge
	}
}

// samplerDescriptor derives the GPU sampler of a staging description. Comparison samplers clamp
// and compare with Less, the convention of the shadow pass.
func samplerDescriptor(label string, s common.SamplerStagingData) wgpu.SamplerDescriptor {
	filter := wgpu.FilterModeLinear
	mip := wgpu.MipmapFilterModeLinear
	if s.Nearest {
		filter = wgpu.FilterModeNearest
		mip = wgpu.MipmapFilterModeNearest
	}
	desc := wgpu.SamplerDescriptor{
		Label:         label,
		AddressModeU:  addressMode(s.WrapU),
		AddressModeV:  addressMode(s.WrapV),
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     filter,
		MinFilter:     filter,
		MipmapFilter:  mip,
		LodMinClamp:   0,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	}
	if s.Compare {
		desc.AddressModeU = wgpu.AddressModeClampToEdge
		desc.AddressModeV = wgpu.AddressModeClampToEdge
		desc.MipmapFilter = wgpu.MipmapFilterModeNearest
		desc.Compare = wgpu.CompareFunctionLess
	}
	return desc
}

// isSRGB reports whether writes to f are encoded to sRGB by the hardware.
func isSRGB(f wgpu.TextureFormat) bool {
	return f == wgpu.TextureFormatBGRA8UnormSrgb || f == wgpu.TextureFormatRGBA8UnormSrgb
}

// bloomSize is the size of the bloom chain targets: half the scene target, at least one pixel.
func bloomSize(width, height int) (int, int) {
	return max(width/2, 1), max(height/2, 1)
}

// layoutFingerprint identifies a bind group layout by its entries, so that pipelines declaring
// identical groups share one GPU layout and therefore one bind group.
func layoutFingerprint(desc wgpu.BindGroupLayoutDescriptor) string {
	var sb strings.Builder
	for _, e := range desc.Entries {
		fmt.Fprintf(&sb, "%d:%d", e.Binding, e.Visibility)
		switch {
		case e.Buffer.Type != wgpu.BufferBindingTypeUndefined:
			fmt.Fprintf(&sb, ":b%d,%t,%d", e.Buffer.Type, e.Buffer.HasDynamicOffset, e.Buffer.MinBindingSize)
		case e.Texture.SampleType != wgpu.TextureSampleTypeUndefined:
			fmt.Fprintf(&sb, ":t%d,%d,%t", e.Texture.SampleType, e.Texture.ViewDimension, e.Texture.Multisampled)
		case e.Sampler.Type != wgpu.SamplerBindingTypeUndefined:
			fmt.Fprintf(&sb, ":s%d", e.Sampler.Type)
		case e.StorageTexture.Access != wgpu.StorageTextureAccessUndefined:
			fmt.Fprintf(&sb, ":st%d,%d,%d", e.StorageTexture.Access, e.StorageTexture.Format, e.StorageTexture.ViewDimension)
		}
		sb.WriteByte(';')
	}
	return sb.String()
}
