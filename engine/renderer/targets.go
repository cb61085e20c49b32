package renderer

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// renderTarget is a texture together with the view passes render into or sample from.
type renderTarget struct {
	texture *wgpu.Texture
	view    *wgpu.TextureView
	width   int
	height  int
}

func (t *renderTarget) release() {
	if t == nil {
		return
	}
	if t.view != nil {
		t.view.Release()
		t.view = nil
	}
	if t.texture != nil {
		t.texture.Release()
		t.texture = nil
	}
}

// frameTargets is the size-dependent attachment set of the HDR pipeline.
type frameTargets struct {
	// msaa is nil when the scene pass is single-sampled; the pass then draws into hdr directly.
	msaa   *renderTarget
	depth  *renderTarget
	hdr    *renderTarget
	bloomA *renderTarget
	bloomB *renderTarget
}

func (t *frameTargets) release() {
	if t == nil {
		return
	}
	for _, rt := range []*renderTarget{t.msaa, t.depth, t.hdr, t.bloomA, t.bloomB} {
		rt.release()
	}
}

func createRenderTarget(device *wgpu.Device, label string, width, height int, format wgpu.TextureFormat, samples uint32, usage wgpu.TextureUsage) (*renderTarget, error) {
	tex, err := device.CreateTexture(&wgpu.TextureDescriptor{
		Label: label,
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   samples,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         usage,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", label, err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("failed to create %s view: %w", label, err)
	}
	return &renderTarget{texture: tex, view: view, width: width, height: height}, nil
}

// createFrameTargets creates every size-dependent target. On failure, targets created so far
// are released.
func createFrameTargets(device *wgpu.Device, width, height int, samples uint32) (*frameTargets, error) {
	t := &frameTargets{}
	sampled := wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding
	bw, bh := bloomSize(width, height)

	var err error
	if samples > 1 {
		if t.msaa, err = createRenderTarget(device, "Scene MSAA Target", width, height, HDRFormat, samples, wgpu.TextureUsageRenderAttachment); err != nil {
			t.release()
			return nil, err
		}
	}
	if t.depth, err = createRenderTarget(device, "Scene Depth Target", width, height, DepthFormat, samples, wgpu.TextureUsageRenderAttachment); err != nil {
		t.release()
		return nil, err
	}
	if t.hdr, err = createRenderTarget(device, "HDR Target", width, height, HDRFormat, 1, sampled); err != nil {
		t.release()
		return nil, err
	}
	if t.bloomA, err = createRenderTarget(device, "Bloom Target A", bw, bh, HDRFormat, 1, sampled); err != nil {
		t.release()
		return nil, err
	}
	if t.bloomB, err = createRenderTarget(device, "Bloom Target B", bw, bh, HDRFormat, 1, sampled); err != nil {
		t.release()
		return nil, err
	}
	return t, nil
}

// createShadowMap creates the square depth texture the shadow pass renders into and the lit pass
// samples with a comparison sampler.
func createShadowMap(device *wgpu.Device, size int) (*renderTarget, error) {
	return createRenderTarget(device, "Shadow Map", size, size, ShadowFormat, 1,
		wgpu.TextureUsageRenderAttachment|wgpu.TextureUsageTextureBinding)
}
