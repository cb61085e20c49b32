package renderer

import (
	"errors"

	"github.com/Carmen-Shannon/moonlit/common"
	"github.com/Carmen-Shannon/moonlit/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/moonlit/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

// ErrFrameSkipped is returned by BeginFrame when no swapchain image could be acquired, typically
// because the surface is outdated or minimized. The surface has been reconfigured; callers drop
// the frame and try again on the next tick.
var ErrFrameSkipped = errors.New("frame skipped")

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// MSAASampleCount controls the number of samples used for multisample anti-aliasing (MSAA).
// WebGPU guarantees support for 1 (off) and 4; higher values are adapter-dependent.
type MSAASampleCount uint32

const (
	// MSAAOff disables multisample anti-aliasing (sample count 1).
	MSAAOff MSAASampleCount = 1

	// MSAA4x enables 4× multisample anti-aliasing. This is the default.
	MSAA4x MSAASampleCount = 4
)

// ParseMSAA maps a configured sample count to a supported MSAASampleCount. Anything above one
// selects MSAA4x.
//
// Parameters:
//   - samples: the configured sample count
//
// Returns:
//   - MSAASampleCount: MSAAOff or MSAA4x
func ParseMSAA(samples int) MSAASampleCount {
	if samples > 1 {
		return MSAA4x
	}
	return MSAAOff
}

// BloomSettings parameterizes the bloom chain of one frame.
type BloomSettings struct {
	// Threshold is the luminance above which pixels start to bloom.
	Threshold float32
	// SmoothWidth is the luminance range over which the bright pass fades in.
	SmoothWidth float32
	// Strength scales the blurred result before it is added back onto the scene.
	Strength float32
	// Weights are the center and one-sided Gaussian taps of the separable blur.
	Weights [5]float32
}

// OutputSettings parameterizes the final tone-mapping pass.
type OutputSettings struct {
	// Exposure multiplies the HDR color before Reinhard tone mapping.
	Exposure float32
}

// wgpuRendererBackend is the set of GPU operations the renderer delegates to its WebGPU backend.
type wgpuRendererBackend interface {
	ConfigureSurface(width, height int) error
	ResizeTargets(width, height int) error
	SetPresentMode(mode PresentMode)
	SurfaceFormat() wgpu.TextureFormat

	RegisterRenderPipeline(p pipeline.Pipeline) error

	InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error
	InitBindGroup(provider bind_group_provider.BindGroupProvider, layout *wgpu.BindGroupLayout, descriptor wgpu.BindGroupLayoutDescriptor, bufferSizeOverrides map[int]uint64) error
	InitTexture(provider bind_group_provider.BindGroupProvider, binding int, stagingData common.TextureStagingData) error
	InitSampler(provider bind_group_provider.BindGroupProvider, binding int, samplerStagingData common.SamplerStagingData) error
	BindShadowMap(provider bind_group_provider.BindGroupProvider, binding int)
	WriteBuffers(writes []bind_group_provider.BufferWrite)

	BeginFrame() error
	BeginShadowPass() error
	BeginScenePass(clear mgl32.Vec3) error
	Draw(p pipeline.Pipeline, mesh bind_group_provider.BindGroupProvider, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider)
	DrawProcedural(p pipeline.Pipeline, vertexCount, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider)
	EndPass() error
	Bloom(settings BloomSettings) error
	Output(settings OutputSettings) error
	EndFrame() error
	Present()

	Release()
}

// RendererBackend is the top-level backend interface for the Renderer.
type RendererBackend interface {
	wgpuRendererBackend
}
