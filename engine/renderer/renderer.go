package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/moonlit/common"
	"github.com/Carmen-Shannon/moonlit/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/moonlit/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/moonlit/engine/window"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	pipelineCache map[string]pipeline.Pipeline
	backend       RendererBackend
	logger        *zap.Logger

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	presentMode          PresentMode
	msaa                 MSAASampleCount
	shadowMapSize        int

	width, height int
}

// Renderer is the frame-level API over the GPU. It owns the render targets of the HDR pipeline
// (multisampled scene color, depth, resolved HDR color, the half-resolution bloom chain and the
// shadow map) and caches pipelines by key.
//
// A frame is recorded into a single command encoder:
//
//	BeginFrame
//	BeginShadowPass ... Draw ... EndPass
//	BeginScenePass  ... Draw / DrawProcedural ... EndPass
//	Bloom (optional)
//	Output
//	EndFrame
//	Present
type Renderer interface {
	// Pipeline retrieves the cached Pipeline associated with the given key, or nil.
	//
	// Parameters:
	//   - key: the unique identifier for the Pipeline to retrieve
	//
	// Returns:
	//   - pipeline.Pipeline: the Pipeline associated with the key, or nil if not found
	Pipeline(key string) pipeline.Pipeline

	// RegisterPipelines creates the GPU objects of one or more pipelines and caches them by
	// PipelineKey. Keys that are already registered are skipped.
	//
	// Parameters:
	//   - pipelines: the Pipelines to register
	//
	// Returns:
	//   - error: an error if pipeline creation fails
	RegisterPipelines(pipelines ...pipeline.Pipeline) error

	// Resize recreates the size-dependent render targets. The swapchain is left alone.
	//
	// Parameters:
	//   - width: the render width in pixels
	//   - height: the render height in pixels
	//
	// Returns:
	//   - error: if a target could not be created
	Resize(width, height int) error

	// ResizeSurface reconfigures the swapchain to a new framebuffer size.
	//
	// Parameters:
	//   - width: the framebuffer width in pixels
	//   - height: the framebuffer height in pixels
	//
	// Returns:
	//   - error: if the surface could not be configured
	ResizeSurface(width, height int) error

	// Size returns the current render target size.
	Size() (width, height int)

	// SetPresentMode changes how frames are presented. It applies at the next surface configuration.
	SetPresentMode(mode PresentMode)

	// InitMeshBuffers creates GPU vertex and index buffers and stores them on the provider.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the created buffers on
	//   - vertexData: the raw vertex data bytes
	//   - indexData: the raw uint32 index bytes
	//   - indexCount: the number of indices
	//
	// Returns:
	//   - error: an error if buffer creation fails
	InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error

	// InitBindGroup creates the bind group of one group of a registered pipeline. Buffers the
	// provider does not hold yet are created, sized by MinBindingSize or the override. Textures
	// and samplers must already be set on the provider. Calling it again rebuilds the group
	// around the provider's current resources.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the bind group on
	//   - pipelineKey: the key of a registered pipeline
	//   - group: the bind group index
	//   - bufferSizeOverrides: buffer sizes keyed by binding, for runtime-sized arrays (nil safe)
	//
	// Returns:
	//   - error: if the pipeline or group is unknown, or creation fails
	InitBindGroup(provider bind_group_provider.BindGroupProvider, pipelineKey string, group int, bufferSizeOverrides map[int]uint64) error

	// InitTexture uploads staged pixels into a new texture owned by the provider.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the texture on
	//   - binding: the binding index of the texture
	//   - stagingData: the pixels, size and format
	//
	// Returns:
	//   - error: an error if texture creation fails
	InitTexture(provider bind_group_provider.BindGroupProvider, binding int, stagingData common.TextureStagingData) error

	// InitSampler creates a sampler owned by the provider.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the sampler on
	//   - binding: the binding index of the sampler
	//   - samplerStagingData: the sampler configuration
	//
	// Returns:
	//   - error: an error if sampler creation fails
	InitSampler(provider bind_group_provider.BindGroupProvider, binding int, samplerStagingData common.SamplerStagingData) error

	// BindShadowMap places the renderer's shadow map view at a texture binding of the provider.
	// The provider does not take ownership.
	BindShadowMap(provider bind_group_provider.BindGroupProvider, binding int)

	// WriteBuffers writes all staged buffer writes to the GPU queue.
	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// BeginFrame acquires the swapchain image and opens the frame's command encoder.
	//
	// Returns:
	//   - error: ErrFrameSkipped when no image is available, or another error
	BeginFrame() error

	// BeginShadowPass opens the depth-only pass into the shadow map.
	BeginShadowPass() error

	// BeginScenePass opens the HDR scene pass, clearing color to clear and depth to 1.
	BeginScenePass(clear mgl32.Vec3) error

	// Draw records an indexed, instanced draw in the open pass.
	//
	// Parameters:
	//   - pipelineKey: the key of a registered pipeline
	//   - mesh: the provider holding the vertex and index buffers
	//   - instanceCount: the number of instances
	//   - bindGroups: providers whose bind groups are set at indices 0..n-1
	//
	// Returns:
	//   - error: if the pipeline is unknown
	Draw(pipelineKey string, mesh bind_group_provider.BindGroupProvider, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error

	// DrawProcedural records a non-indexed draw without vertex buffers; vertices are generated
	// in the shader from the vertex and instance indices.
	//
	// Parameters:
	//   - pipelineKey: the key of a registered pipeline
	//   - vertexCount: vertices per instance
	//   - instanceCount: the number of instances
	//   - bindGroups: providers whose bind groups are set at indices 0..n-1
	//
	// Returns:
	//   - error: if the pipeline is unknown
	DrawProcedural(pipelineKey string, vertexCount, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error

	// EndPass closes the open pass.
	EndPass() error

	// Bloom extracts, blurs and adds back the bright parts of the resolved scene.
	Bloom(settings BloomSettings) error

	// Output tone maps the resolved scene onto the swapchain image.
	Output(settings OutputSettings) error

	// EndFrame finishes and submits the frame's command buffer.
	EndFrame() error

	// Present displays the acquired swapchain image.
	Present()

	// Release frees every pipeline, target and device object.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates the WebGPU device for a window, configures its surface and creates the
// render targets at the window's framebuffer size.
//
// Parameters:
//   - w: the window to render into
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: the renderer
//   - error: if no adapter or device is available, or the targets cannot be created
func NewRenderer(w window.Window, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:            &sync.Mutex{},
		pipelineCache: make(map[string]pipeline.Pipeline),
		logger:        zap.NewNop(),
		presentMode:   PresentModeVSync,
		msaa:          MSAA4x,
		shadowMapSize: 2048,
	}

	// Options are applied first so forceFallbackAdapter is known before the adapter request.
	for _, opt := range options {
		opt(r)
	}

	backend, err := newWGPURendererBackend(w.SurfaceDescriptor(), backendConfig{
		forceFallbackAdapter: r.forceFallbackAdapter,
		sampleCount:          r.msaa,
		shadowMapSize:        r.shadowMapSize,
		logger:               r.logger,
	})
	if err != nil {
		return nil, err
	}
	r.backend = backend
	r.backend.SetPresentMode(r.presentMode)

	width, height := w.FramebufferSize()
	if err := r.ResizeSurface(width, height); err != nil {
		r.backend.Release()
		return nil, err
	}
	if err := r.Resize(width, height); err != nil {
		r.backend.Release()
		return nil, err
	}
	return r, nil
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelineCache[key]
}

func (r *renderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range pipelines {
		if _, exists := r.pipelineCache[p.PipelineKey()]; exists {
			continue
		}
		if err := r.backend.RegisterRenderPipeline(p); err != nil {
			return fmt.Errorf("failed to register pipeline %q: %w", p.PipelineKey(), err)
		}
		r.pipelineCache[p.PipelineKey()] = p
		r.logger.Debug("registered pipeline", zap.String("key", p.PipelineKey()))
	}
	return nil
}

func (r *renderer) Resize(width, height int) error {
	width, height = max(width, 1), max(height, 1)
	r.mu.Lock()
	if width == r.width && height == r.height {
		r.mu.Unlock()
		return nil
	}
	r.width, r.height = width, height
	r.mu.Unlock()

	if err := r.backend.ResizeTargets(width, height); err != nil {
		return fmt.Errorf("failed to resize render targets: %w", err)
	}
	r.logger.Debug("resized render targets", zap.Int("width", width), zap.Int("height", height))
	return nil
}

func (r *renderer) ResizeSurface(width, height int) error {
	if err := r.backend.ConfigureSurface(max(width, 1), max(height, 1)); err != nil {
		return fmt.Errorf("failed to configure surface: %w", err)
	}
	return nil
}

func (r *renderer) Size() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.width, r.height
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.backend.SetPresentMode(mode)
}

func (r *renderer) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error {
	return r.backend.InitMeshBuffers(provider, vertexData, indexData, indexCount)
}

func (r *renderer) InitBindGroup(provider bind_group_provider.BindGroupProvider, pipelineKey string, group int, bufferSizeOverrides map[int]uint64) error {
	p := r.Pipeline(pipelineKey)
	if p == nil {
		return fmt.Errorf("pipeline %q is not registered", pipelineKey)
	}
	layout := p.BindGroupLayout(group)
	descriptor, ok := p.BindGroupLayoutDescriptors()[group]
	if layout == nil || !ok {
		return fmt.Errorf("pipeline %q has no bind group %d", pipelineKey, group)
	}
	if err := r.backend.InitBindGroup(provider, layout, descriptor, bufferSizeOverrides); err != nil {
		return fmt.Errorf("failed to create bind group %d of %q for %s: %w", group, pipelineKey, provider.Label(), err)
	}
	return nil
}

func (r *renderer) InitTexture(provider bind_group_provider.BindGroupProvider, binding int, stagingData common.TextureStagingData) error {
	return r.backend.InitTexture(provider, binding, stagingData)
}

func (r *renderer) InitSampler(provider bind_group_provider.BindGroupProvider, binding int, samplerStagingData common.SamplerStagingData) error {
	return r.backend.InitSampler(provider, binding, samplerStagingData)
}

func (r *renderer) BindShadowMap(provider bind_group_provider.BindGroupProvider, binding int) {
	r.backend.BindShadowMap(provider, binding)
}

func (r *renderer) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	if len(writes) == 0 {
		return
	}
	r.backend.WriteBuffers(writes)
}

func (r *renderer) BeginFrame() error {
	return r.backend.BeginFrame()
}

func (r *renderer) BeginShadowPass() error {
	return r.backend.BeginShadowPass()
}

func (r *renderer) BeginScenePass(clear mgl32.Vec3) error {
	return r.backend.BeginScenePass(clear)
}

func (r *renderer) Draw(pipelineKey string, mesh bind_group_provider.BindGroupProvider, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error {
	p := r.Pipeline(pipelineKey)
	if p == nil {
		return fmt.Errorf("pipeline %q is not registered", pipelineKey)
	}
	if instanceCount == 0 || mesh.IndexCount() == 0 {
		return nil
	}
	r.backend.Draw(p, mesh, instanceCount, bindGroups)
	return nil
}

func (r *renderer) DrawProcedural(pipelineKey string, vertexCount, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error {
	p := r.Pipeline(pipelineKey)
	if p == nil {
		return fmt.Errorf("pipeline %q is not registered", pipelineKey)
	}
	if instanceCount == 0 || vertexCount == 0 {
		return nil
	}
	r.backend.DrawProcedural(p, vertexCount, instanceCount, bindGroups)
	return nil
}

func (r *renderer) EndPass() error {
	return r.backend.EndPass()
}

func (r *renderer) Bloom(settings BloomSettings) error {
	return r.backend.Bloom(settings)
}

func (r *renderer) Output(settings OutputSettings) error {
	return r.backend.Output(settings)
}

func (r *renderer) EndFrame() error {
	return r.backend.EndFrame()
}

func (r *renderer) Present() {
	r.backend.Present()
}

func (r *renderer) Release() {
	r.mu.Lock()
	for key, p := range r.pipelineCache {
		p.Release()
		delete(r.pipelineCache, key)
	}
	r.mu.Unlock()
	r.backend.Release()
}
