package renderer

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/moonlit/common"
	"github.com/Carmen-Shannon/moonlit/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/moonlit/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/moonlit/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// backendConfig carries the construction-time settings of the backend.
type backendConfig struct {
	forceFallbackAdapter bool
	sampleCount          MSAASampleCount
	shadowMapSize        int
	logger               *zap.Logger
}

type wgpuRendererBackendImpl struct {
	mu     *sync.Mutex
	logger *zap.Logger

	device   *wgpu.Device
	queue    *wgpu.Queue
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	surfaceFormat wgpu.TextureFormat
	surfaceConfig *wgpu.SurfaceConfiguration
	presentMode   wgpu.PresentMode
	sampleCount   MSAASampleCount

	// layouts is keyed by layoutFingerprint so that identical groups share a layout
	layouts map[string]*wgpu.BindGroupLayout
	// modules is keyed by WGSL source; the stages of one source share a module
	modules map[string]*wgpu.ShaderModule

	targets   *frameTargets
	shadowMap *renderTarget
	post      *postProcess

	// Frame state. One encoder records every pass of the frame.
	frameEncoder *wgpu.CommandEncoder
	framePass    *wgpu.RenderPassEncoder
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView
}

var _ RendererBackend = &wgpuRendererBackendImpl{}

func newWGPURendererBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, cfg backendConfig) (*wgpuRendererBackendImpl, error) {
	if surfaceDescriptor == nil {
		return nil, errors.New("window has no surface descriptor")
	}
	runtime.LockOSThread()

	b := &wgpuRendererBackendImpl{
		mu:          &sync.Mutex{},
		logger:      cfg.logger,
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeFifo,
		sampleCount: cfg.sampleCount,
		layouts:     make(map[string]*wgpu.BindGroupLayout),
		modules:     make(map[string]*wgpu.ShaderModule),
	}
	if b.logger == nil {
		b.logger = zap.NewNop()
	}
	b.surface = b.instance.CreateSurface(surfaceDescriptor)

	a, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: cfg.forceFallbackAdapter,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		b.Release()
		return nil, fmt.Errorf("failed to request adapter: %w", err)
	}
	b.adapter = a

	limits := wgpu.DefaultLimits()
	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: limits,
		},
	})
	if err != nil {
		b.Release()
		return nil, fmt.Errorf("failed to request device: %w", err)
	}
	b.device = d
	b.queue = d.GetQueue()

	capabilities := b.surface.GetCapabilities(b.adapter)
	if len(capabilities.Formats) == 0 {
		b.Release()
		return nil, errors.New("surface reports no supported formats")
	}
	b.surfaceFormat = capabilities.Formats[0]
	b.surfaceConfig = &wgpu.SurfaceConfiguration{
		Usage:     wgpu.TextureUsageRenderAttachment,
		Format:    b.surfaceFormat,
		AlphaMode: capabilities.AlphaModes[0],
	}

	if b.shadowMap, err = createShadowMap(b.device, cfg.shadowMapSize); err != nil {
		b.Release()
		return nil, err
	}
	if b.post, err = newPostProcess(b); err != nil {
		b.Release()
		return nil, err
	}

	b.logger.Info("gpu device ready",
		zap.Uint32("surface_format", uint32(b.surfaceFormat)),
		zap.Uint32("msaa", uint32(b.sampleCount)),
		zap.Int("shadow_map_size", cfg.shadowMapSize),
		zap.Bool("fallback_adapter", cfg.forceFallbackAdapter),
	)
	return b, nil
}

func (b *wgpuRendererBackendImpl) ConfigureSurface(width, height int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.surfaceConfig.Width = uint32(width)
	b.surfaceConfig.Height = uint32(height)
	b.surfaceConfig.PresentMode = b.presentMode
	b.surface.Configure(b.adapter, b.device, b.surfaceConfig)
	return nil
}

func (b *wgpuRendererBackendImpl) ResizeTargets(width, height int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	targets, err := createFrameTargets(b.device, width, height, uint32(b.sampleCount))
	if err != nil {
		return err
	}
	if err := b.post.bind(b, targets); err != nil {
		targets.release()
		return err
	}
	b.targets.release()
	b.targets = targets
	return nil
}

func (b *wgpuRendererBackendImpl) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch mode {
	case PresentModeUncapped:
		b.presentMode = wgpu.PresentModeImmediate
	default:
		b.presentMode = wgpu.PresentModeFifo
	}
}

func (b *wgpuRendererBackendImpl) SurfaceFormat() wgpu.TextureFormat {
	return b.surfaceFormat
}

func (b *wgpuRendererBackendImpl) RegisterRenderPipeline(p pipeline.Pipeline) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.registerRenderPipeline(p)
}

func (b *wgpuRendererBackendImpl) shaderModule(s shader.Shader) (*wgpu.ShaderModule, error) {
	if m, ok := b.modules[s.Source()]; ok {
		return m, nil
	}
	m, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: s.Key(),
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: s.Source(),
		},
	})
	if err != nil {
		return nil, err
	}
	b.modules[s.Source()] = m
	return m, nil
}

func (b *wgpuRendererBackendImpl) bindGroupLayout(desc wgpu.BindGroupLayoutDescriptor) (*wgpu.BindGroupLayout, error) {
	key := layoutFingerprint(desc)
	if l, ok := b.layouts[key]; ok {
		return l, nil
	}
	l, err := b.device.CreateBindGroupLayout(&desc)
	if err != nil {
		return nil, err
	}
	b.layouts[key] = l
	return l, nil
}

func (b *wgpuRendererBackendImpl) registerRenderPipeline(p pipeline.Pipeline) error {
	vertexShader := p.Shader(shader.ShaderTypeVertex)
	fragmentShader := p.Shader(shader.ShaderTypeFragment)
	if vertexShader == nil {
		return errors.New("a vertex shader must be set to create a render pipeline")
	}
	if fragmentShader == nil && p.Target() != pipeline.TargetShadow {
		return errors.New("only shadow pipelines may omit the fragment shader")
	}

	vs, err := b.shaderModule(vertexShader)
	if err != nil {
		return err
	}

	merged := p.BindGroupLayoutDescriptors()
	maxGroup := -1
	for g := range merged {
		maxGroup = max(maxGroup, g)
	}
	bindGroupLayouts := make([]*wgpu.BindGroupLayout, maxGroup+1)
	byGroup := make(map[int]*wgpu.BindGroupLayout, len(merged))
	for g := range bindGroupLayouts {
		layout, layoutErr := b.bindGroupLayout(merged[g])
		if layoutErr != nil {
			return fmt.Errorf("failed to create bind group layout for group %d: %w", g, layoutErr)
		}
		bindGroupLayouts[g] = layout
		byGroup[g] = layout
	}

	pipelineLayout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.PipelineKey(),
		BindGroupLayouts: bindGroupLayouts,
	})
	if err != nil {
		return err
	}
	defer pipelineLayout.Release()

	desc := &wgpu.RenderPipelineDescriptor{
		Label:  p.PipelineKey() + " Render Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     vs,
			EntryPoint: vertexShader.EntryPoint(),
			Buffers:    vertexShader.VertexLayouts(),
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  p.Topology(),
			FrontFace: p.FrontFace(),
			CullMode:  p.CullMode(),
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	}

	var colorFormat wgpu.TextureFormat
	switch p.Target() {
	case pipeline.TargetScene:
		colorFormat = HDRFormat
		desc.Multisample.Count = uint32(b.sampleCount)
		desc.DepthStencil = depthStencilState(p, DepthFormat)
	case pipeline.TargetShadow:
		desc.DepthStencil = depthStencilState(p, ShadowFormat)
	case pipeline.TargetHDR:
		colorFormat = HDRFormat
	case pipeline.TargetSurface:
		colorFormat = b.surfaceFormat
	}

	if fragmentShader != nil && p.Target() != pipeline.TargetShadow {
		fs, err := b.shaderModule(fragmentShader)
		if err != nil {
			return err
		}
		target := wgpu.ColorTargetState{
			Format:    colorFormat,
			WriteMask: p.WriteMask(),
		}
		if p.BlendEnabled() {
			target.Blend = p.BlendState()
		}
		desc.Fragment = &wgpu.FragmentState{
			Module:     fs,
			EntryPoint: fragmentShader.EntryPoint(),
			Targets:    []wgpu.ColorTargetState{target},
		}
	}

	created, err := b.device.CreateRenderPipeline(desc)
	if err != nil {
		return err
	}
	p.SetRenderPipeline(created, byGroup)
	return nil
}

func depthStencilState(p pipeline.Pipeline, format wgpu.TextureFormat) *wgpu.DepthStencilState {
	depthCompare := wgpu.CompareFunctionLess
	if !p.DepthTestEnabled() {
		depthCompare = wgpu.CompareFunctionAlways
	}
	return &wgpu.DepthStencilState{
		Format:              format,
		DepthWriteEnabled:   p.DepthWriteEnabled(),
		DepthCompare:        depthCompare,
		DepthBias:           p.DepthBias(),
		DepthBiasSlopeScale: p.DepthBiasSlopeScale(),
		StencilFront: wgpu.StencilFaceState{
			Compare: wgpu.CompareFunctionAlways,
		},
		StencilBack: wgpu.StencilFaceState{
			Compare: wgpu.CompareFunctionAlways,
		},
	}
}

func (b *wgpuRendererBackendImpl) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(vertexData) > 0 {
		buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: provider.Label() + " Vertex Buffer",
			Size:  uint64(len(vertexData)),
			Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return err
		}
		b.queue.WriteBuffer(buf, 0, vertexData)
		provider.SetVertexBuffer(buf)
	}

	if len(indexData) > 0 {
		buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: provider.Label() + " Index Buffer",
			Size:  uint64(len(indexData)),
			Usage: wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return err
		}
		b.queue.WriteBuffer(buf, 0, indexData)
		provider.SetIndexBuffer(buf)
	}

	provider.SetIndexCount(indexCount)
	return nil
}

func (b *wgpuRendererBackendImpl) InitBindGroup(provider bind_group_provider.BindGroupProvider, layout *wgpu.BindGroupLayout, descriptor wgpu.BindGroupLayoutDescriptor, bufferSizeOverrides map[int]uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.initBindGroup(provider, layout, descriptor, bufferSizeOverrides)
}

func (b *wgpuRendererBackendImpl) initBindGroup(provider bind_group_provider.BindGroupProvider, layout *wgpu.BindGroupLayout, descriptor wgpu.BindGroupLayoutDescriptor, bufferSizeOverrides map[int]uint64) error {
	if len(descriptor.Entries) == 0 {
		return nil
	}

	entries := make([]wgpu.BindGroupEntry, len(descriptor.Entries))
	for i, entry := range descriptor.Entries {
		binding := int(entry.Binding)

		switch {
		case entry.Texture.SampleType != wgpu.TextureSampleTypeUndefined:
			tv := provider.TextureView(binding)
			if tv == nil {
				return fmt.Errorf("texture binding %d has no texture view", binding)
			}
			entries[i] = wgpu.BindGroupEntry{Binding: entry.Binding, TextureView: tv}

		case entry.Sampler.Type != wgpu.SamplerBindingTypeUndefined:
			samp := provider.Sampler(binding)
			if samp == nil {
				return fmt.Errorf("sampler binding %d has no sampler", binding)
			}
			entries[i] = wgpu.BindGroupEntry{Binding: entry.Binding, Sampler: samp}

		default:
			buf := provider.Buffer(binding)
			if buf == nil {
				size := entry.Buffer.MinBindingSize
				if override, ok := bufferSizeOverrides[binding]; ok {
					size = override
				}
				if size == 0 {
					return fmt.Errorf("buffer binding %d has no size", binding)
				}
				usage := wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst
				if entry.Buffer.Type == wgpu.BufferBindingTypeUniform {
					usage = wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst
				}
				var err error
				buf, err = b.device.CreateBuffer(&wgpu.BufferDescriptor{
					Label: fmt.Sprintf("%s Buffer %d", provider.Label(), binding),
					Size:  size,
					Usage: usage,
				})
				if err != nil {
					return err
				}
				provider.SetBuffer(binding, buf)
			}
			entries[i] = wgpu.BindGroupEntry{
				Binding: entry.Binding,
				Buffer:  buf,
				Offset:  0,
				Size:    wgpu.WholeSize,
			}
		}
	}

	bindGroup, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   provider.Label() + " Bind Group",
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		return err
	}
	provider.SetBindGroupLayout(layout)
	provider.SetBindGroup(bindGroup)
	return nil
}

func (b *wgpuRendererBackendImpl) InitTexture(provider bind_group_provider.BindGroupProvider, binding int, stagingData common.TextureStagingData) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if stagingData.Width == 0 || stagingData.Height == 0 {
		return fmt.Errorf("texture binding %d of %s is empty", binding, provider.Label())
	}
	if want := int(stagingData.RowBytes() * stagingData.Height); len(stagingData.Pixels) < want {
		return fmt.Errorf("texture binding %d of %s has %d bytes, want %d", binding, provider.Label(), len(stagingData.Pixels), want)
	}

	extent := wgpu.Extent3D{
		Width:              stagingData.Width,
		Height:             stagingData.Height,
		DepthOrArrayLayers: 1,
	}
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         fmt.Sprintf("%s Texture %d", provider.Label(), binding),
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension:     wgpu.TextureDimension2D,
		Size:          extent,
		Format:        textureFormat(stagingData.Format),
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return err
	}

	err = b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		stagingData.Pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  stagingData.RowBytes(),
			RowsPerImage: stagingData.Height,
		},
		&extent,
	)
	if err != nil {
		tex.Release()
		return err
	}

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return err
	}
	provider.SetTexture(binding, tex, view)
	return nil
}

func (b *wgpuRendererBackendImpl) InitSampler(provider bind_group_provider.BindGroupProvider, binding int, samplerStagingData common.SamplerStagingData) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.initSampler(provider, binding, samplerStagingData)
}

func (b *wgpuRendererBackendImpl) initSampler(provider bind_group_provider.BindGroupProvider, binding int, samplerStagingData common.SamplerStagingData) error {
	desc := samplerDescriptor(fmt.Sprintf("%s Sampler %d", provider.Label(), binding), samplerStagingData)
	samp, err := b.device.CreateSampler(&desc)
	if err != nil {
		return err
	}
	provider.SetSampler(binding, samp)
	return nil
}

func (b *wgpuRendererBackendImpl) BindShadowMap(provider bind_group_provider.BindGroupProvider, binding int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	provider.SetTexture(binding, nil, b.shadowMap.view)
}

func (b *wgpuRendererBackendImpl) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, w := range writes {
		buf := w.Provider.Buffer(w.Binding)
		if buf == nil || len(w.Data) == 0 {
			continue
		}
		b.queue.WriteBuffer(buf, w.Offset, w.Data)
	}
}

func (b *wgpuRendererBackendImpl) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface != nil {
		return errors.New("previous frame surface not yet presented")
	}
	if b.targets == nil {
		return errors.New("render targets have not been created")
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		// Outdated or lost surfaces recover by reconfiguring at the last known size.
		b.surface.Configure(b.adapter, b.device, b.surfaceConfig)
		return fmt.Errorf("%w: %v", ErrFrameSkipped, err)
	}

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return err
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return err
	}

	b.frameEncoder = encoder
	b.frameSurface = surfaceTexture
	b.frameView = view
	return nil
}

func (b *wgpuRendererBackendImpl) beginPass(desc *wgpu.RenderPassDescriptor) error {
	if b.frameEncoder == nil {
		return errors.New("no frame in progress")
	}
	if b.framePass != nil {
		return errors.New("a render pass is already open")
	}
	b.framePass = b.frameEncoder.BeginRenderPass(desc)
	return nil
}

func (b *wgpuRendererBackendImpl) endPass() error {
	if b.framePass == nil {
		return errors.New("no render pass is open")
	}
	err := b.framePass.End()
	b.framePass.Release()
	b.framePass = nil
	return err
}

func (b *wgpuRendererBackendImpl) BeginShadowPass() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.beginPass(&wgpu.RenderPassDescriptor{
		Label: "Shadow Pass",
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            b.shadowMap.view,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1.0,
		},
	})
}

func (b *wgpuRendererBackendImpl) BeginScenePass(clear mgl32.Vec3) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.targets == nil {
		return errors.New("render targets have not been created")
	}

	// With MSAA the pass draws into the multisampled target and resolves into the HDR target.
	color := wgpu.RenderPassColorAttachment{
		View:       b.targets.hdr.view,
		LoadOp:     wgpu.LoadOpClear,
		StoreOp:    wgpu.StoreOpStore,
		ClearValue: wgpu.Color{R: float64(clear.X()), G: float64(clear.Y()), B: float64(clear.Z()), A: 1},
	}
	if b.targets.msaa != nil {
		color.View = b.targets.msaa.view
		color.ResolveTarget = b.targets.hdr.view
		color.StoreOp = wgpu.StoreOpDiscard
	}

	return b.beginPass(&wgpu.RenderPassDescriptor{
		Label:            "Scene Pass",
		ColorAttachments: []wgpu.RenderPassColorAttachment{color},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            b.targets.depth.view,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	})
}

func (b *wgpuRendererBackendImpl) setBindGroups(bindGroups []bind_group_provider.BindGroupProvider) {
	for i, bg := range bindGroups {
		b.framePass.SetBindGroup(uint32(i), bg.BindGroup(), nil)
	}
}

func (b *wgpuRendererBackendImpl) Draw(
	p pipeline.Pipeline,
	mesh bind_group_provider.BindGroupProvider,
	instanceCount uint32,
	bindGroups []bind_group_provider.BindGroupProvider,
) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return
	}
	b.framePass.SetPipeline(p.RenderPipeline())
	b.setBindGroups(bindGroups)
	b.framePass.SetVertexBuffer(0, mesh.VertexBuffer(), 0, wgpu.WholeSize)
	b.framePass.SetIndexBuffer(mesh.IndexBuffer(), wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	b.framePass.DrawIndexed(uint32(mesh.IndexCount()), instanceCount, 0, 0, 0)
}

func (b *wgpuRendererBackendImpl) DrawProcedural(
	p pipeline.Pipeline,
	vertexCount, instanceCount uint32,
	bindGroups []bind_group_provider.BindGroupProvider,
) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return
	}
	b.framePass.SetPipeline(p.RenderPipeline())
	b.setBindGroups(bindGroups)
	b.framePass.Draw(vertexCount, instanceCount, 0, 0)
}

func (b *wgpuRendererBackendImpl) EndPass() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.endPass()
}

// fullscreenPass records one full-screen triangle from a post-processing group into view.
func (b *wgpuRendererBackendImpl) fullscreenPass(label string, view *wgpu.TextureView, loadOp wgpu.LoadOp, p pipeline.Pipeline, group bind_group_provider.BindGroupProvider) error {
	err := b.beginPass(&wgpu.RenderPassDescriptor{
		Label: label,
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     loadOp,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{A: 1},
		}},
	})
	if err != nil {
		return err
	}
	b.framePass.SetPipeline(p.RenderPipeline())
	b.framePass.SetBindGroup(0, group.BindGroup(), nil)
	b.framePass.Draw(3, 1, 0, 0)
	return b.endPass()
}

func (b *wgpuRendererBackendImpl) Bloom(settings BloomSettings) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameEncoder == nil || b.targets == nil {
		return errors.New("no frame in progress")
	}
	t, pp := b.targets, b.post
	bw, bh := t.bloomA.width, t.bloomA.height

	bright := brightParams{Threshold: settings.Threshold, SmoothWidth: settings.SmoothWidth}
	horizontal := newBlurParams(1, 0, bw, bh, settings.Weights)
	vertical := newBlurParams(0, 1, bw, bh, settings.Weights)
	composite := compositeParams{Strength: settings.Strength}
	b.queue.WriteBuffer(pp.brightGroup.Buffer(postParamsBinding), 0, common.StructToBytes(&bright))
	b.queue.WriteBuffer(pp.blurHGroup.Buffer(postParamsBinding), 0, common.StructToBytes(&horizontal))
	b.queue.WriteBuffer(pp.blurVGroup.Buffer(postParamsBinding), 0, common.StructToBytes(&vertical))
	b.queue.WriteBuffer(pp.compositeGroup.Buffer(postParamsBinding), 0, common.StructToBytes(&composite))

	steps := []struct {
		label  string
		view   *wgpu.TextureView
		loadOp wgpu.LoadOp
		p      pipeline.Pipeline
		group  bind_group_provider.BindGroupProvider
	}{
		{"Bloom Bright Pass", t.bloomA.view, wgpu.LoadOpClear, pp.bright, pp.brightGroup},
		{"Bloom Blur H Pass", t.bloomB.view, wgpu.LoadOpClear, pp.blur, pp.blurHGroup},
		{"Bloom Blur V Pass", t.bloomA.view, wgpu.LoadOpClear, pp.blur, pp.blurVGroup},
		{"Bloom Composite Pass", t.hdr.view, wgpu.LoadOpLoad, pp.composite, pp.compositeGroup},
	}
	for _, s := range steps {
		if err := b.fullscreenPass(s.label, s.view, s.loadOp, s.p, s.group); err != nil {
			return fmt.Errorf("%s: %w", s.label, err)
		}
	}
	return nil
}

func (b *wgpuRendererBackendImpl) Output(settings OutputSettings) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameView == nil {
		return errors.New("no frame in progress")
	}
	params := newOutputParams(settings, b.surfaceFormat)
	b.queue.WriteBuffer(b.post.outputGroup.Buffer(postParamsBinding), 0, common.StructToBytes(&params))
	return b.fullscreenPass("Output Pass", b.frameView, wgpu.LoadOpClear, b.post.output, b.post.outputGroup)
}

func (b *wgpuRendererBackendImpl) EndFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameEncoder == nil {
		return errors.New("no frame in progress")
	}
	if b.framePass != nil {
		_ = b.endPass()
	}

	commandBuffer, err := b.frameEncoder.Finish(nil)
	b.frameEncoder.Release()
	b.frameEncoder = nil
	if err != nil {
		b.releaseFrameSurface()
		return fmt.Errorf("failed to finish frame: %w", err)
	}
	b.queue.Submit(commandBuffer)
	commandBuffer.Release()
	return nil
}

func (b *wgpuRendererBackendImpl) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface == nil {
		return
	}
	b.surface.Present()
	b.releaseFrameSurface()
}

func (b *wgpuRendererBackendImpl) releaseFrameSurface() {
	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	if b.frameSurface != nil {
		b.frameSurface.Release()
		b.frameSurface = nil
	}
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass != nil {
		b.framePass.Release()
		b.framePass = nil
	}
	if b.frameEncoder != nil {
		b.frameEncoder.Release()
		b.frameEncoder = nil
	}
	b.releaseFrameSurface()

	b.post.release()
	b.post = nil
	b.targets.release()
	b.targets = nil
	b.shadowMap.release()
	b.shadowMap = nil

	for key, l := range b.layouts {
		l.Release()
		delete(b.layouts, key)
	}
	for key, m := range b.modules {
		m.Release()
		delete(b.modules, key)
	}

	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.surface != nil {
		b.surface.Release()
		b.surface = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}
