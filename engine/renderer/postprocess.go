package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/moonlit/common"
	"github.com/Carmen-Shannon/moonlit/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/moonlit/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/moonlit/engine/renderer/shader"
	"github.com/Carmen-Shannon/moonlit/engine/renderer/shaders"
	"github.com/cogentcore/webgpu/wgpu"
)

// Bindings shared by every full-screen pass.
const (
	postSourceBinding  = 0
	postSamplerBinding = 1
	postParamsBinding  = 2
)

type brightParams struct {
	Threshold   float32
	SmoothWidth float32
	_           [2]float32
}

type blurParams struct {
	Direction [2]float32
	Texel     [2]float32
	Weights   [8]float32
}

type compositeParams struct {
	Strength float32
	_        [3]float32
}

type outputParams struct {
	Exposure   float32
	EncodeSRGB uint32
	_          [2]float32
}

// newBlurParams packs one direction of the separable blur. The five taps occupy the first
// five lanes of the two vec4 weight slots.
func newBlurParams(dx, dy float32, width, height int, weights [5]float32) blurParams {
	p := blurParams{
		Direction: [2]float32{dx, dy},
		Texel:     [2]float32{1 / float32(max(width, 1)), 1 / float32(max(height, 1))},
	}
	copy(p.Weights[:], weights[:])
	return p
}

func newOutputParams(settings OutputSettings, surfaceFormat wgpu.TextureFormat) outputParams {
	p := outputParams{Exposure: settings.Exposure}
	if !isSRGB(surfaceFormat) {
		p.EncodeSRGB = 1
	}
	return p
}

// postProcess holds the internal pipelines and bind groups of the bloom chain and the output
// pass. Providers reference target views they do not own and are rebound after every resize.
type postProcess struct {
	bright, blur, composite, output pipeline.Pipeline

	brightGroup    bind_group_provider.BindGroupProvider
	blurHGroup     bind_group_provider.BindGroupProvider
	blurVGroup     bind_group_provider.BindGroupProvider
	compositeGroup bind_group_provider.BindGroupProvider
	outputGroup    bind_group_provider.BindGroupProvider
}

func newPostPipeline(key, source string, target pipeline.Target, opts ...pipeline.PipelineBuilderOption) (pipeline.Pipeline, error) {
	src, err := shaders.Source(source)
	if err != nil {
		return nil, err
	}
	vs, err := shader.NewShader(key+" vs", shader.ShaderTypeVertex, src)
	if err != nil {
		return nil, fmt.Errorf("failed to reflect %s vertex shader: %w", key, err)
	}
	fs, err := shader.NewShader(key+" fs", shader.ShaderTypeFragment, src)
	if err != nil {
		return nil, fmt.Errorf("failed to reflect %s fragment shader: %w", key, err)
	}
	opts = append([]pipeline.PipelineBuilderOption{
		pipeline.WithShaders(vs, fs),
		pipeline.WithTarget(target),
		pipeline.WithDepthTestEnabled(false),
		pipeline.WithDepthWriteEnabled(false),
	}, opts...)
	return pipeline.NewPipeline(key, opts...), nil
}

// newPostProcess creates and registers the post-processing pipelines.
func newPostProcess(b *wgpuRendererBackendImpl) (*postProcess, error) {
	pp := &postProcess{}
	var err error
	if pp.bright, err = newPostPipeline("bloom bright", shaders.Bright, pipeline.TargetHDR); err != nil {
		return nil, err
	}
	if pp.blur, err = newPostPipeline("bloom blur", shaders.Blur, pipeline.TargetHDR); err != nil {
		return nil, err
	}
	if pp.composite, err = newPostPipeline("bloom composite", shaders.Composite, pipeline.TargetHDR,
		pipeline.WithBlendEnabled(true),
		pipeline.WithBlendState(&wgpu.BlendState{
			Color: wgpu.BlendComponent{SrcFactor: wgpu.BlendFactorOne, DstFactor: wgpu.BlendFactorOne, Operation: wgpu.BlendOperationAdd},
			Alpha: wgpu.BlendComponent{SrcFactor: wgpu.BlendFactorZero, DstFactor: wgpu.BlendFactorOne, Operation: wgpu.BlendOperationAdd},
		}),
	); err != nil {
		return nil, err
	}
	if pp.output, err = newPostPipeline("output", shaders.Output, pipeline.TargetSurface); err != nil {
		return nil, err
	}

	for _, p := range pp.pipelines() {
		if err := b.registerRenderPipeline(p); err != nil {
			pp.release()
			return nil, fmt.Errorf("failed to register %s: %w", p.PipelineKey(), err)
		}
	}

	pp.brightGroup = bind_group_provider.NewBindGroupProvider("Bloom Bright")
	pp.blurHGroup = bind_group_provider.NewBindGroupProvider("Bloom Blur H")
	pp.blurVGroup = bind_group_provider.NewBindGroupProvider("Bloom Blur V")
	pp.compositeGroup = bind_group_provider.NewBindGroupProvider("Bloom Composite")
	pp.outputGroup = bind_group_provider.NewBindGroupProvider("Output")

	clamp := common.SamplerStagingData{WrapU: common.WrapClampToEdge, WrapV: common.WrapClampToEdge}
	for _, g := range pp.groups() {
		if err := b.initSampler(g, postSamplerBinding, clamp); err != nil {
			pp.release()
			return nil, err
		}
	}
	return pp, nil
}

func (pp *postProcess) pipelines() []pipeline.Pipeline {
	return []pipeline.Pipeline{pp.bright, pp.blur, pp.composite, pp.output}
}

func (pp *postProcess) groups() []bind_group_provider.BindGroupProvider {
	return []bind_group_provider.BindGroupProvider{pp.brightGroup, pp.blurHGroup, pp.blurVGroup, pp.compositeGroup, pp.outputGroup}
}

// bind points every pass at the views of the current targets and rebuilds the bind groups.
// Parameter buffers survive across calls.
func (pp *postProcess) bind(b *wgpuRendererBackendImpl, t *frameTargets) error {
	sources := []struct {
		group bind_group_provider.BindGroupProvider
		p     pipeline.Pipeline
		view  *wgpu.TextureView
	}{
		{pp.brightGroup, pp.bright, t.hdr.view},
		{pp.blurHGroup, pp.blur, t.bloomA.view},
		{pp.blurVGroup, pp.blur, t.bloomB.view},
		{pp.compositeGroup, pp.composite, t.bloomA.view},
		{pp.outputGroup, pp.output, t.hdr.view},
	}
	for _, s := range sources {
		s.group.SetTexture(postSourceBinding, nil, s.view)
		if err := b.initBindGroup(s.group, s.p.BindGroupLayout(0), s.p.BindGroupLayoutDescriptors()[0], nil); err != nil {
			return fmt.Errorf("failed to bind %s: %w", s.group.Label(), err)
		}
	}
	return nil
}

func (pp *postProcess) release() {
	if pp == nil {
		return
	}
	for _, g := range pp.groups() {
		if g != nil {
			g.Release()
		}
	}
	for _, p := range pp.pipelines() {
		if p != nil {
			p.Release()
		}
	}
}
