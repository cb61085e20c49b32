package pipeline

import (
	"testing"

	"github.com/Carmen-Shannon/moonlit/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const source = `
struct Params { scale: f32, }
@group(0) @binding(0) var<uniform> params: Params;
@group(0) @binding(1) var tex: texture_2d<f32>;
@group(0) @binding(2) var samp: sampler;

@vertex
fn vs_main(@builtin(vertex_index) v: u32) -> @builtin(position) vec4f {
    return vec4f(params.scale);
}

@fragment
fn fs_main() -> @location(0) vec4f {
    return vec4f(1.0);
}
`

func TestNewPipelineDefaults(t *testing.T) {
	p := NewPipeline("lit")
	assert.Equal(t, "lit", p.PipelineKey())
	assert.Equal(t, TargetScene, p.Target())
	assert.True(t, p.DepthTestEnabled())
	assert.True(t, p.DepthWriteEnabled())
	assert.False(t, p.BlendEnabled())
	assert.Equal(t, wgpu.CullModeNone, p.CullMode())
	assert.Equal(t, wgpu.PrimitiveTopologyTriangleList, p.Topology())
	assert.Nil(t, p.RenderPipeline())
	assert.Nil(t, p.BindGroupLayout(0))
	assert.Nil(t, p.Shader(shader.ShaderTypeVertex))
}

func TestAdditiveBlend(t *testing.T) {
	p := NewPipeline("mist", WithAdditiveBlend(), WithDepthWriteEnabled(false))
	assert.True(t, p.BlendEnabled())
	assert.False(t, p.DepthWriteEnabled())
	assert.Equal(t, wgpu.BlendFactorOne, p.BlendState().Color.DstFactor)
	assert.Equal(t, wgpu.BlendFactorSrcAlpha, p.BlendState().Color.SrcFactor)
}

func TestBindGroupLayoutDescriptorsMergeStages(t *testing.T) {
	vs, err := shader.NewShader("vs", shader.ShaderTypeVertex, source)
	require.NoError(t, err)
	fs, err := shader.NewShader("fs", shader.ShaderTypeFragment, source)
	require.NoError(t, err)

	p := NewPipeline("quad", WithShaders(vs, fs), WithTarget(TargetSurface))
	assert.Same(t, fs, p.Shader(shader.ShaderTypeFragment))

	layouts := p.BindGroupLayoutDescriptors()
	require.Len(t, layouts, 1)
	entries := layouts[0].Entries
	require.Len(t, entries, 3)
	for i, e := range entries {
		assert.Equal(t, uint32(i), e.Binding)
		assert.Equal(t, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, e.Visibility)
	}
	assert.Equal(t, uint64(4), entries[0].Buffer.MinBindingSize)
}

func TestDepthOnlyPipelineUsesVertexLayouts(t *testing.T) {
	vs, err := shader.NewShader("vs", shader.ShaderTypeVertex, source)
	require.NoError(t, err)
	p := NewPipeline("shadow", WithShaders(vs, nil), WithTarget(TargetShadow))
	for _, e := range p.BindGroupLayoutDescriptors()[0].Entries {
		assert.Equal(t, wgpu.ShaderStageVertex, e.Visibility)
	}
	assert.Nil(t, p.Shader(shader.ShaderTypeFragment))
}

func TestMergeLayoutsDisjointGroups(t *testing.T) {
	a := map[int]wgpu.BindGroupLayoutDescriptor{
		0: {Entries: []wgpu.BindGroupLayoutEntry{{Binding: 1, Visibility: wgpu.ShaderStageVertex}}},
	}
	b := map[int]wgpu.BindGroupLayoutDescriptor{
		0: {Entries: []wgpu.BindGroupLayoutEntry{{Binding: 0, Visibility: wgpu.ShaderStageFragment}}},
		2: {Entries: []wgpu.BindGroupLayoutEntry{{Binding: 0, Visibility: wgpu.ShaderStageFragment}}},
	}
	merged := MergeLayouts(a, b)
	require.Len(t, merged, 2)
	require.Len(t, merged[0].Entries, 2)
	assert.Equal(t, uint32(0), merged[0].Entries[0].Binding)
	assert.Equal(t, wgpu.ShaderStageVertex, merged[0].Entries[1].Visibility)
	assert.Len(t, merged[2].Entries, 1)
}
