package shader

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSource = `
// Camera uniform.
struct Camera {
    view_proj: mat4x4f,
    position: vec3f,
}

/* lights /* nested */ block */
struct Light {
    position: vec3f,
    kind: u32,
    color: vec3f,
    intensity: f32,
}

struct Lights {
    ambient: vec3f,
    count: u32,
    items: array<Light, 4>,
}

struct VertexInput {
    @location(0) position: vec3f,
    @location(1) normal: vec3f,
    @location(2) uv: vec2f,
}

struct Varyings {
    @builtin(position) clip: vec4f,
    @location(0) uv: vec2f,
}

@group(0) @binding(0) var<uniform> camera: Camera;
@group(0) @binding(2) var<storage, read> lights: Lights;
@group(1) @binding(1) var<storage, read> instances: array<mat4x4f>;
@group(1) @binding(0) var color_map: texture_2d<f32>;
@group(1) @binding(3) var shadow_map: texture_depth_2d;
@group(1) @binding(4) var shadow_sampler: sampler_comparison;
@group(1) @binding(5) var material_sampler: sampler;
// @group(2) @binding(0) var<uniform> commented: Camera;

@vertex
fn vs_main(in: VertexInput) -> Varyings {
    var out: Varyings;
    return out;
}

@fragment
fn fs_main(in: Varyings) -> @location(0) vec4f {
    return vec4f(1.0);
}
`

func TestNewShaderReflectsEntryPoints(t *testing.T) {
	vs, err := NewShader("test-vs", ShaderTypeVertex, testSource)
	require.NoError(t, err)
	fs, err := NewShader("test-fs", ShaderTypeFragment, testSource)
	require.NoError(t, err)

	assert.Equal(t, "vs_main", vs.EntryPoint())
	assert.Equal(t, "fs_main", fs.EntryPoint())
	assert.Equal(t, "test-vs", vs.Key())
	assert.Equal(t, ShaderTypeFragment, fs.ShaderType())
}

func TestNewShaderWithoutEntryPoint(t *testing.T) {
	_, err := NewShader("depth", ShaderTypeFragment, "@vertex fn vs_main() -> @builtin(position) vec4f { return vec4f(0.0); }")
	assert.Error(t, err)
}

func TestBindGroupsAreSortedAndClassified(t *testing.T) {
	vs, err := NewShader("test-vs", ShaderTypeVertex, testSource)
	require.NoError(t, err)
	groups := vs.BindGroupLayoutDescriptors()
	require.Len(t, groups, 2)

	g0 := groups[0].Entries
	require.Len(t, g0, 2)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, g0[0].Buffer.Type)
	assert.Equal(t, uint64(80), g0[0].Buffer.MinBindingSize)
	assert.Equal(t, uint32(2), g0[1].Binding)
	assert.Equal(t, wgpu.BufferBindingTypeReadOnlyStorage, g0[1].Buffer.Type)
	assert.Equal(t, uint64(16+4*32), g0[1].Buffer.MinBindingSize)
	assert.Equal(t, wgpu.ShaderStageVertex, g0[0].Visibility)

	g1 := groups[1].Entries
	require.Len(t, g1, 5)
	for i := 1; i < len(g1); i++ {
		assert.Less(t, g1[i-1].Binding, g1[i].Binding)
	}
	assert.Equal(t, wgpu.TextureSampleTypeFloat, g1[0].Texture.SampleType)
	assert.Equal(t, wgpu.TextureViewDimension2D, g1[0].Texture.ViewDimension)
	assert.Equal(t, uint64(64), g1[1].Buffer.MinBindingSize)
	assert.Equal(t, wgpu.TextureSampleTypeDepth, g1[2].Texture.SampleType)
	assert.Equal(t, wgpu.SamplerBindingTypeComparison, g1[3].Sampler.Type)
	assert.Equal(t, wgpu.SamplerBindingTypeFiltering, g1[4].Sampler.Type)

	assert.Equal(t, "lights", vs.BindingName(0, 2))
	assert.Equal(t, "", vs.BindingName(3, 0))
	binding, ok := vs.Binding(1, "material_sampler")
	assert.True(t, ok)
	assert.Equal(t, 5, binding)
	_, ok = vs.Binding(1, "commented")
	assert.False(t, ok)
}

func TestFragmentVisibility(t *testing.T) {
	fs, err := NewShader("test-fs", ShaderTypeFragment, testSource)
	require.NoError(t, err)
	for _, e := range fs.BindGroupLayoutDescriptors()[1].Entries {
		assert.Equal(t, wgpu.ShaderStageFragment, e.Visibility)
	}
	assert.Empty(t, fs.VertexLayouts())
}

func TestVertexLayoutSkipsStageOutputs(t *testing.T) {
	vs, err := NewShader("test-vs", ShaderTypeVertex, testSource)
	require.NoError(t, err)
	layouts := vs.VertexLayouts()
	require.Len(t, layouts, 1)

	layout := layouts[0]
	assert.Equal(t, uint64(32), layout.ArrayStride)
	assert.Equal(t, wgpu.VertexStepModeVertex, layout.StepMode)
	require.Len(t, layout.Attributes, 3)
	assert.Equal(t, wgpu.VertexFormatFloat32x3, layout.Attributes[1].Format)
	assert.Equal(t, uint64(12), layout.Attributes[1].Offset)
	assert.Equal(t, uint32(2), layout.Attributes[2].ShaderLocation)
	assert.Equal(t, uint64(24), layout.Attributes[2].Offset)
}

func TestStructLayouts(t *testing.T) {
	vs, err := NewShader("test-vs", ShaderTypeVertex, testSource)
	require.NoError(t, err)

	tests := []struct {
		name string
		size uint64
	}{
		{"Camera", 80},
		{"Light", 32},
		{"Lights", 144},
	}
	for _, tt := range tests {
		size, ok := vs.StructSize(tt.name)
		assert.True(t, ok, tt.name)
		assert.Equal(t, tt.size, size, tt.name)
	}
	_, ok := vs.StructSize("Missing")
	assert.False(t, ok)
}

func TestStructLayoutOrderIndependent(t *testing.T) {
	structs := parseStructs(`
struct Outer { head: f32, inner: Inner, }
struct Inner { v: vec3f, }
`)
	sizes := structLayouts(structs)
	assert.Equal(t, typeLayout{16, 16}, sizes["Inner"])
	assert.Equal(t, typeLayout{32, 16}, sizes["Outer"])
}

func TestResolveLayoutArrays(t *testing.T) {
	known := map[string]typeLayout{"Light": {64, 16}}

	l, ok := resolveLayout("array<Light, 8>", known)
	require.True(t, ok)
	assert.Equal(t, uint64(512), l.size)

	l, ok = resolveLayout("array<vec3f>", known)
	require.True(t, ok)
	assert.Equal(t, uint64(16), l.size)

	_, ok = resolveLayout("array<Unknown, 2>", known)
	assert.False(t, ok)
	_, ok = resolveLayout("array<f32, n>", known)
	assert.False(t, ok)
}

func TestStripComments(t *testing.T) {
	out := stripComments("a // line\nb /* x /* y */ z */ c")
	assert.Equal(t, "a \nb  c", out)
}
