package shaders

import (
	"testing"

	"github.com/Carmen-Shannon/moonlit/engine/renderer/shader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEverySourceReflects(t *testing.T) {
	for _, name := range Names {
		t.Run(name, func(t *testing.T) {
			src, err := Source(name)
			require.NoError(t, err)
			vs, err := shader.NewShader(name, shader.ShaderTypeVertex, src)
			require.NoError(t, err)
			assert.Equal(t, "vs_main", vs.EntryPoint())
			if name == Shadow {
				return
			}
			fs, err := shader.NewShader(name, shader.ShaderTypeFragment, src)
			require.NoError(t, err)
			assert.Equal(t, "fs_main", fs.EntryPoint())
		})
	}
}

func TestUnknownSource(t *testing.T) {
	_, err := Source("water")
	assert.Error(t, err)
}

func TestSceneSourcesShareFrameGroup(t *testing.T) {
	var first []uint64
	for _, name := range []string{Lit, Sky, Mist, Fireflies} {
		src, err := Source(name)
		require.NoError(t, err)
		vs, err := shader.NewShader(name, shader.ShaderTypeVertex, src)
		require.NoError(t, err)

		entries := vs.BindGroupLayoutDescriptors()[0].Entries
		require.Len(t, entries, 6, name)
		sizes := make([]uint64, len(entries))
		for i, e := range entries {
			sizes[i] = e.Buffer.MinBindingSize
		}
		if first == nil {
			first = sizes
			continue
		}
		assert.Equal(t, first, sizes, name)
	}
	assert.Equal(t, []uint64{208, 32, 528, 80, 0, 0}, first)
}

func TestGPUStructSizes(t *testing.T) {
	tests := []struct {
		source string
		name   string
		size   uint64
	}{
		{Lit, "Object", 112},
		{Shadow, "Object", 112},
		{Mist, "Mist", 80},
		{Fireflies, "Fireflies", 96},
		{Blur, "Blur", 48},
		{Output, "Output", 16},
	}
	for _, tt := range tests {
		src, err := Source(tt.source)
		require.NoError(t, err)
		vs, err := shader.NewShader(tt.source, shader.ShaderTypeVertex, src)
		require.NoError(t, err)
		size, ok := vs.StructSize(tt.name)
		require.True(t, ok, tt.name)
		assert.Equal(t, tt.size, size, tt.source+"."+tt.name)
	}
}

func TestLitVertexLayoutMatchesMeshVertex(t *testing.T) {
	src, err := Source(Lit)
	require.NoError(t, err)
	vs, err := shader.NewShader(Lit, shader.ShaderTypeVertex, src)
	require.NoError(t, err)
	require.Len(t, vs.VertexLayouts(), 1)
	assert.Equal(t, uint64(48), vs.VertexLayouts()[0].ArrayStride)

	src, err = Source(Fireflies)
	require.NoError(t, err)
	vs, err = shader.NewShader(Fireflies, shader.ShaderTypeVertex, src)
	require.NoError(t, err)
	assert.Empty(t, vs.VertexLayouts())
}
