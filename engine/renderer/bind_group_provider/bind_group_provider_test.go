package bind_group_provider

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewBindGroupProviderLabel(t *testing.T) {
	p := NewBindGroupProvider("statue/object")
	assert.Equal(t, "statue/object", p.Label())

	anon := NewBindGroupProvider("")
	_, err := uuid.Parse(anon.Label())
	assert.NoError(t, err)
	assert.NotEqual(t, anon.Label(), NewBindGroupProvider("").Label())
}

func TestEmptyProvider(t *testing.T) {
	p := NewBindGroupProvider("empty", WithIndexCount(36))
	assert.Nil(t, p.BindGroup())
	assert.Nil(t, p.Buffer(0))
	assert.Nil(t, p.TextureView(2))
	assert.Nil(t, p.Sampler(5))
	assert.False(t, p.Borrowed(0))
	assert.Equal(t, 36, p.IndexCount())

	p.Release()
	assert.Equal(t, 0, p.IndexCount())
	assert.Empty(t, p.Buffers())
}

func TestBorrowedBindings(t *testing.T) {
	p := NewBindGroupProvider("shadow", WithBorrowedBuffers(map[int]*wgpu.Buffer{0: nil, 1: nil}))
	assert.True(t, p.Borrowed(0))
	assert.True(t, p.Borrowed(1))

	p.SetBuffer(1, nil)
	assert.False(t, p.Borrowed(1))

	p.Release()
	assert.False(t, p.Borrowed(0))
}
