package renderer

import (
	"testing"
	"unsafe"

	"github.com/Carmen-Shannon/moonlit/common"
	"github.com/Carmen-Shannon/moonlit/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/moonlit/engine/renderer/shaders"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostParamsSizes(t *testing.T) {
	assert.Equal(t, uintptr(16), unsafe.Sizeof(brightParams{}))
	assert.Equal(t, uintptr(48), unsafe.Sizeof(blurParams{}))
	assert.Equal(t, uintptr(16), unsafe.Sizeof(compositeParams{}))
	assert.Equal(t, uintptr(16), unsafe.Sizeof(outputParams{}))
}

func TestNewBlurParams(t *testing.T) {
	weights := [5]float32{0.2, 0.15, 0.1, 0.08, 0.05}
	p := newBlurParams(1, 0, 400, 200, weights)
	assert.Equal(t, [2]float32{1, 0}, p.Direction)
	assert.InDelta(t, 1.0/400, p.Texel[0], 1e-9)
	assert.InDelta(t, 1.0/200, p.Texel[1], 1e-9)
	assert.Equal(t, weights[:], p.Weights[:5])
	assert.Equal(t, []float32{0, 0, 0}, p.Weights[5:])
	assert.Len(t, common.StructToBytes(&p), 48)

	degenerate := newBlurParams(0, 1, 0, 0, weights)
	assert.Equal(t, [2]float32{1, 1}, degenerate.Texel)
}

func TestNewOutputParams(t *testing.T) {
	linear := newOutputParams(OutputSettings{Exposure: 1.2}, wgpu.TextureFormatBGRA8Unorm)
	assert.Equal(t, float32(1.2), linear.Exposure)
	assert.Equal(t, uint32(1), linear.EncodeSRGB)

	srgb := newOutputParams(OutputSettings{Exposure: 1}, wgpu.TextureFormatBGRA8UnormSrgb)
	assert.Equal(t, uint32(0), srgb.EncodeSRGB)
}

func TestPostPipelinesShareOneLayout(t *testing.T) {
	var fingerprints []string
	for _, name := range []string{shaders.Bright, shaders.Blur, shaders.Composite, shaders.Output} {
		p, err := newPostPipeline(name, name, pipeline.TargetHDR)
		require.NoError(t, err)
		assert.False(t, p.DepthTestEnabled())

		layouts := p.BindGroupLayoutDescriptors()
		require.Len(t, layouts, 1)
		require.Len(t, layouts[0].Entries, 3)
		want := uint64(16)
		if name == shaders.Blur {
			want = 48
		}
		assert.Equal(t, want, layouts[0].Entries[postParamsBinding].Buffer.MinBindingSize)
		fingerprints = append(fingerprints, layoutFingerprint(layouts[0]))
	}
	// Parameter sizes differ between bright/composite/output (16) and blur (48).
	assert.Equal(t, fingerprints[0], fingerprints[2])
	assert.Equal(t, fingerprints[0], fingerprints[3])
	assert.NotEqual(t, fingerprints[0], fingerprints[1])
}
