package postfx

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Carmen-Shannon/moonlit/engine/config"
	"github.com/Carmen-Shannon/moonlit/engine/frame"
	"github.com/Carmen-Shannon/moonlit/engine/renderer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDevice struct {
	calls    []string
	beginErr error
	endErr   error
	sizeErr  error

	targets [][2]int
	surface [][2]int
	bloom   renderer.BloomSettings
	output  renderer.OutputSettings
}

func (d *fakeDevice) BeginFrame() error {
	d.calls = append(d.calls, "begin")
	return d.beginErr
}

func (d *fakeDevice) Bloom(settings renderer.BloomSettings) error {
	d.calls = append(d.calls, "bloom")
	d.bloom = settings
	return nil
}

func (d *fakeDevice) Output(settings renderer.OutputSettings) error {
	d.calls = append(d.calls, "output")
	d.output = settings
	return nil
}

func (d *fakeDevice) EndFrame() error {
	d.calls = append(d.calls, "end")
	return d.endErr
}

func (d *fakeDevice) Present() {
	d.calls = append(d.calls, "present")
}

func (d *fakeDevice) Resize(width, height int) error {
	if d.sizeErr != nil {
		return d.sizeErr
	}
	d.targets = append(d.targets, [2]int{width, height})
	return nil
}

func (d *fakeDevice) ResizeSurface(width, height int) error {
	d.surface = append(d.surface, [2]int{width, height})
	return nil
}

type fakeScene struct {
	calls      *[]string
	prepareErr error
}

func (s *fakeScene) Prepare() error {
	*s.calls = append(*s.calls, "prepare")
	return s.prepareErr
}

func (s *fakeScene) Record() error {
	*s.calls = append(*s.calls, "record")
	return nil
}

type fixedFramebuffer [2]int

func (f fixedFramebuffer) FramebufferSize() (int, int) { return f[0], f[1] }

func newTestComposer(t *testing.T, bloom bool, options ...ComposerBuilderOption) (*fakeDevice, *fakeScene, Composer) {
	t.Helper()
	dev := &fakeDevice{}
	sc := &fakeScene{calls: &dev.calls}
	cfg := config.Default().Bloom
	cfg.Enabled = bloom
	options = append([]ComposerBuilderOption{WithPasses(
		NewRenderPass(sc),
		NewBloomPass(cfg),
		NewOutputPass(func() float32 { return 1.5 }),
	)}, options...)
	c, err := NewComposer(dev, options...)
	require.NoError(t, err)
	return dev, sc, c
}

func TestGaussianWeights(t *testing.T) {
	for _, radius := range []float32{-1, 0, 0.5, 1, 4} {
		w := GaussianWeights(radius)
		sum := w[0]
		for k := 1; k < len(w); k++ {
			sum += 2 * w[k]
			assert.Less(t, w[k], w[k-1], "radius %v tap %d", radius, k)
		}
		assert.InDelta(t, 1, sum, 1e-5, "radius %v", radius)
	}
	assert.Equal(t, GaussianWeights(0), GaussianWeights(-1))
	assert.Less(t, GaussianWeights(1)[0], GaussianWeights(0.5)[0], "a wider radius flattens the kernel")
}

func TestBloomPassSettings(t *testing.T) {
	p := NewBloomPass(config.BloomConfig{Enabled: true, Strength: 0.3, Radius: 0.5, Threshold: 0.2})
	s := p.Settings()
	assert.Equal(t, float32(0.2), s.Threshold)
	assert.Equal(t, float32(0.3), s.Strength)
	assert.Equal(t, float32(bloomSmoothWidth), s.SmoothWidth)
	assert.Equal(t, GaussianWeights(0.5), s.Weights)
	assert.True(t, p.Enabled())

	p.SetEnabled(false)
	assert.False(t, p.Enabled())
}

func TestRenderRunsPassesInOrder(t *testing.T) {
	dev, _, c := newTestComposer(t, true)

	require.NoError(t, c.Render())
	assert.Equal(t, []string{"begin", "prepare", "record", "bloom", "output", "end", "present"}, dev.calls)
	assert.Equal(t, float32(1.5), dev.output.Exposure)
	assert.Equal(t, float32(0.3), dev.bloom.Strength)
	assert.Equal(t, uint64(1), c.Frames())
}

func TestRenderSkipsDisabledPass(t *testing.T) {
	dev, _, c := newTestComposer(t, false)

	require.NoError(t, c.Render())
	assert.Equal(t, []string{"begin", "prepare", "record", "output", "end", "present"}, dev.calls)
}

func TestRenderSkippedFrame(t *testing.T) {
	dev, _, c := newTestComposer(t, true)
	dev.beginErr = fmt.Errorf("surface lost: %w", renderer.ErrFrameSkipped)

	require.NoError(t, c.Render())
	assert.Equal(t, []string{"begin"}, dev.calls)
	assert.Equal(t, uint64(1), c.Skipped())
	assert.Zero(t, c.Frames())
}

func TestRenderAbortsOnFirstError(t *testing.T) {
	t.Run("begin", func(t *testing.T) {
		dev, _, c := newTestComposer(t, true)
		dev.beginErr = errors.New("device lost")
		err := c.Render()
		require.ErrorIs(t, err, dev.beginErr)
		assert.Equal(t, []string{"begin"}, dev.calls)
	})

	t.Run("pass", func(t *testing.T) {
		dev, sc, c := newTestComposer(t, true)
		sc.prepareErr = errors.New("upload failed")
		err := c.Render()
		require.ErrorIs(t, err, sc.prepareErr)
		assert.Contains(t, err.Error(), "render pass")
		assert.Equal(t, []string{"begin", "prepare"}, dev.calls)
	})

	t.Run("end", func(t *testing.T) {
		dev, _, c := newTestComposer(t, true)
		dev.endErr = errors.New("submit failed")
		require.ErrorIs(t, c.Render(), dev.endErr)
		assert.NotContains(t, dev.calls, "present")
	})
}

func TestResizePropagatesToDevice(t *testing.T) {
	dev, _, c := newTestComposer(t, true, WithSize(800, 600))
	assert.Equal(t, [][2]int{{800, 600}}, dev.targets)

	c.Resize(1920, 1080)
	w, h := c.Size()
	assert.Equal(t, 1920, w)
	assert.Equal(t, 1080, h)
	assert.Equal(t, [2]int{1920, 1080}, dev.targets[len(dev.targets)-1])
	assert.Equal(t, [2]int{1920, 1080}, dev.surface[len(dev.surface)-1])

	c.Resize(0, 0)
	assert.Len(t, dev.targets, 2, "minimized sizes are ignored")
}

func TestPixelRatioClamp(t *testing.T) {
	_, _, c := newTestComposer(t, true)
	assert.Equal(t, float32(1), c.PixelRatio())

	require.NoError(t, c.SetPixelRatio(0))
	assert.Equal(t, float32(1), c.PixelRatio())
	require.NoError(t, c.SetPixelRatio(1.25))
	assert.Equal(t, float32(1.25), c.PixelRatio())
	require.NoError(t, c.SetPixelRatio(3))
	assert.Equal(t, float32(DefaultMaxPixelRatio), c.PixelRatio())

	_, _, c = newTestComposer(t, true, WithMaxPixelRatio(4), WithPixelRatio(3))
	assert.Equal(t, float32(3), c.PixelRatio())
}

func TestPixelRatioScalesRenderTargets(t *testing.T) {
	dev, _, c := newTestComposer(t, true, WithSize(800, 600), WithPixelRatio(3),
		WithFramebuffer(fixedFramebuffer{1600, 1200}))

	assert.Equal(t, float32(2), c.PixelRatio())
	rw, rh := c.RenderSize()
	assert.Equal(t, 1600, rw)
	assert.Equal(t, 1200, rh)
	assert.Equal(t, [2]int{1600, 1200}, dev.surface[0])

	require.NoError(t, c.SetPixelRatio(1.5))
	assert.Equal(t, [2]int{1200, 900}, dev.targets[len(dev.targets)-1])
	assert.Equal(t, [2]int{1600, 1200}, dev.surface[len(dev.surface)-1], "the swapchain follows the framebuffer")
}

func TestResizeErrorSurfacesOnNextRender(t *testing.T) {
	dev, _, c := newTestComposer(t, true, WithSize(800, 600))
	dev.sizeErr = errors.New("out of memory")

	c.Resize(1024, 768)
	err := c.Render()
	require.ErrorIs(t, err, dev.sizeErr)
	assert.NotContains(t, dev.calls, "begin")

	dev.sizeErr = nil
	require.NoError(t, c.Render())
}

func TestDriverResizeReachesComposer(t *testing.T) {
	dev, _, c := newTestComposer(t, true, WithSize(800, 600))
	viewport := &aspectRecorder{}
	d := frame.NewDriver(frame.WithComposer(c), frame.WithSurface(c), frame.WithViewport(viewport),
		frame.WithClock(&frame.ManualClock{}))

	d.Resize(1920, 1080)
	assert.InDelta(t, 1920.0/1080.0, viewport.aspect, 1e-6)
	assert.Equal(t, [2]int{1920, 1080}, dev.targets[len(dev.targets)-1])

	_, err := d.Tick()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), c.Frames())
}

type aspectRecorder struct{ aspect float32 }

func (a *aspectRecorder) SetAspect(aspect float32) { a.aspect = aspect }
