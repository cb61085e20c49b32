package frame

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	calls []string
}

type fakeControls struct {
	rec *recorder
	dts []float64
}

func (c *fakeControls) Update(dt float64) {
	c.rec.calls = append(c.rec.calls, "controls")
	c.dts = append(c.dts, dt)
}

type fakeSampler struct {
	rec   *recorder
	times []float64
}

func (s *fakeSampler) Sample(t float64) {
	s.rec.calls = append(s.rec.calls, "sampler")
	s.times = append(s.times, t)
}

type fakeComposer struct {
	rec    *recorder
	err    error
	width  int
	height int
	resize int
}

func (c *fakeComposer) Render() error {
	if c.rec != nil {
		c.rec.calls = append(c.rec.calls, "composer")
	}
	return c.err
}

func (c *fakeComposer) Resize(width, height int) {
	c.width, c.height = width, height
	c.resize++
}

type fakeViewport struct {
	aspect float32
}

func (v *fakeViewport) SetAspect(aspect float32) { v.aspect = aspect }

type recordingClock struct {
	ManualClock
	rec *recorder
}

func (c *recordingClock) Elapsed() float64 {
	c.rec.calls = append(c.rec.calls, "clock")
	return c.ManualClock.Elapsed()
}

func TestTickOrder(t *testing.T) {
	rec := &recorder{}
	clock := &recordingClock{rec: rec}
	d := NewDriver(
		WithClock(clock),
		WithPreTickHook(func() error {
			rec.calls = append(rec.calls, "hook")
			return nil
		}),
		WithControls(&fakeControls{rec: rec}),
		WithSampler(&fakeSampler{rec: rec}),
		WithComposer(&fakeComposer{rec: rec}),
	)

	_, err := d.Tick()
	require.NoError(t, err)
	assert.Equal(t, []string{"clock", "hook", "controls", "sampler", "composer"}, rec.calls)
	assert.Equal(t, StateRunning, d.State())
}

func TestTickTimesFromInjectedClock(t *testing.T) {
	rec := &recorder{}
	clock := &ManualClock{}
	clock.Set(10)
	controls := &fakeControls{rec: rec}
	sampler := &fakeSampler{rec: rec}
	d := NewDriver(WithClock(clock), WithControls(controls), WithSampler(sampler))

	for _, step := range []float64{0, 0.5, 0.25, 1} {
		clock.Advance(step)
		_, err := d.Tick()
		require.NoError(t, err)
	}

	assert.InDeltaSlice(t, []float64{0, 0.5, 0.75, 1.75}, sampler.times, 1e-9)
	assert.InDeltaSlice(t, []float64{0, 0.5, 0.25, 1}, controls.dts, 1e-9)
}

func TestTickNeverGoesBackwards(t *testing.T) {
	rec := &recorder{}
	clock := &ManualClock{}
	sampler := &fakeSampler{rec: rec}
	d := NewDriver(WithClock(clock), WithSampler(sampler))

	clock.Set(2)
	_, _ = d.Tick()
	clock.Set(3)
	_, _ = d.Tick()
	clock.Set(2.5)
	tick, err := d.Tick()
	require.NoError(t, err)

	assert.Equal(t, 1.0, tick.Time)
	assert.Equal(t, 0.0, tick.Delta)
	assert.Equal(t, uint64(2), tick.Index)
}

func TestStopConditionEndsRun(t *testing.T) {
	clock := &ManualClock{}
	d := NewDriver(
		WithClock(clock),
		WithPreTickHook(func() error {
			clock.Advance(1.0 / 60)
			return nil
		}),
		WithStopCondition(func(tick Tick) bool { return tick.Index == 9 }),
	)

	err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateStopped, d.State())
	assert.Equal(t, uint64(10), d.frames())
}

func TestComposerErrorEndsRun(t *testing.T) {
	boom := errors.New("device lost")
	composer := &fakeComposer{err: boom}
	d := NewDriver(WithClock(&ManualClock{}), WithComposer(composer))

	err := d.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StateStopped, d.State())

	_, err = d.Tick()
	assert.ErrorIs(t, err, ErrStopped)
}

func TestHookErrorSkipsRender(t *testing.T) {
	rec := &recorder{}
	boom := errors.New("apply failed")
	d := NewDriver(
		WithClock(&ManualClock{}),
		WithPreTickHook(func() error { return boom }),
		WithComposer(&fakeComposer{rec: rec}),
	)

	_, err := d.Tick()
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, rec.calls)
	assert.Equal(t, StateStopped, d.State())
}

func TestContextCancelEndsRun(t *testing.T) {
	d := NewDriver(WithClock(&ManualClock{}), WithFrameLimit(1000))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	assert.Equal(t, StateStopped, d.State())
}

func TestRunAfterStopReturnsNil(t *testing.T) {
	rec := &recorder{}
	d := NewDriver(WithClock(&ManualClock{}), WithComposer(&fakeComposer{rec: rec}))

	d.Stop()
	require.NoError(t, d.Run(context.Background()))
	assert.Equal(t, StateStopped, d.State())
	assert.Empty(t, rec.calls, "a stopped driver renders nothing")
}

func TestStopIsIdempotent(t *testing.T) {
	d := NewDriver(WithClock(&ManualClock{}), WithFrameLimit(1000))

	done := make(chan error, 1)
	go func() { done <- d.Run(context.Background()) }()

	d.Stop()
	d.Stop()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Stop")
	}
	assert.NotPanics(t, d.Stop)
	assert.NoError(t, d.Run(context.Background()))
	_, err := d.Tick()
	assert.ErrorIs(t, err, ErrStopped)

	select {
	case <-d.Done():
	default:
		t.Fatal("Done channel not closed")
	}
}

func TestResizePropagates(t *testing.T) {
	viewport := &fakeViewport{}
	composer := &fakeComposer{}
	renderer := &fakeComposer{}
	d := NewDriver(WithViewport(viewport), WithSurface(renderer), WithSurface(composer))

	d.Resize(800, 600)
	assert.InDelta(t, 800.0/600.0, viewport.aspect, 1e-6)

	d.Resize(1920, 1080)
	assert.InDelta(t, float32(1920)/float32(1080), viewport.aspect, 1e-6)
	assert.Equal(t, 1920, composer.width)
	assert.Equal(t, 1080, composer.height)
	assert.Equal(t, 1920, renderer.width)
	assert.Equal(t, 1080, renderer.height)

	w, h := d.Size()
	assert.Equal(t, 1920, w)
	assert.Equal(t, 1080, h)
}

func TestResizeIgnoresZeroSize(t *testing.T) {
	viewport := &fakeViewport{aspect: 1.5}
	composer := &fakeComposer{}
	d := NewDriver(WithViewport(viewport), WithSurface(composer))

	d.Resize(0, 0)
	d.Resize(1024, 0)

	assert.Equal(t, float32(1.5), viewport.aspect)
	assert.Zero(t, composer.resize)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "stopped", StateStopped.String())
	assert.Equal(t, "State(7)", State(7).String())
}

func TestRequestResizeFromHookAppliesBeforeRender(t *testing.T) {
	viewport := &fakeViewport{}
	composer := &fakeComposer{}
	var d *Driver
	var sizeAtRender [2]int
	d = NewDriver(
		WithClock(&ManualClock{}),
		WithViewport(viewport),
		WithSurface(composer),
		WithPreTickHook(func() error {
			d.RequestResize(800, 600)
			d.RequestResize(1920, 1080)
			d.RequestResize(0, 10)
			return nil
		}),
		WithComposer(frameFunc(func() error {
			sizeAtRender = [2]int{composer.width, composer.height}
			return nil
		})),
	)

	_, err := d.Tick()
	require.NoError(t, err)
	assert.Equal(t, [2]int{1920, 1080}, sizeAtRender)
	assert.InDelta(t, float32(1920)/float32(1080), viewport.aspect, 1e-6)
	assert.Equal(t, 1, composer.resize)

	_, err = d.Tick()
	require.NoError(t, err)
	assert.Equal(t, 2, composer.resize)
}

type frameFunc func() error

func (f frameFunc) Render() error { return f() }
