package animate

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/Carmen-Shannon/moonlit/engine/frame"
	"github.com/Carmen-Shannon/moonlit/engine/placement"
	"github.com/Carmen-Shannon/moonlit/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ frame.Sampler = &Sampler{}

func TestMistTime(t *testing.T) {
	assert.Equal(t, float32(0), MistTime(0))
	assert.Equal(t, float32(12.5), MistTime(12.5))
}

func TestFireflyYPeriodicAndBounded(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	for range 1000 {
		tm := rng.Float64() * 1000
		x := rng.Float32()*30 - 15
		y := FireflyY(tm, x)
		assert.GreaterOrEqual(t, y, float32(3.5))
		assert.LessOrEqual(t, y, float32(4.5))
		assert.InDelta(t, y, FireflyY(tm+2*math.Pi, x), 1e-4)
	}
	assert.InDelta(t, 4.5, FireflyY(math.Pi/2, 0), 1e-6)
	assert.InDelta(t, 3.5, FireflyY(0, -math.Pi/2), 1e-6)
}

func TestGroupRotationMonotonic(t *testing.T) {
	assert.Equal(t, float32(0), GroupRotationY(0))
	prev := GroupRotationY(0)
	for i := 1; i <= 1000; i++ {
		cur := GroupRotationY(float64(i) * 0.016)
		assert.GreaterOrEqual(t, cur, prev)
		prev = cur
	}
	assert.InDelta(t, 0.5, GroupRotationY(10), 1e-6)
}

func testState(t *testing.T) *scene.State {
	t.Helper()
	particles := placement.GenerateParticles(500, placement.ParticleParams{
		Ring:      placement.Ring{RadiusMin: 4, RadiusSpan: 11},
		HeightMax: 8,
	}, rand.New(rand.NewPCG(5, 6)))
	st := scene.NewState()
	st.Fireflies.Buffer = placement.NewParticleBuffer(particles)
	return st
}

func TestSampleWritesFields(t *testing.T) {
	st := testState(t)
	buf := st.Fireflies.Buffer
	_, ok := buf.TakeUpload()
	require.True(t, ok)
	require.False(t, buf.Dirty())

	Sample(3, st)
	assert.Equal(t, float32(3), st.Mist.Time)
	assert.InDelta(t, 0.15, st.Fireflies.RotationY, 1e-6)
	assert.True(t, buf.Dirty())
	for i := range buf.Len() {
		assert.Equal(t, FireflyY(3, buf.BaseX(i)), buf.Position(i).Y())
	}
}

func TestSampleLeavesBaseUntouched(t *testing.T) {
	st := testState(t)
	buf := st.Fireflies.Buffer
	base := make([]mgl32.Vec3, buf.Len())
	sizes := make([]float32, buf.Len())
	for i := range buf.Len() {
		base[i] = buf.Base(i)
		sizes[i] = buf.Size(i)
	}

	s := NewSampler(st)
	for i := range 20 {
		s.Sample(float64(i) * 0.37)
	}
	for i := range buf.Len() {
		assert.Equal(t, base[i], buf.Base(i))
		assert.Equal(t, sizes[i], buf.Size(i))
		assert.Equal(t, base[i].X(), buf.Position(i).X())
		assert.Equal(t, base[i].Z(), buf.Position(i).Z())
	}
}

func TestSampleWithoutFireflies(t *testing.T) {
	st := scene.NewState()
	assert.NotPanics(t, func() { Sample(1, st) })
	assert.Equal(t, float32(1), st.Mist.Time)
}
