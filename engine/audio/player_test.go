package audio

import (
	"sync"
	"testing"

	"github.com/gopxl/beep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOutput struct {
	mu        sync.Mutex
	rate      beep.SampleRate
	inits     int
	played    []beep.Streamer
	suspended bool
	resumes   int
}

func (o *fakeOutput) Init(format beep.Format) error {
	o.inits++
	if o.rate == 0 {
		o.rate = format.SampleRate
	}
	return nil
}

func (o *fakeOutput) SampleRate() beep.SampleRate { return o.rate }
func (o *fakeOutput) Play(s beep.Streamer)        { o.played = append(o.played, s) }
func (o *fakeOutput) Suspended() bool             { return o.suspended }
func (o *fakeOutput) Lock()                       { o.mu.Lock() }
func (o *fakeOutput) Unlock()                     { o.mu.Unlock() }

func (o *fakeOutput) Suspend() error {
	o.suspended = true
	return nil
}

func (o *fakeOutput) Resume() error {
	if o.suspended {
		o.resumes++
	}
	o.suspended = false
	return nil
}

func silence(rate beep.SampleRate, n int) *beep.Buffer {
	buf := beep.NewBuffer(beep.Format{SampleRate: rate, NumChannels: 2, Precision: 2})
	buf.Append(beep.Silence(n))
	return buf
}

func TestClickWithoutBufferDoesNothing(t *testing.T) {
	out := &fakeOutput{}
	p := NewPlayer(WithOutput(out))
	require.NoError(t, p.OnClick())
	assert.Empty(t, out.played)
	assert.False(t, p.IsPlaying())
	assert.ErrorIs(t, p.Play(), ErrNoBuffer)
}

func TestClickResumesSuspendedOutputWithoutBuffer(t *testing.T) {
	out := &fakeOutput{suspended: true}
	p := NewPlayer(WithOutput(out))

	require.NoError(t, p.OnClick())
	assert.False(t, out.suspended)
	assert.Equal(t, 1, out.resumes)
	assert.Empty(t, out.played)
	assert.False(t, p.IsPlaying())
}

func TestDefaultOutputIsSilent(t *testing.T) {
	p := NewPlayer(WithLoop(true))
	p.SetBuffer(silence(22050, 100))

	require.NoError(t, p.OnClick())
	assert.True(t, p.IsPlaying())

	require.NoError(t, p.Suspend())
	assert.False(t, p.IsPlaying())
	require.NoError(t, p.OnClick())
	assert.True(t, p.IsPlaying())

	p.SetVolume(0)
	assert.Zero(t, p.Volume())
}

func TestClickStartsOnceAndDoesNotRestart(t *testing.T) {
	out := &fakeOutput{}
	p := NewPlayer(WithOutput(out), WithLoop(true), WithVolume(0.5))
	p.SetBuffer(silence(44100, 100))

	require.NoError(t, p.OnClick())
	assert.True(t, p.IsPlaying())
	require.Len(t, out.played, 1)

	require.NoError(t, p.OnClick())
	assert.Len(t, out.played, 1)
	assert.Equal(t, 1, out.inits)
}

func TestClickResumesSuspendedOutput(t *testing.T) {
	out := &fakeOutput{}
	p := NewPlayer(WithOutput(out))
	p.SetBuffer(silence(44100, 100))
	require.NoError(t, p.OnClick())

	require.NoError(t, p.Suspend())
	assert.False(t, p.IsPlaying())

	require.NoError(t, p.OnClick())
	assert.Equal(t, 1, out.resumes)
	assert.True(t, p.IsPlaying())
	assert.Len(t, out.played, 1)
}

func TestClickUnpausesPausedClip(t *testing.T) {
	out := &fakeOutput{}
	p := NewPlayer(WithOutput(out))
	p.SetBuffer(silence(44100, 100))
	require.NoError(t, p.Play())

	p.Pause()
	assert.False(t, p.IsPlaying())
	ctrl := out.played[0].(*beep.Ctrl)
	assert.True(t, ctrl.Paused)

	require.NoError(t, p.OnClick())
	assert.False(t, ctrl.Paused)
	assert.Len(t, out.played, 1)
}

func TestVolumeMapsToBeepGain(t *testing.T) {
	out := &fakeOutput{}
	p := NewPlayer(WithOutput(out), WithVolume(0.5))
	p.SetBuffer(silence(44100, 10))
	require.NoError(t, p.Play())

	impl := p.(*player)
	assert.InDelta(t, -1, impl.gain.Volume, 1e-12)
	assert.False(t, impl.gain.Silent)

	p.SetVolume(0)
	assert.True(t, impl.gain.Silent)
	p.SetVolume(4)
	assert.Equal(t, 1.0, p.Volume())
	assert.InDelta(t, 0, impl.gain.Volume, 1e-12)
}

func TestLoopKeepsStreaming(t *testing.T) {
	samples := make([][2]float64, 250)

	looped := &fakeOutput{}
	p := NewPlayer(WithOutput(looped), WithLoop(true))
	p.SetBuffer(silence(44100, 100))
	require.NoError(t, p.Play())
	n, ok := looped.played[0].Stream(samples)
	assert.True(t, ok)
	assert.Equal(t, 250, n)

	once := &fakeOutput{}
	q := NewPlayer(WithOutput(once))
	q.SetBuffer(silence(44100, 100))
	require.NoError(t, q.Play())
	n, _ = once.played[0].Stream(samples)
	assert.Equal(t, 100, n)
}

func TestResamplesToDeviceRate(t *testing.T) {
	out := &fakeOutput{rate: 48000}
	p := NewPlayer(WithOutput(out), WithLoop(true))
	p.SetBuffer(silence(44100, 1000))
	require.NoError(t, p.Play())

	samples := make([][2]float64, 64)
	n, ok := out.played[0].Stream(samples)
	assert.True(t, ok)
	assert.Equal(t, 64, n)
}
