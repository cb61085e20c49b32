package audio

import (
	"errors"
	"math"
	"sync"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"go.uber.org/zap"
)

// ErrNoBuffer is returned by Play before a buffer has been set.
var ErrNoBuffer = errors.New("audio: no buffer set")

// resampleQuality is the beep resampler quality used when the clip and device rates differ.
const resampleQuality = 4

// player is the implementation of the Player interface.
type player struct {
	mu     *sync.Mutex
	out    Output
	logger *zap.Logger

	buffer *beep.Buffer
	loop   bool
	volume float64

	ctrl    *beep.Ctrl
	gain    *effects.Volume
	playing bool
}

// Player plays one in-memory buffer through an Output.
type Player interface {
	// SetBuffer sets the clip to play. A playing clip keeps playing until the next Play after Stop.
	SetBuffer(buf *beep.Buffer)

	// HasBuffer reports whether a buffer has been set.
	HasBuffer() bool

	// SetVolume sets the linear gain in [0, 1]; 0 silences the output.
	SetVolume(volume float64)

	// Volume returns the linear gain.
	Volume() float64

	// SetLoop sets whether playback restarts at the end of the buffer.
	SetLoop(loop bool)

	// Play starts the buffer from the beginning, or unpauses it. It never restarts a playing clip.
	//
	// Returns:
	//   - error: ErrNoBuffer, or the device error
	Play() error

	// Pause pauses playback, keeping the position.
	Pause()

	// IsPlaying reports whether the clip is audible (started, not paused and not suspended).
	IsPlaying() bool

	// Suspend suspends the output device.
	Suspend() error

	// OnClick applies the user-gesture rule: a suspended output is resumed whether or not a buffer
	// is set; with a buffer, a clip that is not playing is started and a playing clip is left alone.
	OnClick() error
}

var _ Player = &player{}

// NewPlayer creates a Player with the given options.
//
// Parameters:
//   - options: a variadic list of PlayerBuilderOption functions to configure the Player
//
// Returns:
//   - Player: a stopped player
func NewPlayer(options ...PlayerBuilderOption) Player {
	p := &player{
		mu:     &sync.Mutex{},
		logger: zap.NewNop(),
		volume: 1,
	}
	for _, option := range options {
		option(p)
	}
	if p.out == nil {
		p.out = NewSilentOutput()
	}
	return p
}

func (p *player) SetBuffer(buf *beep.Buffer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.buffer = buf
}

func (p *player) HasBuffer() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buffer != nil
}

func (p *player) SetVolume(volume float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = min(max(volume, 0), 1)
	if p.gain != nil {
		p.out.Lock()
		applyGain(p.gain, p.volume)
		p.out.Unlock()
	}
}

func (p *player) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

func (p *player) SetLoop(loop bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loop = loop
}

func (p *player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playLocked()
}

func (p *player) playLocked() error {
	if p.buffer == nil {
		return ErrNoBuffer
	}
	if p.ctrl != nil {
		if p.playing {
			return nil
		}
		p.out.Lock()
		p.ctrl.Paused = false
		p.out.Unlock()
		p.playing = true
		return nil
	}

	if err := p.out.Init(p.buffer.Format()); err != nil {
		return err
	}

	var s beep.Streamer = p.buffer.Streamer(0, p.buffer.Len())
	if p.loop {
		s = beep.Loop(-1, p.buffer.Streamer(0, p.buffer.Len()))
	}
	if rate := p.out.SampleRate(); rate != 0 && rate != p.buffer.Format().SampleRate {
		s = beep.Resample(resampleQuality, p.buffer.Format().SampleRate, rate, s)
	}
	p.gain = &effects.Volume{Streamer: s, Base: 2}
	applyGain(p.gain, p.volume)
	p.ctrl = &beep.Ctrl{Streamer: p.gain}
	p.out.Play(p.ctrl)
	p.playing = true
	p.logger.Info("audio playback started", zap.Bool("loop", p.loop), zap.Float64("volume", p.volume))
	return nil
}

func (p *player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ctrl == nil || !p.playing {
		return
	}
	p.out.Lock()
	p.ctrl.Paused = true
	p.out.Unlock()
	p.playing = false
}

func (p *player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing && !p.out.Suspended()
}

func (p *player) Suspend() error {
	return p.out.Suspend()
}

func (p *player) OnClick() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.out.Suspended() {
		if err := p.out.Resume(); err != nil {
			return err
		}
		p.logger.Debug("audio output resumed")
	}
	if p.buffer == nil {
		return nil
	}
	if !p.playing {
		return p.playLocked()
	}
	return nil
}

// applyGain maps a linear volume onto the exponential beep volume.
func applyGain(v *effects.Volume, volume float64) {
	if volume <= 0 {
		v.Silent = true
		v.Volume = 0
		return
	}
	v.Silent = false
	v.Volume = math.Log2(volume)
}
