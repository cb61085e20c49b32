// Package audio plays the looping background track. Playback starts on the first user click and a
// suspended output is resumed by a later click.
package audio

import (
	"sync"

	"github.com/gopxl/beep"
)

// Output is the device side of the player.
type Output interface {
	// Init opens the device at the format's sample rate. Later calls are no-ops.
	Init(format beep.Format) error
	// SampleRate returns the rate the device was opened at, zero before Init.
	SampleRate() beep.SampleRate
	// Play starts streaming s.
	Play(s beep.Streamer)
	// Suspend stops the device without discarding queued streamers.
	Suspend() error
	// Resume restarts a suspended device.
	Resume() error
	// Suspended reports whether the device is suspended.
	Suspended() bool
	// Lock and Unlock guard streamer state shared with the device thread.
	Lock()
	Unlock()
}

// silentOutput accepts streamers and never reads them. It is the player's default so that code
// holding a Player does not link an audio device.
type silentOutput struct {
	mu        *sync.Mutex
	stream    *sync.Mutex
	rate      beep.SampleRate
	suspended bool
}

var _ Output = &silentOutput{}

// NewSilentOutput creates an Output that discards everything played through it.
//
// Returns:
//   - Output: the silent output
func NewSilentOutput() Output {
	return &silentOutput{mu: &sync.Mutex{}, stream: &sync.Mutex{}}
}

func (o *silentOutput) Init(format beep.Format) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.rate == 0 {
		o.rate = format.SampleRate
	}
	return nil
}

func (o *silentOutput) SampleRate() beep.SampleRate {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.rate
}

func (o *silentOutput) Play(beep.Streamer) {}

func (o *silentOutput) Suspend() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.suspended = true
	return nil
}

func (o *silentOutput) Resume() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.suspended = false
	return nil
}

func (o *silentOutput) Suspended() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.suspended
}

func (o *silentOutput) Lock() {
	o.stream.Lock()
}

func (o *silentOutput) Unlock() {
	o.stream.Unlock()
}
