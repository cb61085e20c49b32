// Package speaker connects the audio player to the system sound device through the beep speaker.
// It is the only package that links the platform audio backend.
package speaker

import (
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/moonlit/engine/audio"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

// output drives the process-wide beep speaker.
type output struct {
	mu          *sync.Mutex
	bufferSize  time.Duration
	rate        beep.SampleRate
	initialized bool
	suspended   bool
}

var _ audio.Output = &output{}

// NewOutput creates an audio.Output over the system speaker.
//
// Parameters:
//   - bufferSize: the device buffer length; zero selects 100ms
//
// Returns:
//   - audio.Output: the speaker output, opened lazily on the first Init
func NewOutput(bufferSize time.Duration) audio.Output {
	if bufferSize <= 0 {
		bufferSize = 100 * time.Millisecond
	}
	return &output{mu: &sync.Mutex{}, bufferSize: bufferSize}
}

func (o *output) Init(format beep.Format) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.initialized {
		return nil
	}
	if err := speaker.Init(format.SampleRate, format.SampleRate.N(o.bufferSize)); err != nil {
		return fmt.Errorf("failed to init speaker: %w", err)
	}
	o.rate = format.SampleRate
	o.initialized = true
	return nil
}

func (o *output) SampleRate() beep.SampleRate {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.rate
}

func (o *output) Play(s beep.Streamer) {
	speaker.Play(s)
}

func (o *output) Suspend() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.initialized || o.suspended {
		return nil
	}
	if err := speaker.Suspend(); err != nil {
		return fmt.Errorf("failed to suspend speaker: %w", err)
	}
	o.suspended = true
	return nil
}

func (o *output) Resume() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.initialized || !o.suspended {
		return nil
	}
	if err := speaker.Resume(); err != nil {
		return fmt.Errorf("failed to resume speaker: %w", err)
	}
	o.suspended = false
	return nil
}

func (o *output) Suspended() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.suspended
}

func (o *output) Lock() {
	speaker.Lock()
}

func (o *output) Unlock() {
	speaker.Unlock()
}
