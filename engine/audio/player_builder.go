package audio

import "go.uber.org/zap"

// PlayerBuilderOption is a function that configures a Player instance during construction.
type PlayerBuilderOption func(*player)

// WithOutput sets the device the player streams to. The default discards all audio; use
// speaker.NewOutput for the system sound device.
func WithOutput(out Output) PlayerBuilderOption {
	return func(p *player) {
		p.out = out
	}
}

// WithLoop sets whether playback loops.
func WithLoop(loop bool) PlayerBuilderOption {
	return func(p *player) {
		p.loop = loop
	}
}

// WithVolume sets the linear gain in [0, 1].
func WithVolume(volume float64) PlayerBuilderOption {
	return func(p *player) {
		p.volume = min(max(volume, 0), 1)
	}
}

// WithLogger sets the logger used for playback state changes.
func WithLogger(logger *zap.Logger) PlayerBuilderOption {
	return func(p *player) {
		if logger != nil {
			p.logger = logger
		}
	}
}
