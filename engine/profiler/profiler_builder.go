package profiler

import (
	"time"

	"go.uber.org/zap"
)

// ProfilerBuilderOption is a function that configures a Profiler during construction.
type ProfilerBuilderOption func(*Profiler)

// WithLogger sets the logger summaries are written to.
func WithLogger(logger *zap.Logger) ProfilerBuilderOption {
	return func(p *Profiler) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithInterval sets how often a summary is produced.
func WithInterval(interval time.Duration) ProfilerBuilderOption {
	return func(p *Profiler) {
		if interval > 0 {
			p.interval = interval
		}
	}
}

// WithWindow sets how many recent frame times feed the percentiles.
func WithWindow(frames int) ProfilerBuilderOption {
	return func(p *Profiler) {
		if frames > 0 {
			p.frameTimes = make([]time.Duration, frames)
		}
	}
}

// WithNow replaces the time source.
func WithNow(now func() time.Time) ProfilerBuilderOption {
	return func(p *Profiler) {
		if now != nil {
			p.now = now
		}
	}
}
