package engine

import (
	"github.com/Carmen-Shannon/moonlit/engine/audio"
	"github.com/Carmen-Shannon/moonlit/engine/frame"
	"go.uber.org/zap"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithLogger sets the root logger. Each component logs through a named child of it.
//
// Parameters:
//   - logger: the logger; nil keeps the no-op default
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithLogger(logger *zap.Logger) EngineBuilderOption {
	return func(e *engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithProfiling enables or disables performance profiling output, overriding the configuration.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.cfg.Profile = enabled
	}
}

// WithSeed fixes the placement seed, overriding the configuration. 0 picks a random seed.
func WithSeed(seed uint64) EngineBuilderOption {
	return func(e *engine) {
		e.seed = seed
	}
}

// WithAudioOutput replaces the system speaker.
func WithAudioOutput(out audio.Output) EngineBuilderOption {
	return func(e *engine) {
		e.output = out
	}
}

// WithClock replaces the wall clock that times the animation.
func WithClock(clock frame.Clock) EngineBuilderOption {
	return func(e *engine) {
		e.clock = clock
	}
}

// WithStopCondition stops the frame loop when cond returns true, in addition to the window
// closing.
func WithStopCondition(cond frame.StopCondition) EngineBuilderOption {
	return func(e *engine) {
		e.stopWhen = cond
	}
}
