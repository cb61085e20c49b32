package frame

import (
	"time"

	"go.uber.org/zap"
)

// DriverBuilderOption is a functional option for configuring a Driver.
type DriverBuilderOption func(*Driver)

// WithClock sets the time source. Tests inject a *ManualClock.
//
// Parameters:
//   - clock: the clock read at the start of every frame
//
// Returns:
//   - DriverBuilderOption: option function to apply
func WithClock(clock Clock) DriverBuilderOption {
	return func(d *Driver) {
		d.clock = clock
	}
}

// WithControls sets the camera-control collaborator.
func WithControls(c Controls) DriverBuilderOption {
	return func(d *Driver) {
		d.controls = c
	}
}

// WithSampler sets the animated field sampler.
func WithSampler(s Sampler) DriverBuilderOption {
	return func(d *Driver) {
		d.sampler = s
	}
}

// WithComposer sets the composer asked to render each frame.
func WithComposer(c Composer) DriverBuilderOption {
	return func(d *Driver) {
		d.composer = c
	}
}

// WithViewport sets the camera that receives aspect updates on resize.
func WithViewport(v Viewport) DriverBuilderOption {
	return func(d *Driver) {
		d.viewport = v
	}
}

// WithSurface registers a surface that receives size updates on resize.
// Surfaces are notified in registration order.
//
// Parameters:
//   - s: the surface to register
//
// Returns:
//   - DriverBuilderOption: option function to apply
func WithSurface(s Surface) DriverBuilderOption {
	return func(d *Driver) {
		d.surfaces = append(d.surfaces, s)
	}
}

// WithPreTickHook registers a function run at the start of every frame, after the clock is read
// and before the controls are updated. Pending asset mutations are applied from such a hook.
// A hook error stops the driver.
//
// Parameters:
//   - hook: the function to run
//
// Returns:
//   - DriverBuilderOption: option function to apply
func WithPreTickHook(hook func() error) DriverBuilderOption {
	return func(d *Driver) {
		d.hooks = append(d.hooks, hook)
	}
}

// WithStopCondition sets the predicate evaluated after every completed frame.
func WithStopCondition(cond StopCondition) DriverBuilderOption {
	return func(d *Driver) {
		d.stopWhen = cond
	}
}

// WithFrameLimit caps Run at the given frames per second. 0 leaves the loop uncapped, paced only
// by surface presentation.
//
// Parameters:
//   - fps: maximum frames per second (0 = uncapped)
//
// Returns:
//   - DriverBuilderOption: option function to apply
func WithFrameLimit(fps float64) DriverBuilderOption {
	return func(d *Driver) {
		if fps <= 0 {
			d.frameLimit = 0
			return
		}
		d.frameLimit = time.Duration(float64(time.Second) / fps)
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) DriverBuilderOption {
	return func(d *Driver) {
		if logger != nil {
			d.logger = logger
		}
	}
}
