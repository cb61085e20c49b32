package postfx

import "go.uber.org/zap"

// ComposerBuilderOption is a functional option for configuring a composer.
type ComposerBuilderOption func(c *composer)

// WithPasses appends passes in run order.
func WithPasses(passes ...Pass) ComposerBuilderOption {
	return func(c *composer) {
		c.passes = append(c.passes, passes...)
	}
}

// WithSize sets the initial logical size. NewComposer applies it to the device.
//
// Parameters:
//   - width: the logical width
//   - height: the logical height
//
// Returns:
//   - ComposerBuilderOption: option function to apply
func WithSize(width, height int) ComposerBuilderOption {
	return func(c *composer) {
		c.width, c.height = width, height
	}
}

// WithPixelRatio sets the initial device pixel ratio. It is clamped like SetPixelRatio.
func WithPixelRatio(ratio float32) ComposerBuilderOption {
	return func(c *composer) {
		c.ratio = ratio
	}
}

// WithMaxPixelRatio sets the largest pixel ratio rendered. Values <= 0 keep DefaultMaxPixelRatio.
func WithMaxPixelRatio(limit float32) ComposerBuilderOption {
	return func(c *composer) {
		if limit > 0 {
			c.maxRatio = limit
		}
	}
}

// WithFramebuffer sets where the swapchain size is read on resize. Without it the swapchain
// matches the render size.
func WithFramebuffer(fb Framebuffer) ComposerBuilderOption {
	return func(c *composer) {
		c.fb = fb
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) ComposerBuilderOption {
	return func(c *composer) {
		if logger != nil {
			c.logger = logger
		}
	}
}
