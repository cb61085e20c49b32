// Package postfx composes a frame out of an ordered list of passes: the scene render, bloom and
// the tone-mapping output. The composer owns the output size and pixel ratio and keeps the
// renderer's targets and swapchain in step with them.
package postfx

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/Carmen-Shannon/moonlit/common"
	"github.com/Carmen-Shannon/moonlit/engine/renderer"
	"go.uber.org/zap"
)

// DefaultMaxPixelRatio caps the render resolution on high density displays.
const DefaultMaxPixelRatio = 2

// Device is the part of the renderer the composer drives.
type Device interface {
	BeginFrame() error
	Bloom(settings renderer.BloomSettings) error
	Output(settings renderer.OutputSettings) error
	EndFrame() error
	Present()
	Resize(width, height int) error
	ResizeSurface(width, height int) error
}

// Framebuffer reports the swapchain size in pixels, which may differ from the logical size.
type Framebuffer interface {
	FramebufferSize() (width, height int)
}

// Composer runs the passes of a frame in order and presents the result.
type Composer interface {
	// AddPass appends a pass. Passes run in the order they were added.
	AddPass(p Pass)

	// Passes returns the passes in run order.
	Passes() []Pass

	// SetSize sets the logical output size. The render targets are resized to the size times the
	// pixel ratio and the swapchain to the framebuffer size. Non-positive sizes are ignored.
	//
	// Parameters:
	//   - width: the logical width
	//   - height: the logical height
	//
	// Returns:
	//   - error: if the renderer could not be resized
	SetSize(width, height int) error

	// Resize is SetSize for callers that cannot handle an error, such as the frame driver. A
	// failure is returned by the next Render.
	Resize(width, height int)

	// Size returns the logical output size.
	Size() (width, height int)

	// SetPixelRatio sets the device pixel ratio, clamped to (0, max], and resizes the targets.
	//
	// Parameters:
	//   - ratio: the display's device pixel ratio; non-positive values select 1
	//
	// Returns:
	//   - error: if the renderer could not be resized
	SetPixelRatio(ratio float32) error

	// PixelRatio returns the clamped pixel ratio.
	PixelRatio() float32

	// RenderSize returns the size of the render targets, the logical size times the pixel ratio.
	RenderSize() (width, height int)

	// Render composes one frame: begin, every enabled pass, end and present. A frame whose
	// swapchain image was unavailable is skipped without error. The first failing step aborts the
	// frame.
	//
	// Returns:
	//   - error: a pending resize error or the first failing step
	Render() error

	// Frames returns the number of presented frames.
	Frames() uint64

	// Skipped returns the number of frames skipped for lack of a swapchain image.
	Skipped() uint64
}

type composer struct {
	mu     *sync.Mutex
	device Device
	fb     Framebuffer
	logger *zap.Logger

	passes []Pass

	width, height int
	ratio         float32
	maxRatio      float32

	renderWidth, renderHeight int

	// resizeErr holds a failure from Resize until Render reports it
	resizeErr error

	frames  uint64
	skipped uint64
}

var _ Composer = &composer{}

// NewComposer creates a composer over device.
//
// Parameters:
//   - device: the renderer
//   - options: variadic list of ComposerBuilderOption functions
//
// Returns:
//   - Composer: the composer, sized by WithSize or left at 0x0 until SetSize
//   - error: if the initial size could not be applied
func NewComposer(device Device, options ...ComposerBuilderOption) (Composer, error) {
	c := &composer{
		mu:       &sync.Mutex{},
		device:   device,
		logger:   zap.NewNop(),
		ratio:    1,
		maxRatio: DefaultMaxPixelRatio,
	}
	for _, opt := range options {
		opt(c)
	}
	c.ratio = common.ClampPixelRatio(c.ratio, c.maxRatio)
	if c.width > 0 && c.height > 0 {
		if err := c.apply(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *composer) AddPass(p Pass) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.passes = append(c.passes, p)
}

func (c *composer) Passes() []Pass {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Pass, len(c.passes))
	copy(out, c.passes)
	return out
}

func (c *composer) SetSize(width, height int) error {
	if width <= 0 || height <= 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.width, c.height = width, height
	return c.apply()
}

func (c *composer) Resize(width, height int) {
	if err := c.SetSize(width, height); err != nil {
		c.logger.Error("resize failed", zap.Int("width", width), zap.Int("height", height), zap.Error(err))
		c.mu.Lock()
		c.resizeErr = err
		c.mu.Unlock()
	}
}

func (c *composer) Size() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

func (c *composer) SetPixelRatio(ratio float32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ratio = common.ClampPixelRatio(ratio, c.maxRatio)
	if c.width <= 0 || c.height <= 0 {
		return nil
	}
	return c.apply()
}

func (c *composer) PixelRatio() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ratio
}

func (c *composer) RenderSize() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.renderWidth, c.renderHeight
}

// apply resizes the swapchain and the render targets. Caller must hold the mutex.
func (c *composer) apply() error {
	rw := max(int(math.Round(float64(c.width)*float64(c.ratio))), 1)
	rh := max(int(math.Round(float64(c.height)*float64(c.ratio))), 1)

	sw, sh := rw, rh
	if c.fb != nil {
		if fw, fh := c.fb.FramebufferSize(); fw > 0 && fh > 0 {
			sw, sh = fw, fh
		}
	}
	if err := c.device.ResizeSurface(sw, sh); err != nil {
		return err
	}
	if err := c.device.Resize(rw, rh); err != nil {
		return err
	}
	c.renderWidth, c.renderHeight = rw, rh
	c.logger.Debug("composer resized",
		zap.Int("width", c.width), zap.Int("height", c.height), zap.Float32("pixel_ratio", c.ratio),
		zap.Int("render_width", rw), zap.Int("render_height", rh),
		zap.Int("surface_width", sw), zap.Int("surface_height", sh))
	return nil
}

func (c *composer) Render() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.resizeErr; err != nil {
		c.resizeErr = nil
		return fmt.Errorf("resize: %w", err)
	}

	if err := c.device.BeginFrame(); err != nil {
		if errors.Is(err, renderer.ErrFrameSkipped) {
			c.skipped++
			c.logger.Debug("frame skipped", zap.Error(err))
			return nil
		}
		return fmt.Errorf("begin frame: %w", err)
	}
	for _, p := range c.passes {
		if !p.Enabled() {
			continue
		}
		if err := p.Render(c.device); err != nil {
			return fmt.Errorf("%s pass: %w", p.Name(), err)
		}
	}
	if err := c.device.EndFrame(); err != nil {
		return fmt.Errorf("end frame: %w", err)
	}
	c.device.Present()
	c.frames++
	return nil
}

func (c *composer) Frames() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frames
}

func (c *composer) Skipped() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.skipped
}
