// Package frame drives the per-frame update of the scene: it reads the clock, advances the camera
// controls, samples the animated fields and asks the composer for a frame, in that order, until it
// is told to stop.
package frame

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// State is the lifecycle state of a Driver.
type State int32

const (
	// StateIdle is the state of a driver that has not ticked yet.
	StateIdle State = iota
	// StateRunning is entered by the first tick or by Run.
	StateRunning
	// StateStopped is terminal.
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

var (
	// ErrStopped is returned by Tick once the driver has stopped. Run treats a stopped driver as a
	// clean exit and returns nil.
	ErrStopped = errors.New("frame: driver stopped")
	// ErrAlreadyRunning is returned by Run when another Run is active.
	ErrAlreadyRunning = errors.New("frame: driver already running")
)

// Tick describes one completed frame.
type Tick struct {
	// Index counts completed frames starting at 0.
	Index uint64
	// Time is the elapsed simulated time in seconds at the start of the frame.
	Time float64
	// Delta is the time since the previous frame in seconds; 0 for the first frame.
	Delta float64
}

// StopCondition is evaluated after every tick; returning true stops the driver.
type StopCondition func(Tick) bool

// Controls is the camera-control collaborator, updated once per frame with damping.
type Controls interface {
	Update(dt float64)
}

// Sampler recomputes the time-varying scene fields for elapsed time t.
type Sampler interface {
	Sample(t float64)
}

// Composer renders one frame.
type Composer interface {
	Render() error
}

// Viewport receives the aspect ratio of the output surface.
type Viewport interface {
	SetAspect(aspect float32)
}

// Surface receives the pixel size of the output surface.
type Surface interface {
	Resize(width, height int)
}

// SamplerFunc adapts a plain function to the Sampler interface.
type SamplerFunc func(t float64)

func (f SamplerFunc) Sample(t float64) { f(t) }

// Driver runs the frame loop. A driver runs at most once; after it stops it cannot be restarted.
type Driver struct {
	// mu serializes frames against resizes coming from the window thread.
	mu *sync.Mutex

	clock    Clock
	controls Controls
	sampler  Sampler
	composer Composer
	viewport Viewport
	surfaces []Surface
	hooks    []func() error
	stopWhen StopCondition
	logger   *zap.Logger

	frameLimit time.Duration

	state   atomic.Int32
	started bool
	origin  float64
	last    float64
	index   uint64

	width, height int

	// pending holds a size recorded by RequestResize until the next frame applies it.
	pendingMu  *sync.Mutex
	pending    [2]int
	hasPending bool

	quitChannel chan struct{}
	quitOnce    sync.Once
}

// NewDriver creates a Driver configured with the provided options. Without WithClock the driver
// uses a wall clock created at construction time.
//
// Parameters:
//   - options: variadic list of DriverBuilderOption functions
//
// Returns:
//   - *Driver: the idle driver
func NewDriver(options ...DriverBuilderOption) *Driver {
	d := &Driver{
		mu:          &sync.Mutex{},
		pendingMu:   &sync.Mutex{},
		logger:      zap.NewNop(),
		quitChannel: make(chan struct{}),
	}
	for _, opt := range options {
		opt(d)
	}
	if d.clock == nil {
		d.clock = NewWallClock()
	}
	return d
}

// State returns the current lifecycle state.
func (d *Driver) State() State {
	return State(d.state.Load())
}

// Size returns the last size accepted by Resize.
func (d *Driver) Size() (width, height int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.width, d.height
}

// Tick runs a single frame: clock, pre-tick hooks, controls, sampler, composer.
// The first call moves an idle driver to RUNNING. Any failing step stops the driver and its error
// is returned.
//
// Returns:
//   - Tick: the completed frame
//   - error: ErrStopped after Stop, or the wrapped error of the failing step
func (d *Driver) Tick() (Tick, error) {
	if d.State() == StateStopped {
		return Tick{}, ErrStopped
	}
	d.state.CompareAndSwap(int32(StateIdle), int32(StateRunning))

	d.mu.Lock()
	tick, err := d.step()
	d.mu.Unlock()
	if err != nil {
		d.Stop()
		return tick, err
	}

	if d.stopWhen != nil && d.stopWhen(tick) {
		d.Stop()
	}
	return tick, nil
}

// step executes one frame. Caller must hold the mutex.
func (d *Driver) step() (Tick, error) {
	now := d.clock.Elapsed()
	if !d.started {
		d.origin = now
		d.started = true
	}
	t := now - d.origin
	if t < d.last {
		t = d.last
	}
	tick := Tick{Index: d.index, Time: t, Delta: t - d.last}
	if d.index == 0 {
		tick.Delta = 0
	}
	d.last = t

	for i, hook := range d.hooks {
		if err := hook(); err != nil {
			return tick, fmt.Errorf("frame %d: pre-tick hook %d: %w", tick.Index, i, err)
		}
	}
	if width, height, ok := d.takePendingResize(); ok {
		d.resizeLocked(width, height)
	}
	if d.controls != nil {
		d.controls.Update(tick.Delta)
	}
	if d.sampler != nil {
		d.sampler.Sample(t)
	}
	if d.composer != nil {
		if err := d.composer.Render(); err != nil {
			return tick, fmt.Errorf("frame %d: render: %w", tick.Index, err)
		}
	}
	d.index++
	return tick, nil
}

// Run ticks until ctx is cancelled, Stop is called, the stop condition holds or a step fails.
// The driver is STOPPED when Run returns.
//
// Parameters:
//   - ctx: cancelling the context stops the loop
//
// Returns:
//   - error: nil after Stop or the stop condition, including a Stop that preceded Run,
//     ctx.Err() after cancellation, otherwise the error of the failing step
func (d *Driver) Run(ctx context.Context) error {
	if d.State() == StateStopped {
		return nil
	}
	if !d.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		if d.State() == StateStopped {
			return nil
		}
		return ErrAlreadyRunning
	}
	defer d.Stop()

	d.logger.Debug("frame loop started", zap.Duration("frame_limit", d.frameLimit))
	for {
		select {
		case <-ctx.Done():
			d.logger.Debug("frame loop cancelled", zap.Uint64("frames", d.frames()))
			return ctx.Err()
		case <-d.quitChannel:
			d.logger.Debug("frame loop stopped", zap.Uint64("frames", d.frames()))
			return nil
		default:
		}

		begin := time.Now()
		if _, err := d.Tick(); err != nil {
			if errors.Is(err, ErrStopped) {
				return nil
			}
			d.logger.Error("frame failed", zap.Error(err))
			return err
		}

		if d.frameLimit > 0 {
			if remaining := d.frameLimit - time.Since(begin); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}
}

func (d *Driver) frames() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.index
}

// Stop moves the driver to STOPPED. Safe to call multiple times and from any goroutine.
func (d *Driver) Stop() {
	d.quitOnce.Do(func() {
		d.state.Store(int32(StateStopped))
		close(d.quitChannel)
	})
}

// Done returns a channel closed when the driver stops.
func (d *Driver) Done() <-chan struct{} {
	return d.quitChannel
}

// Resize sets the viewport aspect to width/height and forwards the size to every surface.
// Zero or negative sizes, as reported for minimized windows, are ignored.
//
// Parameters:
//   - width: the new output width in pixels
//   - height: the new output height in pixels
func (d *Driver) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resizeLocked(width, height)
}

// RequestResize records a size that the next frame applies after its pre-tick hooks, before the
// controls run. Use it from window callbacks fired inside a pre-tick hook, where Resize would
// block on the frame in progress. A later request replaces an earlier one.
//
// Parameters:
//   - width: the new output width in pixels
//   - height: the new output height in pixels
func (d *Driver) RequestResize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	d.pendingMu.Lock()
	d.pending = [2]int{width, height}
	d.hasPending = true
	d.pendingMu.Unlock()
}

func (d *Driver) takePendingResize() (int, int, bool) {
	d.pendingMu.Lock()
	defer d.pendingMu.Unlock()
	if !d.hasPending {
		return 0, 0, false
	}
	d.hasPending = false
	return d.pending[0], d.pending[1], true
}

// resizeLocked applies a size. Caller must hold the mutex.
func (d *Driver) resizeLocked(width, height int) {
	d.width, d.height = width, height
	if d.viewport != nil {
		d.viewport.SetAspect(float32(width) / float32(height))
	}
	for _, s := range d.surfaces {
		s.Resize(width, height)
	}
	d.logger.Debug("output resized", zap.Int("width", width), zap.Int("height", height))
}
