package frame

import (
	"sync"
	"time"
)

// Clock reports elapsed seconds. Successive readings must not decrease.
type Clock interface {
	Elapsed() float64
}

// wallClock reads the monotonic wall clock relative to its creation time.
type wallClock struct {
	start time.Time
}

// NewWallClock creates a Clock backed by the process's monotonic clock.
//
// Returns:
//   - Clock: a clock whose zero is the moment of creation
func NewWallClock() Clock {
	return &wallClock{start: time.Now()}
}

func (c *wallClock) Elapsed() float64 {
	return time.Since(c.start).Seconds()
}

// ManualClock is a Clock advanced explicitly by its owner. It is safe for concurrent use.
type ManualClock struct {
	mu  sync.Mutex
	now float64
}

// Elapsed returns the current manual reading.
func (c *ManualClock) Elapsed() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by dt seconds. Negative values are ignored.
func (c *ManualClock) Advance(dt float64) {
	if dt <= 0 {
		return
	}
	c.mu.Lock()
	c.now += dt
	c.mu.Unlock()
}

// Set jumps the clock to an absolute reading.
func (c *ManualClock) Set(t float64) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}
