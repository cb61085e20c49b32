// Package profiler measures frame timing and memory while the scene runs and logs a summary at a
// fixed interval.
package profiler

import (
	"runtime"
	"slices"
	"time"

	"go.uber.org/zap"
)

// DefaultWindow is the number of recent frame times kept for percentiles.
const DefaultWindow = 240

// Summary is one reporting interval.
type Summary struct {
	FPS        float64
	AvgFrame   time.Duration
	P99Frame   time.Duration
	MaxFrame   time.Duration
	HeapMB     float64
	AllocMBps  float64
	GCCount    uint32
	MaxPauseUs uint64
}

// Profiler tracks frame rate, frame-time percentiles and memory statistics.
// It is owned by the render thread and is not safe for concurrent use.
type Profiler struct {
	logger   *zap.Logger
	now      func() time.Time
	interval time.Duration

	frameCount  int
	lastTime    time.Time
	lastFrame   time.Time
	frameTimes  []time.Duration
	next        int
	filled      bool
	scratch     []time.Duration
	memStats    runtime.MemStats
	lastGCCount uint32
	lastAlloc   uint64
	last        Summary
}

// NewProfiler creates a Profiler. The interval defaults to one second.
//
// Parameters:
//   - options: a variadic list of ProfilerBuilderOption functions
//
// Returns:
//   - *Profiler: the profiler
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		logger:     zap.NewNop(),
		now:        time.Now,
		interval:   time.Second,
		frameTimes: make([]time.Duration, DefaultWindow),
	}
	for _, option := range options {
		option(p)
	}
	p.scratch = make([]time.Duration, 0, len(p.frameTimes))
	p.lastTime = p.now()
	p.lastFrame = p.lastTime
	return p
}

// Tick records one frame. When the interval has elapsed it logs a summary.
//
// Returns:
//   - bool: true if a summary was produced this tick
func (p *Profiler) Tick() bool {
	now := p.now()
	p.record(now.Sub(p.lastFrame))
	p.lastFrame = now
	p.frameCount++

	elapsed := now.Sub(p.lastTime)
	if elapsed < p.interval {
		return false
	}

	s := p.summarize(elapsed)
	p.logger.Info("frame profile",
		zap.Float64("fps", s.FPS),
		zap.Duration("avg", s.AvgFrame),
		zap.Duration("p99", s.P99Frame),
		zap.Duration("max", s.MaxFrame),
		zap.Float64("heap_mb", s.HeapMB),
		zap.Float64("alloc_mb_s", s.AllocMBps),
		zap.Uint32("gc", s.GCCount),
		zap.Uint64("gc_max_pause_us", s.MaxPauseUs),
	)
	p.last = s
	p.frameCount = 0
	p.lastTime = now
	return true
}

// Last returns the most recent summary.
func (p *Profiler) Last() Summary {
	return p.last
}

func (p *Profiler) record(d time.Duration) {
	p.frameTimes[p.next] = d
	p.next++
	if p.next == len(p.frameTimes) {
		p.next = 0
		p.filled = true
	}
}

func (p *Profiler) window() []time.Duration {
	if p.filled {
		return p.frameTimes
	}
	return p.frameTimes[:p.next]
}

func (p *Profiler) summarize(elapsed time.Duration) Summary {
	s := Summary{FPS: float64(p.frameCount) / elapsed.Seconds()}

	p.scratch = append(p.scratch[:0], p.window()...)
	if n := len(p.scratch); n > 0 {
		slices.Sort(p.scratch)
		var total time.Duration
		for _, d := range p.scratch {
			total += d
		}
		s.AvgFrame = total / time.Duration(n)
		s.P99Frame = p.scratch[min(n-1, n*99/100)]
		s.MaxFrame = p.scratch[n-1]
	}

	runtime.ReadMemStats(&p.memStats)
	s.HeapMB = float64(p.memStats.Alloc) / 1024 / 1024
	s.AllocMBps = float64(p.memStats.TotalAlloc-p.lastAlloc) / 1024 / 1024 / elapsed.Seconds()
	s.GCCount = p.memStats.NumGC

	// PauseNs is a circular buffer of the last 256 pauses.
	start := p.lastGCCount
	if s.GCCount-start > 256 {
		start = s.GCCount - 256
	}
	for i := start; i < s.GCCount; i++ {
		s.MaxPauseUs = max(s.MaxPauseUs, p.memStats.PauseNs[i%256]/1000)
	}
	p.lastGCCount = s.GCCount
	p.lastAlloc = p.memStats.TotalAlloc
	return s
}
