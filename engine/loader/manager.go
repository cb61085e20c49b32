package loader

import (
	"sync"
	"time"
)

// DefaultEndDelay is how long after every item settles the manager reports the ended state.
const DefaultEndDelay = 500 * time.Millisecond

// Progress is a snapshot of the loading manager counters.
type Progress struct {
	// Item is the asset that just settled.
	Item string
	// Loaded counts settled items, failures included.
	Loaded int
	// Total counts started items.
	Total int
	// Failed counts items that settled with an error.
	Failed int
}

// Ratio returns Loaded/Total, or 1 when nothing was started.
func (p Progress) Ratio() float64 {
	if p.Total == 0 {
		return 1
	}
	return float64(p.Loaded) / float64(p.Total)
}

// LoadingManager tracks a batch of asset loads.
// Every started item must end exactly once; a failed item still counts as settled. When all started
// items have settled the load handler runs once, and the ended handler runs once after the end delay.
type LoadingManager struct {
	mu *sync.Mutex

	total  int
	loaded int
	failed int
	holds  int

	onProgress func(Progress)
	onLoad     func(Progress)
	onEnded    func()
	endDelay   time.Duration

	loadFired bool
	ended     bool
	endTimer  *time.Timer
	endedCh   chan struct{}
}

// NewLoadingManager creates a LoadingManager with the given options.
//
// Parameters:
//   - options: handlers and the end delay
//
// Returns:
//   - *LoadingManager: an empty manager
func NewLoadingManager(options ...LoadingManagerOption) *LoadingManager {
	m := &LoadingManager{
		mu:       &sync.Mutex{},
		endDelay: DefaultEndDelay,
		endedCh:  make(chan struct{}),
	}
	for _, option := range options {
		option(m)
	}
	return m
}

// ItemStart registers a new pending item.
func (m *LoadingManager) ItemStart(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.total++
}

// ItemEnd settles a pending item and fires the progress handler. The load handler fires when this
// was the last pending item.
//
// Parameters:
//   - name: the asset that settled
//   - err: the load error, nil on success
func (m *LoadingManager) ItemEnd(name string, err error) {
	m.mu.Lock()
	if m.loaded >= m.total {
		m.mu.Unlock()
		return
	}
	m.loaded++
	if err != nil {
		m.failed++
	}
	p := m.snapshot(name)
	onProgress := m.onProgress
	onLoad := m.settleLocked()
	m.mu.Unlock()

	if onProgress != nil {
		onProgress(p)
	}
	if onLoad != nil {
		onLoad(p)
	}
}

// Hold defers the load handler until the matching Release, so a batch of items can be started
// without an early item completing the batch on its own.
func (m *LoadingManager) Hold() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.holds++
}

// Release ends a Hold. If every started item has already settled the load handler fires now.
func (m *LoadingManager) Release() {
	m.mu.Lock()
	if m.holds == 0 {
		m.mu.Unlock()
		return
	}
	m.holds--
	p := m.snapshot("")
	onLoad := m.settleLocked()
	m.mu.Unlock()

	if onLoad != nil {
		onLoad(p)
	}
}

// settleLocked arms the end timer once every item has settled and no hold is active.
// It returns the load handler to call, or nil.
func (m *LoadingManager) settleLocked() func(Progress) {
	if m.loadFired || m.holds > 0 || m.loaded < m.total {
		return nil
	}
	m.loadFired = true
	m.endTimer = time.AfterFunc(m.endDelay, m.end)
	if m.onLoad == nil {
		return nil
	}
	return m.onLoad
}

func (m *LoadingManager) end() {
	m.mu.Lock()
	if m.ended {
		m.mu.Unlock()
		return
	}
	m.ended = true
	close(m.endedCh)
	onEnded := m.onEnded
	m.mu.Unlock()

	if onEnded != nil {
		onEnded()
	}
}

// Progress returns the current counters.
func (m *LoadingManager) Progress() Progress {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot("")
}

// Ended reports whether the ended state has been reached.
func (m *LoadingManager) Ended() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ended
}

// EndedChan returns a channel closed when the ended state is reached.
func (m *LoadingManager) EndedChan() <-chan struct{} {
	return m.endedCh
}

// Stop cancels a pending end timer.
func (m *LoadingManager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.endTimer != nil {
		m.endTimer.Stop()
	}
}

func (m *LoadingManager) snapshot(item string) Progress {
	return Progress{Item: item, Loaded: m.loaded, Total: m.total, Failed: m.failed}
}
