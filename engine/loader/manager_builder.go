package loader

import "time"

// LoadingManagerOption is a function that configures a LoadingManager during construction.
type LoadingManagerOption func(*LoadingManager)

// WithProgressHandler sets the function called after every settled item.
// It runs on the goroutine that settled the item.
//
// Parameters:
//   - fn: receives the counters after the item settled
//
// Returns:
//   - LoadingManagerOption: a function that applies the handler to a LoadingManager
func WithProgressHandler(fn func(Progress)) LoadingManagerOption {
	return func(m *LoadingManager) {
		m.onProgress = fn
	}
}

// WithLoadHandler sets the function called once when every started item has settled.
func WithLoadHandler(fn func(Progress)) LoadingManagerOption {
	return func(m *LoadingManager) {
		m.onLoad = fn
	}
}

// WithEndedHandler sets the function called once the end delay has passed after the load handler.
func WithEndedHandler(fn func()) LoadingManagerOption {
	return func(m *LoadingManager) {
		m.onEnded = fn
	}
}

// WithEndDelay overrides DefaultEndDelay. Negative values are treated as zero.
func WithEndDelay(d time.Duration) LoadingManagerOption {
	return func(m *LoadingManager) {
		m.endDelay = max(d, 0)
	}
}
