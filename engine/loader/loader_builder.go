package loader

import "go.uber.org/zap"

// LoaderBuilderOption is a function that configures a Loader instance during construction.
type LoaderBuilderOption func(*loader)

// WithRoot sets the directory asset paths resolve against.
//
// Parameters:
//   - root: the asset root directory
//
// Returns:
//   - LoaderBuilderOption: a function that applies the root option to a loader
func WithRoot(root string) LoaderBuilderOption {
	return func(l *loader) {
		l.root = root
	}
}

// WithWorkers sets the number of decode workers. Values below 1 are raised to 1.
func WithWorkers(n int) LoaderBuilderOption {
	return func(l *loader) {
		l.workers = max(n, 1)
	}
}

// WithMaxTextureSize downscales embedded model textures larger than size on their longer side.
func WithMaxTextureSize(size int) LoaderBuilderOption {
	return func(l *loader) {
		l.maxTextureSize = size
	}
}

// WithManager sets the LoadingManager that tracks every load.
func WithManager(m *LoadingManager) LoaderBuilderOption {
	return func(l *loader) {
		l.manager = m
	}
}

// WithLogger sets the logger used for load failures and timings.
func WithLogger(logger *zap.Logger) LoaderBuilderOption {
	return func(l *loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}
