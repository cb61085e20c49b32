package stage

import "go.uber.org/zap"

// StageBuilderOption is a functional option used to configure a Stage during construction.
type StageBuilderOption func(*stage)

// WithLogger sets the logger used for residency events.
func WithLogger(logger *zap.Logger) StageBuilderOption {
	return func(s *stage) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithShadowMapSize sets the shadow map resolution the shadow uniform is computed for. It must
// match the renderer's shadow map.
//
// Parameters:
//   - size: the resolution in texels; values below 1 are ignored
//
// Returns:
//   - StageBuilderOption: a function that sets the shadow map size
func WithShadowMapSize(size int) StageBuilderOption {
	return func(s *stage) {
		if size > 0 {
			s.shadowMapSize = size
		}
	}
}
