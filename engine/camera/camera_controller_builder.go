package camera

import "github.com/go-gl/mathgl/mgl32"

// CameraControllerOption is a functional option for configuring a CameraController.
type CameraControllerOption func(*orbitController)

// WithTarget sets the orbit pivot.
//
// Parameters:
//   - target: world-space pivot position
//
// Returns:
//   - CameraControllerOption: functional option to set the target position
func WithTarget(target mgl32.Vec3) CameraControllerOption {
	return func(cc *orbitController) {
		cc.target = target
	}
}

// WithStartPosition places the camera at a world-space position. The spherical coordinates are
// derived relative to the target, so WithTarget must precede this option.
//
// Parameters:
//   - position: world-space camera position
//
// Returns:
//   - CameraControllerOption: functional option to set the start position
func WithStartPosition(position mgl32.Vec3) CameraControllerOption {
	return func(cc *orbitController) {
		cc.setFromOffset(position.Sub(cc.target))
	}
}

// WithRadiusBounds sets the minimum and maximum distance from the target.
//
// Parameters:
//   - min: minimum distance
//   - max: maximum distance
//
// Returns:
//   - CameraControllerOption: functional option to set radius bounds
func WithRadiusBounds(min, max float32) CameraControllerOption {
	return func(cc *orbitController) {
		cc.minRadius = min
		cc.maxRadius = max
	}
}

// WithPolarBounds sets the allowed polar angle range in radians, measured from +Y.
//
// Parameters:
//   - min: minimum polar angle
//   - max: maximum polar angle
//
// Returns:
//   - CameraControllerOption: functional option to set polar bounds
func WithPolarBounds(min, max float32) CameraControllerOption {
	return func(cc *orbitController) {
		cc.minPolar = min
		cc.maxPolar = max
	}
}

// WithDamping enables inertia. Each update at 60 Hz applies the given fraction of the queued
// rotation; other frame rates are normalized to the same decay per second.
//
// Parameters:
//   - factor: damping factor in (0, 1]
//
// Returns:
//   - CameraControllerOption: functional option to enable damping
func WithDamping(factor float32) CameraControllerOption {
	return func(cc *orbitController) {
		cc.dampingEnabled = true
		cc.dampingFactor = mgl32.Clamp(factor, 1e-3, 1)
	}
}

// WithRotateSpeed scales the rotation produced by Drag.
func WithRotateSpeed(speed float32) CameraControllerOption {
	return func(cc *orbitController) {
		cc.rotateSpeed = speed
	}
}

// WithZoomSpeed scales the distance change produced by one Zoom step.
func WithZoomSpeed(speed float32) CameraControllerOption {
	return func(cc *orbitController) {
		cc.zoomSpeed = speed
	}
}
