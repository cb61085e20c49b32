package camera

import "github.com/go-gl/mathgl/mgl32"

// CameraController owns the positional state of a camera (position and target).
// The Camera reads from its controller and computes view/projection matrices.
//
// Input methods (Drag, Rotate, Zoom) only queue motion; it is applied, damped and
// clamped by Update, which the frame loop calls once per frame.
type CameraController interface {
	// Position returns the camera's world-space position.
	//
	// Returns:
	//   - mgl32.Vec3: world-space camera position
	Position() mgl32.Vec3

	// Target returns the orbit pivot the camera looks at.
	//
	// Returns:
	//   - mgl32.Vec3: world-space target position
	Target() mgl32.Vec3

	// SetTarget moves the pivot and recomputes position from the current spherical coordinates.
	//
	// Parameters:
	//   - target: world-space coordinates
	SetTarget(target mgl32.Vec3)

	// SetPosition places the camera and re-derives the spherical coordinates around the target.
	// Bounds are enforced on the next Update.
	//
	// Parameters:
	//   - position: world-space coordinates
	SetPosition(position mgl32.Vec3)

	// Radius returns the current distance from the target.
	Radius() float32

	// Azimuth returns the angle around the vertical axis, measured from +Z towards +X.
	Azimuth() float32

	// Polar returns the angle from the +Y axis.
	Polar() float32

	// Rotate queues an orbit by the given angles in radians.
	//
	// Parameters:
	//   - dAzimuth: change of the azimuth angle
	//   - dPolar: change of the polar angle
	Rotate(dAzimuth, dPolar float32)

	// Drag queues an orbit from a pointer drag. A drag across the full viewport height turns the
	// camera by one full revolution times the rotate speed.
	//
	// Parameters:
	//   - dx, dy: pointer movement in pixels
	//   - viewportHeight: the viewport height in pixels
	Drag(dx, dy, viewportHeight float32)

	// Zoom queues a change of distance. Positive steps move closer to the target.
	//
	// Parameters:
	//   - steps: scroll steps, typically the wheel's y offset
	Zoom(steps float32)

	// Update applies queued motion with damping, clamps the orbit to its bounds and recomputes the
	// position.
	//
	// Parameters:
	//   - dt: seconds since the previous update
	Update(dt float64)
}
