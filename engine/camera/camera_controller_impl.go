package camera

import (
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// dampingRate is the frame rate the damping factor is expressed at.
const dampingRate = 60.0

// orbitController is the implementation of CameraController.
// The offset from the target is kept in spherical coordinates: radius, azimuth around +Y
// measured from +Z, and polar angle measured from +Y.
type orbitController struct {
	mu *sync.Mutex

	position mgl32.Vec3
	target   mgl32.Vec3

	radius  float32
	azimuth float32
	polar   float32

	// pending motion, consumed by Update
	deltaAzimuth float32
	deltaPolar   float32
	scale        float32

	minRadius float32
	maxRadius float32
	minPolar  float32
	maxPolar  float32

	dampingEnabled bool
	dampingFactor  float32
	rotateSpeed    float32
	zoomSpeed      float32
}

var _ CameraController = &orbitController{}

// NewCameraController creates an orbit controller around the origin with sensible defaults.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the newly created controller
func NewCameraController(options ...CameraControllerOption) CameraController {
	cc := &orbitController{
		mu:            &sync.Mutex{},
		radius:        5,
		polar:         math.Pi / 2,
		scale:         1,
		minRadius:     0,
		maxRadius:     float32(math.Inf(1)),
		minPolar:      0,
		maxPolar:      math.Pi,
		dampingFactor: 0.05,
		rotateSpeed:   1,
		zoomSpeed:     1,
	}
	for _, option := range options {
		option(cc)
	}
	cc.clamp()
	cc.updatePosition()
	return cc
}

// updatePosition recomputes position from the spherical coordinates. Caller must hold the mutex.
func (cc *orbitController) updatePosition() {
	sinPolar, cosPolar := math.Sincos(float64(cc.polar))
	sinAzim, cosAzim := math.Sincos(float64(cc.azimuth))
	offset := mgl32.Vec3{
		cc.radius * float32(sinPolar*sinAzim),
		cc.radius * float32(cosPolar),
		cc.radius * float32(sinPolar*cosAzim),
	}
	cc.position = cc.target.Add(offset)
}

// setFromOffset derives the spherical coordinates from an offset to the target.
// Caller must hold the mutex.
func (cc *orbitController) setFromOffset(offset mgl32.Vec3) {
	cc.radius = offset.Len()
	if cc.radius < 1e-6 {
		cc.azimuth, cc.polar = 0, 0
		return
	}
	cc.azimuth = float32(math.Atan2(float64(offset.X()), float64(offset.Z())))
	cc.polar = float32(math.Acos(float64(mgl32.Clamp(offset.Y()/cc.radius, -1, 1))))
}

// clamp enforces the radius and polar bounds. Caller must hold the mutex.
func (cc *orbitController) clamp() {
	cc.polar = mgl32.Clamp(cc.polar, max(cc.minPolar, 1e-6), min(cc.maxPolar, math.Pi-1e-6))
	cc.radius = mgl32.Clamp(cc.radius, cc.minRadius, cc.maxRadius)
}

func (cc *orbitController) Position() mgl32.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.position
}

func (cc *orbitController) Target() mgl32.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.target
}

func (cc *orbitController) SetTarget(target mgl32.Vec3) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.target = target
	cc.updatePosition()
}

func (cc *orbitController) SetPosition(position mgl32.Vec3) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.setFromOffset(position.Sub(cc.target))
	cc.position = position
}

func (cc *orbitController) Radius() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.radius
}

func (cc *orbitController) Azimuth() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.azimuth
}

func (cc *orbitController) Polar() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.polar
}

func (cc *orbitController) Rotate(dAzimuth, dPolar float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.deltaAzimuth += dAzimuth
	cc.deltaPolar += dPolar
}

func (cc *orbitController) Drag(dx, dy, viewportHeight float32) {
	if viewportHeight <= 0 {
		return
	}
	turn := 2 * math.Pi * cc.rotateSpeed / viewportHeight
	cc.Rotate(-dx*turn, -dy*turn)
}

func (cc *orbitController) Zoom(steps float32) {
	if steps == 0 {
		return
	}
	step := float32(math.Pow(0.95, float64(cc.zoomSpeed*abs(steps))))
	cc.mu.Lock()
	defer cc.mu.Unlock()
	if steps > 0 {
		cc.scale *= step
	} else {
		cc.scale /= step
	}
}

func (cc *orbitController) Update(dt float64) {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	if cc.dampingEnabled {
		k := float32(1 - math.Pow(float64(1-cc.dampingFactor), dt*dampingRate))
		cc.azimuth += cc.deltaAzimuth * k
		cc.polar += cc.deltaPolar * k
		cc.deltaAzimuth *= 1 - k
		cc.deltaPolar *= 1 - k
	} else {
		cc.azimuth += cc.deltaAzimuth
		cc.polar += cc.deltaPolar
		cc.deltaAzimuth, cc.deltaPolar = 0, 0
	}
	cc.radius *= cc.scale
	cc.scale = 1

	cc.clamp()
	cc.updatePosition()
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
