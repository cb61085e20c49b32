package camera

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const maxPolar = math.Pi/2 - 0.02

func sceneController() CameraController {
	return NewCameraController(
		WithTarget(mgl32.Vec3{0, 2, 0}),
		WithStartPosition(mgl32.Vec3{3, 0.5, 6}),
		WithRadiusBounds(1.2, 10),
		WithPolarBounds(0, maxPolar),
		WithDamping(0.05),
	)
}

func TestStartPositionClampedToPolarBound(t *testing.T) {
	cc := sceneController()
	cc.Update(1.0 / 60)

	assert.LessOrEqual(t, cc.Polar(), float32(maxPolar)+1e-6)
	assert.InDelta(t, math.Sqrt(9+2.25+36), cc.Radius(), 1e-4)
	assert.InDelta(t, math.Atan2(3, 6), cc.Azimuth(), 1e-5)

	pos := cc.Position()
	assert.InDelta(t, cc.Radius(), pos.Sub(cc.Target()).Len(), 1e-4)
	assert.Greater(t, pos.Y(), float32(2.0))
}

func TestZoomClampsDistance(t *testing.T) {
	cc := sceneController()
	for range 200 {
		cc.Zoom(1)
		cc.Update(1.0 / 60)
	}
	assert.InDelta(t, 1.2, cc.Radius(), 1e-5)

	for range 200 {
		cc.Zoom(-1)
		cc.Update(1.0 / 60)
	}
	assert.InDelta(t, 10, cc.Radius(), 1e-5)
}

func TestDampingConvergesToRequestedOrbit(t *testing.T) {
	cc := NewCameraController(WithDamping(0.05))
	start := cc.Azimuth()

	cc.Rotate(1, 0)
	cc.Update(1.0 / 60)
	assert.InDelta(t, start+0.05, cc.Azimuth(), 1e-5)

	for range 600 {
		cc.Update(1.0 / 60)
	}
	assert.InDelta(t, start+1, cc.Azimuth(), 1e-3)
}

func TestDampingIsFrameRateIndependent(t *testing.T) {
	fast := NewCameraController(WithDamping(0.05))
	slow := NewCameraController(WithDamping(0.05))
	fast.Rotate(1, 0)
	slow.Rotate(1, 0)

	for range 120 {
		fast.Update(1.0 / 120)
	}
	for range 30 {
		slow.Update(1.0 / 30)
	}
	assert.InDelta(t, fast.Azimuth(), slow.Azimuth(), 1e-4)
}

func TestUndampedRotationIsImmediate(t *testing.T) {
	cc := NewCameraController()
	cc.Rotate(0.5, 0.25)
	cc.Update(0)
	assert.InDelta(t, 0.5, cc.Azimuth(), 1e-6)
	assert.InDelta(t, math.Pi/2+0.25, cc.Polar(), 1e-6)
}

func TestDragDirection(t *testing.T) {
	cc := NewCameraController()
	cc.Drag(100, 0, 800)
	cc.Update(0)
	assert.InDelta(t, -2*math.Pi*100/800, cc.Azimuth(), 1e-5)

	cc.Drag(0, 0, 0)
	cc.Update(0)
	assert.InDelta(t, -2*math.Pi*100/800, cc.Azimuth(), 1e-5)
}

func TestCameraResizeUpdatesProjection(t *testing.T) {
	fov := mgl32.DegToRad(75)
	cam := NewCamera(WithFov(fov), WithClip(0.1, 100), WithController(sceneController()))

	cam.SetAspect(800.0 / 600.0)
	assert.InDelta(t, 800.0/600.0, cam.Aspect(), 1e-6)

	cam.SetAspect(1920.0 / 1080.0)
	assert.InDelta(t, 1920.0/1080.0, cam.Aspect(), 1e-6)

	f := 1 / math.Tan(float64(fov)/2)
	proj := cam.ProjectionMatrix()
	assert.InDelta(t, f/(1920.0/1080.0), proj[0], 1e-5)
	assert.InDelta(t, f, proj[5], 1e-5)

	cam.SetAspect(0)
	assert.InDelta(t, 1920.0/1080.0, cam.Aspect(), 1e-6)
}

func TestCameraLooksAtTarget(t *testing.T) {
	cam := NewCamera(WithFov(mgl32.DegToRad(75)), WithController(sceneController()))
	cam.Update(1.0 / 60)

	clip := cam.ViewProjectionMatrix().Mul4x1(mgl32.Vec4{0, 2, 0, 1})
	require.Greater(t, clip.W(), float32(0))
	assert.InDelta(t, 0, clip.X()/clip.W(), 1e-4)
	assert.InDelta(t, 0, clip.Y()/clip.W(), 1e-4)
	depth := clip.Z() / clip.W()
	assert.True(t, depth > 0 && depth < 1, "depth %v outside [0, 1]", depth)
}

func TestCameraUniformLayout(t *testing.T) {
	cam := NewCamera(WithController(sceneController()))
	u := cam.Uniform()
	assert.Equal(t, 208, u.Size())

	buf := u.Marshal()
	require.Len(t, buf, 208)
	pos := cam.Position()
	assert.Equal(t, math.Float32bits(pos.X()), le32(buf[192:]))
	assert.Equal(t, math.Float32bits(pos.Z()), le32(buf[200:]))
}

func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
