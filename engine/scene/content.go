package scene

import (
	"fmt"
	"math"

	"github.com/Carmen-Shannon/moonlit/common"
	"github.com/Carmen-Shannon/moonlit/engine/camera"
	"github.com/Carmen-Shannon/moonlit/engine/config"
	"github.com/Carmen-Shannon/moonlit/engine/geometry"
	"github.com/Carmen-Shannon/moonlit/engine/light"
	"github.com/Carmen-Shannon/moonlit/engine/placement"
	"github.com/go-gl/mathgl/mgl32"
)

// Fixed scene geometry.
const (
	floorSize     = 40
	floorSegments = 100
	floorY        = -2.4
	floorRepeat   = 8

	pedestalTop    = 1.6
	pedestalBottom = 2.0
	pedestalHeight = 2.4
	pedestalRadial = 64
	pedestalY      = -1.2

	mistTop    = 2.2
	mistBottom = 2.5
	mistHeight = 1.5
	mistRadial = 32
	mistY      = -1.8
)

var mistColor = mgl32.Vec3{0.1, 0.2, 0.4}

// Build creates the scene described by cfg: the static meshes, the procedurally placed bushes and
// fireflies, the lights and the camera. Assets are not loaded here; see LoadAssets.
//
// Parameters:
//   - cfg: the process configuration
//   - rng: the placement random source
//
// Returns:
//   - *State: the scene, ready for the frame driver
//   - error: if a configured color cannot be parsed
func Build(cfg config.Config, rng placement.Source) (*State, error) {
	fogColor, err := common.HexColor(cfg.Scene.FogColor)
	if err != nil {
		return nil, fmt.Errorf("fog color: %w", err)
	}
	bushColor, err := common.HexColor(cfg.Scene.Bushes.Color)
	if err != nil {
		return nil, fmt.Errorf("bush color: %w", err)
	}
	fireflyColor, err := common.HexColor(cfg.Scene.Fireflies.Color)
	if err != nil {
		return nil, fmt.Errorf("firefly color: %w", err)
	}

	st := NewState()
	st.Fog = Fog{Color: fogColor, Density: cfg.Scene.FogDensity}
	st.Exposure = cfg.Renderer.Exposure
	st.Environment = Environment{Intensity: cfg.Scene.EnvironmentIntensity}

	st.Floor = Object{
		Name:  "floor",
		Mesh:  geometry.Plane(floorSize, floorSize, floorSegments, floorSegments),
		Model: mgl32.Translate3D(0, floorY, 0).Mul4(mgl32.HomogRotate3DX(-math.Pi / 2)),
		Surface: Surface{
			Color:             mgl32.Vec3{1, 1, 1},
			Roughness:         0.8,
			Metalness:         0.1,
			DisplacementScale: 0.3,
			Repeat:            [2]float32{floorRepeat, floorRepeat},
			ReceiveShadow:     true,
		},
	}

	st.Pedestal = Object{
		Name:  "pedestal",
		Mesh:  geometry.Cylinder(pedestalTop, pedestalBottom, pedestalHeight, pedestalRadial, 1, false),
		Model: mgl32.Translate3D(0, pedestalY, 0),
		Surface: Surface{
			Color:         mgl32.Vec3{1, 1, 1},
			Roughness:     0.4,
			Metalness:     0.1,
			Repeat:        [2]float32{1, 1},
			CastShadow:    true,
			ReceiveShadow: true,
		},
	}

	bushes := cfg.Scene.Bushes
	st.Bushes = Bushes{
		Mesh: geometry.Icosahedron(1),
		Instances: placement.NewInstanceBuffer(placement.GenerateInstances(bushes.Count, placement.InstanceParams{
			Ring:      placement.Ring{RadiusMin: bushes.Ring.RadiusMin, RadiusSpan: bushes.Ring.RadiusSpan},
			Y:         bushes.Y,
			ScaleMin:  bushes.ScaleMin,
			ScaleSpan: bushes.ScaleSpan,
		}, rng)),
		Surface: Surface{
			Color:         bushColor,
			Roughness:     0.8,
			Repeat:        [2]float32{1, 1},
			CastShadow:    true,
			ReceiveShadow: true,
			FlatShaded:    true,
		},
	}

	st.Mist = Mist{
		Mesh:  geometry.Cylinder(mistTop, mistBottom, mistHeight, mistRadial, 1, true),
		Model: mgl32.Translate3D(0, mistY, 0),
		Color: mistColor,
	}

	flies := cfg.Scene.Fireflies
	st.Fireflies = Fireflies{
		Buffer: placement.NewParticleBuffer(placement.GenerateParticles(flies.Count, placement.ParticleParams{
			Ring:      placement.Ring{RadiusMin: flies.Ring.RadiusMin, RadiusSpan: flies.Ring.RadiusSpan},
			HeightMax: flies.HeightMax,
		}, rng)),
		Size:    flies.Size,
		Color:   fireflyColor,
		Opacity: flies.Opacity,
	}

	st.Lights = Lights()
	st.Camera = NewCamera(cfg.Camera, cfg.Controls, float32(cfg.Window.Width)/float32(cfg.Window.Height))
	return st, nil
}

// Lights returns the moon, the warm fill, the cyan rim spot and the two cyan hero lights at the
// statue's feet. Only the moon casts shadows.
func Lights() []light.Light {
	cyan := common.MustHexColor("#00ffff")
	rim := light.NewLight(light.LightTypeSpot,
		light.WithName("rim"),
		light.WithColor(cyan),
		light.WithIntensity(2),
		light.WithPosition(mgl32.Vec3{0, 5, -5}),
		light.WithSpotCone(math.Pi/3, 0),
	)
	rim.LookAt(mgl32.Vec3{0, 2, 0})

	return []light.Light{
		light.NewLight(light.LightTypeDirectional,
			light.WithName("moon"),
			light.WithColor(common.MustHexColor("#6688ff")),
			light.WithIntensity(0.6),
			light.WithPosition(mgl32.Vec3{5, 10, -5}),
			light.WithCastsShadows(true),
		),
		light.NewLight(light.LightTypeDirectional,
			light.WithName("fill"),
			light.WithColor(common.MustHexColor("#ffaa33")),
			light.WithIntensity(0.1),
			light.WithPosition(mgl32.Vec3{-5, 0, 5}),
		),
		rim,
		light.NewLight(light.LightTypePoint,
			light.WithName("hero-front"),
			light.WithColor(cyan),
			light.WithIntensity(2),
			light.WithRange(6),
			light.WithPosition(mgl32.Vec3{0, -0.5, 0.5}),
		),
		light.NewLight(light.LightTypePoint,
			light.WithName("hero-back"),
			light.WithColor(cyan),
			light.WithIntensity(2),
			light.WithRange(6),
			light.WithPosition(mgl32.Vec3{0, -0.5, -1}),
		),
	}
}

// NewCamera builds the perspective camera with its damped orbit controller.
//
// Parameters:
//   - cam: lens and start position
//   - controls: orbit target, bounds and damping
//   - aspect: the initial viewport aspect
//
// Returns:
//   - camera.Camera: the camera
func NewCamera(cam config.CameraConfig, controls config.ControlsConfig, aspect float32) camera.Camera {
	opts := []camera.CameraControllerOption{
		camera.WithTarget(controls.Target),
		camera.WithStartPosition(cam.Position),
		camera.WithRadiusBounds(controls.MinDistance, controls.MaxDistance),
		camera.WithPolarBounds(0, controls.MaxPolarAngle),
		camera.WithRotateSpeed(controls.RotateSpeed),
		camera.WithZoomSpeed(controls.ZoomSpeed),
	}
	if controls.Damping > 0 {
		opts = append(opts, camera.WithDamping(controls.Damping))
	}
	ctrl := camera.NewCameraController(opts...)
	return camera.NewCamera(
		camera.WithFov(mgl32.DegToRad(cam.FovDegrees)),
		camera.WithAspect(aspect),
		camera.WithClip(cam.Near, cam.Far),
		camera.WithController(ctrl),
	)
}
