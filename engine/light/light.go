package light

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// LightType identifies the kind of light source.
type LightType int

const (
	// LightTypeDirectional represents a light with no position, only direction.
	// The moon and the warm fill are directional.
	LightTypeDirectional LightType = iota

	// LightTypePoint represents a light that emits in all directions from a position and
	// attenuates with distance up to a configurable range.
	LightTypePoint

	// LightTypeSpot represents a light that emits in a cone from a position towards a target.
	LightTypeSpot
)

func (t LightType) String() string {
	switch t {
	case LightTypeDirectional:
		return "directional"
	case LightTypePoint:
		return "point"
	case LightTypeSpot:
		return "spot"
	}
	return "unknown"
}

// lightImpl is the implementation of the Light interface.
type lightImpl struct {
	name         string
	lightType    LightType
	position     mgl32.Vec3
	target       mgl32.Vec3
	color        mgl32.Vec3
	intensity    float32
	lightRange   float32
	decay        float32
	innerCone    float32 // stored as cos(angle in radians)
	outerCone    float32 // stored as cos(angle in radians)
	enabled      bool
	castsShadows bool
}

// Light is a light source of the scene.
//
// Directional and spot lights aim from their position at a target point, so their direction is
// always derived as normalize(target - position). Type-specific properties (cone angles for spot
// lights, range and decay for point and spot lights) are ignored by the shaders for other types.
type Light interface {
	// Name returns a label used in logs.
	Name() string

	// Type returns the kind of light source.
	//
	// Returns:
	//   - LightType: the light type (directional, point, or spot)
	Type() LightType

	// Position returns the world-space position of the light.
	Position() mgl32.Vec3

	// Target returns the point directional and spot lights aim at.
	Target() mgl32.Vec3

	// Direction returns the normalized direction from position to target.
	//
	// Returns:
	//   - mgl32.Vec3: the unit direction, or straight down when position equals target
	Direction() mgl32.Vec3

	// Color returns the linear RGB color of the light.
	Color() mgl32.Vec3

	// Intensity returns the scalar intensity multiplier.
	Intensity() float32

	// Range returns the distance at which point and spot lights reach zero. 0 means unbounded.
	Range() float32

	// Decay returns the distance attenuation exponent of point and spot lights.
	Decay() float32

	// InnerCone returns the cosine of the spot cone's full-intensity half-angle.
	InnerCone() float32

	// OuterCone returns the cosine of the spot cone's half-angle.
	OuterCone() float32

	// Enabled returns whether this light is active for rendering.
	// Disabled lights are skipped during GPU buffer marshaling.
	Enabled() bool

	// CastsShadows returns whether this light renders a shadow map.
	CastsShadows() bool

	// SetPosition moves the light.
	SetPosition(position mgl32.Vec3)

	// LookAt aims the light at a world-space point.
	//
	// Parameters:
	//   - target: the point to aim at
	LookAt(target mgl32.Vec3)

	// SetIntensity sets the intensity multiplier.
	SetIntensity(intensity float32)

	// SetEnabled enables or disables the light.
	SetEnabled(enabled bool)
}

var _ Light = &lightImpl{}

// NewLight creates a new Light of the given type configured with the provided options.
// Defaults: white, intensity 1, aimed at the origin, decay 2, no range limit and a spot cone of
// 60 degrees without penumbra.
//
// Parameters:
//   - lightType: the kind of light
//   - opts: variadic list of LightBuilderOption functions
//
// Returns:
//   - Light: the new light
func NewLight(lightType LightType, opts ...LightBuilderOption) Light {
	l := &lightImpl{
		lightType:  lightType,
		position:   mgl32.Vec3{0, 1, 0},
		color:      mgl32.Vec3{1, 1, 1},
		intensity:  1.0,
		decay:      2.0,
		innerCone:  cosRad(math.Pi / 3),
		outerCone:  cosRad(math.Pi / 3),
		enabled:    true,
		lightRange: 0,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.name == "" {
		l.name = lightType.String()
	}
	return l
}

func (l *lightImpl) Name() string {
	return l.name
}

func (l *lightImpl) Type() LightType {
	return l.lightType
}

func (l *lightImpl) Position() mgl32.Vec3 {
	return l.position
}

func (l *lightImpl) Target() mgl32.Vec3 {
	return l.target
}

func (l *lightImpl) Direction() mgl32.Vec3 {
	d := l.target.Sub(l.position)
	if d.Len() < 1e-6 {
		return mgl32.Vec3{0, -1, 0}
	}
	return d.Normalize()
}

func (l *lightImpl) Color() mgl32.Vec3 {
	return l.color
}

func (l *lightImpl) Intensity() float32 {
	return l.intensity
}

func (l *lightImpl) Range() float32 {
	return l.lightRange
}

func (l *lightImpl) Decay() float32 {
	return l.decay
}

func (l *lightImpl) InnerCone() float32 {
	return l.innerCone
}

func (l *lightImpl) OuterCone() float32 {
	return l.outerCone
}

func (l *lightImpl) Enabled() bool {
	return l.enabled
}

func (l *lightImpl) CastsShadows() bool {
	return l.castsShadows
}

func (l *lightImpl) SetPosition(position mgl32.Vec3) {
	l.position = position
}

func (l *lightImpl) LookAt(target mgl32.Vec3) {
	l.target = target
}

func (l *lightImpl) SetIntensity(intensity float32) {
	l.intensity = intensity
}

func (l *lightImpl) SetEnabled(enabled bool) {
	l.enabled = enabled
}

func cosRad(rad float64) float32 {
	return float32(math.Cos(rad))
}
