package postfx

import (
	"math"
	"sync/atomic"

	"github.com/Carmen-Shannon/moonlit/engine/config"
	"github.com/Carmen-Shannon/moonlit/engine/renderer"
)

// Pass is one step of a composed frame.
type Pass interface {
	// Name identifies the pass in errors and logs.
	Name() string

	// Enabled reports whether the composer runs the pass this frame.
	Enabled() bool

	// Render records the pass into the current frame.
	//
	// Parameters:
	//   - device: the renderer the frame is being recorded on
	//
	// Returns:
	//   - error: if recording fails
	Render(device Device) error
}

// Scene is what the render pass draws: it uploads the state, then records the shadow and scene
// passes.
type Scene interface {
	Prepare() error
	Record() error
}

// RenderPass draws the scene into the HDR target.
type RenderPass struct {
	scene Scene
}

var _ Pass = &RenderPass{}

// NewRenderPass creates the pass that draws scene.
func NewRenderPass(scene Scene) *RenderPass {
	return &RenderPass{scene: scene}
}

func (p *RenderPass) Name() string { return "render" }

func (p *RenderPass) Enabled() bool { return true }

func (p *RenderPass) Render(Device) error {
	if err := p.scene.Prepare(); err != nil {
		return err
	}
	return p.scene.Record()
}

// bloomSmoothWidth is the luminance band over which the bright pass fades in above the threshold.
const bloomSmoothWidth = 0.01

// BloomPass adds a blurred copy of the bright parts of the scene back onto it.
type BloomPass struct {
	settings renderer.BloomSettings
	enabled  atomic.Bool
}

var _ Pass = &BloomPass{}

// NewBloomPass creates a bloom pass from its configuration.
//
// Parameters:
//   - cfg: strength, blur radius and luminance threshold
//
// Returns:
//   - *BloomPass: the pass, enabled when cfg.Enabled is set
func NewBloomPass(cfg config.BloomConfig) *BloomPass {
	p := &BloomPass{settings: renderer.BloomSettings{
		Threshold:   cfg.Threshold,
		SmoothWidth: bloomSmoothWidth,
		Strength:    cfg.Strength,
		Weights:     GaussianWeights(cfg.Radius),
	}}
	p.enabled.Store(cfg.Enabled)
	return p
}

func (p *BloomPass) Name() string { return "bloom" }

func (p *BloomPass) Enabled() bool { return p.enabled.Load() }

// SetEnabled turns the pass on or off from the next frame.
func (p *BloomPass) SetEnabled(enabled bool) { p.enabled.Store(enabled) }

// Settings returns the parameters handed to the renderer.
func (p *BloomPass) Settings() renderer.BloomSettings { return p.settings }

func (p *BloomPass) Render(device Device) error {
	return device.Bloom(p.settings)
}

// OutputPass tone maps the HDR target onto the swapchain. It always runs last.
type OutputPass struct {
	exposure func() float32
}

var _ Pass = &OutputPass{}

// NewOutputPass creates the tone-mapping pass.
//
// Parameters:
//   - exposure: read every frame; nil means an exposure of 1
//
// Returns:
//   - *OutputPass: the pass
func NewOutputPass(exposure func() float32) *OutputPass {
	if exposure == nil {
		exposure = func() float32 { return 1 }
	}
	return &OutputPass{exposure: exposure}
}

func (p *OutputPass) Name() string { return "output" }

func (p *OutputPass) Enabled() bool { return true }

func (p *OutputPass) Render(device Device) error {
	return device.Output(renderer.OutputSettings{Exposure: p.exposure()})
}

// blurTaps is the center tap plus the one-sided taps of the separable blur.
const blurTaps = len(renderer.BloomSettings{}.Weights)

// GaussianWeights returns the center and one-sided taps of a separable Gaussian blur whose
// standard deviation grows with radius. The taps are normalized so the center plus twice the
// one-sided taps sum to 1.
//
// Parameters:
//   - radius: the bloom radius; negative values are treated as 0
//
// Returns:
//   - [5]float32: weight of the center tap followed by the taps at distance 1 to 4
func GaussianWeights(radius float32) [blurTaps]float32 {
	sigma := 1 + 2*math.Max(float64(radius), 0)
	var raw [blurTaps]float64
	var total float64
	for k := range blurTaps {
		raw[k] = math.Exp(-float64(k*k) / (2 * sigma * sigma))
		if k == 0 {
			total += raw[k]
		} else {
			total += 2 * raw[k]
		}
	}

	var out [blurTaps]float32
	for k := range blurTaps {
		out[k] = float32(raw[k] / total)
	}
	return out
}
