// Package config holds every tunable of the moonlit scene. Default returns the scene as authored;
// Load overlays a YAML file on top of it and FromArgs applies the command line last.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full configuration of a moonlit process.
type Config struct {
	Window   WindowConfig   `yaml:"window"`
	Renderer RendererConfig `yaml:"renderer"`
	Camera   CameraConfig   `yaml:"camera"`
	Controls ControlsConfig `yaml:"controls"`
	Scene    SceneConfig    `yaml:"scene"`
	Bloom    BloomConfig    `yaml:"bloom"`
	Audio    AudioConfig    `yaml:"audio"`
	Assets   AssetsConfig   `yaml:"assets"`
	Log      LogConfig      `yaml:"log"`
	Profile  bool           `yaml:"profile"`
}

// WindowConfig describes the host window.
type WindowConfig struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	// MaxFPS caps the frame rate when VSync is off. 0 disables the cap.
	MaxFPS float64 `yaml:"max_fps"`
}

// RendererConfig describes the GPU output.
type RendererConfig struct {
	VSync          bool    `yaml:"vsync"`
	MSAA           int     `yaml:"msaa"`
	MaxPixelRatio  float32 `yaml:"max_pixel_ratio"`
	Exposure       float32 `yaml:"exposure"`
	ShadowMapSize  int     `yaml:"shadow_map_size"`
	FallbackDevice bool    `yaml:"fallback_device"`
}

// CameraConfig describes the perspective camera.
type CameraConfig struct {
	// FovDegrees is the vertical field of view.
	FovDegrees float32    `yaml:"fov_degrees"`
	Near       float32    `yaml:"near"`
	Far        float32    `yaml:"far"`
	Position   [3]float32 `yaml:"position"`
}

// ControlsConfig describes the orbit controls.
type ControlsConfig struct {
	Damping     float32    `yaml:"damping"`
	Target      [3]float32 `yaml:"target"`
	MinDistance float32    `yaml:"min_distance"`
	MaxDistance float32    `yaml:"max_distance"`
	// MaxPolarAngle is measured from +Y in radians.
	MaxPolarAngle float32 `yaml:"max_polar_angle"`
	RotateSpeed   float32 `yaml:"rotate_speed"`
	ZoomSpeed     float32 `yaml:"zoom_speed"`
}

// RingConfig is an annulus on the ground plane.
type RingConfig struct {
	RadiusMin  float32 `yaml:"radius_min"`
	RadiusSpan float32 `yaml:"radius_span"`
}

// BushConfig describes the instanced bush ring.
type BushConfig struct {
	Count     int        `yaml:"count"`
	Ring      RingConfig `yaml:"ring"`
	Y         float32    `yaml:"y"`
	ScaleMin  float32    `yaml:"scale_min"`
	ScaleSpan float32    `yaml:"scale_span"`
	Color     string     `yaml:"color"`
}

// FireflyConfig describes the firefly cloud.
type FireflyConfig struct {
	Count     int        `yaml:"count"`
	Ring      RingConfig `yaml:"ring"`
	HeightMax float32    `yaml:"height_max"`
	Size      float32    `yaml:"size"`
	Color     string     `yaml:"color"`
	Opacity   float32    `yaml:"opacity"`
}

// SceneConfig describes the procedural and atmospheric content.
type SceneConfig struct {
	// Seed fixes the placement layout. 0 picks a random seed.
	Seed                 uint64        `yaml:"seed"`
	FogColor             string        `yaml:"fog_color"`
	FogDensity           float32       `yaml:"fog_density"`
	EnvironmentIntensity float32       `yaml:"environment_intensity"`
	Bushes               BushConfig    `yaml:"bushes"`
	Fireflies            FireflyConfig `yaml:"fireflies"`
}

// BloomConfig describes the bloom pass.
type BloomConfig struct {
	Enabled   bool    `yaml:"enabled"`
	Strength  float32 `yaml:"strength"`
	Radius    float32 `yaml:"radius"`
	Threshold float32 `yaml:"threshold"`
}

// AudioConfig describes the background track.
type AudioConfig struct {
	Enabled bool    `yaml:"enabled"`
	Loop    bool    `yaml:"loop"`
	Volume  float64 `yaml:"volume"`
}

// AssetsConfig names the asset files relative to Root.
type AssetsConfig struct {
	Root            string `yaml:"root"`
	Workers         int    `yaml:"workers"`
	MaxTextureSize  int    `yaml:"max_texture_size"`
	Statue          string `yaml:"statue"`
	Environment     string `yaml:"environment"`
	FloorColor      string `yaml:"floor_color"`
	FloorNormal     string `yaml:"floor_normal"`
	FloorDisplace   string `yaml:"floor_displacement"`
	PedestalColor   string `yaml:"pedestal_color"`
	PedestalNormal  string `yaml:"pedestal_normal"`
	BackgroundTrack string `yaml:"background_track"`
}

// LogConfig selects the logger.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns the configuration of the scene as authored.
func Default() Config {
	return Config{
		Window: WindowConfig{
			Title:  "moonlit",
			Width:  1280,
			Height: 720,
			MaxFPS: 0,
		},
		Renderer: RendererConfig{
			VSync:         true,
			MSAA:          4,
			MaxPixelRatio: 2,
			Exposure:      0.8,
			ShadowMapSize: 2048,
		},
		Camera: CameraConfig{
			FovDegrees: 75,
			Near:       0.1,
			Far:        100,
			Position:   [3]float32{3, 0.5, 6},
		},
		Controls: ControlsConfig{
			Damping:       0.05,
			Target:        [3]float32{0, 2, 0},
			MinDistance:   1.2,
			MaxDistance:   10,
			MaxPolarAngle: math.Pi/2 - 0.02,
			RotateSpeed:   1,
			ZoomSpeed:     1,
		},
		Scene: SceneConfig{
			FogColor:             "#020208",
			FogDensity:           0.02,
			EnvironmentIntensity: 0.16,
			Bushes: BushConfig{
				Count:     80,
				Ring:      RingConfig{RadiusMin: 12, RadiusSpan: 8},
				Y:         -2.2,
				ScaleMin:  1,
				ScaleSpan: 1.5,
				Color:     "#2d5a2d",
			},
			Fireflies: FireflyConfig{
				Count:     500,
				Ring:      RingConfig{RadiusMin: 4, RadiusSpan: 11},
				HeightMax: 8,
				Size:      0.1,
				Color:     "#aa5500",
				Opacity:   0.6,
			},
		},
		Bloom: BloomConfig{
			Enabled:   true,
			Strength:  0.3,
			Radius:    0.5,
			Threshold: 0.2,
		},
		Audio: AudioConfig{
			Enabled: true,
			Loop:    true,
			Volume:  0.5,
		},
		Assets: AssetsConfig{
			Root:            "static",
			Workers:         4,
			MaxTextureSize:  4096,
			Statue:          "models/statue_of_a_hunter.glb",
			Environment:     "textures/environmentMaps/night_forest.hdr",
			FloorColor:      "textures/floor/color.jpg",
			FloorNormal:     "textures/floor/normal.jpg",
			FloorDisplace:   "textures/floor/displacement.jpg",
			PedestalColor:   "textures/pedestal/color.jpg",
			PedestalNormal:  "textures/pedestal/normal.jpg",
			BackgroundTrack: "sounds/background.mp3",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads a YAML file and overlays it on Default. Keys missing from the file keep their default.
//
// Parameters:
//   - path: the YAML file
//
// Returns:
//   - Config: the merged configuration
//   - error: if the file cannot be read, parsed or validated
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := cfg.Overlay(data); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Overlay decodes YAML into c, leaving fields absent from data untouched. Unknown keys are errors.
func (c *Config) Overlay(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Marshal encodes c as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Validate rejects configurations the renderer cannot honor.
func (c Config) Validate() error {
	var errs []error
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height))
	}
	if c.Window.MaxFPS < 0 {
		errs = append(errs, fmt.Errorf("max_fps must not be negative, got %g", c.Window.MaxFPS))
	}
	switch c.Renderer.MSAA {
	case 1, 4:
	default:
		errs = append(errs, fmt.Errorf("msaa must be 1 or 4, got %d", c.Renderer.MSAA))
	}
	if c.Renderer.MaxPixelRatio < 1 {
		errs = append(errs, fmt.Errorf("max_pixel_ratio must be at least 1, got %g", c.Renderer.MaxPixelRatio))
	}
	if c.Renderer.ShadowMapSize <= 0 || c.Renderer.ShadowMapSize&(c.Renderer.ShadowMapSize-1) != 0 {
		errs = append(errs, fmt.Errorf("shadow_map_size must be a power of two, got %d", c.Renderer.ShadowMapSize))
	}
	if c.Camera.FovDegrees <= 0 || c.Camera.FovDegrees >= 180 {
		errs = append(errs, fmt.Errorf("fov_degrees must be in (0, 180), got %g", c.Camera.FovDegrees))
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		errs = append(errs, fmt.Errorf("clip range must satisfy 0 < near < far, got [%g, %g]", c.Camera.Near, c.Camera.Far))
	}
	if c.Controls.MinDistance <= 0 || c.Controls.MaxDistance < c.Controls.MinDistance {
		errs = append(errs, fmt.Errorf("distance bounds inverted: [%g, %g]", c.Controls.MinDistance, c.Controls.MaxDistance))
	}
	if c.Controls.Damping < 0 || c.Controls.Damping > 1 {
		errs = append(errs, fmt.Errorf("damping must be in [0, 1], got %g", c.Controls.Damping))
	}
	if c.Scene.Bushes.Count < 0 || c.Scene.Fireflies.Count < 0 {
		errs = append(errs, errors.New("instance counts must not be negative"))
	}
	for name, r := range map[string]RingConfig{"bushes": c.Scene.Bushes.Ring, "fireflies": c.Scene.Fireflies.Ring} {
		if r.RadiusMin < 0 || r.RadiusSpan < 0 {
			errs = append(errs, fmt.Errorf("%s ring must have non-negative radius and span", name))
		}
	}
	if c.Scene.Fireflies.HeightMax < 0 {
		errs = append(errs, errors.New("fireflies height_max must not be negative"))
	}
	if c.Scene.FogDensity < 0 {
		errs = append(errs, fmt.Errorf("fog_density must not be negative, got %g", c.Scene.FogDensity))
	}
	if c.Audio.Volume < 0 || c.Audio.Volume > 1 {
		errs = append(errs, fmt.Errorf("audio volume must be in [0, 1], got %g", c.Audio.Volume))
	}
	if c.Assets.Workers < 1 {
		errs = append(errs, fmt.Errorf("assets workers must be at least 1, got %d", c.Assets.Workers))
	}
	return errors.Join(errs...)
}
