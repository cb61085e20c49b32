package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "moonlit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 80, cfg.Scene.Bushes.Count)
	assert.Equal(t, 500, cfg.Scene.Fireflies.Count)
	assert.Equal(t, RingConfig{RadiusMin: 12, RadiusSpan: 8}, cfg.Scene.Bushes.Ring)
	assert.Equal(t, RingConfig{RadiusMin: 4, RadiusSpan: 11}, cfg.Scene.Fireflies.Ring)
	assert.InDelta(t, 0.8, cfg.Renderer.Exposure, 1e-6)
	assert.InDelta(t, 1.5508, cfg.Controls.MaxPolarAngle, 1e-3)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
window:
  width: 1920
scene:
  seed: 7
  bushes:
    count: 12
bloom:
  strength: 0.6
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1920, cfg.Window.Width)
	assert.Equal(t, 720, cfg.Window.Height)
	assert.Equal(t, uint64(7), cfg.Scene.Seed)
	assert.Equal(t, 12, cfg.Scene.Bushes.Count)
	assert.Equal(t, float32(-2.2), cfg.Scene.Bushes.Y)
	assert.InDelta(t, 0.6, cfg.Bloom.Strength, 1e-6)
	assert.InDelta(t, 0.5, cfg.Bloom.Radius, 1e-6)
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load(writeConfig(t, "window:\n  colour: red\n"))
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero width", func(c *Config) { c.Window.Width = 0 }},
		{"bad msaa", func(c *Config) { c.Renderer.MSAA = 3 }},
		{"pixel ratio below one", func(c *Config) { c.Renderer.MaxPixelRatio = 0.5 }},
		{"shadow map not power of two", func(c *Config) { c.Renderer.ShadowMapSize = 1000 }},
		{"inverted clip", func(c *Config) { c.Camera.Far = 0.05 }},
		{"inverted distance", func(c *Config) { c.Controls.MinDistance = 11 }},
		{"negative span", func(c *Config) { c.Scene.Fireflies.Ring.RadiusSpan = -1 }},
		{"loud", func(c *Config) { c.Audio.Volume = 2 }},
		{"no workers", func(c *Config) { c.Assets.Workers = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestFromArgsFlagsOnly(t *testing.T) {
	cfg, err := FromArgs("moonlit", []string{"-width", "800", "-height", "600", "-msaa", "1", "-seed", "42", "-vsync=false"})
	require.NoError(t, err)
	assert.Equal(t, 800, cfg.Window.Width)
	assert.Equal(t, 600, cfg.Window.Height)
	assert.Equal(t, 1, cfg.Renderer.MSAA)
	assert.Equal(t, uint64(42), cfg.Scene.Seed)
	assert.False(t, cfg.Renderer.VSync)
}

func TestFromArgsFlagsOverrideFile(t *testing.T) {
	path := writeConfig(t, "window:\n  width: 1920\n  height: 1080\nlog:\n  level: debug\n")
	cfg, err := FromArgs("moonlit", []string{"-config", path, "-width", "640"})
	require.NoError(t, err)
	assert.Equal(t, 640, cfg.Window.Width)
	assert.Equal(t, 1080, cfg.Window.Height)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestFromArgsHelp(t *testing.T) {
	fs := flag.NewFlagSet("probe", flag.ContinueOnError)
	cfg := Default()
	cfg.RegisterFlags(fs)
	assert.NotNil(t, fs.Lookup("assets"))

	_, err := FromArgs("moonlit", []string{"-h"})
	assert.ErrorIs(t, err, flag.ErrHelp)
}

func TestFromArgsInvalid(t *testing.T) {
	_, err := FromArgs("moonlit", []string{"-msaa", "2"})
	assert.Error(t, err)
}

func TestMarshalRoundTripsDefaults(t *testing.T) {
	data, err := Default().Marshal()
	require.NoError(t, err)
	var cfg Config
	require.NoError(t, cfg.Overlay(data))
	assert.Equal(t, Default(), cfg)
}
