package loader

import (
	"context"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeAssets(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "textures"), 0o755))
	f, err := os.Create(filepath.Join(root, "textures", "color.png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, solidImage(4, 4, color.RGBA{9, 9, 9, 255})))
	require.NoError(t, f.Close())

	require.NoError(t, os.MkdirAll(filepath.Join(root, "models"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "models", "statue.glb"), buildGLB(t, true), 0o644))
	return root
}

func TestLoaderLoadsAndTracksProgress(t *testing.T) {
	root := writeAssets(t)
	manager := NewLoadingManager(WithEndDelay(time.Millisecond))
	l := NewLoader(WithRoot(root), WithWorkers(2), WithManager(manager))
	defer l.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	manager.Hold()
	tex := l.LoadTexture("textures/color.png", TextureOptions{SRGB: true})
	model := l.LoadModel("models/statue.glb")
	missing := l.LoadHDR("textures/environmentMaps/night_forest.hdr")
	manager.Release()

	got, err := tex.Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(4), got.Data.Width)

	m, err := model.Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, "statue.glb", m.Name)
	assert.NotNil(t, m.Materials[0].BaseColorTexture)

	_, err = missing.Await(ctx)
	assert.ErrorIs(t, err, os.ErrNotExist)

	select {
	case <-manager.EndedChan():
	case <-ctx.Done():
		t.Fatal("manager never ended")
	}
	p := manager.Progress()
	assert.Equal(t, 3, p.Total)
	assert.Equal(t, 3, p.Loaded)
	assert.Equal(t, 1, p.Failed)
}

func TestLoaderCachesByPathAndOptions(t *testing.T) {
	root := writeAssets(t)
	l := NewLoader(WithRoot(root))
	defer l.Close()

	a := l.LoadTexture("textures/color.png", TextureOptions{SRGB: true})
	b := l.LoadTexture("textures/color.png", TextureOptions{SRGB: true})
	c := l.LoadTexture("textures/color.png", TextureOptions{})
	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, 2, l.Manager().Progress().Total)
}

func TestLoaderClosed(t *testing.T) {
	l := NewLoader(WithRoot(t.TempDir()))
	l.Close()
	l.Close()
	_, err := l.LoadAudio("sounds/background.mp3").Await(context.Background())
	assert.ErrorIs(t, err, ErrLoaderClosed)
}
