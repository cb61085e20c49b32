package scene

import (
	"github.com/Carmen-Shannon/moonlit/common"
	"github.com/Carmen-Shannon/moonlit/engine/config"
	"github.com/Carmen-Shannon/moonlit/engine/loader"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// Statue placement.
const (
	statueScale     float32 = 0.8
	statueOffsetX   float32 = 0.2
	statueRoughness float32 = 0.4
	statueMetalness float32 = 0.6
)

// LoadAssets starts every asset load of the scene and turns each completion into a one-shot
// mutation on st. A failed load is logged and leaves its object out of the scene. The loading
// manager is held until every load is registered, so a fast load cannot finish the batch early.
//
// Parameters:
//   - l: the loader
//   - st: the scene receiving the mutations
//   - assets: the asset paths
//   - loadAudio: whether to load the background track
//   - logger: the logger for failed loads
func LoadAssets(l loader.Loader, st *State, assets config.AssetsConfig, loadAudio bool, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	manager := l.Manager()
	manager.Hold()
	defer manager.Release()
	st.Loading = manager

	color := loader.TextureOptions{SRGB: true, FlipY: true, Wrap: common.WrapRepeat}
	data := loader.TextureOptions{FlipY: true, Wrap: common.WrapRepeat}

	floorRepeat := st.Floor.Surface.Repeat
	apply(st, l.LoadTexture(assets.FloorColor, withRepeat(color, floorRepeat)), logger, func(s *State, t *loader.Texture) {
		s.Floor.Surface.ColorMap = t
	})
	apply(st, l.LoadTexture(assets.FloorNormal, withRepeat(data, floorRepeat)), logger, func(s *State, t *loader.Texture) {
		s.Floor.Surface.NormalMap = t
	})
	apply(st, l.LoadTexture(assets.FloorDisplace, withRepeat(data, floorRepeat)), logger, func(s *State, t *loader.Texture) {
		s.Floor.Surface.DisplacementMap = t
	})
	apply(st, l.LoadTexture(assets.PedestalColor, color), logger, func(s *State, t *loader.Texture) {
		s.Pedestal.Surface.ColorMap = t
	})
	apply(st, l.LoadTexture(assets.PedestalNormal, data), logger, func(s *State, t *loader.Texture) {
		s.Pedestal.Surface.NormalMap = t
	})

	apply(st, l.LoadHDR(assets.Environment), logger, func(s *State, img *loader.HDRImage) {
		s.Environment.Image = img
	})

	// Placement runs on the worker so the render thread only swaps a pointer.
	statue := loader.Then(l.LoadModel(assets.Statue), func(m *loader.Model) (*loader.Model, error) {
		PlaceStatue(m)
		return m, nil
	})
	apply(st, statue, logger, func(s *State, m *loader.Model) {
		s.Statue = m
	})

	if loadAudio {
		apply(st, l.LoadAudio(assets.BackgroundTrack), logger, func(s *State, clip *loader.AudioClip) {
			if s.Audio != nil {
				s.Audio.SetBuffer(clip.Buffer)
			}
		})
	}
}

// PlaceStatue scales the statue to 0.8, centres it on the pedestal in x and z (nudged 0.2 along
// +x), stands it on y = 0 and overrides every material to roughness 0.4, metalness 0.6. Bounds are
// measured after scaling.
func PlaceStatue(m *loader.Model) {
	m.Transform(mgl32.Scale3D(statueScale, statueScale, statueScale))
	lo, hi := m.Bounds()
	center := lo.Add(hi).Mul(0.5)
	m.Transform(mgl32.Translate3D(-center.X()+statueOffsetX, -lo.Y(), -center.Z()))
	m.OverrideSurface(statueRoughness, statueMetalness)
}

// apply enqueues fn with the future's value once it resolves successfully.
func apply[T any](st *State, f *loader.Future[T], logger *zap.Logger, fn func(*State, T)) {
	f.OnComplete(func(v T, err error) {
		if err != nil {
			logger.Warn("asset left out of the scene", zap.Error(err))
			return
		}
		st.Enqueue(func(s *State) { fn(s, v) })
	})
}

func withRepeat(opts loader.TextureOptions, repeat [2]float32) loader.TextureOptions {
	opts.Repeat = repeat
	return opts
}
