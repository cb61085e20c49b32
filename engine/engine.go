// Package engine assembles the moonlit night scene: it opens the window, creates the renderer,
// builds the scene state, starts the asset loads and runs the frame loop on the calling thread.
package engine

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/moonlit/common"
	"github.com/Carmen-Shannon/moonlit/engine/animate"
	"github.com/Carmen-Shannon/moonlit/engine/audio"
	"github.com/Carmen-Shannon/moonlit/engine/audio/speaker"
	"github.com/Carmen-Shannon/moonlit/engine/config"
	"github.com/Carmen-Shannon/moonlit/engine/frame"
	"github.com/Carmen-Shannon/moonlit/engine/loader"
	"github.com/Carmen-Shannon/moonlit/engine/postfx"
	"github.com/Carmen-Shannon/moonlit/engine/profiler"
	"github.com/Carmen-Shannon/moonlit/engine/renderer"
	"github.com/Carmen-Shannon/moonlit/engine/scene"
	"github.com/Carmen-Shannon/moonlit/engine/stage"
	"github.com/Carmen-Shannon/moonlit/engine/window"
	"go.uber.org/zap"
)

const defaultTitle = "moonlit"

// seedStream is the second PCG word; the configured seed selects the first.
const seedStream = 0x9e3779b97f4a7c15

// engine implements the Engine interface.
// Owns every long-lived component and tears them down in reverse order on Close.
type engine struct {
	cfg    config.Config
	logger *zap.Logger

	window   window.Window
	renderer renderer.Renderer
	state    *scene.State
	stage    stage.Stage
	composer postfx.Composer
	bloom    *postfx.BloomPass
	loader   loader.Loader
	player   audio.Player
	driver   *frame.Driver

	profiler         *profiler.Profiler
	profilingEnabled atomic.Bool

	// Injected collaborators; nil selects the production default.
	output   audio.Output
	clock    frame.Clock
	stopWhen frame.StopCondition
	seed     uint64

	quitChannel chan struct{}
	quitOnce    sync.Once
	closeOnce   sync.Once
}

// Engine is the main entry point of the scene.
// Every method except Quit must be called from the thread that created the engine, which must be
// locked to the main OS thread.
type Engine interface {
	// Window returns the host window.
	Window() window.Window

	// State returns the scene state the frame loop renders.
	State() *scene.State

	// Composer returns the frame composer.
	Composer() postfx.Composer

	// EnableProfiler enables periodic frame timing summaries in the log.
	EnableProfiler()

	// DisableProfiler disables the frame timing summaries.
	DisableProfiler()

	// Run drives frames until the window closes, Quit is called, ctx is cancelled or a frame
	// fails.
	//
	// Parameters:
	//   - ctx: cancelling the context stops the loop
	//
	// Returns:
	//   - error: nil on a normal stop, otherwise the cancellation or frame error
	Run(ctx context.Context) error

	// Quit stops the frame loop. Safe to call multiple times and from any goroutine.
	Quit()

	// Close releases the loader, the GPU resources, the audio device and the window.
	// Safe to call multiple times.
	//
	// Returns:
	//   - error: if the window could not be closed
	Close() error
}

var _ Engine = &engine{}

// NewEngine creates the window, the renderer and the scene, and starts loading the assets.
// A failure closes whatever was already created.
//
// Parameters:
//   - cfg: the validated process configuration
//   - options: functional options for engine configuration (logger, seed, audio output, clock)
//
// Returns:
//   - Engine: the ready engine
//   - error: if the window, the GPU device or the scene pipelines cannot be created
func NewEngine(cfg config.Config, options ...EngineBuilderOption) (Engine, error) {
	e := &engine{
		cfg:         cfg,
		logger:      zap.NewNop(),
		seed:        cfg.Scene.Seed,
		quitChannel: make(chan struct{}),
	}
	for _, opt := range options {
		opt(e)
	}
	e.profilingEnabled.Store(cfg.Profile)

	if err := e.init(); err != nil {
		_ = e.Close()
		return nil, err
	}
	return e, nil
}

func (e *engine) init() error {
	cfg := e.cfg
	var err error

	e.window, err = window.NewWindow(
		window.WithTitle(common.Coalesce(cfg.Window.Title, defaultTitle)),
		window.WithSize(cfg.Window.Width, cfg.Window.Height),
	)
	if err != nil {
		return err
	}

	present := renderer.PresentModeUncapped
	if cfg.Renderer.VSync {
		present = renderer.PresentModeVSync
	}
	e.renderer, err = renderer.NewRenderer(e.window,
		renderer.WithPresentMode(present),
		renderer.WithMSAA(renderer.ParseMSAA(cfg.Renderer.MSAA)),
		renderer.WithForceSoftwareRenderer(cfg.Renderer.FallbackDevice),
		renderer.WithShadowMapSize(cfg.Renderer.ShadowMapSize),
		renderer.WithLogger(e.logger.Named("renderer")),
	)
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}

	if e.seed == 0 {
		e.seed = uint64(time.Now().UnixNano())
	}
	e.state, err = scene.Build(cfg, rand.New(rand.NewPCG(e.seed, e.seed^seedStream)))
	if err != nil {
		return fmt.Errorf("failed to build scene: %w", err)
	}
	e.logger.Info("scene built", zap.Uint64("seed", e.seed),
		zap.Int("bushes", e.state.Bushes.Instances.Len()),
		zap.Int("fireflies", e.state.Fireflies.Buffer.Len()))

	if cfg.Audio.Enabled {
		out := e.output
		if out == nil {
			out = speaker.NewOutput(0)
		}
		e.player = audio.NewPlayer(
			audio.WithOutput(out),
			audio.WithLoop(cfg.Audio.Loop),
			audio.WithVolume(cfg.Audio.Volume),
			audio.WithLogger(e.logger.Named("audio")),
		)
		e.state.Audio = e.player
	}

	e.stage, err = stage.NewStage(e.renderer, e.state,
		stage.WithLogger(e.logger.Named("stage")),
		stage.WithShadowMapSize(cfg.Renderer.ShadowMapSize),
	)
	if err != nil {
		return fmt.Errorf("failed to create stage: %w", err)
	}

	st := e.state
	e.bloom = postfx.NewBloomPass(cfg.Bloom)
	e.composer, err = postfx.NewComposer(e.renderer,
		postfx.WithPasses(
			postfx.NewRenderPass(e.stage),
			e.bloom,
			postfx.NewOutputPass(func() float32 { return st.Exposure }),
		),
		postfx.WithFramebuffer(e.window),
		postfx.WithPixelRatio(e.window.ContentScale()),
		postfx.WithMaxPixelRatio(cfg.Renderer.MaxPixelRatio),
		postfx.WithSize(e.window.Width(), e.window.Height()),
		postfx.WithLogger(e.logger.Named("postfx")),
	)
	if err != nil {
		return fmt.Errorf("failed to create composer: %w", err)
	}

	e.startLoading()
	e.driver = e.newDriver()
	e.driver.Resize(e.window.Width(), e.window.Height())
	e.bindInput()
	return nil
}

// startLoading creates the loader and queues every asset. Progress is shown in the window title;
// the title change is enqueued so it runs on the render thread.
func (e *engine) startLoading() {
	st := e.state
	titles := newLoadingTitles(common.Coalesce(e.cfg.Window.Title, defaultTitle), e.window.SetTitle)
	manager := loader.NewLoadingManager(
		loader.WithProgressHandler(func(p loader.Progress) {
			st.Enqueue(func(*scene.State) { titles.progress(p) })
		}),
		loader.WithLoadHandler(func(p loader.Progress) {
			e.logger.Info("assets loaded", zap.Int("loaded", p.Loaded), zap.Int("failed", p.Failed))
		}),
		loader.WithEndedHandler(func() {
			st.Enqueue(func(*scene.State) { titles.end() })
		}),
	)
	e.loader = loader.NewLoader(
		loader.WithRoot(e.cfg.Assets.Root),
		loader.WithWorkers(e.cfg.Assets.Workers),
		loader.WithMaxTextureSize(e.cfg.Assets.MaxTextureSize),
		loader.WithManager(manager),
		loader.WithLogger(e.logger.Named("loader")),
	)
	scene.LoadAssets(e.loader, e.state, e.cfg.Assets, e.cfg.Audio.Enabled, e.logger.Named("assets"))
}

func (e *engine) newDriver() *frame.Driver {
	stopWhen := func(t frame.Tick) bool {
		if !e.window.IsRunning() {
			return true
		}
		return e.stopWhen != nil && e.stopWhen(t)
	}

	opts := []frame.DriverBuilderOption{
		frame.WithControls(e.state.Camera),
		frame.WithSampler(animate.NewSampler(e.state)),
		frame.WithComposer(e.composer),
		frame.WithViewport(e.state.Camera),
		frame.WithSurface(e.composer),
		frame.WithPreTickHook(e.preTick),
		frame.WithStopCondition(stopWhen),
		frame.WithLogger(e.logger.Named("frame")),
	}
	if e.clock != nil {
		opts = append(opts, frame.WithClock(e.clock))
	}
	if !e.cfg.Renderer.VSync {
		opts = append(opts, frame.WithFrameLimit(e.cfg.Window.MaxFPS))
	}
	return frame.NewDriver(opts...)
}

// preTick polls window events and applies the asset mutations that completed since the last
// frame, both on the render thread.
func (e *engine) preTick() error {
	e.window.PollEvents()
	if n := e.state.ApplyPending(); n > 0 {
		e.logger.Debug("applied scene mutations", zap.Int("count", n), zap.Uint64("revision", e.state.Revision()))
	}
	if e.profilingEnabled.Load() {
		if e.profiler == nil {
			e.profiler = profiler.NewProfiler(profiler.WithLogger(e.logger.Named("profiler")))
		}
		e.profiler.Tick()
	}
	return nil
}

func (e *engine) bindInput() {
	ctrl := e.state.Camera.Controller()

	// Callbacks fire inside PollEvents, during a frame, so the resize is deferred to the driver.
	e.window.SetResizeCallback(func(width, height int) {
		e.driver.RequestResize(width, height)
	})
	if ctrl != nil {
		e.window.SetDragCallback(func(dx, dy float32) {
			ctrl.Drag(dx, dy, float32(e.window.Height()))
		})
		e.window.SetScrollCallback(ctrl.Zoom)
	}
	e.window.SetClickCallback(func(x, y float32) {
		if e.player == nil {
			return
		}
		if err := e.player.OnClick(); err != nil {
			e.logger.Warn("background track did not start", zap.Error(err))
		}
	})
	e.window.SetKeyDownCallback(e.onKey)
	e.window.SetIconifyCallback(func(iconified bool) {
		e.logger.Debug("window iconified", zap.Bool("iconified", iconified))
	})
}

// onKey handles the keyboard: Esc quits, Space toggles bloom, M mutes and P toggles the profiler.
func (e *engine) onKey(keyCode uint32) {
	switch keyCode {
	case common.KeyEsc:
		e.Quit()
	case common.KeySpace:
		e.bloom.SetEnabled(!e.bloom.Enabled())
		e.logger.Info("bloom toggled", zap.Bool("enabled", e.bloom.Enabled()))
	case common.KeyM:
		if e.player == nil {
			return
		}
		volume := e.cfg.Audio.Volume
		if e.player.Volume() > 0 {
			volume = 0
		}
		e.player.SetVolume(volume)
	case common.KeyP:
		enabled := !e.profilingEnabled.Load()
		e.profilingEnabled.Store(enabled)
		e.logger.Info("profiler toggled", zap.Bool("enabled", enabled))
	}
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) State() *scene.State {
	return e.state
}

func (e *engine) Composer() postfx.Composer {
	return e.composer
}

func (e *engine) EnableProfiler() {
	e.profilingEnabled.Store(true)
}

func (e *engine) DisableProfiler() {
	e.profilingEnabled.Store(false)
}

func (e *engine) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-e.quitChannel:
			e.driver.Stop()
		case <-ctx.Done():
		}
	}()

	start := time.Now()
	err := e.driver.Run(ctx)
	e.logger.Info("frame loop ended", zap.Duration("uptime", time.Since(start)),
		zap.Uint64("frames", e.composer.Frames()), zap.Uint64("skipped", e.composer.Skipped()))
	return err
}

// Quit signals the frame loop to stop.
// Uses sync.Once to ensure the channel is only closed once.
func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

func (e *engine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		if e.loader != nil {
			e.loader.Close()
			e.loader.Manager().Stop()
		}
		if e.player != nil {
			e.player.Pause()
		}
		if e.stage != nil {
			e.stage.Release()
		}
		if e.renderer != nil {
			e.renderer.Release()
		}
		if e.window != nil {
			err = e.window.Close()
		}
	})
	return err
}

// loadingTitles applies loading progress to the window title on the render thread. Snapshots not
// newer than the one shown, and any progress after loading ended, are dropped.
type loadingTitles struct {
	title    string
	setTitle func(string)
	loaded   int
	ended    bool
}

func newLoadingTitles(title string, setTitle func(string)) *loadingTitles {
	return &loadingTitles{title: title, setTitle: setTitle, loaded: -1}
}

func (l *loadingTitles) progress(p loader.Progress) {
	if l.ended || p.Loaded <= l.loaded {
		return
	}
	l.loaded = p.Loaded
	l.setTitle(LoadingTitle(l.title, p))
}

func (l *loadingTitles) end() {
	l.ended = true
	l.setTitle(l.title)
}

// LoadingTitle is the window title shown while assets load.
//
// Parameters:
//   - title: the configured window title
//   - p: the loading progress
//
// Returns:
//   - string: the title with the percentage loaded
func LoadingTitle(title string, p loader.Progress) string {
	return fmt.Sprintf("%s (loading %d%%)", title, int(p.Ratio()*100))
}
