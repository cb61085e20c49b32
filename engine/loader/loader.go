// Package loader reads scene assets (textures, Radiance HDR environment maps, glTF models and MP3
// clips) on a worker pool. Every load returns a Future and is tracked by a LoadingManager.
package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"go.uber.org/zap"
)

// ErrLoaderClosed is returned by loads requested after Close.
var ErrLoaderClosed = errors.New("loader is closed")

// loader is the implementation of the Loader interface.
type loader struct {
	mu *sync.Mutex

	root           string
	workers        int
	maxTextureSize int

	pool    worker.DynamicWorkerPool
	manager *LoadingManager
	logger  *zap.Logger

	cache  map[string]any
	nextID int
	closed bool
	wg     sync.WaitGroup
}

// Loader defines the public-facing interface for loading and caching scene assets.
// Paths are relative to the asset root. Requesting the same path and options twice returns the
// same Future.
type Loader interface {
	// LoadTexture decodes an image file into a staged texture.
	//
	// Parameters:
	//   - path: the image path under the asset root
	//   - opts: color space, orientation, wrap and size options
	//
	// Returns:
	//   - *Future[*Texture]: completes with the texture or the load error
	LoadTexture(path string, opts TextureOptions) *Future[*Texture]

	// LoadHDR decodes a Radiance HDR equirectangular map.
	LoadHDR(path string) *Future[*HDRImage]

	// LoadModel decodes a GLB or glTF model with its embedded textures.
	LoadModel(path string) *Future[*Model]

	// LoadAudio decodes an MP3 clip into memory.
	LoadAudio(path string) *Future[*AudioClip]

	// Manager returns the LoadingManager tracking every load of this Loader.
	Manager() *LoadingManager

	// Root returns the asset root directory.
	Root() string

	// Close waits for in-flight loads and stops the worker pool. Later loads fail with ErrLoaderClosed.
	Close()
}

var _ Loader = &loader{}

// NewLoader creates a Loader and starts its worker pool.
//
// Parameters:
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new instance of Loader configured with the provided options
func NewLoader(options ...LoaderBuilderOption) Loader {
	l := &loader{
		mu:      &sync.Mutex{},
		root:    ".",
		workers: 4,
		logger:  zap.NewNop(),
		cache:   make(map[string]any),
	}
	for _, option := range options {
		option(l)
	}
	if l.manager == nil {
		l.manager = NewLoadingManager()
	}
	l.pool = worker.NewDynamicWorkerPool(l.workers, 64, time.Second)
	return l
}

func (l *loader) LoadTexture(path string, opts TextureOptions) *Future[*Texture] {
	key := fmt.Sprintf("texture:%s:%v", path, opts)
	return load(l, key, path, func(full string) (*Texture, error) {
		f, err := os.Open(full)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return DecodeTexture(f, path, opts)
	})
}

func (l *loader) LoadHDR(path string) *Future[*HDRImage] {
	return load(l, "hdr:"+path, path, func(full string) (*HDRImage, error) {
		f, err := os.Open(full)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return DecodeHDR(f, path)
	})
}

func (l *loader) LoadModel(path string) *Future[*Model] {
	return load(l, "model:"+path, path, func(full string) (*Model, error) {
		data, err := os.ReadFile(full)
		if err != nil {
			return nil, err
		}
		return DecodeGLTF(data, filepath.Base(path), filepath.Dir(full), l.maxTextureSize)
	})
}

func (l *loader) LoadAudio(path string) *Future[*AudioClip] {
	return load(l, "audio:"+path, path, func(full string) (*AudioClip, error) {
		f, err := os.Open(full)
		if err != nil {
			return nil, err
		}
		return DecodeMP3(f, path)
	})
}

func (l *loader) Manager() *LoadingManager {
	return l.manager
}

func (l *loader) Root() string {
	return l.root
}

func (l *loader) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	l.mu.Unlock()

	l.wg.Wait()
	l.pool.Stop()
	l.manager.Stop()
}

// load runs decode on the worker pool and returns a cached Future per key.
// Failures are logged at warn level and settle the manager item like successes do.
func load[T any](l *loader, key, path string, decode func(full string) (T, error)) *Future[T] {
	l.mu.Lock()
	if cached, ok := l.cache[key]; ok {
		l.mu.Unlock()
		return cached.(*Future[T])
	}
	if l.closed {
		l.mu.Unlock()
		var zero T
		return Resolved(zero, ErrLoaderClosed)
	}
	f, complete := NewFuture[T]()
	l.cache[key] = f
	id := l.nextID
	l.nextID++
	l.wg.Add(1)
	l.mu.Unlock()

	l.manager.ItemStart(path)
	full := filepath.Join(l.root, filepath.FromSlash(path))
	l.pool.SubmitTask(worker.Task{
		ID:      id,
		Payload: path,
		Do: func() (any, error) {
			defer l.wg.Done()

			start := time.Now()
			value, err := decode(full)
			if err != nil {
				err = fmt.Errorf("failed to load %s: %w", path, err)
				l.logger.Warn("asset load failed", zap.String("asset", path), zap.Error(err))
			} else {
				l.logger.Debug("asset loaded", zap.String("asset", path), zap.Duration("elapsed", time.Since(start)))
			}
			l.manager.ItemEnd(path, err)
			complete(value, err)
			return value, err
		},
	})
	return f
}
