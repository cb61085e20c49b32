// Package scene holds the explicit state of the moonlit night scene. The render thread owns every
// field of State; other goroutines only hand it work through Enqueue.
package scene

import (
	"sync"

	"github.com/Carmen-Shannon/moonlit/engine/audio"
	"github.com/Carmen-Shannon/moonlit/engine/camera"
	"github.com/Carmen-Shannon/moonlit/engine/geometry"
	"github.com/Carmen-Shannon/moonlit/engine/light"
	"github.com/Carmen-Shannon/moonlit/engine/loader"
	"github.com/Carmen-Shannon/moonlit/engine/placement"
	"github.com/go-gl/mathgl/mgl32"
)

// Mutation is a one-shot change to the scene, applied on the render thread.
type Mutation func(*State)

// Fog is exponential-squared fog. The clear color equals the fog color.
type Fog struct {
	Color   mgl32.Vec3
	Density float32
}

// Surface is the material of a lit mesh.
type Surface struct {
	Color     mgl32.Vec3
	Roughness float32
	Metalness float32

	// Texture maps; nil until the asset arrives.
	ColorMap        *loader.Texture
	NormalMap       *loader.Texture
	DisplacementMap *loader.Texture

	// DisplacementScale scales the displacement map along the vertex normal.
	DisplacementScale float32
	// Repeat is the UV repeat applied to every map.
	Repeat [2]float32

	CastShadow    bool
	ReceiveShadow bool
	FlatShaded    bool
}

// Object is a single lit mesh with a fixed model matrix.
type Object struct {
	Name    string
	Mesh    geometry.Mesh
	Model   mgl32.Mat4
	Surface Surface
}

// Bushes is the instanced bush ring. Instances never change after construction.
type Bushes struct {
	Mesh      geometry.Mesh
	Instances *placement.InstanceBuffer
	Surface   Surface
}

// Mist is the animated additive shell around the pedestal.
type Mist struct {
	Mesh  geometry.Mesh
	Model mgl32.Mat4
	Color mgl32.Vec3
	// Time is the shader time uniform, rewritten every frame.
	Time float32
}

// Fireflies is the additive point cloud circling the statue.
type Fireflies struct {
	Buffer  *placement.ParticleBuffer
	Size    float32
	Color   mgl32.Vec3
	Opacity float32
	// RotationY is the rotation of the whole group about +Y in radians, rewritten every frame.
	RotationY float32
}

// GroupMatrix returns the model matrix of the firefly group.
func (f *Fireflies) GroupMatrix() mgl32.Mat4 {
	return mgl32.HomogRotate3DY(f.RotationY)
}

// Environment is the equirectangular sky and image-based ambient light.
type Environment struct {
	Image     *loader.HDRImage
	Intensity float32
}

// State is the whole scene. Statue and Environment.Image stay nil until their assets load.
type State struct {
	mu      *sync.Mutex
	pending []Mutation

	revision uint64

	Fog         Fog
	Exposure    float32
	Floor       Object
	Pedestal    Object
	Bushes      Bushes
	Mist        Mist
	Fireflies   Fireflies
	Statue      *loader.Model
	Environment Environment
	Lights      []light.Light
	Camera      camera.Camera
	Audio       audio.Player
	Loading     *loader.LoadingManager
}

// NewState creates an empty state with a working mutation queue.
func NewState() *State {
	return &State{mu: &sync.Mutex{}}
}

// Enqueue schedules m to run on the next ApplyPending. Safe for concurrent use.
//
// Parameters:
//   - m: the mutation; nil is ignored
func (s *State) Enqueue(m Mutation) {
	if m == nil {
		return
	}
	s.mu.Lock()
	s.pending = append(s.pending, m)
	s.mu.Unlock()
}

// Pending returns the number of queued mutations.
func (s *State) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// ApplyPending runs every queued mutation in enqueue order and bumps the revision once per
// mutation. Mutations enqueued while draining run on the next call. Only the render thread may
// call it.
//
// Returns:
//   - int: the number of mutations applied
func (s *State) ApplyPending() int {
	s.mu.Lock()
	batch := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, m := range batch {
		m(s)
		s.revision++
	}
	return len(batch)
}

// Revision counts applied mutations. Consumers that mirror the state compare it between frames to
// decide whether anything beyond the animated fields changed.
func (s *State) Revision() uint64 {
	return s.revision
}

// ShadowLight returns the first enabled directional light that casts shadows, or nil.
func (s *State) ShadowLight() light.Light {
	for _, l := range s.Lights {
		if l.Enabled() && l.CastsShadows() && l.Type() == light.LightTypeDirectional {
			return l
		}
	}
	return nil
}
