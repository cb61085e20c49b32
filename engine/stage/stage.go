// Package stage keeps the GPU copy of a scene.State: mesh buffers, textures, uniforms and bind
// groups. Prepare mirrors the state before a frame; Record encodes the shadow and scene passes.
package stage

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/moonlit/common"
	"github.com/Carmen-Shannon/moonlit/engine/geometry"
	"github.com/Carmen-Shannon/moonlit/engine/light"
	"github.com/Carmen-Shannon/moonlit/engine/loader"
	"github.com/Carmen-Shannon/moonlit/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/moonlit/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/moonlit/engine/renderer/shader"
	"github.com/Carmen-Shannon/moonlit/engine/renderer/shaders"
	"github.com/Carmen-Shannon/moonlit/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// Pipeline keys registered by the stage.
const (
	PipelineShadow    = "shadow"
	PipelineSky       = "sky"
	PipelineLit       = "lit"
	PipelineMist      = "mist"
	PipelineFireflies = "fireflies"
)

// Bindings of the frame group shared by every scene pipeline.
const (
	bindCamera = iota
	bindFrame
	bindLights
	bindShadow
	bindShadowMap
	bindShadowSampler
)

// Bindings of the lit object group.
const (
	bindObject = iota
	bindInstances
	bindColorMap
	bindNormalMap
	bindDisplacementMap
	bindMaterialSampler
)

const (
	matrixSize   = 64
	particleSize = 16
)

// GPU is the part of the renderer the stage drives.
type GPU interface {
	RegisterPipelines(pipelines ...pipeline.Pipeline) error
	InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error
	InitBindGroup(provider bind_group_provider.BindGroupProvider, pipelineKey string, group int, bufferSizeOverrides map[int]uint64) error
	InitTexture(provider bind_group_provider.BindGroupProvider, binding int, stagingData common.TextureStagingData) error
	InitSampler(provider bind_group_provider.BindGroupProvider, binding int, samplerStagingData common.SamplerStagingData) error
	BindShadowMap(provider bind_group_provider.BindGroupProvider, binding int)
	WriteBuffers(writes []bind_group_provider.BufferWrite)
	BeginShadowPass() error
	BeginScenePass(clear mgl32.Vec3) error
	Draw(pipelineKey string, mesh bind_group_provider.BindGroupProvider, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error
	DrawProcedural(pipelineKey string, vertexCount, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error
	EndPass() error
}

// drawable is a lit mesh resident on the GPU.
type drawable struct {
	name      string
	model     mgl32.Mat4
	surface   *scene.Surface
	instances uint32

	mesh   bind_group_provider.BindGroupProvider
	group  bind_group_provider.BindGroupProvider
	shadow bind_group_provider.BindGroupProvider

	// bound holds the maps currently uploaded for color, normal and displacement; nil is the fallback
	bound [3]*loader.Texture
}

type stage struct {
	mu     *sync.Mutex
	gpu    GPU
	state  *scene.State
	logger *zap.Logger

	shadowMapSize int

	frame       bind_group_provider.BindGroupProvider
	shadowFrame bind_group_provider.BindGroupProvider

	drawables []*drawable
	statue    *loader.Model

	sky      bind_group_provider.BindGroupProvider
	skyImage *loader.HDRImage
	ambient  mgl32.Vec3

	mistMesh  bind_group_provider.BindGroupProvider
	mistGroup bind_group_provider.BindGroupProvider
	flies     bind_group_provider.BindGroupProvider

	// revision is the scene revision last mirrored; synced is false until the first Prepare
	revision uint64
	synced   bool
}

// Stage mirrors a scene.State on the GPU and records its passes.
type Stage interface {
	// Prepare uploads what changed since the last call: new meshes and maps when the scene
	// revision moved, and the animated uniforms every time.
	//
	// Returns:
	//   - error: if a GPU resource could not be created
	Prepare() error

	// Record encodes the shadow pass and the scene pass into the current frame.
	//
	// Returns:
	//   - error: the first pass or draw error
	Record() error

	// SkyReady reports whether the environment map is resident and the sky is drawn.
	SkyReady() bool

	// DrawableCount returns the number of resident lit meshes.
	DrawableCount() int

	// Release frees every resource the stage created.
	Release()
}

var _ Stage = &stage{}

// NewStage registers the scene pipelines and creates the resources whose content is known before
// any asset loads: the frame group, the floor, the pedestal, the bushes, the mist and the fireflies.
//
// Parameters:
//   - gpu: the renderer
//   - st: the scene state to mirror
//   - options: variadic list of StageBuilderOption functions
//
// Returns:
//   - Stage: the stage
//   - error: if a pipeline or resource cannot be created
func NewStage(gpu GPU, st *scene.State, options ...StageBuilderOption) (Stage, error) {
	s := &stage{
		mu:            &sync.Mutex{},
		gpu:           gpu,
		state:         st,
		logger:        zap.NewNop(),
		shadowMapSize: light.ShadowMapResolution,
	}
	for _, opt := range options {
		opt(s)
	}

	pipelines, err := Pipelines()
	if err != nil {
		return nil, err
	}
	if err := gpu.RegisterPipelines(pipelines...); err != nil {
		return nil, err
	}
	if err := s.initFrame(); err != nil {
		return nil, err
	}

	for _, obj := range []*scene.Object{&st.Floor, &st.Pedestal} {
		if len(obj.Mesh.Indices) == 0 {
			continue
		}
		if err := s.addDrawable(obj.Name, obj.Mesh, obj.Model, &obj.Surface, nil); err != nil {
			return nil, err
		}
	}
	if st.Bushes.Instances != nil && st.Bushes.Instances.Len() > 0 {
		if err := s.addDrawable("bushes", st.Bushes.Mesh, mgl32.Ident4(), &st.Bushes.Surface, st.Bushes.Instances.Bytes()); err != nil {
			return nil, err
		}
	}
	if err := s.initMist(); err != nil {
		return nil, err
	}
	if err := s.initFireflies(); err != nil {
		return nil, err
	}
	return s, nil
}

// Pipelines builds the scene pipelines from the embedded shaders.
//
// Returns:
//   - []pipeline.Pipeline: shadow, sky, lit, mist and fireflies
//   - error: if a shader fails reflection
func Pipelines() ([]pipeline.Pipeline, error) {
	specs := []struct {
		key  string
		opts []pipeline.PipelineBuilderOption
	}{
		{PipelineShadow, []pipeline.PipelineBuilderOption{pipeline.WithTarget(pipeline.TargetShadow), pipeline.WithDepthBias(2, 2.0)}},
		{PipelineSky, []pipeline.PipelineBuilderOption{pipeline.WithDepthTestEnabled(false), pipeline.WithDepthWriteEnabled(false)}},
		{PipelineLit, nil},
		{PipelineMist, []pipeline.PipelineBuilderOption{pipeline.WithAdditiveBlend(), pipeline.WithDepthWriteEnabled(false)}},
		{PipelineFireflies, []pipeline.PipelineBuilderOption{pipeline.WithAdditiveBlend(), pipeline.WithDepthWriteEnabled(false)}},
	}

	out := make([]pipeline.Pipeline, 0, len(specs))
	for _, spec := range specs {
		src, err := shaders.Source(spec.key)
		if err != nil {
			return nil, err
		}
		vs, err := shader.NewShader(spec.key+" vs", shader.ShaderTypeVertex, src)
		if err != nil {
			return nil, fmt.Errorf("failed to reflect %s vertex shader: %w", spec.key, err)
		}
		var fs shader.Shader
		if spec.key != PipelineShadow {
			if fs, err = shader.NewShader(spec.key+" fs", shader.ShaderTypeFragment, src); err != nil {
				return nil, fmt.Errorf("failed to reflect %s fragment shader: %w", spec.key, err)
			}
		}
		opts := append([]pipeline.PipelineBuilderOption{pipeline.WithShaders(vs, fs)}, spec.opts...)
		out = append(out, pipeline.NewPipeline(spec.key, opts...))
	}
	return out, nil
}

func (s *stage) initFrame() error {
	s.frame = bind_group_provider.NewBindGroupProvider("frame")
	s.gpu.BindShadowMap(s.frame, bindShadowMap)
	if err := s.gpu.InitSampler(s.frame, bindShadowSampler, common.SamplerStagingData{Compare: true}); err != nil {
		return err
	}
	if err := s.gpu.InitBindGroup(s.frame, PipelineLit, 0, nil); err != nil {
		return err
	}

	// The shadow pass reads the same shadow uniform through its own vertex-only layout.
	s.shadowFrame = bind_group_provider.NewBindGroupProvider("shadow frame",
		bind_group_provider.WithBorrowedBuffers(map[int]*wgpu.Buffer{0: s.frame.Buffer(bindShadow)}))
	return s.gpu.InitBindGroup(s.shadowFrame, PipelineShadow, 0, nil)
}

func (s *stage) addDrawable(name string, mesh geometry.Mesh, model mgl32.Mat4, surface *scene.Surface, instanceBytes []byte) error {
	d := &drawable{
		name:      name,
		model:     model,
		surface:   surface,
		instances: 1,
		mesh:      bind_group_provider.NewBindGroupProvider(name + " mesh"),
		group:     bind_group_provider.NewBindGroupProvider(name),
	}
	if instanceBytes == nil {
		identity := mgl32.Ident4()
		instanceBytes = common.StructToBytes(&identity)
	}
	d.instances = uint32(len(instanceBytes) / matrixSize)

	if err := s.gpu.InitMeshBuffers(d.mesh, mesh.VertexBytes(), mesh.IndexBytes(), len(mesh.Indices)); err != nil {
		return fmt.Errorf("failed to upload %s mesh: %w", name, err)
	}
	if err := s.bindMaps(d, true); err != nil {
		return err
	}
	if err := s.gpu.InitBindGroup(d.group, PipelineLit, 1, map[int]uint64{bindInstances: uint64(len(instanceBytes))}); err != nil {
		return err
	}
	s.gpu.WriteBuffers([]bind_group_provider.BufferWrite{{Provider: d.group, Binding: bindInstances, Data: instanceBytes}})

	if surface.CastShadow {
		d.shadow = bind_group_provider.NewBindGroupProvider(name+" shadow",
			bind_group_provider.WithBorrowedBuffers(map[int]*wgpu.Buffer{
				bindObject:    d.group.Buffer(bindObject),
				bindInstances: d.group.Buffer(bindInstances),
			}))
		if err := s.gpu.InitBindGroup(d.shadow, PipelineShadow, 1, nil); err != nil {
			return err
		}
	}

	s.drawables = append(s.drawables, d)
	s.logger.Debug("drawable resident", zap.String("name", name), zap.Uint32("instances", d.instances),
		zap.Int("indices", len(mesh.Indices)))
	return nil
}

// bindMaps uploads the maps that differ from what the drawable has bound, substituting fallbacks
// for missing maps, and recreates the material sampler when anything was uploaded.
func (s *stage) bindMaps(d *drawable, force bool) error {
	maps := [3]*loader.Texture{d.surface.ColorMap, d.surface.NormalMap, d.surface.DisplacementMap}
	fallbacks := [3]func() *loader.Texture{loader.WhiteTexture, loader.FlatNormalTexture, loader.BlackTexture}
	changed := force
	for i, tex := range maps {
		if !force && tex == d.bound[i] {
			continue
		}
		upload := tex
		if upload == nil {
			upload = fallbacks[i]()
		}
		if err := s.gpu.InitTexture(d.group, bindColorMap+i, upload.Data); err != nil {
			return fmt.Errorf("failed to upload %s map %q: %w", d.name, upload.Name, err)
		}
		d.bound[i] = tex
		changed = true
	}
	if !changed {
		return nil
	}

	sampler := common.SamplerStagingData{WrapU: common.WrapRepeat, WrapV: common.WrapRepeat}
	for _, tex := range maps {
		if tex != nil {
			sampler = tex.Sampler
			break
		}
	}
	return s.gpu.InitSampler(d.group, bindMaterialSampler, sampler)
}

func (s *stage) initMist() error {
	m := &s.state.Mist
	if len(m.Mesh.Indices) == 0 {
		return nil
	}
	s.mistMesh = bind_group_provider.NewBindGroupProvider("mist mesh")
	if err := s.gpu.InitMeshBuffers(s.mistMesh, m.Mesh.VertexBytes(), m.Mesh.IndexBytes(), len(m.Mesh.Indices)); err != nil {
		return fmt.Errorf("failed to upload mist mesh: %w", err)
	}
	s.mistGroup = bind_group_provider.NewBindGroupProvider("mist")
	return s.gpu.InitBindGroup(s.mistGroup, PipelineMist, 1, nil)
}

func (s *stage) initFireflies() error {
	buf := s.state.Fireflies.Buffer
	if buf == nil || buf.Len() == 0 {
		return nil
	}
	s.flies = bind_group_provider.NewBindGroupProvider("fireflies")
	return s.gpu.InitBindGroup(s.flies, PipelineFireflies, 1, map[int]uint64{1: uint64(buf.Len() * particleSize)})
}

func (s *stage) Prepare() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state
	var writes []bind_group_provider.BufferWrite

	if !s.synced || st.Revision() != s.revision {
		if err := s.syncResidency(); err != nil {
			return err
		}
		writes = append(writes, s.staticWrites()...)
		s.revision = st.Revision()
		s.synced = true
	}

	cam := st.Camera.Uniform()
	frame := GPUFrame{
		FogColor:     st.Fog.Color,
		FogDensity:   st.Fog.Density,
		Time:         st.Mist.Time,
		EnvIntensity: st.Environment.Intensity,
	}
	writes = append(writes,
		bind_group_provider.BufferWrite{Provider: s.frame, Binding: bindCamera, Data: cam.Marshal()},
		bind_group_provider.BufferWrite{Provider: s.frame, Binding: bindFrame, Data: frame.Marshal()},
	)

	if s.mistGroup != nil {
		mist := GPUMist{Model: st.Mist.Model, Color: st.Mist.Color, Time: st.Mist.Time}
		writes = append(writes, bind_group_provider.BufferWrite{Provider: s.mistGroup, Binding: 0, Data: mist.Marshal()})
	}
	if s.flies != nil {
		f := &st.Fireflies
		flies := GPUFireflies{Group: f.GroupMatrix(), Color: f.Color, Opacity: f.Opacity, Size: f.Size}
		writes = append(writes, bind_group_provider.BufferWrite{Provider: s.flies, Binding: 0, Data: flies.Marshal()})
		if data, dirty := f.Buffer.TakeUpload(); dirty {
			writes = append(writes, bind_group_provider.BufferWrite{Provider: s.flies, Binding: 1, Data: data})
		}
	}

	s.gpu.WriteBuffers(writes)
	return nil
}

// syncResidency creates what newly arrived in the scene: the statue, the environment map and any
// replaced surface maps.
func (s *stage) syncResidency() error {
	st := s.state

	if st.Statue != nil && s.statue != st.Statue {
		if err := s.addStatue(st.Statue); err != nil {
			return err
		}
		s.statue = st.Statue
	}

	if img := st.Environment.Image; img != nil && img != s.skyImage {
		if err := s.initSky(img); err != nil {
			return err
		}
		s.skyImage = img
		s.ambient = AverageRadiance(img)
		s.logger.Info("environment resident", zap.String("name", img.Name),
			zap.Int("width", img.Width), zap.Int("height", img.Height))
	}

	for _, d := range s.drawables {
		before := d.bound
		if err := s.bindMaps(d, false); err != nil {
			return err
		}
		if before != d.bound {
			if err := s.gpu.InitBindGroup(d.group, PipelineLit, 1, nil); err != nil {
				return err
			}
			s.logger.Debug("surface maps rebound", zap.String("name", d.name))
		}
	}
	return nil
}

func (s *stage) addStatue(m *loader.Model) error {
	for i, mm := range m.Meshes {
		mat := loader.DefaultMaterial()
		if mm.Material >= 0 && mm.Material < len(m.Materials) && m.Materials[mm.Material] != nil {
			mat = m.Materials[mm.Material]
		}
		surface := &scene.Surface{
			Color:         mgl32.Vec3{mat.BaseColor[0], mat.BaseColor[1], mat.BaseColor[2]},
			Roughness:     mat.Roughness,
			Metalness:     mat.Metallic,
			ColorMap:      mat.BaseColorTexture,
			NormalMap:     mat.NormalTexture,
			Repeat:        [2]float32{1, 1},
			CastShadow:    true,
			ReceiveShadow: true,
		}
		name := mm.Name
		if name == "" {
			name = fmt.Sprintf("%s/%d", m.Name, i)
		}
		if err := s.addDrawable(name, mm.Mesh, mgl32.Ident4(), surface, nil); err != nil {
			return err
		}
	}
	s.logger.Info("statue resident", zap.String("name", m.Name), zap.Int("meshes", len(m.Meshes)))
	return nil
}

func (s *stage) initSky(img *loader.HDRImage) error {
	if s.sky == nil {
		s.sky = bind_group_provider.NewBindGroupProvider("sky")
		if err := s.gpu.InitSampler(s.sky, 1, common.SamplerStagingData{WrapU: common.WrapRepeat, WrapV: common.WrapClampToEdge}); err != nil {
			return err
		}
	}
	if err := s.gpu.InitTexture(s.sky, 0, img.Staging()); err != nil {
		return fmt.Errorf("failed to upload environment %q: %w", img.Name, err)
	}
	return s.gpu.InitBindGroup(s.sky, PipelineSky, 1, nil)
}

// staticWrites packs the uniforms that only change with the scene revision.
func (s *stage) staticWrites() []bind_group_provider.BufferWrite {
	st := s.state
	ambient := s.ambient.Mul(st.Environment.Intensity)

	var shadow light.GPUShadowData
	if l := st.ShadowLight(); l != nil {
		shadow = light.NewShadowData(l, s.shadowMapSize)
	}

	writes := []bind_group_provider.BufferWrite{
		{Provider: s.frame, Binding: bindLights, Data: light.MarshalLightBuffer(st.Lights, ambient)},
		{Provider: s.frame, Binding: bindShadow, Data: shadow.Marshal()},
	}
	for _, d := range s.drawables {
		obj := NewGPUObject(d.model, d.surface)
		writes = append(writes, bind_group_provider.BufferWrite{Provider: d.group, Binding: bindObject, Data: obj.Marshal()})
	}
	return writes
}

func (s *stage) Record() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.recordShadows(); err != nil {
		return fmt.Errorf("shadow pass: %w", err)
	}
	if err := s.recordScene(); err != nil {
		return fmt.Errorf("scene pass: %w", err)
	}
	return nil
}

func (s *stage) recordShadows() error {
	if err := s.gpu.BeginShadowPass(); err != nil {
		return err
	}
	if s.state.ShadowLight() != nil {
		for _, d := range s.drawables {
			if d.shadow == nil {
				continue
			}
			if err := s.gpu.Draw(PipelineShadow, d.mesh, d.instances, []bind_group_provider.BindGroupProvider{s.shadowFrame, d.shadow}); err != nil {
				_ = s.gpu.EndPass()
				return err
			}
		}
	}
	return s.gpu.EndPass()
}

func (s *stage) recordScene() error {
	// The clear color equals the fog color so distant geometry fades into the background.
	if err := s.gpu.BeginScenePass(s.state.Fog.Color); err != nil {
		return err
	}
	if err := s.drawScene(); err != nil {
		_ = s.gpu.EndPass()
		return err
	}
	return s.gpu.EndPass()
}

func (s *stage) drawScene() error {
	if s.sky != nil {
		if err := s.gpu.DrawProcedural(PipelineSky, 3, 1, []bind_group_provider.BindGroupProvider{s.frame, s.sky}); err != nil {
			return err
		}
	}
	for _, d := range s.drawables {
		if err := s.gpu.Draw(PipelineLit, d.mesh, d.instances, []bind_group_provider.BindGroupProvider{s.frame, d.group}); err != nil {
			return err
		}
	}
	if s.mistGroup != nil {
		if err := s.gpu.Draw(PipelineMist, s.mistMesh, 1, []bind_group_provider.BindGroupProvider{s.frame, s.mistGroup}); err != nil {
			return err
		}
	}
	if s.flies != nil {
		n := uint32(s.state.Fireflies.Buffer.Len())
		if err := s.gpu.DrawProcedural(PipelineFireflies, 6, n, []bind_group_provider.BindGroupProvider{s.frame, s.flies}); err != nil {
			return err
		}
	}
	return nil
}

func (s *stage) SkyReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sky != nil
}

func (s *stage) DrawableCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.drawables)
}

func (s *stage) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range s.drawables {
		if d.shadow != nil {
			d.shadow.Release()
		}
		d.group.Release()
		d.mesh.Release()
	}
	s.drawables = nil
	for _, p := range []bind_group_provider.BindGroupProvider{s.shadowFrame, s.frame, s.sky, s.mistMesh, s.mistGroup, s.flies} {
		if p != nil {
			p.Release()
		}
	}
}
