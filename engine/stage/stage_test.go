package stage

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"
	"unsafe"

	"github.com/Carmen-Shannon/moonlit/common"
	"github.com/Carmen-Shannon/moonlit/engine/config"
	"github.com/Carmen-Shannon/moonlit/engine/geometry"
	"github.com/Carmen-Shannon/moonlit/engine/loader"
	"github.com/Carmen-Shannon/moonlit/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/moonlit/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/moonlit/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGPU records the calls the stage makes.
type fakeGPU struct {
	pipelines []string
	textures  []string
	groups    map[string]int
	writes    map[string]int
	calls     []string
	drawErr   error
}

func newFakeGPU() *fakeGPU {
	return &fakeGPU{groups: map[string]int{}, writes: map[string]int{}}
}

func (f *fakeGPU) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	for _, p := range pipelines {
		f.pipelines = append(f.pipelines, p.PipelineKey())
	}
	return nil
}

func (f *fakeGPU) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error {
	provider.SetIndexCount(indexCount)
	return nil
}

func (f *fakeGPU) InitBindGroup(provider bind_group_provider.BindGroupProvider, pipelineKey string, group int, _ map[int]uint64) error {
	f.groups[fmt.Sprintf("%s/%s/%d", provider.Label(), pipelineKey, group)]++
	return nil
}

func (f *fakeGPU) InitTexture(provider bind_group_provider.BindGroupProvider, binding int, data common.TextureStagingData) error {
	f.textures = append(f.textures, fmt.Sprintf("%s/%d/%dx%d", provider.Label(), binding, data.Width, data.Height))
	return nil
}

func (f *fakeGPU) InitSampler(bind_group_provider.BindGroupProvider, int, common.SamplerStagingData) error {
	return nil
}

func (f *fakeGPU) BindShadowMap(bind_group_provider.BindGroupProvider, int) {}

func (f *fakeGPU) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	for _, w := range writes {
		f.writes[fmt.Sprintf("%s/%d", w.Provider.Label(), w.Binding)] = len(w.Data)
	}
}

func (f *fakeGPU) BeginShadowPass() error {
	f.calls = append(f.calls, "begin shadow")
	return nil
}

func (f *fakeGPU) BeginScenePass(clear mgl32.Vec3) error {
	f.calls = append(f.calls, "begin scene")
	return nil
}

func (f *fakeGPU) Draw(key string, mesh bind_group_provider.BindGroupProvider, n uint32, groups []bind_group_provider.BindGroupProvider) error {
	if f.drawErr != nil {
		return f.drawErr
	}
	f.calls = append(f.calls, fmt.Sprintf("%s %s x%d", key, groups[1].Label(), n))
	return nil
}

func (f *fakeGPU) DrawProcedural(key string, v, n uint32, groups []bind_group_provider.BindGroupProvider) error {
	f.calls = append(f.calls, fmt.Sprintf("%s %d x%d", key, v, n))
	return nil
}

func (f *fakeGPU) EndPass() error {
	f.calls = append(f.calls, "end")
	return nil
}

func newTestStage(t *testing.T) (*fakeGPU, *scene.State, Stage) {
	t.Helper()
	st, err := scene.Build(config.Default(), rand.New(rand.NewPCG(3, 4)))
	require.NoError(t, err)
	gpu := newFakeGPU()
	s, err := NewStage(gpu, st)
	require.NoError(t, err)
	return gpu, st, s
}

func TestGPUTypeSizes(t *testing.T) {
	assert.Equal(t, uintptr(112), unsafe.Sizeof(GPUObject{}))
	assert.Equal(t, uintptr(32), unsafe.Sizeof(GPUFrame{}))
	assert.Equal(t, uintptr(80), unsafe.Sizeof(GPUMist{}))
	assert.Equal(t, uintptr(96), unsafe.Sizeof(GPUFireflies{}))
}

func TestNewGPUObjectFlags(t *testing.T) {
	tex := loader.WhiteTexture()
	tests := []struct {
		name    string
		surface scene.Surface
		flags   uint32
	}{
		{"plain", scene.Surface{}, 0},
		{"receiver", scene.Surface{ReceiveShadow: true}, FlagReceiveShadow},
		{"flat", scene.Surface{FlatShaded: true}, FlagFlatShaded},
		{"normal mapped", scene.Surface{NormalMap: tex}, FlagNormalMap},
		{"displaced", scene.Surface{DisplacementMap: tex, DisplacementScale: 0.3}, FlagDisplace},
		{"zero displacement", scene.Surface{DisplacementMap: tex}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewGPUObject(mgl32.Ident4(), &tt.surface)
			assert.Equal(t, tt.flags, o.Flags)
			assert.Equal(t, [2]float32{1, 1}, o.UVRepeat)
		})
	}

	o := NewGPUObject(mgl32.Translate3D(1, 2, 3), &scene.Surface{Repeat: [2]float32{8, 8}, Roughness: 0.8})
	assert.Equal(t, [2]float32{8, 8}, o.UVRepeat)
	assert.Equal(t, float32(2), o.Model[13])
	assert.Len(t, o.Marshal(), 112)
}

func TestAverageRadiance(t *testing.T) {
	assert.Equal(t, mgl32.Vec3{}, AverageRadiance(nil))

	uniform := &loader.HDRImage{Width: 4, Height: 3, Pixels: make([]float32, 4*3*3)}
	for i := range uniform.Pixels {
		uniform.Pixels[i] = 0.5
	}
	avg := AverageRadiance(uniform)
	for i := range 3 {
		assert.InDelta(t, 0.5, avg[i], 1e-6)
	}

	// The equator row dominates the stretched polar rows.
	banded := &loader.HDRImage{Width: 1, Height: 3, Pixels: []float32{1, 1, 1, 0, 0, 0, 1, 1, 1}}
	assert.Less(t, AverageRadiance(banded).X(), float32(2.0/3.0))
}

func TestPipelines(t *testing.T) {
	ps, err := Pipelines()
	require.NoError(t, err)
	require.Len(t, ps, 5)

	byKey := map[string]pipeline.Pipeline{}
	for _, p := range ps {
		byKey[p.PipelineKey()] = p
	}
	assert.Equal(t, pipeline.TargetShadow, byKey[PipelineShadow].Target())
	assert.Equal(t, int32(2), byKey[PipelineShadow].DepthBias())
	assert.False(t, byKey[PipelineSky].DepthTestEnabled())
	assert.True(t, byKey[PipelineMist].BlendEnabled())
	assert.False(t, byKey[PipelineFireflies].DepthWriteEnabled())

	// Every scene pipeline declares the same frame group so one bind group serves them all.
	frame := byKey[PipelineLit].BindGroupLayoutDescriptors()[0]
	require.Len(t, frame.Entries, 6)
	for _, key := range []string{PipelineSky, PipelineMist, PipelineFireflies} {
		assert.Equal(t, frame, byKey[key].BindGroupLayoutDescriptors()[0], key)
	}
}

func TestNewStageResidency(t *testing.T) {
	gpu, st, s := newTestStage(t)

	assert.Equal(t, []string{PipelineShadow, PipelineSky, PipelineLit, PipelineMist, PipelineFireflies}, gpu.pipelines)
	assert.Equal(t, 3, s.DrawableCount())
	assert.False(t, s.SkyReady())

	assert.Equal(t, 1, gpu.groups["frame/lit/0"])
	assert.Equal(t, 1, gpu.groups["shadow frame/shadow/0"])
	assert.Equal(t, 1, gpu.groups["floor/lit/1"])
	assert.Zero(t, gpu.groups["floor shadow/shadow/1"], "the floor only receives shadows")
	assert.Equal(t, 1, gpu.groups["pedestal shadow/shadow/1"])
	assert.Equal(t, 1, gpu.groups["bushes shadow/shadow/1"])
	assert.Equal(t, 1, gpu.groups["mist/mist/1"])
	assert.Equal(t, 1, gpu.groups["fireflies/fireflies/1"])

	// Fallback maps until the floor textures arrive.
	assert.Contains(t, gpu.textures, "floor/2/1x1")
	assert.Contains(t, gpu.textures, "floor/4/1x1")
	assert.Equal(t, st.Bushes.Instances.Len()*64, gpu.writes["bushes/1"])
	assert.Equal(t, 64, gpu.writes["floor/1"])
}

func TestPrepareWritesStaticUniformsOnRevisionChange(t *testing.T) {
	gpu, st, s := newTestStage(t)

	require.NoError(t, s.Prepare())
	assert.Equal(t, 528, gpu.writes["frame/2"])
	assert.Equal(t, 80, gpu.writes["frame/3"])
	assert.Equal(t, 208, gpu.writes["frame/0"])
	assert.Equal(t, 32, gpu.writes["frame/1"])
	assert.Equal(t, 112, gpu.writes["pedestal/0"])
	assert.Equal(t, 80, gpu.writes["mist/0"])
	assert.Equal(t, 96, gpu.writes["fireflies/0"])
	assert.Equal(t, 500*16, gpu.writes["fireflies/1"])

	clear(gpu.writes)
	require.NoError(t, s.Prepare())
	assert.NotContains(t, gpu.writes, "frame/2")
	assert.NotContains(t, gpu.writes, "fireflies/1", "particles upload only when dirty")
	assert.Contains(t, gpu.writes, "frame/0")
	assert.Contains(t, gpu.writes, "mist/0")

	st.Fireflies.Buffer.MarkDirty()
	st.Enqueue(func(st *scene.State) { st.Fog.Density = 0.05 })
	st.ApplyPending()
	clear(gpu.writes)
	require.NoError(t, s.Prepare())
	assert.Contains(t, gpu.writes, "frame/2")
	assert.Contains(t, gpu.writes, "fireflies/1")
}

func TestPrepareMakesArrivedAssetsResident(t *testing.T) {
	gpu, st, s := newTestStage(t)
	require.NoError(t, s.Prepare())

	statue := &loader.Model{
		Name: "statue",
		Meshes: []loader.ModelMesh{
			{Name: "body", Mesh: geometry.Icosahedron(1), Material: 0},
			{Mesh: geometry.Icosahedron(1), Material: 5},
		},
		Materials: []*loader.Material{loader.DefaultMaterial()},
	}
	env := &loader.HDRImage{Name: "night", Width: 2, Height: 1, Pixels: []float32{1, 1, 1, 1, 1, 1}}
	colorMap := loader.SolidTexture("floor color", 10, 20, 30, 255, true)

	st.Enqueue(func(st *scene.State) { st.Statue = statue })
	st.Enqueue(func(st *scene.State) { st.Environment.Image = env })
	st.Enqueue(func(st *scene.State) { st.Floor.Surface.ColorMap = colorMap })
	st.ApplyPending()
	require.NoError(t, s.Prepare())

	assert.Equal(t, 5, s.DrawableCount())
	assert.True(t, s.SkyReady())
	assert.Contains(t, gpu.textures, "sky/0/2x1")
	assert.Equal(t, 1, gpu.groups["sky/sky/1"])
	assert.Equal(t, 1, gpu.groups["statue/1 shadow/shadow/1"])
	assert.Equal(t, 2, gpu.groups["floor/lit/1"], "the floor group is rebuilt around its new map")
	assert.Equal(t, 1, gpu.groups["pedestal/lit/1"])

	// A second Prepare with no new revision uploads nothing.
	textures := len(gpu.textures)
	require.NoError(t, s.Prepare())
	assert.Len(t, gpu.textures, textures)
}

func TestRecordPassOrder(t *testing.T) {
	gpu, st, s := newTestStage(t)
	require.NoError(t, s.Prepare())
	require.NoError(t, s.Record())

	assert.Equal(t, []string{
		"begin shadow",
		"shadow pedestal shadow x1",
		"shadow bushes shadow x80",
		"end",
		"begin scene",
		"lit floor x1",
		"lit pedestal x1",
		"lit bushes x80",
		"mist mist x1",
		"fireflies 6 x500",
		"end",
	}, gpu.calls)

	st.Enqueue(func(st *scene.State) {
		st.Environment.Image = &loader.HDRImage{Width: 1, Height: 1, Pixels: []float32{0, 0, 0}}
	})
	st.ApplyPending()
	require.NoError(t, s.Prepare())
	gpu.calls = nil
	require.NoError(t, s.Record())
	assert.Equal(t, "sky 3 x1", gpu.calls[5], "the sky is drawn first in the scene pass")
}

func TestRecordClosesPassOnDrawError(t *testing.T) {
	gpu, _, s := newTestStage(t)
	gpu.drawErr = errors.New("boom")

	err := s.Record()
	require.ErrorIs(t, err, gpu.drawErr)
	assert.Equal(t, []string{"begin shadow", "end"}, gpu.calls)
}
