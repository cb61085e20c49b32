package shader

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// ShaderType identifies the pipeline stage a shader is compiled for.
type ShaderType int

const (
	// ShaderTypeVertex is the vertex stage of a render pipeline.
	ShaderTypeVertex ShaderType = iota

	// ShaderTypeFragment is the fragment stage, paired with a vertex shader.
	ShaderTypeFragment
)

// shader is the implementation of the Shader interface.
type shader struct {
	key        string
	source     string
	shaderType ShaderType
	reflection reflection
}

// Shader is one stage of a WGSL source together with the layout metadata reflected from it.
// A vertex and a fragment Shader may share the same source; each reflects its own entry point.
type Shader interface {
	// Key returns the unique identifier of the shader, used as its module label.
	//
	// Returns:
	//   - string: the shader key
	Key() string

	// Source returns the WGSL source code.
	//
	// Returns:
	//   - string: the WGSL source
	Source() string

	// ShaderType returns the stage this shader is compiled for.
	//
	// Returns:
	//   - ShaderType: ShaderTypeVertex or ShaderTypeFragment
	ShaderType() ShaderType

	// EntryPoint returns the name of the @vertex or @fragment function.
	//
	// Returns:
	//   - string: the entry point name
	EntryPoint() string

	// BindGroupLayoutDescriptors returns the reflected bind group layouts keyed by group index.
	// Every entry is visible to this shader's stage only; pipelines merge the stages.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group index
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// BindingName returns the variable name declared at a group and binding, or "".
	//
	// Parameters:
	//   - group: the bind group index
	//   - binding: the binding index within the group
	//
	// Returns:
	//   - string: the variable name
	BindingName(group, binding int) string

	// Binding looks up the binding index of a variable by name within a group.
	//
	// Parameters:
	//   - group: the bind group index
	//   - name: the variable name
	//
	// Returns:
	//   - int: the binding index, or -1
	//   - bool: whether the variable was found
	Binding(group int, name string) (int, bool)

	// VertexLayouts returns the vertex buffer layouts reflected from the vertex input structs,
	// in declaration order. Empty for fragment shaders and for vertex shaders that pull their
	// data from storage buffers.
	//
	// Returns:
	//   - []wgpu.VertexBufferLayout: the vertex buffer layouts
	VertexLayouts() []wgpu.VertexBufferLayout

	// StructSize returns the host-shareable size in bytes of a struct declared in the source.
	//
	// Parameters:
	//   - name: the struct name
	//
	// Returns:
	//   - uint64: the size in bytes
	//   - bool: whether the struct is declared and resolvable
	StructSize(name string) (uint64, bool)
}

var _ Shader = &shader{}

// NewShader reflects a WGSL source for the given stage.
//
// Parameters:
//   - key: a unique identifier for the shader
//   - shaderType: the stage to reflect
//   - source: the WGSL source code
//
// Returns:
//   - Shader: the reflected shader
//   - error: if the source has no entry point for the stage
func NewShader(key string, shaderType ShaderType, source string) (Shader, error) {
	s := &shader{
		key:        key,
		source:     source,
		shaderType: shaderType,
		reflection: reflect(source, shaderType),
	}
	if s.reflection.entryPoint == "" {
		return nil, fmt.Errorf("shader %s: no entry point for stage %d", key, shaderType)
	}
	return s, nil
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) ShaderType() ShaderType {
	return s.shaderType
}

func (s *shader) EntryPoint() string {
	return s.reflection.entryPoint
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return s.reflection.bindGroups
}

func (s *shader) BindingName(group, binding int) string {
	return s.reflection.bindingNames[group][binding]
}

func (s *shader) Binding(group int, name string) (int, bool) {
	for binding, n := range s.reflection.bindingNames[group] {
		if n == name {
			return binding, true
		}
	}
	return -1, false
}

func (s *shader) VertexLayouts() []wgpu.VertexBufferLayout {
	return s.reflection.vertexLayouts
}

func (s *shader) StructSize(name string) (uint64, bool) {
	l, ok := s.reflection.structSizes[name]
	return l.size, ok
}
