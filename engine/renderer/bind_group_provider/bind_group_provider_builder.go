package bind_group_provider

import "github.com/cogentcore/webgpu/wgpu"

// BindGroupProviderOption is a functional option used to configure a BindGroupProvider during construction.
type BindGroupProviderOption func(*bindGroupProvider)

// WithBuffer sets a buffer for a specific binding index.
//
// Parameters:
//   - binding: the binding index for this buffer
//   - buf: the buffer to associate with this binding
//
// Returns:
//   - BindGroupProviderOption: a function that sets the buffer for the specified binding
func WithBuffer(binding int, buf *wgpu.Buffer) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.SetBuffer(binding, buf)
	}
}

// WithBorrowedBuffers shares buffers owned by another provider. The shadow pass uses this to bind
// the object data of a lit drawable without a second upload.
//
// Parameters:
//   - buffers: a map of binding indices to borrowed buffers
//
// Returns:
//   - BindGroupProviderOption: a function that stores the borrowed buffers
func WithBorrowedBuffers(buffers map[int]*wgpu.Buffer) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		for binding, buf := range buffers {
			p.BorrowBuffer(binding, buf)
		}
	}
}

// WithIndexCount sets the index count of a provider whose mesh buffers are created later.
func WithIndexCount(count int) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.indexCount = count
	}
}
