package loader

import (
	"fmt"

	"github.com/google/uuid"
)

// DecodeGLTF builds a Model from GLB or glTF JSON bytes.
// Primitives without a material get an appended DefaultMaterial.
//
// Parameters:
//   - data: the file contents
//   - name: the model name
//   - baseDir: the directory external buffers and images resolve against
//   - maxTextureSize: downscale limit for embedded textures, 0 for none
//
// Returns:
//   - *Model: the model with node transforms applied
//   - error: ErrInvalidGLBMagic for non-glTF data, or the failing stage
func DecodeGLTF(data []byte, name, baseDir string, maxTextureSize int) (*Model, error) {
	p, err := parseGLTFBytes(data, baseDir)
	if err != nil {
		return nil, err
	}
	return p.importModel(name, maxTextureSize)
}

func (p *gltfParser) importModel(name string, maxTextureSize int) (*Model, error) {
	meshes, err := p.extractMeshes()
	if err != nil {
		return nil, fmt.Errorf("failed to extract meshes: %w", err)
	}
	materials, err := p.extractMaterials(maxTextureSize)
	if err != nil {
		return nil, fmt.Errorf("failed to extract materials: %w", err)
	}

	fallback := -1
	for i := range meshes {
		if meshes[i].Material >= 0 && meshes[i].Material < len(materials) {
			continue
		}
		if fallback < 0 {
			fallback = len(materials)
			materials = append(materials, DefaultMaterial())
		}
		meshes[i].Material = fallback
	}

	return &Model{
		ID:        uuid.New(),
		Name:      name,
		Meshes:    meshes,
		Materials: materials,
	}, nil
}
