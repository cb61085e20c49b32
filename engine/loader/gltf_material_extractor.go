package loader

import (
	"bytes"
	"fmt"

	"github.com/Carmen-Shannon/moonlit/common"
)

// extractMaterials converts every document material. Textures referenced by several materials are
// decoded once. A texture that cannot be decoded is reported as an error rather than dropped.
func (p *gltfParser) extractMaterials(maxTextureSize int) ([]*Material, error) {
	cache := make(map[[2]int]*Texture)
	out := make([]*Material, len(p.doc.Materials))
	for i := range p.doc.Materials {
		src := &p.doc.Materials[i]
		mat := DefaultMaterial()
		mat.Name = src.Name
		mat.DoubleSided = src.DoubleSided
		if src.EmissiveFactor != nil {
			mat.Emissive = *src.EmissiveFactor
		}

		var err error
		if pbr := src.PbrMetallicRoughness; pbr != nil {
			if pbr.BaseColorFactor != nil {
				mat.BaseColor = *pbr.BaseColorFactor
			}
			if pbr.MetallicFactor != nil {
				mat.Metallic = *pbr.MetallicFactor
			}
			if pbr.RoughnessFactor != nil {
				mat.Roughness = *pbr.RoughnessFactor
			}
			if mat.BaseColorTexture, err = p.materialTexture(cache, pbr.BaseColorTexture, true, maxTextureSize); err != nil {
				return nil, fmt.Errorf("material %d base color: %w", i, err)
			}
			if mat.MetallicRoughnessTexture, err = p.materialTexture(cache, pbr.MetallicRoughnessTexture, false, maxTextureSize); err != nil {
				return nil, fmt.Errorf("material %d metallic-roughness: %w", i, err)
			}
		}
		if mat.NormalTexture, err = p.materialTexture(cache, src.NormalTexture, false, maxTextureSize); err != nil {
			return nil, fmt.Errorf("material %d normal: %w", i, err)
		}
		out[i] = mat
	}
	return out, nil
}

func (p *gltfParser) materialTexture(cache map[[2]int]*Texture, info *gltfTextureInfo, srgb bool, maxSize int) (*Texture, error) {
	if info == nil {
		return nil, nil
	}
	key := [2]int{info.Index, 0}
	if srgb {
		key[1] = 1
	}
	if tex, ok := cache[key]; ok {
		return tex, nil
	}
	tex, err := p.loadTexture(info.Index, srgb, maxSize)
	if err != nil {
		return nil, err
	}
	cache[key] = tex
	return tex, nil
}

// loadTexture decodes the image behind a glTF texture from a buffer view, a data URI or a file
// next to the asset. glTF UVs have v = 0 at the top of the image, so rows are not flipped.
func (p *gltfParser) loadTexture(index int, srgb bool, maxSize int) (*Texture, error) {
	if index < 0 || index >= len(p.doc.Textures) {
		return nil, fmt.Errorf("texture index %d out of range", index)
	}
	tex := &p.doc.Textures[index]
	if tex.Source == nil {
		return nil, nil
	}
	if *tex.Source < 0 || *tex.Source >= len(p.doc.Images) {
		return nil, fmt.Errorf("image index %d out of range", *tex.Source)
	}
	img := &p.doc.Images[*tex.Source]

	var data []byte
	var err error
	switch {
	case img.BufferView != nil:
		data, err = p.bufferView(*img.BufferView)
	case img.URI != "":
		data, err = p.readURI(img.URI)
	default:
		return nil, fmt.Errorf("image %d has neither bufferView nor uri", *tex.Source)
	}
	if err != nil {
		return nil, fmt.Errorf("image %d: %w", *tex.Source, err)
	}

	opts := TextureOptions{SRGB: srgb, MaxSize: maxSize, Wrap: common.WrapRepeat}
	sampler := common.SamplerStagingData{WrapU: common.WrapRepeat, WrapV: common.WrapRepeat}
	if tex.Sampler != nil && *tex.Sampler >= 0 && *tex.Sampler < len(p.doc.Samplers) {
		sampler = gltfSamplerToStagingData(&p.doc.Samplers[*tex.Sampler])
	}

	name := img.Name
	if name == "" {
		name = fmt.Sprintf("image_%d", *tex.Source)
	}
	decoded, err := DecodeTexture(bytes.NewReader(data), name, opts)
	if err != nil {
		return nil, err
	}
	decoded.Sampler = sampler
	return decoded, nil
}

// gltfSamplerToStagingData converts a glTF sampler; unset fields keep the glTF defaults (repeat, linear).
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-sampler
func gltfSamplerToStagingData(s *gltfSampler) common.SamplerStagingData {
	out := common.SamplerStagingData{WrapU: common.WrapRepeat, WrapV: common.WrapRepeat}
	if s.WrapS != nil {
		out.WrapU = gltfWrapMode(*s.WrapS)
	}
	if s.WrapT != nil {
		out.WrapV = gltfWrapMode(*s.WrapT)
	}
	if s.MagFilter != nil && *s.MagFilter == gltfFilterNearest {
		out.Nearest = true
	}
	return out
}

func gltfWrapMode(wrap int) common.WrapMode {
	switch wrap {
	case gltfWrapClampToEdge:
		return common.WrapClampToEdge
	case gltfWrapMirroredRepeat:
		return common.WrapMirrorRepeat
	default:
		return common.WrapRepeat
	}
}
