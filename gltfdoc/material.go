package gltfdoc

import (
	"encoding/json"
	"math"

	"github.com/qmuntal/gltf"

	"github.com/packforge/modelpack/convert"
)

// KHR material extension identifiers.
const (
	extNameEmissiveStrength = "KHR_materials_emissive_strength"
	extNameIOR              = "KHR_materials_ior"
	extNameTransmission     = "KHR_materials_transmission"
	extNameVolume           = "KHR_materials_volume"
	extNameSpecular         = "KHR_materials_specular"
	extNameClearcoat        = "KHR_materials_clearcoat"
	extNameSheen            = "KHR_materials_sheen"
	extNameTextureTransform = "KHR_texture_transform"
)

type extTextureInfo struct {
	Index      int                        `json:"index"`
	Extensions map[string]json.RawMessage `json:"extensions"`
}

type extEmissiveStrength struct {
	EmissiveStrength *float32 `json:"emissiveStrength"`
}

type extIOR struct {
	IOR *float32 `json:"ior"`
}

type extTransmission struct {
	TransmissionFactor  float32         `json:"transmissionFactor"`
	TransmissionTexture *extTextureInfo `json:"transmissionTexture"`
}

type extVolume struct {
	AttenuationColor    *[3]float32 `json:"attenuationColor"`
	AttenuationDistance *float32    `json:"attenuationDistance"`
}

type extSpecular struct {
	SpecularFactor      *float32    `json:"specularFactor"`
	SpecularColorFactor *[3]float32 `json:"specularColorFactor"`
}

type extClearcoat struct {
	ClearcoatFactor           float32         `json:"clearcoatFactor"`
	ClearcoatTexture          *extTextureInfo `json:"clearcoatTexture"`
	ClearcoatRoughnessFactor  float32         `json:"clearcoatRoughnessFactor"`
	ClearcoatRoughnessTexture *extTextureInfo `json:"clearcoatRoughnessTexture"`
	ClearcoatNormalTexture    *extTextureInfo `json:"clearcoatNormalTexture"`
}

type extSheen struct {
	SheenColorFactor      *[3]float32     `json:"sheenColorFactor"`
	SheenColorTexture     *extTextureInfo `json:"sheenColorTexture"`
	SheenRoughnessFactor  float32         `json:"sheenRoughnessFactor"`
	SheenRoughnessTexture *extTextureInfo `json:"sheenRoughnessTexture"`
}

type extTextureTransform struct {
	Offset *[2]float32 `json:"offset"`
	Scale  *[2]float32 `json:"scale"`
}

func (imp *importer) extractMaterials() []convert.SourceMaterial {
	materials := make([]convert.SourceMaterial, len(imp.src.Materials))
	for i, gm := range imp.src.Materials {
		materials[i] = imp.extractMaterial(gm)
	}
	return materials
}

// extractMaterial maps one glTF material onto the source material contract,
// pre-resolving every optional extension to its spec default so the harvest
// downstream is a plain field mapping. Malformed extension payloads are
// ignored rather than fatal.
func (imp *importer) extractMaterial(gm *gltf.Material) convert.SourceMaterial {
	m := convert.SourceMaterial{
		BaseColorFactor:     [4]float32{1, 1, 1, 1},
		MetallicFactor:      1,
		RoughnessFactor:     1,
		NormalScale:         1,
		EmissiveStrength:    1,
		AttenuationColor:    [3]float32{1, 1, 1},
		AttenuationDistance: float32(math.Inf(1)),
		IOR:                 1.5,
		SpecularFactor:      1,
		SpecularColorFactor: [3]float32{1, 1, 1},
	}

	if pbr := gm.PBRMetallicRoughness; pbr != nil {
		c := pbr.BaseColorFactorOrDefault()
		m.BaseColorFactor = [4]float32{float32(c[0]), float32(c[1]), float32(c[2]), float32(c[3])}
		m.MetallicFactor = float32(pbr.MetallicFactorOrDefault())
		m.RoughnessFactor = float32(pbr.RoughnessFactorOrDefault())
		m.BaseColorTexture = imp.textureInfoRef(pbr.BaseColorTexture)
		m.MetallicRoughnessTexture = imp.textureInfoRef(pbr.MetallicRoughnessTexture)
	}

	if nt := gm.NormalTexture; nt != nil && nt.Index != nil {
		m.NormalScale = float32(nt.ScaleOrDefault())
		off, scale := transformOf(nt.Extensions)
		m.NormalTexture = imp.resolveTexture(*nt.Index, off, scale)
	}

	ef := gm.EmissiveFactor
	m.EmissiveFactor = [3]float32{float32(ef[0]), float32(ef[1]), float32(ef[2])}
	m.EmissiveTexture = imp.textureInfoRef(gm.EmissiveTexture)

	var strength extEmissiveStrength
	if decodeExtension(gm.Extensions, extNameEmissiveStrength, &strength) && strength.EmissiveStrength != nil {
		m.EmissiveStrength = *strength.EmissiveStrength
	}

	var ior extIOR
	if decodeExtension(gm.Extensions, extNameIOR, &ior) && ior.IOR != nil {
		m.IOR = *ior.IOR
	}

	var transmission extTransmission
	if decodeExtension(gm.Extensions, extNameTransmission, &transmission) {
		m.TransmissionFactor = transmission.TransmissionFactor
		m.TransmissionTexture = imp.extTextureRef(transmission.TransmissionTexture)
	}

	var volume extVolume
	if decodeExtension(gm.Extensions, extNameVolume, &volume) {
		m.HasVolume = true
		if volume.AttenuationColor != nil {
			m.AttenuationColor = *volume.AttenuationColor
		}
		if volume.AttenuationDistance != nil {
			m.AttenuationDistance = *volume.AttenuationDistance
		}
	}

	var specular extSpecular
	if decodeExtension(gm.Extensions, extNameSpecular, &specular) {
		m.HasSpecular = true
		if specular.SpecularFactor != nil {
			m.SpecularFactor = *specular.SpecularFactor
		}
		if specular.SpecularColorFactor != nil {
			m.SpecularColorFactor = *specular.SpecularColorFactor
		}
	}

	var clearcoat extClearcoat
	if decodeExtension(gm.Extensions, extNameClearcoat, &clearcoat) {
		m.HasClearcoat = true
		m.ClearcoatFactor = clearcoat.ClearcoatFactor
		m.ClearcoatTexture = imp.extTextureRef(clearcoat.ClearcoatTexture)
		m.ClearcoatRoughnessFactor = clearcoat.ClearcoatRoughnessFactor
		m.ClearcoatRoughnessTexture = imp.extTextureRef(clearcoat.ClearcoatRoughnessTexture)
		m.ClearcoatNormalTexture = imp.extTextureRef(clearcoat.ClearcoatNormalTexture)
	}

	var sheen extSheen
	if decodeExtension(gm.Extensions, extNameSheen, &sheen) {
		m.HasSheen = true
		if sheen.SheenColorFactor != nil {
			m.SheenColorFactor = *sheen.SheenColorFactor
		}
		m.SheenColorTexture = imp.extTextureRef(sheen.SheenColorTexture)
		m.SheenRoughnessFactor = sheen.SheenRoughnessFactor
		m.SheenRoughnessTexture = imp.extTextureRef(sheen.SheenRoughnessTexture)
	}

	switch gm.AlphaMode {
	case gltf.AlphaMask:
		m.AlphaMode = convert.AlphaMask
	case gltf.AlphaBlend:
		m.AlphaMode = convert.AlphaBlend
	default:
		m.AlphaMode = convert.AlphaOpaque
	}
	if gm.AlphaCutoff != nil {
		cutoff := float32(*gm.AlphaCutoff)
		m.AlphaCutoff = &cutoff
	}

	return m
}

// textureInfoRef resolves a plain glTF texture reference, including its UV
// transform extension.
func (imp *importer) textureInfoRef(info *gltf.TextureInfo) *convert.TextureRef {
	if info == nil {
		return nil
	}
	off, scale := transformOf(info.Extensions)
	return imp.resolveTexture(info.Index, off, scale)
}

// extTextureRef resolves a texture reference embedded in a material
// extension payload.
func (imp *importer) extTextureRef(info *extTextureInfo) *convert.TextureRef {
	if info == nil {
		return nil
	}
	off, scale := transformOfRaw(info.Extensions)
	return imp.resolveTexture(info.Index, off, scale)
}

// resolveTexture maps a texture index to its source image. Dangling or
// source-less references resolve to nil, matching an absent channel.
func (imp *importer) resolveTexture(texIdx int, uvOffset, uvScale [2]float32) *convert.TextureRef {
	if texIdx < 0 || texIdx >= len(imp.src.Textures) {
		return nil
	}
	tex := imp.src.Textures[texIdx]
	if tex.Source == nil {
		return nil
	}
	img := *tex.Source
	if img < 0 || img >= len(imp.src.Images) {
		return nil
	}
	return &convert.TextureRef{
		Image:    img,
		Name:     tex.Name,
		UVOffset: uvOffset,
		UVScale:  uvScale,
	}
}

func transformOf(ext gltf.Extensions) ([2]float32, [2]float32) {
	var tr extTextureTransform
	decodeExtension(ext, extNameTextureTransform, &tr)
	return transformOrIdentity(tr)
}

func transformOfRaw(ext map[string]json.RawMessage) ([2]float32, [2]float32) {
	var tr extTextureTransform
	if raw, ok := ext[extNameTextureTransform]; ok {
		_ = json.Unmarshal(raw, &tr)
	}
	return transformOrIdentity(tr)
}

func transformOrIdentity(tr extTextureTransform) ([2]float32, [2]float32) {
	offset := [2]float32{0, 0}
	scale := [2]float32{1, 1}
	if tr.Offset != nil {
		offset = *tr.Offset
	}
	if tr.Scale != nil {
		scale = *tr.Scale
	}
	return offset, scale
}

// decodeExtension unmarshals a named extension payload into out. The parser
// leaves unregistered extensions as raw JSON; anything else is re-marshaled
// first. Reports whether the extension was present and well-formed.
func decodeExtension(ext gltf.Extensions, name string, out any) bool {
	v, ok := ext[name]
	if !ok {
		return false
	}
	switch raw := v.(type) {
	case json.RawMessage:
		return json.Unmarshal(raw, out) == nil
	case []byte:
		return json.Unmarshal(raw, out) == nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return false
		}
		return json.Unmarshal(b, out) == nil
	}
}
