package model

// Material is one harvested material slot. Texture references are indices
// into Model.Textures; nil means the channel has no texture. Defaults
// describe a physically-neutral dielectric.
type Material struct {
	// Index is the source document's material index, or nil for the default
	// material synthesized for primitives with no material reference.
	Index *uint32

	Color                    [3]float32
	ColorTexture             *uint32
	Metallic                 float32
	Roughness                float32
	MetallicRoughnessTexture *uint32
	NormalScale              float32
	NormalTexture            *uint32
	Emission                 [3]float32
	EmissionTexture          *uint32

	Absorption          [3]float32
	Transmission        float32
	TransmissionTexture *uint32
	Eta                 float32

	Subsurface   float32
	Specular     float32
	SpecularTint [3]float32
	Anisotropic  float32

	Sheen            float32
	SheenTexture     *uint32
	SheenTint        [3]float32
	SheenTintTexture *uint32

	Clearcoat                 float32
	ClearcoatTexture          *uint32
	ClearcoatRoughness        float32
	ClearcoatRoughnessTexture *uint32
	ClearcoatNormalTexture    *uint32

	IsOpaque    bool
	AlphaCutoff float32
}

// DefaultMaterial returns the neutral dielectric: white base color, fully
// rough-ish (0.5), non-metallic, eta = 1/1.5, opaque, no textures.
func DefaultMaterial() Material {
	return Material{
		Color:        [3]float32{1, 1, 1},
		Metallic:     0,
		Roughness:    0.5,
		NormalScale:  1,
		Eta:          1.0 / 1.5,
		SpecularTint: [3]float32{1, 1, 1},
		SheenTint:    [3]float32{1, 1, 1},
		IsOpaque:     true,
		AlphaCutoff:  0,
	}
}

// IsEmissive reports whether any emission channel is positive.
func (m *Material) IsEmissive() bool {
	return m.Emission[0] > 0 || m.Emission[1] > 0 || m.Emission[2] > 0
}
