package convert

import (
	"fmt"
)

// harvestMaterial resolves a primitive's material reference to an output
// slot, populating the slot's parameters on first reference. A nil reference
// resolves to slot 0 with neutral defaults. Harvesting is idempotent: once a
// slot is populated, later references are plain lookups.
//
// Parameters:
//   - ref: the primitive's source material index, or nil
//
// Returns:
//   - uint32: the material slot referenced by the primitive's triangles
//   - error: fatal error from texture slot reservation
func (b *builder) harvestMaterial(ref *int) (uint32, error) {
	slot := uint32(0)
	if ref != nil {
		if *ref < 0 || *ref >= len(b.doc.Materials) {
			return 0, fmt.Errorf("material index %d out of range", *ref)
		}
		slot = uint32(*ref)
	}

	if b.harvested[slot] {
		return slot, nil
	}
	b.harvested[slot] = true

	mat := &b.materials[slot]
	slotIdx := slot
	mat.Index = &slotIdx

	if ref == nil {
		// No source material: the slot keeps its neutral defaults, with the
		// opaque-mode alpha interpretation of an absent material.
		mat.AlphaCutoff = 0.5
		mat.IsOpaque = true
		return slot, nil
	}

	src := &b.doc.Materials[*ref]

	mat.Color = [3]float32{src.BaseColorFactor[0], src.BaseColorFactor[1], src.BaseColorFactor[2]}
	mat.Metallic = src.MetallicFactor
	mat.Roughness = src.RoughnessFactor

	// Adapters pre-resolve extension defaults; an unset strength or IOR in a
	// hand-built document still means "absent", not zero.
	strength := src.EmissiveStrength
	if strength == 0 {
		strength = 1
	}
	mat.Emission = [3]float32{
		src.EmissiveFactor[0] * strength,
		src.EmissiveFactor[1] * strength,
		src.EmissiveFactor[2] * strength,
	}

	if src.HasVolume {
		mat.Absorption = [3]float32{
			(1 - src.AttenuationColor[0]) / src.AttenuationDistance,
			(1 - src.AttenuationColor[1]) / src.AttenuationDistance,
			(1 - src.AttenuationColor[2]) / src.AttenuationDistance,
		}
	}

	mat.Transmission = src.TransmissionFactor
	mat.TransmissionTexture = b.reserveTexture(src.TransmissionTexture, false)

	ior := src.IOR
	if ior == 0 {
		ior = 1.5
	}
	mat.Eta = 1 / ior

	if src.HasSpecular {
		mat.Specular = src.SpecularFactor
		mat.SpecularTint = src.SpecularColorFactor
	}

	if src.HasClearcoat {
		mat.Clearcoat = src.ClearcoatFactor
		mat.ClearcoatTexture = b.reserveTexture(src.ClearcoatTexture, false)
		mat.ClearcoatRoughness = src.ClearcoatRoughnessFactor
		mat.ClearcoatRoughnessTexture = b.reserveTexture(src.ClearcoatRoughnessTexture, false)
		mat.ClearcoatNormalTexture = b.reserveTexture(src.ClearcoatNormalTexture, true)
	}

	if src.HasSheen {
		mat.Sheen = src.SheenRoughnessFactor
		mat.SheenTexture = b.reserveTexture(src.SheenRoughnessTexture, false)
		mat.SheenTint = src.SheenColorFactor
		mat.SheenTintTexture = b.reserveTexture(src.SheenColorTexture, false)
	}

	mat.AlphaCutoff = 0.5
	if src.AlphaCutoff != nil {
		mat.AlphaCutoff = *src.AlphaCutoff
	}
	mat.IsOpaque = src.AlphaMode == AlphaOpaque || mat.AlphaCutoff == 0

	mat.ColorTexture = b.reserveTexture(src.BaseColorTexture, false)

	if src.NormalTexture != nil {
		mat.NormalScale = src.NormalScale
		mat.NormalTexture = b.reserveTexture(src.NormalTexture, true)
	}

	mat.MetallicRoughnessTexture = b.reserveTexture(src.MetallicRoughnessTexture, false)
	mat.EmissionTexture = b.reserveTexture(src.EmissiveTexture, false)

	return slot, nil
}
