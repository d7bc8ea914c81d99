package scoring

import (
	"fmt"

	"github.com/cropscope/cropscope/pkg/farm"
)

// RotationFactor rewards a break crop: one from a different family than the
// crop grown most recently. History entries unknown to the catalog earn
// nothing.
type RotationFactor struct {
	Bonus float64
}

func (f *RotationFactor) Key() string  { return KeyRotation }
func (f *RotationFactor) Name() string { return "Rotation break" }

func (f *RotationFactor) Evaluate(fc *farm.FarmContext, crop *farm.CropProfile, cat *farm.Catalog) FactorResult {
	result := FactorResult{Key: f.Key(), Name: f.Name(), Kind: KindBonus}

	last, ok := fc.MostRecent()
	if !ok || cat == nil {
		return result
	}
	prev, known := cat.Crop(last.CropID)
	if !known {
		result.Evidence = append(result.Evidence, EvidenceItem{
			Type:    EvidenceRotation,
			Summary: fmt.Sprintf("previous crop %q not in catalog", last.CropID),
		})
		return result
	}
	if prev.Family == crop.Family {
		return result
	}

	result.Contribution = f.Bonus
	result.Evidence = append(result.Evidence, EvidenceItem{
		Type:    EvidenceRotation,
		Summary: fmt.Sprintf("%s (%s) breaks the %s cycle of %s", crop.Name, crop.Family, prev.Family, prev.Name),
		Value:   float64(last.SeasonsAgo),
	})
	return result
}
