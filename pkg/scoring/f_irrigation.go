package scoring

import (
	"fmt"

	"github.com/cropscope/cropscope/pkg/farm"
)

// IrrigationFactor grants a fixed bonus when the farm has irrigation that
// gives at least the water control the crop prefers.
type IrrigationFactor struct {
	Bonus float64
}

func (f *IrrigationFactor) Key() string  { return KeyIrrigation }
func (f *IrrigationFactor) Name() string { return "Irrigation access" }

func (f *IrrigationFactor) Evaluate(fc *farm.FarmContext, crop *farm.CropProfile, _ *farm.Catalog) FactorResult {
	result := FactorResult{Key: f.Key(), Name: f.Name(), Kind: KindBonus}

	switch {
	case fc.Irrigation == farm.IrrigationNone:
		result.Evidence = append(result.Evidence, EvidenceItem{
			Type:    EvidenceIrrigation,
			Summary: "rainfed field",
		})
	case fc.Irrigation.Satisfies(crop.PreferredIrrigation):
		result.Contribution = f.Bonus
		result.Evidence = append(result.Evidence, EvidenceItem{
			Type:    EvidenceIrrigation,
			Summary: fmt.Sprintf("%s irrigation meets %s's preferred %s", fc.Irrigation, crop.Name, crop.PreferredIrrigation),
		})
	default:
		result.Evidence = append(result.Evidence, EvidenceItem{
			Type:    EvidenceIrrigation,
			Summary: fmt.Sprintf("%s irrigation falls short of preferred %s", fc.Irrigation, crop.PreferredIrrigation),
		})
	}
	return result
}
