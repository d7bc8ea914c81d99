package scoring

import (
	"fmt"
	"math"

	"github.com/cropscope/cropscope/pkg/farm"
)

// AgronomicFactor penalizes soil and season mismatch. All fields are
// non-positive.
type AgronomicFactor struct {
	SoilAcceptable float64
	SoilMismatch   float64
	SeasonMismatch float64
	Floor          float64
}

func (f *AgronomicFactor) Key() string  { return KeyAgronomic }
func (f *AgronomicFactor) Name() string { return "Agronomic fit" }

func (f *AgronomicFactor) Evaluate(fc *farm.FarmContext, crop *farm.CropProfile, _ *farm.Catalog) FactorResult {
	result := FactorResult{Key: f.Key(), Name: f.Name(), Kind: KindPenalty}

	var penalty float64
	switch ideal, acceptable := crop.SoilFit(fc.SoilType); {
	case ideal:
	case acceptable:
		penalty += f.SoilAcceptable
		result.Evidence = append(result.Evidence, EvidenceItem{
			Type:    EvidenceSoil,
			Summary: fmt.Sprintf("%s soil is acceptable but not ideal for %s", fc.SoilType, crop.Name),
			Value:   f.SoilAcceptable,
		})
	default:
		penalty += f.SoilMismatch
		result.Evidence = append(result.Evidence, EvidenceItem{
			Type:    EvidenceSoil,
			Summary: fmt.Sprintf("%s soil does not suit %s", fc.SoilType, crop.Name),
			Value:   f.SoilMismatch,
		})
	}

	if !crop.GrowsIn(fc.Season) {
		penalty += f.SeasonMismatch
		result.Evidence = append(result.Evidence, EvidenceItem{
			Type:    EvidenceSeason,
			Summary: fmt.Sprintf("%s is not sown in %s", crop.Name, fc.Season),
			Value:   f.SeasonMismatch,
		})
	}

	result.Contribution = math.Max(penalty, f.Floor)
	return result
}
