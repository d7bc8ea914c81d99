package scoring

import (
	"fmt"
	"math"

	"github.com/cropscope/cropscope/pkg/farm"
)

// VegetationFactor rewards a field whose vegetation index exceeds the crop's
// minimum healthy threshold.
type VegetationFactor struct {
	Slope float64 // points per unit of index above threshold
	Cap   float64
}

func (f *VegetationFactor) Key() string  { return KeyVegetation }
func (f *VegetationFactor) Name() string { return "Vegetation health" }

func (f *VegetationFactor) Evaluate(fc *farm.FarmContext, crop *farm.CropProfile, _ *farm.Catalog) FactorResult {
	result := FactorResult{Key: f.Key(), Name: f.Name(), Kind: KindBonus}

	if fc.VegetationIndex == nil {
		result.Evidence = append(result.Evidence, EvidenceItem{
			Type:    EvidenceVegetation,
			Summary: "vegetation index not supplied",
		})
		return result
	}

	ndvi := *fc.VegetationIndex
	excess := ndvi - crop.MinHealthyNDVI
	if excess <= 0 {
		result.Evidence = append(result.Evidence, EvidenceItem{
			Type:    EvidenceVegetation,
			Summary: fmt.Sprintf("index %.2f is below %s's healthy threshold %.2f", ndvi, crop.Name, crop.MinHealthyNDVI),
			Value:   ndvi,
		})
		return result
	}

	result.Contribution = math.Min(f.Cap, f.Slope*excess)
	result.Evidence = append(result.Evidence, EvidenceItem{
		Type:    EvidenceVegetation,
		Summary: fmt.Sprintf("index %.2f exceeds healthy threshold %.2f by %.2f", ndvi, crop.MinHealthyNDVI, excess),
		Value:   ndvi,
	})
	return result
}
