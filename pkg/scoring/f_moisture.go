package scoring

import (
	"fmt"

	"github.com/cropscope/cropscope/pkg/farm"
)

// MoistureFactor rewards soil moisture close to the crop's ideal band. The
// bonus is full inside the band and decays linearly to zero at Tolerance
// points from the nearest edge.
type MoistureFactor struct {
	Bonus     float64
	Tolerance float64 // percentage points
}

func (f *MoistureFactor) Key() string  { return KeyMoisture }
func (f *MoistureFactor) Name() string { return "Soil moisture" }

func (f *MoistureFactor) Evaluate(fc *farm.FarmContext, crop *farm.CropProfile, _ *farm.Catalog) FactorResult {
	result := FactorResult{Key: f.Key(), Name: f.Name(), Kind: KindBonus}
	if fc.SoilMoisturePct == nil {
		return result
	}

	pct := *fc.SoilMoisturePct
	band := crop.IdealMoisture

	if band.Contains(pct) {
		result.Contribution = f.Bonus
		result.Evidence = append(result.Evidence, EvidenceItem{
			Type:    EvidenceMoisture,
			Summary: fmt.Sprintf("moisture %.1f%% inside ideal band %.0f-%.0f%%", pct, band.Min, band.Max),
			Value:   pct,
		})
		return result
	}

	d := band.Min - pct
	if pct > band.Max {
		d = pct - band.Max
	}

	if d < f.Tolerance {
		result.Contribution = f.Bonus * (1 - d/f.Tolerance)
	}
	result.Evidence = append(result.Evidence, EvidenceItem{
		Type:    EvidenceMoisture,
		Summary: fmt.Sprintf("moisture %.1f%% is %.1f points outside ideal band %.0f-%.0f%%", pct, d, band.Min, band.Max),
		Value:   pct,
	})
	return result
}
