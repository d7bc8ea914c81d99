package scoring

import (
	"math"

	"github.com/cropscope/cropscope/pkg/farm"
)

// Optional inputs whose absence lowers confidence.
const (
	InputVegetationIndex = "vegetation_index"
	InputRotationHistory = "rotation_history"
	InputForecast        = "forecast"
)

var inputLabels = map[string]string{
	InputVegetationIndex: "vegetation index",
	InputRotationHistory: "rotation history",
	InputForecast:        "weather forecast",
}

// MissingInputs lists the optional inputs absent from fc, in a fixed order.
func MissingInputs(fc *farm.FarmContext) []string {
	var missing []string
	if fc.VegetationIndex == nil {
		missing = append(missing, InputVegetationIndex)
	}
	if len(fc.RotationHistory) == 0 {
		missing = append(missing, InputRotationHistory)
	}
	if fc.Forecast == nil {
		missing = append(missing, InputForecast)
	}
	return missing
}

// EstimationFactor reflects data confidence, not agronomic fit: each missing
// optional input costs a fixed amount down to Floor.
type EstimationFactor struct {
	PerMissingInput float64
	Floor           float64
}

func (f *EstimationFactor) Key() string  { return KeyEstimation }
func (f *EstimationFactor) Name() string { return "Estimation uncertainty" }

func (f *EstimationFactor) Evaluate(fc *farm.FarmContext, _ *farm.CropProfile, _ *farm.Catalog) FactorResult {
	result := FactorResult{Key: f.Key(), Name: f.Name(), Kind: KindPenalty}

	missing := MissingInputs(fc)
	if len(missing) == 0 {
		return result
	}
	for _, in := range missing {
		result.Evidence = append(result.Evidence, EvidenceItem{
			Type:    EvidenceMissingInput,
			Summary: inputLabels[in] + " not supplied",
			Value:   f.PerMissingInput,
		})
	}
	result.Contribution = math.Max(f.PerMissingInput*float64(len(missing)), f.Floor)
	return result
}
