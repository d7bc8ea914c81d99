package scoring

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/cropscope/cropscope/pkg/farm"
)

// Factor keys of the built-in factors. The composer maps these onto the named
// fields of ConfidenceBreakdown; other keys only feed Raw.
const (
	KeyVegetation = "vegetation_bonus"
	KeyMoisture   = "moisture_bonus"
	KeyIrrigation = "irrigation_bonus"
	KeyRotation   = "rotation_bonus"
	KeyAgronomic  = "agronomic_penalty"
	KeyEstimation = "estimation_penalty"
)

// Compose sums the base and factor contributions and clamps the result to
// [0, p.MaxConfidence], keeping the unclamped Raw alongside.
func Compose(p Policy, fc *farm.FarmContext, results []FactorResult) ConfidenceBreakdown {
	b := ConfidenceBreakdown{
		Base:          p.BaseConfidence,
		Factors:       results,
		MissingInputs: MissingInputs(fc),
	}

	terms := make([]float64, 0, len(results)+1)
	terms = append(terms, p.BaseConfidence)
	for _, r := range results {
		terms = append(terms, r.Contribution)
		switch r.Key {
		case KeyVegetation:
			b.VegetationBonus = r.Contribution
		case KeyMoisture:
			b.MoistureBonus = r.Contribution
		case KeyIrrigation:
			b.IrrigationBonus = r.Contribution
		case KeyRotation:
			b.RotationBonus = r.Contribution
		case KeyAgronomic:
			b.AgronomicPenalty = r.Contribution
		case KeyEstimation:
			b.EstimationPenalty = r.Contribution
		}
	}

	b.Raw = floats.Sum(terms)
	b.Final = clamp(b.Raw, 0, p.MaxConfidence)
	b.Rationale = confidenceRationale(b, p.MaxConfidence)
	return b
}

func confidenceRationale(b ConfidenceBreakdown, ceiling float64) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Base %.0f", b.Base)
	bonus := b.VegetationBonus + b.MoistureBonus + b.IrrigationBonus + b.RotationBonus
	if bonus > 0 {
		fmt.Fprintf(&sb, ", +%.1f from field conditions", bonus)
	}
	if b.AgronomicPenalty < 0 {
		fmt.Fprintf(&sb, ", %.1f for soil or season mismatch", b.AgronomicPenalty)
	}
	sb.WriteString(".")

	if len(b.MissingInputs) == 0 {
		sb.WriteString(" All optional inputs supplied.")
	} else {
		labels := make([]string, len(b.MissingInputs))
		for i, in := range b.MissingInputs {
			labels[i] = inputLabels[in]
		}
		fmt.Fprintf(&sb, " Estimated without %s (%.1f).", strings.Join(labels, ", "), b.EstimationPenalty)
	}

	if b.Raw > ceiling {
		fmt.Fprintf(&sb, " Capped at %.0f from %.1f; recommendations are advisory.", ceiling, b.Raw)
	}
	return sb.String()
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
