package scoring

// DefaultFactors returns the standard set of confidence factors configured
// from the policy.
func DefaultFactors(p Policy) []Factor {
	return []Factor{
		&VegetationFactor{
			Slope: p.VegetationSlope,
			Cap:   p.VegetationCap,
		},
		&MoistureFactor{
			Bonus:     p.MoistureBonus,
			Tolerance: p.MoistureTolerance,
		},
		&IrrigationFactor{
			Bonus: p.IrrigationBonus,
		},
		&RotationFactor{
			Bonus: p.RotationBonus,
		},
		&AgronomicFactor{
			SoilAcceptable: p.SoilAcceptablePenalty,
			SoilMismatch:   p.SoilMismatchPenalty,
			SeasonMismatch: p.SeasonMismatchPenalty,
			Floor:          p.AgronomicFloor,
		},
		&EstimationFactor{
			PerMissingInput: p.MissingInputPenalty,
			Floor:           p.EstimationFloor,
		},
	}
}
