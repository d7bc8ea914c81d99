package scoring

import (
	"fmt"
	"math"

	"github.com/cropscope/cropscope/pkg/farm"
)

// ClassifyProfit projects per-hectare profit and buckets it against the
// crop's own typical profit, so crops with very different absolute economics
// stay comparable.
func ClassifyProfit(p Policy, fc *farm.FarmContext, crop *farm.CropProfile, cat *farm.Catalog) ProfitOutlook {
	econ := crop.Economics

	ndvi, ndviNote := p.NeutralVegetation, "no vegetation index, mid-range"
	if fc.VegetationIndex != nil {
		ndvi, ndviNote = *fc.VegetationIndex, fmt.Sprintf("vegetation index %.2f", *fc.VegetationIndex)
	}
	waterFactor := math.Min(1, computeWaterBalance(p, fc, crop, cat).Coverage())

	yield := econ.YieldKgPerHa.Lerp(ndvi) * waterFactor
	price := econ.PricePerKg.Mid()
	profit := yield*price - econ.BaselineCostPerHa
	typical := econ.TypicalProfit()

	var ratio float64
	if typical > 0 {
		ratio = profit / typical
	}

	multiples := econ.TierMultiples
	if len(multiples) != len(farm.ProfitTiers)-1 {
		multiples = p.TierMultiples
	}
	tier := tierFor(ratio, multiples)

	rationale := fmt.Sprintf("yield %.0f kg/ha (%s", yield, ndviNote)
	if waterFactor < 1 {
		rationale += fmt.Sprintf(", %.0f%% water coverage", waterFactor*100)
	}
	rationale += fmt.Sprintf(") at %.2f/kg less %.0f/ha cost gives %.0f/ha, %.2fx typical", price, econ.BaselineCostPerHa, profit, ratio)

	return ProfitOutlook{
		Tier:           tier,
		ProjectedPerHa: profit,
		TypicalPerHa:   typical,
		Ratio:          ratio,
		YieldKgPerHa:   yield,
		PricePerKg:     price,
		CostPerHa:      econ.BaselineCostPerHa,
		Rationale:      rationale,
	}
}

// tierFor returns the first tier whose upper boundary exceeds ratio.
// multiples[i] is the lower bound of ProfitTiers[i+1].
func tierFor(ratio float64, multiples []float64) farm.ProfitTier {
	for i, m := range multiples {
		if ratio < m {
			return farm.ProfitTiers[i]
		}
	}
	return farm.ProfitTiers[len(farm.ProfitTiers)-1]
}
