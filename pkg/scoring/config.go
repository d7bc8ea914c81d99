package scoring

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/cropscope/cropscope/pkg/farm"
)

// CeilingConfidence is the highest confidence the engine will ever report.
// Policies may lower MaxConfidence but never raise it past this.
const CeilingConfidence = 85.0

// Policy holds every threshold, cap and weight the engine uses. Zero values
// are not meaningful; start from Defaults and override.
type Policy struct {
	BaseConfidence float64 `yaml:"base_confidence" json:"base_confidence"`
	MaxConfidence  float64 `yaml:"max_confidence" json:"max_confidence"`

	// Vegetation bonus: slope * (ndvi - crop threshold), capped.
	VegetationSlope float64 `yaml:"vegetation_slope" json:"vegetation_slope"`
	VegetationCap   float64 `yaml:"vegetation_cap" json:"vegetation_cap"`

	// Moisture bonus: full inside the ideal band, linear decay to zero at
	// MoistureTolerance points outside it.
	MoistureBonus     float64 `yaml:"moisture_bonus" json:"moisture_bonus"`
	MoistureTolerance float64 `yaml:"moisture_tolerance" json:"moisture_tolerance"`

	IrrigationBonus float64 `yaml:"irrigation_bonus" json:"irrigation_bonus"`
	RotationBonus   float64 `yaml:"rotation_bonus" json:"rotation_bonus"`

	// Agronomic penalty terms (non-positive).
	SoilAcceptablePenalty float64 `yaml:"soil_acceptable_penalty" json:"soil_acceptable_penalty"`
	SoilMismatchPenalty   float64 `yaml:"soil_mismatch_penalty" json:"soil_mismatch_penalty"`
	SeasonMismatchPenalty float64 `yaml:"season_mismatch_penalty" json:"season_mismatch_penalty"`
	AgronomicFloor        float64 `yaml:"agronomic_floor" json:"agronomic_floor"`

	// Estimation penalty per missing optional input (non-positive).
	MissingInputPenalty float64 `yaml:"missing_input_penalty" json:"missing_input_penalty"`
	EstimationFloor     float64 `yaml:"estimation_floor" json:"estimation_floor"`

	// Water risk: coverage = (rainfall + irrigation supply) / crop need.
	WaterLowCoverage    float64                         `yaml:"water_low_coverage" json:"water_low_coverage"`
	WaterMediumCoverage float64                         `yaml:"water_medium_coverage" json:"water_medium_coverage"`
	IrrigationSupplyMM  map[farm.IrrigationType]float64 `yaml:"irrigation_supply_mm" json:"irrigation_supply_mm"`

	// Climate risk.
	HeatHighMarginC float64 `yaml:"heat_high_margin_c" json:"heat_high_margin_c"`
	RainLowRatio    float64 `yaml:"rain_low_ratio" json:"rain_low_ratio"`
	RainHighRatio   float64 `yaml:"rain_high_ratio" json:"rain_high_ratio"`

	RotationLookback int `yaml:"rotation_lookback" json:"rotation_lookback"` // seasons

	// Profit: default tier boundaries as multiples of typical profit, and
	// the vegetation index assumed when none is supplied.
	TierMultiples     []float64 `yaml:"tier_multiples" json:"tier_multiples"`
	NeutralVegetation float64   `yaml:"neutral_vegetation" json:"neutral_vegetation"`

	GapBufferDays int `yaml:"gap_buffer_days" json:"gap_buffer_days"`

	// When set and every candidate is high risk, no crop is flagged safest.
	SkipSafestWhenAllHigh bool `yaml:"skip_safest_when_all_high" json:"skip_safest_when_all_high"`
}

// Defaults returns the default scoring policy.
func Defaults() Policy {
	return Policy{
		BaseConfidence: 60,
		MaxConfidence:  CeilingConfidence,

		VegetationSlope: 50,
		VegetationCap:   15,

		MoistureBonus:     10,
		MoistureTolerance: 10,

		IrrigationBonus: 10,
		RotationBonus:   5,

		SoilAcceptablePenalty: -5,
		SoilMismatchPenalty:   -12,
		SeasonMismatchPenalty: -15,
		AgronomicFloor:        -30,

		MissingInputPenalty: -5,
		EstimationFloor:     -15,

		WaterLowCoverage:    1.0,
		WaterMediumCoverage: 0.7,
		IrrigationSupplyMM: map[farm.IrrigationType]float64{
			farm.IrrigationNone:      0,
			farm.IrrigationFlood:     700,
			farm.IrrigationCanal:     600,
			farm.IrrigationSprinkler: 450,
			farm.IrrigationDrip:      400,
		},

		HeatHighMarginC: 5,
		RainLowRatio:    0.6,
		RainHighRatio:   1.5,

		RotationLookback: 2,

		TierMultiples:     []float64{0, 0.5, 0.85, 1.1, 1.35, 1.7},
		NeutralVegetation: 0.5,

		GapBufferDays: 10,
	}
}

// Validate rejects policies that would break the engine's guarantees.
func (p Policy) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if p.MaxConfidence <= 0 || p.MaxConfidence > CeilingConfidence {
		add("max_confidence must be in (0, %g], got %g", CeilingConfidence, p.MaxConfidence)
	}
	if p.BaseConfidence < 0 || p.BaseConfidence > p.MaxConfidence {
		add("base_confidence must be in [0, max_confidence], got %g", p.BaseConfidence)
	}
	type field struct {
		name string
		v    float64
	}
	for _, f := range []field{
		{"vegetation_slope", p.VegetationSlope},
		{"vegetation_cap", p.VegetationCap},
		{"moisture_bonus", p.MoistureBonus},
		{"moisture_tolerance", p.MoistureTolerance},
		{"irrigation_bonus", p.IrrigationBonus},
		{"rotation_bonus", p.RotationBonus},
	} {
		if f.v < 0 {
			add("%s must not be negative, got %g", f.name, f.v)
		}
	}
	for _, f := range []field{
		{"soil_acceptable_penalty", p.SoilAcceptablePenalty},
		{"soil_mismatch_penalty", p.SoilMismatchPenalty},
		{"season_mismatch_penalty", p.SeasonMismatchPenalty},
		{"agronomic_floor", p.AgronomicFloor},
		{"missing_input_penalty", p.MissingInputPenalty},
		{"estimation_floor", p.EstimationFloor},
	} {
		if f.v > 0 {
			add("%s must not be positive, got %g", f.name, f.v)
		}
	}
	if p.WaterMediumCoverage <= 0 || p.WaterMediumCoverage >= p.WaterLowCoverage {
		add("water coverage thresholds must satisfy 0 < medium < low, got %g/%g", p.WaterMediumCoverage, p.WaterLowCoverage)
	}
	types := make([]string, 0, len(p.IrrigationSupplyMM))
	for t := range p.IrrigationSupplyMM {
		types = append(types, string(t))
	}
	sort.Strings(types)
	for _, name := range types {
		t := farm.IrrigationType(name)
		if !t.Valid() {
			add("irrigation_supply_mm: unknown irrigation type %q", name)
		}
		if p.IrrigationSupplyMM[t] < 0 {
			add("irrigation_supply_mm[%s] must not be negative", name)
		}
	}
	if p.RainLowRatio <= 0 || p.RainHighRatio <= p.RainLowRatio {
		add("rain ratios must satisfy 0 < low < high, got %g/%g", p.RainLowRatio, p.RainHighRatio)
	}
	if p.RotationLookback < 1 {
		add("rotation_lookback must be at least 1, got %d", p.RotationLookback)
	}
	if len(p.TierMultiples) != len(farm.ProfitTiers)-1 {
		add("tier_multiples needs %d boundaries, got %d", len(farm.ProfitTiers)-1, len(p.TierMultiples))
	}
	for i := 1; i < len(p.TierMultiples); i++ {
		if p.TierMultiples[i] <= p.TierMultiples[i-1] {
			add("tier_multiples must be strictly ascending")
			break
		}
	}
	if p.NeutralVegetation < 0 || p.NeutralVegetation > 1 {
		add("neutral_vegetation must be in [0, 1], got %g", p.NeutralVegetation)
	}
	if p.GapBufferDays < 0 {
		add("gap_buffer_days must not be negative, got %d", p.GapBufferDays)
	}

	if len(problems) > 0 {
		return eris.Errorf("invalid scoring policy: %s", strings.Join(problems, "; "))
	}
	return nil
}

// supplyMM returns the seasonal water an irrigation type can deliver.
func (p Policy) supplyMM(t farm.IrrigationType) float64 {
	return p.IrrigationSupplyMM[t]
}
