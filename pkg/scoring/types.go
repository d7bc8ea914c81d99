// Package scoring implements the Cropscope recommendation engine. It scores
// every catalog crop against a farm context and produces explainable,
// evidence-backed recommendations.
package scoring

import "github.com/cropscope/cropscope/pkg/farm"

// RecommendationSet is the complete output of one evaluation.
// Immutable once returned.
type RecommendationSet struct {
	ID             string       `json:"id"`
	CatalogVersion string       `json:"catalog_version"`
	Season         farm.Season  `json:"season"`
	Region         string       `json:"region,omitempty"`
	Crops          []ScoredCrop `json:"crops"`
	Reason         Reason       `json:"reason,omitempty"`
	SafestCropID   string       `json:"safest_crop_id,omitempty"`
	Considered     int          `json:"considered"` // crops scored before truncation
}

// Reason explains an empty result set.
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonEmptyCatalog    Reason = "empty_catalog"
	ReasonNoEligibleCrops Reason = "no_eligible_crops"
)

// ScoredCrop is one fully annotated candidate.
type ScoredCrop struct {
	CropID        string             `json:"crop_id"`
	Name          string             `json:"name"`
	LocalNames    map[string]string  `json:"local_names,omitempty"`
	Family        farm.CropFamily    `json:"family"`
	Duration      farm.DayRange      `json:"duration"`
	DurationClass farm.DurationClass `json:"duration_class"`

	Confidence    ConfidenceBreakdown `json:"confidence"`
	Risks         RiskScoreSet        `json:"risks"`
	AggregateRisk farm.RiskLevel      `json:"aggregate_risk"`
	Profit        ProfitOutlook       `json:"profit"`
	Gap           GapVerdict          `json:"gap"`

	Safest          bool   `json:"safest"`
	SafestRationale string `json:"safest_rationale,omitempty"`
	Rationale       string `json:"rationale"`
}

// ConfidenceBreakdown is the itemized additive decomposition of a confidence
// value. Final = clamp(Raw, 0, max).
type ConfidenceBreakdown struct {
	Base float64 `json:"base"`

	VegetationBonus float64 `json:"vegetation_bonus"`
	MoistureBonus   float64 `json:"moisture_bonus"`
	IrrigationBonus float64 `json:"irrigation_bonus"`
	RotationBonus   float64 `json:"rotation_bonus"`

	AgronomicPenalty  float64 `json:"agronomic_penalty"`
	EstimationPenalty float64 `json:"estimation_penalty"`

	Raw   float64 `json:"raw"`
	Final float64 `json:"final"`

	Factors       []FactorResult `json:"factors"`
	MissingInputs []string       `json:"missing_inputs,omitempty"`
	Rationale     string         `json:"rationale"`
}

// FactorResult is the output of a single confidence factor.
type FactorResult struct {
	Key          string         `json:"key"`          // machine key: "vegetation_bonus"
	Name         string         `json:"name"`         // human name: "Vegetation health"
	Kind         FactorKind     `json:"kind"`         // bonus or penalty
	Contribution float64        `json:"contribution"` // signed points
	Evidence     []EvidenceItem `json:"evidence,omitempty"`
}

// FactorKind separates additive bonuses from subtractive penalties.
type FactorKind string

const (
	KindBonus   FactorKind = "bonus"
	KindPenalty FactorKind = "penalty"
)

// EvidenceItem is a single observation backing a factor contribution.
type EvidenceItem struct {
	Type    EvidenceType `json:"type"`
	Summary string       `json:"summary"`
	Value   float64      `json:"value,omitempty"`
}

// EvidenceType classifies what kind of evidence this is.
type EvidenceType string

const (
	EvidenceVegetation   EvidenceType = "VEGETATION"
	EvidenceMoisture     EvidenceType = "MOISTURE"
	EvidenceIrrigation   EvidenceType = "IRRIGATION"
	EvidenceRotation     EvidenceType = "ROTATION"
	EvidenceSoil         EvidenceType = "SOIL"
	EvidenceSeason       EvidenceType = "SEASON"
	EvidenceMissingInput EvidenceType = "MISSING_INPUT"
)

// RiskVerdict is one risk dimension's level and the condition that set it.
type RiskVerdict struct {
	Level         farm.RiskLevel `json:"level"`
	Justification string         `json:"justification"`
}

// RiskScoreSet holds the four independent risk dimensions. They are reported
// separately and never summed.
type RiskScoreSet struct {
	Water    RiskVerdict `json:"water"`
	Duration RiskVerdict `json:"duration"`
	Climate  RiskVerdict `json:"climate"`
	Rotation RiskVerdict `json:"rotation"`
}

// Aggregate returns the most severe level across all dimensions.
func (r RiskScoreSet) Aggregate() farm.RiskLevel {
	return farm.MaxRisk(r.Water.Level, r.Duration.Level, r.Climate.Level, r.Rotation.Level)
}

// NamedRisk pairs a dimension name with its verdict for display.
type NamedRisk struct {
	Dimension string
	RiskVerdict
}

// Dimensions lists the verdicts in a fixed display order.
func (r RiskScoreSet) Dimensions() []NamedRisk {
	return []NamedRisk{
		{"water", r.Water},
		{"duration", r.Duration},
		{"climate", r.Climate},
		{"rotation", r.Rotation},
	}
}

// ProfitOutlook is the projected economics of a crop and its tier.
type ProfitOutlook struct {
	Tier           farm.ProfitTier `json:"tier"`
	ProjectedPerHa float64         `json:"projected_per_ha"`
	TypicalPerHa   float64         `json:"typical_per_ha"`
	Ratio          float64         `json:"ratio"`
	YieldKgPerHa   float64         `json:"yield_kg_per_ha"`
	PricePerKg     float64         `json:"price_per_kg"`
	CostPerHa      float64         `json:"cost_per_ha"`
	Rationale      string          `json:"rationale"`
}

// GapVerdict says whether a crop fits the idle window between two
// main-season crops.
type GapVerdict struct {
	Suitable     bool   `json:"suitable"`
	WindowDays   int    `json:"window_days"`
	RequiredDays int    `json:"required_days"`
	BufferDays   int    `json:"buffer_days"`
	Reason       string `json:"reason"`
}
