// Package farm defines the agronomic data model for Cropscope: the farm
// context supplied per evaluation, the crop catalog, and the closed
// vocabularies (soil, season, irrigation, duration, risk, profit) shared by
// every other package.
package farm

import "strings"

// SoilType is a normalized soil classification.
type SoilType string

const (
	SoilAlluvial SoilType = "alluvial"
	SoilBlack    SoilType = "black"
	SoilRed      SoilType = "red"
	SoilLaterite SoilType = "laterite"
	SoilClay     SoilType = "clay"
	SoilSandy    SoilType = "sandy"
	SoilLoamy    SoilType = "loamy"
	SoilSilty    SoilType = "silty"
)

var soilAliases = map[string]SoilType{
	"loam":         SoilLoamy,
	"sand":         SoilSandy,
	"silt":         SoilSilty,
	"black cotton": SoilBlack,
	"regur":        SoilBlack,
	"clayey":       SoilClay,
}

// ParseSoilType normalizes free text into a SoilType. Unknown values are
// returned lowercased so validation can report them.
func ParseSoilType(s string) SoilType {
	key := normalize(s)
	if alias, ok := soilAliases[key]; ok {
		return alias
	}
	return SoilType(key)
}

// Valid reports whether s is a known soil type.
func (s SoilType) Valid() bool {
	switch s {
	case SoilAlluvial, SoilBlack, SoilRed, SoilLaterite, SoilClay, SoilSandy, SoilLoamy, SoilSilty:
		return true
	}
	return false
}

func (s *SoilType) UnmarshalText(b []byte) error {
	*s = ParseSoilType(string(b))
	return nil
}

// Season is an Indian cropping season tag.
type Season string

const (
	SeasonKharif Season = "kharif"
	SeasonRabi   Season = "rabi"
	SeasonZaid   Season = "zaid"
	SeasonAnnual Season = "annual"
)

var seasonAliases = map[string]Season{
	"winter":     SeasonRabi,
	"summer":     SeasonZaid,
	"autumn":     SeasonKharif,
	"monsoon":    SeasonKharif,
	"whole year": SeasonAnnual,
	"whole_year": SeasonAnnual,
}

// ParseSeason normalizes a season name, mapping calendar names onto the
// cropping seasons (winter -> rabi, summer -> zaid, monsoon -> kharif).
func ParseSeason(s string) Season {
	key := normalize(s)
	if alias, ok := seasonAliases[key]; ok {
		return alias
	}
	return Season(key)
}

// Valid reports whether s is a known season.
func (s Season) Valid() bool {
	switch s {
	case SeasonKharif, SeasonRabi, SeasonZaid, SeasonAnnual:
		return true
	}
	return false
}

func (s *Season) UnmarshalText(b []byte) error {
	*s = ParseSeason(string(b))
	return nil
}

// IrrigationType describes how water reaches the field. Types are ordered by
// the level of water control they give the farmer.
type IrrigationType string

const (
	IrrigationNone      IrrigationType = "none"
	IrrigationFlood     IrrigationType = "flood"
	IrrigationCanal     IrrigationType = "canal"
	IrrigationSprinkler IrrigationType = "sprinkler"
	IrrigationDrip      IrrigationType = "drip"
)

var irrigationLevels = map[IrrigationType]int{
	IrrigationNone:      0,
	IrrigationFlood:     1,
	IrrigationCanal:     2,
	IrrigationSprinkler: 3,
	IrrigationDrip:      4,
}

// ParseIrrigationType normalizes an irrigation description.
func ParseIrrigationType(s string) IrrigationType {
	switch key := normalize(s); key {
	case "rainfed", "rain-fed", "rain fed":
		return IrrigationNone
	case "surface", "basin":
		return IrrigationFlood
	case "borewell", "tubewell", "well":
		return IrrigationCanal
	default:
		return IrrigationType(key)
	}
}

// Valid reports whether t is a known irrigation type.
func (t IrrigationType) Valid() bool {
	_, ok := irrigationLevels[t]
	return ok
}

// Level returns the water-control level; -1 for unknown types.
func (t IrrigationType) Level() int {
	if lvl, ok := irrigationLevels[t]; ok {
		return lvl
	}
	return -1
}

// Satisfies reports whether t gives at least the control that want needs.
func (t IrrigationType) Satisfies(want IrrigationType) bool {
	return t.Valid() && want.Valid() && t.Level() >= want.Level()
}

func (t *IrrigationType) UnmarshalText(b []byte) error {
	*t = ParseIrrigationType(string(b))
	return nil
}

// DurationClass buckets crops by time to harvest.
type DurationClass string

const (
	DurationShort  DurationClass = "short"
	DurationMedium DurationClass = "medium"
	DurationLong   DurationClass = "long"
)

// ClassifyDuration derives a duration class from a crop's maximum duration.
func ClassifyDuration(maxDays int) DurationClass {
	switch {
	case maxDays <= 100:
		return DurationShort
	case maxDays <= 150:
		return DurationMedium
	default:
		return DurationLong
	}
}

// Valid reports whether c is a known duration class.
func (c DurationClass) Valid() bool {
	return c == DurationShort || c == DurationMedium || c == DurationLong
}

// DurationPreference is the farmer's stated planning horizon.
type DurationPreference string

const (
	PreferShortTerm    DurationPreference = "short_term"
	PreferLongTerm     DurationPreference = "long_term"
	PreferNoPreference DurationPreference = "no_preference"
)

// Valid reports whether p is a known preference. The empty value is treated
// as no preference.
func (p DurationPreference) Valid() bool {
	switch p {
	case "", PreferShortTerm, PreferLongTerm, PreferNoPreference:
		return true
	}
	return false
}

// Allows reports whether a crop of class c fits the preference.
// short_term excludes long crops; long_term excludes short crops.
func (p DurationPreference) Allows(c DurationClass) bool {
	switch p {
	case PreferShortTerm:
		return c != DurationLong
	case PreferLongTerm:
		return c != DurationShort
	default:
		return true
	}
}

// CropFamily groups crops that share pests, diseases and nutrient demands.
type CropFamily string

const (
	FamilyCereal    CropFamily = "cereal"
	FamilyMillet    CropFamily = "millet"
	FamilyLegume    CropFamily = "legume"
	FamilyOilseed   CropFamily = "oilseed"
	FamilyFiber     CropFamily = "fiber"
	FamilySugar     CropFamily = "sugar"
	FamilyVegetable CropFamily = "vegetable"
	FamilyTuber     CropFamily = "tuber"
)

// Valid reports whether f is a known crop family.
func (f CropFamily) Valid() bool {
	switch f {
	case FamilyCereal, FamilyMillet, FamilyLegume, FamilyOilseed, FamilyFiber, FamilySugar, FamilyVegetable, FamilyTuber:
		return true
	}
	return false
}

// RiskLevel is a tri-level risk verdict.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Severity orders risk levels: low=0, medium=1, high=2. Unknown levels sort
// as high.
func (r RiskLevel) Severity() int {
	switch r {
	case RiskLow:
		return 0
	case RiskMedium:
		return 1
	default:
		return 2
	}
}

// MaxRisk returns the most severe of the given levels, or low if none.
func MaxRisk(levels ...RiskLevel) RiskLevel {
	worst := RiskLow
	for _, l := range levels {
		if l.Severity() > worst.Severity() {
			worst = l
		}
	}
	return worst
}

// ProfitTier is the seven-step profit outlook, ordered from worst to best.
type ProfitTier string

const (
	TierDontDo   ProfitTier = "dont_do"
	TierLow      ProfitTier = "low"
	TierNormal   ProfitTier = "normal"
	TierMidLevel ProfitTier = "mid_level"
	TierGood     ProfitTier = "good"
	TierHigh     ProfitTier = "high"
	TierExultant ProfitTier = "exultant"
)

// ProfitTiers lists all tiers in ascending order.
var ProfitTiers = []ProfitTier{TierDontDo, TierLow, TierNormal, TierMidLevel, TierGood, TierHigh, TierExultant}

// Rank returns the tier's position in ProfitTiers, or -1 if unknown.
func (t ProfitTier) Rank() int {
	for i, tier := range ProfitTiers {
		if tier == t {
			return i
		}
	}
	return -1
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
