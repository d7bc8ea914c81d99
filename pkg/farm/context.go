package farm

import "time"

// FarmContext is the normalized agronomic state of one field, supplied once
// per evaluation. The engine never mutates it.
type FarmContext struct {
	SoilType        SoilType       `json:"soil_type" yaml:"soil_type"`
	SoilMoisturePct *float64       `json:"soil_moisture_pct" yaml:"soil_moisture_pct"` // volumetric %, required unless SoilMoisture is set
	SoilMoisture    MoistureLevel  `json:"soil_moisture,omitempty" yaml:"soil_moisture,omitempty"`
	VegetationIndex *float64       `json:"vegetation_index,omitempty" yaml:"vegetation_index,omitempty"`
	Irrigation      IrrigationType `json:"irrigation" yaml:"irrigation"`
	Season          Season         `json:"season" yaml:"season"`

	State    string    `json:"state,omitempty" yaml:"state,omitempty"`   // administrative state, mapped to a region
	Region   string    `json:"region,omitempty" yaml:"region,omitempty"` // catalog region ID
	Forecast *Forecast `json:"forecast,omitempty" yaml:"forecast,omitempty"`

	RotationHistory    []RotationEntry    `json:"rotation_history,omitempty" yaml:"rotation_history,omitempty"`
	DurationPreference DurationPreference `json:"duration_preference,omitempty" yaml:"duration_preference,omitempty"`
	Plan               *CroppingPlan      `json:"plan,omitempty" yaml:"plan,omitempty"`
}

// RotationEntry records a crop previously grown on the field.
type RotationEntry struct {
	CropID     string `json:"crop_id" yaml:"crop_id"`
	SeasonsAgo int    `json:"seasons_ago" yaml:"seasons_ago"` // 1 = last season
}

// Forecast is the resolved seasonal weather outlook for the field.
type Forecast struct {
	RainfallMM float64  `json:"rainfall_mm" yaml:"rainfall_mm"`
	MaxTempC   *float64 `json:"max_temp_c,omitempty" yaml:"max_temp_c,omitempty"` // nil when only rainfall is forecast
}

// CroppingPlan pins the idle window between two main-season crops.
type CroppingPlan struct {
	PreviousHarvest time.Time `json:"previous_harvest" yaml:"previous_harvest"`
	NextSowing      time.Time `json:"next_sowing" yaml:"next_sowing"`
}

// IdleDays returns the whole days between harvest and the next sowing.
func (p CroppingPlan) IdleDays() int {
	return int(p.NextSowing.Sub(p.PreviousHarvest).Hours() / 24)
}

// ResolveMoisture fills SoilMoisturePct from the categorical SoilMoisture
// level when no measured percentage is present. A measurement always wins.
func (fc *FarmContext) ResolveMoisture() {
	if fc.SoilMoisturePct != nil || fc.SoilMoisture == "" {
		return
	}
	if pct, ok := fc.SoilMoisture.Percent(); ok {
		fc.SoilMoisturePct = &pct
	}
}

// MostRecent returns the rotation entry with the smallest SeasonsAgo.
func (fc *FarmContext) MostRecent() (RotationEntry, bool) {
	var best RotationEntry
	found := false
	for _, e := range fc.RotationHistory {
		if !found || e.SeasonsAgo < best.SeasonsAgo {
			best = e
			found = true
		}
	}
	return best, found
}

// MoistureLevel is a categorical soil-moisture reading for callers without
// a sensor measurement.
type MoistureLevel string

const (
	MoistureDry         MoistureLevel = "dry"
	MoistureLow         MoistureLevel = "low"
	MoistureOptimal     MoistureLevel = "optimal"
	MoistureHigh        MoistureLevel = "high"
	MoistureWaterlogged MoistureLevel = "waterlogged"
)

var moisturePct = map[MoistureLevel]float64{
	MoistureDry:         12,
	MoistureLow:         20,
	MoistureOptimal:     28,
	MoistureHigh:        38,
	MoistureWaterlogged: 50,
}

// Percent returns the representative volumetric moisture for the level.
func (m MoistureLevel) Percent() (float64, bool) {
	pct, ok := moisturePct[MoistureLevel(normalize(string(m)))]
	return pct, ok
}
