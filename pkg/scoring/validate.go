package scoring

import (
	"fmt"
	"math"
	"strings"

	"github.com/cropscope/cropscope/pkg/farm"
)

// FieldError describes one invalid farm-context field.
type FieldError struct {
	Field   string `json:"field"`
	Problem string `json:"problem"`
}

// ValidationError is returned when a farm context cannot be scored. No
// partial result accompanies it.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Problem
	}
	return "invalid farm context: " + strings.Join(parts, "; ")
}

// ValidateContext checks required fields and value domains. Optional inputs
// are only checked when present.
func ValidateContext(fc *farm.FarmContext, cat *farm.Catalog) error {
	var fields []FieldError
	add := func(field, format string, args ...any) {
		fields = append(fields, FieldError{Field: field, Problem: fmt.Sprintf(format, args...)})
	}

	switch {
	case fc.SoilType == "":
		add("soil_type", "required")
	case !fc.SoilType.Valid():
		add("soil_type", "unknown soil type %q", fc.SoilType)
	}

	switch {
	case fc.SoilMoisturePct != nil:
		if !inRange(*fc.SoilMoisturePct, 0, 100) {
			add("soil_moisture_pct", "must be within 0-100, got %g", *fc.SoilMoisturePct)
		}
	case fc.SoilMoisture != "":
		if _, ok := fc.SoilMoisture.Percent(); !ok {
			add("soil_moisture", "unknown moisture level %q", fc.SoilMoisture)
		}
	default:
		add("soil_moisture_pct", "required")
	}

	if v := fc.VegetationIndex; v != nil && !inRange(*v, 0, 1) {
		add("vegetation_index", "must be within 0-1, got %g", *v)
	}

	switch {
	case fc.Irrigation == "":
		add("irrigation", "required")
	case !fc.Irrigation.Valid():
		add("irrigation", "unknown irrigation type %q", fc.Irrigation)
	}

	switch {
	case fc.Season == "":
		add("season", "required")
	case !fc.Season.Valid():
		add("season", "unknown season %q", fc.Season)
	}

	if fc.Region != "" && cat != nil && len(cat.Regions) > 0 {
		if _, ok := cat.Region(fc.Region); !ok {
			add("region", "unknown region %q", fc.Region)
		}
	}

	if f := fc.Forecast; f != nil {
		if !finite(f.RainfallMM) || f.RainfallMM < 0 {
			add("forecast.rainfall_mm", "must be a non-negative number, got %g", f.RainfallMM)
		}
		if f.MaxTempC != nil && !finite(*f.MaxTempC) {
			add("forecast.max_temp_c", "must be a finite number, got %g", *f.MaxTempC)
		}
	}

	for i, e := range fc.RotationHistory {
		if e.CropID == "" {
			add(fmt.Sprintf("rotation_history[%d].crop_id", i), "required")
		}
		if e.SeasonsAgo < 1 {
			add(fmt.Sprintf("rotation_history[%d].seasons_ago", i), "must be at least 1, got %d", e.SeasonsAgo)
		}
	}

	if !fc.DurationPreference.Valid() {
		add("duration_preference", "unknown preference %q", fc.DurationPreference)
	}

	if p := fc.Plan; p != nil && !p.NextSowing.After(p.PreviousHarvest) {
		add("plan", "next_sowing must be after previous_harvest")
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// inRange is false for NaN, which fails every comparison.
func inRange(v, lo, hi float64) bool { return finite(v) && v >= lo && v <= hi }
