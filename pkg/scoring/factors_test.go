package scoring_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cropscope/cropscope/pkg/farm"
	"github.com/cropscope/cropscope/pkg/scoring"
)

func TestVegetationFactor(t *testing.T) {
	f := &scoring.VegetationFactor{Slope: 50, Cap: 15}
	crop := testCrop("rice") // threshold 0.5

	tests := []struct {
		name string
		ndvi *float64
		want float64
	}{
		{"absent", nil, 0},
		{"below threshold", ptr(0.4), 0},
		{"at threshold", ptr(0.5), 0},
		{"proportional", ptr(0.6), 5},
		{"capped", ptr(0.82), 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := baseContext()
			fc.VegetationIndex = tt.ndvi
			r := f.Evaluate(fc, &crop, nil)
			assert.Equal(t, scoring.KeyVegetation, r.Key)
			assert.Equal(t, scoring.KindBonus, r.Kind)
			assert.InDelta(t, tt.want, r.Contribution, 1e-9)
			assert.NotEmpty(t, r.Evidence)
		})
	}
}

func TestMoistureFactor(t *testing.T) {
	f := &scoring.MoistureFactor{Bonus: 10, Tolerance: 10}
	crop := testCrop("rice")
	crop.IdealMoisture = farm.Range{Min: 30, Max: 45}

	tests := []struct {
		pct  float64
		want float64
	}{
		{35, 10},
		{30, 10},
		{45, 10},
		{28, 8},
		{50, 5},
		{20, 0},
		{5, 0},
	}
	for _, tt := range tests {
		fc := baseContext()
		fc.SoilMoisturePct = ptr(tt.pct)
		r := f.Evaluate(fc, &crop, nil)
		assert.InDelta(t, tt.want, r.Contribution, 1e-9, "moisture %.0f", tt.pct)
		assert.GreaterOrEqual(t, r.Contribution, 0.0)
	}
}

func TestIrrigationFactor(t *testing.T) {
	f := &scoring.IrrigationFactor{Bonus: 10}

	tests := []struct {
		have, prefer farm.IrrigationType
		want         float64
	}{
		{farm.IrrigationDrip, farm.IrrigationFlood, 10},
		{farm.IrrigationCanal, farm.IrrigationNone, 10},
		{farm.IrrigationFlood, farm.IrrigationSprinkler, 0},
		{farm.IrrigationNone, farm.IrrigationNone, 0},
	}
	for _, tt := range tests {
		t.Run(string(tt.have)+"_for_"+string(tt.prefer), func(t *testing.T) {
			crop := testCrop("x")
			crop.PreferredIrrigation = tt.prefer
			fc := baseContext()
			fc.Irrigation = tt.have
			assert.InDelta(t, tt.want, f.Evaluate(fc, &crop, nil).Contribution, 1e-9)
		})
	}
}

func TestRotationFactor(t *testing.T) {
	cat, err := farm.DefaultCatalog()
	require.NoError(t, err)
	f := &scoring.RotationFactor{Bonus: 5}

	tests := []struct {
		name    string
		history []farm.RotationEntry
		crop    string
		want    float64
	}{
		{"legume after cereal", []farm.RotationEntry{{CropID: "wheat", SeasonsAgo: 1}}, "soybean", 5},
		{"cereal after cereal", []farm.RotationEntry{{CropID: "wheat", SeasonsAgo: 1}}, "maize", 0},
		{"unknown previous crop", []farm.RotationEntry{{CropID: "legume", SeasonsAgo: 1}}, "rice", 0},
		{"no history", nil, "rice", 0},
		{"most recent wins", []farm.RotationEntry{{CropID: "chickpea", SeasonsAgo: 2}, {CropID: "wheat", SeasonsAgo: 1}}, "rice", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := baseContext()
			fc.RotationHistory = tt.history
			r := f.Evaluate(fc, mustCrop(t, cat, tt.crop), cat)
			assert.InDelta(t, tt.want, r.Contribution, 1e-9)
		})
	}
}

func TestAgronomicFactor(t *testing.T) {
	f := &scoring.AgronomicFactor{SoilAcceptable: -5, SoilMismatch: -12, SeasonMismatch: -15, Floor: -30}
	crop := testCrop("rice")
	crop.AcceptableSoils = []farm.SoilType{farm.SoilBlack}

	tests := []struct {
		soil   farm.SoilType
		season farm.Season
		want   float64
	}{
		{farm.SoilLoamy, farm.SeasonKharif, 0},
		{farm.SoilBlack, farm.SeasonKharif, -5},
		{farm.SoilSandy, farm.SeasonKharif, -12},
		{farm.SoilLoamy, farm.SeasonRabi, -15},
		{farm.SoilSandy, farm.SeasonRabi, -27},
	}
	for _, tt := range tests {
		t.Run(string(tt.soil)+"_"+string(tt.season), func(t *testing.T) {
			fc := baseContext()
			fc.SoilType = tt.soil
			fc.Season = tt.season
			r := f.Evaluate(fc, &crop, nil)
			assert.Equal(t, scoring.KindPenalty, r.Kind)
			assert.InDelta(t, tt.want, r.Contribution, 1e-9)
		})
	}

	t.Run("floor", func(t *testing.T) {
		floored := &scoring.AgronomicFactor{SoilAcceptable: -5, SoilMismatch: -12, SeasonMismatch: -15, Floor: -20}
		fc := baseContext()
		fc.SoilType = farm.SoilSandy
		fc.Season = farm.SeasonRabi
		assert.InDelta(t, -20, floored.Evaluate(fc, &crop, nil).Contribution, 1e-9)
	})

	t.Run("annual crops fit every season", func(t *testing.T) {
		annual := testCrop("cane")
		annual.Seasons = []farm.Season{farm.SeasonAnnual}
		fc := baseContext()
		fc.Season = farm.SeasonZaid
		assert.InDelta(t, 0, f.Evaluate(fc, &annual, nil).Contribution, 1e-9)
	})
}

func TestEstimationFactor(t *testing.T) {
	f := &scoring.EstimationFactor{PerMissingInput: -5, Floor: -15}
	crop := testCrop("rice")

	full := baseContext()
	full.Forecast = &farm.Forecast{RainfallMM: 800, MaxTempC: ptr(32.0)}
	r := f.Evaluate(full, &crop, nil)
	assert.Zero(t, r.Contribution)
	assert.Empty(t, r.Evidence)

	partial := baseContext()
	r = f.Evaluate(partial, &crop, nil)
	assert.InDelta(t, -5, r.Contribution, 1e-9)
	assert.Equal(t, []string{scoring.InputForecast}, scoring.MissingInputs(partial))

	bare := baseContext()
	bare.VegetationIndex = nil
	bare.RotationHistory = nil
	r = f.Evaluate(bare, &crop, nil)
	assert.InDelta(t, -15, r.Contribution, 1e-9)
	assert.Len(t, r.Evidence, 3)

	floored := &scoring.EstimationFactor{PerMissingInput: -8, Floor: -15}
	assert.InDelta(t, -15, floored.Evaluate(bare, &crop, nil).Contribution, 1e-9)
}

func TestDefaultFactorsCoverBreakdownFields(t *testing.T) {
	factors := scoring.DefaultFactors(scoring.Defaults())
	keys := make([]string, len(factors))
	for i, f := range factors {
		keys[i] = f.Key()
		assert.NotEmpty(t, f.Name())
	}
	assert.Equal(t, []string{
		scoring.KeyVegetation,
		scoring.KeyMoisture,
		scoring.KeyIrrigation,
		scoring.KeyRotation,
		scoring.KeyAgronomic,
		scoring.KeyEstimation,
	}, keys)
}
