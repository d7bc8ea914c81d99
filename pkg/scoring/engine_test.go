package scoring_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cropscope/cropscope/pkg/farm"
	"github.com/cropscope/cropscope/pkg/scoring"
)

func evaluate(t *testing.T, fc *farm.FarmContext, cat *farm.Catalog, opts scoring.Options) *scoring.RecommendationSet {
	t.Helper()
	engine := scoring.NewEngine(scoring.Defaults())
	set, err := engine.Evaluate(context.Background(), *fc, cat, opts)
	require.NoError(t, err)
	require.NotNil(t, set)
	return set
}

func byID(set *scoring.RecommendationSet) map[string]scoring.ScoredCrop {
	out := make(map[string]scoring.ScoredCrop, len(set.Crops))
	for _, c := range set.Crops {
		out[c.CropID] = c
	}
	return out
}

func TestEngineKharifExample(t *testing.T) {
	cat := loadSmallCatalog(t)
	fc := loadContext(t, "context_kharif.yaml")

	set := evaluate(t, fc, cat, scoring.Options{})
	require.Len(t, set.Crops, 3)
	assert.Equal(t, scoring.ReasonNone, set.Reason)
	assert.Equal(t, "central-india", set.Region, "state maps onto a catalog region")
	assert.Equal(t, farm.SeasonKharif, set.Season)

	crops := byID(set)
	for _, c := range set.Crops {
		assert.LessOrEqual(t, c.Confidence.Final, 85.0, c.CropID)
		assert.GreaterOrEqual(t, c.Confidence.Final, 0.0, c.CropID)
	}

	// The previous crop is recorded only as "legume", which names no
	// catalog crop, so soybean carries no rotation risk.
	assert.Equal(t, farm.RiskLow, crops["soybean"].Risks.Rotation.Level)

	// Drip gives more water control than the flood irrigation rice prefers.
	assert.InDelta(t, 10, crops["rice"].Confidence.IrrigationBonus, 1e-9)
	assert.InDelta(t, 88, crops["rice"].Confidence.Raw, 1e-9)

	var safest []string
	for _, c := range set.Crops {
		if c.Safest {
			safest = append(safest, c.CropID)
			assert.NotEmpty(t, c.SafestRationale)
		}
	}
	require.Len(t, safest, 1)
	assert.Equal(t, set.SafestCropID, safest[0])

	// All three tie on confidence, risk and tier; the ID decides.
	assert.Equal(t, "maize", set.SafestCropID)
	assert.Equal(t, []string{"maize", "rice", "soybean"}, ids(set.Crops))
}

func TestEngineDegradedContextScoresLower(t *testing.T) {
	cat := loadSmallCatalog(t)
	p := scoring.Defaults()

	full := evaluate(t, loadContext(t, "context_kharif.yaml"), cat, scoring.Options{})
	degraded := evaluate(t, loadContext(t, "context_degraded.yaml"), cat, scoring.Options{})

	penalty := -2 * p.MissingInputPenalty
	fullByID := byID(full)
	for _, c := range degraded.Crops {
		f := fullByID[c.CropID]
		assert.LessOrEqual(t, c.Confidence.Final, f.Confidence.Final-penalty, c.CropID)
		assert.Contains(t, c.Confidence.MissingInputs, scoring.InputVegetationIndex)
		assert.Contains(t, c.Confidence.MissingInputs, scoring.InputRotationHistory)
		assert.Contains(t, c.Confidence.Rationale, "vegetation index")
		assert.Contains(t, c.Confidence.Rationale, "rotation history")
		assert.Equal(t, farm.RiskMedium, c.Risks.Rotation.Level)
	}
}

func TestEngineProperties(t *testing.T) {
	cat, err := farm.DefaultCatalog()
	require.NoError(t, err)
	engine := scoring.NewEngine(scoring.Defaults())

	soils := []farm.SoilType{farm.SoilAlluvial, farm.SoilBlack, farm.SoilRed, farm.SoilLaterite, farm.SoilClay, farm.SoilSandy, farm.SoilLoamy, farm.SoilSilty}
	seasons := []farm.Season{farm.SeasonKharif, farm.SeasonRabi, farm.SeasonZaid, farm.SeasonAnnual}
	irrigations := []farm.IrrigationType{farm.IrrigationNone, farm.IrrigationFlood, farm.IrrigationCanal, farm.IrrigationSprinkler, farm.IrrigationDrip}

	for _, soil := range soils {
		for _, season := range seasons {
			for _, irrigation := range irrigations {
				for _, degraded := range []bool{false, true} {
					fc := farm.FarmContext{
						SoilType:        soil,
						SoilMoisturePct: ptr(22.0),
						Irrigation:      irrigation,
						Season:          season,
						State:           "Punjab",
					}
					if !degraded {
						fc.VegetationIndex = ptr(0.7)
						fc.Forecast = &farm.Forecast{RainfallMM: 400, MaxTempC: ptr(36.0)}
						fc.RotationHistory = []farm.RotationEntry{{CropID: "wheat", SeasonsAgo: 1}}
					}

					set, err := engine.Evaluate(context.Background(), fc, cat, scoring.Options{})
					require.NoError(t, err)
					require.NotEmpty(t, set.Crops)

					flagged := 0
					for _, c := range set.Crops {
						assert.GreaterOrEqual(t, c.Confidence.Final, 0.0)
						assert.LessOrEqual(t, c.Confidence.Final, 85.0)
						assert.Equal(t, farm.MaxRisk(c.Risks.Water.Level, c.Risks.Duration.Level, c.Risks.Climate.Level, c.Risks.Rotation.Level), c.AggregateRisk)
						if c.Duration.MinDays > c.Gap.WindowDays {
							assert.False(t, c.Gap.Suitable, "%s in %s", c.CropID, season)
						}
						if c.Safest {
							flagged++
						}
					}
					assert.Equal(t, 1, flagged, "%s/%s/%s", soil, season, irrigation)
				}
			}
		}
	}
}

func TestEngineDeterministic(t *testing.T) {
	cat, err := farm.DefaultCatalog()
	require.NoError(t, err)
	fc := loadContext(t, "context_kharif.yaml")
	fc.Forecast = &farm.Forecast{RainfallMM: 650, MaxTempC: ptr(38.0)}

	engine := scoring.NewEngine(scoring.Defaults())
	first, err := engine.Evaluate(context.Background(), *fc, cat, scoring.Options{Concurrency: 1})
	require.NoError(t, err)
	second, err := engine.Evaluate(context.Background(), *fc, cat, scoring.Options{Concurrency: 8})
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("evaluation is not deterministic (-first +second):\n%s", diff)
	}

	other, err := engine.Evaluate(context.Background(), *fc, cat, scoring.Options{MaxResults: 3})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID, "options are part of the set identity")
}

func TestEngineDoesNotMutateInputs(t *testing.T) {
	cat := loadSmallCatalog(t)
	fc := loadContext(t, "context_kharif.yaml")
	fcBefore := *fc
	catBefore, err := farm.LoadCatalog("../../testdata/catalog_small.yaml")
	require.NoError(t, err)

	evaluate(t, fc, cat, scoring.Options{SeasonOverride: farm.SeasonRabi, RegionOverride: "central-india"})

	if diff := cmp.Diff(fcBefore, *fc); diff != "" {
		t.Errorf("context mutated (-before +after):\n%s", diff)
	}
	if diff := cmp.Diff(catBefore, cat); diff != "" {
		t.Errorf("catalog mutated (-before +after):\n%s", diff)
	}
}

func TestEngineValidation(t *testing.T) {
	cat := loadSmallCatalog(t)
	fc := loadContext(t, "context_invalid.json")

	set, err := scoring.NewEngine(scoring.Defaults()).Evaluate(context.Background(), *fc, cat, scoring.Options{})
	require.Error(t, err)
	assert.Nil(t, set)

	var verr *scoring.ValidationError
	require.True(t, errors.As(err, &verr))
	fields := make([]string, len(verr.Fields))
	for i, f := range verr.Fields {
		fields[i] = f.Field
	}
	assert.Equal(t, []string{"soil_type", "soil_moisture_pct", "season"}, fields)
}

func TestEngineValidationOptionalRanges(t *testing.T) {
	cat := loadSmallCatalog(t)
	engine := scoring.NewEngine(scoring.Defaults())

	tests := []struct {
		name   string
		mutate func(fc *farm.FarmContext)
		opts   scoring.Options
		field  string
	}{
		{"vegetation index above one", func(fc *farm.FarmContext) { fc.VegetationIndex = ptr(1.4) }, scoring.Options{}, "vegetation_index"},
		{"moisture above hundred", func(fc *farm.FarmContext) { fc.SoilMoisturePct = ptr(120.0) }, scoring.Options{}, "soil_moisture_pct"},
		{"unknown region override", func(*farm.FarmContext) {}, scoring.Options{RegionOverride: "atlantis"}, "region"},
		{"bad rotation entry", func(fc *farm.FarmContext) {
			fc.RotationHistory = []farm.RotationEntry{{CropID: "rice", SeasonsAgo: 0}}
		}, scoring.Options{}, "rotation_history[0].seasons_ago"},
		{"unknown duration preference", func(*farm.FarmContext) {}, scoring.Options{DurationPreference: "forever"}, "duration_preference"},
		{"vegetation index NaN", func(fc *farm.FarmContext) { fc.VegetationIndex = ptr(math.NaN()) }, scoring.Options{}, "vegetation_index"},
		{"moisture NaN", func(fc *farm.FarmContext) { fc.SoilMoisturePct = ptr(math.NaN()) }, scoring.Options{}, "soil_moisture_pct"},
		{"moisture infinite", func(fc *farm.FarmContext) { fc.SoilMoisturePct = ptr(math.Inf(1)) }, scoring.Options{}, "soil_moisture_pct"},
		{"forecast rainfall NaN", func(fc *farm.FarmContext) {
			fc.Forecast = &farm.Forecast{RainfallMM: math.NaN(), MaxTempC: ptr(30.0)}
		}, scoring.Options{}, "forecast.rainfall_mm"},
		{"forecast rainfall infinite", func(fc *farm.FarmContext) {
			fc.Forecast = &farm.Forecast{RainfallMM: math.Inf(1)}
		}, scoring.Options{}, "forecast.rainfall_mm"},
		{"forecast temperature infinite", func(fc *farm.FarmContext) {
			fc.Forecast = &farm.Forecast{RainfallMM: 800, MaxTempC: ptr(math.Inf(-1))}
		}, scoring.Options{}, "forecast.max_temp_c"},
		{"unknown moisture level", func(fc *farm.FarmContext) {
			fc.SoilMoisturePct = nil
			fc.SoilMoisture = "soggy"
		}, scoring.Options{}, "soil_moisture"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := baseContext()
			tt.mutate(fc)
			_, err := engine.Evaluate(context.Background(), *fc, cat, tt.opts)
			var verr *scoring.ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			require.Len(t, verr.Fields, 1)
			assert.Equal(t, tt.field, verr.Fields[0].Field)
		})
	}
}

func TestEngineRejectsNonFiniteYAML(t *testing.T) {
	fc, err := farm.DecodeContext([]byte(`
soil_type: loamy
soil_moisture_pct: 28
vegetation_index: .nan
irrigation: drip
season: kharif
region: central-india
`))
	require.NoError(t, err)

	set, err := scoring.NewEngine(scoring.Defaults()).Evaluate(context.Background(), *fc, loadSmallCatalog(t), scoring.Options{})
	assert.Nil(t, set)
	var verr *scoring.ValidationError
	require.True(t, errors.As(err, &verr), "got %v", err)
	assert.Equal(t, "vegetation_index", verr.Fields[0].Field)
}

func TestEngineCategoricalMoisture(t *testing.T) {
	cat := loadSmallCatalog(t)
	measured := evaluate(t, baseContext(), cat, scoring.Options{})

	fc := baseContext()
	fc.SoilMoisturePct = nil
	fc.SoilMoisture = farm.MoistureOptimal
	categorical := evaluate(t, fc, cat, scoring.Options{})

	assert.Nil(t, fc.SoilMoisturePct, "caller's context must not be modified")
	require.Len(t, categorical.Crops, len(measured.Crops))
	for i := range measured.Crops {
		assert.Equal(t, measured.Crops[i].CropID, categorical.Crops[i].CropID)
		assert.InDelta(t, measured.Crops[i].Confidence.Final, categorical.Crops[i].Confidence.Final, 1e-9)
	}
	assert.Equal(t, measured.SafestCropID, categorical.SafestCropID)
}

func TestEngineEmptyCatalog(t *testing.T) {
	set := evaluate(t, baseContext(), &farm.Catalog{Version: "empty"}, scoring.Options{})
	assert.Equal(t, scoring.ReasonEmptyCatalog, set.Reason)
	assert.Empty(t, set.Crops)
	assert.Empty(t, set.SafestCropID)
}

func TestEngineNoEligibleCrops(t *testing.T) {
	cane := testCrop("sugarcane")
	cane.Duration = farm.DayRange{MinDays: 300, MaxDays: 365}
	cat := &farm.Catalog{Version: "long-only", Crops: []farm.CropProfile{cane}}

	set := evaluate(t, baseContext(), cat, scoring.Options{DurationPreference: farm.PreferShortTerm})
	assert.Equal(t, scoring.ReasonNoEligibleCrops, set.Reason)
	assert.Empty(t, set.Crops)
}

func TestEngineDurationPreferenceFilter(t *testing.T) {
	cat, err := farm.DefaultCatalog()
	require.NoError(t, err)

	short := evaluate(t, baseContext(), cat, scoring.Options{DurationPreference: farm.PreferShortTerm})
	for _, c := range short.Crops {
		assert.NotEqual(t, farm.DurationLong, c.DurationClass, c.CropID)
	}

	fc := baseContext()
	fc.DurationPreference = farm.PreferLongTerm
	long := evaluate(t, fc, cat, scoring.Options{})
	for _, c := range long.Crops {
		assert.NotEqual(t, farm.DurationShort, c.DurationClass, c.CropID)
	}
	assert.Less(t, len(long.Crops), len(cat.Crops))
}

// riskyLeaderCatalog has a long-duration crop that leads on confidence and a
// short, low-risk crop that is the safest choice but ranks second.
func riskyLeaderCatalog() *farm.Catalog {
	alpha := testCrop("alpha")
	alpha.Duration = farm.DayRange{MinDays: 160, MaxDays: 200}

	beta := testCrop("beta")
	beta.Family = farm.FamilyLegume
	beta.IdealSoils = []farm.SoilType{farm.SoilClay}
	beta.AcceptableSoils = []farm.SoilType{farm.SoilLoamy}
	beta.IdealMoisture = farm.Range{Min: 40, Max: 50}
	beta.Duration = farm.DayRange{MinDays: 60, MaxDays: 80}

	return &farm.Catalog{Version: "risky-leader", Crops: []farm.CropProfile{alpha, beta}}
}

func riskyLeaderContext() *farm.FarmContext {
	fc := baseContext()
	fc.Region = ""
	fc.SoilMoisturePct = ptr(25.0)
	fc.VegetationIndex = ptr(0.8)
	fc.Forecast = &farm.Forecast{RainfallMM: 800, MaxTempC: ptr(30.0)}
	fc.RotationHistory = []farm.RotationEntry{{CropID: "fallow", SeasonsAgo: 1}}
	return fc
}

func TestEngineMaxResultsKeepsSafest(t *testing.T) {
	cat := riskyLeaderCatalog()
	fc := riskyLeaderContext()

	all := evaluate(t, fc, cat, scoring.Options{})
	require.Equal(t, []string{"alpha", "beta"}, ids(all.Crops))
	assert.Equal(t, "beta", all.SafestCropID)
	assert.Equal(t, farm.RiskHigh, all.Crops[0].AggregateRisk)
	assert.Equal(t, farm.RiskLow, all.Crops[1].AggregateRisk)

	top := evaluate(t, fc, cat, scoring.Options{MaxResults: 1})
	assert.Equal(t, []string{"beta"}, ids(top.Crops))
	assert.Equal(t, 2, top.Considered)
}

func TestEngineSafestFirst(t *testing.T) {
	set := evaluate(t, riskyLeaderContext(), riskyLeaderCatalog(), scoring.Options{SafestFirst: true})
	assert.Equal(t, []string{"beta", "alpha"}, ids(set.Crops))
	assert.True(t, set.Crops[0].Safest)
}

func TestEngineSkipSafestWhenAllHigh(t *testing.T) {
	cane := testCrop("sugarcane")
	cane.Duration = farm.DayRange{MinDays: 300, MaxDays: 365}
	cat := &farm.Catalog{Version: "long-only", Crops: []farm.CropProfile{cane}}

	p := scoring.Defaults()
	p.SkipSafestWhenAllHigh = true
	set, err := scoring.NewEngine(p).Evaluate(context.Background(), *baseContext(), cat, scoring.Options{})
	require.NoError(t, err)
	require.Len(t, set.Crops, 1)
	assert.False(t, set.Crops[0].Safest)
	assert.Empty(t, set.SafestCropID)
}

func TestEngineSeasonOverride(t *testing.T) {
	cat := loadSmallCatalog(t)
	set := evaluate(t, baseContext(), cat, scoring.Options{SeasonOverride: farm.SeasonRabi})
	assert.Equal(t, farm.SeasonRabi, set.Season)

	rice := byID(set)["rice"]
	assert.InDelta(t, -15, rice.Confidence.AgronomicPenalty, 1e-9)
	assert.Equal(t, farm.RiskHigh, rice.Risks.Climate.Level)
}

func TestEngineCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	set, err := scoring.NewEngine(scoring.Defaults()).Evaluate(ctx, *baseContext(), loadSmallCatalog(t), scoring.Options{})
	assert.Nil(t, set)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestEngineNilCatalog(t *testing.T) {
	_, err := scoring.NewEngine(scoring.Defaults()).Evaluate(context.Background(), *baseContext(), nil, scoring.Options{})
	assert.Error(t, err)
}

type pestFactor struct{}

func (pestFactor) Key() string  { return "pest_pressure" }
func (pestFactor) Name() string { return "Pest pressure" }
func (pestFactor) Evaluate(_ *farm.FarmContext, crop *farm.CropProfile, _ *farm.Catalog) scoring.FactorResult {
	r := scoring.FactorResult{Key: "pest_pressure", Name: "Pest pressure", Kind: scoring.KindPenalty}
	if crop.Family == farm.FamilyCereal {
		r.Contribution = -20
	}
	return r
}

func TestEngineCustomFactors(t *testing.T) {
	cat := loadSmallCatalog(t)
	engine := scoring.NewEngine(scoring.Defaults(), pestFactor{})

	set, err := engine.Evaluate(context.Background(), *baseContext(), cat, scoring.Options{})
	require.NoError(t, err)

	crops := byID(set)
	assert.InDelta(t, 40, crops["rice"].Confidence.Final, 1e-9)
	assert.InDelta(t, 60, crops["soybean"].Confidence.Final, 1e-9)
	assert.Equal(t, []string{"soybean", "maize", "rice"}, ids(set.Crops))
}
