package scoring_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cropscope/cropscope/pkg/farm"
)

func ptr[T any](v T) *T { return &v }

func loadSmallCatalog(t *testing.T) *farm.Catalog {
	t.Helper()
	cat, err := farm.LoadCatalog("../../testdata/catalog_small.yaml")
	require.NoError(t, err)
	require.NoError(t, cat.Validate())
	return cat
}

func loadContext(t *testing.T, name string) *farm.FarmContext {
	t.Helper()
	fc, err := farm.LoadContext("../../testdata/" + name)
	require.NoError(t, err)
	return fc
}

func mustCrop(t *testing.T, cat *farm.Catalog, id string) *farm.CropProfile {
	t.Helper()
	crop, ok := cat.Crop(id)
	require.True(t, ok, "crop %s not in catalog", id)
	return crop
}

// baseContext is a fully specified loamy kharif field in central India.
func baseContext() *farm.FarmContext {
	return &farm.FarmContext{
		SoilType:        farm.SoilLoamy,
		SoilMoisturePct: ptr(28.0),
		VegetationIndex: ptr(0.82),
		Irrigation:      farm.IrrigationDrip,
		Season:          farm.SeasonKharif,
		Region:          "central-india",
		RotationHistory: []farm.RotationEntry{{CropID: "legume", SeasonsAgo: 1}},
	}
}

// testCrop returns a valid, unremarkable crop profile.
func testCrop(id string) farm.CropProfile {
	return farm.CropProfile{
		ID:                  id,
		Name:                id,
		Family:              farm.FamilyCereal,
		IdealSoils:          []farm.SoilType{farm.SoilLoamy},
		WaterNeedMM:         500,
		PreferredIrrigation: farm.IrrigationDrip,
		IdealMoisture:       farm.Range{Min: 20, Max: 30},
		MinHealthyNDVI:      0.5,
		Duration:            farm.DayRange{MinDays: 100, MaxDays: 120},
		Seasons:             []farm.Season{farm.SeasonKharif},
		TempRangeC:          farm.Range{Min: 15, Max: 35},
		Economics: farm.Economics{
			YieldKgPerHa:      farm.Range{Min: 2000, Max: 4000},
			PricePerKg:        farm.Range{Min: 20, Max: 30},
			BaselineCostPerHa: 40000,
		},
	}
}
