package scoring

import (
	"fmt"
	"strings"

	"github.com/cropscope/cropscope/pkg/farm"
)

// waterBalance is the seasonal water available to a crop against its need.
type waterBalance struct {
	RainfallMM float64
	Source     string // "forecast" or "seasonal normal"
	SupplyMM   float64
	NeedMM     float64
}

// Coverage is available water over need; 0 when need is unknown.
func (w waterBalance) Coverage() float64 {
	if w.NeedMM <= 0 {
		return 0
	}
	return (w.RainfallMM + w.SupplyMM) / w.NeedMM
}

func computeWaterBalance(p Policy, fc *farm.FarmContext, crop *farm.CropProfile, cat *farm.Catalog) waterBalance {
	wb := waterBalance{
		SupplyMM: p.supplyMM(fc.Irrigation),
		NeedMM:   crop.WaterNeedMM,
		Source:   "seasonal normal",
	}
	if fc.Forecast != nil {
		wb.RainfallMM = fc.Forecast.RainfallMM
		wb.Source = "forecast"
	} else if cat != nil {
		wb.RainfallMM = cat.NormalRainfall(fc.Region, fc.Season)
	}
	return wb
}

// ClassifyRisk derives the four risk verdicts for one crop.
func ClassifyRisk(p Policy, fc *farm.FarmContext, crop *farm.CropProfile, cat *farm.Catalog) RiskScoreSet {
	return RiskScoreSet{
		Water:    waterRisk(p, computeWaterBalance(p, fc, crop, cat), fc.Irrigation),
		Duration: durationRisk(crop),
		Climate:  climateRisk(p, fc, crop, cat),
		Rotation: rotationRisk(p, fc, crop, cat),
	}
}

func waterRisk(p Policy, wb waterBalance, irrigation farm.IrrigationType) RiskVerdict {
	cov := wb.Coverage()
	level := farm.RiskHigh
	switch {
	case cov >= p.WaterLowCoverage:
		level = farm.RiskLow
	case cov >= p.WaterMediumCoverage:
		level = farm.RiskMedium
	}
	return RiskVerdict{
		Level: level,
		Justification: fmt.Sprintf("rainfall %.0fmm (%s) + %s supply %.0fmm covers %.0f%% of the %.0fmm need",
			wb.RainfallMM, wb.Source, irrigation, wb.SupplyMM, cov*100, wb.NeedMM),
	}
}

func durationRisk(crop *farm.CropProfile) RiskVerdict {
	days := fmt.Sprintf("%d-%d days", crop.Duration.MinDays, crop.Duration.MaxDays)
	switch crop.Class() {
	case farm.DurationShort:
		return RiskVerdict{Level: farm.RiskLow, Justification: "short duration (" + days + ") limits exposure"}
	case farm.DurationMedium:
		return RiskVerdict{Level: farm.RiskMedium, Justification: "medium duration (" + days + ")"}
	default:
		return RiskVerdict{Level: farm.RiskHigh, Justification: "long duration (" + days + ") extends exposure to adverse weather"}
	}
}

func climateRisk(p Policy, fc *farm.FarmContext, crop *farm.CropProfile, cat *farm.Catalog) RiskVerdict {
	if !crop.GrowsIn(fc.Season) {
		return RiskVerdict{
			Level:         farm.RiskHigh,
			Justification: fmt.Sprintf("%s is out of season in %s", crop.Name, fc.Season),
		}
	}
	if fc.Forecast == nil {
		return RiskVerdict{
			Level:         farm.RiskLow,
			Justification: fmt.Sprintf("in season for %s; no forecast supplied, assessed on season alignment only", fc.Season),
		}
	}

	level := farm.RiskLow
	var reasons []string
	raise := func(l farm.RiskLevel, reason string) {
		level = farm.MaxRisk(level, l)
		reasons = append(reasons, reason)
	}

	if fc.Forecast.MaxTempC != nil {
		tmax := *fc.Forecast.MaxTempC
		switch excess := tmax - crop.TempRangeC.Max; {
		case excess > p.HeatHighMarginC:
			raise(farm.RiskHigh, fmt.Sprintf("forecast max %.1f°C is %.1f°C above the %.1f°C limit", tmax, excess, crop.TempRangeC.Max))
		case excess > 0:
			raise(farm.RiskMedium, fmt.Sprintf("forecast max %.1f°C exceeds the %.1f°C limit", tmax, crop.TempRangeC.Max))
		case tmax < crop.TempRangeC.Min:
			raise(farm.RiskMedium, fmt.Sprintf("forecast max %.1f°C is below the %.1f°C minimum", tmax, crop.TempRangeC.Min))
		}
	}

	if cat != nil {
		if normal := cat.NormalRainfall(fc.Region, fc.Season); normal > 0 {
			ratio := fc.Forecast.RainfallMM / normal
			if ratio < p.RainLowRatio || ratio > p.RainHighRatio {
				raise(farm.RiskMedium, fmt.Sprintf("forecast rainfall is %.0f%% of the %.0fmm normal", ratio*100, normal))
			}
		}
	}

	if len(reasons) == 0 {
		if fc.Forecast.MaxTempC == nil {
			return RiskVerdict{Level: farm.RiskLow, Justification: fmt.Sprintf("forecast rainfall within tolerances for %s; no temperature forecast", fc.Season)}
		}
		return RiskVerdict{Level: farm.RiskLow, Justification: fmt.Sprintf("forecast within tolerances for %s", fc.Season)}
	}
	return RiskVerdict{Level: level, Justification: strings.Join(reasons, "; ")}
}

// rotationRisk flags monoculture within the look-back window. A repeat of the
// same crop is high; a crop of the same family is medium. History IDs the
// catalog does not know only match by exact ID.
func rotationRisk(p Policy, fc *farm.FarmContext, crop *farm.CropProfile, cat *farm.Catalog) RiskVerdict {
	if len(fc.RotationHistory) == 0 {
		return RiskVerdict{Level: farm.RiskMedium, Justification: "rotation history not supplied"}
	}

	best := RiskVerdict{
		Level:         farm.RiskLow,
		Justification: fmt.Sprintf("no %s or other %s crop in the last %d seasons", crop.Name, crop.Family, p.RotationLookback),
	}
	bestAgo := 0
	for _, e := range fc.RotationHistory {
		if e.SeasonsAgo > p.RotationLookback {
			continue
		}

		var v RiskVerdict
		switch {
		case e.CropID == crop.ID:
			v = RiskVerdict{Level: farm.RiskHigh, Justification: "grown in the same field " + seasonsAgo(e.SeasonsAgo)}
		case cat != nil:
			prev, ok := cat.Crop(e.CropID)
			if !ok || prev.Family != crop.Family {
				continue
			}
			v = RiskVerdict{
				Level:         farm.RiskMedium,
				Justification: fmt.Sprintf("same %s family as %s grown %s", crop.Family, prev.Name, seasonsAgo(e.SeasonsAgo)),
			}
		default:
			continue
		}

		sev, bestSev := v.Level.Severity(), best.Level.Severity()
		if sev > bestSev || (sev == bestSev && e.SeasonsAgo < bestAgo) {
			best, bestAgo = v, e.SeasonsAgo
		}
	}
	return best
}

func seasonsAgo(n int) string {
	if n <= 1 {
		return "last season"
	}
	return fmt.Sprintf("%d seasons ago", n)
}
