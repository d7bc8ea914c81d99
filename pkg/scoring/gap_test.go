package scoring_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/cropscope/cropscope/pkg/farm"
	"github.com/cropscope/cropscope/pkg/scoring"
)

func TestEvaluateGapCalendar(t *testing.T) {
	cat := loadSmallCatalog(t)
	p := scoring.Defaults()

	short := testCrop("moong")
	short.Duration = farm.DayRange{MinDays: 55, MaxDays: 65}

	fc := baseContext()
	fc.Season = farm.SeasonRabi
	v := scoring.EvaluateGap(p, fc, &short, cat)
	assert.True(t, v.Suitable)
	assert.Equal(t, 76, v.WindowDays)
	assert.Equal(t, 75, v.RequiredDays)
	assert.Contains(t, v.Reason, "rabi-to-kharif")

	fc.Season = farm.SeasonKharif
	v = scoring.EvaluateGap(p, fc, &short, cat)
	assert.False(t, v.Suitable)
	assert.Equal(t, 17, v.WindowDays)
	assert.Contains(t, v.Reason, "needs 75 days (65 + 10 buffer)")
}

func TestEvaluateGapPlanTakesPrecedence(t *testing.T) {
	cat := loadSmallCatalog(t)
	crop := testCrop("x")
	crop.Duration = farm.DayRange{MinDays: 50, MaxDays: 56}

	fc := baseContext()
	fc.Plan = &farm.CroppingPlan{
		PreviousHarvest: time.Date(2024, 10, 20, 0, 0, 0, 0, time.UTC),
		NextSowing:      time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC),
	}
	v := scoring.EvaluateGap(scoring.Defaults(), fc, &crop, cat)
	assert.True(t, v.Suitable)
	assert.Equal(t, 66, v.WindowDays)
	assert.Contains(t, v.Reason, "planned")

	crop.Duration.MaxDays = 57
	v = scoring.EvaluateGap(scoring.Defaults(), fc, &crop, cat)
	assert.False(t, v.Suitable, "buffer must be respected")
}

func TestEvaluateGapAnnualHasNoWindow(t *testing.T) {
	cat := loadSmallCatalog(t)
	crop := testCrop("x")
	fc := baseContext()
	fc.Season = farm.SeasonAnnual

	v := scoring.EvaluateGap(scoring.Defaults(), fc, &crop, cat)
	assert.False(t, v.Suitable)
	assert.Zero(t, v.WindowDays)
	assert.Contains(t, v.Reason, "no idle window")
}

func TestEvaluateGapNeverFitsLongerThanWindow(t *testing.T) {
	cat := loadSmallCatalog(t)
	for _, buffer := range []int{0, 10, 20} {
		p := scoring.Defaults()
		p.GapBufferDays = buffer
		for idle := 0; idle <= 120; idle += 7 {
			for minDays := 30; minDays <= 150; minDays += 11 {
				crop := testCrop("x")
				crop.Duration = farm.DayRange{MinDays: minDays, MaxDays: minDays + 15}
				fc := baseContext()
				start := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
				fc.Plan = &farm.CroppingPlan{PreviousHarvest: start, NextSowing: start.AddDate(0, 0, idle)}

				v := scoring.EvaluateGap(p, fc, &crop, cat)
				if minDays > v.WindowDays {
					assert.False(t, v.Suitable, "min %d days must not fit a %d-day gap", minDays, v.WindowDays)
				}
				if v.Suitable {
					assert.LessOrEqual(t, crop.Duration.MaxDays+buffer, v.WindowDays)
				}
			}
		}
	}
}
