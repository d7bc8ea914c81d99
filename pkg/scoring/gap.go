package scoring

import (
	"fmt"

	"github.com/cropscope/cropscope/pkg/farm"
)

// EvaluateGap decides whether the crop's maximum duration plus a safety
// buffer fits the idle window between two main-season crops. An explicit
// cropping plan takes precedence over the catalog calendar.
func EvaluateGap(p Policy, fc *farm.FarmContext, crop *farm.CropProfile, cat *farm.Catalog) GapVerdict {
	v := GapVerdict{
		RequiredDays: crop.Duration.MaxDays + p.GapBufferDays,
		BufferDays:   p.GapBufferDays,
	}

	var window string
	switch {
	case fc.Plan != nil:
		v.WindowDays = fc.Plan.IdleDays()
		window = "planned"
	case cat != nil:
		from, to, days, ok := cat.Calendar.IdleWindow(fc.Season)
		if !ok {
			v.Reason = fmt.Sprintf("no idle window between main-season crops in %s", fc.Season)
			return v
		}
		v.WindowDays = days
		window = fmt.Sprintf("%s-to-%s", from, to)
	default:
		v.Reason = "no calendar to derive an idle window"
		return v
	}

	if v.WindowDays <= 0 {
		v.Reason = fmt.Sprintf("the %s gap is empty", window)
		return v
	}
	if v.RequiredDays > v.WindowDays {
		v.Reason = fmt.Sprintf("needs %d days (%d + %d buffer) but the %s gap is %d days",
			v.RequiredDays, crop.Duration.MaxDays, p.GapBufferDays, window, v.WindowDays)
		return v
	}

	v.Suitable = true
	v.Reason = fmt.Sprintf("fits the %d-day %s gap with %d days to spare beyond the %d-day buffer",
		v.WindowDays, window, v.WindowDays-v.RequiredDays, p.GapBufferDays)
	return v
}
