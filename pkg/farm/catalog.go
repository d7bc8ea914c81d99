package farm

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Catalog is a versioned, read-only set of crop profiles together with the
// season calendar and regional normals used to interpret a farm context.
// Catalogs are immutable once loaded.
type Catalog struct {
	Version       string          `json:"version" yaml:"version"`
	Crops         []CropProfile   `json:"crops" yaml:"crops"`
	Calendar      Calendar        `json:"calendar" yaml:"calendar"`
	Regions       []RegionProfile `json:"regions,omitempty" yaml:"regions,omitempty"`
	DefaultRegion string          `json:"default_region,omitempty" yaml:"default_region,omitempty"`
}

// CropProfile holds the agronomic and economic reference data for one crop.
type CropProfile struct {
	ID         string            `json:"id" yaml:"id"`
	Name       string            `json:"name" yaml:"name"`
	LocalNames map[string]string `json:"local_names,omitempty" yaml:"local_names,omitempty"` // language code -> name
	Family     CropFamily        `json:"family" yaml:"family"`

	IdealSoils      []SoilType `json:"ideal_soils" yaml:"ideal_soils"`
	AcceptableSoils []SoilType `json:"acceptable_soils,omitempty" yaml:"acceptable_soils,omitempty"`

	WaterNeedMM         float64        `json:"water_need_mm" yaml:"water_need_mm"`
	PreferredIrrigation IrrigationType `json:"preferred_irrigation" yaml:"preferred_irrigation"`
	IdealMoisture       Range          `json:"ideal_moisture" yaml:"ideal_moisture"` // volumetric %
	MinHealthyNDVI      float64        `json:"min_healthy_ndvi" yaml:"min_healthy_ndvi"`

	Duration      DayRange      `json:"duration" yaml:"duration"`
	DurationClass DurationClass `json:"duration_class,omitempty" yaml:"duration_class,omitempty"`
	Seasons       []Season      `json:"seasons" yaml:"seasons"`
	TempRangeC    Range         `json:"temp_range_c" yaml:"temp_range_c"`

	Economics Economics `json:"economics" yaml:"economics"`
}

// Economics holds the baseline yield and market assumptions for a crop.
type Economics struct {
	YieldKgPerHa       Range     `json:"yield_kg_per_ha" yaml:"yield_kg_per_ha"`
	PricePerKg         Range     `json:"price_per_kg" yaml:"price_per_kg"`
	BaselineCostPerHa  float64   `json:"baseline_cost_per_ha" yaml:"baseline_cost_per_ha"`
	TypicalProfitPerHa float64   `json:"typical_profit_per_ha,omitempty" yaml:"typical_profit_per_ha,omitempty"`
	TierMultiples      []float64 `json:"tier_multiples,omitempty" yaml:"tier_multiples,omitempty"`
}

// TypicalProfit returns the configured typical profit per hectare, or the
// profit at the midpoints of the yield and price ranges.
func (e Economics) TypicalProfit() float64 {
	if e.TypicalProfitPerHa != 0 {
		return e.TypicalProfitPerHa
	}
	return e.YieldKgPerHa.Mid()*e.PricePerKg.Mid() - e.BaselineCostPerHa
}

// Range is a closed numeric interval.
type Range struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Mid returns the midpoint of the range.
func (r Range) Mid() float64 { return (r.Min + r.Max) / 2 }

// Contains reports whether v lies within the range.
func (r Range) Contains(v float64) bool { return v >= r.Min && v <= r.Max }

// Lerp returns the point at fraction t (clamped to [0,1]) across the range.
func (r Range) Lerp(t float64) float64 {
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return r.Min + (r.Max-r.Min)*t
}

// DayRange is a duration in days from sowing to harvest.
type DayRange struct {
	MinDays int `json:"min_days" yaml:"min_days"`
	MaxDays int `json:"max_days" yaml:"max_days"`
}

// Class returns the profile's duration class, deriving it when unset.
func (c *CropProfile) Class() DurationClass {
	if c.DurationClass != "" {
		return c.DurationClass
	}
	return ClassifyDuration(c.Duration.MaxDays)
}

// GrowsIn reports whether the crop can be sown in season s. Annual crops
// grow in every season.
func (c *CropProfile) GrowsIn(s Season) bool {
	for _, cs := range c.Seasons {
		if cs == s || cs == SeasonAnnual {
			return true
		}
	}
	return false
}

// SoilFit reports whether soil is among the ideal or acceptable soils.
func (c *CropProfile) SoilFit(soil SoilType) (ideal, acceptable bool) {
	for _, s := range c.IdealSoils {
		if s == soil {
			return true, false
		}
	}
	for _, s := range c.AcceptableSoils {
		if s == soil {
			return false, true
		}
	}
	return false, false
}

// Calendar describes the season windows of the catalog's growing area.
type Calendar struct {
	Seasons []SeasonWindow `json:"seasons" yaml:"seasons"`
}

// SeasonWindow is the sowing-to-harvest window of one season.
type SeasonWindow struct {
	Season           Season   `json:"season" yaml:"season"`
	Start            MonthDay `json:"start" yaml:"start"`
	End              MonthDay `json:"end" yaml:"end"`
	NormalRainfallMM float64  `json:"normal_rainfall_mm" yaml:"normal_rainfall_mm"`
}

// MonthDay is a calendar date without a year, formatted "MM-DD".
type MonthDay string

// DayOfYear returns the day number of the date in a non-leap year.
func (md MonthDay) DayOfYear() (int, error) {
	t, err := time.Parse("01-02", string(md))
	if err != nil {
		return 0, eris.Wrapf(err, "parse month-day %q", string(md))
	}
	return time.Date(2001, t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).YearDay(), nil
}

// Window returns the calendar window for season s.
func (c Calendar) Window(s Season) (SeasonWindow, bool) {
	for _, w := range c.Seasons {
		if w.Season == s {
			return w, true
		}
	}
	return SeasonWindow{}, false
}

// IdleWindow returns the days between the end of the main season that
// precedes a gap and the start of the next main season. Kharif is followed by
// rabi; rabi and zaid both sit before kharif. Annual cropping has no gap.
func (c Calendar) IdleWindow(s Season) (from, to Season, days int, ok bool) {
	switch s {
	case SeasonKharif:
		from, to = SeasonKharif, SeasonRabi
	case SeasonRabi, SeasonZaid:
		from, to = SeasonRabi, SeasonKharif
	default:
		return "", "", 0, false
	}
	end, okEnd := c.Window(from)
	start, okStart := c.Window(to)
	if !okEnd || !okStart {
		return from, to, 0, false
	}
	endDay, err := end.End.DayOfYear()
	if err != nil {
		return from, to, 0, false
	}
	startDay, err := start.Start.DayOfYear()
	if err != nil {
		return from, to, 0, false
	}
	days = startDay - endDay
	if days < 0 {
		days += 365
	}
	return from, to, days, true
}

// RegionProfile holds the rainfall normals for a group of states.
type RegionProfile struct {
	ID         string             `json:"id" yaml:"id"`
	Name       string             `json:"name,omitempty" yaml:"name,omitempty"`
	States     []string           `json:"states" yaml:"states"`
	RainfallMM map[Season]float64 `json:"rainfall_mm" yaml:"rainfall_mm"`
}

// Crop looks up a crop profile by ID.
func (c *Catalog) Crop(id string) (*CropProfile, bool) {
	for i := range c.Crops {
		if c.Crops[i].ID == id {
			return &c.Crops[i], true
		}
	}
	return nil, false
}

// Region looks up a region profile by ID.
func (c *Catalog) Region(id string) (*RegionProfile, bool) {
	for i := range c.Regions {
		if c.Regions[i].ID == id {
			return &c.Regions[i], true
		}
	}
	return nil, false
}

// RegionForState maps a state name onto a region ID by case-insensitive
// substring match against each region's state list. Unmatched or empty
// states map to the catalog's default region.
func (c *Catalog) RegionForState(state string) string {
	upper := strings.ToUpper(strings.TrimSpace(state))
	if upper == "" {
		return c.DefaultRegion
	}
	for _, r := range c.Regions {
		for _, s := range r.States {
			if strings.Contains(upper, strings.ToUpper(s)) {
				return r.ID
			}
		}
	}
	return c.DefaultRegion
}

// NormalRainfall returns the expected seasonal rainfall for a region, falling
// back to the calendar normal when the region has no figure.
func (c *Catalog) NormalRainfall(region string, s Season) float64 {
	if r, ok := c.Region(region); ok {
		if mm, ok := r.RainfallMM[s]; ok {
			return mm
		}
	}
	if w, ok := c.Calendar.Window(s); ok {
		return w.NormalRainfallMM
	}
	return 0
}

// yieldLimits bounds plausible yields (kg/ha) for well-known crops.
var yieldLimits = map[string]Range{
	"rice":      {500, 8000},
	"wheat":     {500, 7000},
	"maize":     {500, 12000},
	"cotton":    {100, 3000},
	"sugarcane": {30000, 150000},
	"groundnut": {300, 4000},
	"soybean":   {300, 4000},
	"bajra":     {200, 3500},
	"jowar":     {200, 3500},
	"potato":    {5000, 50000},
	"onion":     {5000, 40000},
	"tomato":    {10000, 80000},
}

var defaultYieldLimit = Range{50, 100000}

// Validate checks the catalog for structural and agronomic consistency.
func (c *Catalog) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if c.Version == "" {
		add("version is required")
	}

	seen := make(map[string]bool, len(c.Crops))
	for i := range c.Crops {
		crop := &c.Crops[i]
		if crop.ID == "" {
			add("crop[%d]: id is required", i)
			continue
		}
		if seen[crop.ID] {
			add("crop %s: duplicate id", crop.ID)
		}
		seen[crop.ID] = true

		if !crop.Family.Valid() {
			add("crop %s: unknown family %q", crop.ID, crop.Family)
		}
		if len(crop.IdealSoils) == 0 {
			add("crop %s: at least one ideal soil is required", crop.ID)
		}
		for _, s := range append(append([]SoilType{}, crop.IdealSoils...), crop.AcceptableSoils...) {
			if !s.Valid() {
				add("crop %s: unknown soil %q", crop.ID, s)
			}
		}
		if len(crop.Seasons) == 0 {
			add("crop %s: at least one season is required", crop.ID)
		}
		for _, s := range crop.Seasons {
			if !s.Valid() {
				add("crop %s: unknown season %q", crop.ID, s)
			}
		}
		if !crop.PreferredIrrigation.Valid() {
			add("crop %s: unknown preferred irrigation %q", crop.ID, crop.PreferredIrrigation)
		}
		if crop.DurationClass != "" && !crop.DurationClass.Valid() {
			add("crop %s: unknown duration class %q", crop.ID, crop.DurationClass)
		}
		if crop.WaterNeedMM <= 0 {
			add("crop %s: water need must be positive", crop.ID)
		}
		if crop.MinHealthyNDVI < 0 || crop.MinHealthyNDVI >= 1 {
			add("crop %s: min healthy NDVI must be in [0,1)", crop.ID)
		}
		if crop.Duration.MinDays <= 0 || crop.Duration.MaxDays < crop.Duration.MinDays {
			add("crop %s: invalid duration %d-%d days", crop.ID, crop.Duration.MinDays, crop.Duration.MaxDays)
		}
		checkRange := func(name string, r Range) {
			if r.Max < r.Min {
				add("crop %s: %s range is inverted (%g > %g)", crop.ID, name, r.Min, r.Max)
			}
		}
		checkRange("ideal moisture", crop.IdealMoisture)
		checkRange("temperature", crop.TempRangeC)
		checkRange("yield", crop.Economics.YieldKgPerHa)
		checkRange("price", crop.Economics.PricePerKg)

		limit, ok := yieldLimits[crop.ID]
		if !ok {
			limit = defaultYieldLimit
		}
		if y := crop.Economics.YieldKgPerHa; y.Min < limit.Min || y.Max > limit.Max {
			add("crop %s: yield range %g-%g kg/ha outside plausible limits %g-%g", crop.ID, y.Min, y.Max, limit.Min, limit.Max)
		}
		if crop.Economics.TypicalProfit() <= 0 {
			add("crop %s: typical profit must be positive", crop.ID)
		}
		if m := crop.Economics.TierMultiples; len(m) > 0 {
			if len(m) != len(ProfitTiers)-1 {
				add("crop %s: tier multiples need %d boundaries, got %d", crop.ID, len(ProfitTiers)-1, len(m))
			}
			for j := 1; j < len(m); j++ {
				if m[j] <= m[j-1] {
					add("crop %s: tier multiples must be strictly ascending", crop.ID)
					break
				}
			}
		}
	}

	for _, w := range c.Calendar.Seasons {
		if !w.Season.Valid() {
			add("calendar: unknown season %q", w.Season)
		}
		if _, err := w.Start.DayOfYear(); err != nil {
			add("calendar %s: bad start %q", w.Season, w.Start)
		}
		if _, err := w.End.DayOfYear(); err != nil {
			add("calendar %s: bad end %q", w.Season, w.End)
		}
	}
	if c.DefaultRegion != "" {
		if _, ok := c.Region(c.DefaultRegion); !ok {
			add("default region %q is not defined", c.DefaultRegion)
		}
	}

	if len(problems) > 0 {
		return eris.Errorf("invalid catalog %q: %s", c.Version, strings.Join(problems, "; "))
	}
	return nil
}
