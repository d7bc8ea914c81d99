package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cropscope/cropscope/pkg/farm"
)

// Factor is the interface that all confidence factors implement. Evaluate
// must be a pure function of its inputs; the catalog is read-only reference
// data.
type Factor interface {
	// Key returns the machine-readable factor identifier.
	Key() string
	// Name returns the human-readable factor name.
	Name() string
	// Evaluate computes the factor's confidence contribution for one crop.
	Evaluate(fc *farm.FarmContext, crop *farm.CropProfile, cat *farm.Catalog) FactorResult
}

// Options tune a single evaluation.
type Options struct {
	DurationPreference farm.DurationPreference `json:"duration_preference,omitempty"` // overrides the context's preference
	MaxResults         int                     `json:"max_results,omitempty"`         // 0 returns every eligible crop
	SeasonOverride     farm.Season             `json:"season_override,omitempty"`
	RegionOverride     string                  `json:"region_override,omitempty"`
	SafestFirst        bool                    `json:"safest_first,omitempty"`
	Concurrency        int                     `json:"-"` // 0 uses GOMAXPROCS
}

// recommendationNamespace seeds deterministic recommendation-set IDs.
var recommendationNamespace = uuid.MustParse("6f1c2a8e-4b7d-5e90-a3c1-2d8f9b0e7a64")

// Engine scores every catalog crop against a farm context.
type Engine struct {
	policy  Policy
	factors []Factor
}

// NewEngine creates an engine with the given policy. With no factors it uses
// DefaultFactors(policy).
func NewEngine(policy Policy, factors ...Factor) *Engine {
	if len(factors) == 0 {
		factors = DefaultFactors(policy)
	}
	return &Engine{policy: policy, factors: factors}
}

// Policy returns the engine's scoring policy.
func (e *Engine) Policy() Policy { return e.policy }

// Evaluate scores, annotates and ranks every eligible crop. It returns a
// *ValidationError for an unusable context and ctx.Err() if ctx is done
// before all crops are scored. Neither fc nor cat is modified.
func (e *Engine) Evaluate(ctx context.Context, fc farm.FarmContext, cat *farm.Catalog, opts Options) (*RecommendationSet, error) {
	if cat == nil {
		return nil, eris.New("catalog is nil")
	}

	if opts.SeasonOverride != "" {
		fc.Season = opts.SeasonOverride
	}
	if opts.DurationPreference != "" {
		fc.DurationPreference = opts.DurationPreference
	}
	switch {
	case opts.RegionOverride != "":
		fc.Region = opts.RegionOverride
	case fc.Region == "":
		fc.Region = cat.RegionForState(fc.State)
	}

	fc.ResolveMoisture()

	if err := ValidateContext(&fc, cat); err != nil {
		return nil, err
	}

	set := &RecommendationSet{
		ID:             setID(cat.Version, &fc, opts),
		CatalogVersion: cat.Version,
		Season:         fc.Season,
		Region:         fc.Region,
		Crops:          []ScoredCrop{},
	}

	if len(cat.Crops) == 0 {
		set.Reason = ReasonEmptyCatalog
		zap.L().Info("empty catalog", zap.String("catalog_version", cat.Version))
		return set, nil
	}

	var eligible []*farm.CropProfile
	for i := range cat.Crops {
		if fc.DurationPreference.Allows(cat.Crops[i].Class()) {
			eligible = append(eligible, &cat.Crops[i])
		}
	}
	if len(eligible) == 0 {
		set.Reason = ReasonNoEligibleCrops
		zap.L().Info("no eligible crops",
			zap.String("catalog_version", cat.Version),
			zap.String("duration_preference", string(fc.DurationPreference)),
		)
		return set, nil
	}

	limit := opts.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	// Each branch writes only its own slot; the join is g.Wait.
	slots := make([]ScoredCrop, len(eligible))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, crop := range eligible {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			slots[i] = e.scoreCrop(&fc, crop, cat)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if idx := SelectSafest(slots, e.policy.SkipSafestWhenAllHigh); idx >= 0 {
		slots[idx].Safest = true
		slots[idx].SafestRationale = safestRationale(&slots[idx], len(slots))
		set.SafestCropID = slots[idx].CropID
	}

	Rank(slots, opts.SafestFirst)
	set.Considered = len(slots)
	set.Crops = truncate(slots, opts.MaxResults)

	zap.L().Info("evaluated farm context",
		zap.String("id", set.ID),
		zap.String("catalog_version", cat.Version),
		zap.String("season", string(fc.Season)),
		zap.String("region", fc.Region),
		zap.Int("considered", set.Considered),
		zap.Int("returned", len(set.Crops)),
		zap.String("safest", set.SafestCropID),
	)
	return set, nil
}

func (e *Engine) scoreCrop(fc *farm.FarmContext, crop *farm.CropProfile, cat *farm.Catalog) ScoredCrop {
	results := make([]FactorResult, 0, len(e.factors))
	for _, f := range e.factors {
		results = append(results, f.Evaluate(fc, crop, cat))
	}
	confidence := Compose(e.policy, fc, results)

	risks := ClassifyRisk(e.policy, fc, crop, cat)
	sc := ScoredCrop{
		CropID:        crop.ID,
		Name:          crop.Name,
		LocalNames:    crop.LocalNames,
		Family:        crop.Family,
		Duration:      crop.Duration,
		DurationClass: crop.Class(),
		Confidence:    confidence,
		Risks:         risks,
		AggregateRisk: risks.Aggregate(),
		Profit:        ClassifyProfit(e.policy, fc, crop, cat),
		Gap:           EvaluateGap(e.policy, fc, crop, cat),
	}
	sc.Rationale = cropRationale(&sc)

	zap.L().Debug("scored crop",
		zap.String("crop", crop.ID),
		zap.Float64("confidence", sc.Confidence.Final),
		zap.Float64("raw", sc.Confidence.Raw),
		zap.String("aggregate_risk", string(sc.AggregateRisk)),
		zap.String("profit_tier", string(sc.Profit.Tier)),
		zap.Bool("gap_suitable", sc.Gap.Suitable),
	)
	return sc
}

func cropRationale(sc *ScoredCrop) string {
	s := fmt.Sprintf("%s scores %.0f confidence with %s aggregate risk and a %s profit outlook",
		sc.Name, sc.Confidence.Final, sc.AggregateRisk, sc.Profit.Tier)
	var worst []string
	for _, d := range sc.Risks.Dimensions() {
		if d.Level == sc.AggregateRisk && d.Level != farm.RiskLow {
			worst = append(worst, d.Dimension)
		}
	}
	if len(worst) > 0 {
		s += fmt.Sprintf(" (driven by %s risk)", joinWords(worst))
	}
	if sc.Gap.Suitable {
		s += "; suitable for gap farming"
	}
	return s + "."
}

// truncate keeps the first n crops. The safest crop always survives: if it
// ranks outside the first n it takes the n-th place.
func truncate(crops []ScoredCrop, n int) []ScoredCrop {
	if n <= 0 || len(crops) <= n {
		return crops
	}
	out := append([]ScoredCrop(nil), crops[:n]...)
	for i := n; i < len(crops); i++ {
		if crops[i].Safest {
			out[n-1] = crops[i]
			break
		}
	}
	return out
}

// setID derives a stable ID from everything that determines the result.
func setID(version string, fc *farm.FarmContext, opts Options) string {
	opts.Concurrency = 0
	payload, err := json.Marshal(struct {
		Version string            `json:"version"`
		Context *farm.FarmContext `json:"context"`
		Options Options           `json:"options"`
	}{version, fc, opts})
	if err != nil {
		return uuid.NewSHA1(recommendationNamespace, []byte(version)).String()
	}
	return uuid.NewSHA1(recommendationNamespace, payload).String()
}

func joinWords(words []string) string {
	switch len(words) {
	case 0:
		return ""
	case 1:
		return words[0]
	default:
		out := words[0]
		for _, w := range words[1 : len(words)-1] {
			out += ", " + w
		}
		return out + " and " + words[len(words)-1]
	}
}
