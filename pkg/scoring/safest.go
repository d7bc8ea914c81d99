package scoring

import (
	"fmt"

	"github.com/cropscope/cropscope/pkg/farm"
)

// SelectSafest returns the index of the safest crop, or -1 if none is
// picked. Only crops at the lowest aggregate risk present are eligible;
// among them the highest confidence wins, then the higher profit tier, then
// the lexically smaller ID.
func SelectSafest(crops []ScoredCrop, skipWhenAllHigh bool) int {
	if len(crops) == 0 {
		return -1
	}

	lowest := farm.RiskHigh
	for _, c := range crops {
		if c.AggregateRisk.Severity() < lowest.Severity() {
			lowest = c.AggregateRisk
		}
	}
	if skipWhenAllHigh && lowest == farm.RiskHigh {
		return -1
	}

	best := -1
	for i := range crops {
		if crops[i].AggregateRisk.Severity() != lowest.Severity() {
			continue
		}
		if best < 0 || saferThan(&crops[i], &crops[best]) {
			best = i
		}
	}
	return best
}

func saferThan(a, b *ScoredCrop) bool {
	if a.Confidence.Final != b.Confidence.Final {
		return a.Confidence.Final > b.Confidence.Final
	}
	if ra, rb := a.Profit.Tier.Rank(), b.Profit.Tier.Rank(); ra != rb {
		return ra > rb
	}
	return a.CropID < b.CropID
}

func safestRationale(c *ScoredCrop, candidates int) string {
	return fmt.Sprintf("lowest aggregate risk (%s) among %d candidates, with the highest confidence (%.1f) at that level",
		c.AggregateRisk, candidates, c.Confidence.Final)
}
