package scoring

import "sort"

// Rank orders crops for presentation: confidence descending, profit tier
// descending, aggregate risk ascending, then ID. The safest flag is an
// annotation only, unless safestFirst moves the flagged crop to the front.
func Rank(crops []ScoredCrop, safestFirst bool) {
	sort.SliceStable(crops, func(i, j int) bool {
		a, b := &crops[i], &crops[j]
		if safestFirst && a.Safest != b.Safest {
			return a.Safest
		}
		if a.Confidence.Final != b.Confidence.Final {
			return a.Confidence.Final > b.Confidence.Final
		}
		if ra, rb := a.Profit.Tier.Rank(), b.Profit.Tier.Rank(); ra != rb {
			return ra > rb
		}
		if sa, sb := a.AggregateRisk.Severity(), b.AggregateRisk.Severity(); sa != sb {
			return sa < sb
		}
		return a.CropID < b.CropID
	})
}
