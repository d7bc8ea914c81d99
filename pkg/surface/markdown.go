package surface

import (
	"fmt"
	"io"
	"strings"

	"github.com/cropscope/cropscope/pkg/farm"
	"github.com/cropscope/cropscope/pkg/scoring"
)

// MarkdownRenderer produces a Markdown summary suitable for reports and
// chat messages.
type MarkdownRenderer struct{}

func (r *MarkdownRenderer) Render(w io.Writer, set *scoring.RecommendationSet) error {
	_, err := io.WriteString(w, BuildMarkdownSummary(set))
	return err
}

// BuildMarkdownSummary renders the set as a ranked table followed by the
// detail of the top crops.
func BuildMarkdownSummary(set *scoring.RecommendationSet) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "## Cropscope: %s", set.Season)
	if set.Region != "" {
		fmt.Fprintf(&sb, " in %s", set.Region)
	}
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "_Catalog %s, set `%s`_\n\n", set.CatalogVersion, set.ID)

	if len(set.Crops) == 0 {
		fmt.Fprintf(&sb, "No recommendations (`%s`).\n", set.Reason)
		return sb.String()
	}

	sb.WriteString("| # | Crop | Confidence | Risk | Profit | Gap fit |\n")
	sb.WriteString("|---|------|-----------:|------|--------|---------|\n")
	for i, c := range set.Crops {
		name := c.Name
		if c.Safest {
			name = "**" + name + "** :star:"
		}
		gap := "no"
		if c.Gap.Suitable {
			gap = "yes"
		}
		fmt.Fprintf(&sb, "| %d | %s | %.1f | %s %s | %s | %s |\n",
			i+1, name, c.Confidence.Final, riskIcon(c.AggregateRisk), c.AggregateRisk, c.Profit.Tier, gap)
	}
	sb.WriteString("\n")

	// Detail for the top 3
	maxDetail := 3
	if len(set.Crops) < maxDetail {
		maxDetail = len(set.Crops)
	}
	for i := 0; i < maxDetail; i++ {
		c := set.Crops[i]
		fmt.Fprintf(&sb, "### %s\n\n", c.Name)
		fmt.Fprintf(&sb, "%s\n\n", c.Rationale)
		for _, d := range c.Risks.Dimensions() {
			fmt.Fprintf(&sb, "- %s **%s** %s: %s\n", riskIcon(d.Level), d.Dimension, d.Level, d.Justification)
		}
		fmt.Fprintf(&sb, "- Profit: %s\n", c.Profit.Rationale)
		fmt.Fprintf(&sb, "- Gap farming: %s\n", c.Gap.Reason)
		if c.Safest {
			fmt.Fprintf(&sb, "- Safest choice: %s\n", c.SafestRationale)
		}
		sb.WriteString("\n")
	}

	if len(set.Crops) > maxDetail {
		fmt.Fprintf(&sb, "_... and %d more crops_\n", len(set.Crops)-maxDetail)
	}
	return sb.String()
}

func riskIcon(level farm.RiskLevel) string {
	switch level {
	case farm.RiskLow:
		return ":green_circle:"
	case farm.RiskMedium:
		return ":orange_circle:"
	default:
		return ":red_circle:"
	}
}
