package surface

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cropscope/cropscope/pkg/farm"
	"github.com/cropscope/cropscope/pkg/scoring"
)

// TerminalRenderer renders a RecommendationSet as ranked, colored cards.
type TerminalRenderer struct {
	// Lang selects a local crop name to show beside the display name.
	Lang string
}

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
)

const barWidth = 20

func riskColor(level farm.RiskLevel) string {
	if noColor() {
		return ""
	}
	switch level {
	case farm.RiskLow:
		return colorGreen
	case farm.RiskMedium:
		return colorYellow
	default:
		return colorRed
	}
}

func noColor() bool {
	_, ok := os.LookupEnv("NO_COLOR")
	return ok
}

func bold(s string) string {
	if noColor() {
		return s
	}
	return colorBold + s + colorReset
}

func dim(s string) string {
	if noColor() {
		return s
	}
	return colorDim + s + colorReset
}

func colored(s, color string) string {
	if noColor() || color == "" {
		return s
	}
	return color + s + colorReset
}

// confidenceBar draws the final confidence against the 85-point ceiling.
func confidenceBar(final float64) string {
	filled := int(final / scoring.CeilingConfidence * barWidth)
	if filled < 0 {
		filled = 0
	}
	if filled > barWidth {
		filled = barWidth
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", barWidth-filled) + "]"
}

func badge(name string, level farm.RiskLevel) string {
	return colored(fmt.Sprintf("%s:%s", name, level), riskColor(level))
}

func (r *TerminalRenderer) Render(w io.Writer, set *scoring.RecommendationSet) error {
	header := fmt.Sprintf("Cropscope: %d crops for %s", len(set.Crops), set.Season)
	if set.Region != "" {
		header += " in " + set.Region
	}
	fmt.Fprintf(w, "%s\n", bold(header))
	fmt.Fprintf(w, "%s\n\n", dim(fmt.Sprintf("catalog %s, set %s", set.CatalogVersion, set.ID)))

	if len(set.Crops) == 0 {
		switch set.Reason {
		case scoring.ReasonEmptyCatalog:
			fmt.Fprintln(w, "No recommendations: the catalog has no crops.")
		case scoring.ReasonNoEligibleCrops:
			fmt.Fprintln(w, "No recommendations: no crop matches the duration preference.")
		default:
			fmt.Fprintln(w, "No recommendations.")
		}
		return nil
	}

	for i := range set.Crops {
		r.renderCard(w, i+1, &set.Crops[i])
	}

	if set.Considered > len(set.Crops) {
		fmt.Fprintf(w, "%s\n", dim(fmt.Sprintf("... %d more crops not shown", set.Considered-len(set.Crops))))
	}
	return nil
}

func (r *TerminalRenderer) renderCard(w io.Writer, rank int, c *scoring.ScoredCrop) {
	name := c.Name
	if local := c.LocalNames[r.Lang]; r.Lang != "" && local != "" {
		name += " (" + local + ")"
	}
	title := fmt.Sprintf("%d. %s", rank, name)
	if c.Safest {
		title += "  " + colored("★ safest choice", colorGreen)
	}
	fmt.Fprintln(w, bold(title))

	fmt.Fprintf(w, "   Confidence %s %.1f/%.0f\n", confidenceBar(c.Confidence.Final), c.Confidence.Final, scoring.CeilingConfidence)

	badges := make([]string, 0, 4)
	for _, d := range c.Risks.Dimensions() {
		badges = append(badges, badge(d.Dimension, d.Level))
	}
	fmt.Fprintf(w, "   Risk %s  %s\n", colored(strings.ToUpper(string(c.AggregateRisk)), riskColor(c.AggregateRisk)), strings.Join(badges, " "))
	for _, d := range c.Risks.Dimensions() {
		if d.Level != farm.RiskLow {
			fmt.Fprintf(w, "     %s\n", dim(d.Dimension+": "+d.Justification))
		}
	}

	fmt.Fprintf(w, "   Profit %s (%.0f/ha)\n", bold(string(c.Profit.Tier)), c.Profit.ProjectedPerHa)
	fmt.Fprintf(w, "   Duration %d-%d days (%s)", c.Duration.MinDays, c.Duration.MaxDays, c.DurationClass)
	if c.Gap.Suitable {
		fmt.Fprintf(w, ", %s", colored("gap farming fit", colorGreen))
	}
	fmt.Fprintln(w)

	for _, line := range wrapText(c.Confidence.Rationale, 70) {
		fmt.Fprintf(w, "   %s\n", dim(line))
	}
	if c.Safest && c.SafestRationale != "" {
		for _, line := range wrapText(c.SafestRationale, 70) {
			fmt.Fprintf(w, "   %s\n", dim(line))
		}
	}
	fmt.Fprintln(w)
}

// wrapText wraps a string at the given width, returning lines.
func wrapText(s string, width int) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	current := words[0]

	for _, word := range words[1:] {
		if len(current)+1+len(word) > width {
			lines = append(lines, current)
			current = word
		} else {
			current += " " + word
		}
	}
	lines = append(lines, current)
	return lines
}
