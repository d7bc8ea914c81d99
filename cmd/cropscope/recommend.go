package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cropscope/cropscope/pkg/config"
	"github.com/cropscope/cropscope/pkg/farm"
	"github.com/cropscope/cropscope/pkg/scoring"
	"github.com/cropscope/cropscope/pkg/surface"
)

type recommendOpts struct {
	contextPath string
	catalogPath string
	outputFmt   string
	maxResults  int
	duration    string
	season      string
	region      string
	safestFirst bool
	lang        string
}

func newRecommendCmd(st *cliState) *cobra.Command {
	var opts recommendOpts

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Rank crops for a farm context",
		Long: `Scores every catalog crop against the farm context file (YAML or JSON) and
prints the ranked recommendations with their confidence, risks, profit
outlook and gap-farming fit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("max-results") {
				opts.maxResults = st.cfg.MaxResults
			}
			return runRecommend(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), st.cfg, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.contextPath, "context", "", "Farm context file (required)")
	f.StringVar(&opts.catalogPath, "catalog", "", "Crop catalog file (default: config catalog, else built-in)")
	f.StringVar(&opts.outputFmt, "output", "", "Output format: text, json or markdown (default: config output)")
	f.IntVar(&opts.maxResults, "max-results", 0, "Maximum crops to show (0 = all)")
	f.StringVar(&opts.duration, "duration", "", "Duration preference: short_term or long_term")
	f.StringVar(&opts.season, "season", "", "Override the context's season")
	f.StringVar(&opts.region, "region", "", "Override the context's region")
	f.BoolVar(&opts.safestFirst, "safest-first", false, "List the safest crop first")
	f.StringVar(&opts.lang, "lang", "", "Show local crop names in this language (e.g. hi)")
	_ = cmd.MarkFlagRequired("context")

	return cmd
}

func runRecommend(ctx context.Context, out, errOut io.Writer, cfg *config.Config, opts recommendOpts) error {
	fc, err := farm.LoadContext(opts.contextPath)
	if err != nil {
		return err
	}

	cat, err := loadCatalog(firstNonEmpty(opts.catalogPath, cfg.Catalog))
	if err != nil {
		return err
	}

	engine := scoring.NewEngine(cfg.Scoring)
	set, err := engine.Evaluate(ctx, *fc, cat, scoring.Options{
		DurationPreference: farm.DurationPreference(opts.duration),
		MaxResults:         opts.maxResults,
		SeasonOverride:     parseSeasonFlag(opts.season),
		RegionOverride:     opts.region,
		SafestFirst:        opts.safestFirst,
	})
	if err != nil {
		var verr *scoring.ValidationError
		if errors.As(err, &verr) {
			fmt.Fprintf(errOut, "The farm context in %s cannot be scored:\n", opts.contextPath)
			for _, f := range verr.Fields {
				fmt.Fprintf(errOut, "  %s: %s\n", f.Field, f.Problem)
			}
		}
		return err
	}

	r, err := surface.New(firstNonEmpty(opts.outputFmt, cfg.Output))
	if err != nil {
		return err
	}
	if tr, ok := r.(*surface.TerminalRenderer); ok {
		tr.Lang = firstNonEmpty(opts.lang, cfg.Lang)
	}
	return r.Render(out, set)
}

func parseSeasonFlag(s string) farm.Season {
	if s == "" {
		return ""
	}
	return farm.ParseSeason(s)
}

// loadCatalog reads and validates a catalog file, or the built-in catalog
// when path is empty.
func loadCatalog(path string) (*farm.Catalog, error) {
	var (
		cat *farm.Catalog
		err error
	)
	if path == "" {
		cat, err = farm.DefaultCatalog()
	} else {
		cat, err = farm.LoadCatalog(path)
	}
	if err != nil {
		return nil, err
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return cat, nil
}
