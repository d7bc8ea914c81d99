// Package main provides the cropscope CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cropscope/cropscope/pkg/config"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// cliState is filled in by the root command before any subcommand runs.
type cliState struct {
	configPath string
	verbose    bool
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	st := &cliState{}

	rootCmd := &cobra.Command{
		Use:   "cropscope",
		Short: "Explainable crop recommendations for a farm and season",
		Long: `Cropscope scores every crop in a catalog against a farm's soil, water,
vegetation and season, and explains the confidence, risks and profit
outlook of each recommendation.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(st.configPath)
			if err != nil {
				return err
			}
			if st.verbose {
				cfg.Log.Level = "debug"
			}
			if err := config.InitLogger(cfg.Log); err != nil {
				return err
			}
			st.cfg = cfg
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = zap.L().Sync()
		},
	}
	rootCmd.PersistentFlags().StringVar(&st.configPath, "config", "", "Config file (default: .cropscope/config.yaml in this or a parent directory)")
	rootCmd.PersistentFlags().BoolVarP(&st.verbose, "verbose", "v", false, "Debug logging")

	rootCmd.AddCommand(
		newRecommendCmd(st),
		newCatalogCmd(st),
	)
	return rootCmd
}

// loadConfig reads an explicit config file, or the nearest
// .cropscope/config.yaml above the working directory.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, eris.Wrap(err, "config file")
		}
		return config.Load(path)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, eris.Wrap(err, "getting working directory")
	}
	cfgFile := config.FindConfigFile(cwd)
	if cfgFile == "" {
		return config.DefaultConfig(), nil
	}
	return config.Load(cfgFile)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
