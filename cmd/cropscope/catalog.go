package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/cropscope/cropscope/internal/platform"
	"github.com/cropscope/cropscope/internal/registry"
	"github.com/cropscope/cropscope/pkg/farm"
)

func newCatalogCmd(st *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect, validate and publish crop catalogs",
	}
	cmd.AddCommand(
		newCatalogValidateCmd(),
		newCatalogShowCmd(st),
		newCatalogPublishCmd(),
		newCatalogListCmd(),
		newCatalogActivateCmd(),
	)
	return cmd
}

func newCatalogValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a catalog file for errors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := loadCatalog(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "catalog %s is valid: %d crops, %d regions\n",
				cat.Version, len(cat.Crops), len(cat.Regions))
			return nil
		},
	}
}

func newCatalogShowCmd(st *cliState) *cobra.Command {
	var outputFmt, outPath string
	cmd := &cobra.Command{
		Use:   "show [file]",
		Short: "Print a catalog (default: configured or built-in)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := st.cfg.Catalog
			if len(args) == 1 {
				path = args[0]
			}
			cat, err := loadCatalog(path)
			if err != nil {
				return err
			}
			if outPath != "" {
				if err := farm.SaveCatalog(outPath, cat); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote catalog %s to %s\n", cat.Version, outPath)
				return nil
			}
			if outputFmt == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(cat)
			}
			return printCatalog(cmd, cat)
		},
	}
	cmd.Flags().StringVar(&outputFmt, "output", "text", "Output format: text or json")
	cmd.Flags().StringVar(&outPath, "out", "", "Write the catalog as JSON to this file instead of printing it")
	return cmd
}

func printCatalog(cmd *cobra.Command, cat *farm.Catalog) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Catalog %s (%d crops, default region %s)\n\n", cat.Version, len(cat.Crops), cat.DefaultRegion)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tFAMILY\tSEASONS\tDAYS\tWATER MM\tIRRIGATION")
	for _, c := range cat.Crops {
		seasons := make([]string, len(c.Seasons))
		for i, s := range c.Seasons {
			seasons[i] = string(s)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d-%d\t%.0f\t%s\n",
			c.ID, c.Name, c.Family, strings.Join(seasons, ","),
			c.Duration.MinDays, c.Duration.MaxDays, c.WaterNeedMM, c.PreferredIrrigation)
	}
	return tw.Flush()
}

// openLocalRegistry opens the registry kept under a store directory: the
// documents in dir/catalogs and the index in dir/index.db.
func openLocalRegistry(ctx context.Context, dir string) (*registry.Registry, *sql.DB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, eris.Wrap(err, "creating store directory")
	}
	db, dialect, err := platform.Open(ctx, "sqlite://"+filepath.Join(dir, "index.db"))
	if err != nil {
		return nil, nil, err
	}
	if err := platform.AutoMigrate(db, dialect); err != nil {
		db.Close()
		return nil, nil, err
	}
	return registry.New(db, dialect, registry.NewLocalStore(dir)), db, nil
}

func newCatalogPublishCmd() *cobra.Command {
	var (
		storeDir string
		activate bool
	)
	cmd := &cobra.Command{
		Use:   "publish <file>",
		Short: "Publish a catalog to a local store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := loadCatalog(args[0])
			if err != nil {
				return err
			}
			reg, db, err := openLocalRegistry(cmd.Context(), storeDir)
			if err != nil {
				return err
			}
			defer db.Close()

			v, err := reg.Publish(cmd.Context(), cat)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published %s (%d crops) to %s\n", v.Version, v.CropCount, v.StorageRef)
			if activate {
				if err := reg.Activate(cmd.Context(), v.Version); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "activated %s\n", v.Version)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&storeDir, "store-dir", "", "Local catalog store directory (required)")
	cmd.Flags().BoolVar(&activate, "activate", false, "Activate the catalog after publishing")
	_ = cmd.MarkFlagRequired("store-dir")
	return cmd
}

func newCatalogListCmd() *cobra.Command {
	var storeDir string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalogs in a local store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, db, err := openLocalRegistry(cmd.Context(), storeDir)
			if err != nil {
				return err
			}
			defer db.Close()

			versions, err := reg.List(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "VERSION\tCROPS\tACTIVE\tPUBLISHED")
			for _, v := range versions {
				active := ""
				if v.Active {
					active = "*"
				}
				fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", v.Version, v.CropCount, active, v.CreatedAt.Format("2006-01-02 15:04"))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&storeDir, "store-dir", "", "Local catalog store directory (required)")
	_ = cmd.MarkFlagRequired("store-dir")
	return cmd
}

func newCatalogActivateCmd() *cobra.Command {
	var storeDir string
	cmd := &cobra.Command{
		Use:   "activate <version>",
		Short: "Make a published catalog the active one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, db, err := openLocalRegistry(cmd.Context(), storeDir)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := reg.Activate(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "activated %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&storeDir, "store-dir", "", "Local catalog store directory (required)")
	_ = cmd.MarkFlagRequired("store-dir")
	return cmd
}
