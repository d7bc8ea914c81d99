// Command cropscoped is the Cropscope recommendation service. It serves
// the recommendation and catalog API and a health check.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cropscope/cropscope/internal/api"
	"github.com/cropscope/cropscope/internal/platform"
	"github.com/cropscope/cropscope/internal/registry"
	"github.com/cropscope/cropscope/pkg/config"
	"github.com/cropscope/cropscope/pkg/farm"
	"github.com/cropscope/cropscope/pkg/scoring"
)

var version = "dev"

func main() {
	var configPath string
	cmd := &cobra.Command{
		Use:     "cropscoped",
		Short:   "Cropscope recommendation service",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configPath)
		},
		SilenceUsage: true,
	}
	cmd.Flags().StringVar(&configPath, "config", "", "service config file (default ./cropscoped.yaml)")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.LoadService(configPath)
	if err != nil {
		return err
	}
	if err := config.InitLogger(cfg.Log); err != nil {
		return err
	}
	defer zap.L().Sync() //nolint:errcheck

	policy, err := config.LoadPolicy(cfg.Policy)
	if err != nil {
		return err
	}
	engine := scoring.NewEngine(policy)

	fallback, err := loadFallback(cfg.Catalog.Path)
	if err != nil {
		return err
	}

	reg, db, err := openRegistry(ctx, cfg)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	handler := api.NewHandler(engine, reg, fallback, api.NewCatalogCache(cfg.Catalog.CacheSize))
	srv := &http.Server{
		Addr: ":" + strconv.Itoa(cfg.Server.Port),
		Handler: handler.Router(api.RouterConfig{
			APIKey:      cfg.Server.APIKey,
			CORSOrigins: cfg.Server.CORSOrigins,
			RateLimit:   cfg.Server.RateLimit,
			RateBurst:   cfg.Server.RateBurst,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		zap.L().Info("starting cropscoped",
			zap.Int("port", cfg.Server.Port),
			zap.Bool("registry", reg != nil),
			zap.String("fallback_catalog", fallback.Version),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return eris.Wrap(err, "listen")
	case <-ctx.Done():
	}

	zap.L().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "shutdown")
	}
	return nil
}

func loadFallback(path string) (*farm.Catalog, error) {
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
		return nil, eris.Wrap(err, "fallback catalog")
	}
	return cat, nil
}

// openRegistry connects the catalog registry when a database is
// configured. Without one the service runs on the fallback catalog.
func openRegistry(ctx context.Context, cfg *config.ServiceConfig) (*registry.Registry, *sql.DB, error) {
	if cfg.Database.URL == "" {
		zap.L().Warn("no database configured, serving the fallback catalog only")
		return nil, nil, nil
	}

	db, dialect, err := platform.Open(ctx, cfg.Database.URL)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Database.Migrate {
		if err := platform.AutoMigrate(db, dialect); err != nil {
			db.Close()
			return nil, nil, err
		}
	}

	store, err := registry.NewStore(ctx, cfg.Storage)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return registry.New(db, dialect, store), db, nil
}
