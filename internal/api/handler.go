// Package api implements the hosted Cropscope REST API. It serves
// recommendations and manages published catalogs.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"

	"github.com/cropscope/cropscope/internal/registry"
	"github.com/cropscope/cropscope/pkg/farm"
	"github.com/cropscope/cropscope/pkg/scoring"
)

// Handler is the top-level API handler for the hosted Cropscope service.
type Handler struct {
	engine   *scoring.Engine
	registry *registry.Registry // nil serves only the fallback catalog
	fallback *farm.Catalog
	cache    *CatalogCache
}

// NewHandler creates a new API handler. fallback serves requests when no
// registry version is active.
func NewHandler(engine *scoring.Engine, reg *registry.Registry, fallback *farm.Catalog, cache *CatalogCache) *Handler {
	if cache == nil {
		cache = NewCatalogCache(0)
	}
	return &Handler{
		engine:   engine,
		registry: reg,
		fallback: fallback,
		cache:    cache,
	}
}

// RouterConfig configures the router's middleware.
type RouterConfig struct {
	APIKey      string
	CORSOrigins []string
	RateLimit   float64 // requests per second per client; 0 disables
	RateBurst   int
}

// Router builds the chi router with all API routes and middleware.
func (h *Handler) Router(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(RequestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-API-Key"},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimit > 0 {
			r.Use(NewRateLimiter(cfg.RateLimit, cfg.RateBurst).Middleware)
		}

		// Read endpoints
		r.Post("/recommendations", h.handleRecommend)
		r.Get("/catalogs", h.handleListCatalogs)
		r.Get("/catalogs/{version}", h.handleGetCatalog)

		// Write endpoints (auth-protected)
		r.Group(func(r chi.Router) {
			r.Use(APIKeyAuth(cfg.APIKey))
			r.Post("/catalogs", h.handlePublishCatalog)
			r.Post("/catalogs/{version}/activate", h.handleActivateCatalog)
		})
	})
	return r
}

// resolveCatalog returns the requested version, else the active version,
// else the fallback catalog.
func (h *Handler) resolveCatalog(ctx context.Context, version string) (*farm.Catalog, error) {
	if version == "" && h.registry != nil {
		active, err := h.registry.Active(ctx)
		switch {
		case err == nil:
			version = active.Version
		case !eris.Is(err, registry.ErrNotFound):
			return nil, err
		}
	}
	if version == "" {
		if h.fallback == nil {
			return nil, eris.Wrap(registry.ErrNotFound, "no active catalog")
		}
		return h.fallback, nil
	}

	if cat := h.cache.Get(version); cat != nil {
		return cat, nil
	}
	if h.fallback != nil && h.fallback.Version == version {
		return h.fallback, nil
	}
	if h.registry == nil {
		return nil, eris.Wrapf(registry.ErrNotFound, "version %s", version)
	}
	cat, err := h.registry.Catalog(ctx, version)
	if err != nil {
		return nil, err
	}
	h.cache.Put(version, cat)
	return cat, nil
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"registry": h.registry != nil,
		"time":     time.Now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
