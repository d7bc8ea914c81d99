package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/cropscope/cropscope/internal/registry"
	"github.com/cropscope/cropscope/pkg/farm"
)

const maxCatalogBytes = 8 << 20

func (h *Handler) requireRegistry(w http.ResponseWriter) bool {
	if h.registry == nil {
		writeError(w, http.StatusServiceUnavailable, "catalog registry not configured")
		return false
	}
	return true
}

func (h *Handler) handleListCatalogs(w http.ResponseWriter, r *http.Request) {
	if !h.requireRegistry(w) {
		return
	}
	versions, err := h.registry.List(r.Context())
	if err != nil {
		zap.L().Error("list catalogs", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list catalogs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"catalogs": versions})
}

func (h *Handler) handleGetCatalog(w http.ResponseWriter, r *http.Request) {
	cat, err := h.resolveCatalog(r.Context(), chi.URLParam(r, "version"))
	if err != nil {
		if eris.Is(err, registry.ErrNotFound) {
			writeError(w, http.StatusNotFound, "catalog not found")
			return
		}
		zap.L().Error("get catalog", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load catalog")
		return
	}
	writeJSON(w, http.StatusOK, cat)
}

func (h *Handler) handlePublishCatalog(w http.ResponseWriter, r *http.Request) {
	if !h.requireRegistry(w) {
		return
	}

	var cat farm.Catalog
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCatalogBytes)).Decode(&cat); err != nil {
		writeError(w, http.StatusBadRequest, "invalid catalog body: "+err.Error())
		return
	}
	if !registry.ValidVersion(cat.Version) {
		writeError(w, http.StatusUnprocessableEntity, "invalid catalog version")
		return
	}
	if err := cat.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	v, err := h.registry.Publish(r.Context(), &cat)
	if err != nil {
		if eris.Is(err, registry.ErrVersionExists) {
			writeError(w, http.StatusConflict, "catalog version already published")
			return
		}
		zap.L().Error("publish catalog", zap.Error(err), zap.String("version", cat.Version))
		writeError(w, http.StatusInternalServerError, "failed to publish catalog")
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (h *Handler) handleActivateCatalog(w http.ResponseWriter, r *http.Request) {
	if !h.requireRegistry(w) {
		return
	}
	version := chi.URLParam(r, "version")
	if err := h.registry.Activate(r.Context(), version); err != nil {
		if eris.Is(err, registry.ErrNotFound) {
			writeError(w, http.StatusNotFound, "catalog not found")
			return
		}
		zap.L().Error("activate catalog", zap.Error(err), zap.String("version", version))
		writeError(w, http.StatusInternalServerError, "failed to activate catalog")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"active": version})
}
