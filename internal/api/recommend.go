package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/cropscope/cropscope/internal/registry"
	"github.com/cropscope/cropscope/pkg/farm"
	"github.com/cropscope/cropscope/pkg/scoring"
)

const maxBodyBytes = 1 << 20

type recommendRequest struct {
	Context        farm.FarmContext `json:"context"`
	Options        scoring.Options  `json:"options"`
	CatalogVersion string           `json:"catalog_version,omitempty"`
}

type validationResponse struct {
	Error  string               `json:"error"`
	Fields []scoring.FieldError `json:"fields"`
}

func (h *Handler) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	cat, err := h.resolveCatalog(r.Context(), req.CatalogVersion)
	if err != nil {
		if eris.Is(err, registry.ErrNotFound) {
			writeError(w, http.StatusNotFound, "catalog not found")
			return
		}
		zap.L().Error("resolve catalog", zap.Error(err), zap.String("request_id", RequestIDFrom(r.Context())))
		writeError(w, http.StatusInternalServerError, "failed to load catalog")
		return
	}

	// Concurrency is a server concern.
	req.Options.Concurrency = 0
	set, err := h.engine.Evaluate(r.Context(), req.Context, cat, req.Options)
	if err != nil {
		var verr *scoring.ValidationError
		switch {
		case errors.As(err, &verr):
			writeJSON(w, http.StatusUnprocessableEntity, validationResponse{
				Error:  "invalid farm context",
				Fields: verr.Fields,
			})
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			writeError(w, http.StatusServiceUnavailable, "request cancelled")
		default:
			zap.L().Error("evaluate", zap.Error(err), zap.String("request_id", RequestIDFrom(r.Context())))
			writeError(w, http.StatusInternalServerError, "evaluation failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, set)
}
