package handler

import (
	"context"
	"net/http"
	"time"

	apperrors "github.com/shiftplan/shiftplan/pkg/errors"
)

const healthTimeout = 2 * time.Second

// Health reports the service status, including the dependency check when
// one is configured.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":  "ok",
		"service": "shiftplan",
	}
	if h.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		if err := h.health(ctx); err != nil {
			resp["status"] = "degraded"
			resp["error"] = err.Error()
			respondJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

// Version reports the build information.
func (h *Handler) Version(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.build)
}

// Index lists the API endpoints.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/api/v1/" {
		respondError(w, r, apperrors.NotFound("route", r.URL.Path))
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "shiftplan API v1",
		"endpoints": map[string]interface{}{
			"plans": map[string]string{
				"list":     "GET /api/v1/plans",
				"generate": "POST /api/v1/plans/generate",
				"explain":  "POST /api/v1/plans/explain",
				"validate": "POST /api/v1/plans/validate",
				"compare":  "POST /api/v1/plans/compare",
			},
			"stats": map[string]string{
				"fairness":   "POST /api/v1/stats/fairness",
				"coverage":   "POST /api/v1/stats/coverage",
				"workload":   "POST /api/v1/stats/workload",
				"evaluation": "POST /api/v1/stats/evaluation",
			},
			"profiles":    "GET /api/v1/profiles",
			"mechanisms":  "GET /api/v1/mechanisms",
			"constraints": "GET /api/v1/constraints?type=hard|soft",
		},
	})
}
