package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/proplab/stats-api/internal/models"
	"github.com/proplab/stats-api/internal/resilience"
)

// Health check endpoint
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

// Ready check endpoint
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	checks := make(map[string]bool, len(h.checks))
	allHealthy := true
	for name, c := range h.checks {
		ok := c.Ping(ctx) == nil
		checks[name] = ok
		if !ok {
			allHealthy = false
		}
	}

	resp := map[string]interface{}{
		"ready":  allHealthy,
		"checks": checks,
	}
	if h.queue != nil {
		resp["queueDepth"] = h.queue.QueueDepth()
	}
	if h.analytics != nil {
		resp["fallbackMode"] = h.analytics.FallbackState().FallbackMode
	}

	status := http.StatusOK
	if !allHealthy {
		status = http.StatusServiceUnavailable
	}
	h.jsonResponse(w, status, resp)
}

// serviceError maps engine errors onto HTTP statuses and logs the unexpected ones.
func (h *Handler) serviceError(w http.ResponseWriter, err error, msg string, keysAndValues ...interface{}) {
	switch {
	case errors.Is(err, models.ErrInvalidProjectionType), errors.Is(err, models.ErrInvalidSeason):
		h.errorResponse(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrEmptyInput):
		h.errorResponse(w, http.StatusNotFound, err.Error())
	case resilience.IsDataAccessError(err):
		h.logger.Warnw(msg, append(keysAndValues, "error", err)...)
		h.errorResponse(w, http.StatusServiceUnavailable, "Data source unavailable")
	default:
		h.logger.Errorw(msg, append(keysAndValues, "error", err)...)
		h.errorResponse(w, http.StatusInternalServerError, "Internal server error")
	}
}

func (h *Handler) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) errorResponse(w http.ResponseWriter, status int, message string) {
	h.jsonResponse(w, status, map[string]string{"error": message})
}
