package handlers

import (
	"net/http"
	"path"
)

// GetCacheStats returns cache activity counters
// @Summary Cache Stats
// @Tags System
// @Produce json
// @Success 200 {object} cache.Stats
// @Router /system/cache [get]
func (h *Handler) GetCacheStats(w http.ResponseWriter, r *http.Request) {
	h.jsonResponse(w, http.StatusOK, h.analytics.CacheStats())
}

// InvalidateCache removes every cache entry matching a glob pattern
// @Summary Invalidate Cache
// @Description Deletes entries whose key matches the pattern, e.g. analysis:2544:*
// @Tags System
// @Produce json
// @Param pattern query string true "Glob pattern"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /system/cache [delete]
func (h *Handler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	pattern := r.URL.Query().Get("pattern")
	if pattern == "" {
		h.errorResponse(w, http.StatusBadRequest, "pattern is required")
		return
	}
	if _, err := path.Match(pattern, ""); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "malformed pattern")
		return
	}

	removed, err := h.analytics.InvalidateCache(r.Context(), pattern)
	if err != nil {
		h.logger.Errorw("Failed to invalidate cache", "pattern", pattern, "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Failed to invalidate cache")
		return
	}

	h.logger.Infow("Cache invalidated", "pattern", pattern, "removed", removed)
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"pattern": pattern,
		"removed": removed,
	})
}

// GetFallbackState reports whether data access is degraded
// @Summary Fallback State
// @Tags System
// @Produce json
// @Success 200 {object} resilience.State
// @Router /system/fallback [get]
func (h *Handler) GetFallbackState(w http.ResponseWriter, r *http.Request) {
	h.jsonResponse(w, http.StatusOK, h.analytics.FallbackState())
}

// RetryFallback checks the primary store immediately, ignoring the backoff
// @Summary Force Fallback Retry
// @Tags System
// @Produce json
// @Success 200 {object} resilience.State
// @Failure 503 {object} map[string]interface{}
// @Router /system/fallback/retry [post]
func (h *Handler) RetryFallback(w http.ResponseWriter, r *http.Request) {
	state, err := h.analytics.ForceRetry(r.Context())
	if err != nil {
		h.logger.Warnw("Forced retry failed", "error", err, "retry_count", state.RetryCount)
		h.jsonResponse(w, http.StatusServiceUnavailable, map[string]interface{}{
			"error": err.Error(),
			"state": state,
		})
		return
	}
	h.jsonResponse(w, http.StatusOK, state)
}

// GetSplitsRun returns the last rolling-splits precompute run
// @Summary Rolling Splits Run Info
// @Tags System
// @Produce json
// @Success 200 {object} worker.RunInfo
// @Failure 503 {object} map[string]string
// @Router /system/splits [get]
func (h *Handler) GetSplitsRun(w http.ResponseWriter, r *http.Request) {
	if h.splits == nil {
		h.errorResponse(w, http.StatusServiceUnavailable, "Rolling splits precompute disabled")
		return
	}
	h.jsonResponse(w, http.StatusOK, h.splits.Info())
}

// RefreshSplits enqueues every tracked player for rolling-splits recomputation
// @Summary Refresh Rolling Splits
// @Tags System
// @Produce json
// @Success 202 {object} worker.RunInfo
// @Failure 503 {object} map[string]string
// @Router /system/splits/refresh [post]
func (h *Handler) RefreshSplits(w http.ResponseWriter, r *http.Request) {
	if h.splits == nil {
		h.errorResponse(w, http.StatusServiceUnavailable, "Rolling splits precompute disabled")
		return
	}

	info, err := h.splits.RunOnce(r.Context())
	if err != nil {
		h.logger.Errorw("Failed to start rolling splits run", "error", err)
		h.errorResponse(w, http.StatusServiceUnavailable, "Failed to list tracked players")
		return
	}
	h.jsonResponse(w, http.StatusAccepted, info)
}
