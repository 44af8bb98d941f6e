package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router mounts every endpoint under a chi router. Extra middleware such as
// CORS is applied before the routes.
func (h *Handler) Router(mw ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(mw...)

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/gamelogs", h.IngestGameLogs)

		r.Route("/players/{playerID}", func(r chi.Router) {
			r.Get("/analysis", h.GetPlayerAnalysis)
			r.Get("/outcomes", h.GetPlayerOutcomes)
			r.Get("/advanced", h.GetPlayerAdvanced)
			r.Get("/splits", h.GetPlayerSplits)
		})

		r.Route("/system", func(r chi.Router) {
			r.Get("/cache", h.GetCacheStats)
			r.Delete("/cache", h.InvalidateCache)
			r.Get("/fallback", h.GetFallbackState)
			r.Post("/fallback/retry", h.RetryFallback)
			r.Get("/splits", h.GetSplitsRun)
			r.Post("/splits/refresh", h.RefreshSplits)
		})
	})

	return r
}
