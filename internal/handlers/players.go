package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// GetPlayerAnalysis evaluates a player's game log against a line
// @Summary Player Line Analysis
// @Description Hit rate, average, recent form and home/away split of a projection against a line
// @Tags Player
// @Produce json
// @Param playerID path string true "Player ID"
// @Param projection query string true "Projection key (pts, reb, ast, pts_reb_ast, ...)"
// @Param line query number true "Betting line"
// @Param home_away query string false "home or away"
// @Param min_minutes query number false "Minimum minutes played"
// @Param last_n query int false "Most recent N qualifying games"
// @Param opponent query string false "Opponent team ID"
// @Param from query string false "Start date (YYYY-MM-DD)"
// @Param to query string false "End date (YYYY-MM-DD)"
// @Param exclude query []string false "Teammates who must not have played"
// @Success 200 {object} models.AnalysisResult
// @Failure 400 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /players/{playerID}/analysis [get]
func (h *Handler) GetPlayerAnalysis(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")
	req, err := h.parseAnalysisRequest(r, playerID)
	if err != nil {
		h.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.analytics.Analyze(r.Context(), req)
	if err != nil {
		h.serviceError(w, err, "Failed to analyze player", "player", playerID, "projection", req.Projection)
		return
	}
	h.jsonResponse(w, http.StatusOK, result)
}

// GetPlayerOutcomes returns the per-game over/under chart
// @Summary Player Game Outcomes
// @Description Per-game values against the line, oldest first. Accepts the same filters as the analysis endpoint.
// @Tags Player
// @Produce json
// @Param playerID path string true "Player ID"
// @Param projection query string true "Projection key"
// @Param line query number true "Betting line"
// @Success 200 {array} models.GameOutcome
// @Failure 400 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /players/{playerID}/outcomes [get]
func (h *Handler) GetPlayerOutcomes(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")
	req, err := h.parseAnalysisRequest(r, playerID)
	if err != nil {
		h.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	outcomes, err := h.analytics.GameOutcomes(r.Context(), req)
	if err != nil {
		h.serviceError(w, err, "Failed to build game outcomes", "player", playerID, "projection", req.Projection)
		return
	}
	h.jsonResponse(w, http.StatusOK, outcomes)
}

// GetPlayerAdvanced returns consistency, streak and momentum metrics
// @Summary Player Advanced Metrics
// @Description Consistency, streaks, trend and momentum of a projection over a season
// @Tags Player
// @Produce json
// @Param playerID path string true "Player ID"
// @Param projection query string true "Projection key"
// @Param season query string false "Season label, e.g. 2024-25"
// @Success 200 {object} models.AdvancedMetrics
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string "No games in range"
// @Failure 503 {object} map[string]string
// @Router /players/{playerID}/advanced [get]
func (h *Handler) GetPlayerAdvanced(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")
	req, err := h.parseAdvancedRequest(r, playerID)
	if err != nil {
		h.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	metrics, err := h.analytics.AdvancedMetrics(r.Context(), req)
	if err != nil {
		h.serviceError(w, err, "Failed to compute advanced metrics", "player", playerID, "season", req.Season)
		return
	}
	h.jsonResponse(w, http.StatusOK, metrics)
}

// GetPlayerSplits returns precomputed rolling splits
// @Summary Player Rolling Splits
// @Description Stored rolling-window splits; refresh=true recomputes them from the game log
// @Tags Player
// @Produce json
// @Param playerID path string true "Player ID"
// @Param refresh query bool false "Recompute instead of reading the stored rows"
// @Success 200 {array} models.RollingSplit
// @Failure 404 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /players/{playerID}/splits [get]
func (h *Handler) GetPlayerSplits(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")
	ctx := r.Context()

	refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))
	compute := h.analytics.RollingSplits
	if refresh {
		compute = h.analytics.ComputeRollingSplits
	}

	splits, err := compute(ctx, playerID)
	if err != nil {
		h.serviceError(w, err, "Failed to load rolling splits", "player", playerID, "refresh", refresh)
		return
	}
	if len(splits) == 0 {
		h.errorResponse(w, http.StatusNotFound, "No rolling splits for player")
		return
	}
	h.jsonResponse(w, http.StatusOK, splits)
}
