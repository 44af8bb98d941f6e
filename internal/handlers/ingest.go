package handlers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/proplab/stats-api/internal/cache"
	"github.com/proplab/stats-api/internal/models"
	"github.com/proplab/stats-api/internal/resilience"
)

// MaxBodySize caps an ingest request body.
const MaxBodySize = 1 << 20

const (
	opInsertGameLogs = "insert_game_logs"
	opTrackPlayers   = "track_players"
)

// invalidatedPrefixes are the per-player cache kinds a new box score makes stale.
var invalidatedPrefixes = []string{
	cache.PrefixAnalysis,
	cache.PrefixOutcomes,
	cache.PrefixAdvanced,
	cache.PrefixRecords,
}

// IngestGameLogs handles POST /api/v1/gamelogs
// @Summary Ingest Box Scores
// @Description Accepts newline-separated JSON box scores. Rows are keyed by (game_id, player_id); re-sending a row replaces it.
// @Tags Ingestion
// @Accept json
// @Produce json
// @Param track query bool false "Track every ingested player for rolling splits"
// @Param body body []models.GameRecord true "Box scores"
// @Success 200 {object} map[string]interface{} "Stored"
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 413 {object} map[string]string "Request body too large"
// @Failure 503 {object} map[string]string "Data source unavailable"
// @Router /gamelogs [post]
func (h *Handler) IngestGameLogs(w http.ResponseWriter, r *http.Request) {
	if h.writer == nil {
		h.errorResponse(w, http.StatusServiceUnavailable, "Ingestion is not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.errorResponse(w, http.StatusRequestEntityTooLarge, "Request body too large")
		return
	}
	defer r.Body.Close()

	records, skipped := h.decodeGameLogs(body)
	if len(records) == 0 {
		h.errorResponse(w, http.StatusBadRequest, "No valid box scores in request")
		return
	}

	ctx := r.Context()
	var writeErr error
	stored, ok := resilience.ExecuteWrite(ctx, h.layer, opInsertGameLogs, func(ctx context.Context) (int, error) {
		n, err := h.writer.InsertGameLogs(ctx, records)
		writeErr = err
		return n, err
	})
	if !ok {
		h.serviceError(w, &resilience.DataAccessError{Operation: opInsertGameLogs, Err: writeErr}, "Failed to store box scores", "records", len(records))
		return
	}

	players := distinctPlayers(records)
	if r.URL.Query().Get("track") == "true" {
		_, ok := resilience.ExecuteWrite(ctx, h.layer, opTrackPlayers, func(ctx context.Context) (struct{}, error) {
			writeErr = h.writer.TrackPlayers(ctx, players...)
			return struct{}{}, writeErr
		})
		if !ok {
			h.serviceError(w, &resilience.DataAccessError{Operation: opTrackPlayers, Err: writeErr}, "Failed to track players", "players", len(players))
			return
		}
	}

	invalidated := h.invalidateIngested(r, records, players)
	h.logger.Infow("Ingested box scores", "stored", stored, "skipped", skipped, "players", len(players), "invalidated", invalidated)

	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"stored":      stored,
		"skipped":     skipped,
		"players":     len(players),
		"invalidated": invalidated,
	})
}

// decodeGameLogs parses one JSON object per line, dropping lines that fail
// to decode or validate.
func (h *Handler) decodeGameLogs(body []byte) ([]models.GameRecord, int) {
	var records []models.GameRecord
	skipped := 0

	sc := bufio.NewScanner(bytes.NewReader(body))
	sc.Buffer(make([]byte, 0, 64*1024), MaxBodySize)
	lineNum := 0
	for sc.Scan() {
		lineNum++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		var rec models.GameRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			h.logger.Warnw("Failed to unmarshal box score", "error", err, "lineNum", lineNum)
			skipped++
			continue
		}
		if err := h.validator.Struct(&rec); err != nil {
			h.logger.Warnw("Validation failed for box score", "error", err, "lineNum", lineNum, "game_id", rec.GameID)
			skipped++
			continue
		}
		records = append(records, rec)
	}
	return records, skipped
}

// validateGameRecord rejects a box score whose team played neither side of the game.
func validateGameRecord(sl validator.StructLevel) {
	rec := sl.Current().Interface().(models.GameRecord)
	if rec.TeamID != rec.HomeTeamID && rec.TeamID != rec.AwayTeamID {
		sl.ReportError(rec.TeamID, "TeamID", "team_id", "teamingame", "")
	}
}

// invalidateIngested drops cached reads that included the ingested players or games.
func (h *Handler) invalidateIngested(r *http.Request, records []models.GameRecord, players []string) int {
	var patterns []string
	for _, id := range players {
		for _, prefix := range invalidatedPrefixes {
			patterns = append(patterns, cache.PlayerPattern(prefix, id))
		}
	}
	seen := make(map[string]struct{})
	for _, rec := range records {
		key := cache.RosterKey(rec.GameID, rec.TeamID)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		patterns = append(patterns, cache.EscapePattern(key))
	}

	total := 0
	for _, p := range patterns {
		n, err := h.analytics.InvalidateCache(r.Context(), p)
		if err != nil {
			h.logger.Warnw("Cache invalidation failed", "pattern", p, "error", err)
			continue
		}
		total += n
	}
	return total
}

func distinctPlayers(records []models.GameRecord) []string {
	seen := make(map[string]struct{}, len(records))
	var ids []string
	for _, r := range records {
		if _, ok := seen[r.PlayerID]; ok {
			continue
		}
		seen[r.PlayerID] = struct{}{}
		ids = append(ids, r.PlayerID)
	}
	sort.Strings(ids)
	return ids
}
