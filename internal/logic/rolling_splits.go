package logic

import (
	"time"

	"github.com/proplab/stats-api/internal/models"
)

// SplitWindows are the precomputed window sizes.
var SplitWindows = []int{5, 10, 15, 20, 30}

// splitLines are the canonical lines hit rates are precomputed at.
var splitLines = []struct {
	projection models.ProjectionType
	lines      []float64
}{
	{models.Points, []float64{10.5, 15.5, 20.5, 25.5, 30.5}},
	{models.Rebounds, []float64{4.5, 6.5, 8.5, 10.5}},
	{models.Assists, []float64{2.5, 4.5, 6.5, 8.5}},
	{models.PointsReboundsAssists, []float64{20.5, 25.5, 30.5, 35.5, 40.5}},
	{models.PointsRebounds, []float64{15.5, 20.5, 25.5, 30.5}},
	{models.PointsAssists, []float64{15.5, 20.5, 25.5, 30.5}},
}

// SplitProjections lists the projection keys rolling splits are kept for.
func SplitProjections() []string {
	out := make([]string, len(splitLines))
	for i, s := range splitLines {
		out[i] = s.projection.Key
	}
	return out
}

// ComputeRollingSplits builds one row per (projection, window) from a
// date-descending game log. Each row is computed by Analyze over the first
// window games, so it matches on-demand analysis exactly. A player with no
// games produces no rows.
func ComputeRollingSplits(playerID string, records []models.GameRecord, now time.Time) []models.RollingSplit {
	if len(records) == 0 {
		return nil
	}

	rows := make([]models.RollingSplit, 0, len(splitLines)*len(SplitWindows))
	for _, s := range splitLines {
		for _, w := range SplitWindows {
			window := firstN(records, w)
			row := models.RollingSplit{
				PlayerID:   playerID,
				Projection: s.projection.Key,
				Window:     w,
				Games:      len(window),
				HitRates:   make([]models.LineHitRate, 0, len(s.lines)),
				ComputedAt: now,
			}
			for _, line := range s.lines {
				res := Analyze(window, s.projection, line)
				row.Average = res.Average
				row.HitRates = append(row.HitRates, models.LineHitRate{Line: line, HitRate: res.HitRate})
			}
			rows = append(rows, row)
		}
	}
	return rows
}
