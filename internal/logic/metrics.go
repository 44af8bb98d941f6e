package logic

import (
	"github.com/proplab/stats-api/internal/models"
)

// Recent-form window sizes.
const (
	formWindow5  = 5
	formWindow10 = 10
	formWindow20 = 20
)

// Analyze evaluates a filtered, date-descending game log against line.
// A game is over only when its value is strictly greater than the line; a
// push counts as under. Zero games yields NoDataAvailable with zero numbers.
func Analyze(records []models.GameRecord, p models.ProjectionType, line float64) models.AnalysisResult {
	res := models.AnalysisResult{Projection: p.Key, Line: line}
	if len(records) == 0 {
		res.NoDataAvailable = true
		return res
	}

	overall := windowStats(records, p, line)
	res.TotalGames = overall.Games
	res.HitRate = overall.HitRate
	res.Average = overall.Average
	for _, r := range records {
		if models.Extract(r, p) > line {
			res.OverCount++
		}
	}
	res.UnderCount = res.TotalGames - res.OverCount

	res.RecentForm = models.RecentForm{
		Last5:  windowStats(firstN(records, formWindow5), p, line),
		Last10: windowStats(firstN(records, formWindow10), p, line),
		Last20: windowStats(firstN(records, formWindow20), p, line),
	}

	var home, away []models.GameRecord
	for _, r := range records {
		if r.IsHome() {
			home = append(home, r)
		} else {
			away = append(away, r)
		}
	}
	res.HomeAwaySplit = models.HomeAwaySplit{
		Home: windowStats(home, p, line),
		Away: windowStats(away, p, line),
	}
	return res
}

// BuildGameOutcomes returns one outcome per game, oldest first.
func BuildGameOutcomes(records []models.GameRecord, p models.ProjectionType, line float64) []models.GameOutcome {
	out := make([]models.GameOutcome, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		v := models.Extract(r, p)
		out = append(out, models.GameOutcome{
			GameID:         r.GameID,
			Date:           r.Date,
			OpponentTeamID: r.OpponentTeamID(),
			IsHome:         r.IsHome(),
			Value:          v,
			Line:           line,
			Over:           v > line,
			Margin:         v - line,
		})
	}
	return out
}

func windowStats(records []models.GameRecord, p models.ProjectionType, line float64) models.WindowStats {
	if len(records) == 0 {
		return models.WindowStats{}
	}
	var sum float64
	over := 0
	for _, r := range records {
		v := models.Extract(r, p)
		sum += v
		if v > line {
			over++
		}
	}
	n := len(records)
	return models.WindowStats{
		Games:   n,
		HitRate: float64(over) / float64(n) * 100,
		Average: sum / float64(n),
	}
}

func firstN(records []models.GameRecord, n int) []models.GameRecord {
	if len(records) < n {
		return records
	}
	return records[:n]
}

func values(records []models.GameRecord, p models.ProjectionType) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = models.Extract(r, p)
	}
	return out
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
