package logic

import (
	"math"

	"github.com/proplab/stats-api/internal/models"
)

const (
	hotColdWindow    = 5
	hotColdThreshold = 4
)

// ComputeAdvancedMetrics measures consistency and momentum of a
// date-descending game set against its own average.
func ComputeAdvancedMetrics(records []models.GameRecord, p models.ProjectionType) (models.AdvancedMetrics, error) {
	if len(records) == 0 {
		return models.AdvancedMetrics{}, models.ErrEmptyInput
	}

	vals := values(records, p)
	avg := mean(vals)
	std := stddev(vals, avg)

	m := models.AdvancedMetrics{
		Projection:        p.Key,
		GamesAnalyzed:     len(vals),
		Average:           avg,
		StandardDeviation: std,
	}
	if avg != 0 {
		m.CoefficientOfVariation = std / avg * 100
	}

	dirs := ClassifyStreaks(vals, avg)
	m.CurrentStreak = currentStreak(dirs)
	m.LongestOverStreak = longestRun(dirs, models.StreakOver)
	m.LongestUnderStreak = longestRun(dirs, models.StreakUnder)

	m.Last5Trend = TrendSlope(firstNFloat(vals, 5))
	m.Last10Trend = TrendSlope(firstNFloat(vals, 10))
	m.Momentum = mean(firstNFloat(vals, hotColdWindow)) - avg

	above, below := 0, 0
	for _, v := range firstNFloat(vals, hotColdWindow) {
		switch {
		case v > avg:
			above++
		case v < avg:
			below++
		}
	}
	m.HotStreak = above >= hotColdThreshold
	m.ColdStreak = below >= hotColdThreshold
	return m, nil
}

// ClassifyStreaks labels each value over (strictly above avg) or under.
func ClassifyStreaks(vals []float64, avg float64) []models.StreakDirection {
	out := make([]models.StreakDirection, len(vals))
	for i, v := range vals {
		if v > avg {
			out[i] = models.StreakOver
		} else {
			out[i] = models.StreakUnder
		}
	}
	return out
}

func currentStreak(dirs []models.StreakDirection) models.Streak {
	if len(dirs) == 0 {
		return models.Streak{}
	}
	s := models.Streak{Direction: dirs[0]}
	for _, d := range dirs {
		if d != s.Direction {
			break
		}
		s.Count++
	}
	return s
}

func longestRun(dirs []models.StreakDirection, want models.StreakDirection) int {
	best, run := 0, 0
	for _, d := range dirs {
		if d == want {
			run++
			if run > best {
				best = run
			}
		} else {
			run = 0
		}
	}
	return best
}

// TrendSlope fits an ordinary least-squares line through a date-descending
// window. The x axis runs oldest to newest, so a positive slope means the
// player is improving. Fewer than two points has no trend.
func TrendSlope(recentFirst []float64) float64 {
	n := len(recentFirst)
	if n < 2 {
		return 0
	}
	var sumX, sumY, sumXY, sumXX float64
	for i := 0; i < n; i++ {
		x := float64(i)
		y := recentFirst[n-1-i]
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	fn := float64(n)
	denom := fn*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (fn*sumXY - sumX*sumY) / denom
}

// stddev is the population standard deviation.
func stddev(vals []float64, avg float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var ss float64
	for _, v := range vals {
		d := v - avg
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(vals)))
}

func firstNFloat(vals []float64, n int) []float64 {
	if len(vals) < n {
		return vals
	}
	return vals[:n]
}
