package models

import "time"

// WindowStats summarizes the first K games of a filtered log.
type WindowStats struct {
	Games   int     `json:"games"`
	HitRate float64 `json:"hit_rate"`
	Average float64 `json:"average"`
}

// RecentForm holds the fixed recent windows.
type RecentForm struct {
	Last5  WindowStats `json:"last5"`
	Last10 WindowStats `json:"last10"`
	Last20 WindowStats `json:"last20"`
}

// HomeAwaySplit partitions the filtered set by venue.
type HomeAwaySplit struct {
	Home WindowStats `json:"home"`
	Away WindowStats `json:"away"`
}

// AnalysisResult is the line-based evaluation of a filtered game log.
// NoDataAvailable is set when zero games qualified; all numbers are zero then.
type AnalysisResult struct {
	PlayerID        string        `json:"player_id,omitempty"`
	Projection      string        `json:"projection,omitempty"`
	Line            float64       `json:"line"`
	HitRate         float64       `json:"hit_rate"`
	Average         float64       `json:"average"`
	OverCount       int           `json:"over_count"`
	UnderCount      int           `json:"under_count"`
	TotalGames      int           `json:"total_games"`
	RecentForm      RecentForm    `json:"recent_form"`
	HomeAwaySplit   HomeAwaySplit `json:"home_away_split"`
	NoDataAvailable bool          `json:"no_data_available"`
}

// GameOutcome is one point of the over/under chart.
type GameOutcome struct {
	GameID         string    `json:"game_id"`
	Date           time.Time `json:"date"`
	OpponentTeamID string    `json:"opponent_team_id"`
	IsHome         bool      `json:"is_home"`
	Value          float64   `json:"value"`
	Line           float64   `json:"line"`
	Over           bool      `json:"over"`
	Margin         float64   `json:"margin"`
}

// StreakDirection classifies a game relative to the set average.
type StreakDirection string

const (
	StreakOver  StreakDirection = "over"
	StreakUnder StreakDirection = "under"
)

// Streak is a run of same-direction games starting at the most recent one.
type Streak struct {
	Direction StreakDirection `json:"direction"`
	Count     int             `json:"count"`
}

// AdvancedMetrics describes consistency and momentum of a game set measured
// against its own average rather than a betting line.
type AdvancedMetrics struct {
	PlayerID               string  `json:"player_id,omitempty"`
	Projection             string  `json:"projection,omitempty"`
	Season                 string  `json:"season,omitempty"`
	GamesAnalyzed          int     `json:"games_analyzed"`
	Average                float64 `json:"average"`
	StandardDeviation      float64 `json:"standard_deviation"`
	CoefficientOfVariation float64 `json:"coefficient_of_variation"`
	CurrentStreak          Streak  `json:"current_streak"`
	LongestOverStreak      int     `json:"longest_over_streak"`
	LongestUnderStreak     int     `json:"longest_under_streak"`
	Last5Trend             float64 `json:"last5_trend"`
	Last10Trend            float64 `json:"last10_trend"`
	Momentum               float64 `json:"momentum"`
	HotStreak              bool    `json:"hot_streak"`
	ColdStreak             bool    `json:"cold_streak"`
}

// LineHitRate is the hit rate of a window at one canonical line.
type LineHitRate struct {
	Line    float64 `json:"line"`
	HitRate float64 `json:"hit_rate"`
}

// RollingSplit is one precomputed (player, projection, window) row.
type RollingSplit struct {
	PlayerID   string        `json:"player_id"`
	Projection string        `json:"projection"`
	Window     int           `json:"window"`
	Games      int           `json:"games"`
	Average    float64       `json:"average"`
	HitRates   []LineHitRate `json:"hit_rates"`
	ComputedAt time.Time     `json:"computed_at"`
}
