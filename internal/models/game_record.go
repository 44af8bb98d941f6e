package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// GameRecord is one player's box score for one game. Records are produced by
// ingestion and treated as read-only everywhere in the engine.
type GameRecord struct {
	GameID     string    `json:"game_id" validate:"required,max=64"`
	Date       time.Time `json:"date" validate:"required"`
	Season     string    `json:"season" validate:"max=16"`
	PlayerID   string    `json:"player_id" validate:"required,max=64"`
	TeamID     string    `json:"team_id" validate:"required,max=32"`
	HomeTeamID string    `json:"home_team_id" validate:"required,max=32,nefield=AwayTeamID"`
	AwayTeamID string    `json:"away_team_id" validate:"required,max=32"`
	Minutes    string    `json:"minutes"` // "MM:SS" or decimal minutes

	Points            int `json:"points" validate:"gte=0"`
	Rebounds          int `json:"rebounds" validate:"gte=0"`
	OffensiveRebounds int `json:"offensive_rebounds" validate:"gte=0"`
	DefensiveRebounds int `json:"defensive_rebounds" validate:"gte=0"`
	Assists           int `json:"assists" validate:"gte=0"`
	Steals            int `json:"steals" validate:"gte=0"`
	Blocks            int `json:"blocks" validate:"gte=0"`
	Turnovers         int `json:"turnovers" validate:"gte=0"`

	FieldGoalsMade      int `json:"field_goals_made" validate:"gte=0,ltefield=FieldGoalsAttempted"`
	FieldGoalsAttempted int `json:"field_goals_attempted" validate:"gte=0"`
	ThreesMade          int `json:"threes_made" validate:"gte=0,ltefield=ThreesAttempted"`
	ThreesAttempted     int `json:"threes_attempted" validate:"gte=0"`
	FreeThrowsMade      int `json:"free_throws_made" validate:"gte=0,ltefield=FreeThrowsAttempted"`
	FreeThrowsAttempted int `json:"free_throws_attempted" validate:"gte=0"`
}

// IsHome reports whether the player's team hosted the game.
func (r GameRecord) IsHome() bool {
	return r.TeamID != "" && r.TeamID == r.HomeTeamID
}

// OpponentTeamID returns the other side of the game from the player's team.
func (r GameRecord) OpponentTeamID() string {
	if r.IsHome() {
		return r.AwayTeamID
	}
	return r.HomeTeamID
}

// MinutesPlayed parses Minutes into fractional minutes. Empty or unparsable
// values count as zero.
func (r GameRecord) MinutesPlayed() float64 {
	return ParseMinutes(r.Minutes)
}

// ParseMinutes accepts "MM:SS" or a decimal string ("34.5").
func ParseMinutes(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if mm, ss, ok := strings.Cut(s, ":"); ok {
		m, err := strconv.Atoi(strings.TrimSpace(mm))
		if err != nil || m < 0 {
			return 0
		}
		sec, err := strconv.ParseFloat(strings.TrimSpace(ss), 64)
		if err != nil || !finite(sec) || sec < 0 {
			return 0
		}
		return float64(m) + sec/60
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !finite(v) || v < 0 {
		return 0
	}
	return v
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// DateRange bounds a game-log query. Zero times are open ends; both ends are
// inclusive and compared by calendar day.
type DateRange struct {
	Start time.Time `json:"start,omitempty"`
	End   time.Time `json:"end,omitempty"`
}

// IsZero reports whether the range is unbounded on both sides.
func (d DateRange) IsZero() bool {
	return d.Start.IsZero() && d.End.IsZero()
}

// Contains reports whether t falls inside the range.
func (d DateRange) Contains(t time.Time) bool {
	day := truncateDay(t)
	if !d.Start.IsZero() && day.Before(truncateDay(d.Start)) {
		return false
	}
	if !d.End.IsZero() && day.After(truncateDay(d.End)) {
		return false
	}
	return true
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SeasonRange maps a season label to the dates it covers. "2024-25" and
// "2024" both mean October 1st 2024 through July 31st 2025. An empty label
// is an unbounded range.
func SeasonRange(season string) (DateRange, error) {
	season = strings.TrimSpace(season)
	if season == "" {
		return DateRange{}, nil
	}
	startLabel, _, _ := strings.Cut(season, "-")
	year, err := strconv.Atoi(startLabel)
	if err != nil || year < 1900 || year > 3000 {
		return DateRange{}, fmt.Errorf("%w: %q", ErrInvalidSeason, season)
	}
	return DateRange{
		Start: time.Date(year, time.October, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(year+1, time.July, 31, 0, 0, 0, 0, time.UTC),
	}, nil
}
