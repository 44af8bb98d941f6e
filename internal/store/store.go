// Package store implements the data access collaborators over Postgres,
// ClickHouse and SQLite. Stores return rows only; every aggregate is
// computed in the logic package.
package store

import (
	"encoding/json"
	"fmt"

	"github.com/proplab/stats-api/internal/models"
)

type rowScanner interface {
	Scan(dest ...any) error
}

// recordFields returns scan destinations in gameLogColumns order. date
// receives the game_date column, whose Go type differs per driver.
func recordFields(r *models.GameRecord, date any) []any {
	return []any{
		&r.GameID, date, &r.Season, &r.PlayerID, &r.TeamID, &r.HomeTeamID, &r.AwayTeamID, &r.Minutes,
		&r.Points, &r.Rebounds, &r.OffensiveRebounds, &r.DefensiveRebounds, &r.Assists, &r.Steals, &r.Blocks, &r.Turnovers,
		&r.FieldGoalsMade, &r.FieldGoalsAttempted, &r.ThreesMade, &r.ThreesAttempted, &r.FreeThrowsMade, &r.FreeThrowsAttempted,
	}
}

// recordValues returns insert arguments in gameLogColumns order.
func recordValues(r models.GameRecord, date any) []any {
	return []any{
		r.GameID, date, r.Season, r.PlayerID, r.TeamID, r.HomeTeamID, r.AwayTeamID, r.Minutes,
		r.Points, r.Rebounds, r.OffensiveRebounds, r.DefensiveRebounds, r.Assists, r.Steals, r.Blocks, r.Turnovers,
		r.FieldGoalsMade, r.FieldGoalsAttempted, r.ThreesMade, r.ThreesAttempted, r.FreeThrowsMade, r.FreeThrowsAttempted,
	}
}

func encodeHitRates(hr []models.LineHitRate) ([]byte, error) {
	if hr == nil {
		hr = []models.LineHitRate{}
	}
	b, err := json.Marshal(hr)
	if err != nil {
		return nil, fmt.Errorf("failed to encode hit rates: %w", err)
	}
	return b, nil
}

func decodeHitRates(b []byte) ([]models.LineHitRate, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var hr []models.LineHitRate
	if err := json.Unmarshal(b, &hr); err != nil {
		return nil, fmt.Errorf("failed to decode hit rates: %w", err)
	}
	return hr, nil
}
