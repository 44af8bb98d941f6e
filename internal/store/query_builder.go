package store

import (
	"fmt"
	"strings"
	"time"
)

// Dialect selects placeholder syntax and date handling for a backend.
type Dialect int

const (
	DialectPostgres Dialect = iota
	DialectClickHouse
	DialectSQLite
)

// gameLogColumns is the column order every backend selects and scans.
var gameLogColumns = []string{
	"game_id", "game_date", "season", "player_id", "team_id", "home_team_id", "away_team_id", "minutes",
	"points", "rebounds", "offensive_rebounds", "defensive_rebounds", "assists", "steals", "blocks", "turnovers",
	"fgm", "fga", "fg3m", "fg3a", "ftm", "fta",
}

// GameLogQuery holds parameters for a game-log read
type GameLogQuery struct {
	Table     string
	PlayerID  string
	GameID    string
	TeamID    string
	StartDate time.Time
	EndDate   time.Time
}

// allowedTables maps logical names to physical tables
var allowedTables = map[string]string{
	"":                 "player_game_logs",
	"player_game_logs": "player_game_logs",
	"analytics":        "stats.player_game_logs",
}

// BuildGameLogQuery constructs a parameterized, date-descending game-log query.
// There is no LIMIT: last-N caps are applied by the filter engine after the
// other predicates.
func BuildGameLogQuery(req GameLogQuery, d Dialect) (string, []any, error) {
	table, ok := allowedTables[req.Table]
	if !ok {
		return "", nil, fmt.Errorf("invalid table: %s", req.Table)
	}
	if req.PlayerID == "" && req.GameID == "" {
		return "", nil, fmt.Errorf("game log query needs a player or a game")
	}

	var b strings.Builder
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		if d == DialectPostgres {
			return fmt.Sprintf("$%d", len(args))
		}
		return "?"
	}

	fmt.Fprintf(&b, "SELECT %s FROM %s WHERE 1=1", strings.Join(gameLogColumns, ", "), table)

	if req.PlayerID != "" {
		b.WriteString(" AND player_id = " + arg(req.PlayerID))
	}
	if req.GameID != "" {
		b.WriteString(" AND game_id = " + arg(req.GameID))
	}
	if req.TeamID != "" {
		b.WriteString(" AND team_id = " + arg(req.TeamID))
	}
	if !req.StartDate.IsZero() {
		b.WriteString(" AND game_date >= " + arg(dateArg(req.StartDate, d)))
	}
	if !req.EndDate.IsZero() {
		b.WriteString(" AND game_date <= " + arg(dateArg(req.EndDate, d)))
	}

	b.WriteString(" ORDER BY game_date DESC, game_id DESC")
	return b.String(), args, nil
}

// dateArg truncates to a calendar day. SQLite stores dates as ISO text.
func dateArg(t time.Time, d Dialect) any {
	y, m, day := t.UTC().Date()
	date := time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
	if d == DialectSQLite {
		return date.Format(sqliteDateLayout)
	}
	return date
}
