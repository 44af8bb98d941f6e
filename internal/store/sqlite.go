package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/proplab/stats-api/internal/models"
)

const sqliteDateLayout = "2006-01-02"

//go:embed sqlite_schema.sql
var sqliteSchema string

// SQLite is a single-file store used by the operator CLI, the seeder and tests.
type SQLite struct {
	conn *sql.DB
}

// OpenSQLite opens (or creates) the database at path and applies the schema.
// ":memory:" gives a private in-memory database.
func OpenSQLite(path string) (*SQLite, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", path)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if path == ":memory:" {
		// Every new connection would get its own empty database.
		conn.SetMaxOpenConns(1)
	}
	if _, err := conn.Exec(sqliteSchema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLite{conn: conn}, nil
}

// Close closes the underlying connection.
func (s *SQLite) Close() error {
	return s.conn.Close()
}

func (s *SQLite) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

// InsertGameLogs upserts records in one transaction and returns how many were written.
func (s *SQLite) InsertGameLogs(ctx context.Context, records []models.GameRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(gameLogColumns)), ", ")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT OR REPLACE INTO player_game_logs (%s) VALUES (%s)",
		strings.Join(gameLogColumns, ", "), placeholders))
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if r.GameID == "" || r.PlayerID == "" {
			return 0, fmt.Errorf("game log missing game or player id: %+v", r)
		}
		if _, err := stmt.ExecContext(ctx, recordValues(r, r.Date.UTC().Format(sqliteDateLayout))...); err != nil {
			return 0, fmt.Errorf("insert game %s player %s: %w", r.GameID, r.PlayerID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(records), nil
}

// TrackPlayers marks players for rolling-splits precomputation.
func (s *SQLite) TrackPlayers(ctx context.Context, playerIDs ...string) error {
	for _, id := range playerIDs {
		if _, err := s.conn.ExecContext(ctx,
			`INSERT INTO tracked_players (player_id, active) VALUES (?, 1)
			 ON CONFLICT (player_id) DO UPDATE SET active = 1`, id); err != nil {
			return fmt.Errorf("track player %s: %w", id, err)
		}
	}
	return nil
}

func (s *SQLite) GetPlayerGameLogs(ctx context.Context, playerID string, r models.DateRange) ([]models.GameRecord, error) {
	return s.queryRecords(ctx, GameLogQuery{PlayerID: playerID, StartDate: r.Start, EndDate: r.End})
}

func (s *SQLite) GetGameTeamRoster(ctx context.Context, gameID, teamID string) ([]models.GameRecord, error) {
	return s.queryRecords(ctx, GameLogQuery{GameID: gameID, TeamID: teamID})
}

func (s *SQLite) queryRecords(ctx context.Context, req GameLogQuery) ([]models.GameRecord, error) {
	query, args, err := BuildGameLogQuery(req, DialectSQLite)
	if err != nil {
		return nil, err
	}
	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query game logs: %w", err)
	}
	defer rows.Close()

	var out []models.GameRecord
	for rows.Next() {
		var (
			r    models.GameRecord
			date string
		)
		if err := rows.Scan(recordFields(&r, &date)...); err != nil {
			return nil, fmt.Errorf("scan game log: %w", err)
		}
		if r.Date, err = time.Parse(sqliteDateLayout, date); err != nil {
			return nil, fmt.Errorf("game %s has bad date %q: %w", r.GameID, date, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLite) ListTrackedPlayers(ctx context.Context) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT player_id FROM tracked_players WHERE active = 1 ORDER BY player_id`)
	if err != nil {
		return nil, fmt.Errorf("list tracked players: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLite) UpsertRollingSplits(ctx context.Context, rows []models.RollingSplit) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, row := range rows {
		hr, err := encodeHitRates(row.HitRates)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO player_rolling_splits (player_id, projection, window_size, games, average, hit_rates, computed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (player_id, projection, window_size) DO UPDATE SET
				games = excluded.games,
				average = excluded.average,
				hit_rates = excluded.hit_rates,
				computed_at = excluded.computed_at`,
			row.PlayerID, row.Projection, row.Window, row.Games, row.Average, string(hr),
			row.ComputedAt.UTC().Format(time.RFC3339Nano)); err != nil {
			return fmt.Errorf("upsert rolling split %s/%s/%d: %w", row.PlayerID, row.Projection, row.Window, err)
		}
	}
	return tx.Commit()
}

func (s *SQLite) GetRollingSplits(ctx context.Context, playerID string) ([]models.RollingSplit, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT player_id, projection, window_size, games, average, hit_rates, computed_at
		FROM player_rolling_splits
		WHERE player_id = ?
		ORDER BY projection, window_size`, playerID)
	if err != nil {
		return nil, fmt.Errorf("query rolling splits: %w", err)
	}
	defer rows.Close()

	var out []models.RollingSplit
	for rows.Next() {
		var (
			row        models.RollingSplit
			hr         string
			computedAt string
		)
		if err := rows.Scan(&row.PlayerID, &row.Projection, &row.Window, &row.Games, &row.Average, &hr, &computedAt); err != nil {
			return nil, fmt.Errorf("scan rolling split: %w", err)
		}
		if row.HitRates, err = decodeHitRates([]byte(hr)); err != nil {
			return nil, err
		}
		if row.ComputedAt, err = time.Parse(time.RFC3339Nano, computedAt); err != nil {
			return nil, fmt.Errorf("bad computed_at %q: %w", computedAt, err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
