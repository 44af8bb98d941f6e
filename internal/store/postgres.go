package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/proplab/stats-api/internal/models"
)

// PgConn is the subset of *pgxpool.Pool the Postgres store uses
type PgConn interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Ping(ctx context.Context) error
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS player_game_logs (
		game_id            TEXT NOT NULL,
		game_date          DATE NOT NULL,
		season             TEXT NOT NULL DEFAULT '',
		player_id          TEXT NOT NULL,
		team_id            TEXT NOT NULL,
		home_team_id       TEXT NOT NULL,
		away_team_id       TEXT NOT NULL,
		minutes            TEXT NOT NULL DEFAULT '',
		points             INTEGER NOT NULL DEFAULT 0,
		rebounds           INTEGER NOT NULL DEFAULT 0,
		offensive_rebounds INTEGER NOT NULL DEFAULT 0,
		defensive_rebounds INTEGER NOT NULL DEFAULT 0,
		assists            INTEGER NOT NULL DEFAULT 0,
		steals             INTEGER NOT NULL DEFAULT 0,
		blocks             INTEGER NOT NULL DEFAULT 0,
		turnovers          INTEGER NOT NULL DEFAULT 0,
		fgm                INTEGER NOT NULL DEFAULT 0,
		fga                INTEGER NOT NULL DEFAULT 0,
		fg3m               INTEGER NOT NULL DEFAULT 0,
		fg3a               INTEGER NOT NULL DEFAULT 0,
		ftm                INTEGER NOT NULL DEFAULT 0,
		fta                INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (game_id, player_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_game_logs_player_date ON player_game_logs (player_id, game_date DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_game_logs_game_team ON player_game_logs (game_id, team_id)`,
	`CREATE TABLE IF NOT EXISTS tracked_players (
		player_id TEXT PRIMARY KEY,
		active    BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS player_rolling_splits (
		player_id   TEXT NOT NULL,
		projection  TEXT NOT NULL,
		window_size INTEGER NOT NULL,
		games       INTEGER NOT NULL,
		average     DOUBLE PRECISION NOT NULL,
		hit_rates   JSONB NOT NULL,
		computed_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (player_id, projection, window_size)
	)`,
}

const postgresUpsertSplit = `
	INSERT INTO player_rolling_splits (player_id, projection, window_size, games, average, hit_rates, computed_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (player_id, projection, window_size) DO UPDATE SET
		games = EXCLUDED.games,
		average = EXCLUDED.average,
		hit_rates = EXCLUDED.hit_rates,
		computed_at = EXCLUDED.computed_at`

// postgresUpsertGameLog replaces a box score keyed by (game_id, player_id).
var postgresUpsertGameLog = func() string {
	placeholders := make([]string, len(gameLogColumns))
	updates := make([]string, 0, len(gameLogColumns)-2)
	for i, col := range gameLogColumns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		if col != "game_id" && col != "player_id" {
			updates = append(updates, col+" = EXCLUDED."+col)
		}
	}
	return fmt.Sprintf("INSERT INTO player_game_logs (%s) VALUES (%s) ON CONFLICT (game_id, player_id) DO UPDATE SET %s",
		strings.Join(gameLogColumns, ", "), strings.Join(placeholders, ", "), strings.Join(updates, ", "))
}()

// Postgres serves game logs, rosters and rolling splits from the primary database.
type Postgres struct {
	db PgConn
}

// NewPostgres wraps a pool.
func NewPostgres(db PgConn) *Postgres {
	return &Postgres{db: db}
}

// OpenPostgres connects a pool and verifies it with a ping.
func OpenPostgres(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to create Postgres pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping Postgres: %w", err)
	}
	return pool, nil
}

// EnsureSchema creates the tables if they do not exist.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	for _, stmt := range postgresSchema {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres schema: %w", err)
		}
	}
	return nil
}

func (s *Postgres) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *Postgres) GetPlayerGameLogs(ctx context.Context, playerID string, r models.DateRange) ([]models.GameRecord, error) {
	query, args, err := BuildGameLogQuery(GameLogQuery{PlayerID: playerID, StartDate: r.Start, EndDate: r.End}, DialectPostgres)
	if err != nil {
		return nil, err
	}
	return s.queryRecords(ctx, query, args...)
}

func (s *Postgres) GetGameTeamRoster(ctx context.Context, gameID, teamID string) ([]models.GameRecord, error) {
	query, args, err := BuildGameLogQuery(GameLogQuery{GameID: gameID, TeamID: teamID}, DialectPostgres)
	if err != nil {
		return nil, err
	}
	return s.queryRecords(ctx, query, args...)
}

func (s *Postgres) queryRecords(ctx context.Context, query string, args ...any) ([]models.GameRecord, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query game logs: %w", err)
	}
	defer rows.Close()

	var out []models.GameRecord
	for rows.Next() {
		var r models.GameRecord
		if err := rows.Scan(recordFields(&r, &r.Date)...); err != nil {
			return nil, fmt.Errorf("failed to scan game log: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read game logs: %w", err)
	}
	return out, nil
}

// InsertGameLogs upserts box scores in one pipelined batch and returns how many were written.
func (s *Postgres) InsertGameLogs(ctx context.Context, records []models.GameRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, r := range records {
		if r.GameID == "" || r.PlayerID == "" {
			return 0, fmt.Errorf("game log missing game or player id: %+v", r)
		}
		batch.Queue(postgresUpsertGameLog, recordValues(r, r.Date.UTC())...)
	}

	br := s.db.SendBatch(ctx, batch)
	for _, r := range records {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return 0, fmt.Errorf("failed to insert game %s player %s: %w", r.GameID, r.PlayerID, err)
		}
	}
	if err := br.Close(); err != nil {
		return 0, err
	}
	return len(records), nil
}

// TrackPlayers marks players for rolling-splits precomputation.
func (s *Postgres) TrackPlayers(ctx context.Context, playerIDs ...string) error {
	for _, id := range playerIDs {
		if _, err := s.db.Exec(ctx,
			`INSERT INTO tracked_players (player_id, active) VALUES ($1, TRUE)
			 ON CONFLICT (player_id) DO UPDATE SET active = TRUE`, id); err != nil {
			return fmt.Errorf("failed to track player %s: %w", id, err)
		}
	}
	return nil
}

func (s *Postgres) ListTrackedPlayers(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT player_id FROM tracked_players WHERE active ORDER BY player_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracked players: %w", err)
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

// UpsertRollingSplits writes all rows in one pipelined batch.
func (s *Postgres) UpsertRollingSplits(ctx context.Context, rows []models.RollingSplit) error {
	if len(rows) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, row := range rows {
		hr, err := encodeHitRates(row.HitRates)
		if err != nil {
			return err
		}
		batch.Queue(postgresUpsertSplit, row.PlayerID, row.Projection, row.Window, row.Games, row.Average, hr, row.ComputedAt)
	}

	br := s.db.SendBatch(ctx, batch)
	for range rows {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("failed to upsert rolling split: %w", err)
		}
	}
	return br.Close()
}

func (s *Postgres) GetRollingSplits(ctx context.Context, playerID string) ([]models.RollingSplit, error) {
	rows, err := s.db.Query(ctx, `
		SELECT player_id, projection, window_size, games, average, hit_rates, computed_at
		FROM player_rolling_splits
		WHERE player_id = $1
		ORDER BY projection, window_size`, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rolling splits: %w", err)
	}
	defer rows.Close()

	var out []models.RollingSplit
	for rows.Next() {
		var (
			row models.RollingSplit
			hr  []byte
		)
		if err := rows.Scan(&row.PlayerID, &row.Projection, &row.Window, &row.Games, &row.Average, &hr, &row.ComputedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rolling split: %w", err)
		}
		if row.HitRates, err = decodeHitRates(hr); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
