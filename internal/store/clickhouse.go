package store

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/proplab/stats-api/internal/models"
)

// ClickHouseSchema is the analytics replica table the ClickHouse store reads.
const ClickHouseSchema = `
CREATE TABLE IF NOT EXISTS stats.player_game_logs (
	game_id            String,
	game_date          Date,
	season             LowCardinality(String),
	player_id          String,
	team_id            String,
	home_team_id       String,
	away_team_id       String,
	minutes            String,
	points             Int32,
	rebounds           Int32,
	offensive_rebounds Int32,
	defensive_rebounds Int32,
	assists            Int32,
	steals             Int32,
	blocks             Int32,
	turnovers          Int32,
	fgm                Int32,
	fga                Int32,
	fg3m               Int32,
	fg3a               Int32,
	ftm                Int32,
	fta                Int32
) ENGINE = ReplacingMergeTree
ORDER BY (player_id, game_date, game_id)`

// chGameRow mirrors one ClickHouse row; column types must match exactly.
type chGameRow struct {
	GameID            string    `ch:"game_id"`
	GameDate          time.Time `ch:"game_date"`
	Season            string    `ch:"season"`
	PlayerID          string    `ch:"player_id"`
	TeamID            string    `ch:"team_id"`
	HomeTeamID        string    `ch:"home_team_id"`
	AwayTeamID        string    `ch:"away_team_id"`
	Minutes           string    `ch:"minutes"`
	Points            int32     `ch:"points"`
	Rebounds          int32     `ch:"rebounds"`
	OffensiveRebounds int32     `ch:"offensive_rebounds"`
	DefensiveRebounds int32     `ch:"defensive_rebounds"`
	Assists           int32     `ch:"assists"`
	Steals            int32     `ch:"steals"`
	Blocks            int32     `ch:"blocks"`
	Turnovers         int32     `ch:"turnovers"`
	FGM               int32     `ch:"fgm"`
	FGA               int32     `ch:"fga"`
	FG3M              int32     `ch:"fg3m"`
	FG3A              int32     `ch:"fg3a"`
	FTM               int32     `ch:"ftm"`
	FTA               int32     `ch:"fta"`
}

func (r chGameRow) toRecord() models.GameRecord {
	return models.GameRecord{
		GameID:              r.GameID,
		Date:                r.GameDate.UTC(),
		Season:              r.Season,
		PlayerID:            r.PlayerID,
		TeamID:              r.TeamID,
		HomeTeamID:          r.HomeTeamID,
		AwayTeamID:          r.AwayTeamID,
		Minutes:             r.Minutes,
		Points:              int(r.Points),
		Rebounds:            int(r.Rebounds),
		OffensiveRebounds:   int(r.OffensiveRebounds),
		DefensiveRebounds:   int(r.DefensiveRebounds),
		Assists:             int(r.Assists),
		Steals:              int(r.Steals),
		Blocks:              int(r.Blocks),
		Turnovers:           int(r.Turnovers),
		FieldGoalsMade:      int(r.FGM),
		FieldGoalsAttempted: int(r.FGA),
		ThreesMade:          int(r.FG3M),
		ThreesAttempted:     int(r.FG3A),
		FreeThrowsMade:      int(r.FTM),
		FreeThrowsAttempted: int(r.FTA),
	}
}

// ClickHouse reads game logs and rosters from the analytics replica.
type ClickHouse struct {
	conn driver.Conn
}

// NewClickHouse wraps an open connection.
func NewClickHouse(conn driver.Conn) *ClickHouse {
	return &ClickHouse{conn: conn}
}

// OpenClickHouse parses a clickhouse:// DSN and connects.
func OpenClickHouse(ctx context.Context, dsn string) (driver.Conn, error) {
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ClickHouse DSN: %w", err)
	}
	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open ClickHouse: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}
	return conn, nil
}

func (s *ClickHouse) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}

func (s *ClickHouse) GetPlayerGameLogs(ctx context.Context, playerID string, r models.DateRange) ([]models.GameRecord, error) {
	return s.selectRecords(ctx, GameLogQuery{Table: "analytics", PlayerID: playerID, StartDate: r.Start, EndDate: r.End})
}

func (s *ClickHouse) GetGameTeamRoster(ctx context.Context, gameID, teamID string) ([]models.GameRecord, error) {
	return s.selectRecords(ctx, GameLogQuery{Table: "analytics", GameID: gameID, TeamID: teamID})
}

func (s *ClickHouse) selectRecords(ctx context.Context, req GameLogQuery) ([]models.GameRecord, error) {
	query, args, err := BuildGameLogQuery(req, DialectClickHouse)
	if err != nil {
		return nil, err
	}

	var rows []chGameRow
	if err := s.conn.Select(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query ClickHouse game logs: %w", err)
	}

	out := make([]models.GameRecord, len(rows))
	for i, r := range rows {
		out[i] = r.toRecord()
	}
	return out, nil
}
