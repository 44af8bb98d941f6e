package store

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/proplab/stats-api/internal/models"
)

// MockPgConn implements PgConn for testing
type MockPgConn struct {
	PgConn
	QueryFunc func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Batches   []*pgx.Batch
	BatchErr  error
	Execs     [][]any
}

func (m *MockPgConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	m.Execs = append(m.Execs, args)
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (m *MockPgConn) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return m.QueryFunc(ctx, sql, args...)
}

func (m *MockPgConn) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	m.Batches = append(m.Batches, b)
	return &MockBatchResults{err: m.BatchErr}
}

// MockBatchResults implements pgx.BatchResults for testing
type MockBatchResults struct {
	pgx.BatchResults
	err error
}

func (m *MockBatchResults) Exec() (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag("INSERT 0 1"), m.err
}

func (m *MockBatchResults) Close() error { return nil }

// MockPgRows implements pgx.Rows for testing
type MockPgRows struct {
	pgx.Rows
	Data  [][]any
	Index int
}

func (m *MockPgRows) Next() bool {
	m.Index++
	return m.Index <= len(m.Data)
}

func (m *MockPgRows) Scan(dest ...any) error {
	row := m.Data[m.Index-1]
	for i, val := range row {
		if i < len(dest) {
			setDest(dest[i], val)
		}
	}
	return nil
}

func (m *MockPgRows) Close()     {}
func (m *MockPgRows) Err() error { return nil }

func setDest(dest any, val any) {
	v := reflect.ValueOf(dest).Elem()
	valV := reflect.ValueOf(val)
	if valV.Type().ConvertibleTo(v.Type()) {
		v.Set(valV.Convert(v.Type()))
	} else {
		v.Set(valV)
	}
}

func gameLogRow(gameID string, date time.Time, points int) []any {
	return []any{
		gameID, date, "2024-25", "p1", "BOS", "BOS", "NYK", "32:00",
		points, 5, 1, 4, 6, 1, 0, 2,
		10, 20, 3, 8, 4, 5,
	}
}

func TestPostgres_GetPlayerGameLogs(t *testing.T) {
	var gotSQL string
	var gotArgs []any
	conn := &MockPgConn{QueryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
		gotSQL, gotArgs = sql, args
		return &MockPgRows{Data: [][]any{
			gameLogRow("g2", time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC), 33),
			gameLogRow("g1", time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), 28),
		}}, nil
	}}
	s := NewPostgres(conn)

	got, err := s.GetPlayerGameLogs(context.Background(), "p1", models.DateRange{End: time.Date(2025, 7, 31, 0, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatalf("GetPlayerGameLogs: %v", err)
	}
	if len(got) != 2 || got[0].GameID != "g2" || got[0].Points != 33 {
		t.Fatalf("unexpected records: %+v", got)
	}
	if got[1].ThreesAttempted != 8 || got[1].FreeThrowsAttempted != 5 || got[1].Minutes != "32:00" {
		t.Errorf("field mapping mismatch: %+v", got[1])
	}
	if !strings.Contains(gotSQL, "player_id = $1 AND game_date <= $2") {
		t.Errorf("unexpected SQL: %s", gotSQL)
	}
	if len(gotArgs) != 2 {
		t.Errorf("args = %v", gotArgs)
	}
}

func TestPostgres_QueryError(t *testing.T) {
	boom := errors.New("connection reset")
	s := NewPostgres(&MockPgConn{QueryFunc: func(context.Context, string, ...any) (pgx.Rows, error) {
		return nil, boom
	}})

	if _, err := s.GetGameTeamRoster(context.Background(), "g1", "BOS"); !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped %v", err, boom)
	}
}

func TestPostgres_UpsertRollingSplits(t *testing.T) {
	conn := &MockPgConn{}
	s := NewPostgres(conn)

	rows := []models.RollingSplit{
		{PlayerID: "p1", Projection: "pts", Window: 5},
		{PlayerID: "p1", Projection: "pts", Window: 10},
	}
	if err := s.UpsertRollingSplits(context.Background(), rows); err != nil {
		t.Fatalf("UpsertRollingSplits: %v", err)
	}
	if len(conn.Batches) != 1 || conn.Batches[0].Len() != 2 {
		t.Fatalf("expected one batch of 2 statements")
	}

	if err := s.UpsertRollingSplits(context.Background(), nil); err != nil {
		t.Errorf("empty upsert: %v", err)
	}
	if len(conn.Batches) != 1 {
		t.Errorf("empty upsert should not send a batch")
	}

	conn.BatchErr = errors.New("deadlock detected")
	if err := s.UpsertRollingSplits(context.Background(), rows); err == nil {
		t.Error("expected batch error")
	}
}

func TestPostgres_InsertGameLogs(t *testing.T) {
	conn := &MockPgConn{}
	s := NewPostgres(conn)

	records := []models.GameRecord{
		{GameID: "g1", PlayerID: "p1", TeamID: "BOS", Date: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), Points: 30},
		{GameID: "g1", PlayerID: "p2", TeamID: "BOS", Date: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), Points: 12},
	}
	n, err := s.InsertGameLogs(context.Background(), records)
	if err != nil {
		t.Fatalf("InsertGameLogs: %v", err)
	}
	if n != 2 || len(conn.Batches) != 1 || conn.Batches[0].Len() != 2 {
		t.Fatalf("expected one batch of 2 statements, wrote %d", n)
	}
	q := conn.Batches[0].QueuedQueries[0]
	if !strings.Contains(q.SQL, "ON CONFLICT (game_id, player_id) DO UPDATE") || strings.Contains(q.SQL, "game_id = EXCLUDED") {
		t.Errorf("unexpected upsert SQL: %s", q.SQL)
	}
	if len(q.Arguments) != len(gameLogColumns) || q.Arguments[8] != 30 {
		t.Errorf("unexpected arguments: %v", q.Arguments)
	}

	if _, err := s.InsertGameLogs(context.Background(), []models.GameRecord{{GameID: "g2"}}); err == nil {
		t.Error("expected error for missing player id")
	}
}

func TestPostgres_TrackPlayers(t *testing.T) {
	conn := &MockPgConn{}
	s := NewPostgres(conn)

	if err := s.TrackPlayers(context.Background(), "p1", "p2"); err != nil {
		t.Fatalf("TrackPlayers: %v", err)
	}
	if len(conn.Execs) != 2 || conn.Execs[1][0] != "p2" {
		t.Errorf("unexpected execs: %v", conn.Execs)
	}
}
