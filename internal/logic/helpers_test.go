package logic

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/proplab/stats-api/internal/models"
)

var baseDate = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

// game builds a record for player p1 on team T1. Index 0 is the most recent.
func game(i int, points int, home bool) models.GameRecord {
	r := models.GameRecord{
		GameID:   fmt.Sprintf("g%02d", i),
		Date:     baseDate.AddDate(0, 0, -2*i),
		PlayerID: "p1",
		TeamID:   "T1",
		Minutes:  "30:00",
		Points:   points,
	}
	if home {
		r.HomeTeamID, r.AwayTeamID = "T1", fmt.Sprintf("OPP%d", i%3)
	} else {
		r.HomeTeamID, r.AwayTeamID = fmt.Sprintf("OPP%d", i%3), "T1"
	}
	return r
}

// pointsLog builds a date-descending log alternating home and away.
func pointsLog(points ...int) []models.GameRecord {
	out := make([]models.GameRecord, len(points))
	for i, p := range points {
		out[i] = game(i, p, i%2 == 0)
	}
	return out
}

func gameIDs(records []models.GameRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.GameID
	}
	return out
}

type mockGameLogStore struct {
	GameLogStore
	mu      sync.Mutex
	records []models.GameRecord
	err     error
	calls   int
}

func (m *mockGameLogStore) GetPlayerGameLogs(_ context.Context, playerID string, r models.DateRange) ([]models.GameRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	var out []models.GameRecord
	for _, rec := range m.records {
		if rec.PlayerID == playerID && r.Contains(rec.Date) {
			out = append(out, rec)
		}
	}
	return out, nil
}

type mockRoster struct {
	RosterLookup
	rosters map[string][]models.GameRecord
	err     error
}

func (m *mockRoster) GetGameTeamRoster(_ context.Context, gameID, teamID string) ([]models.GameRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.rosters[gameID+"/"+teamID], nil
}

type mockSplitsStore struct {
	SplitsStore
	mu      sync.Mutex
	players []string
	rows    map[string][]models.RollingSplit
	err     error
}

func (m *mockSplitsStore) ListTrackedPlayers(context.Context) ([]string, error) {
	return m.players, m.err
}

func (m *mockSplitsStore) UpsertRollingSplits(_ context.Context, rows []models.RollingSplit) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rows == nil {
		m.rows = make(map[string][]models.RollingSplit)
	}
	for _, r := range rows {
		m.rows[r.PlayerID] = append(m.rows[r.PlayerID], r)
	}
	return nil
}

func (m *mockSplitsStore) GetRollingSplits(_ context.Context, playerID string) ([]models.RollingSplit, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[playerID], nil
}
