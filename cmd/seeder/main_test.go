package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proplab/stats-api/internal/models"
	"github.com/proplab/stats-api/internal/store"
)

func TestGenerate_Shape(t *testing.T) {
	c := seedConfig{Games: 5, PlayersPerTeam: 3, Start: time.Date(2024, 10, 22, 0, 0, 0, 0, time.UTC), Seed: 7}
	records, players := generate(c)

	require.Len(t, players, len(teams)*3)
	require.Len(t, records, 5*len(teams)*3)

	perGame := map[string]map[string]bool{}
	for _, r := range records {
		assert.True(t, r.TeamID == r.HomeTeamID || r.TeamID == r.AwayTeamID, "player team must be in the game")
		assert.NotEqual(t, r.HomeTeamID, r.AwayTeamID)
		assert.GreaterOrEqual(t, r.Points, 0)
		assert.Equal(t, r.Rebounds, r.OffensiveRebounds+r.DefensiveRebounds)
		assert.LessOrEqual(t, r.FieldGoalsMade, r.FieldGoalsAttempted)
		assert.Greater(t, models.ParseMinutes(r.Minutes), -1.0)

		if perGame[r.GameID] == nil {
			perGame[r.GameID] = map[string]bool{}
		}
		perGame[r.GameID][r.TeamID] = true
	}
	assert.Len(t, perGame, 5*len(teams)/2)
	for id, sides := range perGame {
		assert.Len(t, sides, 2, "game %s", id)
	}
}

func TestGenerate_DeterministicStats(t *testing.T) {
	c := seedConfig{Games: 3, PlayersPerTeam: 2, Start: time.Date(2024, 10, 22, 0, 0, 0, 0, time.UTC), Seed: 99}
	a, _ := generate(c)
	b, _ := generate(c)

	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].PlayerID, b[i].PlayerID)
		assert.Equal(t, a[i].Points, b[i].Points)
		assert.Equal(t, a[i].Date, b[i].Date)
	}
}

func TestRunSeed(t *testing.T) {
	dbPath = filepath.Join(t.TempDir(), "seed.db")
	cfg = seedConfig{Games: 4, PlayersPerTeam: 2, Start: time.Date(2024, 10, 22, 0, 0, 0, 0, time.UTC), Seed: 1}
	rootCmd.SetContext(context.Background())
	require.NoError(t, runSeed(rootCmd, nil))

	db, err := store.OpenSQLite(dbPath)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	tracked, err := db.ListTrackedPlayers(ctx)
	require.NoError(t, err)
	assert.Len(t, tracked, len(teams)*2)

	logs, err := db.GetPlayerGameLogs(ctx, tracked[0], models.DateRange{})
	require.NoError(t, err)
	require.Len(t, logs, 4)
	assert.True(t, logs[0].Date.After(logs[3].Date), "game logs are most recent first")
}
