// Command seeder fills a SQLite database with a synthetic season of box
// scores for local development and demos.
package main

import (
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/proplab/stats-api/internal/models"
	"github.com/proplab/stats-api/internal/store"
)

var teams = []string{"BOS", "NYK", "MIA", "CHI", "LAL", "DEN", "PHX", "GSW"}

// seedConfig controls the shape of the generated season.
type seedConfig struct {
	Games          int
	PlayersPerTeam int
	Start          time.Time
	Seed           uint64
}

// profile is a player's per-game mean for each generated stat.
type profile struct {
	id, team                string
	pts, reb, ast, stl, blk float64
	minutes                 float64
}

var (
	dbPath string
	cfg    = seedConfig{Start: time.Date(2024, 10, 22, 0, 0, 0, 0, time.UTC)}
)

var rootCmd = &cobra.Command{
	Use:          "seeder",
	Short:        "Generate a synthetic season of box scores",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runSeed,
}

func init() {
	rootCmd.Flags().StringVar(&dbPath, "db", "props.db", "path to SQLite database")
	rootCmd.Flags().IntVar(&cfg.Games, "games", 40, "games per team")
	rootCmd.Flags().IntVar(&cfg.PlayersPerTeam, "players", 8, "players per team")
	rootCmd.Flags().Uint64Var(&cfg.Seed, "seed", 42, "random seed")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runSeed(cmd *cobra.Command, args []string) error {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := store.OpenSQLite(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	records, players := generate(cfg)
	ctx := cmd.Context()
	n, err := db.InsertGameLogs(ctx, records)
	if err != nil {
		return fmt.Errorf("insert game logs: %w", err)
	}
	if err := db.TrackPlayers(ctx, players...); err != nil {
		return fmt.Errorf("track players: %w", err)
	}

	fmt.Printf("seeded %d box scores for %d players into %s\n", n, len(players), dbPath)
	return nil
}

// generate builds a round-robin schedule and one box score per player per
// game. The same config always yields the same stats; game IDs are random.
func generate(c seedConfig) ([]models.GameRecord, []string) {
	rng := rand.New(rand.NewPCG(c.Seed, c.Seed^0x9e3779b97f4a7c15))

	roster := make(map[string][]profile, len(teams))
	var players []string
	for ti, team := range teams {
		for i := 0; i < c.PlayersPerTeam; i++ {
			// Starters get the bigger roles.
			role := 1.0 - float64(i)/float64(c.PlayersPerTeam+2)
			p := profile{
				id:      fmt.Sprintf("%d", 1000+ti*100+i),
				team:    team,
				pts:     6 + 22*role*(0.7+0.6*rng.Float64()),
				reb:     2 + 8*role*(0.5+rng.Float64()),
				ast:     1 + 7*role*(0.4+rng.Float64()),
				stl:     0.4 + rng.Float64(),
				blk:     0.2 + rng.Float64(),
				minutes: 14 + 22*role,
			}
			roster[team] = append(roster[team], p)
			players = append(players, p.id)
		}
	}

	var records []models.GameRecord
	order := append([]string(nil), teams...)
	for g := 0; g < c.Games; g++ {
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		date := c.Start.AddDate(0, 0, 2*g)
		for i := 0; i+1 < len(order); i += 2 {
			home, away := order[i], order[i+1]
			gameID := uuid.NewString()
			for _, team := range []string{home, away} {
				for _, p := range roster[team] {
					records = append(records, boxScore(rng, p, gameID, date, home, away))
				}
			}
		}
	}
	return records, players
}

func boxScore(rng *rand.Rand, p profile, gameID string, date time.Time, home, away string) models.GameRecord {
	minutes := math.Max(0, p.minutes+rng.NormFloat64()*4)
	scale := minutes / p.minutes
	pts := draw(rng, p.pts*scale, 0.35)
	fga := pts/2 + draw(rng, 3, 0.5)
	threes := draw(rng, float64(pts)*0.12, 0.6)
	fta := draw(rng, float64(pts)*0.2, 0.6)
	reb := draw(rng, p.reb*scale, 0.4)
	oreb := reb / 4

	return models.GameRecord{
		GameID:              gameID,
		Date:                date,
		Season:              "2024-25",
		PlayerID:            p.id,
		TeamID:              p.team,
		HomeTeamID:          home,
		AwayTeamID:          away,
		Minutes:             fmt.Sprintf("%d:%02d", int(minutes), int(math.Mod(minutes, 1)*60)),
		Points:              pts,
		Rebounds:            reb,
		OffensiveRebounds:   oreb,
		DefensiveRebounds:   reb - oreb,
		Assists:             draw(rng, p.ast*scale, 0.45),
		Steals:              draw(rng, p.stl*scale, 0.8),
		Blocks:              draw(rng, p.blk*scale, 0.8),
		Turnovers:           draw(rng, 1+p.ast*0.3, 0.6),
		FieldGoalsMade:      pts * 2 / 5,
		FieldGoalsAttempted: fga + pts*2/5,
		ThreesMade:          threes,
		ThreesAttempted:     threes * 3,
		FreeThrowsMade:      fta * 3 / 4,
		FreeThrowsAttempted: fta,
	}
}

// draw samples a non-negative count around mean with relative spread cv.
func draw(rng *rand.Rand, mean, cv float64) int {
	v := mean + rng.NormFloat64()*mean*cv
	if v < 0 {
		return 0
	}
	return int(math.Round(v))
}
