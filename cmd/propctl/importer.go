package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/proplab/stats-api/internal/models"
)

var importTrack bool

var importCmd = &cobra.Command{
	Use:   "import <file|->",
	Short: "Load box scores from a JSON array or JSON-lines file",
	Long: "Load box scores into the local game log. Counting stats may be numbers or quoted strings;\n" +
		"rows are keyed by (game_id, player_id) and re-importing replaces them.",
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var trackCmd = &cobra.Command{
	Use:   "track <player-id>...",
	Short: "Add players to the rolling-splits precompute set",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTrack,
}

func init() {
	importCmd.Flags().BoolVar(&importTrack, "track", false, "track every imported player for rolling splits")
}

func runImport(cmd *cobra.Command, args []string) error {
	var in io.Reader = os.Stdin
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		in = f
	}

	records, err := decodeRecords(in)
	if err != nil {
		return err
	}

	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	ctx := cmd.Context()
	n, err := e.db.InsertGameLogs(ctx, records)
	if err != nil {
		return fmt.Errorf("insert game logs: %w", err)
	}
	fmt.Printf("imported %d box scores\n", n)

	if importTrack {
		players := playerIDs(records)
		if err := e.db.TrackPlayers(ctx, players...); err != nil {
			return fmt.Errorf("track players: %w", err)
		}
		fmt.Printf("tracking %d players\n", len(players))
	}
	return nil
}

func runTrack(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.db.TrackPlayers(cmd.Context(), args...); err != nil {
		return fmt.Errorf("track players: %w", err)
	}
	fmt.Printf("tracking %d players\n", len(args))
	return nil
}

// decodeRecords accepts either a single JSON array or a stream of objects.
func decodeRecords(r io.Reader) ([]models.GameRecord, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}

	dec := json.NewDecoder(br)
	if first == '[' {
		var records []models.GameRecord
		if err := dec.Decode(&records); err != nil {
			return nil, fmt.Errorf("decode box scores: %w", err)
		}
		return records, nil
	}

	var records []models.GameRecord
	for {
		var rec models.GameRecord
		err := dec.Decode(&rec)
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("decode box score %d: %w", len(records)+1, err)
		}
		records = append(records, rec)
	}
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}

func playerIDs(records []models.GameRecord) []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, r := range records {
		if _, ok := seen[r.PlayerID]; ok || r.PlayerID == "" {
			continue
		}
		seen[r.PlayerID] = struct{}{}
		ids = append(ids, r.PlayerID)
	}
	sort.Strings(ids)
	return ids
}
