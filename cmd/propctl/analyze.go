package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/proplab/stats-api/internal/logic"
	"github.com/proplab/stats-api/internal/models"
	"github.com/proplab/stats-api/internal/report"
)

// filterFlags holds the filter options shared by analyze and outcomes.
type filterFlags struct {
	projection string
	line       float64
	homeAway   string
	minMinutes float64
	lastN      int
	opponent   string
	from       string
	to         string
	exclude    []string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.projection, "projection", "p", "pts", "projection key (see `propctl projections`)")
	cmd.Flags().Float64VarP(&f.line, "line", "l", 0, "betting line")
	cmd.Flags().StringVar(&f.homeAway, "home-away", "", "restrict to home or away games")
	cmd.Flags().Float64Var(&f.minMinutes, "min-minutes", 0, "minimum minutes played")
	cmd.Flags().IntVar(&f.lastN, "last-n", 0, "most recent N qualifying games")
	cmd.Flags().StringVar(&f.opponent, "opponent", "", "opponent team ID")
	cmd.Flags().StringVar(&f.from, "from", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.to, "to", "", "end date (YYYY-MM-DD)")
	cmd.Flags().StringSliceVar(&f.exclude, "exclude", nil, "teammates who must not have played")
	cmd.MarkFlagRequired("line")
}

func (f *filterFlags) request(playerID string) (logic.AnalysisRequest, error) {
	spec := models.FilterSpec{
		HomeAway:          strings.ToLower(f.homeAway),
		MinMinutes:        f.minMinutes,
		LastN:             f.lastN,
		OpponentTeamID:    strings.ToUpper(f.opponent),
		ExcludedTeammates: f.exclude,
	}
	switch spec.HomeAway {
	case "", models.VenueHome, models.VenueAway:
	default:
		return logic.AnalysisRequest{}, fmt.Errorf("--home-away must be home or away, got %q", f.homeAway)
	}
	if f.lastN < 0 || f.minMinutes < 0 {
		return logic.AnalysisRequest{}, fmt.Errorf("--last-n and --min-minutes must not be negative")
	}

	var err error
	if f.from != "" {
		if spec.StartDate, err = time.Parse("2006-01-02", f.from); err != nil {
			return logic.AnalysisRequest{}, fmt.Errorf("invalid --from: %w", err)
		}
	}
	if f.to != "" {
		if spec.EndDate, err = time.Parse("2006-01-02", f.to); err != nil {
			return logic.AnalysisRequest{}, fmt.Errorf("invalid --to: %w", err)
		}
	}

	return logic.AnalysisRequest{
		PlayerID:   playerID,
		Projection: f.projection,
		Line:       f.line,
		Filters:    spec,
	}, nil
}

var (
	analyzeFlags  filterFlags
	outcomesFlags filterFlags
	advProjection string
	advSeason     string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <player-id>",
	Short: "Hit rate, recent form and home/away split against a line",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

var outcomesCmd = &cobra.Command{
	Use:   "outcomes <player-id>",
	Short: "Per-game over/under results, oldest first",
	Args:  cobra.ExactArgs(1),
	RunE:  runOutcomes,
}

var advancedCmd = &cobra.Command{
	Use:   "advanced <player-id>",
	Short: "Consistency, streak and momentum metrics for a season",
	Args:  cobra.ExactArgs(1),
	RunE:  runAdvanced,
}

var projectionsCmd = &cobra.Command{
	Use:   "projections",
	Short: "List supported projection keys",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, k := range models.ProjectionKeys() {
			fmt.Println(k)
		}
	},
}

func init() {
	analyzeFlags.register(analyzeCmd)
	outcomesFlags.register(outcomesCmd)

	advancedCmd.Flags().StringVarP(&advProjection, "projection", "p", "pts", "projection key")
	advancedCmd.Flags().StringVar(&advSeason, "season", "", "season label, e.g. 2024-25 (default all games)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	req, err := analyzeFlags.request(args[0])
	if err != nil {
		return err
	}
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	result, err := e.analytics.Analyze(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}
	if asJSON {
		return printJSON(result)
	}
	report.PrintAnalysis(os.Stdout, result)
	return nil
}

func runOutcomes(cmd *cobra.Command, args []string) error {
	req, err := outcomesFlags.request(args[0])
	if err != nil {
		return err
	}
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	outcomes, err := e.analytics.GameOutcomes(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("outcomes: %w", err)
	}
	if asJSON {
		return printJSON(outcomes)
	}
	report.PrintOutcomes(os.Stdout, outcomes)
	return nil
}

func runAdvanced(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	metrics, err := e.analytics.AdvancedMetrics(cmd.Context(), logic.AdvancedRequest{
		PlayerID:   args[0],
		Projection: advProjection,
		Season:     advSeason,
	})
	if err != nil {
		return fmt.Errorf("advanced: %w", err)
	}
	if asJSON {
		return printJSON(metrics)
	}
	report.PrintAdvanced(os.Stdout, metrics)
	return nil
}
