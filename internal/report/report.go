// Package report renders analytics results as terminal tables.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/proplab/stats-api/internal/models"
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

func pct(rate float64) string {
	return fmt.Sprintf("%.1f%%", rate*100)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// windowRow renders a window as games / hit rate / average, with a dash for empty windows.
func windowRow(label string, s models.WindowStats) []any {
	if s.Games == 0 {
		return []any{label, "0", "—", "—"}
	}
	return []any{label, strconv.Itoa(s.Games), pct(s.HitRate), num(s.Average)}
}

// PrintAnalysis prints a one-line header followed by the window breakdown.
func PrintAnalysis(w io.Writer, r *models.AnalysisResult) {
	fmt.Fprintf(w, "\nPlayer: %s  |  Projection: %s  |  Line: %s\n\n", r.PlayerID, r.Projection, num(r.Line))
	if r.NoDataAvailable {
		fmt.Fprintln(w, "no games match the filters")
		return
	}

	table := newTable(w)
	table.Header("WINDOW", "GAMES", "HIT%", "AVG")
	table.Append(windowRow("all", models.WindowStats{Games: r.TotalGames, HitRate: r.HitRate, Average: r.Average})...)
	table.Append(windowRow("last 5", r.RecentForm.Last5)...)
	table.Append(windowRow("last 10", r.RecentForm.Last10)...)
	table.Append(windowRow("last 20", r.RecentForm.Last20)...)
	table.Append(windowRow("home", r.HomeAwaySplit.Home)...)
	table.Append(windowRow("away", r.HomeAwaySplit.Away)...)
	table.Render()

	fmt.Fprintf(w, "\nover %d / under %d\n", r.OverCount, r.UnderCount)
}

// PrintOutcomes prints the per-game chart data, oldest first.
func PrintOutcomes(w io.Writer, outcomes []models.GameOutcome) {
	if len(outcomes) == 0 {
		fmt.Fprintln(w, "no games match the filters")
		return
	}

	table := newTable(w)
	table.Header("DATE", "GAME", "VS", "H/A", "VALUE", "LINE", "RESULT", "MARGIN")
	for _, o := range outcomes {
		venue := "A"
		if o.IsHome {
			venue = "H"
		}
		result := "under"
		if o.Over {
			result = "OVER"
		}
		table.Append(
			o.Date.Format("2006-01-02"),
			o.GameID,
			o.OpponentTeamID,
			venue,
			num(o.Value),
			num(o.Line),
			result,
			fmt.Sprintf("%+.2f", o.Margin),
		)
	}
	table.Render()
}

// PrintAdvanced prints consistency and momentum metrics as a two-column table.
func PrintAdvanced(w io.Writer, m *models.AdvancedMetrics) {
	season := m.Season
	if season == "" {
		season = "all"
	}
	fmt.Fprintf(w, "\nPlayer: %s  |  Projection: %s  |  Season: %s\n\n", m.PlayerID, m.Projection, season)

	form := "neutral"
	switch {
	case m.HotStreak:
		form = "hot"
	case m.ColdStreak:
		form = "cold"
	}

	table := newTable(w)
	table.Header("METRIC", "VALUE")
	table.Append("games", strconv.Itoa(m.GamesAnalyzed))
	table.Append("average", num(m.Average))
	table.Append("std dev", num(m.StandardDeviation))
	table.Append("coeff. of variation", num(m.CoefficientOfVariation))
	table.Append("current streak", fmt.Sprintf("%d %s", m.CurrentStreak.Count, m.CurrentStreak.Direction))
	table.Append("longest over", strconv.Itoa(m.LongestOverStreak))
	table.Append("longest under", strconv.Itoa(m.LongestUnderStreak))
	table.Append("last 5 trend", fmt.Sprintf("%+.3f", m.Last5Trend))
	table.Append("last 10 trend", fmt.Sprintf("%+.3f", m.Last10Trend))
	table.Append("momentum", fmt.Sprintf("%+.2f", m.Momentum))
	table.Append("form", form)
	table.Render()
}

// PrintSplits prints one row per (projection, window) with the hit rate at each canonical line.
func PrintSplits(w io.Writer, splits []models.RollingSplit) {
	if len(splits) == 0 {
		fmt.Fprintln(w, "no rolling splits stored")
		return
	}

	table := newTable(w)
	table.Header("PROJ", "WINDOW", "GAMES", "AVG", "HIT RATES")
	for _, s := range splits {
		rates := ""
		for i, hr := range s.HitRates {
			if i > 0 {
				rates += "  "
			}
			rates += fmt.Sprintf("%s@%s", pct(hr.HitRate), strconv.FormatFloat(hr.Line, 'f', -1, 64))
		}
		table.Append(s.Projection, strconv.Itoa(s.Window), strconv.Itoa(s.Games), num(s.Average), rates)
	}
	table.Render()

	fmt.Fprintf(w, "\ncomputed %s\n", splits[0].ComputedAt.Format("2006-01-02 15:04 MST"))
}
