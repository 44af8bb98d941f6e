package logic

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proplab/stats-api/internal/models"
)

func filterLog() []models.GameRecord {
	records := pointsLog(10, 20, 30, 40, 50, 60, 70, 80, 90, 100)
	minutes := []string{"32:15", "12:00", "", "28.5", "bad", "40:00", "5:30", "35:00", "31", "22:45"}
	for i := range records {
		records[i].Minutes = minutes[i]
	}
	return records
}

func TestPredicates(t *testing.T) {
	records := filterLog()

	tests := []struct {
		name string
		spec models.FilterSpec
		want []string
	}{
		{"no filters", models.FilterSpec{}, gameIDs(records)},
		{"home", models.FilterSpec{HomeAway: "home"}, []string{"g00", "g02", "g04", "g06", "g08"}},
		{"away upper", models.FilterSpec{HomeAway: "AWAY"}, []string{"g01", "g03", "g05", "g07", "g09"}},
		{"min minutes", models.FilterSpec{MinMinutes: 30}, []string{"g00", "g05", "g07", "g08"}},
		{"opponent", models.FilterSpec{OpponentTeamID: "OPP1"}, []string{"g01", "g04", "g07"}},
		{"date range", models.FilterSpec{
			StartDate: baseDate.AddDate(0, 0, -6),
			EndDate:   baseDate.AddDate(0, 0, -2),
		}, []string{"g01", "g02", "g03"}},
		{"last n", models.FilterSpec{LastN: 3}, []string{"g00", "g01", "g02"}},
		{"last n larger than log", models.FilterSpec{LastN: 50}, gameIDs(records)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ApplyFilters(context.Background(), records, tt.spec, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, gameIDs(got))
		})
	}
}

func TestFilters_Commutative(t *testing.T) {
	records := filterLog()
	preds := []Predicate{
		HomeAwayPredicate(models.VenueHome),
		MinMinutesPredicate(25),
		OpponentPredicate("OPP2"),
		DateRangePredicate(models.DateRange{End: baseDate.AddDate(0, 0, -1)}),
	}

	apply := func(order []int) []string {
		out := records
		for _, i := range order {
			var next []models.GameRecord
			for _, r := range out {
				if preds[i](r) {
					next = append(next, r)
				}
			}
			out = next
		}
		return gameIDs(out)
	}

	want := apply([]int{0, 1, 2, 3})
	for _, order := range permutations([]int{0, 1, 2, 3}) {
		assert.Equal(t, want, apply(order), "order %v", order)
	}

	got, err := ApplyFilters(context.Background(), records, models.FilterSpec{
		HomeAway:       models.VenueHome,
		MinMinutes:     25,
		OpponentTeamID: "OPP2",
		EndDate:        baseDate.AddDate(0, 0, -1),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, want, gameIDs(got))
}

func TestFilters_LastNAppliedLast(t *testing.T) {
	records := filterLog()

	got, err := ApplyFilters(context.Background(), records, models.FilterSpec{HomeAway: models.VenueAway, LastN: 2}, nil)
	require.NoError(t, err)
	// Capping first would keep g00,g01 and then only g01.
	assert.Equal(t, []string{"g01", "g03"}, gameIDs(got))
}

func TestFilters_ExcludedTeammates(t *testing.T) {
	records := pointsLog(10, 20, 30, 40)
	roster := &mockRoster{rosters: map[string][]models.GameRecord{
		"g00/T1": {{PlayerID: "p1"}, {PlayerID: "star"}},
		"g01/T1": {{PlayerID: "p1"}, {PlayerID: "bench"}},
		"g02/T1": {{PlayerID: "p1"}},
		"g03/T1": {{PlayerID: "p1"}, {PlayerID: "star"}, {PlayerID: "bench"}},
	}}

	engine := NewFilterEngine(roster, 2)
	got, err := engine.Apply(context.Background(), records, models.FilterSpec{ExcludedTeammates: []string{"star"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"g01", "g02"}, gameIDs(got))

	got, err = engine.Apply(context.Background(), records, models.FilterSpec{ExcludedTeammates: []string{"bench", "star", "star"}, LastN: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"g02"}, gameIDs(got))
}

func TestFilters_ExcludingSelfIsIgnored(t *testing.T) {
	records := pointsLog(10, 20)
	roster := &mockRoster{rosters: map[string][]models.GameRecord{
		"g00/T1": {{PlayerID: "p1"}},
		"g01/T1": {{PlayerID: "p1"}},
	}}

	got, err := ApplyFilters(context.Background(), records, models.FilterSpec{ExcludedTeammates: []string{"p1"}}, roster)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestFilters_RosterErrorAborts(t *testing.T) {
	boom := errors.New("roster unavailable")
	_, err := ApplyFilters(context.Background(), pointsLog(10, 20), models.FilterSpec{ExcludedTeammates: []string{"x"}}, &mockRoster{err: boom})
	assert.ErrorIs(t, err, boom)

	_, err = ApplyFilters(context.Background(), pointsLog(10), models.FilterSpec{ExcludedTeammates: []string{"x"}}, nil)
	assert.Error(t, err)
}

func permutations(xs []int) [][]int {
	if len(xs) <= 1 {
		return [][]int{append([]int(nil), xs...)}
	}
	var out [][]int
	for i := range xs {
		rest := make([]int, 0, len(xs)-1)
		rest = append(rest, xs[:i]...)
		rest = append(rest, xs[i+1:]...)
		for _, p := range permutations(rest) {
			out = append(out, append([]int{xs[i]}, p...))
		}
	}
	return out
}
