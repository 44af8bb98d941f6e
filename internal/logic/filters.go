package logic

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/proplab/stats-api/internal/models"
)

const defaultRosterConcurrency = 8

// Predicate decides whether a single game survives filtering.
type Predicate func(models.GameRecord) bool

// HomeAwayPredicate keeps home or away games. Any other venue keeps everything.
func HomeAwayPredicate(venue string) Predicate {
	switch strings.ToLower(strings.TrimSpace(venue)) {
	case models.VenueHome:
		return func(r models.GameRecord) bool { return r.IsHome() }
	case models.VenueAway:
		return func(r models.GameRecord) bool { return !r.IsHome() }
	default:
		return nil
	}
}

// MinMinutesPredicate keeps games with at least min minutes played.
// Unparsable minute strings count as zero.
func MinMinutesPredicate(min float64) Predicate {
	if min <= 0 {
		return nil
	}
	return func(r models.GameRecord) bool { return r.MinutesPlayed() >= min }
}

// OpponentPredicate keeps games against teamID.
func OpponentPredicate(teamID string) Predicate {
	if teamID == "" {
		return nil
	}
	return func(r models.GameRecord) bool { return r.OpponentTeamID() == teamID }
}

// DateRangePredicate keeps games inside the inclusive range.
func DateRangePredicate(dr models.DateRange) Predicate {
	if dr.IsZero() {
		return nil
	}
	return func(r models.GameRecord) bool { return dr.Contains(r.Date) }
}

func predicatesFor(spec models.FilterSpec) []Predicate {
	var out []Predicate
	for _, p := range []Predicate{
		HomeAwayPredicate(spec.HomeAway),
		MinMinutesPredicate(spec.MinMinutes),
		OpponentPredicate(spec.OpponentTeamID),
		DateRangePredicate(spec.DateRange()),
	} {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

// FilterEngine narrows a date-descending game log to the games matching a
// FilterSpec. Order is preserved.
type FilterEngine struct {
	roster      RosterLookup
	concurrency int
}

// NewFilterEngine creates an engine. roster may be nil when teammate
// exclusion is never requested.
func NewFilterEngine(roster RosterLookup, concurrency int) *FilterEngine {
	if concurrency <= 0 {
		concurrency = defaultRosterConcurrency
	}
	return &FilterEngine{roster: roster, concurrency: concurrency}
}

// ApplyFilters is a convenience wrapper around a default FilterEngine.
func ApplyFilters(ctx context.Context, records []models.GameRecord, spec models.FilterSpec, roster RosterLookup) ([]models.GameRecord, error) {
	return NewFilterEngine(roster, 0).Apply(ctx, records, spec)
}

// Apply runs every predicate in spec, then teammate exclusion, then the
// LastN cap. The per-game predicates are AND-combined and commute; LastN is
// always applied last.
func (f *FilterEngine) Apply(ctx context.Context, records []models.GameRecord, spec models.FilterSpec) ([]models.GameRecord, error) {
	preds := predicatesFor(spec)

	out := make([]models.GameRecord, 0, len(records))
	for _, r := range records {
		if matchesAll(r, preds) {
			out = append(out, r)
		}
	}

	if excluded := spec.Teammates(); len(excluded) > 0 && len(out) > 0 {
		var err error
		out, err = f.excludeTeammates(ctx, out, excluded)
		if err != nil {
			return nil, err
		}
	}

	if spec.LastN > 0 && len(out) > spec.LastN {
		out = out[:spec.LastN]
	}
	return out, nil
}

func matchesAll(r models.GameRecord, preds []Predicate) bool {
	for _, p := range preds {
		if !p(r) {
			return false
		}
	}
	return true
}

// excludeTeammates drops games where any excluded id has its own row for the
// same game and team. Roster lookups run concurrently; the first lookup
// error aborts the filter.
func (f *FilterEngine) excludeTeammates(ctx context.Context, records []models.GameRecord, excluded []string) ([]models.GameRecord, error) {
	if f.roster == nil {
		return nil, fmt.Errorf("teammate exclusion requested without a roster lookup")
	}

	excludedSet := make(map[string]struct{}, len(excluded))
	for _, id := range excluded {
		excludedSet[id] = struct{}{}
	}

	keep := make([]bool, len(records))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)

	for i := range records {
		rec := records[i]
		g.Go(func() error {
			rows, err := f.roster.GetGameTeamRoster(gctx, rec.GameID, rec.TeamID)
			if err != nil {
				return fmt.Errorf("roster lookup for game %s: %w", rec.GameID, err)
			}
			keep[i] = !rosterContains(rows, rec.PlayerID, excludedSet)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := records[:0:0]
	for i, r := range records {
		if keep[i] {
			out = append(out, r)
		}
	}
	return out, nil
}

func rosterContains(rows []models.GameRecord, self string, excluded map[string]struct{}) bool {
	for _, row := range rows {
		if row.PlayerID == self {
			continue
		}
		if _, ok := excluded[row.PlayerID]; ok {
			return true
		}
	}
	return false
}
