package models

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// HomeAway values accepted by FilterSpec.
const (
	VenueHome = "home"
	VenueAway = "away"
)

// FilterSpec holds the optional predicates applied to a player's game log.
// All predicates are AND-combined; LastN caps the result after the others.
type FilterSpec struct {
	HomeAway          string    `json:"home_away,omitempty"`
	MinMinutes        float64   `json:"min_minutes,omitempty"`
	LastN             int       `json:"last_n,omitempty"`
	OpponentTeamID    string    `json:"opponent_team_id,omitempty"`
	StartDate         time.Time `json:"start_date,omitempty"`
	EndDate           time.Time `json:"end_date,omitempty"`
	ExcludedTeammates []string  `json:"excluded_teammates,omitempty"`
}

// DateRange returns the filter's date bounds.
func (f FilterSpec) DateRange() DateRange {
	return DateRange{Start: f.StartDate, End: f.EndDate}
}

// Teammates returns the excluded teammate ids sorted and de-duplicated.
func (f FilterSpec) Teammates() []string {
	if len(f.ExcludedTeammates) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(f.ExcludedTeammates))
	out := make([]string, 0, len(f.ExcludedTeammates))
	for _, id := range f.ExcludedTeammates {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// CacheKey serializes every field in a fixed order. Equal specs produce equal
// keys regardless of teammate ordering; any differing field changes the key.
func (f FilterSpec) CacheKey() string {
	var b strings.Builder
	b.WriteString("ha=")
	b.WriteString(strings.ToLower(f.HomeAway))
	b.WriteString("|min=")
	b.WriteString(strconv.FormatFloat(f.MinMinutes, 'g', -1, 64))
	b.WriteString("|last=")
	b.WriteString(strconv.Itoa(f.LastN))
	b.WriteString("|opp=")
	b.WriteString(strconv.Quote(f.OpponentTeamID))
	b.WriteString("|from=")
	b.WriteString(formatDay(f.StartDate))
	b.WriteString("|to=")
	b.WriteString(formatDay(f.EndDate))
	b.WriteString("|ex=")
	for i, id := range f.Teammates() {
		if i > 0 {
			b.WriteByte(',')
		}
		// Quoted so ids containing the separator stay distinct.
		b.WriteString(strconv.Quote(id))
	}
	return b.String()
}

func formatDay(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}
