package cache

import (
	"strconv"
	"strings"

	"github.com/proplab/stats-api/internal/models"
)

// Key prefixes. Invalidation patterns are built from these, e.g.
// "analysis:203999:*" drops every cached analysis for one player.
const (
	PrefixAnalysis = "analysis"
	PrefixOutcomes = "outcomes"
	PrefixAdvanced = "advanced"
	PrefixRecords  = "records"
	PrefixRoster   = "roster"
	PrefixSplits   = "splits"
)

func buildKey(elements ...string) string {
	return strings.Join(elements, ":")
}

func formatLine(line float64) string {
	return strconv.FormatFloat(line, 'g', -1, 64)
}

// AnalysisKey identifies one Analyze call.
func AnalysisKey(playerID, projection string, line float64, spec models.FilterSpec) string {
	return buildKey(PrefixAnalysis, playerID, projection, formatLine(line), spec.CacheKey())
}

// OutcomesKey identifies one GameOutcomes call.
func OutcomesKey(playerID, projection string, line float64, spec models.FilterSpec) string {
	return buildKey(PrefixOutcomes, playerID, projection, formatLine(line), spec.CacheKey())
}

// AdvancedKey identifies one AdvancedMetrics call.
func AdvancedKey(playerID, projection, season string) string {
	return buildKey(PrefixAdvanced, playerID, projection, season)
}

// RecordsKey identifies a raw game-log read.
func RecordsKey(playerID string, r models.DateRange) string {
	spec := models.FilterSpec{StartDate: r.Start, EndDate: r.End}
	return buildKey(PrefixRecords, playerID, spec.CacheKey())
}

// RosterKey identifies a game+team roster read.
func RosterKey(gameID, teamID string) string {
	return buildKey(PrefixRoster, gameID, teamID)
}

// SplitsKey identifies a rolling-splits read.
func SplitsKey(playerID string) string {
	return buildKey(PrefixSplits, playerID)
}

// globEscaper quotes the metacharacters shared by path.Match and redis MATCH.
var globEscaper = strings.NewReplacer(`\`, `\\`, "*", `\*`, "?", `\?`, "[", `\[`, "]", `\]`)

// EscapePattern returns a pattern that matches s literally.
func EscapePattern(s string) string {
	return globEscaper.Replace(s)
}

// PlayerPattern matches every key of one kind for a player. The id is
// matched literally.
func PlayerPattern(prefix, playerID string) string {
	return buildKey(prefix, EscapePattern(playerID), "*")
}
