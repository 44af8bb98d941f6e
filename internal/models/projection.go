package models

import (
	"fmt"
	"sort"
	"strings"
)

// StatField identifies one counting stat on a GameRecord.
type StatField int

const (
	StatPoints StatField = iota
	StatRebounds
	StatOffensiveRebounds
	StatDefensiveRebounds
	StatAssists
	StatSteals
	StatBlocks
	StatTurnovers
	StatFieldGoalsMade
	StatFieldGoalsAttempted
	StatThreesMade
	StatThreesAttempted
	StatFreeThrowsMade
	StatFreeThrowsAttempted
)

// Value reads the field from a record.
func (f StatField) Value(r GameRecord) float64 {
	switch f {
	case StatPoints:
		return float64(r.Points)
	case StatRebounds:
		return float64(r.Rebounds)
	case StatOffensiveRebounds:
		return float64(r.OffensiveRebounds)
	case StatDefensiveRebounds:
		return float64(r.DefensiveRebounds)
	case StatAssists:
		return float64(r.Assists)
	case StatSteals:
		return float64(r.Steals)
	case StatBlocks:
		return float64(r.Blocks)
	case StatTurnovers:
		return float64(r.Turnovers)
	case StatFieldGoalsMade:
		return float64(r.FieldGoalsMade)
	case StatFieldGoalsAttempted:
		return float64(r.FieldGoalsAttempted)
	case StatThreesMade:
		return float64(r.ThreesMade)
	case StatThreesAttempted:
		return float64(r.ThreesAttempted)
	case StatFreeThrowsMade:
		return float64(r.FreeThrowsMade)
	case StatFreeThrowsAttempted:
		return float64(r.FreeThrowsAttempted)
	}
	return 0
}

// ProjectionKind is the shape of a projection: one stat or a sum of stats.
type ProjectionKind string

const (
	ProjectionSingle ProjectionKind = "single"
	ProjectionSum2   ProjectionKind = "sum2"
	ProjectionSum3   ProjectionKind = "sum3"
)

// ProjectionType is a prop market together with the rule that extracts its
// value from a box score. Values only come from the registry below, so an
// unknown key is caught at parse time rather than silently scoring zero.
type ProjectionType struct {
	Key    string         `json:"key"`
	Label  string         `json:"label"`
	Kind   ProjectionKind `json:"kind"`
	Fields []StatField    `json:"-"`
}

func single(key, label string, f StatField) ProjectionType {
	return ProjectionType{Key: key, Label: label, Kind: ProjectionSingle, Fields: []StatField{f}}
}

func sum2(key, label string, a, b StatField) ProjectionType {
	return ProjectionType{Key: key, Label: label, Kind: ProjectionSum2, Fields: []StatField{a, b}}
}

func sum3(key, label string, a, b, c StatField) ProjectionType {
	return ProjectionType{Key: key, Label: label, Kind: ProjectionSum3, Fields: []StatField{a, b, c}}
}

var (
	Points         = single("pts", "Points", StatPoints)
	Rebounds       = single("reb", "Rebounds", StatRebounds)
	Assists        = single("ast", "Assists", StatAssists)
	Steals         = single("stl", "Steals", StatSteals)
	Blocks         = single("blk", "Blocks", StatBlocks)
	Turnovers      = single("tov", "Turnovers", StatTurnovers)
	ThreesMade     = single("fg3m", "3-PT Made", StatThreesMade)
	FieldGoalsMade = single("fgm", "FG Made", StatFieldGoalsMade)
	FieldGoalsAtt  = single("fga", "FG Attempted", StatFieldGoalsAttempted)
	FreeThrowsMade = single("ftm", "FT Made", StatFreeThrowsMade)
	OffRebounds    = single("oreb", "Offensive Rebounds", StatOffensiveRebounds)
	DefRebounds    = single("dreb", "Defensive Rebounds", StatDefensiveRebounds)

	PointsRebounds  = sum2("pts_reb", "Pts+Rebs", StatPoints, StatRebounds)
	PointsAssists   = sum2("pts_ast", "Pts+Asts", StatPoints, StatAssists)
	ReboundsAssists = sum2("reb_ast", "Rebs+Asts", StatRebounds, StatAssists)
	StealsBlocks    = sum2("stl_blk", "Blks+Stls", StatSteals, StatBlocks)

	PointsReboundsAssists = sum3("pts_reb_ast", "Pts+Rebs+Asts", StatPoints, StatRebounds, StatAssists)
)

var projectionRegistry = map[string]ProjectionType{}

func init() {
	for _, p := range []ProjectionType{
		Points, Rebounds, Assists, Steals, Blocks, Turnovers, ThreesMade,
		FieldGoalsMade, FieldGoalsAtt, FreeThrowsMade, OffRebounds, DefRebounds,
		PointsRebounds, PointsAssists, ReboundsAssists, StealsBlocks,
		PointsReboundsAssists,
	} {
		projectionRegistry[p.Key] = p
	}
}

// ParseProjection resolves a projection key such as "pts" or "pts_reb_ast".
func ParseProjection(key string) (ProjectionType, error) {
	p, ok := projectionRegistry[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return ProjectionType{}, fmt.Errorf("%w: %q", ErrInvalidProjectionType, key)
	}
	return p, nil
}

// ProjectionKeys lists every registered key in sorted order.
func ProjectionKeys() []string {
	keys := make([]string, 0, len(projectionRegistry))
	for k := range projectionRegistry {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Extract maps a record to the projection's scalar value.
func Extract(r GameRecord, p ProjectionType) float64 {
	var total float64
	for _, f := range p.Fields {
		total += f.Value(r)
	}
	return total
}
