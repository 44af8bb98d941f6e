package models

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"
)

// gameRecordFieldMap caches JSON tag -> struct field index mappings
var (
	gameRecordFieldMap     map[string]int
	gameRecordFieldMapOnce sync.Once
)

var timeType = reflect.TypeOf(time.Time{})

func getGameRecordFieldMap() map[string]int {
	gameRecordFieldMapOnce.Do(func() {
		t := reflect.TypeOf(GameRecord{})
		gameRecordFieldMap = make(map[string]int, t.NumField())
		for i := 0; i < t.NumField(); i++ {
			tag := t.Field(i).Tag.Get("json")
			if tag == "" || tag == "-" {
				continue
			}
			name := strings.Split(tag, ",")[0]
			gameRecordFieldMap[name] = i
		}
	})
	return gameRecordFieldMap
}

// providerAliases maps the abbreviated keys box-score feeds use onto
// GameRecord's JSON names. Keys are matched lower-cased.
var providerAliases = map[string]string{
	"game_date":         "date",
	"team_abbreviation": "team_id",
	"team":              "team_id",
	"home_team":         "home_team_id",
	"away_team":         "away_team_id",
	"min":               "minutes",
	"pts":               "points",
	"reb":               "rebounds",
	"oreb":              "offensive_rebounds",
	"dreb":              "defensive_rebounds",
	"ast":               "assists",
	"stl":               "steals",
	"blk":               "blocks",
	"tov":               "turnovers",
	"to":                "turnovers",
	"fgm":               "field_goals_made",
	"fga":               "field_goals_attempted",
	"fg3m":              "threes_made",
	"fg3a":              "threes_attempted",
	"ftm":               "free_throws_made",
	"fta":               "free_throws_attempted",
}

// canonicalKey resolves a payload key to a GameRecord JSON name.
func canonicalKey(key string) string {
	k := strings.ToLower(key)
	if alias, ok := providerAliases[k]; ok {
		return alias
	}
	return k
}

// UnmarshalJSON accepts both native JSON types and the loosely typed payloads
// box-score providers emit: counting stats as quoted strings ("28"), minutes
// as a bare number, dates as plain "2006-01-02" and upper-case abbreviated
// keys ("PTS", "TEAM_ABBREVIATION").
func (r *GameRecord) UnmarshalJSON(data []byte) error {
	// Alias prevents infinite recursion
	type Alias GameRecord
	a := (*Alias)(r)

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("flex unmarshal: %w", err)
	}

	fieldMap := getGameRecordFieldMap()
	native := true
	for key := range raw {
		if _, ok := fieldMap[key]; !ok {
			native = false
			break
		}
	}
	if native {
		if err := json.Unmarshal(data, a); err == nil {
			return nil
		}
	}

	v := reflect.ValueOf(a).Elem()
	for key, rawVal := range raw {
		idx, ok := fieldMap[canonicalKey(key)]
		if !ok {
			continue
		}

		fv := v.Field(idx)
		if !fv.CanSet() {
			continue
		}

		ptr := reflect.New(fv.Type())
		if err := json.Unmarshal(rawVal, ptr.Interface()); err == nil {
			fv.Set(ptr.Elem())
			continue
		}

		text := string(rawVal)
		if len(rawVal) > 1 && rawVal[0] == '"' {
			if err := json.Unmarshal(rawVal, &text); err != nil {
				continue
			}
		}
		if text == "" || text == "null" {
			continue
		}
		coerceStringToField(fv, text)
	}

	return nil
}

// coerceStringToField converts a string value to the field's native type.
func coerceStringToField(fv reflect.Value, s string) {
	if fv.Type() == timeType {
		for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, s); err == nil {
				fv.Set(reflect.ValueOf(t))
				return
			}
		}
		return
	}

	switch fv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		// "28.0" truncates to 28
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			fv.SetInt(int64(n))
		}
	case reflect.Float32, reflect.Float64:
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			fv.SetFloat(n)
		}
	case reflect.Bool:
		if b, err := strconv.ParseBool(s); err == nil {
			fv.SetBool(b)
		}
	case reflect.String:
		fv.SetString(s)
	}
}
