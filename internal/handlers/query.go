package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/proplab/stats-api/internal/logic"
	"github.com/proplab/stats-api/internal/models"
)

const dateLayout = "2006-01-02"

// analysisQuery is the raw query string of the analysis and outcomes endpoints.
type analysisQuery struct {
	Projection string   `validate:"required,max=32"`
	Line       string   `validate:"required,numeric"`
	HomeAway   string   `validate:"omitempty,oneof=home away"`
	MinMinutes string   `validate:"omitempty,numeric"`
	LastN      string   `validate:"omitempty,number"`
	Opponent   string   `validate:"omitempty,max=32"`
	From       string   `validate:"omitempty,datetime=2006-01-02"`
	To         string   `validate:"omitempty,datetime=2006-01-02"`
	Exclude    []string `validate:"max=15,dive,required,max=32"`
}

type advancedQuery struct {
	Projection string `validate:"required,max=32"`
	Season     string `validate:"omitempty,max=16"`
}

func readAnalysisQuery(r *http.Request) analysisQuery {
	q := r.URL.Query()
	return analysisQuery{
		Projection: q.Get("projection"),
		Line:       q.Get("line"),
		HomeAway:   strings.ToLower(q.Get("home_away")),
		MinMinutes: q.Get("min_minutes"),
		LastN:      q.Get("last_n"),
		Opponent:   q.Get("opponent"),
		From:       q.Get("from"),
		To:         q.Get("to"),
		Exclude:    splitList(q["exclude"]),
	}
}

// splitList accepts both repeated parameters and comma-separated values.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// parseAnalysisRequest validates the query and builds the service request.
func (h *Handler) parseAnalysisRequest(r *http.Request, playerID string) (logic.AnalysisRequest, error) {
	raw := readAnalysisQuery(r)
	if err := h.validator.Struct(raw); err != nil {
		return logic.AnalysisRequest{}, validationError(err)
	}

	line, err := strconv.ParseFloat(raw.Line, 64)
	if err != nil {
		return logic.AnalysisRequest{}, fmt.Errorf("invalid line %q", raw.Line)
	}
	filters := models.FilterSpec{
		HomeAway:          raw.HomeAway,
		OpponentTeamID:    strings.ToUpper(raw.Opponent),
		ExcludedTeammates: raw.Exclude,
	}
	if raw.MinMinutes != "" {
		if filters.MinMinutes, err = strconv.ParseFloat(raw.MinMinutes, 64); err != nil || filters.MinMinutes < 0 {
			return logic.AnalysisRequest{}, fmt.Errorf("invalid min_minutes %q", raw.MinMinutes)
		}
	}
	if raw.LastN != "" {
		if filters.LastN, err = strconv.Atoi(raw.LastN); err != nil || filters.LastN < 0 {
			return logic.AnalysisRequest{}, fmt.Errorf("invalid last_n %q", raw.LastN)
		}
	}
	if raw.From != "" {
		filters.StartDate, _ = time.Parse(dateLayout, raw.From)
	}
	if raw.To != "" {
		filters.EndDate, _ = time.Parse(dateLayout, raw.To)
	}
	if !filters.StartDate.IsZero() && !filters.EndDate.IsZero() && filters.EndDate.Before(filters.StartDate) {
		return logic.AnalysisRequest{}, errors.New("to must not be before from")
	}

	return logic.AnalysisRequest{
		PlayerID:   playerID,
		Projection: raw.Projection,
		Line:       line,
		Filters:    filters,
	}, nil
}

func (h *Handler) parseAdvancedRequest(r *http.Request, playerID string) (logic.AdvancedRequest, error) {
	raw := advancedQuery{
		Projection: r.URL.Query().Get("projection"),
		Season:     r.URL.Query().Get("season"),
	}
	if err := h.validator.Struct(raw); err != nil {
		return logic.AdvancedRequest{}, validationError(err)
	}
	return logic.AdvancedRequest{PlayerID: playerID, Projection: raw.Projection, Season: raw.Season}, nil
}

// validationError turns validator output into a message naming the offending parameters.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s", queryName(fe.Field()), fe.Tag()))
	}
	return errors.New("invalid query: " + strings.Join(msgs, "; "))
}

func queryName(field string) string {
	switch {
	case field == "HomeAway":
		return "home_away"
	case field == "MinMinutes":
		return "min_minutes"
	case field == "LastN":
		return "last_n"
	case strings.HasPrefix(field, "Exclude"):
		return "exclude"
	}
	return strings.ToLower(field)
}
