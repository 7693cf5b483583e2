package http

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"leadpulse/internal/dataprocessing"
	apierrors "leadpulse/internal/errors"
	"leadpulse/pkg/contracts/domain"
)

var queryValidator = validator.New()

// criteriaQuery is the raw filter selection from the query string.
type criteriaQuery struct {
	Period   string `validate:"oneof=all daily weekly monthly"`
	Date     string `validate:"omitempty,datetime=2006-01-02"`
	From     string `validate:"omitempty,datetime=2006-01-02"`
	To       string `validate:"omitempty,datetime=2006-01-02"`
	Status   string
	MinScore string `validate:"omitempty,numeric"`
	MaxScore string `validate:"omitempty,numeric"`
	Bins     string `validate:"omitempty,number"`
}

// parseCriteria turns the query string into filter criteria with the date
// window already resolved. Unknown or malformed values produce a
// field-level validation error, never a silent default.
func parseCriteria(r *http.Request) (domain.FilterCriteria, int, error) {
	q := r.URL.Query()
	raw := criteriaQuery{
		Period:   q.Get("period"),
		Date:     q.Get("date"),
		From:     q.Get("from"),
		To:       q.Get("to"),
		Status:   q.Get("status"),
		MinScore: q.Get("min_score"),
		MaxScore: q.Get("max_score"),
		Bins:     q.Get("bins"),
	}
	if raw.Period == "" {
		raw.Period = string(domain.PeriodAll)
	}
	if raw.Status == "" {
		raw.Status = domain.StatusAll
	}

	if err := queryValidator.Struct(raw); err != nil {
		if invalid, ok := err.(validator.ValidationErrors); ok && len(invalid) > 0 {
			first := invalid[0]
			return domain.FilterCriteria{}, 0, apierrors.ErrValidation(first.Field(),
				fmt.Sprintf("invalid value %q", first.Value()))
		}
		return domain.FilterCriteria{}, 0, apierrors.ErrInvalidRequest
	}

	anchor := time.Now()
	if raw.Date != "" {
		anchor, _ = time.ParseInLocation("2006-01-02", raw.Date, time.Local)
	}

	var explicit *domain.DateWindow
	switch {
	case raw.From != "" && raw.To != "":
		from, _ := time.ParseInLocation("2006-01-02", raw.From, time.Local)
		to, _ := time.ParseInLocation("2006-01-02", raw.To, time.Local)
		if to.Before(from) {
			return domain.FilterCriteria{}, 0, apierrors.ErrValidation("to", "range end precedes range start")
		}
		explicit = &domain.DateWindow{Start: from, End: to}
	case raw.From != "" || raw.To != "":
		return domain.FilterCriteria{}, 0, apierrors.ErrValidation("from", "from and to must be supplied together")
	}

	var scoreRange *domain.ScoreRange
	switch {
	case raw.MinScore != "" && raw.MaxScore != "":
		min, _ := strconv.ParseFloat(raw.MinScore, 64)
		max, _ := strconv.ParseFloat(raw.MaxScore, 64)
		if max < min {
			return domain.FilterCriteria{}, 0, apierrors.ErrValidation("max_score", "upper bound below lower bound")
		}
		scoreRange = &domain.ScoreRange{Min: min, Max: max}
	case raw.MinScore != "" || raw.MaxScore != "":
		return domain.FilterCriteria{}, 0, apierrors.ErrValidation("min_score", "min_score and max_score must be supplied together")
	}

	bins := 0
	if raw.Bins != "" {
		bins, _ = strconv.Atoi(raw.Bins)
		if bins < 0 {
			return domain.FilterCriteria{}, 0, apierrors.ErrValidation("bins", "bin count cannot be negative")
		}
	}

	period := domain.PeriodType(raw.Period)
	criteria := domain.FilterCriteria{
		PeriodType:       period,
		Window:           dataprocessing.ResolveWindow(period, anchor, explicit),
		ConnectionStatus: raw.Status,
		ScoreRange:       scoreRange,
	}
	return criteria, bins, nil
}
