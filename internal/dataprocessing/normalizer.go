package dataprocessing

import (
	"math"
	"strconv"
	"strings"

	"leadpulse/pkg/contracts/domain"
)

// Normalize converts raw string-keyed rows into typed leads.
//
// "Date Generated" is parsed as day/month/year text, "Fit Score" and
// "Experience (Years)" as floating point; empty and non-numeric cells become
// absent fields, never zero. All other columns pass through verbatim. Rows
// where both the date and the fit score end up absent carry no analyzable
// signal and are dropped. Input order is preserved and the input is never
// mutated; malformed cells degrade silently rather than failing the batch.
func Normalize(rows []domain.RawRow) []domain.Lead {
	leads := make([]domain.Lead, 0, len(rows))
	for _, row := range rows {
		lead := normalizeRow(row)
		if lead.DateGenerated == nil && lead.FitScore == nil {
			continue
		}
		leads = append(leads, lead)
	}
	return leads
}

func normalizeRow(row domain.RawRow) domain.Lead {
	lead := domain.Lead{Fields: make(map[string]string, len(row))}
	for name, value := range row {
		switch name {
		case domain.ColumnDateGenerated:
			if d, ok := ParseDayMonthYear(value); ok {
				lead.DateGenerated = &d
			}
		case domain.ColumnFitScore:
			lead.FitScore = parseOptionalFloat(value)
		case domain.ColumnExperienceYears:
			lead.ExperienceYears = parseOptionalFloat(value)
		default:
			lead.Fields[name] = value
		}
	}
	return lead
}

// parseOptionalFloat treats empty and non-numeric text as absent. Only
// finite values are accepted.
func parseOptionalFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
