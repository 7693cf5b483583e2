package exporter

import (
	"sort"
	"strconv"

	"leadpulse/internal/dataprocessing"
	"leadpulse/pkg/contracts/domain"
)

// FlatTable is the tabular projection every export format shares: one row
// per lead, one column per key seen anywhere in the set.
type FlatTable struct {
	Columns []string
	Rows    [][]string
}

// Flatten projects leads back into text cells. The column set is the union
// of keys across all leads; preferredOrder (usually the source header row)
// fixes the ordering of known columns, any extras follow sorted. Missing
// values render as "".
func Flatten(leads []domain.Lead, preferredOrder []string) FlatTable {
	present := make(map[string]bool)
	for _, lead := range leads {
		if lead.DateGenerated != nil {
			present[domain.ColumnDateGenerated] = true
		}
		if lead.FitScore != nil {
			present[domain.ColumnFitScore] = true
		}
		if lead.ExperienceYears != nil {
			present[domain.ColumnExperienceYears] = true
		}
		for key := range lead.Fields {
			present[key] = true
		}
	}

	columns := make([]string, 0, len(present))
	seen := make(map[string]bool, len(present))
	for _, name := range preferredOrder {
		if present[name] && !seen[name] {
			columns = append(columns, name)
			seen[name] = true
		}
	}
	var extras []string
	for name := range present {
		if !seen[name] {
			extras = append(extras, name)
		}
	}
	sort.Strings(extras)
	columns = append(columns, extras...)

	rows := make([][]string, 0, len(leads))
	for _, lead := range leads {
		row := make([]string, len(columns))
		for i, column := range columns {
			row[i] = cellValue(lead, column)
		}
		rows = append(rows, row)
	}
	return FlatTable{Columns: columns, Rows: rows}
}

func cellValue(lead domain.Lead, column string) string {
	switch column {
	case domain.ColumnDateGenerated:
		if lead.DateGenerated == nil {
			return ""
		}
		return dataprocessing.FormatDayMonthYear(*lead.DateGenerated)
	case domain.ColumnFitScore:
		return formatOptionalFloat(lead.FitScore)
	case domain.ColumnExperienceYears:
		return formatOptionalFloat(lead.ExperienceYears)
	default:
		return lead.Fields[column]
	}
}

func formatOptionalFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}
