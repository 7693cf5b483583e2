package domain

import (
	"time"
)

// Well-known spreadsheet column names. The column set itself is dynamic and
// determined by the sheet's header row; these are the columns the dashboard
// attaches typed meaning to.
const (
	ColumnDateGenerated    = "Date Generated"
	ColumnFitScore         = "Fit Score"
	ColumnExperienceYears  = "Experience (Years)"
	ColumnConnectionStatus = "Connection Status"
	ColumnCurrentEmployer  = "Current Employer"
	ColumnLocation         = "Location"
)

// Connection status values with KPI semantics.
const (
	StatusPending     = "Pending"
	StatusReadyToSend = "Ready to send"
	StatusSent        = "Sent"
	StatusAccepted    = "ACCEPTED"
)

// RawRow is one spreadsheet row as delivered by the data source: header name
// to cell text. Short rows are padded with empty strings by the source.
type RawRow map[string]string

// Lead is the normalized representation of one spreadsheet row.
//
// Fields carries every column verbatim except the three typed ones below.
// The typed fields are nil when the raw cell was absent, empty or
// unparseable; that is a policy (malformed cells carry no signal), not an
// error condition.
type Lead struct {
	Fields          map[string]string `json:"fields"`
	DateGenerated   *time.Time        `json:"date_generated,omitempty"`
	FitScore        *float64          `json:"fit_score,omitempty"`
	ExperienceYears *float64          `json:"experience_years,omitempty"`
}

// Field returns the raw value of a pass-through column, or "" when absent.
func (l Lead) Field(name string) string {
	return l.Fields[name]
}

// ConnectionStatus returns the lead's connection status column value.
func (l Lead) ConnectionStatus() string {
	return l.Fields[ColumnConnectionStatus]
}

// HasDate reports whether the lead carries a parsed generation date.
func (l Lead) HasDate() bool {
	return l.DateGenerated != nil
}

// HasFitScore reports whether the lead carries a parsed fit score.
func (l Lead) HasFitScore() bool {
	return l.FitScore != nil
}
