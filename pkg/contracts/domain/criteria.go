package domain

import (
	"time"
)

// PeriodType selects how the effective date window is derived.
type PeriodType string

const (
	PeriodAll     PeriodType = "all"
	PeriodDaily   PeriodType = "daily"
	PeriodWeekly  PeriodType = "weekly"
	PeriodMonthly PeriodType = "monthly"
)

// Valid reports whether p is one of the four known period types.
func (p PeriodType) Valid() bool {
	switch p {
	case PeriodAll, PeriodDaily, PeriodWeekly, PeriodMonthly:
		return true
	}
	return false
}

// DateWindow is an inclusive calendar-date range. Start is normalized to
// start-of-day and End to end-of-day so that day-granularity comparisons
// against record dates are exact. Invariant: Start <= End at day granularity.
type DateWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ScoreRange is an inclusive numeric constraint on the fit score.
type ScoreRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// StatusAll is the sentinel meaning "no connection-status constraint".
const StatusAll = "All"

// FilterCriteria is the snapshot of active constraints applied to the
// normalized lead set. A nil window or score range, and an empty or "All"
// status, impose no filtering.
type FilterCriteria struct {
	PeriodType       PeriodType  `json:"period_type"`
	Window           *DateWindow `json:"window,omitempty"`
	ConnectionStatus string      `json:"connection_status,omitempty"`
	ScoreRange       *ScoreRange `json:"score_range,omitempty"`
}

// HasStatusConstraint reports whether the status constraint is active.
func (c FilterCriteria) HasStatusConstraint() bool {
	return c.ConnectionStatus != "" && c.ConnectionStatus != StatusAll
}
