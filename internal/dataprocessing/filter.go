package dataprocessing

import (
	"time"

	"leadpulse/pkg/contracts/domain"
)

// ResolveWindow derives the effective date window for a period selection.
//
//   - PeriodAll: the explicit range is passed through as-is (may be nil).
//   - PeriodDaily: the anchor day, start-of-day to end-of-day.
//   - PeriodWeekly: the ISO week containing the anchor, Monday start-of-day
//     to Sunday end-of-day. A Sunday anchor counts as day 7 of the preceding
//     week, so the week ends on it rather than starting with it.
//   - PeriodMonthly: the anchor's calendar month, first day to last day,
//     month length and leap years accounted for.
func ResolveWindow(period domain.PeriodType, anchor time.Time, explicit *domain.DateWindow) *domain.DateWindow {
	switch period {
	case domain.PeriodDaily:
		if anchor.IsZero() {
			return nil
		}
		return &domain.DateWindow{Start: StartOfDay(anchor), End: EndOfDay(anchor)}

	case domain.PeriodWeekly:
		if anchor.IsZero() {
			return nil
		}
		weekday := int(anchor.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		monday := StartOfDay(anchor.AddDate(0, 0, -(weekday - 1)))
		return &domain.DateWindow{Start: monday, End: EndOfDay(monday.AddDate(0, 0, 6))}

	case domain.PeriodMonthly:
		if anchor.IsZero() {
			return nil
		}
		first := time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, anchor.Location())
		last := first.AddDate(0, 1, -1)
		return &domain.DateWindow{Start: first, End: EndOfDay(last)}

	default:
		if explicit == nil {
			return nil
		}
		return &domain.DateWindow{Start: StartOfDay(explicit.Start), End: EndOfDay(explicit.End)}
	}
}

// Apply returns the leads satisfying every active constraint of the
// criteria. Absent constraints filter nothing. The input slice is not
// mutated and output order matches input order, which also makes Apply
// idempotent: re-applying the same criteria to its own output is a no-op.
func Apply(leads []domain.Lead, criteria domain.FilterCriteria) []domain.Lead {
	out := make([]domain.Lead, 0, len(leads))
	for _, lead := range leads {
		if matches(lead, criteria) {
			out = append(out, lead)
		}
	}
	return out
}

func matches(lead domain.Lead, criteria domain.FilterCriteria) bool {
	if w := criteria.Window; w != nil {
		if lead.DateGenerated == nil {
			return false
		}
		d := *lead.DateGenerated
		if CompareDays(d, w.Start) < 0 || CompareDays(d, w.End) > 0 {
			return false
		}
	}

	if criteria.HasStatusConstraint() && lead.ConnectionStatus() != criteria.ConnectionStatus {
		return false
	}

	if r := criteria.ScoreRange; r != nil {
		if lead.FitScore == nil {
			return false
		}
		if *lead.FitScore < r.Min || *lead.FitScore > r.Max {
			return false
		}
	}
	return true
}
