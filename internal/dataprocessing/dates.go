package dataprocessing

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// dayMonthYearPattern matches the sheet's textual date form: D/M/YYYY with
// optional zero padding, e.g. "5/3/2024" or "05/03/2024".
var dayMonthYearPattern = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)

// fallbackLayouts are tried in order when the day/month/year pattern does
// not match. They cover the formats the sheet has been observed to contain.
var fallbackLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	time.RFC3339,
	"2 January 2006",
	"January 2, 2006",
}

// ParseDayMonthYear parses the sheet's date text. The D/M/YYYY form is
// constructed directly from the three integer components so the result never
// depends on host locale; a pattern match that is not a real calendar date
// (e.g. 31/02/2024) yields ok=false rather than rolling over into the next
// month. Absence of a valid date is always signaled by ok=false, never by a
// panic or error.
func ParseDayMonthYear(text string) (time.Time, bool) {
	s := strings.TrimSpace(text)
	if s == "" {
		return time.Time{}, false
	}

	if m := dayMonthYearPattern.FindStringSubmatch(s); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])

		d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local)
		if d.Year() != year || d.Month() != time.Month(month) || d.Day() != day {
			return time.Time{}, false
		}
		return d, true
	}

	for _, layout := range fallbackLayouts {
		if d, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

// FormatDayMonthYear renders a date as zero-padded DD/MM/YYYY, the display
// form used across the dashboard. The zero time renders as "".
func FormatDayMonthYear(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02/01/2006")
}

// DayKey renders a date as zero-padded YYYY-MM-DD. Day-level trend series
// group and sort on this key, so lexicographic order is chronological order.
func DayKey(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

// CompareDays compares two dates at day granularity, ignoring time of day.
// Returns -1, 0 or 1.
func CompareDays(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	switch {
	case ay != by:
		if ay < by {
			return -1
		}
		return 1
	case am != bm:
		if am < bm {
			return -1
		}
		return 1
	case ad != bd:
		if ad < bd {
			return -1
		}
		return 1
	}
	return 0
}

// StartOfDay truncates a date to local midnight.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last representable instant of the date's day.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}
