package domain

// CategoryCount is one row of a grouped count table.
type CategoryCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// TrendPoint is one day of a time-bucketed multi-series count table.
// Date is a sortable YYYY-MM-DD key, so lexicographic order is
// chronological order.
type TrendPoint struct {
	Date   string         `json:"date"`
	Counts map[string]int `json:"counts"`
}

// HistogramBin is one bin of a uniform-width histogram.
type HistogramBin struct {
	Range string  `json:"range"`
	Mid   float64 `json:"mid"`
	Count int     `json:"count"`
}

// QuartileSummary is the five-number summary backing a box plot.
// Q1 and Q3 use nearest-rank indices while Median uses the even/odd
// averaging rule; the mismatch is intentional and preserved from the
// dashboard's observed behavior.
type QuartileSummary struct {
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
}

// ScoreStats summarizes a numeric column. StdDev is the population
// standard deviation.
type ScoreStats struct {
	Mean   float64 `json:"mean"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
}

// KPISummary holds the dashboard's headline counts over a filtered lead set.
type KPISummary struct {
	TotalRecords      int `json:"total_records"`
	TotalWithFitScore int `json:"total_with_fit_score"`
	Invited           int `json:"invited"`
	Accepted          int `json:"accepted"`
	PendingLeads      int `json:"pending_leads"`
}
