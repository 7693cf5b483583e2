package dataprocessing

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadpulse/pkg/contracts/domain"
)

func fieldLead(field, value string) domain.Lead {
	score := 1.0
	return domain.Lead{Fields: map[string]string{field: value}, FitScore: &score}
}

func TestCountByCategory(t *testing.T) {
	leads := []domain.Lead{
		fieldLead("Location", "Berlin"),
		fieldLead("Location", "Madrid"),
		fieldLead("Location", "Berlin"),
		fieldLead("Location", "Lisbon"),
		fieldLead("Location", "Berlin"),
		fieldLead("Location", "Madrid"),
		{Fields: map[string]string{}}, // absent field is skipped
	}

	got := CountByCategory(leads, "Location")
	require.Len(t, got, 3)
	assert.Equal(t, domain.CategoryCount{Name: "Berlin", Count: 3}, got[0])
	assert.Equal(t, domain.CategoryCount{Name: "Madrid", Count: 2}, got[1])
	assert.Equal(t, domain.CategoryCount{Name: "Lisbon", Count: 1}, got[2])
}

func TestCountByCategoryTiesKeepFirstEncounteredOrder(t *testing.T) {
	leads := []domain.Lead{
		fieldLead("Location", "Zagreb"),
		fieldLead("Location", "Athens"),
		fieldLead("Location", "Zagreb"),
		fieldLead("Location", "Athens"),
	}

	got := CountByCategory(leads, "Location")
	require.Len(t, got, 2)
	assert.Equal(t, "Zagreb", got[0].Name, "equal counts keep source row order")
	assert.Equal(t, "Athens", got[1].Name)
}

func TestCountByCategorySumsToPresentFieldCount(t *testing.T) {
	leads := []domain.Lead{
		fieldLead("Current Employer", "Acme"),
		fieldLead("Current Employer", "Globex"),
		fieldLead("Current Employer", "Acme"),
		{Fields: map[string]string{"Current Employer": ""}},
		{Fields: map[string]string{}},
	}

	total := 0
	for _, c := range CountByCategory(leads, "Current Employer") {
		total += c.Count
	}
	assert.Equal(t, 3, total)
}

func TestTopN(t *testing.T) {
	leads := []domain.Lead{
		fieldLead("Location", "A"), fieldLead("Location", "A"), fieldLead("Location", "A"),
		fieldLead("Location", "B"), fieldLead("Location", "B"),
		fieldLead("Location", "C"),
	}

	got := TopN(leads, "Location", 2)
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].Name)
	assert.Equal(t, "B", got[1].Name)

	assert.Len(t, TopN(leads, "Location", 10), 3, "n larger than distinct values")
	assert.Empty(t, TopN(nil, "Location", 5))
}

func TestDailyTrend(t *testing.T) {
	d1 := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.Local)
	d2 := time.Date(2024, time.February, 2, 0, 0, 0, 0, time.Local)
	score := 1.0

	leads := []domain.Lead{
		{Fields: map[string]string{domain.ColumnConnectionStatus: "Sent"}, DateGenerated: &d2},
		{Fields: map[string]string{domain.ColumnConnectionStatus: "Sent"}, DateGenerated: &d1},
		{Fields: map[string]string{domain.ColumnConnectionStatus: "ACCEPTED"}, DateGenerated: &d1},
		{Fields: map[string]string{domain.ColumnConnectionStatus: "Sent"}, FitScore: &score}, // no date: excluded
		{Fields: map[string]string{}, DateGenerated: &d1},                                    // no category: excluded
	}

	got := DailyTrend(leads, domain.ColumnConnectionStatus)
	require.Len(t, got, 2)
	assert.Equal(t, "2024-02-01", got[0].Date, "ascending by day key")
	assert.Equal(t, map[string]int{"Sent": 1, "ACCEPTED": 1}, got[0].Counts)
	assert.Equal(t, "2024-02-02", got[1].Date)
	assert.Equal(t, map[string]int{"Sent": 1}, got[1].Counts)
}

func TestHistogram(t *testing.T) {
	values := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	bins := Histogram(values, 10)
	require.Len(t, bins, 10)

	total := 0
	for _, b := range bins {
		total += b.Count
	}
	assert.Equal(t, len(values), total, "every value lands in exactly one bin")
	assert.Equal(t, 2, bins[9].Count, "maximum value is clamped into the last bin")
	assert.Equal(t, "0.0-1.0", bins[0].Range)
}

func TestHistogramSingleValue(t *testing.T) {
	bins := Histogram([]float64{10}, 30)
	require.Len(t, bins, 30)
	assert.Equal(t, 1, bins[0].Count, "degenerate min==max distribution collapses into bin 0")
	for _, b := range bins[1:] {
		assert.Zero(t, b.Count)
	}
}

func TestHistogramEmptyAndDefaultBins(t *testing.T) {
	assert.Empty(t, Histogram(nil, 10))
	assert.Len(t, Histogram([]float64{1, 2}, 0), DefaultHistogramBins)
}

func TestQuartilesNearestRankWithAveragedMedian(t *testing.T) {
	got := Quartiles([]float64{1, 2, 3, 4})

	assert.Equal(t, 1.0, got.Min)
	assert.Equal(t, 2.0, got.Q1, "index floor(4*0.25)=1")
	assert.Equal(t, 2.5, got.Median, "even count averages the two middle values")
	assert.Equal(t, 4.0, got.Q3, "index floor(4*0.75)=3")
	assert.Equal(t, 4.0, got.Max)
}

func TestQuartilesOddCount(t *testing.T) {
	got := Quartiles([]float64{5, 1, 3, 2, 4})

	assert.Equal(t, 1.0, got.Min)
	assert.Equal(t, 2.0, got.Q1)
	assert.Equal(t, 3.0, got.Median)
	assert.Equal(t, 4.0, got.Q3)
	assert.Equal(t, 5.0, got.Max)
}

func TestQuartilesEmpty(t *testing.T) {
	assert.Equal(t, domain.QuartileSummary{}, Quartiles(nil))
}

func TestStats(t *testing.T) {
	got := Stats([]float64{2, 4, 4, 4, 5, 5, 7, 9})

	assert.Equal(t, 5.0, got.Mean)
	assert.Equal(t, 2.0, got.Min)
	assert.Equal(t, 9.0, got.Max)
	assert.Equal(t, 4.5, got.Median)
	assert.Equal(t, 2.0, got.StdDev, "population standard deviation, divisor n")
}

func TestStatsDoesNotMutateInput(t *testing.T) {
	values := []float64{3, 1, 2}
	_ = Stats(values)
	assert.Equal(t, []float64{3, 1, 2}, values)

	_ = Quartiles(values)
	assert.Equal(t, []float64{3, 1, 2}, values)
}

func TestFitScores(t *testing.T) {
	a, b := 7.5, 3.0
	leads := []domain.Lead{
		{FitScore: &a},
		{},
		{FitScore: &b},
	}
	assert.Equal(t, []float64{7.5, 3}, FitScores(leads))
}

func TestStatsEmpty(t *testing.T) {
	got := Stats(nil)
	assert.False(t, math.IsNaN(got.Mean))
	assert.Equal(t, domain.ScoreStats{}, got)
}
