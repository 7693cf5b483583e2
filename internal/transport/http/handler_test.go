package http

import (
	"context"
	"io"
	"log/slog"
	"time"

	"leadpulse/internal/dataprocessing"
	apierrors "leadpulse/internal/errors"
	"leadpulse/internal/services"
	"leadpulse/pkg/contracts/domain"
)

// fakeDataService serves a fixed snapshot through the real pipeline
// functions, so handler tests exercise the same shapes the service
// produces.
type fakeDataService struct {
	snapshot   services.Snapshot
	refreshErr error
	lastErr    error
	refreshed  int
}

func (f *fakeDataService) Refresh(ctx context.Context) error {
	f.refreshed++
	return f.refreshErr
}

func (f *fakeDataService) Snapshot() services.Snapshot { return f.snapshot }

func (f *fakeDataService) LastError() error { return f.lastErr }

func (f *fakeDataService) Filtered(criteria domain.FilterCriteria) ([]domain.Lead, services.Snapshot) {
	return dataprocessing.Apply(f.snapshot.Leads, criteria), f.snapshot
}

func (f *fakeDataService) KPIs(criteria domain.FilterCriteria) domain.KPISummary {
	filtered, _ := f.Filtered(criteria)
	return dataprocessing.ComputeKPIs(filtered)
}

func (f *fakeDataService) StatusDistribution(criteria domain.FilterCriteria) []domain.CategoryCount {
	filtered, _ := f.Filtered(criteria)
	return dataprocessing.CountByCategory(filtered, domain.ColumnConnectionStatus)
}

func (f *fakeDataService) DailyTrend(criteria domain.FilterCriteria) []domain.TrendPoint {
	filtered, _ := f.Filtered(criteria)
	return dataprocessing.DailyTrend(filtered, domain.ColumnConnectionStatus)
}

func (f *fakeDataService) ScoreHistogram(criteria domain.FilterCriteria, bins int) []domain.HistogramBin {
	filtered, _ := f.Filtered(criteria)
	return dataprocessing.Histogram(dataprocessing.FitScores(filtered), bins)
}

func (f *fakeDataService) ScoreQuartiles(criteria domain.FilterCriteria) domain.QuartileSummary {
	filtered, _ := f.Filtered(criteria)
	return dataprocessing.Quartiles(dataprocessing.FitScores(filtered))
}

func (f *fakeDataService) ScoreStats(criteria domain.FilterCriteria) domain.ScoreStats {
	filtered, _ := f.Filtered(criteria)
	return dataprocessing.Stats(dataprocessing.FitScores(filtered))
}

func (f *fakeDataService) TopByField(criteria domain.FilterCriteria, field string, n int) []domain.CategoryCount {
	filtered, _ := f.Filtered(criteria)
	return dataprocessing.TopN(filtered, field, n)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testErrorHandler() *apierrors.ErrorHandler {
	return apierrors.NewErrorHandler(testLogger())
}

func floatPtr(f float64) *float64 { return &f }

func datePtr(year int, month time.Month, day int) *time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.Local)
	return &t
}

func fakeServiceWithLeads() *fakeDataService {
	return &fakeDataService{
		snapshot: services.Snapshot{
			Headers:   []string{"Date Generated", "Name", "Fit Score", "Connection Status"},
			FetchedAt: time.Date(2024, time.March, 20, 8, 0, 0, 0, time.UTC),
			Leads: []domain.Lead{
				{
					DateGenerated: datePtr(2024, time.March, 11),
					FitScore:      floatPtr(8.5),
					Fields: map[string]string{
						"Name":                        "A",
						domain.ColumnConnectionStatus: "Sent",
					},
				},
				{
					DateGenerated: datePtr(2024, time.March, 15),
					FitScore:      floatPtr(6.0),
					Fields: map[string]string{
						"Name":                        "B",
						domain.ColumnConnectionStatus: "Pending",
					},
				},
				{
					DateGenerated: datePtr(2024, time.February, 2),
					Fields: map[string]string{
						"Name":                        "C",
						domain.ColumnConnectionStatus: "ACCEPTED",
					},
				},
			},
		},
	}
}
