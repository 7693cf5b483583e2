package http

import (
	"context"

	"leadpulse/internal/services"
	"leadpulse/pkg/contracts/domain"
)

// DataServiceInterface is what the handlers need from the data service.
// Kept as an interface so handler tests can substitute a fake.
type DataServiceInterface interface {
	Refresh(ctx context.Context) error
	Snapshot() services.Snapshot
	LastError() error
	Filtered(criteria domain.FilterCriteria) ([]domain.Lead, services.Snapshot)
	KPIs(criteria domain.FilterCriteria) domain.KPISummary
	StatusDistribution(criteria domain.FilterCriteria) []domain.CategoryCount
	DailyTrend(criteria domain.FilterCriteria) []domain.TrendPoint
	ScoreHistogram(criteria domain.FilterCriteria, bins int) []domain.HistogramBin
	ScoreQuartiles(criteria domain.FilterCriteria) domain.QuartileSummary
	ScoreStats(criteria domain.FilterCriteria) domain.ScoreStats
	TopByField(criteria domain.FilterCriteria, field string, n int) []domain.CategoryCount
}
