package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"leadpulse/internal/dataprocessing"
	"leadpulse/internal/infrastructure"
	"leadpulse/internal/sheets"
	"leadpulse/pkg/contracts/domain"
)

// TableFetcher is the raw-row data source boundary.
type TableFetcher interface {
	FetchTable(ctx context.Context) (*sheets.Table, error)
}

// RefreshBroadcaster is notified after each successful refresh so connected
// dashboards can re-pull.
type RefreshBroadcaster interface {
	BroadcastRefresh(leadCount int, at time.Time)
}

// Snapshot is one immutable view of the normalized working set. Callers
// must not mutate the contained slices.
type Snapshot struct {
	Leads     []domain.Lead
	Headers   []string
	FetchedAt time.Time
}

// DataService owns the lead snapshot and its periodic refresh.
type DataService struct {
	fetcher     TableFetcher
	logger      *slog.Logger
	tracer      trace.Tracer
	metrics     *infrastructure.BusinessMetrics
	broadcaster RefreshBroadcaster
	interval    time.Duration

	mu          sync.RWMutex
	snapshot    Snapshot
	lastErr     error
	refreshedAt time.Time
}

// Option configures optional collaborators of a DataService.
type Option func(*DataService)

// WithMetrics wires refresh metrics.
func WithMetrics(m *infrastructure.BusinessMetrics) Option {
	return func(s *DataService) { s.metrics = m }
}

// WithBroadcaster wires refresh-event broadcasting.
func WithBroadcaster(b RefreshBroadcaster) Option {
	return func(s *DataService) { s.broadcaster = b }
}

// WithRefreshInterval overrides the default 60s refresh cadence.
func WithRefreshInterval(d time.Duration) Option {
	return func(s *DataService) { s.interval = d }
}

// NewDataService creates the snapshot-owning service.
func NewDataService(fetcher TableFetcher, logger *slog.Logger, opts ...Option) *DataService {
	s := &DataService{
		fetcher:  fetcher,
		logger:   logger.With(slog.String("component", "data_service")),
		tracer:   otel.Tracer(infrastructure.ServiceName),
		interval: 60 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Refresh fetches the table, normalizes it and swaps the snapshot. On
// failure the previous snapshot is kept and the error is recorded for the
// health surface; the next cycle (or a manual retry) will try again.
func (s *DataService) Refresh(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "data.refresh")
	defer span.End()

	started := time.Now()
	table, err := s.fetcher.FetchTable(ctx)
	if err != nil {
		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()

		s.metrics.RecordRefresh(ctx, 0, err)
		s.logger.ErrorContext(ctx, "refresh failed", slog.String("error", err.Error()))
		return err
	}

	leads := dataprocessing.Normalize(table.Rows)
	snapshot := Snapshot{
		Leads:     leads,
		Headers:   table.Headers,
		FetchedAt: time.Now(),
	}

	s.mu.Lock()
	s.snapshot = snapshot
	s.lastErr = nil
	s.refreshedAt = snapshot.FetchedAt
	s.mu.Unlock()

	span.SetAttributes(
		attribute.Int("raw_rows", len(table.Rows)),
		attribute.Int("leads", len(leads)),
	)
	s.metrics.RecordRefresh(ctx, len(leads), nil)
	s.logger.InfoContext(ctx, "snapshot refreshed",
		slog.Int("raw_rows", len(table.Rows)),
		slog.Int("leads", len(leads)),
		slog.Duration("duration", time.Since(started)))

	if s.broadcaster != nil {
		s.broadcaster.BroadcastRefresh(len(leads), snapshot.FetchedAt)
	}
	return nil
}

// Run refreshes once immediately, then on every tick until the context is
// cancelled. Fetch errors do not stop the loop.
func (s *DataService) Run(ctx context.Context) error {
	if err := s.Refresh(ctx); err != nil {
		s.logger.WarnContext(ctx, "initial refresh failed, serving empty snapshot until retry",
			slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			_ = s.Refresh(ctx)
		}
	}
}

// Snapshot returns the current working set. The returned slices are shared
// and treated as immutable by every consumer.
func (s *DataService) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// LastError returns the most recent fetch failure, nil when the last
// refresh succeeded.
func (s *DataService) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Filtered applies criteria to the current snapshot and returns the subset
// along with the snapshot it came from.
func (s *DataService) Filtered(criteria domain.FilterCriteria) ([]domain.Lead, Snapshot) {
	snapshot := s.Snapshot()
	return dataprocessing.Apply(snapshot.Leads, criteria), snapshot
}

// KPIs recomputes the headline counts for the filtered subset.
func (s *DataService) KPIs(criteria domain.FilterCriteria) domain.KPISummary {
	filtered, _ := s.Filtered(criteria)
	return dataprocessing.ComputeKPIs(filtered)
}

// StatusDistribution groups the filtered subset by connection status.
func (s *DataService) StatusDistribution(criteria domain.FilterCriteria) []domain.CategoryCount {
	filtered, _ := s.Filtered(criteria)
	return dataprocessing.CountByCategory(filtered, domain.ColumnConnectionStatus)
}

// DailyTrend buckets the filtered subset by day and connection status.
func (s *DataService) DailyTrend(criteria domain.FilterCriteria) []domain.TrendPoint {
	filtered, _ := s.Filtered(criteria)
	return dataprocessing.DailyTrend(filtered, domain.ColumnConnectionStatus)
}

// ScoreHistogram bins the filtered subset's fit scores.
func (s *DataService) ScoreHistogram(criteria domain.FilterCriteria, bins int) []domain.HistogramBin {
	filtered, _ := s.Filtered(criteria)
	return dataprocessing.Histogram(dataprocessing.FitScores(filtered), bins)
}

// ScoreQuartiles computes the box-plot summary of the filtered fit scores.
func (s *DataService) ScoreQuartiles(criteria domain.FilterCriteria) domain.QuartileSummary {
	filtered, _ := s.Filtered(criteria)
	return dataprocessing.Quartiles(dataprocessing.FitScores(filtered))
}

// ScoreStats computes summary statistics of the filtered fit scores.
func (s *DataService) ScoreStats(criteria domain.FilterCriteria) domain.ScoreStats {
	filtered, _ := s.Filtered(criteria)
	return dataprocessing.Stats(dataprocessing.FitScores(filtered))
}

// TopByField ranks the filtered subset's values of one pass-through column.
func (s *DataService) TopByField(criteria domain.FilterCriteria, field string, n int) []domain.CategoryCount {
	filtered, _ := s.Filtered(criteria)
	return dataprocessing.TopN(filtered, field, n)
}
