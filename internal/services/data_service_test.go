package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "leadpulse/internal/errors"
	"leadpulse/internal/sheets"
	"leadpulse/pkg/contracts/domain"
)

type fakeFetcher struct {
	mu    sync.Mutex
	table *sheets.Table
	err   error
	calls int
}

func (f *fakeFetcher) FetchTable(ctx context.Context) (*sheets.Table, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.table, nil
}

func (f *fakeFetcher) set(table *sheets.Table, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.table = table
	f.err = err
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	counts []int
}

func (b *recordingBroadcaster) BroadcastRefresh(leadCount int, at time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.counts = append(b.counts, leadCount)
}

func testTable() *sheets.Table {
	return &sheets.Table{
		Headers: []string{"Date Generated", "Fit Score", "Connection Status", "Location"},
		Rows: []domain.RawRow{
			{"Date Generated": "15/03/2024", "Fit Score": "8.5", "Connection Status": "Pending", "Location": "Berlin"},
			{"Date Generated": "16/03/2024", "Fit Score": "6.0", "Connection Status": "Sent", "Location": "Hamburg"},
			{"Date Generated": "", "Fit Score": "", "Connection Status": "Pending", "Location": "dropped"},
		},
	}
}

func newTestService(t *testing.T, fetcher TableFetcher, opts ...Option) *DataService {
	t.Helper()
	return NewDataService(fetcher, slog.New(slog.NewTextHandler(testWriter{t}, nil)), opts...)
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func TestRefreshPopulatesSnapshot(t *testing.T) {
	fetcher := &fakeFetcher{table: testTable()}
	svc := newTestService(t, fetcher)

	require.NoError(t, svc.Refresh(context.Background()))

	snap := svc.Snapshot()
	assert.Len(t, snap.Leads, 2, "row without date and score is dropped")
	assert.Equal(t, []string{"Date Generated", "Fit Score", "Connection Status", "Location"}, snap.Headers)
	assert.False(t, snap.FetchedAt.IsZero())
	assert.NoError(t, svc.LastError())
}

func TestRefreshFailureKeepsPreviousSnapshot(t *testing.T) {
	fetcher := &fakeFetcher{table: testTable()}
	svc := newTestService(t, fetcher)
	require.NoError(t, svc.Refresh(context.Background()))

	srcErr := apierrors.NewSourceUnavailable("sheet read failed", errors.New("quota exceeded"))
	fetcher.set(nil, srcErr)

	err := svc.Refresh(context.Background())
	require.Error(t, err)
	assert.True(t, apierrors.IsSourceUnavailable(err))

	snap := svc.Snapshot()
	assert.Len(t, snap.Leads, 2, "stale snapshot survives a failed refresh")
	assert.Equal(t, srcErr, svc.LastError())

	// A later success clears the recorded failure.
	fetcher.set(testTable(), nil)
	require.NoError(t, svc.Refresh(context.Background()))
	assert.NoError(t, svc.LastError())
}

func TestSnapshotIsolation(t *testing.T) {
	fetcher := &fakeFetcher{table: testTable()}
	svc := newTestService(t, fetcher)
	require.NoError(t, svc.Refresh(context.Background()))

	before := svc.Snapshot()

	fetcher.set(&sheets.Table{
		Headers: []string{"Date Generated", "Fit Score"},
		Rows: []domain.RawRow{
			{"Date Generated": "01/04/2024", "Fit Score": "9.0"},
		},
	}, nil)
	require.NoError(t, svc.Refresh(context.Background()))

	// The snapshot captured before the refresh is untouched.
	assert.Len(t, before.Leads, 2)
	assert.Len(t, svc.Snapshot().Leads, 1)
}

func TestRefreshBroadcasts(t *testing.T) {
	fetcher := &fakeFetcher{table: testTable()}
	hub := &recordingBroadcaster{}
	svc := newTestService(t, fetcher, WithBroadcaster(hub))

	require.NoError(t, svc.Refresh(context.Background()))

	hub.mu.Lock()
	defer hub.mu.Unlock()
	require.Len(t, hub.counts, 1)
	assert.Equal(t, 2, hub.counts[0])
}

func TestRunStopsOnContextCancel(t *testing.T) {
	fetcher := &fakeFetcher{table: testTable()}
	svc := newTestService(t, fetcher, WithRefreshInterval(5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	assert.Eventually(t, func() bool {
		fetcher.mu.Lock()
		defer fetcher.mu.Unlock()
		return fetcher.calls >= 2
	}, time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestFilteredAndAggregates(t *testing.T) {
	fetcher := &fakeFetcher{table: testTable()}
	svc := newTestService(t, fetcher)
	require.NoError(t, svc.Refresh(context.Background()))

	all := domain.FilterCriteria{PeriodType: domain.PeriodAll, ConnectionStatus: domain.StatusAll}

	filtered, snap := svc.Filtered(all)
	assert.Len(t, filtered, 2)
	assert.Len(t, snap.Leads, 2)

	kpis := svc.KPIs(all)
	assert.Equal(t, 2, kpis.TotalRecords)
	assert.Equal(t, 1, kpis.TotalWithFitScore, "pending leads do not count toward scored total")
	assert.Equal(t, 1, kpis.Invited)
	assert.Equal(t, 1, kpis.PendingLeads)

	dist := svc.StatusDistribution(all)
	require.Len(t, dist, 2)

	onlySent := domain.FilterCriteria{PeriodType: domain.PeriodAll, ConnectionStatus: "Sent"}
	filtered, _ = svc.Filtered(onlySent)
	require.Len(t, filtered, 1)
	assert.Equal(t, "Hamburg", filtered[0].Field(domain.ColumnLocation))

	stats := svc.ScoreStats(all)
	assert.Equal(t, 2, stats.Count)
	assert.InDelta(t, 7.25, stats.Mean, 1e-9)

	top := svc.TopByField(all, domain.ColumnLocation, 1)
	require.Len(t, top, 1)
}
