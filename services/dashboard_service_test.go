package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"cermont/libs"
	"cermont/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newDashboardFixture() (*DashboardService, *mockStatsStore, *libs.MemoryCache) {
	stats := &mockStatsStore{}
	cache := libs.NewMemoryCache()
	svc := NewDashboardService(stats, cache, time.Minute, zap.NewNop())
	svc.now = func() time.Time { return fixedNow }
	return svc, stats, cache
}

func expectStats(stats *mockStatsStore, times int) {
	day := 24 * time.Hour
	base := fixedNow.Add(-30 * day)
	stats.On("CountByState", mock.Anything).Return(map[models.OrderState]int{
		models.StateSolicitud: 2,
		models.StateEjecucion: 3,
		models.StateFactura:   1,
		models.StatePago:      2,
	}, 2, nil).Times(times)
	stats.On("CycleSamples", mock.Anything).Return([]models.CycleSample{
		{CreatedAt: base, CompletedAt: base.Add(2 * day)},
		{CreatedAt: base, CompletedAt: base.Add(9 * day)},
		{CreatedAt: base, CompletedAt: base.Add(4 * day)},
	}, nil).Times(times)
	stats.On("CompletedSince", mock.Anything, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)).Return(1, nil).Times(times)
	stats.On("CompletedSince", mock.Anything, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)).Return(3, nil).Times(times)
	stats.On("CostTotals", mock.Anything).Return(1000.0, 1150.0, nil).Times(times)
	stats.On("Workload", mock.Anything).Return([]models.Workload{{ResponsibleID: 7, Name: "Tecnico", Count: 3}}, nil).Times(times)
	stats.On("DueOrders", mock.Anything, fixedNow.Add(dueSoonWindow)).Return([]models.DueOrder{
		{ID: 11, Numero: "OT-2026-00011", DueDate: fixedNow.Add(-day), State: models.StateEjecucion},
		{ID: 12, Numero: "OT-2026-00012", DueDate: fixedNow.Add(2 * day), State: models.StateSolicitud},
	}, nil).Times(times)
}

func TestDashboardOverview(t *testing.T) {
	t.Parallel()
	svc, stats, _ := newDashboardFixture()
	expectStats(stats, 1)

	o, err := svc.Overview(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 10, o.Total)
	assert.Equal(t, 2, o.Archived)
	assert.Equal(t, 6, o.Active)
	assert.Equal(t, 0, o.ByState[models.StateActa])
	assert.Equal(t, models.StateGroups{Pending: 2, InProgress: 3, Closing: 1, Completed: 4}, o.Groups)
	assert.Equal(t, 40.0, o.CompletionRate)
	assert.Equal(t, 5.0, o.AverageCycleDays)
	assert.Equal(t, 4.0, o.MedianCycleDays)
	assert.Equal(t, 1, o.CompletedThisWeek)
	assert.Equal(t, 3, o.CompletedThisMonth)
	assert.Equal(t, 15.0, o.Costs.DeviationPercentage)
	assert.Len(t, o.Workload, 1)

	require.Len(t, o.Alerts, 4)
	assert.Equal(t, AlertLowCompletion, o.Alerts[0].Type)
	assert.Equal(t, SeverityHigh, o.Alerts[0].Severity)
	assert.Equal(t, AlertCostOverrun, o.Alerts[1].Type)
	assert.Equal(t, SeverityHigh, o.Alerts[1].Severity)
	assert.Equal(t, AlertOverdue, o.Alerts[2].Type)
	assert.Equal(t, 11, o.Alerts[2].OrderID)
	assert.Equal(t, AlertDueSoon, o.Alerts[3].Type)
	assert.Equal(t, SeverityMedium, o.Alerts[3].Severity)
}

func TestDashboardOverviewIsCached(t *testing.T) {
	t.Parallel()
	svc, stats, _ := newDashboardFixture()
	expectStats(stats, 1)

	first, err := svc.Overview(context.Background())
	require.NoError(t, err)
	second, err := svc.Overview(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.Total, second.Total)
	assert.Equal(t, first.Alerts, second.Alerts)
	stats.AssertNumberOfCalls(t, "CountByState", 1)
}

func TestDashboardRefreshRecomputes(t *testing.T) {
	t.Parallel()
	svc, stats, _ := newDashboardFixture()
	expectStats(stats, 2)

	_, err := svc.Overview(context.Background())
	require.NoError(t, err)
	_, err = svc.Refresh(context.Background())
	require.NoError(t, err)

	stats.AssertNumberOfCalls(t, "CountByState", 2)
}

func TestDashboardOverviewPropagatesStoreErrors(t *testing.T) {
	t.Parallel()
	svc, stats, cache := newDashboardFixture()
	stats.On("CountByState", mock.Anything).Return(nil, 0, errors.New("db down"))
	stats.On("CycleSamples", mock.Anything).Return(nil, nil).Maybe()
	stats.On("CompletedSince", mock.Anything, mock.Anything).Return(0, nil).Maybe()
	stats.On("CostTotals", mock.Anything).Return(0.0, 0.0, nil).Maybe()
	stats.On("Workload", mock.Anything).Return(nil, nil).Maybe()
	stats.On("DueOrders", mock.Anything, mock.Anything).Return(nil, nil).Maybe()

	_, err := svc.Overview(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")

	_, err = cache.Get(context.Background(), overviewCacheKey)
	assert.ErrorIs(t, err, libs.ErrCacheMiss)
}

func TestDashboardHealthyOverviewHasNoAlerts(t *testing.T) {
	t.Parallel()
	svc, stats, _ := newDashboardFixture()
	stats.On("CountByState", mock.Anything).Return(map[models.OrderState]int{models.StatePago: 19, models.StateActa: 1}, 0, nil)
	stats.On("CycleSamples", mock.Anything).Return(nil, nil)
	stats.On("CompletedSince", mock.Anything, mock.Anything).Return(0, nil)
	stats.On("CostTotals", mock.Anything).Return(1000.0, 1040.0, nil)
	stats.On("Workload", mock.Anything).Return(nil, nil)
	stats.On("DueOrders", mock.Anything, mock.Anything).Return(nil, nil)

	o, err := svc.Overview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 95.0, o.CompletionRate)
	assert.Empty(t, o.Alerts)
	assert.Zero(t, o.AverageCycleDays)
}

func TestStartOfWeek(t *testing.T) {
	t.Parallel()
	sunday := time.Date(2026, 3, 15, 18, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), startOfWeek(sunday))
	assert.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), startOfWeek(fixedNow))
}
