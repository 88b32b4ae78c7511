package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"cermont/libs"
	"cermont/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	overviewCacheKey = "kpi:overview"

	completionTarget = 90.0
	overrunThreshold = 5.0
	dueSoonWindow    = 3 * 24 * time.Hour
)

const (
	AlertLowCompletion = "LOW_COMPLETION"
	AlertCostOverrun   = "COST_OVERRUN"
	AlertDueSoon       = "DUE_SOON"
	AlertOverdue       = "OVERDUE"

	SeverityHigh   = "HIGH"
	SeverityMedium = "MEDIUM"
)

type DashboardService struct {
	stats StatsStore
	cache libs.Cache
	ttl   time.Duration
	log   *zap.Logger
	now   func() time.Time
}

func NewDashboardService(stats StatsStore, cache libs.Cache, ttl time.Duration, log *zap.Logger) *DashboardService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &DashboardService{stats: stats, cache: cache, ttl: ttl, log: log, now: time.Now}
}

// Overview returns the KPI overview, served from cache while fresh.
func (s *DashboardService) Overview(ctx context.Context) (*models.KPIOverview, error) {
	raw, err := s.cache.Get(ctx, overviewCacheKey)
	if err == nil {
		var cached models.KPIOverview
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			return &cached, nil
		}
		s.log.Warn("discarding unreadable KPI cache entry")
	} else if !errors.Is(err, libs.ErrCacheMiss) {
		s.log.Warn("KPI cache unavailable", zap.Error(err))
	}
	return s.computeAndStore(ctx)
}

// Refresh drops the cached overview and recomputes it.
func (s *DashboardService) Refresh(ctx context.Context) (*models.KPIOverview, error) {
	if err := s.cache.Del(ctx, overviewCacheKey); err != nil {
		s.log.Warn("failed to invalidate KPI cache", zap.Error(err))
	}
	return s.computeAndStore(ctx)
}

func (s *DashboardService) Workload(ctx context.Context) ([]models.Workload, error) {
	return s.stats.Workload(ctx)
}

func (s *DashboardService) computeAndStore(ctx context.Context) (*models.KPIOverview, error) {
	overview, err := s.compute(ctx)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(overview); err == nil {
		if err := s.cache.Set(ctx, overviewCacheKey, string(raw), s.ttl); err != nil {
			s.log.Warn("failed to cache KPI overview", zap.Error(err))
		}
	}
	return overview, nil
}

func startOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.AddDate(0, 0, -offset).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func (s *DashboardService) compute(ctx context.Context) (*models.KPIOverview, error) {
	now := s.now()

	var (
		byState          map[models.OrderState]int
		archived         int
		samples          []models.CycleSample
		weekCount        int
		monthCount       int
		budgeted, actual float64
		workload         []models.Workload
		due              []models.DueOrder
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		byState, archived, err = s.stats.CountByState(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		samples, err = s.stats.CycleSamples(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		weekCount, err = s.stats.CompletedSince(gctx, startOfWeek(now))
		return err
	})
	g.Go(func() error {
		var err error
		monthCount, err = s.stats.CompletedSince(gctx, startOfMonth(now))
		return err
	})
	g.Go(func() error {
		var err error
		budgeted, actual, err = s.stats.CostTotals(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		workload, err = s.stats.Workload(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		due, err = s.stats.DueOrders(gctx, now.Add(dueSoonWindow))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to compute KPIs: %w", err)
	}

	o := &models.KPIOverview{
		ByState:            map[models.OrderState]int{},
		Archived:           archived,
		CompletedThisWeek:  weekCount,
		CompletedThisMonth: monthCount,
		Workload:           workload,
		Alerts:             []models.Alert{},
		GeneratedAt:        now,
	}
	for _, st := range models.OrderStates {
		n := byState[st]
		o.ByState[st] = n
		o.Total += n
	}
	o.Total += archived
	o.Active = o.Total - archived - byState[models.StatePago]
	o.Groups = models.StateGroups{
		Pending:    byState[models.StateSolicitud] + byState[models.StateVisita] + byState[models.StatePO],
		InProgress: byState[models.StatePlaneacion] + byState[models.StateEjecucion] + byState[models.StateInforme],
		Closing:    byState[models.StateActa] + byState[models.StateSES] + byState[models.StateFactura],
		Completed:  byState[models.StatePago] + archived,
	}
	if o.Total > 0 {
		o.CompletionRate = round1(float64(o.Groups.Completed) / float64(o.Total) * 100)
	}
	o.AverageCycleDays, o.MedianCycleDays = cycleDays(samples)
	o.Costs = models.CostTotals{
		Budgeted:            round2(budgeted),
		Actual:              round2(actual),
		DeviationPercentage: round1(VariancePercentage(budgeted, actual)),
	}
	o.Alerts = buildAlerts(o, due, now)
	return o, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// cycleDays returns the mean and median creation-to-completion time in days.
func cycleDays(samples []models.CycleSample) (float64, float64) {
	if len(samples) == 0 {
		return 0, 0
	}
	days := make([]float64, 0, len(samples))
	total := 0.0
	for _, s := range samples {
		d := s.CompletedAt.Sub(s.CreatedAt).Hours() / 24
		if d < 0 {
			continue
		}
		days = append(days, d)
		total += d
	}
	if len(days) == 0 {
		return 0, 0
	}
	sort.Float64s(days)
	median := days[len(days)/2]
	if len(days)%2 == 0 {
		median = (days[len(days)/2-1] + days[len(days)/2]) / 2
	}
	return round1(total / float64(len(days))), round1(median)
}

func buildAlerts(o *models.KPIOverview, due []models.DueOrder, now time.Time) []models.Alert {
	alerts := []models.Alert{}
	if o.Total > 0 && o.CompletionRate < completionTarget {
		severity := SeverityMedium
		if o.CompletionRate < 80 {
			severity = SeverityHigh
		}
		alerts = append(alerts, models.Alert{
			Type:     AlertLowCompletion,
			Severity: severity,
			Message:  fmt.Sprintf("completion rate %.1f%% is below the %.0f%% target", o.CompletionRate, completionTarget),
		})
	}
	if o.Costs.DeviationPercentage > overrunThreshold {
		severity := SeverityMedium
		if o.Costs.DeviationPercentage > 10 {
			severity = SeverityHigh
		}
		alerts = append(alerts, models.Alert{
			Type:     AlertCostOverrun,
			Severity: severity,
			Message:  fmt.Sprintf("actual costs are %.1f%% over budget", o.Costs.DeviationPercentage),
		})
	}
	for _, d := range due {
		if d.DueDate.Before(now) {
			alerts = append(alerts, models.Alert{
				Type:     AlertOverdue,
				Severity: SeverityHigh,
				Message:  fmt.Sprintf("order %s was due %s and is still in %s", d.Numero, d.DueDate.Format("2006-01-02"), d.State),
				OrderID:  d.ID,
			})
			continue
		}
		alerts = append(alerts, models.Alert{
			Type:     AlertDueSoon,
			Severity: SeverityMedium,
			Message:  fmt.Sprintf("order %s is due %s and is still in %s", d.Numero, d.DueDate.Format("2006-01-02"), d.State),
			OrderID:  d.ID,
		})
	}
	return alerts
}
