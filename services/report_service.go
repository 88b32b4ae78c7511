package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"cermont/models"
	"cermont/repositories"
)

var orderCSVHeader = []string{
	"numero", "cliente", "description", "location", "state", "progress",
	"priority", "responsible_id", "estimated_budget", "due_date",
	"created_at", "completed_at", "archived",
}

type ReportService struct {
	orders     OrderStore
	workplans  WorkPlanStore
	executions ExecutionStore
	evidences  EvidenceStore
	costs      CostStore
	audit      *AuditService
	taxRate    float64
	now        func() time.Time
}

func NewReportService(orders OrderStore, workplans WorkPlanStore, executions ExecutionStore, evidences EvidenceStore, costs CostStore, audit *AuditService, taxRate float64) *ReportService {
	return &ReportService{
		orders:     orders,
		workplans:  workplans,
		executions: executions,
		evidences:  evidences,
		costs:      costs,
		audit:      audit,
		taxRate:    taxRate,
		now:        time.Now,
	}
}

// OrderReport gathers the order with its plan, execution, evidence counts,
// cost summary and history. Missing plan or execution are omitted.
func (s *ReportService) OrderReport(ctx context.Context, orderID int) (*models.OrderReport, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	report := &models.OrderReport{
		Order:       order,
		Progress:    Progress(order.State),
		GeneratedAt: s.now(),
	}

	plan, err := s.workplans.FindByOrderID(ctx, orderID)
	switch {
	case err == nil:
		report.WorkPlan = plan
	case !errors.Is(err, repositories.ErrNotFound):
		return nil, fmt.Errorf("failed to load work plan: %w", err)
	}

	execution, err := s.executions.FindByOrderID(ctx, orderID)
	switch {
	case err == nil:
		report.Execution = execution
	case !errors.Is(err, repositories.ErrNotFound):
		return nil, fmt.Errorf("failed to load execution: %w", err)
	}

	counts, err := s.evidences.CountByStatus(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to count evidence: %w", err)
	}
	report.Evidence = map[string]int{
		models.EvidencePendiente: 0,
		models.EvidenceAprobada:  0,
		models.EvidenceRechazada: 0,
	}
	for status, n := range counts {
		report.Evidence[status] = n
	}

	items, err := s.costs.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load costs: %w", err)
	}
	report.Costs = BuildCostSummary(order, items, s.taxRate)

	report.History, err = s.audit.History(ctx, models.EntityOrder, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	if report.History == nil {
		report.History = []models.AuditLog{}
	}
	return report, nil
}

// ExportOrdersCSV writes every order matching filter as CSV and returns the
// number of data rows written. Paging fields are ignored.
func (s *ReportService) ExportOrdersCSV(ctx context.Context, filter models.OrderFilter, w io.Writer) (int, error) {
	if filter.State != "" && !filter.State.Valid() {
		return 0, invalid("state", "unknown state %q", filter.State)
	}
	filter.Page, filter.Limit = 1, 0

	orders, _, err := s.orders.List(ctx, filter)
	if err != nil {
		return 0, err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(orderCSVHeader); err != nil {
		return 0, err
	}
	for _, o := range orders {
		if err := cw.Write(orderCSVRecord(o)); err != nil {
			return 0, err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, err
	}
	return len(orders), nil
}

func orderCSVRecord(o models.Order) []string {
	return []string{
		o.Numero,
		csvText(o.Cliente),
		csvText(o.Description),
		csvText(o.Location),
		string(o.State),
		strconv.Itoa(Progress(o.State)),
		o.Priority,
		optionalInt(o.ResponsibleID),
		strconv.FormatFloat(o.EstimatedBudget, 'f', 2, 64),
		optionalTime(o.DueDate, "2006-01-02"),
		o.CreatedAt.Format(time.RFC3339),
		optionalTime(o.CompletedAt, time.RFC3339),
		strconv.FormatBool(o.Archived),
	}
}

// csvText quotes free text that a spreadsheet would otherwise run as a formula.
func csvText(v string) string {
	if v != "" && strings.ContainsRune("=+-@\t\r", rune(v[0])) {
		return "'" + v
	}
	return v
}

func optionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func optionalTime(t *time.Time, layout string) string {
	if t == nil {
		return ""
	}
	return t.Format(layout)
}
