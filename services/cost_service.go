package services

import (
	"context"
	"errors"
	"math"
	"strings"

	"cermont/models"
	"cermont/repositories"
)

const (
	OvertimeMultiplier = 1.5
	// budgetTolerance is the variance percentage still reported as on budget.
	budgetTolerance = 5.0
)

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// LaborCost prices regular hours plus overtime at OvertimeMultiplier.
func LaborCost(l models.Labor) float64 {
	return l.Hours*l.HourlyRate + l.OvertimeHours*l.HourlyRate*OvertimeMultiplier
}

func MaterialsCost(materials []models.Material) float64 {
	total := 0.0
	for _, m := range materials {
		total += m.Quantity * m.UnitCost
	}
	return total
}

// BudgetStatus classifies a variance percentage.
func BudgetStatus(variancePct float64) string {
	switch {
	case math.Abs(variancePct) <= budgetTolerance:
		return models.BudgetOn
	case variancePct < 0:
		return models.BudgetUnder
	default:
		return models.BudgetOver
	}
}

// VariancePercentage is (actual-budgeted)/budgeted as a percentage, 0 without a budget.
func VariancePercentage(budgeted, actual float64) float64 {
	if budgeted <= 0 {
		return 0
	}
	return (actual - budgeted) / budgeted * 100
}

func validCostCategory(c models.CostCategory) bool {
	for _, cat := range models.CostCategories {
		if cat == c {
			return true
		}
	}
	return false
}

type CostService struct {
	costs   CostStore
	orders  OrderStore
	audit   *AuditService
	taxRate float64
}

func NewCostService(costs CostStore, orders OrderStore, audit *AuditService, taxRate float64) *CostService {
	return &CostService{costs: costs, orders: orders, audit: audit, taxRate: taxRate}
}

func (s *CostService) order(ctx context.Context, orderID int) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

func (s *CostService) Add(ctx context.Context, orderID int, req models.CostItemRequest, meta models.RequestMeta) (*models.CostItem, error) {
	if !validCostCategory(req.Category) {
		return nil, invalid("category", "unknown category %q", req.Category)
	}
	if req.Kind != models.CostPresupuestado && req.Kind != models.CostReal {
		return nil, invalid("kind", "must be presupuestado or real")
	}
	if strings.TrimSpace(req.Description) == "" {
		return nil, invalid("description", "is required")
	}
	if req.Quantity <= 0 {
		return nil, invalid("quantity", "must be greater than zero")
	}
	if req.UnitCost < 0 {
		return nil, invalid("unit_cost", "cannot be negative")
	}

	order, err := s.order(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Archived {
		return nil, ErrOrderArchived
	}

	item := &models.CostItem{
		OrderID:     orderID,
		Category:    req.Category,
		Kind:        req.Kind,
		Description: strings.TrimSpace(req.Description),
		Quantity:    req.Quantity,
		UnitCost:    req.UnitCost,
		Total:       round2(req.Quantity * req.UnitCost),
		CreatedBy:   meta.UserID,
	}
	if err := s.costs.Create(ctx, item); err != nil {
		return nil, err
	}

	entry := newAudit(meta, models.EntityCostItem, item.ID, models.AuditCreate)
	entry.After = snapshot(item)
	s.audit.Record(ctx, entry)
	return item, nil
}

func (s *CostService) List(ctx context.Context, orderID int) ([]models.CostItem, error) {
	if _, err := s.order(ctx, orderID); err != nil {
		return nil, err
	}
	return s.costs.ListByOrder(ctx, orderID)
}

func (s *CostService) Delete(ctx context.Context, orderID, itemID int, meta models.RequestMeta) error {
	item, err := s.costs.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrCostItemNotFound
		}
		return err
	}
	if item.OrderID != orderID {
		return ErrCostItemNotFound
	}
	if err := s.costs.Delete(ctx, itemID); err != nil {
		return err
	}

	entry := newAudit(meta, models.EntityCostItem, itemID, models.AuditDelete)
	entry.Before = snapshot(item)
	s.audit.Record(ctx, entry)
	return nil
}

// Summary compares budgeted and actual cost items of an order. Without
// budgeted items the order's estimated budget is used.
func (s *CostService) Summary(ctx context.Context, orderID int) (*models.CostSummary, error) {
	order, err := s.order(ctx, orderID)
	if err != nil {
		return nil, err
	}
	items, err := s.costs.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return BuildCostSummary(order, items, s.taxRate), nil
}

func BuildCostSummary(order *models.Order, items []models.CostItem, taxRate float64) *models.CostSummary {
	byCategory := make(map[models.CostCategory]models.CategoryCost, len(models.CostCategories))
	for _, c := range models.CostCategories {
		byCategory[c] = models.CategoryCost{}
	}

	var budgeted, actual float64
	for _, item := range items {
		cat := byCategory[item.Category]
		if item.Kind == models.CostPresupuestado {
			budgeted += item.Total
			cat.Budgeted += item.Total
		} else {
			actual += item.Total
			cat.Actual += item.Total
		}
		cat.Variance = cat.Actual - cat.Budgeted
		byCategory[item.Category] = cat
	}
	if budgeted == 0 {
		budgeted = order.EstimatedBudget
	}

	pct := VariancePercentage(budgeted, actual)
	tax := round2(actual * taxRate)
	return &models.CostSummary{
		OrderID:            order.ID,
		Budgeted:           round2(budgeted),
		Actual:             round2(actual),
		Tax:                tax,
		TotalWithTax:       round2(actual + tax),
		Variance:           round2(actual - budgeted),
		VariancePercentage: round2(pct),
		Status:             BudgetStatus(pct),
		ByCategory:         byCategory,
	}
}
