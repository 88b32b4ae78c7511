package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"cermont/models"
	"cermont/repositories"
)

type WorkPlanService struct {
	workplans WorkPlanStore
	orders    OrderStore
	audit     *AuditService
	now       func() time.Time
}

func NewWorkPlanService(workplans WorkPlanStore, orders OrderStore, audit *AuditService) *WorkPlanService {
	return &WorkPlanService{workplans: workplans, orders: orders, audit: audit, now: time.Now}
}

// computeBudget validates the plan contents and returns its budget.
func computeBudget(req models.WorkPlanRequest) (float64, error) {
	if len(req.Materials) == 0 && len(req.Tools) == 0 {
		return 0, invalid("materials", "at least one material or tool is required")
	}
	for i, m := range req.Materials {
		if strings.TrimSpace(m.Name) == "" {
			return 0, invalid("materials", "item %d has no name", i+1)
		}
		if m.Quantity <= 0 {
			return 0, invalid("materials", "%s: quantity must be greater than zero", m.Name)
		}
		if m.UnitCost < 0 {
			return 0, invalid("materials", "%s: unit cost cannot be negative", m.Name)
		}
	}
	for i, t := range req.Tools {
		if strings.TrimSpace(t.Name) == "" {
			return 0, invalid("tools", "item %d has no name", i+1)
		}
	}
	if req.Labor.Hours < 0 || req.Labor.HourlyRate < 0 || req.Labor.OvertimeHours < 0 {
		return 0, invalid("labor", "hours and rates cannot be negative")
	}

	budget := round2(MaterialsCost(req.Materials) + LaborCost(req.Labor))
	if budget < 0 {
		return 0, invalid("budget", "cannot be negative")
	}
	return budget, nil
}

func (s *WorkPlanService) Create(ctx context.Context, orderID int, req models.WorkPlanRequest, meta models.RequestMeta) (*models.WorkPlan, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.Archived {
		return nil, ErrOrderArchived
	}
	if order.State != models.StatePO && order.State != models.StatePlaneacion {
		return nil, ErrOrderNotPlannable
	}

	budget, err := computeBudget(req)
	if err != nil {
		return nil, err
	}

	if _, err := s.workplans.FindByOrderID(ctx, orderID); err == nil {
		return nil, ErrWorkPlanExists
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	wp := &models.WorkPlan{
		OrderID:   orderID,
		Materials: req.Materials,
		Tools:     req.Tools,
		Labor:     req.Labor,
		Budget:    budget,
		Status:    models.WorkPlanBorrador,
		Notes:     strings.TrimSpace(req.Notes),
		CreatedBy: meta.UserID,
	}
	if wp.Tools == nil {
		wp.Tools = []models.Tool{}
	}
	if wp.Materials == nil {
		wp.Materials = []models.Material{}
	}
	if err := s.workplans.Create(ctx, wp); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrWorkPlanExists
		}
		return nil, err
	}

	entry := newAudit(meta, models.EntityWorkPlan, wp.ID, models.AuditCreate)
	entry.After = snapshot(wp)
	s.audit.Record(ctx, entry)
	return wp, nil
}

func (s *WorkPlanService) GetByOrder(ctx context.Context, orderID int) (*models.WorkPlan, error) {
	wp, err := s.workplans.FindByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrWorkPlanNotFound
		}
		return nil, err
	}
	return wp, nil
}

// Update replaces the plan contents. A rejected plan goes back to draft.
func (s *WorkPlanService) Update(ctx context.Context, orderID int, req models.WorkPlanRequest, meta models.RequestMeta) (*models.WorkPlan, error) {
	wp, err := s.GetByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if wp.Status == models.WorkPlanAprobado {
		return nil, ErrWorkPlanNotEditable
	}
	budget, err := computeBudget(req)
	if err != nil {
		return nil, err
	}
	before := snapshot(wp)

	wp.Materials = req.Materials
	wp.Tools = req.Tools
	wp.Labor = req.Labor
	wp.Budget = budget
	wp.Notes = strings.TrimSpace(req.Notes)
	if wp.Materials == nil {
		wp.Materials = []models.Material{}
	}
	if wp.Tools == nil {
		wp.Tools = []models.Tool{}
	}
	wp.Status = models.WorkPlanBorrador
	wp.RejectionReason = ""
	if err := s.workplans.Update(ctx, wp); err != nil {
		return nil, err
	}

	entry := newAudit(meta, models.EntityWorkPlan, wp.ID, models.AuditUpdate)
	entry.Before = before
	entry.After = snapshot(wp)
	s.audit.Record(ctx, entry)
	return wp, nil
}

func (s *WorkPlanService) Approve(ctx context.Context, orderID int, meta models.RequestMeta) (*models.WorkPlan, error) {
	wp, err := s.GetByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if wp.Status != models.WorkPlanBorrador {
		return nil, ErrWorkPlanNotPending
	}

	now := s.now()
	reviewer := meta.UserID
	wp.Status = models.WorkPlanAprobado
	wp.ApprovedBy = &reviewer
	wp.ApprovedAt = &now
	if err := s.workplans.Update(ctx, wp); err != nil {
		return nil, err
	}

	entry := newAudit(meta, models.EntityWorkPlan, wp.ID, models.AuditApprove)
	entry.After = map[string]interface{}{"status": wp.Status, "budget": wp.Budget}
	s.audit.Record(ctx, entry)
	return wp, nil
}

func (s *WorkPlanService) Reject(ctx context.Context, orderID int, reason string, meta models.RequestMeta) (*models.WorkPlan, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, invalid("reason", "is required to reject a work plan")
	}
	wp, err := s.GetByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if wp.Status != models.WorkPlanBorrador {
		return nil, ErrWorkPlanNotPending
	}

	wp.Status = models.WorkPlanRechazado
	wp.RejectionReason = reason
	wp.ApprovedBy = nil
	wp.ApprovedAt = nil
	if err := s.workplans.Update(ctx, wp); err != nil {
		return nil, err
	}

	entry := newAudit(meta, models.EntityWorkPlan, wp.ID, models.AuditReject)
	entry.Reason = reason
	s.audit.Record(ctx, entry)
	return wp, nil
}
