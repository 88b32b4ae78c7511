package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"cermont/models"
	"cermont/repositories"
	"cermont/utils"

	"go.uber.org/zap"
)

const (
	maxCommentLength       = 500
	DefaultAutoArchiveDays = 90
)

var validPriorities = map[string]bool{
	models.PriorityBaja:    true,
	models.PriorityMedia:   true,
	models.PriorityAlta:    true,
	models.PriorityUrgente: true,
}

type OrderService struct {
	orders     OrderStore
	workplans  WorkPlanStore
	executions ExecutionStore
	users      UserStore
	customers  CustomerStore
	audit      *AuditService
	notifier   Notifier
	log        *zap.Logger
	now        func() time.Time
}

func NewOrderService(
	orders OrderStore,
	workplans WorkPlanStore,
	executions ExecutionStore,
	users UserStore,
	customers CustomerStore,
	audit *AuditService,
	notifier Notifier,
	log *zap.Logger,
) *OrderService {
	return &OrderService{
		orders:     orders,
		workplans:  workplans,
		executions: executions,
		users:      users,
		customers:  customers,
		audit:      audit,
		notifier:   notifier,
		log:        log,
		now:        time.Now,
	}
}

func (s *OrderService) Create(ctx context.Context, req models.CreateOrderRequest, meta models.RequestMeta) (*models.Order, error) {
	cliente := strings.TrimSpace(req.Cliente)
	if req.CustomerID != nil {
		customer, err := s.customers.FindByID(ctx, *req.CustomerID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, ErrCustomerNotFound
			}
			return nil, err
		}
		if cliente == "" {
			cliente = customer.Name
		}
	}
	if cliente == "" {
		return nil, invalid("cliente", "is required")
	}
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return nil, invalid("description", "is required")
	}
	priority := req.Priority
	if priority == "" {
		priority = models.PriorityMedia
	}
	if !validPriorities[priority] {
		return nil, invalid("priority", "must be one of baja, media, alta, urgente")
	}
	if req.EstimatedBudget < 0 {
		return nil, invalid("estimated_budget", "cannot be negative")
	}

	now := s.now()
	order := &models.Order{
		CustomerID:      req.CustomerID,
		Cliente:         cliente,
		Description:     description,
		Location:        strings.TrimSpace(req.Location),
		State:           models.StateSolicitud,
		Priority:        priority,
		SupervisorID:    req.SupervisorID,
		EstimatedBudget: req.EstimatedBudget,
		StateChangedAt:  map[models.OrderState]time.Time{models.StateSolicitud: now},
		DueDate:         req.DueDate,
		CreatedBy:       meta.UserID,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}

	entry := newAudit(meta, models.EntityOrder, order.ID, models.AuditCreate)
	entry.After = snapshot(order)
	s.audit.Record(ctx, entry)
	return order, nil
}

func (s *OrderService) List(ctx context.Context, filter models.OrderFilter) ([]models.Order, int, error) {
	filter.Page, filter.Limit = utils.NormalizePage(filter.Page, filter.Limit, 10)
	if filter.State != "" && !filter.State.Valid() {
		return nil, 0, invalid("state", "unknown state %q", filter.State)
	}
	return s.orders.List(ctx, filter)
}

func (s *OrderService) ListArchived(ctx context.Context, filter models.OrderFilter) ([]models.Order, int, error) {
	filter.Archived = true
	return s.List(ctx, filter)
}

func (s *OrderService) Get(ctx context.Context, id int) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

// Update changes descriptive fields. State changes go through Transition.
func (s *OrderService) Update(ctx context.Context, id int, req models.UpdateOrderRequest, meta models.RequestMeta) (*models.Order, error) {
	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Archived {
		return nil, ErrOrderArchived
	}
	before := snapshot(order)

	if req.Cliente != nil {
		if strings.TrimSpace(*req.Cliente) == "" {
			return nil, invalid("cliente", "cannot be empty")
		}
		order.Cliente = strings.TrimSpace(*req.Cliente)
	}
	if req.Description != nil {
		if strings.TrimSpace(*req.Description) == "" {
			return nil, invalid("description", "cannot be empty")
		}
		order.Description = strings.TrimSpace(*req.Description)
	}
	if req.Location != nil {
		order.Location = strings.TrimSpace(*req.Location)
	}
	if req.Priority != nil {
		if !validPriorities[*req.Priority] {
			return nil, invalid("priority", "must be one of baja, media, alta, urgente")
		}
		order.Priority = *req.Priority
	}
	if req.SupervisorID != nil {
		order.SupervisorID = req.SupervisorID
	}
	if req.EstimatedBudget != nil {
		if *req.EstimatedBudget < 0 {
			return nil, invalid("estimated_budget", "cannot be negative")
		}
		order.EstimatedBudget = *req.EstimatedBudget
	}
	if req.DueDate != nil {
		order.DueDate = req.DueDate
	}

	if err := s.saveOrder(ctx, order); err != nil {
		return nil, err
	}

	entry := newAudit(meta, models.EntityOrder, order.ID, models.AuditUpdate)
	entry.Before = before
	entry.After = snapshot(order)
	s.audit.Record(ctx, entry)
	return order, nil
}

func (s *OrderService) Delete(ctx context.Context, id int, meta models.RequestMeta) error {
	order, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if order.State != models.StateSolicitud {
		return ErrOrderNotDeletable
	}
	if err := s.orders.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrOrderNotFound
		}
		return err
	}

	entry := newAudit(meta, models.EntityOrder, id, models.AuditDelete)
	entry.Before = snapshot(order)
	s.audit.Record(ctx, entry)
	return nil
}

// Transition moves an order to a new workflow state.
func (s *OrderService) Transition(ctx context.Context, orderID int, req models.TransitionRequest, meta models.RequestMeta) (*models.Order, error) {
	if orderID <= 0 {
		return nil, invalid("order_id", "must be a positive id")
	}
	if !req.State.Valid() {
		return nil, invalid("state", "unknown state %q", req.State)
	}
	if meta.UserID <= 0 {
		return nil, invalid("user_id", "is required")
	}
	comment := strings.TrimSpace(req.Comment)
	if utf8.RuneCountInString(comment) > maxCommentLength {
		return nil, invalid("comment", "must be at most %d characters", maxCommentLength)
	}

	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Archived {
		return nil, ErrOrderArchived
	}

	from := order.State
	if IsFinal(from) {
		return nil, &TransitionError{From: from, To: req.State}
	}
	if !CanTransition(from, req.State) {
		return nil, &TransitionError{From: from, To: req.State, Allowed: AllowedStates(from)}
	}
	if err := s.checkPrerequisites(ctx, order, req.State); err != nil {
		return nil, err
	}

	before := snapshot(order)
	now := s.now()

	order.State = req.State
	if order.StateChangedAt == nil {
		order.StateChangedAt = map[models.OrderState]time.Time{}
	}
	order.StateChangedAt[req.State] = now
	if comment != "" {
		line := fmt.Sprintf("[%s] %s -> %s: %s", now.Format("2006-01-02 15:04"), from, req.State, comment)
		if order.Notes == "" {
			order.Notes = line
		} else {
			order.Notes += "\n" + line
		}
	}
	if req.State == models.StateEjecucion && order.StartedAt == nil {
		order.StartedAt = &now
	}
	if req.State == models.StatePago {
		order.CompletedAt = &now
	}

	if err := s.orders.UpdateState(ctx, order, from); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return nil, ErrConcurrentUpdate
		}
		return nil, err
	}

	entry := newAudit(meta, models.EntityOrder, order.ID, models.AuditStateChange)
	entry.Before = before
	entry.After = snapshot(order)
	entry.Reason = comment
	s.audit.Record(ctx, entry)

	s.notifyStateChange(ctx, order, from, comment)
	return order, nil
}

func (s *OrderService) checkPrerequisites(ctx context.Context, order *models.Order, to models.OrderState) error {
	switch to {
	case models.StateEjecucion:
		wp, err := s.workplans.FindByOrderID(ctx, order.ID)
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return err
		}
		if wp == nil || wp.Status != models.WorkPlanAprobado {
			return &TransitionError{
				From:   order.State,
				To:     to,
				Reason: "an approved work plan is required before execution",
			}
		}
	case models.StateInforme:
		exec, err := s.executions.FindByOrderID(ctx, order.ID)
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return err
		}
		if exec == nil || exec.Status != models.ExecutionCompletada {
			return &TransitionError{
				From:   order.State,
				To:     to,
				Reason: "the execution must be completed before the report",
			}
		}
	}
	return nil
}

func (s *OrderService) notifyStateChange(ctx context.Context, order *models.Order, from models.OrderState, comment string) {
	if order.ResponsibleID == nil {
		return
	}
	tech, err := s.users.FindByID(ctx, *order.ResponsibleID)
	if err != nil {
		s.log.Warn("state change notification skipped", zap.Int("order_id", order.ID), zap.Error(err))
		return
	}
	if err := s.notifier.OrderStateChanged(ctx, tech, order, from, comment); err != nil {
		s.log.Warn("failed to queue state change notification", zap.Int("order_id", order.ID), zap.Error(err))
	}
}

// Assign sets the responsible technician of an order.
func (s *OrderService) Assign(ctx context.Context, orderID, technicianID int, meta models.RequestMeta) (*models.Order, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Archived {
		return nil, ErrOrderArchived
	}

	tech, err := s.users.FindByID(ctx, technicianID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !tech.Active || tech.Role != models.RoleTecnico {
		return nil, invalid("technician_id", "must be an active technician")
	}

	before := snapshot(order)
	order.ResponsibleID = &tech.ID
	if err := s.saveOrder(ctx, order); err != nil {
		return nil, err
	}

	entry := newAudit(meta, models.EntityOrder, order.ID, models.AuditAssign)
	entry.Before = before
	entry.After = snapshot(order)
	s.audit.Record(ctx, entry)

	if err := s.notifier.OrderAssigned(ctx, tech, order); err != nil {
		s.log.Warn("failed to queue assignment notification", zap.Int("order_id", order.ID), zap.Error(err))
	}
	return order, nil
}

// Archive hides a paid order from the active list.
func (s *OrderService) Archive(ctx context.Context, orderID int, reason string, meta models.RequestMeta) (*models.Order, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Archived {
		return nil, ErrOrderAlreadyArchived
	}
	if !IsFinal(order.State) {
		return nil, ErrOrderNotTerminal
	}

	now := s.now()
	order.Archived = true
	order.ArchivedAt = &now
	if err := s.saveOrder(ctx, order); err != nil {
		return nil, err
	}

	entry := newAudit(meta, models.EntityOrder, order.ID, models.AuditArchive)
	entry.After = map[string]interface{}{"archived": true, "archived_at": now}
	entry.Reason = strings.TrimSpace(reason)
	s.audit.Record(ctx, entry)
	return order, nil
}

func (s *OrderService) Unarchive(ctx context.Context, orderID int, meta models.RequestMeta) (*models.Order, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Archived {
		return nil, ErrOrderNotArchived
	}

	order.Archived = false
	order.ArchivedAt = nil
	if err := s.saveOrder(ctx, order); err != nil {
		return nil, err
	}

	entry := newAudit(meta, models.EntityOrder, order.ID, models.AuditUnarchive)
	entry.After = map[string]interface{}{"archived": false}
	s.audit.Record(ctx, entry)
	return order, nil
}

// AutoArchive archives paid orders completed more than days ago and
// returns how many were archived.
func (s *OrderService) AutoArchive(ctx context.Context, days int) (int, error) {
	if days <= 0 {
		days = DefaultAutoArchiveDays
	}
	cutoff := s.now().AddDate(0, 0, -days)

	orders, err := s.orders.FindArchivable(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	meta := models.RequestMeta{UserID: models.SystemUserID}
	reason := fmt.Sprintf("auto-archived %d days after completion", days)
	archived := 0
	for i := range orders {
		if err := ctx.Err(); err != nil {
			return archived, err
		}
		if _, err := s.Archive(ctx, orders[i].ID, reason, meta); err != nil {
			s.log.Warn("auto-archive failed", zap.Int("order_id", orders[i].ID), zap.Error(err))
			continue
		}
		archived++
	}

	s.log.Info("auto-archive finished", zap.Int("archived", archived), zap.Int("candidates", len(orders)))
	return archived, nil
}

func (s *OrderService) saveOrder(ctx context.Context, order *models.Order) error {
	if err := s.orders.Update(ctx, order); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return ErrConcurrentUpdate
		}
		return err
	}
	return nil
}

// History returns the audit trail of an order, newest first.
func (s *OrderService) History(ctx context.Context, orderID int) ([]models.AuditLog, error) {
	if _, err := s.Get(ctx, orderID); err != nil {
		return nil, err
	}
	return s.audit.History(ctx, models.EntityOrder, orderID)
}
