package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"cermont/models"
	"cermont/repositories"
)

type ExecutionService struct {
	executions ExecutionStore
	workplans  WorkPlanStore
	orders     OrderStore
	audit      *AuditService
	now        func() time.Time
}

func NewExecutionService(executions ExecutionStore, workplans WorkPlanStore, orders OrderStore, audit *AuditService) *ExecutionService {
	return &ExecutionService{executions: executions, workplans: workplans, orders: orders, audit: audit, now: time.Now}
}

func validateCoordinates(lat, lng *float64) error {
	if (lat == nil) != (lng == nil) {
		return invalid("location", "latitude and longitude must be provided together")
	}
	if lat == nil {
		return nil
	}
	if *lat < -90 || *lat > 90 {
		return invalid("latitude", "must be between -90 and 90")
	}
	if *lng < -180 || *lng > 180 {
		return invalid("longitude", "must be between -180 and 180")
	}
	return nil
}

func validatePoint(p *models.GeoPoint) error {
	if p == nil {
		return nil
	}
	return validateCoordinates(&p.Latitude, &p.Longitude)
}

func (s *ExecutionService) withHours(e *models.Execution) *models.Execution {
	e.WorkedHours = math.Round(e.WorkedTime(s.now()).Hours()*100) / 100
	return e
}

func (s *ExecutionService) observe(e *models.Execution, format string, args ...any) {
	line := fmt.Sprintf("[%s] %s", s.now().Format("2006-01-02 15:04"), fmt.Sprintf(format, args...))
	if e.Observations == "" {
		e.Observations = line
		return
	}
	e.Observations += "\n" + line
}

// Start opens the execution of an order whose work plan is approved.
func (s *ExecutionService) Start(ctx context.Context, orderID int, req models.StartExecutionRequest, meta models.RequestMeta) (*models.Execution, error) {
	if err := validatePoint(req.Location); err != nil {
		return nil, err
	}
	if req.EstimatedHours < 0 {
		return nil, invalid("estimated_hours", "cannot be negative")
	}

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
	if order.State != models.StateEjecucion {
		return nil, ErrOrderNotInExecution
	}

	wp, err := s.workplans.FindByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrWorkPlanNotApproved
		}
		return nil, err
	}
	if wp.Status != models.WorkPlanAprobado {
		return nil, ErrWorkPlanNotApproved
	}

	if _, err := s.executions.FindByOrderID(ctx, orderID); err == nil {
		return nil, ErrExecutionExists
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	now := s.now()
	starter := meta.UserID
	e := &models.Execution{
		OrderID:        orderID,
		WorkPlanID:     wp.ID,
		Status:         models.ExecutionEnProgreso,
		EstimatedHours: req.EstimatedHours,
		Tasks:          []models.Task{},
		TimeLogs:       []models.TimeLog{{StartedAt: now}},
		Location:       req.Location,
		StartedBy:      &starter,
		StartedAt:      &now,
	}
	for _, d := range req.Tasks {
		if d = strings.TrimSpace(d); d != "" {
			e.Tasks = append(e.Tasks, models.Task{ID: len(e.Tasks) + 1, Description: d})
		}
	}
	if note := strings.TrimSpace(req.Note); note != "" {
		s.observe(e, "started: %s", note)
	}

	if err := s.executions.Create(ctx, e); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrExecutionExists
		}
		return nil, err
	}

	entry := newAudit(meta, models.EntityExecution, e.ID, models.AuditCreate)
	entry.After = snapshot(e)
	s.audit.Record(ctx, entry)
	return s.withHours(e), nil
}

func (s *ExecutionService) GetByOrder(ctx context.Context, orderID int) (*models.Execution, error) {
	e, err := s.executions.FindByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrExecutionNotFound
		}
		return nil, err
	}
	return s.withHours(e), nil
}

func (s *ExecutionService) save(ctx context.Context, e *models.Execution, meta models.RequestMeta, reason string) (*models.Execution, error) {
	if err := s.executions.Update(ctx, e); err != nil {
		return nil, err
	}
	entry := newAudit(meta, models.EntityExecution, e.ID, models.AuditUpdate)
	entry.After = map[string]interface{}{"status": e.Status, "progress": e.Progress}
	entry.Reason = reason
	s.audit.Record(ctx, entry)
	return s.withHours(e), nil
}

func (s *ExecutionService) closeTimeLog(e *models.Execution) {
	now := s.now()
	for i := range e.TimeLogs {
		if e.TimeLogs[i].EndedAt == nil {
			e.TimeLogs[i].EndedAt = &now
		}
	}
}

func (s *ExecutionService) Pause(ctx context.Context, orderID int, reason string, meta models.RequestMeta) (*models.Execution, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, invalid("reason", "is required to pause an execution")
	}
	e, err := s.GetByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if e.Status != models.ExecutionEnProgreso {
		return nil, ErrExecutionNotActive
	}

	s.closeTimeLog(e)
	e.Status = models.ExecutionPausada
	s.observe(e, "paused: %s", reason)
	return s.save(ctx, e, meta, "paused: "+reason)
}

func (s *ExecutionService) Resume(ctx context.Context, orderID int, req models.ResumeRequest, meta models.RequestMeta) (*models.Execution, error) {
	if err := validatePoint(req.Location); err != nil {
		return nil, err
	}
	e, err := s.GetByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if e.Status != models.ExecutionPausada {
		return nil, ErrExecutionNotPaused
	}

	e.TimeLogs = append(e.TimeLogs, models.TimeLog{StartedAt: s.now()})
	e.Status = models.ExecutionEnProgreso
	if req.Location != nil {
		e.Location = req.Location
	}
	s.observe(e, "resumed")
	return s.save(ctx, e, meta, "resumed")
}

func (s *ExecutionService) UpdateProgress(ctx context.Context, orderID int, req models.ProgressRequest, meta models.RequestMeta) (*models.Execution, error) {
	if req.Progress < 0 || req.Progress > 100 {
		return nil, invalid("progress", "must be between 0 and 100")
	}
	e, err := s.GetByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if e.Status != models.ExecutionEnProgreso {
		return nil, ErrExecutionNotActive
	}

	e.Progress = req.Progress
	if notes := strings.TrimSpace(req.Notes); notes != "" {
		s.observe(e, "progress %d%%: %s", req.Progress, notes)
	}
	return s.save(ctx, e, meta, "")
}

func (s *ExecutionService) AddTask(ctx context.Context, orderID int, description string, meta models.RequestMeta) (*models.Execution, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, invalid("description", "is required")
	}
	e, err := s.GetByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if e.Status == models.ExecutionCompletada {
		return nil, ErrExecutionCompleted
	}

	next := 1
	for _, t := range e.Tasks {
		if t.ID >= next {
			next = t.ID + 1
		}
	}
	e.Tasks = append(e.Tasks, models.Task{ID: next, Description: description})
	e.Progress = taskProgress(e)
	return s.save(ctx, e, meta, "task added")
}

// taskProgress derives progress from task completion; without tasks the
// reported progress is kept.
func taskProgress(e *models.Execution) int {
	if len(e.Tasks) == 0 {
		return e.Progress
	}
	done := len(e.Tasks) - e.PendingTasks()
	return int(math.Round(float64(done) / float64(len(e.Tasks)) * 100))
}

func (s *ExecutionService) ToggleTask(ctx context.Context, orderID, taskID int, meta models.RequestMeta) (*models.Execution, error) {
	e, err := s.GetByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if e.Status == models.ExecutionCompletada {
		return nil, ErrExecutionCompleted
	}

	found := false
	for i := range e.Tasks {
		if e.Tasks[i].ID != taskID {
			continue
		}
		found = true
		t := &e.Tasks[i]
		t.Done = !t.Done
		if t.Done {
			now := s.now()
			by := meta.UserID
			t.DoneAt = &now
			t.DoneBy = &by
		} else {
			t.DoneAt = nil
			t.DoneBy = nil
		}
	}
	if !found {
		return nil, newError(ErrNotFound, "task not found")
	}

	e.Progress = taskProgress(e)
	return s.save(ctx, e, meta, "")
}

// Complete finalizes the execution. Every task must be done.
func (s *ExecutionService) Complete(ctx context.Context, orderID int, notes string, meta models.RequestMeta) (*models.Execution, error) {
	e, err := s.GetByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	switch e.Status {
	case models.ExecutionCompletada:
		return nil, ErrExecutionCompleted
	case models.ExecutionEnProgreso, models.ExecutionPausada:
	default:
		return nil, ErrExecutionNotActive
	}
	if pending := e.PendingTasks(); pending > 0 {
		return nil, fmt.Errorf("%w: %d remaining", ErrPendingTasks, pending)
	}
	if len(e.Tasks) > 0 {
		e.Progress = 100
	}
	if e.Progress != 100 {
		return nil, invalid("progress", "must be 100 to complete the execution")
	}

	now := s.now()
	by := meta.UserID
	s.closeTimeLog(e)
	e.Status = models.ExecutionCompletada
	e.CompletedAt = &now
	e.CompletedBy = &by
	if notes = strings.TrimSpace(notes); notes != "" {
		s.observe(e, "completed: %s", notes)
	}
	return s.save(ctx, e, meta, "completed")
}
