package services

import (
	"context"
	"time"

	"cermont/models"
)

// Storage interfaces are satisfied by the pgx repositories.

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id int) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, userID int, hashedPassword string) error
	RecordFailedLogin(ctx context.Context, userID, attempts int, lockedUntil *time.Time, at time.Time) error
	RecordSuccessfulLogin(ctx context.Context, userID int, at time.Time) error
	Unlock(ctx context.Context, userID int) error
	SetActive(ctx context.Context, userID int, active bool) error
	Delete(ctx context.Context, id int) error
}

type TokenStore interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	FindByToken(ctx context.Context, token string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id int) error
	RevokeFamily(ctx context.Context, family string) error
	RevokeAllForUser(ctx context.Context, userID int) error
}

type CustomerStore interface {
	Create(ctx context.Context, c *models.Customer) error
	FindByID(ctx context.Context, id int) (*models.Customer, error)
	List(ctx context.Context, search string, page, limit int) ([]models.Customer, int, error)
	Update(ctx context.Context, c *models.Customer) error
	Delete(ctx context.Context, id int) error
}

type OrderStore interface {
	Create(ctx context.Context, o *models.Order) error
	FindByID(ctx context.Context, id int) (*models.Order, error)
	List(ctx context.Context, filter models.OrderFilter) ([]models.Order, int, error)
	Update(ctx context.Context, o *models.Order) error
	UpdateState(ctx context.Context, o *models.Order, from models.OrderState) error
	Delete(ctx context.Context, id int) error
	FindArchivable(ctx context.Context, cutoff time.Time) ([]models.Order, error)
}

type WorkPlanStore interface {
	Create(ctx context.Context, wp *models.WorkPlan) error
	FindByID(ctx context.Context, id int) (*models.WorkPlan, error)
	FindByOrderID(ctx context.Context, orderID int) (*models.WorkPlan, error)
	Update(ctx context.Context, wp *models.WorkPlan) error
}

type ExecutionStore interface {
	Create(ctx context.Context, e *models.Execution) error
	FindByID(ctx context.Context, id int) (*models.Execution, error)
	FindByOrderID(ctx context.Context, orderID int) (*models.Execution, error)
	Update(ctx context.Context, e *models.Execution) error
}

type ChecklistStore interface {
	UpsertTemplate(ctx context.Context, t *models.ChecklistTemplate) error
	FindTemplate(ctx context.Context, id int) (*models.ChecklistTemplate, error)
	ListTemplates(ctx context.Context) ([]models.ChecklistTemplate, error)
	Create(ctx context.Context, c *models.Checklist) error
	FindByID(ctx context.Context, id int) (*models.Checklist, error)
	ListByExecution(ctx context.Context, executionID int) ([]models.Checklist, error)
	Update(ctx context.Context, c *models.Checklist) error
}

type EvidenceStore interface {
	Create(ctx context.Context, e *models.Evidence) error
	FindByID(ctx context.Context, id int) (*models.Evidence, error)
	ListByOrder(ctx context.Context, orderID int, filter models.EvidenceFilter) ([]models.Evidence, error)
	UpdateReview(ctx context.Context, e *models.Evidence) error
	Delete(ctx context.Context, id int) error
	CountByStatus(ctx context.Context, orderID int) (map[string]int, error)
}

type CostStore interface {
	Create(ctx context.Context, item *models.CostItem) error
	FindByID(ctx context.Context, id int) (*models.CostItem, error)
	ListByOrder(ctx context.Context, orderID int) ([]models.CostItem, error)
	Delete(ctx context.Context, id int) error
}

type AuditStore interface {
	Create(ctx context.Context, a *models.AuditLog) error
	ListByEntity(ctx context.Context, entityType string, entityID int) ([]models.AuditLog, error)
	List(ctx context.Context, entityType string, page, limit int) ([]models.AuditLog, int, error)
}

type StatsStore interface {
	CountByState(ctx context.Context) (map[models.OrderState]int, int, error)
	CycleSamples(ctx context.Context) ([]models.CycleSample, error)
	CompletedSince(ctx context.Context, since time.Time) (int, error)
	Workload(ctx context.Context) ([]models.Workload, error)
	DueOrders(ctx context.Context, before time.Time) ([]models.DueOrder, error)
	CostTotals(ctx context.Context) (float64, float64, error)
}

// Notifier delivers user-facing notifications. Implementations queue the
// work; a returned error means the notification was not accepted.
type Notifier interface {
	OrderAssigned(ctx context.Context, technician *models.User, order *models.Order) error
	OrderStateChanged(ctx context.Context, recipient *models.User, order *models.Order, from models.OrderState, comment string) error
	EvidenceRejected(ctx context.Context, uploader *models.User, order *models.Order, evidence *models.Evidence) error
	PasswordReset(ctx context.Context, email, otp string) error
}
