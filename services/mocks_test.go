package services

import (
	"context"
	"io"
	"time"

	"cermont/libs"
	"cermont/models"

	"github.com/stretchr/testify/mock"
)

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) Create(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserStore) FindByID(ctx context.Context, id int) (*models.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockUserStore) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	args := m.Called(ctx, filter)
	users, _ := args.Get(0).([]models.User)
	return users, args.Int(1), args.Error(2)
}

func (m *mockUserStore) Update(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserStore) UpdatePassword(ctx context.Context, userID int, hashedPassword string) error {
	return m.Called(ctx, userID, hashedPassword).Error(0)
}

func (m *mockUserStore) RecordFailedLogin(ctx context.Context, userID, attempts int, lockedUntil *time.Time, at time.Time) error {
	return m.Called(ctx, userID, attempts, lockedUntil, at).Error(0)
}

func (m *mockUserStore) RecordSuccessfulLogin(ctx context.Context, userID int, at time.Time) error {
	return m.Called(ctx, userID, at).Error(0)
}

func (m *mockUserStore) Unlock(ctx context.Context, userID int) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockUserStore) SetActive(ctx context.Context, userID int, active bool) error {
	return m.Called(ctx, userID, active).Error(0)
}

func (m *mockUserStore) Delete(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

type mockTokenStore struct{ mock.Mock }

func (m *mockTokenStore) Create(ctx context.Context, token *models.RefreshToken) error {
	return m.Called(ctx, token).Error(0)
}

func (m *mockTokenStore) FindByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	args := m.Called(ctx, token)
	t, _ := args.Get(0).(*models.RefreshToken)
	return t, args.Error(1)
}

func (m *mockTokenStore) Revoke(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockTokenStore) RevokeFamily(ctx context.Context, family string) error {
	return m.Called(ctx, family).Error(0)
}

func (m *mockTokenStore) RevokeAllForUser(ctx context.Context, userID int) error {
	return m.Called(ctx, userID).Error(0)
}

type mockCustomerStore struct{ mock.Mock }

func (m *mockCustomerStore) Create(ctx context.Context, c *models.Customer) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockCustomerStore) FindByID(ctx context.Context, id int) (*models.Customer, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*models.Customer)
	return c, args.Error(1)
}

func (m *mockCustomerStore) List(ctx context.Context, search string, page, limit int) ([]models.Customer, int, error) {
	args := m.Called(ctx, search, page, limit)
	c, _ := args.Get(0).([]models.Customer)
	return c, args.Int(1), args.Error(2)
}

func (m *mockCustomerStore) Update(ctx context.Context, c *models.Customer) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockCustomerStore) Delete(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

type mockOrderStore struct{ mock.Mock }

func (m *mockOrderStore) Create(ctx context.Context, o *models.Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *mockOrderStore) FindByID(ctx context.Context, id int) (*models.Order, error) {
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(*models.Order)
	return o, args.Error(1)
}

func (m *mockOrderStore) List(ctx context.Context, filter models.OrderFilter) ([]models.Order, int, error) {
	args := m.Called(ctx, filter)
	o, _ := args.Get(0).([]models.Order)
	return o, args.Int(1), args.Error(2)
}

func (m *mockOrderStore) Update(ctx context.Context, o *models.Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *mockOrderStore) UpdateState(ctx context.Context, o *models.Order, from models.OrderState) error {
	return m.Called(ctx, o, from).Error(0)
}

func (m *mockOrderStore) Delete(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockOrderStore) FindArchivable(ctx context.Context, cutoff time.Time) ([]models.Order, error) {
	args := m.Called(ctx, cutoff)
	o, _ := args.Get(0).([]models.Order)
	return o, args.Error(1)
}

type mockWorkPlanStore struct{ mock.Mock }

func (m *mockWorkPlanStore) Create(ctx context.Context, wp *models.WorkPlan) error {
	return m.Called(ctx, wp).Error(0)
}

func (m *mockWorkPlanStore) FindByID(ctx context.Context, id int) (*models.WorkPlan, error) {
	args := m.Called(ctx, id)
	wp, _ := args.Get(0).(*models.WorkPlan)
	return wp, args.Error(1)
}

func (m *mockWorkPlanStore) FindByOrderID(ctx context.Context, orderID int) (*models.WorkPlan, error) {
	args := m.Called(ctx, orderID)
	wp, _ := args.Get(0).(*models.WorkPlan)
	return wp, args.Error(1)
}

func (m *mockWorkPlanStore) Update(ctx context.Context, wp *models.WorkPlan) error {
	return m.Called(ctx, wp).Error(0)
}

type mockExecutionStore struct{ mock.Mock }

func (m *mockExecutionStore) Create(ctx context.Context, e *models.Execution) error {
	return m.Called(ctx, e).Error(0)
}

func (m *mockExecutionStore) FindByID(ctx context.Context, id int) (*models.Execution, error) {
	args := m.Called(ctx, id)
	e, _ := args.Get(0).(*models.Execution)
	return e, args.Error(1)
}

func (m *mockExecutionStore) FindByOrderID(ctx context.Context, orderID int) (*models.Execution, error) {
	args := m.Called(ctx, orderID)
	e, _ := args.Get(0).(*models.Execution)
	return e, args.Error(1)
}

func (m *mockExecutionStore) Update(ctx context.Context, e *models.Execution) error {
	return m.Called(ctx, e).Error(0)
}

type mockChecklistStore struct{ mock.Mock }

func (m *mockChecklistStore) UpsertTemplate(ctx context.Context, t *models.ChecklistTemplate) error {
	return m.Called(ctx, t).Error(0)
}

func (m *mockChecklistStore) FindTemplate(ctx context.Context, id int) (*models.ChecklistTemplate, error) {
	args := m.Called(ctx, id)
	t, _ := args.Get(0).(*models.ChecklistTemplate)
	return t, args.Error(1)
}

func (m *mockChecklistStore) ListTemplates(ctx context.Context) ([]models.ChecklistTemplate, error) {
	args := m.Called(ctx)
	t, _ := args.Get(0).([]models.ChecklistTemplate)
	return t, args.Error(1)
}

func (m *mockChecklistStore) Create(ctx context.Context, c *models.Checklist) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockChecklistStore) FindByID(ctx context.Context, id int) (*models.Checklist, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*models.Checklist)
	return c, args.Error(1)
}

func (m *mockChecklistStore) ListByExecution(ctx context.Context, executionID int) ([]models.Checklist, error) {
	args := m.Called(ctx, executionID)
	c, _ := args.Get(0).([]models.Checklist)
	return c, args.Error(1)
}

func (m *mockChecklistStore) Update(ctx context.Context, c *models.Checklist) error {
	return m.Called(ctx, c).Error(0)
}

type mockEvidenceStore struct{ mock.Mock }

func (m *mockEvidenceStore) Create(ctx context.Context, e *models.Evidence) error {
	return m.Called(ctx, e).Error(0)
}

func (m *mockEvidenceStore) FindByID(ctx context.Context, id int) (*models.Evidence, error) {
	args := m.Called(ctx, id)
	e, _ := args.Get(0).(*models.Evidence)
	return e, args.Error(1)
}

func (m *mockEvidenceStore) ListByOrder(ctx context.Context, orderID int, filter models.EvidenceFilter) ([]models.Evidence, error) {
	args := m.Called(ctx, orderID, filter)
	e, _ := args.Get(0).([]models.Evidence)
	return e, args.Error(1)
}

func (m *mockEvidenceStore) UpdateReview(ctx context.Context, e *models.Evidence) error {
	return m.Called(ctx, e).Error(0)
}

func (m *mockEvidenceStore) Delete(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockEvidenceStore) CountByStatus(ctx context.Context, orderID int) (map[string]int, error) {
	args := m.Called(ctx, orderID)
	c, _ := args.Get(0).(map[string]int)
	return c, args.Error(1)
}

type mockCostStore struct{ mock.Mock }

func (m *mockCostStore) Create(ctx context.Context, item *models.CostItem) error {
	return m.Called(ctx, item).Error(0)
}

func (m *mockCostStore) FindByID(ctx context.Context, id int) (*models.CostItem, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*models.CostItem)
	return c, args.Error(1)
}

func (m *mockCostStore) ListByOrder(ctx context.Context, orderID int) ([]models.CostItem, error) {
	args := m.Called(ctx, orderID)
	c, _ := args.Get(0).([]models.CostItem)
	return c, args.Error(1)
}

func (m *mockCostStore) Delete(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

type mockAuditStore struct{ mock.Mock }

func (m *mockAuditStore) Create(ctx context.Context, a *models.AuditLog) error {
	return m.Called(ctx, a).Error(0)
}

func (m *mockAuditStore) ListByEntity(ctx context.Context, entityType string, entityID int) ([]models.AuditLog, error) {
	args := m.Called(ctx, entityType, entityID)
	l, _ := args.Get(0).([]models.AuditLog)
	return l, args.Error(1)
}

func (m *mockAuditStore) List(ctx context.Context, entityType string, page, limit int) ([]models.AuditLog, int, error) {
	args := m.Called(ctx, entityType, page, limit)
	l, _ := args.Get(0).([]models.AuditLog)
	return l, args.Int(1), args.Error(2)
}

type mockStatsStore struct{ mock.Mock }

func (m *mockStatsStore) CountByState(ctx context.Context) (map[models.OrderState]int, int, error) {
	args := m.Called(ctx)
	c, _ := args.Get(0).(map[models.OrderState]int)
	return c, args.Int(1), args.Error(2)
}

func (m *mockStatsStore) CycleSamples(ctx context.Context) ([]models.CycleSample, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).([]models.CycleSample)
	return s, args.Error(1)
}

func (m *mockStatsStore) CompletedSince(ctx context.Context, since time.Time) (int, error) {
	args := m.Called(ctx, since)
	return args.Int(0), args.Error(1)
}

func (m *mockStatsStore) Workload(ctx context.Context) ([]models.Workload, error) {
	args := m.Called(ctx)
	w, _ := args.Get(0).([]models.Workload)
	return w, args.Error(1)
}

func (m *mockStatsStore) DueOrders(ctx context.Context, before time.Time) ([]models.DueOrder, error) {
	args := m.Called(ctx, before)
	d, _ := args.Get(0).([]models.DueOrder)
	return d, args.Error(1)
}

func (m *mockStatsStore) CostTotals(ctx context.Context) (float64, float64, error) {
	args := m.Called(ctx)
	return args.Get(0).(float64), args.Get(1).(float64), args.Error(2)
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) OrderAssigned(ctx context.Context, technician *models.User, order *models.Order) error {
	return m.Called(ctx, technician, order).Error(0)
}

func (m *mockNotifier) OrderStateChanged(ctx context.Context, recipient *models.User, order *models.Order, from models.OrderState, comment string) error {
	return m.Called(ctx, recipient, order, from, comment).Error(0)
}

func (m *mockNotifier) EvidenceRejected(ctx context.Context, uploader *models.User, order *models.Order, evidence *models.Evidence) error {
	return m.Called(ctx, uploader, order, evidence).Error(0)
}

func (m *mockNotifier) PasswordReset(ctx context.Context, email, otp string) error {
	return m.Called(ctx, email, otp).Error(0)
}

type mockStorage struct{ mock.Mock }

func (m *mockStorage) Save(ctx context.Context, key string, r io.Reader, contentType string) (libs.StoredFile, error) {
	args := m.Called(ctx, key, r, contentType)
	return args.Get(0).(libs.StoredFile), args.Error(1)
}

func (m *mockStorage) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}
