package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"cermont/models"
	"cermont/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newWorkPlanFixture(t *testing.T) (*WorkPlanService, *mockWorkPlanStore, *mockOrderStore) {
	t.Helper()
	workplans, orders, audit := &mockWorkPlanStore{}, &mockOrderStore{}, &mockAuditStore{}
	audit.On("Create", mock.Anything, mock.Anything).Return(nil).Maybe()
	svc := NewWorkPlanService(workplans, orders, NewAuditService(audit, zap.NewNop()))
	svc.now = func() time.Time { return fixedNow }
	return svc, workplans, orders
}

var samplePlan = models.WorkPlanRequest{
	Materials: []models.Material{{Name: "cable", Quantity: 10, Unit: "m", UnitCost: 2500}},
	Tools:     []models.Tool{{Name: "multimeter", Quantity: 1}},
	Labor:     models.Labor{Hours: 8, HourlyRate: 10000, OvertimeHours: 2},
}

func TestComputeBudget(t *testing.T) {
	t.Parallel()

	budget, err := computeBudget(samplePlan)
	require.NoError(t, err)
	assert.Equal(t, 25000.0+80000+30000, budget)

	tests := []struct {
		name string
		req  models.WorkPlanRequest
	}{
		{"empty", models.WorkPlanRequest{}},
		{"zero_quantity", models.WorkPlanRequest{Materials: []models.Material{{Name: "pipe", Quantity: 0}}}},
		{"negative_cost", models.WorkPlanRequest{Materials: []models.Material{{Name: "pipe", Quantity: 1, UnitCost: -1}}}},
		{"negative_labor", models.WorkPlanRequest{Tools: []models.Tool{{Name: "drill"}}, Labor: models.Labor{Hours: -1}}},
	}
	for _, tt := range tests {
		_, err := computeBudget(tt.req)
		assert.ErrorIs(t, err, ErrInvalid, tt.name)
	}
}

func TestWorkPlanCreate(t *testing.T) {
	t.Run("wrong_state", func(t *testing.T) {
		svc, _, orders := newWorkPlanFixture(t)
		orders.On("FindByID", mock.Anything, 10).Return(orderIn(models.StateSolicitud), nil)

		_, err := svc.Create(context.Background(), 10, samplePlan, supervisor)
		require.ErrorIs(t, err, ErrOrderNotPlannable)
	})

	t.Run("already_exists", func(t *testing.T) {
		svc, workplans, orders := newWorkPlanFixture(t)
		orders.On("FindByID", mock.Anything, 10).Return(orderIn(models.StatePO), nil)
		workplans.On("FindByOrderID", mock.Anything, 10).Return(&models.WorkPlan{ID: 1}, nil)

		_, err := svc.Create(context.Background(), 10, samplePlan, supervisor)
		require.ErrorIs(t, err, ErrWorkPlanExists)
	})

	t.Run("draft_with_budget", func(t *testing.T) {
		svc, workplans, orders := newWorkPlanFixture(t)
		orders.On("FindByID", mock.Anything, 10).Return(orderIn(models.StatePlaneacion), nil)
		workplans.On("FindByOrderID", mock.Anything, 10).Return(nil, repositories.ErrNotFound)
		workplans.On("Create", mock.Anything, mock.MatchedBy(func(wp *models.WorkPlan) bool {
			return wp.Status == models.WorkPlanBorrador && wp.Budget == 135000
		})).Return(nil)

		wp, err := svc.Create(context.Background(), 10, samplePlan, supervisor)
		require.NoError(t, err)
		assert.Equal(t, 10, wp.OrderID)
		workplans.AssertExpectations(t)
	})
}

func TestWorkPlanReview(t *testing.T) {
	t.Run("approve", func(t *testing.T) {
		svc, workplans, _ := newWorkPlanFixture(t)
		workplans.On("FindByOrderID", mock.Anything, 10).Return(&models.WorkPlan{ID: 1, Status: models.WorkPlanBorrador}, nil)
		workplans.On("Update", mock.Anything, mock.Anything).Return(nil)

		wp, err := svc.Approve(context.Background(), 10, supervisor)
		require.NoError(t, err)
		assert.Equal(t, models.WorkPlanAprobado, wp.Status)
		assert.Equal(t, supervisor.UserID, *wp.ApprovedBy)
		assert.Equal(t, fixedNow, *wp.ApprovedAt)
	})

	t.Run("approve_twice", func(t *testing.T) {
		svc, workplans, _ := newWorkPlanFixture(t)
		workplans.On("FindByOrderID", mock.Anything, 10).Return(&models.WorkPlan{ID: 1, Status: models.WorkPlanAprobado}, nil)

		_, err := svc.Approve(context.Background(), 10, supervisor)
		require.ErrorIs(t, err, ErrWorkPlanNotPending)
	})

	t.Run("reject_requires_reason", func(t *testing.T) {
		svc, _, _ := newWorkPlanFixture(t)
		_, err := svc.Reject(context.Background(), 10, "  ", supervisor)
		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "reason", verr.Field)
	})

	t.Run("update_rejected_returns_to_draft", func(t *testing.T) {
		svc, workplans, _ := newWorkPlanFixture(t)
		workplans.On("FindByOrderID", mock.Anything, 10).Return(&models.WorkPlan{
			ID: 1, Status: models.WorkPlanRechazado, RejectionReason: "too expensive",
		}, nil)
		workplans.On("Update", mock.Anything, mock.Anything).Return(nil)

		wp, err := svc.Update(context.Background(), 10, samplePlan, supervisor)
		require.NoError(t, err)
		assert.Equal(t, models.WorkPlanBorrador, wp.Status)
		assert.Empty(t, wp.RejectionReason)
	})

	t.Run("approved_is_frozen", func(t *testing.T) {
		svc, workplans, _ := newWorkPlanFixture(t)
		workplans.On("FindByOrderID", mock.Anything, 10).Return(&models.WorkPlan{ID: 1, Status: models.WorkPlanAprobado}, nil)

		_, err := svc.Update(context.Background(), 10, samplePlan, supervisor)
		require.ErrorIs(t, err, ErrWorkPlanNotEditable)
	})
}
