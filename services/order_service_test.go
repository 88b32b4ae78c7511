package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"cermont/models"
	"cermont/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type orderFixture struct {
	svc        *OrderService
	orders     *mockOrderStore
	workplans  *mockWorkPlanStore
	executions *mockExecutionStore
	users      *mockUserStore
	customers  *mockCustomerStore
	audit      *mockAuditStore
	notifier   *mockNotifier
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	f := &orderFixture{
		orders:     &mockOrderStore{},
		workplans:  &mockWorkPlanStore{},
		executions: &mockExecutionStore{},
		users:      &mockUserStore{},
		customers:  &mockCustomerStore{},
		audit:      &mockAuditStore{},
		notifier:   &mockNotifier{},
	}
	f.audit.On("Create", mock.Anything, mock.Anything).Return(nil).Maybe()
	f.svc = NewOrderService(f.orders, f.workplans, f.executions, f.users, f.customers,
		NewAuditService(f.audit, zap.NewNop()), f.notifier, zap.NewNop())
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

var supervisor = models.RequestMeta{UserID: 2, Role: models.RoleSupervisor, IP: "10.0.0.2"}

func orderIn(state models.OrderState) *models.Order {
	return &models.Order{
		ID:             10,
		Numero:         "OT-2026-00010",
		Cliente:        "Ecopetrol",
		State:          state,
		StateChangedAt: map[models.OrderState]time.Time{},
	}
}

func TestTransition_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		orderID int
		req     models.TransitionRequest
		meta    models.RequestMeta
		field   string
	}{
		{"bad_order_id", 0, models.TransitionRequest{State: models.StateVisita}, supervisor, "order_id"},
		{"unknown_state", 10, models.TransitionRequest{State: "cerrada"}, supervisor, "state"},
		{"missing_user", 10, models.TransitionRequest{State: models.StateVisita}, models.RequestMeta{}, "user_id"},
		{"long_comment", 10, models.TransitionRequest{State: models.StateVisita, Comment: strings.Repeat("a", 501)}, supervisor, "comment"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newOrderFixture(t)

			_, err := f.svc.Transition(context.Background(), tt.orderID, tt.req, tt.meta)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.field, verr.Field)
			f.orders.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
		})
	}
}

func TestTransition_NotFound(t *testing.T) {
	f := newOrderFixture(t)
	f.orders.On("FindByID", mock.Anything, 10).Return(nil, repositories.ErrNotFound)

	_, err := f.svc.Transition(context.Background(), 10, models.TransitionRequest{State: models.StateVisita}, supervisor)
	require.ErrorIs(t, err, ErrOrderNotFound)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTransition_ArchivedOrder(t *testing.T) {
	f := newOrderFixture(t)
	o := orderIn(models.StatePago)
	o.Archived = true
	f.orders.On("FindByID", mock.Anything, 10).Return(o, nil)

	_, err := f.svc.Transition(context.Background(), 10, models.TransitionRequest{State: models.StateFactura}, supervisor)
	require.ErrorIs(t, err, ErrOrderArchived)
}

func TestTransition_FinalState(t *testing.T) {
	f := newOrderFixture(t)
	f.orders.On("FindByID", mock.Anything, 10).Return(orderIn(models.StatePago), nil)

	_, err := f.svc.Transition(context.Background(), 10, models.TransitionRequest{State: models.StateFactura}, supervisor)

	var terr *TransitionError
	require.True(t, errors.As(err, &terr))
	assert.Empty(t, terr.Allowed)
	assert.Contains(t, err.Error(), "final state pago")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestTransition_NotInTable(t *testing.T) {
	f := newOrderFixture(t)
	f.orders.On("FindByID", mock.Anything, 10).Return(orderIn(models.StateSolicitud), nil)

	_, err := f.svc.Transition(context.Background(), 10, models.TransitionRequest{State: models.StatePago}, supervisor)

	var terr *TransitionError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, []models.OrderState{models.StateVisita}, terr.Allowed)
	f.orders.AssertNotCalled(t, "UpdateState", mock.Anything, mock.Anything, mock.Anything)
}

func TestTransition_RequiresApprovedWorkPlan(t *testing.T) {
	tests := []struct {
		name string
		plan *models.WorkPlan
		err  error
	}{
		{"missing", nil, repositories.ErrNotFound},
		{"draft", &models.WorkPlan{Status: models.WorkPlanBorrador}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrderFixture(t)
			f.orders.On("FindByID", mock.Anything, 10).Return(orderIn(models.StatePlaneacion), nil)
			f.workplans.On("FindByOrderID", mock.Anything, 10).Return(tt.plan, tt.err)

			_, err := f.svc.Transition(context.Background(), 10, models.TransitionRequest{State: models.StateEjecucion}, supervisor)

			var terr *TransitionError
			require.True(t, errors.As(err, &terr))
			assert.Contains(t, terr.Reason, "approved work plan")
		})
	}
}

func TestTransition_ReportRequiresCompletedExecution(t *testing.T) {
	f := newOrderFixture(t)
	f.orders.On("FindByID", mock.Anything, 10).Return(orderIn(models.StateEjecucion), nil)
	f.executions.On("FindByOrderID", mock.Anything, 10).Return(&models.Execution{Status: models.ExecutionEnProgreso}, nil)

	_, err := f.svc.Transition(context.Background(), 10, models.TransitionRequest{State: models.StateInforme}, supervisor)

	var terr *TransitionError
	require.True(t, errors.As(err, &terr))
	assert.Contains(t, terr.Reason, "execution must be completed")
}

func TestTransition_Success(t *testing.T) {
	f := newOrderFixture(t)
	techID := 7
	o := orderIn(models.StatePlaneacion)
	o.ResponsibleID = &techID
	o.Notes = "created"
	tech := &models.User{ID: 7, Email: "tec@cermont.co", Role: models.RoleTecnico, Active: true}

	f.orders.On("FindByID", mock.Anything, 10).Return(o, nil)
	f.workplans.On("FindByOrderID", mock.Anything, 10).Return(&models.WorkPlan{Status: models.WorkPlanAprobado}, nil)
	f.orders.On("UpdateState", mock.Anything, mock.AnythingOfType("*models.Order"), models.StatePlaneacion).Return(nil)
	f.users.On("FindByID", mock.Anything, 7).Return(tech, nil)
	f.notifier.On("OrderStateChanged", mock.Anything, tech, mock.Anything, models.StatePlaneacion, "materials on site").Return(nil)

	got, err := f.svc.Transition(context.Background(), 10,
		models.TransitionRequest{State: models.StateEjecucion, Comment: " materials on site "}, supervisor)

	require.NoError(t, err)
	assert.Equal(t, models.StateEjecucion, got.State)
	assert.Equal(t, fixedNow, got.StateChangedAt[models.StateEjecucion])
	require.NotNil(t, got.StartedAt)
	assert.Equal(t, fixedNow, *got.StartedAt)
	assert.Nil(t, got.CompletedAt)
	assert.Equal(t, "created\n[2026-03-10 09:00] planeacion -> ejecucion: materials on site", got.Notes)

	f.orders.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
	f.audit.AssertCalled(t, "Create", mock.Anything, mock.MatchedBy(func(a *models.AuditLog) bool {
		return a.Action == models.AuditStateChange &&
			a.UserID == supervisor.UserID &&
			a.Before["state"] == "planeacion" &&
			a.After["state"] == "ejecucion" &&
			a.Reason == "materials on site"
	}))
}

func TestTransition_ToPagoSetsCompletedAt(t *testing.T) {
	f := newOrderFixture(t)
	f.orders.On("FindByID", mock.Anything, 10).Return(orderIn(models.StateFactura), nil)
	f.orders.On("UpdateState", mock.Anything, mock.Anything, models.StateFactura).Return(nil)

	got, err := f.svc.Transition(context.Background(), 10, models.TransitionRequest{State: models.StatePago}, supervisor)

	require.NoError(t, err)
	require.NotNil(t, got.CompletedAt)
	assert.Empty(t, got.Notes)
	f.notifier.AssertNotCalled(t, "OrderStateChanged", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestTransition_NotificationFailureIsNotFatal(t *testing.T) {
	f := newOrderFixture(t)
	techID := 7
	o := orderIn(models.StateSolicitud)
	o.ResponsibleID = &techID
	f.orders.On("FindByID", mock.Anything, 10).Return(o, nil)
	f.orders.On("UpdateState", mock.Anything, mock.Anything, models.StateSolicitud).Return(nil)
	f.users.On("FindByID", mock.Anything, 7).Return(&models.User{ID: 7}, nil)
	f.notifier.On("OrderStateChanged", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("queue full"))

	_, err := f.svc.Transition(context.Background(), 10, models.TransitionRequest{State: models.StateVisita}, supervisor)
	require.NoError(t, err)
}

func TestTransition_ConcurrentUpdate(t *testing.T) {
	f := newOrderFixture(t)
	f.orders.On("FindByID", mock.Anything, 10).Return(orderIn(models.StateSolicitud), nil)
	f.orders.On("UpdateState", mock.Anything, mock.Anything, models.StateSolicitud).Return(repositories.ErrConflict)

	_, err := f.svc.Transition(context.Background(), 10, models.TransitionRequest{State: models.StateVisita}, supervisor)
	require.ErrorIs(t, err, ErrConcurrentUpdate)
	f.audit.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateOrder(t *testing.T) {
	t.Run("requires_cliente", func(t *testing.T) {
		f := newOrderFixture(t)
		_, err := f.svc.Create(context.Background(), models.CreateOrderRequest{Description: "x"}, supervisor)
		assert.ErrorIs(t, err, ErrInvalid)
	})

	t.Run("rejects_priority", func(t *testing.T) {
		f := newOrderFixture(t)
		_, err := f.svc.Create(context.Background(), models.CreateOrderRequest{Cliente: "A", Description: "x", Priority: "max"}, supervisor)
		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "priority", verr.Field)
	})

	t.Run("fills_cliente_from_customer", func(t *testing.T) {
		f := newOrderFixture(t)
		customerID := 4
		f.customers.On("FindByID", mock.Anything, 4).Return(&models.Customer{ID: 4, Name: "Hocol"}, nil)
		f.orders.On("Create", mock.Anything, mock.MatchedBy(func(o *models.Order) bool {
			return o.Cliente == "Hocol" &&
				o.State == models.StateSolicitud &&
				o.Priority == models.PriorityMedia &&
				o.CreatedBy == 2 &&
				o.StateChangedAt[models.StateSolicitud].Equal(fixedNow)
		})).Run(func(args mock.Arguments) {
			o := args.Get(1).(*models.Order)
			o.ID = 11
			o.Numero = "OT-2026-00011"
		}).Return(nil)

		got, err := f.svc.Create(context.Background(), models.CreateOrderRequest{CustomerID: &customerID, Description: "pump repair"}, supervisor)

		require.NoError(t, err)
		assert.Equal(t, "OT-2026-00011", got.Numero)
		f.orders.AssertExpectations(t)
	})
}

func TestDeleteOrder_OnlySolicitud(t *testing.T) {
	f := newOrderFixture(t)
	f.orders.On("FindByID", mock.Anything, 10).Return(orderIn(models.StateVisita), nil)

	err := f.svc.Delete(context.Background(), 10, supervisor)
	require.ErrorIs(t, err, ErrOrderNotDeletable)
	f.orders.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestAssign(t *testing.T) {
	tests := []struct {
		name    string
		user    *models.User
		findErr error
		wantErr error
	}{
		{"unknown_user", nil, repositories.ErrNotFound, ErrUserNotFound},
		{"inactive", &models.User{ID: 7, Role: models.RoleTecnico, Active: false}, nil, ErrInvalid},
		{"not_technician", &models.User{ID: 7, Role: models.RoleSupervisor, Active: true}, nil, ErrInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrderFixture(t)
			f.orders.On("FindByID", mock.Anything, 10).Return(orderIn(models.StateVisita), nil)
			f.users.On("FindByID", mock.Anything, 7).Return(tt.user, tt.findErr)

			_, err := f.svc.Assign(context.Background(), 10, 7, supervisor)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("success", func(t *testing.T) {
		f := newOrderFixture(t)
		tech := &models.User{ID: 7, Role: models.RoleTecnico, Active: true}
		f.orders.On("FindByID", mock.Anything, 10).Return(orderIn(models.StateVisita), nil)
		f.users.On("FindByID", mock.Anything, 7).Return(tech, nil)
		f.orders.On("Update", mock.Anything, mock.MatchedBy(func(o *models.Order) bool {
			return o.ResponsibleID != nil && *o.ResponsibleID == 7
		})).Return(nil)
		f.notifier.On("OrderAssigned", mock.Anything, tech, mock.Anything).Return(nil)

		got, err := f.svc.Assign(context.Background(), 10, 7, supervisor)
		require.NoError(t, err)
		assert.Equal(t, 7, *got.ResponsibleID)
		f.notifier.AssertExpectations(t)
		f.audit.AssertCalled(t, "Create", mock.Anything, auditAction(models.AuditAssign))
	})
}

func TestAssign_StaleOrder(t *testing.T) {
	f := newOrderFixture(t)
	tech := &models.User{ID: 7, Role: models.RoleTecnico, Active: true}
	f.orders.On("FindByID", mock.Anything, 10).Return(orderIn(models.StateVisita), nil)
	f.users.On("FindByID", mock.Anything, 7).Return(tech, nil)
	f.orders.On("Update", mock.Anything, mock.Anything).Return(repositories.ErrConflict)

	_, err := f.svc.Assign(context.Background(), 10, 7, supervisor)

	require.ErrorIs(t, err, ErrConcurrentUpdate)
	require.ErrorIs(t, err, ErrConflict)
	f.audit.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.notifier.AssertNotCalled(t, "OrderAssigned", mock.Anything, mock.Anything, mock.Anything)
}

func TestArchive(t *testing.T) {
	t.Run("not_found", func(t *testing.T) {
		f := newOrderFixture(t)
		f.orders.On("FindByID", mock.Anything, 10).Return(nil, repositories.ErrNotFound)
		_, err := f.svc.Archive(context.Background(), 10, "", supervisor)
		require.ErrorIs(t, err, ErrOrderNotFound)
	})

	t.Run("already_archived", func(t *testing.T) {
		f := newOrderFixture(t)
		o := orderIn(models.StatePago)
		o.Archived = true
		f.orders.On("FindByID", mock.Anything, 10).Return(o, nil)
		_, err := f.svc.Archive(context.Background(), 10, "", supervisor)
		require.ErrorIs(t, err, ErrOrderAlreadyArchived)
	})

	t.Run("non_terminal", func(t *testing.T) {
		f := newOrderFixture(t)
		f.orders.On("FindByID", mock.Anything, 10).Return(orderIn(models.StateFactura), nil)
		_, err := f.svc.Archive(context.Background(), 10, "", supervisor)
		require.ErrorIs(t, err, ErrOrderNotTerminal)
		assert.Equal(t, "cannot archive a non-terminal order", err.Error())
	})

	t.Run("success", func(t *testing.T) {
		f := newOrderFixture(t)
		f.orders.On("FindByID", mock.Anything, 10).Return(orderIn(models.StatePago), nil)
		f.orders.On("Update", mock.Anything, mock.MatchedBy(func(o *models.Order) bool {
			return o.Archived && o.ArchivedAt != nil && o.ArchivedAt.Equal(fixedNow)
		})).Return(nil)

		got, err := f.svc.Archive(context.Background(), 10, "closed out", supervisor)
		require.NoError(t, err)
		assert.True(t, got.Archived)
		f.audit.AssertCalled(t, "Create", mock.Anything, mock.MatchedBy(func(a *models.AuditLog) bool {
			return a.Action == models.AuditArchive && a.Reason == "closed out"
		}))
	})
}

func TestUnarchive_RequiresArchived(t *testing.T) {
	f := newOrderFixture(t)
	f.orders.On("FindByID", mock.Anything, 10).Return(orderIn(models.StatePago), nil)

	_, err := f.svc.Unarchive(context.Background(), 10, supervisor)
	require.ErrorIs(t, err, ErrOrderNotArchived)
}

func TestAutoArchive(t *testing.T) {
	f := newOrderFixture(t)
	cutoff := fixedNow.AddDate(0, 0, -90)
	first, second := orderIn(models.StatePago), orderIn(models.StatePago)
	first.ID, second.ID = 21, 22

	f.orders.On("FindArchivable", mock.Anything, cutoff).Return([]models.Order{*first, *second}, nil)
	f.orders.On("FindByID", mock.Anything, 21).Return(first, nil)
	f.orders.On("FindByID", mock.Anything, 22).Return(nil, errors.New("connection reset"))
	f.orders.On("Update", mock.Anything, mock.Anything).Return(nil)

	n, err := f.svc.AutoArchive(context.Background(), 0)

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	f.audit.AssertCalled(t, "Create", mock.Anything, mock.MatchedBy(func(a *models.AuditLog) bool {
		return a.Action == models.AuditArchive && a.UserID == models.SystemUserID && a.EntityID == 21
	}))
}

func TestHistory(t *testing.T) {
	f := newOrderFixture(t)
	f.orders.On("FindByID", mock.Anything, 10).Return(orderIn(models.StateVisita), nil)
	f.audit.On("ListByEntity", mock.Anything, models.EntityOrder, 10).Return([]models.AuditLog{{ID: 2}, {ID: 1}}, nil)

	logs, err := f.svc.History(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, logs, 2)
}
