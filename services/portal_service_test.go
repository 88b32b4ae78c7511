package services

import (
	"context"
	"testing"

	"cermont/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var customerUser = models.RequestMeta{UserID: 30, Role: models.RoleCliente}

func newPortalFixture() (*PortalService, *mockOrderStore, *mockEvidenceStore, *mockUserStore) {
	orders, evidences, users := &mockOrderStore{}, &mockEvidenceStore{}, &mockUserStore{}
	customerID := 5
	users.On("FindByID", mock.Anything, 30).Return(&models.User{ID: 30, Role: models.RoleCliente, CustomerID: &customerID}, nil).Maybe()
	return NewPortalService(orders, evidences, users), orders, evidences, users
}

func TestPortalListOrdersScopesToCustomer(t *testing.T) {
	t.Parallel()
	svc, orders, _, _ := newPortalFixture()
	archived := orderIn(models.StatePago)
	archived.Archived = true
	orders.On("List", mock.Anything, models.OrderFilter{CustomerID: 5, IncludeArchived: true, Page: 1, Limit: 10}).
		Return([]models.Order{*orderIn(models.StateEjecucion), *archived}, 2, nil)

	views, total, err := svc.ListOrders(context.Background(), 0, 0, customerUser)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, views, 2)
	require.NotNil(t, views[0].Next)
	assert.Equal(t, models.StateInforme, *views[0].Next)
	assert.Nil(t, views[1].Next)
	assert.Equal(t, 100, views[1].Progress)
	assert.True(t, views[1].Order.Archived)
}

func TestPortalGetOrder(t *testing.T) {
	t.Parallel()

	t.Run("shows approved evidence only", func(t *testing.T) {
		t.Parallel()
		svc, orders, evidences, _ := newPortalFixture()
		order := orderIn(models.StateActa)
		customerID := 5
		order.CustomerID = &customerID
		orders.On("FindByID", mock.Anything, 10).Return(order, nil)
		evidences.On("ListByOrder", mock.Anything, 10, models.EvidenceFilter{Status: models.EvidenceAprobada}).
			Return([]models.Evidence{{ID: 1, Status: models.EvidenceAprobada}}, nil)

		view, err := svc.GetOrder(context.Background(), 10, customerUser)
		require.NoError(t, err)
		assert.Len(t, view.Evidence, 1)
		assert.Equal(t, Progress(models.StateActa), view.Progress)
	})

	t.Run("archived order stays visible", func(t *testing.T) {
		t.Parallel()
		svc, orders, evidences, _ := newPortalFixture()
		order := orderIn(models.StatePago)
		customerID := 5
		order.CustomerID = &customerID
		order.Archived = true
		orders.On("FindByID", mock.Anything, 10).Return(order, nil)
		evidences.On("ListByOrder", mock.Anything, 10, mock.Anything).Return([]models.Evidence{}, nil)

		view, err := svc.GetOrder(context.Background(), 10, customerUser)
		require.NoError(t, err)
		assert.True(t, view.Order.Archived)
	})

	t.Run("other customer's order is hidden", func(t *testing.T) {
		t.Parallel()
		svc, orders, _, _ := newPortalFixture()
		order := orderIn(models.StateActa)
		other := 6
		order.CustomerID = &other
		orders.On("FindByID", mock.Anything, 10).Return(order, nil)

		_, err := svc.GetOrder(context.Background(), 10, customerUser)
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})

	t.Run("staff roles are refused", func(t *testing.T) {
		t.Parallel()
		svc, _, _, _ := newPortalFixture()

		_, err := svc.GetOrder(context.Background(), 10, supervisor)
		assert.ErrorIs(t, err, ErrNotOwner)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("cliente without customer", func(t *testing.T) {
		t.Parallel()
		svc, _, _, users := newPortalFixture()
		meta := models.RequestMeta{UserID: 31, Role: models.RoleCliente}
		users.On("FindByID", mock.Anything, 31).Return(&models.User{ID: 31, Role: models.RoleCliente}, nil)

		_, err := svc.GetOrder(context.Background(), 10, meta)
		assert.ErrorIs(t, err, ErrNotOwner)
	})
}
