package services

import (
	"context"
	"errors"

	"cermont/models"
	"cermont/repositories"
	"cermont/utils"
)

// PortalService is the read-only view customers get of their own orders.
type PortalService struct {
	orders    OrderStore
	evidences EvidenceStore
	users     UserStore
}

func NewPortalService(orders OrderStore, evidences EvidenceStore, users UserStore) *PortalService {
	return &PortalService{orders: orders, evidences: evidences, users: users}
}

// customerID resolves the customer the requesting user belongs to.
func (s *PortalService) customerID(ctx context.Context, meta models.RequestMeta) (int, error) {
	if meta.Role != models.RoleCliente {
		return 0, ErrNotOwner
	}
	user, err := s.users.FindByID(ctx, meta.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}
	if user.Role != models.RoleCliente || user.CustomerID == nil {
		return 0, ErrNotOwner
	}
	return *user.CustomerID, nil
}

func (s *PortalService) ListOrders(ctx context.Context, page, limit int, meta models.RequestMeta) ([]models.OrderProgress, int, error) {
	customerID, err := s.customerID(ctx, meta)
	if err != nil {
		return nil, 0, err
	}
	page, limit = utils.NormalizePage(page, limit, 10)
	orders, total, err := s.orders.List(ctx, models.OrderFilter{
		CustomerID:      customerID,
		IncludeArchived: true,
		Page:            page,
		Limit:           limit,
	})
	if err != nil {
		return nil, 0, err
	}

	out := make([]models.OrderProgress, 0, len(orders))
	for i := range orders {
		out = append(out, progressView(&orders[i], nil))
	}
	return out, total, nil
}

// GetOrder returns one of the customer's orders with its approved evidence.
// Orders of other customers are reported as not found.
func (s *PortalService) GetOrder(ctx context.Context, orderID int, meta models.RequestMeta) (*models.OrderProgress, error) {
	customerID, err := s.customerID(ctx, meta)
	if err != nil {
		return nil, err
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.CustomerID == nil || *order.CustomerID != customerID {
		return nil, ErrOrderNotFound
	}

	evidence, err := s.evidences.ListByOrder(ctx, orderID, models.EvidenceFilter{Status: models.EvidenceAprobada})
	if err != nil {
		return nil, err
	}
	view := progressView(order, evidence)
	return &view, nil
}

func progressView(order *models.Order, evidence []models.Evidence) models.OrderProgress {
	view := models.OrderProgress{
		Order:    order,
		Progress: Progress(order.State),
		Evidence: evidence,
	}
	if view.Evidence == nil {
		view.Evidence = []models.Evidence{}
	}
	if next, ok := NextState(order.State); ok {
		view.Next = &next
	}
	return view
}
