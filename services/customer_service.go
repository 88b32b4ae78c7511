package services

import (
	"context"
	"errors"
	"strings"

	"cermont/models"
	"cermont/repositories"
	"cermont/utils"
)

type CustomerService struct {
	customers CustomerStore
	audit     *AuditService
}

func NewCustomerService(customers CustomerStore, audit *AuditService) *CustomerService {
	return &CustomerService{customers: customers, audit: audit}
}

func (s *CustomerService) List(ctx context.Context, search string, page, limit int) ([]models.Customer, int, error) {
	page, limit = utils.NormalizePage(page, limit, 10)
	return s.customers.List(ctx, strings.TrimSpace(search), page, limit)
}

func (s *CustomerService) Get(ctx context.Context, id int) (*models.Customer, error) {
	c, err := s.customers.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	return c, nil
}

func (s *CustomerService) Create(ctx context.Context, req models.CustomerRequest, meta models.RequestMeta) (*models.Customer, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, invalid("name", "is required")
	}
	c := &models.Customer{
		Name:    name,
		NIT:     strings.TrimSpace(req.NIT),
		Email:   normalizeEmail(req.Email),
		Phone:   req.Phone,
		Address: req.Address,
	}
	if err := s.customers.Create(ctx, c); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, newError(ErrConflict, "a customer with this NIT already exists")
		}
		return nil, err
	}

	entry := newAudit(meta, models.EntityCustomer, c.ID, models.AuditCreate)
	entry.After = snapshot(c)
	s.audit.Record(ctx, entry)
	return c, nil
}

func (s *CustomerService) Update(ctx context.Context, id int, req models.CustomerRequest, meta models.RequestMeta) (*models.Customer, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	before := snapshot(c)

	if name := strings.TrimSpace(req.Name); name != "" {
		c.Name = name
	}
	if req.NIT != "" {
		c.NIT = strings.TrimSpace(req.NIT)
	}
	if req.Email != "" {
		c.Email = normalizeEmail(req.Email)
	}
	if req.Phone != "" {
		c.Phone = req.Phone
	}
	if req.Address != "" {
		c.Address = req.Address
	}
	if err := s.customers.Update(ctx, c); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, newError(ErrConflict, "a customer with this NIT already exists")
		}
		return nil, err
	}

	entry := newAudit(meta, models.EntityCustomer, c.ID, models.AuditUpdate)
	entry.Before = before
	entry.After = snapshot(c)
	s.audit.Record(ctx, entry)
	return c, nil
}

func (s *CustomerService) Delete(ctx context.Context, id int, meta models.RequestMeta) error {
	if err := s.customers.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrCustomerNotFound
		}
		return err
	}
	s.audit.Record(ctx, newAudit(meta, models.EntityCustomer, id, models.AuditDelete))
	return nil
}
