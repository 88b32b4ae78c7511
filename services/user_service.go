package services

import (
	"context"
	"errors"
	"strings"

	"cermont/models"
	"cermont/repositories"
	"cermont/utils"
)

type UserService struct {
	users  UserStore
	tokens TokenStore
	audit  *AuditService
}

func NewUserService(users UserStore, tokens TokenStore, audit *AuditService) *UserService {
	return &UserService{users: users, tokens: tokens, audit: audit}
}

func (s *UserService) GetAllUsers(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	filter.Page, filter.Limit = utils.NormalizePage(filter.Page, filter.Limit, 10)
	return s.users.List(ctx, filter)
}

// ListTechnicians returns the active technicians available for assignment.
func (s *UserService) ListTechnicians(ctx context.Context) ([]models.User, error) {
	active := true
	users, _, err := s.users.List(ctx, models.UserFilter{Role: models.RoleTecnico, Active: &active, Page: 1, Limit: utils.MaxPageLimit})
	return users, err
}

func (s *UserService) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func validRole(role string) bool {
	for _, r := range models.ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

func (s *UserService) CreateUser(ctx context.Context, req models.CreateUserRequest, meta models.RequestMeta) (*models.User, error) {
	email := normalizeEmail(req.Email)
	if email == "" || strings.TrimSpace(req.Name) == "" {
		return nil, invalid("", "name and email are required")
	}
	if len(req.Password) < 8 {
		return nil, invalid("password", "must be at least 8 characters")
	}
	if !validRole(req.Role) {
		return nil, invalid("role", "unknown role %q", req.Role)
	}
	if req.Role == models.RoleCliente && req.CustomerID == nil {
		return nil, invalid("customer_id", "required for cliente users")
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:      email,
		Password:   hashedPassword,
		Name:       strings.TrimSpace(req.Name),
		Phone:      req.Phone,
		Role:       req.Role,
		Active:     true,
		CustomerID: req.CustomerID,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrEmailExists
		}
		return nil, err
	}

	entry := newAudit(meta, models.EntityUser, user.ID, models.AuditCreate)
	entry.After = snapshot(user)
	s.audit.Record(ctx, entry)
	return user, nil
}

func (s *UserService) UpdateUser(ctx context.Context, id int, req models.UpdateUserRequest, meta models.RequestMeta) (*models.User, error) {
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	before := snapshot(user)

	if req.Email != "" {
		user.Email = normalizeEmail(req.Email)
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		user.Name = name
	}
	if req.Phone != "" {
		user.Phone = req.Phone
	}
	if req.Role != "" {
		if !validRole(req.Role) {
			return nil, invalid("role", "unknown role %q", req.Role)
		}
		user.Role = req.Role
	}
	if req.CustomerID != nil {
		user.CustomerID = req.CustomerID
	}
	if user.Role == models.RoleCliente && user.CustomerID == nil {
		return nil, invalid("customer_id", "required for cliente users")
	}

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrEmailExists
		}
		return nil, err
	}

	entry := newAudit(meta, models.EntityUser, user.ID, models.AuditUpdate)
	entry.Before = before
	entry.After = snapshot(user)
	s.audit.Record(ctx, entry)
	return user, nil
}

// SetActive enables or disables an account. Deactivation revokes every
// refresh token of the user.
func (s *UserService) SetActive(ctx context.Context, id int, active bool, meta models.RequestMeta) error {
	if id == meta.UserID && !active {
		return invalid("active", "you cannot deactivate your own account")
	}
	if _, err := s.GetUserByID(ctx, id); err != nil {
		return err
	}
	if err := s.users.SetActive(ctx, id, active); err != nil {
		return err
	}
	if !active {
		if err := s.tokens.RevokeAllForUser(ctx, id); err != nil {
			return err
		}
	}

	entry := newAudit(meta, models.EntityUser, id, models.AuditUpdate)
	entry.After = map[string]interface{}{"active": active}
	s.audit.Record(ctx, entry)
	return nil
}

// Unlock clears a login lockout and its failed attempt counter.
func (s *UserService) Unlock(ctx context.Context, id int, meta models.RequestMeta) error {
	if _, err := s.GetUserByID(ctx, id); err != nil {
		return err
	}
	if err := s.users.Unlock(ctx, id); err != nil {
		return err
	}
	entry := newAudit(meta, models.EntityUser, id, models.AuditUpdate)
	entry.Reason = "account unlocked"
	s.audit.Record(ctx, entry)
	return nil
}

func (s *UserService) DeleteUser(ctx context.Context, id int, meta models.RequestMeta) error {
	if id == meta.UserID {
		return invalid("id", "you cannot delete your own account")
	}
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return ErrUserNotFound
		case errors.Is(err, repositories.ErrReferenced):
			return ErrUserHasHistory
		}
		return err
	}

	entry := newAudit(meta, models.EntityUser, id, models.AuditDelete)
	entry.Before = snapshot(user)
	s.audit.Record(ctx, entry)
	return nil
}
