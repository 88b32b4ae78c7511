package models

import "time"

const (
	RoleAdmin      = "admin"
	RoleSupervisor = "supervisor"
	RoleTecnico    = "tecnico"
	RoleCliente    = "cliente"
)

var ValidRoles = []string{RoleAdmin, RoleSupervisor, RoleTecnico, RoleCliente}

type User struct {
	ID              int        `json:"id"`
	Email           string     `json:"email"`
	Password        string     `json:"-"`
	Name            string     `json:"name"`
	Phone           string     `json:"phone"`
	Role            string     `json:"role"`
	Active          bool       `json:"active"`
	CustomerID      *int       `json:"customer_id,omitempty"`
	LoginAttempts   int        `json:"login_attempts"`
	LockedUntil     *time.Time `json:"locked_until,omitempty"`
	LastLogin       *time.Time `json:"last_login,omitempty"`
	LastFailedLogin *time.Time `json:"last_failed_login,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// IsLocked reports whether the account lockout is still in effect at now.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && u.LockedUntil.After(now)
}

type UserFilter struct {
	Role   string
	Active *bool
	Search string
	Page   int
	Limit  int
}

type RefreshToken struct {
	ID        int       `json:"id"`
	Token     string    `json:"token"`
	UserID    int       `json:"user_id"`
	Family    string    `json:"family"`
	Revoked   bool      `json:"revoked"`
	ExpiresAt time.Time `json:"expires_at"`
	IP        string    `json:"ip"`
	UserAgent string    `json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`
}

type Customer struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	NIT       string    `json:"nit"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
