package repositories

import (
	"context"
	"time"

	"cermont/models"

	"github.com/jackc/pgx/v5"
)

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, password, name, COALESCE(phone, ''), role, active, customer_id,
	login_attempts, locked_until, last_login, last_failed_login, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Password,
		&user.Name,
		&user.Phone,
		&user.Role,
		&user.Active,
		&user.CustomerID,
		&user.LoginAttempts,
		&user.LockedUntil,
		&user.LastLogin,
		&user.LastFailedLogin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return user, nil
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, password, name, phone, role, active, customer_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`
	now := time.Now()
	err := r.db.QueryRow(ctx, query,
		user.Email,
		user.Password,
		user.Name,
		user.Phone,
		user.Role,
		user.Active,
		user.CustomerID,
		now,
		now,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	return mapErr(err)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email))
}

func (r *UserRepository) FindByID(ctx context.Context, id int) (*models.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *UserRepository) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	var w whereBuilder
	if filter.Role != "" {
		w.add("role = ?", filter.Role)
	}
	if filter.Active != nil {
		w.add("active = ?", *filter.Active)
	}
	if filter.Search != "" {
		w.add("(name ILIKE ? OR email ILIKE ?)", "%"+filter.Search+"%")
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	where := w.sql()
	query := `SELECT ` + userColumns + ` FROM users` + where +
		` ORDER BY created_at DESC` + w.paginate(filter.Page, filter.Limit)

	rows, err := r.db.Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, *user)
	}
	return users, total, rows.Err()
}

func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET email = $1, name = $2, phone = $3, role = $4, customer_id = $5, active = $6, updated_at = $7
		WHERE id = $8
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query,
		user.Email,
		user.Name,
		user.Phone,
		user.Role,
		user.CustomerID,
		user.Active,
		time.Now(),
		user.ID,
	).Scan(&user.UpdatedAt)
	return mapErr(err)
}

func (r *UserRepository) UpdatePassword(ctx context.Context, userID int, hashedPassword string) error {
	query := `UPDATE users SET password = $1, updated_at = $2 WHERE id = $3`
	return expectOne(r.db.Exec(ctx, query, hashedPassword, time.Now(), userID))
}

// RecordFailedLogin stores the new attempt count and, when set, the lock expiry.
func (r *UserRepository) RecordFailedLogin(ctx context.Context, userID, attempts int, lockedUntil *time.Time, at time.Time) error {
	query := `
		UPDATE users
		SET login_attempts = $1, locked_until = $2, last_failed_login = $3, updated_at = $3
		WHERE id = $4
	`
	return expectOne(r.db.Exec(ctx, query, attempts, lockedUntil, at, userID))
}

func (r *UserRepository) RecordSuccessfulLogin(ctx context.Context, userID int, at time.Time) error {
	query := `
		UPDATE users
		SET login_attempts = 0, locked_until = NULL, last_login = $1, updated_at = $1
		WHERE id = $2
	`
	return expectOne(r.db.Exec(ctx, query, at, userID))
}

func (r *UserRepository) Unlock(ctx context.Context, userID int) error {
	query := `UPDATE users SET login_attempts = 0, locked_until = NULL, updated_at = $1 WHERE id = $2`
	return expectOne(r.db.Exec(ctx, query, time.Now(), userID))
}

func (r *UserRepository) SetActive(ctx context.Context, userID int, active bool) error {
	query := `UPDATE users SET active = $1, updated_at = $2 WHERE id = $3`
	return expectOne(r.db.Exec(ctx, query, active, time.Now(), userID))
}

func (r *UserRepository) Delete(ctx context.Context, id int) error {
	return expectOne(r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id))
}
