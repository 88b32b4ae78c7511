package repositories

import (
	"context"
	"time"

	"cermont/models"

	"github.com/jackc/pgx/v5"
)

type CustomerRepository struct {
	db DBTX
}

func NewCustomerRepository(db DBTX) *CustomerRepository {
	return &CustomerRepository{db: db}
}

const customerColumns = `id, name, COALESCE(nit, ''), COALESCE(email, ''), COALESCE(phone, ''), COALESCE(address, ''), created_at, updated_at`

func scanCustomer(row pgx.Row) (*models.Customer, error) {
	c := &models.Customer{}
	err := row.Scan(&c.ID, &c.Name, &c.NIT, &c.Email, &c.Phone, &c.Address, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return c, nil
}

func (r *CustomerRepository) Create(ctx context.Context, c *models.Customer) error {
	query := `
		INSERT INTO customers (name, nit, email, phone, address, created_at, updated_at)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $6)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, c.Name, c.NIT, c.Email, c.Phone, c.Address, time.Now()).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	return mapErr(err)
}

func (r *CustomerRepository) FindByID(ctx context.Context, id int) (*models.Customer, error) {
	return scanCustomer(r.db.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id))
}

func (r *CustomerRepository) List(ctx context.Context, search string, page, limit int) ([]models.Customer, int, error) {
	var w whereBuilder
	if search != "" {
		w.add("(name ILIKE ? OR nit ILIKE ?)", "%"+search+"%")
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM customers`+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + customerColumns + ` FROM customers` + w.sql() + ` ORDER BY name` + w.paginate(page, limit)
	rows, err := r.db.Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	customers := []models.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, err
		}
		customers = append(customers, *c)
	}
	return customers, total, rows.Err()
}

func (r *CustomerRepository) Update(ctx context.Context, c *models.Customer) error {
	query := `
		UPDATE customers
		SET name = $1, nit = NULLIF($2, ''), email = $3, phone = $4, address = $5, updated_at = $6
		WHERE id = $7
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query, c.Name, c.NIT, c.Email, c.Phone, c.Address, time.Now(), c.ID).Scan(&c.UpdatedAt)
	return mapErr(err)
}

func (r *CustomerRepository) Delete(ctx context.Context, id int) error {
	return expectOne(r.db.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id))
}
