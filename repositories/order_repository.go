package repositories

import (
	"context"
	"errors"
	"time"

	"cermont/models"

	"github.com/jackc/pgx/v5"
)

type OrderRepository struct {
	db DBTX
}

func NewOrderRepository(db DBTX) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderColumns = `id, numero, customer_id, cliente, description, COALESCE(location, ''), state, priority,
	responsible_id, supervisor_id, estimated_budget, notes, archived, archived_at, state_changed_at,
	due_date, started_at, completed_at, created_by, created_at, updated_at`

func scanOrder(row pgx.Row) (*models.Order, error) {
	o := &models.Order{}
	err := row.Scan(
		&o.ID,
		&o.Numero,
		&o.CustomerID,
		&o.Cliente,
		&o.Description,
		&o.Location,
		&o.State,
		&o.Priority,
		&o.ResponsibleID,
		&o.SupervisorID,
		&o.EstimatedBudget,
		&o.Notes,
		&o.Archived,
		&o.ArchivedAt,
		&o.StateChangedAt,
		&o.DueDate,
		&o.StartedAt,
		&o.CompletedAt,
		&o.CreatedBy,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	if o.StateChangedAt == nil {
		o.StateChangedAt = map[models.OrderState]time.Time{}
	}
	return o, nil
}

func scanOrders(rows pgx.Rows) ([]models.Order, error) {
	defer rows.Close()
	orders := []models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

// Create assigns the next OT-<year>-<seq> number inside the INSERT.
func (r *OrderRepository) Create(ctx context.Context, o *models.Order) error {
	query := `
		INSERT INTO orders (
			numero, customer_id, cliente, description, location, state, priority, responsible_id,
			supervisor_id, estimated_budget, notes, state_changed_at, due_date, created_by, created_at, updated_at
		)
		VALUES (
			'OT-' || to_char($14::timestamptz, 'YYYY') || '-' || lpad(nextval('order_numero_seq')::text, 5, '0'),
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $14
		)
		RETURNING id, numero, created_at, updated_at
	`
	now := time.Now()
	err := r.db.QueryRow(ctx, query,
		o.CustomerID,
		o.Cliente,
		o.Description,
		o.Location,
		o.State,
		o.Priority,
		o.ResponsibleID,
		o.SupervisorID,
		o.EstimatedBudget,
		o.Notes,
		o.StateChangedAt,
		o.DueDate,
		o.CreatedBy,
		now,
	).Scan(&o.ID, &o.Numero, &o.CreatedAt, &o.UpdatedAt)
	return mapErr(err)
}

func (r *OrderRepository) FindByID(ctx context.Context, id int) (*models.Order, error) {
	return scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
}

func orderWhere(filter models.OrderFilter) *whereBuilder {
	w := &whereBuilder{}
	if !filter.IncludeArchived {
		w.add("archived = ?", filter.Archived)
	}
	if filter.State != "" {
		w.add("state = ?", filter.State)
	}
	if filter.Priority != "" {
		w.add("priority = ?", filter.Priority)
	}
	if filter.ResponsibleID > 0 {
		w.add("responsible_id = ?", filter.ResponsibleID)
	}
	if filter.CustomerID > 0 {
		w.add("customer_id = ?", filter.CustomerID)
	}
	if filter.Search != "" {
		w.add("(numero ILIKE ? OR cliente ILIKE ?)", "%"+filter.Search+"%")
	}
	if filter.From != nil {
		w.add("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		w.add("created_at <= ?", *filter.To)
	}
	return w
}

// List pages through orders; Limit 0 returns every match.
func (r *OrderRepository) List(ctx context.Context, filter models.OrderFilter) ([]models.Order, int, error) {
	w := orderWhere(filter)

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM orders`+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + orderColumns + ` FROM orders` + w.sql() + ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += w.paginate(filter.Page, filter.Limit)
	}

	rows, err := r.db.Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, err
	}
	orders, err := scanOrders(rows)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// Update writes the editable fields. notes and state are owned by UpdateState.
// The write only applies while updated_at still matches what the caller read.
func (r *OrderRepository) Update(ctx context.Context, o *models.Order) error {
	query := `
		UPDATE orders
		SET cliente = $1, description = $2, location = $3, priority = $4, responsible_id = $5,
			supervisor_id = $6, estimated_budget = $7, due_date = $8,
			archived = $9, archived_at = $10, updated_at = $11
		WHERE id = $12 AND updated_at = $13
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query,
		o.Cliente,
		o.Description,
		o.Location,
		o.Priority,
		o.ResponsibleID,
		o.SupervisorID,
		o.EstimatedBudget,
		o.DueDate,
		o.Archived,
		o.ArchivedAt,
		time.Now(),
		o.ID,
		o.UpdatedAt,
	).Scan(&o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrConflict
	}
	return mapErr(err)
}

// UpdateState persists a transition only if the stored state is still from.
func (r *OrderRepository) UpdateState(ctx context.Context, o *models.Order, from models.OrderState) error {
	query := `
		UPDATE orders
		SET state = $1, notes = $2, state_changed_at = $3, started_at = $4, completed_at = $5, updated_at = $6
		WHERE id = $7 AND state = $8 AND archived = FALSE
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query,
		o.State,
		o.Notes,
		o.StateChangedAt,
		o.StartedAt,
		o.CompletedAt,
		time.Now(),
		o.ID,
		from,
	).Scan(&o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrConflict
	}
	return mapErr(err)
}

func (r *OrderRepository) Delete(ctx context.Context, id int) error {
	return expectOne(r.db.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id))
}

// FindArchivable returns finished, unarchived orders completed before cutoff.
func (r *OrderRepository) FindArchivable(ctx context.Context, cutoff time.Time) ([]models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders
		WHERE state = 'pago' AND archived = FALSE AND completed_at IS NOT NULL AND completed_at < $1
		ORDER BY completed_at`
	rows, err := r.db.Query(ctx, query, cutoff)
	if err != nil {
		return nil, err
	}
	return scanOrders(rows)
}
