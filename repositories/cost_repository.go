package repositories

import (
	"context"
	"time"

	"cermont/models"
)

type CostRepository struct {
	db DBTX
}

func NewCostRepository(db DBTX) *CostRepository {
	return &CostRepository{db: db}
}

func (r *CostRepository) Create(ctx context.Context, item *models.CostItem) error {
	query := `
		INSERT INTO cost_items (order_id, category, kind, description, quantity, unit_cost, total, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query,
		item.OrderID,
		item.Category,
		item.Kind,
		item.Description,
		item.Quantity,
		item.UnitCost,
		item.Total,
		item.CreatedBy,
		time.Now(),
	).Scan(&item.ID, &item.CreatedAt)
	return mapErr(err)
}

func (r *CostRepository) FindByID(ctx context.Context, id int) (*models.CostItem, error) {
	query := `
		SELECT id, order_id, category, kind, description, quantity, unit_cost, total, created_by, created_at
		FROM cost_items WHERE id = $1
	`
	item := &models.CostItem{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&item.ID,
		&item.OrderID,
		&item.Category,
		&item.Kind,
		&item.Description,
		&item.Quantity,
		&item.UnitCost,
		&item.Total,
		&item.CreatedBy,
		&item.CreatedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return item, nil
}

func (r *CostRepository) ListByOrder(ctx context.Context, orderID int) ([]models.CostItem, error) {
	query := `
		SELECT id, order_id, category, kind, description, quantity, unit_cost, total, created_by, created_at
		FROM cost_items WHERE order_id = $1 ORDER BY created_at
	`
	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.CostItem{}
	for rows.Next() {
		var item models.CostItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.Category,
			&item.Kind,
			&item.Description,
			&item.Quantity,
			&item.UnitCost,
			&item.Total,
			&item.CreatedBy,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *CostRepository) Delete(ctx context.Context, id int) error {
	return expectOne(r.db.Exec(ctx, `DELETE FROM cost_items WHERE id = $1`, id))
}
