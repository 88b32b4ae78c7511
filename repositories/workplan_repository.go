package repositories

import (
	"context"
	"time"

	"cermont/models"

	"github.com/jackc/pgx/v5"
)

type WorkPlanRepository struct {
	db DBTX
}

func NewWorkPlanRepository(db DBTX) *WorkPlanRepository {
	return &WorkPlanRepository{db: db}
}

const workPlanColumns = `id, order_id, materials, tools, labor, budget, status, notes,
	approved_by, approved_at, rejection_reason, created_by, created_at, updated_at`

func scanWorkPlan(row pgx.Row) (*models.WorkPlan, error) {
	wp := &models.WorkPlan{}
	err := row.Scan(
		&wp.ID,
		&wp.OrderID,
		&wp.Materials,
		&wp.Tools,
		&wp.Labor,
		&wp.Budget,
		&wp.Status,
		&wp.Notes,
		&wp.ApprovedBy,
		&wp.ApprovedAt,
		&wp.RejectionReason,
		&wp.CreatedBy,
		&wp.CreatedAt,
		&wp.UpdatedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return wp, nil
}

func (r *WorkPlanRepository) Create(ctx context.Context, wp *models.WorkPlan) error {
	query := `
		INSERT INTO workplans (order_id, materials, tools, labor, budget, status, notes, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		wp.OrderID,
		wp.Materials,
		wp.Tools,
		wp.Labor,
		wp.Budget,
		wp.Status,
		wp.Notes,
		wp.CreatedBy,
		time.Now(),
	).Scan(&wp.ID, &wp.CreatedAt, &wp.UpdatedAt)
	return mapErr(err)
}

func (r *WorkPlanRepository) FindByID(ctx context.Context, id int) (*models.WorkPlan, error) {
	return scanWorkPlan(r.db.QueryRow(ctx, `SELECT `+workPlanColumns+` FROM workplans WHERE id = $1`, id))
}

func (r *WorkPlanRepository) FindByOrderID(ctx context.Context, orderID int) (*models.WorkPlan, error) {
	return scanWorkPlan(r.db.QueryRow(ctx, `SELECT `+workPlanColumns+` FROM workplans WHERE order_id = $1`, orderID))
}

func (r *WorkPlanRepository) Update(ctx context.Context, wp *models.WorkPlan) error {
	query := `
		UPDATE workplans
		SET materials = $1, tools = $2, labor = $3, budget = $4, status = $5, notes = $6,
			approved_by = $7, approved_at = $8, rejection_reason = $9, updated_at = $10
		WHERE id = $11
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query,
		wp.Materials,
		wp.Tools,
		wp.Labor,
		wp.Budget,
		wp.Status,
		wp.Notes,
		wp.ApprovedBy,
		wp.ApprovedAt,
		wp.RejectionReason,
		time.Now(),
		wp.ID,
	).Scan(&wp.UpdatedAt)
	return mapErr(err)
}
