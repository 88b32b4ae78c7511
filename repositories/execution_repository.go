package repositories

import (
	"context"
	"time"

	"cermont/models"

	"github.com/jackc/pgx/v5"
)

type ExecutionRepository struct {
	db DBTX
}

func NewExecutionRepository(db DBTX) *ExecutionRepository {
	return &ExecutionRepository{db: db}
}

const executionColumns = `id, order_id, workplan_id, status, progress, estimated_hours, tasks, time_logs,
	location, observations, started_by, completed_by, started_at, completed_at, created_at, updated_at`

func scanExecution(row pgx.Row) (*models.Execution, error) {
	e := &models.Execution{}
	err := row.Scan(
		&e.ID,
		&e.OrderID,
		&e.WorkPlanID,
		&e.Status,
		&e.Progress,
		&e.EstimatedHours,
		&e.Tasks,
		&e.TimeLogs,
		&e.Location,
		&e.Observations,
		&e.StartedBy,
		&e.CompletedBy,
		&e.StartedAt,
		&e.CompletedAt,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return e, nil
}

func (r *ExecutionRepository) Create(ctx context.Context, e *models.Execution) error {
	query := `
		INSERT INTO executions (
			order_id, workplan_id, status, progress, estimated_hours, tasks, time_logs,
			location, observations, started_by, started_at, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		e.OrderID,
		e.WorkPlanID,
		e.Status,
		e.Progress,
		e.EstimatedHours,
		e.Tasks,
		e.TimeLogs,
		e.Location,
		e.Observations,
		e.StartedBy,
		e.StartedAt,
		time.Now(),
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	return mapErr(err)
}

func (r *ExecutionRepository) FindByID(ctx context.Context, id int) (*models.Execution, error) {
	return scanExecution(r.db.QueryRow(ctx, `SELECT `+executionColumns+` FROM executions WHERE id = $1`, id))
}

func (r *ExecutionRepository) FindByOrderID(ctx context.Context, orderID int) (*models.Execution, error) {
	return scanExecution(r.db.QueryRow(ctx, `SELECT `+executionColumns+` FROM executions WHERE order_id = $1`, orderID))
}

func (r *ExecutionRepository) Update(ctx context.Context, e *models.Execution) error {
	query := `
		UPDATE executions
		SET status = $1, progress = $2, estimated_hours = $3, tasks = $4, time_logs = $5, location = $6,
			observations = $7, completed_by = $8, completed_at = $9, updated_at = $10
		WHERE id = $11
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query,
		e.Status,
		e.Progress,
		e.EstimatedHours,
		e.Tasks,
		e.TimeLogs,
		e.Location,
		e.Observations,
		e.CompletedBy,
		e.CompletedAt,
		time.Now(),
		e.ID,
	).Scan(&e.UpdatedAt)
	return mapErr(err)
}
