package repositories

import (
	"context"
	"time"

	"cermont/models"
)

// StatsRepository runs the aggregate queries behind the dashboard.
type StatsRepository struct {
	db DBTX
}

func NewStatsRepository(db DBTX) *StatsRepository {
	return &StatsRepository{db: db}
}

// CountByState counts active orders per state and returns the archived count separately.
func (r *StatsRepository) CountByState(ctx context.Context) (map[models.OrderState]int, int, error) {
	rows, err := r.db.Query(ctx, `SELECT state, archived, COUNT(*) FROM orders GROUP BY state, archived`)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	counts := map[models.OrderState]int{}
	archived := 0
	for rows.Next() {
		var state models.OrderState
		var isArchived bool
		var n int
		if err := rows.Scan(&state, &isArchived, &n); err != nil {
			return nil, 0, err
		}
		if isArchived {
			archived += n
			continue
		}
		counts[state] += n
	}
	return counts, archived, rows.Err()
}

func (r *StatsRepository) CycleSamples(ctx context.Context) ([]models.CycleSample, error) {
	rows, err := r.db.Query(ctx, `SELECT created_at, completed_at FROM orders WHERE completed_at IS NOT NULL`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	samples := []models.CycleSample{}
	for rows.Next() {
		var s models.CycleSample
		if err := rows.Scan(&s.CreatedAt, &s.CompletedAt); err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}
	return samples, rows.Err()
}

func (r *StatsRepository) CompletedSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE completed_at >= $1`, since).Scan(&n)
	return n, err
}

func (r *StatsRepository) Workload(ctx context.Context) ([]models.Workload, error) {
	query := `
		SELECT u.id, u.name, COUNT(o.id)
		FROM users u
		LEFT JOIN orders o ON o.responsible_id = u.id AND o.archived = FALSE AND o.state <> 'pago'
		WHERE u.role = 'tecnico' AND u.active = TRUE
		GROUP BY u.id, u.name
		ORDER BY COUNT(o.id) DESC, u.name
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	workload := []models.Workload{}
	for rows.Next() {
		var w models.Workload
		if err := rows.Scan(&w.ResponsibleID, &w.Name, &w.Count); err != nil {
			return nil, err
		}
		workload = append(workload, w)
	}
	return workload, rows.Err()
}

// DueOrders lists unfinished orders with a due date before the given time.
func (r *StatsRepository) DueOrders(ctx context.Context, before time.Time) ([]models.DueOrder, error) {
	query := `
		SELECT id, numero, due_date, state
		FROM orders
		WHERE due_date IS NOT NULL AND due_date <= $1 AND state <> 'pago' AND archived = FALSE
		ORDER BY due_date
	`
	rows, err := r.db.Query(ctx, query, before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	due := []models.DueOrder{}
	for rows.Next() {
		var d models.DueOrder
		if err := rows.Scan(&d.ID, &d.Numero, &d.DueDate, &d.State); err != nil {
			return nil, err
		}
		due = append(due, d)
	}
	return due, rows.Err()
}

// CostTotals sums budgeted and actual cost items across all orders.
func (r *StatsRepository) CostTotals(ctx context.Context) (float64, float64, error) {
	query := `
		SELECT
			COALESCE(SUM(total) FILTER (WHERE kind = 'presupuestado'), 0),
			COALESCE(SUM(total) FILTER (WHERE kind = 'real'), 0)
		FROM cost_items
	`
	var budgeted, actual float64
	err := r.db.QueryRow(ctx, query).Scan(&budgeted, &actual)
	return budgeted, actual, err
}
