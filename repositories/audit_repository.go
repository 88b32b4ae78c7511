package repositories

import (
	"context"

	"cermont/models"

	"github.com/jackc/pgx/v5"
)

type AuditRepository struct {
	db DBTX
}

func NewAuditRepository(db DBTX) *AuditRepository {
	return &AuditRepository{db: db}
}

const auditColumns = `id, entity_type, entity_id, action, user_id, before, after, reason,
	COALESCE(ip, ''), COALESCE(user_agent, ''), created_at`

func scanAudit(row pgx.Row) (*models.AuditLog, error) {
	a := &models.AuditLog{}
	err := row.Scan(
		&a.ID,
		&a.EntityType,
		&a.EntityID,
		&a.Action,
		&a.UserID,
		&a.Before,
		&a.After,
		&a.Reason,
		&a.IP,
		&a.UserAgent,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return a, nil
}

func (r *AuditRepository) Create(ctx context.Context, a *models.AuditLog) error {
	query := `
		INSERT INTO audit_logs (entity_type, entity_id, action, user_id, before, after, reason, ip, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query,
		a.EntityType,
		a.EntityID,
		a.Action,
		a.UserID,
		a.Before,
		a.After,
		a.Reason,
		a.IP,
		a.UserAgent,
	).Scan(&a.ID, &a.CreatedAt)
	return mapErr(err)
}

func (r *AuditRepository) ListByEntity(ctx context.Context, entityType string, entityID int) ([]models.AuditLog, error) {
	query := `SELECT ` + auditColumns + ` FROM audit_logs
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC, id DESC`
	rows, err := r.db.Query(ctx, query, entityType, entityID)
	if err != nil {
		return nil, err
	}
	return collectAudit(rows)
}

func (r *AuditRepository) List(ctx context.Context, entityType string, page, limit int) ([]models.AuditLog, int, error) {
	var w whereBuilder
	if entityType != "" {
		w.add("entity_type = ?", entityType)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM audit_logs`+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + auditColumns + ` FROM audit_logs` + w.sql() + ` ORDER BY created_at DESC, id DESC` + w.paginate(page, limit)
	rows, err := r.db.Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, err
	}
	logs, err := collectAudit(rows)
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

func collectAudit(rows pgx.Rows) ([]models.AuditLog, error) {
	defer rows.Close()
	logs := []models.AuditLog{}
	for rows.Next() {
		a, err := scanAudit(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, *a)
	}
	return logs, rows.Err()
}
