package repositories

import (
	"context"
	"errors"
	"time"

	"cermont/models"

	"github.com/jackc/pgx/v5"
)

type EvidenceRepository struct {
	db DBTX
}

func NewEvidenceRepository(db DBTX) *EvidenceRepository {
	return &EvidenceRepository{db: db}
}

const evidenceColumns = `id, order_id, execution_id, type, file_url, storage_key, file_name, mime_type, size,
	latitude, longitude, description, status, reviewed_by, reviewed_at, rejection_reason, uploaded_by,
	created_at, updated_at`

func scanEvidence(row pgx.Row) (*models.Evidence, error) {
	e := &models.Evidence{}
	err := row.Scan(
		&e.ID,
		&e.OrderID,
		&e.ExecutionID,
		&e.Type,
		&e.FileURL,
		&e.StorageKey,
		&e.FileName,
		&e.MimeType,
		&e.Size,
		&e.Latitude,
		&e.Longitude,
		&e.Description,
		&e.Status,
		&e.ReviewedBy,
		&e.ReviewedAt,
		&e.RejectionReason,
		&e.UploadedBy,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return e, nil
}

func (r *EvidenceRepository) Create(ctx context.Context, e *models.Evidence) error {
	query := `
		INSERT INTO evidences (
			order_id, execution_id, type, file_url, storage_key, file_name, mime_type, size,
			latitude, longitude, description, status, uploaded_by, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $14)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		e.OrderID,
		e.ExecutionID,
		e.Type,
		e.FileURL,
		e.StorageKey,
		e.FileName,
		e.MimeType,
		e.Size,
		e.Latitude,
		e.Longitude,
		e.Description,
		e.Status,
		e.UploadedBy,
		time.Now(),
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	return mapErr(err)
}

func (r *EvidenceRepository) FindByID(ctx context.Context, id int) (*models.Evidence, error) {
	return scanEvidence(r.db.QueryRow(ctx, `SELECT `+evidenceColumns+` FROM evidences WHERE id = $1`, id))
}

func (r *EvidenceRepository) ListByOrder(ctx context.Context, orderID int, filter models.EvidenceFilter) ([]models.Evidence, error) {
	var w whereBuilder
	w.add("order_id = ?", orderID)
	if filter.Status != "" {
		w.add("status = ?", filter.Status)
	}
	if filter.Type != "" {
		w.add("type = ?", filter.Type)
	}

	rows, err := r.db.Query(ctx, `SELECT `+evidenceColumns+` FROM evidences`+w.sql()+` ORDER BY created_at DESC`, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	evidences := []models.Evidence{}
	for rows.Next() {
		e, err := scanEvidence(rows)
		if err != nil {
			return nil, err
		}
		evidences = append(evidences, *e)
	}
	return evidences, rows.Err()
}

// UpdateReview stores a review decision only while the evidence is still pending.
func (r *EvidenceRepository) UpdateReview(ctx context.Context, e *models.Evidence) error {
	query := `
		UPDATE evidences
		SET status = $1, reviewed_by = $2, reviewed_at = $3, rejection_reason = $4, updated_at = $5
		WHERE id = $6 AND status = 'pendiente'
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query, e.Status, e.ReviewedBy, e.ReviewedAt, e.RejectionReason, time.Now(), e.ID).
		Scan(&e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrConflict
	}
	return mapErr(err)
}

func (r *EvidenceRepository) Delete(ctx context.Context, id int) error {
	return expectOne(r.db.Exec(ctx, `DELETE FROM evidences WHERE id = $1`, id))
}

func (r *EvidenceRepository) CountByStatus(ctx context.Context, orderID int) (map[string]int, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM evidences WHERE order_id = $1 GROUP BY status`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
