package repositories

import (
	"context"
	"time"

	"cermont/models"

	"github.com/jackc/pgx/v5"
)

type ChecklistRepository struct {
	db DBTX
}

func NewChecklistRepository(db DBTX) *ChecklistRepository {
	return &ChecklistRepository{db: db}
}

// UpsertTemplate inserts a template or replaces the items of the one with the same name.
func (r *ChecklistRepository) UpsertTemplate(ctx context.Context, t *models.ChecklistTemplate) error {
	query := `
		INSERT INTO checklist_templates (name, description, items)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description, items = EXCLUDED.items
		RETURNING id, created_at
	`
	return mapErr(r.db.QueryRow(ctx, query, t.Name, t.Description, t.Items).Scan(&t.ID, &t.CreatedAt))
}

func (r *ChecklistRepository) FindTemplate(ctx context.Context, id int) (*models.ChecklistTemplate, error) {
	query := `SELECT id, name, description, items, created_at FROM checklist_templates WHERE id = $1`
	t := &models.ChecklistTemplate{}
	err := r.db.QueryRow(ctx, query, id).Scan(&t.ID, &t.Name, &t.Description, &t.Items, &t.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return t, nil
}

func (r *ChecklistRepository) ListTemplates(ctx context.Context) ([]models.ChecklistTemplate, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, description, items, created_at FROM checklist_templates ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := []models.ChecklistTemplate{}
	for rows.Next() {
		var t models.ChecklistTemplate
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.Items, &t.CreatedAt); err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

const checklistColumns = `id, execution_id, template_id, name, items, answers, completed, completed_by,
	completed_at, created_at, updated_at`

func scanChecklist(row pgx.Row) (*models.Checklist, error) {
	c := &models.Checklist{}
	err := row.Scan(
		&c.ID,
		&c.ExecutionID,
		&c.TemplateID,
		&c.Name,
		&c.Items,
		&c.Answers,
		&c.Completed,
		&c.CompletedBy,
		&c.CompletedAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	if c.Answers == nil {
		c.Answers = map[string]interface{}{}
	}
	return c, nil
}

func (r *ChecklistRepository) Create(ctx context.Context, c *models.Checklist) error {
	query := `
		INSERT INTO checklists (execution_id, template_id, name, items, answers, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, c.ExecutionID, c.TemplateID, c.Name, c.Items, c.Answers, time.Now()).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	return mapErr(err)
}

func (r *ChecklistRepository) FindByID(ctx context.Context, id int) (*models.Checklist, error) {
	return scanChecklist(r.db.QueryRow(ctx, `SELECT `+checklistColumns+` FROM checklists WHERE id = $1`, id))
}

func (r *ChecklistRepository) ListByExecution(ctx context.Context, executionID int) ([]models.Checklist, error) {
	rows, err := r.db.Query(ctx, `SELECT `+checklistColumns+` FROM checklists WHERE execution_id = $1 ORDER BY id`, executionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	checklists := []models.Checklist{}
	for rows.Next() {
		c, err := scanChecklist(rows)
		if err != nil {
			return nil, err
		}
		checklists = append(checklists, *c)
	}
	return checklists, rows.Err()
}

func (r *ChecklistRepository) Update(ctx context.Context, c *models.Checklist) error {
	query := `
		UPDATE checklists
		SET answers = $1, completed = $2, completed_by = $3, completed_at = $4, updated_at = $5
		WHERE id = $6
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query, c.Answers, c.Completed, c.CompletedBy, c.CompletedAt, time.Now(), c.ID).
		Scan(&c.UpdatedAt)
	return mapErr(err)
}
