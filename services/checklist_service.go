package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cermont/models"
	"cermont/repositories"
	"cermont/utils"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// TemplateFile is the layout of the checklist seed file.
type TemplateFile struct {
	Templates []models.ChecklistTemplate `yaml:"templates"`
}

type ChecklistService struct {
	checklists ChecklistStore
	executions ExecutionStore
	audit      *AuditService
	log        *zap.Logger
	now        func() time.Time
}

func NewChecklistService(checklists ChecklistStore, executions ExecutionStore, audit *AuditService, log *zap.Logger) *ChecklistService {
	return &ChecklistService{checklists: checklists, executions: executions, audit: audit, log: log, now: time.Now}
}

// ParseTemplates decodes and validates a YAML template file.
func ParseTemplates(data []byte) ([]models.ChecklistTemplate, error) {
	var file TemplateFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse checklist templates: %w", err)
	}
	for i := range file.Templates {
		if err := ValidateTemplate(&file.Templates[i]); err != nil {
			return nil, fmt.Errorf("template %d: %w", i+1, err)
		}
	}
	return file.Templates, nil
}

// ValidateTemplate checks item keys and that every formula only references
// numeric items of the same template.
func ValidateTemplate(t *models.ChecklistTemplate) error {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return invalid("name", "is required")
	}
	if len(t.Items) == 0 {
		return invalid("items", "%s: at least one item is required", t.Name)
	}

	kinds := make(map[string]string, len(t.Items))
	for _, item := range t.Items {
		if item.Key == "" {
			return invalid("items", "%s: item %q has no key", t.Name, item.Label)
		}
		if _, dup := kinds[item.Key]; dup {
			return invalid("items", "%s: duplicate key %q", t.Name, item.Key)
		}
		switch item.Kind {
		case models.ItemCheck, models.ItemNumero, models.ItemTexto, models.ItemCalculado:
		default:
			return invalid("items", "%s: item %q has unknown kind %q", t.Name, item.Key, item.Kind)
		}
		kinds[item.Key] = item.Kind
	}

	for _, item := range t.Items {
		if item.Kind != models.ItemCalculado {
			continue
		}
		fields, err := utils.FormulaFields(item.Formula)
		if err != nil {
			return invalid("items", "%s: item %q: %v", t.Name, item.Key, err)
		}
		for _, f := range fields {
			if kinds[f] != models.ItemNumero {
				return invalid("items", "%s: item %q references %q which is not a numeric item", t.Name, item.Key, f)
			}
		}
	}
	return nil
}

// SeedTemplates upserts every template of a YAML file by name.
func (s *ChecklistService) SeedTemplates(ctx context.Context, data []byte) (int, error) {
	templates, err := ParseTemplates(data)
	if err != nil {
		return 0, err
	}
	for i := range templates {
		if err := s.checklists.UpsertTemplate(ctx, &templates[i]); err != nil {
			return i, fmt.Errorf("failed to save template %s: %w", templates[i].Name, err)
		}
	}
	return len(templates), nil
}

func (s *ChecklistService) ListTemplates(ctx context.Context) ([]models.ChecklistTemplate, error) {
	return s.checklists.ListTemplates(ctx)
}

func (s *ChecklistService) Attach(ctx context.Context, executionID, templateID int, meta models.RequestMeta) (*models.Checklist, error) {
	exec, err := s.executions.FindByID(ctx, executionID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrExecutionNotFound
		}
		return nil, err
	}
	if exec.Status == models.ExecutionCompletada {
		return nil, ErrExecutionCompleted
	}

	tpl, err := s.checklists.FindTemplate(ctx, templateID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}

	c := &models.Checklist{
		ExecutionID: executionID,
		TemplateID:  tpl.ID,
		Name:        tpl.Name,
		Items:       tpl.Items,
		Answers:     map[string]interface{}{},
	}
	if err := s.checklists.Create(ctx, c); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrChecklistAttached
		}
		return nil, err
	}

	entry := newAudit(meta, models.EntityChecklist, c.ID, models.AuditCreate)
	entry.After = map[string]interface{}{"execution_id": executionID, "template": tpl.Name}
	s.audit.Record(ctx, entry)
	return c, nil
}

func (s *ChecklistService) ListByExecution(ctx context.Context, executionID int) ([]models.Checklist, error) {
	return s.checklists.ListByExecution(ctx, executionID)
}

func (s *ChecklistService) Get(ctx context.Context, id int) (*models.Checklist, error) {
	c, err := s.checklists.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrChecklistNotFound
		}
		return nil, err
	}
	return c, nil
}

func checkAnswer(item models.ChecklistItem, v interface{}) error {
	switch item.Kind {
	case models.ItemCheck:
		if _, ok := v.(bool); !ok {
			return invalid(item.Key, "must be true or false")
		}
	case models.ItemNumero:
		if _, ok := toFloat(v); !ok {
			return invalid(item.Key, "must be a number")
		}
	case models.ItemTexto:
		if _, ok := v.(string); !ok {
			return invalid(item.Key, "must be text")
		}
	case models.ItemCalculado:
		return invalid(item.Key, "is calculated and cannot be answered")
	}
	return nil
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// evaluateCalculated recomputes calculado items whose referenced answers are
// all present. Items that cannot be computed are left unanswered.
func (s *ChecklistService) evaluateCalculated(c *models.Checklist) {
	for _, item := range c.Items {
		if item.Kind != models.ItemCalculado {
			continue
		}
		delete(c.Answers, item.Key)

		fields, err := utils.FormulaFields(item.Formula)
		if err != nil {
			s.log.Warn("invalid checklist formula", zap.String("item", item.Key), zap.Error(err))
			continue
		}
		vars := make(map[string]float64, len(fields))
		complete := true
		for _, f := range fields {
			n, ok := toFloat(c.Answers[f])
			if !ok {
				complete = false
				break
			}
			vars[f] = n
		}
		if !complete {
			continue
		}
		v, err := utils.EvaluateFormula(item.Formula, vars)
		if err != nil {
			s.log.Debug("checklist formula not evaluated", zap.String("item", item.Key), zap.Error(err))
			continue
		}
		c.Answers[item.Key] = round2(v)
	}
}

// RecordAnswers merges answers into the checklist. A nil value clears an answer.
func (s *ChecklistService) RecordAnswers(ctx context.Context, id int, answers map[string]interface{}, meta models.RequestMeta) (*models.Checklist, error) {
	if len(answers) == 0 {
		return nil, invalid("answers", "at least one answer is required")
	}
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Completed {
		return nil, ErrChecklistCompleted
	}

	items := make(map[string]models.ChecklistItem, len(c.Items))
	for _, item := range c.Items {
		items[item.Key] = item
	}
	for key, v := range answers {
		item, ok := items[key]
		if !ok {
			return nil, invalid(key, "is not an item of this checklist")
		}
		if v == nil {
			continue
		}
		if err := checkAnswer(item, v); err != nil {
			return nil, err
		}
	}

	if c.Answers == nil {
		c.Answers = map[string]interface{}{}
	}
	for key, v := range answers {
		if v == nil {
			delete(c.Answers, key)
			continue
		}
		c.Answers[key] = v
	}
	s.evaluateCalculated(c)

	if err := s.checklists.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func answered(v interface{}) bool {
	switch a := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(a) != ""
	}
	return true
}

// Complete closes the checklist once every required item is answered.
func (s *ChecklistService) Complete(ctx context.Context, id int, meta models.RequestMeta) (*models.Checklist, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Completed {
		return nil, ErrChecklistCompleted
	}

	var missing []string
	for _, item := range c.Items {
		if item.Required && !answered(c.Answers[item.Key]) {
			missing = append(missing, item.Key)
		}
	}
	if len(missing) > 0 {
		return nil, invalid("answers", "required items missing: %s", strings.Join(missing, ", "))
	}

	now := s.now()
	by := meta.UserID
	c.Completed = true
	c.CompletedAt = &now
	c.CompletedBy = &by
	if err := s.checklists.Update(ctx, c); err != nil {
		return nil, err
	}

	entry := newAudit(meta, models.EntityChecklist, c.ID, models.AuditUpdate)
	entry.Reason = "checklist completed"
	s.audit.Record(ctx, entry)
	return c, nil
}
