package services

import (
	"context"
	"encoding/json"

	"cermont/models"

	"go.uber.org/zap"
)

type AuditService struct {
	repo AuditStore
	log  *zap.Logger
}

func NewAuditService(repo AuditStore, log *zap.Logger) *AuditService {
	return &AuditService{repo: repo, log: log}
}

// Record writes an audit entry. Failures are logged and never returned.
func (s *AuditService) Record(ctx context.Context, entry *models.AuditLog) {
	if err := s.repo.Create(ctx, entry); err != nil {
		s.log.Warn("failed to write audit log",
			zap.String("entity", entry.EntityType),
			zap.Int("entity_id", entry.EntityID),
			zap.String("action", entry.Action),
			zap.Error(err),
		)
	}
}

func (s *AuditService) History(ctx context.Context, entityType string, entityID int) ([]models.AuditLog, error) {
	return s.repo.ListByEntity(ctx, entityType, entityID)
}

func (s *AuditService) List(ctx context.Context, entityType string, page, limit int) ([]models.AuditLog, int, error) {
	return s.repo.List(ctx, entityType, page, limit)
}

func newAudit(meta models.RequestMeta, entityType string, entityID int, action string) *models.AuditLog {
	return &models.AuditLog{
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		UserID:     meta.UserID,
		IP:         meta.IP,
		UserAgent:  meta.UserAgent,
	}
}

// snapshot converts an entity into the generic map stored in before/after.
func snapshot(v any) map[string]interface{} {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	out := map[string]interface{}{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}
