package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"cermont/libs"
	"cermont/models"
	"cermont/repositories"
	"cermont/utils"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
)

const sniffLength = 3072

// EvidenceRule bounds what can be uploaded for an evidence type.
type EvidenceRule struct {
	Extensions []string
	MimeTypes  []string
	MaxSize    int64
}

const mb = 1 << 20

var EvidenceRules = map[string]EvidenceRule{
	models.EvidenceFoto: {
		Extensions: []string{".jpg", ".jpeg", ".png", ".webp", ".heic"},
		MimeTypes:  []string{"image/jpeg", "image/png", "image/webp", "image/heic", "image/heif"},
		MaxSize:    10 * mb,
	},
	models.EvidenceVideo: {
		Extensions: []string{".mp4", ".mov", ".avi", ".webm"},
		MimeTypes:  []string{"video/mp4", "video/quicktime", "video/x-msvideo", "video/webm"},
		MaxSize:    100 * mb,
	},
	models.EvidenceDocumento: {
		Extensions: []string{".pdf", ".doc", ".docx", ".xls", ".xlsx"},
		MimeTypes: []string{
			"application/pdf",
			"application/msword",
			"application/vnd.ms-excel",
			"application/x-ole-storage",
			"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			"application/zip",
		},
		MaxSize: 20 * mb,
	},
	models.EvidenceAudio: {
		Extensions: []string{".mp3", ".wav", ".m4a", ".aac"},
		MimeTypes:  []string{"audio/mpeg", "audio/wav", "audio/x-m4a", "audio/mp4", "audio/aac"},
		MaxSize:    20 * mb,
	},
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// allowedMime walks the detected type and its parents against the allow-list.
func allowedMime(mt *mimetype.MIME, allowed []string) bool {
	for m := mt; m != nil; m = m.Parent() {
		for _, a := range allowed {
			if m.Is(a) {
				return true
			}
		}
	}
	return false
}

type EvidenceService struct {
	evidences  EvidenceStore
	orders     OrderStore
	executions ExecutionStore
	users      UserStore
	storage    libs.FileStorage
	audit      *AuditService
	notifier   Notifier
	log        *zap.Logger
	now        func() time.Time
}

func NewEvidenceService(
	evidences EvidenceStore,
	orders OrderStore,
	executions ExecutionStore,
	users UserStore,
	storage libs.FileStorage,
	audit *AuditService,
	notifier Notifier,
	log *zap.Logger,
) *EvidenceService {
	return &EvidenceService{
		evidences:  evidences,
		orders:     orders,
		executions: executions,
		users:      users,
		storage:    storage,
		audit:      audit,
		notifier:   notifier,
		log:        log,
		now:        time.Now,
	}
}

func validateUpload(in models.UploadEvidenceInput) (EvidenceRule, error) {
	rule, ok := EvidenceRules[in.Type]
	if !ok {
		return rule, invalid("type", "must be one of FOTO, VIDEO, DOCUMENTO, AUDIO")
	}
	ext := utils.FileExt(in.FileName)
	if !contains(rule.Extensions, ext) {
		return rule, invalid("file", "extension %q is not allowed for %s, allowed: %s", ext, in.Type, strings.Join(rule.Extensions, " "))
	}
	if in.Size <= 0 {
		return rule, invalid("file", "is empty")
	}
	if in.Size > rule.MaxSize {
		return rule, invalid("file", "exceeds the %d MB limit for %s", rule.MaxSize/mb, in.Type)
	}
	if err := validateCoordinates(in.Latitude, in.Longitude); err != nil {
		return rule, err
	}
	return rule, nil
}

// Upload validates and stores an evidence file for an order.
func (s *EvidenceService) Upload(ctx context.Context, in models.UploadEvidenceInput, file io.Reader, meta models.RequestMeta) (*models.Evidence, error) {
	rule, err := validateUpload(in)
	if err != nil {
		return nil, err
	}

	order, err := s.orders.FindByID(ctx, in.OrderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.Archived {
		return nil, ErrOrderArchived
	}
	if in.ExecutionID != nil {
		exec, err := s.executions.FindByID(ctx, *in.ExecutionID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, ErrExecutionNotFound
			}
			return nil, err
		}
		if exec.OrderID != order.ID {
			return nil, invalid("execution_id", "does not belong to order %s", order.Numero)
		}
	}

	head := make([]byte, sniffLength)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	head = head[:n]
	mt := mimetype.Detect(head)
	if !allowedMime(mt, rule.MimeTypes) {
		return nil, invalid("file", "content type %s is not allowed for %s", mt.String(), in.Type)
	}
	contentType := strings.SplitN(mt.String(), ";", 2)[0]

	name := utils.SanitizeFilename(in.FileName)
	key := utils.StorageKey(fmt.Sprintf("evidence/%d", order.ID), name, s.now())
	stored, err := s.storage.Save(ctx, key, io.MultiReader(bytes.NewReader(head), file), contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to store evidence: %w", err)
	}

	ev := &models.Evidence{
		OrderID:     order.ID,
		ExecutionID: in.ExecutionID,
		Type:        in.Type,
		FileURL:     stored.URL,
		StorageKey:  stored.Key,
		FileName:    name,
		MimeType:    contentType,
		Size:        in.Size,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		Description: strings.TrimSpace(in.Description),
		Status:      models.EvidencePendiente,
		UploadedBy:  meta.UserID,
	}
	if err := s.evidences.Create(ctx, ev); err != nil {
		if delErr := s.storage.Delete(ctx, stored.Key); delErr != nil {
			s.log.Warn("failed to remove orphaned evidence file", zap.String("key", stored.Key), zap.Error(delErr))
		}
		return nil, err
	}

	entry := newAudit(meta, models.EntityEvidence, ev.ID, models.AuditCreate)
	entry.After = snapshot(ev)
	s.audit.Record(ctx, entry)
	return ev, nil
}

func (s *EvidenceService) Get(ctx context.Context, id int) (*models.Evidence, error) {
	ev, err := s.evidences.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrEvidenceNotFound
		}
		return nil, err
	}
	return ev, nil
}

func (s *EvidenceService) ListByOrder(ctx context.Context, orderID int, filter models.EvidenceFilter) ([]models.Evidence, error) {
	if filter.Status != "" && filter.Status != models.EvidencePendiente &&
		filter.Status != models.EvidenceAprobada && filter.Status != models.EvidenceRechazada {
		return nil, invalid("status", "unknown status %q", filter.Status)
	}
	if filter.Type != "" {
		if _, ok := EvidenceRules[filter.Type]; !ok {
			return nil, invalid("type", "unknown type %q", filter.Type)
		}
	}
	if _, err := s.orders.FindByID(ctx, orderID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return s.evidences.ListByOrder(ctx, orderID, filter)
}

func (s *EvidenceService) review(ctx context.Context, id int, status, reason string, meta models.RequestMeta) (*models.Evidence, error) {
	ev, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if ev.Status != models.EvidencePendiente {
		return nil, ErrEvidenceReviewed
	}

	now := s.now()
	reviewer := meta.UserID
	ev.Status = status
	ev.ReviewedBy = &reviewer
	ev.ReviewedAt = &now
	ev.RejectionReason = reason
	if err := s.evidences.UpdateReview(ctx, ev); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return nil, ErrEvidenceReviewed
		}
		return nil, err
	}

	action := models.AuditApprove
	if status == models.EvidenceRechazada {
		action = models.AuditReject
	}
	entry := newAudit(meta, models.EntityEvidence, ev.ID, action)
	entry.Before = map[string]interface{}{"status": models.EvidencePendiente}
	entry.After = map[string]interface{}{"status": status}
	entry.Reason = reason
	s.audit.Record(ctx, entry)
	return ev, nil
}

// Approve accepts a pending evidence.
func (s *EvidenceService) Approve(ctx context.Context, id int, meta models.RequestMeta) (*models.Evidence, error) {
	return s.review(ctx, id, models.EvidenceAprobada, "", meta)
}

// Reject refuses a pending evidence and notifies its uploader.
func (s *EvidenceService) Reject(ctx context.Context, id int, reason string, meta models.RequestMeta) (*models.Evidence, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, invalid("reason", "is required to reject evidence")
	}
	ev, err := s.review(ctx, id, models.EvidenceRechazada, reason, meta)
	if err != nil {
		return nil, err
	}
	s.notifyRejected(ctx, ev)
	return ev, nil
}

func (s *EvidenceService) notifyRejected(ctx context.Context, ev *models.Evidence) {
	uploader, err := s.users.FindByID(ctx, ev.UploadedBy)
	if err != nil {
		s.log.Warn("rejection notification skipped", zap.Int("evidence_id", ev.ID), zap.Error(err))
		return
	}
	order, err := s.orders.FindByID(ctx, ev.OrderID)
	if err != nil {
		s.log.Warn("rejection notification skipped", zap.Int("evidence_id", ev.ID), zap.Error(err))
		return
	}
	if err := s.notifier.EvidenceRejected(ctx, uploader, order, ev); err != nil {
		s.log.Warn("failed to queue rejection notification", zap.Int("evidence_id", ev.ID), zap.Error(err))
	}
}

// Delete removes an evidence record and its file. Only the uploader or an
// admin may delete.
func (s *EvidenceService) Delete(ctx context.Context, id int, meta models.RequestMeta) error {
	ev, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if ev.UploadedBy != meta.UserID && meta.Role != models.RoleAdmin {
		return ErrNotOwner
	}
	if err := s.evidences.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrEvidenceNotFound
		}
		return err
	}
	if err := s.storage.Delete(ctx, ev.StorageKey); err != nil {
		s.log.Warn("failed to delete evidence file", zap.String("key", ev.StorageKey), zap.Error(err))
	}

	entry := newAudit(meta, models.EntityEvidence, id, models.AuditDelete)
	entry.Before = snapshot(ev)
	s.audit.Record(ctx, entry)
	return nil
}
