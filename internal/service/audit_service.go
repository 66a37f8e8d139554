package service

import (
	"context"
	"encoding/json"
	"fmt"

	"reviewledger/internal/model"
	"reviewledger/internal/repository"

	"gorm.io/datatypes"
)

type AuditLogResponse struct {
	ID         string          `json:"id"`
	Actor      string          `json:"actor"`
	Action     string          `json:"action"`
	EntityID   string          `json:"entity_id"`
	EntityName string          `json:"entity_name"`
	Details    json.RawMessage `json:"details"`
	CreatedAt  string          `json:"created_at"`
}

type AuditService interface {
	GetAuditLogs(ctx context.Context, action string, page, limit int) ([]AuditLogResponse, int64, error)
}

type auditService struct {
	auditRepo repository.AuditRepository
}

// NewAuditService creates a new AuditService instance
func NewAuditService(auditRepo repository.AuditRepository) AuditService {
	return &auditService{auditRepo: auditRepo}
}

// GetAuditLogs returns entries newest first, optionally filtered by action.
func (s *auditService) GetAuditLogs(ctx context.Context, action string, page, limit int) ([]AuditLogResponse, int64, error) {
	offset := (page - 1) * limit
	logs, total, err := s.auditRepo.List(ctx, action, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		details := json.RawMessage(l.Details)
		if len(details) == 0 {
			details = json.RawMessage("{}")
		}
		res = append(res, AuditLogResponse{
			ID:         l.ID.String(),
			Actor:      l.Actor,
			Action:     l.Action,
			EntityID:   l.EntityID,
			EntityName: l.EntityName,
			Details:    details,
			CreatedAt:  l.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	return res, total, nil
}

// writeAudit records an entry on the transaction carried by ctx.
func writeAudit(ctx context.Context, repo repository.AuditRepository, action, entityID, entityName string, details interface{}) error {
	raw, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("failed to encode audit details: %w", err)
	}
	entry := &model.AuditLog{
		Actor:      ActorFromContext(ctx),
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    datatypes.JSON(raw),
	}
	if err := repo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}
