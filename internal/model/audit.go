package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ActionCreatePayer    = "CREATE_PAYER"
	ActionUpdatePayer    = "UPDATE_PAYER"
	ActionDeletePayer    = "DELETE_PAYER"
	ActionCreateJob      = "CREATE_REVIEW_JOB"
	ActionUpdateJob      = "UPDATE_REVIEW_JOB"
	ActionChangeStatus   = "CHANGE_JOB_STATUS"
	ActionDeleteJob      = "DELETE_REVIEW_JOB"
	ActionCreateIncome   = "CREATE_INCOME"
	ActionUpdateIncome   = "UPDATE_INCOME"
	ActionDeleteIncome   = "DELETE_INCOME"
	ActionCreateDocument = "CREATE_DOCUMENT"
	ActionDeleteDocument = "DELETE_DOCUMENT"
)

// AuditLog tracks who changed what and when.
type AuditLog struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Actor      string         `gorm:"type:varchar(100);not null" json:"actor"` // token subject, or "system"
	Action     string         `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string         `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string         `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    datatypes.JSON `json:"details"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	assignID(&a.ID)
	return nil
}
