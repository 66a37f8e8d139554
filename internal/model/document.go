package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultDocumentKind is used when a document is attached without a kind.
const DefaultDocumentKind = "evidence"

// Document links an uploaded file (contract, 50 Tawi certificate, screenshot)
// to a job or an income record.
type Document struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ReviewJobID *uuid.UUID `gorm:"type:uuid;index" json:"review_job_id"`
	IncomeID    *uuid.UUID `gorm:"type:uuid;index" json:"income_id"`
	Kind        string     `gorm:"type:varchar(50);not null" json:"kind"`
	FilePath    string     `gorm:"type:varchar(1024)" json:"file_path"`
	Notes       string     `gorm:"type:text" json:"notes"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
}

func (d *Document) BeforeCreate(tx *gorm.DB) error {
	assignID(&d.ID)
	return nil
}
