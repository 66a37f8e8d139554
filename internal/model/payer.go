package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Payer is a brand or agency that pays for review work.
type Payer struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string    `gorm:"type:varchar(255);not null;index" json:"name"`
	TaxID        string    `gorm:"type:varchar(32)" json:"tax_id"`
	ContactEmail string    `gorm:"type:varchar(255)" json:"contact_email"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (p *Payer) BeforeCreate(tx *gorm.DB) error {
	assignID(&p.ID)
	return nil
}
