package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DefaultCurrency is the ISO 4217 code used when none is supplied.
const DefaultCurrency = "THB"

// Income is a payment received for a review job, with tax withheld at source.
type Income struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ReviewJobID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"review_job_id"`
	ReviewJob         *ReviewJob      `gorm:"foreignKey:ReviewJobID;constraint:OnDelete:CASCADE" json:"review_job,omitempty"`
	GrossAmount       decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"gross_amount"`
	WithholdingRate   decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"withholding_rate"`
	WithholdingAmount decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"withholding_amount"`
	NetAmount         decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"net_amount"`
	PaymentDate       time.Time       `gorm:"type:date;not null;index" json:"payment_date"`
	Currency          string          `gorm:"type:varchar(3);not null" json:"currency"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func (i *Income) BeforeCreate(tx *gorm.DB) error {
	assignID(&i.ID)
	return nil
}
