package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Review job workflow statuses, in board column order.
const (
	JobStatusReceived        = "received"
	JobStatusScriptSent      = "script_sent"
	JobStatusInProgress      = "in_progress"
	JobStatusWaitingEdit     = "waiting_edit"
	JobStatusWaitingReview   = "waiting_review"
	JobStatusApprovedPending = "approved_pending"
	JobStatusPaid            = "paid"
)

// JobStatuses lists every status in board order.
var JobStatuses = []string{
	JobStatusReceived,
	JobStatusScriptSent,
	JobStatusInProgress,
	JobStatusWaitingEdit,
	JobStatusWaitingReview,
	JobStatusApprovedPending,
	JobStatusPaid,
}

// IsValidJobStatus reports whether s is a known status.
func IsValidJobStatus(s string) bool {
	for _, st := range JobStatuses {
		if st == s {
			return true
		}
	}
	return false
}

// ReviewJob is one piece of sponsored content from receipt to payment.
type ReviewJob struct {
	ID                uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	PayerName         string                      `gorm:"type:varchar(255);index" json:"payer_name"`
	Status            string                      `gorm:"type:varchar(32);not null;index" json:"status"`
	Platforms         datatypes.JSONSlice[string] `gorm:"not null" json:"platforms"`
	ContentType       string                      `gorm:"type:varchar(100);not null" json:"content_type"`
	Title             string                      `gorm:"type:varchar(500);not null" json:"title"`
	ReceivedDate      *time.Time                  `gorm:"type:date;index" json:"received_date"`
	ReviewDeadline    *time.Time                  `gorm:"type:date" json:"review_deadline"`
	PublishDate       *time.Time                  `gorm:"type:date" json:"publish_date"`
	PaymentDate       *time.Time                  `gorm:"type:date" json:"payment_date"`
	Tags              datatypes.JSONSlice[string] `json:"tags"`
	Notes             string                      `gorm:"type:text" json:"notes"`
	HasWithholdingTax bool                        `gorm:"not null" json:"has_withholding_tax"`
	IsBrotherJob      bool                        `gorm:"not null" json:"is_brother_job"`
	WithholdingRate   decimal.Decimal             `gorm:"type:decimal(5,2);not null" json:"withholding_rate"`
	CreatedAt         time.Time                   `json:"created_at"`
	UpdatedAt         time.Time                   `json:"updated_at"`
}

func (j *ReviewJob) BeforeCreate(tx *gorm.DB) error {
	assignID(&j.ID)
	return nil
}
