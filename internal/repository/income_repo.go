package repository

import (
	"context"
	"time"

	"reviewledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IncomeFilter narrows income listings. PaymentDateFrom/To are inclusive.
type IncomeFilter struct {
	Search          string
	ReviewJobID     *uuid.UUID
	PaymentDateFrom *time.Time
	PaymentDateTo   *time.Time
	Currency        string
}

func (f IncomeFilter) scope(db *gorm.DB) *gorm.DB {
	if f.Search != "" {
		db = db.Where("review_job_id IN (?)",
			db.Session(&gorm.Session{NewDB: true}).Model(&model.ReviewJob{}).Select("id").Where("LOWER(title) LIKE ?", likePattern(f.Search)))
	}
	if f.ReviewJobID != nil {
		db = db.Where("review_job_id = ?", *f.ReviewJobID)
	}
	if f.PaymentDateFrom != nil {
		db = db.Where("payment_date >= ?", *f.PaymentDateFrom)
	}
	if f.PaymentDateTo != nil {
		db = db.Where("payment_date <= ?", *f.PaymentDateTo)
	}
	if f.Currency != "" {
		db = db.Where("currency = ?", f.Currency)
	}
	return db
}

type IncomeRepository interface {
	Create(ctx context.Context, income *model.Income) error
	Update(ctx context.Context, income *model.Income) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByJob(ctx context.Context, jobID uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Income, error)
	ListByJob(ctx context.Context, jobID uuid.UUID) ([]model.Income, error)
	List(ctx context.Context, filter IncomeFilter, offset, limit int) ([]model.Income, int64, error)
	// ListPaidBetween returns incomes with from <= payment_date < to.
	ListPaidBetween(ctx context.Context, from, to time.Time) ([]model.Income, error)
}

type incomeRepository struct {
	db *gorm.DB
}

func NewIncomeRepository(db *gorm.DB) IncomeRepository {
	return &incomeRepository{db: db}
}

func (r *incomeRepository) Create(ctx context.Context, income *model.Income) error {
	return GetDB(ctx, r.db).Omit("ReviewJob").Create(income).Error
}

func (r *incomeRepository) Update(ctx context.Context, income *model.Income) error {
	return GetDB(ctx, r.db).Omit("ReviewJob").Save(income).Error
}

func (r *incomeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(GetDB(ctx, r.db), &model.Income{}, id)
}

func (r *incomeRepository) DeleteByJob(ctx context.Context, jobID uuid.UUID) error {
	return GetDB(ctx, r.db).Where("review_job_id = ?", jobID).Delete(&model.Income{}).Error
}

func (r *incomeRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Income, error) {
	var income model.Income
	if err := GetDB(ctx, r.db).Preload("ReviewJob").First(&income, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &income, nil
}

// ListByJob returns a job's incomes, oldest first.
func (r *incomeRepository) ListByJob(ctx context.Context, jobID uuid.UUID) ([]model.Income, error) {
	var incomes []model.Income
	err := GetDB(ctx, r.db).Where("review_job_id = ?", jobID).Order("created_at ASC").Find(&incomes).Error
	return incomes, err
}

// List orders newest payment first.
func (r *incomeRepository) List(ctx context.Context, filter IncomeFilter, offset, limit int) ([]model.Income, int64, error) {
	var incomes []model.Income
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Income{}).Scopes(filter.scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Model(&model.Income{}).Scopes(filter.scope).Preload("ReviewJob").
		Order("payment_date DESC").Order("created_at DESC").
		Offset(offset).Limit(limit).Find(&incomes).Error; err != nil {
		return nil, 0, err
	}
	return incomes, total, nil
}

func (r *incomeRepository) ListPaidBetween(ctx context.Context, from, to time.Time) ([]model.Income, error) {
	var incomes []model.Income
	err := GetDB(ctx, r.db).
		Where("payment_date >= ? AND payment_date < ?", from, to).
		Order("payment_date ASC").
		Find(&incomes).Error
	return incomes, err
}
