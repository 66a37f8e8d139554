package repository

import (
	"context"

	"reviewledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PayerRepository interface {
	Create(ctx context.Context, payer *model.Payer) error
	Update(ctx context.Context, payer *model.Payer) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Payer, error)
	List(ctx context.Context, search string, offset, limit int) ([]model.Payer, int64, error)
}

type payerRepository struct {
	db *gorm.DB
}

func NewPayerRepository(db *gorm.DB) PayerRepository {
	return &payerRepository{db: db}
}

func (r *payerRepository) Create(ctx context.Context, payer *model.Payer) error {
	return GetDB(ctx, r.db).Create(payer).Error
}

func (r *payerRepository) Update(ctx context.Context, payer *model.Payer) error {
	return GetDB(ctx, r.db).Save(payer).Error
}

func (r *payerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(GetDB(ctx, r.db), &model.Payer{}, id)
}

func (r *payerRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Payer, error) {
	var payer model.Payer
	if err := GetDB(ctx, r.db).First(&payer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &payer, nil
}

// List matches search against name or tax id and orders by name.
func (r *payerRepository) List(ctx context.Context, search string, offset, limit int) ([]model.Payer, int64, error) {
	var payers []model.Payer
	var total int64

	scope := func(db *gorm.DB) *gorm.DB {
		if search != "" {
			p := likePattern(search)
			db = db.Where("LOWER(name) LIKE ? OR LOWER(tax_id) LIKE ?", p, p)
		}
		return db
	}

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Payer{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Model(&model.Payer{}).Scopes(scope).Order("name ASC").Offset(offset).Limit(limit).Find(&payers).Error; err != nil {
		return nil, 0, err
	}
	return payers, total, nil
}
