package repository

import (
	"context"

	"reviewledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DocumentRepository interface {
	Create(ctx context.Context, doc *model.Document) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByJob(ctx context.Context, jobID uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Document, error)
	ListByJob(ctx context.Context, jobID uuid.UUID) ([]model.Document, error)
}

type documentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) Create(ctx context.Context, doc *model.Document) error {
	return GetDB(ctx, r.db).Create(doc).Error
}

func (r *documentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(GetDB(ctx, r.db), &model.Document{}, id)
}

func (r *documentRepository) DeleteByJob(ctx context.Context, jobID uuid.UUID) error {
	return GetDB(ctx, r.db).Where("review_job_id = ?", jobID).Delete(&model.Document{}).Error
}

func (r *documentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Document, error) {
	var doc model.Document
	if err := GetDB(ctx, r.db).First(&doc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListByJob returns newest first.
func (r *documentRepository) ListByJob(ctx context.Context, jobID uuid.UUID) ([]model.Document, error) {
	var docs []model.Document
	err := GetDB(ctx, r.db).Where("review_job_id = ?", jobID).Order("created_at DESC").Find(&docs).Error
	return docs, err
}
