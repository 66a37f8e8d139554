package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"reviewledger/internal/metrics"
	"reviewledger/internal/model"
	"reviewledger/internal/repository"
	"reviewledger/internal/storage"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateDocumentRequest struct {
	ReviewJobID string `json:"review_job_id"`
	IncomeID    string `json:"income_id"`
	Kind        string `json:"kind"`
	FilePath    string `json:"file_path" binding:"required"`
	Notes       string `json:"notes"`
}

type DocumentResponse struct {
	ID          uuid.UUID  `json:"id"`
	ReviewJobID *uuid.UUID `json:"review_job_id"`
	IncomeID    *uuid.UUID `json:"income_id"`
	Kind        string     `json:"kind"`
	FilePath    string     `json:"file_path"`
	Notes       string     `json:"notes"`
	CreatedAt   time.Time  `json:"created_at"`
}

// --- Interface ---

type DocumentService interface {
	Upload(ctx context.Context, up storage.Upload) (storage.Stored, error)
	CreateDocument(ctx context.Context, req CreateDocumentRequest) (DocumentResponse, error)
	ListByJob(ctx context.Context, reviewJobID string) ([]DocumentResponse, error)
	DeleteDocument(ctx context.Context, id string) error
}

// --- Implementation ---

type documentService struct {
	docRepo    repository.DocumentRepository
	jobRepo    repository.ReviewJobRepository
	incomeRepo repository.IncomeRepository
	auditRepo  repository.AuditRepository
	txManager  repository.TransactionManager
	files      storage.Store
	metrics    *metrics.Metrics
}

func NewDocumentService(
	docRepo repository.DocumentRepository,
	jobRepo repository.ReviewJobRepository,
	incomeRepo repository.IncomeRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	files storage.Store,
	m *metrics.Metrics,
) DocumentService {
	return &documentService{
		docRepo:    docRepo,
		jobRepo:    jobRepo,
		incomeRepo: incomeRepo,
		auditRepo:  auditRepo,
		txManager:  txManager,
		files:      files,
		metrics:    m,
	}
}

func (s *documentService) Upload(ctx context.Context, up storage.Upload) (storage.Stored, error) {
	stored, err := s.files.Save(ctx, up)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return storage.Stored{}, err
		}
		return storage.Stored{}, fmt.Errorf("failed to store upload: %w", err)
	}
	s.metrics.RecordUpload(stored.FileSize)
	return stored, nil
}

func optionalID(field, raw string) (*uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := parseID(field, raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func (s *documentService) CreateDocument(ctx context.Context, req CreateDocumentRequest) (DocumentResponse, error) {
	filePath := strings.TrimSpace(req.FilePath)
	if filePath == "" {
		return DocumentResponse{}, invalid("file_path", "is required")
	}
	jobID, err := optionalID("review_job_id", req.ReviewJobID)
	if err != nil {
		return DocumentResponse{}, err
	}
	incomeID, err := optionalID("income_id", req.IncomeID)
	if err != nil {
		return DocumentResponse{}, err
	}
	kind := strings.TrimSpace(req.Kind)
	if kind == "" {
		kind = model.DefaultDocumentKind
	}

	doc := &model.Document{
		ReviewJobID: jobID,
		IncomeID:    incomeID,
		Kind:        kind,
		FilePath:    filePath,
		Notes:       strings.TrimSpace(req.Notes),
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if jobID != nil {
			if _, err := s.jobRepo.FindByID(txCtx, *jobID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return invalid("review_job_id", "review job does not exist")
				}
				return fmt.Errorf("failed to find review job: %w", err)
			}
		}
		if incomeID != nil {
			if _, err := s.incomeRepo.FindByID(txCtx, *incomeID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return invalid("income_id", "income does not exist")
				}
				return fmt.Errorf("failed to find income: %w", err)
			}
		}
		if err := s.docRepo.Create(txCtx, doc); err != nil {
			return fmt.Errorf("failed to create document: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, model.ActionCreateDocument, doc.ID.String(), doc.Kind,
			map[string]string{"file_path": doc.FilePath})
	})
	if err != nil {
		return DocumentResponse{}, err
	}

	return toDocumentResponse(*doc), nil
}

func (s *documentService) ListByJob(ctx context.Context, reviewJobID string) ([]DocumentResponse, error) {
	if strings.TrimSpace(reviewJobID) == "" {
		return nil, invalid("review_job_id", "is required")
	}
	jobID, err := parseID("review_job_id", reviewJobID)
	if err != nil {
		return nil, err
	}
	docs, err := s.docRepo.ListByJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	res := make([]DocumentResponse, 0, len(docs))
	for _, d := range docs {
		res = append(res, toDocumentResponse(d))
	}
	return res, nil
}

// DeleteDocument removes the record, then its stored file. A file that is
// already gone is not an error.
func (s *documentService) DeleteDocument(ctx context.Context, id string) error {
	uid, err := parseID("id", id)
	if err != nil {
		return err
	}

	var doc *model.Document
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		doc, err = s.docRepo.FindByID(txCtx, uid)
		if err != nil {
			return notFoundOr(err, "find document")
		}
		if err := s.docRepo.Delete(txCtx, uid); err != nil {
			return notFoundOr(err, "delete document")
		}
		return writeAudit(txCtx, s.auditRepo, model.ActionDeleteDocument, doc.ID.String(), doc.Kind,
			map[string]string{"file_path": doc.FilePath})
	})
	if err != nil {
		return err
	}

	removeFiles(ctx, s.files, []model.Document{*doc})
	return nil
}

func toDocumentResponse(d model.Document) DocumentResponse {
	return DocumentResponse{
		ID:          d.ID,
		ReviewJobID: d.ReviewJobID,
		IncomeID:    d.IncomeID,
		Kind:        d.Kind,
		FilePath:    d.FilePath,
		Notes:       d.Notes,
		CreatedAt:   d.CreatedAt,
	}
}
