package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"reviewledger/internal/model"
	"reviewledger/internal/repository"

	"github.com/google/uuid"
)

// --- DTOs ---

type CreatePayerRequest struct {
	Name         string `json:"name" binding:"required"`
	TaxID        string `json:"tax_id"`
	ContactEmail string `json:"contact_email"`
}

type UpdatePayerRequest struct {
	Name         *string `json:"name"`
	TaxID        *string `json:"tax_id"`
	ContactEmail *string `json:"contact_email"`
}

type PayerResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	TaxID        string    `json:"tax_id"`
	ContactEmail string    `json:"contact_email"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// --- Interface ---

type PayerService interface {
	CreatePayer(ctx context.Context, req CreatePayerRequest) (PayerResponse, error)
	UpdatePayer(ctx context.Context, id string, req UpdatePayerRequest) (PayerResponse, error)
	DeletePayer(ctx context.Context, id string) error
	GetPayer(ctx context.Context, id string) (PayerResponse, error)
	GetPayers(ctx context.Context, search string, page, limit int) ([]PayerResponse, int64, error)
}

// --- Implementation ---

type payerService struct {
	payerRepo repository.PayerRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
}

func NewPayerService(payerRepo repository.PayerRepository, auditRepo repository.AuditRepository, txManager repository.TransactionManager) PayerService {
	return &payerService{payerRepo: payerRepo, auditRepo: auditRepo, txManager: txManager}
}

func validateEmail(email string) error {
	if email == "" {
		return nil
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return invalid("contact_email", "invalid email format")
	}
	return nil
}

func (s *payerService) CreatePayer(ctx context.Context, req CreatePayerRequest) (PayerResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return PayerResponse{}, invalid("name", "is required")
	}
	email := strings.TrimSpace(req.ContactEmail)
	if err := validateEmail(email); err != nil {
		return PayerResponse{}, err
	}

	payer := &model.Payer{
		Name:         name,
		TaxID:        strings.TrimSpace(req.TaxID),
		ContactEmail: email,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.payerRepo.Create(txCtx, payer); err != nil {
			return fmt.Errorf("failed to create payer: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, model.ActionCreatePayer, payer.ID.String(), payer.Name,
			map[string]string{"tax_id": payer.TaxID, "contact_email": payer.ContactEmail})
	})
	if err != nil {
		return PayerResponse{}, err
	}

	return toPayerResponse(*payer), nil
}

func (s *payerService) UpdatePayer(ctx context.Context, id string, req UpdatePayerRequest) (PayerResponse, error) {
	uid, err := parseID("id", id)
	if err != nil {
		return PayerResponse{}, err
	}

	var payer *model.Payer
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		payer, err = s.payerRepo.FindByID(txCtx, uid)
		if err != nil {
			return notFoundOr(err, "find payer")
		}

		changes := map[string]string{}
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return invalid("name", "cannot be empty")
			}
			payer.Name = name
			changes["name"] = name
		}
		if req.TaxID != nil {
			payer.TaxID = strings.TrimSpace(*req.TaxID)
			changes["tax_id"] = payer.TaxID
		}
		if req.ContactEmail != nil {
			email := strings.TrimSpace(*req.ContactEmail)
			if err := validateEmail(email); err != nil {
				return err
			}
			payer.ContactEmail = email
			changes["contact_email"] = email
		}

		if err := s.payerRepo.Update(txCtx, payer); err != nil {
			return fmt.Errorf("failed to update payer: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, model.ActionUpdatePayer, payer.ID.String(), payer.Name, changes)
	})
	if err != nil {
		return PayerResponse{}, err
	}

	return toPayerResponse(*payer), nil
}

func (s *payerService) DeletePayer(ctx context.Context, id string) error {
	uid, err := parseID("id", id)
	if err != nil {
		return err
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		payer, err := s.payerRepo.FindByID(txCtx, uid)
		if err != nil {
			return notFoundOr(err, "find payer")
		}
		if err := s.payerRepo.Delete(txCtx, uid); err != nil {
			return notFoundOr(err, "delete payer")
		}
		return writeAudit(txCtx, s.auditRepo, model.ActionDeletePayer, payer.ID.String(), payer.Name, map[string]bool{"deleted": true})
	})
}

func (s *payerService) GetPayer(ctx context.Context, id string) (PayerResponse, error) {
	uid, err := parseID("id", id)
	if err != nil {
		return PayerResponse{}, err
	}
	payer, err := s.payerRepo.FindByID(ctx, uid)
	if err != nil {
		return PayerResponse{}, notFoundOr(err, "find payer")
	}
	return toPayerResponse(*payer), nil
}

func (s *payerService) GetPayers(ctx context.Context, search string, page, limit int) ([]PayerResponse, int64, error) {
	offset := (page - 1) * limit
	payers, total, err := s.payerRepo.List(ctx, strings.TrimSpace(search), offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payers: %w", err)
	}

	res := make([]PayerResponse, 0, len(payers))
	for _, p := range payers {
		res = append(res, toPayerResponse(p))
	}
	return res, total, nil
}

func toPayerResponse(p model.Payer) PayerResponse {
	return PayerResponse{
		ID:           p.ID,
		Name:         p.Name,
		TaxID:        p.TaxID,
		ContactEmail: p.ContactEmail,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}
