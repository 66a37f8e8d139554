package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"reviewledger/internal/cache"
	"reviewledger/internal/metrics"
	"reviewledger/internal/model"
	"reviewledger/internal/report"
	"reviewledger/internal/repository"
	"reviewledger/internal/taxcore"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DefaultWithholdingRate is the usual 3% withheld on service fees.
var DefaultWithholdingRate = decimal.NewFromInt(3)

var maxRate = decimal.NewFromInt(100)

// --- DTOs ---

type CreateIncomeRequest struct {
	ReviewJobID       string           `json:"review_job_id" binding:"required"`
	GrossAmount       decimal.Decimal  `json:"gross_amount"`
	WithholdingRate   *decimal.Decimal `json:"withholding_rate"`
	WithholdingAmount *decimal.Decimal `json:"withholding_amount"`
	NetAmount         *decimal.Decimal `json:"net_amount"`
	PaymentDate       string           `json:"payment_date" binding:"required"`
	Currency          string           `json:"currency"`
}

type UpdateIncomeRequest struct {
	GrossAmount       *decimal.Decimal `json:"gross_amount"`
	WithholdingRate   *decimal.Decimal `json:"withholding_rate"`
	WithholdingAmount *decimal.Decimal `json:"withholding_amount"`
	NetAmount         *decimal.Decimal `json:"net_amount"`
	PaymentDate       *string          `json:"payment_date"`
	Currency          *string          `json:"currency"`
}

type IncomeQuery struct {
	Search          string
	ReviewJobID     string
	PaymentDateFrom string
	PaymentDateTo   string
	Currency        string
}

type IncomeResponse struct {
	ID                uuid.UUID       `json:"id"`
	ReviewJobID       uuid.UUID       `json:"review_job_id"`
	ReviewJobTitle    string          `json:"review_job_title,omitempty"`
	GrossAmount       Money           `json:"gross_amount"`
	WithholdingRate   decimal.Decimal `json:"withholding_rate"`
	WithholdingAmount Money           `json:"withholding_amount"`
	NetAmount         Money           `json:"net_amount"`
	PaymentDate       string          `json:"payment_date"`
	Currency          string          `json:"currency"`
	CreatedAt         time.Time       `json:"created_at"`
}

// Totals sums a set of incomes.
type Totals struct {
	Gross       Money `json:"gross"`
	Withholding Money `json:"withholding"`
	Net         Money `json:"net"`
}

func (t *Totals) add(i model.Income) {
	t.Gross = money(t.Gross.Add(i.GrossAmount))
	t.Withholding = money(t.Withholding.Add(i.WithholdingAmount))
	t.Net = money(t.Net.Add(i.NetAmount))
}

type MonthTotals struct {
	Month int `json:"month"`
	Totals
}

type IncomeSummary struct {
	Year    int           `json:"year"`
	Month   int           `json:"month"`
	Monthly Totals        `json:"monthly"`
	Yearly  Totals        `json:"yearly"`
	ByMonth []MonthTotals `json:"by_month"`
}

// --- Interface ---

type IncomeService interface {
	CreateIncome(ctx context.Context, req CreateIncomeRequest) (IncomeResponse, error)
	UpdateIncome(ctx context.Context, id string, req UpdateIncomeRequest) (IncomeResponse, error)
	DeleteIncome(ctx context.Context, id string) error
	GetIncome(ctx context.Context, id string) (IncomeResponse, error)
	GetIncomes(ctx context.Context, q IncomeQuery, page, limit int) ([]IncomeResponse, int64, error)
	Summary(ctx context.Context, year, month int) (IncomeSummary, error)
	ExportCSV(ctx context.Context, year int, encoding string, w io.Writer) error
}

// --- Implementation ---

type incomeService struct {
	ledger    *incomeLedger
	jobRepo   repository.ReviewJobRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
}

func NewIncomeService(
	incomeRepo repository.IncomeRepository,
	jobRepo repository.ReviewJobRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	store cache.Store,
	m *metrics.Metrics,
) IncomeService {
	return &incomeService{
		ledger:    newIncomeLedger(incomeRepo, store, m),
		jobRepo:   jobRepo,
		auditRepo: auditRepo,
		txManager: txManager,
	}
}

func validateRate(field string, rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(maxRate) {
		return invalid(field, "must be between 0 and 100")
	}
	return nil
}

func normalizeCurrency(raw string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(raw))
	if c == "" {
		return model.DefaultCurrency, nil
	}
	if len(c) != 3 {
		return "", invalid("currency", "must be a 3-letter code")
	}
	return c, nil
}

func (s *incomeService) CreateIncome(ctx context.Context, req CreateIncomeRequest) (IncomeResponse, error) {
	jobID, err := parseID("review_job_id", req.ReviewJobID)
	if err != nil {
		return IncomeResponse{}, err
	}
	if req.GrossAmount.IsNegative() {
		return IncomeResponse{}, invalid("gross_amount", "must not be negative")
	}
	rate := DefaultWithholdingRate
	if req.WithholdingRate != nil {
		rate = *req.WithholdingRate
	}
	if err := validateRate("withholding_rate", rate); err != nil {
		return IncomeResponse{}, err
	}
	paidOn, err := model.ParseDate(req.PaymentDate)
	if err != nil {
		return IncomeResponse{}, invalid("payment_date", "must be YYYY-MM-DD")
	}
	currency, err := normalizeCurrency(req.Currency)
	if err != nil {
		return IncomeResponse{}, err
	}
	if err := nonNegative("withholding_amount", req.WithholdingAmount); err != nil {
		return IncomeResponse{}, err
	}
	if err := nonNegative("net_amount", req.NetAmount); err != nil {
		return IncomeResponse{}, err
	}

	withholding := taxcore.ComputeWithholding(req.GrossAmount, rate)
	if req.WithholdingAmount != nil {
		withholding = taxcore.Round(*req.WithholdingAmount)
	}
	net := taxcore.ComputeNet(req.GrossAmount, withholding)
	if req.NetAmount != nil {
		net = taxcore.Round(*req.NetAmount)
	}

	income := &model.Income{
		ReviewJobID:       jobID,
		GrossAmount:       taxcore.Round(req.GrossAmount),
		WithholdingRate:   rate,
		WithholdingAmount: withholding,
		NetAmount:         net,
		PaymentDate:       paidOn,
		Currency:          currency,
	}

	var job *model.ReviewJob
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		job, err = s.jobRepo.FindByID(txCtx, jobID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return invalid("review_job_id", "review job does not exist")
			}
			return fmt.Errorf("failed to find review job: %w", err)
		}
		if err := s.ledger.incomeRepo.Create(txCtx, income); err != nil {
			return fmt.Errorf("failed to create income: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, model.ActionCreateIncome, income.ID.String(), job.Title, incomeDetails(income))
	})
	if err != nil {
		return IncomeResponse{}, err
	}

	s.ledger.invalidate(ctx, income.PaymentDate)
	s.ledger.recorded(income.Currency)
	income.ReviewJob = job
	return toIncomeResponse(*income), nil
}

func (s *incomeService) UpdateIncome(ctx context.Context, id string, req UpdateIncomeRequest) (IncomeResponse, error) {
	uid, err := parseID("id", id)
	if err != nil {
		return IncomeResponse{}, err
	}

	var income *model.Income
	var previousDate time.Time
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		income, err = s.ledger.incomeRepo.FindByID(txCtx, uid)
		if err != nil {
			return notFoundOr(err, "find income")
		}
		previousDate = income.PaymentDate

		if err := applyIncomeUpdate(income, req); err != nil {
			return err
		}
		if err := s.ledger.incomeRepo.Update(txCtx, income); err != nil {
			return fmt.Errorf("failed to update income: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, model.ActionUpdateIncome, income.ID.String(), jobTitle(income.ReviewJob), incomeDetails(income))
	})
	if err != nil {
		return IncomeResponse{}, err
	}

	s.ledger.invalidate(ctx, previousDate, income.PaymentDate)
	s.ledger.recorded(income.Currency)
	return toIncomeResponse(*income), nil
}

// nonNegative rejects an explicit negative amount. Derived nets are not checked.
func nonNegative(field string, v *decimal.Decimal) error {
	if v != nil && v.IsNegative() {
		return invalid(field, "must not be negative")
	}
	return nil
}

// applyIncomeUpdate merges req into income. Withholding and net follow a
// changed gross or rate unless they are given explicitly.
func applyIncomeUpdate(income *model.Income, req UpdateIncomeRequest) error {
	recompute := false
	if req.GrossAmount != nil {
		if req.GrossAmount.IsNegative() {
			return invalid("gross_amount", "must not be negative")
		}
		income.GrossAmount = taxcore.Round(*req.GrossAmount)
		recompute = true
	}
	if req.WithholdingRate != nil {
		if err := validateRate("withholding_rate", *req.WithholdingRate); err != nil {
			return err
		}
		income.WithholdingRate = *req.WithholdingRate
		recompute = true
	}

	switch {
	case req.WithholdingAmount != nil:
		if err := nonNegative("withholding_amount", req.WithholdingAmount); err != nil {
			return err
		}
		income.WithholdingAmount = taxcore.Round(*req.WithholdingAmount)
		recompute = true
	case recompute:
		income.WithholdingAmount = taxcore.ComputeWithholding(income.GrossAmount, income.WithholdingRate)
	}

	switch {
	case req.NetAmount != nil:
		if err := nonNegative("net_amount", req.NetAmount); err != nil {
			return err
		}
		income.NetAmount = taxcore.Round(*req.NetAmount)
	case recompute:
		income.NetAmount = taxcore.ComputeNet(income.GrossAmount, income.WithholdingAmount)
	}

	if req.PaymentDate != nil {
		paidOn, err := model.ParseDate(*req.PaymentDate)
		if err != nil {
			return invalid("payment_date", "must be YYYY-MM-DD")
		}
		income.PaymentDate = paidOn
	}
	if req.Currency != nil {
		currency, err := normalizeCurrency(*req.Currency)
		if err != nil {
			return err
		}
		income.Currency = currency
	}
	return nil
}

func (s *incomeService) DeleteIncome(ctx context.Context, id string) error {
	uid, err := parseID("id", id)
	if err != nil {
		return err
	}

	var income *model.Income
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		income, err = s.ledger.incomeRepo.FindByID(txCtx, uid)
		if err != nil {
			return notFoundOr(err, "find income")
		}
		if err := s.ledger.incomeRepo.Delete(txCtx, uid); err != nil {
			return notFoundOr(err, "delete income")
		}
		return writeAudit(txCtx, s.auditRepo, model.ActionDeleteIncome, income.ID.String(), jobTitle(income.ReviewJob), map[string]bool{"deleted": true})
	})
	if err != nil {
		return err
	}

	s.ledger.invalidate(ctx, income.PaymentDate)
	return nil
}

func (s *incomeService) GetIncome(ctx context.Context, id string) (IncomeResponse, error) {
	uid, err := parseID("id", id)
	if err != nil {
		return IncomeResponse{}, err
	}
	income, err := s.ledger.incomeRepo.FindByID(ctx, uid)
	if err != nil {
		return IncomeResponse{}, notFoundOr(err, "find income")
	}
	return toIncomeResponse(*income), nil
}

func (s *incomeService) GetIncomes(ctx context.Context, q IncomeQuery, page, limit int) ([]IncomeResponse, int64, error) {
	filter, err := q.filter()
	if err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	incomes, total, err := s.ledger.incomeRepo.List(ctx, filter, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list incomes: %w", err)
	}

	res := make([]IncomeResponse, 0, len(incomes))
	for _, i := range incomes {
		res = append(res, toIncomeResponse(i))
	}
	return res, total, nil
}

func (q IncomeQuery) filter() (repository.IncomeFilter, error) {
	f := repository.IncomeFilter{
		Search:   strings.TrimSpace(q.Search),
		Currency: strings.ToUpper(strings.TrimSpace(q.Currency)),
	}
	if q.ReviewJobID != "" {
		id, err := parseID("review_job_id", q.ReviewJobID)
		if err != nil {
			return f, err
		}
		f.ReviewJobID = &id
	}
	if q.PaymentDateFrom != "" {
		d, err := model.ParseDate(q.PaymentDateFrom)
		if err != nil {
			return f, invalid("payment_date_from", "must be YYYY-MM-DD")
		}
		f.PaymentDateFrom = &d
	}
	if q.PaymentDateTo != "" {
		d, err := model.ParseDate(q.PaymentDateTo)
		if err != nil {
			return f, invalid("payment_date_to", "must be YYYY-MM-DD")
		}
		f.PaymentDateTo = &d
	}
	return f, nil
}

// Summary totals a year's income, the selected month, and each month.
func (s *incomeService) Summary(ctx context.Context, year, month int) (IncomeSummary, error) {
	if month < 1 || month > 12 {
		return IncomeSummary{}, invalid("month", "must be between 1 and 12")
	}
	incomes, err := s.yearIncomes(ctx, year)
	if err != nil {
		return IncomeSummary{}, err
	}

	summary := IncomeSummary{Year: year, Month: month, ByMonth: make([]MonthTotals, 12)}
	for m := range summary.ByMonth {
		summary.ByMonth[m].Month = m + 1
	}
	for _, i := range incomes {
		m := int(i.PaymentDate.Month())
		summary.Yearly.add(i)
		summary.ByMonth[m-1].add(i)
		if m == month {
			summary.Monthly.add(i)
		}
	}
	return summary, nil
}

func (s *incomeService) yearIncomes(ctx context.Context, year int) ([]model.Income, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	incomes, err := s.ledger.incomeRepo.ListPaidBetween(ctx, from, from.AddDate(1, 0, 0))
	if err != nil {
		return nil, fmt.Errorf("failed to load incomes for %d: %w", year, err)
	}
	return incomes, nil
}

// ExportCSV writes the year's incomes, oldest payment first.
func (s *incomeService) ExportCSV(ctx context.Context, year int, encoding string, w io.Writer) error {
	enc, err := report.ParseEncoding(encoding)
	if err != nil {
		return invalid("encoding", "%s", err.Error())
	}

	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, -1)
	incomes, _, err := s.ledger.incomeRepo.List(ctx, repository.IncomeFilter{PaymentDateFrom: &from, PaymentDateTo: &to}, 0, -1)
	if err != nil {
		return fmt.Errorf("failed to load incomes for export: %w", err)
	}
	sort.SliceStable(incomes, func(a, b int) bool {
		return incomes[a].PaymentDate.Before(incomes[b].PaymentDate)
	})

	rows := make([]report.IncomeRow, 0, len(incomes))
	for _, i := range incomes {
		rows = append(rows, report.IncomeRow{
			PaymentDate:       i.PaymentDate,
			JobTitle:          jobTitle(i.ReviewJob),
			GrossAmount:       i.GrossAmount,
			WithholdingRate:   i.WithholdingRate,
			WithholdingAmount: i.WithholdingAmount,
			NetAmount:         i.NetAmount,
			Currency:          i.Currency,
		})
	}
	return report.WriteIncomeCSV(w, rows, enc)
}

func jobTitle(job *model.ReviewJob) string {
	if job == nil {
		return ""
	}
	return job.Title
}

func incomeDetails(i *model.Income) map[string]string {
	return map[string]string{
		"review_job_id":      i.ReviewJobID.String(),
		"gross_amount":       i.GrossAmount.StringFixed(taxcore.CentPlaces),
		"withholding_rate":   i.WithholdingRate.String(),
		"withholding_amount": i.WithholdingAmount.StringFixed(taxcore.CentPlaces),
		"net_amount":         i.NetAmount.StringFixed(taxcore.CentPlaces),
		"payment_date":       i.PaymentDate.Format(model.DateLayout),
		"currency":           i.Currency,
	}
}

func toIncomeResponse(i model.Income) IncomeResponse {
	return IncomeResponse{
		ID:                i.ID,
		ReviewJobID:       i.ReviewJobID,
		ReviewJobTitle:    jobTitle(i.ReviewJob),
		GrossAmount:       money(i.GrossAmount),
		WithholdingRate:   i.WithholdingRate,
		WithholdingAmount: money(i.WithholdingAmount),
		NetAmount:         money(i.NetAmount),
		PaymentDate:       i.PaymentDate.Format(model.DateLayout),
		Currency:          i.Currency,
		CreatedAt:         i.CreatedAt,
	}
}
