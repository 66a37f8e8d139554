package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"reviewledger/internal/cache"
	"reviewledger/internal/logger"
	"reviewledger/internal/metrics"
	"reviewledger/internal/model"
	"reviewledger/internal/report"
	"reviewledger/internal/repository"
	"reviewledger/internal/storage"
	"reviewledger/internal/taxcore"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// EventJobStatusChanged is broadcast whenever a job moves between board columns.
const EventJobStatusChanged = "job.status_changed"

// --- DTOs ---

type CreateJobRequest struct {
	PayerName         string           `json:"payer_name"`
	Status            string           `json:"status"`
	Platforms         []string         `json:"platforms" binding:"required"`
	ContentType       string           `json:"content_type" binding:"required"`
	Title             string           `json:"title" binding:"required"`
	ReceivedDate      string           `json:"received_date" binding:"required"`
	ReviewDeadline    string           `json:"review_deadline" binding:"required"`
	PublishDate       string           `json:"publish_date" binding:"required"`
	PaymentDate       *string          `json:"payment_date"`
	Tags              []string         `json:"tags"`
	Notes             string           `json:"notes"`
	HasWithholdingTax bool             `json:"has_withholding_tax"`
	IsBrotherJob      bool             `json:"is_brother_job"`
	Amount            *decimal.Decimal `json:"amount"`
	WithholdingRate   *decimal.Decimal `json:"withholding_rate"`
	NetAmount         *decimal.Decimal `json:"net_amount"`
	WithholdingAmount *decimal.Decimal `json:"withholding_amount"`
}

// UpdateJobRequest is a partial update; nil fields are left unchanged.
// An empty payment_date clears it.
type UpdateJobRequest struct {
	PayerName         *string          `json:"payer_name"`
	Status            *string          `json:"status"`
	Platforms         *[]string        `json:"platforms"`
	ContentType       *string          `json:"content_type"`
	Title             *string          `json:"title"`
	ReceivedDate      *string          `json:"received_date"`
	ReviewDeadline    *string          `json:"review_deadline"`
	PublishDate       *string          `json:"publish_date"`
	PaymentDate       *string          `json:"payment_date"`
	Tags              *[]string        `json:"tags"`
	Notes             *string          `json:"notes"`
	HasWithholdingTax *bool            `json:"has_withholding_tax"`
	IsBrotherJob      *bool            `json:"is_brother_job"`
	Amount            *decimal.Decimal `json:"amount"`
	WithholdingRate   *decimal.Decimal `json:"withholding_rate"`
	NetAmount         *decimal.Decimal `json:"net_amount"`
	WithholdingAmount *decimal.Decimal `json:"withholding_amount"`
}

type ChangeStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type JobQuery struct {
	Search      string
	PayerName   string
	Platform    string
	ContentType string
	Year        int
	Month       int
}

type JobResponse struct {
	ID                uuid.UUID        `json:"id"`
	PayerName         string           `json:"payer_name"`
	Status            string           `json:"status"`
	Platforms         []string         `json:"platforms"`
	ContentType       string           `json:"content_type"`
	Title             string           `json:"title"`
	ReceivedDate      string           `json:"received_date"`
	ReviewDeadline    string           `json:"review_deadline"`
	PublishDate       string           `json:"publish_date"`
	PaymentDate       string           `json:"payment_date,omitempty"`
	Tags              []string         `json:"tags"`
	Notes             string           `json:"notes"`
	HasWithholdingTax bool             `json:"has_withholding_tax"`
	IsBrotherJob      bool             `json:"is_brother_job"`
	WithholdingRate   decimal.Decimal  `json:"withholding_rate"`
	Incomes           []IncomeResponse `json:"incomes,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

type BoardColumn struct {
	Status string        `json:"status"`
	Jobs   []JobResponse `json:"jobs"`
}

type StatusChangedEvent struct {
	ID         uuid.UUID `json:"id"`
	Title      string    `json:"title"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
}

type CalendarLink struct {
	Title string `json:"title"`
	Date  string `json:"date"`
	URL   string `json:"url"`
}

// --- Interface ---

type ReviewJobService interface {
	CreateJob(ctx context.Context, req CreateJobRequest) (JobResponse, error)
	UpdateJob(ctx context.Context, id string, req UpdateJobRequest) (JobResponse, error)
	ChangeStatus(ctx context.Context, id, status string) (JobResponse, error)
	DeleteJob(ctx context.Context, id string) error
	GetJob(ctx context.Context, id string) (JobResponse, error)
	GetJobs(ctx context.Context, q JobQuery, page, limit int) ([]JobResponse, int64, error)
	GetBoard(ctx context.Context, limit int) ([]BoardColumn, int64, error)
	GetPayerNames(ctx context.Context) ([]string, error)
	CalendarICS(ctx context.Context, id string) (string, error)
	CalendarLinks(ctx context.Context, id string) ([]CalendarLink, error)
}

// --- Implementation ---

type reviewJobService struct {
	jobRepo   repository.ReviewJobRepository
	docRepo   repository.DocumentRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
	ledger    *incomeLedger
	files     storage.Store
	events    Broadcaster
	metrics   *metrics.Metrics
	now       func() time.Time
}

type ReviewJobDeps struct {
	JobRepo    repository.ReviewJobRepository
	IncomeRepo repository.IncomeRepository
	DocRepo    repository.DocumentRepository
	AuditRepo  repository.AuditRepository
	TxManager  repository.TransactionManager
	Cache      cache.Store
	Files      storage.Store
	Events     Broadcaster
	Metrics    *metrics.Metrics
}

func NewReviewJobService(deps ReviewJobDeps) ReviewJobService {
	events := deps.Events
	if events == nil {
		events = noopBroadcaster{}
	}
	return &reviewJobService{
		jobRepo:   deps.JobRepo,
		docRepo:   deps.DocRepo,
		auditRepo: deps.AuditRepo,
		txManager: deps.TxManager,
		ledger:    newIncomeLedger(deps.IncomeRepo, deps.Cache, deps.Metrics),
		files:     deps.Files,
		events:    events,
		metrics:   deps.Metrics,
		now:       time.Now,
	}
}

// jobAmounts are the money fields a job payload may carry. They are not
// stored on the job; they drive the job's income record.
type jobAmounts struct {
	Amount      *decimal.Decimal
	Net         *decimal.Decimal
	Withholding *decimal.Decimal
}

func (a jobAmounts) given() bool {
	return a.Amount != nil || a.Net != nil || a.Withholding != nil
}

// --- Validation helpers ---

func parseRequiredDate(field, s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, invalid(field, "is required")
	}
	d, err := model.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return nil, invalid(field, "must be YYYY-MM-DD")
	}
	return &d, nil
}

func parseOptionalDate(field string, s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	return parseRequiredDate(field, *s)
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func firstDate(dates ...*time.Time) *time.Time {
	for _, d := range dates {
		if d != nil {
			return d
		}
	}
	return nil
}

func validateJob(job *model.ReviewJob, a jobAmounts, requireAmount bool) error {
	if job.Title == "" {
		return invalid("title", "is required")
	}
	if job.ContentType == "" {
		return invalid("content_type", "is required")
	}
	if len(job.Platforms) == 0 {
		return invalid("platforms", "at least one platform is required")
	}
	if !model.IsValidJobStatus(job.Status) {
		return invalid("status", "must be one of: %s", strings.Join(model.JobStatuses, ", "))
	}
	if err := validateRate("withholding_rate", job.WithholdingRate); err != nil {
		return err
	}

	if job.ReceivedDate == nil {
		return invalid("received_date", "is required")
	}
	if job.ReviewDeadline == nil {
		return invalid("review_deadline", "is required")
	}
	if job.PublishDate == nil {
		return invalid("publish_date", "is required")
	}
	if job.ReviewDeadline.Before(*job.ReceivedDate) {
		return invalid("review_deadline", "must be on or after received date")
	}
	if floor := firstDate(job.ReviewDeadline, job.ReceivedDate); job.PublishDate.Before(*floor) {
		return invalid("publish_date", "must be on or after review deadline / received date")
	}
	if job.PaymentDate != nil {
		if floor := firstDate(job.PublishDate, job.ReviewDeadline, job.ReceivedDate); job.PaymentDate.Before(*floor) {
			return invalid("payment_date", "must be on or after publish / review / received date")
		}
	}

	for field, v := range map[string]*decimal.Decimal{"amount": a.Amount, "net_amount": a.Net, "withholding_amount": a.Withholding} {
		if v != nil && v.IsNegative() {
			return invalid(field, "must not be negative")
		}
	}
	if job.IsBrotherJob {
		return nil
	}
	if requireAmount || a.Amount != nil {
		if a.Amount == nil || !a.Amount.IsPositive() {
			if job.HasWithholdingTax {
				return invalid("amount", "gross amount is required when withholding tax is applied")
			}
			return invalid("amount", "income amount is required")
		}
	}
	return nil
}

// paymentDateFor falls back payment, received, publish, review, then today.
func (s *reviewJobService) paymentDateFor(job *model.ReviewJob) time.Time {
	if d := firstDate(job.PaymentDate, job.ReceivedDate, job.PublishDate, job.ReviewDeadline); d != nil {
		return model.DateOnly(*d)
	}
	return model.DateOnly(s.now())
}

// incomeDraft derives the income a job implies, or nil when it implies none.
// With withholding, missing net or withholding figures are derived from the
// gross amount and the job's rate.
func (s *reviewJobService) incomeDraft(job *model.ReviewJob, a jobAmounts) (*model.Income, error) {
	if job.IsBrotherJob {
		return nil, nil
	}
	income := &model.Income{
		ReviewJobID: job.ID,
		PaymentDate: s.paymentDateFor(job),
		Currency:    model.DefaultCurrency,
	}

	if !job.HasWithholdingTax {
		if a.Amount == nil || !a.Amount.IsPositive() {
			return nil, nil
		}
		amount := taxcore.Round(*a.Amount)
		income.GrossAmount = amount
		income.NetAmount = amount
		income.WithholdingAmount = decimal.Zero
		income.WithholdingRate = decimal.Zero
		return income, nil
	}

	var net, withholding decimal.Decimal
	switch {
	case a.Net != nil && a.Withholding != nil:
		net, withholding = *a.Net, *a.Withholding
	case a.Net == nil && a.Withholding == nil:
		if a.Amount == nil {
			return nil, nil
		}
		split := taxcore.ComputeWithholdingAndNet(*a.Amount, job.WithholdingRate)
		net, withholding = split.NetAmount, split.WithholdingAmount
	case a.Net != nil:
		net = *a.Net
		if a.Amount != nil {
			withholding = taxcore.ComputeNet(*a.Amount, net)
		}
	default:
		withholding = *a.Withholding
		if a.Amount != nil {
			net = taxcore.ComputeNet(*a.Amount, withholding)
		}
	}
	net, withholding = taxcore.Round(net), taxcore.Round(withholding)
	if net.IsNegative() || withholding.IsNegative() {
		return nil, invalid("amount", "net and withholding amounts must not exceed the gross amount")
	}
	if !net.IsPositive() && !withholding.IsPositive() {
		return nil, nil
	}

	income.NetAmount = net
	income.WithholdingAmount = withholding
	income.GrossAmount = net.Add(withholding)
	income.WithholdingRate = job.WithholdingRate
	return income, nil
}

// --- CRUD ---

func (s *reviewJobService) CreateJob(ctx context.Context, req CreateJobRequest) (JobResponse, error) {
	job := &model.ReviewJob{
		PayerName:         strings.TrimSpace(req.PayerName),
		Status:            strings.TrimSpace(req.Status),
		Platforms:         cleanList(req.Platforms),
		ContentType:       strings.TrimSpace(req.ContentType),
		Title:             strings.TrimSpace(req.Title),
		Tags:              cleanList(req.Tags),
		Notes:             strings.TrimSpace(req.Notes),
		HasWithholdingTax: req.HasWithholdingTax,
		IsBrotherJob:      req.IsBrotherJob,
		WithholdingRate:   DefaultWithholdingRate,
	}
	if job.Status == "" {
		job.Status = model.JobStatusReceived
	}
	if req.WithholdingRate != nil {
		job.WithholdingRate = *req.WithholdingRate
	}

	var err error
	if job.ReceivedDate, err = parseRequiredDate("received_date", req.ReceivedDate); err != nil {
		return JobResponse{}, err
	}
	if job.ReviewDeadline, err = parseRequiredDate("review_deadline", req.ReviewDeadline); err != nil {
		return JobResponse{}, err
	}
	if job.PublishDate, err = parseRequiredDate("publish_date", req.PublishDate); err != nil {
		return JobResponse{}, err
	}
	if job.PaymentDate, err = parseOptionalDate("payment_date", req.PaymentDate); err != nil {
		return JobResponse{}, err
	}

	amounts := jobAmounts{Amount: req.Amount, Net: req.NetAmount, Withholding: req.WithholdingAmount}
	if err := validateJob(job, amounts, true); err != nil {
		return JobResponse{}, err
	}

	var income *model.Income
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.jobRepo.Create(txCtx, job); err != nil {
			return fmt.Errorf("failed to create review job: %w", err)
		}
		if err := writeAudit(txCtx, s.auditRepo, model.ActionCreateJob, job.ID.String(), job.Title, jobDetails(job)); err != nil {
			return err
		}

		draft, err := s.incomeDraft(job, amounts)
		if err != nil || draft == nil {
			return err
		}
		if err := s.ledger.incomeRepo.Create(txCtx, draft); err != nil {
			return fmt.Errorf("failed to create income: %w", err)
		}
		income = draft
		return writeAudit(txCtx, s.auditRepo, model.ActionCreateIncome, draft.ID.String(), job.Title, incomeDetails(draft))
	})
	if err != nil {
		return JobResponse{}, err
	}

	s.metrics.RecordJobCreated()
	res := toJobResponse(*job)
	if income != nil {
		s.ledger.invalidate(ctx, income.PaymentDate)
		s.ledger.recorded(income.Currency)
		res.Incomes = []IncomeResponse{toIncomeResponse(*income)}
	}
	return res, nil
}

func (s *reviewJobService) UpdateJob(ctx context.Context, id string, req UpdateJobRequest) (JobResponse, error) {
	uid, err := parseID("id", id)
	if err != nil {
		return JobResponse{}, err
	}

	amounts := jobAmounts{Amount: req.Amount, Net: req.NetAmount, Withholding: req.WithholdingAmount}
	var job *model.ReviewJob
	var previousStatus string
	var touched []time.Time
	var written *model.Income

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		job, err = s.jobRepo.FindByID(txCtx, uid)
		if err != nil {
			return notFoundOr(err, "find review job")
		}
		previousStatus = job.Status

		if err := applyJobUpdate(job, req); err != nil {
			return err
		}
		if err := validateJob(job, amounts, false); err != nil {
			return err
		}
		if err := s.jobRepo.Update(txCtx, job); err != nil {
			return fmt.Errorf("failed to update review job: %w", err)
		}

		action := model.ActionUpdateJob
		if job.Status != previousStatus {
			action = model.ActionChangeStatus
		}
		if err := writeAudit(txCtx, s.auditRepo, action, job.ID.String(), job.Title, jobDetails(job)); err != nil {
			return err
		}

		touched, written, err = s.syncIncome(txCtx, job, amounts)
		return err
	})
	if err != nil {
		return JobResponse{}, err
	}

	s.ledger.invalidate(ctx, touched...)
	if written != nil {
		s.ledger.recorded(written.Currency)
	}
	s.statusChanged(ctx, job, previousStatus)
	return toJobResponse(*job), nil
}

func applyJobUpdate(job *model.ReviewJob, req UpdateJobRequest) error {
	if req.PayerName != nil {
		job.PayerName = strings.TrimSpace(*req.PayerName)
	}
	if req.Status != nil {
		job.Status = strings.TrimSpace(*req.Status)
	}
	if req.Platforms != nil {
		job.Platforms = cleanList(*req.Platforms)
	}
	if req.ContentType != nil {
		job.ContentType = strings.TrimSpace(*req.ContentType)
	}
	if req.Title != nil {
		job.Title = strings.TrimSpace(*req.Title)
	}
	if req.Tags != nil {
		job.Tags = cleanList(*req.Tags)
	}
	if req.Notes != nil {
		job.Notes = strings.TrimSpace(*req.Notes)
	}
	if req.HasWithholdingTax != nil {
		job.HasWithholdingTax = *req.HasWithholdingTax
	}
	if req.IsBrotherJob != nil {
		job.IsBrotherJob = *req.IsBrotherJob
	}
	if req.WithholdingRate != nil {
		job.WithholdingRate = *req.WithholdingRate
	}

	var err error
	if req.ReceivedDate != nil {
		if job.ReceivedDate, err = parseRequiredDate("received_date", *req.ReceivedDate); err != nil {
			return err
		}
	}
	if req.ReviewDeadline != nil {
		if job.ReviewDeadline, err = parseRequiredDate("review_deadline", *req.ReviewDeadline); err != nil {
			return err
		}
	}
	if req.PublishDate != nil {
		if job.PublishDate, err = parseRequiredDate("publish_date", *req.PublishDate); err != nil {
			return err
		}
	}
	if req.PaymentDate != nil {
		if job.PaymentDate, err = parseOptionalDate("payment_date", req.PaymentDate); err != nil {
			return err
		}
	}
	return nil
}

// syncIncome applies an updated job to its income records: brother jobs lose
// theirs, otherwise the first income is rewritten (or created) from the
// payload's amounts. It returns every payment date it touched.
func (s *reviewJobService) syncIncome(ctx context.Context, job *model.ReviewJob, a jobAmounts) ([]time.Time, *model.Income, error) {
	if !job.IsBrotherJob && !a.given() {
		return nil, nil, nil
	}

	existing, err := s.ledger.incomeRepo.ListByJob(ctx, job.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load job incomes: %w", err)
	}

	var touched []time.Time
	if job.IsBrotherJob {
		for _, inc := range existing {
			touched = append(touched, inc.PaymentDate)
		}
		if len(existing) == 0 {
			return nil, nil, nil
		}
		if err := s.ledger.incomeRepo.DeleteByJob(ctx, job.ID); err != nil {
			return nil, nil, fmt.Errorf("failed to delete job incomes: %w", err)
		}
		return touched, nil, writeAudit(ctx, s.auditRepo, model.ActionDeleteIncome, job.ID.String(), job.Title,
			map[string]interface{}{"reason": "brother job", "count": len(existing)})
	}

	draft, err := s.incomeDraft(job, a)
	if err != nil || draft == nil {
		return nil, nil, err
	}

	if len(existing) == 0 {
		if err := s.ledger.incomeRepo.Create(ctx, draft); err != nil {
			return nil, nil, fmt.Errorf("failed to create income: %w", err)
		}
		return []time.Time{draft.PaymentDate}, draft,
			writeAudit(ctx, s.auditRepo, model.ActionCreateIncome, draft.ID.String(), job.Title, incomeDetails(draft))
	}

	first := existing[0]
	touched = append(touched, first.PaymentDate)
	first.GrossAmount = draft.GrossAmount
	first.WithholdingRate = draft.WithholdingRate
	first.WithholdingAmount = draft.WithholdingAmount
	first.NetAmount = draft.NetAmount
	first.PaymentDate = draft.PaymentDate
	if err := s.ledger.incomeRepo.Update(ctx, &first); err != nil {
		return nil, nil, fmt.Errorf("failed to update income: %w", err)
	}
	touched = append(touched, first.PaymentDate)
	return touched, &first,
		writeAudit(ctx, s.auditRepo, model.ActionUpdateIncome, first.ID.String(), job.Title, incomeDetails(&first))
}

// ChangeStatus moves a job to another board column.
func (s *reviewJobService) ChangeStatus(ctx context.Context, id, status string) (JobResponse, error) {
	status = strings.TrimSpace(status)
	if !model.IsValidJobStatus(status) {
		return JobResponse{}, invalid("status", "must be one of: %s", strings.Join(model.JobStatuses, ", "))
	}
	uid, err := parseID("id", id)
	if err != nil {
		return JobResponse{}, err
	}

	var job *model.ReviewJob
	var previousStatus string
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		job, err = s.jobRepo.FindByID(txCtx, uid)
		if err != nil {
			return notFoundOr(err, "find review job")
		}
		previousStatus = job.Status
		if previousStatus == status {
			return nil
		}
		job.Status = status
		if err := s.jobRepo.Update(txCtx, job); err != nil {
			return fmt.Errorf("failed to update job status: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, model.ActionChangeStatus, job.ID.String(), job.Title,
			map[string]string{"from": previousStatus, "to": status})
	})
	if err != nil {
		return JobResponse{}, err
	}

	s.statusChanged(ctx, job, previousStatus)
	return toJobResponse(*job), nil
}

func (s *reviewJobService) statusChanged(ctx context.Context, job *model.ReviewJob, from string) {
	if job.Status == from {
		return
	}
	s.metrics.RecordStatusChange(job.Status)
	s.events.BroadcastEvent(EventJobStatusChanged, StatusChangedEvent{
		ID:         job.ID,
		Title:      job.Title,
		FromStatus: from,
		ToStatus:   job.Status,
	})
	logger.FromContext(ctx).Info("review job status changed",
		zap.String("job_id", job.ID.String()),
		zap.String("from", from),
		zap.String("to", job.Status))
}

// DeleteJob removes the job together with its incomes and documents. Stored
// files are removed after the transaction commits.
func (s *reviewJobService) DeleteJob(ctx context.Context, id string) error {
	uid, err := parseID("id", id)
	if err != nil {
		return err
	}

	var incomes []model.Income
	var docs []model.Document
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		job, err := s.jobRepo.FindByID(txCtx, uid)
		if err != nil {
			return notFoundOr(err, "find review job")
		}
		if incomes, err = s.ledger.incomeRepo.ListByJob(txCtx, uid); err != nil {
			return fmt.Errorf("failed to load job incomes: %w", err)
		}
		if docs, err = s.docRepo.ListByJob(txCtx, uid); err != nil {
			return fmt.Errorf("failed to load job documents: %w", err)
		}
		if err := s.ledger.incomeRepo.DeleteByJob(txCtx, uid); err != nil {
			return fmt.Errorf("failed to delete job incomes: %w", err)
		}
		if err := s.docRepo.DeleteByJob(txCtx, uid); err != nil {
			return fmt.Errorf("failed to delete job documents: %w", err)
		}
		if err := s.jobRepo.Delete(txCtx, uid); err != nil {
			return notFoundOr(err, "delete review job")
		}
		return writeAudit(txCtx, s.auditRepo, model.ActionDeleteJob, job.ID.String(), job.Title,
			map[string]interface{}{"deleted": true, "incomes": len(incomes), "documents": len(docs)})
	})
	if err != nil {
		return err
	}

	dates := make([]time.Time, 0, len(incomes))
	for _, inc := range incomes {
		dates = append(dates, inc.PaymentDate)
	}
	s.ledger.invalidate(ctx, dates...)
	removeFiles(ctx, s.files, docs)
	return nil
}

func removeFiles(ctx context.Context, files storage.Store, docs []model.Document) {
	if files == nil {
		return
	}
	for _, d := range docs {
		if d.FilePath == "" {
			continue
		}
		if err := files.Delete(ctx, d.FilePath); err != nil {
			logger.FromContext(ctx).Warn("failed to remove document file",
				zap.String("document_id", d.ID.String()), zap.String("file_path", d.FilePath), zap.Error(err))
		}
	}
}

func (s *reviewJobService) GetJob(ctx context.Context, id string) (JobResponse, error) {
	uid, err := parseID("id", id)
	if err != nil {
		return JobResponse{}, err
	}
	job, err := s.jobRepo.FindByID(ctx, uid)
	if err != nil {
		return JobResponse{}, notFoundOr(err, "find review job")
	}
	incomes, err := s.ledger.incomeRepo.ListByJob(ctx, uid)
	if err != nil {
		return JobResponse{}, fmt.Errorf("failed to load job incomes: %w", err)
	}

	res := toJobResponse(*job)
	for _, inc := range incomes {
		inc.ReviewJob = job
		res.Incomes = append(res.Incomes, toIncomeResponse(inc))
	}
	return res, nil
}

func (s *reviewJobService) GetJobs(ctx context.Context, q JobQuery, page, limit int) ([]JobResponse, int64, error) {
	if q.Month != 0 && (q.Month < 1 || q.Month > 12) {
		return nil, 0, invalid("month", "must be between 1 and 12")
	}
	filter := repository.JobFilter{
		Search:      strings.TrimSpace(q.Search),
		PayerName:   strings.TrimSpace(q.PayerName),
		Platform:    strings.TrimSpace(q.Platform),
		ContentType: strings.TrimSpace(q.ContentType),
		Year:        q.Year,
		Month:       q.Month,
	}

	offset := (page - 1) * limit
	jobs, total, err := s.jobRepo.List(ctx, filter, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list review jobs: %w", err)
	}

	res := make([]JobResponse, 0, len(jobs))
	for _, j := range jobs {
		res = append(res, toJobResponse(j))
	}
	return res, total, nil
}

// GetBoard groups the newest jobs into one column per status, in board order.
func (s *reviewJobService) GetBoard(ctx context.Context, limit int) ([]BoardColumn, int64, error) {
	jobs, total, err := s.jobRepo.List(ctx, repository.JobFilter{}, 0, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load board: %w", err)
	}

	columns := make([]BoardColumn, len(model.JobStatuses))
	index := make(map[string]int, len(model.JobStatuses))
	for i, st := range model.JobStatuses {
		columns[i] = BoardColumn{Status: st, Jobs: []JobResponse{}}
		index[st] = i
	}
	for _, j := range jobs {
		i, ok := index[j.Status]
		if !ok {
			continue
		}
		columns[i].Jobs = append(columns[i].Jobs, toJobResponse(j))
	}
	return columns, total, nil
}

func (s *reviewJobService) GetPayerNames(ctx context.Context) ([]string, error) {
	names, err := s.jobRepo.PayerNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list payer names: %w", err)
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

func (s *reviewJobService) calendarEvents(ctx context.Context, id string) ([]report.Event, error) {
	uid, err := parseID("id", id)
	if err != nil {
		return nil, err
	}
	job, err := s.jobRepo.FindByID(ctx, uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find review job: %w", err)
	}
	return report.JobEvents(report.JobCalendar{
		Title:          job.Title,
		PayerName:      job.PayerName,
		Platforms:      job.Platforms,
		ContentType:    job.ContentType,
		Notes:          job.Notes,
		ReviewDeadline: job.ReviewDeadline,
		PublishDate:    job.PublishDate,
	}), nil
}

func (s *reviewJobService) CalendarICS(ctx context.Context, id string) (string, error) {
	events, err := s.calendarEvents(ctx, id)
	if err != nil {
		return "", err
	}
	return report.BuildICS(events), nil
}

func (s *reviewJobService) CalendarLinks(ctx context.Context, id string) ([]CalendarLink, error) {
	events, err := s.calendarEvents(ctx, id)
	if err != nil {
		return nil, err
	}
	links := make([]CalendarLink, 0, len(events))
	for _, ev := range events {
		links = append(links, CalendarLink{
			Title: ev.Title,
			Date:  ev.Date.Format(model.DateLayout),
			URL:   report.GoogleCalendarURL(ev),
		})
	}
	return links, nil
}

func jobDetails(j *model.ReviewJob) map[string]interface{} {
	return map[string]interface{}{
		"payer_name":          j.PayerName,
		"status":              j.Status,
		"platforms":           []string(j.Platforms),
		"content_type":        j.ContentType,
		"received_date":       model.FormatDate(j.ReceivedDate),
		"publish_date":        model.FormatDate(j.PublishDate),
		"has_withholding_tax": j.HasWithholdingTax,
		"is_brother_job":      j.IsBrotherJob,
	}
}

func toJobResponse(j model.ReviewJob) JobResponse {
	platforms := []string(j.Platforms)
	if platforms == nil {
		platforms = []string{}
	}
	tags := []string(j.Tags)
	if tags == nil {
		tags = []string{}
	}
	return JobResponse{
		ID:                j.ID,
		PayerName:         j.PayerName,
		Status:            j.Status,
		Platforms:         platforms,
		ContentType:       j.ContentType,
		Title:             j.Title,
		ReceivedDate:      model.FormatDate(j.ReceivedDate),
		ReviewDeadline:    model.FormatDate(j.ReviewDeadline),
		PublishDate:       model.FormatDate(j.PublishDate),
		PaymentDate:       model.FormatDate(j.PaymentDate),
		Tags:              tags,
		Notes:             j.Notes,
		HasWithholdingTax: j.HasWithholdingTax,
		IsBrotherJob:      j.IsBrotherJob,
		WithholdingRate:   j.WithholdingRate,
		CreatedAt:         j.CreatedAt,
		UpdatedAt:         j.UpdatedAt,
	}
}
