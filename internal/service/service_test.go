package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"reviewledger/internal/cache"
	"reviewledger/internal/database"
	"reviewledger/internal/model"
	"reviewledger/internal/repository"
	"reviewledger/internal/storage"
	"reviewledger/internal/taxcore"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// --- fakes ---

type memoryCache struct {
	mu      sync.Mutex
	values  map[string][]byte
	deleted []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: map[string][]byte{}}
}

func (c *memoryCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.values[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = raw
	return nil
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.values, k)
		c.deleted = append(c.deleted, k)
	}
	return nil
}

type recordedEvent struct {
	name string
	data interface{}
}

type recordingBroadcaster struct {
	events []recordedEvent
}

func (b *recordingBroadcaster) BroadcastEvent(event string, data interface{}) {
	b.events = append(b.events, recordedEvent{name: event, data: data})
}

type fakeFiles struct {
	saved   []storage.Upload
	deleted []string
}

func (f *fakeFiles) Save(_ context.Context, up storage.Upload) (storage.Stored, error) {
	f.saved = append(f.saved, up)
	return storage.Stored{FilePath: "/uploads/" + up.FileName, FileName: up.FileName, FileSize: 3, MimeType: "text/plain"}, nil
}

func (f *fakeFiles) Delete(_ context.Context, filePath string) error {
	f.deleted = append(f.deleted, filePath)
	return nil
}

// --- fixture ---

type fixture struct {
	db        *gorm.DB
	cache     *memoryCache
	events    *recordingBroadcaster
	files     *fakeFiles
	payers    PayerService
	jobs      ReviewJobService
	incomes   IncomeService
	tax       TaxService
	dashboard DashboardService
	documents DocumentService
	audit     AuditService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = sqlDB.Close() })

	f := &fixture{db: db, cache: newMemoryCache(), events: &recordingBroadcaster{}, files: &fakeFiles{}}

	payerRepo := repository.NewPayerRepository(db)
	jobRepo := repository.NewReviewJobRepository(db)
	incomeRepo := repository.NewIncomeRepository(db)
	docRepo := repository.NewDocumentRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	tx := repository.NewTransactionManager(db)

	schedules, err := taxcore.NewScheduleSet()
	require.NoError(t, err)

	f.payers = NewPayerService(payerRepo, auditRepo, tx)
	f.jobs = NewReviewJobService(ReviewJobDeps{
		JobRepo:    jobRepo,
		IncomeRepo: incomeRepo,
		DocRepo:    docRepo,
		AuditRepo:  auditRepo,
		TxManager:  tx,
		Cache:      f.cache,
		Files:      f.files,
		Events:     f.events,
	})
	f.incomes = NewIncomeService(incomeRepo, jobRepo, auditRepo, tx, f.cache, nil)
	f.tax = NewTaxService(incomeRepo, schedules, f.cache, nil)
	f.dashboard = NewDashboardService(jobRepo, incomeRepo)
	f.documents = NewDocumentService(docRepo, jobRepo, incomeRepo, auditRepo, tx, f.files, nil)
	f.audit = NewAuditService(auditRepo)
	return f
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func str(s string) *string { return &s }

type amount interface {
	Equal(decimal.Decimal) bool
	String() string
}

func assertAmount(t *testing.T, want string, got amount, msgAndArgs ...interface{}) {
	t.Helper()
	assert.True(t, got.Equal(decimal.RequireFromString(want)), append([]interface{}{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

func jobRequest(title string) CreateJobRequest {
	return CreateJobRequest{
		PayerName:      "Brand A",
		Platforms:      []string{"TikTok"},
		ContentType:    "video",
		Title:          title,
		ReceivedDate:   "2024-03-01",
		ReviewDeadline: "2024-03-05",
		PublishDate:    "2024-03-10",
	}
}

func requireValidation(t *testing.T, err error, field string) {
	t.Helper()
	require.Error(t, err)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, field, ve.Field)
}

// --- payers ---

func TestPayerServiceLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := WithActor(context.Background(), "tester")

	_, err := f.payers.CreatePayer(ctx, CreatePayerRequest{Name: "   "})
	requireValidation(t, err, "name")
	_, err = f.payers.CreatePayer(ctx, CreatePayerRequest{Name: "Acme", ContactEmail: "not-an-email"})
	requireValidation(t, err, "contact_email")

	p, err := f.payers.CreatePayer(ctx, CreatePayerRequest{Name: " Acme Studio ", TaxID: "0105551234567", ContactEmail: "pay@acme.example"})
	require.NoError(t, err)
	assert.Equal(t, "Acme Studio", p.Name)
	_, err = f.payers.CreatePayer(ctx, CreatePayerRequest{Name: "Beta Agency"})
	require.NoError(t, err)

	list, total, err := f.payers.GetPayers(ctx, "acme", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, p.ID, list[0].ID)

	updated, err := f.payers.UpdatePayer(ctx, p.ID.String(), UpdatePayerRequest{Name: str("Acme Co")})
	require.NoError(t, err)
	assert.Equal(t, "Acme Co", updated.Name)
	assert.Equal(t, "0105551234567", updated.TaxID)

	_, err = f.payers.UpdatePayer(ctx, p.ID.String(), UpdatePayerRequest{Name: str("")})
	requireValidation(t, err, "name")

	require.NoError(t, f.payers.DeletePayer(ctx, p.ID.String()))
	_, err = f.payers.GetPayer(ctx, p.ID.String())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, f.payers.DeletePayer(ctx, p.ID.String()), ErrNotFound)

	_, err = f.payers.GetPayer(ctx, "nope")
	requireValidation(t, err, "id")

	logs, total, err := f.audit.GetAuditLogs(ctx, "", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	for _, l := range logs {
		assert.Equal(t, "tester", l.Actor)
	}
	deletes, _, err := f.audit.GetAuditLogs(ctx, model.ActionDeletePayer, 1, 10)
	require.NoError(t, err)
	require.Len(t, deletes, 1)
	assert.JSONEq(t, `{"deleted": true}`, string(deletes[0].Details))
}

// --- review jobs ---

func TestCreateJobWithoutWithholdingCreatesIncome(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := jobRequest("Cafe review")
	req.Amount = dec("5000")
	job, err := f.jobs.CreateJob(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, model.JobStatusReceived, job.Status)
	assertAmount(t, "3", job.WithholdingRate)
	require.Len(t, job.Incomes, 1)
	inc := job.Incomes[0]
	assertAmount(t, "5000", inc.GrossAmount)
	assertAmount(t, "0", inc.WithholdingAmount)
	assertAmount(t, "5000", inc.NetAmount)
	assertAmount(t, "0", inc.WithholdingRate)
	// No payment date: falls back to the received date.
	assert.Equal(t, "2024-03-01", inc.PaymentDate)
	assert.Equal(t, "THB", inc.Currency)
	assert.Contains(t, f.cache.deleted, cache.TaxSummaryKey(2024))
}

func TestCreateJobWithWithholding(t *testing.T) {
	tests := []struct {
		name                   string
		amount, net, wht       *decimal.Decimal
		gross, wantNet, wantWh string
	}{
		{name: "computed from amount", amount: dec("10000"), gross: "10000", wantNet: "9700", wantWh: "300"},
		{name: "explicit split", amount: dec("10000"), net: dec("9700"), wht: dec("300"), gross: "10000", wantNet: "9700", wantWh: "300"},
		{name: "net only", amount: dec("1000"), net: dec("975.50"), gross: "1000", wantNet: "975.50", wantWh: "24.50"},
		{name: "rounded withholding", amount: dec("333.33"), gross: "333.33", wantNet: "323.33", wantWh: "10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			req := jobRequest("Sponsored post")
			req.HasWithholdingTax = true
			req.Amount, req.NetAmount, req.WithholdingAmount = tt.amount, tt.net, tt.wht
			req.PaymentDate = str("2024-04-02")

			job, err := f.jobs.CreateJob(context.Background(), req)
			require.NoError(t, err)
			require.Len(t, job.Incomes, 1)
			inc := job.Incomes[0]
			assertAmount(t, tt.gross, inc.GrossAmount)
			assertAmount(t, tt.wantNet, inc.NetAmount)
			assertAmount(t, tt.wantWh, inc.WithholdingAmount)
			assertAmount(t, "3", inc.WithholdingRate)
			assert.Equal(t, "2024-04-02", inc.PaymentDate)
		})
	}
}

func TestCreateBrotherJobHasNoIncome(t *testing.T) {
	f := newFixture(t)
	req := jobRequest("Favour for a friend")
	req.IsBrotherJob = true

	job, err := f.jobs.CreateJob(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, job.Incomes)

	got, err := f.jobs.GetJob(context.Background(), job.ID.String())
	require.NoError(t, err)
	assert.True(t, got.IsBrotherJob)
	assert.Empty(t, got.Incomes)
}

func TestCreateJobValidation(t *testing.T) {
	base := func() CreateJobRequest {
		r := jobRequest("Valid")
		r.Amount = dec("100")
		return r
	}
	tests := []struct {
		name  string
		edit  func(r *CreateJobRequest)
		field string
	}{
		{"missing amount", func(r *CreateJobRequest) { r.Amount = nil }, "amount"},
		{"zero amount", func(r *CreateJobRequest) { r.Amount = dec("0") }, "amount"},
		{"no platforms", func(r *CreateJobRequest) { r.Platforms = []string{" "} }, "platforms"},
		{"blank title", func(r *CreateJobRequest) { r.Title = " " }, "title"},
		{"bad status", func(r *CreateJobRequest) { r.Status = "archived" }, "status"},
		{"rate above 100", func(r *CreateJobRequest) { r.WithholdingRate = dec("101") }, "withholding_rate"},
		{"bad date", func(r *CreateJobRequest) { r.ReceivedDate = "01/03/2024" }, "received_date"},
		{"missing publish", func(r *CreateJobRequest) { r.PublishDate = "" }, "publish_date"},
		{"review before received", func(r *CreateJobRequest) { r.ReviewDeadline = "2024-02-28" }, "review_deadline"},
		{"publish before review", func(r *CreateJobRequest) { r.PublishDate = "2024-03-04" }, "publish_date"},
		{"payment before publish", func(r *CreateJobRequest) { r.PaymentDate = str("2024-03-09") }, "payment_date"},
		{"negative net", func(r *CreateJobRequest) { r.NetAmount = dec("-1") }, "net_amount"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			r := base()
			tt.edit(&r)
			_, err := f.jobs.CreateJob(context.Background(), r)
			requireValidation(t, err, tt.field)

			jobs, total, err := f.jobs.GetJobs(context.Background(), JobQuery{}, 1, 10)
			require.NoError(t, err)
			assert.Zero(t, total)
			assert.Empty(t, jobs)
		})
	}
}

func TestCreateJobRollsBackWhenIncomeIsInvalid(t *testing.T) {
	f := newFixture(t)
	req := jobRequest("Overpaid")
	req.HasWithholdingTax = true
	req.Amount = dec("100")
	req.NetAmount = dec("150")

	_, err := f.jobs.CreateJob(context.Background(), req)
	requireValidation(t, err, "amount")

	_, total, err := f.jobs.GetJobs(context.Background(), JobQuery{}, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestUpdateJobSyncsIncome(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := jobRequest("Skincare")
	req.Amount = dec("2000")
	job, err := f.jobs.CreateJob(ctx, req)
	require.NoError(t, err)
	incomeID := job.Incomes[0].ID

	// Updates without amounts leave income alone.
	_, err = f.jobs.UpdateJob(ctx, job.ID.String(), UpdateJobRequest{Notes: str("draft sent")})
	require.NoError(t, err)

	_, err = f.jobs.UpdateJob(ctx, job.ID.String(), UpdateJobRequest{
		HasWithholdingTax: boolPtr(true),
		Amount:            dec("3000"),
		PaymentDate:       str("2024-05-01"),
	})
	require.NoError(t, err)

	got, err := f.jobs.GetJob(ctx, job.ID.String())
	require.NoError(t, err)
	require.Len(t, got.Incomes, 1)
	assert.Equal(t, incomeID, got.Incomes[0].ID)
	assertAmount(t, "3000", got.Incomes[0].GrossAmount)
	assertAmount(t, "90", got.Incomes[0].WithholdingAmount)
	assertAmount(t, "2910", got.Incomes[0].NetAmount)
	assert.Equal(t, "2024-05-01", got.Incomes[0].PaymentDate)
	assert.Equal(t, "draft sent", got.Notes)

	_, err = f.jobs.UpdateJob(ctx, job.ID.String(), UpdateJobRequest{IsBrotherJob: boolPtr(true)})
	require.NoError(t, err)
	got, err = f.jobs.GetJob(ctx, job.ID.String())
	require.NoError(t, err)
	assert.Empty(t, got.Incomes)
}

func TestUpdateJobCreatesMissingIncome(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := jobRequest("Brother job turned paid")
	req.IsBrotherJob = true
	job, err := f.jobs.CreateJob(ctx, req)
	require.NoError(t, err)

	_, err = f.jobs.UpdateJob(ctx, job.ID.String(), UpdateJobRequest{IsBrotherJob: boolPtr(false), Amount: dec("1500")})
	require.NoError(t, err)

	got, err := f.jobs.GetJob(ctx, job.ID.String())
	require.NoError(t, err)
	require.Len(t, got.Incomes, 1)
	assertAmount(t, "1500", got.Incomes[0].NetAmount)
}

func TestUpdateJobValidatesMergedDates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := jobRequest("Dates")
	req.Amount = dec("100")
	job, err := f.jobs.CreateJob(ctx, req)
	require.NoError(t, err)

	_, err = f.jobs.UpdateJob(ctx, job.ID.String(), UpdateJobRequest{PublishDate: str("2024-03-02")})
	requireValidation(t, err, "publish_date")

	_, err = f.jobs.UpdateJob(ctx, uuid.NewString(), UpdateJobRequest{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStatusChangesBroadcast(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := jobRequest("Board card")
	req.Amount = dec("100")
	job, err := f.jobs.CreateJob(ctx, req)
	require.NoError(t, err)

	moved, err := f.jobs.ChangeStatus(ctx, job.ID.String(), model.JobStatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusInProgress, moved.Status)

	// Same status again is a no-op.
	_, err = f.jobs.ChangeStatus(ctx, job.ID.String(), model.JobStatusInProgress)
	require.NoError(t, err)

	_, err = f.jobs.UpdateJob(ctx, job.ID.String(), UpdateJobRequest{Status: str(model.JobStatusPaid)})
	require.NoError(t, err)

	require.Len(t, f.events.events, 2)
	assert.Equal(t, EventJobStatusChanged, f.events.events[0].name)
	first := f.events.events[0].data.(StatusChangedEvent)
	assert.Equal(t, model.JobStatusReceived, first.FromStatus)
	assert.Equal(t, model.JobStatusInProgress, first.ToStatus)
	second := f.events.events[1].data.(StatusChangedEvent)
	assert.Equal(t, model.JobStatusPaid, second.ToStatus)

	_, err = f.jobs.ChangeStatus(ctx, job.ID.String(), "done")
	requireValidation(t, err, "status")

	changes, _, err := f.audit.GetAuditLogs(ctx, model.ActionChangeStatus, 1, 10)
	require.NoError(t, err)
	assert.Len(t, changes, 2)
}

func TestBoardAndPayerNames(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i, payer := range []string{"Zeta", "Alpha", "Zeta"} {
		req := jobRequest(fmt.Sprintf("Job %d", i))
		req.PayerName = payer
		req.Amount = dec("100")
		job, err := f.jobs.CreateJob(ctx, req)
		require.NoError(t, err)
		if i == 0 {
			_, err = f.jobs.ChangeStatus(ctx, job.ID.String(), model.JobStatusPaid)
			require.NoError(t, err)
		}
	}

	columns, total, err := f.jobs.GetBoard(ctx, 500)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, columns, len(model.JobStatuses))
	assert.Equal(t, model.JobStatusReceived, columns[0].Status)
	assert.Len(t, columns[0].Jobs, 2)
	assert.Equal(t, model.JobStatusPaid, columns[len(columns)-1].Status)
	assert.Len(t, columns[len(columns)-1].Jobs, 1)

	names, err := f.jobs.GetPayerNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha", "Zeta"}, names)
}

func TestDeleteJobCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := jobRequest("To delete")
	req.Amount = dec("800")
	job, err := f.jobs.CreateJob(ctx, req)
	require.NoError(t, err)

	_, err = f.documents.CreateDocument(ctx, CreateDocumentRequest{ReviewJobID: job.ID.String(), FilePath: "/uploads/contract.pdf"})
	require.NoError(t, err)

	require.NoError(t, f.jobs.DeleteJob(ctx, job.ID.String()))

	_, err = f.jobs.GetJob(ctx, job.ID.String())
	assert.ErrorIs(t, err, ErrNotFound)
	incomes, total, err := f.incomes.GetIncomes(ctx, IncomeQuery{}, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, incomes)
	docs, err := f.documents.ListByJob(ctx, job.ID.String())
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.Equal(t, []string{"/uploads/contract.pdf"}, f.files.deleted)

	assert.ErrorIs(t, f.jobs.DeleteJob(ctx, job.ID.String()), ErrNotFound)
}

func TestCalendar(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := jobRequest("Launch video")
	req.Amount = dec("100")
	job, err := f.jobs.CreateJob(ctx, req)
	require.NoError(t, err)

	ics, err := f.jobs.CalendarICS(ctx, job.ID.String())
	require.NoError(t, err)
	assert.Contains(t, ics, "SUMMARY:Launch video (Review deadline)")
	assert.Contains(t, ics, "DTSTART;VALUE=DATE:20240310")

	links, err := f.jobs.CalendarLinks(ctx, job.ID.String())
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, "2024-03-05", links[0].Date)
	assert.True(t, strings.HasPrefix(links[1].URL, "https://calendar.google.com/"))

	_, err = f.jobs.CalendarICS(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}

// --- income ---

func seedJob(t *testing.T, f *fixture, title string) JobResponse {
	t.Helper()
	req := jobRequest(title)
	req.IsBrotherJob = true
	job, err := f.jobs.CreateJob(context.Background(), req)
	require.NoError(t, err)
	return job
}

func TestCreateIncomeDefaults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	job := seedJob(t, f, "Income host")

	inc, err := f.incomes.CreateIncome(ctx, CreateIncomeRequest{
		ReviewJobID: job.ID.String(),
		GrossAmount: decimal.RequireFromString("1000"),
		PaymentDate: "2024-06-15",
	})
	require.NoError(t, err)
	assertAmount(t, "3", inc.WithholdingRate)
	assertAmount(t, "30", inc.WithholdingAmount)
	assertAmount(t, "970", inc.NetAmount)
	assert.Equal(t, "THB", inc.Currency)
	assert.Equal(t, "Income host", inc.ReviewJobTitle)

	_, err = f.incomes.CreateIncome(ctx, CreateIncomeRequest{ReviewJobID: job.ID.String(), GrossAmount: decimal.NewFromInt(1), PaymentDate: "2024-06-15", Currency: "BAHT"})
	requireValidation(t, err, "currency")
	_, err = f.incomes.CreateIncome(ctx, CreateIncomeRequest{ReviewJobID: uuid.NewString(), GrossAmount: decimal.NewFromInt(1), PaymentDate: "2024-06-15"})
	requireValidation(t, err, "review_job_id")
	_, err = f.incomes.CreateIncome(ctx, CreateIncomeRequest{ReviewJobID: job.ID.String(), GrossAmount: decimal.NewFromInt(-1), PaymentDate: "2024-06-15"})
	requireValidation(t, err, "gross_amount")
	_, err = f.incomes.CreateIncome(ctx, CreateIncomeRequest{ReviewJobID: job.ID.String(), GrossAmount: decimal.NewFromInt(1), PaymentDate: "2024-06-15", WithholdingRate: dec("-1")})
	requireValidation(t, err, "withholding_rate")
}

func TestCreateIncomeKeepsExplicitAmountsAndUnclampedNet(t *testing.T) {
	f := newFixture(t)
	job := seedJob(t, f, "Odd split")

	inc, err := f.incomes.CreateIncome(context.Background(), CreateIncomeRequest{
		ReviewJobID:       job.ID.String(),
		GrossAmount:       decimal.RequireFromString("100"),
		WithholdingRate:   dec("0"),
		WithholdingAmount: dec("150"),
		PaymentDate:       "2024-01-01",
		Currency:          "usd",
	})
	require.NoError(t, err)
	assertAmount(t, "150", inc.WithholdingAmount)
	assertAmount(t, "-50", inc.NetAmount)
	assert.Equal(t, "USD", inc.Currency)
}

func TestIncomeRejectsNegativeExplicitAmounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	job := seedJob(t, f, "Negative amounts")
	base := func() CreateIncomeRequest {
		return CreateIncomeRequest{ReviewJobID: job.ID.String(), GrossAmount: decimal.NewFromInt(1000), PaymentDate: "2024-03-01"}
	}

	req := base()
	req.WithholdingAmount = dec("-10")
	_, err := f.incomes.CreateIncome(ctx, req)
	requireValidation(t, err, "withholding_amount")

	req = base()
	req.NetAmount = dec("-1")
	_, err = f.incomes.CreateIncome(ctx, req)
	requireValidation(t, err, "net_amount")

	inc, err := f.incomes.CreateIncome(ctx, base())
	require.NoError(t, err)

	_, err = f.incomes.UpdateIncome(ctx, inc.ID.String(), UpdateIncomeRequest{WithholdingAmount: dec("-0.01")})
	requireValidation(t, err, "withholding_amount")
	_, err = f.incomes.UpdateIncome(ctx, inc.ID.String(), UpdateIncomeRequest{NetAmount: dec("-5")})
	requireValidation(t, err, "net_amount")

	got, err := f.incomes.GetIncome(ctx, inc.ID.String())
	require.NoError(t, err)
	assertAmount(t, "30", got.WithholdingAmount)
	assertAmount(t, "970", got.NetAmount)
}

func TestUpdateIncomeRecomputes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	job := seedJob(t, f, "Recompute")
	inc, err := f.incomes.CreateIncome(ctx, CreateIncomeRequest{ReviewJobID: job.ID.String(), GrossAmount: decimal.NewFromInt(1000), PaymentDate: "2023-12-31"})
	require.NoError(t, err)

	up, err := f.incomes.UpdateIncome(ctx, inc.ID.String(), UpdateIncomeRequest{GrossAmount: dec("2000")})
	require.NoError(t, err)
	assertAmount(t, "60", up.WithholdingAmount)
	assertAmount(t, "1940", up.NetAmount)

	up, err = f.incomes.UpdateIncome(ctx, inc.ID.String(), UpdateIncomeRequest{WithholdingRate: dec("5"), NetAmount: dec("1900.004")})
	require.NoError(t, err)
	assertAmount(t, "100", up.WithholdingAmount)
	assertAmount(t, "1900", up.NetAmount)

	f.cache.deleted = nil
	up, err = f.incomes.UpdateIncome(ctx, inc.ID.String(), UpdateIncomeRequest{PaymentDate: str("2024-01-02")})
	require.NoError(t, err)
	assertAmount(t, "100", up.WithholdingAmount)
	assert.Equal(t, []string{cache.TaxSummaryKey(2023), cache.TaxSummaryKey(2024)}, f.cache.deleted)

	require.NoError(t, f.incomes.DeleteIncome(ctx, inc.ID.String()))
	_, err = f.incomes.GetIncome(ctx, inc.ID.String())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIncomeListAndSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	coffee := seedJob(t, f, "Coffee shop")
	hotel := seedJob(t, f, "Hotel stay")

	for _, in := range []struct {
		job   JobResponse
		gross string
		date  string
	}{
		{coffee, "1000", "2024-01-10"},
		{coffee, "2000", "2024-03-05"},
		{hotel, "4000", "2024-03-20"},
		{hotel, "9999", "2023-12-31"},
	} {
		_, err := f.incomes.CreateIncome(ctx, CreateIncomeRequest{ReviewJobID: in.job.ID.String(), GrossAmount: decimal.RequireFromString(in.gross), PaymentDate: in.date})
		require.NoError(t, err)
	}

	list, total, err := f.incomes.GetIncomes(ctx, IncomeQuery{Search: "coffee"}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, "2024-03-05", list[0].PaymentDate)

	_, total, err = f.incomes.GetIncomes(ctx, IncomeQuery{PaymentDateFrom: "2024-03-01", PaymentDateTo: "2024-03-31"}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	_, _, err = f.incomes.GetIncomes(ctx, IncomeQuery{PaymentDateFrom: "March"}, 1, 10)
	requireValidation(t, err, "payment_date_from")

	summary, err := f.incomes.Summary(ctx, 2024, 3)
	require.NoError(t, err)
	assertAmount(t, "6000", summary.Monthly.Gross)
	assertAmount(t, "180", summary.Monthly.Withholding)
	assertAmount(t, "5820", summary.Monthly.Net)
	assertAmount(t, "7000", summary.Yearly.Gross)
	require.Len(t, summary.ByMonth, 12)
	assertAmount(t, "1000", summary.ByMonth[0].Gross)
	assertAmount(t, "0", summary.ByMonth[1].Gross)
	assert.Equal(t, 12, summary.ByMonth[11].Month)

	_, err = f.incomes.Summary(ctx, 2024, 13)
	requireValidation(t, err, "month")

	var buf bytes.Buffer
	require.NoError(t, f.incomes.ExportCSV(ctx, 2024, "utf-8", &buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[1], "2024-01-10,Coffee shop,1000.00,3,30.00,970.00,THB"))

	requireValidation(t, f.incomes.ExportCSV(ctx, 2024, "ebcdic", &buf), "encoding")
}

// --- tax ---

func TestTaxSummaryUsesCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	job := seedJob(t, f, "Big year")
	_, err := f.incomes.CreateIncome(ctx, CreateIncomeRequest{ReviewJobID: job.ID.String(), GrossAmount: decimal.NewFromInt(515000), PaymentDate: "2024-07-01"})
	require.NoError(t, err)

	summary, err := f.tax.GetSummary(ctx, 2024)
	require.NoError(t, err)
	assert.Equal(t, "2567", summary.ScheduleLabel)
	assertAmount(t, "515000", summary.YearlyGross)
	assertAmount(t, "15450", summary.YearlyWithholding)
	assertAmount(t, "499550", summary.YearlyNet)
	assertAmount(t, "439550", summary.TaxableIncome)
	assertAmount(t, "21455", summary.TaxLiability)
	assertAmount(t, "6005", summary.TaxPayable)
	assert.False(t, summary.Refund)

	_, cached := f.cache.values[cache.TaxSummaryKey(2024)]
	assert.True(t, cached)

	// A new income invalidates the cached year.
	_, err = f.incomes.CreateIncome(ctx, CreateIncomeRequest{ReviewJobID: job.ID.String(), GrossAmount: decimal.NewFromInt(1000), PaymentDate: "2024-08-01"})
	require.NoError(t, err)
	_, cached = f.cache.values[cache.TaxSummaryKey(2024)]
	assert.False(t, cached)

	summary, err = f.tax.GetSummary(ctx, 2024)
	require.NoError(t, err)
	assertAmount(t, "516000", summary.YearlyGross)

	_, err = f.tax.GetSummary(ctx, 0)
	requireValidation(t, err, "year")
}

func TestTaxSummaryRendersTwoPlaceAmounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	job := seedJob(t, f, "Rendering")
	_, err := f.incomes.CreateIncome(ctx, CreateIncomeRequest{ReviewJobID: job.ID.String(), GrossAmount: decimal.NewFromInt(18500), PaymentDate: "2024-05-01"})
	require.NoError(t, err)

	summary, err := f.tax.GetSummary(ctx, 2024)
	require.NoError(t, err)
	raw, err := json.Marshal(summary)
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.Equal(t, "18500.00", fields["yearly_gross"])
	assert.Equal(t, "555.00", fields["yearly_withholding"])
	assert.Equal(t, "17945.00", fields["yearly_net"])
	assert.Equal(t, "0.00", fields["tax_payable"])

	// The cached copy decodes back to the same amounts.
	cached, err := f.tax.GetSummary(ctx, 2024)
	require.NoError(t, err)
	assertAmount(t, "17945", cached.YearlyNet)
	assertAmount(t, "555", cached.RefundAmount)
}

func TestTaxSummaryRefund(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	job := seedJob(t, f, "Small year")
	_, err := f.incomes.CreateIncome(ctx, CreateIncomeRequest{ReviewJobID: job.ID.String(), GrossAmount: decimal.NewFromInt(100000), PaymentDate: "2025-02-01"})
	require.NoError(t, err)

	summary, err := f.tax.GetSummary(ctx, 2025)
	require.NoError(t, err)
	assert.True(t, summary.Refund)
	assertAmount(t, "3000", summary.RefundAmount)
	assertAmount(t, "0", summary.TaxPayable)

	var buf bytes.Buffer
	require.NoError(t, f.tax.RenderSummaryPDF(ctx, 2025, &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestTaxBrackets(t *testing.T) {
	f := newFixture(t)
	res, err := f.tax.GetBrackets(2030)
	require.NoError(t, err)
	assert.Equal(t, taxcore.DefaultScheduleYear, res.ScheduleYear)
	require.Len(t, res.Brackets, len(taxcore.DefaultBrackets()))
	assertAmount(t, "0", res.Brackets[0].Lower)
	assertAmount(t, "150000", *res.Brackets[0].Upper)
	assertAmount(t, "150000", res.Brackets[1].Lower)
	assert.Nil(t, res.Brackets[len(res.Brackets)-1].Upper)
}

// --- dashboard ---

func TestDashboardSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i, seed := range []struct {
		payer     string
		platforms []string
		received  string
	}{
		{"Brand B", []string{"TikTok", "YouTube"}, "2024-02-01"},
		{"Brand A", []string{"YouTube"}, "2024-02-15"},
		{"Brand A", []string{"TikTok"}, "2024-03-01"},
		{"Brand B", []string{"Instagram"}, "2024-03-02"},
	} {
		req := jobRequest(fmt.Sprintf("Job %d", i))
		req.PayerName = seed.payer
		req.Platforms = seed.platforms
		req.ReceivedDate = seed.received
		req.ReviewDeadline = seed.received
		req.PublishDate = "2024-04-01"
		req.Amount = dec("1000")
		req.PaymentDate = str("2024-04-01")
		_, err := f.jobs.CreateJob(ctx, req)
		require.NoError(t, err)
	}

	summary, err := f.dashboard.GetSummary(ctx, 2024, 4)
	require.NoError(t, err)
	assertAmount(t, "4000", summary.Monthly.Gross)
	assertAmount(t, "4000", summary.Yearly.Net)
	require.Len(t, summary.RecentJobs, 4)
	assert.Equal(t, "Job 3", summary.RecentJobs[0].Title)

	require.NotNil(t, summary.TopPlatform)
	assert.Equal(t, NamedCount{Name: "TikTok", Count: 2}, *summary.TopPlatform)
	require.NotNil(t, summary.TopPayer)
	assert.Equal(t, NamedCount{Name: "Brand A", Count: 2}, *summary.TopPayer)
	require.NotNil(t, summary.TopMonth)
	assert.Equal(t, MonthCount{Year: 2024, Month: 3, Count: 2}, *summary.TopMonth)

	_, err = f.dashboard.GetSummary(ctx, 2024, 0)
	requireValidation(t, err, "month")
}

func TestDashboardEmpty(t *testing.T) {
	f := newFixture(t)
	summary, err := f.dashboard.GetSummary(context.Background(), 2024, 1)
	require.NoError(t, err)
	assert.Empty(t, summary.RecentJobs)
	assert.Nil(t, summary.TopPlatform)
	assert.Nil(t, summary.TopMonth)
	assertAmount(t, "0", summary.Yearly.Gross)
}

// --- documents ---

func TestDocumentLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	job := seedJob(t, f, "Docs")

	stored, err := f.documents.Upload(ctx, storage.Upload{FileName: "cert.txt", Body: strings.NewReader("abc")})
	require.NoError(t, err)
	assert.Equal(t, "/uploads/cert.txt", stored.FilePath)

	_, err = f.documents.CreateDocument(ctx, CreateDocumentRequest{FilePath: " "})
	requireValidation(t, err, "file_path")
	_, err = f.documents.CreateDocument(ctx, CreateDocumentRequest{ReviewJobID: uuid.NewString(), FilePath: stored.FilePath})
	requireValidation(t, err, "review_job_id")

	doc, err := f.documents.CreateDocument(ctx, CreateDocumentRequest{ReviewJobID: job.ID.String(), FilePath: stored.FilePath})
	require.NoError(t, err)
	assert.Equal(t, model.DefaultDocumentKind, doc.Kind)

	docs, err := f.documents.ListByJob(ctx, job.ID.String())
	require.NoError(t, err)
	require.Len(t, docs, 1)

	_, err = f.documents.ListByJob(ctx, "")
	requireValidation(t, err, "review_job_id")

	require.NoError(t, f.documents.DeleteDocument(ctx, doc.ID.String()))
	assert.Equal(t, []string{"/uploads/cert.txt"}, f.files.deleted)
	assert.ErrorIs(t, f.documents.DeleteDocument(ctx, doc.ID.String()), ErrNotFound)
}

func TestRankJobsTies(t *testing.T) {
	d := func(s string) *time.Time {
		v, _ := model.ParseDate(s)
		return &v
	}
	platform, payer, month := rankJobs([]repository.JobStat{
		{Platforms: []string{"YouTube"}, PayerName: "Zed", ReceivedDate: d("2023-05-01")},
		{Platforms: []string{"Facebook"}, PayerName: "Amy", ReceivedDate: d("2024-01-01")},
	})
	assert.Equal(t, "Facebook", platform.Name)
	assert.Equal(t, "Amy", payer.Name)
	assert.Equal(t, 2024, month.Year)
	assert.Equal(t, 1, month.Month)

	platform, payer, month = rankJobs(nil)
	assert.Nil(t, platform)
	assert.Nil(t, payer)
	assert.Nil(t, month)
}

func boolPtr(b bool) *bool { return &b }
