package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"reviewledger/internal/cache"
	"reviewledger/internal/logger"
	"reviewledger/internal/metrics"
	"reviewledger/internal/report"
	"reviewledger/internal/repository"
	"reviewledger/internal/taxcore"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// --- DTOs ---

type TaxSummaryResponse struct {
	Year              int    `json:"year"`
	ScheduleLabel     string `json:"schedule_label"`
	YearlyGross       Money  `json:"yearly_gross"`
	YearlyWithholding Money  `json:"yearly_withholding"`
	YearlyNet         Money  `json:"yearly_net"`
	PersonalAllowance Money  `json:"personal_allowance"`
	TaxableIncome     Money  `json:"taxable_income"`
	TaxLiability      Money  `json:"tax_liability"`
	TaxPayable        Money  `json:"tax_payable"`
	Refund            bool   `json:"refund"`
	RefundAmount      Money  `json:"refund_amount"`
}

type BracketRow struct {
	Lower       Money           `json:"lower"`
	Upper       *Money          `json:"upper"`
	RatePercent decimal.Decimal `json:"rate_percent"`
}

type TaxBracketsResponse struct {
	Year              int          `json:"year"`
	ScheduleYear      int          `json:"schedule_year"`
	ScheduleLabel     string       `json:"schedule_label"`
	PersonalAllowance Money        `json:"personal_allowance"`
	Brackets          []BracketRow `json:"brackets"`
}

// --- Interface ---

type TaxService interface {
	GetSummary(ctx context.Context, year int) (TaxSummaryResponse, error)
	GetBrackets(year int) (TaxBracketsResponse, error)
	RenderSummaryPDF(ctx context.Context, year int, w io.Writer) error
}

// --- Implementation ---

type taxService struct {
	incomeRepo repository.IncomeRepository
	schedules  *taxcore.ScheduleSet
	cache      cache.Store
	metrics    *metrics.Metrics
	now        func() time.Time
}

func NewTaxService(incomeRepo repository.IncomeRepository, schedules *taxcore.ScheduleSet, store cache.Store, m *metrics.Metrics) TaxService {
	if store == nil {
		store = cache.NewNoopStore()
	}
	return &taxService{incomeRepo: incomeRepo, schedules: schedules, cache: store, metrics: m, now: time.Now}
}

func validateYear(year int) error {
	if year < 1900 || year > 9999 {
		return invalid("year", "must be a Gregorian year")
	}
	return nil
}

// GetSummary reconciles a year's withholding against the progressive tax on
// its net income, using the schedule in force for that year.
func (s *taxService) GetSummary(ctx context.Context, year int) (TaxSummaryResponse, error) {
	if err := validateYear(year); err != nil {
		return TaxSummaryResponse{}, err
	}

	key := cache.TaxSummaryKey(year)
	var cached TaxSummaryResponse
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		logger.FromContext(ctx).Warn("tax summary cache read failed", zap.Int("year", year), zap.Error(err))
	}
	if hit {
		s.metrics.RecordTaxSummary("cache")
		return cached, nil
	}

	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	incomes, err := s.incomeRepo.ListPaidBetween(ctx, from, from.AddDate(1, 0, 0))
	if err != nil {
		return TaxSummaryResponse{}, fmt.Errorf("failed to load incomes for %d: %w", year, err)
	}
	var totals Totals
	for _, i := range incomes {
		totals.add(i)
	}

	schedule := s.schedules.For(year)
	result := schedule.TaxPayable(totals.Net.Decimal, totals.Withholding.Decimal)
	summary := TaxSummaryResponse{
		Year:              year,
		ScheduleLabel:     schedule.Label,
		YearlyGross:       totals.Gross,
		YearlyWithholding: totals.Withholding,
		YearlyNet:         totals.Net,
		PersonalAllowance: money(schedule.PersonalAllowance),
		TaxableIncome:     money(result.TaxableIncome),
		TaxLiability:      money(result.TaxLiability),
		TaxPayable:        money(result.TaxPayable),
		Refund:            result.Refund,
		RefundAmount:      money(result.RefundAmount),
	}

	if err := s.cache.Set(ctx, key, summary); err != nil {
		logger.FromContext(ctx).Warn("tax summary cache write failed", zap.Int("year", year), zap.Error(err))
	}
	s.metrics.RecordTaxSummary("computed")
	return summary, nil
}

func (s *taxService) GetBrackets(year int) (TaxBracketsResponse, error) {
	if err := validateYear(year); err != nil {
		return TaxBracketsResponse{}, err
	}
	schedule := s.schedules.For(year)

	rows := make([]BracketRow, 0, len(schedule.Brackets))
	lower := decimal.Zero
	for _, b := range schedule.Brackets {
		row := BracketRow{Lower: money(lower), RatePercent: b.RatePercent}
		if !b.Unbounded {
			upper := b.UpperBound
			row.Upper = &Money{Decimal: upper}
			lower = upper
		}
		rows = append(rows, row)
	}

	return TaxBracketsResponse{
		Year:              year,
		ScheduleYear:      schedule.Year,
		ScheduleLabel:     schedule.Label,
		PersonalAllowance: money(schedule.PersonalAllowance),
		Brackets:          rows,
	}, nil
}

func (s *taxService) RenderSummaryPDF(ctx context.Context, year int, w io.Writer) error {
	summary, err := s.GetSummary(ctx, year)
	if err != nil {
		return err
	}
	return report.WriteTaxSummaryPDF(w, report.TaxSummaryDoc{
		Year:              summary.Year,
		ScheduleLabel:     summary.ScheduleLabel,
		YearlyGross:       summary.YearlyGross.Decimal,
		YearlyWithholding: summary.YearlyWithholding.Decimal,
		YearlyNet:         summary.YearlyNet.Decimal,
		PersonalAllowance: summary.PersonalAllowance.Decimal,
		TaxableIncome:     summary.TaxableIncome.Decimal,
		TaxLiability:      summary.TaxLiability.Decimal,
		TaxPayable:        summary.TaxPayable.Decimal,
		Refund:            summary.Refund,
		RefundAmount:      summary.RefundAmount.Decimal,
		Brackets:          s.schedules.For(year).Brackets,
		GeneratedAt:       s.now(),
	})
}
