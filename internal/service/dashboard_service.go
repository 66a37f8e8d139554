package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"reviewledger/internal/logger"
	"reviewledger/internal/model"
	"reviewledger/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const recentJobsLimit = 10

type RecentJob struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	ReceivedDate string    `json:"received_date"`
}

type NamedCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type MonthCount struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Count int `json:"count"`
}

type DashboardSummary struct {
	Monthly     Totals      `json:"monthly"`
	Yearly      Totals      `json:"yearly"`
	RecentJobs  []RecentJob `json:"recent_jobs"`
	TopPlatform *NamedCount `json:"top_platform"`
	TopPayer    *NamedCount `json:"top_payer"`
	TopMonth    *MonthCount `json:"top_month"`
}

// EmptyDashboard is served when the summary cannot be built.
func EmptyDashboard() DashboardSummary {
	return DashboardSummary{RecentJobs: []RecentJob{}}
}

type DashboardService interface {
	GetSummary(ctx context.Context, year, month int) (DashboardSummary, error)
}

type dashboardService struct {
	jobRepo    repository.ReviewJobRepository
	incomeRepo repository.IncomeRepository
}

func NewDashboardService(jobRepo repository.ReviewJobRepository, incomeRepo repository.IncomeRepository) DashboardService {
	return &dashboardService{jobRepo: jobRepo, incomeRepo: incomeRepo}
}

// GetSummary loads income totals, recent jobs and job rankings concurrently.
func (s *dashboardService) GetSummary(ctx context.Context, year, month int) (DashboardSummary, error) {
	if month < 1 || month > 12 {
		return EmptyDashboard(), invalid("month", "must be between 1 and 12")
	}

	var (
		incomes []model.Income
		recent  []model.ReviewJob
		stats   []repository.JobStat
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		var err error
		incomes, err = s.incomeRepo.ListPaidBetween(gctx, from, from.AddDate(1, 0, 0))
		return err
	})
	g.Go(func() error {
		var err error
		recent, err = s.jobRepo.ListRecent(gctx, recentJobsLimit)
		return err
	})
	g.Go(func() error {
		var err error
		stats, err = s.jobRepo.Stats(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		logger.FromContext(ctx).Error("dashboard summary failed", zap.Error(err))
		return EmptyDashboard(), fmt.Errorf("failed to build dashboard: %w", err)
	}

	summary := EmptyDashboard()
	for _, i := range incomes {
		summary.Yearly.add(i)
		if int(i.PaymentDate.Month()) == month {
			summary.Monthly.add(i)
		}
	}
	for _, j := range recent {
		summary.RecentJobs = append(summary.RecentJobs, RecentJob{
			ID:           j.ID,
			Title:        j.Title,
			ReceivedDate: model.FormatDate(j.ReceivedDate),
		})
	}
	summary.TopPlatform, summary.TopPayer, summary.TopMonth = rankJobs(stats)
	return summary, nil
}

// rankJobs picks the most frequent platform, payer and received month. Name
// ties go to the alphabetically first; month ties go to the latest month.
func rankJobs(stats []repository.JobStat) (*NamedCount, *NamedCount, *MonthCount) {
	platforms := map[string]int{}
	payers := map[string]int{}
	months := map[[2]int]int{}
	for _, st := range stats {
		for _, p := range st.Platforms {
			if p != "" {
				platforms[p]++
			}
		}
		if st.PayerName != "" {
			payers[st.PayerName]++
		}
		if st.ReceivedDate != nil {
			months[[2]int{st.ReceivedDate.Year(), int(st.ReceivedDate.Month())}]++
		}
	}
	return topNamed(platforms), topNamed(payers), topMonth(months)
}

func topNamed(counts map[string]int) *NamedCount {
	if len(counts) == 0 {
		return nil
	}
	names := make([]string, 0, len(counts))
	for n := range counts {
		names = append(names, n)
	}
	sort.Strings(names)

	best := NamedCount{Name: names[0], Count: counts[names[0]]}
	for _, n := range names[1:] {
		if counts[n] > best.Count {
			best = NamedCount{Name: n, Count: counts[n]}
		}
	}
	return &best
}

func topMonth(counts map[[2]int]int) *MonthCount {
	var best *MonthCount
	for ym, c := range counts {
		later := best != nil && (ym[0] > best.Year || (ym[0] == best.Year && ym[1] > best.Month))
		if best == nil || c > best.Count || (c == best.Count && later) {
			best = &MonthCount{Year: ym[0], Month: ym[1], Count: c}
		}
	}
	return best
}
