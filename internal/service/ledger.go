package service

import (
	"context"
	"sort"
	"time"

	"reviewledger/internal/cache"
	"reviewledger/internal/logger"
	"reviewledger/internal/metrics"
	"reviewledger/internal/repository"

	"go.uber.org/zap"
)

// Broadcaster pushes realtime events to connected board clients.
type Broadcaster interface {
	BroadcastEvent(event string, data interface{})
}

type noopBroadcaster struct{}

func (noopBroadcaster) BroadcastEvent(string, interface{}) {}

// incomeLedger is shared by the job and income services. It owns the income
// repository plus the side effects of an income write.
type incomeLedger struct {
	incomeRepo repository.IncomeRepository
	cache      cache.Store
	metrics    *metrics.Metrics
}

func newIncomeLedger(incomeRepo repository.IncomeRepository, store cache.Store, m *metrics.Metrics) *incomeLedger {
	if store == nil {
		store = cache.NewNoopStore()
	}
	return &incomeLedger{incomeRepo: incomeRepo, cache: store, metrics: m}
}

// invalidate drops cached tax summaries for the years of the given payment dates.
// Cache failures are logged, never returned: the write has already committed.
func (l *incomeLedger) invalidate(ctx context.Context, dates ...time.Time) {
	seen := map[int]bool{}
	var years []int
	for _, d := range dates {
		if d.IsZero() || seen[d.Year()] {
			continue
		}
		seen[d.Year()] = true
		years = append(years, d.Year())
	}
	if len(years) == 0 {
		return
	}
	sort.Ints(years)

	keys := make([]string, 0, len(years))
	for _, y := range years {
		keys = append(keys, cache.TaxSummaryKey(y))
	}
	if err := l.cache.Delete(ctx, keys...); err != nil {
		logger.FromContext(ctx).Warn("tax summary cache invalidation failed", zap.Ints("years", years), zap.Error(err))
	}
}

func (l *incomeLedger) recorded(currency string) {
	l.metrics.RecordIncome(currency)
}
