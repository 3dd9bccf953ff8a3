package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"FinTrack/internal/domain/models"
	domrepo "FinTrack/internal/domain/repository"
	domsvc "FinTrack/internal/domain/service"
	"FinTrack/internal/services/summary"
	"FinTrack/pkg/cache"
	applogger "FinTrack/pkg/logger"
	"FinTrack/pkg/metrics"
)

const summaryKeyPrefix = "summary"

// SummaryQuery selects the window and grouping of a summary. A non-empty
// Period takes precedence over Start and End.
type SummaryQuery struct {
	GroupBy domrepo.GroupBy
	Period  domrepo.Period
	Start   *time.Time
	End     *time.Time
}

// SummaryUseCase fetches transactions for a resolved window and aggregates
// them per calendar period.
type SummaryUseCase struct {
	store    domrepo.TransactionStore
	clock    domsvc.Clock
	cache    domrepo.SummaryCache
	cacheTTL time.Duration
	metrics  domrepo.Metrics
	log      *applogger.Logger
	// bumped by Invalidate; results fetched under an older generation are not cached
	generation atomic.Uint64
}

type SummaryOption func(*SummaryUseCase)

// WithSummaryCache caches computed summaries for ttl.
func WithSummaryCache(c domrepo.SummaryCache, ttl time.Duration) SummaryOption {
	return func(u *SummaryUseCase) {
		u.cache = c
		u.cacheTTL = ttl
	}
}

func WithSummaryMetrics(m domrepo.Metrics) SummaryOption {
	return func(u *SummaryUseCase) { u.metrics = m }
}

func WithSummaryLogger(l *applogger.Logger) SummaryOption {
	return func(u *SummaryUseCase) { u.log = l }
}

func NewSummaryUseCase(store domrepo.TransactionStore, clock domsvc.Clock, opts ...SummaryOption) *SummaryUseCase {
	u := &SummaryUseCase{
		store:   store,
		clock:   clock,
		metrics: metrics.Noop{},
		log:     applogger.Nop(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

func (u *SummaryUseCase) Total(ctx context.Context, q SummaryQuery) ([]models.GroupSummary, error) {
	return u.Summarize(ctx, q, domrepo.ModeAll)
}

func (u *SummaryUseCase) Income(ctx context.Context, q SummaryQuery) ([]models.GroupSummary, error) {
	return u.Summarize(ctx, q, domrepo.ModeIncome)
}

func (u *SummaryUseCase) Expense(ctx context.Context, q SummaryQuery) ([]models.GroupSummary, error) {
	return u.Summarize(ctx, q, domrepo.ModeExpense)
}

// Summarize resolves the window against the clock, fetches the transactions
// inside it, filters them by mode and groups them. Store failures abort the
// query and are returned wrapped.
func (u *SummaryUseCase) Summarize(ctx context.Context, q SummaryQuery, mode domrepo.FilterMode) ([]models.GroupSummary, error) {
	start := time.Now()
	defer func() { u.metrics.RecordLatency("summary", time.Since(start).Seconds()) }()

	mode, err := domrepo.ParseFilterMode(string(mode))
	if err != nil {
		return nil, err
	}
	groupBy := q.GroupBy
	if groupBy == "" {
		groupBy = domrepo.DefaultGroupBy()
	}
	if !groupBy.IsValid() {
		u.metrics.RecordError("unsupported_group_by")
		return nil, fmt.Errorf("%w: %q", domrepo.ErrUnsupportedGroupBy, string(groupBy))
	}

	now := u.clock.Now()
	window, err := summary.ResolveWindow(now, q.Period, q.Start, q.End)
	if err != nil {
		u.metrics.RecordError("unsupported_period")
		return nil, err
	}
	u.metrics.RecordQuery(string(mode), string(groupBy))

	key := summaryCacheKey(mode, groupBy, window)
	if groups, ok := u.fromCache(ctx, key, now.Location()); ok {
		return groups, nil
	}

	gen := u.generation.Load()
	txs, err := u.store.FindInRange(ctx, window.Start, window.End)
	if err != nil {
		u.metrics.RecordError("store")
		u.log.Error("summary fetch failed",
			applogger.String("mode", string(mode)),
			applogger.Time("start", window.Start),
			applogger.Time("end", window.End),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("find transactions: %w", err)
	}

	filtered, err := summary.Filter(summary.InLocation(txs, now.Location()), mode)
	if err != nil {
		return nil, err
	}
	groups, err := summary.GroupAndSum(filtered, groupBy)
	if err != nil {
		return nil, err
	}
	u.metrics.RecordGroups(string(mode), len(groups))

	u.cacheGroups(ctx, key, gen, groups)
	return groups, nil
}

// cacheGroups caches groups unless a mutation invalidated summaries after they
// were fetched. The generation is checked again after Set because an
// Invalidate may land between the first check and the write.
func (u *SummaryUseCase) cacheGroups(ctx context.Context, key string, gen uint64, groups []models.GroupSummary) {
	if u.cache == nil || u.generation.Load() != gen {
		return
	}
	if err := u.cache.Set(ctx, key, groups, u.cacheTTL); err != nil {
		u.log.Warn("summary cache set failed", applogger.String("key", key), applogger.Error(err))
		return
	}
	if u.generation.Load() != gen {
		if err := u.cache.DeleteByPattern(ctx, key); err != nil {
			u.log.Warn("summary cache drop failed", applogger.String("key", key), applogger.Error(err))
		}
	}
}

// Invalidate drops every cached summary. Queries already reading the store
// when it is called will not cache their results.
func (u *SummaryUseCase) Invalidate(ctx context.Context) error {
	u.generation.Add(1)
	if u.cache == nil {
		return nil
	}
	if err := u.cache.DeleteByPattern(ctx, summaryKeyPrefix+":*"); err != nil {
		return fmt.Errorf("invalidate summaries: %w", err)
	}
	return nil
}

func (u *SummaryUseCase) fromCache(ctx context.Context, key string, loc *time.Location) ([]models.GroupSummary, bool) {
	if u.cache == nil {
		return nil, false
	}
	var groups []models.GroupSummary
	if err := u.cache.Get(ctx, key, &groups); err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			u.log.Warn("summary cache get failed", applogger.String("key", key), applogger.Error(err))
		}
		return nil, false
	}
	if groups == nil {
		groups = []models.GroupSummary{}
	}
	for i := range groups {
		groups[i].StartDate = groups[i].StartDate.In(loc)
		groups[i].EndDate = groups[i].EndDate.In(loc)
	}
	return groups, true
}

func summaryCacheKey(mode domrepo.FilterMode, g domrepo.GroupBy, w summary.Window) string {
	return cache.Key(summaryKeyPrefix, string(mode), string(g),
		strconv.FormatInt(w.Start.UnixMilli(), 10),
		strconv.FormatInt(w.End.UnixMilli(), 10),
	)
}
