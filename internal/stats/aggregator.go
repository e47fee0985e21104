// Package stats maintains running aggregate statistics documents, one per
// scope key ("global" or "district:<name>"), folded incrementally as reports
// finish the pipeline.
package stats

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/citypulse/enrichment/internal/domain"
	"github.com/citypulse/enrichment/internal/logger"
	"github.com/citypulse/enrichment/internal/telemetry"
)

// DateKeyLayout is the UTC calendar date key format in feedback_over_time.
const DateKeyLayout = "2006-01-02"

// Store persists stats documents keyed by scope. Upsert writes the whole
// document in one operation: a fold is either fully applied or not at all.
type Store interface {
	// GetStats loads the document for a scope key. found is false when no
	// document exists yet for that scope.
	GetStats(ctx context.Context, scopeKey string) (doc *domain.StatsDocument, found bool, err error)

	// UpsertStats writes the whole document back, creating it if absent.
	UpsertStats(ctx context.Context, doc *domain.StatsDocument) error
}

// Aggregator folds completed reports into stats documents. Folds for the
// same scope key are serialized through a per-key mutex so concurrent
// reports never lose updates; folds for different scope keys proceed in
// parallel.
type Aggregator struct {
	store   Store
	metrics *telemetry.Metrics // may be nil
	logger  logger.Logger
	now     func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewAggregator creates a new stats aggregator.
func NewAggregator(store Store, metrics *telemetry.Metrics, log logger.Logger) *Aggregator {
	if log == nil {
		log = logger.NewNop()
	}
	return &Aggregator{
		store:   store,
		metrics: metrics,
		logger:  log,
		now:     time.Now,
		locks:   make(map[string]*sync.Mutex),
	}
}

// FoldReport folds one completed report into both documents it touches:
// the global scope and the report's district scope.
func (a *Aggregator) FoldReport(ctx context.Context, sentimentLabel string, rating int, service, district string) error {
	if err := a.Fold(ctx, domain.GlobalScopeKey, sentimentLabel, rating, service); err != nil {
		return fmt.Errorf("fold global stats: %w", err)
	}
	if err := a.Fold(ctx, domain.DistrictScopeKey(district), sentimentLabel, rating, service); err != nil {
		return fmt.Errorf("fold district stats: %w", err)
	}
	return nil
}

// Fold performs the read-modify-write upsert for one scope key. The per-key
// lock is held across the whole read-modify-write so two reports folding into
// the same scope can never interleave.
func (a *Aggregator) Fold(ctx context.Context, scopeKey, sentimentLabel string, rating int, service string) error {
	lock := a.scopeLock(scopeKey)
	lock.Lock()
	defer lock.Unlock()

	doc, found, err := a.store.GetStats(ctx, scopeKey)
	if err != nil {
		return fmt.Errorf("load stats %q: %w", scopeKey, err)
	}
	if !found {
		doc = domain.NewStatsDocument(scopeKey)
	}

	now := a.now().UTC()
	apply(doc, sentimentLabel, rating, service, now)

	if err := a.store.UpsertStats(ctx, doc); err != nil {
		return fmt.Errorf("upsert stats %q: %w", scopeKey, err)
	}

	if a.metrics != nil {
		a.metrics.CountFold(scopeLabel(scopeKey))
	}

	a.logger.Debug("stats folded",
		logger.String("scope_key", scopeKey),
		logger.String("service", service),
		logger.Int("total_feedback", doc.TotalFeedbackOverall),
	)

	return nil
}

// apply mutates doc with one report's outcome. The update order matches the
// observed semantics and must not be rearranged.
func apply(doc *domain.StatsDocument, sentimentLabel string, rating int, service string, now time.Time) {
	// 1. Overall feedback count
	oldTotal := doc.TotalFeedbackOverall
	newTotal := oldTotal + 1
	doc.TotalFeedbackOverall = newTotal

	// 2. Overall running mean of ratings
	doc.AvgRatingOverall = round2(((doc.AvgRatingOverall * float64(oldTotal)) + float64(rating)) / float64(newTotal))

	// 3. Per-service value. Not a true mean: each fold halves the weight of
	// all prior history. Kept as-is because changing it changes observable
	// stats.
	prev, ok := doc.AvgRatingByService[service]
	if !ok {
		prev = float64(rating)
	}
	doc.AvgRatingByService[service] = round2((prev + float64(rating)) / 2)

	// 4. Overall sentiment counts
	if _, ok := doc.SentimentCountsOverall[sentimentLabel]; !ok {
		doc.SentimentCountsOverall[sentimentLabel] = 0
	}
	doc.SentimentCountsOverall[sentimentLabel]++

	// 5. Per-service sentiment counts
	if _, ok := doc.SentimentCountsByService[service]; !ok {
		doc.SentimentCountsByService[service] = map[string]int{
			domain.SentimentPositive: 0,
			domain.SentimentNeutral:  0,
			domain.SentimentNegative: 0,
		}
	}
	doc.SentimentCountsByService[service][sentimentLabel]++

	// 6. Per-service feedback count
	doc.TotalFeedbackByService[service]++

	// 7. Daily timeline
	doc.FeedbackOverTime[now.Format(DateKeyLayout)]++

	// 8. Freshness marker
	doc.LastUpdated = now
}

// scopeLock returns the mutex for a scope key, creating it on first use.
// Locks are never removed: the scope key space is small (one global plus one
// per district).
func (a *Aggregator) scopeLock(scopeKey string) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()

	lock, ok := a.locks[scopeKey]
	if !ok {
		lock = &sync.Mutex{}
		a.locks[scopeKey] = lock
	}
	return lock
}

// scopeLabel collapses scope keys to a bounded metric label.
func scopeLabel(scopeKey string) string {
	if scopeKey == domain.GlobalScopeKey {
		return "global"
	}
	return "district"
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
