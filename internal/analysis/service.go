// Package analysis wraps the external text classification backend behind a
// narrow contract: 3-class sentiment plus zero-shot tagging against the
// candidate label catalog.
package analysis

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/citypulse/enrichment/internal/domain"
	"github.com/citypulse/enrichment/internal/logger"
	"github.com/citypulse/enrichment/internal/retry"
)

// Backend is the model-backed classification contract. Calls may be remote
// and slow; both methods are synchronous from the pipeline's perspective.
type Backend interface {
	ClassifySentiment(ctx context.Context, text string) (label string, confidence float64, err error)
	ClassifyTags(ctx context.Context, text string, candidateLabels []string) ([]TagScore, error)
}

// TagScore pairs a candidate label with its entailment probability.
type TagScore struct {
	Label       string
	Probability float64
}

// Result is the classification output for one text.
type Result struct {
	SentimentLabel      string
	SentimentConfidence float64
	Tags                []domain.Tag
}

// InitConfig is the startup retry policy for backend initialization.
type InitConfig struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	BackoffFactor float64
}

// DefaultInitConfig mirrors the model-loading policy: 5 attempts, 10s
// initial delay, doubling each attempt.
func DefaultInitConfig() InitConfig {
	return InitConfig{
		MaxAttempts:   5,
		InitialDelay:  10 * time.Second,
		BackoffFactor: 2.0,
	}
}

// Service is the process-wide text analysis adapter. It is immutable after
// New returns and safe for concurrent use.
type Service struct {
	backend      Backend
	catalog      *Catalog
	tagThreshold float64
	logger       logger.Logger
}

// HealthChecker is implemented by backends whose readiness can be probed.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// tagThresholdDefault is the minimum entailment probability for a tag to be kept.
const tagThresholdDefault = 0.5

// New initializes the analysis service. When the backend exposes a health
// probe, initialization is verified with bounded exponential-backoff retries;
// on exhaustion the error is returned and the caller must treat it as fatal —
// the service never comes up partially initialized.
func New(ctx context.Context, backend Backend, catalog *Catalog, initCfg InitConfig, tagThreshold float64, log logger.Logger) (*Service, error) {
	if log == nil {
		log = logger.NewNop()
	}
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if tagThreshold <= 0 {
		tagThreshold = tagThresholdDefault
	}
	if initCfg.MaxAttempts <= 0 {
		initCfg = DefaultInitConfig()
	}

	if checker, ok := backend.(HealthChecker); ok {
		attempt := 0
		retryCfg := retry.Config{
			MaxAttempts:  initCfg.MaxAttempts,
			InitialDelay: initCfg.InitialDelay,
			Multiplier:   initCfg.BackoffFactor,
			MaxDelay:     initCfg.InitialDelay * time.Duration(1<<uint(initCfg.MaxAttempts)),
			IsRetryable:  retry.Always,
		}
		err := retry.Retry(ctx, retryCfg, func() error {
			attempt++
			if probeErr := checker.Health(ctx); probeErr != nil {
				log.Warn("analysis backend not ready",
					logger.Int("attempt", attempt),
					logger.Int("max_attempts", initCfg.MaxAttempts),
					logger.Error(probeErr),
				)
				return probeErr
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("analysis backend failed to initialize: %w", err)
		}
	}

	log.Info("analysis service initialized",
		logger.Int("catalog_labels", catalog.Size()),
		logger.Float64("tag_threshold", tagThreshold),
	)

	return &Service{
		backend:      backend,
		catalog:      catalog,
		tagThreshold: tagThreshold,
		logger:       log,
	}, nil
}

// Catalog returns the candidate label catalog.
func (s *Service) Catalog() *Catalog {
	return s.catalog
}

// Classify runs sentiment scoring and zero-shot tagging on cleaned text.
// Tags above the entailment threshold are kept sorted by probability
// descending; when none qualify, the single highest-scoring candidate is
// returned so the tag list is never empty.
func (s *Service) Classify(ctx context.Context, cleanedText string) (*Result, error) {
	label, confidence, err := s.backend.ClassifySentiment(ctx, cleanedText)
	if err != nil {
		return nil, fmt.Errorf("sentiment classification: %w", err)
	}

	scores, err := s.backend.ClassifyTags(ctx, cleanedText, s.catalog.Labels())
	if err != nil {
		return nil, fmt.Errorf("tag classification: %w", err)
	}

	return &Result{
		SentimentLabel:      label,
		SentimentConfidence: confidence,
		Tags:                s.selectTags(scores),
	}, nil
}

// selectTags applies the threshold/fallback rule and rounds confidences.
func (s *Service) selectTags(scores []TagScore) []domain.Tag {
	if len(scores) == 0 {
		return nil
	}

	sorted := make([]TagScore, len(scores))
	copy(sorted, scores)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Probability > sorted[j].Probability
	})

	tags := make([]domain.Tag, 0, len(sorted))
	for _, sc := range sorted {
		if sc.Probability > s.tagThreshold {
			tags = append(tags, domain.Tag{Name: sc.Label, Confidence: round3(sc.Probability)})
		}
	}
	if len(tags) == 0 {
		top := sorted[0]
		tags = append(tags, domain.Tag{Name: top.Label, Confidence: round3(top.Probability)})
	}

	return tags
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
