// Package pipeline runs the per-report enrichment state machine: clean the
// comment, classify it, fold the outcome into aggregate statistics. Each
// report's run is strictly sequential; different reports run in parallel
// through the worker queue.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/citypulse/enrichment/internal/analysis"
	"github.com/citypulse/enrichment/internal/domain"
	"github.com/citypulse/enrichment/internal/logger"
	"github.com/citypulse/enrichment/internal/priority"
	"github.com/citypulse/enrichment/internal/telemetry"
)

// ErrReportNotFound indicates the report id does not exist. Runs aborted
// with this error are not retryable without new data.
var ErrReportNotFound = domain.ErrReportNotFound

// ReportStore is the persistence contract for reports.
type ReportStore interface {
	// GetReport loads a report by id, returning ErrReportNotFound if absent.
	GetReport(ctx context.Context, id string) (*domain.Report, error)

	// SaveCleaned persists the cleaned comment and advances processing to 1.
	SaveCleaned(ctx context.Context, id, cleaned string) error

	// SaveClassification persists the classification output and advances
	// processing to 2.
	SaveClassification(ctx context.Context, id string, out *domain.ClassificationOutput) error
}

// Analyzer classifies cleaned text. Implemented by analysis.Service.
type Analyzer interface {
	Classify(ctx context.Context, cleanedText string) (*analysis.Result, error)
}

// Aggregator folds a completed report into the global and district stats.
type Aggregator interface {
	FoldReport(ctx context.Context, sentimentLabel string, rating int, service, district string) error
}

// Normalizer cleans a raw comment; it never fails.
type Normalizer interface {
	Normalize(raw string) string
}

// Indexer pushes the fully enriched report to the search index. Optional:
// index failures are logged, not propagated, since the index is derived data.
type Indexer interface {
	IndexEnrichedReport(ctx context.Context, report *domain.Report) error
}

// Pipeline orchestrates the three enrichment stages for one report id.
type Pipeline struct {
	store      ReportStore
	normalizer Normalizer
	analyzer   Analyzer
	engine     *priority.Engine
	aggregator Aggregator
	indexer    Indexer // may be nil
	limiter    *RateLimiter
	metrics    *telemetry.Metrics // may be nil
	tracer     trace.Tracer
	logger     logger.Logger
}

// Config wires the pipeline's collaborators.
type Config struct {
	Store      ReportStore
	Normalizer Normalizer
	Analyzer   Analyzer
	Engine     *priority.Engine
	Aggregator Aggregator
	Indexer    Indexer
	Limiter    *RateLimiter
	Metrics    *telemetry.Metrics
	Tracer     trace.Tracer
	Logger     logger.Logger
}

// New creates a pipeline.
func New(cfg Config) *Pipeline {
	log := cfg.Logger
	if log == nil {
		log = logger.NewNop()
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = otel.Tracer("pipeline")
	}
	return &Pipeline{
		store:      cfg.Store,
		normalizer: cfg.Normalizer,
		analyzer:   cfg.Analyzer,
		engine:     cfg.Engine,
		aggregator: cfg.Aggregator,
		indexer:    cfg.Indexer,
		limiter:    cfg.Limiter,
		metrics:    cfg.Metrics,
		tracer:     tracer,
		logger:     log,
	}
}

// Process runs the state machine for one report. A failed stage aborts the
// run without advancing the processing marker, so a re-triggered run resumes
// from the last completed stage. A report already at stage 2 is a no-op.
func (p *Pipeline) Process(ctx context.Context, reportID string) error {
	ctx, span := p.tracer.Start(ctx, "pipeline.process_report",
		trace.WithAttributes(attribute.String("report.id", reportID)))
	defer span.End()

	if err := p.process(ctx, reportID); err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	return nil
}

func (p *Pipeline) process(ctx context.Context, reportID string) error {
	report, err := p.store.GetReport(ctx, reportID)
	if err != nil {
		if errors.Is(err, ErrReportNotFound) {
			p.logger.Warn("report not found, dropping run", logger.String("report_id", reportID))
			return fmt.Errorf("report %s: %w", reportID, ErrReportNotFound)
		}
		return fmt.Errorf("load report %s: %w", reportID, err)
	}

	if report.Processing >= domain.StageAggregated {
		p.logger.Debug("report already processed", logger.String("report_id", reportID))
		return nil
	}

	log := p.logger.With(
		logger.String("report_id", reportID),
		logger.String("district", report.District),
		logger.String("service", report.Service),
	)

	cleaned, err := p.runCleaningStage(ctx, report, log)
	if err != nil {
		return err
	}

	out, err := p.runClassificationStage(ctx, report, cleaned, log)
	if err != nil {
		return err
	}

	if err := p.runAggregationStage(ctx, report, out, log); err != nil {
		return err
	}

	p.indexEnriched(ctx, report, log)

	if p.metrics != nil {
		p.metrics.CountProcessed(out.PriorityLabel)
	}

	log.Info("report fully processed",
		logger.String("priority", out.PriorityLabel),
		logger.String("sentiment", out.SentimentLabel),
	)
	return nil
}

// runCleaningStage advances stage 0 to 1. An empty comment still proceeds
// with the original text as a pass-through value.
func (p *Pipeline) runCleaningStage(ctx context.Context, report *domain.Report, log logger.Logger) (string, error) {
	if report.Processing >= domain.StageCleaned && report.CleanedComment != nil {
		return *report.CleanedComment, nil
	}

	ctx, span := p.tracer.Start(ctx, "pipeline.clean")
	defer span.End()

	timer := p.stageTimer(telemetry.StageClean)
	cleaned := p.normalizer.Normalize(report.Comment)
	if cleaned == "" {
		cleaned = report.Comment
	}
	timer()

	if err := p.store.SaveCleaned(ctx, report.ID, cleaned); err != nil {
		p.countFailure(telemetry.StageClean)
		return "", fmt.Errorf("persist cleaned comment: %w", err)
	}

	report.CleanedComment = &cleaned
	report.Processing = domain.StageCleaned
	log.Debug("cleaning stage complete", logger.Int("cleaned_len", len(cleaned)))

	return cleaned, nil
}

// runClassificationStage advances stage 1 to 2: analysis backend first, then
// the priority engine on its output.
func (p *Pipeline) runClassificationStage(ctx context.Context, report *domain.Report, cleaned string, log logger.Logger) (*domain.ClassificationOutput, error) {
	if report.Processing >= domain.StageAggregated && report.Classification != nil {
		return report.Classification, nil
	}

	ctx, span := p.tracer.Start(ctx, "pipeline.classify")
	defer span.End()

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	timer := p.stageTimer(telemetry.StageClassify)
	result, err := p.analyzer.Classify(ctx, cleaned)
	if err != nil {
		timer()
		p.countFailure(telemetry.StageClassify)
		return nil, fmt.Errorf("analyze report %s: %w", report.ID, err)
	}

	score := p.engine.Evaluate(cleaned, report.Rating, result.SentimentLabel, result.SentimentConfidence, result.Tags)
	timer()

	out := &domain.ClassificationOutput{
		SentimentLabel:      result.SentimentLabel,
		SentimentConfidence: result.SentimentConfidence,
		UrgencyLabel:        score.UrgencyLabel,
		UrgencyScore:        score.UrgencyScore,
		PriorityLabel:       score.PriorityLabel,
		PriorityRawScore:    score.PriorityRawScore,
		Tags:                result.Tags,
	}

	if err := p.store.SaveClassification(ctx, report.ID, out); err != nil {
		p.countFailure(telemetry.StageClassify)
		return nil, fmt.Errorf("persist classification: %w", err)
	}

	report.Classification = out
	report.Processing = domain.StageAggregated
	log.Debug("classification stage complete",
		logger.String("urgency", out.UrgencyLabel),
		logger.Float64("priority_raw", out.PriorityRawScore),
	)

	return out, nil
}

// runAggregationStage folds the outcome into the global and district stats.
func (p *Pipeline) runAggregationStage(ctx context.Context, report *domain.Report, out *domain.ClassificationOutput, log logger.Logger) error {
	ctx, span := p.tracer.Start(ctx, "pipeline.aggregate")
	defer span.End()

	timer := p.stageTimer(telemetry.StageAggregate)
	defer timer()

	if err := p.aggregator.FoldReport(ctx, out.SentimentLabel, report.Rating, report.Service, report.District); err != nil {
		p.countFailure(telemetry.StageAggregate)
		return fmt.Errorf("aggregate report %s: %w", report.ID, err)
	}

	log.Debug("aggregation stage complete")
	return nil
}

func (p *Pipeline) indexEnriched(ctx context.Context, report *domain.Report, log logger.Logger) {
	if p.indexer == nil {
		return
	}
	if err := p.indexer.IndexEnrichedReport(ctx, report); err != nil {
		log.Warn("failed to index enriched report", logger.Error(err))
	}
}

func (p *Pipeline) stageTimer(stage string) func() {
	if p.metrics == nil {
		return func() {}
	}
	return p.metrics.StageTimer(stage)
}

func (p *Pipeline) countFailure(stage string) {
	if p.metrics != nil {
		p.metrics.CountStageFailure(stage)
	}
}
