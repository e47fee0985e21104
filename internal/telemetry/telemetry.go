// Package telemetry provides Prometheus metrics and tracing handles for the
// enrichment service.
package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "enrichment"

// Pipeline stage label values.
const (
	StageClean     = "clean"
	StageClassify  = "classify"
	StageAggregate = "aggregate"
)

// Metrics holds all enrichment Prometheus metrics.
type Metrics struct {
	// Pipeline metrics
	ReportsProcessed prometheus.Counter
	ReportsSubmitted prometheus.Counter
	StageFailures    *prometheus.CounterVec
	StageDuration    *prometheus.HistogramVec

	// Aggregation metrics
	StatsFolds *prometheus.CounterVec

	// Backpressure metrics
	QueueDepth prometheus.Gauge

	// Priority distribution
	PriorityTotal *prometheus.CounterVec
}

// Provider wraps telemetry providers.
type Provider struct {
	Tracer  trace.Tracer
	Metrics *Metrics
}

// NewProvider initializes telemetry with Prometheus metrics.
func NewProvider() *Provider {
	return &Provider{
		Tracer:  otel.Tracer(serviceName),
		Metrics: initMetrics(),
	}
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func (p *Provider) Handler() http.Handler {
	return promhttp.Handler()
}

func initMetrics() *Metrics {
	return &Metrics{
		ReportsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "enrichment_reports_processed_total",
			Help: "Total reports fully processed (reached stage 2 and aggregated)",
		}),
		ReportsSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "enrichment_reports_submitted_total",
			Help: "Total report ids submitted to the pipeline queue",
		}),
		StageFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "enrichment_stage_failures_total",
			Help: "Total aborted pipeline runs by failing stage",
		}, []string{"stage"}),
		StageDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "enrichment_stage_duration_seconds",
			Help:    "Time spent in each pipeline stage",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
		}, []string{"stage"}),
		StatsFolds: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "enrichment_stats_folds_total",
			Help: "Total stats folds by scope",
		}, []string{"scope"}),
		QueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "enrichment_queue_depth",
			Help: "Report ids waiting in the pipeline queue",
		}),
		PriorityTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "enrichment_priority_total",
			Help: "Processed reports by computed priority label",
		}, []string{"priority"}),
	}
}

// StageTimer starts timing a stage and returns a function that records the
// elapsed duration when called.
func (m *Metrics) StageTimer(stage string) func() {
	start := time.Now()
	return func() {
		m.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}
}

// CountStageFailure increments the failure counter for a stage.
func (m *Metrics) CountStageFailure(stage string) {
	m.StageFailures.WithLabelValues(stage).Inc()
}

// CountFold increments the fold counter for a scope ("global" or "district").
func (m *Metrics) CountFold(scope string) {
	m.StatsFolds.WithLabelValues(scope).Inc()
}

// SetQueueDepth records the current queue depth.
func (m *Metrics) SetQueueDepth(depth int) {
	m.QueueDepth.Set(float64(depth))
}

// CountProcessed records one fully processed report with its priority label.
func (m *Metrics) CountProcessed(priorityLabel string) {
	m.ReportsProcessed.Inc()
	m.PriorityTotal.WithLabelValues(priorityLabel).Inc()
}

// StartSpan starts a new trace span.
// The caller is responsible for ending the span with span.End().
//
//nolint:spancheck // Caller is responsible for ending the span
func (p *Provider) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := p.Tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	return ctx, span
}

// RecordError records an error on a span.
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
