package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/citypulse/enrichment/internal/data"
	"github.com/citypulse/enrichment/internal/database"
	"github.com/citypulse/enrichment/internal/domain"
	"github.com/citypulse/enrichment/internal/logger"
	"github.com/citypulse/enrichment/internal/telemetry"
)

const (
	defaultProcessedLimit = 50
	maxProcessedLimit     = 200
)

// ReportStore is the report persistence surface the handlers need.
type ReportStore interface {
	Create(ctx context.Context, report *domain.Report) error
	GetReport(ctx context.Context, id string) (*domain.Report, error)
	ListProcessed(ctx context.Context, limit int) ([]*domain.Report, error)
	Status(ctx context.Context) (*database.ProcessingStatus, error)
}

// StatsReader loads aggregate stats documents by scope key.
type StatsReader interface {
	GetStats(ctx context.Context, scopeKey string) (*domain.StatsDocument, bool, error)
}

// Submitter hands a report id to the enrichment pipeline.
type Submitter interface {
	Submit(reportID string)
}

// Pinger checks a dependency for readiness.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// AnalysisHealth probes the text analysis backend.
type AnalysisHealth interface {
	Health(ctx context.Context) error
}

// Handler handles HTTP requests for the enrichment service.
type Handler struct {
	reports  ReportStore
	stats    StatsReader
	queue    Submitter
	db       Pinger
	analysis AnalysisHealth
	metrics  *telemetry.Metrics
	logger   logger.Logger
}

// NewHandler creates a new API handler.
func NewHandler(
	reports ReportStore,
	stats StatsReader,
	queue Submitter,
	db Pinger,
	analysis AnalysisHealth,
	metrics *telemetry.Metrics,
	log logger.Logger,
) *Handler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Handler{
		reports:  reports,
		stats:    stats,
		queue:    queue,
		db:       db,
		analysis: analysis,
		metrics:  metrics,
		logger:   log,
	}
}

// CreateReport handles POST /report. The report is persisted in stage 0 and
// queued for asynchronous enrichment before the response is written.
func (h *Handler) CreateReport(c *gin.Context) {
	var req CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid report submission", logger.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	isAnonymous := true
	if req.IsAnonymous != nil {
		isAnonymous = *req.IsAnonymous
	}

	report := &domain.Report{
		ID:          uuid.NewString(),
		City:        data.CleanLocality(req.City),
		District:    data.CleanLocality(req.District),
		Service:     req.Service,
		Rating:      req.Rating,
		Comment:     req.Comment,
		CreatedAt:   time.Now().UTC(),
		IsAnonymous: isAnonymous,
	}
	if !isAnonymous {
		report.Name = req.Name
	}

	if err := h.reports.Create(c.Request.Context(), report); err != nil {
		h.logger.Error("Failed to create report",
			logger.String("report_id", report.ID),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create report"})
		return
	}

	h.queue.Submit(report.ID)
	if h.metrics != nil {
		h.metrics.ReportsSubmitted.Inc()
	}

	h.logger.Info("Report submitted",
		logger.String("report_id", report.ID),
		logger.String("district", report.District),
		logger.String("service", report.Service),
	)

	c.JSON(http.StatusAccepted, CreateReportResponse{
		ID:        report.ID,
		CreatedAt: report.CreatedAt,
		Status:    "queued",
	})
}

// GetReport handles GET /reports/:id.
func (h *Handler) GetReport(c *gin.Context) {
	id := c.Param("id")

	report, err := h.reports.GetReport(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrReportNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
			return
		}
		h.logger.Error("Failed to get report",
			logger.String("report_id", id),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get report"})
		return
	}

	c.JSON(http.StatusOK, toReportResponse(report))
}

// ListProcessedReports handles GET /reports/processed.
func (h *Handler) ListProcessedReports(c *gin.Context) {
	limit := defaultProcessedLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		if parsed > maxProcessedLimit {
			parsed = maxProcessedLimit
		}
		limit = parsed
	}

	reports, err := h.reports.ListProcessed(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list processed reports", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list reports"})
		return
	}

	resp := ReportsListResponse{
		Reports: make([]ReportResponse, 0, len(reports)),
		Total:   len(reports),
	}
	for _, report := range reports {
		resp.Reports = append(resp.Reports, toReportResponse(report))
	}

	c.JSON(http.StatusOK, resp)
}

// GetProcessingStatus handles GET /reports/status.
func (h *Handler) GetProcessingStatus(c *gin.Context) {
	status, err := h.reports.Status(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to get processing status", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get status"})
		return
	}

	c.JSON(http.StatusOK, status)
}

// GetAnalytics handles GET /analytics. Scope defaults to global; district
// scope requires a district query parameter.
func (h *Handler) GetAnalytics(c *gin.Context) {
	scope := c.DefaultQuery("scope", domain.ScopeGlobal)

	var scopeKey string
	switch scope {
	case domain.ScopeGlobal:
		scopeKey = domain.GlobalScopeKey
	case domain.ScopeDistrict:
		district := data.CleanLocality(c.Query("district"))
		if district == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "district is required for district scope"})
			return
		}
		scopeKey = domain.DistrictScopeKey(district)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "scope must be global or district"})
		return
	}

	doc, found, err := h.stats.GetStats(c.Request.Context(), scopeKey)
	if err != nil {
		h.logger.Error("Failed to get analytics",
			logger.String("scope_key", scopeKey),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get analytics"})
		return
	}
	if !found {
		// No report has folded into this scope yet; return an empty document
		// rather than a 404 so dashboards render zeros.
		doc = domain.NewStatsDocument(scopeKey)
	}

	c.JSON(http.StatusOK, AnalyticsResponse{
		Scope:    doc.Scope,
		District: doc.District,
		Stats:    doc,
	})
}

// HealthCheck handles GET /health. Liveness only.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// ReadyCheck handles GET /ready. Verifies the database and the analysis
// backend are reachable.
func (h *Handler) ReadyCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	checks := gin.H{}
	ready := true

	if err := h.db.PingContext(ctx); err != nil {
		checks["database"] = err.Error()
		ready = false
	} else {
		checks["database"] = "ok"
	}

	if err := h.analysis.Health(ctx); err != nil {
		checks["analysis"] = err.Error()
		ready = false
	} else {
		checks["analysis"] = "ok"
	}

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"ready": ready, "checks": checks})
}
