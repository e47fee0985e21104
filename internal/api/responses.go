package api

import (
	"time"

	"github.com/citypulse/enrichment/internal/domain"
)

// CreateReportRequest is the payload for submitting a new report.
type CreateReportRequest struct {
	City        string `json:"city"           binding:"required"`
	District    string `json:"district"       binding:"required"`
	Service     string `json:"public_service" binding:"required"`
	Rating      int    `json:"rating"         binding:"required,min=1,max=5"`
	Comment     string `json:"comment"        binding:"required"`
	IsAnonymous *bool  `json:"is_anonymous"`
	Name        string `json:"name"`
}

// CreateReportResponse acknowledges a submitted report. Enrichment happens
// asynchronously; the report is returned in stage 0.
type CreateReportResponse struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Status    string    `json:"status"`
}

// ReportResponse is the full report representation including any enrichment
// written so far.
type ReportResponse struct {
	ID             string                       `json:"id"`
	City           string                       `json:"city"`
	District       string                       `json:"district"`
	Service        string                       `json:"public_service"`
	Rating         int                          `json:"rating"`
	Comment        string                       `json:"comment"`
	CreatedAt      time.Time                    `json:"created_at"`
	IsAnonymous    bool                         `json:"is_anonymous"`
	Name           string                       `json:"name,omitempty"`
	CleanedComment string                       `json:"cleaned_comment,omitempty"`
	Classification *domain.ClassificationOutput `json:"classification,omitempty"`
	Processing     int                          `json:"processing"`
}

// ReportsListResponse is a list of reports with a total count.
type ReportsListResponse struct {
	Reports []ReportResponse `json:"reports"`
	Total   int              `json:"total"`
}

// AnalyticsResponse wraps a stats document for one scope.
type AnalyticsResponse struct {
	Scope    string                `json:"scope"`
	District string                `json:"district,omitempty"`
	Stats    *domain.StatsDocument `json:"stats"`
}

// toReportResponse converts a domain report to an API response.
func toReportResponse(report *domain.Report) ReportResponse {
	resp := ReportResponse{
		ID:             report.ID,
		City:           report.City,
		District:       report.District,
		Service:        report.Service,
		Rating:         report.Rating,
		Comment:        report.Comment,
		CreatedAt:      report.CreatedAt,
		IsAnonymous:    report.IsAnonymous,
		Classification: report.Classification,
		Processing:     report.Processing,
	}
	if !report.IsAnonymous {
		resp.Name = report.Name
	}
	if report.CleanedComment != nil {
		resp.CleanedComment = *report.CleanedComment
	}
	return resp
}
