package domain

import (
	"errors"
	"time"
)

// ErrReportNotFound indicates a referenced report id does not exist.
var ErrReportNotFound = errors.New("report not found")

// Report represents a citizen feedback report submitted for a public service.
// It is created at StageCreated and enriched in place by the processing pipeline.
type Report struct {
	ID        string    `db:"id"         json:"id"`
	City      string    `db:"city"       json:"city"`
	District  string    `db:"district"   json:"district"`
	Service   string    `db:"service"    json:"public_service"`
	Rating    int       `db:"rating"     json:"rating"` // 1-5
	Comment   string    `db:"comment"    json:"comment"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	// Optional submitter info (anonymous by default)
	IsAnonymous bool   `db:"is_anonymous" json:"is_anonymous"`
	Name        string `db:"name"         json:"name,omitempty"`

	// Enrichment fields, written by the pipeline
	CleanedComment *string               `db:"cleaned_comment" json:"cleaned_comment,omitempty"`
	Classification *ClassificationOutput `db:"-"               json:"classification,omitempty"`

	// Processing stage marker: 0 = created, 1 = cleaned, 2 = classified + aggregated.
	// Monotonically non-decreasing; a report at StageAggregated never re-enters the pipeline.
	Processing int `db:"processing" json:"processing"`
}

// Processing stage constants
const (
	StageCreated    = 0
	StageCleaned    = 1
	StageAggregated = 2
)

// Sentiment label constants
const (
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
	SentimentPositive = "positive"
)

// Urgency label constants, ordered by severity.
const (
	UrgencyLow      = "LOW_LEVEL_0"
	UrgencyMedium   = "MEDIUM_LEVEL_1"
	UrgencyHigh     = "HIGH_LEVEL_2"
	UrgencyCritical = "CRITICAL_LEVEL_3"
)

// Priority label constants, ordered by severity.
const (
	PriorityLow      = "P4_LOW"
	PriorityMedium   = "P3_MEDIUM"
	PriorityHigh     = "P2_HIGH"
	PriorityCritical = "P1_CRITICAL"
)

// Tag is a topical issue label with its entailment confidence.
type Tag struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"` // rounded to 3 decimals
}

// ClassificationOutput is the full enrichment result for a report.
// Immutable once written to a Report.
type ClassificationOutput struct {
	SentimentLabel      string  `json:"sentiment"`
	SentimentConfidence float64 `json:"sentiment_confidence"`
	UrgencyLabel        string  `json:"urgency_label"`
	UrgencyScore        int     `json:"urgency_score"`
	PriorityLabel       string  `json:"priority_label"`
	PriorityRawScore    float64 `json:"priority_raw_score"` // rounded to 2 decimals
	Tags                []Tag   `json:"tags_with_confidence"`
}

// IsNegative reports whether the sentiment label is negative.
func (c *ClassificationOutput) IsNegative() bool {
	return c.SentimentLabel == SentimentNegative
}
