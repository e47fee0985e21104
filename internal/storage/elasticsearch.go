package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	es "github.com/elastic/go-elasticsearch/v8"

	"github.com/citypulse/enrichment/internal/config"
	"github.com/citypulse/enrichment/internal/data"
	"github.com/citypulse/enrichment/internal/domain"
)

// ElasticsearchStorage writes fully enriched reports to a search index.
// It implements the pipeline's Indexer interface.
type ElasticsearchStorage struct {
	client *es.Client
	index  string
}

// NewElasticsearchStorage creates a new Elasticsearch storage instance.
func NewElasticsearchStorage(cfg config.ElasticsearchConfig) (*ElasticsearchStorage, error) {
	client, err := es.NewClient(es.Config{
		Addresses: []string{cfg.URL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}

	return &ElasticsearchStorage{
		client: client,
		index:  cfg.Index,
	}, nil
}

// enrichedDocument is the indexed shape of a report, flattened so the
// classification fields are top-level and directly aggregatable.
type enrichedDocument struct {
	ID             string    `json:"id"`
	City           string    `json:"city"`
	District       string    `json:"district"`
	DistrictSlug   string    `json:"district_slug"`
	Service        string    `json:"public_service"`
	Rating         int       `json:"rating"`
	Comment        string    `json:"comment"`
	CleanedComment string    `json:"cleaned_comment,omitempty"`
	CreatedAt      time.Time `json:"created_at"`

	Sentiment           string       `json:"sentiment,omitempty"`
	SentimentConfidence float64      `json:"sentiment_confidence,omitempty"`
	UrgencyLabel        string       `json:"urgency_label,omitempty"`
	UrgencyScore        int          `json:"urgency_score"`
	PriorityLabel       string       `json:"priority_label,omitempty"`
	PriorityRawScore    float64      `json:"priority_raw_score"`
	Tags                []domain.Tag `json:"tags_with_confidence,omitempty"`

	IndexedAt time.Time `json:"indexed_at"`
}

// IndexEnrichedReport indexes one enriched report, keyed by report ID so a
// re-run overwrites rather than duplicates.
func (s *ElasticsearchStorage) IndexEnrichedReport(ctx context.Context, report *domain.Report) error {
	doc := enrichedDocument{
		ID:           report.ID,
		City:         report.City,
		District:     report.District,
		DistrictSlug: data.Slug(report.District),
		Service:      report.Service,
		Rating:       report.Rating,
		Comment:      report.Comment,
		CreatedAt:    report.CreatedAt,
		IndexedAt:    time.Now().UTC(),
	}
	if report.CleanedComment != nil {
		doc.CleanedComment = *report.CleanedComment
	}
	if c := report.Classification; c != nil {
		doc.Sentiment = c.SentimentLabel
		doc.SentimentConfidence = c.SentimentConfidence
		doc.UrgencyLabel = c.UrgencyLabel
		doc.UrgencyScore = c.UrgencyScore
		doc.PriorityLabel = c.PriorityLabel
		doc.PriorityRawScore = c.PriorityRawScore
		doc.Tags = c.Tags
	}

	docBytes, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	res, err := s.client.Index(
		s.index,
		bytes.NewReader(docBytes),
		s.client.Index.WithContext(ctx),
		s.client.Index.WithDocumentID(report.ID),
	)
	if err != nil {
		return fmt.Errorf("failed to index document: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error indexing document: %s", res.String())
	}

	return nil
}

// TestConnection tests the connection to Elasticsearch.
func (s *ElasticsearchStorage) TestConnection(ctx context.Context) error {
	res, err := s.client.Info(s.client.Info.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to connect to Elasticsearch: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error response from Elasticsearch: %s", res.String())
	}

	return nil
}
