// Package mlclient is an HTTP client for the text analysis ML sidecar.
package mlclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/citypulse/enrichment/internal/mltransport"
)

// ErrUnavailable indicates the text analysis service is unreachable.
var ErrUnavailable = errors.New("text analysis service unavailable")

// Client is an HTTP client for the text analysis sidecar.
type Client struct {
	baseURL string
	timeout time.Duration
}

// SentimentRequest is the request body for POST /sentiment.
type SentimentRequest struct {
	Text string `json:"text"`
}

// SentimentResponse is the response body from /sentiment.
type SentimentResponse struct {
	Label      string  `json:"label"` // "negative", "neutral", "positive"
	Confidence float64 `json:"confidence"`
}

// TagsRequest is the request body for POST /tags.
type TagsRequest struct {
	Text            string   `json:"text"`
	CandidateLabels []string `json:"candidate_labels"`
}

// TagScore pairs a candidate label with its entailment probability.
type TagScore struct {
	Label       string  `json:"label"`
	Probability float64 `json:"probability"`
}

// TagsResponse is the response body from /tags, ordered by probability descending.
type TagsResponse struct {
	Tags             []TagScore `json:"tags"`
	ProcessingTimeMs int64      `json:"processing_time_ms"`
}

// NewClient creates a new ML client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{baseURL: baseURL, timeout: timeout}
}

// ClassifySentiment scores 3-class sentiment for text.
func (c *Client) ClassifySentiment(ctx context.Context, text string) (*SentimentResponse, error) {
	req := &SentimentRequest{Text: text}
	var result SentimentResponse
	if err := mltransport.DoPost(ctx, c.baseURL, "/sentiment", req, &result, c.timeout); err != nil {
		return nil, fmt.Errorf("classify sentiment: %w", err)
	}
	return &result, nil
}

// ClassifyTags scores entailment of text against each candidate label.
func (c *Client) ClassifyTags(ctx context.Context, text string, candidateLabels []string) ([]TagScore, error) {
	req := &TagsRequest{Text: text, CandidateLabels: candidateLabels}
	var result TagsResponse
	if err := mltransport.DoPost(ctx, c.baseURL, "/tags", req, &result, c.timeout); err != nil {
		return nil, fmt.Errorf("classify tags: %w", err)
	}
	return result.Tags, nil
}

// Health checks if the ML sidecar is healthy.
func (c *Client) Health(ctx context.Context) error {
	reachable, _, _, err := mltransport.DoHealth(ctx, c.baseURL)
	if err != nil {
		if !reachable {
			return fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return err
	}
	return nil
}
