package analysis

import (
	"context"

	"github.com/citypulse/enrichment/internal/mlclient"
)

// HTTPBackend adapts the ML sidecar client to the Backend contract.
type HTTPBackend struct {
	client *mlclient.Client
}

// NewHTTPBackend wraps an ML sidecar client.
func NewHTTPBackend(client *mlclient.Client) *HTTPBackend {
	return &HTTPBackend{client: client}
}

// ClassifySentiment scores 3-class sentiment via the sidecar.
func (b *HTTPBackend) ClassifySentiment(ctx context.Context, text string) (string, float64, error) {
	resp, err := b.client.ClassifySentiment(ctx, text)
	if err != nil {
		return "", 0, err
	}
	return resp.Label, resp.Confidence, nil
}

// ClassifyTags scores entailment against candidate labels via the sidecar.
func (b *HTTPBackend) ClassifyTags(ctx context.Context, text string, candidateLabels []string) ([]TagScore, error) {
	scores, err := b.client.ClassifyTags(ctx, text, candidateLabels)
	if err != nil {
		return nil, err
	}
	out := make([]TagScore, len(scores))
	for i, sc := range scores {
		out[i] = TagScore{Label: sc.Label, Probability: sc.Probability}
	}
	return out, nil
}

// Health probes the sidecar's readiness endpoint.
func (b *HTTPBackend) Health(ctx context.Context) error {
	return b.client.Health(ctx)
}
