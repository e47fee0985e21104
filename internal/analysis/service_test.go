//nolint:testpackage // Exercises unexported tag selection directly
package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/citypulse/enrichment/internal/domain"
)

// fakeBackend is a scriptable Backend with an optional health probe.
type fakeBackend struct {
	sentimentLabel string
	sentimentConf  float64
	tagScores      []TagScore
	classifyErr    error

	healthErr      error
	healthFailures int // fail this many probes before succeeding
	healthCalls    int
}

func (b *fakeBackend) ClassifySentiment(context.Context, string) (string, float64, error) {
	if b.classifyErr != nil {
		return "", 0, b.classifyErr
	}
	return b.sentimentLabel, b.sentimentConf, nil
}

func (b *fakeBackend) ClassifyTags(context.Context, string, []string) ([]TagScore, error) {
	if b.classifyErr != nil {
		return nil, b.classifyErr
	}
	return b.tagScores, nil
}

func (b *fakeBackend) Health(context.Context) error {
	b.healthCalls++
	if b.healthFailures > 0 && b.healthCalls <= b.healthFailures {
		return errors.New("model still loading")
	}
	return b.healthErr
}

func fastInit(attempts int) InitConfig {
	return InitConfig{
		MaxAttempts:   attempts,
		InitialDelay:  time.Millisecond,
		BackoffFactor: 2.0,
	}
}

func TestNew_RetriesUntilBackendReady(t *testing.T) {
	backend := &fakeBackend{healthFailures: 2}

	svc, err := New(context.Background(), backend, nil, fastInit(5), 0.5, nil)
	require.NoError(t, err)
	require.NotNil(t, svc)
	require.Equal(t, 3, backend.healthCalls)
}

func TestNew_FailsAfterExhaustingAttempts(t *testing.T) {
	backend := &fakeBackend{healthErr: errors.New("model never loads")}

	svc, err := New(context.Background(), backend, nil, fastInit(3), 0.5, nil)
	require.Error(t, err)
	require.Nil(t, svc)
	require.Contains(t, err.Error(), "failed to initialize")
	require.Equal(t, 3, backend.healthCalls)
}

func TestClassify_PropagatesBackendError(t *testing.T) {
	backend := &fakeBackend{classifyErr: errors.New("connection refused")}
	svc, err := New(context.Background(), backend, nil, fastInit(1), 0.5, nil)
	require.NoError(t, err)

	_, err = svc.Classify(context.Background(), "some text")
	require.Error(t, err)
}

func TestClassify_ReturnsSentimentAndTags(t *testing.T) {
	backend := &fakeBackend{
		sentimentLabel: domain.SentimentNegative,
		sentimentConf:  0.91,
		tagScores: []TagScore{
			{Label: "road potholes and cracks", Probability: 0.81},
			{Label: "noise pollution and public nuisance", Probability: 0.12},
		},
	}
	svc, err := New(context.Background(), backend, nil, fastInit(1), 0.5, nil)
	require.NoError(t, err)

	result, err := svc.Classify(context.Background(), "huge pothole on main street")
	require.NoError(t, err)
	require.Equal(t, domain.SentimentNegative, result.SentimentLabel)
	require.Equal(t, 0.91, result.SentimentConfidence)
	require.Equal(t, []domain.Tag{{Name: "road potholes and cracks", Confidence: 0.81}}, result.Tags)
}

func TestSelectTags(t *testing.T) {
	svc := &Service{tagThreshold: 0.5}

	tests := []struct {
		name   string
		scores []TagScore
		want   []domain.Tag
	}{
		{
			name: "above threshold sorted descending",
			scores: []TagScore{
				{Label: "pipe leakage and water wastage", Probability: 0.62},
				{Label: "water purity and contamination", Probability: 0.9},
			},
			want: []domain.Tag{
				{Name: "water purity and contamination", Confidence: 0.9},
				{Name: "pipe leakage and water wastage", Confidence: 0.62},
			},
		},
		{
			name: "exact threshold excluded",
			scores: []TagScore{
				{Label: "water purity and contamination", Probability: 0.9},
				{Label: "pipe leakage and water wastage", Probability: 0.5},
			},
			want: []domain.Tag{
				{Name: "water purity and contamination", Confidence: 0.9},
			},
		},
		{
			name: "fallback to single top tag",
			scores: []TagScore{
				{Label: "irregular garbage pickup schedule", Probability: 0.31},
				{Label: "road potholes and cracks", Probability: 0.44},
			},
			want: []domain.Tag{
				{Name: "road potholes and cracks", Confidence: 0.44},
			},
		},
		{
			name: "confidence rounded to three decimals",
			scores: []TagScore{
				{Label: "road potholes and cracks", Probability: 0.87654},
			},
			want: []domain.Tag{
				{Name: "road potholes and cracks", Confidence: 0.877},
			},
		},
		{
			name:   "no scores",
			scores: nil,
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, svc.selectTags(tt.scores))
		})
	}
}

func TestCatalog_Partitions(t *testing.T) {
	catalog := DefaultCatalog()

	require.Equal(t, len(catalog.Labels()), catalog.Size())
	require.True(t, catalog.IsHighPriority("contaminated drinking water leading to sickness"))
	require.False(t, catalog.IsHighPriority("road potholes and cracks"))
	require.False(t, catalog.IsHighPriority("no such label"))
}

func TestCatalog_Overrides(t *testing.T) {
	catalog := NewCatalog([]string{"gas leak"}, []string{"potholes", "litter"})

	require.Equal(t, 3, catalog.Size())
	require.True(t, catalog.IsHighPriority("gas leak"))
	require.False(t, catalog.IsHighPriority("potholes"))
}
