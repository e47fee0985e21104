package priority_test

import (
	"testing"

	"github.com/citypulse/enrichment/internal/domain"
	"github.com/citypulse/enrichment/internal/priority"
)

// tagSet is a fixed high-priority label set for tests.
type tagSet map[string]bool

func (s tagSet) IsHighPriority(label string) bool { return s[label] }

func TestEngine_UrgencyScore(t *testing.T) {
	engine := priority.NewEngine(nil)

	tests := []struct {
		name      string
		text      string
		wantLabel string
		wantScore int
	}{
		{"no keywords", "the streetlight near my house flickers", domain.UrgencyLow, 0},
		{"single medium keyword", "garbage pickup is delayed again", domain.UrgencyMedium, 1},
		{"two medium keywords", "daily delays on this route", domain.UrgencyMedium, 2},
		{"single high keyword", "this is urgent please help", domain.UrgencyMedium, 2},
		{"two high keywords", "urgent and severe situation", domain.UrgencyHigh, 4},
		{"single critical keyword", "there is a fire hazard here", domain.UrgencyMedium, 3},
		{"two critical keywords", "emergency, the bridge is unsafe", domain.UrgencyHigh, 6},
		{"three critical keywords", "emergency fire, building may collapse", domain.UrgencyCritical, 9},
		{"multi word keyword", "this is life threatening for residents", domain.UrgencyMedium, 3},
		{"case insensitive", "EMERGENCY! The wall is UNSAFE", domain.UrgencyHigh, 6},
		{"keyword inside word", "he was unsafely close", domain.UrgencyMedium, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, score := engine.UrgencyScore(tt.text)
			if label != tt.wantLabel {
				t.Errorf("label: got %s, want %s", label, tt.wantLabel)
			}
			if score != tt.wantScore {
				t.Errorf("score: got %d, want %d", score, tt.wantScore)
			}
		})
	}
}

func TestEngine_UrgencyScore_RepeatedKeywordCountsOnce(t *testing.T) {
	engine := priority.NewEngine(nil)

	_, once := engine.UrgencyScore("emergency downtown")
	_, twice := engine.UrgencyScore("emergency emergency emergency downtown")

	if once != twice {
		t.Errorf("repeated keyword changed score: %d vs %d", once, twice)
	}
}

func TestEngine_Evaluate(t *testing.T) {
	hp := tagSet{"water contamination": true}
	engine := priority.NewEngine(hp)

	tests := []struct {
		name         string
		text         string
		rating       int
		sentiment    string
		confidence   float64
		tags         []domain.Tag
		wantPriority string
		wantRawScore float64
		wantUrgency  string
	}{
		{
			name:         "calm positive report",
			text:         "the new park benches look great",
			rating:       5,
			sentiment:    domain.SentimentPositive,
			confidence:   0.95,
			tags:         []domain.Tag{{Name: "parks", Confidence: 0.7}},
			wantPriority: domain.PriorityLow,
			wantRawScore: 0,
			wantUrgency:  domain.UrgencyLow,
		},
		{
			name:         "negative sentiment adds weighted confidence",
			text:         "nothing works here",
			rating:       1,
			sentiment:    domain.SentimentNegative,
			confidence:   0.333,
			tags:         nil,
			wantPriority: domain.PriorityMedium,
			wantRawScore: 6.83, // 0.333*2.5 + (5-1)*1.5, rounded
			wantUrgency:  domain.UrgencyLow,
		},
		{
			name:         "exact critical boundary",
			text:         "urgent and severe flooding",
			rating:       1,
			sentiment:    domain.SentimentNeutral,
			confidence:   0.5,
			tags:         []domain.Tag{{Name: "water contamination", Confidence: 0.9}},
			wantPriority: domain.PriorityCritical,
			wantRawScore: 15, // 4 + (5-1)*1.5 + 5
			wantUrgency:  domain.UrgencyHigh,
		},
		{
			name:         "high priority tag bonus applies once",
			text:         "quiet street",
			rating:       5,
			sentiment:    domain.SentimentNeutral,
			confidence:   0.5,
			tags: []domain.Tag{
				{Name: "water contamination", Confidence: 0.9},
				{Name: "water contamination", Confidence: 0.8},
			},
			wantPriority: domain.PriorityMedium,
			wantRawScore: 5,
			wantUrgency:  domain.UrgencyLow,
		},
		{
			name:         "ordinary tags earn no bonus",
			text:         "quiet street",
			rating:       5,
			sentiment:    domain.SentimentNeutral,
			confidence:   0.5,
			tags:         []domain.Tag{{Name: "street lighting", Confidence: 0.9}},
			wantPriority: domain.PriorityLow,
			wantRawScore: 0,
			wantUrgency:  domain.UrgencyLow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.Evaluate(tt.text, tt.rating, tt.sentiment, tt.confidence, tt.tags)

			if got.PriorityLabel != tt.wantPriority {
				t.Errorf("priority label: got %s, want %s", got.PriorityLabel, tt.wantPriority)
			}
			if got.PriorityRawScore != tt.wantRawScore {
				t.Errorf("raw score: got %v, want %v", got.PriorityRawScore, tt.wantRawScore)
			}
			if got.UrgencyLabel != tt.wantUrgency {
				t.Errorf("urgency label: got %s, want %s", got.UrgencyLabel, tt.wantUrgency)
			}
		})
	}
}

func TestEngine_Evaluate_EmergencyScenario(t *testing.T) {
	hp := tagSet{"contaminated drinking water leading to sickness": true}
	engine := priority.NewEngine(hp)

	text := "Emergency! Water supply unsafe and contaminated for 3 days"
	tags := []domain.Tag{{Name: "contaminated drinking water leading to sickness", Confidence: 0.92}}

	got := engine.Evaluate(text, 1, domain.SentimentNegative, 0.97, tags)

	if got.UrgencyScore < 5 {
		t.Errorf("urgency score: got %d, want >= 5", got.UrgencyScore)
	}
	if got.UrgencyLabel != domain.UrgencyHigh && got.UrgencyLabel != domain.UrgencyCritical {
		t.Errorf("urgency label: got %s", got.UrgencyLabel)
	}
	if got.PriorityRawScore < 8 {
		t.Errorf("raw score: got %v, want >= 8", got.PriorityRawScore)
	}
	if got.PriorityLabel != domain.PriorityHigh && got.PriorityLabel != domain.PriorityCritical {
		t.Errorf("priority label: got %s", got.PriorityLabel)
	}
}
