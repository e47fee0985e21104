// Package priority computes urgency and priority scores for classified
// reports. The engine is a pure function of its inputs: no I/O, no clock,
// safe for concurrent use.
package priority

import (
	"math"
	"strings"

	ahocorasick "github.com/cloudflare/ahocorasick"

	"github.com/citypulse/enrichment/internal/domain"
)

// HighPrioritySet reports whether a tag label belongs to the designated
// high-priority subset of the tag catalog.
type HighPrioritySet interface {
	IsHighPriority(label string) bool
}

// Score holds the engine's output for one report.
type Score struct {
	UrgencyLabel     string
	UrgencyScore     int
	PriorityLabel    string
	PriorityRawScore float64 // rounded to 2 decimals
}

// Engine scans text for urgency keywords and maps the combined signals to a
// priority label. Keyword matching uses a single Aho-Corasick pass instead of
// one substring scan per keyword.
type Engine struct {
	matcher      *ahocorasick.Matcher
	weights      []int
	highPriority HighPrioritySet
}

// NewEngine builds the keyword automaton.
func NewEngine(highPriority HighPrioritySet) *Engine {
	keywords := make([]string, 0, len(criticalKeywords)+len(highKeywords)+len(mediumKeywords))
	weights := make([]int, 0, cap(keywords))

	for _, kw := range criticalKeywords {
		keywords = append(keywords, kw)
		weights = append(weights, criticalWeight)
	}
	for _, kw := range highKeywords {
		keywords = append(keywords, kw)
		weights = append(weights, highWeight)
	}
	for _, kw := range mediumKeywords {
		keywords = append(keywords, kw)
		weights = append(weights, mediumWeight)
	}

	return &Engine{
		matcher:      ahocorasick.NewStringMatcher(keywords),
		weights:      weights,
		highPriority: highPriority,
	}
}

// UrgencyScore scans the lower-cased text and sums tier weights over all
// matched keywords. The label follows fixed thresholds; text with no matches
// is LOW_LEVEL_0 with score 0.
func (e *Engine) UrgencyScore(text string) (label string, score int) {
	hits := e.matcher.Match([]byte(strings.ToLower(text)))

	for _, idx := range hits {
		if idx < len(e.weights) {
			score += e.weights[idx]
		}
	}

	switch {
	case score >= urgencyCriticalThreshold:
		return domain.UrgencyCritical, score
	case score >= urgencyHighThreshold:
		return domain.UrgencyHigh, score
	case score >= urgencyMediumThreshold:
		return domain.UrgencyMedium, score
	default:
		return domain.UrgencyLow, 0
	}
}

// Evaluate computes the full urgency and priority result for one report.
// The raw priority score starts from the urgency score, adds a sentiment
// penalty when negative, a penalty growing as the rating drops, and a flat
// bonus when any tag is in the high-priority subset.
func (e *Engine) Evaluate(cleanedText string, rating int, sentimentLabel string, sentimentConfidence float64, tags []domain.Tag) Score {
	urgencyLabel, urgencyScore := e.UrgencyScore(cleanedText)

	raw := float64(urgencyScore)
	if sentimentLabel == domain.SentimentNegative {
		raw += sentimentConfidence * negativeSentimentFactor
	}
	raw += float64(maxRating-rating) * ratingPenaltyFactor
	if e.hasHighPriorityTag(tags) {
		raw += highPriorityTagBonus
	}

	return Score{
		UrgencyLabel:     urgencyLabel,
		UrgencyScore:     urgencyScore,
		PriorityLabel:    priorityLabel(raw),
		PriorityRawScore: round2(raw),
	}
}

func (e *Engine) hasHighPriorityTag(tags []domain.Tag) bool {
	if e.highPriority == nil {
		return false
	}
	for _, tag := range tags {
		if e.highPriority.IsHighPriority(tag.Name) {
			return true
		}
	}
	return false
}

func priorityLabel(raw float64) string {
	switch {
	case raw >= priorityCriticalThreshold:
		return domain.PriorityCritical
	case raw >= priorityHighThreshold:
		return domain.PriorityHigh
	case raw >= priorityMediumThreshold:
		return domain.PriorityMedium
	default:
		return domain.PriorityLow
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
