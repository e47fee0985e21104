package domain

import "time"

// Scope constants for stats documents.
const (
	ScopeGlobal   = "global"
	ScopeDistrict = "district"
)

// GlobalScopeKey is the scope key of the system-wide stats document.
const GlobalScopeKey = "global"

// DistrictScopeKey returns the scope key for a district's stats document.
func DistrictScopeKey(district string) string {
	return "district:" + district
}

// StatsDocument holds running aggregate statistics for one scope
// ("global" or "district:<name>"). Created lazily on first fold,
// never deleted, mutated only by the stats aggregator.
type StatsDocument struct {
	ScopeKey string `json:"scope_key"`
	Scope    string `json:"scope"`              // "global" or "district"
	District string `json:"district,omitempty"` // set for district scope

	AvgRatingOverall float64 `json:"avg_rating_overall"`

	// AvgRatingByService is not a true running mean: each fold replaces the
	// value with (previous + rating) / 2, so the history decays by half on
	// every update. Preserved as observed behavior.
	AvgRatingByService map[string]float64 `json:"avg_rating_by_service"`

	SentimentCountsOverall   map[string]int            `json:"sentiment_counts_overall"`
	SentimentCountsByService map[string]map[string]int `json:"sentiment_counts_by_service"`

	TotalFeedbackOverall   int            `json:"total_feedback_overall"`
	TotalFeedbackByService map[string]int `json:"total_feedback_by_service"`

	// FeedbackOverTime counts reports folded in per UTC calendar date (YYYY-MM-DD).
	FeedbackOverTime map[string]int `json:"feedback_over_time"`

	LastUpdated time.Time `json:"last_updated"`
}

// NewStatsDocument returns an empty stats document for the given scope key.
func NewStatsDocument(scopeKey string) *StatsDocument {
	doc := &StatsDocument{
		ScopeKey:           scopeKey,
		Scope:              ScopeGlobal,
		AvgRatingByService: make(map[string]float64),
		SentimentCountsOverall: map[string]int{
			SentimentPositive: 0,
			SentimentNeutral:  0,
			SentimentNegative: 0,
		},
		SentimentCountsByService: make(map[string]map[string]int),
		TotalFeedbackByService:   make(map[string]int),
		FeedbackOverTime:         make(map[string]int),
	}
	if district, ok := ParseDistrictScopeKey(scopeKey); ok {
		doc.Scope = ScopeDistrict
		doc.District = district
	}
	return doc
}

// ParseDistrictScopeKey extracts the district name from a district scope key.
func ParseDistrictScopeKey(scopeKey string) (string, bool) {
	const prefix = "district:"
	if len(scopeKey) > len(prefix) && scopeKey[:len(prefix)] == prefix {
		return scopeKey[len(prefix):], true
	}
	return "", false
}
