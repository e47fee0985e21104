package priority

// Urgency keyword tiers. A keyword matches as a plain substring of the
// lower-cased text; each matched keyword contributes its tier weight once.
var (
	criticalKeywords = []string{
		"emergency",
		"critical",
		"unsafe",
		"fire",
		"collapse",
		"disaster",
		"life threatening",
		"crisis",
	}

	highKeywords = []string{
		"urgent",
		"immediately",
		"severe",
		"major",
		"asap",
		"unbearable",
		"health risk",
	}

	mediumKeywords = []string{
		"frequent",
		"daily",
		"delay",
		"worsening",
		"long time",
		"inconvenience",
	}
)

// Tier weights.
const (
	criticalWeight = 3
	highWeight     = 2
	mediumWeight   = 1
)

// Urgency score thresholds (closed on the lower bound).
const (
	urgencyCriticalThreshold = 8
	urgencyHighThreshold     = 4
	urgencyMediumThreshold   = 1
)

// Priority raw score thresholds (closed on the lower bound).
const (
	priorityCriticalThreshold = 15.0
	priorityHighThreshold     = 8.0
	priorityMediumThreshold   = 3.0
)

// Priority score contributions.
const (
	negativeSentimentFactor = 2.5
	ratingPenaltyFactor     = 1.5
	highPriorityTagBonus    = 5.0
	maxRating               = 5
)
