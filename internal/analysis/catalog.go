package analysis

// CatalogEntry is one candidate issue label and its severity partition.
type CatalogEntry struct {
	Label        string
	HighPriority bool
}

// Catalog is the immutable table of candidate issue labels used for
// zero-shot tagging. Built once at startup.
type Catalog struct {
	entries      []CatalogEntry
	labels       []string
	highPriority map[string]bool
}

// defaultHighPriorityLabels are issues that escalate priority when tagged.
var defaultHighPriorityLabels = []string{
	"critical sewage overflow and public health risk",
	"exposed high-tension electrical wiring",
	"major structural collapse or building safety hazard",
	"contaminated drinking water leading to sickness",
	"unattended road accident site",
	"total closure of main arterial road",
	"severe flash flooding risk due_to drainage",
}

// defaultOrdinaryLabels cover the routine civic issue space plus a few broad
// catch-all categories.
var defaultOrdinaryLabels = []string{
	"water purity and contamination",
	"inconsistent water pressure",
	"pipe leakage and water wastage",
	"road potholes and cracks",
	"faded road markings or signs",
	"illegal encroachment on road shoulder",
	"frequent power cuts and load shedding",
	"voltage fluctuations and power instability",
	"broken or unsynchronized traffic signals",
	"persistent traffic jams and congestion",
	"irregular garbage pickup schedule",
	"overflowing public bins and dumping grounds",
	"bus/train delays and cancellations",
	"non-functional street light outage",
	"municipal administrative delay and poor communication",
	"misconduct or corruption by civic staff",
	"general civic body performance rating",
	"noise pollution and public nuisance",
}

// NewCatalog builds a catalog from high-priority and ordinary label lists.
// Empty lists fall back to the built-in defaults.
func NewCatalog(highPriority, ordinary []string) *Catalog {
	if len(highPriority) == 0 {
		highPriority = defaultHighPriorityLabels
	}
	if len(ordinary) == 0 {
		ordinary = defaultOrdinaryLabels
	}

	c := &Catalog{
		entries:      make([]CatalogEntry, 0, len(highPriority)+len(ordinary)),
		labels:       make([]string, 0, len(highPriority)+len(ordinary)),
		highPriority: make(map[string]bool, len(highPriority)),
	}
	for _, label := range highPriority {
		c.entries = append(c.entries, CatalogEntry{Label: label, HighPriority: true})
		c.labels = append(c.labels, label)
		c.highPriority[label] = true
	}
	for _, label := range ordinary {
		c.entries = append(c.entries, CatalogEntry{Label: label})
		c.labels = append(c.labels, label)
	}
	return c
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() *Catalog {
	return NewCatalog(nil, nil)
}

// Labels returns all candidate labels in catalog order.
func (c *Catalog) Labels() []string {
	return c.labels
}

// IsHighPriority reports whether label belongs to the high-priority subset.
func (c *Catalog) IsHighPriority(label string) bool {
	return c.highPriority[label]
}

// Size returns the number of candidate labels.
func (c *Catalog) Size() int {
	return len(c.entries)
}
