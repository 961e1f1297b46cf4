package domain

import "time"

// SuggestionSource tells where an advisory narrative came from.
type SuggestionSource string

const (
	// SuggestionSourceModel is a schema-valid answer from the language model.
	SuggestionSourceModel SuggestionSource = "model"
	// SuggestionSourceDegraded is built from an unparseable model answer by
	// keyword matching.
	SuggestionSourceDegraded SuggestionSource = "degraded"
	// SuggestionSourceIllustrative is the canned development response. It is
	// not analysis.
	SuggestionSourceIllustrative SuggestionSource = "illustrative"
)

// Suggestion is the advisory summarizer output. The last one is cached in the
// record store.
type Suggestion struct {
	PossibleTriggers []string         `json:"possibleTriggers"`
	Explanation      string           `json:"explanation"`
	Source           SuggestionSource `json:"source"`
	GeneratedAt      time.Time        `json:"generatedAt"`
}

// TimePattern describes when symptoms follow a food.
type TimePattern struct {
	AverageOnsetTime int     `json:"averageOnsetTime"`
	ConsistencyScore float64 `json:"consistencyScore"`
}

// SeverityStats summarizes the severities correlated with a food.
type SeverityStats struct {
	Average float64     `json:"average"`
	Range   [2]Severity `json:"range"`
}

// TriggerCandidate is one ranked food. It is recomputed on every analysis run.
type TriggerCandidate struct {
	Food           string        `json:"food"`
	Confidence     int           `json:"confidence"`
	Occurrences    int           `json:"occurrences"`
	LastOccurrence time.Time     `json:"lastOccurrence"`
	Symptoms       []string      `json:"symptoms"`
	TimePattern    TimePattern   `json:"timePattern"`
	Severity       SeverityStats `json:"severity"`
}

// AnalysisFilter narrows the entries considered by the trigger analysis.
// From and To are inclusive instants; nil means unbounded.
type AnalysisFilter struct {
	ProfileID   *string
	From        *time.Time
	To          *time.Time
	MinSeverity *Severity
	Categories  []Category
}

// Stats is the quick overview shown on the dashboard.
type Stats struct {
	Profiles          int        `json:"profiles"`
	FoodEntries       int        `json:"foodEntries"`
	SymptomEntries    int        `json:"symptomEntries"`
	RecentFoodEntries int        `json:"recentFoodEntries"`
	RecentSymptoms    int        `json:"recentSymptoms"`
	LastActivity      *time.Time `json:"lastActivity,omitempty"`
}
