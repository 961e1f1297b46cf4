package domain

import (
	"slices"
	"time"
)

// FoodEntry is one logged meal or snack.
type FoodEntry struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	FoodItems  string    `json:"foodItems"`
	Photo      *string   `json:"photo,omitempty"`
	ProfileIDs []string  `json:"profileIds"`
}

// Foods returns the normalized food names of the entry.
func (f FoodEntry) Foods() []string {
	return SplitFoodItems(f.FoodItems)
}

// HasProfile reports whether the meal applies to the given profile.
func (f FoodEntry) HasProfile(profileID string) bool {
	return slices.Contains(f.ProfileIDs, profileID)
}

// SymptomEntry is one logged symptom episode.
type SymptomEntry struct {
	ID                string    `json:"id"`
	LoggedAt          time.Time `json:"loggedAt"`
	Symptom           string    `json:"symptom"`
	Category          Category  `json:"category"`
	Severity          Severity  `json:"severity"`
	StartTime         time.Time `json:"startTime"`
	Duration          string    `json:"duration"`
	LinkedFoodEntryID *string   `json:"linkedFoodEntryId,omitempty"`
	ProfileID         string    `json:"profileId"`
}

// AppSettings is the singleton record used in report headers.
type AppSettings struct {
	Name  *string `json:"name,omitempty"`
	Notes *string `json:"notes,omitempty"`
}

// PruneProfileRefs drops profile ids that are not in keep and reports whether
// anything was removed.
func (f *FoodEntry) PruneProfileRefs(keep map[string]struct{}) bool {
	kept := make([]string, 0, len(f.ProfileIDs))
	for _, id := range f.ProfileIDs {
		if _, ok := keep[id]; ok {
			kept = append(kept, id)
		}
	}
	changed := len(kept) != len(f.ProfileIDs)
	f.ProfileIDs = kept
	return changed
}
