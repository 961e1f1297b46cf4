package domain

import "time"

// ProfileDetails holds the optional demographic and lifestyle attributes of a
// profile. All fields may be empty.
type ProfileDetails struct {
	DateOfBirth        *string  `json:"dateOfBirth,omitempty"`
	Gender             *string  `json:"gender,omitempty"`
	Weight             *float64 `json:"weight,omitempty"`
	Height             *float64 `json:"height,omitempty"`
	KnownAllergies     []string `json:"knownAllergies,omitempty"`
	ChronicConditions  []string `json:"chronicConditions,omitempty"`
	Medications        []string `json:"medications,omitempty"`
	DietaryPreferences []string `json:"dietaryPreferences,omitempty"`
	ActivityLevel      *string  `json:"activityLevel,omitempty"`
	SmokingStatus      *string  `json:"smokingStatus,omitempty"`
	AlcoholConsumption *string  `json:"alcoholConsumption,omitempty"`
	StressLevel        *string  `json:"stressLevel,omitempty"`
	SleepQuality       *string  `json:"sleepQuality,omitempty"`
}

// Profile is one tracked household member.
type Profile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	ProfileDetails
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ProfileNames maps profile ids to display names.
func ProfileNames(profiles []Profile) map[string]string {
	names := make(map[string]string, len(profiles))
	for _, p := range profiles {
		names[p.ID] = p.Name
	}
	return names
}

// ProfileIDSet returns the set of ids of the given profiles.
func ProfileIDSet(profiles []Profile) map[string]struct{} {
	set := make(map[string]struct{}, len(profiles))
	for _, p := range profiles {
		set[p.ID] = struct{}{}
	}
	return set
}
