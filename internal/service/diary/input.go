package diary

import (
	"strings"
	"time"

	"github.com/heartmarshall/allergycare-backend/internal/domain"
)

const photoPrefix = "data:image/"

// CreateFoodEntryInput holds the parameters for logging a meal.
type CreateFoodEntryInput struct {
	FoodItems  string
	Photo      *string
	ProfileIDs []string
}

// Validate checks all fields and collects all errors.
func (i CreateFoodEntryInput) Validate() error {
	var errs []domain.FieldError
	errs = validateFoodItems(errs, i.FoodItems)
	errs = validatePhoto(errs, i.Photo)
	if len(domain.CleanList(i.ProfileIDs)) == 0 {
		errs = append(errs, domain.FieldError{Field: "profileIds", Message: "at least one profile is required"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// UpdateFoodEntryInput holds the parameters for editing a meal.
// Nil fields are left unchanged; a pointer to "" removes the photo.
type UpdateFoodEntryInput struct {
	ID         string
	FoodItems  *string
	Photo      *string
	ProfileIDs []string
}

// Validate checks all fields and collects all errors.
func (i UpdateFoodEntryInput) Validate() error {
	var errs []domain.FieldError

	if strings.TrimSpace(i.ID) == "" {
		errs = append(errs, domain.FieldError{Field: "id", Message: "required"})
	}
	if i.FoodItems != nil {
		errs = validateFoodItems(errs, *i.FoodItems)
	}
	if i.Photo != nil && *i.Photo != "" {
		errs = validatePhoto(errs, i.Photo)
	}
	if i.ProfileIDs != nil && len(domain.CleanList(i.ProfileIDs)) == 0 {
		errs = append(errs, domain.FieldError{Field: "profileIds", Message: "at least one profile is required"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

func validateFoodItems(errs []domain.FieldError, items string) []domain.FieldError {
	if len(domain.SplitFoodItems(items)) == 0 {
		return append(errs, domain.FieldError{Field: "foodItems", Message: "at least one food is required"})
	}
	return errs
}

func validatePhoto(errs []domain.FieldError, photo *string) []domain.FieldError {
	if photo != nil && !strings.HasPrefix(*photo, photoPrefix) {
		return append(errs, domain.FieldError{Field: "photo", Message: "must be a data:image URI"})
	}
	return errs
}

// CreateSymptomEntryInput holds the parameters for logging a symptom.
// Category accepts the canonical slug or a legacy label.
type CreateSymptomEntryInput struct {
	Symptom           string
	Category          string
	Severity          domain.Severity
	StartTime         time.Time
	Duration          string
	LinkedFoodEntryID *string
	ProfileID         string
}

// Validate checks all fields and collects all errors.
func (i CreateSymptomEntryInput) Validate() error {
	var errs []domain.FieldError

	if strings.TrimSpace(i.Symptom) == "" {
		errs = append(errs, domain.FieldError{Field: "symptom", Message: "required"})
	}
	errs = validateCategory(errs, i.Category)
	errs = validateSeverity(errs, i.Severity)
	if i.StartTime.IsZero() {
		errs = append(errs, domain.FieldError{Field: "startTime", Message: "required"})
	}
	if strings.TrimSpace(i.Duration) == "" {
		errs = append(errs, domain.FieldError{Field: "duration", Message: "required"})
	}
	if strings.TrimSpace(i.ProfileID) == "" {
		errs = append(errs, domain.FieldError{Field: "profileId", Message: "required"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// UpdateSymptomEntryInput holds the parameters for editing a symptom.
// Nil fields are left unchanged; a pointer to "" unlinks the food entry.
type UpdateSymptomEntryInput struct {
	ID                string
	Symptom           *string
	Category          *string
	Severity          *domain.Severity
	StartTime         *time.Time
	Duration          *string
	LinkedFoodEntryID *string
	ProfileID         *string
}

// Validate checks all fields and collects all errors.
func (i UpdateSymptomEntryInput) Validate() error {
	var errs []domain.FieldError

	if strings.TrimSpace(i.ID) == "" {
		errs = append(errs, domain.FieldError{Field: "id", Message: "required"})
	}
	if i.Symptom != nil && strings.TrimSpace(*i.Symptom) == "" {
		errs = append(errs, domain.FieldError{Field: "symptom", Message: "must not be empty"})
	}
	if i.Category != nil {
		errs = validateCategory(errs, *i.Category)
	}
	if i.Severity != nil {
		errs = validateSeverity(errs, *i.Severity)
	}
	if i.StartTime != nil && i.StartTime.IsZero() {
		errs = append(errs, domain.FieldError{Field: "startTime", Message: "must not be empty"})
	}
	if i.Duration != nil && strings.TrimSpace(*i.Duration) == "" {
		errs = append(errs, domain.FieldError{Field: "duration", Message: "must not be empty"})
	}
	if i.ProfileID != nil && strings.TrimSpace(*i.ProfileID) == "" {
		errs = append(errs, domain.FieldError{Field: "profileId", Message: "must not be empty"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

func validateCategory(errs []domain.FieldError, raw string) []domain.FieldError {
	if _, ok := domain.ParseCategory(raw); !ok {
		return append(errs, domain.FieldError{Field: "category", Message: "must be one of skin, digestive, respiratory, general"})
	}
	return errs
}

func validateSeverity(errs []domain.FieldError, s domain.Severity) []domain.FieldError {
	if !s.IsValid() {
		return append(errs, domain.FieldError{Field: "severity", Message: "must be between 1 and 10"})
	}
	return errs
}

// FoodFilter narrows a food entry listing.
type FoodFilter struct {
	ProfileID *string
}

// SymptomFilter narrows a symptom entry listing.
type SymptomFilter struct {
	ProfileID *string
}
