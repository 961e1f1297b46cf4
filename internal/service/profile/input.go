package profile

import (
	"strings"
	"time"

	"github.com/heartmarshall/allergycare-backend/internal/domain"
)

const maxNameLength = 100

// CreateProfileInput holds the parameters for creating a profile.
type CreateProfileInput struct {
	Name    string
	Details domain.ProfileDetails
}

// Validate checks all fields and collects all errors.
func (i CreateProfileInput) Validate() error {
	var errs []domain.FieldError
	errs = validateName(errs, i.Name)
	errs = validateDetails(errs, i.Details)

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// UpdateProfileInput holds the parameters for a partial profile update.
// Nil fields (and nil lists inside Details) are left unchanged.
type UpdateProfileInput struct {
	ID      string
	Name    *string
	Details domain.ProfileDetails
}

// Validate checks all fields and collects all errors.
func (i UpdateProfileInput) Validate() error {
	var errs []domain.FieldError

	if strings.TrimSpace(i.ID) == "" {
		errs = append(errs, domain.FieldError{Field: "id", Message: "required"})
	}
	if i.Name != nil {
		errs = validateName(errs, *i.Name)
	}
	errs = validateDetails(errs, i.Details)

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

func validateName(errs []domain.FieldError, name string) []domain.FieldError {
	name = strings.TrimSpace(name)
	if name == "" {
		return append(errs, domain.FieldError{Field: "name", Message: "required"})
	}
	if len([]rune(name)) > maxNameLength {
		return append(errs, domain.FieldError{Field: "name", Message: "max 100 characters"})
	}
	return errs
}

func validateDetails(errs []domain.FieldError, d domain.ProfileDetails) []domain.FieldError {
	if d.DateOfBirth != nil && strings.TrimSpace(*d.DateOfBirth) != "" {
		if _, err := time.Parse(time.DateOnly, strings.TrimSpace(*d.DateOfBirth)); err != nil {
			errs = append(errs, domain.FieldError{Field: "dateOfBirth", Message: "must be YYYY-MM-DD"})
		}
	}
	if d.Weight != nil && *d.Weight <= 0 {
		errs = append(errs, domain.FieldError{Field: "weight", Message: "must be positive"})
	}
	if d.Height != nil && *d.Height <= 0 {
		errs = append(errs, domain.FieldError{Field: "height", Message: "must be positive"})
	}
	return errs
}

// cleanDetails trims descriptors and lists; blank values become unset.
func cleanDetails(d domain.ProfileDetails) domain.ProfileDetails {
	d.DateOfBirth = domain.TrimOrNil(d.DateOfBirth)
	d.Gender = domain.TrimOrNil(d.Gender)
	d.ActivityLevel = domain.TrimOrNil(d.ActivityLevel)
	d.SmokingStatus = domain.TrimOrNil(d.SmokingStatus)
	d.AlcoholConsumption = domain.TrimOrNil(d.AlcoholConsumption)
	d.StressLevel = domain.TrimOrNil(d.StressLevel)
	d.SleepQuality = domain.TrimOrNil(d.SleepQuality)
	d.KnownAllergies = cleanListOrNil(d.KnownAllergies)
	d.ChronicConditions = cleanListOrNil(d.ChronicConditions)
	d.Medications = cleanListOrNil(d.Medications)
	d.DietaryPreferences = cleanListOrNil(d.DietaryPreferences)
	return d
}

func cleanListOrNil(list []string) []string {
	if list == nil {
		return nil
	}
	return domain.CleanList(list)
}

// mergeDetails overlays every field set in patch onto base. A pointer to an
// empty string clears a descriptor; an empty list clears a list.
func mergeDetails(base, patch domain.ProfileDetails) domain.ProfileDetails {
	mergeStr := func(dst **string, src *string) {
		if src != nil {
			*dst = domain.TrimOrNil(src)
		}
	}
	mergeList := func(dst *[]string, src []string) {
		if src != nil {
			*dst = domain.CleanList(src)
		}
	}

	mergeStr(&base.DateOfBirth, patch.DateOfBirth)
	mergeStr(&base.Gender, patch.Gender)
	mergeStr(&base.ActivityLevel, patch.ActivityLevel)
	mergeStr(&base.SmokingStatus, patch.SmokingStatus)
	mergeStr(&base.AlcoholConsumption, patch.AlcoholConsumption)
	mergeStr(&base.StressLevel, patch.StressLevel)
	mergeStr(&base.SleepQuality, patch.SleepQuality)
	if patch.Weight != nil {
		base.Weight = patch.Weight
	}
	if patch.Height != nil {
		base.Height = patch.Height
	}
	mergeList(&base.KnownAllergies, patch.KnownAllergies)
	mergeList(&base.ChronicConditions, patch.ChronicConditions)
	mergeList(&base.Medications, patch.Medications)
	mergeList(&base.DietaryPreferences, patch.DietaryPreferences)
	return base
}
