package analysis

import (
	"strings"
	"time"

	"github.com/heartmarshall/allergycare-backend/internal/domain"
	"github.com/heartmarshall/allergycare-backend/internal/service/analysis/trigger"
)

// TriggerAnalysisInput narrows the analysed entries. From and To are
// inclusive calendar dates (YYYY-MM-DD) in the configured time zone.
type TriggerAnalysisInput struct {
	ProfileID   *string
	From        string
	To          string
	MinSeverity *int
	Categories  []string
	// Wait blocks until the advisory task has finished.
	Wait bool
}

// Validate checks all fields and collects all errors.
func (i TriggerAnalysisInput) Validate() error {
	var errs []domain.FieldError

	from, fromErr := parseDate(i.From)
	if fromErr != nil {
		errs = append(errs, domain.FieldError{Field: "from", Message: "must be a YYYY-MM-DD date"})
	}
	to, toErr := parseDate(i.To)
	if toErr != nil {
		errs = append(errs, domain.FieldError{Field: "to", Message: "must be a YYYY-MM-DD date"})
	}
	if fromErr == nil && toErr == nil && !from.IsZero() && !to.IsZero() && to.Before(from) {
		errs = append(errs, domain.FieldError{Field: "to", Message: "must not be before from"})
	}
	if i.MinSeverity != nil && !domain.Severity(*i.MinSeverity).IsValid() {
		errs = append(errs, domain.FieldError{Field: "minSeverity", Message: "must be between 1 and 10"})
	}
	for _, c := range i.Categories {
		if _, ok := domain.ParseCategory(c); !ok {
			errs = append(errs, domain.FieldError{Field: "categories", Message: "unknown category: " + c})
		}
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// filter converts a validated input into a domain filter.
func (i TriggerAnalysisInput) filter(loc *time.Location) (domain.AnalysisFilter, error) {
	from, to, err := trigger.DayRange(strings.TrimSpace(i.From), strings.TrimSpace(i.To), loc)
	if err != nil {
		return domain.AnalysisFilter{}, err
	}

	f := domain.AnalysisFilter{
		ProfileID: domain.TrimOrNil(i.ProfileID),
		From:      from,
		To:        to,
	}
	if i.MinSeverity != nil {
		sev := domain.Severity(*i.MinSeverity)
		f.MinSeverity = &sev
	}
	for _, c := range i.Categories {
		cat, _ := domain.ParseCategory(c)
		f.Categories = append(f.Categories, cat)
	}
	return f, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.DateOnly, s)
}
