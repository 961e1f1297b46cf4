package trigger

import (
	"slices"
	"time"

	"github.com/heartmarshall/allergycare-backend/internal/domain"
)

// Filter applies f to both entry sets. Food entries are matched by profile
// and timestamp; symptom entries by profile, start time, severity and
// category. The returned slices are never nil.
func Filter(foods []domain.FoodEntry, symptoms []domain.SymptomEntry, f domain.AnalysisFilter) ([]domain.FoodEntry, []domain.SymptomEntry) {
	outFoods := make([]domain.FoodEntry, 0, len(foods))
	for _, e := range foods {
		if f.ProfileID != nil && !e.HasProfile(*f.ProfileID) {
			continue
		}
		if !inRange(e.Timestamp, f.From, f.To) {
			continue
		}
		outFoods = append(outFoods, e)
	}

	outSymptoms := make([]domain.SymptomEntry, 0, len(symptoms))
	for _, e := range symptoms {
		if f.ProfileID != nil && e.ProfileID != *f.ProfileID {
			continue
		}
		if !inRange(e.StartTime, f.From, f.To) {
			continue
		}
		if f.MinSeverity != nil && e.Severity < *f.MinSeverity {
			continue
		}
		if len(f.Categories) > 0 && !slices.Contains(f.Categories, e.Category) {
			continue
		}
		outSymptoms = append(outSymptoms, e)
	}

	return outFoods, outSymptoms
}

func inRange(t time.Time, from, to *time.Time) bool {
	if from != nil && t.Before(*from) {
		return false
	}
	if to != nil && t.After(*to) {
		return false
	}
	return true
}

// DayRange converts inclusive calendar dates (YYYY-MM-DD) into instants:
// the start of the first day and the last nanosecond of the last day in loc.
// An empty string leaves that bound open.
func DayRange(from, to string, loc *time.Location) (start, end *time.Time, err error) {
	if from != "" {
		d, err := time.ParseInLocation(time.DateOnly, from, loc)
		if err != nil {
			return nil, nil, err
		}
		start = &d
	}
	if to != "" {
		d, err := time.ParseInLocation(time.DateOnly, to, loc)
		if err != nil {
			return nil, nil, err
		}
		last := d.AddDate(0, 0, 1).Add(-time.Nanosecond)
		end = &last
	}
	return start, end, nil
}

// Distinct returns the flattened distinct food names and symptom
// descriptions of the entries, in first-seen order.
func Distinct(foods []domain.FoodEntry, symptoms []domain.SymptomEntry) (foodNames, symptomNames []string) {
	var all []string
	for _, f := range foods {
		all = append(all, f.Foods()...)
	}
	descs := make([]string, 0, len(symptoms))
	for _, s := range symptoms {
		descs = append(descs, s.Symptom)
	}
	return distinct(all), distinct(descs)
}
