package analysis

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/heartmarshall/allergycare-backend/internal/domain"
)

const (
	unknownProfile = "unknown profile"
	noProfile      = "no profile"
	logTimeLayout  = "2006-01-02 15:04"
)

// ReviewLogs clears the cached suggestion and asks the summarizer to review
// the whole diary. A successful answer becomes the new cached suggestion.
// With wait set, a failed task is reported as ErrAdvisoryUnavailable.
func (s *Service) ReviewLogs(ctx context.Context, wait bool) (*Task, error) {
	if err := s.suggestions.ClearSuggestion(ctx); err != nil {
		return nil, fmt.Errorf("clear suggestion: %w", err)
	}

	foods, symptoms, profiles, err := s.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}

	var errs []domain.FieldError
	if len(foods) == 0 {
		errs = append(errs, domain.FieldError{Field: "foodEntries", Message: "no food entries logged"})
	}
	if len(symptoms) == 0 {
		errs = append(errs, domain.FieldError{Field: "symptomEntries", Message: "no symptom entries logged"})
	}
	if len(errs) > 0 {
		return nil, &domain.ValidationError{Errors: errs}
	}

	foodLog, symptomLog := s.formatLogs(foods, symptoms, profiles)
	task := s.tasks.start(ctx, TaskKindLogReview, func(ctx context.Context) (*domain.Suggestion, error) {
		suggestion, err := s.advisor.ReviewLogs(ctx, foodLog, symptomLog)
		if err != nil {
			return nil, err
		}
		if err := s.suggestions.SaveSuggestion(ctx, *suggestion); err != nil {
			s.log.WarnContext(ctx, "cache suggestion", slog.String("error", err.Error()))
		}
		return suggestion, nil
	})

	s.log.InfoContext(ctx, "log review started",
		slog.String("task_id", task.ID),
		slog.Int("foods", len(foods)),
		slog.Int("symptoms", len(symptoms)),
	)

	if !wait {
		return &task, nil
	}
	task, _ = s.tasks.wait(ctx, task.ID)
	if task.Status == TaskFailed {
		return &task, fmt.Errorf("review logs: %w", domain.ErrAdvisoryUnavailable)
	}
	return &task, nil
}

// GetSuggestion returns the cached suggestion, nil when none is stored.
// An unavailable store reads as no suggestion.
func (s *Service) GetSuggestion(ctx context.Context) (*domain.Suggestion, error) {
	sg, err := s.suggestions.GetSuggestion(ctx)
	if errors.Is(err, domain.ErrStoreUnavailable) {
		s.log.WarnContext(ctx, "store unavailable, no cached suggestion", slog.String("error", err.Error()))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get suggestion: %w", err)
	}
	return sg, nil
}

// ClearSuggestion drops the cached suggestion.
func (s *Service) ClearSuggestion(ctx context.Context) error {
	if err := s.suggestions.ClearSuggestion(ctx); err != nil {
		return fmt.Errorf("clear suggestion: %w", err)
	}
	s.log.InfoContext(ctx, "suggestion cleared")
	return nil
}

// formatLogs renders both logs in chronological order, one line per entry,
// with profile names and the linked meal of a symptom.
func (s *Service) formatLogs(foods []domain.FoodEntry, symptoms []domain.SymptomEntry, profiles []domain.Profile) (string, string) {
	names := domain.ProfileNames(profiles)
	profileName := func(id string) string {
		if n, ok := names[id]; ok {
			return n
		}
		return unknownProfile
	}

	foodByID := make(map[string]domain.FoodEntry, len(foods))
	for _, f := range foods {
		foodByID[f.ID] = f
	}

	sortedFoods := slices.Clone(foods)
	slices.SortStableFunc(sortedFoods, func(a, b domain.FoodEntry) int { return a.Timestamp.Compare(b.Timestamp) })
	sortedSymptoms := slices.Clone(symptoms)
	slices.SortStableFunc(sortedSymptoms, func(a, b domain.SymptomEntry) int {
		return cmp.Or(a.StartTime.Compare(b.StartTime), strings.Compare(a.ID, b.ID))
	})

	var fb strings.Builder
	for i, f := range sortedFoods {
		if i > 0 {
			fb.WriteByte('\n')
		}
		who := make([]string, 0, len(f.ProfileIDs))
		for _, id := range f.ProfileIDs {
			who = append(who, profileName(id))
		}
		whoText := strings.Join(who, ", ")
		if whoText == "" {
			whoText = noProfile
		}
		fmt.Fprintf(&fb, "- On %s, ate: %s (profiles: %s)", f.Timestamp.In(s.loc).Format(logTimeLayout), f.FoodItems, whoText)
	}

	var sb strings.Builder
	for i, e := range sortedSymptoms {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "- On %s, symptom: %s, category: %s, severity: %d/10, duration: %s, profile: %s",
			e.StartTime.In(s.loc).Format(logTimeLayout), e.Symptom, e.Category, e.Severity, e.Duration, profileName(e.ProfileID))
		if e.LinkedFoodEntryID != nil {
			if linked, ok := foodByID[*e.LinkedFoodEntryID]; ok {
				fmt.Fprintf(&sb, " (possibly linked to: %s on %s)", linked.FoodItems, linked.Timestamp.In(s.loc).Format(logTimeLayout))
			}
		}
	}

	return fb.String(), sb.String()
}
