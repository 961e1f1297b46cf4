package diary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/allergycare-backend/internal/domain"
)

// ListSymptomEntries returns symptom entries ordered by start time.
func (s *Service) ListSymptomEntries(ctx context.Context, filter SymptomFilter) ([]domain.SymptomEntry, error) {
	entries, err := s.symptoms.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list symptom entries: %w", err)
	}
	if filter.ProfileID == nil {
		return entries, nil
	}

	out := make([]domain.SymptomEntry, 0, len(entries))
	for _, e := range entries {
		if e.ProfileID == *filter.ProfileID {
			out = append(out, e)
		}
	}
	return out, nil
}

// GetSymptomEntry returns one symptom entry.
func (s *Service) GetSymptomEntry(ctx context.Context, id string) (*domain.SymptomEntry, error) {
	e, err := s.symptoms.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get symptom entry: %w", err)
	}
	return e, nil
}

// CreateSymptomEntry logs a symptom. The owner profile and the linked meal,
// when given, must exist.
func (s *Service) CreateSymptomEntry(ctx context.Context, input CreateSymptomEntryInput) (*domain.SymptomEntry, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	category, _ := domain.ParseCategory(input.Category)
	entry := domain.SymptomEntry{
		ID:                uuid.NewString(),
		LoggedAt:          s.now(),
		Symptom:           strings.TrimSpace(input.Symptom),
		Category:          category,
		Severity:          input.Severity,
		StartTime:         storedInstant(input.StartTime),
		Duration:          strings.TrimSpace(input.Duration),
		LinkedFoodEntryID: domain.TrimOrNil(input.LinkedFoodEntryID),
		ProfileID:         strings.TrimSpace(input.ProfileID),
	}

	var created *domain.SymptomEntry
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.checkSymptomRefs(ctx, entry); err != nil {
			return err
		}
		var err error
		created, err = s.symptoms.Create(ctx, entry)
		if err != nil {
			return fmt.Errorf("create symptom entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "symptom entry created",
		slog.String("symptom_entry_id", created.ID),
		slog.String("category", string(created.Category)),
		slog.Int("severity", int(created.Severity)),
	)
	return created, nil
}

// UpdateSymptomEntry edits a symptom. loggedAt never changes.
func (s *Service) UpdateSymptomEntry(ctx context.Context, input UpdateSymptomEntryInput) (*domain.SymptomEntry, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	var updated *domain.SymptomEntry
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		current, err := s.symptoms.GetByID(ctx, input.ID)
		if err != nil {
			return fmt.Errorf("get symptom entry: %w", err)
		}

		next := applySymptomPatch(*current, input)
		if err := s.checkSymptomRefs(ctx, next); err != nil {
			return err
		}

		updated, err = s.symptoms.Update(ctx, next)
		if err != nil {
			return fmt.Errorf("update symptom entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "symptom entry updated", slog.String("symptom_entry_id", input.ID))
	return updated, nil
}

// DeleteSymptomEntry removes a symptom. Deleting an unknown id is a no-op.
func (s *Service) DeleteSymptomEntry(ctx context.Context, id string) error {
	if err := s.symptoms.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete symptom entry: %w", err)
	}
	s.log.InfoContext(ctx, "symptom entry deleted", slog.String("symptom_entry_id", id))
	return nil
}

func applySymptomPatch(e domain.SymptomEntry, input UpdateSymptomEntryInput) domain.SymptomEntry {
	if input.Symptom != nil {
		e.Symptom = strings.TrimSpace(*input.Symptom)
	}
	if input.Category != nil {
		e.Category, _ = domain.ParseCategory(*input.Category)
	}
	if input.Severity != nil {
		e.Severity = *input.Severity
	}
	if input.StartTime != nil {
		e.StartTime = storedInstant(*input.StartTime)
	}
	if input.Duration != nil {
		e.Duration = strings.TrimSpace(*input.Duration)
	}
	if input.LinkedFoodEntryID != nil {
		e.LinkedFoodEntryID = domain.TrimOrNil(input.LinkedFoodEntryID)
	}
	if input.ProfileID != nil {
		e.ProfileID = strings.TrimSpace(*input.ProfileID)
	}
	return e
}

func (s *Service) checkSymptomRefs(ctx context.Context, e domain.SymptomEntry) error {
	if err := s.requireProfile(ctx, "profileId", e.ProfileID); err != nil {
		return err
	}
	if e.LinkedFoodEntryID == nil {
		return nil
	}

	_, err := s.foods.GetByID(ctx, *e.LinkedFoodEntryID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NewValidationError("linkedFoodEntryId", "unknown food entry: "+*e.LinkedFoodEntryID)
	}
	if err != nil {
		return fmt.Errorf("get linked food entry: %w", err)
	}
	return nil
}

// storedInstant normalizes a caller-supplied instant to the precision both
// backends and the backup codec keep.
func storedInstant(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
