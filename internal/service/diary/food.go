package diary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/allergycare-backend/internal/domain"
)

// ListFoodEntries returns food entries ordered by timestamp.
func (s *Service) ListFoodEntries(ctx context.Context, filter FoodFilter) ([]domain.FoodEntry, error) {
	entries, err := s.foods.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list food entries: %w", err)
	}
	if filter.ProfileID == nil {
		return entries, nil
	}

	out := make([]domain.FoodEntry, 0, len(entries))
	for _, e := range entries {
		if e.HasProfile(*filter.ProfileID) {
			out = append(out, e)
		}
	}
	return out, nil
}

// GetFoodEntry returns one food entry.
func (s *Service) GetFoodEntry(ctx context.Context, id string) (*domain.FoodEntry, error) {
	e, err := s.foods.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get food entry: %w", err)
	}
	return e, nil
}

// CreateFoodEntry logs a meal. The timestamp is the creation instant and
// every referenced profile must exist.
func (s *Service) CreateFoodEntry(ctx context.Context, input CreateFoodEntryInput) (*domain.FoodEntry, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	entry := domain.FoodEntry{
		ID:         uuid.NewString(),
		Timestamp:  s.now(),
		FoodItems:  strings.TrimSpace(input.FoodItems),
		Photo:      domain.TrimOrNil(input.Photo),
		ProfileIDs: dedupe(domain.CleanList(input.ProfileIDs)),
	}

	var created *domain.FoodEntry
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.requireProfiles(ctx, entry.ProfileIDs); err != nil {
			return err
		}
		var err error
		created, err = s.foods.Create(ctx, entry)
		if err != nil {
			return fmt.Errorf("create food entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "food entry created",
		slog.String("food_entry_id", created.ID),
		slog.Int("profiles", len(created.ProfileIDs)),
	)
	return created, nil
}

// UpdateFoodEntry edits a meal. The timestamp never changes.
func (s *Service) UpdateFoodEntry(ctx context.Context, input UpdateFoodEntryInput) (*domain.FoodEntry, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	var updated *domain.FoodEntry
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		current, err := s.foods.GetByID(ctx, input.ID)
		if err != nil {
			return fmt.Errorf("get food entry: %w", err)
		}

		next := *current
		if input.FoodItems != nil {
			next.FoodItems = strings.TrimSpace(*input.FoodItems)
		}
		if input.Photo != nil {
			next.Photo = domain.TrimOrNil(input.Photo)
		}
		if input.ProfileIDs != nil {
			next.ProfileIDs = dedupe(domain.CleanList(input.ProfileIDs))
			if err := s.requireProfiles(ctx, next.ProfileIDs); err != nil {
				return err
			}
		}

		updated, err = s.foods.Update(ctx, next)
		if err != nil {
			return fmt.Errorf("update food entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "food entry updated", slog.String("food_entry_id", input.ID))
	return updated, nil
}

// DeleteFoodEntry removes a meal. Symptoms linking to it keep the dangling
// back-reference. Deleting an unknown id is a no-op.
func (s *Service) DeleteFoodEntry(ctx context.Context, id string) error {
	if err := s.foods.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete food entry: %w", err)
	}
	s.log.InfoContext(ctx, "food entry deleted", slog.String("food_entry_id", id))
	return nil
}

// requireProfiles returns a validation error naming the first unknown id.
func (s *Service) requireProfiles(ctx context.Context, ids []string) error {
	for _, id := range ids {
		if err := s.requireProfile(ctx, "profileIds", id); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) requireProfile(ctx context.Context, field, id string) error {
	_, err := s.profiles.GetByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NewValidationError(field, "unknown profile: "+id)
	}
	if err != nil {
		return fmt.Errorf("get profile: %w", err)
	}
	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
