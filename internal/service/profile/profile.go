package profile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/allergycare-backend/internal/domain"
)

// ListProfiles returns every profile.
func (s *Service) ListProfiles(ctx context.Context) ([]domain.Profile, error) {
	profiles, err := s.profiles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return profiles, nil
}

// GetProfile returns one profile.
func (s *Service) GetProfile(ctx context.Context, id string) (*domain.Profile, error) {
	p, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// CreateProfile validates the input and stores a new profile with a fresh id.
func (s *Service) CreateProfile(ctx context.Context, input CreateProfileInput) (*domain.Profile, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	p := domain.Profile{
		ID:             uuid.NewString(),
		Name:           strings.TrimSpace(input.Name),
		ProfileDetails: cleanDetails(input.Details),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	created, err := s.profiles.Create(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}

	s.log.InfoContext(ctx, "profile created", slog.String("profile_id", created.ID))
	return created, nil
}

// UpdateProfile applies a partial update.
func (s *Service) UpdateProfile(ctx context.Context, input UpdateProfileInput) (*domain.Profile, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	var updated *domain.Profile
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		current, err := s.profiles.GetByID(ctx, input.ID)
		if err != nil {
			return fmt.Errorf("get profile: %w", err)
		}

		next := *current
		if input.Name != nil {
			next.Name = strings.TrimSpace(*input.Name)
		}
		next.ProfileDetails = mergeDetails(current.ProfileDetails, input.Details)
		next.UpdatedAt = s.now()

		updated, err = s.profiles.Update(ctx, next)
		if err != nil {
			return fmt.Errorf("update profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "profile updated", slog.String("profile_id", input.ID))
	return updated, nil
}

// DeleteProfile removes a profile with its cascade in one transaction: the
// id is unlinked from every food entry and the profile's symptoms are
// deleted. Deleting an unknown id is a no-op.
func (s *Service) DeleteProfile(ctx context.Context, id string) (DeleteResult, error) {
	if strings.TrimSpace(id) == "" {
		return DeleteResult{}, domain.NewValidationError("id", "required")
	}

	var res DeleteResult
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		n, err := s.foods.RemoveProfileRef(ctx, id)
		if err != nil {
			return fmt.Errorf("unlink food entries: %w", err)
		}
		res.FoodEntriesUpdated = n

		n, err = s.symptoms.DeleteByProfile(ctx, id)
		if err != nil {
			return fmt.Errorf("delete symptoms: %w", err)
		}
		res.SymptomsDeleted = n

		if err := s.profiles.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return DeleteResult{}, err
	}

	s.log.InfoContext(ctx, "profile deleted",
		slog.String("profile_id", id),
		slog.Int("food_entries_updated", res.FoodEntriesUpdated),
		slog.Int("symptoms_deleted", res.SymptomsDeleted),
	)
	return res, nil
}

// Cleanup removes references to profiles that no longer exist: food entry
// links are pruned and orphaned symptoms deleted.
func (s *Service) Cleanup(ctx context.Context) (CleanupResult, error) {
	var res CleanupResult
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		profiles, err := s.profiles.List(ctx)
		if err != nil {
			return fmt.Errorf("list profiles: %w", err)
		}
		keep := make([]string, 0, len(profiles))
		for _, p := range profiles {
			keep = append(keep, p.ID)
		}

		if res.FoodRefsRemoved, err = s.foods.RetainProfileRefs(ctx, keep); err != nil {
			return fmt.Errorf("prune food entries: %w", err)
		}
		if res.SymptomsRemoved, err = s.symptoms.DeleteOrphans(ctx, keep); err != nil {
			return fmt.Errorf("delete orphaned symptoms: %w", err)
		}
		return nil
	})
	if err != nil {
		return CleanupResult{}, err
	}

	s.log.InfoContext(ctx, "cleanup finished",
		slog.Int("food_refs_removed", res.FoodRefsRemoved),
		slog.Int("symptoms_removed", res.SymptomsRemoved),
	)
	return res, nil
}
