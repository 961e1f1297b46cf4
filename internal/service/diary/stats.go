package diary

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/allergycare-backend/internal/domain"
)

// Stats returns diary totals, the entries of the last seven days and the
// last write instant. An unavailable store degrades to zero counts.
func (s *Service) Stats(ctx context.Context) (domain.Stats, error) {
	var (
		profiles []domain.Profile
		foods    []domain.FoodEntry
		symptoms []domain.SymptomEntry
		last     *time.Time
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		profiles, err = degrade(gctx, s.log, "profiles", s.profiles.List)
		return err
	})
	g.Go(func() (err error) {
		foods, err = degrade(gctx, s.log, "food entries", s.foods.List)
		return err
	})
	g.Go(func() (err error) {
		symptoms, err = degrade(gctx, s.log, "symptom entries", s.symptoms.List)
		return err
	})
	g.Go(func() (err error) {
		last, err = degrade(gctx, s.log, "last activity", s.activity.LastActivity)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.Stats{}, err
	}

	since := s.now().Add(-RecentWindow)
	stats := domain.Stats{
		Profiles:       len(profiles),
		FoodEntries:    len(foods),
		SymptomEntries: len(symptoms),
		LastActivity:   last,
	}
	for _, f := range foods {
		if !f.Timestamp.Before(since) {
			stats.RecentFoodEntries++
		}
	}
	for _, e := range symptoms {
		if !e.StartTime.Before(since) {
			stats.RecentSymptoms++
		}
	}
	return stats, nil
}

// degrade calls read and swallows ErrStoreUnavailable with a warning,
// returning the zero value instead.
func degrade[T any](ctx context.Context, log *slog.Logger, what string, read func(context.Context) (T, error)) (T, error) {
	v, err := read(ctx)
	if errors.Is(err, domain.ErrStoreUnavailable) {
		log.WarnContext(ctx, "store unavailable, using empty data",
			slog.String("collection", what),
			slog.String("error", err.Error()),
		)
		var zero T
		return zero, nil
	}
	return v, err
}
