// Package analysis ranks candidate trigger foods and runs the optional
// advisory summarizer as tracked background tasks.
package analysis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/heartmarshall/allergycare-backend/internal/config"
	"github.com/heartmarshall/allergycare-backend/internal/domain"
)

type foodRepo interface {
	List(ctx context.Context) ([]domain.FoodEntry, error)
}

type symptomRepo interface {
	List(ctx context.Context) ([]domain.SymptomEntry, error)
}

type profileRepo interface {
	List(ctx context.Context) ([]domain.Profile, error)
}

type suggestionRepo interface {
	GetSuggestion(ctx context.Context) (*domain.Suggestion, error)
	SaveSuggestion(ctx context.Context, s domain.Suggestion) error
	ClearSuggestion(ctx context.Context) error
}

type advisor interface {
	SuggestTriggers(ctx context.Context, foods, symptoms []string) (*domain.Suggestion, error)
	ReviewLogs(ctx context.Context, foodLog, symptomLog string) (*domain.Suggestion, error)
}

// Service runs trigger analyses and advisory tasks.
type Service struct {
	foods       foodRepo
	symptoms    symptomRepo
	profiles    profileRepo
	suggestions suggestionRepo
	advisor     advisor
	tasks       *registry
	loc         *time.Location
	highConf    int
	log         *slog.Logger
	now         func() time.Time
}

// NewService creates a new Analysis service.
func NewService(
	log *slog.Logger,
	foods foodRepo,
	symptoms symptomRepo,
	profiles profileRepo,
	suggestions suggestionRepo,
	advisor advisor,
	analysisCfg config.AnalysisConfig,
	advisoryCfg config.AdvisoryConfig,
) *Service {
	loc := analysisCfg.Location
	if loc == nil {
		loc = time.UTC
	}
	logger := log.With("service", "analysis")
	return &Service{
		foods:       foods,
		symptoms:    symptoms,
		profiles:    profiles,
		suggestions: suggestions,
		advisor:     advisor,
		tasks:       newRegistry(advisoryCfg.MaxTasks, advisoryCfg.TaskTTL, logger),
		loc:         loc,
		highConf:    analysisCfg.HighConfidence,
		log:         logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Close waits for running advisory tasks to finish or ctx to end.
func (s *Service) Close(ctx context.Context) error {
	return s.tasks.drain(ctx)
}

// load reads all three collections. An unavailable store degrades to empty
// collections with a warning.
func (s *Service) load(ctx context.Context) ([]domain.FoodEntry, []domain.SymptomEntry, []domain.Profile, error) {
	foods, err := degrade(ctx, s.log, "food entries", s.foods.List)
	if err != nil {
		return nil, nil, nil, err
	}
	symptoms, err := degrade(ctx, s.log, "symptom entries", s.symptoms.List)
	if err != nil {
		return nil, nil, nil, err
	}
	profiles, err := degrade(ctx, s.log, "profiles", s.profiles.List)
	if err != nil {
		return nil, nil, nil, err
	}
	return foods, symptoms, profiles, nil
}

func degrade[T any](ctx context.Context, log *slog.Logger, what string, read func(context.Context) ([]T, error)) ([]T, error) {
	v, err := read(ctx)
	if errors.Is(err, domain.ErrStoreUnavailable) {
		log.WarnContext(ctx, "store unavailable, analysing without data",
			slog.String("collection", what),
			slog.String("error", err.Error()),
		)
		return []T{}, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}
