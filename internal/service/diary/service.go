// Package diary records meals and symptom episodes and summarizes the diary.
package diary

import (
	"context"
	"log/slog"
	"time"

	"github.com/heartmarshall/allergycare-backend/internal/domain"
)

type foodRepo interface {
	List(ctx context.Context) ([]domain.FoodEntry, error)
	GetByID(ctx context.Context, id string) (*domain.FoodEntry, error)
	Create(ctx context.Context, e domain.FoodEntry) (*domain.FoodEntry, error)
	Update(ctx context.Context, e domain.FoodEntry) (*domain.FoodEntry, error)
	Delete(ctx context.Context, id string) error
}

type symptomRepo interface {
	List(ctx context.Context) ([]domain.SymptomEntry, error)
	GetByID(ctx context.Context, id string) (*domain.SymptomEntry, error)
	Create(ctx context.Context, e domain.SymptomEntry) (*domain.SymptomEntry, error)
	Update(ctx context.Context, e domain.SymptomEntry) (*domain.SymptomEntry, error)
	Delete(ctx context.Context, id string) error
}

type profileRepo interface {
	List(ctx context.Context) ([]domain.Profile, error)
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
}

type activityReader interface {
	LastActivity(ctx context.Context) (*time.Time, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// RecentWindow is the period counted as recent in Stats.
const RecentWindow = 7 * 24 * time.Hour

// Service manages food and symptom entries.
type Service struct {
	foods    foodRepo
	symptoms symptomRepo
	profiles profileRepo
	activity activityReader
	tx       txManager
	log      *slog.Logger
	now      func() time.Time
}

// NewService creates a new Diary service.
func NewService(
	log *slog.Logger,
	foods foodRepo,
	symptoms symptomRepo,
	profiles profileRepo,
	activity activityReader,
	tx txManager,
) *Service {
	return &Service{
		foods:    foods,
		symptoms: symptoms,
		profiles: profiles,
		activity: activity,
		tx:       tx,
		log:      log.With("service", "diary"),
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}
