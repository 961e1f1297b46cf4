package profile

import (
	"context"
	"log/slog"
	"time"

	"github.com/heartmarshall/allergycare-backend/internal/domain"
)

type profileRepo interface {
	List(ctx context.Context) ([]domain.Profile, error)
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
	Create(ctx context.Context, p domain.Profile) (*domain.Profile, error)
	Update(ctx context.Context, p domain.Profile) (*domain.Profile, error)
	Delete(ctx context.Context, id string) error
}

type foodRepo interface {
	// RemoveProfileRef returns the number of entries that referenced profileID.
	RemoveProfileRef(ctx context.Context, profileID string) (int, error)
	// RetainProfileRefs returns the number of profile references removed,
	// counted per entry and id.
	RetainProfileRefs(ctx context.Context, keep []string) (int, error)
}

type symptomRepo interface {
	DeleteByProfile(ctx context.Context, profileID string) (int, error)
	DeleteOrphans(ctx context.Context, keep []string) (int, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service manages household profiles.
type Service struct {
	profiles profileRepo
	foods    foodRepo
	symptoms symptomRepo
	tx       txManager
	log      *slog.Logger
	now      func() time.Time
}

// NewService creates a new Profile service.
func NewService(
	log *slog.Logger,
	profiles profileRepo,
	foods foodRepo,
	symptoms symptomRepo,
	tx txManager,
) *Service {
	return &Service{
		profiles: profiles,
		foods:    foods,
		symptoms: symptoms,
		tx:       tx,
		log:      log.With("service", "profile"),
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// DeleteResult reports what a profile deletion cascaded to.
type DeleteResult struct {
	FoodEntriesUpdated int `json:"foodEntriesUpdated"`
	SymptomsDeleted    int `json:"symptomsDeleted"`
}

// CleanupResult reports what the maintenance cleanup removed.
// FoodRefsRemoved counts profile references, not entries.
type CleanupResult struct {
	FoodRefsRemoved int `json:"foodRefsRemoved"`
	SymptomsRemoved int `json:"symptomsRemoved"`
}
