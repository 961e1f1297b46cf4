// Package backup exports the whole record store as one JSON document and
// restores it from such a document.
package backup

import (
	"context"
	"log/slog"
	"time"

	"github.com/heartmarshall/allergycare-backend/internal/domain"
)

// CurrentVersion is written into every exported document.
const CurrentVersion = "1.0"

type profileRepo interface {
	List(ctx context.Context) ([]domain.Profile, error)
	ReplaceAll(ctx context.Context, profiles []domain.Profile) error
}

type foodRepo interface {
	List(ctx context.Context) ([]domain.FoodEntry, error)
	ReplaceAll(ctx context.Context, entries []domain.FoodEntry) error
}

type symptomRepo interface {
	List(ctx context.Context) ([]domain.SymptomEntry, error)
	ReplaceAll(ctx context.Context, entries []domain.SymptomEntry) error
}

type settingsRepo interface {
	GetSettings(ctx context.Context) (domain.AppSettings, error)
	SaveSettings(ctx context.Context, s domain.AppSettings) error
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Document is the backup file layout.
type Document struct {
	FoodEntries    []domain.FoodEntry    `json:"foodEntries"`
	SymptomEntries []domain.SymptomEntry `json:"symptomEntries"`
	UserProfiles   []domain.Profile      `json:"userProfiles"`
	AppSettings    domain.AppSettings    `json:"appSettings"`
	ExportDate     time.Time             `json:"exportDate"`
	Version        string                `json:"version"`
}

// ImportReport summarizes a completed import.
type ImportReport struct {
	Profiles       int      `json:"profiles"`
	FoodEntries    int      `json:"foodEntries"`
	SymptomEntries int      `json:"symptomEntries"`
	Version        string   `json:"version"`
	Warnings       []string `json:"warnings"`
}

// Service implements export and import.
type Service struct {
	profiles profileRepo
	foods    foodRepo
	symptoms symptomRepo
	settings settingsRepo
	tx       txManager
	log      *slog.Logger
	now      func() time.Time
}

// NewService creates a new Backup service.
func NewService(
	log *slog.Logger,
	profiles profileRepo,
	foods foodRepo,
	symptoms symptomRepo,
	settings settingsRepo,
	tx txManager,
) *Service {
	return &Service{
		profiles: profiles,
		foods:    foods,
		symptoms: symptoms,
		settings: settings,
		tx:       tx,
		log:      log.With("service", "backup"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// FileName suggests a download name for a backup taken at t.
func FileName(t time.Time) string {
	return "allergycare-backup-" + t.Format(time.DateOnly) + ".json"
}
