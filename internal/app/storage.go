package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/heartmarshall/allergycare-backend/internal/adapter/kvstore"
	"github.com/heartmarshall/allergycare-backend/internal/adapter/postgres"
	"github.com/heartmarshall/allergycare-backend/internal/adapter/postgres/food"
	"github.com/heartmarshall/allergycare-backend/internal/adapter/postgres/profile"
	"github.com/heartmarshall/allergycare-backend/internal/adapter/postgres/state"
	"github.com/heartmarshall/allergycare-backend/internal/adapter/postgres/symptom"
	"github.com/heartmarshall/allergycare-backend/internal/config"
	"github.com/heartmarshall/allergycare-backend/internal/domain"
)

// ProfileRepo is the full profile collection contract both backends meet.
type ProfileRepo interface {
	List(ctx context.Context) ([]domain.Profile, error)
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
	Create(ctx context.Context, p domain.Profile) (*domain.Profile, error)
	Update(ctx context.Context, p domain.Profile) (*domain.Profile, error)
	Delete(ctx context.Context, id string) error
	ReplaceAll(ctx context.Context, profiles []domain.Profile) error
}

// FoodRepo is the full food entry collection contract.
type FoodRepo interface {
	List(ctx context.Context) ([]domain.FoodEntry, error)
	GetByID(ctx context.Context, id string) (*domain.FoodEntry, error)
	Create(ctx context.Context, e domain.FoodEntry) (*domain.FoodEntry, error)
	Update(ctx context.Context, e domain.FoodEntry) (*domain.FoodEntry, error)
	Delete(ctx context.Context, id string) error
	ReplaceAll(ctx context.Context, entries []domain.FoodEntry) error
	RemoveProfileRef(ctx context.Context, profileID string) (int, error)
	RetainProfileRefs(ctx context.Context, keep []string) (int, error)
}

// SymptomRepo is the full symptom entry collection contract.
type SymptomRepo interface {
	List(ctx context.Context) ([]domain.SymptomEntry, error)
	GetByID(ctx context.Context, id string) (*domain.SymptomEntry, error)
	Create(ctx context.Context, e domain.SymptomEntry) (*domain.SymptomEntry, error)
	Update(ctx context.Context, e domain.SymptomEntry) (*domain.SymptomEntry, error)
	Delete(ctx context.Context, id string) error
	ReplaceAll(ctx context.Context, entries []domain.SymptomEntry) error
	DeleteByProfile(ctx context.Context, profileID string) (int, error)
	DeleteOrphans(ctx context.Context, keep []string) (int, error)
}

// StateRepo holds the settings, the cached suggestion and the activity mark.
type StateRepo interface {
	GetSettings(ctx context.Context) (domain.AppSettings, error)
	SaveSettings(ctx context.Context, s domain.AppSettings) error
	GetSuggestion(ctx context.Context) (*domain.Suggestion, error)
	SaveSuggestion(ctx context.Context, s domain.Suggestion) error
	ClearSuggestion(ctx context.Context) error
	LastActivity(ctx context.Context) (*time.Time, error)
}

// TxManager runs fn atomically against the selected backend.
type TxManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Pinger checks that the backend answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Storage is the record store selected by configuration.
type Storage struct {
	Driver   string
	Profiles ProfileRepo
	Foods    FoodRepo
	Symptoms SymptomRepo
	State    StateRepo
	Tx       TxManager
	Pinger   Pinger

	close func() error
}

// Close releases the backend.
func (s *Storage) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// OpenStorage opens the backend named by cfg.Storage.Driver. For postgres
// the embedded migrations run first when database.auto_migrate is set.
func OpenStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Storage, error) {
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		return openSQLite(ctx, cfg.Storage, logger)
	case config.DriverPostgres:
		return openPostgres(ctx, cfg.Database, logger)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func openSQLite(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (*Storage, error) {
	store, err := kvstore.Open(ctx, cfg.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}

	logger.Info("storage opened", slog.String("driver", config.DriverSQLite), slog.String("path", cfg.SQLitePath))
	return &Storage{
		Driver:   config.DriverSQLite,
		Profiles: kvstore.NewProfileRepo(store),
		Foods:    kvstore.NewFoodRepo(store),
		Symptoms: kvstore.NewSymptomRepo(store),
		State:    kvstore.NewStateRepo(store),
		Tx:       store,
		Pinger:   store,
		close:    store.Close,
	}, nil
}

func openPostgres(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*Storage, error) {
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		logger.Info("database migrated")
	}

	logger.Info("storage opened",
		slog.String("driver", config.DriverPostgres),
		slog.Int("max_conns", int(cfg.MaxConns)),
	)
	return &Storage{
		Driver:   config.DriverPostgres,
		Profiles: profile.New(pool),
		Foods:    food.New(pool),
		Symptoms: symptom.New(pool),
		State:    state.New(pool),
		Tx:       postgres.NewTxManager(pool),
		Pinger:   pool,
		close: func() error {
			pool.Close()
			return nil
		},
	}, nil
}
