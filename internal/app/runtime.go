package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/heartmarshall/allergycare-backend/internal/adapter/provider/llm"
	"github.com/heartmarshall/allergycare-backend/internal/config"
	"github.com/heartmarshall/allergycare-backend/internal/service/analysis"
	"github.com/heartmarshall/allergycare-backend/internal/service/backup"
	"github.com/heartmarshall/allergycare-backend/internal/service/diary"
	"github.com/heartmarshall/allergycare-backend/internal/service/profile"
	"github.com/heartmarshall/allergycare-backend/internal/service/settings"
)

// Services are the application services built on one Storage.
type Services struct {
	Profile  *profile.Service
	Diary    *diary.Service
	Settings *settings.Service
	Analysis *analysis.Service
	Backup   *backup.Service
}

// NewServices wires every service to st. The advisory client is built from
// cfg.Advisory.
func NewServices(cfg *config.Config, st *Storage, logger *slog.Logger) *Services {
	advisor := llm.New(cfg.Advisory, logger)

	return &Services{
		Profile:  profile.NewService(logger, st.Profiles, st.Foods, st.Symptoms, st.Tx),
		Diary:    diary.NewService(logger, st.Foods, st.Symptoms, st.Profiles, st.State, st.Tx),
		Settings: settings.NewService(logger, st.State),
		Analysis: analysis.NewService(logger, st.Foods, st.Symptoms, st.Profiles, st.State, advisor, cfg.Analysis, cfg.Advisory),
		Backup:   backup.NewService(logger, st.Profiles, st.Foods, st.Symptoms, st.State, st.Tx),
	}
}

// Runtime is the wired application shared by every command.
type Runtime struct {
	Config   *config.Config
	Log      *slog.Logger
	Storage  *Storage
	Services *Services
}

// Bootstrap loads configuration from configPath (CONFIG_PATH or
// ./config.yaml when empty), creates the logger and opens the store.
func Bootstrap(ctx context.Context, configPath string) (*Runtime, error) {
	if configPath == "" {
		configPath = os.Getenv("CONFIG_PATH")
	}
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return nil, err
	}

	return NewRuntime(ctx, cfg, NewLogger(cfg.Log))
}

// NewRuntime opens the store for an already loaded configuration.
func NewRuntime(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Runtime, error) {
	st, err := OpenStorage(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	return &Runtime{
		Config:   cfg,
		Log:      logger,
		Storage:  st,
		Services: NewServices(cfg, st, logger),
	}, nil
}

// Close waits for running advisory tasks until ctx ends, then releases the
// store.
func (rt *Runtime) Close(ctx context.Context) error {
	drainErr := rt.Services.Analysis.Close(ctx)
	if drainErr != nil {
		rt.Log.Warn("advisory tasks still running at shutdown", slog.String("error", drainErr.Error()))
	}
	return errors.Join(drainErr, rt.Storage.Close())
}
