// Package settings manages the singleton report header settings.
package settings

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/heartmarshall/allergycare-backend/internal/domain"
)

const (
	maxNameLength  = 200
	maxNotesLength = 5000
)

type stateRepo interface {
	GetSettings(ctx context.Context) (domain.AppSettings, error)
	SaveSettings(ctx context.Context, s domain.AppSettings) error
}

// Service reads and writes AppSettings.
type Service struct {
	state stateRepo
	log   *slog.Logger
}

// NewService creates a new Settings service.
func NewService(log *slog.Logger, state stateRepo) *Service {
	return &Service{
		state: state,
		log:   log.With("service", "settings"),
	}
}

// SaveSettingsInput replaces both settings fields. Blank values are stored
// as absent.
type SaveSettingsInput struct {
	Name  *string
	Notes *string
}

// Validate checks all fields and collects all errors.
func (i SaveSettingsInput) Validate() error {
	var errs []domain.FieldError

	if i.Name != nil && utf8.RuneCountInString(*i.Name) > maxNameLength {
		errs = append(errs, domain.FieldError{Field: "name", Message: fmt.Sprintf("max %d characters", maxNameLength)})
	}
	if i.Notes != nil && utf8.RuneCountInString(*i.Notes) > maxNotesLength {
		errs = append(errs, domain.FieldError{Field: "notes", Message: fmt.Sprintf("max %d characters", maxNotesLength)})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// GetSettings returns the stored settings, empty when never saved.
func (s *Service) GetSettings(ctx context.Context) (domain.AppSettings, error) {
	settings, err := s.state.GetSettings(ctx)
	if err != nil {
		return domain.AppSettings{}, fmt.Errorf("get settings: %w", err)
	}
	return settings, nil
}

// SaveSettings overwrites the settings.
func (s *Service) SaveSettings(ctx context.Context, input SaveSettingsInput) (domain.AppSettings, error) {
	if err := input.Validate(); err != nil {
		return domain.AppSettings{}, err
	}

	settings := domain.AppSettings{
		Name:  domain.TrimOrNil(input.Name),
		Notes: domain.TrimOrNil(input.Notes),
	}
	if err := s.state.SaveSettings(ctx, settings); err != nil {
		return domain.AppSettings{}, fmt.Errorf("save settings: %w", err)
	}

	s.log.InfoContext(ctx, "settings saved",
		slog.Bool("has_name", settings.Name != nil),
		slog.Bool("has_notes", settings.Notes != nil),
	)
	return settings, nil
}
