package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/heartmarshall/allergycare-backend/internal/domain"
	"github.com/heartmarshall/allergycare-backend/internal/service/settings"
)

type settingsService interface {
	GetSettings(ctx context.Context) (domain.AppSettings, error)
	SaveSettings(ctx context.Context, input settings.SaveSettingsInput) (domain.AppSettings, error)
}

// SettingsHandler serves the app settings singleton.
type SettingsHandler struct {
	svc settingsService
	log *slog.Logger
}

// NewSettingsHandler creates a SettingsHandler.
func NewSettingsHandler(svc settingsService, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{svc: svc, log: logger.With("handler", "settings")}
}

type settingsRequest struct {
	Name  *string `json:"name"`
	Notes *string `json:"notes"`
}

// Get handles GET /api/settings.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.GetSettings(r.Context())
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// Put handles PUT /api/settings. The body replaces the stored settings.
func (h *SettingsHandler) Put(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if !readBody(w, r, &req) {
		return
	}

	s, err := h.svc.SaveSettings(r.Context(), settings.SaveSettingsInput{Name: req.Name, Notes: req.Notes})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}
