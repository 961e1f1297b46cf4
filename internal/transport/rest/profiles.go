package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/heartmarshall/allergycare-backend/internal/domain"
	"github.com/heartmarshall/allergycare-backend/internal/service/profile"
)

type profileService interface {
	ListProfiles(ctx context.Context) ([]domain.Profile, error)
	GetProfile(ctx context.Context, id string) (*domain.Profile, error)
	CreateProfile(ctx context.Context, input profile.CreateProfileInput) (*domain.Profile, error)
	UpdateProfile(ctx context.Context, input profile.UpdateProfileInput) (*domain.Profile, error)
	DeleteProfile(ctx context.Context, id string) (profile.DeleteResult, error)
	Cleanup(ctx context.Context) (profile.CleanupResult, error)
}

// ProfileHandler serves profile endpoints and the maintenance cleanup.
type ProfileHandler struct {
	svc profileService
	log *slog.Logger
}

// NewProfileHandler creates a ProfileHandler.
func NewProfileHandler(svc profileService, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{svc: svc, log: logger.With("handler", "profile")}
}

type profileRequest struct {
	Name *string `json:"name"`
	domain.ProfileDetails
}

// List handles GET /api/profiles.
func (h *ProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.svc.ListProfiles(r.Context())
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(profiles))
}

// Get handles GET /api/profiles/{id}.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetProfile(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Create handles POST /api/profiles.
func (h *ProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if !readBody(w, r, &req) {
		return
	}

	input := profile.CreateProfileInput{Details: req.ProfileDetails}
	if req.Name != nil {
		input.Name = *req.Name
	}

	p, err := h.svc.CreateProfile(r.Context(), input)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// Update handles PATCH /api/profiles/{id}.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if !readBody(w, r, &req) {
		return
	}

	p, err := h.svc.UpdateProfile(r.Context(), profile.UpdateProfileInput{
		ID:      r.PathValue("id"),
		Name:    req.Name,
		Details: req.ProfileDetails,
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Delete handles DELETE /api/profiles/{id}. The response reports the
// cascade.
func (h *ProfileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.DeleteProfile(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Cleanup handles POST /api/maintenance/cleanup.
func (h *ProfileHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Cleanup(r.Context())
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// nonNil renders empty collections as [] instead of null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
