package rest

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/heartmarshall/allergycare-backend/internal/domain"
	"github.com/heartmarshall/allergycare-backend/internal/service/diary"
)

type diaryService interface {
	ListFoodEntries(ctx context.Context, filter diary.FoodFilter) ([]domain.FoodEntry, error)
	GetFoodEntry(ctx context.Context, id string) (*domain.FoodEntry, error)
	CreateFoodEntry(ctx context.Context, input diary.CreateFoodEntryInput) (*domain.FoodEntry, error)
	UpdateFoodEntry(ctx context.Context, input diary.UpdateFoodEntryInput) (*domain.FoodEntry, error)
	DeleteFoodEntry(ctx context.Context, id string) error

	ListSymptomEntries(ctx context.Context, filter diary.SymptomFilter) ([]domain.SymptomEntry, error)
	GetSymptomEntry(ctx context.Context, id string) (*domain.SymptomEntry, error)
	CreateSymptomEntry(ctx context.Context, input diary.CreateSymptomEntryInput) (*domain.SymptomEntry, error)
	UpdateSymptomEntry(ctx context.Context, input diary.UpdateSymptomEntryInput) (*domain.SymptomEntry, error)
	DeleteSymptomEntry(ctx context.Context, id string) error

	Stats(ctx context.Context) (domain.Stats, error)
}

// DiaryHandler serves food entry, symptom entry and stats endpoints.
type DiaryHandler struct {
	svc diaryService
	log *slog.Logger
}

// NewDiaryHandler creates a DiaryHandler.
func NewDiaryHandler(svc diaryService, logger *slog.Logger) *DiaryHandler {
	return &DiaryHandler{svc: svc, log: logger.With("handler", "diary")}
}

type foodEntryRequest struct {
	FoodItems  *string  `json:"foodItems"`
	Photo      *string  `json:"photo"`
	ProfileIDs []string `json:"profileIds"`
}

type symptomEntryRequest struct {
	Symptom           *string          `json:"symptom"`
	Category          *string          `json:"category"`
	Severity          *domain.Severity `json:"severity"`
	StartTime         *time.Time       `json:"startTime"`
	Duration          *string          `json:"duration"`
	LinkedFoodEntryID *string          `json:"linkedFoodEntryId"`
	ProfileID         *string          `json:"profileId"`
}

// ListFood handles GET /api/food-entries[?profileId=].
func (h *DiaryHandler) ListFood(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.ListFoodEntries(r.Context(), diary.FoodFilter{ProfileID: queryString(r, "profileId")})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(entries))
}

// GetFood handles GET /api/food-entries/{id}.
func (h *DiaryHandler) GetFood(w http.ResponseWriter, r *http.Request) {
	e, err := h.svc.GetFoodEntry(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// CreateFood handles POST /api/food-entries.
func (h *DiaryHandler) CreateFood(w http.ResponseWriter, r *http.Request) {
	var req foodEntryRequest
	if !readBody(w, r, &req) {
		return
	}

	e, err := h.svc.CreateFoodEntry(r.Context(), diary.CreateFoodEntryInput{
		FoodItems:  deref(req.FoodItems),
		Photo:      req.Photo,
		ProfileIDs: req.ProfileIDs,
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

// UpdateFood handles PATCH /api/food-entries/{id}. An empty photo string
// removes the photo.
func (h *DiaryHandler) UpdateFood(w http.ResponseWriter, r *http.Request) {
	var req foodEntryRequest
	if !readBody(w, r, &req) {
		return
	}

	e, err := h.svc.UpdateFoodEntry(r.Context(), diary.UpdateFoodEntryInput{
		ID:         r.PathValue("id"),
		FoodItems:  req.FoodItems,
		Photo:      req.Photo,
		ProfileIDs: req.ProfileIDs,
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// DeleteFood handles DELETE /api/food-entries/{id}.
func (h *DiaryHandler) DeleteFood(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteFoodEntry(r.Context(), r.PathValue("id")); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListSymptoms handles GET /api/symptom-entries[?profileId=].
func (h *DiaryHandler) ListSymptoms(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.ListSymptomEntries(r.Context(), diary.SymptomFilter{ProfileID: queryString(r, "profileId")})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(entries))
}

// GetSymptom handles GET /api/symptom-entries/{id}.
func (h *DiaryHandler) GetSymptom(w http.ResponseWriter, r *http.Request) {
	e, err := h.svc.GetSymptomEntry(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// CreateSymptom handles POST /api/symptom-entries.
func (h *DiaryHandler) CreateSymptom(w http.ResponseWriter, r *http.Request) {
	var req symptomEntryRequest
	if !readBody(w, r, &req) {
		return
	}

	input := diary.CreateSymptomEntryInput{
		Symptom:           deref(req.Symptom),
		Category:          deref(req.Category),
		Duration:          deref(req.Duration),
		LinkedFoodEntryID: req.LinkedFoodEntryID,
		ProfileID:         deref(req.ProfileID),
	}
	if req.Severity != nil {
		input.Severity = *req.Severity
	}
	if req.StartTime != nil {
		input.StartTime = *req.StartTime
	}

	e, err := h.svc.CreateSymptomEntry(r.Context(), input)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

// UpdateSymptom handles PATCH /api/symptom-entries/{id}. An empty
// linkedFoodEntryId removes the link.
func (h *DiaryHandler) UpdateSymptom(w http.ResponseWriter, r *http.Request) {
	var req symptomEntryRequest
	if !readBody(w, r, &req) {
		return
	}

	e, err := h.svc.UpdateSymptomEntry(r.Context(), diary.UpdateSymptomEntryInput{
		ID:                r.PathValue("id"),
		Symptom:           req.Symptom,
		Category:          req.Category,
		Severity:          req.Severity,
		StartTime:         req.StartTime,
		Duration:          req.Duration,
		LinkedFoodEntryID: req.LinkedFoodEntryID,
		ProfileID:         req.ProfileID,
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// DeleteSymptom handles DELETE /api/symptom-entries/{id}.
func (h *DiaryHandler) DeleteSymptom(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteSymptomEntry(r.Context(), r.PathValue("id")); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Stats handles GET /api/stats.
func (h *DiaryHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
