package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/heartmarshall/allergycare-backend/internal/domain"
	"github.com/heartmarshall/allergycare-backend/internal/service/analysis"
)

type analysisService interface {
	AnalyzeTriggers(ctx context.Context, input analysis.TriggerAnalysisInput) (*analysis.Report, error)
	ReviewLogs(ctx context.Context, wait bool) (*analysis.Task, error)
	GetTask(ctx context.Context, id string) (*analysis.Task, error)
	WaitTask(ctx context.Context, id string) (*analysis.Task, error)
	GetSuggestion(ctx context.Context) (*domain.Suggestion, error)
	ClearSuggestion(ctx context.Context) error
}

// AnalysisHandler serves trigger analysis and advisory endpoints.
type AnalysisHandler struct {
	svc analysisService
	log *slog.Logger
}

// NewAnalysisHandler creates an AnalysisHandler.
func NewAnalysisHandler(svc analysisService, logger *slog.Logger) *AnalysisHandler {
	return &AnalysisHandler{svc: svc, log: logger.With("handler", "analysis")}
}

type triggerRequest struct {
	ProfileID   *string  `json:"profileId"`
	From        string   `json:"from"`
	To          string   `json:"to"`
	MinSeverity *int     `json:"minSeverity"`
	Categories  []string `json:"categories"`
}

type suggestionResponse struct {
	Suggestion *domain.Suggestion `json:"suggestion"`
}

// Triggers handles POST /api/analysis/triggers[?wait=true]. The body
// carries optional filters; an empty body analyzes everything.
func (h *AnalysisHandler) Triggers(w http.ResponseWriter, r *http.Request) {
	var req triggerRequest
	if !readBody(w, r, &req) {
		return
	}

	report, err := h.svc.AnalyzeTriggers(r.Context(), analysis.TriggerAnalysisInput{
		ProfileID:   req.ProfileID,
		From:        req.From,
		To:          req.To,
		MinSeverity: req.MinSeverity,
		Categories:  req.Categories,
		Wait:        queryBool(r, "wait"),
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// LogReview handles POST /api/analysis/log-review[?wait=true]. Without
// wait the pending task is returned with 202.
func (h *AnalysisHandler) LogReview(w http.ResponseWriter, r *http.Request) {
	task, err := h.svc.ReviewLogs(r.Context(), queryBool(r, "wait"))
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, taskStatus(task), task)
}

// Task handles GET /api/analysis/tasks/{id}[?wait=true].
func (h *AnalysisHandler) Task(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var (
		task *analysis.Task
		err  error
	)
	if queryBool(r, "wait") {
		task, err = h.svc.WaitTask(r.Context(), id)
	} else {
		task, err = h.svc.GetTask(r.Context(), id)
	}
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// Suggestion handles GET /api/analysis/suggestion. A missing suggestion is
// {"suggestion": null}, not a 404.
func (h *AnalysisHandler) Suggestion(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.GetSuggestion(r.Context())
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, suggestionResponse{Suggestion: s})
}

// ClearSuggestion handles DELETE /api/analysis/suggestion.
func (h *AnalysisHandler) ClearSuggestion(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ClearSuggestion(r.Context()); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func taskStatus(t *analysis.Task) int {
	if t.Status == analysis.TaskPending {
		return http.StatusAccepted
	}
	return http.StatusOK
}
