package rest

import (
	"log/slog"
	"net/http"

	"github.com/heartmarshall/allergycare-backend/internal/config"
	"github.com/heartmarshall/allergycare-backend/internal/transport/middleware"
	"github.com/heartmarshall/allergycare-backend/pkg/ctxutil"
)

// Handlers groups every REST handler the router mounts.
type Handlers struct {
	Health   *HealthHandler
	Profile  *ProfileHandler
	Diary    *DiaryHandler
	Settings *SettingsHandler
	Analysis *AnalysisHandler
	Backup   *BackupHandler
}

// RouterConfig holds the cross-cutting settings of the HTTP surface.
type RouterConfig struct {
	CORS              config.CORSConfig
	MaxBodyBytes      int64
	AnalysisPerMinute int
}

// NewRouter mounts all routes behind the shared middleware chain. The
// analysis routes are additionally rate limited by limiter.
func NewRouter(h Handlers, cfg RouterConfig, limiter *middleware.RateLimiter, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /live", h.Health.Live)
	mux.HandleFunc("GET /ready", h.Health.Ready)
	mux.HandleFunc("GET /health", h.Health.Health)

	mux.HandleFunc("GET /api/profiles", h.Profile.List)
	mux.HandleFunc("POST /api/profiles", h.Profile.Create)
	mux.HandleFunc("GET /api/profiles/{id}", h.Profile.Get)
	mux.HandleFunc("PATCH /api/profiles/{id}", h.Profile.Update)
	mux.HandleFunc("DELETE /api/profiles/{id}", h.Profile.Delete)
	mux.HandleFunc("POST /api/maintenance/cleanup", h.Profile.Cleanup)

	mux.HandleFunc("GET /api/food-entries", h.Diary.ListFood)
	mux.HandleFunc("POST /api/food-entries", h.Diary.CreateFood)
	mux.HandleFunc("GET /api/food-entries/{id}", h.Diary.GetFood)
	mux.HandleFunc("PATCH /api/food-entries/{id}", h.Diary.UpdateFood)
	mux.HandleFunc("DELETE /api/food-entries/{id}", h.Diary.DeleteFood)

	mux.HandleFunc("GET /api/symptom-entries", h.Diary.ListSymptoms)
	mux.HandleFunc("POST /api/symptom-entries", h.Diary.CreateSymptom)
	mux.HandleFunc("GET /api/symptom-entries/{id}", h.Diary.GetSymptom)
	mux.HandleFunc("PATCH /api/symptom-entries/{id}", h.Diary.UpdateSymptom)
	mux.HandleFunc("DELETE /api/symptom-entries/{id}", h.Diary.DeleteSymptom)

	mux.HandleFunc("GET /api/stats", h.Diary.Stats)

	mux.HandleFunc("GET /api/settings", h.Settings.Get)
	mux.HandleFunc("PUT /api/settings", h.Settings.Put)

	limit := limiter.Limit(cfg.AnalysisPerMinute)
	mux.Handle("POST /api/analysis/triggers", limit(http.HandlerFunc(h.Analysis.Triggers)))
	mux.Handle("POST /api/analysis/log-review", limit(http.HandlerFunc(h.Analysis.LogReview)))
	mux.HandleFunc("GET /api/analysis/tasks/{id}", h.Analysis.Task)
	mux.HandleFunc("GET /api/analysis/suggestion", h.Analysis.Suggestion)
	mux.HandleFunc("DELETE /api/analysis/suggestion", h.Analysis.ClearSuggestion)

	mux.HandleFunc("GET /api/backup", h.Backup.Export)
	mux.HandleFunc("POST /api/backup", h.Backup.Import)

	return middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Source(ctxutil.SourceREST),
		middleware.Logger(logger),
		middleware.CORS(cfg.CORS),
		middleware.BodyLimit(cfg.MaxBodyBytes),
	)(mux)
}
