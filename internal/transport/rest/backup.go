package rest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/heartmarshall/allergycare-backend/internal/service/backup"
)

type backupService interface {
	Export(ctx context.Context) (*backup.Document, error)
	Import(ctx context.Context, r io.Reader) (*backup.ImportReport, error)
}

// BackupHandler serves export and import of the whole diary.
type BackupHandler struct {
	svc backupService
	log *slog.Logger
}

// NewBackupHandler creates a BackupHandler.
func NewBackupHandler(svc backupService, logger *slog.Logger) *BackupHandler {
	return &BackupHandler{svc: svc, log: logger.With("handler", "backup")}
}

// Export handles GET /api/backup as a JSON file download.
func (h *BackupHandler) Export(w http.ResponseWriter, r *http.Request) {
	doc, err := h.svc.Export(r.Context())
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", backup.FileName(doc.ExportDate)))
	w.WriteHeader(http.StatusOK)
	if err := backup.WriteTo(w, doc); err != nil {
		h.log.WarnContext(r.Context(), "backup download interrupted", slog.String("error", err.Error()))
	}
}

// Import handles POST /api/backup. The body is the backup document; the
// store is replaced only when the whole document is accepted.
func (h *BackupHandler) Import(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.Import(r.Context(), r.Body)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
