package rest

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/heartmarshall/allergycare-backend/internal/domain"
)

type errorResponse struct {
	Error   string                 `json:"error"`
	Fields  []domain.FieldError    `json:"fields,omitempty"`
	Details []domain.RecordProblem `json:"details,omitempty"`
}

var errBodyTooLarge = errors.New("request body too large")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// decodeJSON reads a JSON request body into dst. An empty body leaves dst
// untouched.
func decodeJSON(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	var maxErr *http.MaxBytesError
	switch {
	case err == nil, errors.Is(err, io.EOF):
		return nil
	case errors.As(err, &maxErr):
		return errBodyTooLarge
	default:
		return err
	}
}

// readBody answers 400 or 413 and returns false when the body is unusable.
func readBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := decodeJSON(r, dst)
	switch {
	case err == nil:
		return true
	case errors.Is(err, errBodyTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, errBodyTooLarge.Error())
	default:
		writeError(w, http.StatusBadRequest, "invalid request body")
	}
	return false
}

// handleError maps domain errors to HTTP statuses. Unknown errors are
// logged and hidden behind a 500.
func handleError(log *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	var (
		valErr   *domain.ValidationError
		shapeErr *domain.RecordShapeError
		maxErr   *http.MaxBytesError
	)

	switch {
	case errors.As(err, &valErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: domain.ErrValidation.Error(), Fields: valErr.Errors})
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, "conflict")
	case errors.Is(err, domain.ErrMalformedDocument):
		writeError(w, http.StatusBadRequest, domain.ErrMalformedDocument.Error())
	case errors.Is(err, domain.ErrInvalidSchema):
		writeError(w, http.StatusUnprocessableEntity, domain.ErrInvalidSchema.Error())
	case errors.As(err, &shapeErr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: domain.ErrInvalidRecordShape.Error(), Details: shapeErr.Problems})
	case errors.As(err, &maxErr):
		writeError(w, http.StatusRequestEntityTooLarge, errBodyTooLarge.Error())
	case errors.Is(err, domain.ErrStoreUnavailable):
		log.WarnContext(r.Context(), "store unavailable", slog.String("error", err.Error()))
		writeError(w, http.StatusServiceUnavailable, domain.ErrStoreUnavailable.Error())
	case errors.Is(err, domain.ErrAdvisoryUnavailable):
		writeError(w, http.StatusServiceUnavailable, domain.ErrAdvisoryUnavailable.Error())
	default:
		log.ErrorContext(r.Context(), "internal error", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// queryBool reads a boolean query flag; absent or unparsable means false.
func queryBool(r *http.Request, name string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(name))
	return err == nil && v
}

// queryString returns a pointer to a non-empty query value.
func queryString(r *http.Request, name string) *string {
	if v := r.URL.Query().Get(name); v != "" {
		return &v
	}
	return nil
}
