package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/msomdec/clip/internal/domain"
	"github.com/msomdec/clip/internal/validation"
)

const maxJSONBody = 1 << 20 // 1MB

// writeJSON sends a JSON response with the given status code and data.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("write JSON response", "error", err)
	}
}

// writeError sends a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// readJSON decodes the request body into the given destination.
func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(dst)
}

// writeServiceError maps a service error onto a status code. Unexpected
// errors are logged under op and hidden from the client.
func writeServiceError(w http.ResponseWriter, err error, op string) {
	status, message := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error(op, "error", err)
	}

	var verr *validation.Error
	if errors.As(err, &verr) {
		writeJSON(w, status, map[string]any{"error": message, "fields": verr.Fields})
		return
	}
	writeError(w, status, message)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, domain.ErrPrecondition):
		return http.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "Not found."
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "Not authenticated."
	case errors.Is(err, domain.ErrDuplicateEmail):
		return http.StatusConflict, "An account with that email already exists."
	}
	return http.StatusInternalServerError, "An unexpected error occurred. Please try again."
}
