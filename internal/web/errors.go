package web

import (
	"errors"
	"log/slog"
	"net/http"

	"taskTracker/internal/apperr"
)

// writeErr maps the error taxonomy onto a status and a plain-text body.
// Unauthenticated requests are sent to the login page instead.
func writeErr(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, apperr.ErrUnauthenticated):
		http.Redirect(w, r, loginPath, http.StatusSeeOther)
	case errors.Is(err, apperr.ErrAuthFailure):
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
	case errors.Is(err, apperr.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, apperr.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, apperr.ErrDuplicateUsername), errors.Is(err, apperr.ErrDuplicateName):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, apperr.ErrPayloadTooLarge):
		http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
	default:
		log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
