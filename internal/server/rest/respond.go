package rest

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/sitepins/internal/tracker"
	"github.com/goccy/go-json"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (rt *Router) respondJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		rt.logger.Error(r.Context(), "Failed to encode response", "error", err)
	}
}

func (rt *Router) respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	rt.respondJSON(w, r, status, errorResponse{Error: message})
}

// respondFailure maps a tracker error to its HTTP status.
func (rt *Router) respondFailure(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, tracker.ErrNotFound):
		rt.respondError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, tracker.ErrValidation),
		errors.Is(err, tracker.ErrEmptyComment),
		errors.Is(err, tracker.ErrInvalidImport):
		rt.respondError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, tracker.ErrNotReady):
		rt.respondError(w, r, http.StatusServiceUnavailable, err.Error())
	default:
		rt.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		rt.respondError(w, r, http.StatusInternalServerError, "internal error")
	}
}
