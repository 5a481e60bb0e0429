package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/josefe-ing/storepulse/internal/domain"
	"github.com/josefe-ing/storepulse/internal/usecase"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// writeError maps domain errors onto HTTP status codes. Authentication
// failures stay generic; authorization and quota failures may name their
// cause. Anything unrecognized is a 500 with no internals leaked.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case domain.IsAuthFailure(err) || errors.Is(err, usecase.ErrInvalidLogin):
		logger.Warn("auth failure", "error", err)
		writeDetail(w, http.StatusUnauthorized, "authentication failed")
	case errors.Is(err, domain.ErrPermissionDenied) || errors.Is(err, domain.ErrTenantMismatch):
		writeDetail(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrStoreLimitExceeded):
		writeDetail(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeDetail(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeDetail(w, http.StatusNotFound, err.Error())
	default:
		logger.Error("request failed", "error", err)
		writeDetail(w, http.StatusInternalServerError, "internal server error")
	}
}
