package shared

import (
	"errors"
	"log/slog"
	"net/http"

	"cityhr/internal/apperr"
	"cityhr/internal/transport/http/api"
)

// WriteError maps a domain error onto the response envelope. Unexpected
// errors are logged and reported as 500 with the fallback code.
func WriteError(w http.ResponseWriter, err error, code, requestID string) {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		if issues := issuesFrom(err); len(issues) > 0 {
			FailValidation(w, requestID, issues)
			return
		}
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), requestID)
	case errors.Is(err, apperr.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), requestID)
	case errors.Is(err, apperr.ErrConflict):
		api.Fail(w, http.StatusConflict, "conflict", err.Error(), requestID)
	case errors.Is(err, apperr.ErrUnauthorized):
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
	case errors.Is(err, apperr.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", requestID)
	case errors.Is(err, apperr.ErrEngineUnavailable):
		api.Fail(w, http.StatusServiceUnavailable, "engine_unavailable", err.Error(), requestID)
	default:
		slog.Error("request failed", "code", code, "err", err, "requestId", requestID)
		api.Fail(w, http.StatusInternalServerError, code, "internal error", requestID)
	}
}
