package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/folioworks/folio/internal/records/service"
	"github.com/folioworks/folio/internal/records/store"
	"github.com/folioworks/folio/pkg/httpx"
	"github.com/folioworks/folio/pkg/slogx"
)

// ErrorResponse is the error envelope every endpoint uses.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func writeError(w http.ResponseWriter, status int, code, description string) {
	httpx.WriteJSON(w, status, ErrorResponse{
		Error:            code,
		ErrorDescription: description,
	})
}

// writeServiceError maps the service and store error taxonomy onto HTTP
// statuses. Anything outside the taxonomy is a storage failure: logged and
// hidden behind a generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", "you do not own this record")
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "record not found")
	case errors.Is(err, store.ErrNotDeleted):
		writeError(w, http.StatusConflict, "not_deleted", "record is not soft-deleted")
	case errors.Is(err, store.ErrAlreadyDeleted):
		writeError(w, http.StatusConflict, "already_deleted", "record is already soft-deleted")
	case errors.Is(err, service.ErrDuplicateValue), errors.Is(err, store.ErrDuplicate):
		writeError(w, http.StatusConflict, "duplicate_value", err.Error())
	case errors.Is(err, service.ErrParentNotFound):
		writeError(w, http.StatusUnprocessableEntity, "owner_not_found", err.Error())
	default:
		slogx.FromContext(r.Context()).Error("request failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "server_error", "an internal error occurred")
	}
}

func writeInvalidJSON(w http.ResponseWriter) {
	writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON in request body")
}
