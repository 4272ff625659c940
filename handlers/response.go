package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"zawamis/apperror"
	"zawamis/middleware"
	"zawamis/models"
)

// response is the envelope every endpoint answers with.
type response struct {
	Success  bool                  `json:"success"`
	Message  string                `json:"message,omitempty"`
	User     *models.AccountView   `json:"user,omitempty"`
	Messages *[]models.MessageView `json:"messages,omitempty"`
	Errors   apperror.FieldErrors  `json:"errors,omitempty"`
	ErrorID  string                `json:"error_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func statusFor(kind apperror.Kind) int {
	switch kind {
	case apperror.KindValidation, apperror.KindDuplicate:
		return http.StatusBadRequest
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindUnauthorized:
		return http.StatusUnauthorized
	case apperror.KindRateLimited:
		return http.StatusTooManyRequests
	case apperror.KindTooLarge:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// writeError answers with the client-safe part of err. Anything that is not
// an *apperror.Error is logged under a fresh error ID and reported with
// fallback as its message.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var appErr *apperror.Error
	if !errors.As(err, &appErr) || appErr.Kind == apperror.KindInternal {
		errorID := uuid.NewString()
		h.logger.ErrorContext(r.Context(), fallback,
			"request_id", middleware.RequestIDFromContext(r.Context()),
			"error_id", errorID,
			"path", r.URL.Path,
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError, response{Message: fallback, ErrorID: errorID})
		return
	}

	body := response{Message: appErr.Message}
	if appErr.Kind == apperror.KindValidation {
		body.Errors = appErr.Fields
	}
	if appErr.Err != nil {
		h.logger.InfoContext(r.Context(), "request rejected",
			"request_id", middleware.RequestIDFromContext(r.Context()),
			"kind", appErr.Kind.String(),
			"error", appErr.Err,
		)
	}
	writeJSON(w, statusFor(appErr.Kind), body)
}
