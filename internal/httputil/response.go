package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/tendant/simple-idm-engine/pkg/domain"
)

// JSON writes v as a JSON response with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// Error writes {"error": message}.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// DecodeJSON decodes the request body into v, rejecting unknown fields.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// ReadJSON decodes the request body into v. On failure it writes 413 for
// an oversized body or 400 otherwise and returns false.
func ReadJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	err := DecodeJSON(r, v)
	if err == nil {
		return true
	}
	if IsBodyTooLarge(err) {
		Error(w, http.StatusRequestEntityTooLarge, "request body too large")
	} else {
		Error(w, http.StatusBadRequest, "invalid request body")
	}
	return false
}

// IsBodyTooLarge reports whether err came from a body capped by
// http.MaxBytesReader.
func IsBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

// WriteError maps an engine error to a status code and a safe message.
// Errors outside the taxonomy are logged and reported as 500.
func WriteError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var (
		verr    *domain.ValidationError
		dup     *domain.DuplicateAccountError
		blocked *domain.AccountBlockedError
	)
	switch {
	case errors.As(err, &verr):
		JSON(w, http.StatusBadRequest, map[string]string{"error": verr.Message, "field": verr.Field})
	case errors.As(err, &dup):
		Error(w, http.StatusConflict, dup.Error())
	case errors.As(err, &blocked):
		JSON(w, http.StatusLocked, map[string]string{
			"error":         domain.ErrAccountBlocked.Error(),
			"blocked_until": blocked.Until.UTC().Format(time.RFC3339),
		})
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrInvalidToken):
		Error(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrAccountInactive), errors.Is(err, domain.ErrEmailNotVerified):
		Error(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrInvalidResetCode), errors.Is(err, domain.ErrInvalidVerificationToken):
		Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrAccountNotFound):
		Error(w, http.StatusNotFound, "account not found")
	default:
		if logger == nil {
			logger = slog.Default()
		}
		logger.Error("request failed", "error", err)
		Error(w, http.StatusInternalServerError, "internal server error")
	}
}
