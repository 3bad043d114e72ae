package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"library-engine/internal/api/handler/dto"
	"library-engine/internal/pkg/apperrors"

	"github.com/go-chi/chi/v5"
)

func decodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return fmt.Errorf("no request body")
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Default().Error("Failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":{"message":"Internal server error"}}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(response)
}

func respondError(w http.ResponseWriter, err error) {
	status, message, field := http.StatusInternalServerError, "An unexpected error occurred.", ""
	var validationError *apperrors.ValidationError
	var appErr *apperrors.AppError

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		status, message = http.StatusNotFound, "Resource not found."
	case errors.As(err, &validationError):
		status, message, field = http.StatusBadRequest, validationError.Message, validationError.Field
	case errors.Is(err, apperrors.ErrInvalidArgument), errors.Is(err, apperrors.ErrValidation):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, apperrors.ErrUnauthorized):
		status, message = http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, apperrors.ErrForbidden):
		status, message = http.StatusForbidden, "Forbidden"
	case errors.Is(err, apperrors.ErrAlreadyExists),
		errors.Is(err, apperrors.ErrConflict),
		errors.Is(err, apperrors.ErrAlreadyBorrowed),
		errors.Is(err, apperrors.ErrItemUnavailable),
		errors.Is(err, apperrors.ErrUnpaidFine),
		errors.Is(err, apperrors.ErrOverdueItemHeld):
		status, message = http.StatusConflict, err.Error()
	case errors.As(err, &appErr):
		slog.Default().Error("Request failed", "code", appErr.Code, "error", err)
	default:
		slog.Default().Error("Unhandled internal error", "error", err)
	}

	respondJSON(w, status, dto.ErrorResponse{
		Error: dto.ErrorDetail{
			Message: message,
			Field:   field,
		},
	})
}

func invalidRequest(w http.ResponseWriter, err error) {
	respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
}

// decodeValid decodes the body into req and runs its Validate method. It has
// already answered the request when it returns false.
func decodeValid(w http.ResponseWriter, r *http.Request, req interface{ Validate() error }) bool {
	if err := decodeJSON(r, req); err != nil {
		invalidRequest(w, err)
		return false
	}
	if err := req.Validate(); err != nil {
		invalidRequest(w, err)
		return false
	}
	return true
}

func pathParam(r *http.Request, key string) (string, error) {
	value := chi.URLParam(r, key)
	if value == "" {
		return "", fmt.Errorf("%w: %s not found in URL path", apperrors.ErrInvalidArgument, key)
	}
	return value, nil
}
