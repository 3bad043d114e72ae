package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("resource not found")

	ErrInvalidArgument = errors.New("invalid argument")

	ErrValidation = errors.New("validation failed")

	ErrAlreadyExists = errors.New("resource already exists")

	ErrStorage = errors.New("storage error")

	ErrInternalServer = errors.New("internal server error")

	ErrUnauthorized = errors.New("unauthorized")

	ErrForbidden = errors.New("forbidden")

	ErrConflict = errors.New("resource conflict")

	ErrAlreadyBorrowed = errors.New("item is already borrowed")

	ErrItemUnavailable = errors.New("item is not available for loan")

	ErrUnpaidFine = errors.New("user has unpaid fines")

	ErrOverdueItemHeld = errors.New("user holds an overdue item")
)

// IsRuleViolation reports whether err is an expected business-rule rejection
// rather than an infrastructure failure.
func IsRuleViolation(err error) bool {
	switch {
	case errors.Is(err, ErrStorage), errors.Is(err, ErrInternalServer):
		return false
	case errors.Is(err, ErrAlreadyBorrowed),
		errors.Is(err, ErrItemUnavailable),
		errors.Is(err, ErrUnpaidFine),
		errors.Is(err, ErrOverdueItemHeld),
		errors.Is(err, ErrAlreadyExists),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrConflict),
		errors.Is(err, ErrValidation),
		errors.Is(err, ErrInvalidArgument):
		return true
	}
	return false
}

type ValidationError struct {
	Field   string
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

func NewValidationError(field, message string) error {

	return fmt.Errorf("%w: %w", ErrValidation, &ValidationError{Field: field, Message: message})
}

type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func WrapStorageError(cause error, message string) error {
	return &AppError{
		Code:    "STORAGE_ERROR",
		Message: message,
		Cause:   fmt.Errorf("%w: %w", ErrStorage, cause),
	}
}
