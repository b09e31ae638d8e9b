package core

import (
	"errors"
	"fmt"

	apperrors "martisim/internal/errors"
)

// Domain errors - centralized error definitions
var (
	ErrInvalidTrialConfig = errors.New("invalid trial config")
	ErrInvalidMode        = errors.New("invalid mode")
	ErrEmptyModeList      = errors.New("mode list is empty")
	ErrModeNotFound       = errors.New("mode not found")
	ErrRunNotFound        = errors.New("run not found")
	ErrRunCapacity        = errors.New("run capacity reached")
)

// NewValidationError reports a field-level precondition violation on a trial config.
// The result carries the VALIDATION_ERROR code and matches ErrInvalidTrialConfig.
func NewValidationError(field string, reason string) error {
	return &apperrors.AppError{
		Code:    apperrors.CodeValidationError,
		Message: fmt.Sprintf("%s %s", field, reason),
		Cause:   ErrInvalidTrialConfig,
	}
}

// NewModeError reports a mode-level precondition violation
func NewModeError(mode string, reason string) error {
	return &apperrors.AppError{
		Code:    apperrors.CodeValidationError,
		Message: fmt.Sprintf("mode %q: %s", mode, reason),
		Cause:   ErrInvalidMode,
	}
}

// NewModeNotFoundError reports an unknown mode name
func NewModeNotFoundError(name string) error {
	return &apperrors.AppError{
		Code:    apperrors.CodeNotFound,
		Message: fmt.Sprintf("mode %q", name),
		Cause:   ErrModeNotFound,
	}
}

// NewRunNotFoundError reports an unknown run ID
func NewRunNotFoundError(id string) error {
	return &apperrors.AppError{
		Code:    apperrors.CodeNotFound,
		Message: fmt.Sprintf("run %q", id),
		Cause:   ErrRunNotFound,
	}
}

// NewRunCapacityError reports a run store full of unfinished runs
func NewRunCapacityError(capacity int) error {
	return &apperrors.AppError{
		Code:    apperrors.CodeUnavailable,
		Message: fmt.Sprintf("%d runs still in flight", capacity),
		Cause:   ErrRunCapacity,
	}
}

// NewEmptyModeListError reports a run requested without any mode
func NewEmptyModeListError() error {
	return &apperrors.AppError{
		Code:    apperrors.CodeValidationError,
		Message: "nothing to simulate",
		Cause:   ErrEmptyModeList,
	}
}

// IsValidationError reports whether err is a config or mode precondition violation
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidTrialConfig) ||
		errors.Is(err, ErrInvalidMode) ||
		errors.Is(err, ErrEmptyModeList)
}
