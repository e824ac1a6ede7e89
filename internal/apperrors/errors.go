package apperrors

import (
	"errors"
	"fmt"
)

// Error kinds. Use errors.Is to tell them apart
var (
	// Malformed or missing input, always client caused
	ErrValidation = errors.New("validation failed")

	// Credential mismatch or unknown subject
	// Same message for both cases, so the caller can't enumerate users
	ErrAuth = errors.New("invalid credentials")

	// Presented token has bad signature, is malformed or expired
	ErrTokenInvalid = errors.New("token is invalid")

	// Refresh token was already rotated away (or session was closed)
	ErrTokenReused = errors.New("refresh token is reused")

	// No credential or credential resolved to no live user
	ErrUnauthorized = errors.New("unauthorized")

	// Uniqueness violation lost to a concurrent request
	ErrConflict = errors.New("conflict")

	// Store unreachable or timed out. Transient, never means "absent"
	ErrUnavailable = errors.New("service unavailable")
)

var (
	ErrUserAlreadyExists = fmt.Errorf("user already exists: %w", ErrConflict)
	ErrUserNotFound      = errors.New("user not found")

	ErrRelationExists   = fmt.Errorf("relation already exists: %w", ErrConflict)
	ErrRelationNotFound = errors.New("relation not found")
)

// ValidationError describes why an input was rejected
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field string, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrValidation, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrValidation, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
