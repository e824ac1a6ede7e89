package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidationError(t *testing.T) {
	t.Run("unwraps to ErrValidation", func(t *testing.T) {
		err := fmt.Errorf("service error: %w", NewValidationError("password", "too short"))

		require.ErrorIs(t, err, ErrValidation)

		var vErr *ValidationError
		require.True(t, errors.As(err, &vErr), "should be extracted with errors.As")
		require.Equal(t, "password", vErr.Field)
		require.Equal(t, "too short", vErr.Reason)
	})

	t.Run("message", func(t *testing.T) {
		require.Equal(t, "validation failed: password: too short", NewValidationError("password", "too short").Error())
		require.Equal(t, "validation failed: bad input", NewValidationError("", "bad input").Error())
	})
}

func TestConflictErrors(t *testing.T) {
	require.ErrorIs(t, ErrUserAlreadyExists, ErrConflict, "duplicated user is a conflict")
	require.ErrorIs(t, ErrRelationExists, ErrConflict, "duplicated relation is a conflict")
	require.NotErrorIs(t, ErrUserNotFound, ErrConflict)
}
