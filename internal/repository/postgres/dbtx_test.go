package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/mediashare/internal/apperrors"
)

func Test_dbError(t *testing.T) {
	t.Run("deadline is unavailable", func(t *testing.T) {
		err := dbError(fmt.Errorf("query: %w", context.DeadlineExceeded))

		require.ErrorIs(t, err, apperrors.ErrUnavailable)
		require.ErrorIs(t, err, context.DeadlineExceeded, "original error kept")
	})

	t.Run("cancel is unavailable", func(t *testing.T) {
		require.ErrorIs(t, dbError(context.Canceled), apperrors.ErrUnavailable)
	})

	t.Run("other error is not", func(t *testing.T) {
		orig := errors.New("syntax error")

		err := dbError(orig)

		require.NotErrorIs(t, err, apperrors.ErrUnavailable)
		require.ErrorIs(t, err, orig)
	})
}
