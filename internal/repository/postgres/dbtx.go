package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkiryanov/mediashare/internal/apperrors"
)

// Common part of pgxpool.Pool, pgx.Conn and pgx.Tx
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Wrap driver error. Timeouts and connection failures become apperrors.ErrUnavailable
func dbError(err error) error {
	var connectErr *pgconn.ConnectError

	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		pgconn.Timeout(err),
		errors.As(err, &connectErr):
		return fmt.Errorf("%w: db error: %w", apperrors.ErrUnavailable, err)
	default:
		return fmt.Errorf("db error: %w", err)
	}
}
