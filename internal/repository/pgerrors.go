package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/supportai/tickethub/internal/huberrors"
)

// SQLSTATE codes treated as retryable.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgAdminShutdown        = "57P01"
	pgTooManyConnections   = "53300"
	pgForeignKeyViolation  = "23503"
)

// isTransient reports whether err is a store failure that may succeed on retry.
func isTransient(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) || pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected, pgAdminShutdown, pgTooManyConnections:
			return true
		}
		// Class 08: connection exceptions.
		return strings.HasPrefix(pgErr.Code, "08")
	}

	var connErr *pgconn.ConnectError
	return errors.As(err, &connErr)
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation
}

// wrapError wraps err as "failed to <op>", marking retryable failures as huberrors.TransientError.
func wrapError(op string, err error) error {
	if isTransient(err) {
		return huberrors.NewTransientError("failed to "+op, err)
	}

	return fmt.Errorf("failed to %s: %w", op, err)
}
