package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound means no row matched the given key.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateKey means an insert or update hit a unique constraint.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrAlreadyRecorded is the payment-id specialization of ErrDuplicateKey:
	// the purchase was already settled, callers treat it as "do nothing".
	ErrAlreadyRecorded = fmt.Errorf("payment already recorded: %w", ErrDuplicateKey)
	// ErrTimeout means the store operation exceeded the caller's deadline.
	// Handlers are idempotent, so the event source may blindly retry.
	ErrTimeout = errors.New("store operation timed out")
)

// SQLSTATE unique_violation.
const uniqueViolationCode = "23505"

const paymentIDConstraint = "transactions_payment_id_key"

// mapError translates pgx errors into the repository error taxonomy. Errors
// that do not fit a category pass through unchanged.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		if pgErr.ConstraintName == paymentIDConstraint {
			return ErrAlreadyRecorded
		}
		return fmt.Errorf("constraint %s: %w", pgErr.ConstraintName, ErrDuplicateKey)
	}
	return err
}
