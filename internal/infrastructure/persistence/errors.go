package persistence

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres SQLSTATE codes this layer reacts to.
const (
	sqlstateSerializationFailure = "40001"
	sqlstateDeadlockDetected     = "40P01"
	sqlstateUniqueViolation      = "23505"
)

// ErrPoolTimeout is returned when a connection could not be acquired within
// the configured wait budget.
var ErrPoolTimeout = errors.New("timed out waiting for a database connection")

// ErrShuttingDown is returned for any operation started after Shutdown has
// been requested.
var ErrShuttingDown = errors.New("database is shutting down")

// RetryExhaustedError wraps the final conflict error after all transaction
// attempts have been consumed.
type RetryExhaustedError struct {
	Attempts int
	Err      error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("transaction failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RetryExhaustedError) Unwrap() error {
	return e.Err
}

// IsSerializationFailure reports whether err is a Postgres serialization
// failure (SQLSTATE 40001).
func IsSerializationFailure(err error) bool {
	return hasSQLState(err, sqlstateSerializationFailure)
}

// IsDeadlock reports whether err is a Postgres deadlock (SQLSTATE 40P01).
func IsDeadlock(err error) bool {
	return hasSQLState(err, sqlstateDeadlockDetected)
}

// IsRetryableConflict reports whether err is a transient concurrency conflict
// that a fresh transaction attempt may resolve.
func IsRetryableConflict(err error) bool {
	return IsSerializationFailure(err) || IsDeadlock(err)
}

// IsUniqueViolation reports whether err is a Postgres unique constraint
// violation (SQLSTATE 23505).
func IsUniqueViolation(err error) bool {
	return hasSQLState(err, sqlstateUniqueViolation)
}

// ConstraintName returns the name of the violated constraint when err is a
// Postgres constraint violation, or "" otherwise.
func ConstraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}

func hasSQLState(err error, code string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	return false
}
