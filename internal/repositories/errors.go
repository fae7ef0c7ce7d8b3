package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when a specific record is not found.
	ErrNotFound = errors.New("requested record not found")

	// ErrDatabaseError is returned for unexpected database errors.
	ErrDatabaseError = errors.New("database error")

	// ErrDuplicateKey is returned when an insert/update violates a unique constraint.
	ErrDuplicateKey = errors.New("duplicate key value violates unique constraint")

	// ErrTxConflict is returned when Postgres aborts a transaction because of a
	// serialization failure or deadlock. The whole unit of work may be retried.
	ErrTxConflict = errors.New("transaction conflict")

	// ErrStockUnderflow is returned when a stock decrement would drive stock below zero.
	ErrStockUnderflow = errors.New("stock would become negative")
)

// SQLExecutor defines an interface that can be satisfied by *sql.DB or *sql.Tx
// This allows repository methods to be used within transactions or with a direct DB connection.
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// scanner is an interface satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// classifyError maps driver errors onto the repository sentinels.
func classifyError(err error, op string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Name() {
		case "unique_violation":
			return fmt.Errorf("%w: %s (constraint: %s)", ErrDuplicateKey, op, pqErr.Constraint)
		case "serialization_failure", "deadlock_detected":
			return fmt.Errorf("%w: %s: %v", ErrTxConflict, op, err)
		}
	}
	return fmt.Errorf("%w: %s: %v", ErrDatabaseError, op, err)
}

// IsRetryable reports whether a failed unit of work may be run again from scratch.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrDuplicateKey) || errors.Is(err, ErrTxConflict)
}
