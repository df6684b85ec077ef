package pgutils

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres SQLSTATE codes this package classifies. Kept private so callers
// never compare against a raw string themselves.
const (
	sqlStateUniqueViolation   = "23505"
	sqlStateSerialization     = "40001"
	sqlStateDeadlockDetected  = "40P01"
	sqlStateLockNotAvailable  = "55P03"
)

// IsUniqueViolation reports whether err is a unique-constraint violation,
// e.g. a racing INSERT on transactions.idempotency_key.
func IsUniqueViolation(err error) bool {
	return pgErrorCode(err) == sqlStateUniqueViolation
}

// IsContention reports whether err is a transient condition the Transfer
// Engine's retry loop should retry: deadlock, lock-acquisition timeout, or
// a serialization failure under SERIALIZABLE isolation.
func IsContention(err error) bool {
	switch pgErrorCode(err) {
	case sqlStateSerialization, sqlStateDeadlockDetected, sqlStateLockNotAvailable:
		return true
	default:
		return false
	}
}

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
