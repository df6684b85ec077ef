package pgutils

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Querier is satisfied by both *sql.DB and *sql.Tx, so repos can run the
// same query against a bare connection (reads) or inside a caller-owned
// transaction (writes) without two code paths.
type Querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// WithTx runs fn inside a transaction started with opts (nil keeps the
// driver default). It commits if fn returns nil, otherwise it rolls back
// and returns fn's error unwrapped, so callers can errors.As against it.
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	err = fn(tx)
	if err != nil {
		rbErr := tx.Rollback()
		if rbErr != nil {
			return fmt.Errorf("rollback after fn error: %v (fn err: %w)", rbErr, err)
		}
		return err
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// SetLockTimeout bounds how long statements in tx will wait to acquire a
// row lock before failing with lock_not_available instead of hanging.
func SetLockTimeout(ctx context.Context, tx *sql.Tx, timeout time.Duration) error {
	ms := timeout.Milliseconds()
	if ms <= 0 {
		ms = 1
	}
	_, err := tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", ms))
	if err != nil {
		return fmt.Errorf("set lock_timeout: %w", err)
	}
	return nil
}
