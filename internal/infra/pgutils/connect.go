package pgutils

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" sql.DB driver
)

// OpenDB opens a pooled connection to Postgres via the pgx stdlib adapter
// and verifies it is reachable before returning.
func OpenDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open connection: %w", err)
	}

	err = db.PingContext(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

// Configure applies pool sizing limits (max open and max idle
// connections); non-positive values are left unset. Separated from OpenDB
// so callers without explicit tuning (tests) can skip it.
func Configure(db *sql.DB, maxOpen, maxIdle int) {
	if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
	}
	if maxIdle > 0 {
		db.SetMaxIdleConns(maxIdle)
	}
}
