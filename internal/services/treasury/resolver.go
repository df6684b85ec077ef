// Package treasury resolves the treasury user's id once at boot and holds
// it as an explicitly-constructed value, not a process-global singleton.
package treasury

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/closedwallet/closedwallet/internal/repos/users"
	"github.com/google/uuid"
)

// Resolver memoizes the treasury user's id for the process lifetime. It
// never re-reads the database after construction: this is a boot-time
// invariant. If the treasury's id changes after boot, the service keeps
// routing to the stale id until restart.
type Resolver struct {
	userID uuid.UUID
}

// Resolve looks up the well-known treasury email and fails the boot
// sequence if no user has it. The service refuses to start without a
// treasury account.
func Resolve(ctx context.Context, db *sql.DB, repo users.Users, treasuryEmail string) (*Resolver, error) {
	u, err := repo.GetByEmail(ctx, db, treasuryEmail)
	if err != nil {
		return nil, fmt.Errorf("resolve treasury user %q: %w", treasuryEmail, err)
	}

	return &Resolver{userID: u.ID}, nil
}

// UserID returns the memoized treasury user id.
func (r *Resolver) UserID() uuid.UUID {
	return r.userID
}
