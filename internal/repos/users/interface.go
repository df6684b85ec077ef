package users

import (
	"context"

	"github.com/closedwallet/closedwallet/internal/domain"
	"github.com/closedwallet/closedwallet/internal/infra/pgutils"
	"github.com/google/uuid"
)

// Users is the storage capability the treasury resolver and HTTP boundary
// need. Wallet balance mutation lives in the wallets repo, not here — a
// User row never changes after create.
type Users interface {
	GetByEmail(ctx context.Context, q pgutils.Querier, email string) (domain.User, error)
	GetByID(ctx context.Context, q pgutils.Querier, id uuid.UUID) (domain.User, error)
}
