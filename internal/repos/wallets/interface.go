package wallets

import (
	"context"
	"database/sql"

	"github.com/closedwallet/closedwallet/internal/domain"
	"github.com/closedwallet/closedwallet/internal/infra/pgutils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wallets is the storage capability behind the Transfer Engine's canonical
// lock acquisition and the Read Projections' plain balance lookup.
type Wallets interface {
	// GetByUserAsset reads a wallet without locking it — used by reads only.
	GetByUserAsset(ctx context.Context, q pgutils.Querier, userID, assetID uuid.UUID) (domain.Wallet, error)

	// LockPair selects the two wallets for (userA, assetID) and (userB,
	// assetID) FOR UPDATE in a single statement, ordered by user_id
	// ascending, so any two concurrent transfers over the same wallet pair
	// agree on lock order regardless of which side initiated which. The
	// statement's ORDER BY fixes that order whatever order userA and userB
	// are passed in; the Transfer Engine also passes them already sorted.
	LockPair(ctx context.Context, tx *sql.Tx, userA, userB, assetID uuid.UUID) (map[uuid.UUID]domain.Wallet, error)

	UpdateBalance(ctx context.Context, tx *sql.Tx, walletID uuid.UUID, newBalance decimal.Decimal) error
}
