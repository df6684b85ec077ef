package transactions

import (
	"context"
	"database/sql"
	"time"

	"github.com/closedwallet/closedwallet/internal/domain"
	"github.com/closedwallet/closedwallet/internal/infra/pgutils"
	"github.com/google/uuid"
)

// HistoryFilter narrows GetTransactionHistory. All fields are applied in
// the storage predicate, not after paging.
type HistoryFilter struct {
	UserID      uuid.UUID
	Type        *domain.TransactionType
	AssetID     *uuid.UUID
	StartDate   *time.Time
	EndDate     *time.Time
	Limit       int
	Offset      int
}

type Transactions interface {
	// Insert records a SUCCESS transaction. Returns domain.KindConflict
	// wrapping the existing row's idempotency key on unique violation —
	// the caller decides whether that's a real conflict or a resolved
	// duplicate by re-probing GetByIdempotencyKey.
	Insert(ctx context.Context, tx *sql.Tx, t domain.Transaction) error

	GetByIdempotencyKey(ctx context.Context, q pgutils.Querier, key string) (domain.Transaction, error)
	GetByID(ctx context.Context, q pgutils.Querier, id uuid.UUID) (domain.Transaction, error)

	// ListForUser returns transactions where userID is on either side,
	// newest first, plus the total matching count (pre-pagination).
	ListForUser(ctx context.Context, q pgutils.Querier, f HistoryFilter) ([]domain.Transaction, int, error)
}
