package ledger

import (
	"context"
	"database/sql"

	"github.com/closedwallet/closedwallet/internal/domain"
	"github.com/closedwallet/closedwallet/internal/infra/pgutils"
	"github.com/google/uuid"
)

// LedgerFilter narrows GetLedger. AssetID, like HistoryFilter in the
// transactions repo, is applied inside the storage predicate, not after
// the page window.
type LedgerFilter struct {
	UserID  uuid.UUID
	AssetID *uuid.UUID
	Limit   int
	Offset  int
}

type Ledger interface {
	// InsertPair writes the DEBIT and CREDIT rows of one transaction in a
	// single batched statement.
	InsertPair(ctx context.Context, tx *sql.Tx, debit, credit domain.LedgerEntry) error

	ListForUser(ctx context.Context, q pgutils.Querier, f LedgerFilter) ([]domain.LedgerEntry, int, error)
	ListForTransaction(ctx context.Context, q pgutils.Querier, txID uuid.UUID) ([]domain.LedgerEntry, error)
}
