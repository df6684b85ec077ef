// Package projections implements the Read Projections: balance, ledger,
// transaction-history, and transaction-by-id lookups, all served directly
// from the store with no locking beyond its default snapshot read.
package projections

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/closedwallet/closedwallet/internal/domain"
	"github.com/closedwallet/closedwallet/internal/repos/assets"
	"github.com/closedwallet/closedwallet/internal/repos/ledger"
	"github.com/closedwallet/closedwallet/internal/repos/transactions"
	"github.com/closedwallet/closedwallet/internal/repos/wallets"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Pagination reports hasMore = offset + returned < total.
type Pagination struct {
	Total   int
	Limit   int
	Offset  int
	HasMore bool
}

func newPagination(total, limit, offset, returned int) Pagination {
	return Pagination{
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: offset+returned < total,
	}
}

type Reads struct {
	db      *sql.DB
	wallets wallets.Wallets
	assets  assets.Assets
	txns    transactions.Transactions
	ledger  ledger.Ledger
}

func New(db *sql.DB, w wallets.Wallets, a assets.Assets, t transactions.Transactions, l ledger.Ledger) *Reads {
	return &Reads{db: db, wallets: w, assets: a, txns: t, ledger: l}
}

// GetBalance looks up the wallet for (userID, assetSymbol). A negative
// balance is logged, not failed — the write path's balance check is what
// keeps this from happening; a read just reports it.
func (r *Reads) GetBalance(ctx context.Context, userID uuid.UUID, assetSymbol string) (decimal.Decimal, error) {
	asset, err := r.assets.GetBySymbol(ctx, r.db, assetSymbol)
	if err != nil {
		return decimal.Zero, err
	}

	w, err := r.wallets.GetByUserAsset(ctx, r.db, userID, asset.ID)
	if err != nil {
		return decimal.Zero, err
	}

	if w.Balance.IsNegative() {
		slog.Error("negative wallet balance observed on read", "wallet_id", w.ID, "balance", w.Balance)
	}

	return w.Balance, nil
}

type LedgerPage struct {
	Entries    []domain.LedgerEntry
	Pagination Pagination
}

// GetLedger returns ledger entries for userID's wallets, optionally filtered
// by asset, newest first.
func (r *Reads) GetLedger(ctx context.Context, userID uuid.UUID, assetSymbol string, limit, offset int) (LedgerPage, error) {
	limit, offset = clampPage(limit, offset)

	f := ledger.LedgerFilter{UserID: userID, Limit: limit, Offset: offset}
	if assetSymbol != "" {
		asset, err := r.assets.GetBySymbol(ctx, r.db, assetSymbol)
		if err != nil {
			return LedgerPage{}, err
		}
		f.AssetID = &asset.ID
	}

	entries, total, err := r.ledger.ListForUser(ctx, r.db, f)
	if err != nil {
		return LedgerPage{}, err
	}

	return LedgerPage{
		Entries:    entries,
		Pagination: newPagination(total, limit, offset, len(entries)),
	}, nil
}

type TransactionPage struct {
	Transactions []domain.Transaction
	Pagination   Pagination
}

// GetTransactionHistory returns transactions where userID is on either
// side, filtered and paginated entirely inside the storage predicate so
// the asset/type/date filters narrow the result before LIMIT/OFFSET, not
// after.
func (r *Reads) GetTransactionHistory(ctx context.Context, userID uuid.UUID, f transactions.HistoryFilter) (TransactionPage, error) {
	f.Limit, f.Offset = clampPage(f.Limit, f.Offset)
	f.UserID = userID

	txs, total, err := r.txns.ListForUser(ctx, r.db, f)
	if err != nil {
		return TransactionPage{}, err
	}

	return TransactionPage{
		Transactions: txs,
		Pagination:   newPagination(total, f.Limit, f.Offset, len(txs)),
	}, nil
}

type TransactionDetail struct {
	Transaction domain.Transaction
	Ledger      []domain.LedgerEntry
}

// GetTransactionById returns the transaction and both of its ledger entries.
// Both come straight from txID, so they're fetched concurrently rather than
// one after the other.
func (r *Reads) GetTransactionById(ctx context.Context, txID uuid.UUID) (TransactionDetail, error) {
	var (
		t       domain.Transaction
		entries []domain.LedgerEntry
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		t, err = r.txns.GetByID(gctx, r.db, txID)
		return err
	})
	g.Go(func() error {
		var err error
		entries, err = r.ledger.ListForTransaction(gctx, r.db, txID)
		return err
	})

	if err := g.Wait(); err != nil {
		return TransactionDetail{}, err
	}

	return TransactionDetail{Transaction: t, Ledger: entries}, nil
}

// ResolveAsset looks up an asset id by symbol — exposed so the HTTP
// boundary can turn a query-string asset filter into the typed id
// transactions.HistoryFilter expects before calling GetTransactionHistory.
func (r *Reads) ResolveAsset(ctx context.Context, symbol string) (uuid.UUID, error) {
	a, err := r.assets.GetBySymbol(ctx, r.db, symbol)
	if err != nil {
		return uuid.Nil, err
	}
	return a.ID, nil
}

func clampPage(limit, offset int) (int, int) {
	if limit < 1 {
		limit = 1
	}
	if limit > 500 {
		limit = 500
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
