// Package transfer implements the Transfer Engine: the transactional core
// that validates a transfer request, serializes concurrent conflicting
// transfers via canonically-ordered row locks, maintains the
// non-negative-balance invariant, and writes a paired double-entry ledger.
package transfer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/closedwallet/closedwallet/internal/domain"
	"github.com/closedwallet/closedwallet/internal/infra/pgutils"
	"github.com/closedwallet/closedwallet/internal/repos/assets"
	"github.com/closedwallet/closedwallet/internal/repos/ledger"
	"github.com/closedwallet/closedwallet/internal/repos/transactions"
	"github.com/closedwallet/closedwallet/internal/repos/wallets"
	"github.com/closedwallet/closedwallet/internal/services/routing"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/shopspring/decimal"
)

const defaultMaxRetries = 3

// TransferRequest is the validated, typed input to ExecuteTransfer. The
// engine signature never takes a raw header lookup or a loose JSON map.
type TransferRequest struct {
	IdempotencyKey string
	UserID         uuid.UUID
	Type           domain.TransactionType
	AssetSymbol    string
	Amount         decimal.Decimal
}

type TransferResult struct {
	TxID    uuid.UUID
	Balance decimal.Decimal
	// Cached reports whether this result came from the database-level
	// idempotency probe (a transaction already committed under the same
	// key) rather than a fresh write. The engine never reads the
	// idempotency cache; cache replays are answered before it is called.
	Cached bool
}

type Engine struct {
	db      *sql.DB
	wallets wallets.Wallets
	assets  assets.Assets
	txns    transactions.Transactions
	ledger  ledger.Ledger
	router  *routing.Router

	lockTimeout time.Duration
	maxAmount   decimal.Decimal
	maxRetries  int
	baseBackoff time.Duration
}

type Option func(*Engine)

func WithMaxRetries(n int) Option     { return func(e *Engine) { e.maxRetries = n } }
func WithBaseBackoff(d time.Duration) Option { return func(e *Engine) { e.baseBackoff = d } }

func New(
	db *sql.DB,
	w wallets.Wallets,
	a assets.Assets,
	t transactions.Transactions,
	l ledger.Ledger,
	r *routing.Router,
	lockTimeout time.Duration,
	maxAmount decimal.Decimal,
	opts ...Option,
) *Engine {
	e := &Engine{
		db:          db,
		wallets:     w,
		assets:      a,
		txns:        t,
		ledger:      l,
		router:      r,
		lockTimeout: lockTimeout,
		maxAmount:   maxAmount,
		maxRetries:  defaultMaxRetries,
		baseBackoff: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExecuteTransfer validates the request, opens one storage transaction with
// a bounded contention-retry loop, acquires row locks in canonical order,
// verifies and mutates balances, and writes the transaction row plus its
// two ledger entries.
func (e *Engine) ExecuteTransfer(ctx context.Context, req TransferRequest) (TransferResult, error) {
	if err := validate(req, e.maxAmount); err != nil {
		return TransferResult{}, err
	}

	asset, err := e.assets.GetBySymbol(ctx, e.db, req.AssetSymbol)
	if err != nil {
		return TransferResult{}, err
	}

	fromUserID, toUserID, err := e.router.Resolve(req.Type, req.UserID)
	if err != nil {
		return TransferResult{}, err
	}

	var attemptErrs *multierror.Error

	for attempt := 1; attempt <= e.maxRetries; attempt++ {
		res, attemptErr := e.attempt(ctx, req, asset.ID, fromUserID, toUserID)
		if attemptErr == nil {
			return res, nil
		}

		attemptErrs = multierror.Append(attemptErrs, attemptErr)

		if !isRetryable(attemptErr) {
			return TransferResult{}, attemptErr
		}

		if attempt == e.maxRetries {
			break
		}

		backoff := e.baseBackoff * time.Duration(math.Pow(2, float64(attempt)))
		slog.Warn("transfer attempt hit contention, retrying",
			"attempt", attempt, "backoff", backoff, "idempotency_key", req.IdempotencyKey)

		select {
		case <-ctx.Done():
			return TransferResult{}, domain.NewInfrastructure("context canceled during retry backoff", ctx.Err())
		case <-time.After(backoff):
		}
	}

	return TransferResult{}, domain.NewContention("exhausted retries on contention", attemptErrs.ErrorOrNil())
}

func validate(req TransferRequest, maxAmount decimal.Decimal) error {
	if req.IdempotencyKey == "" {
		return domain.NewValidation("idempotency key is required")
	}
	if req.AssetSymbol == "" {
		return domain.NewValidation("asset symbol is required")
	}
	if !req.Type.Valid() {
		return domain.NewValidation(fmt.Sprintf("unknown transaction type %q", req.Type))
	}
	if req.Amount.Sign() <= 0 {
		return domain.NewValidation("amount must be strictly positive")
	}
	if req.Amount.GreaterThan(maxAmount) {
		return domain.NewValidation(fmt.Sprintf("amount exceeds maximum of %s", maxAmount))
	}
	return nil
}

// attempt runs one full pass of the algorithm inside a single database
// transaction. A non-nil error always means the transaction rolled back —
// no partial ledger is ever left behind.
func (e *Engine) attempt(ctx context.Context, req TransferRequest, assetID, fromUserID, toUserID uuid.UUID) (TransferResult, error) {
	var result TransferResult

	err := pgutils.WithTx(ctx, e.db, nil, func(tx *sql.Tx) error {
		if err := pgutils.SetLockTimeout(ctx, tx, e.lockTimeout); err != nil {
			return classifyStorageErr(err)
		}

		// Step 2: storage-level idempotency probe, the durable backstop
		// for when the cache was unavailable or missed.
		if prior, err := e.txns.GetByIdempotencyKey(ctx, tx, req.IdempotencyKey); err == nil {
			bal, err := e.callerBalanceForReplay(ctx, tx, prior, req.UserID, fromUserID)
			if err != nil {
				return err
			}
			result = TransferResult{TxID: prior.ID, Balance: bal, Cached: true}
			return nil
		} else if domain.KindOf(err) != domain.KindNotFound {
			return err
		}

		// Step 3: canonical lock acquisition — sort by user id so any two
		// concurrent transfers over this wallet pair agree on lock order.
		lockA, lockB := fromUserID, toUserID
		if lockB.String() < lockA.String() {
			lockA, lockB = lockB, lockA
		}

		locked, err := e.wallets.LockPair(ctx, tx, lockA, lockB, assetID)
		if err != nil {
			return classifyStorageErr(err)
		}

		fromWallet, ok := locked[fromUserID]
		if !ok {
			return domain.NewNotFound("source wallet not found")
		}
		toWallet, ok := locked[toUserID]
		if !ok {
			return domain.NewNotFound("destination wallet not found")
		}

		// Step 5: balance check.
		if fromWallet.Balance.IsNegative() {
			slog.Error("negative wallet balance observed, refusing to transfer",
				"wallet_id", fromWallet.ID, "balance", fromWallet.Balance)
			return domain.NewCorruption(fmt.Sprintf("wallet %s has negative balance", fromWallet.ID))
		}
		if fromWallet.Balance.LessThan(req.Amount) {
			return domain.NewInsufficientFunds("insufficient funds")
		}

		// Step 6-7: compute and mutate.
		newFrom := fromWallet.Balance.Sub(req.Amount)
		newTo := toWallet.Balance.Add(req.Amount)

		if err := e.wallets.UpdateBalance(ctx, tx, fromWallet.ID, newFrom); err != nil {
			return classifyStorageErr(err)
		}
		if err := e.wallets.UpdateBalance(ctx, tx, toWallet.ID, newTo); err != nil {
			return classifyStorageErr(err)
		}

		// Step 8: record the transaction.
		txID := uuid.New()
		now := time.Now()
		t := domain.Transaction{
			ID:             txID,
			IdempotencyKey: req.IdempotencyKey,
			FromWallet:     fromWallet.ID,
			ToWallet:       toWallet.ID,
			Amount:         req.Amount,
			Type:           req.Type,
			Status:         domain.StatusSuccess,
			CreatedAt:      now,
		}
		if err := e.txns.Insert(ctx, tx, t); err != nil {
			// Unique violation means another attempt's insert won the
			// race between our probe (step 2) and here — not a real
			// error, just a signal to retry and re-probe.
			return err
		}

		// Step 9: ledger, one batch of two rows.
		debit := domain.LedgerEntry{
			ID:            uuid.New(),
			TransactionID: txID,
			WalletID:      fromWallet.ID,
			EntryType:     domain.Debit,
			Amount:        req.Amount,
			BalanceAfter:  newFrom,
			CreatedAt:     now,
		}
		credit := domain.LedgerEntry{
			ID:            uuid.New(),
			TransactionID: txID,
			WalletID:      toWallet.ID,
			EntryType:     domain.Credit,
			Amount:        req.Amount,
			BalanceAfter:  newTo,
			CreatedAt:     now,
		}
		if err := e.ledger.InsertPair(ctx, tx, debit, credit); err != nil {
			return err
		}

		callerBalance := newFrom
		if fromUserID != req.UserID {
			callerBalance = newTo
		}

		result = TransferResult{TxID: txID, Balance: callerBalance, Cached: false}
		return nil
	})
	if err != nil {
		return TransferResult{}, err
	}

	return result, nil
}

// callerBalanceForReplay re-reads the committed outcome's effective balance
// for the caller's side from its ledger entry, instead of returning a
// placeholder balance on replay.
func (e *Engine) callerBalanceForReplay(ctx context.Context, tx *sql.Tx, prior domain.Transaction, callerUserID, fromUserID uuid.UUID) (decimal.Decimal, error) {
	entries, err := e.ledger.ListForTransaction(ctx, tx, prior.ID)
	if err != nil {
		return decimal.Zero, err
	}

	wantWallet := prior.ToWallet
	if fromUserID == callerUserID {
		wantWallet = prior.FromWallet
	}

	for _, en := range entries {
		if en.WalletID == wantWallet {
			return en.BalanceAfter, nil
		}
	}

	return decimal.Zero, domain.NewInfrastructure("replay: no matching ledger entry for caller wallet", nil)
}

func classifyStorageErr(err error) error {
	// Contention is checked first: repos wrap driver errors in a
	// domain.Error, and the SQLSTATE is still reachable through Unwrap.
	if pgutils.IsContention(err) {
		return domain.NewContention("lock contention", err)
	}
	var derr *domain.Error
	if errors.As(err, &derr) {
		return derr
	}
	return domain.NewInfrastructure("storage error", err)
}

func isRetryable(err error) bool {
	kind := domain.KindOf(err)
	return kind == domain.KindContention || kind == domain.KindConflict
}
