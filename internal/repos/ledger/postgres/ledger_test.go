package ledger

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/closedwallet/closedwallet/internal/domain"
	"github.com/closedwallet/closedwallet/internal/infra/pgtestutil"
	"github.com/closedwallet/closedwallet/internal/repos/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ledgerFixture struct {
	userID   uuid.UUID
	assetID  uuid.UUID
	walletID uuid.UUID
	otherID  uuid.UUID
	txID     uuid.UUID
}

func seedLedgerFixture(t *testing.T, db *sql.DB) ledgerFixture {
	t.Helper()

	f := ledgerFixture{
		userID:   uuid.New(),
		assetID:  uuid.New(),
		walletID: uuid.New(),
		otherID:  uuid.New(),
		txID:     uuid.New(),
	}

	if _, err := db.Exec(`INSERT INTO users (id, email, name) VALUES ($1, $2, $3)`, f.userID, f.userID.String()+"@example.com", "u"); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO users (id, email, name) VALUES ($1, $2, $3)`, f.otherID, f.otherID.String()+"@example.com", "other"); err != nil {
		t.Fatalf("seed other user: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO assets (id, symbol, name) VALUES ($1, $2, $3)`, f.assetID, "GOLD", "Gold"); err != nil {
		t.Fatalf("seed asset: %v", err)
	}

	other := uuid.New()
	if _, err := db.Exec(`INSERT INTO wallets (id, user_id, asset_id, balance) VALUES ($1, $2, $3, $4)`, f.walletID, f.userID, f.assetID, "100"); err != nil {
		t.Fatalf("seed wallet: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO wallets (id, user_id, asset_id, balance) VALUES ($1, $2, $3, $4)`, other, f.otherID, f.assetID, "0"); err != nil {
		t.Fatalf("seed other wallet: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO transactions (id, idempotency_key, from_wallet, to_wallet, amount, type, status, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		f.txID, "fixture-key", f.walletID, other, "10", domain.TopUp, domain.StatusSuccess, time.Now()); err != nil {
		t.Fatalf("seed transaction: %v", err)
	}

	return f
}

func TestLedger_InsertPair(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	repo := New()
	f := seedLedgerFixture(t, db)

	debit := domain.LedgerEntry{
		ID:            uuid.New(),
		TransactionID: f.txID,
		WalletID:      f.walletID,
		EntryType:     domain.Debit,
		Amount:        decimal.RequireFromString("10"),
		BalanceAfter:  decimal.RequireFromString("90"),
		CreatedAt:     time.Now(),
	}
	credit := domain.LedgerEntry{
		ID:            uuid.New(),
		TransactionID: f.txID,
		WalletID:      f.walletID,
		EntryType:     domain.Credit,
		Amount:        decimal.RequireFromString("10"),
		BalanceAfter:  decimal.RequireFromString("10"),
		CreatedAt:     time.Now(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := repo.InsertPair(ctx, tx, debit, credit); err != nil {
		t.Fatalf("insert pair: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	entries, err := repo.ListForTransaction(ctx, db, f.txID)
	if err != nil {
		t.Fatalf("list for transaction: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("want 2 entries, got %d", len(entries))
	}
	// DEBIT sorts before CREDIT because ledger_entry_type declares it
	// first (alphabetically CREDIT would come first), and the repo's
	// ORDER BY entry_type relies on exactly that.
	if entries[0].EntryType != domain.Debit {
		t.Fatalf("want first entry DEBIT, got %s", entries[0].EntryType)
	}
	if entries[1].EntryType != domain.Credit {
		t.Fatalf("want second entry CREDIT, got %s", entries[1].EntryType)
	}
}

func TestLedger_ListForUser(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	repo := New()
	f := seedLedgerFixture(t, db)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for i := 0; i < 3; i++ {
		entry := domain.LedgerEntry{
			ID:            uuid.New(),
			TransactionID: f.txID,
			WalletID:      f.walletID,
			EntryType:     domain.Debit,
			Amount:        decimal.RequireFromString("1"),
			BalanceAfter:  decimal.RequireFromString("99"),
			CreatedAt:     time.Now().Add(time.Duration(i) * time.Second),
		}
		if _, err := db.Exec(`
			INSERT INTO ledger_entries (id, transaction_id, wallet_id, entry_type, amount, balance_after, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, entry.ID, entry.TransactionID, entry.WalletID, entry.EntryType, entry.Amount, entry.BalanceAfter, entry.CreatedAt); err != nil {
			t.Fatalf("seed entry: %v", err)
		}
	}

	entries, total, err := repo.ListForUser(ctx, db, ledger.LedgerFilter{UserID: f.userID, Limit: 10, Offset: 0})
	if err != nil {
		t.Fatalf("list for user: %v", err)
	}
	if total != 3 || len(entries) != 3 {
		t.Fatalf("want 3 entries, got total=%d len=%d", total, len(entries))
	}
	if !entries[0].CreatedAt.After(entries[1].CreatedAt) {
		t.Fatalf("expected descending created_at order")
	}

	paged, total, err := repo.ListForUser(ctx, db, ledger.LedgerFilter{UserID: f.userID, Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("list paged: %v", err)
	}
	if total != 3 || len(paged) != 1 {
		t.Fatalf("want total=3 len=1, got total=%d len=%d", total, len(paged))
	}
}

func TestLedger_ListForTransaction_Empty(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	repo := New()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	entries, err := repo.ListForTransaction(ctx, db, uuid.New())
	if err != nil {
		t.Fatalf("list for unknown transaction: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("want 0 entries, got %d", len(entries))
	}
}
