package transactions

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/closedwallet/closedwallet/internal/domain"
	"github.com/closedwallet/closedwallet/internal/infra/pgtestutil"
	"github.com/closedwallet/closedwallet/internal/repos/transactions"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type txFixture struct {
	userA, userB     uuid.UUID
	assetID          uuid.UUID
	walletA, walletB uuid.UUID
}

func seedTxFixture(t *testing.T, db *sql.DB) txFixture {
	t.Helper()

	f := txFixture{
		userA:   uuid.New(),
		userB:   uuid.New(),
		assetID: uuid.New(),
		walletA: uuid.New(),
		walletB: uuid.New(),
	}

	for _, u := range []uuid.UUID{f.userA, f.userB} {
		if _, err := db.Exec(`INSERT INTO users (id, email, name) VALUES ($1, $2, $3)`, u, u.String()+"@example.com", "user"); err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}
	if _, err := db.Exec(`INSERT INTO assets (id, symbol, name) VALUES ($1, $2, $3)`, f.assetID, "GOLD", "Gold"); err != nil {
		t.Fatalf("seed asset: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO wallets (id, user_id, asset_id, balance) VALUES ($1, $2, $3, $4)`, f.walletA, f.userA, f.assetID, "100"); err != nil {
		t.Fatalf("seed wallet a: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO wallets (id, user_id, asset_id, balance) VALUES ($1, $2, $3, $4)`, f.walletB, f.userB, f.assetID, "0"); err != nil {
		t.Fatalf("seed wallet b: %v", err)
	}

	return f
}

func TestTransactions_Insert(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		seed    func(db *sql.DB, f txFixture, txn domain.Transaction) domain.Transaction
		wantErr bool
		checkKind domain.Kind
	}{
		{
			name: "fresh insert succeeds",
			seed: func(db *sql.DB, f txFixture, txn domain.Transaction) domain.Transaction {
				return txn
			},
			wantErr: false,
		},
		{
			name: "duplicate idempotency key is a conflict",
			seed: func(db *sql.DB, f txFixture, txn domain.Transaction) domain.Transaction {
				first := txn
				first.ID = uuid.New()
				mustInsertRaw(t, db, f, first)
				return txn
			},
			wantErr:   true,
			checkKind: domain.KindConflict,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			db, cleanup := pgtestutil.NewTestDB(t)
			defer cleanup()

			repo := New()
			f := seedTxFixture(t, db)

			txn := domain.Transaction{
				ID:             uuid.New(),
				IdempotencyKey: "shared-key",
				FromWallet:     f.walletA,
				ToWallet:       f.walletB,
				Amount:         decimal.RequireFromString("10"),
				Type:           domain.TopUp,
				Status:         domain.StatusSuccess,
				CreatedAt:      time.Now(),
			}
			txn = tc.seed(db, f, txn)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			tx, err := db.BeginTx(ctx, nil)
			if err != nil {
				t.Fatalf("begin tx: %v", err)
			}
			defer func() { _ = tx.Rollback() }()

			err = repo.Insert(ctx, tx, txn)
			if tc.wantErr {
				if err == nil {
					t.Fatal("want error, got nil")
				}
				if domain.KindOf(err) != tc.checkKind {
					t.Fatalf("want kind %v, got %v (%v)", tc.checkKind, domain.KindOf(err), err)
				}
				return
			}
			if err != nil {
				t.Fatalf("insert: %v", err)
			}
			if err := tx.Commit(); err != nil {
				t.Fatalf("commit: %v", err)
			}
		})
	}
}

func mustInsertRaw(t *testing.T, db *sql.DB, f txFixture, txn domain.Transaction) {
	t.Helper()
	_, err := db.Exec(`
		INSERT INTO transactions (id, idempotency_key, from_wallet, to_wallet, amount, type, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, txn.ID, txn.IdempotencyKey, txn.FromWallet, txn.ToWallet, txn.Amount, txn.Type, txn.Status, txn.CreatedAt)
	if err != nil {
		t.Fatalf("raw seed insert: %v", err)
	}
}

func TestTransactions_GetByIdempotencyKey(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	repo := New()
	f := seedTxFixture(t, db)

	want := domain.Transaction{
		ID:             uuid.New(),
		IdempotencyKey: "k-1",
		FromWallet:     f.walletA,
		ToWallet:       f.walletB,
		Amount:         decimal.RequireFromString("25.5000"),
		Type:           domain.Spend,
		Status:         domain.StatusSuccess,
		CreatedAt:      time.Now(),
	}
	mustInsertRaw(t, db, f, want)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got, err := repo.GetByIdempotencyKey(ctx, db, "k-1")
	if err != nil {
		t.Fatalf("get by idempotency key: %v", err)
	}
	if got.ID != want.ID {
		t.Fatalf("id mismatch: want %s, got %s", want.ID, got.ID)
	}

	_, err = repo.GetByIdempotencyKey(ctx, db, "missing-key")
	if domain.KindOf(err) != domain.KindNotFound {
		t.Fatalf("want KindNotFound for missing key, got %v", domain.KindOf(err))
	}
}

func TestTransactions_GetByID(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	repo := New()
	f := seedTxFixture(t, db)

	want := domain.Transaction{
		ID:             uuid.New(),
		IdempotencyKey: "k-2",
		FromWallet:     f.walletA,
		ToWallet:       f.walletB,
		Amount:         decimal.RequireFromString("5"),
		Type:           domain.Bonus,
		Status:         domain.StatusSuccess,
		CreatedAt:      time.Now(),
	}
	mustInsertRaw(t, db, f, want)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got, err := repo.GetByID(ctx, db, want.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if !got.Amount.Equal(want.Amount) {
		t.Fatalf("amount mismatch: want %s, got %s", want.Amount, got.Amount)
	}

	_, err = repo.GetByID(ctx, db, uuid.New())
	if domain.KindOf(err) != domain.KindNotFound {
		t.Fatalf("want KindNotFound, got %v", domain.KindOf(err))
	}
}

func TestTransactions_ListForUser(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	repo := New()
	f := seedTxFixture(t, db)

	now := time.Now()
	for i, typ := range []domain.TransactionType{domain.TopUp, domain.Spend, domain.Bonus} {
		txn := domain.Transaction{
			ID:             uuid.New(),
			IdempotencyKey: uuid.New().String(),
			FromWallet:     f.walletA,
			ToWallet:       f.walletB,
			Amount:         decimal.RequireFromString("1"),
			Type:           typ,
			Status:         domain.StatusSuccess,
			CreatedAt:      now.Add(time.Duration(i) * time.Second),
		}
		mustInsertRaw(t, db, f, txn)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	all, total, err := repo.ListForUser(ctx, db, transactions.HistoryFilter{UserID: f.userA, Limit: 10, Offset: 0})
	if err != nil {
		t.Fatalf("list for user: %v", err)
	}
	if total != 3 {
		t.Fatalf("want total 3, got %d", total)
	}
	if len(all) != 3 {
		t.Fatalf("want 3 rows, got %d", len(all))
	}
	// newest first
	if !all[0].CreatedAt.After(all[1].CreatedAt) {
		t.Fatalf("expected descending created_at order")
	}

	spendType := domain.Spend
	filtered, total, err := repo.ListForUser(ctx, db, transactions.HistoryFilter{UserID: f.userA, Type: &spendType, Limit: 10})
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if total != 1 || len(filtered) != 1 {
		t.Fatalf("want 1 spend row, got total=%d len=%d", total, len(filtered))
	}
	if filtered[0].Type != domain.Spend {
		t.Fatalf("want SPEND, got %s", filtered[0].Type)
	}
}

func TestTransactions_Insert_UnknownWalletFails(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	repo := New()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	defer func() { _ = tx.Rollback() }()

	err = repo.Insert(ctx, tx, domain.Transaction{
		ID:             uuid.New(),
		IdempotencyKey: "orphan",
		FromWallet:     uuid.New(),
		ToWallet:       uuid.New(),
		Amount:         decimal.RequireFromString("1"),
		Type:           domain.TopUp,
		Status:         domain.StatusSuccess,
		CreatedAt:      time.Now(),
	})
	if err == nil {
		t.Fatal("want foreign key violation error, got nil")
	}
	if domain.KindOf(err) != domain.KindInfrastructure {
		t.Fatalf("want KindInfrastructure for FK violation, got %v", domain.KindOf(err))
	}
}
