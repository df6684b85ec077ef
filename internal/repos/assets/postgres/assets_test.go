package assets

import (
	"context"
	"testing"
	"time"

	"github.com/closedwallet/closedwallet/internal/domain"
	"github.com/closedwallet/closedwallet/internal/infra/pgtestutil"
	"github.com/google/uuid"
)

func TestAssets_GetBySymbol(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	repo := New()
	id := uuid.New()

	_, err := db.Exec(`INSERT INTO assets (id, symbol, name) VALUES ($1, $2, $3)`, id, "GOLD", "Gold")
	if err != nil {
		t.Fatalf("seed asset: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got, err := repo.GetBySymbol(ctx, db, "GOLD")
	if err != nil {
		t.Fatalf("get by symbol: %v", err)
	}
	if got.ID != id {
		t.Fatalf("id mismatch: want %s, got %s", id, got.ID)
	}
}

func TestAssets_GetBySymbol_CaseInsensitive(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	repo := New()
	id := uuid.New()

	_, err := db.Exec(`INSERT INTO assets (id, symbol, name) VALUES ($1, $2, $3)`, id, "GOLD", "Gold")
	if err != nil {
		t.Fatalf("seed asset: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got, err := repo.GetBySymbol(ctx, db, "gold")
	if err != nil {
		t.Fatalf("get by symbol lowercase: %v", err)
	}
	if got.ID != id {
		t.Fatalf("id mismatch: want %s, got %s", id, got.ID)
	}
}

func TestAssets_GetBySymbol_Unknown(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	repo := New()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := repo.GetBySymbol(ctx, db, "NOPE")
	if domain.KindOf(err) != domain.KindValidation {
		t.Fatalf("want KindValidation for unknown asset, got %v", domain.KindOf(err))
	}
}
