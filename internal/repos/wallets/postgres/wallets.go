package wallets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/closedwallet/closedwallet/internal/domain"
	"github.com/closedwallet/closedwallet/internal/infra/pgutils"
	"github.com/closedwallet/closedwallet/internal/repos/wallets"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var _ wallets.Wallets = (*walletsRepo)(nil)

type walletsRepo struct{}

func New() *walletsRepo {
	return &walletsRepo{}
}

func (r *walletsRepo) GetByUserAsset(ctx context.Context, q pgutils.Querier, userID, assetID uuid.UUID) (domain.Wallet, error) {
	var w domain.Wallet

	err := q.QueryRowContext(ctx, `
		SELECT id, user_id, asset_id, balance
		FROM wallets
		WHERE user_id = $1 AND asset_id = $2
	`, userID, assetID).Scan(&w.ID, &w.UserID, &w.AssetID, &w.Balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Wallet{}, domain.NewNotFound("wallet not found")
		}
		return domain.Wallet{}, domain.NewInfrastructure("get wallet", err)
	}

	return w, nil
}

// LockPair issues one locking read for both wallet rows, filtered by
// asset_id, in user_id ascending order — the canonical lock order the
// Transfer Engine relies on for deadlock freedom.
func (r *walletsRepo) LockPair(ctx context.Context, tx *sql.Tx, userA, userB, assetID uuid.UUID) (map[uuid.UUID]domain.Wallet, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, user_id, asset_id, balance
		FROM wallets
		WHERE asset_id = $1 AND user_id IN ($2, $3)
		ORDER BY user_id
		FOR UPDATE
	`, assetID, userA, userB)
	if err != nil {
		return nil, domain.NewInfrastructure("lock wallet pair", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID]domain.Wallet, 2)
	for rows.Next() {
		var w domain.Wallet
		if err := rows.Scan(&w.ID, &w.UserID, &w.AssetID, &w.Balance); err != nil {
			return nil, domain.NewInfrastructure("scan locked wallet", err)
		}
		out[w.UserID] = w
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewInfrastructure("iterate locked wallets", err)
	}

	return out, nil
}

func (r *walletsRepo) UpdateBalance(ctx context.Context, tx *sql.Tx, walletID uuid.UUID, newBalance decimal.Decimal) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE wallets
		SET balance = $2
		WHERE id = $1
	`, walletID, newBalance)
	if err != nil {
		return fmt.Errorf("update wallet balance: %w", err)
	}
	return nil
}
