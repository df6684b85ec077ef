package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/closedwallet/closedwallet/internal/domain"
	"github.com/closedwallet/closedwallet/internal/infra/pgutils"
	"github.com/closedwallet/closedwallet/internal/repos/ledger"
	"github.com/google/uuid"
)

var _ ledger.Ledger = (*ledgerRepo)(nil)

type ledgerRepo struct{}

func New() *ledgerRepo {
	return &ledgerRepo{}
}

func (r *ledgerRepo) InsertPair(ctx context.Context, tx *sql.Tx, debit, credit domain.LedgerEntry) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO ledger_entries (id, transaction_id, wallet_id, entry_type, amount, balance_after, created_at)
		VALUES
			($1, $2, $3, $4, $5, $6, $7),
			($8, $9, $10, $11, $12, $13, $14)
	`,
		debit.ID, debit.TransactionID, debit.WalletID, debit.EntryType, debit.Amount, debit.BalanceAfter, debit.CreatedAt,
		credit.ID, credit.TransactionID, credit.WalletID, credit.EntryType, credit.Amount, credit.BalanceAfter, credit.CreatedAt,
	)
	if err != nil {
		return domain.NewInfrastructure("insert ledger pair", err)
	}
	return nil
}

func (r *ledgerRepo) ListForUser(ctx context.Context, q pgutils.Querier, f ledger.LedgerFilter) ([]domain.LedgerEntry, int, error) {
	where := "w.user_id = $1"
	args := []any{f.UserID}

	if f.AssetID != nil {
		args = append(args, *f.AssetID)
		where += fmt.Sprintf(" AND w.asset_id = $%d", len(args))
	}

	var total int
	countQuery := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM ledger_entries le
		JOIN wallets w ON w.id = le.wallet_id
		WHERE %s
	`, where)
	if err := q.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, domain.NewInfrastructure("count ledger", err)
	}

	args = append(args, f.Limit, f.Offset)
	listQuery := fmt.Sprintf(`
		SELECT le.id, le.transaction_id, le.wallet_id, le.entry_type, le.amount, le.balance_after, le.created_at
		FROM ledger_entries le
		JOIN wallets w ON w.id = le.wallet_id
		WHERE %s
		ORDER BY le.created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args))

	rows, err := q.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, domain.NewInfrastructure("list ledger", err)
	}
	defer rows.Close()

	var out []domain.LedgerEntry
	for rows.Next() {
		var e domain.LedgerEntry
		if err := rows.Scan(&e.ID, &e.TransactionID, &e.WalletID, &e.EntryType, &e.Amount, &e.BalanceAfter, &e.CreatedAt); err != nil {
			return nil, 0, domain.NewInfrastructure("scan ledger row", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, domain.NewInfrastructure("iterate ledger", err)
	}

	return out, total, nil
}

func (r *ledgerRepo) ListForTransaction(ctx context.Context, q pgutils.Querier, txID uuid.UUID) ([]domain.LedgerEntry, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, transaction_id, wallet_id, entry_type, amount, balance_after, created_at
		FROM ledger_entries
		WHERE transaction_id = $1
		ORDER BY entry_type
	`, txID)
	if err != nil {
		return nil, domain.NewInfrastructure("list ledger for transaction", err)
	}
	defer rows.Close()

	var out []domain.LedgerEntry
	for rows.Next() {
		var e domain.LedgerEntry
		if err := rows.Scan(&e.ID, &e.TransactionID, &e.WalletID, &e.EntryType, &e.Amount, &e.BalanceAfter, &e.CreatedAt); err != nil {
			return nil, domain.NewInfrastructure("scan ledger for transaction", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewInfrastructure("iterate ledger for transaction", err)
	}

	return out, nil
}
