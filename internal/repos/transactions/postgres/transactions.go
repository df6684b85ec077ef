package transactions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/closedwallet/closedwallet/internal/domain"
	"github.com/closedwallet/closedwallet/internal/infra/pgutils"
	"github.com/closedwallet/closedwallet/internal/repos/transactions"
	"github.com/google/uuid"
)

var _ transactions.Transactions = (*transactionsRepo)(nil)

type transactionsRepo struct{}

func New() *transactionsRepo {
	return &transactionsRepo{}
}

func (r *transactionsRepo) Insert(ctx context.Context, tx *sql.Tx, t domain.Transaction) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO transactions (id, idempotency_key, from_wallet, to_wallet, amount, type, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, t.ID, t.IdempotencyKey, t.FromWallet, t.ToWallet, t.Amount, t.Type, t.Status, t.CreatedAt)
	if err != nil {
		if pgutils.IsUniqueViolation(err) {
			return domain.NewConflict(fmt.Sprintf("idempotency key %q already recorded", t.IdempotencyKey))
		}
		return domain.NewInfrastructure("insert transaction", err)
	}
	return nil
}

func (r *transactionsRepo) GetByIdempotencyKey(ctx context.Context, q pgutils.Querier, key string) (domain.Transaction, error) {
	var t domain.Transaction
	err := q.QueryRowContext(ctx, `
		SELECT id, idempotency_key, from_wallet, to_wallet, amount, type, status, created_at
		FROM transactions
		WHERE idempotency_key = $1
	`, key).Scan(&t.ID, &t.IdempotencyKey, &t.FromWallet, &t.ToWallet, &t.Amount, &t.Type, &t.Status, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Transaction{}, domain.NewNotFound("no transaction with that idempotency key")
		}
		return domain.Transaction{}, domain.NewInfrastructure("get transaction by idempotency key", err)
	}
	return t, nil
}

func (r *transactionsRepo) GetByID(ctx context.Context, q pgutils.Querier, id uuid.UUID) (domain.Transaction, error) {
	var t domain.Transaction
	err := q.QueryRowContext(ctx, `
		SELECT id, idempotency_key, from_wallet, to_wallet, amount, type, status, created_at
		FROM transactions
		WHERE id = $1
	`, id).Scan(&t.ID, &t.IdempotencyKey, &t.FromWallet, &t.ToWallet, &t.Amount, &t.Type, &t.Status, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Transaction{}, domain.NewNotFound(fmt.Sprintf("transaction %s not found", id))
		}
		return domain.Transaction{}, domain.NewInfrastructure("get transaction by id", err)
	}
	return t, nil
}

func (r *transactionsRepo) ListForUser(ctx context.Context, q pgutils.Querier, f transactions.HistoryFilter) ([]domain.Transaction, int, error) {
	where := []string{"(fw.user_id = $1 OR tw.user_id = $1)"}
	args := []any{f.UserID}

	if f.Type != nil {
		args = append(args, *f.Type)
		where = append(where, fmt.Sprintf("t.type = $%d", len(args)))
	}
	if f.AssetID != nil {
		args = append(args, *f.AssetID)
		where = append(where, fmt.Sprintf("fw.asset_id = $%d", len(args)))
	}
	if f.StartDate != nil {
		args = append(args, *f.StartDate)
		where = append(where, fmt.Sprintf("t.created_at >= $%d", len(args)))
	}
	if f.EndDate != nil {
		args = append(args, *f.EndDate)
		where = append(where, fmt.Sprintf("t.created_at <= $%d", len(args)))
	}

	whereSQL := strings.Join(where, " AND ")

	var total int
	countQuery := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM transactions t
		JOIN wallets fw ON fw.id = t.from_wallet
		JOIN wallets tw ON tw.id = t.to_wallet
		WHERE %s
	`, whereSQL)
	if err := q.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, domain.NewInfrastructure("count transaction history", err)
	}

	args = append(args, f.Limit, f.Offset)
	listQuery := fmt.Sprintf(`
		SELECT t.id, t.idempotency_key, t.from_wallet, t.to_wallet, t.amount, t.type, t.status, t.created_at
		FROM transactions t
		JOIN wallets fw ON fw.id = t.from_wallet
		JOIN wallets tw ON tw.id = t.to_wallet
		WHERE %s
		ORDER BY t.created_at DESC
		LIMIT $%d OFFSET $%d
	`, whereSQL, len(args)-1, len(args))

	rows, err := q.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, domain.NewInfrastructure("list transaction history", err)
	}
	defer rows.Close()

	var out []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		if err := rows.Scan(&t.ID, &t.IdempotencyKey, &t.FromWallet, &t.ToWallet, &t.Amount, &t.Type, &t.Status, &t.CreatedAt); err != nil {
			return nil, 0, domain.NewInfrastructure("scan transaction history row", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, domain.NewInfrastructure("iterate transaction history", err)
	}

	return out, total, nil
}
