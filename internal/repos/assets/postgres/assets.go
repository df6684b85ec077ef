package assets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/closedwallet/closedwallet/internal/domain"
	"github.com/closedwallet/closedwallet/internal/infra/pgutils"
	"github.com/closedwallet/closedwallet/internal/repos/assets"
)

var _ assets.Assets = (*assetsRepo)(nil)

type assetsRepo struct{}

func New() *assetsRepo {
	return &assetsRepo{}
}

func (r *assetsRepo) GetBySymbol(ctx context.Context, q pgutils.Querier, symbol string) (domain.Asset, error) {
	var a domain.Asset

	err := q.QueryRowContext(ctx, `
		SELECT id, symbol, name, created_at
		FROM assets
		WHERE UPPER(symbol) = UPPER($1)
	`, symbol).Scan(&a.ID, &a.Symbol, &a.Name, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Asset{}, domain.NewValidation(fmt.Sprintf("unknown asset %q", symbol))
		}
		return domain.Asset{}, domain.NewInfrastructure("get asset by symbol", err)
	}

	return a, nil
}
