package assets

import (
	"context"

	"github.com/closedwallet/closedwallet/internal/domain"
	"github.com/closedwallet/closedwallet/internal/infra/pgutils"
)

// Assets resolves the immutable asset catalog. Symbols are unique
// case-insensitively; callers pass whatever case the client sent.
type Assets interface {
	GetBySymbol(ctx context.Context, q pgutils.Querier, symbol string) (domain.Asset, error)
}
