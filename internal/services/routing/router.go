// Package routing implements the Request Router: it maps a caller's
// (user, type) pair to the (from, to) user-id pair the Transfer Engine
// should move funds between, using the treasury as universal counterparty.
package routing

import (
	"github.com/closedwallet/closedwallet/internal/domain"
	"github.com/closedwallet/closedwallet/internal/services/treasury"
	"github.com/google/uuid"
)

type Router struct {
	treasury *treasury.Resolver
}

func New(t *treasury.Resolver) *Router {
	return &Router{treasury: t}
}

// Resolve returns the (from, to) user ids for a transaction type:
//
//	TOP_UP  Treasury -> User
//	BONUS   Treasury -> User
//	SPEND   User -> Treasury
func (r *Router) Resolve(txType domain.TransactionType, callerUserID uuid.UUID) (from, to uuid.UUID, err error) {
	switch txType {
	case domain.TopUp, domain.Bonus:
		from, to = r.treasury.UserID(), callerUserID
	case domain.Spend:
		from, to = callerUserID, r.treasury.UserID()
	default:
		return uuid.Nil, uuid.Nil, domain.NewValidation("unknown transaction type")
	}

	if from == to {
		return uuid.Nil, uuid.Nil, domain.NewValidation("caller must not be the treasury")
	}

	return from, to, nil
}
