package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/closedwallet/closedwallet/internal/domain"
	"github.com/closedwallet/closedwallet/internal/infra/pgutils"
	"github.com/closedwallet/closedwallet/internal/repos/users"
	"github.com/google/uuid"
)

var _ users.Users = (*usersRepo)(nil)

type usersRepo struct{}

func New() *usersRepo {
	return &usersRepo{}
}

func (r *usersRepo) GetByEmail(ctx context.Context, q pgutils.Querier, email string) (domain.User, error) {
	var u domain.User

	err := q.QueryRowContext(ctx, `
		SELECT id, email, name, created_at
		FROM users
		WHERE email = $1
	`, email).Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, domain.NewNotFound(fmt.Sprintf("user with email %q not found", email))
		}
		return domain.User{}, domain.NewInfrastructure("get user by email", err)
	}

	return u, nil
}

func (r *usersRepo) GetByID(ctx context.Context, q pgutils.Querier, id uuid.UUID) (domain.User, error) {
	var u domain.User

	err := q.QueryRowContext(ctx, `
		SELECT id, email, name, created_at
		FROM users
		WHERE id = $1
	`, id).Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, domain.NewNotFound(fmt.Sprintf("user %s not found", id))
		}
		return domain.User{}, domain.NewInfrastructure("get user by id", err)
	}

	return u, nil
}
