package repository

import (
	"context"
	"errors"
	"time"

	"ticketgate/internal/domain/user"
	"ticketgate/internal/infra"
	"ticketgate/internal/infra/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type UserRepository struct{}

func NewUserRepository() *UserRepository {
	return &UserRepository{}
}

func (r *UserRepository) FindByEmail(ctx context.Context, dbtx db.DBTX, email string) (*user.User, error) {
	row := dbtx.QueryRow(ctx, `
		SELECT id, email, password_hash, role, is_active, created_at
		FROM users
		WHERE email = $1`, email)
	return scanUser(row)
}

func (r *UserRepository) FindByID(ctx context.Context, dbtx db.DBTX, id uuid.UUID) (*user.User, error) {
	row := dbtx.QueryRow(ctx, `
		SELECT id, email, password_hash, role, is_active, created_at
		FROM users
		WHERE id = $1`, id)
	return scanUser(row)
}

func scanUser(row pgx.Row) (*user.User, error) {
	var (
		id                   uuid.UUID
		email, hash, roleStr string
		isActive             bool
		createdAt            time.Time
	)
	if err := row.Scan(&id, &email, &hash, &roleStr, &isActive, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr("user not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to scan user", err)
	}
	role, err := user.ParseRole(roleStr)
	if err != nil {
		return nil, infra.WrapRepoErr("corrupt user role", err)
	}
	return user.ReconstructUser(id, email, hash, role, isActive, createdAt), nil
}
