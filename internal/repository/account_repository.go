package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"college/internal/apperr"
	"college/internal/domain"
)

type AccountRepository interface {
	GetByUsername(ctx context.Context, username string) (domain.Account, error)
	Create(ctx context.Context, account domain.Account) (domain.Account, error)
}

type AccountPostgresRepository struct {
	execer Execer
}

func NewAccountPostgresRepository(execer Execer) *AccountPostgresRepository {
	return &AccountPostgresRepository{execer: execer}
}

func (r *AccountPostgresRepository) GetByUsername(ctx context.Context, username string) (domain.Account, error) {
	const query = `
SELECT id, username, password_hash, role, created_at
FROM accounts
WHERE username = $1
`

	var account domain.Account
	if err := r.execer.QueryRowContext(ctx, query, username).Scan(
		&account.ID,
		&account.Username,
		&account.PasswordHash,
		&account.Role,
		&account.CreatedAt,
	); err != nil {
		return domain.Account{}, err
	}
	return account, nil
}

func (r *AccountPostgresRepository) Create(ctx context.Context, account domain.Account) (domain.Account, error) {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}

	const query = `
INSERT INTO accounts (id, username, password_hash, role, created_at)
VALUES ($1, $2, $3, $4, now())
RETURNING created_at
`

	err := r.execer.QueryRowContext(
		ctx,
		query,
		account.ID,
		account.Username,
		account.PasswordHash,
		account.Role,
	).Scan(&account.CreatedAt)
	if isUniqueViolation(err) {
		return domain.Account{}, fmt.Errorf("account %s: %w", account.Username, apperr.ErrConflict)
	}
	if err != nil {
		return domain.Account{}, err
	}
	return account, nil
}
